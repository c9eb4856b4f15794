package cache_test

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/antonio-alexander/go-employee-crud/internal"
	"github.com/antonio-alexander/go-employee-crud/internal/cache"
	"github.com/antonio-alexander/go-employee-crud/internal/data"

	"github.com/stretchr/testify/assert"
)

var envs = map[string]string{
	"REDIS_PORT":    "6379",
	"REDIS_TIMEOUT": "10",
}

func init() {
	for _, env := range os.Environ() {
		if s := strings.Split(env, "="); len(s) > 1 {
			envs[s[0]] = strings.Join(s[1:], "=")
		}
	}
}

type cacheTest struct {
	cache interface {
		internal.Configurer
		internal.Opener
		internal.Clearer
	}
	cache.Cache
}

func newCacheTest(cacheType string) *cacheTest {
	c := cache.New(cacheType)
	return &cacheTest{
		cache: c,
		Cache: c,
	}
}

func (c *cacheTest) TestCache(t *testing.T) {
	//create employees
	employees := []*data.Employee{
		{Id: 1, FirstName: internal.GenerateId(), LastName: internal.GenerateId(), Age: 30, Position: "Analyst"},
		{Id: 2, FirstName: internal.GenerateId(), LastName: internal.GenerateId(), Age: 31, Position: "Developer"},
		{Id: 3, FirstName: internal.GenerateId(), LastName: internal.GenerateId(), Age: 32, Position: "Manager"},
	}

	//create context
	ctx := context.TODO()

	//clear cache
	err := c.cache.Clear(ctx)
	assert.Nil(t, err)

	// read uncached employee
	employeeRead, err := c.EmployeeRead(ctx, employees[0].Id)
	assert.ErrorIs(t, err, cache.ErrEmployeeNotCached)
	assert.Nil(t, employeeRead)

	// write employees
	err = c.EmployeesWrite(ctx, employees...)
	assert.Nil(t, err)

	// read employees
	for _, employee := range employees {
		employeeRead, err := c.EmployeeRead(ctx, employee.Id)
		assert.Nil(t, err)
		assert.Equal(t, employee, employeeRead)
	}

	// delete employee [1]
	err = c.EmployeesDelete(ctx, employees[1].Id)
	assert.Nil(t, err)

	//  attempt to read employee [1]
	employeeRead, err = c.EmployeeRead(ctx, employees[1].Id)
	assert.NotNil(t, err)
	assert.Nil(t, employeeRead)

	// clear and attempt to read employee [0]
	err = c.cache.Clear(ctx)
	assert.Nil(t, err)
	employeeRead, err = c.EmployeeRead(ctx, employees[0].Id)
	assert.NotNil(t, err)
	assert.Nil(t, employeeRead)
}

func testCache(t *testing.T, cacheType string) {
	c := newCacheTest(cacheType)

	ctx := context.TODO()
	err := c.cache.Configure(envs)
	if !assert.Nil(t, err) {
		assert.FailNow(t, "unable to configure cache")
	}
	err = c.cache.Open(ctx)
	if !assert.Nil(t, err) {
		assert.FailNow(t, "unable to open cache")
	}
	defer func() {
		if err := c.cache.Close(ctx); err != nil {
			t.Logf("error while closing cache: %s", err)
		}
	}()
	t.Run("Cache", c.TestCache)
}

func TestCacheMemory(t *testing.T) {
	testCache(t, cache.TypeMemory)
}

func TestCacheMemoryTTL(t *testing.T) {
	ctx := context.TODO()
	c := cache.NewMemory()
	err := c.Configure(map[string]string{
		"CACHE_TTL":            "1",
		"CACHE_PRUNE_INTERVAL": "1",
	})
	assert.Nil(t, err)
	err = c.Open(ctx)
	assert.Nil(t, err)
	defer func() {
		_ = c.Close(ctx)
	}()

	err = c.EmployeesWrite(ctx, &data.Employee{Id: 1, FirstName: "Kavitha"})
	assert.Nil(t, err)
	_, err = c.EmployeeRead(ctx, 1)
	assert.Nil(t, err)
	assert.Eventually(t, func() bool {
		_, err := c.EmployeeRead(ctx, 1)
		return err != nil
	}, 5*time.Second, 100*time.Millisecond)
}

func TestCacheMemoryIsolation(t *testing.T) {
	ctx := context.TODO()
	c := cache.NewMemory()
	_ = c.Configure(envs)
	_ = c.Open(ctx)
	defer func() {
		_ = c.Close(ctx)
	}()

	employee := &data.Employee{Id: 1, Position: "Analyst"}
	err := c.EmployeesWrite(ctx, employee)
	assert.Nil(t, err)
	employee.Position = "Manager"
	employeeRead, err := c.EmployeeRead(ctx, 1)
	assert.Nil(t, err)
	assert.Equal(t, "Analyst", employeeRead.Position)
}

func TestCacheRedis(t *testing.T) {
	if envs["REDIS_ADDRESS"] == "" {
		t.Skip("REDIS_ADDRESS not set")
	}
	testCache(t, cache.TypeRedis)
}

func TestCacheNone(t *testing.T) {
	assert.Nil(t, cache.New(""))
}
