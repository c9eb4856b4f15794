package service_test

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"testing"

	"github.com/antonio-alexander/go-employee-crud/internal"
	"github.com/antonio-alexander/go-employee-crud/internal/cache"
	"github.com/antonio-alexander/go-employee-crud/internal/data"
	"github.com/antonio-alexander/go-employee-crud/internal/logic"
	"github.com/antonio-alexander/go-employee-crud/internal/metrics"
	"github.com/antonio-alexander/go-employee-crud/internal/service"
	"github.com/antonio-alexander/go-employee-crud/internal/sql"
	"github.com/antonio-alexander/go-employee-crud/internal/utilities"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	envs = map[string]string{
		//sql
		"DATABASE_TYPE":          "sqlite3",
		"DATABASE_FILE":          ":memory:",
		"DATABASE_QUERY_TIMEOUT": "10",

		//cache
		"CACHE_TTL": "0",

		//logic
		"LOGIC_CACHE_ENABLED": "true",

		//service
		"SERVICE_ADDRESS":          "localhost",
		"SERVICE_PORT":             "8081",
		"SERVICE_SHUTDOWN_TIMEOUT": "10",
		"SERVICE_TIMERS_ENABLED":   "true",
		"SERVICE_CORS_DISABLED":    "",
		"SERVICE_CORS_DEBUG":       "",
	}
)

func init() {
	for _, env := range os.Environ() {
		if s := strings.Split(env, "="); len(s) > 1 {
			envs[s[0]] = strings.Join(s[1:], "=")
		}
	}
}

func statusCode(err error) int {
	var responseError *internal.ResponseError

	if errors.As(err, &responseError) {
		return responseError.StatusCode
	}
	return 0
}

type serviceTest struct {
	sql interface {
		internal.Configurer
		internal.Opener
		sql.Sql
	}
	cache interface {
		internal.Configurer
		internal.Opener
		internal.Clearer
		cache.Cache
	}
	logic interface {
		internal.Configurer
		internal.Opener
		logic.Logic
	}
	service interface {
		internal.Configurer
		internal.Opener
	}
	client  *http.Client
	address string
}

func newServiceTest() *serviceTest {
	registry := prometheus.NewRegistry()
	metrics := metrics.NewMetrics(registry)
	sql := sql.NewSql(metrics)
	cache := cache.NewMemory()
	counter := utilities.NewCounter()
	logic := logic.NewLogic(sql, cache, counter, metrics)
	service := service.NewService(logic, cache, counter,
		utilities.NewTimers(), metrics, registry)
	return &serviceTest{
		sql:     sql,
		cache:   cache,
		logic:   logic,
		client:  &http.Client{},
		service: service,
	}
}

func (s *serviceTest) Configure(envs map[string]string) error {
	if err := s.sql.Configure(envs); err != nil {
		return err
	}
	if err := s.cache.Configure(envs); err != nil {
		return err
	}
	if err := s.logic.Configure(envs); err != nil {
		return err
	}
	if err := s.service.Configure(envs); err != nil {
		return err
	}
	s.address = "http://" + envs["SERVICE_ADDRESS"]
	if port := envs["SERVICE_PORT"]; port != "" {
		s.address += ":" + port
	}
	return nil
}

func (s *serviceTest) Open(ctx context.Context) error {
	if err := s.sql.Open(ctx); err != nil {
		return err
	}
	if err := s.cache.Open(ctx); err != nil {
		return err
	}
	if err := s.logic.Open(ctx); err != nil {
		return err
	}
	return s.service.Open(ctx)
}

func (s *serviceTest) Close(ctx context.Context) error {
	if err := s.service.Close(ctx); err != nil {
		return err
	}
	if err := s.logic.Close(ctx); err != nil {
		return err
	}
	if err := s.cache.Close(ctx); err != nil {
		return err
	}
	return s.sql.Close(ctx)
}

func (s *serviceTest) TestLifecycle(t *testing.T) {
	// create employee
	employee := &data.Employee{
		FirstName: "Kavitha",
		LastName:  "Anooj",
		Age:       30,
		Position:  "TechnologyAnalyst",
	}
	bytes, err := internal.DoRequest(s.client, s.address+data.RouteEmployeesAdd,
		http.MethodPost, employee)
	require.Nil(t, err)
	assert.Equal(t, data.MessageDataInserted, string(bytes))

	// read all employees
	var employees []*data.Employee
	_, err = internal.DoRequest(s.client, s.address+data.RouteEmployeesGetAll,
		http.MethodGet, nil, &employees)
	require.Nil(t, err)
	require.Len(t, employees, 1)
	id := employees[0].Id
	assert.NotZero(t, id)
	employee.Id = id
	assert.Equal(t, employee, employees[0])

	// read employee
	employeeRead := &data.Employee{}
	uriEmployeeRead := fmt.Sprintf(s.address+data.RouteEmployeesGetf, id)
	_, err = internal.DoRequest(s.client, uriEmployeeRead, http.MethodGet, nil, employeeRead)
	require.Nil(t, err)
	assert.Equal(t, employee, employeeRead)

	// update age
	employeeUpdated := &data.Employee{}
	_, err = internal.DoRequest(s.client, s.address+data.RouteEmployeesUpdate, http.MethodPut,
		url.Values{
			data.ParameterId:         {fmt.Sprint(id)},
			data.ParameterColumn:     {"age"},
			data.ParameterDataToEdit: {"31"},
		}, employeeUpdated)
	require.Nil(t, err)
	assert.Equal(t, 31, employeeUpdated.Age)
	assert.Equal(t, "Kavitha", employeeUpdated.FirstName)

	// update with a non-numeric age
	_, err = internal.DoRequest(s.client, s.address+data.RouteEmployeesUpdate, http.MethodPut,
		url.Values{
			data.ParameterId:         {fmt.Sprint(id)},
			data.ParameterColumn:     {"age"},
			data.ParameterDataToEdit: {"abc"},
		})
	assert.Equal(t, http.StatusBadRequest, statusCode(err))

	// update an unknown column
	_, err = internal.DoRequest(s.client, s.address+data.RouteEmployeesUpdate, http.MethodPut,
		url.Values{
			data.ParameterId:         {fmt.Sprint(id)},
			data.ParameterColumn:     {"salary"},
			data.ParameterDataToEdit: {"1"},
		})
	assert.Equal(t, http.StatusBadRequest, statusCode(err))

	// update without an id
	_, err = internal.DoRequest(s.client, s.address+data.RouteEmployeesUpdate, http.MethodPut,
		url.Values{
			data.ParameterColumn:     {"position"},
			data.ParameterDataToEdit: {"Lead"},
		})
	assert.Equal(t, http.StatusBadRequest, statusCode(err))

	// replace employee
	employee.Position, employee.Age = "Manager", 32
	employeeReplaced := &data.Employee{}
	uriEmployeeReplace := fmt.Sprintf(s.address+data.RouteEmployeesReplacef, id)
	_, err = internal.DoRequest(s.client, uriEmployeeReplace, http.MethodPut, employee, employeeReplaced)
	require.Nil(t, err)
	assert.Equal(t, employee, employeeReplaced)

	// wrong method
	_, err = internal.DoRequest(s.client, uriEmployeeRead, http.MethodDelete, nil)
	assert.Equal(t, http.StatusMethodNotAllowed, statusCode(err))

	// delete employee
	uriEmployeeDelete := fmt.Sprintf(s.address+data.RouteEmployeesDeletef, id)
	bytes, err = internal.DoRequest(s.client, uriEmployeeDelete, http.MethodDelete, nil)
	require.Nil(t, err)
	assert.Equal(t, data.MessageRecordDeleted, string(bytes))

	// read deleted employee
	_, err = internal.DoRequest(s.client, uriEmployeeRead, http.MethodGet, nil, employeeRead)
	assert.Equal(t, http.StatusNotFound, statusCode(err))

	// delete employee again
	_, err = internal.DoRequest(s.client, uriEmployeeDelete, http.MethodDelete, nil)
	assert.Equal(t, http.StatusNotFound, statusCode(err))
	var responseError *internal.ResponseError
	if assert.True(t, errors.As(err, &responseError)) {
		assert.Equal(t, data.MessageRecordNotFound, responseError.Body)
	}

	// read all employees, now empty
	bytes, err = internal.DoRequest(s.client, s.address+data.RouteEmployeesGetAll,
		http.MethodGet, nil)
	require.Nil(t, err)
	assert.Equal(t, "[]", string(bytes))
}

func (s *serviceTest) TestInvalidInput(t *testing.T) {
	// bad id in path
	_, err := internal.DoRequest(s.client, s.address+"/employees/get/abc", http.MethodGet, nil)
	assert.Equal(t, http.StatusBadRequest, statusCode(err))

	// malformed body
	request, err := http.NewRequest(http.MethodPost, s.address+data.RouteEmployeesAdd,
		strings.NewReader("{"))
	require.Nil(t, err)
	response, err := s.client.Do(request)
	require.Nil(t, err)
	defer response.Body.Close()
	assert.Equal(t, http.StatusBadRequest, response.StatusCode)
}

func (s *serviceTest) TestSupport(t *testing.T) {
	// version
	bytes, err := internal.DoRequest(s.client, s.address+"/", http.MethodGet, nil)
	require.Nil(t, err)
	assert.Contains(t, string(bytes), "go-employee-crud")

	// timers
	timers := &data.Timers{}
	_, err = internal.DoRequest(s.client, s.address+data.RouteTimers, http.MethodGet, nil, timers)
	assert.Nil(t, err)
	_, err = internal.DoRequest(s.client, s.address+data.RouteTimers, http.MethodDelete, nil)
	assert.Nil(t, err)

	// cache and cache counters
	counters := &data.CacheCounters{}
	_, err = internal.DoRequest(s.client, s.address+data.RouteCacheCounters, http.MethodGet, nil, counters)
	assert.Nil(t, err)
	_, err = internal.DoRequest(s.client, s.address+data.RouteCacheCounters, http.MethodDelete, nil)
	assert.Nil(t, err)
	_, err = internal.DoRequest(s.client, s.address+data.RouteCache, http.MethodDelete, nil)
	assert.Nil(t, err)

	// metrics
	bytes, err = internal.DoRequest(s.client, s.address+data.RouteMetrics, http.MethodGet, nil)
	require.Nil(t, err)
	assert.Contains(t, string(bytes), "employees_http_requests_total")
	assert.Contains(t, string(bytes), "employees_cache_results_total")
}

func TestService(t *testing.T) {
	c := newServiceTest()

	ctx := context.TODO()
	err := c.Configure(envs)
	if !assert.Nil(t, err) {
		assert.FailNow(t, "unable to configure testService")
	}
	err = c.Open(ctx)
	if !assert.Nil(t, err) {
		assert.FailNow(t, "unable to open testService")
	}
	defer func() {
		if err := c.Close(ctx); err != nil {
			t.Logf("error while closing testService: %s", err)
		}
	}()
	t.Run("Lifecycle", c.TestLifecycle)
	t.Run("InvalidInput", c.TestInvalidInput)
	t.Run("Support", c.TestSupport)
}

func TestServiceRateLimit(t *testing.T) {
	ctx := context.TODO()
	sql := sql.NewSql()
	logic := logic.NewLogic(sql)
	service := service.NewService(logic, prometheus.NewRegistry())
	envs := map[string]string{
		"DATABASE_TYPE":      "sqlite3",
		"DATABASE_FILE":      ":memory:",
		"SERVICE_ADDRESS":    "localhost",
		"SERVICE_PORT":       "8083",
		"SERVICE_RATE_LIMIT": "0.001",
		"SERVICE_RATE_BURST": "1",
	}
	require.Nil(t, sql.Configure(envs))
	require.Nil(t, logic.Configure(envs))
	require.Nil(t, service.Configure(envs))
	require.Nil(t, sql.Open(ctx))
	defer func() { _ = sql.Close(ctx) }()
	require.Nil(t, logic.Open(ctx))
	require.Nil(t, service.Open(ctx))
	defer func() { _ = service.Close(ctx) }()

	client := &http.Client{}
	uri := "http://localhost:8083" + data.RouteEmployeesGetAll
	_, err := internal.DoRequest(client, uri, http.MethodGet, nil)
	assert.Nil(t, err)
	_, err = internal.DoRequest(client, uri, http.MethodGet, nil)
	assert.Equal(t, http.StatusTooManyRequests, statusCode(err))
}
