package cache

import (
	"context"
	"fmt"

	"github.com/antonio-alexander/go-employee-crud/internal"
	"github.com/antonio-alexander/go-employee-crud/internal/data"
	"github.com/antonio-alexander/go-employee-crud/internal/utilities"

	"github.com/antonio-alexander/go-stash"
	"github.com/antonio-alexander/go-stash/memory"
	"github.com/antonio-alexander/go-stash/redis"
)

type stashType string

const (
	stashTypeMemory stashType = "memory"
	stashTypeRedis  stashType = "redis"
)

type stashInstance interface {
	stash.Configurer
	stash.Parameterizer
	stash.Initializer
	stash.Shutdowner
	stash.Stasher
}

type stashCache struct {
	logger utilities.Logger
	stash  interface {
		stash.Configurer
		stash.Parameterizer
		stash.Initializer
		stash.Shutdowner
	}
	stash.Stasher
}

// NewStash wraps a go-stash instance, either one provided as a
// parameter or one created from a stashType
func NewStash(parameters ...any) interface {
	internal.Configurer
	internal.Opener
	internal.Clearer
	Cache
} {
	c := &stashCache{logger: utilities.NullLogger()}
	for _, p := range parameters {
		switch p := p.(type) {
		case utilities.Logger:
			c.logger = p
		case stashType:
			var s stashInstance

			switch p {
			case stashTypeMemory:
				s = memory.New()
			case stashTypeRedis:
				s = redis.New()
			}
			if s != nil {
				c.stash, c.Stasher = s, s
			}
		case stashInstance:
			c.stash = p
			c.Stasher = p
		}
	}
	if c.stash != nil {
		c.stash.SetParameters(parameters...)
	}
	return c
}

func (c *stashCache) Configure(envs map[string]string) error {
	if c.stash != nil {
		if err := c.stash.Configure(envs); err != nil {
			return err
		}
	}
	return nil
}

func (c *stashCache) Open(ctx context.Context) error {
	if c.stash != nil {
		return c.stash.Initialize()
	}
	return nil
}

func (c *stashCache) Close(ctx context.Context) error {
	if c.stash != nil {
		return c.stash.Shutdown()
	}
	return nil
}

func (c *stashCache) Clear(ctx context.Context) error {
	return c.Stasher.Clear()
}

func (c *stashCache) EmployeeRead(ctx context.Context, id int64) (*data.Employee, error) {
	employee := &data.Employee{}
	if err := c.Stasher.Read(fmt.Sprint(id), employee); err != nil {
		c.logger.Trace(ctx, "cache miss for employee: %d (%s)", id, err)
		return nil, ErrEmployeeNotCached
	}
	c.logger.Trace(ctx, "cache hit for employee: %d", id)
	return employee, nil
}

func (c *stashCache) EmployeesWrite(ctx context.Context, employees ...*data.Employee) error {
	for _, employee := range employees {
		if _, err := c.Stasher.Write(fmt.Sprint(employee.Id), employee); err != nil {
			c.logger.Error(ctx, "error while writing employee (%d): %s", employee.Id, err)
			return err
		}
		c.logger.Trace(ctx, "cached employee: %d", employee.Id)
	}
	return nil
}

func (c *stashCache) EmployeesDelete(ctx context.Context, ids ...int64) error {
	for _, id := range ids {
		if err := c.Stasher.Delete(fmt.Sprint(id)); err != nil {
			// a missing key isn't worth failing the eviction over
			c.logger.Trace(ctx, "error while evicting employee (%d): %s", id, err)
			continue
		}
		c.logger.Trace(ctx, "evicted cached employee: %d", id)
	}
	return nil
}
