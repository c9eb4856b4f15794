package cache

import (
	"context"
	"errors"

	"github.com/antonio-alexander/go-employee-crud/internal"
	"github.com/antonio-alexander/go-employee-crud/internal/data"
)

const (
	TypeMemory      string = "memory"
	TypeRedis       string = "redis"
	TypeStashMemory string = "stash-memory"
	TypeStashRedis  string = "stash-redis"
)

var ErrEmployeeNotCached = errors.New("employee not cached")

// Cache only holds individual employees, lists are always read
// from the database
type Cache interface {
	EmployeeRead(ctx context.Context, id int64) (*data.Employee, error)
	EmployeesWrite(ctx context.Context, employees ...*data.Employee) error
	EmployeesDelete(ctx context.Context, ids ...int64) error
}

// New creates the cache named by cacheType, an empty or unknown type
// returns nil (caching disabled)
func New(cacheType string, parameters ...any) interface {
	internal.Configurer
	internal.Opener
	internal.Clearer
	Cache
} {
	switch cacheType {
	default:
		return nil
	case TypeMemory:
		return NewMemory(parameters...)
	case TypeRedis:
		return NewRedis(parameters...)
	case TypeStashMemory:
		return NewStash(append(parameters, stashTypeMemory)...)
	case TypeStashRedis:
		return NewStash(append(parameters, stashTypeRedis)...)
	}
}
