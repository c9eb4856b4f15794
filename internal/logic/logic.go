package logic

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/antonio-alexander/go-employee-crud/internal"
	"github.com/antonio-alexander/go-employee-crud/internal/cache"
	"github.com/antonio-alexander/go-employee-crud/internal/data"
	"github.com/antonio-alexander/go-employee-crud/internal/metrics"
	"github.com/antonio-alexander/go-employee-crud/internal/sql"
	"github.com/antonio-alexander/go-employee-crud/internal/utilities"

	"github.com/pkg/errors"
)

const counterEmployeeRead string = "employee_read"

// Logic is the record service; reads report absence with the boolean
// instead of an error
type Logic interface {
	EmployeeCreate(ctx context.Context, employee data.Employee) (string, error)
	EmployeeRead(ctx context.Context, id int64) (*data.Employee, bool, error)
	EmployeesReadAll(ctx context.Context) ([]*data.Employee, error)
	EmployeeUpdateField(ctx context.Context, id int64, fieldName, newValue string) (*data.Employee, bool, error)
	EmployeeReplace(ctx context.Context, id int64, employee data.Employee) (*data.Employee, bool, error)
	EmployeeDelete(ctx context.Context, id int64) error
}

type logic struct {
	sync.RWMutex
	sql.Sql
	cache  cache.Cache
	config struct {
		cacheEnabled   bool
		mutateDisabled bool
	}
	utilities.Logger
	counter utilities.Counter
	metrics *metrics.Metrics

	// evictions is bumped per id on every eviction; a read-through only
	// writes to the cache if no eviction happened since it read the row
	cacheMu   sync.Mutex
	evictions map[int64]uint64
}

func NewLogic(parameters ...any) interface {
	internal.Configurer
	internal.Opener
	Logic
} {
	l := &logic{
		Logger:    utilities.NullLogger(),
		evictions: make(map[int64]uint64),
	}
	for _, parameter := range parameters {
		// the gateway and caches also satisfy utilities.Logger so
		// they have to be matched first
		switch p := parameter.(type) {
		case sql.Sql:
			l.Sql = p
		case cache.Cache:
			l.cache = p
		case utilities.Counter:
			l.counter = p
		case *metrics.Metrics:
			l.metrics = p
		case utilities.Logger:
			l.Logger = p
		}
	}
	return l
}

func (l *logic) Configure(envs map[string]string) error {
	l.Lock()
	defer l.Unlock()

	if cacheEnabled, ok := envs["LOGIC_CACHE_ENABLED"]; ok {
		l.config.cacheEnabled, _ = strconv.ParseBool(cacheEnabled)
	}
	if mutateDisabled, ok := envs["LOGIC_MUTATE_DISABLED"]; ok {
		l.config.mutateDisabled, _ = strconv.ParseBool(mutateDisabled)
	}
	return nil
}

func (l *logic) Open(ctx context.Context) error {
	l.Lock()
	defer l.Unlock()

	if l.Sql == nil {
		return errors.New("logic: no sql provided")
	}
	switch {
	case l.config.cacheEnabled && l.cache == nil:
		l.Warn(ctx, "logic: cache enabled, but no cache provided; caching disabled")
		l.config.cacheEnabled = false
	case l.config.cacheEnabled:
		l.Info(ctx, "logic: cache enabled")
	}
	if l.config.mutateDisabled {
		l.Info(ctx, "logic: mutation disabled")
	}
	return nil
}

func (l *logic) Close(ctx context.Context) error {
	return nil
}

func (l *logic) cacheEnabled() bool {
	l.RLock()
	defer l.RUnlock()

	return l.config.cacheEnabled
}

func (l *logic) mutateDisabled() bool {
	l.RLock()
	defer l.RUnlock()

	return l.config.mutateDisabled
}

func (l *logic) mutated(operation string) {
	if l.metrics != nil {
		l.metrics.RecordsMutated.WithLabelValues(operation).Inc()
	}
}

func (l *logic) cacheResult(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	if l.metrics != nil {
		l.metrics.CacheResults.WithLabelValues(result).Inc()
	}
	if l.counter == nil {
		return
	}
	if hit {
		l.counter.IncrementHit(counterEmployeeRead)
		return
	}
	l.counter.IncrementMiss(counterEmployeeRead)
}

func (l *logic) evictionsRead(id int64) uint64 {
	l.cacheMu.Lock()
	defer l.cacheMu.Unlock()

	return l.evictions[id]
}

func (l *logic) evict(ctx context.Context, id int64) {
	if !l.cacheEnabled() {
		return
	}
	l.cacheMu.Lock()
	defer l.cacheMu.Unlock()

	l.evictions[id]++
	if err := l.cache.EmployeesDelete(ctx, id); err != nil {
		l.Error(ctx, "error while deleting employee (%d) from cache: %s", id, err)
	}
}

// cacheWrite stores employee unless it was evicted after evictions
// was read, in which case the row read may already be stale
func (l *logic) cacheWrite(ctx context.Context, id int64, employee *data.Employee, evictions uint64) {
	l.cacheMu.Lock()
	defer l.cacheMu.Unlock()

	if l.evictions[id] != evictions {
		l.Debug(ctx, "employee (%d) evicted while reading, not caching", id)
		return
	}
	if err := l.cache.EmployeesWrite(ctx, employee); err != nil {
		l.Error(ctx, "error while writing employee (%d) to cache: %s", id, err)
	}
}

func (l *logic) EmployeeCreate(ctx context.Context, employee data.Employee) (string, error) {
	if l.mutateDisabled() {
		return "", data.ErrMutateDisabled
	}
	employee.Id = 0
	id, err := l.Sql.EmployeeInsert(ctx, employee)
	if err != nil {
		return "", err
	}
	l.mutated("create")
	l.Info(ctx, "employee record inserted successfully (%d)", id)
	return data.MessageDataInserted, nil
}

func (l *logic) EmployeeRead(ctx context.Context, id int64) (*data.Employee, bool, error) {
	var evictions uint64

	if l.cacheEnabled() {
		evictions = l.evictionsRead(id)
		employee, err := l.cache.EmployeeRead(ctx, id)
		if err == nil {
			l.cacheResult(true)
			l.Debug(ctx, "retrieved employee record with id %d from cache", id)
			return employee, true, nil
		}
		l.cacheResult(false)
		if !errors.Is(err, cache.ErrEmployeeNotCached) {
			l.Error(ctx, "error while reading employee (%d) from cache: %s", id, err)
		}
	}
	employee, found, err := l.Sql.EmployeeFind(ctx, id)
	if err != nil {
		return nil, false, err
	}
	l.Info(ctx, "retrieved employee record with id %d (found: %t)", id, found)
	if found && l.cacheEnabled() {
		l.cacheWrite(ctx, id, employee, evictions)
	}
	return employee, found, nil
}

func (l *logic) EmployeesReadAll(ctx context.Context) ([]*data.Employee, error) {
	employees, err := l.Sql.EmployeesFindAll(ctx)
	if err != nil {
		return nil, err
	}
	l.Info(ctx, "retrieved %d employee records", len(employees))
	return employees, nil
}

func (l *logic) EmployeeUpdateField(ctx context.Context, id int64, fieldName, newValue string) (*data.Employee, bool, error) {
	if l.mutateDisabled() {
		return nil, false, data.ErrMutateDisabled
	}
	setter, err := lookupField(fieldName)
	if err != nil {
		l.Warn(ctx, "cannot update employee %d: %s", id, err)
		return nil, false, err
	}
	value, err := setter.parse(newValue)
	if err != nil {
		l.Warn(ctx, "cannot update employee %d: %s", id, err)
		return nil, false, err
	}
	statement := fmt.Sprintf("UPDATE %s SET %s = ? WHERE id = ?",
		sql.TableEmployee, setter.column)
	if _, err := l.Sql.ExecuteUpdate(ctx, statement, value, id); err != nil {
		return nil, false, err
	}
	l.evict(ctx, id)
	l.mutated("update")
	l.Info(ctx, "employee record with id %d is updated (%s)", id, setter.column)
	return l.Sql.EmployeeFind(ctx, id)
}

func (l *logic) EmployeeReplace(ctx context.Context, id int64, employee data.Employee) (*data.Employee, bool, error) {
	if l.mutateDisabled() {
		return nil, false, data.ErrMutateDisabled
	}
	employee.Id = id
	if _, err := l.Sql.EmployeeReplace(ctx, employee); err != nil {
		return nil, false, err
	}
	l.evict(ctx, id)
	l.mutated("replace")
	l.Info(ctx, "employee record with id %d is replaced", id)
	return l.Sql.EmployeeFind(ctx, id)
}

func (l *logic) EmployeeDelete(ctx context.Context, id int64) error {
	if l.mutateDisabled() {
		return data.ErrMutateDisabled
	}
	_, found, err := l.Sql.EmployeeFind(ctx, id)
	if err != nil {
		return err
	}
	if !found {
		l.evict(ctx, id)
		l.Warn(ctx, "cannot delete employee %d: not found", id)
		return errors.Wrapf(data.ErrNotFound, "employee %d", id)
	}
	n, err := l.Sql.EmployeeDeleteById(ctx, id)
	if err != nil {
		return err
	}
	if n == 0 {
		// deleted by someone else between the find and the delete
		l.evict(ctx, id)
		l.Warn(ctx, "cannot delete employee %d: deleted concurrently", id)
		return errors.Wrapf(data.ErrNotFound, "employee %d", id)
	}
	l.evict(ctx, id)
	l.mutated("delete")
	l.Info(ctx, "employee record with id %d is deleted", id)
	return nil
}
