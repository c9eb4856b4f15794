package sql

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/antonio-alexander/go-employee-crud/internal"
	"github.com/antonio-alexander/go-employee-crud/internal/data"
	"github.com/antonio-alexander/go-employee-crud/internal/metrics"
	"github.com/antonio-alexander/go-employee-crud/internal/utilities"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgxPool is the subset of *pgxpool.Pool used by the postgres gateway
type PgxPool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
	Ping(ctx context.Context) error
	Close()
}

type postgres struct {
	sync.RWMutex
	config config
	pool   PgxPool
	utilities.Logger
	metrics  *metrics.Metrics
	injected bool
	opened   bool
}

// NewPostgres creates a gateway backed by a pgx pool, if a PgxPool is
// provided it's used as is and Open won't connect
func NewPostgres(parameters ...any) interface {
	internal.Configurer
	internal.Opener
	Sql
} {
	p := &postgres{Logger: utilities.NullLogger()}
	p.config.Driver = DriverPostgres
	for _, parameter := range parameters {
		switch v := parameter.(type) {
		case utilities.Logger:
			p.Logger = v
		case *metrics.Metrics:
			p.metrics = v
		case PgxPool:
			p.pool = v
			p.injected = true
		}
	}
	return p
}

func (p *postgres) Configure(envs map[string]string) error {
	p.Lock()
	defer p.Unlock()

	p.config.configure(envs)
	return nil
}

func (p *postgres) Open(ctx context.Context) error {
	const idleTime, healthCheckPeriod = 30 * time.Second, 30 * time.Second

	p.Lock()
	defer p.Unlock()

	if p.opened || p.injected {
		p.opened = true
		return nil
	}
	dbURL := fmt.Sprintf("postgres://%s:%s@%s/%s?sslmode=disable",
		p.config.Username, p.config.Password,
		net.JoinHostPort(p.config.Hostname, p.config.Port), p.config.Database)
	poolConfig, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		return fmt.Errorf("failed to parse database config: %w", err)
	}
	poolConfig.MaxConnIdleTime = idleTime
	poolConfig.HealthCheckPeriod = healthCheckPeriod
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return fmt.Errorf("unable to create connection to PostgreSQL: %w", err)
	}
	if err := ping(ctx, p.config.ConnectRetries, pool.Ping); err != nil {
		pool.Close()
		return fmt.Errorf("failed to ping PostgreSQL: %w", err)
	}
	p.pool = pool
	p.opened = true
	p.Info(ctx, "sql: opened postgres database")
	return nil
}

func (p *postgres) Close(ctx context.Context) error {
	p.Lock()
	defer p.Unlock()

	if !p.opened {
		return nil
	}
	p.pool.Close()
	p.opened = false
	return nil
}

func (p *postgres) EmployeeInsert(ctx context.Context, employee data.Employee) (int64, error) {
	var id int64

	defer observe(p.metrics, "employee_insert")()
	ctx, cancel := withTimeout(ctx, p.config.QueryTimeout)
	defer cancel()

	query := fmt.Sprintf(`INSERT INTO %s (first_name, last_name, age, position)
		VALUES ($1, $2, $3, $4) RETURNING id;`, TableEmployee)
	if err := p.pool.QueryRow(ctx, query, employee.FirstName, employee.LastName,
		employee.Age, employee.Position).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to insert employee: %w", err)
	}
	return id, nil
}

func (p *postgres) EmployeeFind(ctx context.Context, id int64) (*data.Employee, bool, error) {
	defer observe(p.metrics, "employee_find")()
	ctx, cancel := withTimeout(ctx, p.config.QueryTimeout)
	defer cancel()

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1;`,
		employeeColumns, TableEmployee)
	employee, err := employeeScan(p.pool.QueryRow(ctx, query, id).Scan)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to find employee: %w", err)
	}
	return employee, true, nil
}

func (p *postgres) EmployeesFindAll(ctx context.Context) ([]*data.Employee, error) {
	defer observe(p.metrics, "employees_find_all")()
	ctx, cancel := withTimeout(ctx, p.config.QueryTimeout)
	defer cancel()

	employees := []*data.Employee{}
	query := fmt.Sprintf(`SELECT %s FROM %s ORDER BY id;`,
		employeeColumns, TableEmployee)
	rows, err := p.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to find employees: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		employee, err := employeeScan(rows.Scan)
		if err != nil {
			return nil, err
		}
		employees = append(employees, employee)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return employees, nil
}

func (p *postgres) EmployeeReplace(ctx context.Context, employee data.Employee) (int64, error) {
	defer observe(p.metrics, "employee_replace")()
	ctx, cancel := withTimeout(ctx, p.config.QueryTimeout)
	defer cancel()

	query := fmt.Sprintf(`UPDATE %s SET first_name = $1, last_name = $2,
		age = $3, position = $4 WHERE id = $5;`, TableEmployee)
	tag, err := p.pool.Exec(ctx, query, employee.FirstName, employee.LastName,
		employee.Age, employee.Position, employee.Id)
	if err != nil {
		return 0, fmt.Errorf("failed to replace employee: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (p *postgres) EmployeeDeleteById(ctx context.Context, id int64) (int64, error) {
	defer observe(p.metrics, "employee_delete")()
	ctx, cancel := withTimeout(ctx, p.config.QueryTimeout)
	defer cancel()

	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1;`, TableEmployee)
	tag, err := p.pool.Exec(ctx, query, id)
	if err != nil {
		return 0, fmt.Errorf("failed to delete employee: %w", err)
	}
	return tag.RowsAffected(), nil
}

// ExecuteUpdate accepts ? placeholders, they're rebound to $n
func (p *postgres) ExecuteUpdate(ctx context.Context, statement string, args ...any) (int64, error) {
	defer observe(p.metrics, "execute_update")()
	ctx, cancel := withTimeout(ctx, p.config.QueryTimeout)
	defer cancel()

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	tag, err := tx.Exec(ctx, rebind(statement), args...)
	if err != nil {
		if err := tx.Rollback(ctx); err != nil {
			p.Error(ctx, "error while rolling back update: %s", err)
		}
		return 0, fmt.Errorf("failed to execute update: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit update: %w", err)
	}
	return tag.RowsAffected(), nil
}
