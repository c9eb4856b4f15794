package sql

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/antonio-alexander/go-employee-crud/internal"
	"github.com/antonio-alexander/go-employee-crud/internal/data"
	"github.com/antonio-alexander/go-employee-crud/internal/metrics"
	"github.com/antonio-alexander/go-employee-crud/internal/utilities"

	"github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3" //import for driver support
)

//go:embed schema.sql
var schemaSqlite string

const (
	DriverMySql    string = "mysql"
	DriverSqlite   string = "sqlite3"
	DriverPostgres string = "postgres"
)

const (
	databaseIsolation = sql.LevelSerializable
	TableEmployee     = "employee"
)

const (
	ColumnId        string = "id"
	ColumnFirstName string = "first_name"
	ColumnLastName  string = "last_name"
	ColumnAge       string = "age"
	ColumnPosition  string = "position"
)

// Sql is the persistence gateway, absence is reported with the
// boolean rather than an error
type Sql interface {
	EmployeeInsert(ctx context.Context, employee data.Employee) (int64, error)
	EmployeeFind(ctx context.Context, id int64) (*data.Employee, bool, error)
	EmployeesFindAll(ctx context.Context) ([]*data.Employee, error)
	EmployeeReplace(ctx context.Context, employee data.Employee) (int64, error)
	EmployeeDeleteById(ctx context.Context, id int64) (int64, error)
	ExecuteUpdate(ctx context.Context, statement string, args ...any) (int64, error)
}

type dbSql struct {
	sync.RWMutex
	config config
	*sql.DB
	utilities.Logger
	metrics *metrics.Metrics
	opened  bool
}

// NewSql creates a gateway backed by database/sql; the driver is
// selected with DATABASE_TYPE (mysql or sqlite3)
func NewSql(parameters ...any) interface {
	internal.Configurer
	internal.Opener
	Sql
} {
	s := &dbSql{Logger: utilities.NullLogger()}
	s.config.Driver = DriverMySql
	for _, parameter := range parameters {
		switch p := parameter.(type) {
		case utilities.Logger:
			s.Logger = p
		case *metrics.Metrics:
			s.metrics = p
		}
	}
	return s
}

func (s *dbSql) dataSourceName() (string, error) {
	switch s.config.Driver {
	default:
		return "", fmt.Errorf("unsupported database type: %s", s.config.Driver)
	case DriverMySql:
		config := mysql.NewConfig()
		config.User = s.config.Username
		config.Passwd = s.config.Password
		config.Net = "tcp"
		config.Addr = net.JoinHostPort(s.config.Hostname, s.config.Port)
		config.DBName = s.config.Database
		config.ParseTime = s.config.ParseTime
		return config.FormatDSN(), nil
	case DriverSqlite:
		if s.config.File == "" {
			return ":memory:", nil
		}
		return s.config.File, nil
	}
}

func (s *dbSql) txOptions() *sql.TxOptions {
	if s.config.Driver != DriverMySql {
		return nil
	}
	return &sql.TxOptions{Isolation: databaseIsolation}
}

func (s *dbSql) Configure(envs map[string]string) error {
	s.Lock()
	defer s.Unlock()

	s.config.configure(envs)
	return nil
}

func (s *dbSql) Open(ctx context.Context) error {
	s.Lock()
	defer s.Unlock()

	if s.opened {
		return nil
	}
	dataSourceName, err := s.dataSourceName()
	if err != nil {
		return err
	}
	db, err := sql.Open(s.config.Driver, dataSourceName)
	if err != nil {
		return err
	}
	if err := ping(ctx, s.config.ConnectRetries, db.PingContext); err != nil {
		_ = db.Close()
		return err
	}
	if s.config.Driver == DriverSqlite {
		// sqlite allows a single writer and an in-memory database
		// only lives as long as its connection
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		if _, err := db.ExecContext(ctx, schemaSqlite); err != nil {
			_ = db.Close()
			return err
		}
	}
	s.DB = db
	s.opened = true
	s.Info(ctx, "sql: opened %s database", s.config.Driver)
	return nil
}

func (s *dbSql) Close(ctx context.Context) error {
	s.Lock()
	defer s.Unlock()

	if !s.opened {
		return nil
	}
	if err := s.DB.Close(); err != nil {
		s.Error(ctx, "error while closing sql: %s", err)
	}
	s.opened = false
	return nil
}

func (s *dbSql) EmployeeInsert(ctx context.Context, employee data.Employee) (int64, error) {
	defer observe(s.metrics, "employee_insert")()
	ctx, cancel := withTimeout(ctx, s.config.QueryTimeout)
	defer cancel()

	query := fmt.Sprintf(`INSERT INTO %s (first_name, last_name, age, position)
		VALUES (?, ?, ?, ?);`, TableEmployee)
	result, err := s.ExecContext(ctx, query, employee.FirstName,
		employee.LastName, employee.Age, employee.Position)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

func (s *dbSql) EmployeeFind(ctx context.Context, id int64) (*data.Employee, bool, error) {
	defer observe(s.metrics, "employee_find")()
	ctx, cancel := withTimeout(ctx, s.config.QueryTimeout)
	defer cancel()

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = ?;`,
		employeeColumns, TableEmployee)
	row := s.QueryRowContext(ctx, query, id)
	employee, err := employeeScan(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return employee, true, nil
}

func (s *dbSql) EmployeesFindAll(ctx context.Context) ([]*data.Employee, error) {
	defer observe(s.metrics, "employees_find_all")()
	ctx, cancel := withTimeout(ctx, s.config.QueryTimeout)
	defer cancel()

	employees := []*data.Employee{}
	query := fmt.Sprintf(`SELECT %s FROM %s ORDER BY id;`,
		employeeColumns, TableEmployee)
	rows, err := s.QueryContext(ctx, query)
	if err != nil {
		return nil, err
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

func (s *dbSql) EmployeeReplace(ctx context.Context, employee data.Employee) (int64, error) {
	defer observe(s.metrics, "employee_replace")()
	ctx, cancel := withTimeout(ctx, s.config.QueryTimeout)
	defer cancel()

	query := fmt.Sprintf(`UPDATE %s SET first_name = ?, last_name = ?,
		age = ?, position = ? WHERE id = ?;`, TableEmployee)
	result, err := s.ExecContext(ctx, query, employee.FirstName,
		employee.LastName, employee.Age, employee.Position, employee.Id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (s *dbSql) EmployeeDeleteById(ctx context.Context, id int64) (int64, error) {
	defer observe(s.metrics, "employee_delete")()
	ctx, cancel := withTimeout(ctx, s.config.QueryTimeout)
	defer cancel()

	query := fmt.Sprintf(`DELETE FROM %s WHERE id = ?;`, TableEmployee)
	result, err := s.ExecContext(ctx, query, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// ExecuteUpdate runs a single statement in its own transaction
func (s *dbSql) ExecuteUpdate(ctx context.Context, statement string, args ...any) (int64, error) {
	defer observe(s.metrics, "execute_update")()
	ctx, cancel := withTimeout(ctx, s.config.QueryTimeout)
	defer cancel()

	tx, err := s.BeginTx(ctx, s.txOptions())
	if err != nil {
		return 0, err
	}
	result, err := tx.ExecContext(ctx, statement, args...)
	if err != nil {
		if err := tx.Rollback(); err != nil {
			s.Error(ctx, "error while rolling back update: %s", err)
		}
		return 0, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		_ = tx.Rollback()
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return n, nil
}
