package sql

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/antonio-alexander/go-employee-crud/internal/data"
	"github.com/antonio-alexander/go-employee-crud/internal/metrics"

	"github.com/cenkalti/backoff/v5"
)

const employeeColumns string = "id, first_name, last_name, age, position"

func employeeScan(scanFx func(...any) error) (*data.Employee, error) {
	employee := new(data.Employee)
	if err := scanFx(
		&employee.Id,
		&employee.FirstName,
		&employee.LastName,
		&employee.Age,
		&employee.Position,
	); err != nil {
		return nil, err
	}
	return employee, nil
}

// rebind replaces each ? placeholder with its positional $n equivalent
func rebind(query string) string {
	var builder strings.Builder
	var n int

	for _, r := range query {
		if r != '?' {
			builder.WriteRune(r)
			continue
		}
		n++
		builder.WriteString("$" + strconv.Itoa(n))
	}
	return builder.String()
}

func observe(m *metrics.Metrics, queryType string) func() {
	startTime := time.Now()
	return func() {
		if m == nil {
			return
		}
		m.DBQueryDuration.WithLabelValues(queryType).
			Observe(time.Since(startTime).Seconds())
	}
}

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

// ping retries pingFx with an exponential backoff, retries <= 0 means
// a single attempt
func ping(ctx context.Context, retries int, pingFx func(context.Context) error) error {
	if retries <= 0 {
		retries = 1
	}
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		return struct{}{}, pingFx(ctx)
	},
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(uint(retries)),
	)
	return err
}

type config struct {
	Driver         string
	Hostname       string
	Port           string
	Username       string
	Password       string
	Database       string
	File           string
	QueryTimeout   time.Duration
	ConnectRetries int
	ParseTime      bool
}

func (c *config) configure(envs map[string]string) {
	if databaseType := envs["DATABASE_TYPE"]; databaseType != "" {
		c.Driver = databaseType
	}
	if databaseHost := envs["DATABASE_HOST"]; databaseHost != "" {
		c.Hostname = databaseHost
	}
	if databasePort := envs["DATABASE_PORT"]; databasePort != "" {
		c.Port = databasePort
	}
	if database := envs["DATABASE_NAME"]; database != "" {
		c.Database = database
	}
	if username := envs["DATABASE_USER"]; username != "" {
		c.Username = username
	}
	if password := envs["DATABASE_PASSWORD"]; password != "" {
		c.Password = password
	}
	if file := envs["DATABASE_FILE"]; file != "" {
		c.File = file
	}
	if _, ok := envs["DATABASE_QUERY_TIMEOUT"]; ok {
		i, _ := strconv.ParseInt(envs["DATABASE_QUERY_TIMEOUT"], 10, 64)
		c.QueryTimeout = time.Duration(i) * time.Second
	}
	if _, ok := envs["DATABASE_CONNECT_RETRIES"]; ok {
		c.ConnectRetries, _ = strconv.Atoi(envs["DATABASE_CONNECT_RETRIES"])
	}
	if _, ok := envs["DATABASE_PARSE_TIME"]; ok {
		c.ParseTime, _ = strconv.ParseBool(envs["DATABASE_PARSE_TIME"])
	}
}
