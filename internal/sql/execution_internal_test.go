package sql

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRebind(t *testing.T) {
	cases := map[string]string{
		"UPDATE employee SET age = ? WHERE id = ?": "UPDATE employee SET age = $1 WHERE id = $2",
		"SELECT 1":         "SELECT 1",
		"VALUES (?, ?, ?)": "VALUES ($1, $2, $3)",
	}
	for input, expected := range cases {
		assert.Equal(t, expected, rebind(input))
	}
}

func TestPing(t *testing.T) {
	var attempts int

	err := ping(context.TODO(), 3, func(context.Context) error {
		attempts++
		if attempts < 2 {
			return errors.New("not ready")
		}
		return nil
	})
	assert.Nil(t, err)
	assert.Equal(t, 2, attempts)

	attempts = 0
	err = ping(context.TODO(), 0, func(context.Context) error {
		attempts++
		return errors.New("unreachable")
	})
	assert.NotNil(t, err)
	assert.Equal(t, 1, attempts)
}

func TestConfigure(t *testing.T) {
	c := config{Driver: DriverMySql}
	c.configure(map[string]string{
		"DATABASE_TYPE":            "sqlite3",
		"DATABASE_FILE":            "/tmp/employees.db",
		"DATABASE_QUERY_TIMEOUT":   "5",
		"DATABASE_CONNECT_RETRIES": "4",
	})
	assert.Equal(t, DriverSqlite, c.Driver)
	assert.Equal(t, "/tmp/employees.db", c.File)
	assert.Equal(t, int64(5), int64(c.QueryTimeout.Seconds()))
	assert.Equal(t, 4, c.ConnectRetries)
}
