package main

import (
	"context"
	"testing"
	"time"

	"github.com/antonio-alexander/go-employee-crud/internal"
	"github.com/antonio-alexander/go-employee-crud/internal/client"
	"github.com/antonio-alexander/go-employee-crud/internal/logic"
	"github.com/antonio-alexander/go-employee-crud/internal/service"
	"github.com/antonio-alexander/go-employee-crud/internal/sql"
	"github.com/antonio-alexander/go-employee-crud/internal/utilities"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envs = map[string]string{
	"DATABASE_TYPE":   "sqlite3",
	"DATABASE_FILE":   ":memory:",
	"SERVICE_ADDRESS": "localhost",
	"SERVICE_PORT":    "8084",
	"CLIENT_ADDRESS":  "localhost",
	"CLIENT_PORT":     "8084",
	"CLIENT_TIMEOUT":  "10",
}

func TestScenarioConcurrentDelete(t *testing.T) {
	var clients []client.Client

	ctx := context.TODO()
	sql := sql.NewSql()
	logic := logic.NewLogic(sql)
	service := service.NewService(logic, prometheus.NewRegistry())
	for _, s := range []interface {
		internal.Configurer
		internal.Opener
	}{sql, logic, service} {
		require.Nil(t, s.Configure(envs))
		require.Nil(t, s.Open(ctx))
		defer func(s internal.Closer) {
			_ = s.Close(ctx)
		}(s)
	}
	for range 4 {
		c := client.NewClient()
		require.Nil(t, c.Configure(envs))
		require.Nil(t, c.Open(ctx))
		defer func() {
			_ = c.Close(ctx)
		}()
		clients = append(clients, c)
	}

	err := scenarioConcurrentDelete(ctx, utilities.NullLogger(), clients...)
	assert.Nil(t, err)
	err = scenarioConcurrentDelete(ctx, utilities.NullLogger(), clients[0])
	assert.NotNil(t, err)
}

func TestNewClients(t *testing.T) {
	ctx := context.TODO()

	t.Run("MemoryCache", func(t *testing.T) {
		clients, closeFx, err := newClients(ctx, map[string]string{
			"CLIENT_CACHE_TYPE": "memory",
			"CLIENT_ADDRESS":    "localhost",
			"CLIENT_PORT":       "8085",
		}, utilities.NullLogger(), 2)
		require.Nil(t, err)
		defer closeFx()
		assert.Len(t, clients, 2)
	})

	t.Run("UnsupportedProtocol", func(t *testing.T) {
		clients, _, err := newClients(ctx, map[string]string{
			"CLIENT_PROTOCOL": "ftp",
		}, utilities.NullLogger(), 1)
		assert.NotNil(t, err)
		assert.Empty(t, clients)
	})
}

func TestSecondsFromEnvs(t *testing.T) {
	cases := map[string]time.Duration{
		"":    2 * time.Second,
		"0":   2 * time.Second,
		"-3":  2 * time.Second,
		"abc": 2 * time.Second,
		"5":   5 * time.Second,
	}
	for value, expected := range cases {
		envs := map[string]string{"SCENARIO_READ_INTERVAL": value}
		assert.Equal(t, expected, secondsFromEnvs(envs, "SCENARIO_READ_INTERVAL", 2*time.Second), value)
	}
}
