package main

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/antonio-alexander/go-employee-crud/internal/data"

	"github.com/stretchr/testify/assert"
)

func TestCommands(t *testing.T) {
	envs := map[string]string{
		"CLIENT_ADDRESS":  "localhost",
		"CLIENT_PORT":     "8085",
		"CLIENT_PROTOCOL": "http",
	}

	t.Run("InvalidId", func(t *testing.T) {
		root := newRootCommand(envs)
		root.SetArgs([]string{"get", "abc"})
		err := root.ExecuteContext(context.TODO())
		assert.True(t, errors.Is(err, data.ErrInvalidArgument))
	})
	t.Run("MissingArguments", func(t *testing.T) {
		root := newRootCommand(envs)
		root.SetArgs([]string{"update", "1", "age"})
		assert.NotNil(t, root.ExecuteContext(context.TODO()))
	})
	t.Run("UnsupportedProtocol", func(t *testing.T) {
		root := newRootCommand(envs)
		root.SetArgs([]string{"getall", "--protocol", "ftp"})
		assert.NotNil(t, root.ExecuteContext(context.TODO()))
	})
	t.Run("Version", func(t *testing.T) {
		output := &bytes.Buffer{}
		root := newRootCommand(envs)
		root.SetOut(output)
		root.SetArgs([]string{"--version"})
		assert.Nil(t, root.ExecuteContext(context.TODO()))
		assert.Contains(t, output.String(), Version)
	})
}
