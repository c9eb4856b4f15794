package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/antonio-alexander/go-employee-crud/internal"
	"github.com/antonio-alexander/go-employee-crud/internal/cache"
	"github.com/antonio-alexander/go-employee-crud/internal/data"
	"github.com/antonio-alexander/go-employee-crud/internal/utilities"

	"github.com/pkg/errors"
)

// Client mirrors the record service over http, it can be used
// anywhere a logic.Logic is expected
type Client interface {
	EmployeeCreate(ctx context.Context, employee data.Employee) (string, error)
	EmployeeRead(ctx context.Context, id int64) (*data.Employee, bool, error)
	EmployeesReadAll(ctx context.Context) ([]*data.Employee, error)
	EmployeeUpdateField(ctx context.Context, id int64, fieldName, newValue string) (*data.Employee, bool, error)
	EmployeeReplace(ctx context.Context, id int64, employee data.Employee) (*data.Employee, bool, error)
	EmployeeDelete(ctx context.Context, id int64) error
	CacheClear(ctx context.Context) error
	CacheCountersRead(ctx context.Context) (*data.CacheCounters, error)
	CacheCountersClear(ctx context.Context) error
	TimersRead(ctx context.Context) (*data.Timers, error)
	TimersClear(ctx context.Context) error
}

type client struct {
	sync.RWMutex
	config struct {
		protocol      string
		address       string
		port          string
		timeout       int64
		sslCaFile     string
		sslCrtFile    string
		sslKeyFile    string
		cacheDisabled bool
	}
	address string
	cache   cache.Cache
	utilities.Logger
	*http.Client
}

func NewClient(parameters ...any) interface {
	internal.Configurer
	internal.Opener
	Client
} {
	c := &client{
		Client: &http.Client{},
		Logger: utilities.NullLogger(),
	}
	c.config.protocol = "http"
	for _, parameter := range parameters {
		switch p := parameter.(type) {
		case cache.Cache:
			c.cache = p
		case utilities.Logger:
			c.Logger = p
		}
	}
	return c
}

func (c *client) cacheEnabled() bool {
	return c.cache != nil && !c.config.cacheDisabled
}

func (c *client) doRequest(ctx context.Context, uri, method string, item any) ([]byte, error) {
	var contentType string
	var body io.Reader

	switch d := item.(type) {
	case []byte:
		body = bytes.NewBuffer(d)
		contentType = "application/json"
	case url.Values:
		uri = uri + "?" + d.Encode()
	}
	request, err := http.NewRequestWithContext(ctx, method, uri, body)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		request.Header.Set("Content-Type", contentType)
	}
	if correlationId := internal.CorrelationIdFromCtx(ctx); correlationId != "" {
		request.Header.Set(internal.HeaderCorrelationId, correlationId)
	}
	response, err := c.Do(request)
	if err != nil {
		return nil, err
	}
	bytes, err := io.ReadAll(response.Body)
	defer response.Body.Close()
	if err != nil {
		return nil, err
	}
	switch response.StatusCode {
	default:
		return nil, responseError(response.StatusCode, bytes)
	case http.StatusOK, http.StatusNoContent:
		return bytes, nil
	}
}

func (c *client) Configure(envs map[string]string) error {
	c.Lock()
	defer c.Unlock()

	if address, ok := envs["CLIENT_ADDRESS"]; ok {
		c.config.address = address
	}
	if port, ok := envs["CLIENT_PORT"]; ok {
		c.config.port = port
	}
	if protocol, ok := envs["CLIENT_PROTOCOL"]; ok && protocol != "" {
		c.config.protocol = protocol
	}
	if timeout, ok := envs["CLIENT_TIMEOUT"]; ok && timeout != "" {
		i, err := strconv.ParseInt(timeout, 10, 64)
		if err != nil {
			return err
		}
		c.config.timeout = i
	}
	if sslCaFile, ok := envs["SSL_CA_FILE"]; ok {
		c.config.sslCaFile = sslCaFile
	}
	if sslKeyFile, ok := envs["SSL_KEY_FILE"]; ok {
		c.config.sslKeyFile = sslKeyFile
	}
	if sslCrtFile, ok := envs["SSL_CRT_FILE"]; ok {
		c.config.sslCrtFile = sslCrtFile
	}
	if cacheDisabled, ok := envs["CLIENT_CACHE_DISABLED"]; ok {
		c.config.cacheDisabled, _ = strconv.ParseBool(cacheDisabled)
	}
	return nil
}

func (c *client) Open(ctx context.Context) error {
	c.Lock()
	defer c.Unlock()

	switch c.config.protocol {
	default:
		return errors.Errorf("unsupported protocol: %s", c.config.protocol)
	case "http", "https":
		c.address = fmt.Sprintf("%s://%s", c.config.protocol,
			net.JoinHostPort(c.config.address, c.config.port))
	}
	if c.cacheEnabled() {
		c.Info(ctx, "client: cache enabled")
	}
	c.Client.Timeout = time.Duration(c.config.timeout) * time.Second
	tlsConfig, err := internal.GetTlsConfig(c.config.sslCrtFile,
		c.config.sslKeyFile, c.config.sslCaFile)
	if err != nil {
		return err
	}
	if tlsConfig != nil {
		c.Client.Transport = &http.Transport{TLSClientConfig: tlsConfig}
	}
	return nil
}

func (c *client) Close(ctx context.Context) error {
	c.Lock()
	defer c.Unlock()

	c.Client.CloseIdleConnections()
	return nil
}

func (c *client) EmployeeCreate(ctx context.Context, employee data.Employee) (string, error) {
	bytes, err := json.Marshal(&employee)
	if err != nil {
		return "", err
	}
	uri := c.address + data.RouteEmployeesAdd
	bytes, err = c.doRequest(ctx, uri, http.MethodPost, bytes)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// readEmployee decodes an employee, a 404 is reported as absent
func readEmployee(bytes []byte, err error) (*data.Employee, bool, error) {
	if err != nil {
		if errors.Is(err, data.ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	employee := &data.Employee{}
	if err := json.Unmarshal(bytes, employee); err != nil {
		return nil, false, err
	}
	return employee, true, nil
}

func (c *client) EmployeeRead(ctx context.Context, id int64) (*data.Employee, bool, error) {
	if c.cacheEnabled() {
		employee, err := c.cache.EmployeeRead(ctx, id)
		if err == nil {
			return employee, true, nil
		}
		if !errors.Is(err, cache.ErrEmployeeNotCached) {
			c.Error(ctx, "error while reading employee (%d) from cache: %s", id, err)
		}
	}
	uri := fmt.Sprintf(c.address+data.RouteEmployeesGetf, id)
	employee, found, err := readEmployee(c.doRequest(ctx, uri, http.MethodGet, nil))
	if err != nil || !found {
		return nil, false, err
	}
	if c.cacheEnabled() {
		if err := c.cache.EmployeesWrite(ctx, employee); err != nil {
			c.Error(ctx, "error while writing employee (%d) to cache: %s", id, err)
		}
	}
	return employee, true, nil
}

func (c *client) EmployeesReadAll(ctx context.Context) ([]*data.Employee, error) {
	var employees []*data.Employee

	uri := c.address + data.RouteEmployeesGetAll
	bytes, err := c.doRequest(ctx, uri, http.MethodGet, nil)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(bytes, &employees); err != nil {
		return nil, err
	}
	return employees, nil
}

func (c *client) evict(ctx context.Context, id int64) {
	if !c.cacheEnabled() {
		return
	}
	if err := c.cache.EmployeesDelete(ctx, id); err != nil {
		c.Error(ctx, "error while deleting employee (%d) from cache: %s", id, err)
	}
}

func (c *client) EmployeeUpdateField(ctx context.Context, id int64, fieldName, newValue string) (*data.Employee, bool, error) {
	uri := c.address + data.RouteEmployeesUpdate
	params := url.Values{
		data.ParameterId:         {strconv.FormatInt(id, 10)},
		data.ParameterColumn:     {fieldName},
		data.ParameterDataToEdit: {newValue},
	}
	bytes, err := c.doRequest(ctx, uri, http.MethodPut, params)
	c.evict(ctx, id)
	return readEmployee(bytes, err)
}

func (c *client) EmployeeReplace(ctx context.Context, id int64, employee data.Employee) (*data.Employee, bool, error) {
	bytes, err := json.Marshal(&employee)
	if err != nil {
		return nil, false, err
	}
	uri := fmt.Sprintf(c.address+data.RouteEmployeesReplacef, id)
	bytes, err = c.doRequest(ctx, uri, http.MethodPut, bytes)
	c.evict(ctx, id)
	return readEmployee(bytes, err)
}

func (c *client) EmployeeDelete(ctx context.Context, id int64) error {
	uri := fmt.Sprintf(c.address+data.RouteEmployeesDeletef, id)
	_, err := c.doRequest(ctx, uri, http.MethodDelete, nil)
	if err == nil || errors.Is(err, data.ErrNotFound) {
		c.evict(ctx, id)
	}
	return err
}

func (c *client) CacheClear(ctx context.Context) error {
	uri := c.address + data.RouteCache
	if _, err := c.doRequest(ctx, uri, http.MethodDelete, nil); err != nil {
		return err
	}
	return nil
}

func (c *client) CacheCountersRead(ctx context.Context) (*data.CacheCounters, error) {
	uri := c.address + data.RouteCacheCounters
	bytes, err := c.doRequest(ctx, uri, http.MethodGet, nil)
	if err != nil {
		return nil, err
	}
	response := &data.CacheCounters{}
	if err := json.Unmarshal(bytes, response); err != nil {
		return nil, err
	}
	return response, nil
}

func (c *client) CacheCountersClear(ctx context.Context) error {
	uri := c.address + data.RouteCacheCounters
	if _, err := c.doRequest(ctx, uri, http.MethodDelete, nil); err != nil {
		return err
	}
	return nil
}

func (c *client) TimersRead(ctx context.Context) (*data.Timers, error) {
	uri := c.address + data.RouteTimers
	bytes, err := c.doRequest(ctx, uri, http.MethodGet, nil)
	if err != nil {
		return nil, err
	}
	response := &data.Timers{}
	if err := json.Unmarshal(bytes, response); err != nil {
		return nil, err
	}
	return response, nil
}

func (c *client) TimersClear(ctx context.Context) error {
	uri := c.address + data.RouteTimers
	if _, err := c.doRequest(ctx, uri, http.MethodDelete, nil); err != nil {
		return err
	}
	return nil
}
