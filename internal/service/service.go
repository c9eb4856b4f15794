package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/antonio-alexander/go-employee-crud/internal"
	"github.com/antonio-alexander/go-employee-crud/internal/cache"
	"github.com/antonio-alexander/go-employee-crud/internal/data"
	"github.com/antonio-alexander/go-employee-crud/internal/logic"
	"github.com/antonio-alexander/go-employee-crud/internal/metrics"
	"github.com/antonio-alexander/go-employee-crud/internal/utilities"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"golang.org/x/time/rate"
)

var (
	Version   string
	GitCommit string
	GitBranch string
)

func init() {
	if Version = data.Version; Version == "" {
		Version = "<no_version_provided>"
	}
	if GitCommit = data.GitCommit; GitCommit == "" {
		GitCommit = "<no_git_commit>"
	}
	if GitBranch = data.GitBranch; GitBranch == "" {
		GitBranch = "<no_git_branch>"
	}
}

type service struct {
	sync.RWMutex
	sync.WaitGroup
	config struct {
		address          string
		port             string
		shutdownTimeout  time.Duration
		allowedOrigins   []string
		allowedMethods   []string
		allowedHeaders   []string
		allowCredentials bool
		corsDisabled     bool
		corsDebug        bool
		timersEnabled    bool
		rateLimit        float64
		rateBurst        int
		certFile         string
		keyFile          string
		caCertFile       string
	}
	ctx    context.Context
	cancel context.CancelFunc
	*mux.Router
	*http.Server
	cache    internal.Clearer
	metrics  *metrics.Metrics
	gatherer prometheus.Gatherer
	utilities.Logger
	utilities.Counter
	utilities.Timers
	logic.Logic
}

func NewService(parameters ...any) interface {
	internal.Configurer
	internal.Opener
} {
	router := mux.NewRouter()
	s := &service{
		Router: router,
		Server: &http.Server{
			Handler: router,
		},
		gatherer: prometheus.DefaultGatherer,
		Logger:   utilities.NullLogger(),
	}
	s.config.shutdownTimeout = 10 * time.Second
	for _, parameter := range parameters {
		// logic and caches embed a logger, so utilities.Logger
		// must stay the last case
		switch p := parameter.(type) {
		case logic.Logic:
			s.Logic = p
		case interface {
			cache.Cache
			internal.Clearer
		}:
			s.cache = p
		case utilities.Counter:
			s.Counter = p
		case utilities.Timers:
			s.Timers = p
		case *metrics.Metrics:
			s.metrics = p
		case prometheus.Gatherer:
			s.gatherer = p
		case utilities.Logger:
			s.Logger = p
		}
	}
	return s
}

func (s *service) launchServer() error {
	started := make(chan struct{})
	chErr := make(chan error, 1)
	s.Add(1)
	go func() {
		defer s.WaitGroup.Done()
		defer close(chErr)

		if !s.config.corsDisabled {
			s.Server.Handler = cors.New(cors.Options{
				AllowedOrigins:   s.config.allowedOrigins,
				AllowCredentials: s.config.allowCredentials,
				AllowedMethods:   s.config.allowedMethods,
				AllowedHeaders:   s.config.allowedHeaders,
				Debug:            s.config.corsDebug,
			}).Handler(s.Router)
		}
		close(started)
		var err error
		switch {
		default:
			err = s.Server.ListenAndServe()
		case s.Server.TLSConfig != nil:
			err = s.Server.ListenAndServeTLS("", "")
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			chErr <- err
		}
	}()
	<-started
	select {
	case err, ok := <-chErr:
		// the server closed quickly (within a second of starting), this catches
		// errors such as the port being already in use
		if ok {
			return err
		}
		return errors.New("server closed unexpectedly")
	case <-time.After(time.Second):
		address := net.JoinHostPort(s.config.address, s.config.port)
		s.Info(s.ctx, "started server: %s", address)
		return nil
	}
}

// startTimer starts the timer for group and returns the func that stops it
func (s *service) startTimer(ctx context.Context, group string) func() {
	if !s.config.timersEnabled || s.Timers == nil {
		return func() {}
	}
	stop := s.Timers.Start(group)
	return func() {
		s.Trace(ctx, "%s took %v", group, stop())
	}
}

func (s *service) endpointDefault() func(http.ResponseWriter, *http.Request) {
	return func(writer http.ResponseWriter, request *http.Request) {
		fmt.Fprintf(writer,
			"go-employee-crud\n"+
				"Version: \"%s\"\n"+
				"Git Commit: \"%s\"\n"+
				"Git Branch: \"%s\"\n",
			Version, GitCommit, GitBranch)
	}
}

func (s *service) endpointEmployeeCreate(writer http.ResponseWriter, request *http.Request) {
	var employee data.Employee

	ctx := internal.CtxFromRequest(request)
	defer s.startTimer(ctx, "employee_create")()
	bytes, err := io.ReadAll(request.Body)
	defer request.Body.Close()
	if err != nil {
		handleResponse(writer, err)
		return
	}
	if err := json.Unmarshal(bytes, &employee); err != nil {
		handleResponse(writer, errors.Wrap(data.ErrInvalidArgument, err.Error()))
		return
	}
	message, err := s.EmployeeCreate(ctx, employee)
	if err != nil {
		handleResponse(writer, err)
		return
	}
	handleText(writer, http.StatusOK, message)
	s.Trace(ctx, "executed employee_create")
}

func (s *service) endpointEmployeesReadAll(writer http.ResponseWriter, request *http.Request) {
	ctx := internal.CtxFromRequest(request)
	defer s.startTimer(ctx, "employees_read_all")()
	employees, err := s.EmployeesReadAll(ctx)
	if err != nil {
		handleResponse(writer, err)
		return
	}
	if employees == nil {
		employees = []*data.Employee{}
	}
	handleResponse(writer, nil, employees)
	s.Trace(ctx, "executed employees_read_all: %d", len(employees))
}

func (s *service) endpointEmployeeRead(writer http.ResponseWriter, request *http.Request) {
	ctx := internal.CtxFromRequest(request)
	defer s.startTimer(ctx, "employee_read")()
	id, err := idFromPath(mux.Vars(request))
	if err != nil {
		handleResponse(writer, err)
		return
	}
	employee, found, err := s.EmployeeRead(ctx, id)
	if err != nil {
		handleResponse(writer, err)
		return
	}
	if !found {
		handleResponse(writer, errors.Wrapf(data.ErrNotFound, "employee %d", id))
		return
	}
	handleResponse(writer, nil, employee)
	s.Trace(ctx, "executed employee_read: %d", id)
}

func (s *service) endpointEmployeeUpdate(writer http.ResponseWriter, request *http.Request) {
	ctx := internal.CtxFromRequest(request)
	defer s.startTimer(ctx, "employee_update")()
	id, err := idFromQuery(request)
	if err != nil {
		handleResponse(writer, err)
		return
	}
	query := request.URL.Query()
	employee, found, err := s.EmployeeUpdateField(ctx, id,
		query.Get(data.ParameterColumn), query.Get(data.ParameterDataToEdit))
	if err != nil {
		handleResponse(writer, err)
		return
	}
	if !found {
		handleResponse(writer, errors.Wrapf(data.ErrNotFound, "employee %d", id))
		return
	}
	handleResponse(writer, nil, employee)
	s.Trace(ctx, "executed employee_update: %d", id)
}

func (s *service) endpointEmployeeReplace(writer http.ResponseWriter, request *http.Request) {
	var employee data.Employee

	ctx := internal.CtxFromRequest(request)
	defer s.startTimer(ctx, "employee_replace")()
	id, err := idFromPath(mux.Vars(request))
	if err != nil {
		handleResponse(writer, err)
		return
	}
	bytes, err := io.ReadAll(request.Body)
	defer request.Body.Close()
	if err != nil {
		handleResponse(writer, err)
		return
	}
	if err := json.Unmarshal(bytes, &employee); err != nil {
		handleResponse(writer, errors.Wrap(data.ErrInvalidArgument, err.Error()))
		return
	}
	employeeReplaced, found, err := s.EmployeeReplace(ctx, id, employee)
	if err != nil {
		handleResponse(writer, err)
		return
	}
	if !found {
		handleResponse(writer, errors.Wrapf(data.ErrNotFound, "employee %d", id))
		return
	}
	handleResponse(writer, nil, employeeReplaced)
	s.Trace(ctx, "executed employee_replace: %d", id)
}

func (s *service) endpointEmployeeDelete(writer http.ResponseWriter, request *http.Request) {
	ctx := internal.CtxFromRequest(request)
	defer s.startTimer(ctx, "employee_delete")()
	id, err := idFromPath(mux.Vars(request))
	if err != nil {
		handleResponse(writer, err)
		return
	}
	switch err := s.EmployeeDelete(ctx, id); {
	default:
		handleResponse(writer, err)
		return
	case errors.Is(err, data.ErrNotFound):
		handleText(writer, http.StatusNotFound, data.MessageRecordNotFound)
		return
	case err == nil:
		handleText(writer, http.StatusOK, data.MessageRecordDeleted)
	}
	s.Trace(ctx, "executed employee_delete: %d", id)
}

func (s *service) endpointCacheClear(writer http.ResponseWriter, request *http.Request) {
	ctx := internal.CtxFromRequest(request)
	if s.cache != nil {
		if err := s.cache.Clear(ctx); err != nil {
			handleResponse(writer, err)
			return
		}
		s.Trace(ctx, "executed cache_clear")
	}
	handleResponse(writer, nil)
}

func (s *service) endpointCacheCountersRead(writer http.ResponseWriter, _ *http.Request) {
	if s.Counter == nil {
		handleResponse(writer, nil, &data.CacheCounters{})
		return
	}
	handleResponse(writer, nil, s.Counter.ReadAll())
}

func (s *service) endpointCacheCountersClear(writer http.ResponseWriter, request *http.Request) {
	ctx := internal.CtxFromRequest(request)
	if s.Counter != nil {
		s.Counter.Reset()
	}
	handleResponse(writer, nil)
	s.Trace(ctx, "executed cache_counters_clear")
}

func (s *service) endpointTimersRead(writer http.ResponseWriter, _ *http.Request) {
	if s.Timers == nil {
		handleResponse(writer, nil, &data.Timers{})
		return
	}
	handleResponse(writer, nil, s.Timers.ReadAll())
}

func (s *service) endpointTimersClear(writer http.ResponseWriter, request *http.Request) {
	ctx := internal.CtxFromRequest(request)
	if s.Timers != nil {
		s.Timers.Clear()
	}
	handleResponse(writer, nil)
	s.Trace(ctx, "executed timers_clear")
}

func methods(handlers map[string]http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		handler, ok := handlers[r.Method]
		if !ok {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		handler(w, r)
	}
}

func (s *service) buildRoutes() {
	if s.config.rateLimit > 0 {
		s.Router.Use(rateLimitMiddleware(rate.NewLimiter(
			rate.Limit(s.config.rateLimit), s.config.rateBurst)))
	}
	if s.metrics != nil {
		s.Router.Use(metricsMiddleware(s.metrics))
	}
	s.Router.HandleFunc("/", s.endpointDefault())
	s.Router.Handle(data.RouteMetrics, promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	s.Router.HandleFunc(data.RouteEmployeesAdd, methods(map[string]http.HandlerFunc{
		http.MethodPost: s.endpointEmployeeCreate,
	}))
	s.Router.HandleFunc(data.RouteEmployeesGetAll, methods(map[string]http.HandlerFunc{
		http.MethodGet: s.endpointEmployeesReadAll,
	}))
	s.Router.HandleFunc(data.RouteEmployeesGet, methods(map[string]http.HandlerFunc{
		http.MethodGet: s.endpointEmployeeRead,
	}))
	s.Router.HandleFunc(data.RouteEmployeesUpdate, methods(map[string]http.HandlerFunc{
		http.MethodPut: s.endpointEmployeeUpdate,
	}))
	s.Router.HandleFunc(data.RouteEmployeesReplace, methods(map[string]http.HandlerFunc{
		http.MethodPut: s.endpointEmployeeReplace,
	}))
	s.Router.HandleFunc(data.RouteEmployeesDelete, methods(map[string]http.HandlerFunc{
		http.MethodDelete: s.endpointEmployeeDelete,
	}))
	s.Router.HandleFunc(data.RouteCacheCounters, methods(map[string]http.HandlerFunc{
		http.MethodGet:    s.endpointCacheCountersRead,
		http.MethodDelete: s.endpointCacheCountersClear,
	}))
	s.Router.HandleFunc(data.RouteCache, methods(map[string]http.HandlerFunc{
		http.MethodDelete: s.endpointCacheClear,
	}))
	s.Router.HandleFunc(data.RouteTimers, methods(map[string]http.HandlerFunc{
		http.MethodGet:    s.endpointTimersRead,
		http.MethodDelete: s.endpointTimersClear,
	}))
}

func (s *service) Configure(envs map[string]string) error {
	s.Lock()
	defer s.Unlock()

	if address, ok := envs["SERVICE_ADDRESS"]; ok {
		s.config.address = address
	}
	if port, ok := envs["SERVICE_PORT"]; ok {
		s.config.port = port
	}
	if shutdownTimeoutString, ok := envs["SERVICE_SHUTDOWN_TIMEOUT"]; ok {
		if shutdownTimeoutInt, err := strconv.Atoi(shutdownTimeoutString); err == nil {
			if timeout := time.Duration(shutdownTimeoutInt) * time.Second; timeout > 0 {
				s.config.shutdownTimeout = timeout
			}
		}
	}
	if allowCredentialsString, ok := envs["SERVICE_CORS_ALLOW_CREDENTIALS"]; ok {
		if allowCredentials, err := strconv.ParseBool(allowCredentialsString); err == nil {
			s.config.allowCredentials = allowCredentials
		}
	}
	if allowedOrigins, ok := envs["SERVICE_CORS_ALLOWED_ORIGINS"]; ok {
		s.config.allowedOrigins = strings.Split(allowedOrigins, ",")
	}
	if allowedMethods, ok := envs["SERVICE_CORS_ALLOWED_METHODS"]; ok {
		s.config.allowedMethods = strings.Split(allowedMethods, ",")
	}
	if allowedHeaders, ok := envs["SERVICE_CORS_ALLOWED_HEADERS"]; ok {
		s.config.allowedHeaders = strings.Split(allowedHeaders, ",")
	}
	if corsDisabledString, ok := envs["SERVICE_CORS_DISABLED"]; ok {
		if corsDisabled, err := strconv.ParseBool(corsDisabledString); err == nil {
			s.config.corsDisabled = corsDisabled
		}
	}
	if corsDebug, ok := envs["SERVICE_CORS_DEBUG"]; ok {
		if corsDebug, err := strconv.ParseBool(corsDebug); err == nil {
			s.config.corsDebug = corsDebug
		}
	}
	if timersEnabled := envs["SERVICE_TIMERS_ENABLED"]; timersEnabled != "" {
		s.config.timersEnabled, _ = strconv.ParseBool(timersEnabled)
	}
	if rateLimit := envs["SERVICE_RATE_LIMIT"]; rateLimit != "" {
		s.config.rateLimit, _ = strconv.ParseFloat(rateLimit, 64)
	}
	if rateBurst := envs["SERVICE_RATE_BURST"]; rateBurst != "" {
		s.config.rateBurst, _ = strconv.Atoi(rateBurst)
	}
	if s.config.rateBurst <= 0 {
		s.config.rateBurst = 1
	}
	s.config.certFile = envs["SERVICE_CERT_FILE"]
	s.config.keyFile = envs["SERVICE_KEY_FILE"]
	s.config.caCertFile = envs["SERVICE_CA_CERT_FILE"]
	return nil
}

func (s *service) Open(ctx context.Context) error {
	s.Lock()
	defer s.Unlock()

	if s.Logic == nil {
		return errors.New("service: no logic provided")
	}
	tlsConfig, err := internal.GetTlsConfig(s.config.certFile,
		s.config.keyFile, s.config.caCertFile)
	if err != nil {
		return err
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.Server.Addr = net.JoinHostPort(s.config.address, s.config.port)
	s.Server.TLSConfig = tlsConfig
	s.buildRoutes()
	if err := s.launchServer(); err != nil {
		s.cancel()
		return err
	}
	return nil
}

func (s *service) Close(ctx context.Context) error {
	s.Lock()
	defer s.Unlock()

	ctx, cancel := context.WithTimeout(ctx, s.config.shutdownTimeout)
	defer cancel()
	if err := s.Server.Shutdown(ctx); err != nil {
		s.Error(ctx, "error while shutting down the server: %s", err)
	}
	s.cancel()
	s.Wait()
	return nil
}
