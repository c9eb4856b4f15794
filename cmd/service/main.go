package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/antonio-alexander/go-employee-crud/internal"
	"github.com/antonio-alexander/go-employee-crud/internal/cache"
	"github.com/antonio-alexander/go-employee-crud/internal/config"
	"github.com/antonio-alexander/go-employee-crud/internal/data"
	"github.com/antonio-alexander/go-employee-crud/internal/logic"
	"github.com/antonio-alexander/go-employee-crud/internal/metrics"
	"github.com/antonio-alexander/go-employee-crud/internal/service"
	"github.com/antonio-alexander/go-employee-crud/internal/sql"
	"github.com/antonio-alexander/go-employee-crud/internal/utilities"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
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

func main() {
	pwd, _ := os.Getwd()
	args := os.Args[1:]
	envs, err := config.Load("")
	if err != nil {
		os.Stderr.WriteString(err.Error())
		os.Exit(1)
	}
	osSignal := make(chan os.Signal, 1)
	signal.Notify(osSignal, syscall.SIGINT, syscall.SIGTERM)
	if err := Main(pwd, args, envs, osSignal); err != nil {
		os.Stderr.WriteString(err.Error())
		os.Exit(1)
	}
}

func createSql(envs map[string]string, parameters ...any) interface {
	internal.Configurer
	internal.Opener
	sql.Sql
} {
	switch envs["DATABASE_TYPE"] {
	default:
		return sql.NewSql(parameters...)
	case sql.DriverPostgres:
		return sql.NewPostgres(parameters...)
	}
}

type configureOpener interface {
	internal.Configurer
	internal.Opener
}

type component struct {
	name string
	configureOpener
}

// openAll configures and opens components in order, on failure the
// components already opened are closed; closeAll closes them in reverse
func openAll(ctx context.Context, logger utilities.Logger, envs map[string]string, components ...component) (closeAll func(), err error) {
	var opened []component

	closeAll = func() {
		for i := len(opened) - 1; i >= 0; i-- {
			if err := opened[i].Close(context.Background()); err != nil {
				logger.Error(context.Background(), "error while closing %s: %s", opened[i].name, err)
			}
		}
	}
	for _, c := range components {
		if err := c.Configure(envs); err != nil {
			closeAll()
			return nil, errors.Wrapf(err, "configure %s", c.name)
		}
		if err := c.Open(ctx); err != nil {
			closeAll()
			return nil, errors.Wrapf(err, "open %s", c.name)
		}
		opened = append(opened, c)
	}
	return closeAll, nil
}

func Main(pwd string, args []string, envs map[string]string, osSignal chan os.Signal) error {
	var wg sync.WaitGroup

	ctx, cancel := internal.LaunchContext(&wg, osSignal)
	defer cancel()

	logger := utilities.NewLogger()
	_ = logger.Configure(envs)
	logger.Info(ctx, "server: go-employee-crud v%s (%s) built from: %s",
		Version, GitCommit, GitBranch)
	timers, counter := utilities.NewTimers(), utilities.NewCounter()
	metrics := metrics.NewMetrics(prometheus.DefaultRegisterer)

	// cache is nil when CACHE_TYPE is empty
	sql := createSql(envs, logger, metrics)
	components := []component{{"sql", sql}}
	logicParameters := []any{sql, logger, counter, metrics}
	serviceParameters := []any{logger, counter, timers, metrics}
	if cache := cache.New(envs["CACHE_TYPE"], logger); cache != nil {
		components = append(components, component{"cache", cache})
		logicParameters = append(logicParameters, cache)
		serviceParameters = append(serviceParameters, cache)
	}
	logic := logic.NewLogic(logicParameters...)
	service := service.NewService(append(serviceParameters, logic)...)
	components = append(components, component{"logic", logic}, component{"service", service})
	closeAll, err := openAll(ctx, logger, envs, components...)
	if err != nil {
		return err
	}
	<-ctx.Done()
	wg.Wait()
	closeAll()
	return nil
}
