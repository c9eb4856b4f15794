package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"

	"github.com/antonio-alexander/go-employee-crud/internal"
	"github.com/antonio-alexander/go-employee-crud/internal/cache"
	"github.com/antonio-alexander/go-employee-crud/internal/client"
	"github.com/antonio-alexander/go-employee-crud/internal/config"
	"github.com/antonio-alexander/go-employee-crud/internal/data"
	"github.com/antonio-alexander/go-employee-crud/internal/utilities"

	"github.com/pkg/errors"
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
	args := os.Args[1:]
	envs, err := config.Load("")
	if err != nil {
		os.Stderr.WriteString(err.Error())
		os.Exit(1)
	}
	osSignal := make(chan os.Signal, 1)
	signal.Notify(osSignal, syscall.SIGINT, syscall.SIGTERM)
	if err := Main(args, envs, osSignal); err != nil {
		os.Stderr.WriteString(err.Error())
		os.Exit(1)
	}
}

// newClients opens n clients, each with its own client side cache when
// CLIENT_CACHE_TYPE is set; closeFx closes everything that was opened
func newClients(ctx context.Context, envs map[string]string, logger utilities.Logger, n int) (clients []client.Client, closeFx func(), err error) {
	var closers []internal.Closer

	closeFx = func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i].Close(context.Background()); err != nil {
				logger.Error(ctx, "error while closing: %s", err)
			}
		}
	}
	defer func() {
		if err != nil {
			closeFx()
		}
	}()
	for range n {
		c := cache.New(envs["CLIENT_CACHE_TYPE"], logger)
		if c != nil {
			if err := c.Configure(envs); err != nil {
				return nil, closeFx, err
			}
			if err := c.Open(ctx); err != nil {
				return nil, closeFx, err
			}
			closers = append(closers, c)
		}
		cl := client.NewClient(c, logger)
		if err := cl.Configure(envs); err != nil {
			return nil, closeFx, err
		}
		if err := cl.Open(ctx); err != nil {
			return nil, closeFx, err
		}
		closers = append(closers, cl)
		clients = append(clients, cl)
	}
	return clients, closeFx, nil
}

func Main(args []string, envs map[string]string, osSignal chan os.Signal) error {
	var wg sync.WaitGroup

	//create context
	ctx, cancel := internal.LaunchContext(&wg, osSignal)
	defer cancel()

	// create logger
	logger := utilities.NewLogger()
	_ = logger.Configure(envs)
	logger.Info(ctx, "scenarios: go-employee-crud v%s (%s) built from: %s",
		Version, GitCommit, GitBranch)

	nClients, _ := strconv.Atoi(envs["N_CLIENTS"])
	clients, closeClients, err := newClients(ctx, envs, logger, nClients)
	if err != nil {
		return err
	}
	defer closeClients()

	switch scenario := envs["SCENARIO"]; scenario {
	default:
		err = errors.Errorf("unsupported scenario: %s", scenario)
	case ScenarioConcurrentDelete:
		logger.Info(ctx, "executing %s scenario", scenario)
		err = scenarioConcurrentDelete(ctx, logger, clients...)
	case ScenarioStampedingHerd:
		logger.Info(ctx, "executing %s scenario", scenario)
		err = scenarioStampedingHerd(ctx, envs, logger, clients...)
	}
	if err != nil {
		logger.Error(ctx, "error while executing scenario: %s", err)
	}
	cancel()
	wg.Wait()
	return err
}
