package main

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/antonio-alexander/go-employee-crud/internal"
	"github.com/antonio-alexander/go-employee-crud/internal/client"
	"github.com/antonio-alexander/go-employee-crud/internal/data"
	"github.com/antonio-alexander/go-employee-crud/internal/utilities"

	"github.com/pkg/errors"
)

const (
	ScenarioConcurrentDelete string = "concurrent_delete"
	ScenarioStampedingHerd   string = "stampeding_herd"
)

// createEmployee creates a record and returns its id; the service only
// confirms the insert so the id is the highest one listed afterwards
func createEmployee(ctx context.Context, c client.Client) (int64, error) {
	if _, err := c.EmployeeCreate(ctx, data.Employee{
		FirstName: internal.GenerateId()[:14],
		LastName:  internal.GenerateId()[:16],
		Age:       30,
		Position:  "TechnologyAnalyst",
	}); err != nil {
		return 0, err
	}
	employees, err := c.EmployeesReadAll(ctx)
	if err != nil {
		return 0, err
	}
	var id int64
	for _, employee := range employees {
		if employee.Id > id {
			id = employee.Id
		}
	}
	if id == 0 {
		return 0, errors.New("created employee not listed")
	}
	return id, nil
}

// scenarioConcurrentDelete has every client delete the same record at
// once, exactly one of them must succeed
func scenarioConcurrentDelete(ctx context.Context, logger utilities.Logger, clients ...client.Client) error {
	const correlationId string = "scenario_concurrent_delete"
	const minClients int = 2

	var wg sync.WaitGroup

	if len(clients) < minClients {
		return errors.New("not enough clients provided")
	}
	ctx = internal.CtxWithCorrelationId(ctx, correlationId)
	id, err := createEmployee(ctx, clients[0])
	if err != nil {
		return err
	}
	logger.Info(ctx, "created employee: %d", id)

	start := make(chan struct{})
	errs := make(chan error, len(clients))
	for i, c := range clients {
		wg.Add(1)
		go func(clientNumber int, c client.Client) {
			defer wg.Done()

			ctx := internal.CtxWithCorrelationId(ctx,
				fmt.Sprintf("%s_%d", correlationId, clientNumber))
			<-start
			errs <- c.EmployeeDelete(ctx, id)
		}(i, c)
	}
	close(start)
	wg.Wait()
	close(errs)

	var nDeleted, nNotFound int
	for err := range errs {
		switch {
		default:
			logger.Error(ctx, "error while deleting employee: %s", err)
		case err == nil:
			nDeleted++
		case errors.Is(err, data.ErrNotFound):
			nNotFound++
		}
	}
	logger.Info(ctx, "deletes succeeded: %d, not found: %d", nDeleted, nNotFound)
	if nDeleted != 1 {
		return errors.Errorf("expected exactly one successful delete, got %d", nDeleted)
	}
	return nil
}

// secondsFromEnvs reads key as a number of seconds, missing, invalid or
// non-positive values fall back to defaultValue
func secondsFromEnvs(envs map[string]string, key string, defaultValue time.Duration) time.Duration {
	i, err := strconv.Atoi(envs[key])
	if err != nil || i <= 0 {
		return defaultValue
	}
	return time.Duration(i) * time.Second
}

// scenarioStampedingHerd has one client update a record while the others
// read it, the server's cache hit/miss ratio is reported at the end
func scenarioStampedingHerd(ctx context.Context, envs map[string]string, logger utilities.Logger,
	clients ...client.Client) error {
	const correlationId string = "scenario_stampeding_herd"
	const minClients int = 2

	var wg sync.WaitGroup

	readInterval := secondsFromEnvs(envs, "SCENARIO_READ_INTERVAL", time.Second)
	updateInterval := secondsFromEnvs(envs, "SCENARIO_UPDATE_INTERVAL", 2*time.Second)
	scenarioDuration := secondsFromEnvs(envs, "SCENARIO_DURATION", 10*time.Second)
	if len(clients) < minClients {
		return errors.New("not enough clients provided")
	}

	//generate context
	ctx = internal.CtxWithCorrelationId(ctx, correlationId)

	// create employee using the first client
	id, err := createEmployee(ctx, clients[0])
	if err != nil {
		return err
	}
	defer func(id int64) {
		_ = clients[0].EmployeeDelete(ctx, id)
		logger.Info(ctx, "deleted employee: %d", id)
	}(id)
	logger.Info(ctx, "created employee: %d", id)

	//generate start/stop channels
	start, stop := make(chan struct{}), make(chan struct{})

	//create writer go routine
	wg.Add(1)
	go func(ctx context.Context, client client.Client) {
		defer wg.Done()

		age := 30
		tUpdate := time.NewTicker(updateInterval)
		defer tUpdate.Stop()
		<-start
		for {
			select {
			case <-stop:
				return
			case <-tUpdate.C:
				age++
				if _, _, err := client.EmployeeUpdateField(ctx, id, "age", strconv.Itoa(age)); err != nil {
					logger.Error(ctx, "error while updating employee: %s", err)
				}
			}
		}
	}(ctx, clients[0])

	//create reader go routines
	for i := 1; i < len(clients); i++ {
		wg.Add(1)
		go func(ctx context.Context, clientNumber int, client client.Client) {
			defer wg.Done()

			ctx = internal.CtxWithCorrelationId(ctx,
				fmt.Sprintf("%s_%d", correlationId, clientNumber))
			tRead := time.NewTicker(readInterval)
			defer tRead.Stop()
			<-start
			for {
				select {
				case <-stop:
					return
				case <-tRead.C:
					if _, _, err := client.EmployeeRead(ctx, id); err != nil {
						logger.Error(ctx, "error while reading employee: %s", err)
					}
				}
			}
		}(ctx, i, clients[i])
	}

	//clear cache counters and start the go routines
	if err := clients[0].CacheClear(ctx); err != nil {
		return err
	}
	if err := clients[0].CacheCountersClear(ctx); err != nil {
		return err
	}
	close(start)

	//allow go routines to run
	select {
	case <-ctx.Done():
	case <-time.After(scenarioDuration):
	}

	//stop go routines
	close(stop)
	wg.Wait()

	//use initial client to get hit/miss ratios from server
	cacheCounters, err := clients[0].CacheCountersRead(ctx)
	if err != nil {
		return err
	}
	hit := cacheCounters.CounterHits["employee_read"]
	miss := cacheCounters.CounterMisses["employee_read"]
	if total := hit + miss; total > 0 {
		logger.Info(ctx, "cache hit miss ratio (%d/%d): %0.2f%%",
			hit, total, float64(hit)/float64(total)*100)
	}
	return nil
}
