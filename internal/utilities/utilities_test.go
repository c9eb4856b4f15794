package utilities_test

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/antonio-alexander/go-employee-crud/internal"
	"github.com/antonio-alexander/go-employee-crud/internal/utilities"

	"github.com/stretchr/testify/assert"
)

func TestLogger(t *testing.T) {
	buffer := &bytes.Buffer{}
	logger := utilities.NewLogger(buffer)
	err := logger.Configure(map[string]string{"LOG_LEVEL": "info"})
	assert.Nil(t, err)

	ctx := internal.CtxWithCorrelationId(context.TODO(), "abc")
	logger.Info(ctx, "employee %d", 1)
	assert.Contains(t, buffer.String(), "[info] (abc) employee 1")

	buffer.Reset()
	logger.Debug(ctx, "not printed")
	assert.Empty(t, buffer.String())

	buffer.Reset()
	logger.Warn(context.TODO(), "printed")
	assert.Contains(t, buffer.String(), "[warn] printed")
}

func TestAtoLogLevel(t *testing.T) {
	cases := map[string]utilities.Level{
		"":      utilities.Error,
		"error": utilities.Error,
		"WARN":  utilities.Warn,
		"info":  utilities.Info,
		"debug": utilities.Debug,
		"trace": utilities.Trace,
	}
	for input, expected := range cases {
		assert.Equal(t, expected, utilities.AtoLogLevel(input), input)
	}
}

func TestTimers(t *testing.T) {
	timers := utilities.NewTimers()

	stop := timers.Start("employee_read")
	time.Sleep(time.Millisecond)
	elapsed := stop()
	assert.Greater(t, int64(elapsed), int64(0))
	assert.Equal(t, time.Duration(-1), stop())

	// a running timer isn't part of the totals
	_ = timers.Start("employee_read")
	all := timers.ReadAll()
	assert.Equal(t, int64(elapsed), all.Totals["employee_read"])
	assert.Equal(t, all.Totals["employee_read"], all.Averages["employee_read"])

	stop = timers.Start("employee_delete")
	timers.Clear()
	assert.Equal(t, time.Duration(-1), stop())
	assert.Empty(t, timers.ReadAll().Totals)
}

func TestCounter(t *testing.T) {
	counter := utilities.NewCounter()

	assert.Equal(t, 1, counter.IncrementHit("employee_read"))
	assert.Equal(t, 2, counter.IncrementHit("employee_read"))
	assert.Equal(t, 1, counter.IncrementMiss("employee_read"))
	hits, misses := counter.Read("employee_read")
	assert.Equal(t, 2, hits)
	assert.Equal(t, 1, misses)

	counters := counter.ReadAll()
	assert.Equal(t, 2, counters.CounterHits["employee_read"])
	assert.Equal(t, 1, counters.CounterMisses["employee_read"])

	counter.Reset()
	hits, misses = counter.Read("employee_read")
	assert.Zero(t, hits)
	assert.Zero(t, misses)
}

func TestCounterConcurrent(t *testing.T) {
	const nRoutines, nIncrements = 8, 100
	var wg sync.WaitGroup

	counter := utilities.NewCounter()
	for i := 0; i < nRoutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < nIncrements; j++ {
				counter.IncrementHit("employee_read")
				counter.IncrementMiss("employee_read")
			}
		}()
	}
	wg.Wait()
	hits, misses := counter.Read("employee_read")
	assert.Equal(t, nRoutines*nIncrements, hits)
	assert.Equal(t, nRoutines*nIncrements, misses)
}
