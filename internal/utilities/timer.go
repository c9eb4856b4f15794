package utilities

import (
	"sync"
	"time"

	"github.com/antonio-alexander/go-employee-crud/internal/data"
)

type timerGroup struct {
	total   time.Duration
	stopped int64
}

type timers struct {
	sync.Mutex
	generation int
	groups     map[string]*timerGroup
}

// Timers aggregates elapsed time per group; only stopped timers count
// towards the totals and averages
type Timers interface {
	// Start begins timing for group, the returned func stops the timer
	// and returns the elapsed time, or -1 if it was already stopped or
	// the timers were cleared in the meantime
	Start(group string) (stop func() time.Duration)
	ReadAll() *data.Timers
	Clear()
}

func NewTimers() Timers {
	return &timers{groups: make(map[string]*timerGroup)}
}

func (t *timers) Clear() {
	t.Lock()
	defer t.Unlock()

	t.generation++
	t.groups = make(map[string]*timerGroup)
}

func (t *timers) Start(group string) func() time.Duration {
	var once sync.Once

	t.Lock()
	generation := t.generation
	t.Unlock()
	start := time.Now()
	return func() time.Duration {
		elapsed := time.Duration(-1)
		once.Do(func() {
			t.Lock()
			defer t.Unlock()

			if generation != t.generation {
				return
			}
			g, found := t.groups[group]
			if !found {
				g = &timerGroup{}
				t.groups[group] = g
			}
			elapsed = time.Since(start)
			g.total += elapsed
			g.stopped++
		})
		return elapsed
	}
}

func (t *timers) ReadAll() *data.Timers {
	t.Lock()
	defer t.Unlock()

	totals, averages := make(map[string]int64), make(map[string]int64)
	for group, g := range t.groups {
		totals[group] = int64(g.total)
		if g.stopped > 0 {
			averages[group] = int64(g.total) / g.stopped
		}
	}
	return &data.Timers{
		Totals:   totals,
		Averages: averages,
	}
}
