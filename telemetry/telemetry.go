// Package telemetry collects named timing intervals for the move drivers.
//
// There is no process-wide registry: a Registry is constructed at startup,
// passed by reference into the driver, and reported exactly once at
// shutdown. Timers carry a level (coarse/fine); timers finer than the
// registry threshold become disabled no-ops so the hot loop never pays for
// them.
//
// Start/Stop on a single Timer are not synchronized: each timer belongs to
// the one goroutine that drives its pipeline stage. Registry construction
// (Timer lookup) is locked so component builders may register concurrently.
package telemetry

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrBadLevel is returned for an unknown timer level name.
var ErrBadLevel = errors.New("telemetry: timer level must be 'coarse' or 'fine'")

// Level orders timer granularity.
type Level int

const (
	// LevelCoarse timers cover whole phases (total, initialization).
	LevelCoarse Level = iota
	// LevelFine timers cover individual pipeline stages.
	LevelFine
)

// ParseLevel maps a level name to a Level.
func ParseLevel(name string) (Level, error) {
	switch name {
	case "coarse":
		return LevelCoarse, nil
	case "fine":
		return LevelFine, nil
	default:
		return 0, fmt.Errorf("telemetry.ParseLevel: %q: %w", name, ErrBadLevel)
	}
}

// Timer accumulates wall time over Start/Stop intervals.
type Timer struct {
	name    string
	enabled bool
	total   time.Duration
	calls   int64
	started time.Time
	running bool
}

// Start opens an interval. No-op when the timer is level-disabled.
func (t *Timer) Start() {
	if !t.enabled {
		return
	}
	t.started = time.Now()
	t.running = true
}

// Stop closes the interval opened by Start. No-op when disabled or not
// running (defense against unmatched stops is intentional: an unmatched
// stop must not corrupt totals).
func (t *Timer) Stop() {
	if !t.enabled || !t.running {
		return
	}
	t.total += time.Since(t.started)
	t.calls++
	t.running = false
}

// Scoped starts the timer and returns its stop function, for defer.
func (t *Timer) Scoped() func() {
	t.Start()

	return t.Stop
}

// Stat is one reported timer line.
type Stat struct {
	Name  string
	Calls int64
	Total time.Duration
}

// Registry owns a set of named timers under one level threshold.
type Registry struct {
	mu        sync.Mutex
	threshold Level
	order     []string
	index     map[string]*Timer
}

// NewRegistry builds an empty registry; timers finer than threshold are
// created disabled.
func NewRegistry(threshold Level) *Registry {
	return &Registry{threshold: threshold, index: make(map[string]*Timer)}
}

// Timer returns the named timer, creating it at the given level on first
// use. Creation order is preserved for reporting.
func (r *Registry) Timer(name string, level Level) *Timer {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.index[name]; ok {
		return t
	}
	t := &Timer{name: name, enabled: level <= r.threshold}
	r.index[name] = t
	r.order = append(r.order, name)

	return t
}

// Snapshot returns the enabled timers' stats in creation order.
func (r *Registry) Snapshot() []Stat {
	r.mu.Lock()
	defer r.mu.Unlock()
	stats := make([]Stat, 0, len(r.order))
	for _, name := range r.order {
		t := r.index[name]
		if !t.enabled {
			continue
		}
		stats = append(stats, Stat{Name: t.name, Calls: t.calls, Total: t.total})
	}

	return stats
}

// Report writes one structured line per enabled timer, slowest first, to the
// supplied logger. Called once at shutdown.
func (r *Registry) Report(log *zap.Logger) {
	stats := r.Snapshot()
	sort.SliceStable(stats, func(i, j int) bool { return stats[i].Total > stats[j].Total })
	for _, s := range stats {
		log.Info("timer",
			zap.String("name", s.Name),
			zap.Int64("calls", s.Calls),
			zap.Duration("total", s.Total),
		)
	}
}
