// Package bench drives the spinx lock variants through concurrent
// acquire/release cycles and reports throughput and per-worker
// fairness. It is a consumer of the lock package, never a dependency
// of it.
package bench

import (
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Levalicious/spinx"
)

// Config selects a lock variant and the load to put on it. Exactly one
// of Iters (per worker) or Duration bounds the run; Iters wins if both
// are set.
type Config struct {
	Variant  string        `json:"variant"`
	Workers  int           `json:"workers"`
	Iters    int           `json:"iters,omitempty"`
	Duration time.Duration `json:"duration,omitempty"`

	// MaxThreads sizes the array-based locks; 0 means Workers.
	MaxThreads int `json:"max_threads,omitempty"`

	// Backoff tunes the ttas-backoff variant. The zero value means
	// spinx.DefaultBackoff().
	Backoff spinx.BackoffConfig `json:"backoff,omitempty"`

	// BaseUnit is the per-queue-position wait of the ticket-prop
	// variant; 0 means spinx.DefaultBaseUnit.
	BaseUnit uint32 `json:"base_unit,omitempty"`
}

func (c Config) validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("bench: workers must be >= 1, got %d", c.Workers)
	}
	if c.Iters <= 0 && c.Duration <= 0 {
		return fmt.Errorf("bench: either iters or duration must be positive")
	}
	if c.MaxThreads != 0 && c.MaxThreads < c.Workers {
		return fmt.Errorf("bench: max_threads %d below worker count %d", c.MaxThreads, c.Workers)
	}
	return nil
}

func (c Config) maxThreads() int {
	if c.MaxThreads > 0 {
		return c.MaxThreads
	}
	return c.Workers
}

func (c Config) backoff() spinx.BackoffConfig {
	if c.Backoff == (spinx.BackoffConfig{}) {
		return spinx.DefaultBackoff()
	}
	return c.Backoff
}

func (c Config) baseUnit() uint32 {
	if c.BaseUnit > 0 {
		return c.BaseUnit
	}
	return spinx.DefaultBaseUnit
}

// Result is one measured run. PerWorker is the completed-increment
// count of each worker; the spread between its extremes is the
// fairness signal: near-equal for the FIFO locks, arbitrarily skewed
// for TAS/TTAS, which guarantee nothing.
type Result struct {
	Variant      string        `json:"variant"`
	Workers      int           `json:"workers"`
	TotalOps     uint64        `json:"total_ops"`
	Elapsed      time.Duration `json:"elapsed_ns"`
	OpsPerSecond float64       `json:"ops_per_second"`
	PerWorker    []uint64      `json:"per_worker"`
	MinWorkerOps uint64        `json:"min_worker_ops"`
	MaxWorkerOps uint64        `json:"max_worker_ops"`
	// Imbalance is MaxWorkerOps/MinWorkerOps; 1.0 is perfectly even.
	// +Inf when a worker was starved completely.
	Imbalance float64 `json:"imbalance"`
}

// Run executes one configuration: Workers goroutines each loop
// acquire, increment a shared non-atomic counter, release. The shared
// counter doubles as the exclusion check: lost updates mean a broken
// lock, and Run reports that as an error rather than a number.
func Run(cfg Config) (Result, error) {
	if err := cfg.validate(); err != nil {
		return Result{}, err
	}
	factory, err := lookup(cfg.Variant)
	if err != nil {
		return Result{}, err
	}
	lockers, err := factory(cfg)
	if err != nil {
		return Result{}, err
	}

	var (
		shared    uint64 // guarded by the lock under test, plain increments
		perWorker = make([]uint64, cfg.Workers)
		stop      atomic.Bool
		start     = make(chan struct{})
		g         errgroup.Group
	)
	for w := range cfg.Workers {
		g.Go(func() error {
			l := lockers()
			<-start
			if cfg.Iters > 0 {
				for range cfg.Iters {
					l.Lock()
					shared++
					l.Unlock()
					perWorker[w]++
				}
				return nil
			}
			for !stop.Load() {
				l.Lock()
				shared++
				l.Unlock()
				perWorker[w]++
			}
			return nil
		})
	}

	began := time.Now()
	close(start)
	if cfg.Iters <= 0 {
		time.AfterFunc(cfg.Duration, func() { stop.Store(true) })
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}
	elapsed := time.Since(began)

	var total uint64
	res := Result{
		Variant:      cfg.Variant,
		Workers:      cfg.Workers,
		Elapsed:      elapsed,
		PerWorker:    perWorker,
		MinWorkerOps: perWorker[0],
	}
	for _, n := range perWorker {
		total += n
		res.MinWorkerOps = min(res.MinWorkerOps, n)
		res.MaxWorkerOps = max(res.MaxWorkerOps, n)
	}
	if shared != total {
		return Result{}, fmt.Errorf(
			"bench: %s lost updates: shared counter %d, completed ops %d",
			cfg.Variant, shared, total)
	}
	res.TotalOps = total
	res.OpsPerSecond = float64(total) / elapsed.Seconds()
	if res.MinWorkerOps > 0 {
		res.Imbalance = float64(res.MaxWorkerOps) / float64(res.MinWorkerOps)
	} else {
		res.Imbalance = math.Inf(1)
	}
	return res, nil
}
