// spinbench compares the spinx lock variants: it drives each one
// through concurrent acquire/increment/release cycles and prints
// throughput and per-worker fairness.
//
// Usage:
//
//	spinbench -variant all -workers 8 -iters 100000
//	spinbench -variant ticket -workers 32 -duration 2s -json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/zbh255/bilog"

	"github.com/Levalicious/spinx/bench"
)

var logger = bilog.NewLogger(os.Stderr, bilog.PANIC, bilog.WithTimes(),
	bilog.WithLowBuffer(0), bilog.WithTopBuffer(0))

func main() {
	var (
		variant    = flag.String("variant", "all", "lock variant to benchmark, or 'all'")
		workers    = flag.Int("workers", runtime.GOMAXPROCS(0), "concurrent workers")
		iters      = flag.Int("iters", 100000, "acquisitions per worker (ignored if -duration is set)")
		duration   = flag.Duration("duration", 0, "timed run instead of a fixed iteration count")
		maxThreads = flag.Int("maxthreads", 0, "capacity of the array-based locks (default: workers)")
		asJSON     = flag.Bool("json", false, "emit results as JSON")
		list       = flag.Bool("list", false, "list variants and exit")
	)
	flag.Parse()

	if *list {
		for _, name := range bench.Variants() {
			fmt.Println(name)
		}
		return
	}

	names := []string{*variant}
	if *variant == "all" {
		names = bench.Variants()
	}

	cfg := bench.Config{
		Workers:    *workers,
		MaxThreads: *maxThreads,
	}
	if *duration > 0 {
		cfg.Duration = *duration
	} else {
		cfg.Iters = *iters
	}

	results := make([]bench.Result, 0, len(names))
	for _, name := range names {
		cfg.Variant = name
		logger.Info(fmt.Sprintf("running %s: workers=%d iters=%d duration=%s",
			name, cfg.Workers, cfg.Iters, cfg.Duration))
		res, err := bench.Run(cfg)
		if err != nil {
			logger.ErrorFromErr(err)
			os.Exit(1)
		}
		results = append(results, res)
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(results); err != nil {
			logger.ErrorFromErr(err)
			os.Exit(1)
		}
		return
	}
	printTable(results)
}

func printTable(results []bench.Result) {
	fmt.Printf("%-16s %8s %14s %14s %12s %10s\n",
		"variant", "workers", "total ops", "ops/sec", "elapsed", "imbalance")
	for _, r := range results {
		fmt.Printf("%-16s %8d %14d %14.0f %12s %10.3f\n",
			r.Variant, r.Workers, r.TotalOps, r.OpsPerSecond,
			r.Elapsed.Round(time.Millisecond), r.Imbalance)
	}
}
