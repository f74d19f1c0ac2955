// Package harness runs an identical scenario suite and a fixed-size
// benchmark against every configured backend, asserting that their
// contract-level behavior agrees and recording throughput. A backend that
// fails or panics is marked failed on its own; the run continues with the
// remaining backends.
package harness

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/erizov/notevault/internal/note"
)

// DefaultBenchSize is the record count used by the benchmark when none is
// configured.
const DefaultBenchSize = 500

// Result is one backend's outcome across the whole run.
type Result struct {
	Backend  string
	Passed   int
	Failed   int
	Failures []string
	Bench    *BenchResult
	Err      error // fatal: setup broke or the backend panicked
}

// OK reports whether every scenario passed and nothing fatal happened.
func (r Result) OK() bool {
	return r.Err == nil && r.Failed == 0
}

// BenchResult holds the timing of the insert/lookup/search benchmark.
type BenchResult struct {
	Inserts      int
	InsertTime   time.Duration
	LookupTime   time.Duration
	SearchTime   time.Duration
	InsertPerSec float64
	LookupPerSec float64
}

// Runner drives the scenario suite and benchmark.
type Runner struct {
	logger    zerolog.Logger
	benchSize int
}

// New creates a Runner. A non-positive benchSize falls back to
// DefaultBenchSize.
func New(logger zerolog.Logger, benchSize int) *Runner {
	if benchSize <= 0 {
		benchSize = DefaultBenchSize
	}
	return &Runner{logger: logger, benchSize: benchSize}
}

// Run exercises every store in turn. Stores are not closed; the caller
// owns their lifecycle.
func (r *Runner) Run(ctx context.Context, stores []note.Store) []Result {
	results := make([]Result, 0, len(stores))
	for _, s := range stores {
		results = append(results, r.runOne(ctx, s))
	}
	return results
}

func (r *Runner) runOne(ctx context.Context, s note.Store) (res Result) {
	res.Backend = s.Name()

	defer func() {
		if p := recover(); p != nil {
			res.Err = fmt.Errorf("backend panicked: %v", p)
		}
	}()

	for _, sc := range scenarios {
		if err := s.Truncate(ctx); err != nil {
			res.Err = fmt.Errorf("reset state before %q: %w", sc.name, err)
			return res
		}
		if err := sc.run(ctx, s); err != nil {
			res.Failed++
			res.Failures = append(res.Failures, fmt.Sprintf("%s: %v", sc.name, err))
			r.logger.Warn().
				Str("backend", res.Backend).
				Str("scenario", sc.name).
				Err(err).
				Msg("scenario failed")
			continue
		}
		res.Passed++
	}

	bench, err := r.bench(ctx, s)
	if err != nil {
		res.Failed++
		res.Failures = append(res.Failures, fmt.Sprintf("benchmark: %v", err))
		return res
	}
	res.Bench = bench

	r.logger.Info().
		Str("backend", res.Backend).
		Int("passed", res.Passed).
		Int("failed", res.Failed).
		Dur("insert", bench.InsertTime).
		Dur("lookup", bench.LookupTime).
		Msg("backend run complete")
	return res
}
