package harness

import (
	"context"
	"fmt"
	"time"

	"github.com/erizov/notevault/internal/note"
)

const benchSearchRuns = 10

// bench times a fixed-size insert/lookup/search sequence against a
// truncated store.
func (r *Runner) bench(ctx context.Context, s note.Store) (*BenchResult, error) {
	if err := s.Truncate(ctx); err != nil {
		return nil, fmt.Errorf("reset state: %w", err)
	}

	ids := make([]string, 0, r.benchSize)
	start := time.Now()
	for i := 0; i < r.benchSize; i++ {
		id, err := s.Add(ctx, fmt.Sprintf("bench note %d", i), fmt.Sprintf("benchmark payload %d", i), nil)
		if err != nil {
			return nil, fmt.Errorf("insert %d: %w", i, err)
		}
		ids = append(ids, id)
	}
	insertTime := time.Since(start)

	start = time.Now()
	for _, id := range ids {
		n, err := s.Get(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("lookup %s: %w", id, err)
		}
		if n == nil {
			return nil, fmt.Errorf("benchmark note %s vanished", id)
		}
	}
	lookupTime := time.Since(start)

	start = time.Now()
	for i := 0; i < benchSearchRuns; i++ {
		if _, err := s.Search(ctx, "payload", 10); err != nil {
			return nil, fmt.Errorf("search: %w", err)
		}
	}
	searchTime := time.Since(start)

	return &BenchResult{
		Inserts:      r.benchSize,
		InsertTime:   insertTime,
		LookupTime:   lookupTime,
		SearchTime:   searchTime,
		InsertPerSec: perSec(r.benchSize, insertTime),
		LookupPerSec: perSec(r.benchSize, lookupTime),
	}, nil
}

func perSec(n int, d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return float64(n) / d.Seconds()
}
