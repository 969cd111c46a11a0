// Package partial implements the limit-less "partial mode" batch request:
// sweeping a block range in widening windows, bounded by a soft wall-clock
// budget, and returning a cursor the caller resumes from.
package partial

import (
	"context"
	"time"

	"github.com/chainindex/archive-gateway/pkg/archive"
	"github.com/chainindex/archive-gateway/pkg/loader"
	"github.com/chainindex/archive-gateway/pkg/selection"
)

// maxWindow mirrors idscan's geometric-widening ceiling.
const maxWindow = 100_000

// initialWindow is the first window width. There is no caller-supplied
// limit to seed an adaptive estimate from, so it is fixed.
const initialWindow int64 = 100

// DefaultBudget is the soft wall-clock budget between windows: the window
// in flight always runs to completion, but no further window is started
// once the budget has elapsed.
const DefaultBudget = 15 * time.Second

// Options configures one partial-mode sweep.
type Options struct {
	FromBlock  int64
	ToBlock    *int64
	Selections selection.Selections
	// Budget overrides DefaultBudget when non-zero, so operators can retune
	// it without a redeploy.
	Budget time.Duration
}

// Result is the concatenated output of a partial-mode sweep: every batch
// loaded across however many windows fit inside the time budget, plus the
// cursor the caller should resume from on its next request.
type Result struct {
	Data      []archive.Batch
	NextBlock int64
}

// Loader is the subset of *loader.Loader that Run needs, so tests can
// substitute a fake.
type Loader interface {
	Load(ctx context.Context, req loader.Request) ([]archive.Batch, error)
}

// Run sweeps forward from opts.FromBlock in windows that widen
// using the same geometric/density heuristic as the id scanner, stopping
// once the budget elapses or opts.ToBlock is reached. Each iteration
// invokes the batch loader with IncludeAllBlocks=false and
// Limit=windowWidth, so a window that finds nothing still advances the
// cursor by windowWidth blocks.
func Run(ctx context.Context, l Loader, opts Options) (Result, error) {
	budget := opts.Budget
	if budget <= 0 {
		budget = DefaultBudget
	}
	deadline := time.Now().Add(budget)

	var result Result
	cursor := opts.FromBlock
	width := initialWindow
	var totalRange int64

	for {
		windowTo := cursor + width - 1
		hasCap := false
		if opts.ToBlock != nil && windowTo >= *opts.ToBlock {
			windowTo = *opts.ToBlock
			hasCap = true
		}

		req := loader.Request{
			FromBlock:        cursor,
			ToBlock:          &windowTo,
			Limit:            width,
			IncludeAllBlocks: false,
			Selections:       opts.Selections,
		}
		batches, err := l.Load(ctx, req)
		if err != nil {
			return Result{}, err
		}
		result.Data = append(result.Data, batches...)
		result.NextBlock = windowTo + 1

		if hasCap {
			break
		}
		if time.Now().After(deadline) {
			break
		}

		totalRange += width
		if len(batches) == 0 {
			width = min64(width*10, maxWindow)
		} else {
			width = min64((totalRange/int64(len(batches)))*width, maxWindow)
			if width <= 0 {
				width = 1
			}
		}
		cursor = windowTo + 1
	}
	return result, nil
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
