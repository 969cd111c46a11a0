package partial

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/chainindex/archive-gateway/pkg/archive"
	"github.com/chainindex/archive-gateway/pkg/loader"
)

type fakeLoader struct {
	calls []loader.Request
	// batches, keyed by call index, lets a test script exactly what each
	// successive window should find.
	batches [][]archive.Batch
}

func (f *fakeLoader) Load(ctx context.Context, req loader.Request) ([]archive.Batch, error) {
	i := len(f.calls)
	f.calls = append(f.calls, req)
	if i < len(f.batches) {
		return f.batches[i], nil
	}
	return nil, nil
}

func TestRunStopsAtToBlockWithoutConsultingBudget(t *testing.T) {
	t.Parallel()

	to := int64(50)
	l := &fakeLoader{}

	result, err := Run(context.Background(), l, Options{FromBlock: 1, ToBlock: &to, Budget: time.Hour})
	require.NoError(t, err)

	require.Len(t, l.calls, 1)
	require.Equal(t, int64(1), l.calls[0].FromBlock)
	require.Equal(t, to, *l.calls[0].ToBlock)
	require.Equal(t, to+1, result.NextBlock)
}

func TestRunEveryWindowDisablesIncludeAllBlocks(t *testing.T) {
	t.Parallel()

	to := int64(10)
	l := &fakeLoader{}

	_, err := Run(context.Background(), l, Options{FromBlock: 1, ToBlock: &to})
	require.NoError(t, err)

	require.False(t, l.calls[0].IncludeAllBlocks)
	require.Equal(t, initialWindow, l.calls[0].Limit)
}

func TestRunWidensWindowAfterAnEmptyWindow(t *testing.T) {
	t.Parallel()

	to := int64(1_000_000)
	l := &fakeLoader{batches: [][]archive.Batch{nil}}

	_, err := Run(context.Background(), l, Options{FromBlock: 1, ToBlock: &to, Budget: time.Microsecond})
	require.NoError(t, err)

	require.True(t, len(l.calls) >= 1)
	require.Equal(t, initialWindow, l.calls[0].Limit)
	if len(l.calls) > 1 {
		require.Greater(t, l.calls[1].Limit, l.calls[0].Limit)
	}
}

func TestRunStopsOnceBudgetElapses(t *testing.T) {
	t.Parallel()

	to := int64(1_000_000_000)
	l := &fakeLoader{}

	start := time.Now()
	result, err := Run(context.Background(), l, Options{FromBlock: 1, ToBlock: &to, Budget: time.Nanosecond})
	require.NoError(t, err)

	require.NotEmpty(t, l.calls)
	require.Less(t, time.Since(start), time.Second)
	require.Greater(t, result.NextBlock, int64(1))
}

func TestRunPropagatesLoaderError(t *testing.T) {
	t.Parallel()

	errLoader := loaderFunc(func(ctx context.Context, req loader.Request) ([]archive.Batch, error) {
		return nil, context.Canceled
	})

	_, err := Run(context.Background(), errLoader, Options{FromBlock: 1})
	require.ErrorIs(t, err, context.Canceled)
}

type loaderFunc func(ctx context.Context, req loader.Request) ([]archive.Batch, error)

func (f loaderFunc) Load(ctx context.Context, req loader.Request) ([]archive.Batch, error) {
	return f(ctx, req)
}
