package fields

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCallFieldsSelectedFields(t *testing.T) {
	t.Parallel()

	t.Run("all implies every scalar", func(t *testing.T) {
		t.Parallel()
		f := NewCallFields(true)
		require.Equal(t, []string{"error", "origin", "args", "parent_id"}, f.SelectedFields())
	})

	t.Run("empty selection yields no columns", func(t *testing.T) {
		t.Parallel()
		f := NewCallFields(false)
		require.Empty(t, f.SelectedFields())
		require.False(t, f.Any())
	})

	t.Run("parent sub-selection adds parent_id without setting all scalars", func(t *testing.T) {
		t.Parallel()
		f := NewCallFields(false)
		f.Parent = NewParentCallFields(true)
		require.Equal(t, []string{"parent_id"}, f.SelectedFields())
		require.True(t, f.Any())
	})
}

func TestMergeIsCommutativeAssociativeIdempotent(t *testing.T) {
	t.Parallel()

	a := CallFields{Error: true}
	b := CallFields{Origin: true, Parent: ParentCallFields{Args: true}}
	c := CallFields{Args: true}

	require.Equal(t, a.Merge(b), b.Merge(a), "merge must be commutative")
	require.Equal(t, a.Merge(b).Merge(c), a.Merge(b.Merge(c)), "merge must be associative")
	require.Equal(t, a.Merge(a), a, "merge must be idempotent")
}

func TestMergeSelectedFieldsIsUnion(t *testing.T) {
	t.Parallel()

	a := CallFields{Error: true}
	b := CallFields{Origin: true}
	merged := a.Merge(b)

	union := map[string]bool{}
	for _, f := range a.SelectedFields() {
		union[f] = true
	}
	for _, f := range b.SelectedFields() {
		union[f] = true
	}
	for _, f := range merged.SelectedFields() {
		require.True(t, union[f], "merged field %q must come from either input", f)
	}
	for f := range union {
		require.Contains(t, merged.SelectedFields(), f)
	}
}

func TestFromParentPropagatesChain(t *testing.T) {
	t.Parallel()

	p := ParentCallFields{Args: true, Error: true, Parent: true}
	lifted := CallFields{}.FromParent(p)

	require.True(t, lifted.Args)
	require.True(t, lifted.Error)
	require.Equal(t, p, lifted.Parent, "lifted call's own parent sub-selection must equal the original request")
}

func TestExtrinsicFieldsAnyThroughNestedCall(t *testing.T) {
	t.Parallel()

	f := NewExtrinsicFields(false)
	require.False(t, f.Any())

	f.Call = CallFields{Args: true}
	require.True(t, f.Any())
	require.Contains(t, f.SelectedFields(), "call_id")
}

func TestEventFieldsSelectedFieldsAll(t *testing.T) {
	t.Parallel()
	f := NewEventFields(true)
	require.Equal(t, []string{"index_in_block", "phase", "extrinsic_id", "call_id", "args"}, f.SelectedFields())
}

func TestEvmLogFieldsSelectedFieldsAll(t *testing.T) {
	t.Parallel()
	f := NewEvmLogFields(true)
	require.Equal(t,
		[]string{"index_in_block", "phase", "extrinsic_id", "call_id", "args", "evm_tx_hash"},
		f.SelectedFields())
}

func TestCallDataSelectionSelectedFieldsAddsExtrinsicFK(t *testing.T) {
	t.Parallel()

	s := NewCallDataSelection(false)
	s.Extrinsic.Hash = true
	require.Contains(t, s.SelectedFields(), "extrinsic_id")
}
