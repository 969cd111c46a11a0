package loader

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUnifyAndMergeFillsFieldsFromFirstDuplicateCarryingThem(t *testing.T) {
	t.Parallel()

	order := []string{"id", "name", "args", "evmTxHash"}
	values := []json.RawMessage{
		json.RawMessage(`{"id":"e1","name":"Evm.Log","evmTxHash":"0xdead"}`),
		json.RawMessage(`{"id":"e1","name":"Evm.Log","args":{"topics":["0x1"]}}`),
	}

	out := unifyAndMerge(values, order)
	require.Len(t, out, 1)

	var merged map[string]any
	require.NoError(t, json.Unmarshal(out[0], &merged))
	require.Equal(t, "e1", merged["id"])
	require.Equal(t, "0xdead", merged["evmTxHash"], "the evmTxHash-carrying duplicate must win since the other never set it")
	require.Contains(t, merged, "args", "args from the second duplicate must be carried over since the first lacked it")
}

func TestUnifyAndMergeKeepsDistinctIDsSeparate(t *testing.T) {
	t.Parallel()

	order := []string{"id", "name"}
	values := []json.RawMessage{
		json.RawMessage(`{"id":"e1","name":"A"}`),
		json.RawMessage(`{"id":"e2","name":"B"}`),
	}

	out := unifyAndMerge(values, order)
	require.Len(t, out, 2)
}

func TestUnifyAndMergeOmitsFieldsAbsentFromEveryDuplicate(t *testing.T) {
	t.Parallel()

	order := []string{"id", "phase"}
	values := []json.RawMessage{
		json.RawMessage(`{"id":"e1"}`),
	}

	out := unifyAndMerge(values, order)
	require.Len(t, out, 1)

	var merged map[string]any
	require.NoError(t, json.Unmarshal(out[0], &merged))
	require.NotContains(t, merged, "phase")
}

func TestUnifyAndMergeEmptyInputYieldsNil(t *testing.T) {
	t.Parallel()
	require.Nil(t, unifyAndMerge(nil, eventFieldOrder))
}

func TestUnifyAndMergePreservesFirstSeenOrder(t *testing.T) {
	t.Parallel()

	order := []string{"id"}
	values := []json.RawMessage{
		json.RawMessage(`{"id":"b"}`),
		json.RawMessage(`{"id":"a"}`),
		json.RawMessage(`{"id":"b"}`),
	}

	out := unifyAndMerge(values, order)
	require.Len(t, out, 2)

	var first, second map[string]any
	require.NoError(t, json.Unmarshal(out[0], &first))
	require.NoError(t, json.Unmarshal(out[1], &second))
	require.Equal(t, "b", first["id"])
	require.Equal(t, "a", second["id"])
}
