package loader

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/chainindex/archive-gateway/pkg/archive"
	"github.com/chainindex/archive-gateway/pkg/fields"
	"github.com/chainindex/archive-gateway/pkg/selection"
	"github.com/chainindex/archive-gateway/pkg/sqlbuilder"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func decodeJSON(t *testing.T, raw json.RawMessage) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func findByID(t *testing.T, items []json.RawMessage, id string) map[string]any {
	t.Helper()
	for _, raw := range items {
		obj := decodeJSON(t, raw)
		if obj["id"] == id {
			return obj
		}
	}
	t.Fatalf("no entity with id %q among %d items", id, len(items))
	return nil
}

// buildFixture wires up a block with a three-call ancestor chain
// (call0 <- call1 <- nothing further, plus an unrelated call2), one event
// naming call1 as its call, and one EVM log naming call2 as its call — the
// combination exercises the main scan path, the ancestor-chain walk and the
// callFieldsToLoad/ParentCallChain path in the same request.
func buildFixture() *fakeStore {
	blockID := sqlbuilder.PadHeight(5)
	extrinsicID := blockID + "-000000"
	call0ID := blockID + "-000000-000000"
	call1ID := blockID + "-000000-000001"
	call2ID := blockID + "-000000-000002"
	eventID := blockID + "-000000-0"
	logID := blockID + "-000000-1"

	s := newFakeStore()
	s.blocks[blockID] = archive.BlockHeader{ID: blockID, Height: 5, Hash: "0xblock"}

	s.calls[call0ID] = archive.Call{
		ID: call0ID, BlockID: blockID, ExtrinsicID: extrinsicID,
		Name: "Sudo.sudo", Args: json.RawMessage(`{"n":0}`),
	}
	s.calls[call1ID] = archive.Call{
		ID: call1ID, ParentID: strPtr(call0ID), BlockID: blockID, ExtrinsicID: extrinsicID,
		Name: "Balances.transfer", Args: json.RawMessage(`{"n":1}`),
	}
	s.calls[call2ID] = archive.Call{
		ID: call2ID, BlockID: blockID, ExtrinsicID: extrinsicID,
		Name: "EVM.call", Args: json.RawMessage(`{"n":2}`),
	}

	s.extrinsics[extrinsicID] = archive.Extrinsic{
		ID: extrinsicID, BlockID: blockID, CallID: call0ID, Hash: "0xextrinsic",
	}

	s.events[eventID] = archive.Event{
		ID: eventID, BlockID: blockID, Name: "Balances.Transfer",
		ExtrinsicID: strPtr(extrinsicID), CallID: strPtr(call1ID),
		Args: json.RawMessage(`{"from":"A","to":"B"}`),
	}

	s.evmLogs[logID] = archive.EvmLog{
		ID: logID, BlockID: blockID, Name: "EVM.Log",
		CallID: strPtr(call2ID),
		Args:   json.RawMessage(`{"address":"0xabc","topics":["0x1"]}`),
	}

	s.pageIDs["call"] = []string{blockID}
	s.pageIDs["frontier_evm_log"] = []string{logID}
	return s
}

func TestLoadResolvesAncestryAndTransitiveCallFields(t *testing.T) {
	t.Parallel()

	s := buildFixture()
	toBlock := int64(10)
	req := Request{
		FromBlock: 0,
		ToBlock:   &toBlock,
		Limit:     100,
		Selections: selection.Selections{
			Calls: []selection.CallSelection{
				{
					Name: "Balances.transfer",
					Data: fields.CallDataSelection{
						Call: fields.CallFields{Args: true, Parent: fields.ParentCallFields{Args: true}},
					},
				},
			},
			Events: []selection.EventSelection{
				{
					Name: selection.Wildcard,
					Data: fields.EventDataSelection{
						Event: fields.EventFields{
							Args:      true,
							Extrinsic: fields.ExtrinsicFields{Hash: true},
							Call:      fields.CallFields{Args: true},
						},
					},
				},
			},
			EvmLogs: []selection.EvmLogSelection{
				{
					Contract: "0xabc",
					Data: fields.EvmLogDataSelection{
						Event: fields.EvmLogFields{Args: true, Call: fields.CallFields{Args: true}},
					},
				},
			},
		},
	}

	l := New(s)
	batches, err := l.Load(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, batches, 1)

	batch := batches[0]
	require.Equal(t, "0000000005", batch.Header.ID)

	blockID := sqlbuilder.PadHeight(5)
	call0ID := blockID + "-000000-000000"
	call1ID := blockID + "-000000-000001"
	call2ID := blockID + "-000000-000002"
	extrinsicID := blockID + "-000000"
	eventID := blockID + "-000000-0"
	logID := blockID + "-000000-1"

	require.Len(t, batch.Calls, 3, "primary call, its ancestor, and the call reached only via the evm log must all be present")

	matched := findByID(t, batch.Calls, call1ID)
	require.Equal(t, call0ID, matched["parentId"], "call1's parent sub-selection must resolve to call0's id")
	require.Equal(t, float64(1), matched["args"].(map[string]any)["n"])
	require.Equal(t, "Balances.transfer", matched["name"], "name is one of serialize.Call's mandatory keys")

	ancestor := findByID(t, batch.Calls, call0ID)
	require.Nil(t, ancestor["parentId"], "call0 has no parent, but parentId must still be emitted since it was requested")
	require.Equal(t, float64(0), ancestor["args"].(map[string]any)["n"])

	viaLog := findByID(t, batch.Calls, call2ID)
	require.NotContains(t, viaLog, "parentId", "call2's parent sub-selection was never requested")
	require.Contains(t, viaLog, "args")

	require.Len(t, batch.Extrinsics, 1)
	extrinsic := findByID(t, batch.Extrinsics, extrinsicID)
	require.Equal(t, "0xextrinsic", extrinsic["hash"])
	require.NotContains(t, extrinsic, "version")

	require.Len(t, batch.Events, 2)
	event := findByID(t, batch.Events, eventID)
	require.Equal(t, extrinsicID, event["extrinsicId"])
	require.Equal(t, call1ID, event["callId"])
	require.NotContains(t, event, "phase")

	log := findByID(t, batch.Events, logID)
	require.Equal(t, call2ID, log["callId"])
	require.NotContains(t, log, "extrinsicId", "the evm log's extrinsic sub-selection was never requested")
}

func TestLoadParentNotRequestedIsNotReturned(t *testing.T) {
	t.Parallel()

	s := buildFixture()
	toBlock := int64(10)
	req := Request{
		FromBlock: 0,
		ToBlock:   &toBlock,
		Limit:     100,
		Selections: selection.Selections{
			Calls: []selection.CallSelection{
				{
					Name: "Balances.transfer",
					Data: fields.CallDataSelection{Call: fields.CallFields{Args: true}},
				},
			},
		},
	}

	l := New(s)
	batches, err := l.Load(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, batches, 1)

	blockID := sqlbuilder.PadHeight(5)
	require.Len(t, batches[0].Calls, 1, "the ancestor is loaded for chain closure but must not be serialized without a parent sub-selection")
	matched := findByID(t, batches[0].Calls, blockID+"-000000-000001")
	require.NotContains(t, matched, "parentId")
}

func TestLoadWildcardEventsCapsDistinctBlocks(t *testing.T) {
	t.Parallel()

	s := newFakeStore()
	s.head, s.headOK = 30, true
	for _, height := range []int64{10, 20, 30} {
		blockID := sqlbuilder.PadHeight(height)
		s.blocks[blockID] = archive.BlockHeader{ID: blockID, Height: height}
		s.events[blockID+"-000000-0"] = archive.Event{
			ID: blockID + "-000000-0", BlockID: blockID, Name: "System.ExtrinsicSuccess",
			Phase: "ApplyExtrinsic", Args: json.RawMessage(`{"weight":1}`),
		}
	}

	l := New(s)
	req := Request{
		FromBlock: 0,
		Limit:     2,
		Selections: selection.Selections{
			Events: []selection.EventSelection{
				{Name: selection.Wildcard, Data: fields.NewEventDataSelection(true)},
			},
		},
	}
	batches, err := l.Load(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, batches, 2, "the response must never carry more distinct blocks than the limit")

	for _, batch := range batches {
		require.Len(t, batch.Events, 1)
		event := decodeJSON(t, batch.Events[0])
		require.Contains(t, event, "phase", "a full selection must project every scalar event field")
		require.Contains(t, event, "args")
		require.Contains(t, event, "indexInBlock")
	}
}

func TestLoadIncludeAllBlocksReturnsEveryBlockRegardlessOfMatches(t *testing.T) {
	t.Parallel()

	s := newFakeStore()
	s.blocks["0000000001"] = archive.BlockHeader{ID: "0000000001", Height: 1}
	s.blocks["0000000002"] = archive.BlockHeader{ID: "0000000002", Height: 2}

	l := New(s)
	req := Request{FromBlock: 1, Limit: 10, IncludeAllBlocks: true}
	batches, err := l.Load(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, batches, 2)
	require.Empty(t, batches[0].Calls)
	require.Empty(t, batches[0].Events)
	require.Empty(t, batches[0].Extrinsics)
}

func TestLoadWithNoSelectionsAndNoIncludeAllReturnsNoBlocks(t *testing.T) {
	t.Parallel()

	s := newFakeStore()
	s.blocks["0000000001"] = archive.BlockHeader{ID: "0000000001", Height: 1}

	l := New(s)
	req := Request{FromBlock: 0, Limit: 10}
	batches, err := l.Load(context.Background(), req)
	require.NoError(t, err)
	require.Empty(t, batches)
}
