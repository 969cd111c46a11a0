// Package serialize projects archive entities to JSON using only the
// caller-requested fields, renamed to their camelCase wire names. Each kind
// carries a few mandatory keys that are emitted regardless of the selection.
package serialize

import (
	"encoding/json"
	"fmt"

	"github.com/chainindex/archive-gateway/pkg/archive"
	"github.com/chainindex/archive-gateway/pkg/fields"
)

// Extrinsic projects extrinsic using the requested fields. "id" and "pos"
// are always present.
func Extrinsic(extrinsic archive.Extrinsic, selected fields.ExtrinsicFields) (json.RawMessage, error) {
	out := map[string]any{
		"id":  extrinsic.ID,
		"pos": extrinsic.Pos,
	}
	for _, field := range selected.SelectedFields() {
		switch field {
		case "index_in_block":
			out["indexInBlock"] = extrinsic.IndexInBlock
		case "version":
			out["version"] = extrinsic.Version
		case "signature":
			out["signature"] = extrinsic.Signature
		case "call_id":
			out["callId"] = extrinsic.CallID
		case "fee":
			out["fee"] = extrinsic.Fee
		case "tip":
			out["tip"] = extrinsic.Tip
		case "success":
			out["success"] = extrinsic.Success
		case "error":
			out["error"] = extrinsic.Error
		case "hash":
			out["hash"] = extrinsic.Hash
		default:
			panic(fmt.Sprintf("serialize: unexpected extrinsic field %q", field))
		}
	}
	return json.Marshal(out)
}

// Event projects event using the requested fields. "id", "pos" and "name"
// are always present.
func Event(event archive.Event, selected fields.EventFields) (json.RawMessage, error) {
	out := map[string]any{
		"id":   event.ID,
		"pos":  event.Pos,
		"name": event.Name,
	}
	for _, field := range selected.SelectedFields() {
		switch field {
		case "index_in_block":
			out["indexInBlock"] = event.IndexInBlock
		case "phase":
			out["phase"] = event.Phase
		case "extrinsic_id":
			out["extrinsicId"] = event.ExtrinsicID
		case "call_id":
			out["callId"] = event.CallID
		case "args":
			out["args"] = event.Args
		default:
			panic(fmt.Sprintf("serialize: unexpected event field %q", field))
		}
	}
	return json.Marshal(out)
}

// EvmLog projects log using the requested fields. "id", "pos" and "name"
// are always present.
func EvmLog(log archive.EvmLog, selected fields.EvmLogFields) (json.RawMessage, error) {
	out := map[string]any{
		"id":   log.ID,
		"pos":  log.Pos,
		"name": log.Name,
	}
	for _, field := range selected.SelectedFields() {
		switch field {
		case "index_in_block":
			out["indexInBlock"] = log.IndexInBlock
		case "phase":
			out["phase"] = log.Phase
		case "extrinsic_id":
			out["extrinsicId"] = log.ExtrinsicID
		case "call_id":
			out["callId"] = log.CallID
		case "args":
			out["args"] = log.Args
		case "evm_tx_hash":
			out["evmTxHash"] = log.EvmTxHash
		default:
			panic(fmt.Sprintf("serialize: unexpected evm log field %q", field))
		}
	}
	return json.Marshal(out)
}

// Call projects call using the requested fields. "id", "pos", "name" and
// "success" are always present.
func Call(call archive.Call, selected fields.CallDataSelection) (json.RawMessage, error) {
	out := map[string]any{
		"id":      call.ID,
		"pos":     call.Pos,
		"name":    call.Name,
		"success": call.Success,
	}
	for _, field := range selected.SelectedFields() {
		switch field {
		case "error":
			out["error"] = call.Error
		case "origin":
			out["origin"] = call.Origin
		case "args":
			out["args"] = call.Args
		case "parent_id":
			out["parentId"] = call.ParentID
		case "extrinsic_id":
			out["extrinsicId"] = call.ExtrinsicID
		default:
			panic(fmt.Sprintf("serialize: unexpected call field %q", field))
		}
	}
	return json.Marshal(out)
}
