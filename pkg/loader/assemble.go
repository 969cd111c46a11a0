package loader

import (
	"encoding/json"

	"github.com/chainindex/archive-gateway/pkg/archive"
	"github.com/chainindex/archive-gateway/pkg/serialize"
)

// assemble serializes every entity with its accumulated field selection and
// groups the result by block, merging each block's EVM-log projections into
// its events and deduplicating the two against each other by id.
func assemble(
	blocks []archive.BlockHeader,
	events []archive.Event,
	calls []archive.Call,
	extrinsics []archive.Extrinsic,
	evmLogs []archive.EvmLog,
	acc *fieldAccumulator,
) []archive.Batch {
	eventsByBlock := make(map[string][]json.RawMessage)
	for _, event := range events {
		data, err := serialize.Event(event, acc.eventFields[event.ID])
		if err != nil {
			panic("loader: serialize event: " + err.Error())
		}
		eventsByBlock[event.BlockID] = append(eventsByBlock[event.BlockID], data)
	}

	for _, log := range evmLogs {
		data, err := serialize.EvmLog(log, acc.logFields[log.ID])
		if err != nil {
			panic("loader: serialize evm log: " + err.Error())
		}
		eventsByBlock[log.BlockID] = append(eventsByBlock[log.BlockID], data)
	}

	callsByBlock := make(map[string][]json.RawMessage)
	serializedCalls := make(map[string]struct{}, len(calls))
	for _, call := range calls {
		if _, done := serializedCalls[call.ID]; done {
			continue
		}
		f, ok := acc.callFields[call.ID]
		if !ok {
			continue
		}
		serializedCalls[call.ID] = struct{}{}
		data, err := serialize.Call(call, f)
		if err != nil {
			panic("loader: serialize call: " + err.Error())
		}
		callsByBlock[call.BlockID] = append(callsByBlock[call.BlockID], data)
	}

	extrinsicsByBlock := make(map[string][]json.RawMessage)
	for _, extrinsic := range extrinsics {
		data, err := serialize.Extrinsic(extrinsic, acc.extrinsicFields[extrinsic.ID])
		if err != nil {
			panic("loader: serialize extrinsic: " + err.Error())
		}
		extrinsicsByBlock[extrinsic.BlockID] = append(extrinsicsByBlock[extrinsic.BlockID], data)
	}

	out := make([]archive.Batch, 0, len(blocks))
	for _, block := range blocks {
		out = append(out, archive.Batch{
			Header:     block,
			Extrinsics: extrinsicsByBlock[block.ID],
			Calls:      callsByBlock[block.ID],
			Events:     unifyAndMerge(eventsByBlock[block.ID], eventFieldOrder),
		})
	}
	return out
}
