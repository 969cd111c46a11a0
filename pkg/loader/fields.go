package loader

import (
	"github.com/chainindex/archive-gateway/pkg/archive"
	"github.com/chainindex/archive-gateway/pkg/fields"
)

// fieldAccumulator collects, per entity id, the union of every matching
// selector's field request. callFieldsToLoad holds requests for calls
// reached only transitively (via an event, log or extrinsic's call_id)
// that have not themselves been loaded yet.
type fieldAccumulator struct {
	extrinsicFields  map[string]fields.ExtrinsicFields
	eventFields      map[string]fields.EventFields
	logFields        map[string]fields.EvmLogFields
	callFields       map[string]fields.CallDataSelection
	callFieldsToLoad map[string]fields.CallFields
}

func newFieldAccumulator() *fieldAccumulator {
	return &fieldAccumulator{
		extrinsicFields:  make(map[string]fields.ExtrinsicFields),
		eventFields:      make(map[string]fields.EventFields),
		logFields:        make(map[string]fields.EvmLogFields),
		callFields:       make(map[string]fields.CallDataSelection),
		callFieldsToLoad: make(map[string]fields.CallFields),
	}
}

func (a *fieldAccumulator) mergeExtrinsicFields(id string, f fields.ExtrinsicFields) {
	if existing, ok := a.extrinsicFields[id]; ok {
		a.extrinsicFields[id] = existing.Merge(f)
	} else {
		a.extrinsicFields[id] = f
	}
}

func (a *fieldAccumulator) mergeCallFields(id string, data fields.CallDataSelection) {
	if existing, ok := a.callFields[id]; ok {
		a.callFields[id] = existing.Merge(data)
	} else {
		a.callFields[id] = data
	}
}

func (a *fieldAccumulator) mergeCallOnly(id string, call fields.CallFields) {
	if existing, ok := a.callFields[id]; ok {
		existing.Call = existing.Call.Merge(call)
		a.callFields[id] = existing
		return
	}
	if existing, ok := a.callFieldsToLoad[id]; ok {
		a.callFieldsToLoad[id] = existing.Merge(call)
		return
	}
	a.callFieldsToLoad[id] = call
}

// visitCallSelection accumulates a matched call/eth-transact selector's
// field request for call, its extrinsic (when requested) and, recursively,
// its ancestor chain.
func (a *fieldAccumulator) visitCallSelection(call archive.Call, data fields.CallDataSelection, lookup map[string]archive.Call) {
	a.mergeCallFields(call.ID, data)
	if data.Extrinsic.Any() {
		a.mergeExtrinsicFields(call.ExtrinsicID, data.Extrinsic)
	}
	a.visitParentCall(call, data, lookup, 0)
}

// visitParentCall propagates a call's "parent" sub-selection up its
// ancestor chain, recursing to the root before recording each ancestor's
// accumulated fields so that a request for "parent.parent" keeps climbing.
// The chain is walked over the loaded-calls lookup only; a missing ancestor
// or a depth overrun means the loaded data violates its invariants.
func (a *fieldAccumulator) visitParentCall(call archive.Call, data fields.CallDataSelection, lookup map[string]archive.Call, depth int) {
	if call.ParentID == nil || !data.Call.Parent.Any() {
		return
	}
	if depth > maxAncestorDepth {
		panic("loader: parent chain exceeds max depth at call " + call.ID)
	}
	parent, ok := lookup[*call.ParentID]
	if !ok {
		panic("loader: parent call expected to be loaded: " + *call.ParentID)
	}
	parentData := fields.CallDataSelection{
		Call:      fields.CallFields{}.FromParent(data.Call.Parent),
		Extrinsic: fields.NewExtrinsicFields(false),
	}
	a.visitParentCall(parent, parentData, lookup, depth+1)
	a.mergeCallFields(parent.ID, parentData)
}

// visitEvent accumulates a matched event-like selector's (event, gear
// message, acala evm event, contracts event) field request for event, its
// extrinsic and its call.
func (a *fieldAccumulator) visitEvent(event archive.Event, data fields.EventDataSelection) {
	a.mergeEventFields(event.ID, data.Event)
	if event.ExtrinsicID != nil && data.Event.Extrinsic.Any() {
		a.mergeExtrinsicFields(*event.ExtrinsicID, data.Event.Extrinsic)
	}
	if event.CallID != nil && data.Event.Call.Any() {
		a.mergeCallOnly(*event.CallID, data.Event.Call)
	}
}

func (a *fieldAccumulator) mergeEventFields(id string, f fields.EventFields) {
	if existing, ok := a.eventFields[id]; ok {
		a.eventFields[id] = existing.Merge(f)
	} else {
		a.eventFields[id] = f
	}
}

// visitEvmLog accumulates a matched EvmLogSelection's field request for
// log, its extrinsic and its call.
func (a *fieldAccumulator) visitEvmLog(log archive.EvmLog, data fields.EvmLogDataSelection) {
	if existing, ok := a.logFields[log.ID]; ok {
		a.logFields[log.ID] = existing.Merge(data.Event)
	} else {
		a.logFields[log.ID] = data.Event
	}
	if log.ExtrinsicID != nil && data.Event.Extrinsic.Any() {
		a.mergeExtrinsicFields(*log.ExtrinsicID, data.Event.Extrinsic)
	}
	if log.CallID != nil {
		a.mergeCallOnly(*log.CallID, data.Event.Call)
	}
}

// visitExtrinsic propagates a loaded extrinsic's "call" sub-selection
// (accumulated while visiting events/logs that referenced it) to its call.
func (a *fieldAccumulator) visitExtrinsic(extrinsic archive.Extrinsic) {
	f, ok := a.extrinsicFields[extrinsic.ID]
	if !ok || !f.Call.Any() {
		return
	}
	a.mergeCallOnly(extrinsic.CallID, f.Call)
}

// resolveCallFieldToLoad, called once a call requested only via
// callFieldsToLoad has actually been loaded (as part of a
// ParentCallChain), propagates its field request up its ancestor chain and
// records it in callFields.
func (a *fieldAccumulator) resolveCallFieldToLoad(call archive.Call, lookup map[string]archive.Call) {
	f, ok := a.callFieldsToLoad[call.ID]
	if !ok {
		return
	}
	delete(a.callFieldsToLoad, call.ID)
	data := fields.CallDataSelection{Call: f, Extrinsic: fields.NewExtrinsicFields(false)}
	a.visitParentCall(call, data, lookup, 0)
	a.mergeCallFields(call.ID, data)
}
