// Package loader implements the batch gateway's core orchestration: turning
// a set of per-entity-kind selectors into a block-indexed list of Batch
// values, each entity serialized with only its requested fields.
//
// The orchestration runs in three phases. First, every selector kind scans
// its own secondary index for candidate ids and bulk-loads the matching
// rows (scan.go). Second, every matching selector's field request is
// accumulated per entity id, including the fields pulled in transitively by
// a call's ancestor chain and an extrinsic's call (fields.go). Third, each
// entity is serialized with its accumulated fields and grouped by block
// (assemble.go).
package loader

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/chainindex/archive-gateway/pkg/archive"
	"github.com/chainindex/archive-gateway/pkg/selection"
	"github.com/chainindex/archive-gateway/pkg/store"
)

// maxAncestorDepth bounds every parent_id chain walk. Real chains are at
// most a few dozen calls deep; anything past this means a cycle in the
// stored data.
const maxAncestorDepth = 1024

// Request describes one batch query: a block range, a result-size cap, and
// the selectors to evaluate against it.
type Request struct {
	FromBlock        int64
	ToBlock          *int64
	Limit            int64
	IncludeAllBlocks bool
	Selections       selection.Selections
}

// Loader is the batch-loading orchestrator. It holds no state of its own;
// every call to Load is independent.
type Loader struct {
	store store.Store
}

// New returns a Loader backed by s.
func New(s store.Store) *Loader {
	return &Loader{store: s}
}

// Load runs every selector in req against the archive and returns the
// matching entities grouped by block, in ascending block order.
//
// The per-kind id scans of phase one are independent of one another, so
// they run concurrently, one goroutine per selector kind (ten in all, each
// returning at once when its list is empty), via errgroup.Group; every
// goroutine must finish before phase two (field-closure accumulation)
// begins.
func (l *Loader) Load(ctx context.Context, req Request) ([]archive.Batch, error) {
	var (
		calls, ethTransactions                  []archive.Call
		events, contractsEvents                 []archive.Event
		messagesEnqueued, messagesSent          []archive.Event
		acalaExecuted, acalaFailed, ethExecuted []archive.Event
		evmLogs                                 []archive.EvmLog
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { calls, err = l.loadCalls(gctx, req); return })
	g.Go(func() (err error) { events, err = l.loadEvents(gctx, req); return })
	g.Go(func() (err error) { evmLogs, err = l.loadEvmLogs(gctx, req); return })
	g.Go(func() (err error) { ethTransactions, err = l.loadEthTransactions(gctx, req); return })
	g.Go(func() (err error) { contractsEvents, err = l.loadContractsEvents(gctx, req); return })
	g.Go(func() (err error) { messagesEnqueued, err = l.loadGearMessagesEnqueued(gctx, req); return })
	g.Go(func() (err error) { messagesSent, err = l.loadGearMessagesSent(gctx, req); return })
	g.Go(func() (err error) {
		acalaExecuted, err = l.loadAcalaEvmEvent(gctx, req, req.Selections.AcalaEvmExecuted,
			"acala_evm_executed", "acala_evm_executed_log")
		return
	})
	g.Go(func() (err error) {
		acalaFailed, err = l.loadAcalaEvmEvent(gctx, req, req.Selections.AcalaEvmExecutedFailed,
			"acala_evm_executed_failed", "acala_evm_executed_failed_log")
		return
	})
	g.Go(func() (err error) { ethExecuted, err = l.loadEthExecuted(gctx, req); return })
	if err := g.Wait(); err != nil {
		return nil, err
	}

	blocks, src, err := l.resolveBlocks(ctx, req, blockSources{
		calls:            calls,
		events:           events,
		evmLogs:          evmLogs,
		ethTransactions:  ethTransactions,
		contractsEvents:  contractsEvents,
		messagesEnqueued: messagesEnqueued,
		messagesSent:     messagesSent,
		acalaExecuted:    acalaExecuted,
		acalaFailed:      acalaFailed,
		ethExecuted:      ethExecuted,
	})
	if err != nil {
		return nil, err
	}
	calls, events, evmLogs, ethTransactions = src.calls, src.events, src.evmLogs, src.ethTransactions
	contractsEvents, messagesEnqueued, messagesSent = src.contractsEvents, src.messagesEnqueued, src.messagesSent
	acalaExecuted, acalaFailed, ethExecuted = src.acalaExecuted, src.acalaFailed, src.ethExecuted

	acc := newFieldAccumulator()

	callLookup := make(map[string]archive.Call, len(ethTransactions)+len(calls))
	for _, call := range ethTransactions {
		callLookup[call.ID] = call
	}
	for _, call := range calls {
		callLookup[call.ID] = call
	}

	for _, call := range ethTransactions {
		for _, sel := range req.Selections.EthTransacts {
			if sel.Match(call) {
				acc.visitCallSelection(call, sel.Data, callLookup)
			}
		}
	}
	for _, call := range calls {
		for _, sel := range req.Selections.Calls {
			if sel.Match(call) {
				acc.visitCallSelection(call, sel.Data, callLookup)
			}
		}
	}

	for _, event := range events {
		for _, sel := range req.Selections.Events {
			if sel.Match(event) {
				acc.visitEvent(event, sel.Data)
			}
		}
	}
	for _, event := range messagesEnqueued {
		for _, sel := range req.Selections.GearMessagesEnqueued {
			if sel.Match(event) {
				acc.visitEvent(event, sel.Data)
			}
		}
	}
	events = append(events, messagesEnqueued...)
	for _, event := range messagesSent {
		for _, sel := range req.Selections.GearUserMessagesSent {
			if sel.Match(event) {
				acc.visitEvent(event, sel.Data)
			}
		}
	}
	events = append(events, messagesSent...)
	for _, event := range acalaExecuted {
		for _, sel := range req.Selections.AcalaEvmExecuted {
			if sel.Match(event) {
				acc.visitEvent(event, sel.Data)
			}
		}
	}
	events = append(events, acalaExecuted...)
	for _, event := range acalaFailed {
		for _, sel := range req.Selections.AcalaEvmExecutedFailed {
			if sel.Match(event) {
				acc.visitEvent(event, sel.Data)
			}
		}
	}
	events = append(events, acalaFailed...)
	for _, event := range contractsEvents {
		for _, sel := range req.Selections.ContractsEvents {
			if sel.Match(event) {
				acc.visitEvent(event, sel.Data)
			}
		}
	}
	events = append(events, contractsEvents...)
	for _, event := range ethExecuted {
		for _, sel := range req.Selections.EthExecuted {
			if sel.Match(event) {
				acc.visitEvent(event, sel.Data)
			}
		}
	}
	events = append(events, ethExecuted...)

	for _, log := range evmLogs {
		for _, sel := range req.Selections.EvmLogs {
			if sel.Match(log) {
				acc.visitEvmLog(log, sel.Data)
			}
		}
	}

	extrinsicIDs := sortedKeys(acc.extrinsicFields)
	extrinsics, err := l.store.ExtrinsicsByIDs(ctx, extrinsicIDs)
	if err != nil {
		return nil, err
	}
	for _, extrinsic := range extrinsics {
		acc.visitExtrinsic(extrinsic)
	}

	if len(acc.callFieldsToLoad) > 0 {
		callIDs := sortedKeys(acc.callFieldsToLoad)
		additional, err := l.store.ParentCallChain(ctx, callIDs)
		if err != nil {
			return nil, err
		}
		additionalLookup := make(map[string]archive.Call, len(additional))
		for _, call := range additional {
			additionalLookup[call.ID] = call
		}
		for _, call := range additional {
			acc.resolveCallFieldToLoad(call, additionalLookup)
		}
		calls = append(calls, additional...)
	}

	calls = append(calls, ethTransactions...)

	return assemble(blocks, events, calls, extrinsics, evmLogs, acc), nil
}

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// loadAncestorChain extends calls with every call transitively reachable by
// following parent_id, bulk-loading one generation of missing ancestors at
// a time until the chain is closed. Parent chains are expected to stay
// shallow; hitting the generation bound means the chain data is corrupt.
func (l *Loader) loadAncestorChain(ctx context.Context, calls []archive.Call) ([]archive.Call, error) {
	parentIDs := distinctParentIDs(calls, nil)
	for generation := 0; len(parentIDs) > 0; generation++ {
		if generation > maxAncestorDepth {
			return nil, fmt.Errorf("call ancestor chain exceeds %d generations", maxAncestorDepth)
		}
		toLoad := missingIDs(parentIDs, calls)
		if len(toLoad) > 0 {
			parents, err := l.store.CallsByIDs(ctx, toLoad)
			if err != nil {
				return nil, err
			}
			calls = append(calls, parents...)
		}
		parentIDs = distinctParentIDs(nil, resolveParents(parentIDs, calls))
	}
	return calls, nil
}

func distinctParentIDs(calls []archive.Call, explicit []*string) []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(id *string) {
		if id == nil {
			return
		}
		if _, ok := seen[*id]; ok {
			return
		}
		seen[*id] = struct{}{}
		out = append(out, *id)
	}
	for _, call := range calls {
		add(call.ParentID)
	}
	for _, id := range explicit {
		add(id)
	}
	sort.Strings(out)
	return out
}

func missingIDs(ids []string, loaded []archive.Call) []string {
	have := make(map[string]struct{}, len(loaded))
	for _, call := range loaded {
		have[call.ID] = struct{}{}
	}
	var out []string
	for _, id := range ids {
		if _, ok := have[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}

func resolveParents(ids []string, calls []archive.Call) []*string {
	byID := make(map[string]archive.Call, len(calls))
	for _, call := range calls {
		byID[call.ID] = call
	}
	var out []*string
	for _, id := range ids {
		if call, ok := byID[id]; ok {
			out = append(out, call.ParentID)
		}
	}
	return out
}

type blockSources struct {
	calls            []archive.Call
	events           []archive.Event
	evmLogs          []archive.EvmLog
	ethTransactions  []archive.Call
	contractsEvents  []archive.Event
	messagesEnqueued []archive.Event
	messagesSent     []archive.Event
	acalaExecuted    []archive.Event
	acalaFailed      []archive.Event
	ethExecuted      []archive.Event
}

// resolveBlocks loads every block header the response needs: all of them,
// when req.IncludeAllBlocks is set, or exactly the distinct block ids
// carried by the entities already loaded (capped at req.Limit), with every
// entity slice filtered down to that same id set.
func (l *Loader) resolveBlocks(ctx context.Context, req Request, src blockSources) ([]archive.BlockHeader, blockSources, error) {
	if req.IncludeAllBlocks {
		blocks, err := l.loadBlocks(ctx, req)
		return blocks, src, err
	}

	seen := make(map[string]struct{})
	var ids []string
	add := func(blockID string) {
		if _, ok := seen[blockID]; ok {
			return
		}
		seen[blockID] = struct{}{}
		ids = append(ids, blockID)
	}
	for _, c := range src.calls {
		add(c.BlockID)
	}
	for _, e := range src.events {
		add(e.BlockID)
	}
	for _, log := range src.evmLogs {
		add(log.BlockID)
	}
	for _, c := range src.ethTransactions {
		add(c.BlockID)
	}
	for _, e := range src.contractsEvents {
		add(e.BlockID)
	}
	for _, e := range src.messagesEnqueued {
		add(e.BlockID)
	}
	for _, e := range src.messagesSent {
		add(e.BlockID)
	}
	for _, e := range src.acalaExecuted {
		add(e.BlockID)
	}
	for _, e := range src.acalaFailed {
		add(e.BlockID)
	}
	for _, e := range src.ethExecuted {
		add(e.BlockID)
	}
	sort.Strings(ids)
	if int64(len(ids)) > req.Limit {
		ids = ids[:req.Limit]
	}
	keep := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		keep[id] = struct{}{}
	}

	src.calls = filterByBlockID(src.calls, func(c archive.Call) string { return c.BlockID }, keep)
	src.events = filterByBlockID(src.events, func(e archive.Event) string { return e.BlockID }, keep)
	src.evmLogs = filterByBlockID(src.evmLogs, func(l archive.EvmLog) string { return l.BlockID }, keep)
	src.ethTransactions = filterByBlockID(src.ethTransactions, func(c archive.Call) string { return c.BlockID }, keep)
	src.contractsEvents = filterByBlockID(src.contractsEvents, func(e archive.Event) string { return e.BlockID }, keep)
	src.messagesEnqueued = filterByBlockID(src.messagesEnqueued, func(e archive.Event) string { return e.BlockID }, keep)
	src.messagesSent = filterByBlockID(src.messagesSent, func(e archive.Event) string { return e.BlockID }, keep)
	src.acalaExecuted = filterByBlockID(src.acalaExecuted, func(e archive.Event) string { return e.BlockID }, keep)
	src.acalaFailed = filterByBlockID(src.acalaFailed, func(e archive.Event) string { return e.BlockID }, keep)
	src.ethExecuted = filterByBlockID(src.ethExecuted, func(e archive.Event) string { return e.BlockID }, keep)

	blocks, err := l.loadBlocksByIDs(ctx, ids)
	return blocks, src, err
}

func filterByBlockID[T any](items []T, blockIDOf func(T) string, keep map[string]struct{}) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if _, ok := keep[blockIDOf(item)]; ok {
			out = append(out, item)
		}
	}
	return out
}
