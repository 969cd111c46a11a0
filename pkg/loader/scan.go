package loader

import (
	"context"

	"github.com/chainindex/archive-gateway/pkg/archive"
	"github.com/chainindex/archive-gateway/pkg/idscan"
	"github.com/chainindex/archive-gateway/pkg/selection"
	"github.com/chainindex/archive-gateway/pkg/sqlbuilder"
	"github.com/chainindex/archive-gateway/pkg/store"
)

const (
	callScanChunkLimit  = 5000
	smallScanChunkLimit = 2000
)

// blockRange returns the (padded from, padded-exclusive to) bounds of
// req's block range, with hasTo reporting whether req.ToBlock was set.
func blockRange(req Request) (idGT string, idLT string, hasTo bool) {
	idGT = sqlbuilder.PadHeight(req.FromBlock)
	if req.ToBlock != nil {
		return idGT, sqlbuilder.PadHeight(*req.ToBlock + 1), true
	}
	return idGT, "", false
}

func resolveHead(ctx context.Context, s store.Store, toBlock *int64) (int64, bool, error) {
	if toBlock != nil {
		return *toBlock, true, nil
	}
	return s.Head(ctx)
}

func namesOf(wildcards []string) (wildcard bool, names []string) {
	names = make([]string, len(wildcards))
	copy(names, wildcards)
	for _, n := range names {
		if n == selection.Wildcard {
			wildcard = true
		}
	}
	return wildcard, names
}

// loadCalls resolves every call matched by req.Selections.Calls, plus its
// full ancestor chain: a single offset-paginated scan of the call table's
// own block_id column (the only scan with no better secondary index), then
// an ancestor walk.
func (l *Loader) loadCalls(ctx context.Context, req Request) ([]archive.Call, error) {
	sels := req.Selections.Calls
	if len(sels) == 0 {
		return nil, nil
	}
	names := make([]string, len(sels))
	for i, s := range sels {
		names[i] = s.Name
	}
	wildcard, names := namesOf(names)

	idGT, idLT, hasTo := blockRange(req)
	q := store.ScanQuery{
		Table:        "call",
		SelectColumn: "block_id",
		IDFrom:       idGT,
		IDTo:         idLT,
		HasIDTo:      hasTo,
		UseOffset:    true,
	}
	if !wildcard {
		q.ExtraWhere = func(bind func(v any) string) string {
			return "name = ANY(" + bind(names) + "::text[])"
		}
	}
	blockIDs, err := idscan.PagedScan(ctx, req.Limit, callScanChunkLimit, func(ctx context.Context, lastID string, offset int, chunkLimit int64) ([]string, error) {
		return l.store.PageIDs(ctx, q, lastID, offset, chunkLimit)
	})
	if err != nil || len(blockIDs) == 0 {
		return nil, err
	}

	calls, err := l.store.CallsByBlocks(ctx, blockIDs, names, wildcard)
	if err != nil {
		return nil, err
	}
	return l.loadAncestorChain(ctx, calls)
}

// loadEvents resolves every event matched by req.Selections.Events via an
// adaptive block-height window scan, the only strategy available since
// (name, block_id) has no keyset ordering an offset scan can exploit.
func (l *Loader) loadEvents(ctx context.Context, req Request) ([]archive.Event, error) {
	sels := req.Selections.Events
	if len(sels) == 0 {
		return nil, nil
	}
	names := make([]string, len(sels))
	for i, s := range sels {
		names[i] = s.Name
	}
	wildcard, names := namesOf(names)

	blockIDs, err := l.scanEventBlocks(ctx, req, names, wildcard)
	if err != nil || len(blockIDs) == 0 {
		return nil, err
	}
	return l.store.EventsByBlocks(ctx, blockIDs, names, wildcard)
}

func (l *Loader) scanEventBlocks(ctx context.Context, req Request, names []string, wildcard bool) ([]string, error) {
	head, ok, err := resolveHead(ctx, l.store, req.ToBlock)
	if err != nil || !ok {
		return nil, err
	}
	return idscan.AdaptiveScan(ctx, req.FromBlock, head, req.Limit, func(ctx context.Context, blockGT, blockLT string) ([]string, error) {
		return l.store.ScanEventBlocks(ctx, blockGT, blockLT, names, wildcard)
	})
}

// loadEthExecuted resolves the Ethereum.Executed event selector the same
// way as a plain name-fixed event scan; the contract predicate is applied
// client-side since there is no dedicated selector index for it.
func (l *Loader) loadEthExecuted(ctx context.Context, req Request) ([]archive.Event, error) {
	if len(req.Selections.EthExecuted) == 0 {
		return nil, nil
	}
	blockIDs, err := l.scanEventBlocks(ctx, req, []string{"Ethereum.Executed"}, false)
	if err != nil || len(blockIDs) == 0 {
		return nil, err
	}
	return l.store.EventsByBlocks(ctx, blockIDs, []string{"Ethereum.Executed"}, false)
}

// loadEvmLogs resolves every EvmLogSelection, grouped by identical topic
// filter (selectors differing only by contract share one scan), via the
// frontier_evm_log secondary index keyed by event_id.
func (l *Loader) loadEvmLogs(ctx context.Context, req Request) ([]archive.EvmLog, error) {
	sels := req.Selections.EvmLogs
	if len(sels) == 0 {
		return nil, nil
	}

	var ids []string
	for _, group := range groupEvmSelections(sels) {
		wildcard := false
		contracts := make([]string, len(group))
		for i, s := range group {
			contracts[i] = s.Contract
			if s.Contract == selection.Wildcard {
				wildcard = true
			}
		}
		filter := group[0].Filter

		idGT, idLT, hasTo := blockRange(req)
		q := store.ScanQuery{
			Table:        "frontier_evm_log",
			SelectColumn: "event_id",
			IDFrom:       idGT,
			IDTo:         idLT,
			HasIDTo:      hasTo,
		}
		q.ExtraWhere = func(bind func(v any) string) string {
			where := ""
			if !wildcard {
				where += "contract = ANY(" + bind(contracts) + "::text[]) AND "
			}
			for i, topics := range filter {
				if i > 3 || len(topics) == 0 {
					continue
				}
				where += topicColumn(i) + " = ANY(" + bind(topics) + "::text[]) AND "
			}
			return where + "1 = 1"
		}
		groupIDs, err := idscan.PagedScan(ctx, req.Limit, smallScanChunkLimit, func(ctx context.Context, lastID string, offset int, chunkLimit int64) ([]string, error) {
			return l.store.PageIDs(ctx, q, lastID, offset, chunkLimit)
		})
		if err != nil {
			return nil, err
		}
		ids = append(ids, groupIDs...)
	}
	ids = idscan.TrimToBlockCap(ids, req.Limit)
	if len(ids) == 0 {
		return nil, nil
	}
	return l.store.EvmLogsByIDs(ctx, ids)
}

func groupEvmSelections(sels []selection.EvmLogSelection) [][]selection.EvmLogSelection {
	var groups [][]selection.EvmLogSelection
outer:
	for _, s := range sels {
		for i, group := range groups {
			if filterEqual(group[0].Filter, s.Filter) {
				groups[i] = append(groups[i], s)
				continue outer
			}
		}
		groups = append(groups, []selection.EvmLogSelection{s})
	}
	return groups
}

func filterEqual(a, b [][]string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if len(a[i]) != len(b[i]) {
			return false
		}
		for j := range a[i] {
			if a[i][j] != b[i][j] {
				return false
			}
		}
	}
	return true
}

func topicColumn(i int) string {
	return [4]string{"topic0", "topic1", "topic2", "topic3"}[i]
}

// loadEthTransactions resolves every EthTransactSelection against the
// frontier_ethereum_transaction secondary index, plus the matched calls'
// ancestor chain.
func (l *Loader) loadEthTransactions(ctx context.Context, req Request) ([]archive.Call, error) {
	sels := req.Selections.EthTransacts
	if len(sels) == 0 {
		return nil, nil
	}

	var ids []string
	for _, s := range sels {
		idGT, idLT, hasTo := blockRange(req)
		q := store.ScanQuery{
			Table:        "frontier_ethereum_transaction",
			SelectColumn: "call_id",
			IDFrom:       idGT,
			IDTo:         idLT,
			HasIDTo:      hasTo,
		}
		sel := s
		q.ExtraWhere = func(bind func(v any) string) string {
			where := ""
			if sel.Contract != selection.Wildcard {
				where += "contract = " + bind(sel.Contract) + " AND "
			}
			if sel.Sighash != nil {
				where += "sighash = " + bind(*sel.Sighash) + " AND "
			}
			return where + "1 = 1"
		}
		selIDs, err := idscan.PagedScan(ctx, req.Limit, smallScanChunkLimit, func(ctx context.Context, lastID string, offset int, chunkLimit int64) ([]string, error) {
			return l.store.PageIDs(ctx, q, lastID, offset, chunkLimit)
		})
		if err != nil {
			return nil, err
		}
		ids = append(ids, selIDs...)
	}
	ids = idscan.TrimToBlockCap(ids, req.Limit)
	if len(ids) == 0 {
		return nil, nil
	}
	calls, err := l.store.CallsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	return l.loadAncestorChain(ctx, calls)
}

// loadContractsEvents resolves every ContractsEventSelection against the
// contracts_contract_emitted secondary index.
func (l *Loader) loadContractsEvents(ctx context.Context, req Request) ([]archive.Event, error) {
	sels := req.Selections.ContractsEvents
	if len(sels) == 0 {
		return nil, nil
	}
	contracts := make([]string, len(sels))
	for i, s := range sels {
		contracts[i] = s.Contract
	}
	ids, err := l.scanByProgramOrContract(ctx, req, "contracts_contract_emitted", "contract", contracts)
	if err != nil || len(ids) == 0 {
		return nil, err
	}
	return l.store.EventsByIDs(ctx, ids)
}

// loadGearMessagesEnqueued resolves every GearMessageEnqueuedSelection
// against the gear_message_enqueued secondary index.
func (l *Loader) loadGearMessagesEnqueued(ctx context.Context, req Request) ([]archive.Event, error) {
	sels := req.Selections.GearMessagesEnqueued
	if len(sels) == 0 {
		return nil, nil
	}
	programs := make([]string, len(sels))
	for i, s := range sels {
		programs[i] = s.Program
	}
	ids, err := l.scanByProgramOrContract(ctx, req, "gear_message_enqueued", "program", programs)
	if err != nil || len(ids) == 0 {
		return nil, err
	}
	return l.store.EventsByIDs(ctx, ids)
}

// loadGearMessagesSent resolves every GearUserMessageSentSelection against
// the gear_user_message_sent secondary index.
func (l *Loader) loadGearMessagesSent(ctx context.Context, req Request) ([]archive.Event, error) {
	sels := req.Selections.GearUserMessagesSent
	if len(sels) == 0 {
		return nil, nil
	}
	programs := make([]string, len(sels))
	for i, s := range sels {
		programs[i] = s.Program
	}
	ids, err := l.scanByProgramOrContract(ctx, req, "gear_user_message_sent", "program", programs)
	if err != nil || len(ids) == 0 {
		return nil, err
	}
	return l.store.EventsByIDs(ctx, ids)
}

// scanByProgramOrContract runs a single combined scan of table's event_id
// secondary index, filtering by predicateColumn = ANY(values).
func (l *Loader) scanByProgramOrContract(ctx context.Context, req Request, table, predicateColumn string, values []string) ([]string, error) {
	idGT, idLT, hasTo := blockRange(req)
	q := store.ScanQuery{
		Table:        table,
		SelectColumn: "event_id",
		IDFrom:       idGT,
		IDTo:         idLT,
		HasIDTo:      hasTo,
		ExtraWhere: func(bind func(v any) string) string {
			return predicateColumn + " = ANY(" + bind(values) + "::text[])"
		},
	}
	return idscan.PagedScan(ctx, req.Limit, smallScanChunkLimit, func(ctx context.Context, lastID string, offset int, chunkLimit int64) ([]string, error) {
		return l.store.PageIDs(ctx, q, lastID, offset, chunkLimit)
	})
}

// loadAcalaEvmEvent resolves every AcalaEvmEventSelection of one of the two
// Acala EVM event kinds (executed, executed-failed): a selector with no
// real log filter scans eventTable directly by contract, one with a filter
// scans logTable by contract/topic and resolves each matching log id back
// to its owning event id.
func (l *Loader) loadAcalaEvmEvent(ctx context.Context, req Request, sels []selection.AcalaEvmEventSelection, eventTable, logTable string) ([]archive.Event, error) {
	if len(sels) == 0 {
		return nil, nil
	}
	var ids []string
	for _, s := range sels {
		var selIDs []string
		var err error
		if s.LogsEmpty() {
			selIDs, err = l.queryAcalaEvmEvent(ctx, req, s, eventTable)
		} else {
			selIDs, err = l.queryAcalaEvmEventLog(ctx, req, s, logTable)
		}
		if err != nil {
			return nil, err
		}
		ids = append(ids, selIDs...)
	}
	ids = idscan.TrimToBlockCap(ids, req.Limit)
	if len(ids) == 0 {
		return nil, nil
	}
	return l.store.EventsByIDs(ctx, ids)
}

func (l *Loader) queryAcalaEvmEvent(ctx context.Context, req Request, s selection.AcalaEvmEventSelection, eventTable string) ([]string, error) {
	idGT, idLT, hasTo := blockRange(req)
	q := store.ScanQuery{
		Table:        eventTable,
		SelectColumn: "event_id",
		IDFrom:       idGT,
		IDTo:         idLT,
		HasIDTo:      hasTo,
	}
	if s.Contract != selection.Wildcard {
		q.ExtraWhere = func(bind func(v any) string) string {
			return "contract = " + bind(s.Contract)
		}
	}
	return idscan.PagedScan(ctx, req.Limit, smallScanChunkLimit, func(ctx context.Context, lastID string, offset int, chunkLimit int64) ([]string, error) {
		return l.store.PageIDs(ctx, q, lastID, offset, chunkLimit)
	})
}

func (l *Loader) queryAcalaEvmEventLog(ctx context.Context, req Request, s selection.AcalaEvmEventSelection, logTable string) ([]string, error) {
	var logIDs []string
	for _, log := range s.Logs {
		idGT, idLT, hasTo := blockRange(req)
		q := store.ScanQuery{
			Table:        logTable,
			SelectColumn: "id",
			IDFrom:       idGT,
			IDTo:         idLT,
			HasIDTo:      hasTo,
		}
		logSel := log
		q.ExtraWhere = func(bind func(v any) string) string {
			where := ""
			if s.Contract != selection.Wildcard {
				where += "event_contract = " + bind(s.Contract) + " AND "
			}
			if logSel.Contract != nil {
				where += "contract = " + bind(*logSel.Contract) + " AND "
			}
			for i, topics := range logSel.Filter {
				if i > 3 || len(topics) == 0 {
					continue
				}
				where += topicColumn(i) + " = ANY(" + bind(topics) + "::text[]) AND "
			}
			return where + "1 = 1"
		}
		ids, err := idscan.PagedScan(ctx, req.Limit, smallScanChunkLimit, func(ctx context.Context, lastID string, offset int, chunkLimit int64) ([]string, error) {
			return l.store.PageIDs(ctx, q, lastID, offset, chunkLimit)
		})
		if err != nil {
			return nil, err
		}
		logIDs = append(logIDs, ids...)
	}
	logIDs = idscan.TrimToBlockCap(logIDs, req.Limit)
	if len(logIDs) == 0 {
		return nil, nil
	}
	return l.store.EventIDsByLogIDs(ctx, logTable, logIDs)
}

// loadBlocks loads every block header in req's range, up to req.Limit.
func (l *Loader) loadBlocks(ctx context.Context, req Request) ([]archive.BlockHeader, error) {
	return l.store.BlockHeadersInRange(ctx, req.FromBlock, req.ToBlock, req.Limit)
}

func (l *Loader) loadBlocksByIDs(ctx context.Context, ids []string) ([]archive.BlockHeader, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return l.store.BlockHeaders(ctx, ids)
}
