// Package store declares the archive's read-only query surface: the set of
// scans and bulk loads the batch loader composes into a response. Its pgx
// implementation lives in pkg/store/impl.
package store

import (
	"context"
	"encoding/json"

	"github.com/chainindex/archive-gateway/pkg/archive"
)

// ScanQuery describes one paginated id scan against a single secondary
// index. ExtraWhere, when set, is invoked against the query's Builder to
// append a predicate (and bind its own parameters) before the resume-cursor
// predicate is appended — e.g. "name = ANY($1)" for a non-wildcard call
// selector. UseOffset selects offset pagination (the call-by-name scan, the
// only one with no natural keyset column ordering of its own); every other
// scan resumes by the last id returned.
type ScanQuery struct {
	Table        string
	SelectColumn string
	IDFrom       string
	IDTo         string
	HasIDTo      bool
	UseOffset    bool
	ExtraWhere   func(bind func(v any) string) string
}

// Metadata is a row of the metadata table. It is declared here, rather
// than in internal/gateway, so pkg/store/impl's implementation of the
// metadata/status read path (ListMetadata/GetMetadata, not part of the
// Store interface below since that read path is a separate collaborator
// from the batch loader's query surface, see internal/gateway.Store) can
// return it without importing an internal package.
type Metadata struct {
	ID   string          `json:"id"`
	Data json.RawMessage `json:"data"`
}

// Store is the archive's read-only query surface the batch loader composes
// its queries against.
type Store interface {
	// Head returns the highest known block height. ok is false when the
	// archive has no blocks yet.
	Head(ctx context.Context) (height int64, ok bool, err error)

	// BlockHeaders loads the block header row for each of blockIDs.
	BlockHeaders(ctx context.Context, blockIDs []string) ([]archive.BlockHeader, error)

	// BlockHeadersInRange loads every block header with height in
	// [fromBlock, toBlock] (toBlock nil means unbounded), up to limit rows.
	BlockHeadersInRange(ctx context.Context, fromBlock int64, toBlock *int64, limit int64) ([]archive.BlockHeader, error)

	// ScanEventBlocks returns the distinct block ids strictly between blockGT
	// and blockLT carrying an event whose name is in names (or any name, when
	// wildcard is true).
	ScanEventBlocks(ctx context.Context, blockGT, blockLT string, names []string, wildcard bool) ([]string, error)

	// EventsByBlocks loads every event belonging to one of blockIDs whose
	// name is in names (or any name, when wildcard is true).
	EventsByBlocks(ctx context.Context, blockIDs []string, names []string, wildcard bool) ([]archive.Event, error)

	// EventsByIDs loads events by their exact ids.
	EventsByIDs(ctx context.Context, ids []string) ([]archive.Event, error)

	// PageIDs runs one page of a ScanQuery, resuming from lastID (keyset) or
	// offset (offset pagination), whichever q.UseOffset selects.
	PageIDs(ctx context.Context, q ScanQuery, lastID string, offset int, chunkLimit int64) ([]string, error)

	// CallsByBlocks loads every call belonging to one of blockIDs whose name
	// is in names (or any name, when wildcard is true).
	CallsByBlocks(ctx context.Context, blockIDs []string, names []string, wildcard bool) ([]archive.Call, error)

	// CallsByIDs loads calls by their exact ids.
	CallsByIDs(ctx context.Context, ids []string) ([]archive.Call, error)

	// EventIDsByLogIDs resolves the event_id column of table (one of the
	// archive's denormalized per-pallet log tables, e.g.
	// "acala_evm_executed_log") for each of logIDs. Used where a selector's
	// topic filter is matched against the log table's own id rather than its
	// owning event's.
	EventIDsByLogIDs(ctx context.Context, table string, logIDs []string) ([]string, error)

	// EvmLogsByIDs loads events projected as EVM logs (joined with their
	// denormalized transaction hash) by their exact ids.
	EvmLogsByIDs(ctx context.Context, ids []string) ([]archive.EvmLog, error)

	// ExtrinsicsByIDs loads extrinsics by their exact ids.
	ExtrinsicsByIDs(ctx context.Context, ids []string) ([]archive.Extrinsic, error)

	// ParentCallChain returns every call transitively reachable by following
	// parent_id from each of seedIDs, seedIDs included. This is the one
	// operation allowed to interpolate its id list directly into the query
	// text (after validation) rather than bind it positionally, because the
	// recursive CTE otherwise performs poorly against the planner.
	ParentCallChain(ctx context.Context, seedIDs []string) ([]archive.Call, error)
}
