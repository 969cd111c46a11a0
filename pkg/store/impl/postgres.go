// Package impl is the pgx/otelsql-backed implementation of pkg/store,
// wired through database/sql via github.com/jackc/pgx/v4/stdlib so that
// github.com/XSAM/otelsql can instrument every query with connection-pool
// and per-statement duration metrics.
package impl

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/XSAM/otelsql"
	_ "github.com/jackc/pgx/v4/stdlib" // registers the "pgx" database/sql driver
	"github.com/jackc/pgtype"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric/global"
	"go.opentelemetry.io/otel/metric/instrument"

	"github.com/chainindex/archive-gateway/pkg/archive"
	"github.com/chainindex/archive-gateway/pkg/sqlbuilder"
	"github.com/chainindex/archive-gateway/pkg/store"
)

// Store is the pgx-backed implementation of store.Store.
type Store struct {
	db               *sql.DB
	log              zerolog.Logger
	callCount        instrument.Int64Counter
	latencyHistogram instrument.Int64Histogram
}

// New opens a connection pool to postgresURI and registers its connection
// stats with the global meter provider.
func New(ctx context.Context, postgresURI string) (*Store, error) {
	attrs := []attribute.KeyValue{attribute.String("name", "archivestore")}
	db, err := otelsql.Open("pgx", postgresURI, otelsql.WithAttributes(attrs...))
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %s", err)
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("pinging postgres: %s", err)
	}
	if err := otelsql.RegisterDBStatsMetrics(db, otelsql.WithAttributes(attrs...)); err != nil {
		return nil, fmt.Errorf("registering dbstats: %s", err)
	}

	meter := global.MeterProvider().Meter("archivegateway")
	callCount, err := meter.Int64Counter("archivegateway.store.query.count")
	if err != nil {
		return nil, fmt.Errorf("registering query counter: %s", err)
	}
	latencyHistogram, err := meter.Int64Histogram("archivegateway.store.query.latency")
	if err != nil {
		return nil, fmt.Errorf("registering query latency histogram: %s", err)
	}

	return &Store{
		db:               db,
		log:              zerolog.Ctx(ctx).With().Str("component", "archivestore").Logger(),
		callCount:        callCount,
		latencyHistogram: latencyHistogram,
	}, nil
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// observe records a per-query-kind duration measurement.
func (s *Store) observe(ctx context.Context, kind string, start time.Time, err error) {
	attrs := []attribute.KeyValue{
		{Key: "query_kind", Value: attribute.StringValue(kind)},
		{Key: "success", Value: attribute.BoolValue(err == nil)},
	}
	s.callCount.Add(ctx, 1, attrs...)
	s.latencyHistogram.Record(ctx, time.Since(start).Milliseconds(), attrs...)
}

func (s *Store) queryStrings(ctx context.Context, kind, query string, args ...any) ([]string, error) {
	start := time.Now()
	rows, err := s.db.QueryContext(ctx, query, args...)
	defer func() { s.observe(ctx, kind, start, err) }()
	if err != nil {
		return nil, fmt.Errorf("%s scan: %w", kind, err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err = rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%s scan row: %w", kind, err)
		}
		out = append(out, id)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s scan rows: %w", kind, err)
	}
	return out, nil
}

// ListMetadata loads every row of the metadata table.
func (s *Store) ListMetadata(ctx context.Context) ([]store.Metadata, error) {
	start := time.Now()
	rows, err := s.db.QueryContext(ctx, "SELECT id, data FROM metadata ORDER BY id")
	defer func() { s.observe(ctx, "metadata", start, err) }()
	if err != nil {
		return nil, fmt.Errorf("metadata query: %w", err)
	}
	defer rows.Close()

	var out []store.Metadata
	for rows.Next() {
		var m store.Metadata
		if err = rows.Scan(&m.ID, &m.Data); err != nil {
			return nil, fmt.Errorf("metadata row: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// GetMetadata loads the metadata row with the given id, if any.
func (s *Store) GetMetadata(ctx context.Context, id string) (*store.Metadata, bool, error) {
	start := time.Now()
	var m store.Metadata
	err := s.db.QueryRowContext(ctx, "SELECT id, data FROM metadata WHERE id = $1", id).Scan(&m.ID, &m.Data)
	s.observe(ctx, "metadata_by_id", start, err)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("metadata by id: %w", err)
	}
	return &m, true, nil
}

// Head returns the highest known block height.
func (s *Store) Head(ctx context.Context) (int64, bool, error) {
	start := time.Now()
	var height int64
	err := s.db.QueryRowContext(ctx, "SELECT height FROM block ORDER BY height DESC LIMIT 1").Scan(&height)
	s.observe(ctx, "block_head", start, err)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("block head: %w", err)
	}
	return height, true, nil
}

// BlockHeaders loads the block header row for each of blockIDs.
func (s *Store) BlockHeaders(ctx context.Context, blockIDs []string) ([]archive.BlockHeader, error) {
	if len(blockIDs) == 0 {
		return nil, nil
	}
	const query = `SELECT id, height, hash, parent_hash, state_root, extrinsics_root, timestamp, spec_id, validator
		FROM block WHERE id = ANY($1::text[]) ORDER BY height`
	start := time.Now()
	rows, err := s.db.QueryContext(ctx, query, blockIDs)
	defer func() { s.observe(ctx, "block", start, err) }()
	if err != nil {
		return nil, fmt.Errorf("block headers: %w", err)
	}
	defer rows.Close()

	var out []archive.BlockHeader
	for rows.Next() {
		var h archive.BlockHeader
		if err = rows.Scan(&h.ID, &h.Height, &h.Hash, &h.ParentHash, &h.StateRoot,
			&h.ExtrinsicsRoot, &h.Timestamp, &h.SpecID, &h.Validator); err != nil {
			return nil, fmt.Errorf("block header row: %w", err)
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// BlockHeadersInRange loads every block header with height in
// [fromBlock, toBlock] (toBlock nil means unbounded), up to limit rows.
func (s *Store) BlockHeadersInRange(
	ctx context.Context, fromBlock int64, toBlock *int64, limit int64,
) ([]archive.BlockHeader, error) {
	const query = `SELECT id, height, hash, parent_hash, state_root, extrinsics_root, timestamp, spec_id, validator
		FROM block WHERE height >= $1 AND ($2::bigint IS NULL OR height <= $2)
		ORDER BY height LIMIT $3`
	start := time.Now()
	var toBlockArg any
	if toBlock != nil {
		toBlockArg = *toBlock
	}
	rows, err := s.db.QueryContext(ctx, query, fromBlock, toBlockArg, limit)
	defer func() { s.observe(ctx, "block", start, err) }()
	if err != nil {
		return nil, fmt.Errorf("block headers in range: %w", err)
	}
	defer rows.Close()

	var out []archive.BlockHeader
	for rows.Next() {
		var h archive.BlockHeader
		if err = rows.Scan(&h.ID, &h.Height, &h.Hash, &h.ParentHash, &h.StateRoot,
			&h.ExtrinsicsRoot, &h.Timestamp, &h.SpecID, &h.Validator); err != nil {
			return nil, fmt.Errorf("block header row: %w", err)
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// ScanEventBlocks returns the distinct block ids in (blockGT, blockLT)
// carrying an event matching names (or any name, when wildcard is true).
func (s *Store) ScanEventBlocks(
	ctx context.Context, blockGT, blockLT string, names []string, wildcard bool,
) ([]string, error) {
	b := sqlbuilder.New()
	b.WriteString("SELECT DISTINCT block_id FROM event WHERE block_id > ")
	b.BindString(blockGT)
	b.WriteString(" AND block_id < ")
	b.BindString(blockLT)
	if !wildcard {
		b.WriteString(" AND name = ANY(")
		b.BindString(names)
		b.WriteString("::text[])")
	}
	b.WriteString(" ORDER BY block_id")
	query, args := b.Query()
	return s.queryStrings(ctx, "event", query, args...)
}

// PageIDs runs one page of a scan described by q.
func (s *Store) PageIDs(
	ctx context.Context, q store.ScanQuery, lastID string, offset int, chunkLimit int64,
) ([]string, error) {
	b := sqlbuilder.New()
	b.WriteString(fmt.Sprintf("SELECT %s FROM %s WHERE ", q.SelectColumn, q.Table))
	if q.ExtraWhere != nil {
		b.WriteString(q.ExtraWhere(b.Bind))
		b.WriteString(" AND ")
	}
	cursor := q.IDFrom
	if !q.UseOffset && lastID != "" {
		cursor = lastID
	}
	b.WriteString(q.SelectColumn + " > ")
	b.BindString(cursor)
	if q.HasIDTo {
		b.WriteString(" AND " + q.SelectColumn + " < ")
		b.BindString(q.IDTo)
	}
	b.WriteString(" ORDER BY " + q.SelectColumn)
	if q.UseOffset {
		b.WriteString(" OFFSET ")
		b.BindString(int64(offset))
	}
	b.WriteString(" LIMIT ")
	b.BindString(chunkLimit)

	query, args := b.Query()
	return s.queryStrings(ctx, q.Table, query, args...)
}

const eventColumns = "id, block_id, index_in_block, phase, extrinsic_id, call_id, name, args, pos"

func scanEvent(rows *sql.Rows) (archive.Event, error) {
	var e archive.Event
	err := rows.Scan(&e.ID, &e.BlockID, &e.IndexInBlock, &e.Phase, &e.ExtrinsicID,
		&e.CallID, &e.Name, &e.Args, &e.Pos)
	return e, err
}

// EventsByBlocks loads every event belonging to one of blockIDs matching
// names (or any name, when wildcard is true).
func (s *Store) EventsByBlocks(
	ctx context.Context, blockIDs []string, names []string, wildcard bool,
) ([]archive.Event, error) {
	if len(blockIDs) == 0 {
		return nil, nil
	}
	b := sqlbuilder.New()
	b.WriteString("SELECT " + eventColumns + " FROM event WHERE block_id = ANY(")
	b.BindString(blockIDs)
	b.WriteString("::text[])")
	if !wildcard {
		b.WriteString(" AND name = ANY(")
		b.BindString(names)
		b.WriteString("::text[])")
	}
	query, args := b.Query()
	return s.queryEvents(ctx, "event", query, args...)
}

// EventsByIDs loads events by their exact ids.
func (s *Store) EventsByIDs(ctx context.Context, ids []string) ([]archive.Event, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := "SELECT " + eventColumns + " FROM event WHERE id = ANY($1::text[])"
	return s.queryEvents(ctx, "event", query, ids)
}

func (s *Store) queryEvents(ctx context.Context, kind, query string, args ...any) ([]archive.Event, error) {
	start := time.Now()
	rows, err := s.db.QueryContext(ctx, query, args...)
	defer func() { s.observe(ctx, kind, start, err) }()
	if err != nil {
		return nil, fmt.Errorf("%s query: %w", kind, err)
	}
	defer rows.Close()

	var out []archive.Event
	for rows.Next() {
		e, scanErr := scanEvent(rows)
		if scanErr != nil {
			err = scanErr
			return nil, fmt.Errorf("%s row: %w", kind, err)
		}
		out = append(out, e)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s rows: %w", kind, err)
	}
	return out, nil
}

const callColumns = "id, parent_id, block_id, extrinsic_id, name, args, success, error, origin, pos"

func scanCall(rows *sql.Rows) (archive.Call, error) {
	var c archive.Call
	err := rows.Scan(&c.ID, &c.ParentID, &c.BlockID, &c.ExtrinsicID, &c.Name,
		&c.Args, &c.Success, &c.Error, &c.Origin, &c.Pos)
	return c, err
}

// CallsByBlocks loads every call belonging to one of blockIDs matching names
// (or any name, when wildcard is true).
func (s *Store) CallsByBlocks(
	ctx context.Context, blockIDs []string, names []string, wildcard bool,
) ([]archive.Call, error) {
	if len(blockIDs) == 0 {
		return nil, nil
	}
	b := sqlbuilder.New()
	b.WriteString("SELECT " + callColumns + " FROM call WHERE block_id = ANY(")
	b.BindString(blockIDs)
	b.WriteString("::text[])")
	if !wildcard {
		b.WriteString(" AND name = ANY(")
		b.BindString(names)
		b.WriteString("::text[])")
	}
	query, args := b.Query()
	return s.queryCalls(ctx, "call", query, args...)
}

// CallsByIDs loads calls by their exact ids.
func (s *Store) CallsByIDs(ctx context.Context, ids []string) ([]archive.Call, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := "SELECT " + callColumns + " FROM call WHERE id = ANY($1::text[])"
	return s.queryCalls(ctx, "call", query, ids)
}

func (s *Store) queryCalls(ctx context.Context, kind, query string, args ...any) ([]archive.Call, error) {
	start := time.Now()
	rows, err := s.db.QueryContext(ctx, query, args...)
	defer func() { s.observe(ctx, kind, start, err) }()
	if err != nil {
		return nil, fmt.Errorf("%s query: %w", kind, err)
	}
	defer rows.Close()

	var out []archive.Call
	for rows.Next() {
		c, scanErr := scanCall(rows)
		if scanErr != nil {
			err = scanErr
			return nil, fmt.Errorf("%s row: %w", kind, err)
		}
		out = append(out, c)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s rows: %w", kind, err)
	}
	return out, nil
}

// EventIDsByLogIDs resolves the event_id column of table for each of logIDs.
func (s *Store) EventIDsByLogIDs(ctx context.Context, table string, logIDs []string) ([]string, error) {
	if len(logIDs) == 0 {
		return nil, nil
	}
	query := fmt.Sprintf("SELECT event_id FROM %s WHERE id = ANY($1::text[])", table)
	return s.queryStrings(ctx, table, query, logIDs)
}

// EvmLogsByIDs loads events projected as EVM logs, joined with the
// denormalized transaction hash of the sibling Ethereum.Executed event that
// shares their extrinsic.
func (s *Store) EvmLogsByIDs(ctx context.Context, ids []string) ([]archive.EvmLog, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	const query = `SELECT
			log.id, log.block_id, log.index_in_block, log.phase, log.extrinsic_id,
			log.call_id, log.name, log.args, log.pos,
			COALESCE(
				jsonb_extract_path_text(executed.args, '2'),
				jsonb_extract_path_text(executed.args, 'transactionHash')
			) AS evm_tx_hash
		FROM event log
		LEFT JOIN event executed
			ON executed.extrinsic_id = log.extrinsic_id AND executed.name = 'Ethereum.Executed'
		WHERE log.id = ANY($1::text[])`
	start := time.Now()
	rows, err := s.db.QueryContext(ctx, query, ids)
	defer func() { s.observe(ctx, "evm_log", start, err) }()
	if err != nil {
		return nil, fmt.Errorf("evm log query: %w", err)
	}
	defer rows.Close()

	var out []archive.EvmLog
	for rows.Next() {
		var l archive.EvmLog
		if err = rows.Scan(&l.ID, &l.BlockID, &l.IndexInBlock, &l.Phase, &l.ExtrinsicID,
			&l.CallID, &l.Name, &l.Args, &l.Pos, &l.EvmTxHash); err != nil {
			return nil, fmt.Errorf("evm log row: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// ExtrinsicsByIDs loads extrinsics by their exact ids.
func (s *Store) ExtrinsicsByIDs(ctx context.Context, ids []string) ([]archive.Extrinsic, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	const query = `SELECT
			id, block_id, index_in_block, version, signature, call_id, fee, tip, success, error, pos, hash
		FROM extrinsic WHERE id = ANY($1::text[])`
	start := time.Now()
	rows, err := s.db.QueryContext(ctx, query, ids)
	defer func() { s.observe(ctx, "extrinsic", start, err) }()
	if err != nil {
		return nil, fmt.Errorf("extrinsic query: %w", err)
	}
	defer rows.Close()

	var out []archive.Extrinsic
	for rows.Next() {
		var e archive.Extrinsic
		var fee, tip pgtype.Numeric
		if err = rows.Scan(&e.ID, &e.BlockID, &e.IndexInBlock, &e.Version, &e.Signature,
			&e.CallID, &fee, &tip, &e.Success, &e.Error, &e.Pos, &e.Hash); err != nil {
			return nil, fmt.Errorf("extrinsic row: %w", err)
		}
		if fee.Status == pgtype.Present {
			e.Fee = &fee
		}
		if tip.Status == pgtype.Present {
			e.Tip = &tip
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// ParentCallChain returns every call transitively reachable by following
// parent_id from each of seedIDs, seedIDs included.
//
// seedIDs are validated and interpolated directly into the recursive CTE's
// seed IN list rather than bound as a parameter array: the planner
// handled the array-bound form of this particular query poorly at scale, so
// it is the one sanctioned exception to positional binding.
func (s *Store) ParentCallChain(ctx context.Context, seedIDs []string) ([]archive.Call, error) {
	if len(seedIDs) == 0 {
		return nil, nil
	}
	if err := sqlbuilder.ValidateEntityIDs(seedIDs); err != nil {
		return nil, fmt.Errorf("parent call chain: %w", err)
	}
	query := fmt.Sprintf(`WITH RECURSIVE ancestors(id, parent_id, block_id, extrinsic_id, name, args, success, error, origin, pos) AS (
			SELECT %s FROM call WHERE id IN (%s)
			UNION
			SELECT call.id, call.parent_id, call.block_id, call.extrinsic_id, call.name, call.args,
				call.success, call.error, call.origin, call.pos
			FROM call INNER JOIN ancestors ON call.id = ancestors.parent_id
		)
		SELECT id, parent_id, block_id, extrinsic_id, name, args, success, error, origin, pos FROM ancestors`,
		callColumns, sqlbuilder.QuoteValidatedIDs(seedIDs))
	return s.queryCalls(ctx, "call_ancestors", query)
}

