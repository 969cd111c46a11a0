package loader

import (
	"context"
	"sort"

	"github.com/chainindex/archive-gateway/pkg/archive"
	"github.com/chainindex/archive-gateway/pkg/store"
)

// fakeStore is an in-memory store.Store used to exercise the loader's
// orchestration without a database. PageIDs ignores q.ExtraWhere (selector
// predicate evaluation is covered by pkg/selection's own tests) and instead
// returns a per-table id list the test configures directly, paginated in a
// single page.
type fakeStore struct {
	head       int64
	headOK     bool
	blocks     map[string]archive.BlockHeader
	calls      map[string]archive.Call
	events     map[string]archive.Event
	evmLogs    map[string]archive.EvmLog
	extrinsics map[string]archive.Extrinsic
	pageIDs    map[string][]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		blocks:     make(map[string]archive.BlockHeader),
		calls:      make(map[string]archive.Call),
		events:     make(map[string]archive.Event),
		evmLogs:    make(map[string]archive.EvmLog),
		extrinsics: make(map[string]archive.Extrinsic),
		pageIDs:    make(map[string][]string),
	}
}

func (s *fakeStore) Head(ctx context.Context) (int64, bool, error) {
	return s.head, s.headOK, nil
}

func (s *fakeStore) BlockHeaders(ctx context.Context, blockIDs []string) ([]archive.BlockHeader, error) {
	var out []archive.BlockHeader
	for _, id := range blockIDs {
		if b, ok := s.blocks[id]; ok {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *fakeStore) BlockHeadersInRange(ctx context.Context, fromBlock int64, toBlock *int64, limit int64) ([]archive.BlockHeader, error) {
	var out []archive.BlockHeader
	for _, b := range s.blocks {
		if b.Height < fromBlock {
			continue
		}
		if toBlock != nil && b.Height > *toBlock {
			continue
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Height < out[j].Height })
	if int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *fakeStore) ScanEventBlocks(ctx context.Context, blockGT, blockLT string, names []string, wildcard bool) ([]string, error) {
	seen := make(map[string]struct{})
	var out []string
	for _, e := range s.events {
		if e.BlockID <= blockGT {
			continue
		}
		if blockLT != "" && e.BlockID >= blockLT {
			continue
		}
		if !wildcard && !containsName(names, e.Name) {
			continue
		}
		if _, ok := seen[e.BlockID]; ok {
			continue
		}
		seen[e.BlockID] = struct{}{}
		out = append(out, e.BlockID)
	}
	sort.Strings(out)
	return out, nil
}

func (s *fakeStore) EventsByBlocks(ctx context.Context, blockIDs []string, names []string, wildcard bool) ([]archive.Event, error) {
	blockSet := toSet(blockIDs)
	var out []archive.Event
	for _, e := range s.events {
		if _, ok := blockSet[e.BlockID]; !ok {
			continue
		}
		if !wildcard && !containsName(names, e.Name) {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *fakeStore) EventsByIDs(ctx context.Context, ids []string) ([]archive.Event, error) {
	var out []archive.Event
	for _, id := range ids {
		if e, ok := s.events[id]; ok {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *fakeStore) PageIDs(ctx context.Context, q store.ScanQuery, lastID string, offset int, chunkLimit int64) ([]string, error) {
	if lastID != "" || offset != 0 {
		return nil, nil
	}
	return s.pageIDs[q.Table], nil
}

func (s *fakeStore) CallsByBlocks(ctx context.Context, blockIDs []string, names []string, wildcard bool) ([]archive.Call, error) {
	blockSet := toSet(blockIDs)
	var out []archive.Call
	for _, c := range s.calls {
		if _, ok := blockSet[c.BlockID]; !ok {
			continue
		}
		if !wildcard && !containsName(names, c.Name) {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *fakeStore) CallsByIDs(ctx context.Context, ids []string) ([]archive.Call, error) {
	var out []archive.Call
	for _, id := range ids {
		if c, ok := s.calls[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *fakeStore) EventIDsByLogIDs(ctx context.Context, table string, logIDs []string) ([]string, error) {
	return nil, nil
}

func (s *fakeStore) EvmLogsByIDs(ctx context.Context, ids []string) ([]archive.EvmLog, error) {
	var out []archive.EvmLog
	for _, id := range ids {
		if l, ok := s.evmLogs[id]; ok {
			out = append(out, l)
		}
	}
	return out, nil
}

func (s *fakeStore) ExtrinsicsByIDs(ctx context.Context, ids []string) ([]archive.Extrinsic, error) {
	var out []archive.Extrinsic
	for _, id := range ids {
		if e, ok := s.extrinsics[id]; ok {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *fakeStore) ParentCallChain(ctx context.Context, seedIDs []string) ([]archive.Call, error) {
	seen := make(map[string]struct{})
	var out []archive.Call
	var walk func(id string)
	walk = func(id string) {
		if _, ok := seen[id]; ok {
			return
		}
		c, ok := s.calls[id]
		if !ok {
			return
		}
		seen[id] = struct{}{}
		out = append(out, c)
		if c.ParentID != nil {
			walk(*c.ParentID)
		}
	}
	for _, id := range seedIDs {
		walk(id)
	}
	return out, nil
}

func containsName(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

func toSet(ids []string) map[string]struct{} {
	out := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		out[id] = struct{}{}
	}
	return out
}

var _ store.Store = (*fakeStore)(nil)
