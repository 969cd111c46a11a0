// Package idscan implements the two id-discovery strategies the batch
// loader uses to turn a selector predicate into a bounded set of candidate
// ids without scanning the whole archive:
//
//   - AdaptiveScan widens a block-height window geometrically (or, once it
//     has seen a hit, by extrapolating from the observed hit density) until
//     it has collected enough distinct blocks or reached the chain head.
//     Used for the event-by-name scan, which has no better secondary index
//     than (name, block_id).
//   - PagedScan walks a specialized secondary index (call name, evm log
//     contract+topic, eth-transact contract, gear/acala selectors) in fixed
//     chunks, keyset- or offset-paginated by the caller's Fetch, stopping
//     once enough distinct blocks have been seen.
//
// Both cap the number of distinct blocks at a caller-supplied limit; once
// that many blocks have contributed at least one id, scanning stops as soon
// as a chunk contains an id from a block outside the accepted set.
package idscan

import (
	"context"
	"sort"
	"strings"

	"github.com/chainindex/archive-gateway/pkg/sqlbuilder"
)

// maxWindow is the ceiling the adaptive scan's range width is clamped to,
// regardless of how sparse the index is.
const maxWindow = 100_000

// EventFetch fetches the distinct block ids matching the scan's predicate
// with block_id strictly between blockGT and blockLT, ordered by block_id.
type EventFetch func(ctx context.Context, blockGT, blockLT string) ([]string, error)

// AdaptiveScan collects up to limit distinct block ids matching an
// EventFetch predicate, starting at fromBlock and never scanning past head.
// The window starts at limit blocks wide; an empty window widens the scan
// ×10 (capped at maxWindow), a non-empty one extrapolates the width needed
// to reach limit total hits from the density observed so far.
func AdaptiveScan(ctx context.Context, fromBlock, head, limit int64, fetch EventFetch) ([]string, error) {
	if limit <= 0 {
		return nil, nil
	}

	ids := make([]string, 0, limit)
	rangeWidth := limit
	var totalRange int64

	for {
		toBlock := fromBlock + rangeWidth
		if toBlock > head {
			toBlock = head
		}
		blockGT := sqlbuilder.PadHeight(fromBlock)
		blockLT := sqlbuilder.PadHeight(toBlock + 1)

		blocks, err := fetch(ctx, blockGT, blockLT)
		if err != nil {
			return nil, err
		}
		blocks = dedupAdjacent(blocks)
		hits := int64(len(blocks))
		totalRange += rangeWidth

		reachedLimit := false
		for _, blockID := range blocks {
			ids = append(ids, blockID)
			if int64(len(ids)) == limit {
				reachedLimit = true
				break
			}
		}
		if reachedLimit {
			break
		}
		if toBlock == head {
			break
		}

		if hits == 0 {
			rangeWidth = min64(rangeWidth*10, maxWindow)
		} else {
			totalBlocks := int64(len(ids))
			rangeWidth = min64((totalRange/totalBlocks)*(limit-totalBlocks), maxWindow)
			if rangeWidth <= 0 {
				rangeWidth = 1
			}
		}
		fromBlock = toBlock + 1
	}
	return ids, nil
}

// PagedFetch fetches up to chunkLimit ids, resuming after lastID (empty for
// the first call) or, for offset-paginated scans, after offset previously
// returned ids. Each concrete scan (call name, evm log, eth-transact, gear,
// acala) supplies a Fetch that builds its own WHERE/ORDER BY/OFFSET/LIMIT
// clause and ignores whichever of the two resume cursors it doesn't need.
type PagedFetch func(ctx context.Context, lastID string, offset int, chunkLimit int64) ([]string, error)

// PagedScan walks a specialized index in chunkLimit-sized pages, collecting
// ids until blockLimit distinct blocks have contributed at least one id (a
// chunk straddling that boundary is trimmed to the accepted blocks) or a
// page comes back empty.
func PagedScan(ctx context.Context, blockLimit int64, chunkLimit int64, fetch PagedFetch) ([]string, error) {
	var ids []string
	blocks := make(map[string]struct{})
	var lastID string

	for {
		page, err := fetch(ctx, lastID, len(ids), chunkLimit)
		if err != nil {
			return nil, err
		}
		if len(page) == 0 {
			break
		}

		stop := false
		for _, id := range page {
			blockID := blockIDOf(id)
			if _, seen := blocks[blockID]; !seen && int64(len(blocks)) == blockLimit {
				stop = true
				break
			}
			blocks[blockID] = struct{}{}
			ids = append(ids, id)
		}
		if stop {
			break
		}
		lastID = ids[len(ids)-1]
	}
	return ids, nil
}

// TrimToBlockCap sorts and deduplicates ids, then retains them in order
// until limit distinct blocks have been seen, dropping everything from a
// block discovered beyond that cap.
func TrimToBlockCap(ids []string, limit int64) []string {
	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)
	sorted = dedupAdjacent(sorted)

	blocks := make(map[string]struct{})
	out := sorted[:0]
	for _, id := range sorted {
		blockID := blockIDOf(id)
		if _, seen := blocks[blockID]; !seen && int64(len(blocks)) == limit {
			continue
		}
		blocks[blockID] = struct{}{}
		out = append(out, id)
	}
	return out
}

func blockIDOf(id string) string {
	if i := strings.IndexByte(id, '-'); i >= 0 {
		return id[:i]
	}
	return id
}

func dedupAdjacent(ids []string) []string {
	if len(ids) == 0 {
		return ids
	}
	out := ids[:1]
	for _, id := range ids[1:] {
		if id != out[len(out)-1] {
			out = append(out, id)
		}
	}
	return out
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
