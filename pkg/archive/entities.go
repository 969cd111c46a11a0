// Package archive holds the plain record types the gateway reads from the
// archive store: block headers, extrinsics, calls, events and EVM logs, plus
// the per-block Batch that assembles their projections for a response.
package archive

import (
	"encoding/json"

	"github.com/jackc/pgtype"
)

// BlockHeader is a row of the block table.
type BlockHeader struct {
	ID             string
	Height         int64
	Hash           string
	ParentHash     string
	StateRoot      string
	ExtrinsicsRoot string
	Timestamp      string
	SpecID         string
	Validator      *string
}

// Extrinsic is a row of the extrinsic table.
type Extrinsic struct {
	ID           string
	BlockID      string
	IndexInBlock int64
	Version      int64
	Signature    json.RawMessage
	CallID       string
	Fee          *pgtype.Numeric
	Tip          *pgtype.Numeric
	Success      bool
	Error        json.RawMessage
	Pos          int64
	Hash         string
}

// Call is a row of the call table.
type Call struct {
	ID          string
	ParentID    *string
	BlockID     string
	ExtrinsicID string
	Name        string
	Args        json.RawMessage
	Success     bool
	Error       json.RawMessage
	Origin      json.RawMessage
	Pos         int64
}

// Event is a row of the event table.
type Event struct {
	ID           string
	BlockID      string
	IndexInBlock int64
	Phase        string
	ExtrinsicID  *string
	CallID       *string
	Name         string
	Args         json.RawMessage
	Pos          int64
}

// EvmLog is an Event projected as an EVM log, with a denormalized
// transaction hash joined from the sibling Ethereum.Executed event that
// shares the same extrinsic.
type EvmLog struct {
	ID           string
	BlockID      string
	IndexInBlock int64
	Phase        string
	ExtrinsicID  *string
	CallID       *string
	Name         string
	Args         json.RawMessage
	Pos          int64
	EvmTxHash    *string
}

// Batch is the per-block response element: a header plus its projected
// extrinsics, calls and events, each already serialized to JSON.
type Batch struct {
	Header     BlockHeader       `json:"header"`
	Extrinsics []json.RawMessage `json:"extrinsics"`
	Calls      []json.RawMessage `json:"calls"`
	Events     []json.RawMessage `json:"events"`
}

// BlockID returns the zero-padded block-height prefix of an entity id, per
// the invariant that every id begins with "<block_id>-...".
func BlockID(id string) string {
	for i := 0; i < len(id); i++ {
		if id[i] == '-' {
			return id[:i]
		}
	}
	return id
}
