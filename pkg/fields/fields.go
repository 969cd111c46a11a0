// Package fields implements the field-selection algebra of the batch
// gateway: boolean lattices that describe which columns of a Call,
// Extrinsic, Event or EvmLog a request wants projected, closed under merge.
// The All flag short-circuits every scalar flag but not the nested
// sub-selections, which merge independently.
package fields

// ParentCallFields describes which columns of a Call are requested when it
// is reached as another call's "parent".
type ParentCallFields struct {
	All    bool
	Args   bool
	Error  bool
	Origin bool
	Parent bool
}

// NewParentCallFields constructs a ParentCallFields with every flag set to
// value.
func NewParentCallFields(value bool) ParentCallFields {
	return ParentCallFields{All: value, Args: value, Error: value, Origin: value, Parent: value}
}

// Any reports whether any scalar flag is set.
func (f ParentCallFields) Any() bool {
	return f.All || f.Args || f.Error || f.Origin || f.Parent
}

// Merge returns the pointwise OR of f and other.
func (f ParentCallFields) Merge(other ParentCallFields) ParentCallFields {
	return ParentCallFields{
		All:    f.All || other.All,
		Args:   f.Args || other.Args,
		Error:  f.Error || other.Error,
		Origin: f.Origin || other.Origin,
		Parent: f.Parent || other.Parent,
	}
}

// CallFields describes which columns of a Call are requested, plus a nested
// sub-selection for its parent call.
type CallFields struct {
	All    bool
	Error  bool
	Origin bool
	Args   bool
	Parent ParentCallFields
}

// NewCallFields constructs a CallFields with every flag (including the
// nested parent sub-selection) set to value.
func NewCallFields(value bool) CallFields {
	return CallFields{All: value, Error: value, Origin: value, Args: value, Parent: NewParentCallFields(value)}
}

// Any reports whether any scalar flag is set or the parent sub-selection is
// non-empty.
func (f CallFields) Any() bool {
	return f.All || f.Error || f.Origin || f.Args || f.Parent.Any()
}

// Merge returns the pointwise OR of f and other, recursing into the nested
// parent sub-selection.
func (f CallFields) Merge(other CallFields) CallFields {
	return CallFields{
		All:    f.All || other.All,
		Error:  f.Error || other.Error,
		Origin: f.Origin || other.Origin,
		Args:   f.Args || other.Args,
		Parent: f.Parent.Merge(other.Parent),
	}
}

// FromParent lifts a ParentCallFields into a CallFields: the parent's own
// scalar flags become the call's, and its parent sub-selection is set equal
// to the original so that a "parent.parent.parent..." request keeps
// propagating up the ancestor chain.
func (f CallFields) FromParent(p ParentCallFields) CallFields {
	return CallFields{
		All:    p.All,
		Error:  p.Error,
		Origin: p.Origin,
		Args:   p.Args,
		Parent: p,
	}
}

// callFieldOrder is the fixed column order selected_fields emits for a Call.
var callFieldOrder = []string{"error", "origin", "args", "parent_id"}

// SelectedFields returns the column list to emit for a Call, in fixed order.
func (f CallFields) SelectedFields() []string {
	if f.All {
		return append([]string(nil), callFieldOrder...)
	}
	var out []string
	if f.Error {
		out = append(out, "error")
	}
	if f.Origin {
		out = append(out, "origin")
	}
	if f.Args {
		out = append(out, "args")
	}
	if f.Parent.Any() {
		out = append(out, "parent_id")
	}
	return out
}

// ExtrinsicFields describes which columns of an Extrinsic are requested,
// plus a nested sub-selection for its call.
type ExtrinsicFields struct {
	All          bool
	IndexInBlock bool
	Version      bool
	Signature    bool
	Success      bool
	Error        bool
	Hash         bool
	Fee          bool
	Tip          bool
	Call         CallFields
}

// NewExtrinsicFields constructs an ExtrinsicFields with every flag set to
// value.
func NewExtrinsicFields(value bool) ExtrinsicFields {
	return ExtrinsicFields{
		All: value, IndexInBlock: value, Version: value, Signature: value,
		Success: value, Error: value, Hash: value, Fee: value, Tip: value,
		Call: NewCallFields(value),
	}
}

// Any reports whether any scalar flag is set or the call sub-selection is
// non-empty.
func (f ExtrinsicFields) Any() bool {
	return f.All || f.IndexInBlock || f.Version || f.Signature || f.Success ||
		f.Error || f.Hash || f.Call.Any() || f.Fee || f.Tip
}

// Merge returns the pointwise OR of f and other, recursing into the nested
// call sub-selection.
func (f ExtrinsicFields) Merge(other ExtrinsicFields) ExtrinsicFields {
	return ExtrinsicFields{
		All:          f.All || other.All,
		IndexInBlock: f.IndexInBlock || other.IndexInBlock,
		Version:      f.Version || other.Version,
		Signature:    f.Signature || other.Signature,
		Success:      f.Success || other.Success,
		Error:        f.Error || other.Error,
		Hash:         f.Hash || other.Hash,
		Fee:          f.Fee || other.Fee,
		Tip:          f.Tip || other.Tip,
		Call:         f.Call.Merge(other.Call),
	}
}

var extrinsicFieldOrder = []string{
	"index_in_block", "version", "signature", "success", "error", "hash", "call_id", "fee", "tip",
}

// SelectedFields returns the column list to emit for an Extrinsic, in fixed
// order.
func (f ExtrinsicFields) SelectedFields() []string {
	if f.All {
		return append([]string(nil), extrinsicFieldOrder...)
	}
	var out []string
	if f.IndexInBlock {
		out = append(out, "index_in_block")
	}
	if f.Version {
		out = append(out, "version")
	}
	if f.Signature {
		out = append(out, "signature")
	}
	if f.Success {
		out = append(out, "success")
	}
	if f.Error {
		out = append(out, "error")
	}
	if f.Hash {
		out = append(out, "hash")
	}
	if f.Call.Any() {
		out = append(out, "call_id")
	}
	if f.Fee {
		out = append(out, "fee")
	}
	if f.Tip {
		out = append(out, "tip")
	}
	return out
}

// EventFields describes which columns of an Event are requested, plus
// nested sub-selections for its extrinsic and call.
type EventFields struct {
	All          bool
	IndexInBlock bool
	Phase        bool
	Args         bool
	Extrinsic    ExtrinsicFields
	Call         CallFields
}

// NewEventFields constructs an EventFields with every flag set to value.
func NewEventFields(value bool) EventFields {
	return EventFields{
		All: value, IndexInBlock: value, Phase: value, Args: value,
		Extrinsic: NewExtrinsicFields(value), Call: NewCallFields(value),
	}
}

// Any reports whether any scalar flag is set or either nested sub-selection
// is non-empty.
func (f EventFields) Any() bool {
	return f.All || f.IndexInBlock || f.Phase || f.Args || f.Extrinsic.Any() || f.Call.Any()
}

// Merge returns the pointwise OR of f and other, recursing into the nested
// sub-selections.
func (f EventFields) Merge(other EventFields) EventFields {
	return EventFields{
		All:          f.All || other.All,
		IndexInBlock: f.IndexInBlock || other.IndexInBlock,
		Phase:        f.Phase || other.Phase,
		Args:         f.Args || other.Args,
		Extrinsic:    f.Extrinsic.Merge(other.Extrinsic),
		Call:         f.Call.Merge(other.Call),
	}
}

var eventFieldOrder = []string{"index_in_block", "phase", "extrinsic_id", "call_id", "args"}

// SelectedFields returns the column list to emit for an Event, in fixed
// order.
func (f EventFields) SelectedFields() []string {
	if f.All {
		return append([]string(nil), eventFieldOrder...)
	}
	var out []string
	if f.IndexInBlock {
		out = append(out, "index_in_block")
	}
	if f.Phase {
		out = append(out, "phase")
	}
	if f.Extrinsic.Any() {
		out = append(out, "extrinsic_id")
	}
	if f.Call.Any() {
		out = append(out, "call_id")
	}
	if f.Args {
		out = append(out, "args")
	}
	return out
}

// EvmLogFields describes which columns of an EvmLog are requested, plus
// nested sub-selections for its extrinsic and call.
type EvmLogFields struct {
	All          bool
	IndexInBlock bool
	Phase        bool
	Args         bool
	EvmTxHash    bool
	Extrinsic    ExtrinsicFields
	Call         CallFields
}

// NewEvmLogFields constructs an EvmLogFields with every flag set to value.
func NewEvmLogFields(value bool) EvmLogFields {
	return EvmLogFields{
		All: value, IndexInBlock: value, Phase: value, Args: value, EvmTxHash: value,
		Extrinsic: NewExtrinsicFields(value), Call: NewCallFields(value),
	}
}

// Any reports whether any scalar flag is set or either nested sub-selection
// is non-empty.
func (f EvmLogFields) Any() bool {
	return f.All || f.IndexInBlock || f.Phase || f.Args || f.EvmTxHash || f.Extrinsic.Any() || f.Call.Any()
}

// Merge returns the pointwise OR of f and other, recursing into the nested
// sub-selections.
func (f EvmLogFields) Merge(other EvmLogFields) EvmLogFields {
	return EvmLogFields{
		All:          f.All || other.All,
		IndexInBlock: f.IndexInBlock || other.IndexInBlock,
		Phase:        f.Phase || other.Phase,
		Args:         f.Args || other.Args,
		EvmTxHash:    f.EvmTxHash || other.EvmTxHash,
		Extrinsic:    f.Extrinsic.Merge(other.Extrinsic),
		Call:         f.Call.Merge(other.Call),
	}
}

var evmLogFieldOrder = []string{
	"index_in_block", "phase", "extrinsic_id", "call_id", "args", "evm_tx_hash",
}

// SelectedFields returns the column list to emit for an EvmLog, in fixed
// order.
func (f EvmLogFields) SelectedFields() []string {
	if f.All {
		return append([]string(nil), evmLogFieldOrder...)
	}
	var out []string
	if f.IndexInBlock {
		out = append(out, "index_in_block")
	}
	if f.Phase {
		out = append(out, "phase")
	}
	if f.Extrinsic.Any() {
		out = append(out, "extrinsic_id")
	}
	if f.Call.Any() {
		out = append(out, "call_id")
	}
	if f.Args {
		out = append(out, "args")
	}
	if f.EvmTxHash {
		out = append(out, "evm_tx_hash")
	}
	return out
}
