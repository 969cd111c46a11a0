package fields

// EventDataSelection is the field-selection payload carried by selectors
// whose primary entity is an Event (EventSelection, ContractsEventSelection,
// GearMessageEnqueuedSelection, GearUserMessageSentSelection,
// AcalaEvmEventSelection).
type EventDataSelection struct {
	Event EventFields
}

// NewEventDataSelection constructs an EventDataSelection with every flag set
// to value.
func NewEventDataSelection(value bool) EventDataSelection {
	return EventDataSelection{Event: NewEventFields(value)}
}

// Merge returns the pointwise OR of s and other.
func (s EventDataSelection) Merge(other EventDataSelection) EventDataSelection {
	return EventDataSelection{Event: s.Event.Merge(other.Event)}
}

// CallDataSelection is the field-selection payload carried by selectors
// whose primary entity is a Call (CallSelection, EthTransactSelection).
type CallDataSelection struct {
	Call      CallFields
	Extrinsic ExtrinsicFields
}

// NewCallDataSelection constructs a CallDataSelection with every flag set to
// value.
func NewCallDataSelection(value bool) CallDataSelection {
	return CallDataSelection{Call: NewCallFields(value), Extrinsic: NewExtrinsicFields(value)}
}

// Merge returns the pointwise OR of s and other.
func (s CallDataSelection) Merge(other CallDataSelection) CallDataSelection {
	return CallDataSelection{Call: s.Call.Merge(other.Call), Extrinsic: s.Extrinsic.Merge(other.Extrinsic)}
}

// SelectedFields returns the call column list plus, when the extrinsic
// sub-selection is non-empty, its foreign-key column.
func (s CallDataSelection) SelectedFields() []string {
	out := s.Call.SelectedFields()
	if s.Extrinsic.Any() {
		out = append(out, "extrinsic_id")
	}
	return out
}

// EvmLogDataSelection is the field-selection payload carried by
// EvmLogSelection.
type EvmLogDataSelection struct {
	Event EvmLogFields
}

// NewEvmLogDataSelection constructs an EvmLogDataSelection with every flag
// set to value.
func NewEvmLogDataSelection(value bool) EvmLogDataSelection {
	return EvmLogDataSelection{Event: NewEvmLogFields(value)}
}

// Merge returns the pointwise OR of s and other.
func (s EvmLogDataSelection) Merge(other EvmLogDataSelection) EvmLogDataSelection {
	return EvmLogDataSelection{Event: s.Event.Merge(other.Event)}
}
