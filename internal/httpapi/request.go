// Package httpapi is the thin JSON entrypoint over the batch gateway. It
// maps request JSON to pkg/loader.Request and pkg/selection types and
// batches back to JSON; handlers parse, call the service, and write a
// pkg/errors.ServiceError JSON body on failure.
package httpapi

import (
	"github.com/chainindex/archive-gateway/pkg/fields"
	"github.com/chainindex/archive-gateway/pkg/selection"
)

// parentFieldsIn mirrors fields.ParentCallFields' JSON shape.
type parentFieldsIn struct {
	All    bool `json:"_all"`
	Args   bool `json:"args"`
	Error  bool `json:"error"`
	Origin bool `json:"origin"`
	Parent bool `json:"parent"`
}

func (in parentFieldsIn) toFields() fields.ParentCallFields {
	return fields.ParentCallFields{All: in.All, Args: in.Args, Error: in.Error, Origin: in.Origin, Parent: in.Parent}
}

// callFieldsIn mirrors fields.CallFields' JSON shape.
type callFieldsIn struct {
	All    bool            `json:"_all"`
	Error  bool            `json:"error"`
	Origin bool            `json:"origin"`
	Args   bool            `json:"args"`
	Parent *parentFieldsIn `json:"parent"`
}

func (in callFieldsIn) toFields() fields.CallFields {
	out := fields.CallFields{All: in.All, Error: in.Error, Origin: in.Origin, Args: in.Args}
	if in.Parent != nil {
		out.Parent = in.Parent.toFields()
	}
	return out
}

// extrinsicFieldsIn mirrors fields.ExtrinsicFields' JSON shape.
type extrinsicFieldsIn struct {
	All          bool          `json:"_all"`
	IndexInBlock bool          `json:"indexInBlock"`
	Version      bool          `json:"version"`
	Signature    bool          `json:"signature"`
	Success      bool          `json:"success"`
	Error        bool          `json:"error"`
	Hash         bool          `json:"hash"`
	Fee          bool          `json:"fee"`
	Tip          bool          `json:"tip"`
	Call         *callFieldsIn `json:"call"`
}

func (in extrinsicFieldsIn) toFields() fields.ExtrinsicFields {
	out := fields.ExtrinsicFields{
		All: in.All, IndexInBlock: in.IndexInBlock, Version: in.Version, Signature: in.Signature,
		Success: in.Success, Error: in.Error, Hash: in.Hash, Fee: in.Fee, Tip: in.Tip,
	}
	if in.Call != nil {
		out.Call = in.Call.toFields()
	}
	return out
}

// eventFieldsIn mirrors fields.EventFields' JSON shape.
type eventFieldsIn struct {
	All          bool               `json:"_all"`
	IndexInBlock bool               `json:"indexInBlock"`
	Phase        bool               `json:"phase"`
	Args         bool               `json:"args"`
	Extrinsic    *extrinsicFieldsIn `json:"extrinsic"`
	Call         *callFieldsIn      `json:"call"`
}

func (in eventFieldsIn) toFields() fields.EventFields {
	out := fields.EventFields{All: in.All, IndexInBlock: in.IndexInBlock, Phase: in.Phase, Args: in.Args}
	if in.Extrinsic != nil {
		out.Extrinsic = in.Extrinsic.toFields()
	}
	if in.Call != nil {
		out.Call = in.Call.toFields()
	}
	return out
}

// evmLogFieldsIn mirrors fields.EvmLogFields' JSON shape.
type evmLogFieldsIn struct {
	All          bool               `json:"_all"`
	IndexInBlock bool               `json:"indexInBlock"`
	Phase        bool               `json:"phase"`
	Args         bool               `json:"args"`
	EvmTxHash    bool               `json:"evmTxHash"`
	Extrinsic    *extrinsicFieldsIn `json:"extrinsic"`
	Call         *callFieldsIn      `json:"call"`
}

func (in evmLogFieldsIn) toFields() fields.EvmLogFields {
	out := fields.EvmLogFields{
		All: in.All, IndexInBlock: in.IndexInBlock, Phase: in.Phase, Args: in.Args, EvmTxHash: in.EvmTxHash,
	}
	if in.Extrinsic != nil {
		out.Extrinsic = in.Extrinsic.toFields()
	}
	if in.Call != nil {
		out.Call = in.Call.toFields()
	}
	return out
}

type callDataIn struct {
	Call      *callFieldsIn      `json:"call"`
	Extrinsic *extrinsicFieldsIn `json:"extrinsic"`
}

func (in callDataIn) toFields() fields.CallDataSelection {
	out := fields.NewCallDataSelection(false)
	if in.Call != nil {
		out.Call = in.Call.toFields()
	}
	if in.Extrinsic != nil {
		out.Extrinsic = in.Extrinsic.toFields()
	}
	return out
}

type eventDataIn struct {
	Event *eventFieldsIn `json:"event"`
}

func (in eventDataIn) toFields() fields.EventDataSelection {
	out := fields.NewEventDataSelection(false)
	if in.Event != nil {
		out.Event = in.Event.toFields()
	}
	return out
}

type evmLogDataIn struct {
	Event *evmLogFieldsIn `json:"event"`
}

func (in evmLogDataIn) toFields() fields.EvmLogDataSelection {
	out := fields.NewEvmLogDataSelection(false)
	if in.Event != nil {
		out.Event = in.Event.toFields()
	}
	return out
}

type callSelectionIn struct {
	Name string     `json:"name"`
	Data callDataIn `json:"data"`
}

type eventSelectionIn struct {
	Name string      `json:"name"`
	Data eventDataIn `json:"data"`
}

type evmLogSelectionIn struct {
	Contract string       `json:"contract"`
	Filter   [][]string   `json:"filter"`
	Data     evmLogDataIn `json:"data"`
}

type ethTransactSelectionIn struct {
	Contract string     `json:"contract"`
	Sighash  *string    `json:"sighash"`
	Data     callDataIn `json:"data"`
}

type contractsEventSelectionIn struct {
	Contract string      `json:"contract"`
	Data     eventDataIn `json:"data"`
}

// ethExecutedSelectionIn mirrors selection.EthExecutedSelection's JSON
// shape.
type ethExecutedSelectionIn struct {
	Contract string      `json:"contract"`
	Data     eventDataIn `json:"data"`
}

type gearSelectionIn struct {
	Program string      `json:"program"`
	Data    eventDataIn `json:"data"`
}

type acalaLogIn struct {
	Contract *string    `json:"contract"`
	Filter   [][]string `json:"filter"`
}

type acalaEvmEventSelectionIn struct {
	Contract string       `json:"contract"`
	Logs     []acalaLogIn `json:"logs"`
	Data     eventDataIn  `json:"data"`
}

// selectionsIn is the JSON body of the batch request's selector lists.
type selectionsIn struct {
	Calls                  []callSelectionIn           `json:"calls"`
	Events                 []eventSelectionIn          `json:"events"`
	EvmLogs                []evmLogSelectionIn         `json:"evmLogs"`
	EthTransacts           []ethTransactSelectionIn    `json:"ethTransactions"`
	ContractsEvents        []contractsEventSelectionIn `json:"contractsEvents"`
	GearMessagesEnqueued   []gearSelectionIn           `json:"gearMessagesEnqueued"`
	GearUserMessagesSent   []gearSelectionIn           `json:"gearMessagesSent"`
	AcalaEvmExecuted       []acalaEvmEventSelectionIn  `json:"acalaEvmExecuted"`
	AcalaEvmExecutedFailed []acalaEvmEventSelectionIn  `json:"acalaEvmExecutedFailed"`
	EthExecuted            []ethExecutedSelectionIn    `json:"ethExecuted"`
}

func (in selectionsIn) toSelections() selection.Selections {
	var out selection.Selections
	for _, s := range in.Calls {
		out.Calls = append(out.Calls, selection.CallSelection{Name: s.Name, Data: s.Data.toFields()})
	}
	for _, s := range in.Events {
		out.Events = append(out.Events, selection.EventSelection{Name: s.Name, Data: s.Data.toFields()})
	}
	for _, s := range in.EvmLogs {
		out.EvmLogs = append(out.EvmLogs, selection.EvmLogSelection{
			Contract: s.Contract, Filter: s.Filter, Data: s.Data.toFields(),
		})
	}
	for _, s := range in.EthTransacts {
		out.EthTransacts = append(out.EthTransacts, selection.EthTransactSelection{
			Contract: s.Contract, Sighash: s.Sighash, Data: s.Data.toFields(),
		})
	}
	for _, s := range in.ContractsEvents {
		out.ContractsEvents = append(out.ContractsEvents, selection.ContractsEventSelection{
			Contract: s.Contract, Data: s.Data.toFields(),
		})
	}
	for _, s := range in.GearMessagesEnqueued {
		out.GearMessagesEnqueued = append(out.GearMessagesEnqueued, selection.GearMessageEnqueuedSelection{
			Program: s.Program, Data: s.Data.toFields(),
		})
	}
	for _, s := range in.GearUserMessagesSent {
		out.GearUserMessagesSent = append(out.GearUserMessagesSent, selection.GearUserMessageSentSelection{
			Program: s.Program, Data: s.Data.toFields(),
		})
	}
	out.AcalaEvmExecuted = toAcalaSelections(in.AcalaEvmExecuted)
	out.AcalaEvmExecutedFailed = toAcalaSelections(in.AcalaEvmExecutedFailed)
	for _, s := range in.EthExecuted {
		out.EthExecuted = append(out.EthExecuted, selection.EthExecutedSelection{
			Contract: s.Contract, Data: s.Data.toFields(),
		})
	}
	return out
}

func toAcalaSelections(in []acalaEvmEventSelectionIn) []selection.AcalaEvmEventSelection {
	var out []selection.AcalaEvmEventSelection
	for _, s := range in {
		sel := selection.AcalaEvmEventSelection{Contract: s.Contract, Data: s.Data.toFields()}
		for _, log := range s.Logs {
			sel.Logs = append(sel.Logs, selection.AcalaEvmLog{Contract: log.Contract, Filter: log.Filter})
		}
		out = append(out, sel)
	}
	return out
}

// batchRequestIn is the JSON body of POST /batch.
type batchRequestIn struct {
	Limit            *int64 `json:"limit"`
	FromBlock        int64  `json:"fromBlock"`
	ToBlock          *int64 `json:"toBlock"`
	IncludeAllBlocks bool   `json:"includeAllBlocks"`

	Calls                  []callSelectionIn           `json:"calls"`
	Events                 []eventSelectionIn          `json:"events"`
	EvmLogs                []evmLogSelectionIn         `json:"evmLogs"`
	EthTransacts           []ethTransactSelectionIn    `json:"ethTransactions"`
	ContractsEvents        []contractsEventSelectionIn `json:"contractsEvents"`
	GearMessagesEnqueued   []gearSelectionIn           `json:"gearMessagesEnqueued"`
	GearUserMessagesSent   []gearSelectionIn           `json:"gearMessagesSent"`
	AcalaEvmExecuted       []acalaEvmEventSelectionIn  `json:"acalaEvmExecuted"`
	AcalaEvmExecutedFailed []acalaEvmEventSelectionIn  `json:"acalaEvmExecutedFailed"`
	EthExecuted            []ethExecutedSelectionIn    `json:"ethExecuted"`
}

func (in batchRequestIn) selections() selection.Selections {
	return selectionsIn{
		Calls: in.Calls, Events: in.Events, EvmLogs: in.EvmLogs, EthTransacts: in.EthTransacts,
		ContractsEvents: in.ContractsEvents, GearMessagesEnqueued: in.GearMessagesEnqueued,
		GearUserMessagesSent: in.GearUserMessagesSent, AcalaEvmExecuted: in.AcalaEvmExecuted,
		AcalaEvmExecutedFailed: in.AcalaEvmExecutedFailed, EthExecuted: in.EthExecuted,
	}.toSelections()
}
