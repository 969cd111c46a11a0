// Package selection implements the per-predicate selector variants of a
// batch request: event-by-name, call-by-name, evm-log-by-contract+topics,
// eth-transact-by-contract+sighash, contracts-event, gear message
// enqueued/sent, and the two Acala EVM event variants. Each selector
// carries a field-selection payload from pkg/fields and exposes Match.
package selection

import (
	"encoding/json"

	"github.com/ethereum/go-ethereum/common"

	"github.com/chainindex/archive-gateway/pkg/archive"
	"github.com/chainindex/archive-gateway/pkg/fields"
)

// Wildcard is the name/contract value that matches anything.
const Wildcard = "*"

// normalizeAddress canonicalizes a contract address (case, 0x prefix,
// leading-zero padding) so hex strings that denote the same address compare
// equal regardless of how the archive or the request happened to encode
// them. Wildcard, the empty string and any non-hex value (e.g. an SS58
// address) pass through unchanged.
func normalizeAddress(s string) string {
	if s == "" || s == Wildcard || !isHex(s) {
		return s
	}
	return common.HexToAddress(s).Hex()
}

// normalizeHash canonicalizes a 32-byte hex value (an EVM log topic, or a
// function selector once zero-extended) the same way normalizeAddress does
// for addresses.
func normalizeHash(s string) string {
	if s == "" || !isHex(s) {
		return s
	}
	return common.HexToHash(s).Hex()
}

// isHex reports whether s, after an optional 0x prefix, is a non-empty run
// of hex digits.
func isHex(s string) bool {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		s = s[2:]
	}
	if s == "" {
		return false
	}
	for _, c := range s {
		if !('0' <= c && c <= '9' || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F') {
			return false
		}
	}
	return true
}

// CallSelection matches a Call by name ("*" for any).
type CallSelection struct {
	Name string
	Data fields.CallDataSelection
}

// Match reports whether the selection's name predicate matches call.
func (s CallSelection) Match(call archive.Call) bool {
	return s.Name == Wildcard || s.Name == call.Name
}

// EventSelection matches an Event by name ("*" for any).
type EventSelection struct {
	Name string
	Data fields.EventDataSelection
}

// Match reports whether the selection's name predicate matches event.
func (s EventSelection) Match(event archive.Event) bool {
	return s.Name == Wildcard || s.Name == event.Name
}

// EvmLogSelection matches an EvmLog-shaped Event by contract address (from
// args.address) and an optional topic filter.
type EvmLogSelection struct {
	Contract string
	Filter   [][]string
	Data     fields.EvmLogDataSelection
}

// Match reports whether log's args.address matches the contract predicate
// and every non-empty topic-filter position matches.
func (s EvmLogSelection) Match(log archive.EvmLog) bool {
	address, ok := argString(log.Args, "address")
	if !ok {
		return false
	}
	if s.Contract != Wildcard && normalizeAddress(s.Contract) != normalizeAddress(address) {
		return false
	}
	return topicsMatch(s.Filter, log.Args)
}

func topicsMatch(filter [][]string, args json.RawMessage) bool {
	for index, topics := range filter {
		if len(topics) == 0 {
			continue
		}
		topic, ok := argTopic(args, index)
		if !ok {
			return false
		}
		found := false
		for _, want := range topics {
			if normalizeHash(want) == normalizeHash(topic) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func argTopic(args json.RawMessage, index int) (string, bool) {
	var decoded struct {
		Topics []string `json:"topics"`
	}
	if err := json.Unmarshal(args, &decoded); err != nil {
		return "", false
	}
	if index < 0 || index >= len(decoded.Topics) {
		return "", false
	}
	return decoded.Topics[index], true
}

func argString(args json.RawMessage, key string) (string, bool) {
	if len(args) == 0 {
		return "", false
	}
	var decoded map[string]json.RawMessage
	if err := json.Unmarshal(args, &decoded); err != nil {
		return "", false
	}
	raw, ok := decoded[key]
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

// EthTransactSelection matches a Call whose args describe an Ethereum
// transaction ("Ethereum.transact") targeting the given contract, and
// optionally a given function selector (sighash).
type EthTransactSelection struct {
	Contract string
	Sighash  *string
	Data     fields.CallDataSelection
}

// Match reports whether call's args.transaction.action.value (or the
// equivalent nested-value variant) equals the contract predicate.
func (s EthTransactSelection) Match(call archive.Call) bool {
	action, ok := ethAction(call.Args)
	if !ok {
		return false
	}
	return s.Contract == Wildcard || normalizeAddress(action) == normalizeAddress(s.Contract)
}

func ethAction(args json.RawMessage) (string, bool) {
	var decoded struct {
		Transaction struct {
			Action json.RawMessage `json:"action"`
			Value  struct {
				Action json.RawMessage `json:"action"`
			} `json:"value"`
		} `json:"transaction"`
	}
	if err := json.Unmarshal(args, &decoded); err != nil {
		return "", false
	}
	action := decoded.Transaction.Action
	if len(action) == 0 {
		action = decoded.Transaction.Value.Action
	}
	if len(action) == 0 {
		return "", false
	}
	var withValue struct {
		Value string `json:"value"`
	}
	if err := json.Unmarshal(action, &withValue); err == nil && withValue.Value != "" {
		return withValue.Value, true
	}
	return "", false
}

// ContractsEventSelection matches an Event emitted by the pallet-contracts
// ContractEmitted extrinsic for the given contract (args.contract).
type ContractsEventSelection struct {
	Contract string
	Data     fields.EventDataSelection
}

// Match reports whether event.args.contract equals the contract predicate.
func (s ContractsEventSelection) Match(event archive.Event) bool {
	contract, ok := argString(event.Args, "contract")
	return ok && normalizeAddress(contract) == normalizeAddress(s.Contract)
}

// GearMessageEnqueuedSelection matches a Gear MessageEnqueued event whose
// args.destination equals the given program id.
type GearMessageEnqueuedSelection struct {
	Program string
	Data    fields.EventDataSelection
}

// Match reports whether event.args.destination equals the program
// predicate.
func (s GearMessageEnqueuedSelection) Match(event archive.Event) bool {
	destination, ok := argString(event.Args, "destination")
	return ok && destination == s.Program
}

// GearUserMessageSentSelection matches a Gear UserMessageSent event whose
// args.message.source equals the given program id.
type GearUserMessageSentSelection struct {
	Program string
	Data    fields.EventDataSelection
}

// Match reports whether event.args.message.source equals the program
// predicate.
func (s GearUserMessageSentSelection) Match(event archive.Event) bool {
	var decoded struct {
		Message struct {
			Source string `json:"source"`
		} `json:"message"`
	}
	if err := json.Unmarshal(event.Args, &decoded); err != nil {
		return false
	}
	return decoded.Message.Source == s.Program
}

// AcalaEvmLog is one log-filter entry of an AcalaEvmEventSelection: an
// optional contract and a topic filter, both applied to one entry of the
// event's args.logs array.
type AcalaEvmLog struct {
	Contract *string
	Filter   [][]string
}

// AcalaEvmEventSelection matches an acala-evm-executed(-failed) event whose
// args.logs array contains an entry matching the contract and, when Logs is
// non-empty, at least one of the per-log filters.
type AcalaEvmEventSelection struct {
	Contract string
	Logs     []AcalaEvmLog
	Data     fields.EventDataSelection
}

// LogsEmpty reports whether every log-filter entry is a no-op (no contract,
// no non-empty topic position) — the scan strategy switches on this.
func (s AcalaEvmEventSelection) LogsEmpty() bool {
	for _, log := range s.Logs {
		if log.Contract != nil {
			return false
		}
		for _, topics := range log.Filter {
			if len(topics) > 0 {
				return false
			}
		}
	}
	return true
}

// Match reports whether event's args.logs array contains an entry whose
// address matches the contract predicate and whose topics satisfy any one
// of the per-log filters (or the bare contract match, if Logs is empty).
func (s AcalaEvmEventSelection) Match(event archive.Event) bool {
	var decoded struct {
		Logs []json.RawMessage `json:"logs"`
	}
	if err := json.Unmarshal(event.Args, &decoded); err != nil {
		return false
	}
	for _, log := range decoded.Logs {
		address, ok := argString(log, "address")
		if !ok || (s.Contract != Wildcard && normalizeAddress(address) != normalizeAddress(s.Contract)) {
			continue
		}
		if len(s.Logs) == 0 {
			return true
		}
		for _, filter := range s.Logs {
			if filter.Contract != nil && normalizeAddress(*filter.Contract) != normalizeAddress(address) {
				continue
			}
			if topicsMatch(filter.Filter, log) {
				return true
			}
		}
	}
	return false
}

// EthExecutedSelection matches an Ethereum.Executed event for the given
// contract.
type EthExecutedSelection struct {
	Contract string
	Data     fields.EventDataSelection
}

// Match reports whether event.args.contract (or .to, depending on chain
// encoding) equals the contract predicate.
func (s EthExecutedSelection) Match(event archive.Event) bool {
	if contract, ok := argString(event.Args, "contract"); ok {
		return normalizeAddress(contract) == normalizeAddress(s.Contract)
	}
	contract, ok := argString(event.Args, "to")
	return ok && normalizeAddress(contract) == normalizeAddress(s.Contract)
}

// Selections aggregates every per-kind selector list carried by one batch
// request.
type Selections struct {
	Calls                  []CallSelection
	Events                 []EventSelection
	EvmLogs                []EvmLogSelection
	EthTransacts           []EthTransactSelection
	ContractsEvents        []ContractsEventSelection
	GearMessagesEnqueued   []GearMessageEnqueuedSelection
	GearUserMessagesSent   []GearUserMessageSentSelection
	AcalaEvmExecuted       []AcalaEvmEventSelection
	AcalaEvmExecutedFailed []AcalaEvmEventSelection
	EthExecuted            []EthExecutedSelection
}
