package loader

import "encoding/json"

// eventFieldOrder is the fixed field list unifyAndMerge uses to reassemble
// a deduplicated event: the set of keys an Event or EvmLog serialization
// can carry, in the order the merged object is built. "blockId" never
// actually appears in a serialized event or log (see pkg/serialize); a
// field absent from every duplicate is simply skipped.
var eventFieldOrder = []string{
	"id", "blockId", "indexInBlock", "phase", "evmTxHash", "extrinsicId", "callId", "name", "args", "pos",
}

// unifyAndMerge removes duplicate entries sharing an "id" field (an event
// merged with its sibling EVM-log projection), filling each output field
// from the first duplicate that carries it.
func unifyAndMerge(values []json.RawMessage, fieldOrder []string) []json.RawMessage {
	if len(values) == 0 {
		return nil
	}

	byID := make(map[string][]map[string]json.RawMessage)
	idOrder := make([]string, 0, len(values))
	for _, raw := range values {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(raw, &obj); err != nil {
			panic("loader: unify: decoding entity: " + err.Error())
		}
		var id string
		if err := json.Unmarshal(obj["id"], &id); err != nil {
			panic("loader: unify: entity missing id: " + err.Error())
		}
		if _, ok := byID[id]; !ok {
			idOrder = append(idOrder, id)
		}
		byID[id] = append(byID[id], obj)
	}

	out := make([]json.RawMessage, 0, len(idOrder))
	for _, id := range idOrder {
		duplicates := byID[id]
		data := []byte{'{'}
		for _, field := range fieldOrder {
			for _, instance := range duplicates {
				if v, ok := instance[field]; ok {
					if len(data) > 1 {
						data = append(data, ',')
					}
					key, _ := json.Marshal(field)
					data = append(append(append(data, key...), ':'), v...)
					break
				}
			}
		}
		out = append(out, append(data, '}'))
	}
	return out
}
