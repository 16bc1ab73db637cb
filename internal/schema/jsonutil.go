package schema

import "github.com/go-json-experiment/json"

// marshalDeterministic encodes v with sorted object keys and no incidental
// whitespace, the canonical form §6.5's determinism contract requires.
func marshalDeterministic(v any) ([]byte, error) {
	return json.Marshal(v, json.Deterministic(true))
}
