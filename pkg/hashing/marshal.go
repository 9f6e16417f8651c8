package hashing

import "encoding/json"

// marshalJSON is the pre-marshal step ahead of canonical transformation: it
// lets Go struct tags, omitempty, and custom MarshalJSON methods run before
// jcs.Transform takes over key ordering and number formatting. Kept as its
// own function (rather than inlined) so callers needing the pre-canonical
// JSON form for debugging have a single place to hook into.
func marshalJSON(v any) ([]byte, error) {
	return json.Marshal(v)
}
