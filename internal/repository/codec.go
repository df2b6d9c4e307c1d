package repository

import "encoding/json"

// toMap round-trips v through JSON to produce the map[string]any shape the
// storage package persists. Entities carry json tags for exactly this.
func toMap(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// fromMap is the inverse of toMap, decoding a persisted line back into a
// typed entity.
func fromMap[T any](m map[string]any) (T, error) {
	var out T
	raw, err := json.Marshal(m)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, err
	}
	return out, nil
}
