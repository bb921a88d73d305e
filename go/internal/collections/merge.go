package collections

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ApplyUpdates upserts updates into collection. An element whose key matches an
// update is replaced by that update wholesale; an update with a new key is
// appended. A key repeated within updates resolves to the last occurrence.
//
// The collection is modified in place and the possibly regrown slice returned.
// No element is written when any update has an empty key.
func ApplyUpdates[T any](collection []T, updates []T, key func(T) string) ([]T, error) {
	for i, u := range updates {
		if key(u) == "" {
			return collection, fmt.Errorf("update %d: %w", i, ErrMissingKey)
		}
	}

	index := make(map[string]int, len(collection)+len(updates))
	for i, item := range collection {
		index[key(item)] = i
	}

	for _, u := range updates {
		k := key(u)
		if i, ok := index[k]; ok {
			collection[i] = u
			continue
		}
		index[k] = len(collection)
		collection = append(collection, u)
	}
	return collection, nil
}

// DecodeOneOrMany decodes a payload that is either a single record or an array
// of records.
func DecodeOneOrMany[T any](raw json.RawMessage) ([]T, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, fmt.Errorf("empty payload")
	}

	if trimmed[0] == '[' {
		var many []T
		if err := json.Unmarshal(trimmed, &many); err != nil {
			return nil, fmt.Errorf("decode records: %w", err)
		}
		return many, nil
	}

	var one T
	if err := json.Unmarshal(trimmed, &one); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	return []T{one}, nil
}
