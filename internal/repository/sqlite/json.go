package sqlite

import (
	"encoding/json"
	"fmt"
)

// encodeJSON turns an array field into its TEXT column value. A nil slice
// is stored as "[]" so reads never have to special-case NULL.
func encodeJSON[T any](v []T) (string, error) {
	if v == nil {
		v = []T{}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encoding %T: %w", v, err)
	}
	return string(b), nil
}

func decodeJSON[T any](s string) ([]T, error) {
	out := []T{}
	if s == "" {
		return out, nil
	}
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil, fmt.Errorf("decoding %q: %w", s, err)
	}
	return out, nil
}
