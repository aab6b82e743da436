package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"sort"
)

// CustomAttribute is one selected attribute: Key is the attribute mapping id,
// Value is the chosen attribute value id.
type CustomAttribute struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type CustomAttributes []CustomAttribute

// Equal reports whether both selections contain exactly the same key/value
// pairs, regardless of order.
func (a CustomAttributes) Equal(other CustomAttributes) bool {
	if len(a) != len(other) {
		return false
	}
	left, right := a.sorted(), other.sorted()
	for i := range left {
		if left[i] != right[i] {
			return false
		}
	}
	return true
}

func (a CustomAttributes) sorted() []CustomAttribute {
	out := make([]CustomAttribute, len(a))
	copy(out, a)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Key != out[j].Key {
			return out[i].Key < out[j].Key
		}
		return out[i].Value < out[j].Value
	})
	return out
}

// Value stores the selection as a JSON array.
func (a CustomAttributes) Value() (driver.Value, error) {
	if a == nil {
		return "[]", nil
	}
	b, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("marshaling attributes: %w", err)
	}
	return string(b), nil
}

func (a *CustomAttributes) Scan(src interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*a = nil
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("scanning attributes: unsupported type %T", src)
	}
	if len(raw) == 0 {
		*a = nil
		return nil
	}
	var out CustomAttributes
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("unmarshaling attributes: %w", err)
	}
	*a = out
	return nil
}
