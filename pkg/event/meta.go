package event

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMetaValue is returned when a metadata value is not a scalar.
var ErrMetaValue = errors.New("event: meta value must be a scalar")

// Pair is one resolved metadata entry on an enriched record.
type Pair struct {
	Key   string
	Value any
}

// Meta is an ordered set of resolved metadata pairs. Order follows the
// type definition's declaration order and is preserved through JSON, so
// serialized records are byte-stable for the same input.
type Meta struct {
	pairs []Pair
}

// NewMeta builds a Meta from pairs, normalizing each value. Later pairs
// replace earlier ones with the same key, in place.
func NewMeta(pairs ...Pair) (Meta, error) {
	var m Meta
	for _, p := range pairs {
		v, err := NormalizeValue(p.Value)
		if err != nil {
			return Meta{}, fmt.Errorf("%q: %w", p.Key, err)
		}
		m = m.set(p.Key, v)
	}
	return m, nil
}

// set returns a copy with key set to value: replaced in place when the
// key exists, appended otherwise. The receiver is never mutated.
func (m Meta) set(key string, value any) Meta {
	pairs := make([]Pair, len(m.pairs), len(m.pairs)+1)
	copy(pairs, m.pairs)
	for i, p := range pairs {
		if p.Key == key {
			pairs[i].Value = value
			return Meta{pairs: pairs}
		}
	}
	return Meta{pairs: append(pairs, Pair{Key: key, Value: value})}
}

// Len returns the number of pairs.
func (m Meta) Len() int { return len(m.pairs) }

// Keys returns the keys in order.
func (m Meta) Keys() []string {
	keys := make([]string, len(m.pairs))
	for i, p := range m.pairs {
		keys[i] = p.Key
	}
	return keys
}

// Get returns the value for key.
func (m Meta) Get(key string) (any, bool) {
	for _, p := range m.pairs {
		if p.Key == key {
			return p.Value, true
		}
	}
	return nil, false
}

// Pairs returns a copy of the pairs in order.
func (m Meta) Pairs() []Pair {
	pairs := make([]Pair, len(m.pairs))
	copy(pairs, m.pairs)
	return pairs
}

// MarshalJSON renders the pairs as a JSON object in order. encoding/json
// alone cannot do this; Go maps would sort or scramble the keys.
func (m Meta) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, p := range m.pairs {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(p.Key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(p.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object preserving key order.
func (m *Meta) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok != json.Delim('{') {
		return fmt.Errorf("meta: expected object, got %v", tok)
	}
	var pairs []Pair
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := keyTok.(string)
		var value any
		if err := dec.Decode(&value); err != nil {
			return err
		}
		value, err = NormalizeValue(value)
		if err != nil {
			return fmt.Errorf("%q: %w", key, err)
		}
		pairs = append(pairs, Pair{Key: key, Value: value})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	m.pairs = pairs
	return nil
}

// NormalizeValue coerces a metadata value to one of the four scalar
// shapes records carry: nil, bool, string or float64. Integer inputs
// become float64 so that a record read back compares equal to the one
// written. Anything structured is rejected.
func NormalizeValue(v any) (any, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case bool, string, float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int:
		return float64(x), nil
	case int8:
		return float64(x), nil
	case int16:
		return float64(x), nil
	case int32:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case uint:
		return float64(x), nil
	case uint8:
		return float64(x), nil
	case uint16:
		return float64(x), nil
	case uint32:
		return float64(x), nil
	case uint64:
		return float64(x), nil
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrMetaValue, x.String())
		}
		return f, nil
	default:
		return nil, fmt.Errorf("%w: got %T", ErrMetaValue, v)
	}
}
