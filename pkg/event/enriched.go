package event

import "fmt"

// Enriched is an Event joined with the context its type definition
// declares. Field order here is the wire order of the whole-record
// journal layout; keep them aligned.
type Enriched struct {
	Name     string  `json:"name"`
	Unit     string  `json:"unit"`
	Amount   float64 `json:"amount"`
	Value    float64 `json:"value"`
	Calc     string  `json:"calc"`
	UnixTime float64 `json:"unix_time"`
	Meta     Meta    `json:"meta"`
}

// Event returns the minimal record the enrichment was built from.
func (e *Enriched) Event() Event {
	return Event{Name: e.Name, Amount: e.Amount, UnixTime: e.UnixTime}
}

// With returns a copy carrying one additional metadata pair. An existing
// key is replaced in place; a new key is appended after the declared
// fields. The receiver is unchanged.
func (e *Enriched) With(key string, value any) (*Enriched, error) {
	v, err := NormalizeValue(value)
	if err != nil {
		return nil, fmt.Errorf("%q: %w", key, err)
	}
	out := *e
	out.Meta = e.Meta.set(key, v)
	return &out, nil
}

func (e *Enriched) String() string {
	s := fmt.Sprintf("%s %s %s @ %s", e.Name, num(e.Amount), e.Unit, num(e.UnixTime))
	if e.Meta.Len() > 0 {
		s += " +meta"
	}
	return s
}
