// Package event defines the records at the heart of amorfati: the minimal
// Event (what happened, how much, when) and the Enriched record that carries
// the context a type definition adds to it. Both are immutable once built.
// Nothing here computes scores or aggregates; records only capture.
package event

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrEmptyName is returned when an event is built without a type name.
var ErrEmptyName = errors.New("event: empty event name")

// Event is the minimal occurrence record. Amount is deliberately
// unconstrained: zero and negative amounts are ordinary data (a fast, a
// skipped session) and are judged downstream, if ever.
type Event struct {
	// Name is the event type, matching a catalog definition.
	Name string `json:"name"`

	// Amount is the measured magnitude, in the type's unit.
	Amount float64 `json:"amount"`

	// UnixTime is when the event occurred, as seconds since the epoch.
	// Fractional seconds are preserved.
	UnixTime float64 `json:"unix_time"`
}

// New builds an Event. The name must be non-blank; everything else is
// accepted as given.
func New(name string, amount, unixTime float64) (Event, error) {
	if strings.TrimSpace(name) == "" {
		return Event{}, ErrEmptyName
	}
	return Event{Name: name, Amount: amount, UnixTime: unixTime}, nil
}

func (e Event) String() string {
	return fmt.Sprintf("%s %s @ %s", e.Name, num(e.Amount), num(e.UnixTime))
}

// num renders a float without a forced decimal point, so whole seconds
// and whole amounts read naturally.
func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
