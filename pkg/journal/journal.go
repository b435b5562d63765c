// Package journal persists enriched event records as JSON Lines, append
// only. Two layouts exist: "record" writes one self-contained object per
// event, "attributive" explodes each event into id/key/value lines so a
// record can be reassembled attribute by attribute. Sinks never update or
// delete; history only grows.
package journal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/juicer149/amorfati/pkg/event"
)

var (
	// ErrAppend is returned when a record could not be persisted. The
	// underlying cause is wrapped.
	ErrAppend = errors.New("journal: append failed")

	// ErrCorrupt is returned when a journal line cannot be decoded or a
	// group of attributive lines does not reassemble into a record.
	ErrCorrupt = errors.New("journal: corrupt journal")
)

// Appender is the write half of a journal sink. FileJournal and
// SQLJournal both satisfy it.
type Appender interface {
	Append(ctx context.Context, rec *event.Enriched) error
}

// Layout selects the line shape a sink writes.
type Layout string

const (
	// LayoutRecord writes one whole-record object per line.
	LayoutRecord Layout = "record"
	// LayoutAttributive writes one id/key/value object per attribute.
	LayoutAttributive Layout = "attributive"
)

// ParseLayout validates a layout name from configuration.
func ParseLayout(s string) (Layout, error) {
	switch Layout(s) {
	case LayoutRecord, LayoutAttributive:
		return Layout(s), nil
	default:
		return "", fmt.Errorf("unknown journal layout %q", s)
	}
}

// attrLine is the attributive wire shape. ID is the record's unix time;
// it ties the lines of one record together.
type attrLine struct {
	ID    float64 `json:"id"`
	Key   string  `json:"key"`
	Value any     `json:"value"`
}

// attributeLines explodes a record into its attributive lines: the five
// fixed attributes first, then the metadata pairs in record order.
func attributeLines(rec *event.Enriched) []attrLine {
	lines := []attrLine{
		{ID: rec.UnixTime, Key: "name", Value: rec.Name},
		{ID: rec.UnixTime, Key: "unit", Value: rec.Unit},
		{ID: rec.UnixTime, Key: "amount", Value: rec.Amount},
		{ID: rec.UnixTime, Key: "value", Value: rec.Value},
		{ID: rec.UnixTime, Key: "calc", Value: rec.Calc},
	}
	for _, p := range rec.Meta.Pairs() {
		lines = append(lines, attrLine{ID: rec.UnixTime, Key: p.Key, Value: p.Value})
	}
	return lines
}

// AppendRecord appends one whole-record line to the file at path,
// creating it if needed.
func AppendRecord(path string, rec *event.Enriched) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrAppend, path, err)
	}
	return appendLines(path, [][]byte{data})
}

// AppendAttributes appends one record as attributive lines to the file at
// path. All lines of a record are written in a single write so a reader
// never sees half a record from a completed append.
func AppendAttributes(path string, rec *event.Enriched) error {
	attrs := attributeLines(rec)
	lines := make([][]byte, 0, len(attrs))
	for _, a := range attrs {
		data, err := json.Marshal(a)
		if err != nil {
			return fmt.Errorf("%w: %s: %w", ErrAppend, path, err)
		}
		lines = append(lines, data)
	}
	return appendLines(path, lines)
}

func appendLines(path string, lines [][]byte) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrAppend, path, err)
	}

	var buf bytes.Buffer
	for _, line := range lines {
		buf.Write(line)
		buf.WriteByte('\n')
	}
	if _, err := f.Write(buf.Bytes()); err != nil {
		f.Close()
		return fmt.Errorf("%w: %s: %w", ErrAppend, path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrAppend, path, err)
	}
	return nil
}
