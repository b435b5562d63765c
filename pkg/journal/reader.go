package journal

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/juicer149/amorfati/pkg/event"
)

// maxLine bounds a single journal line when scanning.
const maxLine = 1 << 20

// ReadRecords decodes a whole-record journal file. Blank lines are
// skipped; anything else that is not a record fails with ErrCorrupt and
// the offending line number.
func ReadRecords(path string) ([]*event.Enriched, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var records []*event.Enriched
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), maxLine)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		rec := new(event.Enriched)
		dec := json.NewDecoder(strings.NewReader(text))
		dec.DisallowUnknownFields()
		if err := dec.Decode(rec); err != nil {
			return nil, fmt.Errorf("%w: %s:%d: %v", ErrCorrupt, path, line, err)
		}
		if rec.Name == "" {
			return nil, fmt.Errorf("%w: %s:%d: record has no name", ErrCorrupt, path, line)
		}
		records = append(records, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// ReadAttributes reassembles records from an attributive journal file.
// A "name" attribute starts a record; the lines that follow must carry
// the same id until the next "name" or end of file. Attribute keys
// outside the five fixed ones become metadata in line order, which makes
// meta keys named like a fixed attribute ambiguous in this layout; the
// writer side never produces them.
func ReadAttributes(path string) ([]*event.Enriched, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var (
		records []*event.Enriched
		cur     *attrGroup
	)
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), maxLine)
	line := 0
	corrupt := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s:%d: %s", ErrCorrupt, path, line, fmt.Sprintf(format, args...))
	}

	flush := func() error {
		if cur == nil {
			return nil
		}
		rec, err := cur.finish()
		if err != nil {
			return corrupt("%v", err)
		}
		records = append(records, rec)
		cur = nil
		return nil
	}

	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		var a attrLine
		dec := json.NewDecoder(strings.NewReader(text))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&a); err != nil {
			return nil, corrupt("%v", err)
		}

		if a.Key == "name" {
			if err := flush(); err != nil {
				return nil, err
			}
			name, ok := a.Value.(string)
			if !ok || name == "" {
				return nil, corrupt("name must be a non-empty string, got %v", a.Value)
			}
			cur = &attrGroup{id: a.ID, name: name}
			continue
		}

		if cur == nil {
			return nil, corrupt("attribute %q before any record start", a.Key)
		}
		if a.ID != cur.id {
			return nil, corrupt("attribute id %v does not match record id %v", a.ID, cur.id)
		}
		if err := cur.take(a); err != nil {
			return nil, corrupt("%v", err)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return records, nil
}

// attrGroup accumulates the lines of one record during reassembly.
type attrGroup struct {
	id     float64
	name   string
	unit   *string
	amount *float64
	value  *float64
	calc   *string
	pairs  []event.Pair
}

func (g *attrGroup) take(a attrLine) error {
	switch a.Key {
	case "unit":
		return setString(&g.unit, a)
	case "amount":
		return setNumber(&g.amount, a)
	case "value":
		return setNumber(&g.value, a)
	case "calc":
		return setString(&g.calc, a)
	default:
		g.pairs = append(g.pairs, event.Pair{Key: a.Key, Value: a.Value})
		return nil
	}
}

func (g *attrGroup) finish() (*event.Enriched, error) {
	if g.unit == nil || g.amount == nil || g.value == nil || g.calc == nil {
		return nil, fmt.Errorf("record %q is missing fixed attributes", g.name)
	}
	meta, err := event.NewMeta(g.pairs...)
	if err != nil {
		return nil, err
	}
	return &event.Enriched{
		Name:     g.name,
		Unit:     *g.unit,
		Amount:   *g.amount,
		Value:    *g.value,
		Calc:     *g.calc,
		UnixTime: g.id,
		Meta:     meta,
	}, nil
}

func setString(dst **string, a attrLine) error {
	if *dst != nil {
		return fmt.Errorf("duplicate %q attribute", a.Key)
	}
	s, ok := a.Value.(string)
	if !ok {
		return fmt.Errorf("%q must be a string, got %T", a.Key, a.Value)
	}
	*dst = &s
	return nil
}

func setNumber(dst **float64, a attrLine) error {
	if *dst != nil {
		return fmt.Errorf("duplicate %q attribute", a.Key)
	}
	n, ok := a.Value.(float64)
	if !ok {
		return fmt.Errorf("%q must be a number, got %T", a.Key, a.Value)
	}
	*dst = &n
	return nil
}
