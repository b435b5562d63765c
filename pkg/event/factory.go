package event

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/juicer149/amorfati/pkg/config"
)

// ErrUnknownMetaKey is returned when metadata is supplied under a key the
// event type does not declare.
var ErrUnknownMetaKey = errors.New("event: meta key not declared for event type")

// TypeSource resolves event-type names to definitions. *config.Catalog
// satisfies it; tests substitute fixtures.
type TypeSource interface {
	Load(name string) (*config.TypeConfig, error)
}

// Collector supplies values for declared metadata fields that were not
// passed explicitly. Returning ok=false skips the field; the CLI's
// interactive prompt is one implementation.
type Collector interface {
	Collect(field config.MetaField) (value any, ok bool, err error)
}

// Factory builds enriched records from minimal inputs plus the catalog's
// context. It holds no record state and is safe for concurrent use.
type Factory struct {
	types     TypeSource
	clock     func() time.Time
	collector Collector
}

// Option configures a Factory.
type Option func(*Factory)

// WithClock substitutes the time source. Tests pin it.
func WithClock(clock func() time.Time) Option {
	return func(f *Factory) { f.clock = clock }
}

// WithCollector sets the collector consulted for declared fields that
// were not supplied.
func WithCollector(c Collector) Option {
	return func(f *Factory) { f.collector = c }
}

// NewFactory builds a factory over the given type source.
func NewFactory(types TypeSource, opts ...Option) *Factory {
	f := &Factory{types: types, clock: time.Now}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// BuildOption adjusts a single Build call.
type BuildOption func(*buildSpec)

type buildSpec struct {
	at        *float64
	clockSpec string
	value     *float64
	meta      map[string]any
}

// At pins the event time to t.
func At(t time.Time) BuildOption {
	return func(b *buildSpec) {
		unix := UnixSeconds(t)
		b.at = &unix
	}
}

// AtUnix pins the event time to float seconds since the epoch.
func AtUnix(unix float64) BuildOption {
	return func(b *buildSpec) { b.at = &unix }
}

// AtClock pins the event time to an "HH:MM" spec on today's date, in the
// factory clock's location.
func AtClock(spec string) BuildOption {
	return func(b *buildSpec) { b.clockSpec = spec }
}

// WithValue overrides the definition's base value for this record only.
func WithValue(v float64) BuildOption {
	return func(b *buildSpec) { b.value = &v }
}

// WithMeta supplies metadata values by key. Every key must be declared by
// the event type; values are normalized to record scalars.
func WithMeta(meta map[string]any) BuildOption {
	return func(b *buildSpec) { b.meta = meta }
}

// Build assembles an enriched record for one occurrence of the named
// event type. The type definition supplies unit, base value, calc tag and
// the declared metadata fields; the caller supplies the amount, optionally
// a time and metadata values. Definition errors pass through unchanged so
// callers can match config.ErrNotFound and config.ErrMalformed.
func (f *Factory) Build(name string, amount float64, opts ...BuildOption) (*Enriched, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrEmptyName
	}

	cfg, err := f.types.Load(name)
	if err != nil {
		return nil, err
	}

	var spec buildSpec
	for _, opt := range opts {
		opt(&spec)
	}

	ts, err := spec.timestamp(f.clock)
	if err != nil {
		return nil, err
	}

	meta, err := f.resolveMeta(cfg, spec.meta)
	if err != nil {
		return nil, err
	}

	value := cfg.Value
	if spec.value != nil {
		value = *spec.value
	}

	return &Enriched{
		Name:     cfg.Name,
		Unit:     cfg.Unit,
		Amount:   amount,
		Value:    value,
		Calc:     cfg.Calc,
		UnixTime: ts,
		Meta:     meta,
	}, nil
}

func (b *buildSpec) timestamp(clock func() time.Time) (float64, error) {
	switch {
	case b.at != nil:
		return *b.at, nil
	case b.clockSpec != "":
		t, err := ParseClock(b.clockSpec, clock())
		if err != nil {
			return 0, err
		}
		return UnixSeconds(t), nil
	default:
		return UnixSeconds(clock()), nil
	}
}

// resolveMeta walks the declared fields in declaration order, taking the
// supplied value when present and otherwise asking the collector. Fields
// with no value from either source are omitted, not nulled.
func (f *Factory) resolveMeta(cfg *config.TypeConfig, supplied map[string]any) (Meta, error) {
	for _, key := range sortedKeys(supplied) {
		if !cfg.Meta.Has(key) {
			return Meta{}, fmt.Errorf("%w: %q (event type %q)", ErrUnknownMetaKey, key, cfg.Name)
		}
	}

	pairs := make([]Pair, 0, len(cfg.Meta))
	for _, field := range cfg.Meta {
		raw, ok := supplied[field.Key]
		if !ok {
			if f.collector == nil {
				continue
			}
			var err error
			raw, ok, err = f.collector.Collect(field)
			if err != nil {
				return Meta{}, fmt.Errorf("collect %q: %w", field.Key, err)
			}
			if !ok {
				continue
			}
		}
		value, err := NormalizeValue(raw)
		if err != nil {
			return Meta{}, fmt.Errorf("meta %q: %w", field.Key, err)
		}
		pairs = append(pairs, Pair{Key: field.Key, Value: value})
	}
	return Meta{pairs: pairs}, nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
