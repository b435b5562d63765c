// Package config holds the two declarative surfaces of amorfati: the
// process configuration read from the environment, and the catalog of
// event-type definitions read from a directory of YAML files. Definitions
// describe how an occurrence is contextualized (unit, base value, calc tag,
// optional metadata fields); they never describe what it means — that is a
// downstream concern by design.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

var (
	// ErrNotFound is returned when no definition exists for an event type.
	ErrNotFound = errors.New("config: event type not found")

	// ErrMalformed is returned when a definition exists but fails the
	// schema or type checks. No partial definition is ever used.
	ErrMalformed = errors.New("config: malformed event type definition")
)

// Catalog maps event-type names to their definitions. Definitions are
// loaded from <dir>/<name>.yaml on first use and cached for the process
// lifetime; files are treated as static during a run.
type Catalog struct {
	dir string

	mu    sync.RWMutex
	cache map[string]*TypeConfig
}

// NewCatalog creates a catalog backed by dir.
func NewCatalog(dir string) *Catalog {
	return &Catalog{
		dir:   dir,
		cache: make(map[string]*TypeConfig),
	}
}

// Dir returns the backing directory.
func (c *Catalog) Dir() string { return c.dir }

// Load returns the definition for the named event type.
// It fails with ErrNotFound when no definition file exists and with
// ErrMalformed when the file cannot be parsed or violates the schema.
func (c *Catalog) Load(name string) (*TypeConfig, error) {
	if !validTypeName(name) {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}

	c.mu.RLock()
	cfg, ok := c.cache[name]
	c.mu.RUnlock()
	if ok {
		return cfg, nil
	}

	data, err := os.ReadFile(filepath.Join(c.dir, name+".yaml"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
		}
		return nil, fmt.Errorf("read definition %q: %w", name, err)
	}

	cfg, err = parseDefinition(name, data)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.cache[name] = cfg
	c.mu.Unlock()
	return cfg, nil
}

// Names lists the event types that have a definition file, sorted.
func (c *Catalog) Names() ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(c.dir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(matches))
	for _, path := range matches {
		names = append(names, strings.TrimSuffix(filepath.Base(path), ".yaml"))
	}
	sort.Strings(names)
	return names, nil
}

// parseDefinition validates raw bytes against the event-type schema and
// decodes them. Defaults (value 1, calc "linear") are pre-set so that a
// definition only overrides what it declares.
func parseDefinition(name string, data []byte) (*TypeConfig, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrMalformed, name, err)
	}
	if err := validateDefinition(doc); err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrMalformed, name, err)
	}

	cfg := &TypeConfig{
		Name:  name,
		Value: 1,
		Calc:  "linear",
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrMalformed, name, err)
	}
	return cfg, nil
}

// validTypeName rejects names that are empty or would escape the catalog
// directory when joined into a path.
func validTypeName(name string) bool {
	if name == "" {
		return false
	}
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return false
	}
	return true
}
