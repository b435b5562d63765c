package journal

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/juicer149/amorfati/pkg/event"
)

// dayFormat names one journal file per calendar day.
const dayFormat = "2006-01-02"

// DayFile returns the journal file for the calendar day of t under dir.
func DayFile(dir string, t time.Time) string {
	return filepath.Join(dir, t.Format(dayFormat)+".jsonl")
}

// FileJournal appends records to a directory of daily JSON Lines files,
// one file per calendar day in the clock's location. The mutex serializes
// appends within this process; the files themselves are plain text and
// safe to read while being appended to.
type FileJournal struct {
	dir    string
	layout Layout
	clock  func() time.Time

	mu sync.Mutex
}

// FileOption configures a FileJournal.
type FileOption func(*FileJournal)

// WithClock substitutes the time source used to pick the day file.
func WithClock(clock func() time.Time) FileOption {
	return func(j *FileJournal) { j.clock = clock }
}

// NewFileJournal creates the journal directory if needed and returns a
// sink writing the given layout into it.
func NewFileJournal(dir string, layout Layout, opts ...FileOption) (*FileJournal, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("journal dir %s: %w", dir, err)
	}
	j := &FileJournal{dir: dir, layout: layout, clock: time.Now}
	for _, opt := range opts {
		opt(j)
	}
	return j, nil
}

// Dir returns the journal directory.
func (j *FileJournal) Dir() string { return j.dir }

// Layout returns the line shape this journal writes.
func (j *FileJournal) Layout() Layout { return j.layout }

// PathFor returns the day file a record logged at t lands in.
func (j *FileJournal) PathFor(t time.Time) string {
	return DayFile(j.dir, t)
}

// Append writes one record to today's file in the journal's layout.
func (j *FileJournal) Append(ctx context.Context, rec *event.Enriched) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	path := j.PathFor(j.clock())
	if j.layout == LayoutAttributive {
		return AppendAttributes(path, rec)
	}
	return AppendRecord(path, rec)
}
