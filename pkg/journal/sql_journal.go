package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/juicer149/amorfati/pkg/event"
)

// SQLJournal appends records to a database instead of day files. The
// record layout lands in the occurrences table with metadata as ordered
// JSON text; the attributive layout lands in the facts table, one row per
// attribute. Rows are only ever inserted. The *sql.DB is caller-owned;
// pass the driver name so placeholders can be rewritten for Postgres.
type SQLJournal struct {
	db     *sql.DB
	driver string
	layout Layout
}

// NewSQLJournal creates the schema if needed and returns a sink writing
// the given layout.
func NewSQLJournal(ctx context.Context, db *sql.DB, driver string, layout Layout) (*SQLJournal, error) {
	j := &SQLJournal{db: db, driver: driver, layout: layout}
	if err := j.migrate(ctx); err != nil {
		return nil, fmt.Errorf("journal migrate: %w", err)
	}
	return j, nil
}

func (j *SQLJournal) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS occurrences (
			record_id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			unit TEXT NOT NULL,
			amount DOUBLE PRECISION NOT NULL,
			value DOUBLE PRECISION NOT NULL,
			calc TEXT NOT NULL,
			unix_time DOUBLE PRECISION NOT NULL,
			meta TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS occurrences_unix_time ON occurrences (unix_time)`,
		`CREATE TABLE IF NOT EXISTS facts (
			record_id TEXT NOT NULL,
			seq INTEGER NOT NULL,
			id DOUBLE PRECISION NOT NULL,
			key TEXT NOT NULL,
			value TEXT NOT NULL,
			PRIMARY KEY (record_id, seq)
		)`,
		`CREATE INDEX IF NOT EXISTS facts_id ON facts (id)`,
	}
	for _, q := range stmts {
		if _, err := j.db.ExecContext(ctx, q); err != nil {
			return err
		}
	}
	return nil
}

// Layout returns the line shape this journal writes.
func (j *SQLJournal) Layout() Layout { return j.layout }

// Append inserts one record in the journal's layout.
func (j *SQLJournal) Append(ctx context.Context, rec *event.Enriched) error {
	if j.layout == LayoutAttributive {
		return j.appendFacts(ctx, rec)
	}
	return j.appendOccurrence(ctx, rec)
}

func (j *SQLJournal) appendOccurrence(ctx context.Context, rec *event.Enriched) error {
	metaJSON, err := json.Marshal(rec.Meta)
	if err != nil {
		return fmt.Errorf("%w: encode meta: %w", ErrAppend, err)
	}
	query := j.rebind(`INSERT INTO occurrences (record_id, name, unit, amount, value, calc, unix_time, meta)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err = j.db.ExecContext(ctx, query,
		uuid.NewString(), rec.Name, rec.Unit, rec.Amount, rec.Value, rec.Calc, rec.UnixTime, string(metaJSON))
	if err != nil {
		return fmt.Errorf("%w: insert occurrence: %w", ErrAppend, err)
	}
	return nil
}

// appendFacts writes all attribute rows of one record in a transaction,
// so a record is either fully present or absent.
func (j *SQLJournal) appendFacts(ctx context.Context, rec *event.Enriched) error {
	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin: %w", ErrAppend, err)
	}
	query := j.rebind(`INSERT INTO facts (record_id, seq, id, key, value) VALUES (?, ?, ?, ?, ?)`)
	recordID := uuid.NewString()
	for seq, a := range attributeLines(rec) {
		valueJSON, err := json.Marshal(a.Value)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("%w: encode fact %q: %w", ErrAppend, a.Key, err)
		}
		if _, err := tx.ExecContext(ctx, query, recordID, seq, a.ID, a.Key, string(valueJSON)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("%w: insert fact %q: %w", ErrAppend, a.Key, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %w", ErrAppend, err)
	}
	return nil
}

// List returns whole records with unix_time in [from, to), oldest first.
func (j *SQLJournal) List(ctx context.Context, from, to float64) ([]*event.Enriched, error) {
	query := j.rebind(`SELECT name, unit, amount, value, calc, unix_time, meta
		FROM occurrences WHERE unix_time >= ? AND unix_time < ? ORDER BY unix_time`)
	rows, err := j.db.QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var records []*event.Enriched
	for rows.Next() {
		rec, err := scanOccurrence(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

func scanOccurrence(rows *sql.Rows) (*event.Enriched, error) {
	var (
		rec      event.Enriched
		metaJSON string
	)
	if err := rows.Scan(&rec.Name, &rec.Unit, &rec.Amount, &rec.Value, &rec.Calc, &rec.UnixTime, &metaJSON); err != nil {
		return nil, err
	}
	if metaJSON != "" {
		if err := json.Unmarshal([]byte(metaJSON), &rec.Meta); err != nil {
			return nil, fmt.Errorf("%w: occurrence meta: %v", ErrCorrupt, err)
		}
	}
	return &rec, nil
}

// ListFacts reassembles records from attribute rows with id in [from, to),
// oldest first. Rows of one record stay together through its record_id;
// the same reassembly rules as the file reader apply.
func (j *SQLJournal) ListFacts(ctx context.Context, from, to float64) ([]*event.Enriched, error) {
	query := j.rebind(`SELECT record_id, id, key, value
		FROM facts WHERE id >= ? AND id < ? ORDER BY id, record_id, seq`)
	rows, err := j.db.QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var (
		records []*event.Enriched
		cur     *attrGroup
		curID   string
	)
	flush := func() error {
		if cur == nil {
			return nil
		}
		rec, err := cur.finish()
		if err != nil {
			return fmt.Errorf("%w: record %s: %v", ErrCorrupt, curID, err)
		}
		records = append(records, rec)
		cur = nil
		return nil
	}

	for rows.Next() {
		var (
			recordID  string
			a         attrLine
			valueJSON string
		)
		if err := rows.Scan(&recordID, &a.ID, &a.Key, &valueJSON); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(valueJSON), &a.Value); err != nil {
			return nil, fmt.Errorf("%w: fact value in record %s: %v", ErrCorrupt, recordID, err)
		}

		if recordID != curID {
			if err := flush(); err != nil {
				return nil, err
			}
			name, ok := a.Value.(string)
			if a.Key != "name" || !ok || name == "" {
				return nil, fmt.Errorf("%w: record %s does not start with a name", ErrCorrupt, recordID)
			}
			cur = &attrGroup{id: a.ID, name: name}
			curID = recordID
			continue
		}

		if a.ID != cur.id {
			return nil, fmt.Errorf("%w: record %s: attribute id %v does not match %v", ErrCorrupt, recordID, a.ID, cur.id)
		}
		if err := cur.take(a); err != nil {
			return nil, fmt.Errorf("%w: record %s: %v", ErrCorrupt, recordID, err)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return records, nil
}

// rebind rewrites ? placeholders to $1..$n for Postgres. SQLite takes ?
// as written.
func (j *SQLJournal) rebind(query string) string {
	if j.driver != "postgres" {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
