package journal

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/juicer149/amorfati/pkg/event"
)

func newMockJournal(t *testing.T, layout Layout) (*SQLJournal, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS occurrences").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE INDEX IF NOT EXISTS occurrences_unix_time").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS facts").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE INDEX IF NOT EXISTS facts_id").WillReturnResult(sqlmock.NewResult(0, 0))

	j, err := NewSQLJournal(context.Background(), db, "sqlite", layout)
	if err != nil {
		t.Fatalf("unexpected migrate error: %s", err)
	}
	return j, mock
}

func sqlTestRecord(t *testing.T) *event.Enriched {
	t.Helper()
	meta, err := event.NewMeta(event.Pair{Key: "intensity", Value: 7})
	if err != nil {
		t.Fatalf("unexpected meta error: %s", err)
	}
	return &event.Enriched{
		Name:     "run",
		Unit:     "time",
		Amount:   30,
		Value:    1,
		Calc:     "linear",
		UnixTime: 1754229600,
		Meta:     meta,
	}
}

func TestSQLJournalAppendOccurrence(t *testing.T) {
	j, mock := newMockJournal(t, LayoutRecord)

	mock.ExpectExec("INSERT INTO occurrences").
		WithArgs(sqlmock.AnyArg(), "run", "time", 30.0, 1.0, "linear", 1754229600.0, `{"intensity":7}`).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := j.Append(context.Background(), sqlTestRecord(t)); err != nil {
		t.Errorf("error was not expected while appending: %s", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %s", err)
	}
}

func TestSQLJournalAppendFacts(t *testing.T) {
	j, mock := newMockJournal(t, LayoutAttributive)

	mock.ExpectBegin()
	wantArgs := [][]any{
		{sqlmock.AnyArg(), 0, 1754229600.0, "name", `"run"`},
		{sqlmock.AnyArg(), 1, 1754229600.0, "unit", `"time"`},
		{sqlmock.AnyArg(), 2, 1754229600.0, "amount", `30`},
		{sqlmock.AnyArg(), 3, 1754229600.0, "value", `1`},
		{sqlmock.AnyArg(), 4, 1754229600.0, "calc", `"linear"`},
		{sqlmock.AnyArg(), 5, 1754229600.0, "intensity", `7`},
	}
	for _, args := range wantArgs {
		mock.ExpectExec("INSERT INTO facts").
			WithArgs(args[0], args[1], args[2], args[3], args[4]).
			WillReturnResult(sqlmock.NewResult(1, 1))
	}
	mock.ExpectCommit()

	if err := j.Append(context.Background(), sqlTestRecord(t)); err != nil {
		t.Errorf("error was not expected while appending facts: %s", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %s", err)
	}
}

func TestSQLJournalAppendWrapsErrAppend(t *testing.T) {
	j, mock := newMockJournal(t, LayoutRecord)

	mock.ExpectExec("INSERT INTO occurrences").WillReturnError(errors.New("disk full"))

	err := j.Append(context.Background(), sqlTestRecord(t))
	if !errors.Is(err, ErrAppend) {
		t.Errorf("expected ErrAppend, got %v", err)
	}
}

func TestSQLJournalList(t *testing.T) {
	j, mock := newMockJournal(t, LayoutRecord)

	rows := sqlmock.NewRows([]string{"name", "unit", "amount", "value", "calc", "unix_time", "meta"}).
		AddRow("run", "time", 30.0, 1.0, "linear", 1754229600.0, `{"intensity":7}`).
		AddRow("read", "pages", 12.0, 1.0, "linear", 1754240000.0, `{}`)
	mock.ExpectQuery("SELECT name, unit, amount, value, calc, unix_time, meta").
		WithArgs(0.0, 2000000000.0).
		WillReturnRows(rows)

	got, err := j.List(context.Background(), 0, 2e9)
	if err != nil {
		t.Fatalf("error was not expected while listing: %s", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d", len(got))
	}
	if got[0].Name != "run" || got[1].Name != "read" {
		t.Errorf("unexpected record order: %s, %s", got[0].Name, got[1].Name)
	}
	if v, ok := got[0].Meta.Get("intensity"); !ok || v != 7.0 {
		t.Errorf("expected intensity 7, got %v (ok=%v)", v, ok)
	}
	if got[1].Meta.Len() != 0 {
		t.Errorf("expected empty meta, got %d pairs", got[1].Meta.Len())
	}
}

func TestSQLJournalListFacts(t *testing.T) {
	j, mock := newMockJournal(t, LayoutAttributive)

	rows := sqlmock.NewRows([]string{"record_id", "id", "key", "value"}).
		AddRow("r1", 1754229600.0, "name", `"run"`).
		AddRow("r1", 1754229600.0, "unit", `"time"`).
		AddRow("r1", 1754229600.0, "amount", `30`).
		AddRow("r1", 1754229600.0, "value", `1`).
		AddRow("r1", 1754229600.0, "calc", `"linear"`).
		AddRow("r1", 1754229600.0, "intensity", `7`).
		AddRow("r2", 1754240000.0, "name", `"read"`).
		AddRow("r2", 1754240000.0, "unit", `"pages"`).
		AddRow("r2", 1754240000.0, "amount", `12`).
		AddRow("r2", 1754240000.0, "value", `1`).
		AddRow("r2", 1754240000.0, "calc", `"linear"`)
	mock.ExpectQuery("SELECT record_id, id, key, value").
		WithArgs(0.0, 2000000000.0).
		WillReturnRows(rows)

	got, err := j.ListFacts(context.Background(), 0, 2e9)
	if err != nil {
		t.Fatalf("error was not expected while listing facts: %s", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d", len(got))
	}
	if got[0].Name != "run" || got[0].UnixTime != 1754229600.0 {
		t.Errorf("unexpected first record: %+v", got[0])
	}
	if v, ok := got[0].Meta.Get("intensity"); !ok || v != 7.0 {
		t.Errorf("expected intensity 7, got %v (ok=%v)", v, ok)
	}
	if got[1].Name != "read" || got[1].Meta.Len() != 0 {
		t.Errorf("unexpected second record: %+v", got[1])
	}
}

func TestSQLJournalListFactsCorrupt(t *testing.T) {
	j, mock := newMockJournal(t, LayoutAttributive)

	rows := sqlmock.NewRows([]string{"record_id", "id", "key", "value"}).
		AddRow("r1", 1754229600.0, "unit", `"time"`)
	mock.ExpectQuery("SELECT record_id, id, key, value").
		WithArgs(0.0, 2000000000.0).
		WillReturnRows(rows)

	_, err := j.ListFacts(context.Background(), 0, 2e9)
	if !errors.Is(err, ErrCorrupt) {
		t.Errorf("expected ErrCorrupt, got %v", err)
	}
}

func TestRebind(t *testing.T) {
	pg := &SQLJournal{driver: "postgres"}
	got := pg.rebind("INSERT INTO t (a, b) VALUES (?, ?)")
	want := "INSERT INTO t (a, b) VALUES ($1, $2)"
	if got != want {
		t.Errorf("rebind: got %q, want %q", got, want)
	}

	lite := &SQLJournal{driver: "sqlite"}
	if got := lite.rebind("SELECT ?"); got != "SELECT ?" {
		t.Errorf("sqlite rebind should be a no-op, got %q", got)
	}
}
