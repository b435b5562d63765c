package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/juicer149/amorfati/pkg/applog"
	"github.com/juicer149/amorfati/pkg/config"
	"github.com/juicer149/amorfati/pkg/journal"
)

var rootCmd = &cobra.Command{
	Use:   "amorfati",
	Short: "Record life events as append-only JSON Lines",
	Long: `amorfati records what happened, how much, and when. Event types are
declared once as YAML files; every logged occurrence is enriched with
that declared context and appended to a journal. Nothing here scores,
judges, or averages: the journal is the record, interpretation comes
later, somewhere else.

  log     Record one occurrence of an event type
  show    Print one day's journal
  types   List the declared event types
  verify  Digest a day's records for comparison
  init    Scaffold the config and journal directories`,
}

// app bundles what every command needs: settings, logger, catalog and
// the clock in the configured timezone. Built fresh per invocation.
type app struct {
	cfg     *config.Config
	log     *slog.Logger
	catalog *config.Catalog
	loc     *time.Location
}

func newApp() (*app, error) {
	cfg := config.FromEnv()
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	return &app{
		cfg:     cfg,
		log:     applog.New(cfg.AppLogPath),
		catalog: config.NewCatalog(cfg.ConfigDir),
		loc:     loc,
	}, nil
}

// clock returns now in the configured timezone. Wall-clock parsing and
// day-file naming both follow it.
func (a *app) clock() time.Time {
	return time.Now().In(a.loc)
}

// openJournal builds the configured sink. attributive forces that layout
// for this invocation regardless of configuration. The returned closer
// releases the sink's resources.
func (a *app) openJournal(ctx context.Context, attributive bool) (journal.Appender, func() error, error) {
	name := a.cfg.Layout
	if attributive {
		name = string(journal.LayoutAttributive)
	}
	layout, err := journal.ParseLayout(name)
	if err != nil {
		return nil, nil, err
	}

	switch a.cfg.Sink {
	case "file":
		j, err := journal.NewFileJournal(a.cfg.LogDir, layout, journal.WithClock(a.clock))
		if err != nil {
			return nil, nil, err
		}
		return j, func() error { return nil }, nil
	case "sql":
		db, err := sql.Open(a.cfg.DBDriver, a.cfg.DBDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("open %s database: %w", a.cfg.DBDriver, err)
		}
		j, err := journal.NewSQLJournal(ctx, db, a.cfg.DBDriver, layout)
		if err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return j, db.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown journal sink %q", a.cfg.Sink)
	}
}

// dayBounds returns the [from, to) unix-seconds window of day in loc.
func dayBounds(day time.Time) (float64, float64) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	return float64(start.Unix()), float64(start.AddDate(0, 0, 1).Unix())
}
