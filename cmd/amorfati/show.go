package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/juicer149/amorfati/pkg/event"
	"github.com/juicer149/amorfati/pkg/journal"
)

var (
	showDate        string
	showAttributive bool
	showJSON        bool
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Print one day's journal",
	RunE:  runShow,
}

func init() {
	showCmd.Flags().StringVar(&showDate, "date", "", "day to show, YYYY-MM-DD (default today)")
	showCmd.Flags().BoolVar(&showAttributive, "attributive", false, "read attributive lines")
	showCmd.Flags().BoolVar(&showJSON, "json", false, "print whole records as JSON lines")
	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	day, err := resolveDay(a, showDate)
	if err != nil {
		return err
	}

	records, err := loadDay(cmd.Context(), a, day, showAttributive)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if showJSON {
		for _, rec := range records {
			data, err := json.Marshal(rec)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, string(data))
		}
		return nil
	}
	renderDay(out, day, records, a.loc)
	return nil
}

func resolveDay(a *app, date string) (time.Time, error) {
	if date == "" {
		return a.clock(), nil
	}
	day, err := time.ParseInLocation("2006-01-02", date, a.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("date %q: want YYYY-MM-DD", date)
	}
	return day, nil
}

// loadDay reads one day's records from the configured sink. A day with
// no journal yields no records, not an error.
func loadDay(ctx context.Context, a *app, day time.Time, attributive bool) ([]*event.Enriched, error) {
	switch a.cfg.Sink {
	case "file":
		path := journal.DayFile(a.cfg.LogDir, day)
		var (
			records []*event.Enriched
			err     error
		)
		if attributive {
			records, err = journal.ReadAttributes(path)
		} else {
			records, err = journal.ReadRecords(path)
		}
		if err != nil {
			if os.IsNotExist(err) {
				return nil, nil
			}
			return nil, err
		}
		return records, nil
	case "sql":
		db, err := sql.Open(a.cfg.DBDriver, a.cfg.DBDSN)
		if err != nil {
			return nil, fmt.Errorf("open %s database: %w", a.cfg.DBDriver, err)
		}
		defer func() { _ = db.Close() }()

		layout := journal.LayoutRecord
		if attributive {
			layout = journal.LayoutAttributive
		}
		j, err := journal.NewSQLJournal(ctx, db, a.cfg.DBDriver, layout)
		if err != nil {
			return nil, err
		}
		from, to := dayBounds(day)
		if attributive {
			return j.ListFacts(ctx, from, to)
		}
		return j.List(ctx, from, to)
	default:
		return nil, fmt.Errorf("unknown journal sink %q", a.cfg.Sink)
	}
}

func renderDay(out io.Writer, day time.Time, records []*event.Enriched, loc *time.Location) {
	if len(records) == 0 {
		fmt.Fprintf(out, "no events on %s\n", day.Format("2006-01-02"))
		return
	}
	for _, rec := range records {
		t := event.TimeFromUnix(rec.UnixTime, loc)
		fmt.Fprintf(out, "%s  %s %s %s", t.Format("15:04"), rec.Name, formatNum(rec.Amount), rec.Unit)
		for _, p := range rec.Meta.Pairs() {
			fmt.Fprintf(out, "  %s=%s", p.Key, formatMetaValue(p.Value))
		}
		fmt.Fprintln(out)
	}
	fmt.Fprintf(out, "%d event(s) on %s\n", len(records), day.Format("2006-01-02"))
}

func formatNum(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatMetaValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return formatNum(x)
	default:
		return fmt.Sprint(x)
	}
}
