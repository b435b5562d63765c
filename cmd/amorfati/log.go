package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/juicer149/amorfati/pkg/event"
)

var (
	logAt          string
	logAtUnix      float64
	logValue       float64
	logMeta        []string
	logAttributive bool
	logInteractive bool
)

var logCmd = &cobra.Command{
	Use:   "log <type> <amount>",
	Short: "Record one occurrence of an event type",
	Long: `Record one occurrence. The type must have a definition file in the
config directory; the definition supplies unit, base value, calc tag and
the metadata fields this type may carry.

  amorfati log run 30
  amorfati log run 30 --at 07:30 --meta intensity=7
  amorfati log read 12 --interactive`,
	Args: cobra.ExactArgs(2),
	RunE: runLog,
}

func init() {
	logCmd.Flags().StringVar(&logAt, "at", "", `wall-clock time of the event, "HH:MM" today`)
	logCmd.Flags().Float64Var(&logAtUnix, "at-unix", 0, "exact event time as unix seconds")
	logCmd.Flags().Float64Var(&logValue, "value", 0, "override the type's base value for this record")
	logCmd.Flags().StringArrayVar(&logMeta, "meta", nil, "metadata as key=value (repeatable)")
	logCmd.Flags().BoolVar(&logAttributive, "attributive", false, "write attributive lines instead of whole records")
	logCmd.Flags().BoolVarP(&logInteractive, "interactive", "i", false, "prompt for declared metadata fields not given with --meta")
	rootCmd.AddCommand(logCmd)
}

func runLog(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	amount, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return fmt.Errorf("amount %q is not a number", args[1])
	}

	meta, err := parseMetaFlags(logMeta)
	if err != nil {
		return err
	}

	factoryOpts := []event.Option{event.WithClock(a.clock)}
	if logInteractive {
		factoryOpts = append(factoryOpts,
			event.WithCollector(newPromptCollector(cmd.InOrStdin(), cmd.OutOrStdout())))
	}
	factory := event.NewFactory(a.catalog, factoryOpts...)

	var buildOpts []event.BuildOption
	switch {
	case cmd.Flags().Changed("at-unix"):
		buildOpts = append(buildOpts, event.AtUnix(logAtUnix))
	case logAt != "":
		buildOpts = append(buildOpts, event.AtClock(logAt))
	}
	if cmd.Flags().Changed("value") {
		buildOpts = append(buildOpts, event.WithValue(logValue))
	}
	if len(meta) > 0 {
		buildOpts = append(buildOpts, event.WithMeta(meta))
	}

	rec, err := factory.Build(args[0], amount, buildOpts...)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	sink, closeSink, err := a.openJournal(ctx, logAttributive)
	if err != nil {
		return err
	}
	defer func() { _ = closeSink() }()

	if err := sink.Append(ctx, rec); err != nil {
		a.log.Error("append failed", "type", rec.Name, "error", err)
		return err
	}
	a.log.Info("event logged", "type", rec.Name, "amount", rec.Amount, "unix_time", rec.UnixTime)

	fmt.Fprintf(cmd.OutOrStdout(), "Logged: %s\n", rec)
	return nil
}

// parseMetaFlags turns repeated key=value flags into metadata. Values are
// typed the way a journal line would type them.
func parseMetaFlags(flags []string) (map[string]any, error) {
	if len(flags) == 0 {
		return nil, nil
	}
	meta := make(map[string]any, len(flags))
	for _, f := range flags {
		key, raw, found := strings.Cut(f, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("meta flag %q: want key=value", f)
		}
		meta[key] = parseScalar(raw)
	}
	return meta, nil
}

// parseScalar types terminal input like JSON would: booleans and numbers
// stay typed, "null" becomes nil, everything else is a string.
func parseScalar(raw string) any {
	switch strings.ToLower(raw) {
	case "null", "none":
		return nil
	case "true":
		return true
	case "false":
		return false
	}
	if n, err := strconv.ParseFloat(raw, 64); err == nil {
		return n
	}
	return raw
}
