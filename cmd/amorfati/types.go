package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var typesJSON bool

var typesCmd = &cobra.Command{
	Use:   "types",
	Short: "List the declared event types",
	RunE:  runTypes,
}

func init() {
	typesCmd.Flags().BoolVar(&typesJSON, "json", false, "print definitions as JSON lines")
	rootCmd.AddCommand(typesCmd)
}

func runTypes(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	names, err := a.catalog.Names()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(names) == 0 {
		fmt.Fprintf(out, "no event types in %s\n", a.catalog.Dir())
		return nil
	}

	for _, name := range names {
		cfg, err := a.catalog.Load(name)
		if err != nil {
			return err
		}
		if typesJSON {
			data, err := json.Marshal(cfg)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, string(data))
			continue
		}
		fmt.Fprintf(out, "%s: unit=%s value=%s calc=%s", cfg.Name, cfg.Unit, formatNum(cfg.Value), cfg.Calc)
		if len(cfg.Meta) > 0 {
			fmt.Fprintf(out, " meta=[%s]", strings.Join(cfg.Meta.Keys(), " "))
		}
		fmt.Fprintln(out)
	}
	return nil
}
