package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/juicer149/amorfati/pkg/canonical"
)

var (
	verifyDate        string
	verifyAttributive bool
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Digest a day's records for comparison",
	Long: `Print the RFC 8785 canonical digest of every record in a day, plus a
digest over the whole day. Two journals holding the same history print
the same digests, whichever layout or sink produced them.`,
	RunE: runVerify,
}

func init() {
	verifyCmd.Flags().StringVar(&verifyDate, "date", "", "day to digest, YYYY-MM-DD (default today)")
	verifyCmd.Flags().BoolVar(&verifyAttributive, "attributive", false, "read attributive lines")
	rootCmd.AddCommand(verifyCmd)
}

func runVerify(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	day, err := resolveDay(a, verifyDate)
	if err != nil {
		return err
	}

	records, err := loadDay(cmd.Context(), a, day, verifyAttributive)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(records) == 0 {
		fmt.Fprintf(out, "no events on %s\n", day.Format("2006-01-02"))
		return nil
	}

	digests := make([]string, 0, len(records))
	for _, rec := range records {
		d, err := canonical.Digest(rec)
		if err != nil {
			return err
		}
		digests = append(digests, d)
		fmt.Fprintf(out, "%s  %s @ %s\n", d, rec.Name, formatNum(rec.UnixTime))
	}
	fmt.Fprintf(out, "day %s  %s\n", day.Format("2006-01-02"),
		canonical.DigestBytes([]byte(strings.Join(digests, "\n"))))
	return nil
}
