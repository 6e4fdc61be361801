package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"rfm-segmentation/internal/services"
)

func newRulesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rules",
		Short: "Print the segment assigned to every recency/frequency score pair",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeRules(cmd.OutOrStdout())
		},
	}
}

// writeRules prints the 5x5 grid, recency descending so champions sit top
// right.
func writeRules(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprint(tw, "R\\F")
	for f := 1; f <= 5; f++ {
		fmt.Fprintf(tw, "\t%d", f)
	}
	fmt.Fprintln(tw)

	for r := 5; r >= 1; r-- {
		fmt.Fprintf(tw, "%d", r)
		for f := 1; f <= 5; f++ {
			fmt.Fprintf(tw, "\t%s", services.SegmentFor(r, f))
		}
		fmt.Fprintln(tw)
	}

	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "RULE\tRECENCY\tFREQUENCY\tSEGMENT")
	for i, rule := range services.SegmentRules() {
		fmt.Fprintf(tw, "%d\t%v\t%v\t%s\n", i+1, rule.Recency, rule.Frequency, rule.Segment)
	}

	return tw.Flush()
}
