package report

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"rfm-segmentation/internal/models"
)

// WriteSummary prints the human-readable run report: overview, blank values
// per column, channel breakdown, top customers, segment means and campaign
// counts.
func WriteSummary(w io.Writer, summary models.RunSummary, topMonetary, topFrequency []models.RankedCustomer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	o := summary.Overview
	fmt.Fprintf(tw, "Analysis date:\t%s\n", summary.AnalysisDate.Format(time.DateOnly))
	fmt.Fprintf(tw, "Customers:\t%d\n", o.Records)
	fmt.Fprintf(tw, "Order dates:\t%s .. %s\n", o.FirstOrderDate.Format(time.DateOnly), o.LastOrderDate.Format(time.DateOnly))
	fmt.Fprintf(tw, "Total orders:\t%d\n", o.TotalOrders)
	fmt.Fprintf(tw, "Total spend:\t%s\n", o.TotalMonetary.StringFixed(2))
	if o.CustomersNoOrders > 0 {
		fmt.Fprintf(tw, "Customers without orders:\t%d\n", o.CustomersNoOrders)
	}

	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "COLUMN\tBLANK")
	for _, b := range o.Blanks {
		fmt.Fprintf(tw, "%s\t%d\n", b.Column, b.Blank)
	}

	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "CHANNEL\tCUSTOMERS\tMEAN FREQUENCY\tMEAN MONETARY")
	for _, c := range summary.Channels {
		fmt.Fprintf(tw, "%s\t%d\t%.2f\t%s\n", c.Channel, c.Customers, c.MeanFrequency, c.MeanMonetary.StringFixed(2))
	}

	writeRanked(tw, "TOP BY MONETARY", topMonetary)
	writeRanked(tw, "TOP BY FREQUENCY", topFrequency)

	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "SEGMENT\tCUSTOMERS\tRECENCY\tFREQUENCY\tMONETARY")
	for _, s := range summary.Segments {
		fmt.Fprintf(tw, "%s\t%d\t%.2f\t%.2f\t%s\n", s.Segment, s.Customers, s.MeanRecency, s.MeanFrequency, s.MeanMonetary.StringFixed(2))
	}

	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "CAMPAIGN\tMATCHES\tFILE")
	for _, c := range summary.Campaigns {
		fmt.Fprintf(tw, "%s\t%d\t%s\n", c.Name, c.Matches, c.Output)
	}

	return tw.Flush()
}

func writeRanked(w io.Writer, title string, ranked []models.RankedCustomer) {
	if len(ranked) == 0 {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s\tORDERS\tSPEND\n", title)
	for i, r := range ranked {
		fmt.Fprintf(w, "%d. %s\t%d\t%s\n", i+1, r.MasterID, r.Frequency, r.Monetary.StringFixed(2))
	}
}
