package services

import (
	"cmp"
	"slices"

	"github.com/shopspring/decimal"

	"rfm-segmentation/internal/models"
)

type RankBy string

const (
	RankByMonetary  RankBy = "monetary"
	RankByFrequency RankBy = "frequency"
)

const meanPlaces = 2

// blankChecks lists the columns the loader accepts empty, in report order.
// A category list of "[]" counts as blank.
var blankChecks = []struct {
	column string
	blank  func(models.Customer) bool
}{
	{colOrderChannel, func(c models.Customer) bool { return c.OrderChannel == "" }},
	{colLastOrderChannel, func(c models.Customer) bool { return c.LastOrderChannel == "" }},
	{colLastOrderDateOnline, func(c models.Customer) bool { return c.LastOrderDateOnline.IsZero() }},
	{colLastOrderDateOffline, func(c models.Customer) bool { return c.LastOrderDateOffline.IsZero() }},
	{colCategories, func(c models.Customer) bool { return len(c.Categories) == 0 }},
}

// Describe summarises the raw table. It reads only loaded columns, so it can
// run before metrics are derived.
func Describe(customers []models.Customer) models.DatasetOverview {
	overview := models.DatasetOverview{
		Records:       len(customers),
		TotalMonetary: decimal.Zero,
		Blanks:        make([]models.ColumnBlanks, len(blankChecks)),
	}
	for i, check := range blankChecks {
		overview.Blanks[i].Column = check.column
	}

	for i, c := range customers {
		if i == 0 || c.FirstOrderDate.Before(overview.FirstOrderDate) {
			overview.FirstOrderDate = c.FirstOrderDate
		}
		if i == 0 || c.LastOrderDate.After(overview.LastOrderDate) {
			overview.LastOrderDate = c.LastOrderDate
		}

		orders := c.OrderNumOnline + c.OrderNumOffline
		overview.TotalOrders += orders
		if orders == 0 {
			overview.CustomersNoOrders++
		}
		overview.TotalMonetary = overview.TotalMonetary.Add(c.ValueOnline).Add(c.ValueOffline)

		for j, check := range blankChecks {
			if check.blank(c) {
				overview.Blanks[j].Blank++
			}
		}
	}

	return overview
}

type channelAgg struct {
	customers int
	orders    int
	monetary  decimal.Decimal
}

// ChannelBreakdown groups customers by order_channel, sorted by customer
// count descending and then by channel name.
func ChannelBreakdown(customers []models.Customer) []models.ChannelSummary {
	groups := make(map[string]*channelAgg)
	for _, c := range customers {
		g := groups[c.OrderChannel]
		if g == nil {
			g = &channelAgg{monetary: decimal.Zero}
			groups[c.OrderChannel] = g
		}
		g.customers++
		g.orders += c.OrderNumOnline + c.OrderNumOffline
		g.monetary = g.monetary.Add(c.ValueOnline).Add(c.ValueOffline)
	}

	result := make([]models.ChannelSummary, 0, len(groups))
	for channel, g := range groups {
		result = append(result, models.ChannelSummary{
			Channel:       channel,
			Customers:     g.customers,
			MeanFrequency: float64(g.orders) / float64(g.customers),
			MeanMonetary:  g.monetary.Div(decimal.NewFromInt(int64(g.customers))).Round(meanPlaces),
		})
	}

	slices.SortFunc(result, func(a, b models.ChannelSummary) int {
		if c := cmp.Compare(b.Customers, a.Customers); c != 0 {
			return c
		}
		return cmp.Compare(a.Channel, b.Channel)
	})
	return result
}

// TopCustomers returns the n customers with the highest total spend or order
// count. Ties are broken by master_id.
func TopCustomers(customers []models.Customer, by RankBy, n int) []models.RankedCustomer {
	ranked := make([]models.RankedCustomer, 0, len(customers))
	for _, c := range customers {
		ranked = append(ranked, models.RankedCustomer{
			MasterID:  c.MasterID,
			Frequency: c.OrderNumOnline + c.OrderNumOffline,
			Monetary:  c.ValueOnline.Add(c.ValueOffline),
		})
	}

	slices.SortFunc(ranked, func(a, b models.RankedCustomer) int {
		var c int
		switch by {
		case RankByFrequency:
			c = cmp.Compare(b.Frequency, a.Frequency)
		default:
			c = b.Monetary.Cmp(a.Monetary)
		}
		if c != 0 {
			return c
		}
		return cmp.Compare(a.MasterID, b.MasterID)
	})

	if n >= 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

type segmentAgg struct {
	customers int
	recency   int
	frequency int
	monetary  decimal.Decimal
}

// SummarizeSegments averages recency, frequency and monetary per segment.
// Segments without customers are omitted; the rest follow rule-table order
// with unmapped last.
func SummarizeSegments(customers []models.Customer) []models.SegmentSummary {
	groups := make(map[models.Segment]*segmentAgg)
	for _, c := range customers {
		g := groups[c.Segment]
		if g == nil {
			g = &segmentAgg{monetary: decimal.Zero}
			groups[c.Segment] = g
		}
		g.customers++
		g.recency += c.RecencyDays
		g.frequency += c.Frequency
		g.monetary = g.monetary.Add(c.Monetary)
	}

	result := make([]models.SegmentSummary, 0, len(groups))
	for _, seg := range models.Segments {
		g := groups[seg]
		if g == nil {
			continue
		}
		result = append(result, models.SegmentSummary{
			Segment:       seg,
			Customers:     g.customers,
			MeanRecency:   float64(g.recency) / float64(g.customers),
			MeanFrequency: float64(g.frequency) / float64(g.customers),
			MeanMonetary:  g.monetary.Div(decimal.NewFromInt(int64(g.customers))).Round(meanPlaces),
		})
	}
	return result
}
