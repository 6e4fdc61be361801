package models

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

type Customer struct {
	// SourceRow is the 1-based line of the input file the record came from.
	SourceRow            int
	MasterID             string
	OrderChannel         string
	LastOrderChannel     string
	FirstOrderDate       time.Time
	LastOrderDate        time.Time
	LastOrderDateOnline  time.Time
	LastOrderDateOffline time.Time
	OrderNumOnline       int
	OrderNumOffline      int
	ValueOffline         decimal.Decimal
	ValueOnline          decimal.Decimal
	Categories           []string

	// Derived columns, zero until the matching stage has run.
	RecencyDays int
	Frequency   int
	Monetary    decimal.Decimal
	Scores      Scores
	RF          string
	RFM         string
	Segment     Segment
}

// AverageSpend is monetary divided by frequency, zero for customers without orders.
func (c Customer) AverageSpend() decimal.Decimal {
	if c.Frequency == 0 {
		return decimal.Zero
	}
	return c.Monetary.Div(decimal.NewFromInt(int64(c.Frequency)))
}

func (c Customer) HasCategory(category string) bool {
	for _, cat := range c.Categories {
		if cat == category {
			return true
		}
	}
	return false
}

type Scores struct {
	Recency   int `json:"recency_score"`
	Frequency int `json:"frequency_score"`
	Monetary  int `json:"monetary_score"`
}

func (s Scores) RF() string {
	return strconv.Itoa(s.Recency) + strconv.Itoa(s.Frequency)
}

func (s Scores) RFM() string {
	return s.RF() + strconv.Itoa(s.Monetary)
}

type Segment string

const (
	SegmentHibernating       Segment = "hibernating"
	SegmentAtRisk            Segment = "at_risk"
	SegmentCantLose          Segment = "cant_lose"
	SegmentAboutToSleep      Segment = "about_to_sleep"
	SegmentNeedAttention     Segment = "need_attention"
	SegmentLoyalCustomer     Segment = "loyal_customer"
	SegmentPromising         Segment = "promising"
	SegmentNewCustomers      Segment = "new_customers"
	SegmentPotentialLoyalist Segment = "potential_loyalist"
	SegmentChampions         Segment = "champions"
	SegmentUnmapped          Segment = "unmapped"
)

// Segments lists every named segment in rule-table order, unmapped last.
var Segments = []Segment{
	SegmentHibernating,
	SegmentAtRisk,
	SegmentCantLose,
	SegmentAboutToSleep,
	SegmentNeedAttention,
	SegmentLoyalCustomer,
	SegmentPromising,
	SegmentNewCustomers,
	SegmentPotentialLoyalist,
	SegmentChampions,
	SegmentUnmapped,
}

func (s Segment) Valid() bool {
	for _, seg := range Segments {
		if seg == s {
			return true
		}
	}
	return false
}
