package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Campaign is a business target profile. A customer matches when its segment
// is listed, its average spend is strictly above MinAverageSpend (if set), it
// carries every category in RequireAllCategories and at least one category in
// RequireAnyCategories (if set).
type Campaign struct {
	Name                 string
	Output               string
	Segments             []Segment
	MinAverageSpend      *decimal.Decimal
	RequireAllCategories []string
	RequireAnyCategories []string
}

type CampaignResult struct {
	Name        string   `json:"name"`
	Output      string   `json:"output"`
	Matches     int      `json:"matches"`
	CustomerIDs []string `json:"-"`
}

type SegmentSummary struct {
	Segment       Segment         `json:"segment"`
	Customers     int             `json:"customers"`
	MeanRecency   float64         `json:"mean_recency_days"`
	MeanFrequency float64         `json:"mean_frequency"`
	MeanMonetary  decimal.Decimal `json:"mean_monetary"`
}

type ChannelSummary struct {
	Channel       string          `json:"channel"`
	Customers     int             `json:"customers"`
	MeanFrequency float64         `json:"mean_frequency"`
	MeanMonetary  decimal.Decimal `json:"mean_monetary"`
}

type DatasetOverview struct {
	Records           int             `json:"records"`
	FirstOrderDate    time.Time       `json:"first_order_date"`
	LastOrderDate     time.Time       `json:"last_order_date"`
	TotalOrders       int             `json:"total_orders"`
	TotalMonetary     decimal.Decimal `json:"total_monetary"`
	CustomersNoOrders int             `json:"customers_without_orders"`
	Blanks            []ColumnBlanks  `json:"blank_values"`
}

// ColumnBlanks counts the records that left an optional column empty.
type ColumnBlanks struct {
	Column string `json:"column"`
	Blank  int    `json:"blank"`
}

type RankedCustomer struct {
	MasterID  string          `json:"master_id"`
	Frequency int             `json:"frequency"`
	Monetary  decimal.Decimal `json:"monetary"`
}

// RunSummary is the serialisable outcome of one pipeline run.
type RunSummary struct {
	RunID        string           `json:"run_id"`
	InputFile    string           `json:"input_file"`
	AnalysisDate time.Time        `json:"analysis_date"`
	Binning      string           `json:"binning"`
	Overview     DatasetOverview  `json:"overview"`
	Channels     []ChannelSummary `json:"channels"`
	Segments     []SegmentSummary `json:"segments"`
	Unmapped     int              `json:"unmapped"`
	Campaigns    []CampaignResult `json:"campaigns"`
	GeneratedAt  time.Time        `json:"generated_at"`
}
