package services

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"time"

	"github.com/rs/xid"

	"rfm-segmentation/internal/errors"
	"rfm-segmentation/internal/models"
	"rfm-segmentation/internal/observability"
)

const defaultTopN = 10

type Options struct {
	// AnalysisDate pins the recency reference point; zero derives it from
	// the data (latest last_order_date + OffsetDays).
	AnalysisDate time.Time
	OffsetDays   int
	Binning      Binning
	Campaigns    []models.Campaign
	TopN         int
}

type Result struct {
	Customers      []models.Customer
	Summary        models.RunSummary
	TopByMonetary  []models.RankedCustomer
	TopByFrequency []models.RankedCustomer
}

// Segmentation runs the RFM pipeline over one loaded customer table. The
// loaded table is never modified; every stage works on a fresh copy.
type Segmentation struct {
	customers []models.Customer
	inputFile string
	opts      Options
	logger    *slog.Logger
	now       func() time.Time
}

func NewSegmentation(logger *slog.Logger, opts Options) *Segmentation {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Binning == "" {
		opts.Binning = BinningQuantile
	}
	if opts.Campaigns == nil {
		opts.Campaigns = DefaultCampaigns()
	}
	if opts.TopN == 0 {
		opts.TopN = defaultTopN
	}
	return &Segmentation{
		opts:   opts,
		logger: logger,
		now:    time.Now,
	}
}

func (s *Segmentation) SetData(customers []models.Customer) {
	s.customers = slices.Clone(customers)
}

func (s *Segmentation) LoadFromCSV(ctx context.Context, filename string) error {
	s.inputFile = filename
	logger := observability.ForRun(ctx, s.logger)

	return observability.Trace(ctx, logger, "load", func(ctx context.Context, span *observability.Span) error {
		logger.Info("processing CSV file", "filename", filename)

		customers, err := LoadCustomersFile(ctx, filename)
		if err != nil {
			return err
		}
		s.customers = customers

		span.SetTag("records", strconv.Itoa(len(customers)))
		logger.Info("csv processing complete", "records", len(customers))
		return nil
	})
}

func (s *Segmentation) Records() int {
	return len(s.customers)
}

func (s *Segmentation) Options() Options {
	return s.opts
}

// Run derives metrics, scores, segments and campaign matches for the loaded
// table. Re-running with the same data and a pinned analysis date yields the
// same assignments.
func (s *Segmentation) Run(ctx context.Context) (*Result, error) {
	runID := observability.GetRunID(ctx)
	if runID == "" {
		runID = xid.New().String()
		ctx = observability.WithRunID(ctx, runID)
	}
	logger := observability.ForRun(ctx, s.logger)

	if len(s.customers) == 0 {
		return nil, errors.DataQuality(0, "", "", "no customer records loaded", nil)
	}

	var (
		analysisDate time.Time
		customers    []models.Customer
	)

	err := observability.Trace(ctx, logger, "metrics", func(ctx context.Context, span *observability.Span) error {
		var err error
		analysisDate, err = ResolveAnalysisDate(s.customers, s.opts.AnalysisDate, s.opts.OffsetDays)
		if err != nil {
			return err
		}
		span.SetTag("analysis_date", analysisDate.Format(time.DateOnly))

		customers, err = DeriveMetrics(s.customers, analysisDate)
		return err
	})
	if err != nil {
		return nil, err
	}

	err = observability.Trace(ctx, logger, "score", func(ctx context.Context, span *observability.Span) error {
		span.SetTag("binning", string(s.opts.Binning))
		var err error
		customers, err = ScoreCustomers(customers, s.opts.Binning)
		if err != nil {
			return errors.Wrap(err, errors.CodeConfig, "score customers")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var unmapped int
	err = observability.Trace(ctx, logger, "segment", func(ctx context.Context, span *observability.Span) error {
		customers = AssignSegments(customers)

		unmappedKeys := make(map[string]int)
		for _, c := range customers {
			if c.Segment == models.SegmentUnmapped {
				unmapped++
				unmappedKeys[c.RF]++
			}
		}
		span.SetTag("unmapped", strconv.Itoa(unmapped))
		if unmapped > 0 {
			logger.Warn("customers with unmapped RF keys", "count", unmapped, "keys", unmappedKeys)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var campaigns []models.CampaignResult
	err = observability.Trace(ctx, logger, "campaigns", func(ctx context.Context, span *observability.Span) error {
		if err := validateCampaigns(s.opts.Campaigns); err != nil {
			return err
		}
		for _, campaign := range s.opts.Campaigns {
			ids := FilterCampaign(customers, campaign)
			campaigns = append(campaigns, models.CampaignResult{
				Name:        campaign.Name,
				Output:      campaign.Output,
				Matches:     len(ids),
				CustomerIDs: ids,
			})
			span.SetTag(campaign.Name, strconv.Itoa(len(ids)))
			logger.Info("campaign filtered", "campaign", campaign.Name, "matches", len(ids))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	result := &Result{
		Customers: customers,
		Summary: models.RunSummary{
			RunID:        runID,
			InputFile:    s.inputFile,
			AnalysisDate: analysisDate,
			Binning:      string(s.opts.Binning),
			Overview:     Describe(s.customers),
			Channels:     ChannelBreakdown(s.customers),
			Segments:     SummarizeSegments(customers),
			Unmapped:     unmapped,
			Campaigns:    campaigns,
			GeneratedAt:  s.now().UTC(),
		},
		TopByMonetary:  TopCustomers(s.customers, RankByMonetary, s.opts.TopN),
		TopByFrequency: TopCustomers(s.customers, RankByFrequency, s.opts.TopN),
	}

	logger.Info("segmentation complete",
		"customers", len(customers),
		"analysis_date", analysisDate.Format(time.DateOnly),
		"segments", len(result.Summary.Segments),
	)

	return result, nil
}

// SegmentAssignments maps master_id to segment, mainly for comparing runs.
func (r *Result) SegmentAssignments() map[string]models.Segment {
	out := make(map[string]models.Segment, len(r.Customers))
	for _, c := range r.Customers {
		out[c.MasterID] = c.Segment
	}
	return out
}

// Campaign returns the named campaign result.
func (r *Result) Campaign(name string) (models.CampaignResult, error) {
	for _, c := range r.Summary.Campaigns {
		if c.Name == name {
			return c, nil
		}
	}
	return models.CampaignResult{}, fmt.Errorf("campaign %q not found", name)
}
