package services

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rfm-segmentation/internal/errors"
	"rfm-segmentation/internal/models"
	"rfm-segmentation/internal/observability"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func loadedSegmentation(t testing.TB, opts Options) *Segmentation {
	t.Helper()
	seg := NewSegmentation(quietLogger(), opts)
	require.NoError(t, seg.LoadFromCSV(context.Background(), sampleFile))
	return seg
}

func TestNewSegmentation_Defaults(t *testing.T) {
	seg := NewSegmentation(nil, Options{})

	opts := seg.Options()
	assert.Equal(t, BinningQuantile, opts.Binning)
	assert.Equal(t, 10, opts.TopN)
	require.Len(t, opts.Campaigns, 4)
	assert.Equal(t, "new_brand_target", opts.Campaigns[0].Name)
	assert.Equal(t, "discount_target", opts.Campaigns[1].Name)
	assert.Equal(t, "hibernating_customers", opts.Campaigns[2].Name)
	assert.Equal(t, "champion_customers", opts.Campaigns[3].Name)
	assert.Zero(t, seg.Records())
}

func TestSegmentation_Run(t *testing.T) {
	seg := loadedSegmentation(t, Options{AnalysisDate: date(2021, 6, 1)})
	assert.Equal(t, 10, seg.Records())

	result, err := seg.Run(context.Background())
	require.NoError(t, err)

	assignments := result.SegmentAssignments()
	want := map[string]models.Segment{
		"c01": models.SegmentHibernating,
		"c02": models.SegmentHibernating,
		"c03": models.SegmentHibernating,
		"c04": models.SegmentHibernating,
		"c05": models.SegmentNeedAttention,
		"c06": models.SegmentNeedAttention,
		"c07": models.SegmentLoyalCustomer,
		"c08": models.SegmentLoyalCustomer,
		"c09": models.SegmentChampions,
		"c10": models.SegmentChampions,
	}
	assert.Equal(t, want, assignments)

	newBrand, err := result.Campaign("new_brand_target")
	require.NoError(t, err)
	assert.Equal(t, []string{"c08", "c10"}, newBrand.CustomerIDs)
	assert.Equal(t, 2, newBrand.Matches)
	assert.Equal(t, "new_brand_target_customer_ids.csv", newBrand.Output)

	discount, err := result.Campaign("discount_target")
	require.NoError(t, err)
	assert.Equal(t, []string{"c01", "c03"}, discount.CustomerIDs)

	hibernating, err := result.Campaign("hibernating_customers")
	require.NoError(t, err)
	assert.Equal(t, []string{"c01", "c02", "c03", "c04"}, hibernating.CustomerIDs)
	assert.Equal(t, "hibernating_customer_ids.csv", hibernating.Output)

	champions, err := result.Campaign("champion_customers")
	require.NoError(t, err)
	assert.Equal(t, []string{"c09", "c10"}, champions.CustomerIDs)
	assert.Equal(t, "champion_customer_ids.csv", champions.Output)

	_, err = result.Campaign("nope")
	assert.Error(t, err)

	summary := result.Summary
	assert.NotEmpty(t, summary.RunID)
	assert.Equal(t, sampleFile, summary.InputFile)
	assert.Equal(t, date(2021, 6, 1), summary.AnalysisDate)
	assert.Equal(t, "quantile", summary.Binning)
	assert.Equal(t, 10, summary.Overview.Records)
	assert.Zero(t, summary.Unmapped)
	assert.Len(t, summary.Segments, 4)
	assert.Len(t, summary.Channels, 4)

	require.Len(t, result.TopByMonetary, 10)
	assert.Equal(t, "c10", result.TopByMonetary[0].MasterID)
	assert.Equal(t, "c10", result.TopByFrequency[0].MasterID)
}

func TestSegmentation_DerivedDateMatchesPinned(t *testing.T) {
	derived, err := loadedSegmentation(t, Options{OffsetDays: 2}).Run(context.Background())
	require.NoError(t, err)
	pinned, err := loadedSegmentation(t, Options{AnalysisDate: date(2021, 6, 1)}).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, pinned.Summary.AnalysisDate, derived.Summary.AnalysisDate)
	assert.Equal(t, pinned.SegmentAssignments(), derived.SegmentAssignments())
}

func TestSegmentation_Idempotent(t *testing.T) {
	seg := loadedSegmentation(t, Options{AnalysisDate: date(2021, 6, 1)})

	first, err := seg.Run(context.Background())
	require.NoError(t, err)
	second, err := seg.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first.Customers, second.Customers)
	assert.Equal(t, first.Summary.Campaigns, second.Summary.Campaigns)
	assert.Equal(t, first.Summary.Segments, second.Summary.Segments)
}

func TestSegmentation_RunIDFromContext(t *testing.T) {
	seg := loadedSegmentation(t, Options{AnalysisDate: date(2021, 6, 1)})

	ctx := observability.WithRunID(context.Background(), "run-42")
	result, err := seg.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, "run-42", result.Summary.RunID)
}

func TestSegmentation_WidthBinning(t *testing.T) {
	seg := loadedSegmentation(t, Options{AnalysisDate: date(2021, 6, 1), Binning: BinningWidth})

	result, err := seg.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "width", result.Summary.Binning)

	for _, c := range result.Customers {
		assert.NotEqual(t, models.SegmentUnmapped, c.Segment, c.MasterID)
	}
}

func TestSegmentation_SetDataCopies(t *testing.T) {
	customers := loadSample(t)

	seg := NewSegmentation(quietLogger(), Options{AnalysisDate: date(2021, 6, 1)})
	seg.SetData(customers)
	customers[0].MasterID = "changed"

	result, err := seg.Run(context.Background())
	require.NoError(t, err)
	assert.Contains(t, result.SegmentAssignments(), "c01")
	assert.Empty(t, customers[1].Segment)
}

func TestSegmentation_Errors(t *testing.T) {
	t.Run("no data", func(t *testing.T) {
		_, err := NewSegmentation(quietLogger(), Options{}).Run(context.Background())
		assert.True(t, errors.Is(err, errors.CodeDataQuality))
	})

	t.Run("analysis date before last order", func(t *testing.T) {
		seg := loadedSegmentation(t, Options{AnalysisDate: date(2021, 5, 25)})
		_, err := seg.Run(context.Background())
		assert.True(t, errors.Is(err, errors.CodeDataQuality))
	})

	t.Run("unknown binning", func(t *testing.T) {
		seg := loadedSegmentation(t, Options{AnalysisDate: date(2021, 6, 1), Binning: "bogus"})
		_, err := seg.Run(context.Background())
		assert.True(t, errors.Is(err, errors.CodeConfig))
	})

	t.Run("campaigns share an output file", func(t *testing.T) {
		seg := loadedSegmentation(t, Options{
			AnalysisDate: date(2021, 6, 1),
			Campaigns: []models.Campaign{
				{Name: "a", Output: "ids.csv", Segments: []models.Segment{models.SegmentChampions}},
				{Name: "b", Output: "ids.csv", Segments: []models.Segment{models.SegmentHibernating}},
			},
		})
		result, err := seg.Run(context.Background())
		assert.True(t, errors.Is(err, errors.CodeConfig))
		assert.Nil(t, result)
	})

	t.Run("missing file", func(t *testing.T) {
		seg := NewSegmentation(quietLogger(), Options{})
		err := seg.LoadFromCSV(context.Background(), "testdata/absent.csv")
		assert.True(t, errors.Is(err, errors.CodeInputFile))
	})
}

func TestSegmentation_GeneratedAtUsesClock(t *testing.T) {
	seg := loadedSegmentation(t, Options{AnalysisDate: date(2021, 6, 1)})
	fixed := time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC)
	seg.now = func() time.Time { return fixed }

	result, err := seg.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, fixed, result.Summary.GeneratedAt)
}

func BenchmarkSegmentation_Run(b *testing.B) {
	seg := loadedSegmentation(b, Options{AnalysisDate: date(2021, 6, 1)})
	ctx := context.Background()

	for i := 0; i < b.N; i++ {
		if _, err := seg.Run(ctx); err != nil {
			b.Fatal(err)
		}
	}
}
