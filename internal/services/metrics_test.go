package services

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rfm-segmentation/internal/errors"
	"rfm-segmentation/internal/models"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func loadSample(t *testing.T) []models.Customer {
	t.Helper()
	customers, err := LoadCustomersFile(context.Background(), sampleFile)
	require.NoError(t, err)
	return customers
}

func TestResolveAnalysisDate(t *testing.T) {
	customers := loadSample(t)

	derived, err := ResolveAnalysisDate(customers, time.Time{}, 2)
	require.NoError(t, err)
	assert.Equal(t, date(2021, 6, 1), derived)

	noOffset, err := ResolveAnalysisDate(customers, time.Time{}, 0)
	require.NoError(t, err)
	assert.Equal(t, date(2021, 5, 30), noOffset)

	pinned, err := ResolveAnalysisDate(customers, time.Date(2022, 1, 5, 13, 45, 0, 0, time.UTC), 2)
	require.NoError(t, err)
	assert.Equal(t, date(2022, 1, 5), pinned)

	_, err = ResolveAnalysisDate(nil, time.Time{}, 2)
	assert.True(t, errors.Is(err, errors.CodeDataQuality))
}

func TestDeriveMetrics(t *testing.T) {
	customers := loadSample(t)

	out, err := DeriveMetrics(customers, date(2021, 6, 1))
	require.NoError(t, err)
	require.Len(t, out, len(customers))

	assert.Equal(t, 11, out[0].RecencyDays)
	assert.Equal(t, 2, out[9].RecencyDays)
	assert.Equal(t, 10, out[9].Frequency)
	assert.Equal(t, "5000", out[9].Monetary.String())

	// Input table is left untouched.
	assert.Zero(t, customers[9].Frequency)
	assert.True(t, customers[9].Monetary.IsZero())
}

func TestDeriveMetrics_ExactSums(t *testing.T) {
	var customers []models.Customer
	for i := 0; i < 200; i++ {
		customers = append(customers, models.Customer{
			MasterID:        "m" + strconv.Itoa(i),
			LastOrderDate:   date(2021, 1, 1).AddDate(0, 0, i%90),
			OrderNumOnline:  i % 7,
			OrderNumOffline: (i * 3) % 5,
			ValueOnline:     decimal.New(int64(i*1999+1), -2),
			ValueOffline:    decimal.New(int64(i*37+3), -2),
		})
	}

	out, err := DeriveMetrics(customers, date(2021, 6, 1))
	require.NoError(t, err)

	for i, c := range out {
		assert.Equal(t, customers[i].OrderNumOnline+customers[i].OrderNumOffline, c.Frequency)
		assert.True(t, c.Monetary.Equal(customers[i].ValueOnline.Add(customers[i].ValueOffline)))
		assert.GreaterOrEqual(t, c.RecencyDays, 0)
	}
}

func TestDeriveMetrics_DecimalPrecision(t *testing.T) {
	customers := []models.Customer{{
		MasterID:      "p",
		LastOrderDate: date(2021, 5, 1),
		ValueOnline:   decimal.RequireFromString("0.1"),
		ValueOffline:  decimal.RequireFromString("0.2"),
	}}

	out, err := DeriveMetrics(customers, date(2021, 6, 1))
	require.NoError(t, err)
	assert.Equal(t, "0.3", out[0].Monetary.String())
}

func TestDeriveMetrics_LastOrderAfterAnalysisDate(t *testing.T) {
	customers := []models.Customer{{
		SourceRow:     7,
		MasterID:      "late",
		LastOrderDate: date(2021, 6, 2),
	}}

	_, err := DeriveMetrics(customers, date(2021, 6, 1))
	require.Error(t, err)

	var appErr *errors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, errors.CodeDataQuality, appErr.Code)
	assert.Equal(t, 7, appErr.Row)
	assert.Equal(t, "late", appErr.CustomerID)
}

func TestDeriveMetrics_SameDayIsZeroRecency(t *testing.T) {
	customers := []models.Customer{{
		MasterID:      "today",
		LastOrderDate: time.Date(2021, 6, 1, 18, 30, 0, 0, time.UTC),
	}}

	out, err := DeriveMetrics(customers, date(2021, 6, 1))
	require.NoError(t, err)
	assert.Equal(t, 0, out[0].RecencyDays)
}
