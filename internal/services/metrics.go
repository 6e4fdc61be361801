package services

import (
	"fmt"
	"time"

	"rfm-segmentation/internal/errors"
	"rfm-segmentation/internal/models"
)

const day = 24 * time.Hour

// ResolveAnalysisDate returns the reference point recency is measured from.
// A non-zero pinned date is used as is. Otherwise the date is the latest
// last_order_date in the table plus offsetDays. Both are truncated to
// midnight UTC; the system clock is never read.
func ResolveAnalysisDate(customers []models.Customer, pinned time.Time, offsetDays int) (time.Time, error) {
	if !pinned.IsZero() {
		return truncateDay(pinned), nil
	}
	if len(customers) == 0 {
		return time.Time{}, errors.DataQuality(0, "", "", "cannot derive analysis date from an empty table", nil)
	}

	latest := customers[0].LastOrderDate
	for _, c := range customers[1:] {
		if c.LastOrderDate.After(latest) {
			latest = c.LastOrderDate
		}
	}
	return truncateDay(latest).AddDate(0, 0, offsetDays), nil
}

// DeriveMetrics returns a copy of customers with RecencyDays, Frequency and
// Monetary filled in. Recency is counted in whole days.
func DeriveMetrics(customers []models.Customer, analysisDate time.Time) ([]models.Customer, error) {
	analysisDate = truncateDay(analysisDate)
	out := make([]models.Customer, len(customers))

	for i, c := range customers {
		lastOrder := truncateDay(c.LastOrderDate)
		if lastOrder.After(analysisDate) {
			return nil, errors.DataQuality(c.SourceRow, c.MasterID, colLastOrderDate,
				fmt.Sprintf("last order %s is after analysis date %s",
					lastOrder.Format(time.DateOnly), analysisDate.Format(time.DateOnly)), nil)
		}

		c.RecencyDays = int(analysisDate.Sub(lastOrder) / day)
		c.Frequency = c.OrderNumOnline + c.OrderNumOffline
		c.Monetary = c.ValueOnline.Add(c.ValueOffline)
		out[i] = c
	}

	return out, nil
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
