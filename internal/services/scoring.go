package services

import (
	"fmt"
	"math"
	"slices"

	"rfm-segmentation/internal/models"
)

type Binning string

const (
	// BinningQuantile puts roughly a fifth of the customers in each bucket.
	BinningQuantile Binning = "quantile"
	// BinningWidth splits [min, max] into five equal-width intervals.
	BinningWidth Binning = "width"
)

const scoreBuckets = 5

// ScoreCustomers returns a copy of customers with Scores, RF and RFM set.
// Metrics must already be derived.
//
// Recency is ranked ascending and then reversed, so the most recent
// customers get 5. In both binnings a tie at a bucket boundary resolves to
// the lowest bucket on the ascending axis, so equal values always share a
// score.
func ScoreCustomers(customers []models.Customer, binning Binning) ([]models.Customer, error) {
	var recency, frequency, monetary []int

	switch binning {
	case BinningQuantile:
		recency = quantileBuckets(len(customers), func(i, j int) int {
			return customers[i].RecencyDays - customers[j].RecencyDays
		})
		frequency = quantileBuckets(len(customers), func(i, j int) int {
			return customers[i].Frequency - customers[j].Frequency
		})
		monetary = quantileBuckets(len(customers), func(i, j int) int {
			return customers[i].Monetary.Cmp(customers[j].Monetary)
		})
	case BinningWidth:
		r := make([]float64, len(customers))
		f := make([]float64, len(customers))
		m := make([]float64, len(customers))
		for i, c := range customers {
			r[i] = float64(c.RecencyDays)
			f[i] = float64(c.Frequency)
			m[i] = c.Monetary.InexactFloat64()
		}
		recency = widthBuckets(r)
		frequency = widthBuckets(f)
		monetary = widthBuckets(m)
	default:
		return nil, fmt.Errorf("unknown binning %q", binning)
	}

	out := make([]models.Customer, len(customers))
	for i, c := range customers {
		c.Scores = models.Scores{
			Recency:   scoreBuckets + 1 - recency[i],
			Frequency: frequency[i],
			Monetary:  monetary[i],
		}
		c.RF = c.Scores.RF()
		c.RFM = c.Scores.RFM()
		out[i] = c
	}
	return out, nil
}

// quantileBuckets ranks n rows with compare (stable on input order) and
// assigns bucket floor(rank*5/n)+1. Rows comparing equal take the bucket of
// the first of them in rank order.
func quantileBuckets(n int, compare func(i, j int) int) []int {
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, compare)

	buckets := make([]int, n)
	for rank, row := range order {
		if rank > 0 && compare(order[rank-1], row) == 0 {
			buckets[row] = buckets[order[rank-1]]
			continue
		}
		buckets[row] = rank*scoreBuckets/n + 1
	}
	return buckets
}

// widthBuckets uses right-closed intervals, so a value sitting exactly on a
// boundary lands in the lower bucket. The minimum goes to bucket 1, as does
// every value when all values are equal.
func widthBuckets(values []float64) []int {
	buckets := make([]int, len(values))
	if len(values) == 0 {
		return buckets
	}

	lo, hi := slices.Min(values), slices.Max(values)
	span := hi - lo

	for i, v := range values {
		if span == 0 {
			buckets[i] = 1
			continue
		}
		b := int(math.Ceil((v - lo) * scoreBuckets / span))
		buckets[i] = min(max(b, 1), scoreBuckets)
	}
	return buckets
}
