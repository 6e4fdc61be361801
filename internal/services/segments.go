package services

import (
	"slices"

	"rfm-segmentation/internal/models"
)

// Rule maps a set of recency digits and a set of frequency digits to a
// segment. A rule with a single digit on both sides is exact; anything else
// is a wildcard rule.
type Rule struct {
	Recency   []int
	Frequency []int
	Segment   models.Segment
}

func (r Rule) Exact() bool {
	return len(r.Recency) == 1 && len(r.Frequency) == 1
}

func (r Rule) Matches(recency, frequency int) bool {
	return slices.Contains(r.Recency, recency) && slices.Contains(r.Frequency, frequency)
}

var segmentRules = []Rule{
	{Recency: []int{1, 2}, Frequency: []int{1, 2}, Segment: models.SegmentHibernating},
	{Recency: []int{1, 2}, Frequency: []int{3, 4}, Segment: models.SegmentAtRisk},
	{Recency: []int{1, 2}, Frequency: []int{5}, Segment: models.SegmentCantLose},
	{Recency: []int{3}, Frequency: []int{1, 2}, Segment: models.SegmentAboutToSleep},
	{Recency: []int{3}, Frequency: []int{3}, Segment: models.SegmentNeedAttention},
	{Recency: []int{3, 4}, Frequency: []int{4, 5}, Segment: models.SegmentLoyalCustomer},
	{Recency: []int{4}, Frequency: []int{1}, Segment: models.SegmentPromising},
	{Recency: []int{5}, Frequency: []int{1}, Segment: models.SegmentNewCustomers},
	{Recency: []int{4, 5}, Frequency: []int{2, 3}, Segment: models.SegmentPotentialLoyalist},
	{Recency: []int{5}, Frequency: []int{4, 5}, Segment: models.SegmentChampions},
}

// evaluationOrder holds the rules in the order SegmentFor tries them: exact
// rules first, then wildcard rules, each group keeping table order.
var evaluationOrder = func() []Rule {
	ordered := slices.Clone(segmentRules)
	slices.SortStableFunc(ordered, func(a, b Rule) int {
		switch {
		case a.Exact() && !b.Exact():
			return -1
		case !a.Exact() && b.Exact():
			return 1
		default:
			return 0
		}
	})
	return ordered
}()

// SegmentRules returns the rule table in its documented order.
func SegmentRules() []Rule {
	return slices.Clone(segmentRules)
}

// SegmentFor resolves a recency/frequency score pair. The first matching rule
// wins; a pair no rule covers is SegmentUnmapped.
func SegmentFor(recency, frequency int) models.Segment {
	for _, rule := range evaluationOrder {
		if rule.Matches(recency, frequency) {
			return rule.Segment
		}
	}
	return models.SegmentUnmapped
}

// ParseRFKey splits a two-character composite key such as "54".
func ParseRFKey(key string) (recency, frequency int, ok bool) {
	if len(key) != 2 {
		return 0, 0, false
	}
	r, f := key[0], key[1]
	if r < '0' || r > '9' || f < '0' || f > '9' {
		return 0, 0, false
	}
	return int(r - '0'), int(f - '0'), true
}

func SegmentForKey(key string) models.Segment {
	recency, frequency, ok := ParseRFKey(key)
	if !ok {
		return models.SegmentUnmapped
	}
	return SegmentFor(recency, frequency)
}

// AssignSegments returns a copy of customers with Segment set from their
// scores.
func AssignSegments(customers []models.Customer) []models.Customer {
	out := make([]models.Customer, len(customers))
	for i, c := range customers {
		c.Segment = SegmentFor(c.Scores.Recency, c.Scores.Frequency)
		out[i] = c
	}
	return out
}
