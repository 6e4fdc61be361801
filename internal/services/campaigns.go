package services

import (
	"fmt"
	"path/filepath"
	"slices"

	"github.com/shopspring/decimal"

	"rfm-segmentation/internal/errors"
	"rfm-segmentation/internal/models"
)

const (
	CategoryWomen    = "KADIN"
	CategoryMen      = "ERKEK"
	CategoryChildren = "COCUK"
)

// DefaultCampaigns returns the built-in target profiles: loyal high-spending
// women's-category shoppers for the new brand launch, lapsed or new
// men's/children's shoppers for the discount, and plain exports of the
// hibernating and champion segments.
func DefaultCampaigns() []models.Campaign {
	minSpend := decimal.NewFromInt(250)
	return []models.Campaign{
		{
			Name:                 "new_brand_target",
			Output:               "new_brand_target_customer_ids.csv",
			Segments:             []models.Segment{models.SegmentChampions, models.SegmentLoyalCustomer},
			MinAverageSpend:      &minSpend,
			RequireAllCategories: []string{CategoryWomen},
		},
		{
			Name:                 "discount_target",
			Output:               "discount_target_customer_ids.csv",
			Segments:             []models.Segment{models.SegmentCantLose, models.SegmentHibernating, models.SegmentNewCustomers},
			RequireAnyCategories: []string{CategoryMen, CategoryChildren},
		},
		{
			Name:     "hibernating_customers",
			Output:   "hibernating_customer_ids.csv",
			Segments: []models.Segment{models.SegmentHibernating},
		},
		{
			Name:     "champion_customers",
			Output:   "champion_customer_ids.csv",
			Segments: []models.Segment{models.SegmentChampions},
		},
	}
}

// validateCampaigns rejects campaign sets whose results could not all be
// exported: every campaign needs a name, a bare output file name of its own
// and at least one segment.
func validateCampaigns(campaigns []models.Campaign) error {
	names := make(map[string]bool, len(campaigns))
	outputs := make(map[string]bool, len(campaigns))

	for _, c := range campaigns {
		switch {
		case c.Name == "":
			return errors.Config("campaign without a name")
		case c.Output == "" || filepath.Base(c.Output) != c.Output:
			return errors.Config(fmt.Sprintf("campaign %q: output %q must be a file name", c.Name, c.Output))
		case len(c.Segments) == 0:
			return errors.Config(fmt.Sprintf("campaign %q targets no segment", c.Name))
		case names[c.Name]:
			return errors.Config(fmt.Sprintf("duplicate campaign name %q", c.Name))
		case outputs[c.Output]:
			return errors.Config(fmt.Sprintf("campaigns share output file %q", c.Output))
		}
		names[c.Name] = true
		outputs[c.Output] = true
	}
	return nil
}

// MatchesCampaign reports whether a segmented customer fits the campaign. A
// customer without categories never satisfies a category requirement.
func MatchesCampaign(c models.Customer, campaign models.Campaign) bool {
	if !slices.Contains(campaign.Segments, c.Segment) {
		return false
	}

	if campaign.MinAverageSpend != nil && !c.AverageSpend().GreaterThan(*campaign.MinAverageSpend) {
		return false
	}

	for _, cat := range campaign.RequireAllCategories {
		if !c.HasCategory(cat) {
			return false
		}
	}

	if len(campaign.RequireAnyCategories) > 0 {
		found := false
		for _, cat := range campaign.RequireAnyCategories {
			if c.HasCategory(cat) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	return true
}

// FilterCampaign returns the identifiers of matching customers, sorted
// ascending.
func FilterCampaign(customers []models.Customer, campaign models.Campaign) []string {
	ids := []string{}
	for _, c := range customers {
		if MatchesCampaign(c, campaign) {
			ids = append(ids, c.MasterID)
		}
	}
	slices.Sort(ids)
	return ids
}
