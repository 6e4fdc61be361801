package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"rfm-segmentation/internal/models"
)

// CampaignsFile mirrors the YAML layout of a campaign definitions file:
//
//	campaigns:
//	  - name: new_brand_target
//	    output: new_brand_target_customer_ids.csv
//	    segments: [champions, loyal_customer]
//	    min_average_spend: 250
//	    categories_all: [KADIN]
type CampaignsFile struct {
	Campaigns []CampaignSpec `yaml:"campaigns"`
}

type CampaignSpec struct {
	Name            string   `yaml:"name"`
	Output          string   `yaml:"output"`
	Segments        []string `yaml:"segments"`
	MinAverageSpend *float64 `yaml:"min_average_spend"`
	CategoriesAll   []string `yaml:"categories_all"`
	CategoriesAny   []string `yaml:"categories_any"`
}

// LoadCampaigns parses and validates a campaign definitions file.
func LoadCampaigns(path string) ([]models.Campaign, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read campaigns file %s: %w", path, err)
	}

	var file CampaignsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse campaigns file %s: %w", path, err)
	}

	if len(file.Campaigns) == 0 {
		return nil, fmt.Errorf("campaigns file %s defines no campaigns", path)
	}

	campaigns := make([]models.Campaign, 0, len(file.Campaigns))
	names := make(map[string]bool)
	outputs := make(map[string]bool)

	for i, spec := range file.Campaigns {
		c, err := spec.toCampaign()
		if err != nil {
			return nil, fmt.Errorf("campaign %d: %w", i, err)
		}
		if names[c.Name] {
			return nil, fmt.Errorf("campaign %d: duplicate name %q", i, c.Name)
		}
		if outputs[c.Output] {
			return nil, fmt.Errorf("campaign %d: duplicate output %q", i, c.Output)
		}
		names[c.Name] = true
		outputs[c.Output] = true
		campaigns = append(campaigns, c)
	}

	return campaigns, nil
}

func (s CampaignSpec) toCampaign() (models.Campaign, error) {
	if s.Name == "" {
		return models.Campaign{}, fmt.Errorf("name is required")
	}
	if s.Output == "" {
		return models.Campaign{}, fmt.Errorf("output is required")
	}
	if filepath.Base(s.Output) != s.Output {
		return models.Campaign{}, fmt.Errorf("output %q must be a file name, not a path", s.Output)
	}
	if len(s.Segments) == 0 {
		return models.Campaign{}, fmt.Errorf("at least one segment is required")
	}

	c := models.Campaign{
		Name:                 s.Name,
		Output:               s.Output,
		RequireAllCategories: s.CategoriesAll,
		RequireAnyCategories: s.CategoriesAny,
	}

	for _, name := range s.Segments {
		seg := models.Segment(name)
		if !seg.Valid() {
			return models.Campaign{}, fmt.Errorf("unknown segment %q", name)
		}
		// Unmapped customers fall outside the rule table and are reported,
		// not targeted.
		if seg == models.SegmentUnmapped {
			return models.Campaign{}, fmt.Errorf("segment %q cannot be targeted", name)
		}
		c.Segments = append(c.Segments, seg)
	}

	if s.MinAverageSpend != nil {
		threshold := decimal.NewFromFloat(*s.MinAverageSpend)
		c.MinAverageSpend = &threshold
	}

	return c, nil
}
