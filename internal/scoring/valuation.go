package scoring

import (
	"errors"
	"fmt"
	"math"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// ReachTier maps a follower floor to a base price.
type ReachTier struct {
	MinFollowers int64   `yaml:"min_followers" json:"min_followers"`
	Base         float64 `yaml:"base" json:"base"`
}

// QualityBand maps a JetScore floor to a price multiplier.
type QualityBand struct {
	MinScore   int     `yaml:"min_score" json:"min_score"`
	Multiplier float64 `yaml:"multiplier" json:"multiplier"`
}

// Policy is the product-owned pricing table behind ComputeValuation.
type Policy struct {
	ReachTiers []ReachTier `yaml:"reach_tiers" json:"reach_tiers"`
	// Price added per average interaction (likes + comments) on a post.
	EngagementRate float64       `yaml:"engagement_rate" json:"engagement_rate"`
	QualityBands   []QualityBand `yaml:"quality_bands" json:"quality_bands"`
}

func DefaultPolicy() Policy {
	return Policy{
		ReachTiers: []ReachTier{
			{MinFollowers: 1_000_000, Base: 2500},
			{MinFollowers: 100_000, Base: 800},
			{MinFollowers: 10_000, Base: 200},
			{MinFollowers: 1_000, Base: 50},
			{MinFollowers: 0, Base: 20},
		},
		EngagementRate: 0.10,
		QualityBands: []QualityBand{
			{MinScore: 80, Multiplier: 1.5},
			{MinScore: 60, Multiplier: 1.25},
			{MinScore: 40, Multiplier: 1.0},
			{MinScore: 20, Multiplier: 0.85},
			{MinScore: 0, Multiplier: 0.7},
		},
	}
}

// Validate checks the table is usable and sorts tiers and bands highest first.
func (p *Policy) Validate() error {
	if len(p.ReachTiers) == 0 {
		return errors.New("valuation policy: reach_tiers is empty")
	}
	if len(p.QualityBands) == 0 {
		return errors.New("valuation policy: quality_bands is empty")
	}
	if p.EngagementRate < 0 {
		return fmt.Errorf("valuation policy: engagement_rate %v is negative", p.EngagementRate)
	}

	sort.Slice(p.ReachTiers, func(i, j int) bool {
		return p.ReachTiers[i].MinFollowers > p.ReachTiers[j].MinFollowers
	})
	sort.Slice(p.QualityBands, func(i, j int) bool {
		return p.QualityBands[i].MinScore > p.QualityBands[j].MinScore
	})

	for _, t := range p.ReachTiers {
		if t.Base < 0 {
			return fmt.Errorf("valuation policy: tier %d has negative base", t.MinFollowers)
		}
	}
	for _, b := range p.QualityBands {
		if b.Multiplier <= 0 {
			return fmt.Errorf("valuation policy: band %d has non-positive multiplier", b.MinScore)
		}
	}
	if p.ReachTiers[len(p.ReachTiers)-1].MinFollowers != 0 {
		return errors.New("valuation policy: reach_tiers needs a 0-follower floor")
	}
	if p.QualityBands[len(p.QualityBands)-1].MinScore != 0 {
		return errors.New("valuation policy: quality_bands needs a 0-score floor")
	}
	return nil
}

// LoadPolicy reads a YAML policy file. An empty path or a missing file yields
// the default policy.
func LoadPolicy(path string) (Policy, error) {
	if path == "" {
		return DefaultPolicy(), nil
	}
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return DefaultPolicy(), nil
	}
	if err != nil {
		return Policy{}, fmt.Errorf("read valuation policy: %w", err)
	}

	var p Policy
	if err := yaml.Unmarshal(raw, &p); err != nil {
		return Policy{}, fmt.Errorf("parse valuation policy: %w", err)
	}
	if err := p.Validate(); err != nil {
		return Policy{}, err
	}
	return p, nil
}

type Breakdown struct {
	Base              float64 `json:"base"`
	EngagementBonus   float64 `json:"engagement_bonus"`
	QualityMultiplier float64 `json:"quality_multiplier"`
}

// Valuation is a recommended per-post price. The breakdown is exposed because
// the UI shows every term.
type Valuation struct {
	Total     float64   `json:"total"`
	Breakdown Breakdown `json:"breakdown"`
}

// ComputeValuation prices one post as (base + engagement bonus) * quality multiplier.
// The policy must have passed Validate.
func ComputeValuation(p Policy, followers int64, jetScore int, avgEngagement float64) Valuation {
	if avgEngagement < 0 || math.IsNaN(avgEngagement) {
		avgEngagement = 0
	}

	b := Breakdown{
		Base:              baseFor(p, followers),
		EngagementBonus:   roundCents(avgEngagement * p.EngagementRate),
		QualityMultiplier: multiplierFor(p, jetScore),
	}
	return Valuation{
		Total:     roundCents((b.Base + b.EngagementBonus) * b.QualityMultiplier),
		Breakdown: b,
	}
}

func baseFor(p Policy, followers int64) float64 {
	for _, t := range p.ReachTiers {
		if followers >= t.MinFollowers {
			return t.Base
		}
	}
	return 0
}

func multiplierFor(p Policy, score int) float64 {
	for _, b := range p.QualityBands {
		if score >= b.MinScore {
			return b.Multiplier
		}
	}
	return 1
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
