// Package ranking assigns the final investment tier from the viability
// ratio and the competition flags.
package ranking

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/parkstone-group/sitescore-cli/internal/config"
	"github.com/parkstone-group/sitescore-cli/internal/model"
)

// Tier labels as they appear in reports and stored results.
const (
	TierFatal         = "Fatal"
	TierExceptional   = "Exceptional"
	TierHighPotential = "High Potential"
	TierGood          = "Good"
	TierPoor          = "Poor"
)

// Bands holds the viability ratio cutoffs. Each band is entered at its
// cutoff inclusive; ratios below Good rank Poor. Ratios arrive already
// rounded to three decimals, so the comparisons here never disagree with
// the stored value.
type Bands struct {
	Exceptional   float64
	HighPotential float64
	Good          float64
}

// BandsFromConfig builds Bands from config, filling zero values with the
// standard cutoffs.
func BandsFromConfig(cfg config.ScoringConfig) Bands {
	b := Bands{
		Exceptional:   cfg.ExceptionalRatio,
		HighPotential: cfg.HighPotentialRatio,
		Good:          cfg.GoodRatio,
	}
	if b.Exceptional == 0 {
		b.Exceptional = 0.090
	}
	if b.HighPotential == 0 {
		b.HighPotential = 0.085
	}
	if b.Good == 0 {
		b.Good = 0.078
	}
	return b
}

// Validate checks that the cutoffs are positive and strictly descending.
func (b Bands) Validate() error {
	var errs []string

	if b.Good <= 0 {
		errs = append(errs, "good_ratio must be > 0")
	}
	if b.HighPotential <= b.Good {
		errs = append(errs, "high_potential_ratio must be > good_ratio")
	}
	if b.Exceptional <= b.HighPotential {
		errs = append(errs, "exceptional_ratio must be > high_potential_ratio")
	}

	if len(errs) > 0 {
		return eris.Errorf("ranking: band validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Rank assigns the tier for one scored site. A competing award inside the
// one-mile radius is fatal for competitive 9% deals and overrides every
// ratio band; 4% deals never rank Fatal.
func (b Bands) Rank(dealType model.DealType, comp *model.CompetitionResult, ratio float64) string {
	if dealType.Competitive() && comp != nil && comp.OneMileFatal {
		return TierFatal
	}

	switch {
	case ratio >= b.Exceptional:
		return TierExceptional
	case ratio >= b.HighPotential:
		return TierHighPotential
	case ratio >= b.Good:
		return TierGood
	default:
		return TierPoor
	}
}

// Describe returns the one-line reason for an assigned tier, used in the
// per-site explanation block.
func (b Bands) Describe(tier string, ratio float64) string {
	switch tier {
	case TierFatal:
		return "competing award within one mile is fatal for a 9% application"
	case TierExceptional:
		return fmt.Sprintf("viability ratio %.3f clears the exceptional band at %.3f", ratio, b.Exceptional)
	case TierHighPotential:
		return fmt.Sprintf("viability ratio %.3f clears the high potential band at %.3f", ratio, b.HighPotential)
	case TierGood:
		return fmt.Sprintf("viability ratio %.3f clears the good band at %.3f", ratio, b.Good)
	default:
		return fmt.Sprintf("viability ratio %.3f falls below the good band at %.3f", ratio, b.Good)
	}
}
