package pipeline

import (
	"fmt"

	"github.com/parkstone-group/sitescore-cli/internal/model"
	"github.com/parkstone-group/sitescore-cli/internal/ranking"
	"github.com/parkstone-group/sitescore-cli/internal/refdata"
	"github.com/parkstone-group/sitescore-cli/internal/viability"
)

// explain assembles the human-readable reasons behind a scored row, in
// pipeline order: designations, competition, amenities, underwriting,
// tier. Every line must read from the stored result alone so a row can
// be explained again months later.
func explain(result *model.ScoreResult, county refdata.County, est viability.Estimate, bands ranking.Bands) []string {
	lines := make([]string, 0, 6)

	if elig := result.Eligibility; elig != nil {
		if elig.BasisBoostEligible {
			lines = append(lines, fmt.Sprintf("%s: eligible for the 30%% basis boost", elig.Classification))
		} else {
			lines = append(lines, "no qualifying designation; standard basis")
		}
		if elig.OpportunityTier.Rank() > 0 {
			lines = append(lines, fmt.Sprintf("state opportunity map rates the tract %s resource", elig.OpportunityTier))
		}
	}

	if comp := result.Competition; comp != nil {
		switch {
		case comp.OneMileFatal:
			lines = append(lines, fmt.Sprintf("%d awarded projects within one mile", comp.ProjectsWithin1Mi))
		case comp.TwoMilePenalty:
			lines = append(lines, "a same-cycle award within two miles draws the proximity penalty")
		case comp.ProjectsWithin2Mi > 0:
			lines = append(lines, fmt.Sprintf("%d competing projects within two miles, none disqualifying", comp.ProjectsWithin2Mi))
		default:
			lines = append(lines, "no competing projects within two miles")
		}
		if comp.Nearest != nil {
			lines = append(lines, fmt.Sprintf("nearest competing project is %s (awarded %d) at %.2f mi",
				comp.Nearest.Name, comp.Nearest.AwardYear, comp.Nearest.DistanceMi))
		}
	}

	lines = append(lines, fmt.Sprintf("amenity screening scored %d points", result.AmenityTotal))

	rent := fmt.Sprintf("underwriting %d units at $%.0f/mo rent (%s basis)", est.Units, est.MonthlyRent, est.RentBasis)
	if result.CountyMatch != "" && county.Name != "" {
		rent += fmt.Sprintf(", county %s via %s", county.Name, result.CountyMatch)
	}
	lines = append(lines, rent)

	lines = append(lines, bands.Describe(result.Tier, result.ViabilityRatio))

	return lines
}
