// Package eligibility turns a site's designation set into the federal
// basis-boost determination. Pure computation, no I/O.
package eligibility

import (
	"github.com/rotisserie/eris"

	"github.com/parkstone-group/sitescore-cli/internal/model"
)

// Classification labels, ordered by precedence.
const (
	ClassQCTAndDDA       = "QCT + DDA"
	ClassQCTOnly         = "QCT Only"
	ClassDDAOnly         = "DDA Only"
	ClassOpportunityOnly = "Opportunity Area Only"
	ClassNoBoost         = "No Boost"
)

// BoostFactor is the flat 30% basis boost. Eligibility is binary; there is
// no partial or interpolated boost.
const BoostFactor = 0.30

// Evaluate classifies a designation set. An empty set is a valid "No
// Boost" outcome; a set the Resolver could never legitimately produce is
// an ErrInvalidDesignationSet contract violation.
func Evaluate(designations []model.Designation) (model.EligibilityResult, error) {
	var res model.EligibilityResult
	res.OpportunityTier = model.OppTierNone

	for _, d := range designations {
		switch d.Kind {
		case model.DesignationQCT:
			res.QCT = true
		case model.DesignationDDA:
			res.DDA = true
		case model.DesignationOpportunity:
			if d.Tier.Rank() <= model.OppTierNone.Rank() {
				return model.EligibilityResult{}, eris.Wrapf(model.ErrInvalidDesignationSet,
					"eligibility: opportunity designation with tier %q", d.Tier)
			}
			if d.Tier.Rank() > res.OpportunityTier.Rank() {
				res.OpportunityTier = d.Tier
			}
		default:
			return model.EligibilityResult{}, eris.Wrapf(model.ErrInvalidDesignationSet,
				"eligibility: unknown designation kind %q", d.Kind)
		}
	}

	res.Classification = classify(res)
	res.BasisBoostEligible = res.QCT || res.DDA || res.OpportunityTier != model.OppTierNone
	if res.BasisBoostEligible {
		res.BoostFactor = BoostFactor
	}
	return res, nil
}

func classify(res model.EligibilityResult) string {
	switch {
	case res.QCT && res.DDA:
		return ClassQCTAndDDA
	case res.QCT:
		return ClassQCTOnly
	case res.DDA:
		return ClassDDAOnly
	case res.OpportunityTier != model.OppTierNone:
		return ClassOpportunityOnly
	default:
		return ClassNoBoost
	}
}
