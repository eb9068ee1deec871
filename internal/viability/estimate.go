// Package viability estimates a development's first-year revenue-to-cost
// ratio from rent assumptions and acquisition economics. The ratio feeds
// the ranking bands; it is an underwriting screen, not a full pro forma.
package viability

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/parkstone-group/sitescore-cli/internal/config"
	"github.com/parkstone-group/sitescore-cli/internal/model"
	"github.com/parkstone-group/sitescore-cli/internal/refdata"
)

// Estimate holds one site's viability computation.
type Estimate struct {
	Units           int     `json:"units"`
	MonthlyRent     float64 `json:"monthly_rent"`
	RentBasis       string  `json:"rent_basis"` // "county", "state" or "default"
	AnnualNetIncome float64 `json:"annual_net_income"`
	TotalCost       float64 `json:"total_cost"`
	Equity          float64 `json:"equity"`
	Ratio           float64 `json:"ratio"` // 3 decimals
}

// Estimator computes viability ratios using the rent table with a
// county -> state -> configured-default fallback.
type Estimator struct {
	rents *refdata.RentTable
	cfg   config.ViabilityConfig
}

// NewEstimator fills zero config values with the statewide defaults.
func NewEstimator(rents *refdata.RentTable, cfg config.ViabilityConfig) *Estimator {
	if cfg.DefaultRentMonthly <= 0 {
		cfg.DefaultRentMonthly = 1450
	}
	if cfg.VacancyRate <= 0 {
		cfg.VacancyRate = 0.05
	}
	if cfg.OpexRatio <= 0 {
		cfg.OpexRatio = 0.38
	}
	if cfg.ConstructionPerUnitUSD <= 0 {
		cfg.ConstructionPerUnitUSD = 215000
	}
	if cfg.BasisEquityShare <= 0 {
		cfg.BasisEquityShare = 0.40
	}
	return &Estimator{rents: rents, cfg: cfg}
}

// Estimate computes the ratio for a site. county may be empty when county
// resolution failed; the rent lookup then falls through to the state or
// default level. boostFactor scales the equity assumption and is zero for
// boost-ineligible sites.
func (e *Estimator) Estimate(site model.Site, county string, boostFactor float64) Estimate {
	units := site.ProposedUnits()

	rent := e.cfg.DefaultRentMonthly
	basis := refdata.RentBasisDefault
	if e.rents != nil {
		if r, b, ok := e.rents.Lookup(county, site.State); ok {
			rent, basis = r, b
		}
	}

	annualNet := float64(units) * rent * 12 * (1 - e.cfg.VacancyRate) * (1 - e.cfg.OpexRatio)
	construction := float64(units) * e.cfg.ConstructionPerUnitUSD
	totalCost := site.AskingPriceUSD + construction
	equity := e.cfg.BasisEquityShare * construction * (1 + boostFactor)

	est := Estimate{
		Units:           units,
		MonthlyRent:     rent,
		RentBasis:       basis,
		AnnualNetIncome: annualNet,
		TotalCost:       totalCost,
		Equity:          equity,
	}
	if denom := totalCost - equity; denom > 0 {
		est.Ratio = math.Round(annualNet/denom*1000) / 1000
	}

	zap.L().Debug("viability: ratio computed",
		zap.String("site_id", site.ID),
		zap.Int("units", units),
		zap.Float64("monthly_rent", rent),
		zap.String("rent_basis", basis),
		zap.Float64("boost_factor", boostFactor),
		zap.Float64("ratio", est.Ratio),
	)

	return est
}

// FormatMoney renders a dollar amount in compact human-readable form for
// explanation strings.
func FormatMoney(amount float64) string {
	switch {
	case amount >= 1_000_000_000:
		return fmt.Sprintf("$%.1fB", amount/1_000_000_000)
	case amount >= 1_000_000:
		return fmt.Sprintf("$%.1fM", amount/1_000_000)
	case amount >= 1_000:
		return fmt.Sprintf("$%.0fK", amount/1_000)
	default:
		return fmt.Sprintf("$%.0f", amount)
	}
}
