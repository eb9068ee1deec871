package model

// EvalStatus is the per-site outcome of a screening run.
type EvalStatus string

const (
	StatusOK      EvalStatus = "ok"      // fully scored
	StatusSkipped EvalStatus = "skipped" // could not be placed; nothing downstream ran
	StatusFailed  EvalStatus = "failed"  // internal error mid-score
)

// EligibilityResult holds the federal basis-boost determination.
type EligibilityResult struct {
	QCT                bool            `json:"qct"`
	DDA                bool            `json:"dda"`
	OpportunityTier    OpportunityTier `json:"opportunity_tier"`
	Classification     string          `json:"classification"`
	BasisBoostEligible bool            `json:"basis_boost_eligible"`
	BoostFactor        float64         `json:"boost_factor"`
}

// NearbyProject is the closest competing project, retained so the
// competition outcome can be explained from the result row alone.
type NearbyProject struct {
	Name       string  `json:"name"`
	DistanceMi float64 `json:"distance_mi"`
	AwardYear  int     `json:"award_year"`
}

// CompetitionResult holds the proximity competition evaluation. Counts are
// raw radius counts; the fatal and penalty flags additionally apply the
// award-year rules and are always false for 4% deals.
type CompetitionResult struct {
	ProjectsWithin1Mi int            `json:"projects_within_1mi"`
	ProjectsWithin2Mi int            `json:"projects_within_2mi"`
	OneMileFatal      bool           `json:"one_mile_fatal"`
	TwoMilePenalty    bool           `json:"two_mile_penalty"`
	Nearest           *NearbyProject `json:"nearest,omitempty"`
}

// CategoryScore is the awarded amenity score for one category. DistanceMi
// is statute miles rounded to 2 decimals; Approximate marks centroid-based
// distances taken when no parcel boundary was available.
type CategoryScore struct {
	Category    AmenityCategory `json:"category"`
	Points      int             `json:"points"`
	DistanceMi  float64         `json:"distance_mi,omitempty"`
	AmenityName string          `json:"amenity_name,omitempty"`
	Approximate bool            `json:"approximate,omitempty"`
	Detail      string          `json:"detail,omitempty"`
}

// ScoreResult is the complete screening outcome for one site. Exactly one
// row exists per input site regardless of status; skipped and failed rows
// carry a reason and leave the scoring sections zero.
type ScoreResult struct {
	SiteID         string             `json:"site_id"`
	SiteName       string             `json:"site_name"`
	DealType       DealType           `json:"deal_type"`
	Status         EvalStatus         `json:"status"`
	Reason         string             `json:"reason,omitempty"`
	Lat            float64            `json:"lat,omitempty"`
	Lon            float64            `json:"lon,omitempty"`
	Tract          *TractReference    `json:"tract,omitempty"`
	CountyMatch    string             `json:"county_match,omitempty"` // mapping tier that resolved the county
	Eligibility    *EligibilityResult `json:"eligibility,omitempty"`
	Competition    *CompetitionResult `json:"competition,omitempty"`
	Categories     []CategoryScore    `json:"categories,omitempty"`
	AmenityTotal   int                `json:"amenity_total"`
	ViabilityRatio float64            `json:"viability_ratio,omitempty"`
	ViabilityBasis string             `json:"viability_basis,omitempty"`
	Tier           string             `json:"tier,omitempty"`
	Explanation    []string           `json:"explanation,omitempty"`
}

// SumCategoryPoints totals the stored per-category scores. AmenityTotal
// must always equal this sum.
func (r *ScoreResult) SumCategoryPoints() int {
	total := 0
	for _, c := range r.Categories {
		total += c.Points
	}
	return total
}
