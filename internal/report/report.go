// Package report renders scored results for file export and terminal
// display. The CSV export is deterministic: identical result slices
// produce byte-identical output, so reruns can be diffed. Run metadata
// (ids, timestamps) lives in the store, never in the export.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/parkstone-group/sitescore-cli/internal/model"
)

// csvColumns defines the ordered screening export columns. Scoring
// columns stay empty on skipped and failed rows; only the status and
// reason speak for those sites.
var csvColumns = []string{
	"site_id",
	"site_name",
	"deal_type",
	"status",
	"reason",
	"lat",
	"lon",
	"classification",
	"basis_boost",
	"transit_distance_mi",
	"transit_points",
	"park_distance_mi",
	"park_points",
	"grocery_distance_mi",
	"grocery_points",
	"elementary_distance_mi",
	"elementary_points",
	"medical_distance_mi",
	"medical_points",
	"amenity_total",
	"approximate",
	"projects_1mi",
	"projects_2mi",
	"one_mile_fatal",
	"two_mile_penalty",
	"viability_ratio",
	"tier",
	"explanation",
}

// WriteCSV writes one row per result in input order, header first.
func WriteCSV(w io.Writer, results []model.ScoreResult) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(csvColumns); err != nil {
		return eris.Wrap(err, "report: write header")
	}

	for i := range results {
		if err := cw.Write(buildRow(&results[i])); err != nil {
			return eris.Wrapf(err, "report: write row for site %s", results[i].SiteID)
		}
	}

	return nil
}

// buildRow maps a ScoreResult to an export row. Distances render with
// two decimals and the viability ratio with three, matching how they
// are stored.
func buildRow(r *model.ScoreResult) []string {
	lat, lon := "", ""
	if r.Lat != 0 || r.Lon != 0 {
		lat = strconv.FormatFloat(r.Lat, 'f', -1, 64)
		lon = strconv.FormatFloat(r.Lon, 'f', -1, 64)
	}

	row := []string{
		r.SiteID,
		r.SiteName,
		string(r.DealType),
		string(r.Status),
		r.Reason,
		lat,
		lon,
	}
	row = append(row, eligibilityColumns(r.Eligibility)...)
	row = append(row, categoryColumns(r)...)
	row = append(row, competitionColumns(r.Competition)...)

	ratio := ""
	if r.Status == model.StatusOK {
		ratio = fmt.Sprintf("%.3f", r.ViabilityRatio)
	}
	row = append(row, ratio, r.Tier, strings.Join(r.Explanation, "; "))

	return row
}

func eligibilityColumns(e *model.EligibilityResult) []string {
	if e == nil {
		return make([]string, 2)
	}
	return []string{
		e.Classification,
		fmt.Sprintf("%v", e.BasisBoostEligible),
	}
}

// categoryColumns emits distance/points pairs in report order plus the
// stored total and the centroid-fallback flag. A category scored with
// no candidate at all has no distance to show.
func categoryColumns(r *model.ScoreResult) []string {
	if len(r.Categories) == 0 {
		return make([]string, 2*len(model.Categories())+2)
	}

	byCategory := make(map[model.AmenityCategory]model.CategoryScore, len(r.Categories))
	approximate := false
	for _, c := range r.Categories {
		byCategory[c.Category] = c
		if c.Approximate {
			approximate = true
		}
	}

	cols := make([]string, 0, 2*len(model.Categories())+2)
	for _, cat := range model.Categories() {
		c := byCategory[cat]
		dist := ""
		if c.AmenityName != "" {
			dist = fmt.Sprintf("%.2f", c.DistanceMi)
		}
		cols = append(cols, dist, fmt.Sprintf("%d", c.Points))
	}
	cols = append(cols, fmt.Sprintf("%d", r.AmenityTotal), fmt.Sprintf("%v", approximate))
	return cols
}

func competitionColumns(c *model.CompetitionResult) []string {
	if c == nil {
		return make([]string, 4)
	}
	return []string{
		fmt.Sprintf("%d", c.ProjectsWithin1Mi),
		fmt.Sprintf("%d", c.ProjectsWithin2Mi),
		fmt.Sprintf("%v", c.OneMileFatal),
		fmt.Sprintf("%v", c.TwoMilePenalty),
	}
}

// FormatExplanation renders one result as the terminal block printed
// after a single-site screen. Skipped and failed sites stop after the
// status line; partial sections print only what was actually computed.
func FormatExplanation(r *model.ScoreResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Site:     %s (%s)\n", r.SiteName, r.SiteID)
	fmt.Fprintf(&b, "Deal:     %s\n", r.DealType)
	if r.Reason != "" {
		fmt.Fprintf(&b, "Status:   %s (%s)\n", r.Status, r.Reason)
	} else {
		fmt.Fprintf(&b, "Status:   %s\n", r.Status)
	}

	if t := r.Tract; t != nil {
		if t.ZIP != "" {
			fmt.Fprintf(&b, "Tract:    %s, ZIP %s\n", t, t.ZIP)
		} else {
			fmt.Fprintf(&b, "Tract:    %s\n", t)
		}
	}
	if e := r.Eligibility; e != nil {
		if e.BasisBoostEligible {
			fmt.Fprintf(&b, "Boost:    %s (%.0f%% basis boost)\n", e.Classification, e.BoostFactor*100)
		} else {
			fmt.Fprintf(&b, "Boost:    %s\n", e.Classification)
		}
	}
	if r.Tier != "" {
		fmt.Fprintf(&b, "Tier:     %s (viability %.3f)\n", r.Tier, r.ViabilityRatio)
	}

	if len(r.Categories) > 0 {
		b.WriteString("\nAmenities:\n")
		for _, c := range r.Categories {
			fmt.Fprintf(&b, "  %-12s %2d pts", c.Category, c.Points)
			if c.AmenityName != "" {
				mark := ""
				if c.Approximate {
					mark = "~"
				}
				fmt.Fprintf(&b, "  %s%.2f mi  %s", mark, c.DistanceMi, c.AmenityName)
			}
			if c.Detail != "" {
				fmt.Fprintf(&b, " (%s)", c.Detail)
			}
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "  %-12s %2d pts\n", "total", r.AmenityTotal)
	}

	if len(r.Explanation) > 0 {
		b.WriteString("\nWhy:\n")
		for _, line := range r.Explanation {
			fmt.Fprintf(&b, "  - %s\n", line)
		}
	}

	return b.String()
}
