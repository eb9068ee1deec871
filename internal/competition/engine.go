// Package competition applies the state QAP proximity rules against the
// awarded-projects registry. The geometry is identical for both deal
// types; only 9% competitive deals can pick up fatal or penalty flags.
package competition

import (
	"time"

	"go.uber.org/zap"

	"github.com/parkstone-group/sitescore-cli/internal/config"
	"github.com/parkstone-group/sitescore-cli/internal/geospatial"
	"github.com/parkstone-group/sitescore-cli/internal/model"
)

var nowFunc = time.Now

// Rules holds the proximity thresholds for one allocation cycle.
type Rules struct {
	OneMileRadius float64
	TwoMileRadius float64
	LookbackYears int
	CycleYear     int
}

// RulesFromConfig fills zero values with the statewide defaults. CycleYear
// zero means the current calendar year.
func RulesFromConfig(cfg config.RulesConfig) Rules {
	r := Rules{
		OneMileRadius: cfg.OneMileRadius,
		TwoMileRadius: cfg.TwoMileRadius,
		LookbackYears: cfg.LookbackYears,
		CycleYear:     cfg.CycleYear,
	}
	if r.OneMileRadius <= 0 {
		r.OneMileRadius = 1.0
	}
	if r.TwoMileRadius <= 0 {
		r.TwoMileRadius = 2.0
	}
	if r.LookbackYears <= 0 {
		r.LookbackYears = 3
	}
	if r.CycleYear <= 0 {
		r.CycleYear = nowFunc().Year()
	}
	return r
}

// Engine evaluates sites against the registry. Projects without usable
// coordinates are excluded up front; they were already warned about at
// load time and must never count as distance zero.
type Engine struct {
	rules    Rules
	projects []model.CompetingProject
}

// NewEngine filters the registry down to locatable projects.
func NewEngine(rules Rules, projects []model.CompetingProject) *Engine {
	usable := make([]model.CompetingProject, 0, len(projects))
	for _, p := range projects {
		if p.HasCoordinates() {
			usable = append(usable, p)
		}
	}
	if dropped := len(projects) - len(usable); dropped > 0 {
		zap.L().Debug("competition: excluding projects without coordinates",
			zap.Int("dropped", dropped),
			zap.Int("usable", len(usable)))
	}
	return &Engine{rules: rules, projects: usable}
}

// Rules returns the engine's active rule set.
func (e *Engine) Rules() Rules {
	return e.rules
}

// Evaluate computes proximity counts and flags for a located site.
// Distances are rounded to two decimals before every comparison so the
// stored values and the rule outcomes can never disagree. The two-mile
// count is cumulative: projects inside one mile are inside two.
func (e *Engine) Evaluate(lat, lon float64, dealType model.DealType) model.CompetitionResult {
	var res model.CompetitionResult

	for _, p := range e.projects {
		d := geospatial.RoundMiles(geospatial.HaversineMiles(lat, lon, *p.Lat, *p.Lon))
		if d > e.rules.TwoMileRadius {
			continue
		}

		res.ProjectsWithin2Mi++
		if d <= e.rules.OneMileRadius {
			res.ProjectsWithin1Mi++
			if dealType.Competitive() && e.rules.CycleYear-p.AwardYear < e.rules.LookbackYears {
				res.OneMileFatal = true
			}
		}
		if dealType.Competitive() && p.AwardYear == e.rules.CycleYear {
			res.TwoMilePenalty = true
		}

		if betterNearest(res.Nearest, d, p.AwardYear) {
			res.Nearest = &model.NearbyProject{Name: p.Name, DistanceMi: d, AwardYear: p.AwardYear}
		}
	}

	return res
}

// betterNearest prefers the shorter distance; equal distances prefer the
// most recent award.
func betterNearest(cur *model.NearbyProject, d float64, awardYear int) bool {
	if cur == nil {
		return true
	}
	if d != cur.DistanceMi {
		return d < cur.DistanceMi
	}
	return awardYear > cur.AwardYear
}
