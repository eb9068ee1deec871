package amenity

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/parkstone-group/sitescore-cli/internal/model"
)

// maxPeakGapMinutes is the worst consecutive-departure gap a stop may show
// in each peak window and still count as high-frequency service.
const maxPeakGapMinutes = 30

// peakWindows are minutes since midnight for the 7-9 AM and 4-6 PM
// weekday peaks, inclusive on both ends.
var peakWindows = [2]struct{ start, end int }{
	{7 * 60, 9 * 60},
	{16 * 60, 18 * 60},
}

// qualifyTransit decides whether a stop counts as qualified service. HQTA
// stops qualify outright; everything else must show a max gap of at most
// 30 minutes in both peak windows. The detail string feeds the score
// explanation.
func qualifyTransit(a model.Amenity) (bool, string) {
	if a.HQTA {
		return true, "hqta"
	}

	worst := 0
	for _, w := range peakWindows {
		gap, ok := windowMaxGap(a.Departures, w.start, w.end)
		if !ok {
			return false, "sparse peak schedule"
		}
		if gap > worst {
			worst = gap
		}
	}
	detail := fmt.Sprintf("max peak gap %d min", worst)
	return worst <= maxPeakGapMinutes, detail
}

// windowMaxGap computes the largest gap between consecutive departures
// inside [start, end]. Fewer than two departures cannot demonstrate a
// frequency, so ok is false. A sparse-but-even schedule with one long gap
// fails on that gap; averages are never considered.
func windowMaxGap(departures []string, start, end int) (int, bool) {
	var mins []int
	for _, dep := range departures {
		m, err := parseClock(dep)
		if err != nil {
			continue
		}
		if m >= start && m <= end {
			mins = append(mins, m)
		}
	}
	if len(mins) < 2 {
		return 0, false
	}
	sort.Ints(mins)

	gap := 0
	for i := 1; i < len(mins); i++ {
		if d := mins[i] - mins[i-1]; d > gap {
			gap = d
		}
	}
	return gap, true
}

// parseClock converts "HH:MM" to minutes since midnight.
func parseClock(s string) (int, error) {
	h, m, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return 0, fmt.Errorf("no colon in %q", s)
	}
	hour, err := strconv.Atoi(h)
	if err != nil {
		return 0, err
	}
	minute, err := strconv.Atoi(m)
	if err != nil {
		return 0, err
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("clock %q out of range", s)
	}
	return hour*60 + minute, nil
}
