package ranking

import (
	"math"
	"sort"
)

// minDistinct is the candidate count from which every shown route must
// respect the diversity gap.
const minDistinct = 3

// Shortlist picks the user-facing routes from the deduplicated candidates:
// the fastest ones, then the cheapest and fewest-transfer ones, skipping any
// that fall within the diversity gap of a route already shown, topped up with
// the best scoring remaining routes when too few were picked. The fastest
// route is always shown; the gap is waived for the other fastest routes only
// when there are fewer than minDistinct candidates. Route ids follow list
// order starting at 1.
func (f *Formatter) Shortlist(cands []Candidate, cfg Config) []Route {
	cfg = cfg.withDefaults()
	if len(cands) == 0 {
		return nil
	}

	cands = append([]Candidate(nil), cands...)
	for i := range cands {
		if cands[i].Metrics == nil {
			m := Metrics{
				DurationMinutes: cands[i].Itinerary.DurationMinutes(),
				Transfers:       cands[i].Itinerary.Transfers(),
			}
			cands[i].Metrics = &m
		}
	}

	bySpeed := head(sortedBy(cands, func(a, b *Metrics) bool {
		return a.DurationMinutes < b.DurationMinutes
	}), cfg.PerCategory)
	byCost := head(sortedBy(cands, func(a, b *Metrics) bool {
		return a.Cost < b.Cost
	}), cfg.PerCategory)
	byTransfers := head(sortedBy(cands, func(a, b *Metrics) bool {
		if a.Transfers != b.Transfers {
			return a.Transfers < b.Transfers
		}
		return a.DurationMinutes < b.DurationMinutes
	}), cfg.PerCategory)

	var out []Route
	within := func(minutes, gap float64) bool {
		for _, r := range out {
			if math.Abs(r.DurationMinutes-minutes) < gap {
				return true
			}
		}
		return false
	}
	push := func(c Candidate, label string) {
		out = append(out, f.Route(c, len(out)+1, label))
	}

	for i, c := range bySpeed {
		if i > 0 && len(cands) >= minDistinct && within(c.Metrics.DurationMinutes, cfg.DiversityGap) {
			continue
		}
		push(c, LabelFastest)
	}
	for _, c := range byCost {
		if !within(c.Metrics.DurationMinutes, cfg.DiversityGap) {
			push(c, LabelCheapest)
		}
	}
	for _, c := range byTransfers {
		if within(c.Metrics.DurationMinutes, cfg.DiversityGap) {
			continue
		}
		label := LabelBest
		if c.Metrics.Transfers == 0 {
			label = LabelDirect
		}
		push(c, label)
	}

	if len(out) < cfg.MinRoutes {
		var rest []Candidate
		for _, c := range cands {
			if !within(c.Metrics.DurationMinutes, cfg.FillGap) {
				rest = append(rest, c)
			}
		}
		sort.SliceStable(rest, func(i, j int) bool {
			return rest[i].Metrics.Score > rest[j].Metrics.Score
		})
		for _, c := range head(rest, cfg.MinRoutes-len(out)) {
			push(c, LabelGood)
		}
	}

	if len(out) > cfg.FinalCap {
		out = out[:cfg.FinalCap]
	}
	return out
}
