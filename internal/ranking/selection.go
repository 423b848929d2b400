package ranking

import (
	"fmt"
	"sort"

	"github.com/yatri/yatri/internal/itinerary"
)

// mixedScan is how many of the best-balanced candidates are offered to the
// mixed bucket.
const mixedScan = 3

// Signature is the coarse key two itineraries share when a rider would not
// tell them apart: same 5-minute duration bucket, same transfer count and
// same 10-rupee cost bucket.
type Signature struct {
	DurationBucket int
	Transfers      int
	CostBucket     int
}

// SignatureOf returns the dedup signature of m.
func SignatureOf(m Metrics) Signature {
	return Signature{
		DurationBucket: int(m.DurationMinutes / 5),
		Transfers:      m.Transfers,
		CostBucket:     m.Cost / 10,
	}
}

// balancedScore rewards short, direct and cheap itineraries equally.
func balancedScore(m Metrics) float64 {
	return 100/max(m.DurationMinutes, 1) +
		100/max(float64(m.Transfers+1), 1) +
		100/max(float64(m.Cost), 1)
}

// Select deduplicates candidates by signature into the fastest, cheapest,
// fewest-transfers and mixed buckets, tags each survivor with its bucket and
// returns at most cfg.DedupCap entries in bucket order. Every candidate must
// carry metrics.
func Select(cands []Candidate, cfg Config) ([]Candidate, error) {
	cfg = cfg.withDefaults()

	for i := range cands {
		if cands[i].Metrics == nil {
			return nil, fmt.Errorf("candidate %d: %w", i, ErrMissingMetrics)
		}
	}

	bySpeed := sortedBy(cands, func(a, b *Metrics) bool {
		return a.DurationMinutes < b.DurationMinutes
	})
	byCost := sortedBy(cands, func(a, b *Metrics) bool {
		return a.Cost < b.Cost
	})
	byTransfers := sortedBy(cands, func(a, b *Metrics) bool {
		if a.Transfers != b.Transfers {
			return a.Transfers < b.Transfers
		}
		return a.DurationMinutes < b.DurationMinutes
	})
	balanced := sortedBy(cands, func(a, b *Metrics) bool {
		return balancedScore(*a) > balancedScore(*b)
	})

	seen := make(map[Signature]bool)
	order := []itinerary.Category{
		itinerary.CategoryFastest,
		itinerary.CategoryCheapest,
		itinerary.CategoryFewestTransfers,
		itinerary.CategoryMixed,
	}
	buckets := make(map[itinerary.Category][]Candidate, len(order))

	add := func(c Candidate, cat itinerary.Category, capacity int) {
		sig := SignatureOf(*c.Metrics)
		if seen[sig] || len(buckets[cat]) >= capacity {
			return
		}
		seen[sig] = true
		c.Category = cat
		buckets[cat] = append(buckets[cat], c)
	}

	for _, c := range head(bySpeed, cfg.BucketScan) {
		add(c, itinerary.CategoryFastest, cfg.BucketCap)
	}
	for _, c := range head(byCost, cfg.BucketScan) {
		add(c, itinerary.CategoryCheapest, cfg.BucketCap)
	}
	for _, c := range head(byTransfers, cfg.BucketScan) {
		add(c, itinerary.CategoryFewestTransfers, cfg.BucketCap)
	}
	for _, c := range head(balanced, mixedScan) {
		add(c, itinerary.CategoryMixed, cfg.MixedCap)
	}

	out := make([]Candidate, 0, cfg.DedupCap)
	for _, cat := range order {
		out = append(out, buckets[cat]...)
	}
	if len(out) > cfg.DedupCap {
		out = out[:cfg.DedupCap]
	}
	return out, nil
}

func sortedBy(cands []Candidate, less func(a, b *Metrics) bool) []Candidate {
	out := make([]Candidate, len(cands))
	copy(out, cands)
	sort.SliceStable(out, func(i, j int) bool {
		return less(out[i].Metrics, out[j].Metrics)
	})
	return out
}

func head(cands []Candidate, n int) []Candidate {
	if len(cands) > n {
		return cands[:n]
	}
	return cands
}
