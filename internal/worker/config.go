// Package worker runs background jobs for Yatri: planner cache warm-up and
// planner health checks, triggered over Pub/Sub.
package worker

import (
	"time"
)

// Pair is an origin and destination named the way riders type them.
type Pair struct {
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
}

// WarmupConfig holds configuration for the warm-up job.
type WarmupConfig struct {
	// Pairs are the journeys to prefetch. If empty, uses DefaultPairs.
	Pairs []Pair

	// Concurrency is the number of pairs planned at once.
	// Default: 4
	Concurrency int

	// Timeout bounds each pair.
	// Default: 45 seconds
	Timeout time.Duration
}

// DefaultWarmupConfig returns the default warm-up configuration.
func DefaultWarmupConfig() WarmupConfig {
	return WarmupConfig{
		Pairs:       DefaultPairs(),
		Concurrency: 4,
		Timeout:     45 * time.Second,
	}
}

// DefaultPairs returns the busiest Mumbai suburban commutes, in both
// directions where the reverse trip is common.
func DefaultPairs() []Pair {
	return []Pair{
		{Origin: "Churchgate", Destination: "Andheri"},
		{Origin: "Andheri", Destination: "Churchgate"},
		{Origin: "CST", Destination: "Thane"},
		{Origin: "Thane", Destination: "CST"},
		{Origin: "Dadar", Destination: "Bandra"},
		{Origin: "Bandra", Destination: "Lower Parel"},
		{Origin: "Kurla", Destination: "Ghatkopar"},
		{Origin: "Ghatkopar", Destination: "Andheri"},
		{Origin: "Mumbai Central", Destination: "Dadar"},
		{Origin: "Thane", Destination: "Dadar"},
	}
}

func (c WarmupConfig) withDefaults() WarmupConfig {
	d := DefaultWarmupConfig()
	if len(c.Pairs) == 0 {
		c.Pairs = d.Pairs
	}
	if c.Concurrency <= 0 {
		c.Concurrency = d.Concurrency
	}
	if c.Timeout <= 0 {
		c.Timeout = d.Timeout
	}
	return c
}
