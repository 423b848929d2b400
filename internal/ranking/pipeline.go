package ranking

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/yatri/yatri/internal/itinerary"
	"github.com/yatri/yatri/internal/profile"
)

// RankerConfig holds configuration for the ranker.
type RankerConfig struct {
	Engine  *Engine
	Config  Config
	Metrics *PipelineMetrics
	Logger  zerolog.Logger

	// Concurrency bounds parallel metric computation (default: 8).
	Concurrency int
}

// Ranker runs the full pipeline: degenerate filter, metrics, dedup and
// shortlist.
type Ranker struct {
	engine      *Engine
	cfg         Config
	formatter   *Formatter
	metrics     *PipelineMetrics
	logger      zerolog.Logger
	concurrency int
}

// NewRanker creates a new ranker.
func NewRanker(cfg RankerConfig) *Ranker {
	engine := cfg.Engine
	if engine == nil {
		engine = NewEngine(nil, nil)
	}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 8
	}
	c := cfg.Config.withDefaults()

	return &Ranker{
		engine:      engine,
		cfg:         c,
		formatter:   NewFormatter(c.Location),
		metrics:     cfg.Metrics,
		logger:      cfg.Logger,
		concurrency: concurrency,
	}
}

// Config returns the selection thresholds in use.
func (r *Ranker) Config() Config {
	return r.cfg
}

// Formatter returns the route formatter.
func (r *Ranker) Formatter() *Formatter {
	return r.formatter
}

// Result is the outcome of one ranking run.
type Result struct {
	Routes     []Route
	Received   int
	Degenerate int
	Deduped    int
}

// Rank ranks its under the weights w. The zero Weights value means no rider
// profile was supplied and scores with DefaultWeights; any other value is
// used as given.
func (r *Ranker) Rank(ctx context.Context, its []itinerary.Itinerary, w profile.Weights) (Result, error) {
	if w == (profile.Weights{}) {
		w = DefaultWeights
	}
	start := time.Now()
	res := Result{Received: len(its)}
	r.metrics.addItineraries(len(its))

	kept := make([]itinerary.Itinerary, 0, len(its))
	for _, it := range its {
		if bad, reason := IsDegenerate(it); bad {
			res.Degenerate++
			r.metrics.incDropped(reason, 1)
			r.logger.Debug().
				Str("reason", reason).
				Float64("duration_min", it.DurationMinutes()).
				Str("mode_combo", it.ModeCombo).
				Msg("dropping degenerate itinerary")
			continue
		}
		kept = append(kept, it)
	}

	cands, err := r.score(ctx, kept, w)
	if err != nil {
		return res, err
	}

	selected, err := Select(cands, r.cfg)
	if err != nil {
		return res, err
	}
	res.Deduped = len(selected)
	r.metrics.incDropped(DropDuplicate, len(cands)-len(selected))

	res.Routes = r.formatter.Shortlist(selected, r.cfg)
	for _, route := range res.Routes {
		r.metrics.incSelected(route.RouteType)
	}

	elapsed := time.Since(start)
	r.metrics.observeDuration(elapsed.Seconds())
	r.logger.Debug().
		Int("received", res.Received).
		Int("degenerate", res.Degenerate).
		Int("deduped", res.Deduped).
		Int("routes", len(res.Routes)).
		Dur("duration", elapsed).
		Msg("ranked itineraries")

	return res, nil
}

// score computes metrics for each itinerary in parallel. Metrics have no
// cross-itinerary dependencies, so only the result order is shared.
func (r *Ranker) score(ctx context.Context, its []itinerary.Itinerary, w profile.Weights) ([]Candidate, error) {
	cands := make([]Candidate, len(its))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for i := range its {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			m := r.engine.Compute(its[i], w)
			cands[i] = Candidate{
				Itinerary: its[i],
				Metrics:   &m,
				Category:  its[i].Category,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return cands, nil
}
