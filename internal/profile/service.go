package profile

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// ServiceConfig holds configuration for the profile service.
type ServiceConfig struct {
	Repository Repository
	Logger     zerolog.Logger

	// CacheTTL is how long profiles read from the repository are cached.
	CacheTTL time.Duration

	// Defaults are served when the repository has no entry or fails
	// (default: Builtin).
	Defaults map[string]Profile
}

// Service resolves rider profiles with caching and a built-in fallback.
type Service struct {
	repo     Repository
	logger   zerolog.Logger
	cacheTTL time.Duration
	defaults map[string]Profile

	mu          sync.RWMutex
	cache       map[string]Profile
	cacheExpiry time.Time
}

// NewService creates a new profile service.
func NewService(cfg ServiceConfig) *Service {
	cacheTTL := cfg.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 5 * time.Minute
	}

	defaults := cfg.Defaults
	if defaults == nil {
		defaults = Builtin()
	}

	return &Service{
		repo:     cfg.Repository,
		logger:   cfg.Logger,
		cacheTTL: cacheTTL,
		defaults: defaults,
		cache:    make(map[string]Profile),
	}
}

// Get returns the profile for key. Unknown keys resolve to the default
// profile, so Get always returns a usable profile.
func (s *Service) Get(ctx context.Context, key string) Profile {
	if key == "" {
		key = DefaultKey
	}

	p, err := s.Lookup(ctx, key)
	if err == nil {
		return p
	}

	s.logger.Debug().Str("profile", key).Msg("unknown profile, using default")
	if p, err := s.Lookup(ctx, DefaultKey); err == nil {
		return p
	}
	return Builtin()[DefaultKey]
}

// Lookup returns the profile for key or ErrProfileNotFound.
func (s *Service) Lookup(ctx context.Context, key string) (Profile, error) {
	if p, ok := s.getCached(key); ok {
		return p, nil
	}

	if s.repo != nil {
		p, err := s.repo.Get(ctx, key)
		if err == nil {
			s.setCached(*p)
			return *p, nil
		}
		if !errors.Is(err, ErrProfileNotFound) {
			s.logger.Warn().Err(err).Str("profile", key).Msg("failed to get profile from repository")
		}
	}

	if p, ok := s.defaults[key]; ok {
		return p, nil
	}
	return Profile{}, ErrProfileNotFound
}

// List returns all profiles ordered by key, repository entries overriding
// the defaults.
func (s *Service) List(ctx context.Context) []Profile {
	merged := make(map[string]Profile, len(s.defaults))
	for k, v := range s.defaults {
		merged[k] = v
	}

	if s.repo != nil {
		profiles, err := s.repo.List(ctx)
		if err != nil {
			s.logger.Warn().Err(err).Msg("failed to list profiles from repository, using defaults")
		}
		for _, p := range profiles {
			merged[p.Key] = p
		}
	}

	out := make([]Profile, 0, len(merged))
	for _, p := range merged {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// InvalidateCache clears cached profiles.
func (s *Service) InvalidateCache() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache = make(map[string]Profile)
	s.cacheExpiry = time.Time{}
}

func (s *Service) getCached(key string) (Profile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if time.Now().After(s.cacheExpiry) {
		return Profile{}, false
	}
	p, ok := s.cache[key]
	return p, ok
}

func (s *Service) setCached(p Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cacheExpiry.Before(time.Now()) {
		s.cache = make(map[string]Profile)
		s.cacheExpiry = time.Now().Add(s.cacheTTL)
	}
	s.cache[p.Key] = p
}
