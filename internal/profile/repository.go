package profile

import (
	"context"
	"sort"
	"sync"
)

// Repository defines the interface for profile storage.
type Repository interface {
	// Get retrieves a profile by key.
	Get(ctx context.Context, key string) (*Profile, error)

	// List returns all profiles ordered by key.
	List(ctx context.Context) ([]Profile, error)
}

// StaticRepository serves a fixed set of profiles held in memory.
type StaticRepository struct {
	mu       sync.RWMutex
	profiles map[string]Profile
}

// NewStaticRepository creates a repository over profiles. A nil map uses the
// built-in profiles.
func NewStaticRepository(profiles map[string]Profile) *StaticRepository {
	if profiles == nil {
		profiles = Builtin()
	}
	cp := make(map[string]Profile, len(profiles))
	for k, v := range profiles {
		cp[k] = v
	}
	return &StaticRepository{profiles: cp}
}

// Get retrieves a profile by key.
func (r *StaticRepository) Get(_ context.Context, key string) (*Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.profiles[key]
	if !ok {
		return nil, ErrProfileNotFound
	}
	return &p, nil
}

// List returns all profiles ordered by key.
func (r *StaticRepository) List(_ context.Context) ([]Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Profile, 0, len(r.profiles))
	for _, p := range r.profiles {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

// Put adds or replaces a profile.
func (r *StaticRepository) Put(p Profile) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.profiles[p.Key] = p
}
