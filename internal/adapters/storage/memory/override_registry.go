package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/PabloGalante/tur-agent/internal/domain"
)

// OverrideRegistry is an in-process set of paused users.
// There is no auto-resume: a flag stays until an operator flips it.
type OverrideRegistry struct {
	mu     sync.RWMutex
	paused map[domain.UserID]struct{}
}

func NewOverrideRegistry() *OverrideRegistry {
	return &OverrideRegistry{
		paused: make(map[domain.UserID]struct{}),
	}
}

func (r *OverrideRegistry) IsPaused(_ context.Context, userID domain.UserID) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.paused[userID]
	return ok, nil
}

func (r *OverrideRegistry) SetPaused(_ context.Context, userID domain.UserID, paused bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if paused {
		r.paused[userID] = struct{}{}
	} else {
		delete(r.paused, userID)
	}
	return nil
}

func (r *OverrideRegistry) ListPaused(_ context.Context) ([]domain.UserID, error) {
	r.mu.RLock()
	out := make([]domain.UserID, 0, len(r.paused))
	for id := range r.paused {
		out = append(out, id)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}
