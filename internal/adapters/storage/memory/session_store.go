package memory

import (
	"sort"
	"sync"

	"github.com/PabloGalante/tur-agent/internal/domain"
)

// SessionStore remembers every user the engine has seen, for the process lifetime.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[domain.UserID]*domain.UserSession
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[domain.UserID]*domain.UserSession),
	}
}

// Touch creates the session lazily on first contact and refreshes LastSeen afterwards.
// The channel of the first contact is kept.
func (s *SessionStore) Touch(userID domain.UserID, channel domain.Channel, at domain.Timestamp) (*domain.UserSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, exists := s.sessions[userID]
	if !exists {
		sess = &domain.UserSession{
			UserID:    userID,
			Channel:   channel,
			CreatedAt: at,
		}
		s.sessions[userID] = sess
	}
	sess.LastSeen = at

	cp := *sess
	return &cp, nil
}

// ListSessions returns copies ordered by most recent activity. limit <= 0 returns all.
func (s *SessionStore) ListSessions(limit int) ([]*domain.UserSession, error) {
	s.mu.RLock()
	result := make([]*domain.UserSession, 0, len(s.sessions))
	for _, sess := range s.sessions {
		cp := *sess
		result = append(result, &cp)
	}
	s.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		if result[i].LastSeen.Equal(result[j].LastSeen) {
			return result[i].UserID < result[j].UserID
		}
		return result[i].LastSeen.After(result[j].LastSeen)
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}
