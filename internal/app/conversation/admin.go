package conversation

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/PabloGalante/tur-agent/internal/domain"
	"github.com/PabloGalante/tur-agent/internal/observability"
)

// UserSummary is one row of the operator view.
type UserSummary struct {
	UserID       domain.UserID    `json:"user_id"`
	Channel      domain.Channel   `json:"channel"`
	Paused       bool             `json:"paused"`
	HistoryChars int              `json:"history_chars"`
	LastSeen     domain.Timestamp `json:"last_seen"`
}

// ListUsers returns every known sender, most recent first. Users paused before
// they ever wrote are listed too, without a channel.
func (s *Service) ListUsers(ctx context.Context, limit int) ([]UserSummary, error) {
	sessions, err := s.sessions.ListSessions(limit)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	paused, err := s.gate.ListPaused(ctx)
	if err != nil {
		return nil, fmt.Errorf("list paused users: %w", err)
	}

	pausedSet := make(map[domain.UserID]bool, len(paused))
	for _, id := range paused {
		pausedSet[id] = true
	}

	out := make([]UserSummary, 0, len(sessions)+len(paused))
	for _, sess := range sessions {
		sess.Paused = pausedSet[sess.UserID]
		history, _ := s.memory.Get(sess.UserID)
		out = append(out, UserSummary{
			UserID:       sess.UserID,
			Channel:      sess.Channel,
			Paused:       sess.Paused,
			HistoryChars: utf8.RuneCountInString(history),
			LastSeen:     sess.LastSeen,
		})
		delete(pausedSet, sess.UserID)
	}
	for _, id := range paused {
		if pausedSet[id] {
			out = append(out, UserSummary{UserID: id, Paused: true})
		}
	}
	return out, nil
}

// SetPaused flips the override flag. Only the operator surface calls this.
func (s *Service) SetPaused(ctx context.Context, userID domain.UserID, paused bool) error {
	if userID == "" {
		return fmt.Errorf("user id is required")
	}
	if err := s.gate.SetPaused(ctx, userID, paused); err != nil {
		return err
	}
	observability.LoggerFromContext(ctx).Info("override changed", "user_id", userID, "paused", paused)
	return nil
}
