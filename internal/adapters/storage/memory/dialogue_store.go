package memory

import (
	"sync"

	"github.com/PabloGalante/tur-agent/internal/domain"
)

// DefaultMaxChars bounds each user's history when no budget is given.
const DefaultMaxChars = 2000

type dialogue struct {
	mu   sync.Mutex
	text string
}

// DialogueStore keeps a bounded text log per user. Appends for one user are serialized by
// that user's own lock; unrelated users never contend.
type DialogueStore struct {
	maxChars int
	users    sync.Map // domain.UserID -> *dialogue
}

func NewDialogueStore(maxChars int) *DialogueStore {
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}
	return &DialogueStore{maxChars: maxChars}
}

func (s *DialogueStore) entry(userID domain.UserID) *dialogue {
	if d, ok := s.users.Load(userID); ok {
		return d.(*dialogue)
	}
	d, _ := s.users.LoadOrStore(userID, &dialogue{})
	return d.(*dialogue)
}

func (s *DialogueStore) Get(userID domain.UserID) (string, error) {
	d, ok := s.users.Load(userID)
	if !ok {
		return "", nil
	}
	dl := d.(*dialogue)
	dl.mu.Lock()
	defer dl.mu.Unlock()
	return dl.text, nil
}

func (s *DialogueStore) Append(userID domain.UserID, turn string) error {
	d := s.entry(userID)
	d.mu.Lock()
	defer d.mu.Unlock()

	d.text = Truncate(d.text, turn, s.maxChars)
	return nil
}

// Len reports the history size of a user in characters.
func (s *DialogueStore) Len(userID domain.UserID) int {
	text, _ := s.Get(userID)
	return len([]rune(text))
}

// Truncate appends turn to history and keeps the trailing maxChars characters.
// The newest turn is always kept whole, even when it alone exceeds maxChars.
func Truncate(history, turn string, maxChars int) string {
	turnRunes := []rune(turn)
	if len(turnRunes) >= maxChars {
		return turn
	}

	combined := []rune(history + turn)
	if len(combined) <= maxChars {
		return string(combined)
	}
	return string(combined[len(combined)-maxChars:])
}
