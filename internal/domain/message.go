package domain

import (
	"strings"
	"time"
)

// IncomingMessage is the canonical shape every provider payload is normalized into.
type IncomingMessage struct {
	UserID     UserID      `json:"user_id"`
	Channel    Channel     `json:"channel"`
	Kind       MessageKind `json:"kind"`
	RawText    string      `json:"raw_text"`
	ReceivedAt Timestamp   `json:"received_at"`
}

// AudioMarker prefixes text that came from an audio transcription so generation can adapt tone.
const AudioMarker = "[TRANSCRIÇÃO DE ÁUDIO]: "

// QueryText is the text without the audio marker, used for retrieval.
func (m IncomingMessage) QueryText() string {
	return strings.TrimSpace(strings.TrimPrefix(m.RawText, AudioMarker))
}

// UserSession is one sender as seen by a single channel. Sessions are keyed by the raw
// sender id and are never merged across channels.
type UserSession struct {
	UserID    UserID
	Channel   Channel
	History   string
	Paused    bool
	CreatedAt Timestamp
	LastSeen  Timestamp
}

// DeliveryUnit is one chat bubble plus the pause that precedes it.
type DeliveryUnit struct {
	Text           string        `json:"text"`
	EstimatedDelay time.Duration `json:"estimated_delay"`
}

// Attachment is sent after every text unit of the plan.
type Attachment struct {
	ImageURL string `json:"image_url"`
}

// DeliveryPlan is derived from one generated reply and consumed once by the scheduler.
type DeliveryPlan struct {
	UserID      UserID         `json:"user_id"`
	Channel     Channel        `json:"channel"`
	Units       []DeliveryUnit `json:"units"`
	Attachments []Attachment   `json:"attachments,omitempty"`
}

func (p DeliveryPlan) Empty() bool {
	return len(p.Units) == 0 && len(p.Attachments) == 0
}

// Texts returns the unit texts in delivery order.
func (p DeliveryPlan) Texts() []string {
	out := make([]string, 0, len(p.Units))
	for _, u := range p.Units {
		out = append(out, u.Text)
	}
	return out
}
