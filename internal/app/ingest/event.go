// Package ingest turns raw provider webhooks into canonical incoming messages.
package ingest

import (
	"errors"

	"github.com/PabloGalante/tur-agent/internal/domain"
)

var (
	// ErrMalformedPayload means the payload does not have the shape the provider documents.
	ErrMalformedPayload = errors.New("malformed payload")
	// ErrUnsupportedEvent is a well-formed event the engine does not answer (status
	// callbacks, echoes, stickers, non-comment feed changes).
	ErrUnsupportedEvent = errors.New("unsupported event")
	// ErrFilteredOut is a public comment without any trigger keyword.
	ErrFilteredOut = errors.New("comment filtered out")
)

type Provider string

const (
	ProviderWhatsApp  Provider = "whatsapp"
	ProviderInstagram Provider = "instagram"
)

// ProviderForObject maps the top level "object" of a Meta webhook to a provider.
func ProviderForObject(object string) (Provider, bool) {
	switch object {
	case "whatsapp_business_account":
		return ProviderWhatsApp, true
	case "instagram":
		return ProviderInstagram, true
	}
	return "", false
}

// Event is one decoded inbound event. The concrete types are
// WhatsAppText, WhatsAppAudio, InstagramDM and InstagramComment.
type Event interface {
	Sender() domain.UserID
	Channel() domain.Channel
}

type WhatsAppText struct {
	From string
	Body string
}

type WhatsAppAudio struct {
	From     string
	MediaID  string
	MimeType string
}

type InstagramDM struct {
	SenderID string
	Text     string
}

type InstagramComment struct {
	FromID    string
	CommentID string
	Text      string
}

func (e WhatsAppText) Sender() domain.UserID { return domain.UserID(e.From) }
func (e WhatsAppAudio) Sender() domain.UserID { return domain.UserID(e.From) }
func (e InstagramDM) Sender() domain.UserID { return domain.UserID(e.SenderID) }
func (e InstagramComment) Sender() domain.UserID { return domain.UserID(e.FromID) }
func (WhatsAppText) Channel() domain.Channel { return domain.ChannelWhatsApp }
func (WhatsAppAudio) Channel() domain.Channel { return domain.ChannelWhatsApp }
func (InstagramDM) Channel() domain.Channel { return domain.ChannelInstagramDM }
func (InstagramComment) Channel() domain.Channel { return domain.ChannelInstagramComment }

// ProviderOf returns the provider an event was decoded from.
func ProviderOf(ev Event) Provider {
	if ev.Channel().IsInstagram() {
		return ProviderInstagram
	}
	return ProviderWhatsApp
}
