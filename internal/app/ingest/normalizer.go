package ingest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PabloGalante/tur-agent/internal/domain"
	"github.com/PabloGalante/tur-agent/internal/observability"
)

var (
	// MediaUnavailableReply is sent when an audio message cannot be located.
	MediaUnavailableReply = []string{"Não consegui carregar seu áudio.", "Pode digitar por favor?"}
	// AudioFailureReply is sent when the audio was located but could not be heard.
	AudioFailureReply = []string{"Tive um problema técnico para ouvir seu áudio.", "Pode escrever para mim?"}
)

// Result is the outcome of normalizing one event. Exactly one of Message and
// Reply is set: Reply carries fixed units that skip generation.
type Result struct {
	Message *domain.IncomingMessage
	Reply   []string
}

type Normalizer struct {
	media       domain.MediaFetcher
	transcriber domain.Transcriber
	keywords    []string
	now         func() time.Time
}

func NewNormalizer(media domain.MediaFetcher, transcriber domain.Transcriber, keywords []string) *Normalizer {
	lower := make([]string, 0, len(keywords))
	for _, k := range keywords {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			lower = append(lower, k)
		}
	}
	return &Normalizer{
		media:       media,
		transcriber: transcriber,
		keywords:    lower,
		now:         time.Now,
	}
}

// Relevant reports whether a comment contains one of the trigger keywords.
func (n *Normalizer) Relevant(text string) bool {
	text = strings.ToLower(text)
	for _, k := range n.keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}

// Normalize turns a decoded event into an IncomingMessage. Audio is transcribed
// through the external collaborators; when that fails the result carries a fixed
// apology instead of an error. The only errors are ErrFilteredOut and ErrUnsupportedEvent.
func (n *Normalizer) Normalize(ctx context.Context, ev Event) (Result, error) {
	switch e := ev.(type) {
	case WhatsAppText:
		return n.message(e, domain.KindText, e.Body), nil
	case InstagramDM:
		return n.message(e, domain.KindText, e.Text), nil
	case InstagramComment:
		if !n.Relevant(e.Text) {
			return Result{}, ErrFilteredOut
		}
		return n.message(e, domain.KindText, e.Text), nil
	case WhatsAppAudio:
		return n.audio(ctx, e), nil
	default:
		return Result{}, fmt.Errorf("%w: %T", ErrUnsupportedEvent, ev)
	}
}

func (n *Normalizer) message(ev Event, kind domain.MessageKind, text string) Result {
	return Result{Message: &domain.IncomingMessage{
		UserID:     ev.Sender(),
		Channel:    ev.Channel(),
		Kind:       kind,
		RawText:    text,
		ReceivedAt: n.now(),
	}}
}

func (n *Normalizer) audio(ctx context.Context, e WhatsAppAudio) Result {
	log := observability.LoggerFromContext(ctx).With("user_id", e.From, "media_id", e.MediaID)

	if n.media == nil || n.transcriber == nil {
		log.Warn("audio received but transcription is not configured")
		return Result{Reply: AudioFailureReply}
	}

	url, err := n.media.MediaURL(ctx, e.MediaID)
	if err != nil {
		log.Error("resolve audio url", "error", err)
		return Result{Reply: MediaUnavailableReply}
	}

	data, err := n.media.DownloadMedia(ctx, url)
	if err != nil {
		log.Error("download audio", "error", err)
		return Result{Reply: AudioFailureReply}
	}

	text, err := n.transcriber.Transcribe(ctx, data, e.MimeType)
	if err != nil || strings.TrimSpace(text) == "" {
		log.Error("transcribe audio", "error", err)
		return Result{Reply: AudioFailureReply}
	}
	log.Debug("audio transcribed", "chars", len([]rune(text)))

	return n.message(e, domain.KindAudio, domain.AudioMarker+strings.TrimSpace(text))
}
