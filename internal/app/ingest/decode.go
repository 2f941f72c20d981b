package ingest

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ─────────────────────────────────────────
// Wire types
// ─────────────────────────────────────────

type envelope struct {
	Object string `json:"object"`
}

type waPayload struct {
	Entry []struct {
		Changes []struct {
			Value struct {
				Messages []waMessage `json:"messages"`
				Statuses []any       `json:"statuses"`
			} `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

type waMessage struct {
	From string `json:"from"`
	Type string `json:"type"`
	Text *struct {
		Body string `json:"body"`
	} `json:"text"`
	Audio *struct {
		ID       string `json:"id"`
		MimeType string `json:"mime_type"`
	} `json:"audio"`
}

type igPayload struct {
	Entry []struct {
		Messaging []struct {
			Sender struct {
				ID string `json:"id"`
			} `json:"sender"`
			Message *struct {
				Text   string `json:"text"`
				IsEcho bool   `json:"is_echo"`
			} `json:"message"`
		} `json:"messaging"`
		Changes []struct {
			Field string `json:"field"`
			Value struct {
				ID   string `json:"id"`
				Text string `json:"text"`
				From struct {
					ID string `json:"id"`
				} `json:"from"`
			} `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

// Object returns the top level "object" field of a webhook body.
func Object(raw []byte) (string, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return env.Object, nil
}

// Decode extracts at most one event from a payload of the declared provider.
func Decode(provider Provider, raw []byte) (Event, error) {
	switch provider {
	case ProviderWhatsApp:
		return DecodeWhatsApp(raw)
	case ProviderInstagram:
		return DecodeInstagram(raw)
	default:
		return nil, fmt.Errorf("%w: provider %q", ErrUnsupportedEvent, provider)
	}
}

// DecodeWhatsApp reads entry[0].changes[0].value.messages[0].
func DecodeWhatsApp(raw []byte) (Event, error) {
	var p waPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if len(p.Entry) == 0 || len(p.Entry[0].Changes) == 0 {
		return nil, fmt.Errorf("%w: whatsapp payload without entry changes", ErrMalformedPayload)
	}

	value := p.Entry[0].Changes[0].Value
	if len(value.Messages) == 0 {
		if len(value.Statuses) > 0 {
			return nil, fmt.Errorf("%w: whatsapp status callback", ErrUnsupportedEvent)
		}
		return nil, fmt.Errorf("%w: whatsapp change without messages", ErrMalformedPayload)
	}

	msg := value.Messages[0]
	if msg.From == "" {
		return nil, fmt.Errorf("%w: whatsapp message without sender", ErrMalformedPayload)
	}

	switch msg.Type {
	case "text":
		if msg.Text == nil || strings.TrimSpace(msg.Text.Body) == "" {
			return nil, fmt.Errorf("%w: whatsapp text without body", ErrMalformedPayload)
		}
		return WhatsAppText{From: msg.From, Body: msg.Text.Body}, nil
	case "audio":
		if msg.Audio == nil || msg.Audio.ID == "" {
			return nil, fmt.Errorf("%w: whatsapp audio without media id", ErrMalformedPayload)
		}
		return WhatsAppAudio{From: msg.From, MediaID: msg.Audio.ID, MimeType: msg.Audio.MimeType}, nil
	case "":
		return nil, fmt.Errorf("%w: whatsapp message without type", ErrMalformedPayload)
	default:
		return nil, fmt.Errorf("%w: whatsapp message type %q", ErrUnsupportedEvent, msg.Type)
	}
}

// DecodeInstagram reads either a direct message (entry[0].messaging[0]) or a
// feed comment (entry[0].changes[0] with field "comments").
func DecodeInstagram(raw []byte) (Event, error) {
	var p igPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if len(p.Entry) == 0 {
		return nil, fmt.Errorf("%w: instagram payload without entry", ErrMalformedPayload)
	}
	entry := p.Entry[0]

	switch {
	case len(entry.Messaging) > 0:
		m := entry.Messaging[0]
		if m.Sender.ID == "" {
			return nil, fmt.Errorf("%w: instagram message without sender", ErrMalformedPayload)
		}
		if m.Message == nil {
			return nil, fmt.Errorf("%w: instagram messaging event without message", ErrUnsupportedEvent)
		}
		if m.Message.IsEcho {
			return nil, fmt.Errorf("%w: instagram echo", ErrUnsupportedEvent)
		}
		if strings.TrimSpace(m.Message.Text) == "" {
			return nil, fmt.Errorf("%w: instagram message without text", ErrMalformedPayload)
		}
		return InstagramDM{SenderID: m.Sender.ID, Text: m.Message.Text}, nil

	case len(entry.Changes) > 0:
		c := entry.Changes[0]
		if c.Field != "comments" {
			return nil, fmt.Errorf("%w: instagram change field %q", ErrUnsupportedEvent, c.Field)
		}
		if c.Value.From.ID == "" || strings.TrimSpace(c.Value.Text) == "" {
			return nil, fmt.Errorf("%w: instagram comment without author or text", ErrMalformedPayload)
		}
		return InstagramComment{FromID: c.Value.From.ID, CommentID: c.Value.ID, Text: c.Value.Text}, nil
	}

	return nil, fmt.Errorf("%w: instagram entry without messaging or changes", ErrMalformedPayload)
}
