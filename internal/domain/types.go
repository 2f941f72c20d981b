package domain

import "time"

type UserID string

// Channel is the messaging surface an event arrived from and replies go back to.
type Channel string

const (
	ChannelWhatsApp         Channel = "whatsapp"
	ChannelInstagramDM      Channel = "instagram_dm"
	ChannelInstagramComment Channel = "instagram_comment"
)

func (c Channel) Valid() bool {
	switch c {
	case ChannelWhatsApp, ChannelInstagramDM, ChannelInstagramComment:
		return true
	}
	return false
}

// IsInstagram reports whether replies for this channel go through the Instagram messaging API.
func (c Channel) IsInstagram() bool {
	return c == ChannelInstagramDM || c == ChannelInstagramComment
}

type MessageKind string

const (
	KindText  MessageKind = "text"
	KindAudio MessageKind = "audio"
)

type Timestamp = time.Time
