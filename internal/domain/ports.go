package domain

import "context"

// LLMClient turns a set of named prompt fields into raw reply text.
type LLMClient interface {
	Generate(ctx context.Context, fields map[string]string) (string, error)
}

// Embedder turns text into a vector comparable with the catalog embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Transcriber converts raw audio into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error)
}

// VectorIndex answers nearest-neighbour queries over the loaded catalog.
type VectorIndex interface {
	Search(ctx context.Context, vector []float32, k int) ([]RetrievalResult, error)
	Len() int
}

// CatalogSource produces the records and the static summary an index is rebuilt from.
type CatalogSource interface {
	LoadRecords(ctx context.Context) ([]RetrievalRecord, error)
	Summary(ctx context.Context) (string, error)
}

// ChannelSender is the outbound half of a channel adapter.
type ChannelSender interface {
	SendText(ctx context.Context, channel Channel, to UserID, text string) error
	SendImage(ctx context.Context, channel Channel, to UserID, imageURL string) error
	SendTyping(ctx context.Context, channel Channel, to UserID) error
}

// MediaFetcher resolves and downloads media referenced by inbound events.
type MediaFetcher interface {
	MediaURL(ctx context.Context, mediaID string) (string, error)
	DownloadMedia(ctx context.Context, url string) ([]byte, error)
}

// MemoryStore keeps the bounded dialogue log of each user.
type MemoryStore interface {
	Get(userID UserID) (string, error)
	Append(userID UserID, turn string) error
}

// SessionStore tracks every user the engine has seen.
type SessionStore interface {
	Touch(userID UserID, channel Channel, at Timestamp) (*UserSession, error)
	ListSessions(limit int) ([]*UserSession, error)
}

// OverrideRegistry holds the per-user pause flag set by a human operator.
type OverrideRegistry interface {
	IsPaused(ctx context.Context, userID UserID) (bool, error)
	SetPaused(ctx context.Context, userID UserID, paused bool) error
	ListPaused(ctx context.Context) ([]UserID, error)
}
