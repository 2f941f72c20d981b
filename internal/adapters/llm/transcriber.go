package llm

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

const transcriptionInstruction = "Transcreva este áudio fielmente. Ignore ruído e silêncio. Retorne apenas o texto transcrito."

type GeminiTranscriber struct {
	client *genai.Client
	model  string
}

func NewGeminiTranscriber(client *genai.Client, model string) *GeminiTranscriber {
	return &GeminiTranscriber{client: client, model: model}
}

// Transcribe sends the audio inline next to a fixed instruction.
func (t *GeminiTranscriber) Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error) {
	if len(audio) == 0 {
		return "", fmt.Errorf("empty audio")
	}
	if mimeType == "" {
		mimeType = "audio/ogg"
	}
	// WhatsApp reports "audio/ogg; codecs=opus"; the API wants the bare type.
	if i := strings.Index(mimeType, ";"); i >= 0 {
		mimeType = strings.TrimSpace(mimeType[:i])
	}

	parts := []*genai.Part{
		genai.NewPartFromText(transcriptionInstruction),
		genai.NewPartFromBytes(audio, mimeType),
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	res, err := t.client.Models.GenerateContent(ctx, t.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("gemini transcribe: %w", err)
	}

	text := strings.TrimSpace(res.Text())
	if text == "" {
		return "", fmt.Errorf("gemini returned empty transcription")
	}
	return text, nil
}
