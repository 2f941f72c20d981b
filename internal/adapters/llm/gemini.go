package llm

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/genai"

	"github.com/PabloGalante/tur-agent/internal/observability"
)

type GeminiClient struct {
	client    *genai.Client
	modelName string
	prompt    *Prompt
}

func NewGeminiClient(client *genai.Client, modelName string, prompt *Prompt) *GeminiClient {
	return &GeminiClient{
		client:    client,
		modelName: modelName,
		prompt:    prompt,
	}
}

// Generate implements domain.LLMClient. The persona and catalog go into the system
// instruction, the customer text is the only user content.
func (g *GeminiClient) Generate(ctx context.Context, fields map[string]string) (string, error) {
	system, user := g.prompt.Render(fields)

	temp := float32(0.7)
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
		Temperature:       &temp,
		MaxOutputTokens:   1024,
	}
	contents := []*genai.Content{genai.NewContentFromText(user, genai.RoleUser)}

	start := time.Now()
	res, err := g.client.Models.GenerateContent(ctx, g.modelName, contents, cfg)
	observability.GenerationLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		return "", fmt.Errorf("gemini generate content: %w", err)
	}

	text := res.Text()
	if text == "" {
		return "", fmt.Errorf("gemini returned empty text")
	}
	return text, nil
}
