package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/PabloGalante/tur-agent/internal/config"
)

// NewGenAIClient builds the shared genai client. In gcp mode it talks to Vertex AI with
// application default credentials, otherwise to the Gemini API with an API key.
func NewGenAIClient(ctx context.Context, cfg *config.Config) (*genai.Client, error) {
	cc := &genai.ClientConfig{}
	switch {
	case cfg.Mode == config.ModeGCP:
		cc.Project = cfg.GCPProjectID
		cc.Location = cfg.GCPLocation
		cc.Backend = genai.BackendVertexAI
	case cfg.GoogleAPIKey != "":
		cc.APIKey = cfg.GoogleAPIKey
		cc.Backend = genai.BackendGeminiAPI
	default:
		return nil, fmt.Errorf("GOOGLE_API_KEY must be set outside gcp mode")
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}
	return client, nil
}
