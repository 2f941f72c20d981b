package llm

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"

	"github.com/PabloGalante/tur-agent/internal/domain"
)

// MockLLM answers without any network call so the whole pipeline can run locally.
type MockLLM struct {
	AgentName string
}

func NewMockLLM(agentName string) *MockLLM {
	return &MockLLM{AgentName: agentName}
}

func (m *MockLLM) Generate(_ context.Context, fields map[string]string) (string, error) {
	text := strings.TrimSpace(fields[domain.FieldText])
	parts := []string{
		"Opa, tudo certo por aqui.",
		fmt.Sprintf("Você disse %q.", text),
	}
	if ctx := fields[domain.FieldContext]; strings.HasPrefix(ctx, "Pacote:") {
		title := strings.TrimSpace(strings.SplitN(strings.TrimPrefix(ctx, "Pacote:"), "\n", 2)[0])
		parts = append(parts, "Dá uma olhada no pacote "+title+".")
	}
	return strings.Join(parts, " ||| "), nil
}

// MockEmbedder derives a small deterministic vector from the text bytes.
type MockEmbedder struct {
	Dimension int
}

func NewMockEmbedder(dimension int) *MockEmbedder {
	if dimension <= 0 {
		dimension = 8
	}
	return &MockEmbedder{Dimension: dimension}
}

func (m *MockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, m.Dimension)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(word))
		vec[h.Sum32()%uint32(m.Dimension)]++
	}
	return vec, nil
}

// MockTranscriber returns a fixed transcription.
type MockTranscriber struct {
	Text string
}

func (m *MockTranscriber) Transcribe(_ context.Context, audio []byte, _ string) (string, error) {
	if len(audio) == 0 {
		return "", fmt.Errorf("empty audio")
	}
	if m.Text != "" {
		return m.Text, nil
	}
	return "mensagem de áudio", nil
}
