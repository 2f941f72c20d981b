// Package catalogfile loads the package catalog from a JSON export on disk.
package catalogfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/PabloGalante/tur-agent/internal/domain"
)

// item mirrors one entry of the scraper export, with its precomputed embedding.
type item struct {
	URL         string    `json:"url"`
	Title       string    `json:"title"`
	Price       string    `json:"price"`
	Images      []string  `json:"images"`
	Description string    `json:"description"`
	Itinerary   string    `json:"roteiro"`
	Inclusions  string    `json:"inclusoes"`
	Boarding    []string  `json:"embarques"`
	Embedding   []float32 `json:"embedding"`
}

type Source struct {
	path        string
	summaryPath string
}

func NewSource(path, summaryPath string) *Source {
	return &Source{path: path, summaryPath: summaryPath}
}

// LoadRecords keeps file order, which becomes the index insertion order.
func (s *Source) LoadRecords(_ context.Context) ([]domain.RetrievalRecord, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", s.path, err)
	}

	var items []item
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decode catalog %s: %w", s.path, err)
	}

	out := make([]domain.RetrievalRecord, 0, len(items))
	for _, it := range items {
		out = append(out, domain.RetrievalRecord{
			Title:          it.Title,
			Price:          it.Price,
			Description:    it.Description,
			Itinerary:      it.Itinerary,
			Inclusions:     it.Inclusions,
			BoardingPoints: it.Boarding,
			DetailURL:      it.URL,
			BookingURL:     domain.BookingURLFor(it.URL),
			Images:         it.Images,
			Embedding:      it.Embedding,
		})
	}
	return out, nil
}

// Summary reads the static catalog overview. A missing file yields an empty summary.
func (s *Source) Summary(_ context.Context) (string, error) {
	if s.summaryPath == "" {
		return "", nil
	}
	raw, err := os.ReadFile(s.summaryPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("read catalog summary: %w", err)
	}
	return strings.TrimSpace(string(raw)), nil
}
