package firestore

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/PabloGalante/tur-agent/internal/domain"
)

// CatalogStore reads catalog records and the static catalog summary from Firestore.
// It implements domain.CatalogSource.
type CatalogStore struct {
	client     *firestore.Client
	collection string
}

// NewCatalogStore creates a Firestore catalog source.
// Uses the project passed (TUR_GCP_PROJECT).
func NewCatalogStore(ctx context.Context, projectID, collection string) (*CatalogStore, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID is required for Firestore catalog")
	}
	if collection == "" {
		collection = "catalog"
	}

	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("creating firestore client: %w", err)
	}

	return &CatalogStore{client: client, collection: collection}, nil
}

func (s *CatalogStore) Close() error {
	return s.client.Close()
}

// ─────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────

func (s *CatalogStore) packagesCol() *firestore.CollectionRef {
	return s.client.Collection(s.collection)
}

func (s *CatalogStore) summaryDoc() *firestore.DocumentRef {
	return s.client.Collection(s.collection + "_meta").Doc("summary")
}

// ─────────────────────────────────────────
// Firestore Types
// ─────────────────────────────────────────

type packageDoc struct {
	URL         string    `firestore:"url"`
	Title       string    `firestore:"title"`
	Price       string    `firestore:"price"`
	Images      []string  `firestore:"images"`
	Description string    `firestore:"description"`
	Itinerary   string    `firestore:"roteiro"`
	Inclusions  string    `firestore:"inclusoes"`
	Boarding    []string  `firestore:"embarques"`
	Position    int       `firestore:"position"`
	Embedding   []float64 `firestore:"embedding"`
}

type summaryDoc struct {
	Text string `firestore:"text"`
}

func (d packageDoc) toRecord() domain.RetrievalRecord {
	vec := make([]float32, len(d.Embedding))
	for i, v := range d.Embedding {
		vec[i] = float32(v)
	}
	return domain.RetrievalRecord{
		Title:          d.Title,
		Price:          d.Price,
		Description:    d.Description,
		Itinerary:      d.Itinerary,
		Inclusions:     d.Inclusions,
		BoardingPoints: d.Boarding,
		DetailURL:      d.URL,
		BookingURL:     domain.BookingURLFor(d.URL),
		Images:         d.Images,
		Embedding:      vec,
	}
}

// ─────────────────────────────────────────
// CatalogSource implementation
// ─────────────────────────────────────────

// LoadRecords returns every package ordered by its "position" field so the index
// insertion order (and therefore tie-breaking) is stable across reloads.
func (s *CatalogStore) LoadRecords(ctx context.Context) ([]domain.RetrievalRecord, error) {
	iter := s.packagesCol().OrderBy("position", firestore.Asc).Documents(ctx)
	defer iter.Stop()

	var out []domain.RetrievalRecord
	for {
		snap, err := iter.Next()
		if err != nil {
			if err == iterator.Done {
				break
			}
			return nil, fmt.Errorf("firestore LoadRecords: %w", err)
		}

		var doc packageDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decode packageDoc %s: %w", snap.Ref.ID, err)
		}
		out = append(out, doc.toRecord())
	}
	return out, nil
}

// Summary returns the static catalog overview. A missing document is not an error.
func (s *CatalogStore) Summary(ctx context.Context) (string, error) {
	snap, err := s.summaryDoc().Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return "", nil
		}
		return "", fmt.Errorf("firestore Summary: %w", err)
	}

	var doc summaryDoc
	if err := snap.DataTo(&doc); err != nil {
		return "", fmt.Errorf("firestore Summary decode: %w", err)
	}
	return doc.Text, nil
}
