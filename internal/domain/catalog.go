package domain

import "strings"

// RetrievalRecord is one catalog item with its precomputed embedding.
// Records are immutable once loaded; the index is rebuilt wholesale.
type RetrievalRecord struct {
	Title          string    `json:"title"`
	Price          string    `json:"price"`
	Description    string    `json:"description"`
	Itinerary      string    `json:"itinerary"`
	Inclusions     string    `json:"inclusions"`
	BoardingPoints []string  `json:"boarding_points"`
	DetailURL      string    `json:"detail_url"`
	BookingURL     string    `json:"booking_url"`
	Images         []string  `json:"images"`
	Embedding      []float32 `json:"embedding"`
}

// RetrievalResult pairs a record with its distance to the query vector (lower is closer).
type RetrievalResult struct {
	Record   RetrievalRecord
	Distance float64
}

// BookingURLFor derives the checkout link of a package detail page.
func BookingURLFor(detailURL string) string {
	return strings.Replace(detailURL, "/pacote/", "/carrinho_compra/", 1)
}
