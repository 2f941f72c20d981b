// Package assembler builds the generation request for one turn: history, the
// static catalog summary and the records nearest to the customer's text.
package assembler

import (
	"context"
	"errors"
	"strings"

	"github.com/PabloGalante/tur-agent/internal/domain"
	"github.com/PabloGalante/tur-agent/internal/observability"
)

// NoRecordMarker replaces the context block when retrieval yields nothing.
const NoRecordMarker = "Nenhum pacote específico encontrado para esta mensagem."

const blockSeparator = "\n---\n"

// SummaryProvider supplies the static overview of the catalog.
type SummaryProvider interface {
	Summary(ctx context.Context) (string, error)
}

// Request is everything the generator needs for one turn.
type Request struct {
	Fields map[string]string
	// Attachment is the top record's first image, delivered after the text.
	Attachment *domain.Attachment
	Records    []domain.RetrievalResult
}

type Options struct {
	TopK         int
	AttachImages bool
}

type Assembler struct {
	embedder domain.Embedder
	index    domain.VectorIndex
	summary  SummaryProvider
	opts     Options
}

func New(embedder domain.Embedder, index domain.VectorIndex, summary SummaryProvider, opts Options) *Assembler {
	if opts.TopK <= 0 {
		opts.TopK = 3
	}
	return &Assembler{embedder: embedder, index: index, summary: summary, opts: opts}
}

// Build never fails: retrieval problems degrade to NoRecordMarker.
func (a *Assembler) Build(ctx context.Context, msg domain.IncomingMessage, session *domain.UserSession) Request {
	history := ""
	if session != nil {
		history = session.History
	}

	results := a.retrieve(ctx, msg)

	req := Request{
		Fields: map[string]string{
			domain.FieldText:    msg.RawText,
			domain.FieldHistory: history,
			domain.FieldChannel: string(msg.Channel),
			domain.FieldUserID:  string(msg.UserID),
			domain.FieldContext: Render(results),
			domain.FieldCatalog: a.catalogSummary(ctx),
		},
		Records: results,
	}

	if a.opts.AttachImages && len(results) > 0 && len(results[0].Record.Images) > 0 {
		if img := strings.TrimSpace(results[0].Record.Images[0]); img != "" {
			req.Attachment = &domain.Attachment{ImageURL: img}
		}
	}
	return req
}

func (a *Assembler) retrieve(ctx context.Context, msg domain.IncomingMessage) []domain.RetrievalResult {
	log := observability.LoggerFromContext(ctx).With("user_id", msg.UserID, "channel", msg.Channel)

	if a.embedder == nil || a.index == nil || a.index.Len() == 0 {
		observability.RetrievalFallbacks.WithLabelValues("index_empty").Inc()
		log.Debug("retrieval skipped: index empty")
		return nil
	}

	query := msg.QueryText()
	if query == "" {
		observability.RetrievalFallbacks.WithLabelValues("empty_query").Inc()
		return nil
	}

	vec, err := a.embedder.Embed(ctx, query)
	if err != nil {
		observability.RetrievalFallbacks.WithLabelValues("embed_error").Inc()
		log.Error("embed query", "error", err)
		return nil
	}

	results, err := a.index.Search(ctx, vec, a.opts.TopK)
	if err != nil {
		reason := "search_error"
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			reason = "timeout"
		}
		observability.RetrievalFallbacks.WithLabelValues(reason).Inc()
		log.Error("search catalog", "error", err)
		return nil
	}
	if len(results) == 0 {
		observability.RetrievalFallbacks.WithLabelValues("no_results").Inc()
	}
	return results
}

func (a *Assembler) catalogSummary(ctx context.Context) string {
	if a.summary == nil {
		return ""
	}
	s, err := a.summary.Summary(ctx)
	if err != nil {
		observability.LoggerFromContext(ctx).Error("catalog summary", "error", err)
		return ""
	}
	return s
}

// Render formats ranked results as fixed-field blocks, or NoRecordMarker when empty.
func Render(results []domain.RetrievalResult) string {
	if len(results) == 0 {
		return NoRecordMarker
	}

	blocks := make([]string, 0, len(results))
	for _, r := range results {
		blocks = append(blocks, renderRecord(r.Record))
	}
	return strings.Join(blocks, blockSeparator)
}

func renderRecord(r domain.RetrievalRecord) string {
	var b strings.Builder
	b.WriteString("Pacote: " + r.Title + "\n")
	b.WriteString("Preço: " + r.Price + "\n")
	b.WriteString("Descrição: " + r.Description + "\n")
	b.WriteString("Roteiro: " + r.Itinerary + "\n")
	b.WriteString("Inclusões: " + r.Inclusions + "\n")
	b.WriteString("Embarques: " + strings.Join(r.BoardingPoints, ", ") + "\n")
	b.WriteString("Link: " + r.DetailURL + "\n")
	b.WriteString("Reserva: " + r.BookingURL)
	return b.String()
}
