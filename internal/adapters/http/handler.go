package httpadapter

import (
	"context"
	_ "embed"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/PabloGalante/tur-agent/internal/app/conversation"
	"github.com/PabloGalante/tur-agent/internal/app/ingest"
	"github.com/PabloGalante/tur-agent/internal/domain"
	"github.com/PabloGalante/tur-agent/internal/observability"
)

//go:embed admin.html
var adminPage []byte

// Engine is the part of the conversation service the HTTP surface needs.
type Engine interface {
	HandleIncoming(ctx context.Context, msg domain.IncomingMessage) domain.DeliveryPlan
	ListUsers(ctx context.Context, limit int) ([]conversation.UserSummary, error)
	SetPaused(ctx context.Context, userID domain.UserID, paused bool) error
}

// EventSink accepts decoded webhook events for background processing.
type EventSink interface {
	Submit(ev ingest.Event) error
}

type CatalogReloader interface {
	Reload(ctx context.Context) (int, error)
	Len() int
}

type WebhookConfig struct {
	VerifyToken string
	// AppSecret enables X-Hub-Signature-256 verification when set.
	AppSecret string
}

type Server struct {
	engine  Engine
	sink    EventSink
	catalog CatalogReloader
	webhook WebhookConfig
}

func NewServer(engine Engine, sink EventSink, catalog CatalogReloader, webhook WebhookConfig) http.Handler {
	s := &Server{engine: engine, sink: sink, catalog: catalog, webhook: webhook}
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.Handle("/metrics", promhttp.Handler())

	// Meta webhook: GET verification handshake, POST events
	mux.HandleFunc("/webhook", s.handleWebhook)

	// Operator surface
	mux.HandleFunc("/admin/", s.handleAdminPanel)
	mux.HandleFunc("/admin/api/users", s.handleUsers)
	mux.HandleFunc("/admin/api/pause", s.handlePause)
	mux.HandleFunc("/admin/api/catalog/reload", s.handleCatalogReload)
	mux.HandleFunc("/admin/api/simulate", s.handleSimulate)

	return chainMiddlewares(mux, withRequestID, withLogging, withCORS)
}

// ─────────────────────────────────────────────
// DTOs (request/response)
// ─────────────────────────────────────────────

type userResponse struct {
	UserID       string    `json:"user_id"`
	Channel      string    `json:"channel"`
	IsPaused     bool      `json:"is_paused"`
	HistoryChars int       `json:"history_chars"`
	LastSeen     time.Time `json:"last_seen"`
}

type pauseResponse struct {
	Status string `json:"status"`
	UserID string `json:"user_id"`
	Paused bool   `json:"paused"`
}

type simulateRequest struct {
	UserID  string `json:"user_id"`
	Channel string `json:"channel"`
	Text    string `json:"text"`
}

type unitResponse struct {
	Text    string `json:"text"`
	DelayMS int64  `json:"delay_ms"`
}

type planResponse struct {
	UserID      string         `json:"user_id"`
	Channel     string         `json:"channel"`
	Units       []unitResponse `json:"units"`
	Attachments []string       `json:"attachments"`
}

// ─────────────────────────────────────────────
// Concrete handlers
// ─────────────────────────────────────────────

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{"status": "ok"}
	if s.catalog != nil {
		resp["catalog_records"] = s.catalog.Len()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAdminPanel(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/admin/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(adminPage)
}

func (s *Server) handleUsers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	users, err := s.engine.ListUsers(r.Context(), limit)
	if err != nil {
		internalError(w, r, err)
		return
	}

	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, userResponse{
			UserID:       string(u.UserID),
			Channel:      string(u.Channel),
			IsPaused:     u.Paused,
			HistoryChars: u.HistoryChars,
			LastSeen:     u.LastSeen,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	q := r.URL.Query()
	userID := strings.TrimSpace(q.Get("user_id"))
	if userID == "" {
		badRequest(w, "user_id is required")
		return
	}
	pause, err := strconv.ParseBool(q.Get("pause"))
	if err != nil {
		badRequest(w, "pause must be true or false")
		return
	}

	if err := s.engine.SetPaused(r.Context(), domain.UserID(userID), pause); err != nil {
		internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pauseResponse{Status: "ok", UserID: userID, Paused: pause})
}

func (s *Server) handleCatalogReload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if s.catalog == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "catalog not configured"})
		return
	}

	n, err := s.catalog.Reload(r.Context())
	if err != nil {
		internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "records": n})
}

// handleSimulate runs one turn without delivering it.
func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	var req simulateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	if req.UserID == "" {
		badRequest(w, "user_id is required")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		badRequest(w, "text is required")
		return
	}
	channel := domain.Channel(req.Channel)
	if channel == "" {
		channel = domain.ChannelWhatsApp
	}
	if !channel.Valid() {
		badRequest(w, "unknown channel")
		return
	}

	plan := s.engine.HandleIncoming(r.Context(), domain.IncomingMessage{
		UserID:     domain.UserID(req.UserID),
		Channel:    channel,
		Kind:       domain.KindText,
		RawText:    req.Text,
		ReceivedAt: time.Now(),
	})
	writeJSON(w, http.StatusOK, toPlanResponse(plan))
}

// ─────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────

func toPlanResponse(p domain.DeliveryPlan) planResponse {
	out := planResponse{
		UserID:      string(p.UserID),
		Channel:     string(p.Channel),
		Units:       make([]unitResponse, 0, len(p.Units)),
		Attachments: make([]string, 0, len(p.Attachments)),
	}
	for _, u := range p.Units {
		out.Units = append(out.Units, unitResponse{Text: u.Text, DelayMS: u.EstimatedDelay.Milliseconds()})
	}
	for _, a := range p.Attachments {
		out.Attachments = append(out.Attachments, a.ImageURL)
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{
		"error": msg,
	})
}

func internalError(w http.ResponseWriter, r *http.Request, err error) {
	observability.LoggerFromContext(r.Context()).Error("request failed", "path", r.URL.Path, "error", err)
	writeJSON(w, http.StatusInternalServerError, map[string]string{
		"error": "internal server error",
	})
}

func methodNotAllowed(w http.ResponseWriter) {
	writeJSON(w, http.StatusMethodNotAllowed, map[string]string{
		"error": "method not allowed",
	})
}
