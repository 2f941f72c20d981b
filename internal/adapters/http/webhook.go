package httpadapter

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/PabloGalante/tur-agent/internal/app/ingest"
	"github.com/PabloGalante/tur-agent/internal/observability"
)

const maxWebhookBody = 1 << 20

var eventReceived = map[string]string{"status": "EVENT_RECEIVED"}

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleVerify(w, r)
	case http.MethodPost:
		s.handleEvent(w, r)
	default:
		methodNotAllowed(w)
	}
}

// handleVerify answers the subscription handshake Meta performs when the webhook is registered.
func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	mode := q.Get("hub.mode")
	token := q.Get("hub.verify_token")
	challenge := q.Get("hub.challenge")

	if mode != "subscribe" || s.webhook.VerifyToken == "" ||
		!hmac.Equal([]byte(token), []byte(s.webhook.VerifyToken)) {
		observability.LoggerFromContext(r.Context()).Warn("webhook verification failed", "mode", mode)
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "verification failed"})
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, challenge)
}

// handleEvent acknowledges immediately and hands the event to the per-user queue.
// Payloads that decode to nothing are still acknowledged so Meta does not retry them.
func (s *Server) handleEvent(w http.ResponseWriter, r *http.Request) {
	log := observability.LoggerFromContext(r.Context())

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		badRequest(w, "could not read body")
		return
	}

	if s.webhook.AppSecret != "" && !validSignature(s.webhook.AppSecret, body, r.Header.Get("X-Hub-Signature-256")) {
		log.Warn("webhook signature mismatch")
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid signature"})
		return
	}

	object, err := ingest.Object(body)
	if err != nil {
		observability.EventsDropped.WithLabelValues("unknown", "malformed").Inc()
		badRequest(w, "invalid JSON body")
		return
	}

	provider, ok := ingest.ProviderForObject(object)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "event not supported"})
		return
	}

	ev, err := ingest.Decode(provider, body)
	if err != nil {
		reason := "malformed"
		if errors.Is(err, ingest.ErrUnsupportedEvent) {
			reason = "unsupported"
		}
		observability.EventsDropped.WithLabelValues(string(provider), reason).Inc()
		log.Warn("webhook event dropped", "provider", provider, "reason", err.Error())
		writeJSON(w, http.StatusOK, eventReceived)
		return
	}

	if err := s.sink.Submit(ev); err != nil {
		log.Error("could not enqueue event", "user_id", ev.Sender(), "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "shutting down"})
		return
	}

	log.Info("webhook event queued", "provider", provider, "user_id", ev.Sender(), "channel", ev.Channel())
	writeJSON(w, http.StatusOK, eventReceived)
}

// validSignature checks a "sha256=<hex>" HMAC of the raw body.
func validSignature(secret string, body []byte, header string) bool {
	sig, ok := strings.CutPrefix(header, "sha256=")
	if !ok {
		return false
	}
	got, err := hex.DecodeString(sig)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hmac.Equal(got, mac.Sum(nil))
}
