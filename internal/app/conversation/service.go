package conversation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/PabloGalante/tur-agent/internal/app/assembler"
	"github.com/PabloGalante/tur-agent/internal/app/delivery"
	"github.com/PabloGalante/tur-agent/internal/app/segment"
	"github.com/PabloGalante/tur-agent/internal/domain"
	"github.com/PabloGalante/tur-agent/internal/observability"
)

// FallbackReply replaces a failed generation.
var FallbackReply = []string{"Ops, tive um probleminha aqui.", "Pode tentar novamente?"}

// Turn outcomes, also used as metric labels.
const (
	OutcomeReply     = "reply"
	OutcomeEmpty     = "empty"
	OutcomeFallback  = "fallback"
	OutcomePaused    = "paused"
	OutcomeGateError = "gate_error"
	OutcomeFixed     = "fixed_reply"
)

// Labels name both sides of the dialogue in stored memory turns.
type Labels struct {
	Customer string
	Agent    string
}

type Deps struct {
	Gate      domain.OverrideRegistry
	Sessions  domain.SessionStore
	Memory    domain.MemoryStore
	Assembler *assembler.Assembler
	LLM       domain.LLMClient
	Segmenter *segment.Segmenter
	Scheduler *delivery.Scheduler
	Labels    Labels
}

// Service is the orchestration engine: gate, memory, context assembly,
// generation, segmentation and pacing for one turn at a time.
type Service struct {
	gate      domain.OverrideRegistry
	sessions  domain.SessionStore
	memory    domain.MemoryStore
	assembler *assembler.Assembler
	llm       domain.LLMClient
	segmenter *segment.Segmenter
	scheduler *delivery.Scheduler
	labels    Labels
	now       func() time.Time
}

func NewService(d Deps) *Service {
	if d.Labels.Customer == "" {
		d.Labels.Customer = "Cliente"
	}
	if d.Labels.Agent == "" {
		d.Labels.Agent = "Marcinho"
	}
	if d.Segmenter == nil {
		d.Segmenter = segment.New(d.Labels.Agent+" diz:", d.Labels.Agent+":")
	}
	return &Service{
		gate:      d.Gate,
		sessions:  d.Sessions,
		memory:    d.Memory,
		assembler: d.Assembler,
		llm:       d.LLM,
		segmenter: d.Segmenter,
		scheduler: d.Scheduler,
		labels:    d.Labels,
		now:       time.Now,
	}
}

// HandleIncoming runs one turn and returns the plan to deliver. It never fails:
// a paused user gets an empty plan, a failed generation gets FallbackReply.
func (s *Service) HandleIncoming(ctx context.Context, msg domain.IncomingMessage) domain.DeliveryPlan {
	turnID := uuid.NewString()
	log := observability.LoggerFromContext(ctx).With(
		"turn_id", turnID,
		"user_id", msg.UserID,
		"channel", msg.Channel,
		"kind", msg.Kind,
	)
	empty := delivery.NewPlan(msg.UserID, msg.Channel, nil, nil)

	if !s.allowed(ctx, log, msg.UserID, msg.Channel) {
		return empty
	}

	session, err := s.sessions.Touch(msg.UserID, msg.Channel, s.now())
	if err != nil {
		log.Error("failed to touch session", "error", err)
		session = &domain.UserSession{UserID: msg.UserID, Channel: msg.Channel}
	}

	history, err := s.memory.Get(msg.UserID)
	if err != nil {
		log.Error("failed to load memory", "error", err)
	}
	session.History = history

	req := s.assembler.Build(ctx, msg, session)
	log.Debug("context assembled", "records", len(req.Records), "history_chars", len([]rune(history)))

	raw, err := s.llm.Generate(ctx, req.Fields)
	if err != nil {
		log.Error("generation failed, sending fallback", "error", err)
		observability.TurnsTotal.WithLabelValues(string(msg.Channel), OutcomeFallback).Inc()
		return delivery.NewPlan(msg.UserID, msg.Channel, FallbackReply, nil)
	}

	if err := s.memory.Append(msg.UserID, s.memoryTurn(msg.RawText, raw)); err != nil {
		log.Error("failed to append memory", "error", err)
	}

	units := s.segmenter.Split(raw)
	if len(units) == 0 {
		log.Warn("generated reply had no deliverable units")
		observability.TurnsTotal.WithLabelValues(string(msg.Channel), OutcomeEmpty).Inc()
		return empty
	}

	var attachments []domain.Attachment
	if req.Attachment != nil {
		attachments = append(attachments, *req.Attachment)
	}

	plan := delivery.NewPlan(msg.UserID, msg.Channel, units, attachments)
	observability.TurnsTotal.WithLabelValues(string(msg.Channel), OutcomeReply).Inc()
	log.Info("turn handled", "units", len(plan.Units), "attachments", len(plan.Attachments))
	return plan
}

// HandleFixedReply builds a plan from fixed units that bypass generation and
// memory, such as the audio apologies. The override gate still applies.
func (s *Service) HandleFixedReply(ctx context.Context, userID domain.UserID, channel domain.Channel, units []string) domain.DeliveryPlan {
	log := observability.LoggerFromContext(ctx).With("user_id", userID, "channel", channel)
	if !s.allowed(ctx, log, userID, channel) {
		return delivery.NewPlan(userID, channel, nil, nil)
	}
	if _, err := s.sessions.Touch(userID, channel, s.now()); err != nil {
		log.Error("failed to touch session", "error", err)
	}
	observability.TurnsTotal.WithLabelValues(string(channel), OutcomeFixed).Inc()
	return delivery.NewPlan(userID, channel, units, nil)
}

// Process handles a turn and delivers the resulting plan.
func (s *Service) Process(ctx context.Context, msg domain.IncomingMessage) (domain.DeliveryPlan, delivery.Report) {
	plan := s.HandleIncoming(ctx, msg)
	return plan, s.Deliver(ctx, plan)
}

func (s *Service) Deliver(ctx context.Context, plan domain.DeliveryPlan) delivery.Report {
	if s.scheduler == nil || plan.Empty() {
		return delivery.Report{}
	}
	return s.scheduler.Deliver(ctx, plan)
}

// allowed checks the override gate. An unreadable gate counts as paused so the
// bot never talks over a human operator.
func (s *Service) allowed(ctx context.Context, log *slog.Logger, userID domain.UserID, channel domain.Channel) bool {
	paused, err := s.gate.IsPaused(ctx, userID)
	if err != nil {
		log.Error("override check failed, skipping turn", "error", err)
		observability.TurnsTotal.WithLabelValues(string(channel), OutcomeGateError).Inc()
		return false
	}
	if paused {
		log.Info("user paused, skipping turn")
		observability.TurnsTotal.WithLabelValues(string(channel), OutcomePaused).Inc()
		return false
	}
	return true
}

func (s *Service) memoryTurn(text, reply string) string {
	return fmt.Sprintf("%s: %s\n%s: %s\n",
		s.labels.Customer, segment.Sanitize(text),
		s.labels.Agent, segment.Sanitize(reply))
}
