package delivery

import (
	"context"
	"time"

	"github.com/PabloGalante/tur-agent/internal/domain"
	"github.com/PabloGalante/tur-agent/internal/observability"
)

// Gate is the read side of the override registry.
type Gate interface {
	IsPaused(ctx context.Context, userID domain.UserID) (bool, error)
}

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Sleep is the real-time SleepFunc.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Report summarizes one plan delivery.
type Report struct {
	Sent    int
	Failed  int
	Skipped int
	Aborted bool
}

type Scheduler struct {
	sender       domain.ChannelSender
	gate         Gate
	abortOnPause bool
	sleep        SleepFunc
}

type Option func(*Scheduler)

// WithSleep replaces the real clock, mostly for tests.
func WithSleep(fn SleepFunc) Option {
	return func(s *Scheduler) { s.sleep = fn }
}

// WithAbortOnPause makes the scheduler re-check the gate before every unit and
// stop the plan as soon as the user is paused.
func WithAbortOnPause(gate Gate) Option {
	return func(s *Scheduler) {
		s.gate = gate
		s.abortOnPause = gate != nil
	}
}

func NewScheduler(sender domain.ChannelSender, opts ...Option) *Scheduler {
	s := &Scheduler{sender: sender, sleep: Sleep}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Deliver sends a plan in order: typing indicator, then each text after its pause,
// then each attachment followed by ImagePause. A failed send is logged and the
// rest of the plan continues. Cancelling ctx stops the plan.
func (s *Scheduler) Deliver(ctx context.Context, plan domain.DeliveryPlan) Report {
	var rep Report
	if plan.Empty() {
		return rep
	}

	log := observability.LoggerFromContext(ctx).With("user_id", plan.UserID, "channel", plan.Channel)
	total := len(plan.Units) + len(plan.Attachments)
	done := 0

	stop := func(reason string) Report {
		rep.Skipped = total - done
		rep.Aborted = true
		observability.DeliveredUnits.WithLabelValues(string(plan.Channel), "any", "skipped").Add(float64(rep.Skipped))
		log.Info("delivery stopped", "reason", reason, "skipped", rep.Skipped)
		return rep
	}

	if err := s.sender.SendTyping(ctx, plan.Channel, plan.UserID); err != nil {
		log.Warn("typing indicator failed", "error", err)
	}

	for i, unit := range plan.Units {
		log.Debug("pacing unit", "index", i, "delay", unit.EstimatedDelay)
		if err := s.sleep(ctx, unit.EstimatedDelay); err != nil {
			return stop("context done")
		}
		if s.paused(ctx, plan.UserID) {
			return stop("paused")
		}

		s.record(ctx, &rep, plan, "text", s.sender.SendText(ctx, plan.Channel, plan.UserID, unit.Text))
		done++
	}

	for _, att := range plan.Attachments {
		if s.paused(ctx, plan.UserID) {
			return stop("paused")
		}
		s.record(ctx, &rep, plan, "image", s.sender.SendImage(ctx, plan.Channel, plan.UserID, att.ImageURL))
		done++
		if err := s.sleep(ctx, ImagePause); err != nil && done < total {
			return stop("context done")
		}
	}

	log.Info("plan delivered", "sent", rep.Sent, "failed", rep.Failed)
	return rep
}

// paused treats an unreadable gate as paused, like the turn-level check.
func (s *Scheduler) paused(ctx context.Context, userID domain.UserID) bool {
	if !s.abortOnPause {
		return false
	}
	paused, err := s.gate.IsPaused(ctx, userID)
	if err != nil {
		observability.LoggerFromContext(ctx).Error("override check during delivery, stopping plan", "user_id", userID, "error", err)
		return true
	}
	return paused
}

func (s *Scheduler) record(ctx context.Context, rep *Report, plan domain.DeliveryPlan, kind string, err error) {
	ch := string(plan.Channel)
	if err != nil {
		rep.Failed++
		observability.DeliveredUnits.WithLabelValues(ch, kind, "failed").Inc()
		observability.LoggerFromContext(ctx).Error("send failed",
			"user_id", plan.UserID, "channel", plan.Channel, "kind", kind, "error", err)
		return
	}
	rep.Sent++
	observability.DeliveredUnits.WithLabelValues(ch, kind, "ok").Inc()
}
