package conversation

import (
	"context"
	"errors"

	"github.com/PabloGalante/tur-agent/internal/app/ingest"
	"github.com/PabloGalante/tur-agent/internal/observability"
)

// Pipeline is the per-event work a dispatcher worker runs: normalize, handle, deliver.
type Pipeline struct {
	normalizer *ingest.Normalizer
	service    *Service
}

func NewPipeline(normalizer *ingest.Normalizer, service *Service) *Pipeline {
	return &Pipeline{normalizer: normalizer, service: service}
}

func (p *Pipeline) Run(ctx context.Context, ev ingest.Event) {
	log := observability.LoggerFromContext(ctx).With("user_id", ev.Sender(), "channel", ev.Channel())

	res, err := p.normalizer.Normalize(ctx, ev)
	if err != nil {
		reason := "unsupported"
		if errors.Is(err, ingest.ErrFilteredOut) {
			reason = "filtered"
		}
		observability.EventsDropped.WithLabelValues(string(ingest.ProviderOf(ev)), reason).Inc()
		log.Info("event dropped", "reason", err.Error())
		return
	}

	if len(res.Reply) > 0 {
		plan := p.service.HandleFixedReply(ctx, ev.Sender(), ev.Channel(), res.Reply)
		p.service.Deliver(ctx, plan)
		return
	}

	if res.Message != nil {
		p.service.Process(ctx, *res.Message)
	}
}
