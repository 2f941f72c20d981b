package conversation_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/tur-agent/internal/app/conversation"
	"github.com/PabloGalante/tur-agent/internal/domain"
)

func TestHandleIncomingProducesPacedPlan(t *testing.T) {
	ctx := context.Background()
	h := newHarness("Marcinho: Opa, tudo certo ||| E contigo? ||| ")

	plan := h.svc.HandleIncoming(ctx, text("5511", "Oi, tudo bem?"))

	assert.Equal(t, []string{"Opa, tudo certo", "E contigo?"}, plan.Texts())
	assert.Equal(t, domain.UserID("5511"), plan.UserID)
	assert.Equal(t, domain.ChannelWhatsApp, plan.Channel)
	require.Len(t, plan.Attachments, 1)
	assert.Equal(t, "https://img.example/paraty.jpg", plan.Attachments[0].ImageURL)
	for _, u := range plan.Units {
		assert.Positive(t, u.EstimatedDelay)
	}

	history, _ := h.memory.Get("5511")
	assert.Equal(t, "Cliente: Oi, tudo bem?\nMarcinho: Marcinho: Opa, tudo certo   E contigo?   \n", history)

	require.Equal(t, 1, h.llm.Calls())
	fields := h.llm.fields[0]
	assert.Equal(t, "Oi, tudo bem?", fields[domain.FieldText])
	assert.Empty(t, fields[domain.FieldHistory])
	assert.Contains(t, fields[domain.FieldContext], "Pacote: Paraty com Passeio de Escuna")
}

func TestHistoryIsCarriedToNextTurn(t *testing.T) {
	ctx := context.Background()
	h := newHarness("Show.")

	h.svc.HandleIncoming(ctx, text("5511", "quero praia"))
	h.svc.HandleIncoming(ctx, text("5511", "e o valor?"))

	require.Equal(t, 2, h.llm.Calls())
	assert.Equal(t, "Cliente: quero praia\nMarcinho: Show.\n", h.llm.fields[1][domain.FieldHistory])
}

func TestPausedUserGetsEmptyPlanWithoutSideEffects(t *testing.T) {
	ctx := context.Background()
	h := newHarness("Opa ||| tudo bem")
	require.NoError(t, h.svc.SetPaused(ctx, "5511", true))

	for _, body := range []string{"oi", "", "quero o pacote ||| agora"} {
		plan := h.svc.HandleIncoming(ctx, text("5511", body))
		assert.True(t, plan.Empty())
	}

	assert.Zero(t, h.llm.Calls())
	assert.Zero(t, h.embedder.calls)
	history, _ := h.memory.Get("5511")
	assert.Empty(t, history)

	require.NoError(t, h.svc.SetPaused(ctx, "5511", false))
	assert.False(t, h.svc.HandleIncoming(ctx, text("5511", "oi")).Empty())
}

func TestGenerationFailureUsesFallbackAndKeepsMemory(t *testing.T) {
	ctx := context.Background()
	h := newHarness("")
	h.llm.err = errors.New("deadline exceeded")

	plan := h.svc.HandleIncoming(ctx, text("5511", "oi"))

	assert.Equal(t, conversation.FallbackReply, plan.Texts())
	assert.Empty(t, plan.Attachments)
	history, _ := h.memory.Get("5511")
	assert.Empty(t, history)
}

func TestPrefixOnlyReplyIsEmptyPlan(t *testing.T) {
	h := newHarness("Marcinho: ||| marcinho diz: \n ")

	plan := h.svc.HandleIncoming(context.Background(), text("5511", "oi"))

	assert.True(t, plan.Empty())
}

func TestProcessDeliversTextsThenImage(t *testing.T) {
	h := newHarness("Um ||| Dois")

	plan, rep := h.svc.Process(context.Background(), text("5511", "oi"))

	assert.Equal(t, 3, rep.Sent)
	assert.Equal(t, plan.Texts(), h.sender.Texts("5511"))
	require.Len(t, h.sender.items, 3)
	assert.Equal(t, "image", h.sender.items[2].Kind)
}

func TestDeliveryFailureDoesNotAbortPlan(t *testing.T) {
	h := newHarness("Um ||| Dois ||| Três")
	h.sender.fail = true

	_, rep := h.svc.Process(context.Background(), text("5511", "oi"))

	assert.Equal(t, 4, rep.Failed)
	assert.Len(t, h.sender.items, 4)
}

func TestPauseBetweenPlans(t *testing.T) {
	ctx := context.Background()
	h := newHarness("A1 ||| A2 ||| A3")

	// The operator pauses the user while plan A is being delivered.
	h.sender.onText = func(_ domain.UserID, text string) {
		if text == "A1" {
			_ = h.gate.SetPaused(ctx, "5511", true)
		}
	}

	planA, repA := h.svc.Process(ctx, text("5511", "quero viajar"))
	assert.Equal(t, []string{"A1", "A2", "A3"}, planA.Texts())
	assert.Equal(t, 4, repA.Sent)

	planB, repB := h.svc.Process(ctx, text("5511", "e aí?"))
	assert.True(t, planB.Empty())
	assert.Zero(t, repB.Sent)
	assert.Equal(t, 1, h.llm.Calls())
}

func TestFixedReplyHonorsGate(t *testing.T) {
	ctx := context.Background()
	h := newHarness("unused")
	units := []string{"Não consegui carregar seu áudio.", "Pode digitar por favor?"}

	plan := h.svc.HandleFixedReply(ctx, "5511", domain.ChannelWhatsApp, units)
	assert.Equal(t, units, plan.Texts())

	require.NoError(t, h.gate.SetPaused(ctx, "5511", true))
	assert.True(t, h.svc.HandleFixedReply(ctx, "5511", domain.ChannelWhatsApp, units).Empty())
	assert.Zero(t, h.llm.Calls())
}

func TestListUsers(t *testing.T) {
	ctx := context.Background()
	h := newHarness("Oi")

	h.svc.HandleIncoming(ctx, text("5511", "oi"))
	require.NoError(t, h.svc.SetPaused(ctx, "ghost", true))

	users, err := h.svc.ListUsers(ctx, 0)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, domain.UserID("5511"), users[0].UserID)
	assert.Equal(t, domain.ChannelWhatsApp, users[0].Channel)
	assert.False(t, users[0].Paused)
	assert.Positive(t, users[0].HistoryChars)
	assert.Equal(t, conversation.UserSummary{UserID: "ghost", Paused: true}, users[1])

	assert.Error(t, h.svc.SetPaused(ctx, "", true))
}

func TestListUsersReportsPausedSessions(t *testing.T) {
	ctx := context.Background()
	h := newHarness("Oi")

	h.svc.HandleIncoming(ctx, text("5511", "oi"))
	h.svc.HandleIncoming(ctx, text("5522", "oi"))
	require.NoError(t, h.svc.SetPaused(ctx, "5522", true))

	users, err := h.svc.ListUsers(ctx, 0)
	require.NoError(t, err)
	require.Len(t, users, 2)

	paused := map[domain.UserID]bool{}
	for _, u := range users {
		paused[u.UserID] = u.Paused
		assert.Equal(t, domain.ChannelWhatsApp, u.Channel)
	}
	assert.Equal(t, map[domain.UserID]bool{"5511": false, "5522": true}, paused)
}
