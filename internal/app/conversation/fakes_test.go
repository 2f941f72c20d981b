package conversation_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/PabloGalante/tur-agent/internal/adapters/storage/memory"
	"github.com/PabloGalante/tur-agent/internal/app/assembler"
	"github.com/PabloGalante/tur-agent/internal/app/conversation"
	"github.com/PabloGalante/tur-agent/internal/app/delivery"
	"github.com/PabloGalante/tur-agent/internal/app/segment"
	"github.com/PabloGalante/tur-agent/internal/domain"
)

type scriptedLLM struct {
	mu     sync.Mutex
	reply  string
	err    error
	calls  int32
	fields []map[string]string
}

func (l *scriptedLLM) Generate(_ context.Context, fields map[string]string) (string, error) {
	atomic.AddInt32(&l.calls, 1)
	l.mu.Lock()
	l.fields = append(l.fields, fields)
	l.mu.Unlock()
	return l.reply, l.err
}

func (l *scriptedLLM) Calls() int { return int(atomic.LoadInt32(&l.calls)) }

type countingEmbedder struct {
	calls int32
}

func (e *countingEmbedder) Embed(context.Context, string) ([]float32, error) {
	atomic.AddInt32(&e.calls, 1)
	return []float32{0, 0}, nil
}

type sent struct {
	User domain.UserID
	Kind string
	Text string
}

type memSender struct {
	mu     sync.Mutex
	items  []sent
	onText func(to domain.UserID, text string)
	fail   bool
}

func (s *memSender) push(to domain.UserID, kind, text string) error {
	s.mu.Lock()
	s.items = append(s.items, sent{User: to, Kind: kind, Text: text})
	s.mu.Unlock()
	if s.fail {
		return errors.New("send failed")
	}
	return nil
}

func (s *memSender) SendText(_ context.Context, _ domain.Channel, to domain.UserID, text string) error {
	err := s.push(to, "text", text)
	if s.onText != nil {
		s.onText(to, text)
	}
	return err
}

func (s *memSender) SendImage(_ context.Context, _ domain.Channel, to domain.UserID, url string) error {
	return s.push(to, "image", url)
}

func (s *memSender) SendTyping(context.Context, domain.Channel, domain.UserID) error {
	return nil
}

func (s *memSender) Texts(user domain.UserID) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, it := range s.items {
		if it.User == user && it.Kind == "text" {
			out = append(out, it.Text)
		}
	}
	return out
}

func noSleep(ctx context.Context, _ time.Duration) error { return ctx.Err() }

type harness struct {
	svc      *conversation.Service
	llm      *scriptedLLM
	embedder *countingEmbedder
	gate     *memory.OverrideRegistry
	memory   *memory.DialogueStore
	sender   *memSender
}

func newHarness(reply string, opts ...delivery.Option) *harness {
	h := &harness{
		llm:      &scriptedLLM{reply: reply},
		embedder: &countingEmbedder{},
		gate:     memory.NewOverrideRegistry(),
		memory:   memory.NewDialogueStore(2000),
		sender:   &memSender{},
	}

	index := memory.NewVectorIndex()
	_, _ = index.Load([]domain.RetrievalRecord{{
		Title:     "Paraty com Passeio de Escuna",
		Price:     "R$289",
		Images:    []string{"https://img.example/paraty.jpg"},
		Embedding: []float32{0, 0},
	}})

	h.svc = conversation.NewService(conversation.Deps{
		Gate:      h.gate,
		Sessions:  memory.NewSessionStore(),
		Memory:    h.memory,
		Assembler: assembler.New(h.embedder, index, nil, assembler.Options{TopK: 3, AttachImages: true}),
		LLM:       h.llm,
		Segmenter: segment.New("Marcinho diz:", "Marcinho:"),
		Scheduler: delivery.NewScheduler(h.sender, append([]delivery.Option{delivery.WithSleep(noSleep)}, opts...)...),
		Labels:    conversation.Labels{Customer: "Cliente", Agent: "Marcinho"},
	})
	return h
}

func text(user domain.UserID, body string) domain.IncomingMessage {
	return domain.IncomingMessage{
		UserID:     user,
		Channel:    domain.ChannelWhatsApp,
		Kind:       domain.KindText,
		RawText:    body,
		ReceivedAt: time.Now(),
	}
}
