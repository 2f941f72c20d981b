package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	httpadapter "github.com/PabloGalante/tur-agent/internal/adapters/http"
	"github.com/PabloGalante/tur-agent/internal/adapters/llm"
	"github.com/PabloGalante/tur-agent/internal/adapters/meta"
	"github.com/PabloGalante/tur-agent/internal/adapters/storage/catalogfile"
	firestorestore "github.com/PabloGalante/tur-agent/internal/adapters/storage/firestore"
	memstore "github.com/PabloGalante/tur-agent/internal/adapters/storage/memory"
	"github.com/PabloGalante/tur-agent/internal/adapters/storage/redisstore"
	"github.com/PabloGalante/tur-agent/internal/app/assembler"
	"github.com/PabloGalante/tur-agent/internal/app/catalog"
	"github.com/PabloGalante/tur-agent/internal/app/conversation"
	"github.com/PabloGalante/tur-agent/internal/app/delivery"
	"github.com/PabloGalante/tur-agent/internal/app/ingest"
	"github.com/PabloGalante/tur-agent/internal/app/segment"
	"github.com/PabloGalante/tur-agent/internal/config"
	"github.com/PabloGalante/tur-agent/internal/domain"
	"github.com/PabloGalante/tur-agent/internal/observability"
)

const shutdownTimeout = 30 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()
	observability.SetLevel(cfg.LogLevel)
	logger := observability.Logger()

	// Generation, embeddings and transcription: mock or Gemini by ENV (useful for dev)
	var (
		llmClient   domain.LLMClient
		embedder    domain.Embedder
		transcriber domain.Transcriber
	)
	if cfg.UseMockLLM {
		logger.Info("using mock LLM")
		llmClient = llm.NewMockLLM(cfg.AgentName)
		embedder = llm.NewMockEmbedder(8)
		transcriber = &llm.MockTranscriber{}
	} else {
		client, err := llm.NewGenAIClient(ctx, cfg)
		if err != nil {
			log.Fatalf("error initializing genai client: %v", err)
		}
		logger.Info("using gemini", "model", cfg.ModelName, "embedding_model", cfg.EmbeddingModel)
		llmClient = llm.NewGeminiClient(client, cfg.ModelName, llm.NewPrompt(cfg.AgentName, cfg.AgencyName))
		embedder = llm.NewCachedEmbedder(llm.NewGeminiEmbedder(client, cfg.EmbeddingModel), cfg.EmbeddingCacheTTL)
		transcriber = llm.NewGeminiTranscriber(client, cfg.TranscriptionModel)
	}

	// Catalog: JSON file, Firestore or nothing
	var source domain.CatalogSource
	switch cfg.CatalogBackend {
	case "firestore":
		if cfg.GCPProjectID == "" {
			log.Fatal("TUR_GCP_PROJECT is required for the firestore catalog backend")
		}
		fsStore, err := firestorestore.NewCatalogStore(ctx, cfg.GCPProjectID, cfg.CatalogCollection)
		if err != nil {
			log.Fatalf("error initializing Firestore catalog: %v", err)
		}
		defer fsStore.Close()
		source = fsStore
	case "none":
	default:
		source = catalogfile.NewSource(cfg.CatalogPath, cfg.CatalogSummaryPath)
	}

	catalogSvc := catalog.NewService(source, memstore.NewVectorIndex())
	n, err := catalogSvc.Reload(ctx)
	if err != nil {
		logger.Error("catalog not loaded, retrieval disabled until reload", "backend", cfg.CatalogBackend, "error", err)
	} else {
		logger.Info("catalog loaded", "backend", cfg.CatalogBackend, "records", n)
	}
	if err := catalogSvc.CheckEmbedder(ctx, embedder); err != nil {
		logger.Warn("catalog search will fall back to no records", "error", err)
	}

	// Human override flags: memory or Redis
	var gate domain.OverrideRegistry
	switch cfg.OverrideBackend {
	case "redis":
		reg, err := redisstore.NewOverrideRegistry(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatalf("error connecting to redis: %v", err)
		}
		defer reg.Close()
		gate = reg
	default:
		gate = memstore.NewOverrideRegistry()
	}

	graph := meta.NewClient(meta.Options{
		APIVersion:            cfg.GraphAPIVersion,
		WhatsAppToken:         cfg.WhatsAppToken,
		WhatsAppPhoneNumberID: cfg.WhatsAppPhoneNumberID,
		InstagramToken:        cfg.InstagramToken,
	})

	var schedOpts []delivery.Option
	if cfg.AbortOnPause {
		schedOpts = append(schedOpts, delivery.WithAbortOnPause(gate))
	}

	svc := conversation.NewService(conversation.Deps{
		Gate:     gate,
		Sessions: memstore.NewSessionStore(),
		Memory:   memstore.NewDialogueStore(cfg.MemoryMaxChars),
		Assembler: assembler.New(embedder, catalogSvc, catalogSvc, assembler.Options{
			TopK:         cfg.RetrievalTopK,
			AttachImages: cfg.AttachImages,
		}),
		LLM:       llmClient,
		Segmenter: segment.New(cfg.Prefixes()...),
		Scheduler: delivery.NewScheduler(graph, schedOpts...),
		Labels:    conversation.Labels{Customer: cfg.CustomerLabel, Agent: cfg.AgentName},
	})

	pipeline := conversation.NewPipeline(ingest.NewNormalizer(graph, transcriber, cfg.CommentKeywords), svc)
	dispatcher := conversation.NewDispatcher(pipeline.Run)

	srv := &http.Server{
		Addr: ":" + cfg.Port,
		Handler: httpadapter.NewServer(svc, dispatcher, catalogSvc, httpadapter.WebhookConfig{
			VerifyToken: cfg.WebhookVerifyToken,
			AppSecret:   cfg.AppSecret,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("tur API listening", "port", cfg.Port, "mode", cfg.Mode)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown", "error", err)
		}
		// In-flight turns finish delivering before the process exits.
		return dispatcher.Close(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatal(err)
	}
}
