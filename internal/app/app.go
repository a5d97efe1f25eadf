package app

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/libris/internal/common"
	"github.com/ternarybob/libris/internal/handlers"
	"github.com/ternarybob/libris/internal/interfaces"
	"github.com/ternarybob/libris/internal/services/answer"
	"github.com/ternarybob/libris/internal/services/chunker"
	"github.com/ternarybob/libris/internal/services/ingest"
	"github.com/ternarybob/libris/internal/services/llm"
	"github.com/ternarybob/libris/internal/services/pdf"
	"github.com/ternarybob/libris/internal/services/retriever"
	"github.com/ternarybob/libris/internal/services/vectorindex"
	badgerstore "github.com/ternarybob/libris/internal/storage/badger"
)

// App holds all application components and dependencies
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	StorageManager interfaces.StorageManager
	Embedder       interfaces.Embedder
	Registry       *llm.Registry
	Index          *vectorindex.Index

	IngestService    *ingest.Service
	RetrieverService *retriever.Service
	AnswerGenerator  *answer.Generator

	APIHandler      *handlers.APIHandler
	DocumentHandler *handlers.DocumentHandler
	QuestionHandler *handlers.QuestionHandler
}

// New initializes the application in dependency order: storage, providers,
// index, services, handlers. Embeddings require a Gemini key; answering
// providers beyond the embedder are optional.
func New(ctx context.Context, cfg *common.Config, logger arbor.ILogger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	storageManager, err := badgerstore.NewManager(logger, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	app.StorageManager = storageManager
	logger.Debug().
		Str("storage", "badger").
		Str("path", cfg.Storage.Badger.Path).
		Msg("Storage layer initialized")

	if cfg.Gemini.APIKey == "" {
		storageManager.Close()
		return nil, common.NewConfigError(
			"Gemini API key is required for embeddings; set LIBRIS_GEMINI_API_KEY or gemini.api_key in config", nil)
	}

	gemini, err := llm.NewGeminiService(ctx, &cfg.Gemini, logger)
	if err != nil {
		storageManager.Close()
		return nil, fmt.Errorf("failed to initialize Gemini service: %w", err)
	}
	app.Embedder = gemini

	registry := llm.NewRegistry(string(cfg.LLM.DefaultProvider), logger)
	registry.Register(gemini)
	if cfg.Claude.APIKey != "" {
		registry.Register(llm.NewClaudeService(&cfg.Claude, logger))
	}
	app.Registry = registry
	logger.Info().
		Strs("providers", registry.Names()).
		Str("default", string(cfg.LLM.DefaultProvider)).
		Msg("Completion providers registered")

	app.Index = vectorindex.New(
		app.Embedder.Dimension(),
		app.Embedder.ModelName(),
		storageManager.SnapshotStorage(),
		logger,
	)
	if err := app.Index.Load(ctx); err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to load vector index: %w", err)
	}

	if err := app.initServices(); err != nil {
		app.Close()
		return nil, err
	}

	if err := app.IngestService.VerifyConsistency(ctx); err != nil {
		app.Close()
		return nil, fmt.Errorf("startup consistency check failed: %w", err)
	}

	app.initHandlers()

	logger.Info().
		Int("indexed_vectors", app.Index.Count()).
		Msg("Application initialization complete")
	return app, nil
}

// initServices initializes the business services in dependency order
func (a *App) initServices() error {
	textChunker, err := chunker.New(chunker.Config{
		Size:    a.Config.Chunking.Size,
		Overlap: a.Config.Chunking.Overlap,
	})
	if err != nil {
		return err
	}

	a.IngestService = ingest.NewService(
		pdf.NewExtractor(a.Logger),
		a.Embedder,
		textChunker,
		a.Index,
		a.StorageManager.DocumentStorage(),
		a.Logger,
	)

	a.RetrieverService = retriever.NewService(
		a.Embedder,
		a.Index,
		a.Config.Retrieval.TopK,
		a.Logger,
	)

	a.AnswerGenerator = answer.NewGenerator(
		a.Registry,
		a.Config.Retrieval.Temperature,
		a.Logger,
	)

	return nil
}

// initHandlers initializes all HTTP handlers
func (a *App) initHandlers() {
	a.APIHandler = handlers.NewAPIHandler(a.IngestService, a.Registry.Names())
	a.DocumentHandler = handlers.NewDocumentHandler(a.IngestService)
	a.QuestionHandler = handlers.NewQuestionHandler(a.RetrieverService, a.AnswerGenerator)
}

// Close closes all application resources
func (a *App) Close() error {
	if a.Registry != nil {
		if err := a.Registry.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close providers")
		}
	}

	if a.StorageManager != nil {
		if err := a.StorageManager.Close(); err != nil {
			return fmt.Errorf("failed to close storage: %w", err)
		}
		a.Logger.Info().Msg("Storage closed")
	}

	return nil
}
