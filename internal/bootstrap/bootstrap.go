package bootstrap

import (
	"context"
	"fmt"

	"github.com/pkiselev/sop-assistant/internal/config"
	"github.com/pkiselev/sop-assistant/internal/core/ports"
	"github.com/pkiselev/sop-assistant/internal/core/retrieval"
	"github.com/pkiselev/sop-assistant/internal/core/usecase"
	"github.com/pkiselev/sop-assistant/internal/infrastructure/extractor/content"
	"github.com/pkiselev/sop-assistant/internal/infrastructure/llm/gemini"
	"github.com/pkiselev/sop-assistant/internal/infrastructure/queue/nats"
	"github.com/pkiselev/sop-assistant/internal/infrastructure/repository/postgres"
	"github.com/pkiselev/sop-assistant/internal/infrastructure/resilience"
	"github.com/pkiselev/sop-assistant/internal/infrastructure/storage/localfs"
	"github.com/pkiselev/sop-assistant/internal/infrastructure/storage/s3"
)

type App struct {
	Config config.Config

	Queue      ports.EventQueue
	Documents  ports.DocumentService
	Chat       ports.ChatService
	Reconciler ports.DocumentReconciler

	oracle  *gemini.Client
	closeFn func()
}

// SetOracleCallObserver routes oracle call durations into the caller's
// metrics. Wire it before serving traffic.
func (a *App) SetOracleCallObserver(observer gemini.CallObserver) {
	a.oracle.SetCallObserver(observer)
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	repo := postgres.NewDocumentRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	conversations := postgres.NewConversationRepository(db)

	blobs, err := newBlobStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("init blob store: %w", err)
	}

	queue, err := nats.New(cfg.NATSURL, cfg.NATSSubject)
	if err != nil {
		return nil, fmt.Errorf("init event queue: %w", err)
	}

	guard := resilience.NewGuard(resilience.Config{
		Enabled:          cfg.BreakerEnabled,
		MinRequests:      uint32(cfg.BreakerMinRequests),
		FailureRatio:     cfg.BreakerFailureRatio,
		OpenTimeout:      cfg.BreakerOpenTimeout,
		HalfOpenMaxCalls: uint32(cfg.BreakerHalfOpenMaxCalls),
	})
	oracle := gemini.New(cfg.GeminiURL, cfg.GeminiModel, cfg.GeminiAPIKey, guard)

	extractor := content.NewExtractor(oracle)
	selector := retrieval.NewSelector(oracle)
	synthesizer := retrieval.NewSynthesizer(oracle)
	titler := retrieval.NewTitleSummarizer(oracle)

	documents := usecase.NewDocumentUseCase(repo, blobs, extractor, queue, cfg.MaxUploadBytes)
	chat := usecase.NewChatUseCase(repo, conversations, selector, synthesizer, titler)
	reconciler := usecase.NewReconcileUseCase(repo, blobs, extractor)

	return &App{
		Config: cfg,

		Queue:      queue,
		Documents:  documents,
		Chat:       chat,
		Reconciler: reconciler,

		oracle: oracle,
		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func newBlobStore(ctx context.Context, cfg config.Config) (ports.BlobStore, error) {
	switch cfg.StorageBackend {
	case "s3":
		return s3.New(ctx, cfg.S3Region, cfg.S3Bucket, cfg.S3Prefix, cfg.StorageBaseURL)
	case "localfs":
		return localfs.New(cfg.StoragePath, cfg.StorageBaseURL)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
