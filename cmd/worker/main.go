package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkiselev/sop-assistant/internal/bootstrap"
	"github.com/pkiselev/sop-assistant/internal/config"
	"github.com/pkiselev/sop-assistant/internal/observability/logging"
	"github.com/pkiselev/sop-assistant/internal/observability/metrics"
)

func main() {
	cfg := config.Load()
	slog.SetDefault(logging.NewJSONLogger("worker", cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		slog.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	m := metrics.NewWorkerMetrics("worker")
	app.SetOracleCallObserver(func(operation string, duration time.Duration) {
		m.RecordOracleCall("worker", operation, duration)
	})
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", m.Handler())
		slog.Info("worker_metrics_listening", "port", cfg.WorkerMetricsPort)
		if err := http.ListenAndServe(":"+cfg.WorkerMetricsPort, mux); err != nil && err != http.ErrServerClosed {
			slog.Error("worker_metrics_server_failed", "error", err)
		}
	}()

	slog.Info("worker_subscribed", "subject", cfg.NATSSubject)
	err = app.Queue.SubscribeDocumentUploaded(ctx, func(handlerCtx context.Context, documentID string, publishedAt time.Time) error {
		if !publishedAt.IsZero() {
			m.ObserveQueueLag("worker", time.Since(publishedAt))
		}

		reconcileCtx, cancel := context.WithTimeout(handlerCtx, 5*time.Minute)
		defer cancel()

		m.StartReconcile()
		start := time.Now()
		reconcileErr := app.Reconciler.ReconcileByID(reconcileCtx, documentID)
		m.FinishReconcile("worker", time.Since(start), reconcileErr)

		if reconcileErr != nil {
			slog.Error("reconcile_failed", "document_id", documentID, "error", reconcileErr)
		}
		return reconcileErr
	})
	if err != nil {
		slog.Error("worker_subscribe_failed", "error", err)
		os.Exit(1)
	}
}
