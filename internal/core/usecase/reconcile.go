package usecase

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/pkiselev/sop-assistant/internal/core/domain"
	"github.com/pkiselev/sop-assistant/internal/core/ports"
)

// ReconcileUseCase backfills extracted text for documents whose upload-time
// extraction produced nothing. It re-reads the stored blob and runs the
// extractor again; a second failure is returned to the worker for logging,
// nothing is rescheduled.
type ReconcileUseCase struct {
	repo      ports.DocumentRepository
	blobs     ports.BlobStore
	extractor ports.TextExtractor
}

func NewReconcileUseCase(
	repo ports.DocumentRepository,
	blobs ports.BlobStore,
	extractor ports.TextExtractor,
) *ReconcileUseCase {
	return &ReconcileUseCase{
		repo:      repo,
		blobs:     blobs,
		extractor: extractor,
	}
}

func (uc *ReconcileUseCase) ReconcileByID(ctx context.Context, documentID string) error {
	doc, err := uc.repo.GetAny(ctx, documentID)
	if err != nil {
		return err
	}
	if doc.HasContent() {
		slog.Debug("reconcile_skipped", "document_id", documentID, "reason", "content present")
		return nil
	}

	rc, err := uc.blobs.Open(ctx, doc.StoragePath)
	if err != nil {
		return fmt.Errorf("open blob %s: %w", doc.StoragePath, err)
	}
	defer rc.Close()

	raw, err := io.ReadAll(rc)
	if err != nil {
		return fmt.Errorf("read blob %s: %w", doc.StoragePath, err)
	}

	filename := doc.Metadata.OriginalName
	if filename == "" {
		filename = doc.Name
	}

	content, err := uc.extractor.Extract(ctx, filename, doc.MimeType, raw)
	if err != nil {
		return err
	}
	if strings.TrimSpace(content) == "" {
		slog.Info("reconcile_empty_extraction", "document_id", documentID)
		return nil
	}

	if err := uc.repo.SetContent(ctx, doc.ID, content); err != nil {
		return fmt.Errorf("persist extracted content: %w", err)
	}
	slog.Info("reconcile_backfilled", "document_id", documentID, "content_chars", len(content))
	return nil
}
