package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pkiselev/sop-assistant/internal/core/domain"
)

func (uc *DocumentUseCase) List(ctx context.Context, ownerID string) ([]domain.Document, error) {
	docs, err := uc.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return docs, nil
}

// Delete removes the blob best-effort, then deletes the metadata row.
// Metadata is authoritative: a failed blob removal only leaves an orphaned
// object behind, it never blocks the delete.
func (uc *DocumentUseCase) Delete(ctx context.Context, ownerID, id string) error {
	doc, err := uc.repo.GetByID(ctx, ownerID, id)
	if err != nil {
		return err
	}

	if err := uc.blobs.Remove(ctx, doc.StoragePath); err != nil {
		slog.Warn("blob_remove_failed", "document_id", id, "storage_path", doc.StoragePath, "error", err)
	}

	if err := uc.repo.Delete(ctx, ownerID, id); err != nil {
		return err
	}
	return nil
}
