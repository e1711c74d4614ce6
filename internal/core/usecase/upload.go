package usecase

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pkiselev/sop-assistant/internal/core/domain"
	"github.com/pkiselev/sop-assistant/internal/core/ports"
)

const DefaultMaxUploadBytes = 10 << 20

var allowedMimeTypes = map[string]struct{}{
	"application/pdf": {},
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": {},
	"text/plain":    {},
	"text/markdown": {},
}

// DocumentUseCase orchestrates upload, listing and deletion of owner-scoped
// documents. Upload extracts text inline and best-effort: a failed or empty
// extraction never fails the upload, it only leaves content empty for the
// reconciler to retry later.
type DocumentUseCase struct {
	repo      ports.DocumentRepository
	blobs     ports.BlobStore
	extractor ports.TextExtractor
	queue     ports.EventQueue
	maxBytes  int64
}

func NewDocumentUseCase(
	repo ports.DocumentRepository,
	blobs ports.BlobStore,
	extractor ports.TextExtractor,
	queue ports.EventQueue,
	maxBytes int64,
) *DocumentUseCase {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	return &DocumentUseCase{
		repo:      repo,
		blobs:     blobs,
		extractor: extractor,
		queue:     queue,
		maxBytes:  maxBytes,
	}
}

func (uc *DocumentUseCase) Upload(
	ctx context.Context,
	ownerID, displayName, filename, mimeType string,
	size int64,
	body io.Reader,
) (*domain.Document, error) {
	if strings.TrimSpace(filename) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "upload document", fmt.Errorf("filename is required"))
	}
	normalizedType := normalizeMimeType(mimeType)
	if _, ok := allowedMimeTypes[normalizedType]; !ok {
		return nil, domain.WrapError(domain.ErrInvalidInput, "upload document",
			fmt.Errorf("unsupported file type %q", mimeType))
	}
	if size > uc.maxBytes {
		return nil, domain.WrapError(domain.ErrInvalidInput, "upload document",
			fmt.Errorf("file size %d exceeds limit %d", size, uc.maxBytes))
	}

	raw, err := io.ReadAll(io.LimitReader(body, uc.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read upload body: %w", err)
	}
	if int64(len(raw)) > uc.maxBytes {
		return nil, domain.WrapError(domain.ErrInvalidInput, "upload document",
			fmt.Errorf("file size exceeds limit %d", uc.maxBytes))
	}
	if len(raw) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "upload document", fmt.Errorf("file is empty"))
	}

	content, err := uc.extractor.Extract(ctx, filename, normalizedType, raw)
	if err != nil {
		// Extraction is best-effort at upload time. The document is stored
		// with empty content and queued for the reconciler.
		slog.Warn("inline_extraction_failed", "filename", filename, "error", err)
		content = ""
	}

	now := time.Now().UTC()
	storageKey := buildStorageKey(ownerID, filename, now)

	if err := uc.blobs.Put(ctx, storageKey, normalizedType, bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("store upload blob: %w", err)
	}

	name := strings.TrimSpace(displayName)
	if name == "" {
		name = filename
	}

	doc := &domain.Document{
		ID:          uuid.NewString(),
		OwnerID:     ownerID,
		Name:        name,
		StoragePath: storageKey,
		MimeType:    normalizedType,
		SizeBytes:   int64(len(raw)),
		Content:     content,
		Metadata: domain.DocumentMetadata{
			OriginalName: filename,
			PublicURL:    uc.blobs.PublicURL(storageKey),
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := uc.repo.Create(ctx, doc); err != nil {
		// The blob is orphaned here. Metadata is the source of truth, so the
		// upload still fails.
		return nil, fmt.Errorf("create document metadata: %w", err)
	}

	if !doc.HasContent() && uc.queue != nil {
		if err := uc.queue.PublishDocumentUploaded(ctx, doc.ID); err != nil {
			slog.Warn("publish_upload_event_failed", "document_id", doc.ID, "error", err)
		}
	}

	return doc, nil
}

func normalizeMimeType(mimeType string) string {
	base, _, _ := strings.Cut(mimeType, ";")
	return strings.ToLower(strings.TrimSpace(base))
}

func buildStorageKey(ownerID, filename string, now time.Time) string {
	ext := strings.ToLower(filepath.Ext(filename))
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%s/%d-%s%s", ownerID, now.UnixMilli(), suffix, ext)
}
