package nats

import (
	"testing"
	"time"
)

func TestUploadedEventRoundTrip(t *testing.T) {
	publishedAt := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

	payload := encodeUploadedEvent("doc-42", publishedAt)
	documentID, decodedAt := decodeUploadedEvent(payload)

	if documentID != "doc-42" {
		t.Fatalf("expected document id doc-42, got %q", documentID)
	}
	if !decodedAt.Equal(publishedAt) {
		t.Fatalf("expected published_at %v, got %v", publishedAt, decodedAt)
	}
}

func TestDecodeUploadedEventBareID(t *testing.T) {
	documentID, publishedAt := decodeUploadedEvent([]byte("doc-legacy"))

	if documentID != "doc-legacy" {
		t.Fatalf("expected document id doc-legacy, got %q", documentID)
	}
	if !publishedAt.IsZero() {
		t.Fatalf("expected zero published_at for bare payload, got %v", publishedAt)
	}
}

func TestDecodeUploadedEventMalformedJSON(t *testing.T) {
	documentID, publishedAt := decodeUploadedEvent([]byte("{broken"))

	if documentID != "{broken" {
		t.Fatalf("expected payload echoed as id, got %q", documentID)
	}
	if !publishedAt.IsZero() {
		t.Fatalf("expected zero published_at, got %v", publishedAt)
	}
}
