package domain

import "time"

// Document is an owner-scoped uploaded file with its extracted plain text.
// Content stays empty until extraction succeeds; when present it is always
// valid UTF-8 plain text regardless of the original format.
type Document struct {
	ID          string           `json:"id"`
	OwnerID     string           `json:"-"`
	Name        string           `json:"name"`
	StoragePath string           `json:"file_path"`
	MimeType    string           `json:"file_type"`
	SizeBytes   int64            `json:"file_size"`
	Content     string           `json:"-"`
	Metadata    DocumentMetadata `json:"metadata"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

type DocumentMetadata struct {
	OriginalName string `json:"original_name,omitempty"`
	PublicURL    string `json:"public_url,omitempty"`
}

func (d *Document) HasContent() bool {
	return d.Content != ""
}
