package content

import (
	"context"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/pkiselev/sop-assistant/internal/core/domain"
	"github.com/pkiselev/sop-assistant/internal/core/ports"
	"github.com/pkiselev/sop-assistant/internal/core/retrieval"
)

const extractionPrompt = "Extract and return the text content from this document. Return only the extracted text without any additional formatting or commentary."

// Extractor turns a raw file payload into plain text. Markdown is decoded
// and normalized locally, plain text is decoded verbatim, every other
// format is handed to the oracle as a base64 attachment.
type Extractor struct {
	oracle ports.Oracle
}

func NewExtractor(oracle ports.Oracle) *Extractor {
	return &Extractor{oracle: oracle}
}

func (e *Extractor) Extract(ctx context.Context, filename, mimeType string, data []byte) (string, error) {
	if isMarkdownFilename(filename) || isMarkdownMime(mimeType) {
		text, err := decodeUTF8(filename, data)
		if err != nil {
			return "", err
		}
		return retrieval.Normalize(text), nil
	}

	if isPlainTextMime(mimeType) {
		return decodeUTF8(filename, data)
	}

	text, err := e.oracle.GenerateWithAttachment(ctx, extractionPrompt, mimeType, data)
	if err != nil {
		return "", domain.WrapError(domain.ErrExtraction, "oracle extraction", err)
	}
	return text, nil
}

func isMarkdownFilename(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".md", ".markdown":
		return true
	default:
		return false
	}
}

func isMarkdownMime(mimeType string) bool {
	return baseMime(mimeType) == "text/markdown"
}

func isPlainTextMime(mimeType string) bool {
	switch baseMime(mimeType) {
	case "text/plain":
		return true
	default:
		return false
	}
}

func baseMime(mimeType string) string {
	mime, _, _ := strings.Cut(mimeType, ";")
	return strings.TrimSpace(strings.ToLower(mime))
}

func decodeUTF8(filename string, data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", domain.WrapError(domain.ErrExtraction, "decode text", invalidUTF8Error{filename: filename})
	}
	return string(data), nil
}

type invalidUTF8Error struct {
	filename string
}

func (e invalidUTF8Error) Error() string {
	return "payload is not valid UTF-8: " + e.filename
}
