package retrieval

import (
	"regexp"
	"strings"
)

var (
	reHeading       = regexp.MustCompile(`(?m)^#{1,6}\s+`)
	reBold          = regexp.MustCompile(`\*\*(.*?)\*\*`)
	reBoldAlt       = regexp.MustCompile(`__(.*?)__`)
	reItalic        = regexp.MustCompile(`\*(.*?)\*`)
	reItalicAlt     = regexp.MustCompile(`_(.*?)_`)
	reStrikethrough = regexp.MustCompile(`~~(.*?)~~`)
	reFencedBlock   = regexp.MustCompile("(?s)```.*?```")
	reInlineCode    = regexp.MustCompile("`([^`]+)`")
	reImage         = regexp.MustCompile(`!\[[^\]]*\]\([^)]+\)`)
	reLink          = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)
	reHorizontal    = regexp.MustCompile(`(?m)^[-*_]{3,}$`)
	reBlockquote    = regexp.MustCompile(`(?m)^>\s+`)
	reBulletMarker  = regexp.MustCompile(`(?m)^\s*[-*+]\s+`)
	reNumberMarker  = regexp.MustCompile(`(?m)^\s*\d+\.\s+`)
	reBlankRuns     = regexp.MustCompile(`\n\s*\n`)
)

// Normalize strips lightweight markdown syntax, keeping the prose. Fenced
// code blocks are dropped entirely, link text is kept, images are removed.
// The function is pure and idempotent; input without markup passes through
// untouched apart from blank-line collapsing and outer trimming.
func Normalize(markup string) string {
	text := markup
	text = reFencedBlock.ReplaceAllString(text, "")
	text = reHeading.ReplaceAllString(text, "")
	text = reBold.ReplaceAllString(text, "$1")
	text = reBoldAlt.ReplaceAllString(text, "$1")
	text = reItalic.ReplaceAllString(text, "$1")
	text = reItalicAlt.ReplaceAllString(text, "$1")
	text = reStrikethrough.ReplaceAllString(text, "$1")
	text = reInlineCode.ReplaceAllString(text, "$1")
	text = reImage.ReplaceAllString(text, "")
	text = reLink.ReplaceAllString(text, "$1")
	text = reHorizontal.ReplaceAllString(text, "")
	text = reBlockquote.ReplaceAllString(text, "")
	text = reBulletMarker.ReplaceAllString(text, "")
	text = reNumberMarker.ReplaceAllString(text, "")
	text = reBlankRuns.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
