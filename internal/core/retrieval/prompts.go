package retrieval

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/pkiselev/sop-assistant/internal/core/domain"
)

const contentPreviewChars = 1000

// truncatePreview cuts s to at most limit bytes without splitting a
// multi-byte rune at the boundary.
func truncatePreview(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

func buildSelectionPrompt(query string, candidates []domain.Document) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Given the user query: %q\n\nAvailable documents:\n", query)
	for i, doc := range candidates {
		preview := truncatePreview(doc.Content, contentPreviewChars)
		fmt.Fprintf(&b, "%d. Document: %s\n   Content preview: %s...\n\n", i+1, doc.Name, preview)
	}
	b.WriteString(`Analyze which documents are most relevant to answering this query. Consider direct keyword matches, semantic relevance and contextual relevance.

Return ONLY the document names that are relevant, separated by commas, ordered most relevant first. If no documents are relevant, return "none".

Example response format: "Document A, Document B" or "none"`)
	return b.String()
}

func buildSynthesisPrompt(query string, docs []domain.Document) string {
	var b strings.Builder
	b.WriteString("You are an AI assistant for an SOP (Standard Operating Procedure) management system. You have access to the following documents:\n\n")
	for _, doc := range docs {
		fmt.Fprintf(&b, "=== DOCUMENT: %s ===\n%s\n\n", doc.Name, doc.Content)
	}
	fmt.Fprintf(&b, `User Question: %q

Instructions:
1. Answer the question based ONLY on the information provided in the documents above
2. If the documents contain relevant information, provide a comprehensive answer
3. If the documents don't contain enough information to fully answer the question, acknowledge this and provide what information you can
4. Always mention the specific document name(s) when referencing information
5. Be specific and detailed in your response
6. If the question is not related to the documents, politely redirect the user to ask about the SOP content

Format your response to be clear, well-structured, and helpful.`, query)
	return b.String()
}

func buildNoDocumentsPrompt(query string) string {
	return fmt.Sprintf(`You are an AI assistant for an SOP (Standard Operating Procedure) management system. The user asked: %q

You don't have access to any relevant documents to answer this question. Let the user know that they need to upload relevant SOP documents first, and suggest what types of documents might be helpful.`, query)
}

func buildTitlePrompt(userMessage, assistantMessage string) string {
	return fmt.Sprintf(`Given the following conversation between a user and an AI assistant, generate a short, descriptive title (max 8 words) that summarizes the main topic or question. Do not use generic titles like 'New Chat' or 'Conversation'.

User: %s
AI: %s

Title:`, userMessage, assistantMessage)
}
