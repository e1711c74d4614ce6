package httpadapter

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/pkiselev/sop-assistant/internal/core/domain"
	"github.com/pkiselev/sop-assistant/internal/core/ports"
	"github.com/pkiselev/sop-assistant/internal/observability/metrics"
)

type Router struct {
	documents ports.DocumentService
	chat      ports.ChatService
	auth      *Authenticator
	metrics   *metrics.HTTPServerMetrics
	service   string
}

func NewRouter(
	documents ports.DocumentService,
	chat ports.ChatService,
	auth *Authenticator,
	m *metrics.HTTPServerMetrics,
	service string,
) *Router {
	return &Router{
		documents: documents,
		chat:      chat,
		auth:      auth,
		metrics:   m,
		service:   service,
	}
}

func (rt *Router) Handler() http.Handler {
	api := http.NewServeMux()
	api.HandleFunc("/v1/documents", rt.documentsCollection)
	api.HandleFunc("/v1/chat", rt.postChat)
	api.HandleFunc("/v1/conversations", rt.listConversations)
	api.HandleFunc("/v1/conversations/", rt.conversationMessages)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}
	mux.Handle("/v1/", rt.auth.Middleware(api))

	var handler http.Handler = mux
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(rt.service, handler)
	}
	return requestIDMiddleware(accessLogMiddleware(handler))
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) documentsCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		rt.uploadDocument(w, r)
	case http.MethodGet:
		rt.listDocuments(w, r)
	case http.MethodDelete:
		rt.deleteDocument(w, r)
	default:
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
	}
}

func (rt *Router) uploadDocument(w http.ResponseWriter, r *http.Request) {
	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'file' is required"})
		return
	}
	defer file.Close()

	doc, err := rt.documents.Upload(
		r.Context(),
		OwnerFromContext(r.Context()),
		r.FormValue("name"),
		fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"),
		fileHeader.Size,
		file,
	)
	if err != nil {
		writeError(w, err)
		return
	}
	if rt.metrics != nil {
		rt.metrics.RecordUpload(rt.service, doc.HasContent())
	}
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "document": doc})
}

func (rt *Router) listDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := rt.documents.List(r.Context(), OwnerFromContext(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": docs})
}

func (rt *Router) deleteDocument(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.URL.Query().Get("id"))
	if id == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "document id is required"})
		return
	}
	if err := rt.documents.Delete(r.Context(), OwnerFromContext(r.Context()), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (rt *Router) postChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req struct {
		Message        string   `json:"message"`
		ConversationID string   `json:"conversation_id"`
		DocumentIDs    []string `json:"document_ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	start := time.Now()
	result, err := rt.chat.Chat(r.Context(), domain.ChatQuery{
		OwnerID:        OwnerFromContext(r.Context()),
		ConversationID: req.ConversationID,
		Message:        req.Message,
		ExplicitIDs:    req.DocumentIDs,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	if rt.metrics != nil {
		rt.metrics.RecordChatObservation(rt.service, result.DegradedSearch, len(result.Citations), len(result.DocumentsUsed), time.Since(start))
	}
	writeJSON(w, http.StatusOK, result)
}

func (rt *Router) listConversations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	convs, err := rt.chat.ListConversations(r.Context(), OwnerFromContext(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"conversations": convs})
}

func (rt *Router) conversationMessages(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/v1/conversations/")
	conversationID, tail, _ := strings.Cut(rest, "/")
	if conversationID == "" || tail != "messages" {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}

	msgs, err := rt.chat.ListMessages(r.Context(), OwnerFromContext(r.Context()), conversationID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": msgs})
}

func writeError(w http.ResponseWriter, err error) {
	status := mapErrorToHTTPStatus(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "internal error"
	}
	writeJSON(w, status, map[string]string{"error": message})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
