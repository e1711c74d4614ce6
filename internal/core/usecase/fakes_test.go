package usecase

import (
	"bytes"
	"context"
	"errors"
	"io"
	"time"

	"github.com/pkiselev/sop-assistant/internal/core/domain"
	"github.com/pkiselev/sop-assistant/internal/core/retrieval"
)

type docRepoFake struct {
	docs []domain.Document

	created      *domain.Document
	createErr    error
	listErr      error
	setContentID string
	setContent   string
	setErr       error
	deletedID    string
	deleteErr    error
}

func (f *docRepoFake) Create(_ context.Context, doc *domain.Document) error {
	if f.createErr != nil {
		return f.createErr
	}
	copyDoc := *doc
	f.created = &copyDoc
	return nil
}

func (f *docRepoFake) GetByID(_ context.Context, ownerID, id string) (*domain.Document, error) {
	for i := range f.docs {
		if f.docs[i].ID == id && f.docs[i].OwnerID == ownerID {
			copyDoc := f.docs[i]
			return &copyDoc, nil
		}
	}
	return nil, domain.WrapError(domain.ErrDocumentNotFound, "get document", errors.New("no row"))
}

func (f *docRepoFake) GetAny(_ context.Context, id string) (*domain.Document, error) {
	for i := range f.docs {
		if f.docs[i].ID == id {
			copyDoc := f.docs[i]
			return &copyDoc, nil
		}
	}
	return nil, domain.WrapError(domain.ErrDocumentNotFound, "get document", errors.New("no row"))
}

func (f *docRepoFake) ListByOwner(_ context.Context, ownerID string) ([]domain.Document, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]domain.Document, 0, len(f.docs))
	for _, doc := range f.docs {
		if doc.OwnerID == ownerID {
			out = append(out, doc)
		}
	}
	return out, nil
}

func (f *docRepoFake) SetContent(_ context.Context, id, content string) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.setContentID = id
	f.setContent = content
	return nil
}

func (f *docRepoFake) Delete(_ context.Context, ownerID, id string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deletedID = id
	return nil
}

type blobFake struct {
	putKey  string
	putMime string
	putBody []byte
	putErr  error

	openData map[string][]byte
	openErr  error

	removedKey string
	removeErr  error

	urlBase string
}

func (f *blobFake) Put(_ context.Context, key, mimeType string, data io.Reader) error {
	if f.putErr != nil {
		return f.putErr
	}
	raw, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	f.putKey = key
	f.putMime = mimeType
	f.putBody = raw
	return nil
}

func (f *blobFake) Open(_ context.Context, key string) (io.ReadCloser, error) {
	if f.openErr != nil {
		return nil, f.openErr
	}
	raw, ok := f.openData[key]
	if !ok {
		return nil, errors.New("blob not found")
	}
	return io.NopCloser(bytes.NewReader(raw)), nil
}

func (f *blobFake) Remove(_ context.Context, key string) error {
	f.removedKey = key
	return f.removeErr
}

func (f *blobFake) PublicURL(key string) string {
	if f.urlBase == "" {
		return "https://blobs.test/" + key
	}
	return f.urlBase + "/" + key
}

type extractorFake struct {
	text         string
	err          error
	calls        int
	lastFilename string
	lastMime     string
	lastData     []byte
}

func (f *extractorFake) Extract(_ context.Context, filename, mimeType string, data []byte) (string, error) {
	f.calls++
	f.lastFilename = filename
	f.lastMime = mimeType
	f.lastData = data
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

type queueFake struct {
	publishedID string
	calls       int
	err         error
}

func (f *queueFake) PublishDocumentUploaded(_ context.Context, documentID string) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	f.publishedID = documentID
	return nil
}

func (f *queueFake) SubscribeDocumentUploaded(context.Context, func(context.Context, string, time.Time) error) error {
	return errors.New("not implemented")
}

type convStoreFake struct {
	conversation *domain.Conversation
	ensureErr    error
	getErr       error

	titleSet    string
	setTitleErr error

	appended  []domain.Message
	appendErr error

	conversations []domain.Conversation
	messages      []domain.Message
	listErr       error
}

func (f *convStoreFake) EnsureConversation(_ context.Context, ownerID, conversationID string) (*domain.Conversation, error) {
	if f.ensureErr != nil {
		return nil, f.ensureErr
	}
	if f.conversation != nil {
		return f.conversation, nil
	}
	return &domain.Conversation{
		ID:      conversationID,
		OwnerID: ownerID,
		Title:   domain.DefaultConversationTitle,
	}, nil
}

func (f *convStoreFake) GetConversation(_ context.Context, ownerID, conversationID string) (*domain.Conversation, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	if f.conversation != nil {
		return f.conversation, nil
	}
	return &domain.Conversation{ID: conversationID, OwnerID: ownerID}, nil
}

func (f *convStoreFake) SetTitle(_ context.Context, _, _, title string) error {
	if f.setTitleErr != nil {
		return f.setTitleErr
	}
	f.titleSet = title
	return nil
}

func (f *convStoreFake) AppendMessage(_ context.Context, message domain.Message) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	f.appended = append(f.appended, message)
	return nil
}

func (f *convStoreFake) ListConversations(context.Context, string) ([]domain.Conversation, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.conversations, nil
}

func (f *convStoreFake) ListMessages(context.Context, string, string) ([]domain.Message, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.messages, nil
}

type selectorFake struct {
	selection retrieval.Selection

	lastQuery string
	lastDocs  []domain.Document
	lastIDs   []string
}

func (f *selectorFake) SelectRelevant(_ context.Context, query string, docs []domain.Document, explicitIDs []string) retrieval.Selection {
	f.lastQuery = query
	f.lastDocs = docs
	f.lastIDs = explicitIDs
	if f.selection.Documents == nil && !f.selection.Degraded {
		return retrieval.Selection{Documents: docs}
	}
	return f.selection
}

type synthFake struct {
	answer *retrieval.Answer
	err    error

	lastQuery string
	lastDocs  []domain.Document
}

func (f *synthFake) Synthesize(_ context.Context, query string, selected []domain.Document) (*retrieval.Answer, error) {
	f.lastQuery = query
	f.lastDocs = selected
	if f.err != nil {
		return nil, f.err
	}
	if f.answer != nil {
		return f.answer, nil
	}
	return &retrieval.Answer{Text: "answer", Citations: []string{}, DocumentsUsed: []string{}}, nil
}

type titlerFake struct {
	title string
	calls int
}

func (f *titlerFake) SummarizeTitle(_ context.Context, _, _ string) string {
	f.calls++
	if f.title == "" {
		return domain.DefaultConversationTitle
	}
	return f.title
}
