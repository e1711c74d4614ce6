package gemini

import (
	"context"
	"encoding/base64"
	"net/http"
	"strings"
	"time"

	"github.com/pkiselev/sop-assistant/internal/infrastructure/resilience"
)

// CallObserver receives the duration of every oracle call, successful or
// not, keyed by operation.
type CallObserver func(operation string, duration time.Duration)

// Client talks to a Gemini-style generateContent endpoint. It is the one
// oracle behind extraction, relevance selection, synthesis and titling;
// callers own all parsing of its free-text replies.
type Client struct {
	baseURL    string
	model      string
	apiKey     string
	httpClient *http.Client
	guard      *resilience.Guard
	observer   CallObserver
}

// SetCallObserver installs the duration observer. Call it before the client
// serves traffic; it is not synchronized.
func (c *Client) SetCallObserver(observer CallObserver) {
	c.observer = observer
}

func New(baseURL, model, apiKey string, guard *resilience.Guard) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 120 * time.Second},
		guard:      guard,
	}
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

func (c *Client) GenerateText(ctx context.Context, prompt string) (string, error) {
	return c.generate(ctx, "generate", generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	})
}

func (c *Client) GenerateWithAttachment(ctx context.Context, prompt, mimeType string, data []byte) (string, error) {
	return c.generate(ctx, "generate_multimodal", generateRequest{
		Contents: []content{{Parts: []part{
			{Text: prompt},
			{InlineData: &inlineData{
				MimeType: mimeType,
				Data:     base64.StdEncoding.EncodeToString(data),
			}},
		}}},
	})
}

func (c *Client) generate(ctx context.Context, operation string, payload generateRequest) (string, error) {
	var response generateResponse

	call := func(ctx context.Context) error {
		return c.postJSON(ctx, c.generatePath(), payload, &response, operation)
	}

	start := time.Now()
	var err error
	if c.guard != nil {
		err = c.guard.Do(ctx, "oracle."+operation, call, classifyOracleError)
	} else {
		err = call(ctx)
	}
	if c.observer != nil {
		c.observer(operation, time.Since(start))
	}
	if err != nil {
		return "", wrapTemporaryIfNeeded(operation, err)
	}

	return strings.TrimSpace(firstCandidateText(response)), nil
}

func (c *Client) generatePath() string {
	return "/v1beta/models/" + c.model + ":generateContent"
}

func firstCandidateText(resp generateResponse) string {
	var b strings.Builder
	for _, candidate := range resp.Candidates {
		for _, p := range candidate.Content.Parts {
			b.WriteString(p.Text)
		}
		break
	}
	return b.String()
}
