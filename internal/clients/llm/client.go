package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/brandmill/brandmill-backend/internal/logger"
	"github.com/brandmill/brandmill-backend/internal/pkg/httpx"
)

// Client talks to the chat-completion and embedding services. Both halves are
// optional: an unconfigured half reports so and callers degrade instead of
// erroring (no model means fallback content, no embedder means no vector tier).
type Client interface {
	Configured() bool
	EmbedConfigured() bool
	Complete(ctx context.Context, prompt string) (string, error)
	Embed(ctx context.Context, inputs []string) ([][]float32, error)
}

type client struct {
	log        *logger.Logger
	baseURL    string
	apiKey     string
	model      string
	chatPath   string
	embedModel string
	embedPath  string
	httpClient *http.Client
	maxRetries int
}

// NewClient reads its configuration from the environment and never fails:
// missing credentials produce a client whose Configured()/EmbedConfigured()
// report false.
func NewClient(log *logger.Logger) Client {
	baseURL := strings.TrimRight(strings.TrimSpace(os.Getenv("LLM_BASE_URL")), "/")
	apiKey := strings.TrimSpace(os.Getenv("LLM_API_KEY"))
	model := strings.TrimSpace(os.Getenv("LLM_MODEL"))

	chatPath := strings.TrimSpace(os.Getenv("LLM_CHAT_PATH"))
	if chatPath == "" {
		chatPath = "/v1/chat/completions"
	}
	embedModel := strings.TrimSpace(os.Getenv("LLM_EMBED_MODEL"))
	embedPath := strings.TrimSpace(os.Getenv("LLM_EMBED_PATH"))
	if embedPath == "" {
		embedPath = "/v1/embeddings"
	}

	timeoutSec := 120
	if v := strings.TrimSpace(os.Getenv("LLM_TIMEOUT_SECONDS")); v != "" {
		if n, err := time.ParseDuration(v + "s"); err == nil && n > 0 {
			timeoutSec = int(n.Seconds())
		}
	}

	return &client{
		log:        log.With("client", "LLMClient"),
		baseURL:    baseURL,
		apiKey:     apiKey,
		model:      model,
		chatPath:   chatPath,
		embedModel: embedModel,
		embedPath:  embedPath,
		httpClient: &http.Client{Timeout: time.Duration(timeoutSec) * time.Second},
		maxRetries: 2,
	}
}

func (c *client) Configured() bool {
	return c.baseURL != "" && c.apiKey != "" && c.model != ""
}

func (c *client) EmbedConfigured() bool {
	return c.baseURL != "" && c.apiKey != "" && c.embedModel != ""
}

var ErrNotConfigured = fmt.Errorf("llm client not configured")

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Complete sends the prompt as a single user message and extracts the reply
// text via the ordered provider-shape strategies in extract.go.
func (c *client) Complete(ctx context.Context, prompt string) (string, error) {
	if !c.Configured() {
		return "", ErrNotConfigured
	}
	req := chatRequest{
		Model:    c.model,
		Messages: []chatMessage{{Role: "user", Content: prompt}},
	}
	raw, err := c.do(ctx, c.chatPath, req)
	if err != nil {
		return "", err
	}
	text, err := ExtractText(raw)
	if err != nil {
		return "", fmt.Errorf("llm response: %w", err)
	}
	return text, nil
}

type embeddingsRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingsResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float64 `json:"embedding"`
	} `json:"data"`
}

func (c *client) Embed(ctx context.Context, inputs []string) ([][]float32, error) {
	if !c.EmbedConfigured() {
		return nil, ErrNotConfigured
	}
	if len(inputs) == 0 {
		return [][]float32{}, nil
	}

	clean := make([]string, len(inputs))
	for i := range inputs {
		s := strings.TrimSpace(inputs[i])
		if s == "" {
			s = " "
		}
		clean[i] = s
	}

	raw, err := c.do(ctx, c.embedPath, embeddingsRequest{Model: c.embedModel, Input: clean})
	if err != nil {
		return nil, err
	}
	var resp embeddingsResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("embeddings decode error: %w", err)
	}

	out := make([][]float32, len(clean))
	for i, d := range resp.Data {
		vec := make([]float32, len(d.Embedding))
		for j, f := range d.Embedding {
			vec[j] = float32(f)
		}
		idx := d.Index
		if idx < 0 || idx >= len(out) {
			idx = i
		}
		if idx < len(out) {
			out[idx] = vec
		}
	}
	for i := range out {
		if out[i] == nil {
			return nil, fmt.Errorf("embeddings missing index %d: requested=%d returned=%d", i, len(clean), len(resp.Data))
		}
	}
	return out, nil
}

type apiError struct {
	Status int
	Body   string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("llm api status=%d body=%s", e.Status, e.Body)
}

func (e *apiError) HTTPStatusCode() int { return e.Status }

func (c *client) do(ctx context.Context, path string, body any) ([]byte, error) {
	backoff := 1 * time.Second

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		resp, raw, err := c.doOnce(ctx, path, body)
		if err == nil {
			return raw, nil
		}
		if !httpx.IsRetryableError(err) {
			return nil, err
		}
		if attempt == c.maxRetries {
			return nil, err
		}

		sleepFor := httpx.RetryAfterDuration(resp, backoff, 10*time.Second)
		sleepFor = httpx.JitterSleep(sleepFor)

		c.log.Warn("LLM request retrying",
			"path", path,
			"attempt", attempt+1,
			"max_retries", c.maxRetries,
			"sleep", sleepFor.String(),
			"error", err.Error(),
		)

		time.Sleep(sleepFor)
		backoff *= 2
	}

	return nil, fmt.Errorf("unreachable retry loop")
}

func (c *client) doOnce(ctx context.Context, path string, body any) (*http.Response, []byte, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, nil, err
	}
	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+path, &buf)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp, nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet := string(raw)
		if len(snippet) > 512 {
			snippet = snippet[:512]
		}
		return resp, nil, &apiError{Status: resp.StatusCode, Body: snippet}
	}
	return resp, raw, nil
}
