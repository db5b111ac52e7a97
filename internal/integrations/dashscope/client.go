package dashscope

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"morning-blessing/internal/domain"
)

// generationRequest is the request shape for the DashScope text-generation
// endpoint.
type generationRequest struct {
	Model      string           `json:"model"`
	Input      generationInput  `json:"input"`
	Parameters generationParams `json:"parameters"`
}

type generationInput struct {
	Messages []domain.ChatMessage `json:"messages"`
}

type generationParams struct {
	Seed         int    `json:"seed"`
	ResultFormat string `json:"result_format"`
	EnableSearch bool   `json:"enable_search"`
}

// generationResponse is the minimal success shape returned by the endpoint.
type generationResponse struct {
	RequestID string `json:"request_id"`
	Output    struct {
		Choices []struct {
			FinishReason string             `json:"finish_reason"`
			Message      domain.ChatMessage `json:"message"`
		} `json:"choices"`
	} `json:"output"`
}

// errorResponse is the shape DashScope returns on non-2xx statuses.
type errorResponse struct {
	RequestID string `json:"request_id"`
	Code      string `json:"code"`
	Message   string `json:"message"`
}

// tokenPayload is the expected JSON shape stored in SSM for the API key.
type tokenPayload struct {
	Token string `json:"token"`
}

type Getter interface {
	GetParameter(ctx context.Context, name string) (string, error)
}

// StatusError captures a non-2xx generation response along with the
// backend's request id and error code.
type StatusError struct {
	StatusCode int
	RequestID  string
	Code       string
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("dashscope: request %s failed with status %d, code %s: %s",
		e.RequestID, e.StatusCode, e.Code, e.Message)
}

func (e *StatusError) HTTPStatusCode() int {
	return e.StatusCode
}

// Client is a focused DashScope client for conversational text generation.
type Client struct {
	baseURL     string
	model       string
	httpClient  *http.Client
	getter      Getter
	paramPrefix string

	keyOnce sync.Once
	apiKey  string
	keyErr  error
}

type Option func(*Client)

func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimSpace(baseURL)
	}
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// NewClient creates a new Client backed by the given paramstore.Getter for
// API key retrieval. The key is fetched from SSM on the first Generate call
// and reused for the lifetime of the process.
func NewClient(ps Getter, paramPrefix, model string, opts ...Option) (*Client, error) {
	if ps == nil {
		return nil, errors.New("dashscope: paramstore getter must not be nil")
	}
	paramPrefix = strings.TrimRight(strings.TrimSpace(paramPrefix), "/")
	if paramPrefix == "" {
		return nil, errors.New("dashscope: parameter prefix must not be empty")
	}
	if strings.TrimSpace(model) == "" {
		return nil, errors.New("dashscope: model must not be empty")
	}
	c := &Client{
		baseURL: "https://dashscope.aliyuncs.com/api/v1",
		model:   model,
		// Generation with live search can be slow, so the per-attempt
		// timeout is generous.
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		getter:      ps,
		paramPrefix: paramPrefix,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// resolveAPIKey fetches the API key from SSM on the first call and returns
// the cached result on every subsequent call within the same process.
func (c *Client) resolveAPIKey(ctx context.Context) (string, error) {
	c.keyOnce.Do(func() {
		c.apiKey, c.keyErr = fetchAPIKeyFromParamStore(ctx, c.getter, c.keyParameterName())
	})
	return c.apiKey, c.keyErr
}

func (c *Client) keyParameterName() string {
	return c.paramPrefix + "/dashscope-api-key"
}

func (c *Client) resolvedHTTPClient() *http.Client {
	if c.httpClient != nil {
		return c.httpClient
	}
	return &http.Client{Timeout: 30 * time.Second}
}

func generationURL(baseURL string) string {
	base := strings.TrimRight(baseURL, "/")
	if base == "" {
		base = "https://dashscope.aliyuncs.com/api/v1"
	}
	return base + "/services/aigc/text-generation/generation"
}

// Generate sends the conversation and returns the assistant's reply content.
// enableSearch tells the backend whether it may augment its answer with live
// external lookups.
func (c *Client) Generate(ctx context.Context, messages []domain.ChatMessage, seed int, enableSearch bool) (string, error) {
	if len(messages) == 0 {
		return "", errors.New("dashscope: messages must not be empty")
	}

	apiKey, err := c.resolveAPIKey(ctx)
	if err != nil {
		return "", err
	}

	body, err := json.Marshal(generationRequest{
		Model: c.model,
		Input: generationInput{Messages: messages},
		Parameters: generationParams{
			Seed:         seed,
			ResultFormat: "message",
			EnableSearch: enableSearch,
		},
	})
	if err != nil {
		return "", fmt.Errorf("dashscope: marshal request: %w", err)
	}

	url := generationURL(c.baseURL)

	req, reqErr := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if reqErr != nil {
		return "", fmt.Errorf("dashscope: create request: %w", reqErr)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	raw, err := c.doJSONRequest(req)
	if err != nil {
		return "", fmt.Errorf("dashscope: request failed: %w", err)
	}

	var payload generationResponse
	if decErr := json.Unmarshal(raw, &payload); decErr != nil {
		return "", fmt.Errorf("dashscope: decode response: %w", decErr)
	}
	if len(payload.Output.Choices) == 0 {
		return "", errors.New("dashscope: no choices in response")
	}
	return payload.Output.Choices[0].Message.Content, nil
}

func (c *Client) doJSONRequest(req *http.Request) ([]byte, error) {
	res, doErr := c.resolvedHTTPClient().Do(req)
	if doErr != nil {
		return nil, doErr
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		buf, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		var detail errorResponse
		if err := json.Unmarshal(buf, &detail); err != nil || detail.Message == "" {
			detail.Message = string(buf)
		}
		return nil, &StatusError{
			StatusCode: res.StatusCode,
			RequestID:  detail.RequestID,
			Code:       detail.Code,
			Message:    detail.Message,
		}
	}

	buf, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	return buf, nil
}

func fetchAPIKeyFromParamStore(ctx context.Context, getter Getter, name string) (string, error) {
	if getter == nil {
		return "", errors.New("dashscope: paramstore getter is nil")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errors.New("dashscope: key parameter name is empty")
	}

	raw, err := getter.GetParameter(ctx, name)
	if err != nil {
		return "", fmt.Errorf("dashscope: fetch key from paramstore: %w", err)
	}
	var tp tokenPayload
	if err := json.Unmarshal([]byte(raw), &tp); err != nil {
		return "", fmt.Errorf("dashscope: unmarshal paramstore key value as JSON: %w", err)
	}
	if tp.Token == "" {
		return "", errors.New("dashscope: API key is empty")
	}
	return tp.Token, nil
}
