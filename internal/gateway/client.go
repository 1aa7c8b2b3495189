package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/battle-arena/internal/config"
	"github.com/battle-arena/internal/metrics"
)

const (
	imagesPath      = "/images/generations"
	completionsPath = "/completions"

	// maxErrorBody bounds how much of an error response is kept
	maxErrorBody = 4096
)

var tracer = otel.Tracer("arena/gateway")

// Client is a Gateway backed by the OpenAI REST API
type Client struct {
	baseURL      string
	apiKey       string
	organization string
	imageSize    string
	model        string
	timeout      time.Duration
	maxRetries   uint64
	retryBase    time.Duration
	httpClient   *http.Client
	metrics      *metrics.Metrics
}

// NewClient creates a client from explicit configuration; m may be nil
func NewClient(cfg config.GatewayConfig, m *metrics.Metrics) *Client {
	retryBase := cfg.RetryBase()
	if retryBase <= 0 {
		retryBase = time.Millisecond
	}
	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &Client{
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:       cfg.APIKey,
		organization: cfg.Organization,
		imageSize:    cfg.ImageSize,
		model:        cfg.TextModel,
		timeout:      cfg.Timeout(),
		maxRetries:   uint64(maxRetries),
		retryBase:    retryBase,
		httpClient:   &http.Client{},
		metrics:      m,
	}
}

// WithHTTPClient replaces the underlying HTTP client
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

type imageRequest struct {
	Prompt string `json:"prompt"`
	N      int    `json:"n"`
	Size   string `json:"size"`
}

type imageResponse struct {
	Data []struct {
		URL string `json:"url"`
	} `json:"data"`
}

type completionRequest struct {
	Model            string  `json:"model"`
	Prompt           string  `json:"prompt"`
	Temperature      float64 `json:"temperature"`
	MaxTokens        int     `json:"max_tokens"`
	TopP             float64 `json:"top_p"`
	FrequencyPenalty float64 `json:"frequency_penalty"`
	PresencePenalty  float64 `json:"presence_penalty"`
}

type completionResponse struct {
	Choices []struct {
		Text string `json:"text"`
	} `json:"choices"`
}

type apiError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// GenerateImage requests a single image and returns its URL
func (c *Client) GenerateImage(ctx context.Context, prompt string) (string, error) {
	var resp imageResponse
	err := c.call(ctx, KindImage, imagesPath, imageRequest{Prompt: prompt, N: 1, Size: c.imageSize}, &resp)
	if err == nil && (len(resp.Data) == 0 || resp.Data[0].URL == "") {
		err = c.fail(KindImage, &GenerationError{Kind: KindImage, Err: errors.New("response contained no image")})
	}
	c.record(KindImage, err)
	if err != nil {
		return "", err
	}
	return resp.Data[0].URL, nil
}

// GenerateText requests a completion and returns the first choice
func (c *Client) GenerateText(ctx context.Context, prompt string, params TextParams) (string, error) {
	body := completionRequest{
		Model:            c.model,
		Prompt:           prompt,
		Temperature:      params.Temperature,
		MaxTokens:        params.MaxTokens,
		TopP:             params.TopP,
		FrequencyPenalty: params.FrequencyPenalty,
		PresencePenalty:  params.PresencePenalty,
	}

	var resp completionResponse
	err := c.call(ctx, KindText, completionsPath, body, &resp)
	if err == nil && len(resp.Choices) == 0 {
		err = c.fail(KindText, &GenerationError{Kind: KindText, Err: errors.New("response contained no choices")})
	}
	c.record(KindText, err)
	if err != nil {
		return "", err
	}
	return resp.Choices[0].Text, nil
}

// call posts body to path and decodes the JSON response into out,
// retrying transient failures with exponential backoff
func (c *Client) call(ctx context.Context, kind Kind, path string, body, out interface{}) (err error) {
	ctx, span := tracer.Start(ctx, "gateway.generate",
		trace.WithAttributes(
			attribute.String("gateway.kind", string(kind)),
			attribute.String("gateway.path", path),
		),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	payload, err := json.Marshal(body)
	if err != nil {
		return c.fail(kind, &GenerationError{Kind: kind, Err: err})
	}

	backoff := retry.WithMaxRetries(c.maxRetries, retry.NewExponential(c.retryBase))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		genErr := c.attempt(ctx, kind, path, payload, out)
		if genErr == nil {
			return nil
		}
		if genErr.Retryable {
			return retry.RetryableError(genErr)
		}
		return genErr
	})
	if err == nil {
		return nil
	}

	var genErr *GenerationError
	if !errors.As(err, &genErr) {
		// context cancelled between attempts
		genErr = &GenerationError{Kind: kind, Err: err}
	}
	return c.fail(kind, genErr)
}

func (c *Client) attempt(ctx context.Context, kind Kind, path string, payload []byte, out interface{}) *GenerationError {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return &GenerationError{Kind: kind, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	if c.organization != "" {
		req.Header.Set("OpenAI-Organization", c.organization)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &GenerationError{Kind: kind, Retryable: ctx.Err() == nil || errors.Is(ctx.Err(), context.DeadlineExceeded), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &GenerationError{
			Kind:       kind,
			StatusCode: resp.StatusCode,
			Retryable:  resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500,
			Err:        errors.New(errorMessage(resp.Body)),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &GenerationError{Kind: kind, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func (c *Client) fail(kind Kind, genErr *GenerationError) error {
	return oops.
		Code("GENERATION_FAILED").
		In("gateway").
		With("kind", string(kind)).
		With("status_code", genErr.StatusCode).
		Wrap(genErr)
}

func (c *Client) record(kind Kind, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	c.metrics.RecordGeneration(string(kind), status)
}

// errorMessage extracts the API's error message, falling back to the raw body
func errorMessage(body io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(body, maxErrorBody))
	var parsed apiError
	if err := json.Unmarshal(data, &parsed); err == nil && parsed.Error.Message != "" {
		return parsed.Error.Message
	}
	if len(data) == 0 {
		return "empty response body"
	}
	return strings.TrimSpace(string(data))
}
