// Package inference sends a single chat-completion request to an
// OpenAI-compatible endpoint and returns schema-validated structured output.
package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/socialchef/sous/internal/httpclient"
	"github.com/socialchef/sous/internal/metrics"
	"github.com/socialchef/sous/internal/validation"
)

const (
	DefaultBaseURL  = "https://api.openai.com/v1"
	DefaultTimeout  = 30 * time.Second
	DefaultProvider = "openai"
)

// Doer executes HTTP requests. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

type Config struct {
	APIKey       string
	Model        string
	SystemPrompt string
	// Schema is sent to the provider as the response format. Decoded output
	// is checked against T's json and validate tags, not against Body, so
	// those tags must mirror Body.
	Schema Schema

	// Optional
	BaseURL    string
	Params     ModelParams
	Timeout    time.Duration
	HTTPClient Doer
	Provider   string
	Logger     *slog.Logger
}

// Result carries the full provider response and the validated payload.
type Result[T any] struct {
	Raw  map[string]any
	JSON T
}

// Client is bound to one model, system prompt and output schema.
// It is safe for concurrent use.
type Client[T any] struct {
	apiKey       string
	model        string
	systemPrompt string
	schema       Schema
	strict       bool
	endpoint     string
	params       ModelParams
	timeout      time.Duration
	http         Doer
	provider     string
	logger       *slog.Logger
}

// New validates cfg and returns a client. Missing required fields yield a
// KindConfig error.
func New[T any](cfg Config) (*Client[T], error) {
	switch {
	case strings.TrimSpace(cfg.APIKey) == "":
		return nil, configError("api key")
	case strings.TrimSpace(cfg.Model) == "":
		return nil, configError("model")
	case strings.TrimSpace(cfg.SystemPrompt) == "":
		return nil, configError("system prompt")
	case strings.TrimSpace(cfg.Schema.Name) == "":
		return nil, configError("schema name")
	case len(cfg.Schema.Body) == 0:
		return nil, configError("schema")
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	doer := cfg.HTTPClient
	if doer == nil {
		doer = httpclient.NewInstrumentedClient(0)
	}
	provider := cfg.Provider
	if provider == "" {
		provider = DefaultProvider
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	strict := true
	if cfg.Schema.Strict != nil {
		strict = *cfg.Schema.Strict
	}

	return &Client[T]{
		apiKey:       cfg.APIKey,
		model:        cfg.Model,
		systemPrompt: cfg.SystemPrompt,
		schema:       cfg.Schema,
		strict:       strict,
		endpoint:     baseURL + "/chat/completions",
		params:       cfg.Params,
		timeout:      timeout,
		http:         doer,
		provider:     provider,
		logger:       logger,
	}, nil
}

func (c *Client[T]) Model() string {
	return c.model
}

// Generate performs exactly one request. Failures of the response contract
// are returned as *Error; other transport failures are returned unchanged.
func (c *Client[T]) Generate(ctx context.Context, userMessage string) (*Result[T], error) {
	start := time.Now()
	status := "error"
	defer func() {
		metrics.RecordExternalCall(ctx, c.provider, status, time.Since(start).Seconds())
	}()

	body, err := json.Marshal(c.payload(userMessage))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	reqCtx, cancel := context.WithTimeout(httpclient.WithProvider(ctx, c.provider), c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if isCancellation(reqCtx, err) {
			status = "timeout"
			return nil, c.timeoutError(err)
		}
		return nil, err
	}
	defer resp.Body.Close()

	status = strconv.Itoa(resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Best effort: a body that cannot be read is reported as empty.
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		herr := httpError(resp.StatusCode, statusText(resp), string(raw))
		c.logger.WarnContext(ctx, "Inference request rejected",
			"provider", c.provider,
			"model", c.model,
			"status", resp.StatusCode,
		)
		return nil, herr
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		if isCancellation(reqCtx, err) {
			status = "timeout"
			return nil, c.timeoutError(err)
		}
		return nil, err
	}

	return c.parse(respBody)
}

func (c *Client[T]) payload(userMessage string) chatRequest {
	return chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: c.systemPrompt},
			{Role: "user", Content: userMessage},
		},
		Stream:      false,
		ModelParams: c.params,
		ResponseFormat: responseFormat{
			Type: "json_schema",
			JSONSchema: jsonSchemaFormat{
				Name:   c.schema.Name,
				Schema: c.schema.Body,
				Strict: c.strict,
			},
		},
	}
}

func (c *Client[T]) parse(body []byte) (*Result[T], error) {
	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, &Error{Kind: KindInvalidResponse, Message: "response body is not valid JSON", Err: err}
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil || len(parsed.Choices) == 0 {
		return nil, &Error{Kind: KindInvalidResponse, Message: "invalid response shape (missing choices)", Err: err}
	}

	msg := parsed.Choices[0].Message
	if msg == nil || len(msg.Content) == 0 || string(msg.Content) == "null" {
		return nil, &Error{Kind: KindInvalidResponse, Message: "invalid response shape (missing content)"}
	}

	payload := []byte(msg.Content)
	if msg.Content[0] == '"' {
		var text string
		if err := json.Unmarshal(msg.Content, &text); err != nil {
			return nil, &Error{Kind: KindInvalidResponse, Message: "invalid response shape (unreadable content)", Err: err}
		}
		text = stripCodeFence(text)
		if !json.Valid([]byte(text)) {
			return nil, &Error{Kind: KindInvalidJSON, Message: "content is not valid JSON", Content: text}
		}
		payload = []byte(text)
	}

	var value any
	_ = json.Unmarshal(payload, &value)

	var out T
	if issues := unknownFields(value, reflect.TypeFor[T](), ""); len(issues) > 0 {
		return nil, c.schemaError(value, issues)
	}
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&out); err != nil {
		return nil, c.schemaError(value, []string{err.Error()})
	}
	if issues := validation.Struct(out); len(issues) > 0 {
		return nil, c.schemaError(value, issues)
	}

	return &Result[T]{Raw: raw, JSON: out}, nil
}

func (c *Client[T]) schemaError(value any, issues []string) *Error {
	return &Error{
		Kind:    KindSchema,
		Message: fmt.Sprintf("response does not match schema %q: %s", c.schema.Name, strings.Join(issues, "; ")),
		Value:   value,
		Schema:  c.schema.Body,
		Issues:  issues,
	}
}

func (c *Client[T]) timeoutError(err error) *Error {
	return &Error{
		Kind:    KindTimeout,
		Message: fmt.Sprintf("request timed out after %s", c.timeout),
		Err:     err,
	}
}

func isCancellation(ctx context.Context, err error) bool {
	return errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) ||
		ctx.Err() != nil
}

func statusText(resp *http.Response) string {
	if text := strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)+" "); text != "" && text != resp.Status {
		return text
	}
	return http.StatusText(resp.StatusCode)
}

// stripCodeFence unwraps content a model returned inside a markdown block.
func stripCodeFence(s string) string {
	t := strings.TrimSpace(s)
	if !strings.HasPrefix(t, "```") || !strings.HasSuffix(t, "```") || len(t) < 6 {
		return s
	}
	t = strings.TrimSuffix(strings.TrimPrefix(t, "```"), "```")
	if nl := strings.IndexByte(t, '\n'); nl >= 0 && !strings.ContainsAny(t[:nl], "{[") {
		t = t[nl+1:]
	}
	return strings.TrimSpace(t)
}
