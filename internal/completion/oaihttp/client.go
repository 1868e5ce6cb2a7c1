// Package oaihttp talks to any OpenAI-compatible chat completions endpoint.
package oaihttp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/yungbote/websy-backend/internal/completion"
	"github.com/yungbote/websy-backend/internal/config"
	"github.com/yungbote/websy-backend/internal/observability"
)

type Engine struct {
	baseURL             string
	apiKey              string
	model               string
	chatCompletionsPath string
	timeout             time.Duration

	httpClient *http.Client
}

func New(cfg config.CompletionConfig) (*Engine, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("oai_http: base_url required")
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		return nil, errors.New("oai_http: model required")
	}
	chatPath := strings.TrimSpace(cfg.ChatCompletionsPath)
	if chatPath == "" {
		chatPath = "/v1/chat/completions"
	}
	timeout := cfg.Timeout.Duration
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	tr := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          50,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &Engine{
		baseURL:             baseURL,
		apiKey:              strings.TrimSpace(cfg.APIKey),
		model:               model,
		chatCompletionsPath: chatPath,
		timeout:             timeout,
		httpClient:          &http.Client{Transport: tr},
	}, nil
}

// NewWithHTTPClient swaps the transport, mostly for tests.
func NewWithHTTPClient(cfg config.CompletionConfig, httpClient *http.Client) (*Engine, error) {
	e, err := New(cfg)
	if err != nil {
		return nil, err
	}
	if httpClient != nil {
		e.httpClient = httpClient
	}
	return e, nil
}

type chatCompletionRequest struct {
	Model       string               `json:"model"`
	Messages    []completion.Message `json:"messages"`
	MaxTokens   int                  `json:"max_tokens,omitempty"`
	Temperature float64              `json:"temperature,omitempty"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content,omitempty"`
		} `json:"message,omitempty"`
		Text string `json:"text,omitempty"`
	} `json:"choices"`
}

func (e *Engine) Complete(ctx context.Context, messages []completion.Message, opts completion.Options) (string, error) {
	msgs := cleanMessages(messages)
	if len(msgs) == 0 {
		return "", completion.ErrNoMessages
	}

	ctx, span := otel.Tracer("websy/completion").Start(ctx, "completion.oai_http")
	defer span.End()
	span.SetAttributes(
		attribute.String("completion.model", e.model),
		attribute.Int("completion.messages", len(msgs)),
		attribute.Int("completion.max_tokens", opts.MaxTokens),
	)

	req := chatCompletionRequest{
		Model:       e.model,
		Messages:    msgs,
		MaxTokens:   opts.MaxTokens,
		Temperature: opts.Temperature,
	}
	start := time.Now()
	var resp chatCompletionResponse
	if err := e.doJSON(ctx, http.MethodPost, e.chatCompletionsPath, req, &resp); err != nil {
		observability.Current().ObserveCompletion("oai_http", "error", time.Since(start))
		span.RecordError(err)
		span.SetStatus(codes.Error, "upstream failed")
		return "", err
	}

	text := strings.TrimSpace(extractChatText(resp))
	if text == "" {
		observability.Current().ObserveCompletion("oai_http", "empty", time.Since(start))
		span.SetStatus(codes.Error, "empty completion")
		return "", completion.ErrEmptyCompletion
	}
	observability.Current().ObserveCompletion("oai_http", "ok", time.Since(start))
	return text, nil
}

func cleanMessages(messages []completion.Message) []completion.Message {
	out := make([]completion.Message, 0, len(messages))
	for _, m := range messages {
		role := strings.TrimSpace(m.Role)
		content := strings.TrimSpace(m.Content)
		if role == "" || content == "" {
			continue
		}
		out = append(out, completion.Message{Role: role, Content: content})
	}
	return out
}

func extractChatText(resp chatCompletionResponse) string {
	for _, c := range resp.Choices {
		if strings.TrimSpace(c.Message.Content) != "" {
			return c.Message.Content
		}
		if strings.TrimSpace(c.Text) != "" {
			return c.Text
		}
	}
	return ""
}

func (e *Engine) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if e.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.apiKey)
	}
}

func (e *Engine) doJSON(ctx context.Context, method, path string, body any, out any) error {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, e.baseURL+path, &buf)
	if err != nil {
		return err
	}
	e.setHeaders(req)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return &completion.ServiceError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &completion.ServiceError{StatusCode: resp.StatusCode, Err: err}
	}
	return nil
}
