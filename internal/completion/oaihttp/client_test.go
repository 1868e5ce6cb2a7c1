package oaihttp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/yungbote/websy-backend/internal/completion"
	"github.com/yungbote/websy-backend/internal/config"
)

type roundTripperFunc func(req *http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) { return f(req) }

func testConfig() config.CompletionConfig {
	return config.CompletionConfig{
		Engine:              "oai_http",
		BaseURL:             "http://upstream/",
		APIKey:              "sk-test",
		Model:               "small-model",
		ChatCompletionsPath: "/v1/chat/completions",
		Timeout:             config.Duration{Duration: 2 * time.Second},
	}
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func TestComplete(t *testing.T) {
	client := &http.Client{
		Transport: roundTripperFunc(func(req *http.Request) (*http.Response, error) {
			if req.URL.String() != "http://upstream/v1/chat/completions" {
				t.Fatalf("unexpected url: %s", req.URL)
			}
			if got := req.Header.Get("Authorization"); got != "Bearer sk-test" {
				t.Fatalf("authorization=%q", got)
			}
			var in chatCompletionRequest
			if err := json.NewDecoder(req.Body).Decode(&in); err != nil {
				t.Fatalf("decode req: %v", err)
			}
			if in.Model != "small-model" || in.MaxTokens != 300 {
				t.Fatalf("request=%+v", in)
			}
			// blank messages are dropped before sending
			if len(in.Messages) != 2 {
				t.Fatalf("messages=%d", len(in.Messages))
			}
			b, _ := json.Marshal(map[string]any{
				"choices": []map[string]any{{"message": map[string]any{"content": "  ¡Hola! ¿En qué te ayudo?  "}}},
			})
			return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(bytes.NewReader(b))}, nil
		}),
	}

	e, err := NewWithHTTPClient(testConfig(), client)
	if err != nil {
		t.Fatalf("NewWithHTTPClient: %v", err)
	}
	out, err := e.Complete(context.Background(), []completion.Message{
		{Role: "system", Content: "persona"},
		{Role: "assistant", Content: "   "},
		{Role: "user", Content: "hola"},
	}, completion.Options{MaxTokens: 300})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if out != "¡Hola! ¿En qué te ayudo?" {
		t.Fatalf("out=%q", out)
	}
}

func TestCompleteSingleAttemptOnUpstreamError(t *testing.T) {
	var calls int32
	client := &http.Client{
		Transport: roundTripperFunc(func(req *http.Request) (*http.Response, error) {
			atomic.AddInt32(&calls, 1)
			return jsonResponse(http.StatusBadGateway, `{"error":"overloaded"}`), nil
		}),
	}
	e, err := NewWithHTTPClient(testConfig(), client)
	if err != nil {
		t.Fatalf("NewWithHTTPClient: %v", err)
	}

	_, err = e.Complete(context.Background(), []completion.Message{{Role: "user", Content: "hola"}}, completion.Options{})
	var se *completion.ServiceError
	if !errors.As(err, &se) {
		t.Fatalf("expected ServiceError, got %v", err)
	}
	if se.StatusCode != http.StatusBadGateway || !strings.Contains(se.Body, "overloaded") {
		t.Fatalf("service error=%+v", se)
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("calls=%d want 1", got)
	}
}

func TestCompleteMalformedAndEmpty(t *testing.T) {
	bodies := map[string]error{
		`not json`:                                   nil,
		`{"choices":[]}`:                             completion.ErrEmptyCompletion,
		`{"choices":[{"message":{"content":"  "}}]}`: completion.ErrEmptyCompletion,
	}
	for body, want := range bodies {
		body, want := body, want
		t.Run(body, func(t *testing.T) {
			client := &http.Client{Transport: roundTripperFunc(func(req *http.Request) (*http.Response, error) {
				return jsonResponse(http.StatusOK, body), nil
			})}
			e, err := NewWithHTTPClient(testConfig(), client)
			if err != nil {
				t.Fatalf("NewWithHTTPClient: %v", err)
			}
			_, err = e.Complete(context.Background(), []completion.Message{{Role: "user", Content: "hola"}}, completion.Options{})
			if want != nil {
				if !errors.Is(err, want) {
					t.Fatalf("err=%v want %v", err, want)
				}
				return
			}
			var se *completion.ServiceError
			if !errors.As(err, &se) {
				t.Fatalf("expected ServiceError for undecodable body, got %v", err)
			}
		})
	}
}

func TestCompleteNoMessages(t *testing.T) {
	e, err := New(testConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := e.Complete(context.Background(), nil, completion.Options{}); !errors.Is(err, completion.ErrNoMessages) {
		t.Fatalf("err=%v", err)
	}
}

func TestNewValidates(t *testing.T) {
	cfg := testConfig()
	cfg.BaseURL = ""
	if _, err := New(cfg); err == nil {
		t.Fatalf("expected base_url error")
	}
	cfg = testConfig()
	cfg.Model = " "
	if _, err := New(cfg); err == nil {
		t.Fatalf("expected model error")
	}
}
