package http

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/websy-backend/internal/assistant/pricing"
	"github.com/yungbote/websy-backend/internal/assistant/prompt"
	"github.com/yungbote/websy-backend/internal/auth"
	"github.com/yungbote/websy-backend/internal/completion"
	"github.com/yungbote/websy-backend/internal/completion/mock"
	httpH "github.com/yungbote/websy-backend/internal/http/handlers"
	httpMW "github.com/yungbote/websy-backend/internal/http/middleware"
	"github.com/yungbote/websy-backend/internal/platform/logger"
	"github.com/yungbote/websy-backend/internal/realtime"
	"github.com/yungbote/websy-backend/internal/session"
	"github.com/yungbote/websy-backend/internal/voice"
)

type testEnv struct {
	router *gin.Engine
	mgr    *session.Manager
	hub    *realtime.SSEHub
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := logger.Nop()

	hub := realtime.NewSSEHub(log)
	hub.Heartbeat = time.Hour
	effects := &realtime.HubEmitter{Hub: hub}
	tokens, err := auth.NewSessionTokens("test-secret", time.Hour)
	require.NoError(t, err)
	assembler := prompt.NewAssembler(prompt.Persona("", ""), prompt.DefaultWindow)
	estimator := pricing.NewEstimator(nil, 0, "")

	mgr := session.NewManager(session.Deps{
		Log:          log,
		Completer:    mock.New(),
		Assembler:    assembler,
		Effects:      effects,
		SpeechInput:  voice.Unsupported{},
		SpeechOutput: &voice.BrowserOutput{Effects: effects, LanguageCode: "es-ES"},
	}, time.Hour)
	mgr.OnDelete = func(id uuid.UUID) { hub.CloseChannel(realtime.SessionChannel(id)) }

	router := NewRouter(RouterConfig{
		Log:              log,
		SessionAuth:      httpMW.NewSessionAuth(log, tokens),
		HealthHandler:    httpH.NewHealthHandler(),
		ChatbotHandler:   httpH.NewChatbotHandler(log, mock.New(), assembler, completion.Options{}),
		SentimentHandler: httpH.NewSentimentHandler(),
		PricingHandler:   httpH.NewPricingHandler(estimator),
		SessionHandler:   httpH.NewSessionHandler(log, mgr, tokens, estimator),
		RealtimeHandler:  httpH.NewRealtimeHandler(log, hub, mgr),
	})
	return &testEnv{router: router, mgr: mgr, hub: hub}
}

func (e *testEnv) do(t *testing.T, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) create(t *testing.T, body string) (string, string) {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/sessions", "", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var out struct {
		Session session.State `json:"session"`
		Token   string        `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.NotEmpty(t, out.Token)
	return out.Session.ID.String(), out.Token
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var env struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env.Error.Code
}

func TestHealthcheck(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/healthcheck", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestSessionFlow(t *testing.T) {
	env := newTestEnv(t)
	id, tok := env.create(t, `{"route":"/","preferences":{"theme":"dark"}}`)
	base := "/api/sessions/" + id

	rec := env.do(t, http.MethodGet, base, "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodPost, base+"/open", tok, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPut, base+"/anchors", tok, `{"anchors":[{"id":"hero","visible":true},{"id":"services"},{"id":"contact-section"}]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodPost, base+"/messages", tok, `{"text":"Llévame a la sección de contacto"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var res session.SubmitResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.True(t, res.Accepted)
	require.NotNil(t, res.Navigation)
	assert.Equal(t, "contact-section", res.Navigation.AnchorID)
	require.NotNil(t, res.Reply)
	assert.True(t, strings.HasPrefix(res.Reply.Content, "mock: "))

	rec = env.do(t, http.MethodPost, base+"/messages", tok, `{"text":"  "}`)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.False(t, res.Accepted)
	assert.Equal(t, session.RejectBlank, res.Reason)

	rec = env.do(t, http.MethodPost, base+"/tools/calculator", tok, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"active_tool":"calculator"`)

	rec = env.do(t, http.MethodPost, base+"/route", tok, `{"route":"/servicios"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var st session.State
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	assert.Equal(t, session.ToolNone, st.ActiveTool)
	assert.True(t, st.Open)
	assert.Equal(t, session.ThemeDark, st.Preferences.Theme)
	assert.Len(t, st.Transcript, 2)

	rec = env.do(t, http.MethodDelete, base, tok, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = env.do(t, http.MethodGet, base, tok, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "session_not_found", errorCode(t, rec))
}

func TestSessionErrors(t *testing.T) {
	env := newTestEnv(t)
	id, tok := env.create(t, "")
	base := "/api/sessions/" + id

	rec := env.do(t, http.MethodPatch, base+"/preferences", tok, `{"theme":"sepia"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_preference", errorCode(t, rec))

	rec = env.do(t, http.MethodPost, base+"/tools/terminal", tok, "")
	assert.Equal(t, "invalid_tool", errorCode(t, rec))

	rec = env.do(t, http.MethodPatch, base+"/anchors/missing", tok, `{"visible":true}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodPost, base+"/estimate", tok, `{"services":{}}`)
	assert.Equal(t, "estimate_empty", errorCode(t, rec))

	req := httptest.NewRequest(http.MethodPost, base+"/voice", strings.NewReader("RIFF...."))
	req.Header.Set("Content-Type", "audio/wav")
	req.Header.Set("Authorization", "Bearer "+tok)
	rec = httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotImplemented, rec.Code)
	assert.Equal(t, "voice_unsupported", errorCode(t, rec))

	other, _ := env.create(t, "")
	rec = env.do(t, http.MethodGet, "/api/sessions/"+other, tok, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAnchorLifecycle(t *testing.T) {
	env := newTestEnv(t)
	id, tok := env.create(t, "")
	base := "/api/sessions/" + id

	rec := env.do(t, http.MethodPost, base+"/anchors", tok, `{"id":"services","visible":false}`)
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())
	rec = env.do(t, http.MethodPost, base+"/anchors", tok, `{"id":"contact-section","visible":true}`)
	require.Equal(t, http.StatusNoContent, rec.Code)
	rec = env.do(t, http.MethodPost, base+"/anchors", tok, `{"visible":true}`)
	assert.Equal(t, "missing_anchor_id", errorCode(t, rec))

	rec = env.do(t, http.MethodGet, base, tok, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var st session.State
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	assert.Equal(t, "contact-section", st.CurrentAnchor)

	rec = env.do(t, http.MethodDelete, base+"/anchors/contact-section", tok, "")
	require.Equal(t, http.StatusNoContent, rec.Code)
	rec = env.do(t, http.MethodPatch, base+"/anchors/contact-section", tok, `{"visible":true}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSendEstimate(t *testing.T) {
	env := newTestEnv(t)
	id, tok := env.create(t, "")

	rec := env.do(t, http.MethodPost, "/api/sessions/"+id+"/estimate", tok,
		`{"services":{"ecommerce":true},"complexity":"basic","timeline":"urgent"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var out struct {
		Estimate pricing.Estimate     `json:"estimate"`
		Result   session.SubmitResult `json:"result"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, 1950, out.Estimate.Total)
	assert.True(t, out.Result.Accepted)
}

func TestEventStream(t *testing.T) {
	env := newTestEnv(t)
	id, tok := env.create(t, "")

	srv := httptest.NewServer(env.router)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/sessions/"+id+"/events?token="+tok, nil)
	require.NoError(t, err)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	events := make(chan realtime.SSEMessage, 16)
	go func() {
		defer close(events)
		sc := bufio.NewScanner(resp.Body)
		for sc.Scan() {
			line := sc.Text()
			if !strings.HasPrefix(line, "data: ") {
				continue
			}
			var msg realtime.SSEMessage
			if json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &msg) == nil {
				events <- msg
			}
		}
	}()

	next := func() realtime.SSEMessage {
		select {
		case msg, ok := <-events:
			require.True(t, ok, "stream closed")
			return msg
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for event")
		}
		return realtime.SSEMessage{}
	}

	assert.Equal(t, session.EventStateChanged, next().Event)

	deadline := time.Now().Add(2 * time.Second)
	for env.hub.Subscribers(realtime.SessionChannel(mustUUID(t, id))) == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	rec := env.do(t, http.MethodPost, "/api/sessions/"+id+"/open", tok, "")
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, session.EventStateChanged, next().Event)
	assert.Equal(t, session.EventFocusInput, next().Event)

	// deleting the session ends the stream
	env.do(t, http.MethodDelete, "/api/sessions/"+id, tok, "")
	select {
	case _, ok := <-events:
		for ok {
			_, ok = <-events
		}
	case <-time.After(2 * time.Second):
		t.Fatal("stream not closed after delete")
	}
}

func mustUUID(t *testing.T, s string) uuid.UUID {
	t.Helper()
	id, err := uuid.Parse(s)
	require.NoError(t, err)
	return id
}
