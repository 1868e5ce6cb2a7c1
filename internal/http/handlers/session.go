package handlers

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/websy-backend/internal/assistant/pricing"
	"github.com/yungbote/websy-backend/internal/assistant/sections"
	"github.com/yungbote/websy-backend/internal/http/response"
	"github.com/yungbote/websy-backend/internal/platform/apierr"
	"github.com/yungbote/websy-backend/internal/platform/logger"
	"github.com/yungbote/websy-backend/internal/session"
)

type TokenIssuer interface {
	Issue(sessionID uuid.UUID) (string, time.Time, error)
}

type SessionHandler struct {
	log       *logger.Logger
	sessions  *session.Manager
	tokens    TokenIssuer
	estimator *pricing.Estimator
}

func NewSessionHandler(log *logger.Logger, sessions *session.Manager, tokens TokenIssuer, estimator *pricing.Estimator) *SessionHandler {
	return &SessionHandler{
		log:       log.With("handler", "SessionHandler"),
		sessions:  sessions,
		tokens:    tokens,
		estimator: estimator,
	}
}

type createSessionRequest struct {
	Route       string                    `json:"route"`
	Preferences *session.PreferencesPatch `json:"preferences"`
}

type createSessionResponse struct {
	Session   session.State `json:"session"`
	Token     string        `json:"token"`
	ExpiresAt time.Time     `json:"expires_at"`
}

// Create starts a session; the widget calls it the first time the chat is
// opened on a page.
func (h *SessionHandler) Create(c *gin.Context) {
	var req createSessionRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			badRequest(c, "invalid_body", err)
			return
		}
	}
	s, err := h.sessions.Create(c.Request.Context(), req.Route, req.Preferences)
	if err != nil {
		respondErr(c, err)
		return
	}
	tok, exp, err := h.tokens.Issue(s.ID())
	if err != nil {
		_ = h.sessions.Delete(c.Request.Context(), s.ID())
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, createSessionResponse{Session: s.Snapshot(), Token: tok, ExpiresAt: exp})
}

func (h *SessionHandler) session(c *gin.Context) (*session.Session, bool) {
	return lookupSession(c, h.sessions)
}

func lookupSession(c *gin.Context, sessions *session.Manager) (*session.Session, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "invalid_session_id", err)
		return nil, false
	}
	s, err := sessions.Get(id)
	if err != nil {
		respondErr(c, err)
		return nil, false
	}
	return s, true
}

func (h *SessionHandler) Get(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	response.RespondOK(c, s.Snapshot())
}

func (h *SessionHandler) Delete(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	if err := h.sessions.Delete(c.Request.Context(), s.ID()); err != nil {
		respondErr(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *SessionHandler) Open(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	s.Open(c.Request.Context())
	response.RespondOK(c, s.Snapshot())
}

func (h *SessionHandler) Close(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	s.Close(c.Request.Context())
	response.RespondOK(c, s.Snapshot())
}

func (h *SessionHandler) ToggleTool(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	active, err := s.ToggleTool(c.Request.Context(), session.Tool(c.Param("tool")))
	if err != nil {
		respondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"active_tool": active})
}

func (h *SessionHandler) ChangeRoute(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	var req struct {
		Route string `json:"route"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid_body", err)
		return
	}
	if strings.TrimSpace(req.Route) == "" {
		badRequest(c, "missing_route", errors.New("route is required"))
		return
	}
	s.ChangeRoute(c.Request.Context(), req.Route)
	response.RespondOK(c, s.Snapshot())
}

func (h *SessionHandler) SetPreferences(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	var patch session.PreferencesPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, "invalid_body", err)
		return
	}
	prefs, err := s.SetPreferences(c.Request.Context(), patch)
	if err != nil {
		respondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"preferences": prefs})
}

// SetInput stores the visitor's draft so a reconnecting widget can restore
// it.
func (h *SessionHandler) SetInput(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	var req struct {
		Text string `json:"text"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid_body", err)
		return
	}
	s.SetInput(req.Text)
	c.Status(http.StatusNoContent)
}

type anchorsRequest struct {
	Anchors  []sections.Anchor  `json:"anchors"`
	Headings []sections.Heading `json:"headings"`
}

// ReplaceAnchors swaps the page's section directory after a render.
func (h *SessionHandler) ReplaceAnchors(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	var req anchorsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid_body", err)
		return
	}
	s.Directory().Replace(req.Anchors, req.Headings)
	response.RespondOK(c, gin.H{"anchors": len(s.Directory().Anchors())})
}

// RegisterAnchor records a section that mounted after the initial render.
func (h *SessionHandler) RegisterAnchor(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	var a sections.Anchor
	if err := c.ShouldBindJSON(&a); err != nil {
		badRequest(c, "invalid_body", err)
		return
	}
	if strings.TrimSpace(a.ID) == "" {
		badRequest(c, "missing_anchor_id", errors.New("id is required"))
		return
	}
	s.Directory().Register(a)
	c.Status(http.StatusNoContent)
}

func (h *SessionHandler) DeregisterAnchor(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	s.Directory().Deregister(c.Param("anchor"))
	c.Status(http.StatusNoContent)
}

// PatchAnchor reports one section scrolling in or out of view.
func (h *SessionHandler) PatchAnchor(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	var req struct {
		Visible *bool `json:"visible"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Visible == nil {
		badRequest(c, "invalid_body", errors.New("visible is required"))
		return
	}
	anchor := c.Param("anchor")
	if !s.Directory().SetVisible(anchor, *req.Visible) {
		respondErr(c, apierr.NotFound("anchor_not_found", errors.New("anchor not registered: "+anchor)))
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *SessionHandler) SendMessage(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	var req struct {
		Text string `json:"text"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid_body", err)
		return
	}
	response.RespondOK(c, s.Submit(c.Request.Context(), req.Text))
}

// SubmitVoice takes the raw recording as the body; Content-Type names the
// audio format.
func (h *SessionHandler) SubmitVoice(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	audio, err := io.ReadAll(c.Request.Body)
	if err != nil {
		badRequest(c, "invalid_body", err)
		return
	}
	if len(audio) == 0 {
		badRequest(c, "empty_audio", errors.New("audio body is empty"))
		return
	}
	res, err := s.SubmitVoice(c.Request.Context(), audio, c.ContentType())
	if err != nil {
		if _, known := apierr.As(toAPIError(err)); known {
			respondErr(c, err)
			return
		}
		h.log.Error("voice transcription failed", "error", err)
		respondErr(c, apierr.New(http.StatusBadGateway, "transcription_failed", err))
		return
	}
	response.RespondOK(c, res)
}

func (h *SessionHandler) VoiceEnded(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	var req struct {
		UtteranceID uuid.UUID `json:"utterance_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid_body", err)
		return
	}
	s.SpeechEnded(req.UtteranceID)
	c.Status(http.StatusNoContent)
}

// SendEstimate prices the calculator selection and posts the quote into the
// chat.
func (h *SessionHandler) SendEstimate(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	var sel pricing.Selection
	if err := c.ShouldBindJSON(&sel); err != nil {
		badRequest(c, "invalid_body", err)
		return
	}
	est, err := h.estimator.Estimate(sel)
	if err != nil {
		respondErr(c, err)
		return
	}
	res, err := s.SendEstimate(c.Request.Context(), est)
	if err != nil {
		respondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"estimate": est, "result": res})
}
