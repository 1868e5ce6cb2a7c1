package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/websy-backend/internal/assistant/intent"
	"github.com/yungbote/websy-backend/internal/assistant/prompt"
	"github.com/yungbote/websy-backend/internal/assistant/sentiment"
	"github.com/yungbote/websy-backend/internal/completion"
	"github.com/yungbote/websy-backend/internal/http/response"
	"github.com/yungbote/websy-backend/internal/platform/logger"
)

// ChatbotHandler serves the stateless chat endpoints: the browser keeps the
// transcript and sends it with every turn.
type ChatbotHandler struct {
	log       *logger.Logger
	completer completion.Completer
	assembler *prompt.Assembler
	opts      completion.Options
}

func NewChatbotHandler(log *logger.Logger, completer completion.Completer, assembler *prompt.Assembler, opts completion.Options) *ChatbotHandler {
	return &ChatbotHandler{
		log:       log.With("handler", "ChatbotHandler"),
		completer: completer,
		assembler: assembler,
		opts:      opts,
	}
}

type chatbotRequest struct {
	Messages []completion.Message `json:"messages"`
}

type enhancedContext struct {
	Route             string            `json:"route"`
	Section           string            `json:"section"`
	Sentiment         *sentiment.Result `json:"sentiment"`
	NavigationHandled bool              `json:"navigationHandled"`
	NavigationTarget  string            `json:"navigationTarget"`
	PricingOpened     bool              `json:"pricingOpened"`
}

type enhancedRequest struct {
	Messages []completion.Message `json:"messages"`
	Context  *enhancedContext     `json:"context"`
}

type chatbotResponse struct {
	Message string `json:"message"`
}

var errNoUserMessage = errors.New("messages must end with a user message")

func (h *ChatbotHandler) Chat(c *gin.Context) {
	var req chatbotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondChatbotError(c, http.StatusBadRequest, "Invalid request", err)
		return
	}
	history, text, err := splitLastUser(req.Messages)
	if err != nil {
		response.RespondChatbotError(c, http.StatusBadRequest, "Invalid request", err)
		return
	}
	h.complete(c, h.assembler.Assemble(history, prompt.Context{}, text))
}

// EnhancedChat adds the page context the widget already knows about.
func (h *ChatbotHandler) EnhancedChat(c *gin.Context) {
	var req enhancedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondChatbotError(c, http.StatusBadRequest, "Invalid request", err)
		return
	}
	history, text, err := splitLastUser(req.Messages)
	if err != nil {
		response.RespondChatbotError(c, http.StatusBadRequest, "Invalid request", err)
		return
	}

	in := intent.Classify(text)
	pctx := prompt.Context{Intent: in.Kind}
	if ec := req.Context; ec != nil {
		pctx.Route = ec.Route
		pctx.CurrentAnchor = ec.Section
		pctx.Sentiment = ec.Sentiment
		pctx.PricingOpened = ec.PricingOpened
		target := ec.NavigationTarget
		if target == "" {
			target = ec.Section
		}
		if ec.NavigationHandled && target != "" {
			pctx.Navigation = &prompt.Navigation{Target: target, AnchorID: target, Found: true}
		}
	}
	if pctx.Sentiment == nil {
		mood := sentiment.Score(text)
		pctx.Sentiment = &mood
	}
	h.complete(c, h.assembler.Assemble(history, pctx, text))
}

func (h *ChatbotHandler) complete(c *gin.Context, msgs []completion.Message) {
	reply, err := h.completer.Complete(c.Request.Context(), msgs, h.opts)
	if err != nil {
		h.log.Error("chatbot completion failed", "error", err)
		_ = c.Error(err)
		response.RespondChatbotError(c, http.StatusInternalServerError, "Failed to get response from assistant", err)
		return
	}
	response.RespondOK(c, chatbotResponse{Message: reply})
}

// splitLastUser drops client-sent system messages; the server owns the
// persona.
func splitLastUser(msgs []completion.Message) ([]prompt.Turn, string, error) {
	turns := make([]prompt.Turn, 0, len(msgs))
	for _, m := range msgs {
		if m.Role == completion.RoleSystem {
			continue
		}
		turns = append(turns, prompt.Turn{Role: m.Role, Content: m.Content})
	}
	if len(turns) == 0 {
		return nil, "", errNoUserMessage
	}
	last := turns[len(turns)-1]
	if last.Role != completion.RoleUser || strings.TrimSpace(last.Content) == "" {
		return nil, "", errNoUserMessage
	}
	return turns[:len(turns)-1], strings.TrimSpace(last.Content), nil
}
