// Package prompt builds the message list sent to the completion service.
package prompt

import (
	"fmt"
	"strings"

	"github.com/yungbote/websy-backend/internal/assistant/intent"
	"github.com/yungbote/websy-backend/internal/assistant/sentiment"
	"github.com/yungbote/websy-backend/internal/completion"
)

const DefaultWindow = 10

// Turn is one transcript entry as the assembler sees it.
type Turn struct {
	Role    string
	Content string
}

// Navigation reports what happened to a navigation request before the
// completion call.
type Navigation struct {
	Target      string
	AnchorID    string
	Found       bool
	Suggestions []string
}

type Context struct {
	Route         string
	CurrentAnchor string
	Intent        intent.Kind
	Navigation    *Navigation
	PricingOpened bool
	// EstimateSent marks a message posted from the calculator.
	EstimateSent bool
	Sentiment     *sentiment.Result
	// Sections lists the anchors on the page; only used for section-list
	// questions.
	Sections []string
}

type Assembler struct {
	persona string
	window  int
}

func NewAssembler(persona string, window int) *Assembler {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Assembler{persona: persona, window: window}
}

// Assemble returns system, then up to window prior non-system turns, then
// the new user message.
func (a *Assembler) Assemble(history []Turn, ctx Context, userText string) []completion.Message {
	prior := make([]Turn, 0, len(history))
	for _, t := range history {
		if t.Role == completion.RoleSystem || strings.TrimSpace(t.Content) == "" {
			continue
		}
		prior = append(prior, t)
	}
	if len(prior) > a.window {
		prior = prior[len(prior)-a.window:]
	}

	out := make([]completion.Message, 0, len(prior)+2)
	out = append(out, completion.Message{Role: completion.RoleSystem, Content: a.systemMessage(ctx)})
	for _, t := range prior {
		out = append(out, completion.Message{Role: t.Role, Content: t.Content})
	}
	out = append(out, completion.Message{Role: completion.RoleUser, Content: userText})
	return out
}

func (a *Assembler) systemMessage(ctx Context) string {
	block := contextBlock(ctx)
	if block == "" {
		return a.persona
	}
	return a.persona + "\n\n" + block
}

func contextBlock(ctx Context) string {
	var lines []string
	if ctx.Route != "" {
		lines = append(lines, fmt.Sprintf("- Página actual: %s", ctx.Route))
	}
	if ctx.CurrentAnchor != "" {
		lines = append(lines, fmt.Sprintf("- Sección visible: %s", ctx.CurrentAnchor))
	}
	if nav := ctx.Navigation; nav != nil {
		if nav.Found {
			lines = append(lines, fmt.Sprintf(
				"- Navegación ya realizada: la página se ha desplazado a la sección %q. Confírmalo en una frase; no expliques cómo llegar.",
				nav.AnchorID))
		} else {
			line := fmt.Sprintf("- El visitante pidió ir a %q pero esa sección no existe en esta página.", nav.Target)
			if len(nav.Suggestions) > 0 {
				line += fmt.Sprintf(" Secciones parecidas: %s.", strings.Join(nav.Suggestions, ", "))
			}
			lines = append(lines, line)
		}
	}
	if ctx.PricingOpened {
		lines = append(lines, "- La calculadora de presupuesto ya está abierta en pantalla; invita a usarla en lugar de dar cifras.")
	}
	if ctx.EstimateSent {
		lines = append(lines, "- El visitante acaba de enviar un presupuesto desde la calculadora. Coméntalo con las cifras que incluye y ofrece los siguientes pasos.")
	}
	if ctx.Intent == intent.SectionList {
		if len(ctx.Sections) > 0 {
			lines = append(lines, fmt.Sprintf("- Secciones disponibles en esta página: %s.", strings.Join(ctx.Sections, ", ")))
		} else {
			lines = append(lines, "- No hay secciones registradas en esta página.")
		}
	}
	if s := ctx.Sentiment; s != nil {
		lines = append(lines, fmt.Sprintf("- Tono detectado del visitante: %s (confianza %.1f).", s.Type, s.Confidence))
		if s.Type == sentiment.Negative {
			lines = append(lines, "- Responde con empatía y ofrece ayuda concreta.")
		}
	}
	if len(lines) == 0 {
		return ""
	}
	return "CONTEXTO ACTUAL:\n" + strings.Join(lines, "\n")
}
