// Package pricing computes the quick quote shown in the calculator panel.
package pricing

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const DefaultUrgentSurcharge = 1.3

var (
	ErrUnknownService    = errors.New("unknown service")
	ErrUnknownComplexity = errors.New("unknown complexity")
	ErrUnknownTimeline   = errors.New("unknown timeline")
)

// Selection mirrors the calculator form: a checkbox per service, one tier
// and one timeline for the whole quote.
type Selection struct {
	Services   map[Service]bool `json:"services"`
	Complexity Complexity       `json:"complexity"`
	Timeline   Timeline         `json:"timeline"`
}

type Estimate struct {
	Total       int    `json:"total"`
	Currency    string `json:"currency"`
	DisplayText string `json:"display_text"`
	// CanSend is false when nothing is selected; the quote cannot be sent to
	// the chat then.
	CanSend bool `json:"can_send"`
}

type Estimator struct {
	rates     Rates
	surcharge float64
	currency  string
	lang      language.Tag
}

// NewEstimator falls back to the built-in table and surcharge for zero values.
func NewEstimator(rates Rates, urgentSurcharge float64, currency string) *Estimator {
	if len(rates) == 0 {
		rates = DefaultRates()
	}
	if urgentSurcharge <= 0 {
		urgentSurcharge = DefaultUrgentSurcharge
	}
	if strings.TrimSpace(currency) == "" {
		currency = "€"
	}
	return &Estimator{
		rates:     rates,
		surcharge: urgentSurcharge,
		currency:  currency,
		lang:      language.Spanish,
	}
}

func (e *Estimator) Estimate(sel Selection) (Estimate, error) {
	complexity := sel.Complexity
	if complexity == "" {
		complexity = Standard
	}
	timeline := sel.Timeline
	if timeline == "" {
		timeline = Normal
	}
	if complexity != Basic && complexity != Standard && complexity != Premium {
		return Estimate{}, fmt.Errorf("%w: %q", ErrUnknownComplexity, complexity)
	}
	if timeline != Normal && timeline != Urgent {
		return Estimate{}, fmt.Errorf("%w: %q", ErrUnknownTimeline, timeline)
	}

	chosen := make([]Service, 0, len(sel.Services))
	for svc, on := range sel.Services {
		if !on {
			continue
		}
		if _, ok := e.rates[svc]; !ok {
			return Estimate{}, fmt.Errorf("%w: %q", ErrUnknownService, svc)
		}
	}
	for _, svc := range e.order() {
		if sel.Services[svc] {
			chosen = append(chosen, svc)
		}
	}

	sum := 0
	for _, svc := range chosen {
		price, ok := e.rates[svc][complexity]
		if !ok {
			return Estimate{}, fmt.Errorf("%w: %q", ErrUnknownComplexity, complexity)
		}
		sum += price
	}

	total := sum
	if timeline == Urgent {
		total = int(math.Round(float64(sum) * e.surcharge))
	}

	est := Estimate{Total: total, Currency: e.currency, CanSend: len(chosen) > 0}
	if est.CanSend {
		est.DisplayText = e.displayText(chosen, complexity, timeline, total)
	}
	return est, nil
}

// order is the display order, extended with any configured services the
// built-in list does not know.
func (e *Estimator) order() []Service {
	out := append([]Service(nil), Services...)
	known := make(map[Service]bool, len(Services))
	for _, s := range Services {
		known[s] = true
	}
	var extra []Service
	for s := range e.rates {
		if !known[s] {
			extra = append(extra, s)
		}
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })
	return append(out, extra...)
}

func (e *Estimator) displayText(chosen []Service, complexity Complexity, timeline Timeline, total int) string {
	names := make([]string, len(chosen))
	for i, svc := range chosen {
		names[i] = label(svc)
	}
	tier := complexityLabels[complexity]
	if tier == "" {
		tier = string(complexity)
	}
	when := "plazo normal"
	if timeline == Urgent {
		when = "plazo urgente"
	}
	return message.NewPrinter(e.lang).Sprintf("Hola, me gustaría un presupuesto para: %s (complejidad %s, %s). Estimación: %d %s",
		joinSpanish(names), tier, when, total, e.currency)
}

func label(svc Service) string {
	if l, ok := serviceLabels[svc]; ok {
		return l
	}
	return string(svc)
}

func joinSpanish(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	}
	return strings.Join(items[:len(items)-1], ", ") + " y " + items[len(items)-1]
}
