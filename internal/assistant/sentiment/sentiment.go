// Package sentiment scores free text with a small lexicon. The score is a
// heuristic signal for the prompt context, not a classifier.
package sentiment

import (
	"math"
	"strings"
)

type Type string

const (
	Positive Type = "positive"
	Negative Type = "negative"
	Neutral  Type = "neutral"
)

const (
	termWeight   = 0.2
	neutralScore = 0.5
)

type Result struct {
	Type       Type    `json:"type"`
	Score      float64 `json:"score"`
	Confidence float64 `json:"confidence"`
}

// Lexicons are matched by substring on the case-folded text, so a term like
// "mal" also fires inside longer words. Each term counts once.
var positiveTerms = []string{
	"gracias", "genial", "excelente", "perfecto", "perfecta", "bueno", "buena", "bien",
	"me gusta", "me encanta", "encanta", "increíble", "increible", "fantástico", "fantastico",
	"maravilloso", "estupendo", "feliz", "contento", "útil", "util", "interesante",
	"thanks", "thank you", "great", "good", "excellent", "awesome", "love", "perfect", "amazing", "nice",
}

var negativeTerms = []string{
	"mal", "malo", "mala", "terrible", "horrible", "pésimo", "pesimo", "odio", "problema",
	"error", "no funciona", "molesto", "enfadado", "frustrado", "frustrante", "lento", "caro",
	"confuso", "difícil", "dificil", "queja", "decepcion", "decepción",
	"bad", "hate", "awful", "problem", "broken", "slow", "angry", "expensive", "annoying", "worst",
}

// Score never fails; empty text is neutral with zero confidence.
func Score(text string) Result {
	folded := strings.ToLower(text)
	if strings.TrimSpace(folded) == "" {
		return Result{Type: Neutral, Score: neutralScore, Confidence: 0}
	}

	p := countTerms(folded, positiveTerms)
	n := countTerms(folded, negativeTerms)

	res := Result{
		Type:       Neutral,
		Score:      neutralScore,
		Confidence: math.Min(1, math.Abs(float64(p-n))*termWeight),
	}
	switch {
	case p > n:
		res.Type = Positive
		res.Score = math.Min(1, float64(p)*termWeight)
	case n > p:
		res.Type = Negative
		res.Score = math.Min(1, float64(n)*termWeight)
	}
	return res
}

func countTerms(folded string, terms []string) int {
	count := 0
	for _, term := range terms {
		if strings.Contains(folded, term) {
			count++
		}
	}
	return count
}
