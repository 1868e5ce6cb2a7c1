// Package intent decides what a visitor's message is asking for before it
// reaches the language model.
package intent

import "strings"

type Kind string

const (
	Navigation  Kind = "navigation"
	SectionList Kind = "section_list"
	Pricing     Kind = "pricing"
	Plain       Kind = "plain"
)

type Intent struct {
	Kind Kind `json:"kind"`
	// RawTarget is only set for Navigation; it is the cleaned phrase the
	// visitor used for the destination, not yet normalized to an anchor id.
	RawTarget string `json:"raw_target,omitempty"`
}

// Rule is one row of the classification table. Match receives the folded,
// trimmed text and reports whether the rule fires.
type Rule struct {
	Name  Kind
	Match func(folded string) (Intent, bool)
}

var rules = []Rule{
	{Name: Navigation, Match: matchNavigation},
	{Name: SectionList, Match: matchSectionList},
	{Name: Pricing, Match: matchPricing},
}

// Rules exposes the table in evaluation order.
func Rules() []Rule {
	out := make([]Rule, len(rules))
	copy(out, rules)
	return out
}

// Classify returns the first matching rule's intent, or Plain.
func Classify(text string) Intent {
	folded := strings.TrimSpace(strings.ToLower(text))
	if folded == "" {
		return Intent{Kind: Plain}
	}
	for _, r := range rules {
		if in, ok := r.Match(folded); ok {
			return in
		}
	}
	return Intent{Kind: Plain}
}
