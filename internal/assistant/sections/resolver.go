// Package sections maps what a visitor calls a part of the page onto the
// anchor ids actually rendered.
package sections

import "strings"

type Step string

const (
	StepExact   Step = "exact"
	StepPartial Step = "partial"
	StepHeading Step = "heading"
)

type Match struct {
	AnchorID string `json:"anchor_id"`
	Step     Step   `json:"step"`
}

// Resolve runs exact, partial and heading lookups in that order and stops at
// the first hit. A miss is not an error; callers degrade to a plain reply.
func Resolve(rawTarget string, dir Directory) (Match, bool) {
	t := Normalize(rawTarget)
	if t == "" || dir == nil {
		return Match{}, false
	}
	anchors := dir.Anchors()
	matched := matchingThemes(t)

	if id, ok := exactMatch(Candidates(t), anchors); ok {
		return Match{AnchorID: id, Step: StepExact}, true
	}
	if id, ok := partialMatch(t, matched, anchors); ok {
		return Match{AnchorID: id, Step: StepPartial}, true
	}
	if id, ok := headingMatch(t, dir.Headings()); ok {
		return Match{AnchorID: id, Step: StepHeading}, true
	}
	return Match{}, false
}

// Candidates lists the ids tried for an exact hit, most specific first.
// t must already be normalized.
func Candidates(t string) []string {
	out := []string{t, t + "-section", "section-" + t}
	seen := map[string]bool{out[0]: true, out[1]: true, out[2]: true}
	for _, th := range matchingThemes(t) {
		for _, v := range th.variants {
			if !seen[v] {
				seen[v] = true
				out = append(out, v)
			}
		}
	}
	return out
}

func exactMatch(candidates []string, anchors []Anchor) (string, bool) {
	for _, c := range candidates {
		for _, a := range anchors {
			if a.ID == c {
				return a.ID, true
			}
		}
	}
	return "", false
}

// partialMatch accepts an id containing the whole target, or one sharing a
// synonym key that the target itself contains.
func partialMatch(t string, matched []theme, anchors []Anchor) (string, bool) {
	keys := sharedKeys(t, matched)
	for _, a := range anchors {
		id := strings.ToLower(a.ID)
		if strings.Contains(id, t) {
			return a.ID, true
		}
		for _, k := range keys {
			if strings.Contains(id, k) {
				return a.ID, true
			}
		}
	}
	return "", false
}

func headingMatch(t string, headings []Heading) (string, bool) {
	for _, h := range headings {
		if h.AnchorID == "" {
			continue
		}
		if strings.Contains(Normalize(h.Text), t) {
			return h.AnchorID, true
		}
	}
	return "", false
}
