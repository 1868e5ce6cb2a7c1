package sections

import (
	"sort"
	"strings"

	"github.com/sahilm/fuzzy"
)

// Suggest ranks anchor ids that loosely resemble rawTarget. It is only used
// to offer alternatives after Resolve misses.
func Suggest(rawTarget string, dir Directory, limit int) []string {
	t := Normalize(rawTarget)
	if t == "" || dir == nil || limit <= 0 {
		return nil
	}
	anchors := dir.Anchors()
	ids := make([]string, len(anchors))
	for i, a := range anchors {
		ids[i] = a.ID
	}

	best := map[int]int{}
	note := func(idx, score int) {
		if prev, ok := best[idx]; !ok || score > prev {
			best[idx] = score
		}
	}

	// target words spelled inside an id
	for _, tok := range tokens(t) {
		for _, m := range fuzzy.Find(tok, ids) {
			note(m.Index, m.Score)
		}
	}
	// id stems spelled inside the target ("contact" in "contactar")
	for i, id := range ids {
		for _, tok := range tokens(id) {
			if ms := fuzzy.Find(tok, []string{t}); len(ms) > 0 {
				note(i, ms[0].Score)
			}
		}
	}

	ranked := make([]int, 0, len(best))
	for idx := range best {
		ranked = append(ranked, idx)
	}
	sort.Slice(ranked, func(a, b int) bool {
		if best[ranked[a]] != best[ranked[b]] {
			return best[ranked[a]] > best[ranked[b]]
		}
		return ranked[a] < ranked[b]
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	out := make([]string, len(ranked))
	for i, idx := range ranked {
		out[i] = ids[idx]
	}
	return out
}

func tokens(s string) []string {
	var out []string
	for _, tok := range strings.Split(s, "-") {
		if len(tok) < 3 || tok == "section" {
			continue
		}
		out = append(out, tok)
	}
	return out
}
