package analytics

import (
	"sort"
	"strings"

	prose "github.com/jdkato/prose/v2"
)

// TermCount is one entry of the feedback keyword breakdown.
type TermCount struct {
	Term  string `json:"term"`
	Count int    `json:"count"`
}

// stopTerms drops filler words that survive the part-of-speech
// filter but carry no signal on a dashboard.
var stopTerms = map[string]struct{}{
	"thing": {}, "things": {}, "stuff": {}, "lot": {}, "bit": {},
	"way": {}, "time": {}, "times": {}, "good": {}, "bad": {},
	"great": {}, "nice": {}, "other": {}, "same": {}, "more": {},
}

func keywordTag(tag string) bool {
	// Nouns and adjectives only; verbs and function words make for
	// noisy term clouds.
	return strings.HasPrefix(tag, "NN") || strings.HasPrefix(tag, "JJ")
}

// CommonTerms tokenizes feedback comments and returns the most
// frequent noun/adjective terms, descending by count with first-seen
// tie-break, capped at limit. A comment that fails tokenization is
// skipped, not fatal.
func CommonTerms(comments []string, limit int) []TermCount {
	counts := make(map[string]int)
	var order []string

	for _, comment := range comments {
		if strings.TrimSpace(comment) == "" {
			continue
		}
		doc, err := prose.NewDocument(comment,
			prose.WithExtraction(false),
			prose.WithSegmentation(false),
		)
		if err != nil {
			continue
		}
		for _, tok := range doc.Tokens() {
			if !keywordTag(tok.Tag) || len(tok.Text) < 3 {
				continue
			}
			term := strings.ToLower(tok.Text)
			if _, stop := stopTerms[term]; stop {
				continue
			}
			if _, seen := counts[term]; !seen {
				order = append(order, term)
			}
			counts[term]++
		}
	}

	terms := make([]TermCount, 0, len(order))
	for _, term := range order {
		terms = append(terms, TermCount{Term: term, Count: counts[term]})
	}
	sort.SliceStable(terms, func(i, j int) bool {
		return terms[i].Count > terms[j].Count
	})

	if limit > 0 && len(terms) > limit {
		terms = terms[:limit]
	}
	return terms
}
