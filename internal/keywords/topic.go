package keywords

import (
	"strings"

	"craftchat/internal/util"
)

// ExtractTopic reduces a user query to the short phrase keyword research is
// run on: instruction verbs, region names and stop words are dropped and at
// most MaxTopicWords remain.
func (a *Annotator) ExtractTopic(query string) string {
	ignore := make(map[string]struct{}, len(a.Tables.IgnoreWords))
	for _, w := range a.Tables.IgnoreWords {
		ignore[w] = struct{}{}
	}
	words := make([]string, 0, a.Tables.MaxTopicWords)
	for _, term := range util.MeaningfulTerms(query) {
		if _, skip := ignore[strings.TrimRight(term, ".")]; skip {
			continue
		}
		words = append(words, term)
		if len(words) == a.Tables.MaxTopicWords {
			break
		}
	}
	return strings.Join(words, " ")
}
