// Package keywords simulates keyword research for a topic. Metrics are
// derived from a hash of each term, so the same topic and region always
// produce the same list.
package keywords

import (
	"fmt"
	"hash/fnv"
	"math"
	"sort"
	"strings"
	"unicode"

	"craftchat/internal/models"
)

const (
	DefaultLimit = 10
	minBase      = 1000
	baseSpan     = 49000
)

// Annotator is safe for concurrent use.
type Annotator struct {
	Tables Tables
	Limit  int
}

func NewAnnotator(tables Tables, limit int) *Annotator {
	tables.applyDefaults()
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Annotator{Tables: tables, Limit: limit}
}

// Annotate returns at most Limit entries sorted by estimated volume,
// highest first, with ties broken by term. An empty topic yields an empty
// list.
func (a *Annotator) Annotate(topic, region string) []models.KeywordEntry {
	topic = normalize(topic)
	out := make([]models.KeywordEntry, 0, a.limit())
	if topic == "" {
		return out
	}
	mult := a.regionMultiplier(region)
	for _, term := range a.candidates(topic) {
		out = append(out, models.KeywordEntry{
			Term:                term,
			EstimatedVolume:     a.volume(term, mult),
			EstimatedDifficulty: a.difficulty(term),
			SearchIntent:        a.intent(term),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].EstimatedVolume == out[j].EstimatedVolume {
			return out[i].Term < out[j].Term
		}
		return out[i].EstimatedVolume > out[j].EstimatedVolume
	})
	if len(out) > a.limit() {
		out = out[:a.limit()]
	}
	return out
}

func (a *Annotator) limit() int {
	if a.Limit <= 0 {
		return DefaultLimit
	}
	return a.Limit
}

func (a *Annotator) candidates(topic string) []string {
	seen := map[string]struct{}{}
	out := []string{}
	add := func(term string) {
		term = normalize(term)
		if term == "" {
			return
		}
		if _, ok := seen[term]; ok {
			return
		}
		seen[term] = struct{}{}
		out = append(out, term)
	}
	add(topic)
	for _, tpl := range a.Tables.Templates {
		add(fmt.Sprintf(tpl, topic))
	}
	for _, d := range a.Tables.Domains {
		if containsAny(topic, d.Markers) {
			for _, s := range d.Synonyms {
				add(s)
			}
		}
	}
	return out
}

// BaseVolume is the region-independent seed for a term, in [1000, 50000).
func BaseVolume(term string) int {
	h := fnv.New64a()
	_, _ = h.Write([]byte(normalize(term)))
	return minBase + int(h.Sum64()%baseSpan)
}

func (a *Annotator) volume(term string, regionMult float64) int {
	v := float64(BaseVolume(term)) * regionMult * lengthPenalty(term)
	if containsAny(term, a.Tables.PopularityMarkers) {
		v *= a.Tables.PopularityBoost
	}
	rounded := int(math.Round(v/10)) * 10
	if rounded < 10 {
		rounded = 10
	}
	return rounded
}

func lengthPenalty(term string) float64 {
	switch n := len(strings.Fields(term)); {
	case n <= 1:
		return 1.0
	case n == 2:
		return 0.85
	case n == 3:
		return 0.7
	default:
		return 0.5
	}
}

func (a *Annotator) regionMultiplier(region string) float64 {
	if m, ok := a.Tables.RegionMultipliers[strings.ToLower(strings.TrimSpace(region))]; ok {
		return m
	}
	return a.Tables.DefaultMultiplier
}

func (a *Annotator) difficulty(term string) string {
	longTail := len(strings.Fields(term)) >= a.Tables.LongTailWords
	switch {
	case containsAny(term, a.Tables.CompetitiveMarkers) && !longTail:
		return DifficultyHigh
	case longTail || strings.IndexFunc(term, unicode.IsDigit) >= 0:
		return DifficultyLow
	default:
		return DifficultyMedium
	}
}

func (a *Annotator) intent(term string) string {
	for _, r := range a.Tables.Intents {
		if containsAny(term, r.Markers) {
			return r.Intent
		}
	}
	return a.Tables.DefaultIntent
}

// containsAny matches whole words or phrases only.
func containsAny(term string, markers []string) bool {
	padded := " " + term + " "
	for _, m := range markers {
		if strings.Contains(padded, " "+strings.ToLower(m)+" ") {
			return true
		}
	}
	return false
}

func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
