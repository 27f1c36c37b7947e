// Package recommend scores cards and suggests cards for a project.
package recommend

import (
	"slices"
	"sort"
	"strings"

	"mcpconf/internal/cards"
)

const (
	// WeightA favors the first rating dimension by half again over the second.
	WeightA = 1.2
	WeightB = 0.8
)

// DefaultBaseline is recommended for every project.
var DefaultBaseline = []string{"filesystem", "memory", "sequential-thinking"}

// Scored pairs a card with its score.
type Scored struct {
	Card  cards.Card
	Score float64
	// Reason says why the card was picked: "baseline" or the matched tags.
	Reason string
}

// Score returns ratingA*1.2 + ratingB*0.8. A missing rating counts as 0.
func Score(card cards.Card) float64 {
	var a, b int
	if card.RatingA != nil {
		a = *card.RatingA
	}
	if card.RatingB != nil {
		b = *card.RatingB
	}
	return float64(a)*WeightA + float64(b)*WeightB
}

// Rank scores every card whose id is not in configured and sorts them by
// score, highest first. Ties keep their input order.
func Rank(all []cards.Card, configured []string) []Scored {
	skip := make(map[string]bool, len(configured))
	for _, id := range configured {
		skip[id] = true
	}

	out := make([]Scored, 0, len(all))
	for _, c := range all {
		if skip[c.ID] {
			continue
		}
		out = append(out, Scored{Card: c, Score: Score(c)})
	}
	sortScored(out)
	return out
}

func sortScored(s []Scored) {
	sort.SliceStable(s, func(i, j int) bool {
		return s[i].Score > s[j].Score
	})
}

// RecommendForProject picks the cards whose tags intersect tags, adds the
// baseline cards unconditionally and ranks the union. Deprecated cards are
// never recommended. A nil baseline selects DefaultBaseline.
func RecommendForProject(tags []string, all []cards.Card, baseline []string) []Scored {
	if baseline == nil {
		baseline = DefaultBaseline
	}

	want := make(map[string]bool, len(tags))
	for _, t := range tags {
		want[strings.ToLower(t)] = true
	}

	var out []Scored
	for _, c := range all {
		if c.Deprecated() {
			continue
		}

		var matched []string
		for _, t := range c.Tags {
			if want[strings.ToLower(t)] && !slices.Contains(matched, strings.ToLower(t)) {
				matched = append(matched, strings.ToLower(t))
			}
		}

		switch {
		case len(matched) > 0:
			out = append(out, Scored{Card: c, Score: Score(c), Reason: "tags: " + strings.Join(matched, ", ")})
		case slices.Contains(baseline, c.ID):
			out = append(out, Scored{Card: c, Score: Score(c), Reason: "baseline"})
		}
	}

	sortScored(out)
	return out
}

// Exclude drops scored cards whose id is in ids, keeping order.
func Exclude(s []Scored, ids []string) []Scored {
	if len(ids) == 0 {
		return s
	}
	out := s[:0:0]
	for _, sc := range s {
		if !slices.Contains(ids, sc.Card.ID) {
			out = append(out, sc)
		}
	}
	return out
}
