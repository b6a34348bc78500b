// Package search ranks catalog items against free-text queries with a
// small inverse-frequency relevance score.
package search

import (
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/okian/liftboard/internal/domain/model"
)

// Excluded is the score of an item filtered out by the selected tags.
const Excluded = -1

// Item is one searchable entry. IsTag marks pseudo-items that stand for a
// tag itself so the tag can be picked from the result list.
type Item struct {
	ID    string      `json:"id"`
	Name  string      `json:"name"`
	Tags  []model.Tag `json:"tags,omitempty"`
	IsTag bool        `json:"is_tag,omitempty"`
}

// Result is a scored item.
type Result struct {
	Item  Item `json:"item"`
	Score int  `json:"score"`
}

// ScoreQuery adds inverseFrequency(term)+len(term) for every query term
// contained in the item name. Matching is case-insensitive substring
// containment.
func ScoreQuery(query string, item Item, words *WordCounter) int {
	name := normalize(item.Name)
	score := 0
	for _, term := range terms(query) {
		if strings.Contains(name, term) {
			score += words.InverseFrequency(term) + utf8.RuneCountInString(term)
		}
	}
	return score
}

// ScoreTaggedQuery scores item like ScoreQuery and adds tag matches. When
// selectedTags is non-empty, an item carrying none of them that is not a
// tag itself scores Excluded.
func ScoreTaggedQuery(query string, item Item, words *WordCounter, tags *TagCounter, selectedTags []string) int {
	if len(selectedTags) > 0 && !item.IsTag && !hasAnyTag(item, selectedTags) {
		return Excluded
	}
	score := ScoreQuery(query, item, words)
	if item.IsTag {
		return score * 2
	}
	for _, term := range terms(query) {
		for _, tag := range item.Tags {
			if strings.Contains(normalize(tag.Name), term) {
				score += 2 * (tags.InverseFrequency(tag.Name) + utf8.RuneCountInString(term))
			}
		}
	}
	return score
}

// Rank scores every item against query, drops excluded items and orders the
// rest by descending score. Equal scores keep catalog order.
func Rank(query string, items []Item, selectedTags []string) []Result {
	words := NewWordCounter(items)
	tags := NewTagCounter(items)
	out := make([]Result, 0, len(items))
	for _, it := range items {
		s := ScoreTaggedQuery(query, it, words, tags, selectedTags)
		if s == Excluded {
			continue
		}
		out = append(out, Result{Item: it, Score: s})
	}
	slices.SortStableFunc(out, func(a, b Result) int { return b.Score - a.Score })
	return out
}

// FromCatalog turns catalog exercises into items and appends one pseudo-item
// per distinct tag, in first-seen order.
func FromCatalog(exercises []model.Exercise) []Item {
	items := make([]Item, 0, len(exercises))
	seen := make(map[string]bool)
	var tagItems []Item
	for _, ex := range exercises {
		items = append(items, Item{ID: ex.ID, Name: ex.Name, Tags: ex.Tags})
		for _, t := range ex.Tags {
			if seen[t.ID] {
				continue
			}
			seen[t.ID] = true
			tagItems = append(tagItems, Item{ID: t.ID, Name: t.Name, IsTag: true})
		}
	}
	return append(items, tagItems...)
}

func terms(query string) []string {
	return strings.Fields(strings.ToLower(query))
}

func hasAnyTag(item Item, selected []string) bool {
	for _, t := range item.Tags {
		if slices.Contains(selected, t.ID) {
			return true
		}
	}
	return false
}
