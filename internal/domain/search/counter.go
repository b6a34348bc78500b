package search

import "strings"

// Counter counts in how many corpus items each term occurs. A term that
// occurs several times in one item is counted once for that item.
type Counter struct {
	freq  map[string]int
	total int
}

// WordCounter counts the words of item names.
type WordCounter struct{ Counter }

// TagCounter counts the tag names of items.
type TagCounter struct{ Counter }

// NewWordCounter indexes the whitespace-separated words of every item name.
func NewWordCounter(items []Item) *WordCounter {
	c := newCounter(len(items))
	for _, it := range items {
		c.add(strings.Fields(it.Name))
	}
	return &WordCounter{c}
}

// NewTagCounter indexes the tag names of every item.
func NewTagCounter(items []Item) *TagCounter {
	c := newCounter(len(items))
	for _, it := range items {
		names := make([]string, len(it.Tags))
		for i, t := range it.Tags {
			names[i] = t.Name
		}
		c.add(names)
	}
	return &TagCounter{c}
}

func newCounter(total int) Counter {
	return Counter{freq: make(map[string]int), total: total}
}

func (c *Counter) add(terms []string) {
	distinct := make(map[string]struct{}, len(terms))
	for _, t := range terms {
		distinct[normalize(t)] = struct{}{}
	}
	for t := range distinct {
		c.freq[t]++
	}
}

// TotalItems is the corpus size the counter was built from.
func (c *Counter) TotalItems() int { return c.total }

// Frequency is the number of items containing term.
func (c *Counter) Frequency(term string) int { return c.freq[normalize(term)] }

// InverseFrequency is the number of items that do not contain term, or 0
// when no item contains it. Rare terms weigh more than common ones.
func (c *Counter) InverseFrequency(term string) int {
	f := c.Frequency(term)
	if f == 0 {
		return 0
	}
	return c.total - f
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
