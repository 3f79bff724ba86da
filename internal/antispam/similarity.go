package antispam

import (
	"strings"

	"github.com/agnivade/levenshtein"
)

// Similarity scores two strings on a normalized edit-distance ratio in
// [0,1]. Comparison is case-insensitive; identical strings score 1.0 and
// the metric is symmetric.
func Similarity(a, b string) float64 {
	a = strings.ToLower(a)
	b = strings.ToLower(b)
	if a == b {
		return 1
	}
	longest := len([]rune(a))
	if n := len([]rune(b)); n > longest {
		longest = n
	}
	if longest == 0 {
		return 1
	}
	distance := levenshtein.ComputeDistance(a, b)
	return 1 - float64(distance)/float64(longest)
}

// textCache is the duplicate filter's bounded record of recent message
// texts, each with a per-text strike count. Eviction is strictly FIFO by
// insertion order; the cache never exceeds its limit.
type textCache struct {
	entries []textEntry
}

type textEntry struct {
	text    string
	strikes int
}

func (c *textCache) add(text string, limit int) {
	c.entries = append(c.entries, textEntry{text: text})
	if limit > 0 && len(c.entries) > limit {
		c.entries = c.entries[len(c.entries)-limit:]
	}
}

func (c *textCache) bump(text string) {
	for i := range c.entries {
		if c.entries[i].text == text {
			c.entries[i].strikes++
			return
		}
	}
}

func (c *textCache) texts() []string {
	out := make([]string, len(c.entries))
	for i, entry := range c.entries {
		out[i] = entry.text
	}
	return out
}
