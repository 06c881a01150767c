// Package query parses roadmap search strings into structured filters and
// evaluates them against nodes.
package query

import (
	"strings"

	"github.com/starford/roadmap/internal/models"
)

// StatusFilter restricts results to one status, or to all of them.
type StatusFilter string

// StatusAll disables status filtering.
const StatusAll StatusFilter = "all"

// Reserved tokens.
const (
	tokenPending   = "is:pending"
	tokenProgress  = "is:progress"
	tokenCompleted = "is:completed"
	tokenFav       = "is:fav"
	tokenFavorite  = "is:favorite"
	prefixCategory = "cat:"
	prefixIs       = "is:"
)

// Filter is the structured form of a search string.
type Filter struct {
	Status        StatusFilter
	FavoritesOnly bool
	// Category is lowercased; empty means no category filter.
	Category string
	// Text holds lowercased free-text tokens, all of which must match.
	Text []string

	tokens int
}

// Empty reports whether the query had no tokens at all.
func (f Filter) Empty() bool {
	return f.tokens == 0
}

// Parse turns a free-text query into a Filter. Reserved tokens are matched
// case-insensitively and, when several status or category tokens appear,
// the last one wins.
func Parse(q string) Filter {
	f := Filter{Status: StatusAll}
	for _, tok := range strings.Fields(q) {
		f.tokens++
		lower := strings.ToLower(tok)
		switch {
		case lower == tokenPending:
			f.Status = StatusFilter(models.StatusPending)
		case lower == tokenProgress:
			f.Status = StatusFilter(models.StatusInProgress)
		case lower == tokenCompleted:
			f.Status = StatusFilter(models.StatusCompleted)
		case lower == tokenFav || lower == tokenFavorite:
			f.FavoritesOnly = true
		case strings.HasPrefix(lower, prefixCategory):
			f.Category = lower[len(prefixCategory):]
		default:
			f.Text = append(f.Text, lower)
		}
	}
	return f
}

// Match reports whether n passes every part of the filter.
func (f Filter) Match(n models.Node) bool {
	if f.Status != StatusAll && f.Status != "" && string(n.Status) != string(f.Status) {
		return false
	}
	if f.FavoritesOnly && !n.Favorite {
		return false
	}
	if f.Category != "" && strings.ToLower(n.Category) != f.Category {
		return false
	}
	if len(f.Text) == 0 {
		return true
	}
	haystack := strings.ToLower(n.Title + " " + n.Category + " " + strings.Join(n.Tags, " "))
	for _, tok := range f.Text {
		if !strings.Contains(haystack, tok) {
			return false
		}
	}
	return true
}

// Apply returns the nodes matching f in display order. The input slice is
// not modified.
func Apply(nodes []models.Node, f Filter) []models.Node {
	ordered := models.SortByOrder(nodes)
	if f.Empty() {
		return ordered
	}
	out := ordered[:0]
	for _, n := range ordered {
		if f.Match(n) {
			out = append(out, n)
		}
	}
	return out
}

// Search parses q and applies it to nodes.
func Search(nodes []models.Node, q string) []models.Node {
	return Apply(nodes, Parse(q))
}

// Categories returns the distinct lowercased categories of nodes in the
// order they first appear.
func Categories(nodes []models.Node) []string {
	seen := make(map[string]struct{}, len(nodes))
	var out []string
	for _, n := range nodes {
		c := strings.ToLower(n.Category)
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}
