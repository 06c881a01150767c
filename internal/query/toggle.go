package query

import (
	"slices"
	"strings"

	"github.com/starford/roadmap/internal/models"
)

// ToggleFavorites adds is:fav to q, or removes every favorites token when
// one is already present.
func ToggleFavorites(q string) string {
	parts := strings.Fields(q)
	had := slices.ContainsFunc(parts, isFavoriteToken)
	parts = slices.DeleteFunc(parts, isFavoriteToken)
	if !had {
		parts = append(parts, tokenFav)
	}
	return strings.Join(parts, " ")
}

// WithStatus replaces any status token in q with the one for status.
// StatusAll only removes.
func WithStatus(q string, status StatusFilter) string {
	parts := slices.DeleteFunc(strings.Fields(q), isStatusToken)
	if tok := statusToken(status); tok != "" {
		parts = append(parts, tok)
	}
	return strings.Join(parts, " ")
}

// WithCategory replaces any cat: token in q. An empty category only removes.
func WithCategory(q, category string) string {
	parts := slices.DeleteFunc(strings.Fields(q), isCategoryToken)
	if category != "" {
		parts = append(parts, prefixCategory+category)
	}
	return strings.Join(parts, " ")
}

// WithText keeps the reserved tokens of q and replaces its free text.
func WithText(q, text string) string {
	parts := slices.DeleteFunc(strings.Fields(q), func(tok string) bool {
		return !isReservedPrefix(tok)
	})
	parts = append(parts, strings.Fields(text)...)
	return strings.Join(parts, " ")
}

// ParseStatusFilter maps a user-facing status name to a filter value.
// Both "progress" and "in-progress" are accepted.
func ParseStatusFilter(s string) (StatusFilter, bool) {
	switch strings.ToLower(s) {
	case "", string(StatusAll):
		return StatusAll, true
	case string(models.StatusPending):
		return StatusFilter(models.StatusPending), true
	case "progress", string(models.StatusInProgress):
		return StatusFilter(models.StatusInProgress), true
	case string(models.StatusCompleted):
		return StatusFilter(models.StatusCompleted), true
	}
	return "", false
}

func statusToken(status StatusFilter) string {
	switch models.Status(status) {
	case models.StatusPending:
		return tokenPending
	case models.StatusInProgress:
		return tokenProgress
	case models.StatusCompleted:
		return tokenCompleted
	}
	return ""
}

func isFavoriteToken(tok string) bool {
	lower := strings.ToLower(tok)
	return lower == tokenFav || lower == tokenFavorite
}

func isStatusToken(tok string) bool {
	switch strings.ToLower(tok) {
	case tokenPending, tokenProgress, tokenCompleted:
		return true
	}
	return false
}

func isCategoryToken(tok string) bool {
	return strings.HasPrefix(strings.ToLower(tok), prefixCategory)
}

func isReservedPrefix(tok string) bool {
	lower := strings.ToLower(tok)
	return strings.HasPrefix(lower, prefixIs) || strings.HasPrefix(lower, prefixCategory)
}
