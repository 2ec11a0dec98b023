// Package tags renders active filter tags as chip labels.
package tags

import (
	"strings"

	"github.com/letsgo-ai/concierge/internal/domain"
)

// Format maps a tag key/value pair to its display string. The backend
// embeds SQL-style % wildcards in some values; those are stripped for
// display. This formatting is display-only and never parsed back.
func Format(key, value string) string {
	switch key {
	case "categories":
		return value
	case "start_date":
		return "Date: " + stripWildcards(value)
	case "venue_city":
		return "City: " + stripWildcards(value)
	case "venue_state":
		return "State: " + stripWildcards(value)
	case "price_min":
		return "Min Price: $" + value
	case "price_max":
		return "Max Price: $" + value
	default:
		return key + ": " + stripWildcards(value)
	}
}

// FormatTag renders a domain tag.
func FormatTag(t domain.Tag) string {
	return Format(t.Key, t.Value)
}

func stripWildcards(v string) string {
	return strings.ReplaceAll(v, "%", "")
}
