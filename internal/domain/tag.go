package domain

import (
	"encoding/json"
	"fmt"
)

// Tag is one active filter dimension (e.g. categories, start_date,
// venue_city, price_min). The tag list is authoritative backend state:
// tags are produced by the backend alongside each event page and echoed
// back wholesale, never derived or merged locally.
type Tag struct {
	Key   string
	Value string
}

// The backend wire format for a tag is a single-entry JSON object,
// {"categories": "concerts"}.

// MarshalJSON encodes the tag as a single-entry object.
func (t Tag) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]string{t.Key: t.Value})
}

// UnmarshalJSON decodes a single-entry object into key and value.
func (t *Tag) UnmarshalJSON(data []byte) error {
	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("decode tag: %w", err)
	}
	if len(m) != 1 {
		return fmt.Errorf("decode tag: expected single-entry object, got %d entries", len(m))
	}
	for k, v := range m {
		t.Key = k
		t.Value = v
	}
	return nil
}
