// Package domain contains core domain types for the LetsGo concierge.
package domain

// EventRecord is a single event as returned by the concierge backend.
// Fields are backend-owned; the server only displays and forwards them.
type EventRecord struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	PriceMin     *float64 `json:"price_min,omitempty"`
	PriceMax     *float64 `json:"price_max,omitempty"`
	Categories   []string `json:"categories"`
	StartDate    string   `json:"start_date"`
	StartTime    string   `json:"start_time"`
	VenueName    string   `json:"venue_name"`
	VenueAddress string   `json:"venue_address"`
	VenueState   string   `json:"venue_state"`
	ImageURL     string   `json:"image_url,omitempty"`
	URL          string   `json:"url"`
}

// Location joins the venue fields into a single display string, the same
// value used for calendar export payloads.
func (e *EventRecord) Location() string {
	loc := e.VenueName
	if e.VenueAddress != "" {
		loc += ", " + e.VenueAddress
	}
	if e.VenueState != "" {
		loc += ", " + e.VenueState
	}
	return loc
}
