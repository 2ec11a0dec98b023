package domain

// PageState tracks the pagination position of an event result set.
// Invariant: Current <= max(TotalPages, 1). Current resets to 1 whenever
// a new conversational message is submitted.
type PageState struct {
	Current     int `json:"currentPage"`
	TotalPages  int `json:"totalPages"`
	TotalEvents int `json:"totalEvents"`
	PageSize    int `json:"pageSize"`
}

// Clamp normalizes the state so the invariants hold even when the
// backend echoes out-of-range values.
func (p *PageState) Clamp() {
	if p.TotalPages < 0 {
		p.TotalPages = 0
	}
	if p.TotalEvents < 0 {
		p.TotalEvents = 0
	}
	if p.Current < 1 {
		p.Current = 1
	}
	if max := p.TotalPages; max >= 1 && p.Current > max {
		p.Current = max
	}
}
