// Package pagination computes the truncated page-button set for an
// event result grid.
package pagination

// Button is one rendered paginator element: either a page number or an
// ellipsis marker.
type Button struct {
	Page     int  `json:"page,omitempty"`
	Ellipsis bool `json:"ellipsis,omitempty"`
}

// Buttons returns the button set for the given position. With four or
// fewer pages every page number is rendered. Otherwise: the first page,
// an ellipsis once current moves past page 2, up to three consecutive
// pages centered on current, and a trailing ellipsis while pages remain.
// The truncated form renders no explicit last-page button.
func Buttons(current, total int) []Button {
	if total <= 0 {
		return nil
	}

	var buttons []Button
	if total <= 4 {
		for i := 1; i <= total; i++ {
			buttons = append(buttons, Button{Page: i})
		}
		return buttons
	}

	buttons = append(buttons, Button{Page: 1})
	if current > 2 {
		buttons = append(buttons, Button{Ellipsis: true})
	}
	for i := max(2, current-1); i <= min(current+1, total-1); i++ {
		buttons = append(buttons, Button{Page: i})
	}
	if current < total-1 {
		buttons = append(buttons, Button{Ellipsis: true})
	}
	return buttons
}
