// Package calendar builds calendar-export payloads for events: a Google
// Calendar deep link and a downloadable ICS file. Both are derived from
// the same date and time strings and carry identical UTC timestamps.
package calendar

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
)

// DefaultDuration is assumed when the backend supplies no end time.
const DefaultDuration = 2 * time.Hour

const (
	dateLayout  = "2006-01-02"
	timeLayout  = "15:04"
	stampLayout = "20060102T150405Z"
)

// Export is one event's calendar payload pair.
type Export struct {
	GoogleURL string
	ICS       string
}

// Build produces both export formats for an event starting at the given
// date (YYYY-MM-DD) and time (HH:MM).
func Build(title, description, location, startDate, startTime string) (*Export, error) {
	start, end, err := eventTimes(startDate, startTime)
	if err != nil {
		return nil, err
	}

	serialized, err := buildICS(title, description, location, start, end)
	if err != nil {
		return nil, err
	}

	return &Export{
		GoogleURL: googleURL(title, description, location, start, end),
		ICS:       serialized,
	}, nil
}

func eventTimes(startDate, startTime string) (time.Time, time.Time, error) {
	start, err := time.ParseInLocation(dateLayout+" "+timeLayout, startDate+" "+startTime, time.UTC)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parse event start %q %q: %w", startDate, startTime, err)
	}
	return start, start.Add(DefaultDuration), nil
}

func googleURL(title, description, location string, start, end time.Time) string {
	return "https://calendar.google.com/calendar/render?action=TEMPLATE" +
		"&text=" + url.QueryEscape(title) +
		"&dates=" + start.Format(stampLayout) + "/" + end.Format(stampLayout) +
		"&details=" + url.QueryEscape(description) +
		"&location=" + url.QueryEscape(location)
}

func buildICS(title, description, location string, start, end time.Time) (string, error) {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)

	event := cal.AddEvent(eventUID(title, start))
	event.SetStartAt(start)
	event.SetEndAt(end)
	event.SetSummary(title)
	if description != "" {
		event.SetDescription(description)
	}
	if location != "" {
		event.SetLocation(location)
	}

	return cal.Serialize(), nil
}

// eventUID derives a stable identifier so re-exporting the same event
// updates rather than duplicates it in the user's calendar.
func eventUID(title string, start time.Time) string {
	slug := strings.ToLower(strings.Join(strings.Fields(title), "-"))
	return slug + "-" + start.Format(stampLayout) + "@letsgo.ai"
}

// FileName sanitizes the event title into an .ics attachment name.
func FileName(title string) string {
	name := strings.Join(strings.Fields(title), "-")
	if name == "" {
		name = "event"
	}
	return name + ".ics"
}
