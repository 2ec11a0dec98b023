package calendar

import (
	"regexp"
	"strings"
	"testing"
)

func TestBuildTwoHourDefaultDuration(t *testing.T) {
	export, err := Build("Summer Concert", "Outdoor show", "Zilker Park, Austin, TX", "2024-06-01", "18:00")
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	const (
		wantStart = "20240601T180000Z"
		wantEnd   = "20240601T200000Z"
	)

	if !strings.Contains(export.GoogleURL, "&dates="+wantStart+"/"+wantEnd) {
		t.Errorf("google url missing %s/%s: %s", wantStart, wantEnd, export.GoogleURL)
	}
	if !strings.Contains(export.ICS, "DTSTART:"+wantStart) {
		t.Errorf("ics missing DTSTART:%s:\n%s", wantStart, export.ICS)
	}
	if !strings.Contains(export.ICS, "DTEND:"+wantEnd) {
		t.Errorf("ics missing DTEND:%s:\n%s", wantEnd, export.ICS)
	}
}

func TestBuildTimestampsMatchAcrossFormats(t *testing.T) {
	export, err := Build("Show", "", "", "2024-12-31", "23:30")
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	stampRe := regexp.MustCompile(`\d{8}T\d{6}Z`)
	urlStamps := stampRe.FindAllString(export.GoogleURL, -1)
	if len(urlStamps) != 2 {
		t.Fatalf("expected 2 timestamps in url, got %v", urlStamps)
	}

	// End time crosses midnight into the next day.
	if urlStamps[0] != "20241231T233000Z" || urlStamps[1] != "20250101T013000Z" {
		t.Errorf("unexpected url timestamps: %v", urlStamps)
	}

	for _, stamp := range urlStamps {
		if !strings.Contains(export.ICS, stamp) {
			t.Errorf("ics payload missing timestamp %s shared with url", stamp)
		}
	}
}

func TestBuildEnvelope(t *testing.T) {
	export, err := Build("Show", "details", "venue", "2024-06-01", "18:00")
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if !strings.Contains(export.ICS, "BEGIN:VCALENDAR") || !strings.Contains(export.ICS, "END:VCALENDAR") {
		t.Errorf("ics payload missing VCALENDAR envelope:\n%s", export.ICS)
	}
	if !strings.Contains(export.ICS, "SUMMARY:Show") {
		t.Errorf("ics payload missing summary:\n%s", export.ICS)
	}
	if !strings.HasPrefix(export.GoogleURL, "https://calendar.google.com/calendar/render?action=TEMPLATE") {
		t.Errorf("unexpected google url prefix: %s", export.GoogleURL)
	}
}

func TestBuildRejectsMalformedInput(t *testing.T) {
	if _, err := Build("Show", "", "", "June 1", "18:00"); err == nil {
		t.Error("expected error for malformed date")
	}
	if _, err := Build("Show", "", "", "2024-06-01", "6pm"); err == nil {
		t.Error("expected error for malformed time")
	}
}

func TestFileName(t *testing.T) {
	if got := FileName("Summer Night Concert"); got != "Summer-Night-Concert.ics" {
		t.Errorf("FileName = %q", got)
	}
	if got := FileName("  "); got != "event.ics" {
		t.Errorf("FileName for blank title = %q", got)
	}
}
