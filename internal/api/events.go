package api

import (
	"log/slog"
	"net/http"

	"github.com/letsgo-ai/concierge/internal/calendar"
)

// HandleLandingEvents proxies the unfiltered landing event page.
func (h *Handler) HandleLandingEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.backend.Events(r.Context())
	if err != nil {
		slog.Warn("landing events fetch failed", "error", err)
		Error(w, http.StatusBadGateway, "failed to fetch events")
		return
	}
	JSON(w, http.StatusOK, map[string]interface{}{"events": events})
}

func calendarExportFromQuery(w http.ResponseWriter, r *http.Request) *calendar.Export {
	q := r.URL.Query()
	title := q.Get("title")
	if title == "" {
		Error(w, http.StatusBadRequest, "title is required")
		return nil
	}

	export, err := calendar.Build(title, q.Get("description"), q.Get("location"), q.Get("startDate"), q.Get("startTime"))
	if err != nil {
		Error(w, http.StatusBadRequest, "invalid event date or time")
		return nil
	}
	return export
}

// HandleCalendarGoogle returns the Google Calendar deep link for an
// event.
func (h *Handler) HandleCalendarGoogle(w http.ResponseWriter, r *http.Request) {
	export := calendarExportFromQuery(w, r)
	if export == nil {
		return
	}
	JSON(w, http.StatusOK, map[string]string{"url": export.GoogleURL})
}

// HandleCalendarICS returns the downloadable calendar file for an event.
func (h *Handler) HandleCalendarICS(w http.ResponseWriter, r *http.Request) {
	export := calendarExportFromQuery(w, r)
	if export == nil {
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+calendar.FileName(r.URL.Query().Get("title"))+`"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(export.ICS)); err != nil {
		slog.Debug("failed to write ics payload", "error", err)
	}
}
