package api

import (
	"log/slog"
	"net/http"

	"github.com/letsgo-ai/concierge/internal/conversation"
	"github.com/letsgo-ai/concierge/internal/domain"
	"github.com/letsgo-ai/concierge/internal/pagination"
	"github.com/letsgo-ai/concierge/internal/tags"
	"github.com/go-chi/chi/v5"
)

// tagView is one removable filter chip.
type tagView struct {
	Key     string `json:"key"`
	Value   string `json:"value"`
	Display string `json:"display"`
}

// conversationView is the rendered state of one conversation. The
// opaque backend query token never leaves the server; the client only
// learns whether one is held.
type conversationView struct {
	ID         string               `json:"id"`
	State      conversation.State   `json:"state"`
	Messages   []domain.Message     `json:"messages"`
	Events     []domain.EventRecord `json:"events"`
	Tags       []tagView            `json:"tags"`
	HasQuery   bool                 `json:"hasQuery"`
	Page       domain.PageState     `json:"page"`
	Pagination []pagination.Button  `json:"pagination"`
}

func renderConversation(s *conversation.Session) conversationView {
	snap := s.Snapshot()

	tagViews := make([]tagView, 0, len(snap.Tags))
	for _, t := range snap.Tags {
		tagViews = append(tagViews, tagView{
			Key:     t.Key,
			Value:   t.Value,
			Display: tags.FormatTag(t),
		})
	}

	return conversationView{
		ID:         snap.ID,
		State:      snap.State,
		Messages:   snap.Transcript,
		Events:     snap.Events,
		Tags:       tagViews,
		HasQuery:   snap.Query != "",
		Page:       snap.Page,
		Pagination: pagination.Buttons(snap.Page.Current, snap.Page.TotalPages),
	}
}

// HandleCreateConversation starts a conversation, optionally submitting
// an initial message carried over from the landing search box.
func (h *Handler) HandleCreateConversation(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Message string `json:"message"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	s := h.conversations.Create()
	if err := s.Submit(r.Context(), req.Message); err != nil {
		slog.Error("initial message submit failed", "conversation_id", s.ID(), "error", err)
	}
	JSON(w, http.StatusCreated, renderConversation(s))
}

// HandleGetConversation returns the current conversation state.
func (h *Handler) HandleGetConversation(w http.ResponseWriter, r *http.Request) {
	s, ok := h.conversations.Get(chi.URLParam(r, "id"))
	if !ok {
		Error(w, http.StatusNotFound, "conversation not found")
		return
	}
	JSON(w, http.StatusOK, renderConversation(s))
}

// HandlePostMessage submits a user message. Blank messages are a no-op
// and simply echo the current state back.
func (h *Handler) HandlePostMessage(w http.ResponseWriter, r *http.Request) {
	s, ok := h.conversations.Get(chi.URLParam(r, "id"))
	if !ok {
		Error(w, http.StatusNotFound, "conversation not found")
		return
	}

	var req struct {
		Message string `json:"message"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	if err := s.Submit(r.Context(), req.Message); err != nil {
		slog.Error("message submit failed", "conversation_id", s.ID(), "error", err)
	}
	JSON(w, http.StatusOK, renderConversation(s))
}

// HandleChangePage fetches a different page of the current filter set.
func (h *Handler) HandleChangePage(w http.ResponseWriter, r *http.Request) {
	s, ok := h.conversations.Get(chi.URLParam(r, "id"))
	if !ok {
		Error(w, http.StatusNotFound, "conversation not found")
		return
	}

	var req struct {
		Page int `json:"page"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Page < 1 {
		Error(w, http.StatusBadRequest, "page must be >= 1")
		return
	}

	if err := s.ChangePage(r.Context(), req.Page); err != nil {
		slog.Warn("page fetch failed", "conversation_id", s.ID(), "page", req.Page, "error", err)
		Error(w, http.StatusBadGateway, "failed to fetch events")
		return
	}
	JSON(w, http.StatusOK, renderConversation(s))
}

// HandleRemoveTag removes one active filter tag.
func (h *Handler) HandleRemoveTag(w http.ResponseWriter, r *http.Request) {
	s, ok := h.conversations.Get(chi.URLParam(r, "id"))
	if !ok {
		Error(w, http.StatusNotFound, "conversation not found")
		return
	}

	var req struct {
		Key   string `json:"key"`
		Value string `json:"value"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Key == "" {
		Error(w, http.StatusBadRequest, "tag key is required")
		return
	}

	if err := s.RemoveTag(r.Context(), req.Key, req.Value); err != nil {
		slog.Warn("tag removal failed", "conversation_id", s.ID(), "tag_key", req.Key, "error", err)
		Error(w, http.StatusBadGateway, "failed to fetch events")
		return
	}
	JSON(w, http.StatusOK, renderConversation(s))
}

// HandleClearTags drops every active filter tag.
func (h *Handler) HandleClearTags(w http.ResponseWriter, r *http.Request) {
	s, ok := h.conversations.Get(chi.URLParam(r, "id"))
	if !ok {
		Error(w, http.StatusNotFound, "conversation not found")
		return
	}

	if err := s.ClearAll(r.Context()); err != nil {
		slog.Warn("clear tags failed", "conversation_id", s.ID(), "error", err)
		Error(w, http.StatusBadGateway, "failed to fetch events")
		return
	}
	JSON(w, http.StatusOK, renderConversation(s))
}
