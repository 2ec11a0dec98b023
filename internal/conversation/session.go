// Package conversation owns the per-conversation view state: the
// message transcript, the current event page, the active filter tags and
// the opaque backend query token. It is the only component that mutates
// this state; handlers go through it exclusively.
package conversation

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/letsgo-ai/concierge/internal/backend"
	"github.com/letsgo-ai/concierge/internal/domain"
)

// State is the coarse user-visible phase of a conversation.
type State string

const (
	StateIdle           State = "idle"
	StateAwaitingReply  State = "awaiting_reply"
	StatePaginating     State = "paginating"
	StateErrorDisplayed State = "error_displayed"
)

// failureReply is appended as an assistant message when a completion
// request fails. Events, tags and pagination are left untouched.
const failureReply = "Sorry, I encountered an error. Please try again."

// Backend is the subset of the concierge client the state machine needs.
type Backend interface {
	ChatCompletion(ctx context.Context, req backend.ChatRequest) (*backend.ChatResponse, error)
	EventsByTags(ctx context.Context, req backend.TagsRequest) (*backend.ChatResponse, error)
}

// Session is one conversation. All exported methods are safe for
// concurrent use; the lock is released around backend calls so a slow
// reply never blocks reads or newer submissions.
//
// Every filter-affecting call carries a monotonically increasing
// sequence number. A response is applied only if no later response has
// been applied already, so a slow pagination reply landing after a newer
// message reply is discarded instead of clobbering fresher state.
type Session struct {
	id       string
	pageSize int
	backend  Backend

	mu         sync.Mutex
	state      State
	transcript []domain.Message
	events     []domain.EventRecord
	tagList    []domain.Tag
	query      string
	page       domain.PageState
	seq        uint64
	applied    uint64
	lastActive time.Time
}

func newSession(id string, pageSize int, b Backend) *Session {
	return &Session{
		id:         id,
		pageSize:   pageSize,
		backend:    b,
		state:      StateIdle,
		page:       domain.PageState{Current: 1, PageSize: pageSize},
		lastActive: time.Now(),
	}
}

// ID returns the opaque conversation identifier.
func (s *Session) ID() string { return s.id }

// Snapshot is a point-in-time copy of the conversation state.
type Snapshot struct {
	ID         string
	State      State
	Transcript []domain.Message
	Events     []domain.EventRecord
	Tags       []domain.Tag
	Query      string
	Page       domain.PageState
}

// Snapshot copies the current state. The returned slices are detached
// from the session.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		ID:         s.id,
		State:      s.state,
		Transcript: append([]domain.Message(nil), s.transcript...),
		Events:     append([]domain.EventRecord(nil), s.events...),
		Tags:       append([]domain.Tag(nil), s.tagList...),
		Query:      s.query,
		Page:       s.page,
	}
}

// Submit sends a user message. Empty or whitespace-only text is a no-op:
// nothing is appended and no request is issued. Otherwise the user
// message is appended immediately, the page position resets to 1, and
// the completion request carries the full prior transcript. On failure a
// fixed assistant apology is appended and the event state is untouched;
// Submit itself returns nil since the conversation has recovered.
func (s *Session) Submit(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	s.mu.Lock()
	history := make([]backend.ChatTurn, 0, len(s.transcript))
	for _, m := range s.transcript {
		history = append(history, backend.ChatTurn{Role: string(m.Role), Content: m.Text})
	}
	s.transcript = append(s.transcript, domain.Message{Role: domain.RoleUser, Text: text})
	s.page.Current = 1
	s.state = StateAwaitingReply
	seq := s.nextSeq()
	s.touch()
	s.mu.Unlock()

	resp, err := s.backend.ChatCompletion(ctx, backend.ChatRequest{
		Message:     text,
		PageSize:    s.pageSize,
		PageNum:     1,
		ChatHistory: history,
	})

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		slog.Warn("chat completion failed", "conversation_id", s.id, "error", err)
		s.transcript = append(s.transcript, domain.Message{Role: domain.RoleAssistant, Text: failureReply})
		s.state = StateErrorDisplayed
		return nil
	}

	suggestions := resp.Subcategories
	if suggestions == nil {
		suggestions = []string{}
	}
	s.transcript = append(s.transcript, domain.Message{
		Role:        domain.RoleAssistant,
		Text:        resp.Message,
		Suggestions: suggestions,
	})
	if resp.HasEventPage() {
		s.applyEventPage(seq, resp)
	}
	s.state = StateIdle
	return nil
}

// ChangePage fetches a different page of the current filter set. With no
// active tags there is no query token to page against, so the fetch
// degrades to a clear-all call at the requested page, which returns the
// unfiltered set.
func (s *Session) ChangePage(ctx context.Context, pageNum int) error {
	if pageNum < 1 {
		pageNum = 1
	}

	s.mu.Lock()
	req := backend.TagsRequest{
		Query: s.query,
		Page:  pageNum,
		Limit: s.pageSize,
	}
	if len(s.tagList) == 0 {
		req.Query = ""
		req.ClearAll = true
	}
	s.state = StatePaginating
	seq := s.nextSeq()
	s.touch()
	s.mu.Unlock()

	return s.fetchAndApply(ctx, seq, req)
}

// RemoveTag re-fetches with one tag removed from the accumulated filter
// expression. The page position resets to 1. The resulting tag list and
// query come wholesale from the response; nothing is filtered locally.
func (s *Session) RemoveTag(ctx context.Context, key, value string) error {
	s.mu.Lock()
	req := backend.TagsRequest{
		Query:    s.query,
		TagKey:   key,
		TagValue: value,
		Page:     1,
		Limit:    s.pageSize,
	}
	s.state = StatePaginating
	seq := s.nextSeq()
	s.touch()
	s.mu.Unlock()

	return s.fetchAndApply(ctx, seq, req)
}

// ClearAll drops every active tag, fetching the unfiltered set at the
// current page.
func (s *Session) ClearAll(ctx context.Context) error {
	s.mu.Lock()
	req := backend.TagsRequest{
		ClearAll: true,
		Page:     s.page.Current,
		Limit:    s.pageSize,
	}
	s.state = StatePaginating
	seq := s.nextSeq()
	s.touch()
	s.mu.Unlock()

	return s.fetchAndApply(ctx, seq, req)
}

func (s *Session) fetchAndApply(ctx context.Context, seq uint64, req backend.TagsRequest) error {
	resp, err := s.backend.EventsByTags(ctx, req)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateIdle

	if err != nil {
		return err
	}
	s.applyEventPage(seq, resp)
	return nil
}

// applyEventPage replaces events, pagination, tag list and query
// wholesale from a response, unless a response issued later has already
// been applied. Caller holds s.mu.
func (s *Session) applyEventPage(seq uint64, resp *backend.ChatResponse) {
	if seq <= s.applied {
		slog.Debug("discarding stale response", "conversation_id", s.id, "seq", seq, "applied", s.applied)
		return
	}
	s.applied = seq

	s.events = resp.Events
	if s.events == nil {
		s.events = []domain.EventRecord{}
	}
	s.tagList = resp.TagLists
	s.query = resp.Query
	s.page = domain.PageState{
		Current:     resp.CurrentPage,
		TotalPages:  resp.TotalPages,
		TotalEvents: resp.TotalEvents,
		PageSize:    s.pageSize,
	}
	s.page.Clamp()
}

// nextSeq allocates a sequence number. Caller holds s.mu.
func (s *Session) nextSeq() uint64 {
	s.seq++
	return s.seq
}

// touch records activity for idle eviction. Caller holds s.mu.
func (s *Session) touch() {
	s.lastActive = time.Now()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}
