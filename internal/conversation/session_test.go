package conversation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/letsgo-ai/concierge/internal/backend"
	"github.com/letsgo-ai/concierge/internal/domain"
)

type fakeBackend struct {
	mu        sync.Mutex
	chatCalls []backend.ChatRequest
	tagsCalls []backend.TagsRequest

	chatResp *backend.ChatResponse
	chatErr  error
	tagsResp *backend.ChatResponse
	tagsErr  error

	// When set, EventsByTags signals tagsStarted then blocks until
	// tagsGate is closed. Used to force response reordering.
	tagsGate    chan struct{}
	tagsStarted chan struct{}
}

func (f *fakeBackend) ChatCompletion(_ context.Context, req backend.ChatRequest) (*backend.ChatResponse, error) {
	f.mu.Lock()
	f.chatCalls = append(f.chatCalls, req)
	resp, err := f.chatResp, f.chatErr
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return &backend.ChatResponse{Message: "ok"}, nil
	}
	return resp, nil
}

func (f *fakeBackend) EventsByTags(_ context.Context, req backend.TagsRequest) (*backend.ChatResponse, error) {
	f.mu.Lock()
	f.tagsCalls = append(f.tagsCalls, req)
	resp, err := f.tagsResp, f.tagsErr
	gate, started := f.tagsGate, f.tagsStarted
	f.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if gate != nil {
		<-gate
	}
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (f *fakeBackend) chatCallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.chatCalls)
}

func eventPageResponse(query string, tagList []domain.Tag) *backend.ChatResponse {
	return &backend.ChatResponse{
		Message:     "Here's what I found",
		Events:      []domain.EventRecord{{ID: "e1", Name: "Show"}},
		CurrentPage: 1,
		TotalEvents: 18,
		TotalPages:  2,
		TagLists:    tagList,
		Query:       query,
	}
}

func newTestSession(b Backend) *Session {
	return newSession("1700000000000", 9, b)
}

func TestSubmitTranscriptGrowsByTwoPerRound(t *testing.T) {
	fb := &fakeBackend{}
	s := newTestSession(fb)

	const rounds = 3
	for i := 0; i < rounds; i++ {
		if err := s.Submit(context.Background(), fmt.Sprintf("message %d", i)); err != nil {
			t.Fatalf("Submit: %v", err)
		}
	}

	snap := s.Snapshot()
	if len(snap.Transcript) != 2*rounds {
		t.Fatalf("transcript length = %d, want %d", len(snap.Transcript), 2*rounds)
	}
	for i, msg := range snap.Transcript {
		wantRole := domain.RoleUser
		if i%2 == 1 {
			wantRole = domain.RoleAssistant
		}
		if msg.Role != wantRole {
			t.Errorf("transcript[%d].Role = %s, want %s", i, msg.Role, wantRole)
		}
	}
	if snap.Transcript[4].Text != "message 2" {
		t.Errorf("transcript out of chronological order: %+v", snap.Transcript)
	}
}

func TestSubmitEmptyMessageIsNoOp(t *testing.T) {
	fb := &fakeBackend{}
	s := newTestSession(fb)

	for _, text := range []string{"", "   ", "\n\t "} {
		if err := s.Submit(context.Background(), text); err != nil {
			t.Fatalf("Submit(%q): %v", text, err)
		}
	}

	if n := fb.chatCallCount(); n != 0 {
		t.Errorf("expected no backend calls, got %d", n)
	}
	if snap := s.Snapshot(); len(snap.Transcript) != 0 {
		t.Errorf("expected empty transcript, got %d messages", len(snap.Transcript))
	}
}

func TestSubmitSendsPriorHistoryAndResetsPage(t *testing.T) {
	fb := &fakeBackend{chatResp: eventPageResponse("q1", []domain.Tag{{Key: "categories", Value: "concerts"}})}
	s := newTestSession(fb)

	if err := s.Submit(context.Background(), "find concerts"); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if err := s.Submit(context.Background(), "only outdoor ones"); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	second := fb.chatCalls[1]
	if second.PageNum != 1 {
		t.Errorf("PageNum = %d, want 1", second.PageNum)
	}
	if second.PageSize != 9 {
		t.Errorf("PageSize = %d, want 9", second.PageSize)
	}
	if len(second.ChatHistory) != 2 {
		t.Fatalf("ChatHistory length = %d, want 2 (prior round only)", len(second.ChatHistory))
	}
	if second.ChatHistory[0].Role != "user" || second.ChatHistory[0].Content != "find concerts" {
		t.Errorf("unexpected history[0]: %+v", second.ChatHistory[0])
	}
	if second.ChatHistory[1].Role != "assistant" {
		t.Errorf("unexpected history[1]: %+v", second.ChatHistory[1])
	}
}

func TestSubmitAppliesEventPageWholesale(t *testing.T) {
	tagList := []domain.Tag{{Key: "categories", Value: "concerts"}, {Key: "venue_city", Value: "%Austin%"}}
	fb := &fakeBackend{chatResp: eventPageResponse("opaque-token", tagList)}
	s := newTestSession(fb)

	if err := s.Submit(context.Background(), "concerts in austin"); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	snap := s.Snapshot()
	if snap.Query != "opaque-token" {
		t.Errorf("Query = %q, want backend-echoed token", snap.Query)
	}
	if len(snap.Tags) != 2 || snap.Tags[1].Key != "venue_city" {
		t.Errorf("Tags = %+v, want backend tag list verbatim", snap.Tags)
	}
	if snap.Page.TotalPages != 2 || snap.Page.TotalEvents != 18 || snap.Page.Current != 1 {
		t.Errorf("Page = %+v", snap.Page)
	}
	if len(snap.Events) != 1 || snap.Events[0].ID != "e1" {
		t.Errorf("Events = %+v", snap.Events)
	}
}

func TestSubmitWithoutEventPageKeepsFilterState(t *testing.T) {
	fb := &fakeBackend{chatResp: eventPageResponse("q1", []domain.Tag{{Key: "categories", Value: "sports"}})}
	s := newTestSession(fb)
	if err := s.Submit(context.Background(), "sports"); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	// Second reply has no events field at all.
	fb.mu.Lock()
	fb.chatResp = &backend.ChatResponse{Message: "tell me more"}
	fb.mu.Unlock()

	if err := s.Submit(context.Background(), "hmm"); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	snap := s.Snapshot()
	if snap.Query != "q1" || len(snap.Tags) != 1 || len(snap.Events) != 1 {
		t.Errorf("filter state changed on eventless reply: query=%q tags=%d events=%d",
			snap.Query, len(snap.Tags), len(snap.Events))
	}
	if len(snap.Transcript) != 4 {
		t.Errorf("transcript length = %d, want 4", len(snap.Transcript))
	}
}

func TestSubmitFailureAppendsApologyOnly(t *testing.T) {
	fb := &fakeBackend{chatResp: eventPageResponse("q1", []domain.Tag{{Key: "categories", Value: "sports"}})}
	s := newTestSession(fb)
	if err := s.Submit(context.Background(), "sports"); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	fb.mu.Lock()
	fb.chatErr = errors.New("backend down")
	fb.mu.Unlock()

	if err := s.Submit(context.Background(), "more"); err != nil {
		t.Fatalf("Submit after failure should not error: %v", err)
	}

	snap := s.Snapshot()
	last := snap.Transcript[len(snap.Transcript)-1]
	if last.Role != domain.RoleAssistant || last.Text != failureReply {
		t.Errorf("expected apology message, got %+v", last)
	}
	if snap.State != StateErrorDisplayed {
		t.Errorf("State = %s, want %s", snap.State, StateErrorDisplayed)
	}
	if snap.Query != "q1" || len(snap.Events) != 1 {
		t.Errorf("events/tags mutated on failure: query=%q events=%d", snap.Query, len(snap.Events))
	}
}

func TestRemoveTagReplacesStateFromResponse(t *testing.T) {
	fb := &fakeBackend{chatResp: eventPageResponse("q1", []domain.Tag{
		{Key: "categories", Value: "concerts"},
		{Key: "venue_city", Value: "%Austin%"},
	})}
	s := newTestSession(fb)
	if err := s.Submit(context.Background(), "concerts in austin"); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	fb.mu.Lock()
	fb.tagsResp = eventPageResponse("q2", []domain.Tag{{Key: "categories", Value: "concerts"}})
	fb.mu.Unlock()

	if err := s.RemoveTag(context.Background(), "venue_city", "%Austin%"); err != nil {
		t.Fatalf("RemoveTag: %v", err)
	}

	req := fb.tagsCalls[0]
	if req.Query != "q1" || req.TagKey != "venue_city" || req.TagValue != "%Austin%" || req.Page != 1 {
		t.Errorf("unexpected tags request: %+v", req)
	}

	snap := s.Snapshot()
	if snap.Query != "q2" {
		t.Errorf("Query = %q, want q2 (most recently echoed value)", snap.Query)
	}
	if len(snap.Tags) != 1 || snap.Tags[0].Key != "categories" {
		t.Errorf("Tags = %+v, want response tag list, not a local subset", snap.Tags)
	}
}

func TestChangePageWithTagsUsesQuery(t *testing.T) {
	fb := &fakeBackend{chatResp: eventPageResponse("q1", []domain.Tag{{Key: "categories", Value: "concerts"}})}
	s := newTestSession(fb)
	if err := s.Submit(context.Background(), "concerts"); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	fb.mu.Lock()
	fb.tagsResp = &backend.ChatResponse{
		Events:      []domain.EventRecord{{ID: "e2"}},
		CurrentPage: 2,
		TotalPages:  2,
		TotalEvents: 18,
		TagLists:    []domain.Tag{{Key: "categories", Value: "concerts"}},
		Query:       "q1",
	}
	fb.mu.Unlock()

	if err := s.ChangePage(context.Background(), 2); err != nil {
		t.Fatalf("ChangePage: %v", err)
	}

	req := fb.tagsCalls[0]
	if req.Query != "q1" || req.Page != 2 || req.ClearAll {
		t.Errorf("unexpected request: %+v", req)
	}
	if snap := s.Snapshot(); snap.Page.Current != 2 {
		t.Errorf("Current = %d, want 2", snap.Page.Current)
	}
}

func TestChangePageWithoutTagsDegradesToClearAll(t *testing.T) {
	fb := &fakeBackend{tagsResp: eventPageResponse("", nil)}
	s := newTestSession(fb)

	if err := s.ChangePage(context.Background(), 3); err != nil {
		t.Fatalf("ChangePage: %v", err)
	}

	req := fb.tagsCalls[0]
	if !req.ClearAll || req.Page != 3 || req.Query != "" {
		t.Errorf("expected clear-all fetch at page 3, got %+v", req)
	}
}

func TestClearAllUsesCurrentPage(t *testing.T) {
	fb := &fakeBackend{chatResp: &backend.ChatResponse{
		Message:     "found",
		Events:      []domain.EventRecord{{ID: "e1"}},
		CurrentPage: 1,
		TotalPages:  3,
		TotalEvents: 27,
		TagLists:    []domain.Tag{{Key: "categories", Value: "concerts"}},
		Query:       "q1",
	}}
	s := newTestSession(fb)
	if err := s.Submit(context.Background(), "concerts"); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	fb.mu.Lock()
	fb.tagsResp = eventPageResponse("", nil)
	fb.mu.Unlock()

	if err := s.ClearAll(context.Background()); err != nil {
		t.Fatalf("ClearAll: %v", err)
	}

	req := fb.tagsCalls[0]
	if !req.ClearAll || req.Page != 1 {
		t.Errorf("unexpected clear-all request: %+v", req)
	}
	if snap := s.Snapshot(); len(snap.Tags) != 0 || snap.Query != "" {
		t.Errorf("expected cleared filter state, got tags=%d query=%q", len(snap.Tags), snap.Query)
	}
}

func TestPaginationFailureLeavesStateUntouched(t *testing.T) {
	fb := &fakeBackend{chatResp: eventPageResponse("q1", []domain.Tag{{Key: "categories", Value: "concerts"}})}
	s := newTestSession(fb)
	if err := s.Submit(context.Background(), "concerts"); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	fb.mu.Lock()
	fb.tagsErr = errors.New("backend down")
	fb.mu.Unlock()

	if err := s.ChangePage(context.Background(), 2); err == nil {
		t.Fatal("expected pagination error")
	}

	snap := s.Snapshot()
	if snap.Query != "q1" || snap.Page.Current != 1 {
		t.Errorf("state mutated on pagination failure: %+v", snap.Page)
	}
	if snap.State != StateIdle {
		t.Errorf("State = %s, want idle after failed pagination", snap.State)
	}
}

func TestStalePaginationResponseDiscarded(t *testing.T) {
	fb := &fakeBackend{
		tagsResp:    eventPageResponse("stale-query", []domain.Tag{{Key: "categories", Value: "old"}}),
		tagsGate:    make(chan struct{}),
		tagsStarted: make(chan struct{}, 1),
	}
	s := newTestSession(fb)

	// Seed filter state so ChangePage paginates rather than clears.
	fb.mu.Lock()
	fb.chatResp = eventPageResponse("q1", []domain.Tag{{Key: "categories", Value: "concerts"}})
	fb.mu.Unlock()
	if err := s.Submit(context.Background(), "concerts"); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	// Pagination request goes out first but its response is held back.
	done := make(chan error, 1)
	go func() {
		done <- s.ChangePage(context.Background(), 2)
	}()
	<-fb.tagsStarted

	// A newer message round trips completely while pagination is in flight.
	fb.mu.Lock()
	fb.chatResp = eventPageResponse("fresh-query", []domain.Tag{{Key: "categories", Value: "theater"}})
	fb.mu.Unlock()
	if err := s.Submit(context.Background(), "theater instead"); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	// Now the slow pagination response lands.
	close(fb.tagsGate)
	if err := <-done; err != nil {
		t.Fatalf("ChangePage: %v", err)
	}

	snap := s.Snapshot()
	if snap.Query != "fresh-query" {
		t.Errorf("Query = %q, stale response overwrote newer state", snap.Query)
	}
	if len(snap.Tags) != 1 || snap.Tags[0].Value != "theater" {
		t.Errorf("Tags = %+v, stale response overwrote newer state", snap.Tags)
	}
}
