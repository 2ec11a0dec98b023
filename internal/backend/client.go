// Package backend is the HTTP client for the remote concierge service.
// All natural-language understanding, event search and tag/query
// construction happens there; this client only moves typed JSON across
// the wire. No call is retried: failure is surfaced once per call site.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/letsgo-ai/concierge/internal/domain"
)

// ErrAlreadyRegistered is returned by RegisterWaitlist when the backend
// reports the email is already on the waitlist. Callers must surface it
// as a warning, distinct from other failures.
var ErrAlreadyRegistered = errors.New("email already registered")

// Client issues requests against a fixed backend base URL.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a backend client for the given base URL.
func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// ChatTurn is one transcript entry in the shape the completion endpoint
// expects.
type ChatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the body of a completion call. PageNum is always 1 for
// new messages: a new message discards the prior pagination position.
type ChatRequest struct {
	Message     string     `json:"message"`
	PageSize    int        `json:"pageSize"`
	PageNum     int        `json:"pageNum"`
	ChatHistory []ChatTurn `json:"chatHistory"`
}

// ChatResponse is the shared response shape of the completion and
// tag-filter endpoints. On the completion endpoint the event and
// pagination fields are optional; their absence means "no
// filter-affecting change", not an error. A nil Events slice marks that
// absence.
type ChatResponse struct {
	Message       string               `json:"message"`
	Subcategories []string             `json:"subcategories"`
	Events        []domain.EventRecord `json:"events"`
	CurrentPage   int                  `json:"currentPage"`
	TotalEvents   int                  `json:"totalEvents"`
	TotalPages    int                  `json:"totalPages"`
	TagLists      []domain.Tag         `json:"tagLists"`
	Query         string               `json:"query"`
}

// HasEventPage reports whether the response carried an event page and
// its accompanying pagination/tag/query state.
func (r *ChatResponse) HasEventPage() bool {
	return r.Events != nil
}

// TagsRequest parameterizes a filtered/paginated event fetch. Query is
// the opaque token echoed by the previous response and is never
// constructed or inspected locally. TagKey/TagValue identify a single
// tag to remove; ClearAll drops every active tag.
type TagsRequest struct {
	Query    string
	TagKey   string
	TagValue string
	ClearAll bool
	Page     int
	Limit    int
}

// Events fetches the initial unfiltered event page for the landing view.
func (c *Client) Events(ctx context.Context) ([]domain.EventRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/events", nil)
	if err != nil {
		return nil, fmt.Errorf("build events request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	var body struct {
		Data struct {
			Events []domain.EventRecord `json:"events"`
		} `json:"data"`
	}
	if err := c.do(req, &body); err != nil {
		return nil, fmt.Errorf("fetch events: %w", err)
	}
	return body.Data.Events, nil
}

// ChatCompletion submits a conversational message with the full prior
// transcript and returns the assistant reply plus any event page.
func (c *Client) ChatCompletion(ctx context.Context, chatReq ChatRequest) (*ChatResponse, error) {
	payload, err := json.Marshal(chatReq)
	if err != nil {
		return nil, fmt.Errorf("encode completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat/completion", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build completion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var resp ChatResponse
	if err := c.do(req, &resp); err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}
	return &resp, nil
}

// EventsByTags fetches a filtered event page: pagination within the
// current filter set, single-tag removal, or clear-all. Unlike the
// completion endpoint, the page/tag/query fields are always present in
// the response.
func (c *Client) EventsByTags(ctx context.Context, tagsReq TagsRequest) (*ChatResponse, error) {
	params := url.Values{}
	if tagsReq.Query != "" {
		params.Set("query", tagsReq.Query)
	}
	if tagsReq.TagKey != "" {
		params.Set("tagKey", tagsReq.TagKey)
		params.Set("tagValue", tagsReq.TagValue)
	}
	if tagsReq.ClearAll {
		params.Set("clearAll", "true")
	}
	params.Set("page", strconv.Itoa(tagsReq.Page))
	params.Set("limit", strconv.Itoa(tagsReq.Limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/api/events/getEventsByTags?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build tags request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	var resp ChatResponse
	if err := c.do(req, &resp); err != nil {
		return nil, fmt.Errorf("events by tags: %w", err)
	}
	return &resp, nil
}

// RegisterWaitlist adds an email to the launch waitlist. A 400 from the
// backend means the email is already registered and maps to
// ErrAlreadyRegistered.
func (c *Client) RegisterWaitlist(ctx context.Context, email string) error {
	payload, err := json.Marshal(map[string]string{"email": email})
	if err != nil {
		return fmt.Errorf("encode waitlist request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/waitlist/register", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build waitlist request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("register waitlist: %w", err)
	}
	defer drainAndClose(resp.Body)

	switch {
	case resp.StatusCode == http.StatusOK:
		return nil
	case resp.StatusCode == http.StatusBadRequest:
		return ErrAlreadyRegistered
	default:
		return fmt.Errorf("register waitlist: unexpected status %d", resp.StatusCode)
	}
}

// do executes the request and decodes a 2xx JSON body into out.
func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func drainAndClose(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, body)
	_ = body.Close()
}
