// Package client is a Go client for the huddle HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	apperrors "github.com/julianstephens/huddle/internal/errors"
	"github.com/julianstephens/huddle/internal/models"
	"github.com/julianstephens/huddle/internal/service"
)

// APIError is a non-2xx response. It unwraps to the matching sentinel from
// internal/errors, so callers can use errors.Is on it.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("huddle api: %d: %s", e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusUnauthorized:
		return apperrors.ErrUnauthenticated
	case http.StatusForbidden:
		return apperrors.ErrForbidden
	case http.StatusNotFound:
		return apperrors.ErrNotFound
	case http.StatusConflict:
		return apperrors.ErrConflict
	case http.StatusBadRequest:
		return apperrors.ErrInvalidInput
	}
	return nil
}

type Client struct {
	baseURL string
	token   string
	http    *http.Client
	lang    string
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLanguage sets the Accept-Language sent with every request.
func WithLanguage(lang string) Option {
	return func(c *Client) { c.lang = lang }
}

// New creates a client for the API rooted at baseURL (for example
// "http://127.0.0.1:8080"), authenticating with the bearer token.
func New(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/") + "/api/v1",
		token:   token,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.lang != "" {
		req.Header.Set("Accept-Language", c.lang)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		var e struct {
			Error string `json:"error"`
		}
		raw, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		if json.Unmarshal(raw, &e) != nil || e.Error == "" {
			e.Error = strings.TrimSpace(string(raw))
		}
		return &APIError{StatusCode: res.StatusCode, Message: e.Error}
	}
	if out == nil || res.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c *Client) Me(ctx context.Context) (models.User, error) {
	var u models.User
	err := c.do(ctx, http.MethodGet, "/me", nil, &u)
	return u, err
}

func (c *Client) Stats(ctx context.Context) (models.Stats, error) {
	var s models.Stats
	err := c.do(ctx, http.MethodGet, "/me/stats", nil, &s)
	return s, err
}

func (c *Client) Habits(ctx context.Context) ([]models.Habit, error) {
	var out []models.Habit
	err := c.do(ctx, http.MethodGet, "/habits", nil, &out)
	return out, err
}

func (c *Client) AddHabit(ctx context.Context, in service.NewHabit) (models.Habit, error) {
	var h models.Habit
	err := c.do(ctx, http.MethodPost, "/habits", in, &h)
	return h, err
}

func (c *Client) HabitLogs(ctx context.Context, habitID, from, to string) ([]models.HabitLog, error) {
	q := url.Values{}
	if from != "" {
		q.Set("from", from)
	}
	if to != "" {
		q.Set("to", to)
	}
	path := "/habits/" + url.PathEscape(habitID) + "/logs"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var out []models.HabitLog
	err := c.do(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

func (c *Client) LogHabit(ctx context.Context, habitID, day, note string) (models.HabitLog, error) {
	var l models.HabitLog
	in := map[string]string{"date": day, "note": note}
	err := c.do(ctx, http.MethodPost, "/habits/"+url.PathEscape(habitID)+"/logs", in, &l)
	return l, err
}

func (c *Client) Groups(ctx context.Context, query string) ([]models.HabitGroup, error) {
	path := "/groups"
	if query != "" {
		path += "?" + url.Values{"q": {query}}.Encode()
	}
	var out []models.HabitGroup
	err := c.do(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

func (c *Client) Posts(ctx context.Context, groupID string) ([]models.Post, error) {
	var out []models.Post
	err := c.do(ctx, http.MethodGet, "/groups/"+url.PathEscape(groupID)+"/posts", nil, &out)
	return out, err
}

func (c *Client) AddPost(ctx context.Context, groupID, note, imageURL string) (models.Post, error) {
	var p models.Post
	in := map[string]string{"note": note, "imageUrl": imageURL}
	err := c.do(ctx, http.MethodPost, "/groups/"+url.PathEscape(groupID)+"/posts", in, &p)
	return p, err
}

func (c *Client) React(ctx context.Context, postID string, kind models.InteractionKind) (models.Post, error) {
	var p models.Post
	in := map[string]models.InteractionKind{"kind": kind}
	err := c.do(ctx, http.MethodPost, "/posts/"+url.PathEscape(postID)+"/interactions", in, &p)
	return p, err
}

func (c *Client) Comment(ctx context.Context, postID, text string) (models.Post, error) {
	var p models.Post
	in := map[string]string{"text": text}
	err := c.do(ctx, http.MethodPost, "/posts/"+url.PathEscape(postID)+"/comments", in, &p)
	return p, err
}

// Notifications returns the user's notifications and the unread count.
func (c *Client) Notifications(ctx context.Context) ([]models.Notification, int, error) {
	var out struct {
		Notifications []models.Notification `json:"notifications"`
		UnreadCount   int                   `json:"unreadCount"`
	}
	err := c.do(ctx, http.MethodGet, "/notifications", nil, &out)
	return out.Notifications, out.UnreadCount, err
}

func (c *Client) MarkRead(ctx context.Context, notificationID string) error {
	return c.do(ctx, http.MethodPost, "/notifications/"+url.PathEscape(notificationID)+"/read", nil, nil)
}

func (c *Client) MarkAllRead(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/notifications/read-all", nil, nil)
}

func (c *Client) SendMessage(ctx context.Context, recipientID, text string) (models.ChatMessage, error) {
	var m models.ChatMessage
	in := map[string]string{"recipientId": recipientID, "text": text}
	err := c.do(ctx, http.MethodPost, "/messages", in, &m)
	return m, err
}

func (c *Client) Conversations(ctx context.Context) ([]models.Conversation, error) {
	var out []models.Conversation
	err := c.do(ctx, http.MethodGet, "/conversations", nil, &out)
	return out, err
}
