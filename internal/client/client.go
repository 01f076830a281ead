// Package client is a typed HTTP client for the habit tracker API.
//
// Every call sends the session token as "Authorization: Bearer". Error
// answers are decoded into *Error, which unwraps to the matching apperror
// sentinel so callers can use errors.Is(err, apperror.ErrNotFound) the
// same way server-side code does.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sakif/habit-tracker/internal/apperror"
	"github.com/sakif/habit-tracker/internal/model"
	"github.com/sakif/habit-tracker/internal/tracker"
)

// Client talks to one server with one session.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

func New(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// Token is the session token in use, set by Login and Register.
func (c *Client) Token() string { return c.token }

// Error is a non-2xx answer.
type Error struct {
	Status  int
	Code    string // "validation_error", "not_found", ...
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s (%d): %s", e.Code, e.Status, e.Message)
}

func (e *Error) Unwrap() error {
	switch e.Status {
	case http.StatusUnauthorized:
		return apperror.ErrUnauthenticated
	case http.StatusBadRequest:
		return apperror.ErrValidation
	case http.StatusNotFound:
		return apperror.ErrNotFound
	case http.StatusForbidden:
		return apperror.ErrForbidden
	case http.StatusConflict:
		return apperror.ErrConflict
	}
	return nil
}

type session struct {
	User  *model.User `json:"user"`
	Token string      `json:"token"`
}

// Login signs in with email and password and keeps the returned token.
func (c *Client) Login(ctx context.Context, email, password string) (*model.User, error) {
	return c.signIn(ctx, "/auth/login", email, password)
}

// Register creates a local account and keeps the returned token.
func (c *Client) Register(ctx context.Context, email, password string) (*model.User, error) {
	return c.signIn(ctx, "/auth/register", email, password)
}

func (c *Client) signIn(ctx context.Context, path, email, password string) (*model.User, error) {
	var s session
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, path, body, &s); err != nil {
		return nil, err
	}
	c.token = s.Token
	return s.User, nil
}

func (c *Client) Me(ctx context.Context) (*model.User, error) {
	var u model.User
	if err := c.do(ctx, http.MethodGet, "/api/me", nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) Habits(ctx context.Context) ([]model.Habit, error) {
	var out []model.Habit
	err := c.do(ctx, http.MethodGet, "/api/habits", nil, &out)
	return out, err
}

func (c *Client) MonthHabits(ctx context.Context, monthKey string) ([]model.MonthHabit, error) {
	var out []model.MonthHabit
	err := c.do(ctx, http.MethodGet, "/api/month-habits?monthKey="+url.QueryEscape(monthKey), nil, &out)
	return out, err
}

func (c *Client) AddHabit(ctx context.Context, monthKey, name string) (*model.Habit, error) {
	var h model.Habit
	body := map[string]string{"monthKey": monthKey, "name": name}
	if err := c.do(ctx, http.MethodPost, "/api/month-habits", body, &h); err != nil {
		return nil, err
	}
	return &h, nil
}

func (c *Client) RemoveHabit(ctx context.Context, monthKey, habitID string) error {
	body := map[string]string{"monthKey": monthKey, "habitId": habitID}
	return c.do(ctx, http.MethodDelete, "/api/month-habits", body, nil)
}

func (c *Client) DeleteHabit(ctx context.Context, habitID string) error {
	return c.do(ctx, http.MethodDelete, "/api/habits/"+url.PathEscape(habitID), nil, nil)
}

func (c *Client) Completions(ctx context.Context, monthKey string) (map[string]model.Completion, error) {
	out := map[string]model.Completion{}
	err := c.do(ctx, http.MethodGet, "/api/completions?monthKey="+url.QueryEscape(monthKey), nil, &out)
	return out, err
}

// SetStatus writes one cell and returns the habit's record as stored.
func (c *Client) SetStatus(ctx context.Context, habitID, monthKey string, day int, status tracker.Status) (model.Completion, error) {
	wire := string(status)
	if status == tracker.StatusNone {
		wire = "empty"
	}
	return c.updateCompletion(ctx, map[string]any{
		"habitId": habitID, "monthKey": monthKey, "day": day, "status": wire,
	})
}

// Tap advances the cell on the server with the server's current state.
func (c *Client) Tap(ctx context.Context, habitID, monthKey string, day int) (model.Completion, error) {
	return c.updateCompletion(ctx, map[string]any{
		"habitId": habitID, "monthKey": monthKey, "day": day, "action": "tap",
	})
}

func (c *Client) updateCompletion(ctx context.Context, body map[string]any) (model.Completion, error) {
	var rec model.Completion
	err := c.do(ctx, http.MethodPost, "/api/completions", body, &rec)
	return rec, err
}

func (c *Client) Stats(ctx context.Context, monthKey string, autoCross bool) (*tracker.Summary, error) {
	q := url.Values{}
	q.Set("monthKey", monthKey)
	q.Set("autoCross", strconv.FormatBool(autoCross))

	var s tracker.Summary
	if err := c.do(ctx, http.MethodGet, "/api/stats?"+q.Encode(), nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Journal returns the entry for date, or nil when none was written.
func (c *Client) Journal(ctx context.Context, date string) (*model.JournalEntry, error) {
	var e model.JournalEntry
	if err := c.do(ctx, http.MethodGet, "/api/journal?date="+url.QueryEscape(date), nil, &e); err != nil {
		return nil, err
	}
	if e.ID == "" {
		return nil, nil
	}
	return &e, nil
}

func (c *Client) SaveJournal(ctx context.Context, date, content string) (*model.JournalEntry, error) {
	var e model.JournalEntry
	body := map[string]string{"date": date, "content": content}
	if err := c.do(ctx, http.MethodPost, "/api/journal", body, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

func (c *Client) Goal(ctx context.Context, month, year int) (*model.Goal, error) {
	q := url.Values{}
	q.Set("month", strconv.Itoa(month))
	q.Set("year", strconv.Itoa(year))

	var g model.Goal
	if err := c.do(ctx, http.MethodGet, "/api/goals?"+q.Encode(), nil, &g); err != nil {
		return nil, err
	}
	return &g, nil
}

func (c *Client) SaveGoal(ctx context.Context, g *model.Goal) (*model.Goal, error) {
	var out model.Goal
	if err := c.do(ctx, http.MethodPost, "/api/goals", g, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// do sends body as JSON and decodes a 2xx answer into out (when non-nil).
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("client: encoding request: %w", err)
		}
		rd = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return fmt.Errorf("client: building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("client: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		apiErr := &Error{Status: resp.StatusCode, Code: "http_error", Message: resp.Status}
		var eb struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		if json.NewDecoder(resp.Body).Decode(&eb) == nil && eb.Error != "" {
			apiErr.Code, apiErr.Message = eb.Error, eb.Message
		}
		return apiErr
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("client: decoding %s %s: %w", method, path, err)
	}
	return nil
}
