package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/sakif/habit-tracker/internal/auth"
	"github.com/sakif/habit-tracker/internal/handler"
	"github.com/sakif/habit-tracker/internal/model"
	"github.com/sakif/habit-tracker/internal/repository/sqlite"
	"github.com/sakif/habit-tracker/internal/service"
)

var testNow = time.Date(2025, time.March, 15, 10, 0, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fixture struct {
	store       *sqlite.DB
	habits      *handler.HabitHandler
	completions *handler.CompletionHandler
	journal     *handler.JournalHandler
	goals       *handler.GoalHandler
	auth        *handler.AuthHandler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	logger := discardLogger()
	now := func() time.Time { return testNow }
	tokens, err := auth.NewTokenService("handler-test-secret-123")
	require.NoError(t, err)

	habitService := service.NewHabitService(store, store, now, logger)
	authService := service.NewAuthService(store, tokens,
		auth.NewPasswordServiceWithCost(bcrypt.MinCost), logger)

	return &fixture{
		store:       store,
		habits:      handler.NewHabitHandler(habitService, logger),
		completions: handler.NewCompletionHandler(service.NewCompletionService(store, store, now, logger), logger),
		journal:     handler.NewJournalHandler(service.NewJournalService(store, logger), logger),
		goals:       handler.NewGoalHandler(service.NewGoalService(store, logger), logger),
		auth: handler.NewAuthHandler(auth.NewGitHubProvider("", "", ""), authService,
			handler.AuthOptions{}, logger),
	}
}

// request builds a request already carrying userID in its context, the
// way auth.RequireAuth would leave it.
func request(method, target, userID, body string) *http.Request {
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rd)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req = req.WithContext(auth.WithUserID(req.Context(), userID))
	}
	return req
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) handler.ErrorResponse {
	t.Helper()
	var body handler.ErrorResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	return body
}

func TestHabitHandler_Errors(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name      string
		req       *http.Request
		wantCode  int
		wantError string
	}{
		{"no user", request(http.MethodGet, "/api/habits", "", ""), http.StatusUnauthorized, "unauthorized"},
		{"empty body", request(http.MethodPost, "/api/habits", "u1", ""), http.StatusBadRequest, "validation_error"},
		{"bad json", request(http.MethodPost, "/api/habits", "u1", "{"), http.StatusBadRequest, "validation_error"},
		{"blank name", request(http.MethodPost, "/api/habits", "u1", `{"name":"   "}`), http.StatusBadRequest, "validation_error"},
		{"long name", request(http.MethodPost, "/api/habits", "u1",
			`{"name":"`+strings.Repeat("x", service.MaxHabitNameLength+1)+`"}`), http.StatusBadRequest, "validation_error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			if tt.req.Method == http.MethodGet {
				f.habits.HandleList(rr, tt.req)
			} else {
				f.habits.HandleCreate(rr, tt.req)
			}
			assert.Equal(t, tt.wantCode, rr.Code)
			assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
			assert.Equal(t, tt.wantError, decodeError(t, rr).Error)
		})
	}
}

func TestHabitHandler_OversizedBody(t *testing.T) {
	f := newFixture(t)

	body := `{"name":"` + strings.Repeat("a", 2<<20) + `"}`
	rr := httptest.NewRecorder()
	f.habits.HandleCreate(rr, request(http.MethodPost, "/api/habits", "u1", body))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, decodeError(t, rr).Message, "too large")
}

func TestHabitHandler_CreateAndDelete(t *testing.T) {
	f := newFixture(t)

	rr := httptest.NewRecorder()
	f.habits.HandleCreate(rr, request(http.MethodPost, "/api/habits", "u1", `{"name":"  Read  "}`))
	require.Equal(t, http.StatusCreated, rr.Code)

	var habit model.Habit
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&habit))
	assert.Equal(t, "Read", habit.Name)

	// chi.URLParam needs a route context when the handler is called directly.
	del := func(userID string) *httptest.ResponseRecorder {
		req := request(http.MethodDelete, "/api/habits/"+habit.ID, userID, "")
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("id", habit.ID)
		req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
		rr := httptest.NewRecorder()
		f.habits.HandleDelete(rr, req)
		return rr
	}

	assert.Equal(t, http.StatusNotFound, del("someone-else").Code)
	assert.Equal(t, http.StatusNoContent, del("u1").Code)
	assert.Equal(t, http.StatusNotFound, del("u1").Code)
}

func TestCompletionHandler_RejectsUnknownAction(t *testing.T) {
	f := newFixture(t)

	rr := httptest.NewRecorder()
	f.completions.HandleUpdate(rr, request(http.MethodPost, "/api/completions", "u1",
		`{"habitId":"h1","monthKey":"2025-03","day":1,"action":"toggle"}`))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, decodeError(t, rr).Message, "tap or clear")
}

func TestCompletionHandler_ListMissingMonth(t *testing.T) {
	f := newFixture(t)

	rr := httptest.NewRecorder()
	f.completions.HandleList(rr, request(http.MethodGet, "/api/completions", "u1", ""))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestJournalHandler_Validation(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name string
		body string
	}{
		{"bad date", `{"date":"2025-13-01","content":"x"}`},
		{"impossible date", `{"date":"2025-02-30","content":"x"}`},
		{"too long", `{"date":"2025-03-01","content":"` + strings.Repeat("y", service.MaxJournalLength+1) + `"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			f.journal.HandleSave(rr, request(http.MethodPost, "/api/journal", "u1", tt.body))
			assert.Equal(t, http.StatusBadRequest, rr.Code)
		})
	}
}

func TestGoalHandler_BadQuery(t *testing.T) {
	f := newFixture(t)

	for _, target := range []string{
		"/api/goals?year=2025",
		"/api/goals?month=13&year=2025",
		"/api/goals?month=three&year=2025",
	} {
		rr := httptest.NewRecorder()
		f.goals.HandleGet(rr, request(http.MethodGet, target, "u1", ""))
		assert.Equal(t, http.StatusBadRequest, rr.Code, target)
	}
}

func TestAuthHandler_RegisterLoginLogout(t *testing.T) {
	f := newFixture(t)

	rr := httptest.NewRecorder()
	f.auth.HandleRegister(rr, request(http.MethodPost, "/auth/register", "",
		`{"email":"Ada@Example.com","password":"analytical"}`))
	require.Equal(t, http.StatusCreated, rr.Code)

	var session handler.SessionResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&session))
	assert.Equal(t, "ada@example.com", session.User.Email)
	assert.NotEmpty(t, session.Token)

	cookie := findCookie(rr.Result().Cookies(), auth.CookieName)
	require.NotNil(t, cookie)
	assert.Equal(t, session.Token, cookie.Value)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, int(auth.DefaultSessionTTL.Seconds()), cookie.MaxAge)

	rr = httptest.NewRecorder()
	f.auth.HandleRegister(rr, request(http.MethodPost, "/auth/register", "",
		`{"email":"ada@example.com","password":"analytical"}`))
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = httptest.NewRecorder()
	f.auth.HandleLogin(rr, request(http.MethodPost, "/auth/login", "",
		`{"email":"ada@example.com","password":"wrong-password"}`))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = httptest.NewRecorder()
	f.auth.HandleLogin(rr, request(http.MethodPost, "/auth/login", "",
		`{"email":"ada@example.com","password":"analytical"}`))
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	f.auth.HandleMe(rr, request(http.MethodGet, "/api/me", session.User.ID, ""))
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	f.auth.HandleLogout(rr, request(http.MethodPost, "/auth/logout", "", ""))
	assert.Equal(t, http.StatusOK, rr.Code)
	cleared := findCookie(rr.Result().Cookies(), auth.CookieName)
	require.NotNil(t, cleared)
	assert.Negative(t, cleared.MaxAge)
}

func TestAuthHandler_GitHubDisabled(t *testing.T) {
	f := newFixture(t)

	rr := httptest.NewRecorder()
	f.auth.HandleGitHubLogin(rr, request(http.MethodGet, "/auth/github/login", "", ""))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestAuthHandler_GitHubLoginSetsState(t *testing.T) {
	logger := discardLogger()
	h := handler.NewAuthHandler(auth.NewGitHubProvider("client", "secret", "http://localhost/cb"),
		nil, handler.AuthOptions{}, logger)

	rr := httptest.NewRecorder()
	h.HandleGitHubLogin(rr, request(http.MethodGet, "/auth/github/login", "", ""))
	require.Equal(t, http.StatusTemporaryRedirect, rr.Code)

	state := findCookie(rr.Result().Cookies(), "oauth_state")
	require.NotNil(t, state)
	assert.Contains(t, rr.Header().Get("Location"), "state="+state.Value)

	// A callback without the matching cookie is refused.
	rr = httptest.NewRecorder()
	h.HandleGitHubCallback(rr, request(http.MethodGet, "/auth/github/callback?code=x&state="+state.Value, "", ""))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	// The user pressed "cancel" on GitHub.
	req := request(http.MethodGet, "/auth/github/callback?error=access_denied&state="+state.Value, "", "")
	req.AddCookie(state)
	rr = httptest.NewRecorder()
	h.HandleGitHubCallback(rr, req)
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/?auth=denied", rr.Header().Get("Location"))
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

func TestHealthHandler(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantCode   int
		wantStatus string
	}{
		{"up", nil, http.StatusOK, "ok"},
		{"down", errors.New("connection refused"), http.StatusServiceUnavailable, "unavailable"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := handler.NewHealthHandler(stubPinger{err: tt.err}, discardLogger())
			rr := httptest.NewRecorder()
			h.HandleHealth(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))

			assert.Equal(t, tt.wantCode, rr.Code)
			var body map[string]string
			require.NoError(t, json.NewDecoder(bytes.NewReader(rr.Body.Bytes())).Decode(&body))
			assert.Equal(t, tt.wantStatus, body["status"])
		})
	}
}

func findCookie(cookies []*http.Cookie, name string) *http.Cookie {
	for _, c := range cookies {
		if c.Name == name {
			return c
		}
	}
	return nil
}
