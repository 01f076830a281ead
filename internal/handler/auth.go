package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/habit-tracker/internal/auth"
	"github.com/sakif/habit-tracker/internal/model"
	"github.com/sakif/habit-tracker/internal/service"
)

const stateCookie = "oauth_state"

// AuthOptions are the cookie and redirect settings of the auth endpoints.
type AuthOptions struct {
	// SecureCookies marks cookies HTTPS-only. Off for local development.
	SecureCookies bool
	// SessionTTL is the token cookie's Max-Age; it should match the token.
	SessionTTL time.Duration
	// AppURL is where the browser lands after GitHub sign-in.
	AppURL string
}

// AuthHandler owns the sign-in endpoints and /api/me.
//
//   - HandleGitHubLogin / HandleGitHubCallback → GitHub OAuth
//   - HandleRegister / HandleLogin            → local email + password
//   - HandleLogout                            → clear the cookie
//   - HandleMe                                → current user
//
// Every successful sign-in sets the HttpOnly "token" cookie. Register and
// login also return the token in the body for non-browser clients.
type AuthHandler struct {
	github *auth.GitHubProvider
	auth   *service.AuthService
	opts   AuthOptions
	logger *slog.Logger
}

func NewAuthHandler(
	github *auth.GitHubProvider,
	authService *service.AuthService,
	opts AuthOptions,
	logger *slog.Logger,
) *AuthHandler {
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = auth.DefaultSessionTTL
	}
	if opts.AppURL == "" {
		opts.AppURL = "/"
	}
	return &AuthHandler{
		github: github,
		auth:   authService,
		opts:   opts,
		logger: logger,
	}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Login    string `json:"login"`
}

// SessionResponse is returned by register and login.
type SessionResponse struct {
	User  *model.User `json:"user"`
	Token string      `json:"token"`
}

// HandleGitHubLogin redirects to GitHub with a fresh state value that is
// also kept in a ten-minute cookie for the callback to compare against.
//
// HTTP: GET /auth/github/login
func (h *AuthHandler) HandleGitHubLogin(w http.ResponseWriter, r *http.Request) {
	if !h.github.Enabled() {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "not_found", Message: "GitHub login is not configured"})
		return
	}

	state := xid.New().String()
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   600,
		HttpOnly: true,
		Secure:   h.opts.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, h.github.AuthURL(state), http.StatusTemporaryRedirect)
}

// HandleGitHubCallback checks state, exchanges the code, signs the user
// in and redirects to the app.
//
// HTTP: GET /auth/github/callback?code=xxx&state=yyy
func (h *AuthHandler) HandleGitHubCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	c, err := r.Cookie(stateCookie)
	if err != nil || c.Value == "" || q.Get("state") != c.Value {
		h.logger.Warn("auth callback: state mismatch")
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: "invalid OAuth state"})
		return
	}
	// single use
	http.SetCookie(w, &http.Cookie{Name: stateCookie, Value: "", Path: "/", MaxAge: -1})

	if errParam := q.Get("error"); errParam != "" {
		h.logger.Info("auth callback: user denied authorization", slog.String("error", errParam))
		http.Redirect(w, r, h.opts.AppURL+"?auth=denied", http.StatusSeeOther)
		return
	}

	code := q.Get("code")
	if code == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: "missing OAuth code"})
		return
	}

	ghUser, err := h.github.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("auth callback: GitHub exchange failed", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	result, err := h.auth.LoginOrRegisterGitHub(r.Context(), ghUser)
	if err != nil {
		h.logger.Error("auth callback: sign-in failed",
			slog.Int64("githubID", ghUser.ID),
			slog.String("error", err.Error()),
		)
		writeError(w, err)
		return
	}

	h.setSessionCookie(w, result.Token)
	http.Redirect(w, r, h.opts.AppURL, http.StatusSeeOther)
}

// HandleRegister creates a local account.
//
// HTTP: POST /auth/register
// REQUEST BODY: {"email": "...", "password": "...", "login": "optional"}
// RESPONSE: 201 {"user": {...}, "token": "..."}
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.auth.Register(r.Context(), req.Email, req.Password, req.Login)
	if err != nil {
		writeError(w, err)
		return
	}

	h.setSessionCookie(w, result.Token)
	writeJSON(w, http.StatusCreated, SessionResponse{User: result.User, Token: result.Token})
}

// HandleLogin signs in a local account.
//
// HTTP: POST /auth/login
// REQUEST BODY: {"email": "...", "password": "..."}
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	h.setSessionCookie(w, result.Token)
	writeJSON(w, http.StatusOK, SessionResponse{User: result.User, Token: result.Token})
}

// HandleLogout deletes the cookie. The token itself stays valid until it
// expires; sessions are not tracked server side.
//
// HTTP: POST /auth/logout
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.opts.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, SuccessResponse{Success: true})
}

// HandleMe returns the signed-in user.
//
// HTTP: GET /api/me
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	user, err := h.auth.GetUserByID(r.Context(), userID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.opts.SessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.opts.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}
