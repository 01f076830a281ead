package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

const defaultGitHubAPI = "https://api.github.com"

// ErrGitHubDisabled is returned when no OAuth app is configured.
var ErrGitHubDisabled = errors.New("auth: GitHub login is not configured")

// GitHubUser holds the fields of GET /user that become a local account.
type GitHubUser struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	Email     string `json:"email"` // empty when the user hides it
	AvatarURL string `json:"avatar_url"`
}

type githubEmail struct {
	Email    string `json:"email"`
	Primary  bool   `json:"primary"`
	Verified bool   `json:"verified"`
}

// GitHubProvider runs the authorization code flow against GitHub.
type GitHubProvider struct {
	config  *oauth2.Config
	apiBase string
}

// NewGitHubProvider builds the provider from the OAuth app credentials.
// callbackURL must match the app's registered callback exactly, e.g.
// http://localhost:8080/auth/github/callback.
func NewGitHubProvider(clientID, clientSecret, callbackURL string) *GitHubProvider {
	return &GitHubProvider{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  callbackURL,
			Scopes:       []string{"read:user", "user:email"},
			Endpoint:     github.Endpoint,
		},
		apiBase: defaultGitHubAPI,
	}
}

// Enabled reports whether client credentials were provided.
func (p *GitHubProvider) Enabled() bool {
	return p != nil && p.config.ClientID != "" && p.config.ClientSecret != ""
}

// AuthURL is where /auth/github/login redirects. state is echoed back on
// the callback and compared with the oauth_state cookie.
func (p *GitHubProvider) AuthURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Exchange trades the callback code for an access token and loads the
// profile. When the public profile hides the email, the primary verified
// address from /user/emails is used instead.
func (p *GitHubProvider) Exchange(ctx context.Context, code string) (*GitHubUser, error) {
	if !p.Enabled() {
		return nil, ErrGitHubDisabled
	}

	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("auth: exchanging OAuth code: %w", err)
	}
	client := p.config.Client(ctx, token)

	var user GitHubUser
	if err := p.getJSON(ctx, client, "/user", &user); err != nil {
		return nil, err
	}
	if user.ID == 0 {
		return nil, errors.New("auth: GitHub returned a user without an id")
	}

	if user.Email == "" {
		var emails []githubEmail
		// Best effort: a token without the user:email scope still logs in.
		if err := p.getJSON(ctx, client, "/user/emails", &emails); err == nil {
			user.Email = primaryEmail(emails)
		}
	}
	return &user, nil
}

func (p *GitHubProvider) getJSON(ctx context.Context, client *http.Client, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(p.apiBase, "/")+path, nil)
	if err != nil {
		return fmt.Errorf("auth: building GitHub request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("auth: calling GitHub %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("auth: GitHub %s returned status %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("auth: decoding GitHub %s: %w", path, err)
	}
	return nil
}

func primaryEmail(emails []githubEmail) string {
	for _, e := range emails {
		if e.Primary && e.Verified {
			return e.Email
		}
	}
	return ""
}
