package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/habit-tracker/internal/apperror"
	"github.com/sakif/habit-tracker/internal/auth"
	"github.com/sakif/habit-tracker/internal/model"
	"github.com/sakif/habit-tracker/internal/repository"
)

const MinPasswordLength = 8

// AuthService signs users in through either identity source and issues
// the session token. It knows nothing about cookies or redirects.
//
//	AuthHandler → AuthService → UserRepository
//	                          ↘ TokenService (JWT)
//	                          ↘ PasswordService (bcrypt, local accounts)
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// AuthResult is what a successful sign-in hands back to the handler.
type AuthResult struct {
	User  *model.User
	Token string
}

// LoginOrRegisterGitHub upserts the account keyed by the GitHub id, so a
// changed login or avatar on GitHub is picked up on the next sign-in.
func (s *AuthService) LoginOrRegisterGitHub(ctx context.Context, ghUser *auth.GitHubUser) (*AuthResult, error) {
	if ghUser == nil {
		return nil, errors.New("service/auth: GitHub user must not be nil")
	}

	user := &model.User{
		GitHubID:  ghUser.ID,
		Login:     ghUser.Login,
		Email:     ghUser.Email,
		AvatarURL: ghUser.AvatarURL,
	}
	if err := s.users.Upsert(ctx, user); err != nil {
		return nil, fmt.Errorf("service/auth: upserting user (githubID=%d): %w", ghUser.ID, err)
	}

	s.logger.Info("user authenticated via GitHub",
		slog.String("userID", user.ID),
		slog.String("login", user.Login),
	)
	return s.issue(user)
}

// Register creates a local email/password account and signs it in.
// A taken email comes back as apperror.ErrConflict.
func (s *AuthService) Register(ctx context.Context, email, password, login string) (*AuthResult, error) {
	email = normalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if len(password) < MinPasswordLength {
		return nil, apperror.ValidationFailed("password",
			fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	}
	if len(password) > auth.MaxPasswordBytes {
		return nil, apperror.ValidationFailed("password",
			fmt.Sprintf("password must be %d bytes or fewer", auth.MaxPasswordBytes))
	}
	if login = strings.TrimSpace(login); login == "" {
		login, _, _ = strings.Cut(email, "@")
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("service/auth: %w", err)
	}

	user := &model.User{Login: login, Email: email, PasswordHash: hash}
	if err := s.users.CreateLocalUser(ctx, user); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return nil, err
		}
		s.logger.Error("failed to create user", slog.String("error", err.Error()))
		return nil, fmt.Errorf("service/auth: creating user: %w", err)
	}

	s.logger.Info("user registered", slog.String("userID", user.ID), slog.String("login", user.Login))
	return s.issue(user)
}

// Login checks local credentials. An unknown email and a wrong password
// produce the same error so the endpoint cannot be used to discover accounts.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, apperror.Required("email")
	}
	if password == "" {
		return nil, apperror.Required("password")
	}

	invalid := apperror.Unauthenticated("invalid email or password")

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, invalid
		}
		return nil, fmt.Errorf("service/auth: looking up %s: %w", email, err)
	}
	if user.PasswordHash == "" {
		return nil, invalid
	}
	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return nil, invalid
		}
		return nil, fmt.Errorf("service/auth: %w", err)
	}

	s.logger.Info("user authenticated via password", slog.String("userID", user.ID))
	return s.issue(user)
}

// GetUserByID backs /api/me.
func (s *AuthService) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	if err := requireUser(id); err != nil {
		return nil, err
	}

	user, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service/auth: fetching user %s: %w", id, err)
	}
	return user, nil
}

// ValidateToken returns the user id a session token was issued for.
func (s *AuthService) ValidateToken(tokenStr string) (string, error) {
	userID, err := s.tokens.Validate(tokenStr)
	if err != nil {
		return "", fmt.Errorf("service/auth: %w", err)
	}
	return userID, nil
}

func (s *AuthService) issue(user *model.User) (*AuthResult, error) {
	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %s: %w", user.ID, err)
	}
	return &AuthResult{User: user, Token: token}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateEmail(email string) error {
	if email == "" {
		return apperror.Required("email")
	}
	local, domain, ok := strings.Cut(email, "@")
	if !ok || local == "" || domain == "" || strings.ContainsAny(email, " \t") {
		return apperror.ValidationFailed("email", "email is not valid")
	}
	return nil
}
