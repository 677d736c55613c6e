package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/videohub/backend/internal/apperrors"
	"github.com/videohub/backend/internal/logging"
	"github.com/videohub/backend/internal/models"
	"github.com/videohub/backend/internal/repositories"
)

const (
	msgCredentialsRequired = "email and password are required"
	msgInvalidCredentials  = "invalid credentials"
	msgTokenMissing        = "token not provided"
	msgTokenInvalid        = "invalid token"
	msgTokenExpired        = "token expired"
	msgUserNotFound        = "user not found"
	msgAccountDisabled     = "account disabled"
)

// UserStore captures the credential store operations used by the service.
// Lookups report repositories.ErrNotFound for missing users and Create
// reports repositories.ErrConflict for a duplicate email.
type UserStore interface {
	Create(ctx context.Context, user models.User) error
	FindByEmail(ctx context.Context, email string) (models.User, error)
	FindByID(ctx context.Context, id string) (models.User, error)
}

// Options tune the service. Zero values select the defaults.
type Options struct {
	BcryptCost int
	Now        func() time.Time
}

// Service verifies credentials, issues bearer tokens and tracks login
// sessions.
type Service struct {
	users    UserStore
	tokens   *TokenIssuer
	sessions *SessionStore
	cost     int
	now      func() time.Time
}

// RegisterResult is returned by a successful registration.
type RegisterResult struct {
	User  models.User
	Token string
}

// LoginResult is returned by a successful login. Token and SessionToken are
// unrelated and can be discarded independently.
type LoginResult struct {
	User         models.User
	Token        string
	SessionToken string
}

// NewService wires the auth service.
func NewService(users UserStore, tokens *TokenIssuer, sessions *SessionStore, opts Options) *Service {
	if users == nil || tokens == nil || sessions == nil {
		panic("auth: service dependencies must not be nil")
	}
	cost := opts.BcryptCost
	if cost == 0 {
		cost = DefaultBcryptCost
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Service{users: users, tokens: tokens, sessions: sessions, cost: cost, now: now}
}

// NormalizeEmail trims and lower-cases an address before lookups and inserts.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a member account and signs a token for it.
func (s *Service) Register(ctx context.Context, email, password string) (RegisterResult, error) {
	logger := logging.FromContext(ctx)

	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return RegisterResult{}, apperrors.Validation(msgCredentialsRequired)
	}
	if err := CheckPasswordLength(password); err != nil {
		return RegisterResult{}, err
	}

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		logger.Warn("register existing account", "email", email)
		return RegisterResult{}, apperrors.Conflict("email already registered")
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return RegisterResult{}, apperrors.Internal("unable to verify existing accounts", err)
	}

	hashed, err := HashPassword(password, s.cost)
	if err != nil {
		return RegisterResult{}, apperrors.Internal("failed to secure password", err)
	}

	now := s.now().UTC()
	user := models.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hashed,
		Role:         models.RoleMember,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			return RegisterResult{}, apperrors.Conflict("email already registered")
		}
		return RegisterResult{}, apperrors.Internal("failed to create account", err)
	}

	token, _, err := s.tokens.Issue(user)
	if err != nil {
		return RegisterResult{}, apperrors.Internal("failed to issue token", err)
	}

	logger.Info("user registered", "userId", user.ID)
	return RegisterResult{User: user, Token: token}, nil
}

// Login checks credentials, issues a bearer token and records a session.
// Unknown emails, disabled accounts and wrong passwords are reported with
// the same message.
func (s *Service) Login(ctx context.Context, email, password string) (LoginResult, error) {
	logger := logging.FromContext(ctx)

	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return LoginResult{}, apperrors.Validation(msgCredentialsRequired)
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			logger.Warn("login unknown email")
			return LoginResult{}, apperrors.Auth(msgInvalidCredentials)
		}
		return LoginResult{}, apperrors.Internal("login failed", err)
	}
	if !user.IsActive {
		logger.Warn("login disabled account", "userId", user.ID)
		return LoginResult{}, apperrors.Auth(msgInvalidCredentials)
	}

	ok, err := ComparePassword(user.PasswordHash, password)
	if err != nil {
		return LoginResult{}, apperrors.Internal("login failed", err)
	}
	if !ok {
		logger.Warn("login password mismatch", "userId", user.ID)
		return LoginResult{}, apperrors.Auth(msgInvalidCredentials)
	}

	token, _, err := s.tokens.Issue(user)
	if err != nil {
		return LoginResult{}, apperrors.Internal("failed to issue token", err)
	}
	sessionToken := s.sessions.Create(ctx, user, s.now())

	return LoginResult{User: user, Token: token, SessionToken: sessionToken}, nil
}

// Logout discards the session for sessionToken. It never fails.
func (s *Service) Logout(ctx context.Context, sessionToken string) {
	sessionToken = strings.TrimSpace(sessionToken)
	session, ok := s.sessions.Find(ctx, sessionToken)
	if !ok {
		logging.FromContext(ctx).Debug("logout without active session")
		return
	}
	s.sessions.Delete(ctx, sessionToken)
	logging.FromContext(ctx).Info("user logged out", "userId", session.UserID)
}

// VerifyToken validates a bearer token and re-reads its user so that
// disabled accounts are rejected before the token expires.
func (s *Service) VerifyToken(ctx context.Context, token string) (models.User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return models.User{}, apperrors.Auth(msgTokenMissing)
	}

	result := s.tokens.Verify(token)
	switch result.Status {
	case TokenValid:
	case TokenExpired:
		return models.User{}, apperrors.Auth(msgTokenExpired)
	default:
		logging.FromContext(ctx).Warn("rejected bearer token", "status", result.Status.String())
		return models.User{}, apperrors.Auth(msgTokenInvalid)
	}

	user, err := s.users.FindByID(ctx, result.Claims.ID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.User{}, apperrors.Auth(msgUserNotFound)
		}
		return models.User{}, apperrors.Internal("token verification failed", err)
	}
	if !user.IsActive {
		return models.User{}, apperrors.Auth(msgAccountDisabled)
	}
	return user, nil
}
