package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	uuid "github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/theranjitkumar/blogger/internal/core/domain"
	"github.com/theranjitkumar/blogger/internal/core/port"
	"github.com/theranjitkumar/blogger/internal/infra/config"
	"github.com/theranjitkumar/blogger/internal/infra/logger"
	"github.com/theranjitkumar/blogger/internal/infra/security"
	"github.com/theranjitkumar/blogger/internal/repository"
)

var (
	// ErrInvalidCredentials indicates the provided identifier or password are incorrect.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccountPending indicates the account requires email verification before login.
	ErrAccountPending = errors.New("account pending verification")
	// ErrAccountSuspended indicates the account was suspended by an administrator.
	ErrAccountSuspended = errors.New("account suspended")
	// ErrSessionNotFound indicates the session does not exist or expired.
	ErrSessionNotFound = errors.New("session not found")
)

// AccountLockedError reports a lockout rejection together with the remaining
// lock duration, rounded up to whole seconds.
type AccountLockedError struct {
	RetryAfter time.Duration
}

// Error implements error for AccountLockedError.
func (e *AccountLockedError) Error() string {
	return fmt.Sprintf("account locked, retry after %s", e.RetryAfter)
}

// LoginResult carries everything a successful authentication produces.
type LoginResult struct {
	Token    string
	Session  domain.Session
	Identity domain.Identity
}

// LoginService coordinates credential verification, lockout accounting, and
// the dual session/token issuance on success.
type LoginService struct {
	accounts port.AccountRepository
	sessions port.SessionStore
	issuer   *security.TokenIssuer
	lockout  config.LockoutSettings
	session  config.SessionSettings
	log      *zap.Logger
	now      port.Clock
}

// NewLoginService constructs a LoginService instance.
func NewLoginService(
	accounts port.AccountRepository,
	sessions port.SessionStore,
	issuer *security.TokenIssuer,
	lockout config.LockoutSettings,
	session config.SessionSettings,
	log *zap.Logger,
) *LoginService {
	return &LoginService{
		accounts: accounts,
		sessions: sessions,
		issuer:   issuer,
		lockout:  lockout,
		session:  session,
		log:      log,
		now:      port.SystemClock(),
	}
}

// WithClock overrides the service clock. Intended for tests.
func (s *LoginService) WithClock(clock port.Clock) *LoginService {
	s.now = clock
	return s
}

// Login verifies credentials against the stored hash, enforcing the lockout
// policy before touching the password. An unknown identifier and a wrong
// password are indistinguishable to the caller.
func (s *LoginService) Login(ctx context.Context, identifier, password string) (*LoginResult, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	account, err := s.accounts.GetByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup account: %w", err)
	}

	now := s.now()

	if account.Locked(now) {
		return nil, &AccountLockedError{RetryAfter: account.LockRetryAfter(now)}
	}

	ok, err := security.VerifyPassword(password, account.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return nil, s.recordFailure(ctx, account.ID, now)
	}

	// The counter tracks failed password attempts only, so it resets on any
	// successful verification even when the status blocks the login itself.
	if account.LoginAttempts > 0 || account.LockUntil != nil {
		if err := s.accounts.ResetLockout(ctx, account.ID); err != nil {
			return nil, fmt.Errorf("reset lockout: %w", err)
		}
	}

	switch account.Status {
	case domain.AccountStatusPending:
		return nil, ErrAccountPending
	case domain.AccountStatusSuspended:
		return nil, ErrAccountSuspended
	case domain.AccountStatusActive:
	default:
		return nil, ErrInvalidCredentials
	}

	if err := s.accounts.UpdateLastLogin(ctx, account.ID, now); err != nil {
		return nil, fmt.Errorf("update last login: %w", err)
	}

	identity := account.Identity()

	token, err := s.issuer.Issue(identity)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	session := domain.Session{
		ID: uuid.NewString(),
		Identity: domain.SessionIdentity{
			ID:       account.ID,
			Username: account.Username,
			Email:    account.Email,
		},
		CreatedAt: now,
		ExpiresAt: now.Add(s.sessionTTL()),
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	s.log.Info("login succeeded",
		zap.String("account_id", account.ID),
		zap.String("email", logger.MaskEmail(account.Email)),
	)

	return &LoginResult{Token: token, Session: session, Identity: identity}, nil
}

// recordFailure bumps the attempt counter and translates the resulting state
// into the caller-facing error.
func (s *LoginService) recordFailure(ctx context.Context, accountID string, now time.Time) error {
	state, err := s.accounts.RecordFailedAttempt(ctx, accountID, s.lockout.MaxAttempts, s.lockout.Duration, now)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInvalidCredentials
		}
		return fmt.Errorf("record failed attempt: %w", err)
	}

	s.log.Warn("login failed",
		zap.String("account_id", accountID),
		zap.Int("attempts", state.Attempts),
	)

	if state.LockUntil != nil && state.LockUntil.After(now) {
		retry := state.LockUntil.Sub(now)
		if rounded := retry.Truncate(time.Second); rounded < retry {
			retry = rounded + time.Second
		}
		return &AccountLockedError{RetryAfter: retry}
	}

	return ErrInvalidCredentials
}

// Logout deletes the server-side session. Unknown sessions are ignored so
// logout is idempotent.
func (s *LoginService) Logout(ctx context.Context, sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return nil
	}
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// ResolveSession loads a live session by identifier.
func (s *LoginService) ResolveSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	return session, nil
}

// VerifyToken validates a bearer token and returns the embedded identity.
func (s *LoginService) VerifyToken(token string) (domain.Identity, error) {
	return s.issuer.Verify(token)
}

func (s *LoginService) sessionTTL() time.Duration {
	if s.session.TTL > 0 {
		return s.session.TTL
	}
	return 24 * time.Hour
}
