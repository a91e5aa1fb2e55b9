package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/theranjitkumar/blogger/internal/core/domain"
	"github.com/theranjitkumar/blogger/internal/core/port"
	"github.com/theranjitkumar/blogger/internal/infra/config"
	"github.com/theranjitkumar/blogger/internal/infra/security"
	"github.com/theranjitkumar/blogger/internal/repository"
)

const testPassword = "C0mplex!Passphrase#2025"

func testLockoutSettings() config.LockoutSettings {
	return config.LockoutSettings{MaxAttempts: 5, Duration: 15 * time.Minute}
}

func testSessionSettings() config.SessionSettings {
	return config.SessionSettings{TTL: 24 * time.Hour, CookieName: "session_id"}
}

func testTokenIssuer(t *testing.T) *security.TokenIssuer {
	t.Helper()
	issuer, err := security.NewTokenIssuer("test-secret", "blogger", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenIssuer returned error: %v", err)
	}
	return issuer
}

func activeAccount(t *testing.T) *domain.Account {
	t.Helper()
	hash, err := security.HashPassword(testPassword)
	if err != nil {
		t.Fatalf("HashPassword returned error: %v", err)
	}
	return &domain.Account{
		ID:           "account-1",
		Username:     "jdoe",
		Email:        "jdoe@example.com",
		PasswordHash: hash,
		Role:         domain.RoleAuthor,
		Status:       domain.AccountStatusActive,
		CreatedAt:    time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestLoginSuccess(t *testing.T) {
	account := activeAccount(t)
	now := time.Date(2025, time.June, 10, 9, 0, 0, 0, time.UTC)

	var createdSession *domain.Session
	var lastLoginAt time.Time

	accounts := &mockAccountRepository{
		getByIdentifierFn: func(_ context.Context, identifier string) (*domain.Account, error) {
			if identifier != "jdoe" {
				t.Fatalf("unexpected identifier: %s", identifier)
			}
			return account, nil
		},
		updateLastLoginFn: func(_ context.Context, id string, at time.Time) error {
			if id != account.ID {
				t.Fatalf("unexpected id: %s", id)
			}
			lastLoginAt = at
			return nil
		},
	}
	sessions := &mockSessionStore{
		createFn: func(_ context.Context, session domain.Session) error {
			createdSession = &session
			return nil
		},
	}

	issuer := testTokenIssuer(t)
	svc := NewLoginService(accounts, sessions, issuer, testLockoutSettings(), testSessionSettings(), zaptest.NewLogger(t))
	svc.WithClock(func() time.Time { return now })

	result, err := svc.Login(context.Background(), "jdoe", testPassword)
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}

	if result.Identity.ID != account.ID || result.Identity.Role != domain.RoleAuthor {
		t.Fatalf("unexpected identity: %+v", result.Identity)
	}
	if !lastLoginAt.Equal(now) {
		t.Fatalf("unexpected last login stamp: %v", lastLoginAt)
	}
	if createdSession == nil {
		t.Fatal("expected session to be created")
	}
	if createdSession.Identity.ID != account.ID {
		t.Fatalf("unexpected session identity: %+v", createdSession.Identity)
	}
	if !createdSession.ExpiresAt.Equal(now.Add(24 * time.Hour)) {
		t.Fatalf("unexpected session expiry: %v", createdSession.ExpiresAt)
	}

	identity, err := issuer.Verify(result.Token)
	if err != nil {
		t.Fatalf("issued token failed verification: %v", err)
	}
	if identity.ID != account.ID {
		t.Fatalf("token identity mismatch: %s", identity.ID)
	}
}

func TestLoginUnknownIdentifier(t *testing.T) {
	accounts := &mockAccountRepository{
		getByIdentifierFn: func(_ context.Context, _ string) (*domain.Account, error) {
			return nil, repository.ErrNotFound
		},
	}

	svc := NewLoginService(accounts, &mockSessionStore{}, testTokenIssuer(t), testLockoutSettings(), testSessionSettings(), zaptest.NewLogger(t))

	if _, err := svc.Login(context.Background(), "ghost", "whatever"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestLoginWrongPasswordBelowThreshold(t *testing.T) {
	account := activeAccount(t)
	now := time.Date(2025, time.June, 10, 9, 0, 0, 0, time.UTC)

	accounts := &mockAccountRepository{
		getByIdentifierFn: func(_ context.Context, _ string) (*domain.Account, error) {
			return account, nil
		},
		recordFailedAttemptFn: func(_ context.Context, id string, maxAttempts int, lockDuration time.Duration, at time.Time) (port.LockoutState, error) {
			if id != account.ID || maxAttempts != 5 || lockDuration != 15*time.Minute {
				t.Fatalf("unexpected args: %s %d %v", id, maxAttempts, lockDuration)
			}
			if !at.Equal(now) {
				t.Fatalf("unexpected timestamp: %v", at)
			}
			return port.LockoutState{Attempts: 2}, nil
		},
	}

	svc := NewLoginService(accounts, &mockSessionStore{}, testTokenIssuer(t), testLockoutSettings(), testSessionSettings(), zaptest.NewLogger(t))
	svc.WithClock(func() time.Time { return now })

	if _, err := svc.Login(context.Background(), "jdoe", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestLoginFifthFailureLocks(t *testing.T) {
	account := activeAccount(t)
	account.LoginAttempts = 4
	now := time.Date(2025, time.June, 10, 9, 0, 0, 0, time.UTC)
	lockUntil := now.Add(15 * time.Minute)

	accounts := &mockAccountRepository{
		getByIdentifierFn: func(_ context.Context, _ string) (*domain.Account, error) {
			return account, nil
		},
		recordFailedAttemptFn: func(_ context.Context, _ string, _ int, _ time.Duration, _ time.Time) (port.LockoutState, error) {
			return port.LockoutState{Attempts: 5, LockUntil: &lockUntil}, nil
		},
	}

	svc := NewLoginService(accounts, &mockSessionStore{}, testTokenIssuer(t), testLockoutSettings(), testSessionSettings(), zaptest.NewLogger(t))
	svc.WithClock(func() time.Time { return now })

	_, err := svc.Login(context.Background(), "jdoe", "wrong")

	var lockedErr *AccountLockedError
	if !errors.As(err, &lockedErr) {
		t.Fatalf("expected AccountLockedError, got %v", err)
	}
	if lockedErr.RetryAfter != 15*time.Minute {
		t.Fatalf("unexpected retry-after: %v", lockedErr.RetryAfter)
	}
}

func TestLoginWhileLockedRejectsWithoutPasswordCheck(t *testing.T) {
	account := activeAccount(t)
	now := time.Date(2025, time.June, 10, 9, 0, 0, 0, time.UTC)
	lockUntil := now.Add(10*time.Minute + 30*time.Second)
	account.LoginAttempts = 5
	account.LockUntil = &lockUntil

	accounts := &mockAccountRepository{
		getByIdentifierFn: func(_ context.Context, _ string) (*domain.Account, error) {
			return account, nil
		},
		// recordFailedAttemptFn deliberately unset: a locked account must not
		// reach the password check, even with the correct password.
	}

	svc := NewLoginService(accounts, &mockSessionStore{}, testTokenIssuer(t), testLockoutSettings(), testSessionSettings(), zaptest.NewLogger(t))
	svc.WithClock(func() time.Time { return now })

	_, err := svc.Login(context.Background(), "jdoe", testPassword)

	var lockedErr *AccountLockedError
	if !errors.As(err, &lockedErr) {
		t.Fatalf("expected AccountLockedError, got %v", err)
	}
	if lockedErr.RetryAfter != 10*time.Minute+30*time.Second {
		t.Fatalf("unexpected retry-after: %v", lockedErr.RetryAfter)
	}
}

func TestLoginAfterLockExpirySucceedsAndResets(t *testing.T) {
	account := activeAccount(t)
	now := time.Date(2025, time.June, 10, 9, 0, 0, 0, time.UTC)
	expiredLock := now.Add(-time.Minute)
	account.LoginAttempts = 5
	account.LockUntil = &expiredLock

	var lockoutReset bool

	accounts := &mockAccountRepository{
		getByIdentifierFn: func(_ context.Context, _ string) (*domain.Account, error) {
			return account, nil
		},
		resetLockoutFn: func(_ context.Context, id string) error {
			if id != account.ID {
				t.Fatalf("unexpected id: %s", id)
			}
			lockoutReset = true
			return nil
		},
		updateLastLoginFn: func(_ context.Context, _ string, _ time.Time) error { return nil },
	}
	sessions := &mockSessionStore{
		createFn: func(_ context.Context, _ domain.Session) error { return nil },
	}

	svc := NewLoginService(accounts, sessions, testTokenIssuer(t), testLockoutSettings(), testSessionSettings(), zaptest.NewLogger(t))
	svc.WithClock(func() time.Time { return now })

	if _, err := svc.Login(context.Background(), "jdoe", testPassword); err != nil {
		t.Fatalf("Login returned error: %v", err)
	}

	if !lockoutReset {
		t.Fatal("expected lockout state to be cleared on success")
	}
}

func TestLoginPendingAccount(t *testing.T) {
	account := activeAccount(t)
	account.Status = domain.AccountStatusPending

	accounts := &mockAccountRepository{
		getByIdentifierFn: func(_ context.Context, _ string) (*domain.Account, error) {
			return account, nil
		},
	}

	svc := NewLoginService(accounts, &mockSessionStore{}, testTokenIssuer(t), testLockoutSettings(), testSessionSettings(), zaptest.NewLogger(t))

	if _, err := svc.Login(context.Background(), "jdoe", testPassword); !errors.Is(err, ErrAccountPending) {
		t.Fatalf("expected ErrAccountPending, got %v", err)
	}
}

func TestLoginSuspendedAccount(t *testing.T) {
	account := activeAccount(t)
	account.Status = domain.AccountStatusSuspended

	accounts := &mockAccountRepository{
		getByIdentifierFn: func(_ context.Context, _ string) (*domain.Account, error) {
			return account, nil
		},
	}

	svc := NewLoginService(accounts, &mockSessionStore{}, testTokenIssuer(t), testLockoutSettings(), testSessionSettings(), zaptest.NewLogger(t))

	if _, err := svc.Login(context.Background(), "jdoe", testPassword); !errors.Is(err, ErrAccountSuspended) {
		t.Fatalf("expected ErrAccountSuspended, got %v", err)
	}
}

func TestLoginCorrectPasswordResetsCounterEvenWhenPending(t *testing.T) {
	account := activeAccount(t)
	account.Status = domain.AccountStatusPending
	account.LoginAttempts = 3

	var resets int
	accounts := &mockAccountRepository{
		getByIdentifierFn: func(_ context.Context, _ string) (*domain.Account, error) {
			return account, nil
		},
		resetLockoutFn: func(_ context.Context, id string) error {
			if id != account.ID {
				t.Fatalf("unexpected id: %s", id)
			}
			resets++
			return nil
		},
	}

	svc := NewLoginService(accounts, &mockSessionStore{}, testTokenIssuer(t), testLockoutSettings(), testSessionSettings(), zaptest.NewLogger(t))

	if _, err := svc.Login(context.Background(), "jdoe", testPassword); !errors.Is(err, ErrAccountPending) {
		t.Fatalf("expected ErrAccountPending, got %v", err)
	}
	if resets != 1 {
		t.Fatalf("expected one lockout reset, got %d", resets)
	}
}

func TestLogoutIsIdempotent(t *testing.T) {
	var deleted int
	sessions := &mockSessionStore{
		deleteFn: func(_ context.Context, id string) error {
			deleted++
			return nil
		},
	}

	svc := NewLoginService(&mockAccountRepository{}, sessions, testTokenIssuer(t), testLockoutSettings(), testSessionSettings(), zaptest.NewLogger(t))

	if err := svc.Logout(context.Background(), "session-1"); err != nil {
		t.Fatalf("Logout returned error: %v", err)
	}
	if err := svc.Logout(context.Background(), "session-1"); err != nil {
		t.Fatalf("repeat Logout returned error: %v", err)
	}
	if err := svc.Logout(context.Background(), "  "); err != nil {
		t.Fatalf("blank Logout returned error: %v", err)
	}

	if deleted != 2 {
		t.Fatalf("expected two delete calls, got %d", deleted)
	}
}

func TestResolveSessionMissing(t *testing.T) {
	sessions := &mockSessionStore{
		getFn: func(_ context.Context, _ string) (*domain.Session, error) {
			return nil, repository.ErrNotFound
		},
	}

	svc := NewLoginService(&mockAccountRepository{}, sessions, testTokenIssuer(t), testLockoutSettings(), testSessionSettings(), zaptest.NewLogger(t))

	if _, err := svc.ResolveSession(context.Background(), "ghost"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}
