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

func newRegistrationService(t *testing.T, accounts *mockAccountRepository, notifier *mockNotificationSender, cfg config.RegistrationSettings) *RegistrationService {
	t.Helper()
	return NewRegistrationService(
		accounts,
		notifier,
		security.DefaultPasswordValidator(),
		cfg,
		zaptest.NewLogger(t),
	)
}

func TestRegisterImmediateActivation(t *testing.T) {
	var created *domain.Account

	accounts := &mockAccountRepository{
		createFn: func(_ context.Context, account domain.Account) error {
			created = &account
			return nil
		},
	}

	svc := newRegistrationService(t, accounts, &mockNotificationSender{}, config.RegistrationSettings{})

	account, err := svc.Register(context.Background(), "jdoe", "JDoe@Example.com", testPassword)
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}

	if created == nil {
		t.Fatal("expected account to be persisted")
	}
	if created.Status != domain.AccountStatusActive {
		t.Fatalf("unexpected status: %s", created.Status)
	}
	if created.Role != domain.RoleUser {
		t.Fatalf("unexpected role: %s", created.Role)
	}
	if created.Email != "jdoe@example.com" {
		t.Fatalf("email not normalized: %s", created.Email)
	}

	ok, err := security.VerifyPassword(testPassword, created.PasswordHash)
	if err != nil || !ok {
		t.Fatalf("stored hash does not verify: ok=%v err=%v", ok, err)
	}

	if account.PasswordHash != "" {
		t.Fatal("returned account must not carry the password hash")
	}
}

func TestRegisterConflict(t *testing.T) {
	accounts := &mockAccountRepository{
		createFn: func(_ context.Context, _ domain.Account) error {
			return repository.ErrConflict
		},
	}

	svc := newRegistrationService(t, accounts, &mockNotificationSender{}, config.RegistrationSettings{})

	if _, err := svc.Register(context.Background(), "jdoe", "jdoe@example.com", testPassword); !errors.Is(err, ErrIdentifierTaken) {
		t.Fatalf("expected ErrIdentifierTaken, got %v", err)
	}
}

func TestRegisterRejectsMalformedInput(t *testing.T) {
	svc := newRegistrationService(t, &mockAccountRepository{}, &mockNotificationSender{}, config.RegistrationSettings{})

	if _, err := svc.Register(context.Background(), "x", "jdoe@example.com", testPassword); !errors.Is(err, ErrInvalidRegistration) {
		t.Fatalf("expected ErrInvalidRegistration for short username, got %v", err)
	}

	if _, err := svc.Register(context.Background(), "jdoe", "not-an-email", testPassword); !errors.Is(err, ErrInvalidRegistration) {
		t.Fatalf("expected ErrInvalidRegistration for malformed email, got %v", err)
	}

	_, err := svc.Register(context.Background(), "jdoe", "jdoe@example.com", "weak")
	var vErr *security.PasswordValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected PasswordValidationError, got %v", err)
	}
}

func TestRegisterWithVerificationGate(t *testing.T) {
	now := time.Date(2025, time.June, 10, 9, 0, 0, 0, time.UTC)

	var created *domain.Account
	var storedHash string
	var sent *port.Notification

	accounts := &mockAccountRepository{
		createFn: func(_ context.Context, account domain.Account) error {
			created = &account
			return nil
		},
		setResetTokenFn: func(_ context.Context, _ string, tokenHash string, expiresAt time.Time) error {
			storedHash = tokenHash
			if !expiresAt.Equal(now.Add(24 * time.Hour)) {
				t.Fatalf("unexpected verification expiry: %v", expiresAt)
			}
			return nil
		},
	}
	notifier := &mockNotificationSender{
		sendFn: func(_ context.Context, notification port.Notification) error {
			sent = &notification
			return nil
		},
	}

	svc := newRegistrationService(t, accounts, notifier, config.RegistrationSettings{
		RequireVerification: true,
		VerificationTTL:     24 * time.Hour,
	})
	svc.WithClock(func() time.Time { return now })

	if _, err := svc.Register(context.Background(), "jdoe", "jdoe@example.com", testPassword); err != nil {
		t.Fatalf("Register returned error: %v", err)
	}

	if created.Status != domain.AccountStatusPending {
		t.Fatalf("unexpected status: %s", created.Status)
	}
	if sent == nil || sent.Kind != port.NotificationVerifyEmail {
		t.Fatalf("expected verification notification, got %+v", sent)
	}

	rawToken := sent.Context["verify_token"]
	if rawToken == "" {
		t.Fatal("notification missing verification token")
	}
	if storedHash != security.HashToken(rawToken) {
		t.Fatal("stored hash does not match the emailed token")
	}
}

func TestVerifyEmailActivatesPendingAccount(t *testing.T) {
	now := time.Date(2025, time.June, 10, 9, 0, 0, 0, time.UTC)
	hash := security.HashToken("verify-token")
	expiry := now.Add(time.Hour)

	account := activeAccount(t)
	account.Status = domain.AccountStatusPending
	account.ResetTokenHash = &hash
	account.ResetTokenExpiry = &expiry

	var activated, cleared bool

	accounts := &mockAccountRepository{
		getByResetTokenFn: func(_ context.Context, tokenHash string) (*domain.Account, error) {
			if tokenHash != hash {
				return nil, repository.ErrNotFound
			}
			return account, nil
		},
		updateStatusFn: func(_ context.Context, id string, from, to domain.AccountStatus) error {
			if from != domain.AccountStatusPending || to != domain.AccountStatusActive {
				t.Fatalf("unexpected transition: %s -> %s", from, to)
			}
			activated = true
			return nil
		},
		clearResetTokenFn: func(_ context.Context, _ string) error {
			cleared = true
			return nil
		},
	}

	svc := newRegistrationService(t, accounts, &mockNotificationSender{}, config.RegistrationSettings{RequireVerification: true})
	svc.WithClock(func() time.Time { return now })

	if err := svc.VerifyEmail(context.Background(), "verify-token"); err != nil {
		t.Fatalf("VerifyEmail returned error: %v", err)
	}

	if !activated || !cleared {
		t.Fatalf("expected activation and token clearing, got activated=%v cleared=%v", activated, cleared)
	}
}

func TestVerifyEmailRejectsExpiredOrForeignToken(t *testing.T) {
	now := time.Date(2025, time.June, 10, 9, 0, 0, 0, time.UTC)
	hash := security.HashToken("verify-token")
	expiry := now.Add(-time.Minute)

	account := activeAccount(t)
	account.Status = domain.AccountStatusPending
	account.ResetTokenHash = &hash
	account.ResetTokenExpiry = &expiry

	accounts := &mockAccountRepository{
		getByResetTokenFn: func(_ context.Context, tokenHash string) (*domain.Account, error) {
			if tokenHash != hash {
				return nil, repository.ErrNotFound
			}
			return account, nil
		},
	}

	svc := newRegistrationService(t, accounts, &mockNotificationSender{}, config.RegistrationSettings{RequireVerification: true})
	svc.WithClock(func() time.Time { return now })

	if err := svc.VerifyEmail(context.Background(), "verify-token"); !errors.Is(err, ErrInvalidVerificationToken) {
		t.Fatalf("expected ErrInvalidVerificationToken for expired token, got %v", err)
	}

	if err := svc.VerifyEmail(context.Background(), "unknown"); !errors.Is(err, ErrInvalidVerificationToken) {
		t.Fatalf("expected ErrInvalidVerificationToken for unknown token, got %v", err)
	}

	// A token for an already-active account is rejected too.
	account.Status = domain.AccountStatusActive
	future := now.Add(time.Hour)
	account.ResetTokenExpiry = &future
	if err := svc.VerifyEmail(context.Background(), "verify-token"); !errors.Is(err, ErrInvalidVerificationToken) {
		t.Fatalf("expected ErrInvalidVerificationToken for active account, got %v", err)
	}
}
