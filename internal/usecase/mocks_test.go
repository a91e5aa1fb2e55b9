package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/theranjitkumar/blogger/internal/core/domain"
	"github.com/theranjitkumar/blogger/internal/core/port"
)

type mockAccountRepository struct {
	createFn              func(ctx context.Context, account domain.Account) error
	getByIDFn             func(ctx context.Context, id string) (*domain.Account, error)
	getByIdentifierFn     func(ctx context.Context, identifier string) (*domain.Account, error)
	recordFailedAttemptFn func(ctx context.Context, id string, maxAttempts int, lockDuration time.Duration, now time.Time) (port.LockoutState, error)
	resetLockoutFn        func(ctx context.Context, id string) error
	updateLastLoginFn     func(ctx context.Context, id string, at time.Time) error
	setResetTokenFn       func(ctx context.Context, id string, tokenHash string, expiresAt time.Time) error
	getByResetTokenFn     func(ctx context.Context, tokenHash string) (*domain.Account, error)
	clearResetTokenFn     func(ctx context.Context, id string) error
	redeemResetTokenFn    func(ctx context.Context, tokenHash string, newPasswordHash string, now time.Time) (string, error)
	updatePasswordFn      func(ctx context.Context, id string, passwordHash string) error
	updateStatusFn        func(ctx context.Context, id string, from, to domain.AccountStatus) error
	softDeleteFn          func(ctx context.Context, id string, at time.Time) error
	listFn                func(ctx context.Context, filter port.AccountFilter) ([]domain.Account, error)
}

func (m *mockAccountRepository) Create(ctx context.Context, account domain.Account) error {
	if m.createFn == nil {
		return errors.New("unexpected call: Create")
	}
	return m.createFn(ctx, account)
}

func (m *mockAccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	if m.getByIDFn == nil {
		return nil, errors.New("unexpected call: GetByID")
	}
	return m.getByIDFn(ctx, id)
}

func (m *mockAccountRepository) GetByIdentifier(ctx context.Context, identifier string) (*domain.Account, error) {
	if m.getByIdentifierFn == nil {
		return nil, errors.New("unexpected call: GetByIdentifier")
	}
	return m.getByIdentifierFn(ctx, identifier)
}

func (m *mockAccountRepository) RecordFailedAttempt(ctx context.Context, id string, maxAttempts int, lockDuration time.Duration, now time.Time) (port.LockoutState, error) {
	if m.recordFailedAttemptFn == nil {
		return port.LockoutState{}, errors.New("unexpected call: RecordFailedAttempt")
	}
	return m.recordFailedAttemptFn(ctx, id, maxAttempts, lockDuration, now)
}

func (m *mockAccountRepository) ResetLockout(ctx context.Context, id string) error {
	if m.resetLockoutFn == nil {
		return errors.New("unexpected call: ResetLockout")
	}
	return m.resetLockoutFn(ctx, id)
}

func (m *mockAccountRepository) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	if m.updateLastLoginFn == nil {
		return errors.New("unexpected call: UpdateLastLogin")
	}
	return m.updateLastLoginFn(ctx, id, at)
}

func (m *mockAccountRepository) SetResetToken(ctx context.Context, id string, tokenHash string, expiresAt time.Time) error {
	if m.setResetTokenFn == nil {
		return errors.New("unexpected call: SetResetToken")
	}
	return m.setResetTokenFn(ctx, id, tokenHash, expiresAt)
}

func (m *mockAccountRepository) GetByResetTokenHash(ctx context.Context, tokenHash string) (*domain.Account, error) {
	if m.getByResetTokenFn == nil {
		return nil, errors.New("unexpected call: GetByResetTokenHash")
	}
	return m.getByResetTokenFn(ctx, tokenHash)
}

func (m *mockAccountRepository) ClearResetToken(ctx context.Context, id string) error {
	if m.clearResetTokenFn == nil {
		return errors.New("unexpected call: ClearResetToken")
	}
	return m.clearResetTokenFn(ctx, id)
}

func (m *mockAccountRepository) RedeemResetToken(ctx context.Context, tokenHash string, newPasswordHash string, now time.Time) (string, error) {
	if m.redeemResetTokenFn == nil {
		return "", errors.New("unexpected call: RedeemResetToken")
	}
	return m.redeemResetTokenFn(ctx, tokenHash, newPasswordHash, now)
}

func (m *mockAccountRepository) UpdatePassword(ctx context.Context, id string, passwordHash string) error {
	if m.updatePasswordFn == nil {
		return errors.New("unexpected call: UpdatePassword")
	}
	return m.updatePasswordFn(ctx, id, passwordHash)
}

func (m *mockAccountRepository) UpdateStatus(ctx context.Context, id string, from, to domain.AccountStatus) error {
	if m.updateStatusFn == nil {
		return errors.New("unexpected call: UpdateStatus")
	}
	return m.updateStatusFn(ctx, id, from, to)
}

func (m *mockAccountRepository) SoftDelete(ctx context.Context, id string, at time.Time) error {
	if m.softDeleteFn == nil {
		return errors.New("unexpected call: SoftDelete")
	}
	return m.softDeleteFn(ctx, id, at)
}

func (m *mockAccountRepository) List(ctx context.Context, filter port.AccountFilter) ([]domain.Account, error) {
	if m.listFn == nil {
		return nil, errors.New("unexpected call: List")
	}
	return m.listFn(ctx, filter)
}

var _ port.AccountRepository = (*mockAccountRepository)(nil)

type mockSessionStore struct {
	createFn func(ctx context.Context, session domain.Session) error
	getFn    func(ctx context.Context, id string) (*domain.Session, error)
	deleteFn func(ctx context.Context, id string) error
}

func (m *mockSessionStore) Create(ctx context.Context, session domain.Session) error {
	if m.createFn == nil {
		return errors.New("unexpected call: Create")
	}
	return m.createFn(ctx, session)
}

func (m *mockSessionStore) Get(ctx context.Context, id string) (*domain.Session, error) {
	if m.getFn == nil {
		return nil, errors.New("unexpected call: Get")
	}
	return m.getFn(ctx, id)
}

func (m *mockSessionStore) Delete(ctx context.Context, id string) error {
	if m.deleteFn == nil {
		return errors.New("unexpected call: Delete")
	}
	return m.deleteFn(ctx, id)
}

var _ port.SessionStore = (*mockSessionStore)(nil)

type mockNotificationSender struct {
	sendFn func(ctx context.Context, notification port.Notification) error
}

func (m *mockNotificationSender) Send(ctx context.Context, notification port.Notification) error {
	if m.sendFn == nil {
		return errors.New("unexpected call: Send")
	}
	return m.sendFn(ctx, notification)
}

var _ port.NotificationSender = (*mockNotificationSender)(nil)
