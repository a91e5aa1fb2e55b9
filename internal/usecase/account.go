package usecase

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/theranjitkumar/blogger/internal/core/domain"
	"github.com/theranjitkumar/blogger/internal/core/port"
	"github.com/theranjitkumar/blogger/internal/repository"
)

var (
	// ErrAccountNotFound indicates the account does not exist or was deleted.
	ErrAccountNotFound = errors.New("account not found")
	// ErrInvalidTransition indicates the requested status change is not allowed.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrForbidden indicates the caller's role does not grant the operation.
	ErrForbidden = errors.New("forbidden")
)

// AccountService exposes profile reads and administrative account management.
type AccountService struct {
	accounts port.AccountRepository
	log      *zap.Logger
	now      port.Clock
}

// NewAccountService constructs an AccountService instance.
func NewAccountService(accounts port.AccountRepository, log *zap.Logger) *AccountService {
	return &AccountService{
		accounts: accounts,
		log:      log,
		now:      port.SystemClock(),
	}
}

// WithClock overrides the service clock. Intended for tests.
func (s *AccountService) WithClock(clock port.Clock) *AccountService {
	s.now = clock
	return s
}

// Get returns the account with credential material stripped.
func (s *AccountService) Get(ctx context.Context, id string) (*domain.Account, error) {
	account, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("lookup account: %w", err)
	}

	sanitized := *account
	sanitized.PasswordHash = ""
	sanitized.ResetTokenHash = nil

	return &sanitized, nil
}

// List returns accounts matching the filter, sanitized the same way Get is.
func (s *AccountService) List(ctx context.Context, filter port.AccountFilter) ([]domain.Account, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, fmt.Errorf("unknown status %q", filter.Status)
	}
	if filter.Role != "" && !filter.Role.Valid() {
		return nil, fmt.Errorf("unknown role %q", filter.Role)
	}

	accounts, err := s.accounts.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}

	for i := range accounts {
		accounts[i].PasswordHash = ""
		accounts[i].ResetTokenHash = nil
	}

	return accounts, nil
}

// ChangeStatus applies an administrative status transition. The repository
// update is guarded by the observed status, so a concurrent change loses
// cleanly instead of clobbering.
func (s *AccountService) ChangeStatus(ctx context.Context, id string, to domain.AccountStatus) error {
	if !to.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, to)
	}

	account, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrAccountNotFound
		}
		return fmt.Errorf("lookup account: %w", err)
	}

	if account.Status == to {
		return nil
	}

	if !account.Status.CanTransitionTo(to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, account.Status, to)
	}

	if err := s.accounts.UpdateStatus(ctx, id, account.Status, to); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrAccountNotFound
		}
		return fmt.Errorf("update status: %w", err)
	}

	s.log.Info("account status changed",
		zap.String("account_id", id),
		zap.String("from", string(account.Status)),
		zap.String("to", string(to)),
	)

	return nil
}

// Delete soft-deletes the account. Outstanding sessions and bearer tokens are
// not revoked here; gates that re-read the account fail closed on the next
// request.
func (s *AccountService) Delete(ctx context.Context, id string) error {
	if err := s.accounts.SoftDelete(ctx, id, s.now()); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrAccountNotFound
		}
		return fmt.Errorf("delete account: %w", err)
	}

	s.log.Info("account deleted", zap.String("account_id", id))

	return nil
}

// Authorize checks the identity's role against the accepted set. An empty set
// admits any authenticated identity.
func (s *AccountService) Authorize(identity domain.Identity, accepted ...domain.Role) error {
	if identity.HasRole(accepted...) {
		return nil
	}
	return ErrForbidden
}

// CheckActive re-reads the account and confirms it is still active. Used by
// gates that must observe suspension or deletion issued after a token or
// session was minted.
func (s *AccountService) CheckActive(ctx context.Context, id string) (*domain.Account, error) {
	account, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("lookup account: %w", err)
	}

	switch account.Status {
	case domain.AccountStatusActive:
		return account, nil
	case domain.AccountStatusPending:
		return nil, ErrAccountPending
	case domain.AccountStatusSuspended:
		return nil, ErrAccountSuspended
	default:
		return nil, ErrForbidden
	}
}
