package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/theranjitkumar/blogger/internal/core/domain"
	"github.com/theranjitkumar/blogger/internal/core/port"
	"github.com/theranjitkumar/blogger/internal/repository"
)

func TestAccountGetSanitizes(t *testing.T) {
	hash := "token-hash"
	account := activeAccount(t)
	account.ResetTokenHash = &hash

	accounts := &mockAccountRepository{
		getByIDFn: func(_ context.Context, _ string) (*domain.Account, error) {
			return account, nil
		},
	}

	svc := NewAccountService(accounts, zaptest.NewLogger(t))

	got, err := svc.Get(context.Background(), account.ID)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}

	if got.PasswordHash != "" || got.ResetTokenHash != nil {
		t.Fatal("credential material must be stripped")
	}
	if got.Username != "jdoe" {
		t.Fatalf("unexpected account: %+v", got)
	}
}

func TestAccountGetMissing(t *testing.T) {
	accounts := &mockAccountRepository{
		getByIDFn: func(_ context.Context, _ string) (*domain.Account, error) {
			return nil, repository.ErrNotFound
		},
	}

	svc := NewAccountService(accounts, zaptest.NewLogger(t))

	if _, err := svc.Get(context.Background(), "ghost"); !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestChangeStatusTransitions(t *testing.T) {
	cases := []struct {
		name    string
		current domain.AccountStatus
		target  domain.AccountStatus
		allowed bool
	}{
		{"pending activates", domain.AccountStatusPending, domain.AccountStatusActive, true},
		{"active suspends", domain.AccountStatusActive, domain.AccountStatusSuspended, true},
		{"suspended reinstates", domain.AccountStatusSuspended, domain.AccountStatusActive, true},
		{"pending cannot suspend", domain.AccountStatusPending, domain.AccountStatusSuspended, false},
		{"active cannot revert to pending", domain.AccountStatusActive, domain.AccountStatusPending, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			account := activeAccount(t)
			account.Status = tc.current

			accounts := &mockAccountRepository{
				getByIDFn: func(_ context.Context, _ string) (*domain.Account, error) {
					return account, nil
				},
			}
			if tc.allowed {
				accounts.updateStatusFn = func(_ context.Context, _ string, from, to domain.AccountStatus) error {
					if from != tc.current || to != tc.target {
						t.Fatalf("unexpected transition args: %s -> %s", from, to)
					}
					return nil
				}
			}

			svc := NewAccountService(accounts, zaptest.NewLogger(t))

			err := svc.ChangeStatus(context.Background(), account.ID, tc.target)
			if tc.allowed && err != nil {
				t.Fatalf("ChangeStatus returned error: %v", err)
			}
			if !tc.allowed && !errors.Is(err, ErrInvalidTransition) {
				t.Fatalf("expected ErrInvalidTransition, got %v", err)
			}
		})
	}
}

func TestChangeStatusNoopWhenAlreadyThere(t *testing.T) {
	account := activeAccount(t)

	// updateStatusFn deliberately unset: same-status changes must not write.
	accounts := &mockAccountRepository{
		getByIDFn: func(_ context.Context, _ string) (*domain.Account, error) {
			return account, nil
		},
	}

	svc := NewAccountService(accounts, zaptest.NewLogger(t))

	if err := svc.ChangeStatus(context.Background(), account.ID, domain.AccountStatusActive); err != nil {
		t.Fatalf("ChangeStatus returned error: %v", err)
	}
}

func TestDeleteAccount(t *testing.T) {
	now := time.Date(2025, time.June, 10, 9, 0, 0, 0, time.UTC)

	var deletedAt time.Time

	accounts := &mockAccountRepository{
		softDeleteFn: func(_ context.Context, id string, at time.Time) error {
			if id != "account-1" {
				t.Fatalf("unexpected id: %s", id)
			}
			deletedAt = at
			return nil
		},
	}

	svc := NewAccountService(accounts, zaptest.NewLogger(t))
	svc.WithClock(func() time.Time { return now })

	if err := svc.Delete(context.Background(), "account-1"); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if !deletedAt.Equal(now) {
		t.Fatalf("unexpected deletion stamp: %v", deletedAt)
	}

	accounts.softDeleteFn = func(_ context.Context, _ string, _ time.Time) error {
		return repository.ErrNotFound
	}
	if err := svc.Delete(context.Background(), "account-1"); !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestAuthorize(t *testing.T) {
	svc := NewAccountService(&mockAccountRepository{}, zaptest.NewLogger(t))

	admin := domain.Identity{ID: "a", Role: domain.RoleAdmin}
	author := domain.Identity{ID: "b", Role: domain.RoleAuthor}

	if err := svc.Authorize(admin, domain.RoleAdmin); err != nil {
		t.Fatalf("admin should pass admin gate: %v", err)
	}
	if err := svc.Authorize(author, domain.RoleAdmin); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if err := svc.Authorize(author, domain.RoleAdmin, domain.RoleAuthor); err != nil {
		t.Fatalf("author should pass combined gate: %v", err)
	}
	// Empty accepted set admits any authenticated identity.
	if err := svc.Authorize(author); err != nil {
		t.Fatalf("empty gate should admit any identity: %v", err)
	}
}

func TestCheckActive(t *testing.T) {
	account := activeAccount(t)

	accounts := &mockAccountRepository{
		getByIDFn: func(_ context.Context, _ string) (*domain.Account, error) {
			return account, nil
		},
	}

	svc := NewAccountService(accounts, zaptest.NewLogger(t))

	if _, err := svc.CheckActive(context.Background(), account.ID); err != nil {
		t.Fatalf("CheckActive returned error: %v", err)
	}

	account.Status = domain.AccountStatusSuspended
	if _, err := svc.CheckActive(context.Background(), account.ID); !errors.Is(err, ErrAccountSuspended) {
		t.Fatalf("expected ErrAccountSuspended, got %v", err)
	}

	account.Status = domain.AccountStatusPending
	if _, err := svc.CheckActive(context.Background(), account.ID); !errors.Is(err, ErrAccountPending) {
		t.Fatalf("expected ErrAccountPending, got %v", err)
	}

	accounts.getByIDFn = func(_ context.Context, _ string) (*domain.Account, error) {
		return nil, repository.ErrNotFound
	}
	if _, err := svc.CheckActive(context.Background(), "ghost"); !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestListValidatesFilter(t *testing.T) {
	accounts := &mockAccountRepository{
		listFn: func(_ context.Context, filter port.AccountFilter) ([]domain.Account, error) {
			return []domain.Account{*activeAccount(t)}, nil
		},
	}

	svc := NewAccountService(accounts, zaptest.NewLogger(t))

	got, err := svc.List(context.Background(), port.AccountFilter{Status: domain.AccountStatusActive, Limit: 10})
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(got) != 1 || got[0].PasswordHash != "" {
		t.Fatalf("unexpected listing: %+v", got)
	}

	if _, err := svc.List(context.Background(), port.AccountFilter{Status: "bogus"}); err == nil {
		t.Fatal("expected error for unknown status filter")
	}
}
