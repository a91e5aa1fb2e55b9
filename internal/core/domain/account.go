package domain

import "time"

// Role enumerates the roles an account can hold.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleAuthor Role = "author"
	RoleUser   Role = "user"
)

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleAuthor, RoleUser:
		return true
	}
	return false
}

// AccountStatus enumerates possible account states.
type AccountStatus string

const (
	AccountStatusPending   AccountStatus = "pending"
	AccountStatusActive    AccountStatus = "active"
	AccountStatusSuspended AccountStatus = "suspended"
)

// Valid reports whether the status is one of the known values.
func (s AccountStatus) Valid() bool {
	switch s {
	case AccountStatusPending, AccountStatusActive, AccountStatusSuspended:
		return true
	}
	return false
}

// CanTransitionTo reports whether the directed status transition is allowed.
// pending may only activate; active and suspended toggle via administrative
// action. Soft deletion is modelled separately and is terminal.
func (s AccountStatus) CanTransitionTo(next AccountStatus) bool {
	switch s {
	case AccountStatusPending:
		return next == AccountStatusActive
	case AccountStatusActive:
		return next == AccountStatusSuspended
	case AccountStatusSuspended:
		return next == AccountStatusActive
	}
	return false
}

// Account mirrors the persisted representation in the accounts table.
type Account struct {
	ID               string
	Username         string
	Email            string
	PasswordHash     string
	Role             Role
	Status           AccountStatus
	LoginAttempts    int
	LockUntil        *time.Time
	ResetTokenHash   *string
	ResetTokenExpiry *time.Time
	LastLogin        *time.Time
	CreatedAt        time.Time
	DeletedAt        *time.Time
}

// IsDeleted reports whether the account has been soft deleted.
func (a Account) IsDeleted() bool {
	return a.DeletedAt != nil
}

// Locked reports whether the account is locked out at the supplied moment.
// A lock whose deadline has passed counts as unlocked; expiry is evaluated
// lazily on access, there is no background sweep.
func (a Account) Locked(at time.Time) bool {
	return a.LockUntil != nil && a.LockUntil.After(at)
}

// LockRetryAfter returns the remaining lock duration at the supplied moment,
// rounded up to whole seconds. Zero when the account is not locked.
func (a Account) LockRetryAfter(at time.Time) time.Duration {
	if !a.Locked(at) {
		return 0
	}
	remaining := a.LockUntil.Sub(at)
	if rounded := remaining.Truncate(time.Second); rounded < remaining {
		remaining = rounded + time.Second
	}
	return remaining
}

// HasPendingReset reports whether a reset token is outstanding and unexpired.
func (a Account) HasPendingReset(at time.Time) bool {
	return a.ResetTokenHash != nil && a.ResetTokenExpiry != nil && a.ResetTokenExpiry.After(at)
}

// Identity derives the request-scoped identity for the account.
func (a Account) Identity() Identity {
	return Identity{
		ID:       a.ID,
		Username: a.Username,
		Email:    a.Email,
		Role:     a.Role,
		Status:   a.Status,
	}
}
