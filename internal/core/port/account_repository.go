package port

import (
	"context"
	"time"

	"github.com/theranjitkumar/blogger/internal/core/domain"
)

// LockoutState is the outcome of atomically recording a failed login attempt.
type LockoutState struct {
	Attempts  int
	LockUntil *time.Time
}

// AccountFilter narrows account listings.
type AccountFilter struct {
	Status domain.AccountStatus
	Role   domain.Role
	Limit  int
	Offset int
}

// AccountRepository exposes persistence behavior for accounts.
//
// The mutating lockout and reset operations must be atomic with respect to
// the single account row they touch: concurrent callers may never observe a
// lost update on the attempt counter, and RedeemResetToken must admit exactly
// one winner for a given token.
type AccountRepository interface {
	Create(ctx context.Context, account domain.Account) error
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	GetByIdentifier(ctx context.Context, identifier string) (*domain.Account, error)

	// RecordFailedAttempt increments the attempt counter in a single
	// conditional update. A lock whose deadline already passed restarts the
	// count at one; reaching maxAttempts sets lock_until to now+lockDuration.
	RecordFailedAttempt(ctx context.Context, id string, maxAttempts int, lockDuration time.Duration, now time.Time) (LockoutState, error)

	// ResetLockout clears the attempt counter and any lock deadline.
	ResetLockout(ctx context.Context, id string) error

	UpdateLastLogin(ctx context.Context, id string, at time.Time) error

	// SetResetToken stores the token hash and expiry together, replacing any
	// outstanding reset artifact.
	SetResetToken(ctx context.Context, id string, tokenHash string, expiresAt time.Time) error

	// GetByResetTokenHash retrieves the account holding the supplied token
	// hash, regardless of expiry; callers decide staleness.
	GetByResetTokenHash(ctx context.Context, tokenHash string) (*domain.Account, error)

	// ClearResetToken drops any outstanding token pair without touching the
	// password.
	ClearResetToken(ctx context.Context, id string) error

	// RedeemResetToken swaps the password hash for the account whose stored
	// reset hash matches and is unexpired, clearing the token pair and the
	// lockout state in the same statement. Returns the account id of the
	// winner, or ErrNotFound when the token is unknown, expired, or already
	// redeemed.
	RedeemResetToken(ctx context.Context, tokenHash string, newPasswordHash string, now time.Time) (string, error)

	// UpdatePassword replaces the password hash, clears the reset token pair,
	// and resets the lockout state.
	UpdatePassword(ctx context.Context, id string, passwordHash string) error

	// UpdateStatus applies a status transition guarded by the expected
	// current status; ErrNotFound when the account is missing or its status
	// changed underneath the caller.
	UpdateStatus(ctx context.Context, id string, from, to domain.AccountStatus) error

	SoftDelete(ctx context.Context, id string, at time.Time) error
	List(ctx context.Context, filter AccountFilter) ([]domain.Account, error)
}
