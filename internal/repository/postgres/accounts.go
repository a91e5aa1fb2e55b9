package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/theranjitkumar/blogger/internal/core/domain"
	"github.com/theranjitkumar/blogger/internal/core/port"
	"github.com/theranjitkumar/blogger/internal/repository"
)

const uniqueViolationCode = "23505"

var accountColumns = []string{
	"id",
	"username",
	"email",
	"password_hash",
	"role",
	"status",
	"login_attempts",
	"lock_until",
	"reset_token_hash",
	"reset_token_expiry",
	"last_login",
	"created_at",
	"deleted_at",
}

// AccountRepository implements port.AccountRepository using PostgreSQL.
type AccountRepository struct {
	pool    *pgxpool.Pool
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewAccountRepository constructs a repository backed by any executor that satisfies pgExecutor.
func NewAccountRepository(exec pgExecutor) *AccountRepository {
	repo := &AccountRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
	if pool, ok := exec.(*pgxpool.Pool); ok {
		repo.pool = pool
	}
	return repo
}

// WithTx returns a repository instance that executes statements within the supplied transaction.
func (r *AccountRepository) WithTx(tx pgx.Tx) *AccountRepository {
	if tx == nil {
		return r
	}
	return &AccountRepository{
		pool:    r.pool,
		exec:    tx,
		builder: r.builder,
	}
}

// Create inserts a new account row. Unique violations on username or email
// surface as repository.ErrConflict.
func (r *AccountRepository) Create(ctx context.Context, account domain.Account) error {
	query := r.builder.Insert("accounts").
		Columns(
			"id",
			"username",
			"email",
			"password_hash",
			"role",
			"status",
			"login_attempts",
			"created_at",
		).
		Values(
			account.ID,
			account.Username,
			account.Email,
			account.PasswordHash,
			account.Role,
			account.Status,
			account.LoginAttempts,
			account.CreatedAt,
		)

	stmt, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("build insert account sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return repository.ErrConflict
		}
		return fmt.Errorf("insert account: %w", err)
	}

	return nil
}

// GetByID retrieves a non-deleted account by identifier.
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	stmt, args, err := r.builder.
		Select(accountColumns...).
		From("accounts").
		Where(squirrel.Eq{"id": id}).
		Where("deleted_at IS NULL").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select account sql: %w", err)
	}

	account, err := scanAccount(r.exec.QueryRow(ctx, stmt, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan account: %w", err)
	}

	return account, nil
}

// GetByIdentifier retrieves a non-deleted account by username or email.
func (r *AccountRepository) GetByIdentifier(ctx context.Context, identifier string) (*domain.Account, error) {
	stmt, args, err := r.builder.
		Select(accountColumns...).
		From("accounts").
		Where(squirrel.Or{
			squirrel.Eq{"username": identifier},
			squirrel.Eq{"email": identifier},
		}).
		Where("deleted_at IS NULL").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select account by identifier sql: %w", err)
	}

	account, err := scanAccount(r.exec.QueryRow(ctx, stmt, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan account by identifier: %w", err)
	}

	return account, nil
}

// RecordFailedAttempt bumps the failed-attempt counter in one conditional
// update so concurrent failures never lose increments. The new counter value
// is computed server side: an expired lock restarts the count at one,
// otherwise the stored counter is incremented, and the lock deadline is set
// whenever the new count reaches maxAttempts.
func (r *AccountRepository) RecordFailedAttempt(ctx context.Context, id string, maxAttempts int, lockDuration time.Duration, now time.Time) (port.LockoutState, error) {
	const newAttempts = "CASE WHEN lock_until IS NOT NULL AND lock_until <= ? THEN 1 ELSE login_attempts + 1 END"

	lockDeadline := now.Add(lockDuration)

	stmt, args, err := r.builder.Update("accounts").
		Set("login_attempts", squirrel.Expr(newAttempts, now)).
		Set("lock_until", squirrel.Expr(
			"CASE WHEN ("+newAttempts+") >= ? THEN ? ELSE NULL END",
			now, maxAttempts, lockDeadline,
		)).
		Where(squirrel.Eq{"id": id}).
		Where("deleted_at IS NULL").
		Suffix("RETURNING login_attempts, lock_until").
		ToSql()
	if err != nil {
		return port.LockoutState{}, fmt.Errorf("build record failed attempt sql: %w", err)
	}

	var state port.LockoutState
	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(&state.Attempts, &state.LockUntil); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return port.LockoutState{}, repository.ErrNotFound
		}
		return port.LockoutState{}, fmt.Errorf("record failed attempt: %w", err)
	}

	return state, nil
}

// ResetLockout clears the attempt counter and any lock deadline.
func (r *AccountRepository) ResetLockout(ctx context.Context, id string) error {
	stmt, args, err := r.builder.Update("accounts").
		Set("login_attempts", 0).
		Set("lock_until", nil).
		Where(squirrel.Eq{"id": id}).
		Where("deleted_at IS NULL").
		ToSql()
	if err != nil {
		return fmt.Errorf("build reset lockout sql: %w", err)
	}

	tag, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("reset lockout: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// UpdateLastLogin stamps the most recent successful login.
func (r *AccountRepository) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	stmt, args, err := r.builder.Update("accounts").
		Set("last_login", at).
		Where(squirrel.Eq{"id": id}).
		Where("deleted_at IS NULL").
		ToSql()
	if err != nil {
		return fmt.Errorf("build update last login sql: %w", err)
	}

	tag, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("update last login: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// SetResetToken stores the reset token hash and expiry together, replacing
// any outstanding pair.
func (r *AccountRepository) SetResetToken(ctx context.Context, id string, tokenHash string, expiresAt time.Time) error {
	stmt, args, err := r.builder.Update("accounts").
		Set("reset_token_hash", tokenHash).
		Set("reset_token_expiry", expiresAt).
		Where(squirrel.Eq{"id": id}).
		Where("deleted_at IS NULL").
		ToSql()
	if err != nil {
		return fmt.Errorf("build set reset token sql: %w", err)
	}

	tag, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("set reset token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// GetByResetTokenHash retrieves the account holding the supplied token hash.
// Expiry is not evaluated here; callers decide staleness.
func (r *AccountRepository) GetByResetTokenHash(ctx context.Context, tokenHash string) (*domain.Account, error) {
	stmt, args, err := r.builder.
		Select(accountColumns...).
		From("accounts").
		Where(squirrel.Eq{"reset_token_hash": tokenHash}).
		Where("deleted_at IS NULL").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select account by token hash sql: %w", err)
	}

	account, err := scanAccount(r.exec.QueryRow(ctx, stmt, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan account by token hash: %w", err)
	}

	return account, nil
}

// ClearResetToken drops any outstanding token pair without touching the password.
func (r *AccountRepository) ClearResetToken(ctx context.Context, id string) error {
	stmt, args, err := r.builder.Update("accounts").
		Set("reset_token_hash", nil).
		Set("reset_token_expiry", nil).
		Where(squirrel.Eq{"id": id}).
		Where("deleted_at IS NULL").
		ToSql()
	if err != nil {
		return fmt.Errorf("build clear reset token sql: %w", err)
	}

	tag, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("clear reset token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// RedeemResetToken swaps the password hash for the account whose stored reset
// hash matches and is unexpired. The matching predicate and the clearing of
// the token pair live in the same statement, so a token admits exactly one
// winner under concurrent redemption.
func (r *AccountRepository) RedeemResetToken(ctx context.Context, tokenHash string, newPasswordHash string, now time.Time) (string, error) {
	stmt, args, err := r.builder.Update("accounts").
		Set("password_hash", newPasswordHash).
		Set("reset_token_hash", nil).
		Set("reset_token_expiry", nil).
		Set("login_attempts", 0).
		Set("lock_until", nil).
		Where(squirrel.Eq{"reset_token_hash": tokenHash}).
		Where(squirrel.Gt{"reset_token_expiry": now}).
		Where("deleted_at IS NULL").
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return "", fmt.Errorf("build redeem reset token sql: %w", err)
	}

	var id string
	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", repository.ErrNotFound
		}
		return "", fmt.Errorf("redeem reset token: %w", err)
	}

	return id, nil
}

// UpdatePassword replaces the password hash, clearing any reset token pair
// and the lockout state in the same statement.
func (r *AccountRepository) UpdatePassword(ctx context.Context, id string, passwordHash string) error {
	stmt, args, err := r.builder.Update("accounts").
		Set("password_hash", passwordHash).
		Set("reset_token_hash", nil).
		Set("reset_token_expiry", nil).
		Set("login_attempts", 0).
		Set("lock_until", nil).
		Where(squirrel.Eq{"id": id}).
		Where("deleted_at IS NULL").
		ToSql()
	if err != nil {
		return fmt.Errorf("build update password sql: %w", err)
	}

	tag, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// UpdateStatus applies a status transition guarded by the expected current
// status. ErrNotFound covers both a missing account and a concurrent change.
func (r *AccountRepository) UpdateStatus(ctx context.Context, id string, from, to domain.AccountStatus) error {
	stmt, args, err := r.builder.Update("accounts").
		Set("status", to).
		Where(squirrel.Eq{"id": id, "status": from}).
		Where("deleted_at IS NULL").
		ToSql()
	if err != nil {
		return fmt.Errorf("build update status sql: %w", err)
	}

	tag, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// SoftDelete marks the account deleted without removing the row.
func (r *AccountRepository) SoftDelete(ctx context.Context, id string, at time.Time) error {
	stmt, args, err := r.builder.Update("accounts").
		Set("deleted_at", at).
		Where(squirrel.Eq{"id": id}).
		Where("deleted_at IS NULL").
		ToSql()
	if err != nil {
		return fmt.Errorf("build soft delete sql: %w", err)
	}

	tag, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("soft delete account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// List returns non-deleted accounts matching the filter, newest first.
func (r *AccountRepository) List(ctx context.Context, filter port.AccountFilter) ([]domain.Account, error) {
	query := r.builder.
		Select(accountColumns...).
		From("accounts").
		Where("deleted_at IS NULL").
		OrderBy("created_at DESC")

	if filter.Status != "" {
		query = query.Where(squirrel.Eq{"status": filter.Status})
	}
	if filter.Role != "" {
		query = query.Where(squirrel.Eq{"role": filter.Role})
	}
	if filter.Limit > 0 {
		query = query.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		query = query.Offset(uint64(filter.Offset))
	}

	stmt, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list accounts sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []domain.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account row: %w", err)
		}
		accounts = append(accounts, *account)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate accounts: %w", err)
	}

	return accounts, nil
}

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var (
		account        domain.Account
		resetTokenHash sql.NullString
	)

	if err := row.Scan(
		&account.ID,
		&account.Username,
		&account.Email,
		&account.PasswordHash,
		&account.Role,
		&account.Status,
		&account.LoginAttempts,
		&account.LockUntil,
		&resetTokenHash,
		&account.ResetTokenExpiry,
		&account.LastLogin,
		&account.CreatedAt,
		&account.DeletedAt,
	); err != nil {
		return nil, err
	}

	if resetTokenHash.Valid {
		val := resetTokenHash.String
		account.ResetTokenHash = &val
	}

	return &account, nil
}

var _ port.AccountRepository = (*AccountRepository)(nil)
