package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/theranjitkumar/blogger/internal/core/port"
	"github.com/theranjitkumar/blogger/internal/infra/config"
	"github.com/theranjitkumar/blogger/internal/infra/logger"
	"github.com/theranjitkumar/blogger/internal/infra/security"
	"github.com/theranjitkumar/blogger/internal/repository"
)

// ErrInvalidResetToken indicates the reset token is unknown, expired, or
// already redeemed. The three cases are deliberately indistinguishable.
var ErrInvalidResetToken = errors.New("invalid or expired reset token")

const resetTokenBytes = 32

// PasswordResetService manages the request/redeem reset flow and direct
// password changes for authenticated users.
type PasswordResetService struct {
	accounts  port.AccountRepository
	notifier  port.NotificationSender
	validator *security.PasswordValidator
	cfg       config.ResetSettings
	log       *zap.Logger
	now       port.Clock
}

// NewPasswordResetService constructs a PasswordResetService instance.
func NewPasswordResetService(
	accounts port.AccountRepository,
	notifier port.NotificationSender,
	validator *security.PasswordValidator,
	cfg config.ResetSettings,
	log *zap.Logger,
) *PasswordResetService {
	return &PasswordResetService{
		accounts:  accounts,
		notifier:  notifier,
		validator: validator,
		cfg:       cfg,
		log:       log,
		now:       port.SystemClock(),
	}
}

// WithClock overrides the service clock. Intended for tests.
func (s *PasswordResetService) WithClock(clock port.Clock) *PasswordResetService {
	s.now = clock
	return s
}

// RequestReset issues a single-use reset token for the account behind the
// email. The acknowledgment is identical whether or not the account exists,
// so the endpoint cannot be used to enumerate registrations. Requesting again
// replaces any outstanding token.
func (s *PasswordResetService) RequestReset(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil
	}

	account, err := s.accounts.GetByIdentifier(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.log.Info("reset requested for unknown email",
				zap.String("email", logger.MaskEmail(email)),
			)
			return nil
		}
		return fmt.Errorf("lookup account: %w", err)
	}

	token, err := security.GenerateSecureToken(resetTokenBytes)
	if err != nil {
		return fmt.Errorf("generate reset token: %w", err)
	}

	expiresAt := s.now().Add(s.tokenTTL())

	if err := s.accounts.SetResetToken(ctx, account.ID, security.HashToken(token), expiresAt); err != nil {
		return fmt.Errorf("store reset token: %w", err)
	}

	notification := port.Notification{
		Recipient: account.Email,
		Kind:      port.NotificationPasswordReset,
		Context: map[string]string{
			"username":   account.Username,
			"reset_url":  fmt.Sprintf("%s?token=%s", s.cfg.BaseURL, token),
			"expires_at": expiresAt.UTC().Format(time.RFC3339),
		},
	}

	if err := s.notifier.Send(ctx, notification); err != nil {
		return fmt.Errorf("send reset notification: %w", err)
	}

	s.log.Info("reset token issued",
		zap.String("account_id", account.ID),
		zap.String("email", logger.MaskEmail(account.Email)),
	)

	return nil
}

// ValidateResetToken reports whether a token is outstanding and unexpired
// without consuming it.
func (s *PasswordResetService) ValidateResetToken(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrInvalidResetToken
	}

	account, err := s.accounts.GetByResetTokenHash(ctx, security.HashToken(token))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInvalidResetToken
		}
		return fmt.Errorf("lookup reset token: %w", err)
	}

	if !account.HasPendingReset(s.now()) {
		return ErrInvalidResetToken
	}

	return nil
}

// Redeem consumes a reset token and installs the new password. The conditional
// update in the repository guarantees exactly one winner per token, and the
// swap clears the token pair and any lockout in the same statement.
func (s *PasswordResetService) Redeem(ctx context.Context, token, newPassword string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrInvalidResetToken
	}

	if err := s.validator.Validate(newPassword); err != nil {
		return err
	}

	newHash, err := security.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	accountID, err := s.accounts.RedeemResetToken(ctx, security.HashToken(token), newHash, s.now())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInvalidResetToken
		}
		return fmt.Errorf("redeem reset token: %w", err)
	}

	s.log.Info("password reset redeemed", zap.String("account_id", accountID))

	return nil
}

// ChangePassword swaps the password for an authenticated account after
// verifying the current one. Any outstanding reset token is invalidated.
func (s *PasswordResetService) ChangePassword(ctx context.Context, accountID, currentPassword, newPassword string) error {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInvalidCredentials
		}
		return fmt.Errorf("lookup account: %w", err)
	}

	ok, err := security.VerifyPassword(currentPassword, account.PasswordHash)
	if err != nil {
		return fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return ErrInvalidCredentials
	}

	if err := s.validator.Validate(newPassword); err != nil {
		return err
	}

	newHash, err := security.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if err := s.accounts.UpdatePassword(ctx, account.ID, newHash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	s.log.Info("password changed", zap.String("account_id", account.ID))

	return nil
}

func (s *PasswordResetService) tokenTTL() time.Duration {
	if s.cfg.TokenTTL > 0 {
		return s.cfg.TokenTTL
	}
	return time.Hour
}
