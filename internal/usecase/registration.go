package usecase

import (
	"context"
	"errors"
	"fmt"
	"regexp"
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
	// ErrIdentifierTaken indicates the username or email already belongs to an account.
	ErrIdentifierTaken = errors.New("username or email already taken")
	// ErrInvalidRegistration indicates the registration input is malformed.
	ErrInvalidRegistration = errors.New("invalid registration input")
	// ErrInvalidVerificationToken indicates the verification token is unknown or expired.
	ErrInvalidVerificationToken = errors.New("invalid or expired verification token")
)

var (
	usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_.-]{3,32}$`)
	emailRegex    = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

const verificationTokenBytes = 32

// RegistrationService creates accounts and drives the optional email
// verification gate.
type RegistrationService struct {
	accounts  port.AccountRepository
	notifier  port.NotificationSender
	validator *security.PasswordValidator
	cfg       config.RegistrationSettings
	log       *zap.Logger
	now       port.Clock
}

// NewRegistrationService constructs a RegistrationService instance.
func NewRegistrationService(
	accounts port.AccountRepository,
	notifier port.NotificationSender,
	validator *security.PasswordValidator,
	cfg config.RegistrationSettings,
	log *zap.Logger,
) *RegistrationService {
	return &RegistrationService{
		accounts:  accounts,
		notifier:  notifier,
		validator: validator,
		cfg:       cfg,
		log:       log,
		now:       port.SystemClock(),
	}
}

// WithClock overrides the service clock. Intended for tests.
func (s *RegistrationService) WithClock(clock port.Clock) *RegistrationService {
	s.now = clock
	return s
}

// Register creates an account with the user role. When verification is
// required the account starts pending and a verification link goes out;
// otherwise it is active immediately.
func (s *RegistrationService) Register(ctx context.Context, username, email, password string) (*domain.Account, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))

	if !usernameRegex.MatchString(username) {
		return nil, fmt.Errorf("%w: username must be 3-32 characters of letters, digits, underscore, dot, or dash", ErrInvalidRegistration)
	}
	if !emailRegex.MatchString(email) {
		return nil, fmt.Errorf("%w: malformed email address", ErrInvalidRegistration)
	}

	if err := s.validator.Validate(password); err != nil {
		return nil, err
	}

	hash, err := security.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.now()

	status := domain.AccountStatusActive
	if s.cfg.RequireVerification {
		status = domain.AccountStatusPending
	}

	account := domain.Account{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RoleUser,
		Status:       status,
		CreatedAt:    now,
	}

	if err := s.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrIdentifierTaken
		}
		return nil, fmt.Errorf("create account: %w", err)
	}

	if s.cfg.RequireVerification {
		if err := s.sendVerification(ctx, account); err != nil {
			return nil, err
		}
	}

	s.log.Info("account registered",
		zap.String("account_id", account.ID),
		zap.String("email", logger.MaskEmail(account.Email)),
		zap.String("status", string(account.Status)),
	)

	account.PasswordHash = ""
	return &account, nil
}

func (s *RegistrationService) sendVerification(ctx context.Context, account domain.Account) error {
	token, err := security.GenerateSecureToken(verificationTokenBytes)
	if err != nil {
		return fmt.Errorf("generate verification token: %w", err)
	}

	expiresAt := s.now().Add(s.verificationTTL())

	if err := s.accounts.SetResetToken(ctx, account.ID, security.HashToken(token), expiresAt); err != nil {
		return fmt.Errorf("store verification token: %w", err)
	}

	notification := port.Notification{
		Recipient: account.Email,
		Kind:      port.NotificationVerifyEmail,
		Context: map[string]string{
			"username":     account.Username,
			"verify_token": token,
			"expires_at":   expiresAt.UTC().Format(time.RFC3339),
		},
	}

	if err := s.notifier.Send(ctx, notification); err != nil {
		return fmt.Errorf("send verification notification: %w", err)
	}

	return nil
}

// VerifyEmail consumes a verification token and activates the pending
// account. Tokens for accounts that are no longer pending are rejected.
func (s *RegistrationService) VerifyEmail(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrInvalidVerificationToken
	}

	account, err := s.accounts.GetByResetTokenHash(ctx, security.HashToken(token))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInvalidVerificationToken
		}
		return fmt.Errorf("lookup verification token: %w", err)
	}

	if account.Status != domain.AccountStatusPending || !account.HasPendingReset(s.now()) {
		return ErrInvalidVerificationToken
	}

	if err := s.accounts.UpdateStatus(ctx, account.ID, domain.AccountStatusPending, domain.AccountStatusActive); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInvalidVerificationToken
		}
		return fmt.Errorf("activate account: %w", err)
	}

	if err := s.accounts.ClearResetToken(ctx, account.ID); err != nil {
		return fmt.Errorf("clear verification token: %w", err)
	}

	s.log.Info("email verified", zap.String("account_id", account.ID))

	return nil
}

func (s *RegistrationService) verificationTTL() time.Duration {
	if s.cfg.VerificationTTL > 0 {
		return s.cfg.VerificationTTL
	}
	return 24 * time.Hour
}
