package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/charlesng35/authgate/internal/models"
	"github.com/charlesng35/authgate/pkg/crypto"
	appErrors "github.com/charlesng35/authgate/pkg/errors"
	"github.com/charlesng35/authgate/pkg/logger"
	"github.com/charlesng35/authgate/pkg/mail"
	"github.com/charlesng35/authgate/pkg/metrics"
)

const (
	defaultVerificationExpiry = 24 * time.Hour
	defaultResetExpiry        = time.Hour
	defaultDispatchTimeout    = 15 * time.Second
)

// AuthOption customises the AuthService.
type AuthOption func(*AuthService)

// WithClock injects a custom time source.
func WithClock(clock func() time.Time) AuthOption {
	return func(s *AuthService) {
		if clock != nil {
			s.now = clock
		}
	}
}

// WithVerificationExpiry overrides the verification code lifetime.
func WithVerificationExpiry(d time.Duration) AuthOption {
	return func(s *AuthService) {
		if d > 0 {
			s.verificationExpiry = d
		}
	}
}

// WithResetExpiry overrides the reset token lifetime.
func WithResetExpiry(d time.Duration) AuthOption {
	return func(s *AuthService) {
		if d > 0 {
			s.resetExpiry = d
		}
	}
}

// WithClientURL sets the base URL embedded in password reset links.
func WithClientURL(url string) AuthOption {
	return func(s *AuthService) {
		s.clientURL = strings.TrimRight(url, "/")
	}
}

// WithDispatchTimeout bounds each background notification send.
func WithDispatchTimeout(d time.Duration) AuthOption {
	return func(s *AuthService) {
		if d > 0 {
			s.dispatchTimeout = d
		}
	}
}

// AuthService owns the account-state transitions: signup, email verification,
// login, forgot-password, and reset-password. Session issuance is the
// transport layer's concern; this service never touches cookies.
type AuthService struct {
	db       *gorm.DB
	notifier mail.Notifier

	clientURL          string
	verificationExpiry time.Duration
	resetExpiry        time.Duration
	dispatchTimeout    time.Duration
	now                func() time.Time
	log                *zap.Logger
}

// NewAuthService constructs the service with the provided dependencies. The
// notifier may be nil, in which case no emails are dispatched.
func NewAuthService(db *gorm.DB, notifier mail.Notifier, opts ...AuthOption) (*AuthService, error) {
	if db == nil {
		return nil, errors.New("auth service: db is required")
	}

	service := &AuthService{
		db:                 db,
		notifier:           notifier,
		verificationExpiry: defaultVerificationExpiry,
		resetExpiry:        defaultResetExpiry,
		dispatchTimeout:    defaultDispatchTimeout,
		now:                time.Now,
		log:                logger.WithModule("auth"),
	}

	for _, opt := range opts {
		opt(service)
	}

	return service, nil
}

// Signup registers a new account. The password is stored as a bcrypt hash and
// a 6-digit verification code is issued with a 24 hour expiry. A uniqueness
// violation at insert time maps to the same error as an up-front duplicate,
// so concurrent signups race safely on the database constraint.
func (s *AuthService) Signup(ctx context.Context, name, email, password string) (*models.User, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)
	if name == "" || email == "" || password == "" {
		return nil, appErrors.ErrValidation
	}

	var existing models.User
	err := s.db.WithContext(ctx).Where("email = ?", email).Take(&existing).Error
	switch {
	case err == nil:
		metrics.Signups.WithLabelValues("failure").Inc()
		return nil, appErrors.ErrUserExists
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, appErrors.ErrInternalServer.WithInternal(err)
	}

	hashed, err := crypto.HashPassword(password)
	if err != nil {
		return nil, appErrors.ErrInternalServer.WithInternal(err)
	}

	code, err := crypto.GenerateVerificationCode()
	if err != nil {
		return nil, appErrors.ErrInternalServer.WithInternal(err)
	}

	expiresAt := s.now().Add(s.verificationExpiry)
	user := models.User{
		Name:                  name,
		Email:                 email,
		Password:              hashed,
		VerificationToken:     &code,
		VerificationExpiresAt: &expiresAt,
	}

	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		metrics.Signups.WithLabelValues("failure").Inc()
		if isUniqueConstraintError(err) {
			return nil, appErrors.ErrUserExists
		}
		return nil, appErrors.ErrInternalServer.WithInternal(err)
	}

	metrics.Signups.WithLabelValues("success").Inc()
	s.dispatch("verification", user.Email, func(ctx context.Context) error {
		return s.notifier.SendVerificationEmail(ctx, user.Email, code)
	})

	return &user, nil
}

// VerifyEmail consumes a pending verification code. Wrong and expired codes
// fail identically so the response never reveals which case applied.
func (s *AuthService) VerifyEmail(ctx context.Context, code string) (*models.User, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, appErrors.ErrInvalidVerification
	}

	now := s.now()

	var user models.User
	err := s.db.WithContext(ctx).
		Where("verification_token = ? AND verification_expires_at > ?", code, now).
		Take(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, appErrors.ErrInvalidVerification
		}
		return nil, appErrors.ErrInternalServer.WithInternal(err)
	}

	if err := s.db.WithContext(ctx).Model(&user).Updates(map[string]any{
		"is_verified":             true,
		"verification_token":      nil,
		"verification_expires_at": nil,
	}).Error; err != nil {
		return nil, appErrors.ErrInternalServer.WithInternal(err)
	}

	user.IsVerified = true
	user.VerificationToken = nil
	user.VerificationExpiresAt = nil

	s.dispatch("welcome", user.Email, func(ctx context.Context) error {
		return s.notifier.SendWelcomeEmail(ctx, user.Email, user.Name)
	})

	return &user, nil
}

// Login authenticates an email/password pair. An unknown email and a wrong
// password produce the same error to prevent account enumeration.
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.User, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, appErrors.ErrInvalidCredentials
	}

	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", email).Take(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			metrics.AuthAttempts.WithLabelValues("failure").Inc()
			return nil, appErrors.ErrInvalidCredentials
		}
		return nil, appErrors.ErrInternalServer.WithInternal(err)
	}

	if !crypto.VerifyPassword(user.Password, password) {
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		return nil, appErrors.ErrInvalidCredentials
	}

	now := s.now()
	if err := s.db.WithContext(ctx).Model(&user).Update("last_login_at", now).Error; err != nil {
		return nil, appErrors.ErrInternalServer.WithInternal(err)
	}
	user.LastLoginAt = &now

	metrics.AuthAttempts.WithLabelValues("success").Inc()
	return &user, nil
}

// ForgotPassword issues a high-entropy reset token valid for one hour and
// mails a reset link. Unlike the other flows this one reports an unknown
// email explicitly.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if email == "" {
		return appErrors.ErrValidation
	}

	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", email).Take(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return appErrors.ErrUserNotFound
		}
		return appErrors.ErrInternalServer.WithInternal(err)
	}

	token, err := crypto.GenerateResetToken(crypto.ResetTokenBytes)
	if err != nil {
		return appErrors.ErrInternalServer.WithInternal(err)
	}

	expiresAt := s.now().Add(s.resetExpiry)
	if err := s.db.WithContext(ctx).Model(&user).Updates(map[string]any{
		"reset_password_token":      token,
		"reset_password_expires_at": expiresAt,
	}).Error; err != nil {
		return appErrors.ErrInternalServer.WithInternal(err)
	}

	resetURL := s.resetLink(token)
	s.dispatch("password_reset", user.Email, func(ctx context.Context) error {
		return s.notifier.SendPasswordResetEmail(ctx, user.Email, resetURL)
	})

	return nil
}

// ResetPassword consumes a pending reset token and replaces the stored
// password hash. The token is cleared in the same update, so it can never be
// replayed.
func (s *AuthService) ResetPassword(ctx context.Context, token, password string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return appErrors.ErrInvalidResetToken
	}
	if password == "" {
		return appErrors.ErrValidation
	}

	now := s.now()

	var user models.User
	err := s.db.WithContext(ctx).
		Where("reset_password_token = ? AND reset_password_expires_at > ?", token, now).
		Take(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return appErrors.ErrInvalidResetToken
		}
		return appErrors.ErrInternalServer.WithInternal(err)
	}

	hashed, err := crypto.HashPassword(password)
	if err != nil {
		return appErrors.ErrInternalServer.WithInternal(err)
	}

	if err := s.db.WithContext(ctx).Model(&user).Updates(map[string]any{
		"password":                  hashed,
		"reset_password_token":      nil,
		"reset_password_expires_at": nil,
	}).Error; err != nil {
		return appErrors.ErrInternalServer.WithInternal(err)
	}

	s.dispatch("reset_success", user.Email, func(ctx context.Context) error {
		return s.notifier.SendResetSuccessEmail(ctx, user.Email)
	})

	return nil
}

// GetUser loads an account by id. Used by the authenticated session probe.
func (s *AuthService) GetUser(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Take(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, appErrors.ErrUserNotFound
		}
		return nil, appErrors.ErrInternalServer.WithInternal(err)
	}
	return &user, nil
}

// dispatch fires a notification send in the background. Delivery failure is
// logged and counted but never affects the completed state mutation.
func (s *AuthService) dispatch(kind, email string, send func(context.Context) error) {
	if s.notifier == nil {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.dispatchTimeout)
		defer cancel()

		if err := send(ctx); err != nil {
			if errors.Is(err, mail.ErrSMTPDisabled) {
				return
			}
			metrics.EmailsDispatched.WithLabelValues(kind, "failure").Inc()
			s.log.Warn("notification dispatch failed",
				zap.String("kind", kind),
				zap.String("email", email),
				zap.Error(err),
			)
			return
		}
		metrics.EmailsDispatched.WithLabelValues(kind, "success").Inc()
	}()
}

func (s *AuthService) resetLink(token string) string {
	if s.clientURL == "" {
		return token
	}
	return fmt.Sprintf("%s/reset-password/%s", s.clientURL, token)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
