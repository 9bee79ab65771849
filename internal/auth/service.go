package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/org/adlist/internal/storage"
	"github.com/org/adlist/pkg/models"
	"golang.org/x/crypto/bcrypt"
)

const (
	bcryptCost    = 10
	resetTokenLen = 6
	resetTokenTTL = 10 * time.Minute
)

// ErrInvalidCredentials is returned for a wrong email/password combination.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrInvalidToken is returned for an unknown or expired reset token.
var ErrInvalidToken = errors.New("invalid token")

// ErrPasswordMismatch is returned when the new password and its
// confirmation differ.
var ErrPasswordMismatch = errors.New("passwords do not match")

// ErrPasswordReuse is returned when the new password equals the old one.
var ErrPasswordReuse = errors.New("new password must differ from the previous password")

// Store is the subset of the storage backend the auth service needs.
type Store interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateUserPassword(ctx context.Context, email, passwordHash string) error
	UpsertPasswordReset(ctx context.Context, reset *models.PasswordReset) error
	GetPasswordReset(ctx context.Context, tokenHash string) (*models.PasswordReset, error)
	DeletePasswordReset(ctx context.Context, email string) error
}

// Service handles registration, login, and the password lifecycle.
type Service struct {
	store  Store
	tokens *TokenIssuer
	mailer Mailer
	now    func() time.Time
}

// NewService creates an auth Service.
func NewService(store Store, tokens *TokenIssuer, mailer Mailer) *Service {
	return &Service{store: store, tokens: tokens, mailer: mailer, now: time.Now}
}

// Register creates a user with a bcrypt-hashed password. An empty role
// defaults to admin.
func (s *Service) Register(ctx context.Context, email, password string, role models.Role) (*models.User, error) {
	if role == "" {
		role = models.RoleAdmin
	}
	if !role.Valid() {
		return nil, fmt.Errorf("unknown role %q", role)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}
	user := &models.User{Email: email, PasswordHash: string(hash), Role: role}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login validates credentials and returns the user with a signed access token.
func (s *Service) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, "", ErrInvalidCredentials
	}
	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// ChangePassword replaces a logged-in user's password after re-verifying the
// old one. The new password must match its confirmation and differ from the
// old password.
func (s *Service) ChangePassword(ctx context.Context, user *models.User, oldPassword, newPassword, confirmPassword string) error {
	existing, err := s.store.GetUserByEmail(ctx, user.Email)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(existing.PasswordHash), []byte(oldPassword)) != nil {
		return ErrInvalidCredentials
	}
	if newPassword != confirmPassword {
		return ErrPasswordMismatch
	}
	if oldPassword == newPassword {
		return ErrPasswordReuse
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcryptCost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	return s.store.UpdateUserPassword(ctx, user.Email, string(hash))
}

// ForgotPassword issues a fresh numeric reset token, replacing any
// outstanding token for the email, and mails it out. Only the token's hash
// is stored.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	if _, err := s.store.GetUserByEmail(ctx, email); err != nil {
		return err
	}

	token, err := generateNumericToken(resetTokenLen)
	if err != nil {
		return err
	}

	reset := &models.PasswordReset{
		Email:     email,
		TokenHash: hashToken(token),
		ExpiresAt: s.now().Add(resetTokenTTL),
	}
	if err := s.store.UpsertPasswordReset(ctx, reset); err != nil {
		return err
	}
	return s.mailer.SendPasswordResetToken(ctx, email, token)
}

// VerifyResetToken checks that a reset token exists and has not expired.
// An expired token is deleted on sight.
func (s *Service) VerifyResetToken(ctx context.Context, token string) error {
	reset, err := s.store.GetPasswordReset(ctx, hashToken(token))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrInvalidToken
		}
		return err
	}
	if s.now().After(reset.ExpiresAt) {
		_ = s.store.DeletePasswordReset(ctx, reset.Email)
		return ErrInvalidToken
	}
	return nil
}

// ResetPassword sets a new password for the account the token was issued to
// and consumes the token.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	reset, err := s.store.GetPasswordReset(ctx, hashToken(token))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrInvalidToken
		}
		return err
	}
	if s.now().After(reset.ExpiresAt) {
		_ = s.store.DeletePasswordReset(ctx, reset.Email)
		return ErrInvalidToken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcryptCost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	if err := s.store.UpdateUserPassword(ctx, reset.Email, string(hash)); err != nil {
		return err
	}
	return s.store.DeletePasswordReset(ctx, reset.Email)
}

// generateNumericToken returns n random decimal digits.
func generateNumericToken(n int) (string, error) {
	digits := make([]byte, n)
	for i := range digits {
		d, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", fmt.Errorf("generating reset token: %w", err)
		}
		digits[i] = byte('0' + d.Int64())
	}
	return string(digits), nil
}

func hashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}
