package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"net/mail"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/giftwell/server/internal/models"
)

const emailCodeTTL = 15 * time.Minute

// bcrypt rejects inputs above 72 bytes instead of truncating.
const maxPasswordLen = 72

func (s *Service) Register(ctx context.Context, email, password, name string) (*models.User, error) {
	email = strings.TrimSpace(email)
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, invalid("email is not a valid address")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalid("name must not be empty")
	}
	if len(password) > maxPasswordLen {
		return nil, invalid("password is too long")
	}

	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, unexpected(err, "Internal server error")
	}
	if existing != nil {
		return nil, badRequest("Email already registered")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, unexpected(err, "Internal server error")
	}

	user := &models.User{
		Email:          email,
		HashedPassword: string(hashed),
		Name:           &name,
	}
	created, err := s.users.Create(ctx, user)
	if err != nil {
		return nil, unexpected(err, "Internal server error")
	}

	s.log.Info("user registered", zap.Int64("user_id", created.ID))
	return created, nil
}

// Login exchanges email and password for a bearer token.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return "", unexpected(err, "Internal server error")
	}
	if user == nil {
		return "", unauthorized("User not found")
	}
	if bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(password)) != nil {
		return "", unauthorized("Incorrect email or password")
	}
	return s.issueToken(user.ID)
}

// AuthenticateToken resolves a bearer token to its user.
func (s *Service) AuthenticateToken(ctx context.Context, token string) (*models.User, error) {
	userID, err := s.parseToken(token)
	if err != nil {
		return nil, unauthorized("Could not validate credentials")
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, unexpected(err, "Internal server error")
	}
	if user == nil {
		return nil, unauthorized("User not found")
	}
	return user, nil
}

// RequestPasswordReset mails a reset code. Unknown addresses get the same
// answer as known ones so the endpoint cannot be used to probe accounts.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return unexpected(err, "Internal server error")
	}
	if user == nil {
		return nil
	}
	code, err := s.createEmailCode(ctx, email, models.EmailCodePurposeReset)
	if err != nil {
		return unexpected(err, "Internal server error")
	}
	s.sendEmail(email, "Код для сброса пароля", fmt.Sprintf("Ваш код для сброса пароля: %s", code))
	return nil
}

func (s *Service) ConfirmPasswordReset(ctx context.Context, email, code, newPassword string) error {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return unexpected(err, "Internal server error")
	}
	if user == nil {
		return badRequest("Invalid code or email")
	}
	if len(newPassword) > maxPasswordLen {
		return invalid("password is too long")
	}

	record, err := s.verifyEmailCode(ctx, email, models.EmailCodePurposeReset, code)
	if err != nil {
		return err
	}
	if record == nil {
		return badRequest("Invalid code or email")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return unexpected(err, "Internal server error")
	}
	if err := s.users.UpdatePassword(ctx, user.ID, string(hashed)); err != nil {
		return unexpected(err, "Internal server error")
	}
	if err := s.emailCodes.MarkUsed(ctx, record.ID); err != nil {
		return unexpected(err, "Internal server error")
	}

	s.log.Info("password reset", zap.Int64("user_id", user.ID))
	return nil
}

// RequestLoginCode mails a one-time login code, silently ignoring unknown
// addresses.
func (s *Service) RequestLoginCode(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return unexpected(err, "Internal server error")
	}
	if user == nil {
		return nil
	}
	code, err := s.createEmailCode(ctx, email, models.EmailCodePurposeLogin)
	if err != nil {
		return unexpected(err, "Internal server error")
	}
	s.sendEmail(email, "Код для входа в Wishlist", fmt.Sprintf("Ваш код для входа: %s", code))
	return nil
}

// LoginWithCode exchanges a mailed code for a bearer token. A successful
// code login also proves the address, so the account is marked verified.
func (s *Service) LoginWithCode(ctx context.Context, email, code string) (string, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return "", unexpected(err, "Internal server error")
	}
	if user == nil {
		return "", unauthorized("Incorrect email or code")
	}

	record, err := s.verifyEmailCode(ctx, email, models.EmailCodePurposeLogin, code)
	if err != nil {
		return "", err
	}
	if record == nil {
		return "", unauthorized("Incorrect email or code")
	}

	if err := s.users.MarkEmailVerified(ctx, user.ID); err != nil {
		return "", unexpected(err, "Internal server error")
	}
	if err := s.emailCodes.MarkUsed(ctx, record.ID); err != nil {
		return "", unexpected(err, "Internal server error")
	}

	s.log.Info("user logged in with code", zap.Int64("user_id", user.ID))
	return s.issueToken(user.ID)
}

// createEmailCode mints a four-digit code, stores only its hash and returns
// the plaintext for mailing.
func (s *Service) createEmailCode(ctx context.Context, email, purpose string) (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(10000))
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	code := fmt.Sprintf("%04d", n.Int64())

	hashed, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash code: %w", err)
	}
	_, err = s.emailCodes.Create(ctx, &models.EmailCode{
		Email:     email,
		Purpose:   purpose,
		CodeHash:  string(hashed),
		ExpiresAt: time.Now().Add(emailCodeTTL),
	})
	if err != nil {
		return "", err
	}

	s.log.Info("email code issued",
		zap.String("email", email),
		zap.String("purpose", purpose))
	return code, nil
}

// verifyEmailCode returns the newest matching active code record, or nil
// when there is none or the code does not match.
func (s *Service) verifyEmailCode(ctx context.Context, email, purpose, code string) (*models.EmailCode, error) {
	record, err := s.emailCodes.GetLatestActive(ctx, email, purpose, time.Now())
	if err != nil {
		return nil, unexpected(err, "Internal server error")
	}
	if record == nil {
		return nil, nil
	}
	if bcrypt.CompareHashAndPassword([]byte(record.CodeHash), []byte(code)) != nil {
		return nil, nil
	}
	return record, nil
}

func (s *Service) sendEmail(to, subject, body string) {
	if s.mailer == nil {
		s.log.Warn("mailer not configured, skipping email",
			zap.String("to", to), zap.String("subject", subject))
		return
	}
	if err := s.mailer.Send(to, subject, body); err != nil {
		s.log.Error("failed to send email",
			zap.String("to", to), zap.Error(err))
	}
}
