package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"trailbook/api/internal/apperror"
	"trailbook/api/internal/config"
	"trailbook/api/internal/ids"
	"trailbook/api/internal/models"
	"trailbook/api/internal/repository"
	"trailbook/api/internal/security"
)

const resetTokenTTL = 10 * time.Minute

// UserStore is the account persistence the auth flows need.
type UserStore interface {
	Create(ctx context.Context, user models.User) error
	GetByID(ctx context.Context, id string) (models.User, error)
	FindByEmail(ctx context.Context, email string) (models.User, error)
	UpdatePassword(ctx context.Context, id string, hash []byte, changedAt time.Time) error
	SetResetToken(ctx context.Context, id string, hash string, expires time.Time) error
	ClearResetToken(ctx context.Context, id string) error
	FindByResetHash(ctx context.Context, hash string, now time.Time) (models.User, error)
}

// Mailer delivers the transactional mail the auth flows send.
type Mailer interface {
	SendWelcome(ctx context.Context, to, name, accountURL string) error
	SendPasswordReset(ctx context.Context, to, name, resetURL string) error
}

type AuthService struct {
	users  UserStore
	mailer Mailer
	cfg    *config.AppConfig
	log    zerolog.Logger
}

func NewAuthService(users UserStore, mailer Mailer, cfg *config.AppConfig, log zerolog.Logger) *AuthService {
	return &AuthService{
		users:  users,
		mailer: mailer,
		cfg:    cfg,
		log:    log,
	}
}

type SignupInput struct {
	Name            string
	Email           string
	Password        string
	PasswordConfirm string
}

// AuthResult is a freshly signed session token plus the user it belongs to.
type AuthResult struct {
	Token string
	User  models.User
}

func (s *AuthService) issueFor(user models.User) (AuthResult, error) {
	token, err := security.IssueToken(s.cfg.Security.JWTSecret, user.ID, s.cfg.Security.JWTTTL)
	if err != nil {
		return AuthResult{}, err
	}
	return AuthResult{Token: token, User: user}, nil
}

// Signup creates an account (role is always "user"; privilege moves are an
// admin operation), sends a welcome email best-effort and logs the user in.
func (s *AuthService) Signup(ctx context.Context, input SignupInput) (AuthResult, error) {
	input.Email = strings.TrimSpace(strings.ToLower(input.Email))

	var problems []string
	if input.Name == "" {
		problems = append(problems, "Please tell us your name")
	}
	if input.Email == "" {
		problems = append(problems, "Please provide your email")
	}
	if len(input.Password) < 8 {
		problems = append(problems, "Password must be at least 8 characters")
	}
	if input.Password != input.PasswordConfirm {
		problems = append(problems, "Passwords do not match")
	}
	if len(problems) > 0 {
		return AuthResult{}, apperror.ValidationFailed(problems...)
	}

	passwordHash, err := security.HashPassword(input.Password)
	if err != nil {
		return AuthResult{}, err
	}

	user := models.User{
		ID:           ids.New(),
		Name:         input.Name,
		Email:        input.Email,
		Role:         models.UserRoleUser,
		PasswordHash: passwordHash,
		Active:       true,
	}

	// Duplicate emails surface as the unique-constraint error and normalize
	// to a 400 with the conflicting value.
	if err := s.users.Create(ctx, user); err != nil {
		return AuthResult{}, err
	}

	accountURL := s.cfg.PublicBaseURL + "/me"
	if err := s.mailer.SendWelcome(ctx, user.Email, user.Name, accountURL); err != nil {
		s.log.Warn().Err(err).Str("user_id", user.ID).Msg("welcome email failed")
	}

	return s.issueFor(user)
}

// Login never says which of email or password was wrong.
func (s *AuthService) Login(ctx context.Context, email, password string) (AuthResult, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return AuthResult{}, apperror.BadRequest("Please provide an email and password")
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return AuthResult{}, apperror.NotAuthenticated("Incorrect email or password")
		}
		return AuthResult{}, err
	}

	ok, err := security.VerifyPassword(password, user.PasswordHash)
	if err != nil || !ok {
		return AuthResult{}, apperror.NotAuthenticated("Incorrect email or password")
	}

	return s.issueFor(user)
}

// ForgotPassword stores the hash of a fresh reset secret and mails the raw
// value. If the mail cannot be delivered the token is cleared again so a
// half-delivered secret cannot linger.
func (s *AuthService) ForgotPassword(ctx context.Context, emailAddr string) error {
	emailAddr = strings.TrimSpace(strings.ToLower(emailAddr))

	user, err := s.users.FindByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return apperror.NotFound("There is no user with that email")
		}
		return err
	}

	raw, hash, err := security.NewResetSecret()
	if err != nil {
		return err
	}
	if err := s.users.SetResetToken(ctx, user.ID, hash, time.Now().Add(resetTokenTTL)); err != nil {
		return err
	}

	resetURL := fmt.Sprintf("%s/api/v1/users/resetPassword/%s", s.cfg.PublicBaseURL, raw)
	if err := s.mailer.SendPasswordReset(ctx, user.Email, user.Name, resetURL); err != nil {
		if clearErr := s.users.ClearResetToken(ctx, user.ID); clearErr != nil {
			s.log.Error().Err(clearErr).Str("user_id", user.ID).Msg("clear reset token failed")
		}
		s.log.Error().Err(err).Str("user_id", user.ID).Msg("password reset email failed")
		return apperror.Unavailable("Email could not be sent, try again later!")
	}

	return nil
}

// ResetPassword consumes a reset secret. The token is single-use: storing
// the new password clears it, so a second attempt with the same secret fails.
func (s *AuthService) ResetPassword(ctx context.Context, rawSecret, password, passwordConfirm string) (AuthResult, error) {
	user, err := s.users.FindByResetHash(ctx, security.HashResetSecret(rawSecret), time.Now())
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return AuthResult{}, apperror.BadRequest("Password reset token is invalid or has expired")
		}
		return AuthResult{}, err
	}

	if err := s.storePassword(ctx, user.ID, password, passwordConfirm); err != nil {
		return AuthResult{}, err
	}

	return s.issueFor(user)
}

// UpdatePassword changes the password of a logged-in user after checking
// the current one.
func (s *AuthService) UpdatePassword(ctx context.Context, user models.User, current, password, passwordConfirm string) (AuthResult, error) {
	ok, err := security.VerifyPassword(current, user.PasswordHash)
	if err != nil || !ok {
		return AuthResult{}, apperror.NotAuthenticated("Your current password is wrong")
	}

	if err := s.storePassword(ctx, user.ID, password, passwordConfirm); err != nil {
		return AuthResult{}, err
	}

	return s.issueFor(user)
}

func (s *AuthService) storePassword(ctx context.Context, userID, password, passwordConfirm string) error {
	var problems []string
	if len(password) < 8 {
		problems = append(problems, "Password must be at least 8 characters")
	}
	if password != passwordConfirm {
		problems = append(problems, "Passwords do not match")
	}
	if len(problems) > 0 {
		return apperror.ValidationFailed(problems...)
	}

	hash, err := security.HashPassword(password)
	if err != nil {
		return err
	}

	// The change timestamp is backdated one second so the token issued in
	// this same request is not rejected by the freshness check.
	return s.users.UpdatePassword(ctx, userID, hash, time.Now().Add(-time.Second))
}
