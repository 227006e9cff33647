package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trailbook/api/internal/apperror"
	"trailbook/api/internal/config"
	"trailbook/api/internal/models"
	"trailbook/api/internal/repository"
	"trailbook/api/internal/security"
)

type memoryUserStore struct {
	byID map[string]*models.User
}

func newMemoryUserStore() *memoryUserStore {
	return &memoryUserStore{byID: map[string]*models.User{}}
}

func (s *memoryUserStore) Create(_ context.Context, user models.User) error {
	s.byID[user.ID] = &user
	return nil
}

func (s *memoryUserStore) GetByID(_ context.Context, id string) (models.User, error) {
	if u, ok := s.byID[id]; ok {
		return *u, nil
	}
	return models.User{}, repository.ErrUserNotFound
}

func (s *memoryUserStore) FindByEmail(_ context.Context, email string) (models.User, error) {
	for _, u := range s.byID {
		if u.Email == email && u.Active {
			return *u, nil
		}
	}
	return models.User{}, repository.ErrUserNotFound
}

func (s *memoryUserStore) UpdatePassword(_ context.Context, id string, hash []byte, changedAt time.Time) error {
	u, ok := s.byID[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.PasswordHash = hash
	u.PasswordChangedAt = &changedAt
	u.PasswordResetHash = nil
	u.PasswordResetExpires = nil
	return nil
}

func (s *memoryUserStore) SetResetToken(_ context.Context, id string, hash string, expires time.Time) error {
	u, ok := s.byID[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.PasswordResetHash = &hash
	u.PasswordResetExpires = &expires
	return nil
}

func (s *memoryUserStore) ClearResetToken(_ context.Context, id string) error {
	u, ok := s.byID[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.PasswordResetHash = nil
	u.PasswordResetExpires = nil
	return nil
}

func (s *memoryUserStore) FindByResetHash(_ context.Context, hash string, now time.Time) (models.User, error) {
	for _, u := range s.byID {
		if u.Active && u.PasswordResetHash != nil && *u.PasswordResetHash == hash &&
			u.PasswordResetExpires != nil && u.PasswordResetExpires.After(now) {
			return *u, nil
		}
	}
	return models.User{}, repository.ErrUserNotFound
}

type recordingMailer struct {
	welcomes  []string
	resetURLs []string
	fail      bool
}

func (m *recordingMailer) SendWelcome(_ context.Context, to, _, _ string) error {
	if m.fail {
		return errors.New("smtp down")
	}
	m.welcomes = append(m.welcomes, to)
	return nil
}

func (m *recordingMailer) SendPasswordReset(_ context.Context, _, _ string, resetURL string) error {
	if m.fail {
		return errors.New("smtp down")
	}
	m.resetURLs = append(m.resetURLs, resetURL)
	return nil
}

func testConfig() *config.AppConfig {
	return &config.AppConfig{
		Environment:   "development",
		PublicBaseURL: "http://localhost:8080",
		Security: config.SecurityConfig{
			JWTSecret: "service-test-secret",
			JWTTTL:    time.Hour,
			CookieTTL: time.Hour,
		},
	}
}

func newTestAuthService(store UserStore, mailer Mailer) *AuthService {
	return NewAuthService(store, mailer, testConfig(), zerolog.Nop())
}

func signupBob(t *testing.T, svc *AuthService) AuthResult {
	t.Helper()
	res, err := svc.Signup(context.Background(), SignupInput{
		Name:            "Bob",
		Email:           "Bob@Example.com",
		Password:        "hunter2hunter2",
		PasswordConfirm: "hunter2hunter2",
	})
	require.NoError(t, err)
	return res
}

func TestSignup(t *testing.T) {
	t.Parallel()

	store := newMemoryUserStore()
	mailer := &recordingMailer{}
	svc := newTestAuthService(store, mailer)

	res := signupBob(t, svc)

	assert.Equal(t, "bob@example.com", res.User.Email)
	assert.Equal(t, models.UserRoleUser, res.User.Role)
	assert.True(t, res.User.Active)
	assert.Equal(t, []string{"bob@example.com"}, mailer.welcomes)

	claims, err := security.ParseToken(res.Token, "service-test-secret")
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, claims.UserID)
}

func TestSignup_Validation(t *testing.T) {
	t.Parallel()

	svc := newTestAuthService(newMemoryUserStore(), &recordingMailer{})

	_, err := svc.Signup(context.Background(), SignupInput{
		Name:            "",
		Email:           "bob@example.com",
		Password:        "short",
		PasswordConfirm: "different",
	})
	require.Error(t, err)

	var appErr *apperror.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, apperror.KindValidationFailed, appErr.Kind)
	assert.Contains(t, appErr.Message, "Please tell us your name")
	assert.Contains(t, appErr.Message, "Password must be at least 8 characters")
	assert.Contains(t, appErr.Message, "Passwords do not match")
}

func TestSignup_WelcomeEmailFailureIsNotFatal(t *testing.T) {
	t.Parallel()

	svc := newTestAuthService(newMemoryUserStore(), &recordingMailer{fail: true})

	res, err := svc.Signup(context.Background(), SignupInput{
		Name:            "Bob",
		Email:           "bob@example.com",
		Password:        "hunter2hunter2",
		PasswordConfirm: "hunter2hunter2",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
}

func TestLogin(t *testing.T) {
	t.Parallel()

	store := newMemoryUserStore()
	svc := newTestAuthService(store, &recordingMailer{})
	signupBob(t, svc)

	res, err := svc.Login(context.Background(), "bob@example.com", "hunter2hunter2")
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
}

func TestLogin_WrongPassword(t *testing.T) {
	t.Parallel()

	svc := newTestAuthService(newMemoryUserStore(), &recordingMailer{})
	signupBob(t, svc)

	_, err := svc.Login(context.Background(), "bob@example.com", "not-the-password")
	require.Error(t, err)

	var appErr *apperror.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, apperror.KindNotAuthenticated, appErr.Kind)
	assert.Equal(t, "Incorrect email or password", appErr.Message)
}

func TestLogin_UnknownEmailSameMessage(t *testing.T) {
	t.Parallel()

	svc := newTestAuthService(newMemoryUserStore(), &recordingMailer{})

	_, err := svc.Login(context.Background(), "nobody@example.com", "whatever123")
	require.Error(t, err)

	var appErr *apperror.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "Incorrect email or password", appErr.Message)
}

func TestForgotPassword_UnknownEmail(t *testing.T) {
	t.Parallel()

	svc := newTestAuthService(newMemoryUserStore(), &recordingMailer{})

	err := svc.ForgotPassword(context.Background(), "nobody@example.com")
	require.Error(t, err)

	var appErr *apperror.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, apperror.KindNotFound, appErr.Kind)
	assert.Equal(t, "There is no user with that email", appErr.Message)
}

func TestForgotPassword_MailFailureClearsToken(t *testing.T) {
	t.Parallel()

	store := newMemoryUserStore()
	mailer := &recordingMailer{}
	svc := newTestAuthService(store, mailer)
	res := signupBob(t, svc)

	mailer.fail = true
	err := svc.ForgotPassword(context.Background(), "bob@example.com")
	require.Error(t, err)

	var appErr *apperror.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, apperror.KindUnavailable, appErr.Kind)

	stored := store.byID[res.User.ID]
	assert.Nil(t, stored.PasswordResetHash)
	assert.Nil(t, stored.PasswordResetExpires)
}

func TestResetPassword_RoundTrip(t *testing.T) {
	t.Parallel()

	store := newMemoryUserStore()
	mailer := &recordingMailer{}
	svc := newTestAuthService(store, mailer)
	signupBob(t, svc)

	require.NoError(t, svc.ForgotPassword(context.Background(), "bob@example.com"))
	require.Len(t, mailer.resetURLs, 1)

	// The raw secret is the last path segment of the mailed URL.
	url := mailer.resetURLs[0]
	rawSecret := url[strings.LastIndex(url, "/")+1:]

	res, err := svc.ResetPassword(context.Background(), rawSecret, "new-password-1", "new-password-1")
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)

	login, err := svc.Login(context.Background(), "bob@example.com", "new-password-1")
	require.NoError(t, err)
	assert.NotEmpty(t, login.Token)

	// Single use: the same secret must not work twice.
	_, err = svc.ResetPassword(context.Background(), rawSecret, "another-pass-2", "another-pass-2")
	require.Error(t, err)

	var appErr *apperror.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, apperror.KindBadRequest, appErr.Kind)
	assert.Equal(t, "Password reset token is invalid or has expired", appErr.Message)
}

func TestResetPassword_BogusSecret(t *testing.T) {
	t.Parallel()

	svc := newTestAuthService(newMemoryUserStore(), &recordingMailer{})

	_, err := svc.ResetPassword(context.Background(), "deadbeef", "new-password-1", "new-password-1")
	require.Error(t, err)

	var appErr *apperror.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, apperror.KindBadRequest, appErr.Kind)
}

func TestUpdatePassword(t *testing.T) {
	t.Parallel()

	store := newMemoryUserStore()
	svc := newTestAuthService(store, &recordingMailer{})
	res := signupBob(t, svc)

	before := time.Now()
	updated, err := svc.UpdatePassword(context.Background(), res.User, "hunter2hunter2", "new-password-1", "new-password-1")
	require.NoError(t, err)
	assert.NotEmpty(t, updated.Token)

	stored := store.byID[res.User.ID]
	require.NotNil(t, stored.PasswordChangedAt)
	// Backdated so the token minted in the same request stays valid.
	assert.True(t, stored.PasswordChangedAt.Before(before))

	_, err = svc.Login(context.Background(), "bob@example.com", "new-password-1")
	require.NoError(t, err)
}

func TestUpdatePassword_WrongCurrent(t *testing.T) {
	t.Parallel()

	svc := newTestAuthService(newMemoryUserStore(), &recordingMailer{})
	res := signupBob(t, svc)

	_, err := svc.UpdatePassword(context.Background(), res.User, "wrong-current", "new-password-1", "new-password-1")
	require.Error(t, err)

	var appErr *apperror.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, apperror.KindNotAuthenticated, appErr.Kind)
	assert.Equal(t, "Your current password is wrong", appErr.Message)
}
