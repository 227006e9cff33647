package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trailbook/api/internal/config"
	"trailbook/api/internal/middleware"
	"trailbook/api/internal/models"
	"trailbook/api/internal/repository"
	"trailbook/api/internal/service"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// fakeUserStore backs the auth routes in place of Postgres. It satisfies
// both service.UserStore and middleware.UserSource.
type fakeUserStore struct {
	byID map[string]*models.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{byID: map[string]*models.User{}}
}

func (s *fakeUserStore) Create(_ context.Context, user models.User) error {
	s.byID[user.ID] = &user
	return nil
}

func (s *fakeUserStore) GetByID(_ context.Context, id string) (models.User, error) {
	if u, ok := s.byID[id]; ok {
		return *u, nil
	}
	return models.User{}, repository.ErrUserNotFound
}

func (s *fakeUserStore) FindByEmail(_ context.Context, email string) (models.User, error) {
	for _, u := range s.byID {
		if u.Email == email && u.Active {
			return *u, nil
		}
	}
	return models.User{}, repository.ErrUserNotFound
}

func (s *fakeUserStore) UpdatePassword(_ context.Context, id string, hash []byte, changedAt time.Time) error {
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

func (s *fakeUserStore) SetResetToken(_ context.Context, id string, hash string, expires time.Time) error {
	u, ok := s.byID[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.PasswordResetHash = &hash
	u.PasswordResetExpires = &expires
	return nil
}

func (s *fakeUserStore) ClearResetToken(_ context.Context, id string) error {
	u, ok := s.byID[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.PasswordResetHash = nil
	u.PasswordResetExpires = nil
	return nil
}

func (s *fakeUserStore) FindByResetHash(_ context.Context, hash string, now time.Time) (models.User, error) {
	for _, u := range s.byID {
		if u.Active && u.PasswordResetHash != nil && *u.PasswordResetHash == hash &&
			u.PasswordResetExpires != nil && u.PasswordResetExpires.After(now) {
			return *u, nil
		}
	}
	return models.User{}, repository.ErrUserNotFound
}

type noopMailer struct{}

func (noopMailer) SendWelcome(context.Context, string, string, string) error       { return nil }
func (noopMailer) SendPasswordReset(context.Context, string, string, string) error { return nil }

func testAppConfig() *config.AppConfig {
	return &config.AppConfig{
		Environment:   "production",
		PublicBaseURL: "http://localhost:8080",
		Security: config.SecurityConfig{
			JWTSecret: "handlers-test-secret",
			JWTTTL:    time.Hour,
			CookieTTL: time.Hour,
		},
	}
}

// newAuthRouter wires the auth routes the way Register does, with the fake
// store standing in for the user repository.
func newAuthRouter(store *fakeUserStore) *gin.Engine {
	cfg := testAppConfig()
	log := zerolog.Nop()

	h := HandlerSet{
		log:         log,
		cfg:         cfg,
		authService: service.NewAuthService(store, noopMailer{}, cfg, log),
	}

	requireAuth := middleware.RequireAuth(cfg.Security.JWTSecret, store)

	engine := gin.New()
	engine.Use(middleware.ErrorHandler(log, cfg.Environment))
	users := engine.Group("/api/v1/users")
	users.POST("/signup", h.Signup)
	users.POST("/login", h.Login)
	users.GET("/logout", h.Logout)
	users.GET("/me", requireAuth, h.Me)
	users.PATCH("/updateMyPassword", requireAuth, h.UpdateMyPassword)
	return engine
}

func doJSON(router *gin.Engine, method, path, body string, mutate ...func(*http.Request)) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for _, m := range mutate {
		m(req)
	}
	router.ServeHTTP(rec, req)
	return rec
}

func signupAlice(t *testing.T, router *gin.Engine) (token string, userID string) {
	t.Helper()
	rec := doJSON(router, http.MethodPost, "/api/v1/users/signup", `{
		"name": "Alice",
		"email": "alice@example.com",
		"password": "correcthorse",
		"passwordConfirm": "correcthorse"
	}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var body struct {
		Token string `json:"token"`
		Data  struct {
			User struct {
				ID string `json:"id"`
			} `json:"user"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Token, body.Data.User.ID
}

func TestSignupEndpoint(t *testing.T) {
	t.Parallel()

	router := newAuthRouter(newFakeUserStore())

	rec := doJSON(router, http.MethodPost, "/api/v1/users/signup", `{
		"name": "Alice",
		"email": "alice@example.com",
		"password": "correcthorse",
		"passwordConfirm": "correcthorse"
	}`)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"status":"success"`)
	assert.Contains(t, rec.Body.String(), `"alice@example.com"`)
	assert.Contains(t, rec.Body.String(), `"role":"user"`)

	// No hash, no reset material, nothing password-shaped in the payload.
	assert.NotContains(t, strings.ToLower(rec.Body.String()), "password")

	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)
	var session *http.Cookie
	for _, ck := range cookies {
		if ck.Name == middleware.SessionCookie {
			session = ck
		}
	}
	require.NotNil(t, session)
	assert.NotEmpty(t, session.Value)
	assert.True(t, session.HttpOnly)
}

func TestSignupEndpoint_InvalidBody(t *testing.T) {
	t.Parallel()

	router := newAuthRouter(newFakeUserStore())

	rec := doJSON(router, http.MethodPost, "/api/v1/users/signup", `{"email": "not-an-email"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"fail"`)
}

func TestLoginEndpoint_WrongPassword(t *testing.T) {
	t.Parallel()

	router := newAuthRouter(newFakeUserStore())
	signupAlice(t, router)

	rec := doJSON(router, http.MethodPost, "/api/v1/users/login", `{
		"email": "alice@example.com",
		"password": "not-the-password"
	}`)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Incorrect email or password")
}

func TestLoginEndpoint(t *testing.T) {
	t.Parallel()

	router := newAuthRouter(newFakeUserStore())
	signupAlice(t, router)

	rec := doJSON(router, http.MethodPost, "/api/v1/users/login", `{
		"email": "alice@example.com",
		"password": "correcthorse"
	}`)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"token"`)
}

func TestMeEndpoint(t *testing.T) {
	t.Parallel()

	router := newAuthRouter(newFakeUserStore())
	token, userID := signupAlice(t, router)

	rec := doJSON(router, http.MethodGet, "/api/v1/users/me", "", func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+token)
	})

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), userID)
}

func TestMeEndpoint_NoCredentials(t *testing.T) {
	t.Parallel()

	router := newAuthRouter(newFakeUserStore())

	rec := doJSON(router, http.MethodGet, "/api/v1/users/me", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "You are not logged in")
}

func TestLogoutEndpoint(t *testing.T) {
	t.Parallel()

	router := newAuthRouter(newFakeUserStore())

	rec := doJSON(router, http.MethodGet, "/api/v1/users/logout", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var session *http.Cookie
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == middleware.SessionCookie {
			session = ck
		}
	}
	require.NotNil(t, session)
	assert.Equal(t, middleware.LogoutSentinel, session.Value)
	assert.LessOrEqual(t, session.MaxAge, 10)
}

func TestUpdateMyPasswordEndpoint(t *testing.T) {
	t.Parallel()

	store := newFakeUserStore()
	router := newAuthRouter(store)
	token, _ := signupAlice(t, router)

	// The change timestamp is backdated one second, so the signup token only
	// reads as stale once the change happens clearly later than issuance.
	time.Sleep(2 * time.Second)

	rec := doJSON(router, http.MethodPatch, "/api/v1/users/updateMyPassword", `{
		"currentPassword": "correcthorse",
		"password": "batterystaple",
		"passwordConfirm": "batterystaple"
	}`, func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+token)
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// The pre-change token is now stale.
	rec = doJSON(router, http.MethodGet, "/api/v1/users/me", "", func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+token)
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "recently changed password")

	// The fresh token from the response works.
	var body struct {
		Token string `json:"token"`
	}
	login := doJSON(router, http.MethodPost, "/api/v1/users/login", `{
		"email": "alice@example.com",
		"password": "batterystaple"
	}`)
	require.Equal(t, http.StatusOK, login.Code, login.Body.String())
	require.NoError(t, json.Unmarshal(login.Body.Bytes(), &body))

	rec = doJSON(router, http.MethodGet, "/api/v1/users/me", "", func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+body.Token)
	})
	assert.Equal(t, http.StatusOK, rec.Code)
}
