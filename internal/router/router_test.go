package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/Payphone-Digital/lms/config"
	"github.com/Payphone-Digital/lms/internal/constants"
	"github.com/Payphone-Digital/lms/internal/handler"
	"github.com/Payphone-Digital/lms/internal/metrics"
	"github.com/Payphone-Digital/lms/internal/middleware"
	"github.com/Payphone-Digital/lms/internal/model"
	"github.com/Payphone-Digital/lms/internal/repository"
	"github.com/Payphone-Digital/lms/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type captureMailer struct {
	mu   sync.Mutex
	sent []service.EmailMessage
}

func (m *captureMailer) Send(ctx context.Context, msg service.EmailMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return nil
}

type testServer struct {
	engine  *gin.Engine
	mailer  *captureMailer
	company *model.Company
	learner *model.Role
	admin   *model.Role
}

func newTestServer(t *testing.T, authLimit int) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&model.Company{}, &model.Role{}, &model.User{}, &model.Session{}, &model.PasswordReset{}))

	company := &model.Company{Name: "Acme"}
	learner := &model.Role{Name: constants.RoleLearner}
	admin := &model.Role{Name: constants.RoleAdmin}
	require.NoError(t, db.Create(company).Error)
	require.NoError(t, db.Create(learner).Error)
	require.NoError(t, db.Create(admin).Error)

	cfg := &config.Config{
		App: config.AppConfig{
			Environment:    constants.EnvDevelopment,
			Timeout:        5 * time.Second,
			FrontendURL:    "http://localhost:3000/reset-password",
			AllowedOrigins: []string{"http://localhost:3000"},
		},
		JWT: config.JWTConfig{
			AccessSecret:  "access-secret",
			RefreshSecret: "refresh-secret",
			AccessTTL:     15 * time.Minute,
			RefreshTTL:    14 * 24 * time.Hour,
		},
	}

	jwtSvc := service.NewJWTService(cfg.JWT)
	mailer := &captureMailer{}
	authSvc := service.NewAuthService(
		repository.NewUserRepository(db),
		repository.NewSessionRepository(db),
		repository.NewPasswordResetRepository(db),
		service.NewBcryptHasher(bcrypt.MinCost),
		service.NewTokenHasher("hash-secret"),
		jwtSvc,
		mailer,
		service.AuthOptions{PasswordResetTTL: time.Hour, FrontendURL: cfg.App.FrontendURL},
	)

	cookies := handler.CookieConfig{AccessTTL: cfg.JWT.AccessTTL, RefreshTTL: cfg.JWT.RefreshTTL}
	metrics.Register()

	r := NewRouter(
		handler.NewAuthHandler(authSvc, cookies),
		handler.NewUserHandler(authSvc),
		handler.NewHealthHandler(db, nil),
		middleware.NewJWTMiddleware(jwtSvc),
		Limiters{
			Global: middleware.NewMemoryLimiter(1000, time.Minute),
			Auth:   middleware.NewMemoryLimiter(authLimit, time.Minute),
		},
		cfg,
	)

	return &testServer{
		engine:  r.SetupRoutes(),
		mailer:  mailer,
		company: company,
		learner: learner,
		admin:   admin,
	}
}

func (s *testServer) do(t *testing.T, method, path string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func cookie(t *testing.T, w *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("cookie %s not set", name)
	return nil
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func (s *testServer) register(t *testing.T, email string, role *model.Role) *httptest.ResponseRecorder {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/v1/auth/register", map[string]string{
		"name":      "Alice",
		"email":     email,
		"password":  "pw1",
		"companyId": s.company.ID,
		"roleId":    role.ID,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return w
}

func TestRegisterAndMe(t *testing.T) {
	s := newTestServer(t, 100)

	w := s.register(t, "alice@x.com", s.learner)
	body := decode(t, w)
	assert.Equal(t, true, body["success"])
	user := body["user"].(map[string]any)
	assert.Equal(t, "alice@x.com", user["email"])
	assert.Equal(t, "Acme", user["companyName"])
	assert.NotContains(t, w.Body.String(), "passwordHash")

	access := cookie(t, w, constants.CookieAccessToken)
	refresh := cookie(t, w, constants.CookieRefreshToken)
	assert.True(t, access.HttpOnly)
	assert.True(t, refresh.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, refresh.SameSite)
	assert.Equal(t, "/", refresh.Path)
	assert.Equal(t, int((14 * 24 * time.Hour).Seconds()), refresh.MaxAge)

	me := s.do(t, http.MethodGet, "/api/v1/auth/me", nil, access)
	require.Equal(t, http.StatusOK, me.Code)
	assert.Equal(t, user["id"], decode(t, me)["user"].(map[string]any)["id"])

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+access.Value)
	bw := httptest.NewRecorder()
	s.engine.ServeHTTP(bw, req)
	assert.Equal(t, http.StatusOK, bw.Code)

	dup := s.do(t, http.MethodPost, "/api/v1/auth/register", map[string]string{
		"name": "Alice", "email": "alice@x.com", "password": "pw1", "companyId": s.company.ID, "roleId": s.learner.ID,
	})
	assert.Equal(t, http.StatusConflict, dup.Code)

	bad := s.do(t, http.MethodPost, "/api/v1/auth/register", map[string]string{"email": "not-an-email"})
	assert.Equal(t, http.StatusBadRequest, bad.Code)
	assert.Contains(t, bad.Body.String(), "VALIDATION_ERROR")
	assert.Contains(t, bad.Body.String(), "email is not a valid address")
}

func TestMeWithoutToken(t *testing.T) {
	s := newTestServer(t, 100)

	w := s.do(t, http.MethodGet, "/api/v1/auth/me", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, false, decode(t, w)["success"])
}

func TestLoginRefreshReuse(t *testing.T) {
	s := newTestServer(t, 100)
	s.register(t, "alice@x.com", s.learner)

	wrong := s.do(t, http.MethodPost, "/api/v1/auth/login", map[string]string{"email": "alice@x.com", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, wrong.Code)
	assert.Equal(t, "Invalid credentials", decode(t, wrong)["message"])

	login := s.do(t, http.MethodPost, "/api/v1/auth/login", map[string]string{"email": "alice@x.com", "password": "pw1"})
	require.Equal(t, http.StatusOK, login.Code)
	assert.NotEmpty(t, decode(t, login)["sessionId"])
	r1 := cookie(t, login, constants.CookieRefreshToken)

	refreshed := s.do(t, http.MethodPost, "/api/v1/auth/refresh", nil, r1)
	require.Equal(t, http.StatusOK, refreshed.Code)
	r2 := cookie(t, refreshed, constants.CookieRefreshToken)
	assert.NotEqual(t, r1.Value, r2.Value)

	reuse := s.do(t, http.MethodPost, "/api/v1/auth/refresh", nil, r1)
	assert.Equal(t, http.StatusUnauthorized, reuse.Code)
	assert.Equal(t, "TOKEN_REUSE", decode(t, reuse)["code"])
	assert.Equal(t, -1, cookie(t, reuse, constants.CookieRefreshToken).MaxAge)

	dead := s.do(t, http.MethodPost, "/api/v1/auth/refresh", nil, r2)
	assert.Equal(t, http.StatusUnauthorized, dead.Code)

	missing := s.do(t, http.MethodPost, "/api/v1/auth/refresh", nil)
	assert.Equal(t, http.StatusUnauthorized, missing.Code)
	assert.Equal(t, "No token", decode(t, missing)["message"])
}

func TestLogoutAlwaysSucceeds(t *testing.T) {
	s := newTestServer(t, 100)
	w := s.register(t, "alice@x.com", s.learner)
	refresh := cookie(t, w, constants.CookieRefreshToken)

	out := s.do(t, http.MethodPost, "/api/v1/auth/logout", nil, refresh)
	require.Equal(t, http.StatusOK, out.Code)
	assert.Equal(t, -1, cookie(t, out, constants.CookieAccessToken).MaxAge)
	assert.Equal(t, -1, cookie(t, out, constants.CookieRefreshToken).MaxAge)

	again := s.do(t, http.MethodPost, "/api/v1/auth/refresh", nil, refresh)
	assert.Equal(t, http.StatusUnauthorized, again.Code)

	anon := s.do(t, http.MethodPost, "/api/v1/auth/logout", nil)
	assert.Equal(t, http.StatusOK, anon.Code)
}

var resetTokenPattern = regexp.MustCompile(`token=([0-9a-f]{64})`)

func TestPasswordResetFlow(t *testing.T) {
	s := newTestServer(t, 100)
	w := s.register(t, "alice@x.com", s.learner)
	userID := decode(t, w)["user"].(map[string]any)["id"].(string)

	unknown := s.do(t, http.MethodPost, "/api/v1/auth/password-reset/request", map[string]string{"email": "ghost@x.com"})
	known := s.do(t, http.MethodPost, "/api/v1/auth/password-reset/request", map[string]string{"email": "alice@x.com"})
	require.Equal(t, http.StatusOK, unknown.Code)
	require.Equal(t, http.StatusOK, known.Code)
	assert.Equal(t, unknown.Body.String(), known.Body.String())
	require.Len(t, s.mailer.sent, 1)

	match := resetTokenPattern.FindStringSubmatch(s.mailer.sent[0].TextBody)
	require.Len(t, match, 2)

	wrong := s.do(t, http.MethodPost, "/api/v1/auth/password-reset/confirm", map[string]string{
		"userId": userID, "token": "abc", "newPassword": "pw2",
	})
	assert.Equal(t, http.StatusBadRequest, wrong.Code)
	assert.Equal(t, "RESET_TOKEN_INVALID", decode(t, wrong)["code"])

	ok := s.do(t, http.MethodPost, "/api/v1/auth/password-reset/confirm", map[string]string{
		"userId": userID, "token": match[1], "newPassword": "pw2",
	})
	require.Equal(t, http.StatusOK, ok.Code, ok.Body.String())

	login := s.do(t, http.MethodPost, "/api/v1/auth/login", map[string]string{"email": "alice@x.com", "password": "pw2"})
	assert.Equal(t, http.StatusOK, login.Code)
}

func TestChangePasswordClearsCookies(t *testing.T) {
	s := newTestServer(t, 100)
	w := s.register(t, "alice@x.com", s.learner)
	access := cookie(t, w, constants.CookieAccessToken)
	refresh := cookie(t, w, constants.CookieRefreshToken)

	wrong := s.do(t, http.MethodPost, "/api/v1/auth/change-password", map[string]string{"oldPassword": "bad", "newPassword": "pw2"}, access)
	assert.Equal(t, http.StatusUnauthorized, wrong.Code)
	assert.Equal(t, "INCORRECT_PASSWORD", decode(t, wrong)["code"])

	ok := s.do(t, http.MethodPost, "/api/v1/auth/change-password", map[string]string{"oldPassword": "pw1", "newPassword": "pw2"}, access)
	require.Equal(t, http.StatusOK, ok.Code)
	assert.Equal(t, -1, cookie(t, ok, constants.CookieRefreshToken).MaxAge)

	stale := s.do(t, http.MethodPost, "/api/v1/auth/refresh", nil, refresh)
	assert.Equal(t, http.StatusUnauthorized, stale.Code)
}

func TestSessionsEndpoints(t *testing.T) {
	s := newTestServer(t, 100)
	first := s.register(t, "alice@x.com", s.learner)
	access := cookie(t, first, constants.CookieAccessToken)
	firstSession := decode(t, first)["sessionId"].(string)

	second := s.do(t, http.MethodPost, "/api/v1/auth/login", map[string]string{"email": "alice@x.com", "password": "pw1"})
	require.Equal(t, http.StatusOK, second.Code)
	secondSession := decode(t, second)["sessionId"].(string)

	list := s.do(t, http.MethodGet, "/api/v1/auth/sessions", nil, access)
	require.Equal(t, http.StatusOK, list.Code)
	sessions := decode(t, list)["sessions"].([]any)
	require.Len(t, sessions, 2)
	for _, raw := range sessions {
		entry := raw.(map[string]any)
		assert.Equal(t, entry["id"] == firstSession, entry["current"])
	}

	revoke := s.do(t, http.MethodDelete, "/api/v1/auth/sessions/"+secondSession, nil, access)
	assert.Equal(t, http.StatusOK, revoke.Code)

	missing := s.do(t, http.MethodDelete, "/api/v1/auth/sessions/does-not-exist", nil, access)
	assert.Equal(t, http.StatusNotFound, missing.Code)
}

func TestAdminDeleteUser(t *testing.T) {
	s := newTestServer(t, 100)
	adminResp := s.register(t, "admin@x.com", s.admin)
	adminAccess := cookie(t, adminResp, constants.CookieAccessToken)
	adminID := decode(t, adminResp)["user"].(map[string]any)["id"].(string)

	learnerResp := s.register(t, "learner@x.com", s.learner)
	learnerAccess := cookie(t, learnerResp, constants.CookieAccessToken)
	learnerID := decode(t, learnerResp)["user"].(map[string]any)["id"].(string)

	forbidden := s.do(t, http.MethodDelete, "/api/v1/users/"+adminID, nil, learnerAccess)
	assert.Equal(t, http.StatusForbidden, forbidden.Code)

	self := s.do(t, http.MethodDelete, "/api/v1/users/"+adminID, nil, adminAccess)
	assert.Equal(t, http.StatusForbidden, self.Code)
	assert.Equal(t, "SELF_DELETION", decode(t, self)["code"])

	ok := s.do(t, http.MethodDelete, "/api/v1/users/"+learnerID, nil, adminAccess)
	assert.Equal(t, http.StatusOK, ok.Code)

	gone := s.do(t, http.MethodDelete, "/api/v1/users/"+learnerID, nil, adminAccess)
	assert.Equal(t, http.StatusNotFound, gone.Code)
}

func TestAuthRateLimit(t *testing.T) {
	s := newTestServer(t, 2)
	body := map[string]string{"email": "nobody@x.com", "password": "pw"}

	for i := 0; i < 2; i++ {
		w := s.do(t, http.MethodPost, "/api/v1/auth/login", body)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	}
	w := s.do(t, http.MethodPost, "/api/v1/auth/login", body)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	me := s.do(t, http.MethodGet, "/api/v1/auth/me", nil)
	assert.Equal(t, http.StatusUnauthorized, me.Code, "other routes keep their own budget")
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t, 100)

	health := s.do(t, http.MethodGet, "/api/health", nil)
	require.Equal(t, http.StatusOK, health.Code)
	checks := decode(t, health)["checks"].(map[string]any)
	assert.Equal(t, "healthy", checks["database"].(map[string]any)["status"])
	assert.Equal(t, "disabled", checks["redis"].(map[string]any)["status"])

	s.do(t, http.MethodPost, "/api/v1/auth/login", map[string]string{"email": "nobody@x.com", "password": "pw"})

	m := s.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, m.Code)
	assert.Contains(t, m.Body.String(), "auth_events_total")
}
