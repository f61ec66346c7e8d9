package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhanserikAmangeldi/apex-be/auth-service/internal/dto"
	"github.com/zhanserikAmangeldi/apex-be/auth-service/internal/middleware"
	"github.com/zhanserikAmangeldi/apex-be/auth-service/internal/repository"
	"github.com/zhanserikAmangeldi/apex-be/auth-service/internal/service"
	"github.com/zhanserikAmangeldi/apex-be/auth-service/pkg/jwt"
	"github.com/zhanserikAmangeldi/apex-be/auth-service/pkg/password"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type inbox struct {
	mu     sync.Mutex
	tokens map[string][]string
}

func (b *inbox) SendVerificationEmail(_ context.Context, to, token string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tokens[to] = append(b.tokens[to], token)
	return nil
}

func (b *inbox) latest(to string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	list := b.tokens[to]
	if len(list) == 0 {
		return ""
	}
	return list[len(list)-1]
}

type testServer struct {
	router *gin.Engine
	inbox  *inbox
	now    time.Time
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ts := &testServer{
		inbox: &inbox{tokens: map[string][]string{}},
		now:   time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC),
	}

	tm := jwt.NewTokenManager(jwt.TokenManagerConfig{SecretKey: "test-secret"})
	svc := service.NewAuthService(
		repository.NewMemoryStore(),
		password.NewBcryptHasher(4),
		tm,
		ts.inbox,
		service.DefaultConfig(),
	).WithClock(func() time.Time { return ts.now })

	authHandler := NewAuthHandler(svc)
	userHandler := NewUserHandler(svc)

	r := gin.New()
	r.Use(middleware.RecoveryWithLogger(), middleware.RequestLogger())
	r.GET("/health", Health)
	v1 := r.Group("/api/v1")
	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.GET("/verify", authHandler.VerifyEmail)
	auth.GET("/verify-email", authHandler.VerifyEmail)
	users := v1.Group("/users", middleware.NewAuthMiddleware(tm).RequireAuth())
	users.GET("/me", userHandler.GetMe)

	ts.router = r
	return ts
}

func (ts *testServer) do(t *testing.T, method, path, body, bearer string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)

	out := map[string]any{}
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	}
	return w, out
}

const creds = `{"email":"a@x.com","password":"pw1"}`

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	w, body := ts.do(t, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", body["status"])
}

func TestRegisterEndpoint(t *testing.T) {
	ts := newTestServer(t)

	w, body := ts.do(t, http.MethodPost, "/api/v1/auth/register", creds, "")
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, service.MsgRegistered, body["message"])
	assert.NotEmpty(t, ts.inbox.latest("a@x.com"))

	w, body = ts.do(t, http.MethodPost, "/api/v1/auth/register", creds, "")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "duplicate_account", body["error"])
}

func TestRegisterValidation(t *testing.T) {
	ts := newTestServer(t)

	w, body := ts.do(t, http.MethodPost, "/api/v1/auth/register", `{"email":"not-an-email","password":""}`, "")
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "validation_error", body["error"])
	fields, ok := body["fields"].([]any)
	require.True(t, ok)
	assert.Len(t, fields, 2)

	w, _ = ts.do(t, http.MethodPost, "/api/v1/auth/register", `{not json`, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLoginFlow(t *testing.T) {
	ts := newTestServer(t)
	ts.do(t, http.MethodPost, "/api/v1/auth/register", creds, "")

	w, body := ts.do(t, http.MethodPost, "/api/v1/auth/login", `{"email":"a@x.com","password":"bad"}`, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "invalid_credentials", body["error"])

	w, body = ts.do(t, http.MethodPost, "/api/v1/auth/login", creds, "")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "verification_pending", body["error"])
	assert.EqualValues(t, 5, body["remaining_minutes"])

	first := ts.inbox.latest("a@x.com")
	ts.now = ts.now.Add(6 * time.Minute)

	w, body = ts.do(t, http.MethodPost, "/api/v1/auth/login", creds, "")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "verification_resent", body["error"])
	second := ts.inbox.latest("a@x.com")
	assert.NotEqual(t, first, second)

	w, body = ts.do(t, http.MethodGet, "/api/v1/auth/verify-email?token="+first, "", "")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "token_already_used", body["error"])

	w, body = ts.do(t, http.MethodGet, "/api/v1/auth/verify?token="+second, "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, service.MsgVerified, body["message"])

	w, body = ts.do(t, http.MethodPost, "/api/v1/auth/login", creds, "")
	require.Equal(t, http.StatusOK, w.Code)
	session, _ := body["token"].(string)
	require.NotEmpty(t, session)

	w, body = ts.do(t, http.MethodGet, "/api/v1/users/me", "", session)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "a@x.com", body["email"])
	assert.Equal(t, true, body["is_verified"])
	assert.NotContains(t, body, "password_hash")
}

func TestVerifyEndpointErrors(t *testing.T) {
	ts := newTestServer(t)

	w, body := ts.do(t, http.MethodGet, "/api/v1/auth/verify-email", "", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "validation_error", body["error"])

	w, body = ts.do(t, http.MethodGet, "/api/v1/auth/verify-email?token=nope", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "token_not_found", body["error"])

	ts.do(t, http.MethodPost, "/api/v1/auth/register", creds, "")
	ts.now = ts.now.Add(11 * time.Minute)
	w, body = ts.do(t, http.MethodGet, "/api/v1/auth/verify-email?token="+ts.inbox.latest("a@x.com"), "", "")
	assert.Equal(t, http.StatusGone, w.Code)
	assert.Equal(t, "token_expired", body["error"])
}

func TestGetMeRequiresAuth(t *testing.T) {
	ts := newTestServer(t)

	w, body := ts.do(t, http.MethodGet, "/api/v1/users/me", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "unauthorized", body["error"])

	tm := jwt.NewTokenManager(jwt.TokenManagerConfig{SecretKey: "test-secret"})
	ghost, err := tm.GenerateToken("ghost@x.com")
	require.NoError(t, err)
	w, body = ts.do(t, http.MethodGet, "/api/v1/users/me", "", ghost)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "user_not_found", body["error"])
}

func TestWriteServiceErrorFallsBackToInternal(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	writeServiceError(c, assert.AnError)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var resp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "internal_error", resp.Error)
	assert.NotContains(t, resp.Message, assert.AnError.Error())
}
