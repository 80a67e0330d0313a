package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"academy/internal/domain/model"
	"academy/internal/infra/metrics"
	"academy/internal/repository"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const testSecret = "test-secret"

type mockAccountRepo struct{ mock.Mock }

func (m *mockAccountRepo) FindByID(ctx context.Context, userID int64) (model.Account, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(model.Account), args.Error(1)
}

func signToken(t *testing.T, method jwt.SigningMethod, secret string, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return tok
}

func validClaims() jwt.MapClaims {
	return jwt.MapClaims{
		"sub":  "7",
		"role": "USER",
		"tv":   float64(2),
		"exp":  time.Now().Add(time.Hour).Unix(),
	}
}

// 認証後のcontextをそのままJSONで返すハンドラ
func echoContextHandler(c echo.Context) error {
	uid, _ := UserID(c)
	return c.JSON(http.StatusOK, map[string]any{
		"user_id": uid,
		"role":    c.Get(CtxUserRoleKey),
		"locale":  c.Get(CtxLocaleKey),
	})
}

func serve(t *testing.T, h echo.HandlerFunc, authz string, mws ...echo.MiddlewareFunc) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	e.GET("/probe", h, mws...)

	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

// =====================
// AuthJWT
// =====================

func TestAuthJWT(t *testing.T) {
	good := signToken(t, jwt.SigningMethodHS256, testSecret, validClaims())

	expired := validClaims()
	expired["exp"] = time.Now().Add(-time.Minute).Unix()

	noRole := validClaims()
	delete(noRole, "role")

	tests := []struct {
		name   string
		authz  string
		status int
	}{
		{"ok", "Bearer " + good, http.StatusOK},
		{"missing header", "", http.StatusUnauthorized},
		{"not bearer", "Basic " + good, http.StatusUnauthorized},
		{"wrong secret", "Bearer " + signToken(t, jwt.SigningMethodHS256, "other", validClaims()), http.StatusUnauthorized},
		{"wrong alg", "Bearer " + signToken(t, jwt.SigningMethodHS512, testSecret, validClaims()), http.StatusUnauthorized},
		{"expired", "Bearer " + signToken(t, jwt.SigningMethodHS256, testSecret, expired), http.StatusUnauthorized},
		{"no role", "Bearer " + signToken(t, jwt.SigningMethodHS256, testSecret, noRole), http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(t, echoContextHandler, tt.authz, AuthJWT(testSecret))
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

// =====================
// AccountContext
// =====================

func TestAccountContext(t *testing.T) {
	token := "Bearer " + signToken(t, jwt.SigningMethodHS256, testSecret, validClaims())

	t.Run("sets role and locale from the account", func(t *testing.T) {
		repo := new(mockAccountRepo)
		repo.On("FindByID", mock.Anything, int64(7)).
			Return(model.Account{ID: 7, Role: model.RoleAdmin, TokenVersion: 2, Locale: "en", IsActive: true}, nil)

		rec := serve(t, echoContextHandler, token, AuthJWT(testSecret), AccountContext(repo, zap.NewNop()))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"user_id":7,"role":"ADMIN","locale":"en"}`, rec.Body.String())
	})

	t.Run("token version mismatch", func(t *testing.T) {
		repo := new(mockAccountRepo)
		repo.On("FindByID", mock.Anything, int64(7)).
			Return(model.Account{ID: 7, Role: model.RoleUser, TokenVersion: 3, IsActive: true}, nil)

		rec := serve(t, echoContextHandler, token, AuthJWT(testSecret), AccountContext(repo, zap.NewNop()))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("inactive account", func(t *testing.T) {
		repo := new(mockAccountRepo)
		repo.On("FindByID", mock.Anything, int64(7)).
			Return(model.Account{ID: 7, Role: model.RoleUser, TokenVersion: 2, IsActive: false}, nil)

		rec := serve(t, echoContextHandler, token, AuthJWT(testSecret), AccountContext(repo, zap.NewNop()))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("unknown account", func(t *testing.T) {
		repo := new(mockAccountRepo)
		repo.On("FindByID", mock.Anything, int64(7)).Return(model.Account{}, repository.ErrNotFound)

		rec := serve(t, echoContextHandler, token, AuthJWT(testSecret), AccountContext(repo, zap.NewNop()))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("db error is 500", func(t *testing.T) {
		repo := new(mockAccountRepo)
		repo.On("FindByID", mock.Anything, int64(7)).Return(model.Account{}, errors.New("db down"))

		rec := serve(t, echoContextHandler, token, AuthJWT(testSecret), AccountContext(repo, zap.NewNop()))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

// =====================
// AdminRoleGuard
// =====================

func TestAdminRoleGuard(t *testing.T) {
	token := "Bearer " + signToken(t, jwt.SigningMethodHS256, testSecret, validClaims())

	tests := []struct {
		name   string
		role   model.Role
		status int
	}{
		{"admin passes", model.RoleAdmin, http.StatusOK},
		{"user is forbidden", model.RoleUser, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(mockAccountRepo)
			repo.On("FindByID", mock.Anything, int64(7)).
				Return(model.Account{ID: 7, Role: tt.role, TokenVersion: 2, IsActive: true}, nil)

			rec := serve(t, echoContextHandler, token,
				AuthJWT(testSecret), AccountContext(repo, zap.NewNop()), AdminRoleGuard())
			assert.Equal(t, tt.status, rec.Code)
		})
	}

	t.Run("without account context", func(t *testing.T) {
		rec := serve(t, echoContextHandler, "", AdminRoleGuard())
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

// =====================
// RequestLogger
// =====================

func TestRequestLogger(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	reg := prometheus.NewRegistry()
	m := metrics.NewServerMetrics(reg, "api")

	e := echo.New()
	e.Use(RequestLogger(zap.New(core), m))
	e.GET("/ok", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })
	e.GET("/boom", func(c echo.Context) error { return echo.NewHTTPError(http.StatusBadGateway, "upstream") })

	for _, path := range []string{"/ok", "/boom"} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	}

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, int64(http.StatusNoContent), entries[0].ContextMap()["status"])
	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
	assert.Equal(t, "/boom", entries[1].ContextMap()["route"])

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Requests.WithLabelValues("/ok", "204")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Requests.WithLabelValues("/boom", "502")))
}
