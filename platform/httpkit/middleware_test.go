package httpkit

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"power_dialer_backend/platform/apperr"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubConfig struct {
	jwtSecret  string
	cronSecret string
}

func (s stubConfig) GetJWTAccessSecret() string   { return s.jwtSecret }
func (s stubConfig) GetInternalAPISecret() string { return s.cronSecret }

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(engine *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestHandleErrorMapsKinds(t *testing.T) {
	engine := gin.New()
	engine.GET("/conflict", func(c *gin.Context) {
		HandleError(c, apperr.Conflict("zone already locked"))
	})
	engine.GET("/plain", func(c *gin.Context) {
		HandleError(c, errors.New("connection refused"))
	})

	rec := serve(engine, httptest.NewRequest(http.MethodGet, "/conflict", nil))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "zone already locked")

	rec = serve(engine, httptest.NewRequest(http.MethodGet, "/plain", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection refused")
}

func TestCronSecret(t *testing.T) {
	engine := gin.New()
	engine.GET("/cron", CronSecret(stubConfig{cronSecret: "s3cret"}), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	rec := serve(engine, httptest.NewRequest(http.MethodGet, "/cron", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/cron", nil)
	req.Header.Set(CronSecretHeader, "s3cret")
	rec = serve(engine, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestCronSecretOpenWhenUnset(t *testing.T) {
	engine := gin.New()
	engine.GET("/cron", CronSecret(stubConfig{}), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	rec := serve(engine, httptest.NewRequest(http.MethodGet, "/cron", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestAuthRequiredAndRole(t *testing.T) {
	cfg := stubConfig{jwtSecret: "jwt-secret"}
	engine := gin.New()
	engine.GET("/admin", AuthRequired(cfg), RequireRole("supervisor"), func(c *gin.Context) {
		c.String(http.StatusOK, CallerFrom(c).Subject)
	})

	rec := serve(engine, httptest.NewRequest(http.MethodGet, "/admin", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	agentToken := signToken(t, cfg.jwtSecret, jwt.MapClaims{
		"sub": "agent-7", "type": "access", "roles": []string{"agent"},
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+agentToken)
	rec = serve(engine, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	supervisorToken := signToken(t, cfg.jwtSecret, jwt.MapClaims{
		"sub": "sup-1", "type": "access", "roles": []string{"supervisor"},
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+supervisorToken)
	rec = serve(engine, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "sup-1", rec.Body.String())

	refreshToken := signToken(t, cfg.jwtSecret, jwt.MapClaims{
		"sub": "sup-1", "type": "refresh", "roles": []string{"supervisor"},
	})
	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+refreshToken)
	rec = serve(engine, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestNextLeadRateLimiter(t *testing.T) {
	limiter := NewNextLeadRateLimiter(6, nil)
	engine := gin.New()
	engine.POST("/next", limiter.RateLimit(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	first := serve(engine, httptest.NewRequest(http.MethodPost, "/next", nil))
	second := serve(engine, httptest.NewRequest(http.MethodPost, "/next", nil))
	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
}
