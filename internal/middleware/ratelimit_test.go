package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"facturas/internal/middleware"
)

func setupLimitedRouter(rl *middleware.RateLimiter) *gin.Engine {
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if id := c.GetHeader("X-Test-User"); id != "" {
			c.Set(middleware.ContextKeyUserID, uuid.MustParse(id))
		}
		c.Next()
	})
	r.POST("/extract", rl.Middleware(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func doExtract(r *gin.Engine, userID string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/extract", http.NoBody)
	if userID != "" {
		req.Header.Set("X-Test-User", userID)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimiter_SecondRequestRejected(t *testing.T) {
	r := setupLimitedRouter(middleware.NewRateLimiter(15, 1))
	user := uuid.New().String()

	first := doExtract(r, user)
	second := doExtract(r, user)

	assert.Equal(t, http.StatusOK, first.Code)
	require.Equal(t, http.StatusTooManyRequests, second.Code)
	secs, err := strconv.Atoi(second.Header().Get("Retry-After"))
	require.NoError(t, err)
	assert.InDelta(t, 4, secs, 1)
	assert.Contains(t, second.Body.String(), "RATE_LIMITED")
}

func TestRateLimiter_UsersHaveSeparateBudgets(t *testing.T) {
	r := setupLimitedRouter(middleware.NewRateLimiter(15, 1))

	assert.Equal(t, http.StatusOK, doExtract(r, uuid.New().String()).Code)
	assert.Equal(t, http.StatusOK, doExtract(r, uuid.New().String()).Code)
}

func TestRateLimiter_Burst(t *testing.T) {
	r := setupLimitedRouter(middleware.NewRateLimiter(60, 3))
	user := uuid.New().String()

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, doExtract(r, user).Code, "request %d", i)
	}
	assert.Equal(t, http.StatusTooManyRequests, doExtract(r, user).Code)
}

func TestRateLimiter_AnonymousKeyedByIP(t *testing.T) {
	r := setupLimitedRouter(middleware.NewRateLimiter(0, 0))

	assert.Equal(t, http.StatusOK, doExtract(r, "").Code)
	assert.Equal(t, http.StatusTooManyRequests, doExtract(r, "").Code)
}
