package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"safc/internal/apperr"
	"safc/internal/logger"
	"safc/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func okHandler(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

func serve(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) apperr.Body {
	t.Helper()
	var body apperr.Body
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
		ok      bool
	}{
		{"real ip first", map[string]string{"X-Real-IP": "1.1.1.1", "X-Forwarded-For": "2.2.2.2"}, "3.3.3.3:80", "1.1.1.1", true},
		{"first forwarded", map[string]string{"X-Forwarded-For": " 2.2.2.2 , 4.4.4.4"}, "3.3.3.3:80", "2.2.2.2", true},
		{"connection address", nil, "3.3.3.3:5555", "3.3.3.3", true},
		{"ipv6 connection", nil, "[::1]:5555", "::1", true},
		{"unidentifiable", nil, "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			ip, ok := ClientIP(req)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, ip)
		})
	}
}

func TestPostQuota(t *testing.T) {
	q := services.NewQuotaService(20, 0, logger.NewNop())
	r := gin.New()
	r.Use(PostQuota(q))
	r.POST("/api/new/comment", okHandler)
	r.GET("/api", okHandler)

	post := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/new/comment", nil)
		req.Header.Set("X-Real-IP", ip)
		return serve(r, req)
	}

	for i := 0; i < 20; i++ {
		require.Equal(t, http.StatusNoContent, post("9.9.9.9").Code, "post %d", i+1)
	}
	rec := post("9.9.9.9")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "RateLimitExceeded", decodeError(t, rec).Error.Message)

	assert.Equal(t, http.StatusNoContent, post("8.8.8.8").Code)

	get := httptest.NewRequest(http.MethodGet, "/api", nil)
	get.Header.Set("X-Real-IP", "9.9.9.9")
	assert.Equal(t, http.StatusNoContent, serve(r, get).Code, "GET is not counted")

	q.Reset()
	assert.Equal(t, http.StatusNoContent, post("9.9.9.9").Code)
}

func TestPostQuotaUnidentifiable(t *testing.T) {
	q := services.NewQuotaService(20, 0, logger.NewNop())
	r := gin.New()
	r.Use(PostQuota(q))
	r.POST("/x", okHandler)

	req := httptest.NewRequest(http.MethodPost, "/x", nil)
	req.RemoteAddr = ""
	rec := serve(r, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation_error", decodeError(t, rec).Error.Code)
}

func TestGovernor(t *testing.T) {
	r := gin.New()
	r.Use(Governor(0.0001, 2))
	r.GET("/", okHandler)

	assert.Equal(t, http.StatusNoContent, serve(r, httptest.NewRequest(http.MethodGet, "/", nil)).Code)
	assert.Equal(t, http.StatusNoContent, serve(r, httptest.NewRequest(http.MethodGet, "/", nil)).Code)
	rec := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "rate_limited", decodeError(t, rec).Error.Code)
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID(), RequestLogger(logger.NewNop()))
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(RequestIDKey))
	})

	rec := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	id := rec.Header().Get(RequestIDHeader)
	_, err := uuid.Parse(id)
	require.NoError(t, err)
	assert.Equal(t, id, rec.Body.String())

	given := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, given)
	assert.Equal(t, given, serve(r, req).Header().Get(RequestIDHeader))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "not-a-uuid")
	assert.NotEqual(t, "not-a-uuid", serve(r, req).Header().Get(RequestIDHeader))
}

func TestAdminRequired(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)

	r := gin.New()
	r.GET("/admin", AdminRequired(string(hash)), okHandler)
	r.GET("/disabled", AdminRequired(""), okHandler)

	call := func(path, token string) int {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		if token != "" {
			req.Header.Set(AdminTokenHeader, token)
		}
		return serve(r, req).Code
	}

	assert.Equal(t, http.StatusNoContent, call("/admin", "s3cret"))
	assert.Equal(t, http.StatusForbidden, call("/admin", "wrong"))
	assert.Equal(t, http.StatusUnauthorized, call("/admin", ""))
	assert.Equal(t, http.StatusNotFound, call("/disabled", "s3cret"))
}

func TestCORSAllowsAnyOrigin(t *testing.T) {
	r := gin.New()
	r.Use(CORS())
	r.GET("/api", okHandler)

	req := httptest.NewRequest(http.MethodGet, "/api", nil)
	req.Header.Set("Origin", "https://example.org")
	rec := serve(r, req)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
