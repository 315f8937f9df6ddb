package middlewares

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"backend/utils"

	"github.com/gin-gonic/gin"
)

func newAuthTestRouter(secret string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/whoami", AuthMiddleware(secret), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": c.GetString("userID")})
	})
	return r
}

func TestAuthMiddlewareAcceptsValidToken(t *testing.T) {
	t.Parallel()

	token, err := utils.GenerateJWT("secret", "user-123")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	r := newAuthTestRouter("secret")
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if body := w.Body.String(); !strings.Contains(body, "user-123") {
		t.Fatalf("expected user id in response, got %s", body)
	}
}

func TestAuthMiddlewareRejectsMissingAndForgedTokens(t *testing.T) {
	t.Parallel()

	r := newAuthTestRouter("secret")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/whoami", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without header, got %d", w.Code)
	}

	forged, err := utils.GenerateJWT("other-secret", "user-123")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+forged)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for forged token, got %d", w.Code)
	}
}
