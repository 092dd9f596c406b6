package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/AnTengye/jurieasy/config"
	"github.com/AnTengye/jurieasy/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testAuthConfig() *config.AuthConfig {
	return &config.AuthConfig{JWTSecret: "test-secret-key", TokenExpireHours: 24}
}

func TestGenerateToken(t *testing.T) {
	cfg := testAuthConfig()

	token, expiresAt, err := GenerateToken("maria", "acme", cfg)
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}

	expectedExpiry := time.Now().Add(24 * time.Hour)
	if expiresAt.Before(expectedExpiry.Add(-time.Minute)) || expiresAt.After(expectedExpiry.Add(time.Minute)) {
		t.Errorf("Expiry time %v is not within expected range of %v", expiresAt, expectedExpiry)
	}

	claims, err := ParseToken(token, cfg)
	if err != nil {
		t.Fatalf("ParseToken failed: %v", err)
	}
	if claims.Username != "maria" || claims.Tenant != "acme" || claims.Subject != "maria" {
		t.Errorf("Unexpected claims %+v", claims)
	}

	if _, err := ParseToken(token, &config.AuthConfig{JWTSecret: "other"}); err == nil {
		t.Error("Expected token signed with another secret to fail")
	}
}

func TestAuthMiddleware(t *testing.T) {
	cfg := testAuthConfig()
	token, _, err := GenerateToken("maria", "acme", cfg)
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}

	tests := []struct {
		name           string
		path           string
		headers        map[string]string
		expectedStatus int
	}{
		{"valid token", "/test", map[string]string{"Authorization": "Bearer " + token}, http.StatusOK},
		{"missing header", "/test", nil, http.StatusUnauthorized},
		{"invalid format", "/test", map[string]string{"Authorization": token}, http.StatusUnauthorized},
		{"invalid token", "/test", map[string]string{"Authorization": "Bearer invalid.token.here"}, http.StatusUnauthorized},
		{"query token on websocket upgrade", "/test?token=" + token, map[string]string{"Upgrade": "websocket"}, http.StatusOK},
		{"query token on plain request", "/test?token=" + token, nil, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.Use(AuthMiddleware(cfg))
			router.GET("/test", func(c *gin.Context) {
				ctx := c.Request.Context()
				c.JSON(http.StatusOK, gin.H{
					"username":   GetUsername(c),
					"tenant":     GetTenant(c),
					"ctx_tenant": ctx.Value(logger.TenantKey),
				})
			})

			req := httptest.NewRequest("GET", tt.path, nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d", tt.expectedStatus, w.Code)
			}
			if w.Code == http.StatusOK && w.Body.String() != `{"ctx_tenant":"acme","tenant":"acme","username":"maria"}` {
				t.Errorf("Unexpected body %s", w.Body.String())
			}
		})
	}
}

func TestAuthMiddlewareExpiredToken(t *testing.T) {
	cfg := testAuthConfig()

	claims := Claims{
		Username: "maria",
		Tenant:   "acme",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
		},
	}
	tokenString, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.JWTSecret))

	router := gin.New()
	router.Use(AuthMiddleware(cfg))
	router.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "ok"})
	})

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("Authorization", "Bearer "+tokenString)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status %d for expired token, got %d", http.StatusUnauthorized, w.Code)
	}
}

func TestGetUsernameAndTenant(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	if GetUsername(c) != "" || GetTenant(c) != "" {
		t.Error("Expected empty strings for unset values")
	}

	c.Set("username", "maria")
	c.Set("tenant", "acme")
	if GetUsername(c) != "maria" || GetTenant(c) != "acme" {
		t.Errorf("Expected maria/acme, got %s/%s", GetUsername(c), GetTenant(c))
	}
}
