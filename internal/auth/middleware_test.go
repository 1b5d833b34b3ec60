package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"gymhub/internal/access"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthMiddlewareHeaders(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name           string
		authHeader     string
		expectedStatus int
	}{
		{"Empty header", "", http.StatusUnauthorized},
		{"Invalid format", "Token abc", http.StatusUnauthorized},
		{"Empty token", "Bearer ", http.StatusUnauthorized},
		{"Garbage token", "Bearer abc.def.ghi", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			c.Request = req

			AuthMiddleware(testSecret)(c)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.True(t, c.IsAborted())
		})
	}
}

func TestAuthMiddlewareSetsIdentity(t *testing.T) {
	gin.SetMode(gin.TestMode)

	token, err := GenerateAccessToken(gymAdmin, testSecret)
	require.NoError(t, err)

	router := gin.New()
	router.Use(AuthMiddleware(testSecret))
	router.GET("/me", func(c *gin.Context) {
		identity, ok := IdentityFrom(c)
		require.True(t, ok)
		c.JSON(http.StatusOK, identity)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":"u-1","role":"GYM_ADMIN","gym_id":"g-1"}`, w.Body.String())
}

func TestRequireRole(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name           string
		identity       *access.Identity
		roles          []access.Role
		expectedStatus int
	}{
		{"no identity", nil, []access.Role{access.RoleSuperAdmin}, http.StatusUnauthorized},
		{"role matches", &access.Identity{UserID: "u", Role: access.RoleSuperAdmin}, []access.Role{access.RoleSuperAdmin}, http.StatusOK},
		{"one of many", &access.Identity{UserID: "u", Role: access.RoleMember}, []access.Role{access.RoleGymAdmin, access.RoleMember}, http.StatusOK},
		{"role mismatch", &access.Identity{UserID: "u", Role: access.RoleTrainer}, []access.Role{access.RoleSuperAdmin}, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.Use(func(c *gin.Context) {
				if tt.identity != nil {
					SetIdentity(c, *tt.identity)
				}
				c.Next()
			})
			router.GET("/", RequireRole(tt.roles...), func(c *gin.Context) {
				c.Status(http.StatusOK)
			})

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}
