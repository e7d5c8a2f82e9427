package middleware_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"facturaia/internal/domain"
	"facturaia/internal/middleware"
	"facturaia/internal/service"
	"facturaia/mocks"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestAuthMiddleware_ValidTokenSetsActor(t *testing.T) {
	mockAuth := new(mocks.MockAuthService)
	companyID := uuid.New()
	claims := &service.Claims{
		UserID:    uuid.New(),
		CompanyID: &companyID,
		Role:      domain.RoleAccountant,
		Email:     "ana@acme.mx",
	}
	mockAuth.On("ValidateToken", "valid-token").Return(claims, nil)

	var got domain.Actor
	r := gin.New()
	r.Use(middleware.AuthMiddleware(mockAuth))
	r.GET("/test", func(c *gin.Context) {
		var err error
		got, err = middleware.GetActor(c)
		require.NoError(t, err)
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/test", http.NoBody)
	req.Header.Set("Authorization", "Bearer valid-token")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, claims.UserID, got.UserID)
	require.NotNil(t, got.CompanyID)
	assert.Equal(t, companyID, *got.CompanyID)
	assert.Equal(t, domain.RoleAccountant, got.Role)
}

func TestAuthMiddleware_Rejects(t *testing.T) {
	mockAuth := new(mocks.MockAuthService)
	mockAuth.On("ValidateToken", "expired").Return(nil, errors.New("token expired"))

	r := gin.New()
	r.Use(middleware.AuthMiddleware(mockAuth))
	r.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

	for name, header := range map[string]string{
		"missing header": "",
		"wrong scheme":   "Basic abc",
		"invalid token":  "Bearer expired",
	} {
		t.Run(name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req, _ := http.NewRequest(http.MethodGet, "/test", http.NoBody)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			r.ServeHTTP(w, req)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestRequireRole(t *testing.T) {
	build := func(role string) *gin.Engine {
		r := gin.New()
		r.Use(func(c *gin.Context) {
			if role != "" {
				c.Set(middleware.ContextKeyRole, role)
			}
		})
		r.GET("/test", middleware.RequireRole(domain.RoleSuperAdmin, domain.RoleAdmin), func(c *gin.Context) {
			c.Status(http.StatusOK)
		})
		return r
	}

	tests := []struct {
		role string
		want int
	}{
		{"super_admin", http.StatusOK},
		{"admin", http.StatusOK},
		{"accountant", http.StatusForbidden},
		{"", http.StatusForbidden},
	}
	for _, tt := range tests {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, "/test", http.NoBody)
		build(tt.role).ServeHTTP(w, req)
		assert.Equal(t, tt.want, w.Code, "role %q", tt.role)
	}
}

func TestGetActor_Missing(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	_, err := middleware.GetActor(c)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Logger())
	r.GET("/test", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(middleware.ContextKeyRequestID))
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/test", http.NoBody)
	r.ServeHTTP(w, req)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	assert.Equal(t, w.Header().Get("X-Request-ID"), w.Body.String())

	w = httptest.NewRecorder()
	req, _ = http.NewRequest(http.MethodGet, "/test", http.NoBody)
	req.Header.Set("X-Request-ID", "abc-123")
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get("X-Request-ID"))
}

func TestCORS(t *testing.T) {
	r := gin.New()
	r.Use(middleware.CORS([]string{"https://app.facturaia.mx"}))
	r.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

	t.Run("allowed origin", func(t *testing.T) {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, "/test", http.NoBody)
		req.Header.Set("Origin", "https://app.facturaia.mx")
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "https://app.facturaia.mx", w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("preflight", func(t *testing.T) {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodOptions, "/test", http.NoBody)
		req.Header.Set("Origin", "https://app.facturaia.mx")
		req.Header.Set("Access-Control-Request-Method", http.MethodGet)
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "PATCH")
	})

	t.Run("foreign origin", func(t *testing.T) {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, "/test", http.NoBody)
		req.Header.Set("Origin", "https://evil.example")
		r.ServeHTTP(w, req)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("no origin header", func(t *testing.T) {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, "/test", http.NoBody)
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestCompanyGuard(t *testing.T) {
	companyID := uuid.New()
	tests := []struct {
		name  string
		actor *domain.Actor
		want  int
	}{
		{"super admin without company", &domain.Actor{Role: domain.RoleSuperAdmin}, http.StatusOK},
		{"user with company", &domain.Actor{Role: domain.RoleUser, CompanyID: &companyID}, http.StatusOK},
		{"user without company", &domain.Actor{Role: domain.RoleUser}, http.StatusForbidden},
		{"no actor", nil, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.Use(func(c *gin.Context) {
				if tt.actor != nil {
					c.Set(middleware.ContextKeyActor, *tt.actor)
				}
			})
			r.GET("/test", middleware.CompanyGuard(), func(c *gin.Context) { c.Status(http.StatusOK) })

			w := httptest.NewRecorder()
			req, _ := http.NewRequest(http.MethodGet, "/test", http.NoBody)
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}
