package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"storefront/jwt"
	"storefront/logger"
	"storefront/models"
	"storefront/services"
	"storefront/testutil"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestHostTenant(t *testing.T) {
	tests := map[string]string{
		"acme.shop.example.com": "acme",
		"acme.example.com:8080": "acme",
		"example.com":           "",
		"localhost:3000":        "",
		"127.0.0.1:3000":        "",
		"[::1]:3000":            "",
	}
	for host, want := range tests {
		assert.Equal(t, want, hostTenant(host), host)
	}
}

func tenantRouter(t *testing.T) *gin.Engine {
	t.Helper()

	db := testutil.SetupTestDB(t)
	testutil.CreateTenant(t, db, "default")
	testutil.CreateTenant(t, db, "acme")

	router := gin.New()
	router.Use(TenantMiddleware(services.NewTenantService(db), "default", logger.Discard()))
	router.GET("/", func(c *gin.Context) {
		tenant := c.MustGet(KeyTenant).(*models.Tenant)
		c.String(http.StatusOK, tenant.Slug)
	})
	return router
}

func TestTenantMiddleware(t *testing.T) {
	router := tenantRouter(t)

	tests := []struct {
		name   string
		host   string
		header string
		status int
		slug   string
	}{
		{"header wins", "other.example.com", "acme", http.StatusOK, "acme"},
		{"unknown header", "acme.example.com", "ghost", http.StatusNotFound, ""},
		{"subdomain", "acme.example.com", "", http.StatusOK, "acme"},
		{"unknown subdomain falls back", "ghost.example.com", "", http.StatusOK, "default"},
		{"bare host", "localhost:3000", "", http.StatusOK, "default"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Host = tt.host
			if tt.header != "" {
				req.Header.Set(TenantHeader, tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			if tt.slug != "" {
				assert.Equal(t, tt.slug, w.Body.String())
			}
		})
	}
}

func TestAuthAndPermissionMiddleware(t *testing.T) {
	db := testutil.SetupTestDB(t)
	privateKey, publicKey := testutil.GenerateKeyPair(t)
	tokens := jwt.NewManager(privateKey, publicKey, time.Hour, db)

	router := gin.New()
	router.Use(AuthMiddleware(tokens, logger.Discard()))
	router.GET("/me", CheckLoginMiddleware(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"userID": c.GetUint(KeyUserID)})
	})
	router.GET("/admin", CheckLoginMiddleware(), CheckAdminPermissionMiddleware(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	userToken, _, err := tokens.IssueToken(context.Background(), 1, models.RoleUser)
	require.NoError(t, err)
	adminToken, _, err := tokens.IssueToken(context.Background(), 2, models.RoleAdmin)
	require.NoError(t, err)

	request := func(path, token string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusUnauthorized, request("/me", "").Code)
	assert.Equal(t, http.StatusUnauthorized, request("/me", "garbage").Code)

	w := request("/me", userToken)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"userID":1}`, w.Body.String())

	assert.Equal(t, http.StatusUnauthorized, request("/admin", "").Code)
	assert.Equal(t, http.StatusForbidden, request("/admin", userToken).Code)
	assert.Equal(t, http.StatusNoContent, request("/admin", adminToken).Code)

	require.NoError(t, tokens.RevokeToken(context.Background(), userToken))
	assert.Equal(t, http.StatusUnauthorized, request("/me", userToken).Code)
}
