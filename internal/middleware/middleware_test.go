package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"

	"github.com/javajoker/marketplace-backend/internal/models"
	"github.com/javajoker/marketplace-backend/internal/utils"
)

func TestResolveLang(t *testing.T) {
	tests := map[string]string{
		"":                        "en",
		"zh-TW,zh;q=0.9,en;q=0.8": "zh_TW",
		"zh":                      "zh_TW",
		"en-GB":                   "en",
		"fr-FR":                   "en",
	}
	for header, want := range tests {
		assert.Equal(t, want, resolveLang(header), header)
	}
}

func TestExtractResource(t *testing.T) {
	id := uuid.NewString()
	assert.Equal(t, "orders", extractResourceType("/v1/orders/"+id+"/cancel"))
	assert.Equal(t, "health", extractResourceType("/health"))
	assert.Equal(t, id, extractResourceID("/v1/orders/"+id+"/cancel"))
	assert.Empty(t, extractResourceID("/v1/cart/clear"))
}

func newTestRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/", append(handlers, func(c *gin.Context) {
		role, _ := utils.GetUserRoleFromContext(c)
		c.String(http.StatusOK, role)
	})...)
	return r
}

func serve(r *gin.Engine, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	utils.SetJWTSecret("middleware-secret")
	customer, err := utils.GenerateJWT(uuid.New(), "buyer@example.com", string(models.UserRoleCustomer), 1)
	assert.NoError(t, err)
	admin, err := utils.GenerateJWT(uuid.New(), "admin@example.com", string(models.UserRoleAdmin), 1)
	assert.NoError(t, err)

	required := newTestRouter(AuthRequired())
	assert.Equal(t, http.StatusUnauthorized, serve(required, "").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(required, "garbage").Code)
	w := serve(required, customer)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "customer", w.Body.String())

	adminOnly := newTestRouter(AuthRequired(), AdminRequired())
	assert.Equal(t, http.StatusForbidden, serve(adminOnly, customer).Code)
	assert.Equal(t, http.StatusOK, serve(adminOnly, admin).Code)

	vendorOnly := newTestRouter(AuthRequired(), RoleRequired(models.UserRoleVendor))
	assert.Equal(t, http.StatusForbidden, serve(vendorOnly, customer).Code)
	assert.Equal(t, http.StatusOK, serve(vendorOnly, admin).Code)

	optional := newTestRouter(OptionalAuth())
	assert.Equal(t, http.StatusOK, serve(optional, "garbage").Code)
	assert.Equal(t, "customer", serve(optional, customer).Body.String())
}

func TestRateLimiter(t *testing.T) {
	limiter := NewRateLimiter(rate.Every(time.Hour), 2)
	r := newTestRouter(limiter.Middleware())

	assert.Equal(t, http.StatusOK, serve(r, "").Code)
	assert.Equal(t, http.StatusOK, serve(r, "").Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(r, "").Code)

	disabled := NewRateLimits(false)
	open := newTestRouter(disabled.Auth())
	for i := 0; i < 10; i++ {
		assert.Equal(t, http.StatusOK, serve(open, "").Code)
	}
}
