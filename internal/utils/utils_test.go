package utils

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetPaginationParamsWithDefaults(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name  string
		query string
		want  PaginationParams
	}{
		{"defaults", "", PaginationParams{Page: 1, Limit: 12, Sort: "newest", Order: "desc"}},
		{"explicit", "?page=3&limit=5&sort=price_low&order=asc&search=shirt", PaginationParams{Page: 3, Limit: 5, Sort: "price_low", Order: "asc", Search: "shirt"}},
		{"out of range", "?page=-2&limit=500&order=sideways", PaginationParams{Page: 1, Limit: 12, Sort: "newest", Order: "desc"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest("GET", "/products"+tt.query, nil)

			assert.Equal(t, tt.want, GetPaginationParamsWithDefaults(c, 12, "newest"))
		})
	}
}

func TestCreatePaginationResult(t *testing.T) {
	result := CreatePaginationResult([]int{1, 2}, 25, PaginationParams{Page: 2, Limit: 10})

	assert.Equal(t, 3, result.TotalPages)
	assert.True(t, result.HasNextPage)
	assert.True(t, result.HasPrevPage)

	last := CreatePaginationResult(nil, 25, PaginationParams{Page: 3, Limit: 10})
	assert.False(t, last.HasNextPage)

	empty := CreatePaginationResult(nil, 0, PaginationParams{Page: 1, Limit: 10})
	assert.Equal(t, 0, empty.TotalPages)
	assert.False(t, empty.HasNextPage)
	assert.False(t, empty.HasPrevPage)
}

func TestValidateStruct(t *testing.T) {
	type request struct {
		Email    string `validate:"required,email"`
		Password string `validate:"required,strong_password"`
		Quantity int    `validate:"min=1"`
	}

	assert.NoError(t, ValidateStruct(&request{Email: "a@b.co", Password: "Secret123", Quantity: 1}))

	errs := GetValidationErrors(ValidateStruct(&request{Email: "nope", Password: "weak", Quantity: 0}))
	require.Len(t, errs, 3)

	fields := make([]string, 0, len(errs))
	for _, e := range errs {
		fields = append(fields, e.Field)
	}
	assert.ElementsMatch(t, []string{"email", "password", "quantity"}, fields)
}

func TestJWTRoundTrip(t *testing.T) {
	SetJWTSecret("test-secret")
	userID := uuid.New()

	token, err := GenerateJWT(userID, "jane@example.com", "customer", 1)
	require.NoError(t, err)

	claims, err := ValidateJWT(token)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), claims.UserID)
	assert.Equal(t, "customer", claims.Role)

	refresh, err := GenerateRefreshToken(userID, 1)
	require.NoError(t, err)

	subject, err := ValidateRefreshToken(refresh)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), subject)

	_, err = ValidateRefreshToken(token)
	assert.Error(t, err, "access tokens must not refresh")

	_, err = ValidateJWT(refresh)
	assert.Error(t, err, "refresh tokens must not authenticate")
}

func TestGenerateReference(t *testing.T) {
	ref, err := GenerateReference("pay_")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(ref, "pay_"))
	assert.Len(t, ref, 28)
}
