package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/quiz-api/internal/domain/entity"
	"github.com/yourusername/quiz-api/pkg/auth"
)

func setupAuthRouter(t *testing.T) (*gin.Engine, *auth.JWTService) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	jwtService, err := auth.NewJWTService("test-secret", 1)
	require.NoError(t, err)

	authMiddleware := NewAuthMiddleware(jwtService)

	router := gin.New()
	router.GET("/protected", authMiddleware.RequireAdmin(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"admin_id":       c.MustGet("admin_id"),
			"admin_username": c.MustGet("admin_username"),
		})
	})
	return router, jwtService
}

func TestRequireAdmin_MissingHeader(t *testing.T) {
	// Arrange
	router, _ := setupAuthRouter(t)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)

	// Act
	router.ServeHTTP(w, req)

	// Assert
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "token_missing")
}

func TestRequireAdmin_BadFormat(t *testing.T) {
	// Arrange
	router, _ := setupAuthRouter(t)

	for _, header := range []string{"Basic abc", "Bearer", "Bearer a b"} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", header)

		// Act
		router.ServeHTTP(w, req)

		// Assert
		require.Equal(t, http.StatusUnauthorized, w.Code, "заголовок %q должен отклоняться", header)
		assert.Contains(t, w.Body.String(), "token_format")
	}
}

func TestRequireAdmin_InvalidToken(t *testing.T) {
	// Arrange
	router, _ := setupAuthRouter(t)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer not-a-real-token")

	// Act
	router.ServeHTTP(w, req)

	// Assert
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "token_invalid")
}

func TestRequireAdmin_ValidToken(t *testing.T) {
	// Arrange
	router, jwtService := setupAuthRouter(t)

	token, err := jwtService.GenerateToken(&entity.Admin{ID: 7, Username: "admin"})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	// Act
	router.ServeHTTP(w, req)

	// Assert: данные администратора попадают в контекст запроса
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"admin_username":"admin"`)
	assert.Contains(t, w.Body.String(), `"admin_id":7`)
}
