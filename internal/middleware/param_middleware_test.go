package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupParamRouter() (*gin.Engine, *uint) {
	gin.SetMode(gin.TestMode)
	var captured uint

	router := gin.New()
	router.GET("/quizzes/:id", ExtractUintParam("id", "quizID"), func(c *gin.Context) {
		captured = c.MustGet("quizID").(uint)
		c.Status(http.StatusOK)
	})
	return router, &captured
}

func TestExtractUintParam_Valid(t *testing.T) {
	// Arrange
	router, captured := setupParamRouter()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/quizzes/42", nil)

	// Act
	router.ServeHTTP(w, req)

	// Assert
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, uint(42), *captured)
}

func TestExtractUintParam_Invalid(t *testing.T) {
	// Arrange
	router, _ := setupParamRouter()

	for _, id := range []string{"abc", "-1", "1.5"} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/quizzes/"+id, nil)

		// Act
		router.ServeHTTP(w, req)

		// Assert
		require.Equal(t, http.StatusBadRequest, w.Code, "id=%q должен отклоняться", id)
	}
}
