package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestSanitizeQuestion(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"What is this site?", "What is this site"},
		{"hello <script>alert('x')</script>", "hello scriptalertxscript"},
		{"keep, punctuation. fine?", "keep, punctuation. fine"},
		{"  spaced   out  ", "spaced out"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, sanitizeQuestion(tc.in), "input %q", tc.in)
	}
}

func TestSanitizeQuestionCapsWordCount(t *testing.T) {
	long := strings.Repeat("word ", 150)
	got := sanitizeQuestion(long)
	assert.Len(t, strings.Fields(got), maxQueryWords)
}

func TestRequireAPIKey(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequireAPIKey("secret"))
	router.GET("/guarded", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true})
	})

	cases := []struct {
		name string
		key  string
		want int
	}{
		{"valid key", "secret", http.StatusOK},
		{"wrong key", "nope", http.StatusUnauthorized},
		{"missing key", "", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
			if tc.key != "" {
				req.Header.Set("X-API-Key", tc.key)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			assert.Equal(t, tc.want, w.Code)
		})
	}
}

func TestRequireAPIKeyRejectsWhenUnconfigured(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequireAPIKey(""))
	router.GET("/guarded", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true})
	})

	req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
