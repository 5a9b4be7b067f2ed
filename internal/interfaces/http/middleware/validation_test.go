package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slotbook/backend/internal/interfaces/http/dto"
)

type signupRequest struct {
	BusinessName string `json:"business_name" binding:"required,max=200"`
	Slug         string `json:"slug" binding:"omitempty,slug"`
	Phone        string `json:"phone" binding:"omitempty,phone"`
	Tier         string `json:"tier" binding:"omitempty,tier_key"`
}

func validationRouter() *gin.Engine {
	SetupValidator()
	router := gin.New()
	router.POST("/signup", func(c *gin.Context) {
		var req signupRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.Status(http.StatusOK)
	})
	return router
}

func postJSON(router http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestSetupValidator_CustomTags(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := validationRouter()

	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"valid", `{"business_name":"Sky Spa","slug":"sky-spa","phone":"555-0100","tier":"pro"}`, ""},
		{"missing name", `{"slug":"sky-spa"}`, "business_name"},
		{"reserved slug", `{"business_name":"A","slug":"admin"}`, "slug"},
		{"uppercase slug", `{"business_name":"A","slug":"Sky"}`, "slug"},
		{"short phone", `{"business_name":"A","phone":"12-3"}`, "phone"},
		{"unknown tier", `{"business_name":"A","tier":"platinum"}`, "tier"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postJSON(router, "/signup", tt.body)
			if tt.field == "" {
				assert.Equal(t, http.StatusOK, w.Code)
				return
			}

			assert.Equal(t, http.StatusBadRequest, w.Code)
			var resp dto.Response
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			require.NotNil(t, resp.Error)
			assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
			require.Len(t, resp.Error.Details, 1)
			assert.Equal(t, tt.field, resp.Error.Details[0].Field)
		})
	}
}

func TestFormatValidationErrors_NonValidatorError(t *testing.T) {
	resp := FormatValidationErrors(assert.AnError, "req-1")

	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "req-1", resp.Error.RequestID)
	assert.Empty(t, resp.Error.Details)
}
