package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slotbook/backend/internal/domain/billing"
	"github.com/slotbook/backend/internal/domain/shared"
	"github.com/slotbook/backend/internal/infrastructure/auth"
	"github.com/slotbook/backend/internal/infrastructure/logger"
	"github.com/slotbook/backend/internal/interfaces/http/dto"
	"github.com/slotbook/backend/internal/interfaces/http/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

// setIdentity simulates a request that passed the JWT middleware
func setIdentity(c *gin.Context, identityID uuid.UUID, email, phone string) {
	c.Set(middleware.JWTIdentityIDKey, identityID)
	c.Set(middleware.JWTClaimsKey, &auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: identityID.String()},
		Email:            email,
		Phone:            phone,
	})
}

// setMerchant simulates a request that passed RequireMerchant
func setMerchant(c *gin.Context, identityID, merchantID uuid.UUID) {
	setIdentity(c, identityID, "", "")
	c.Set(middleware.MerchantIDKey, merchantID)
}

// jsonRequest builds a request with a JSON body; body may be a string or a value to marshal
func jsonRequest(t *testing.T, method, path string, body any) *http.Request {
	t.Helper()
	var raw []byte
	switch b := body.(type) {
	case nil:
	case string:
		raw = []byte(b)
	default:
		var err error
		raw, err = json.Marshal(b)
		require.NoError(t, err)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// decode unmarshals the envelope and, when data is non-nil, its data field
func decode(t *testing.T, w *httptest.ResponseRecorder, data any) dto.Response {
	t.Helper()
	var envelope struct {
		dto.Response
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	if data != nil {
		require.NoError(t, json.Unmarshal(envelope.Data, data))
	}
	return envelope.Response
}

func TestGetRequestID(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, getRequestID(c))

	c.Set(logger.GinRequestIDKey, "req-1")
	assert.Equal(t, "req-1", getRequestID(c))
}

func TestBaseHandlerSuccess(t *testing.T) {
	h := &BaseHandler{}
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	h.Success(c, map[string]string{"key": "value"})

	assert.Equal(t, http.StatusOK, w.Code)
	var data map[string]string
	resp := decode(t, w, &data)
	assert.True(t, resp.Success)
	assert.Equal(t, "value", data["key"])
}

func TestBaseHandlerSuccessWithMeta(t *testing.T) {
	h := &BaseHandler{}
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	h.SuccessWithMeta(c, []string{"a", "b"}, 21, 2, 10)

	resp := decode(t, w, nil)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, int64(21), resp.Meta.Total)
	assert.Equal(t, 2, resp.Meta.Page)
	assert.Equal(t, 3, resp.Meta.TotalPages)
}

func TestBaseHandlerCreatedAndNoContent(t *testing.T) {
	h := &BaseHandler{}
	router := gin.New()
	router.POST("/x", func(c *gin.Context) { h.Created(c, gin.H{"id": "1"}) })
	router.DELETE("/x", func(c *gin.Context) { h.NoContent(c) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/x", nil))
	assert.Equal(t, http.StatusCreated, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/x", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.Bytes())
}

func TestBaseHandlerErrorMethods(t *testing.T) {
	tests := []struct {
		name         string
		method       func(*BaseHandler, *gin.Context)
		expectedCode int
		expectedErr  string
	}{
		{"BadRequest", func(h *BaseHandler, c *gin.Context) { h.BadRequest(c, "bad") }, http.StatusBadRequest, dto.ErrCodeBadRequest},
		{"Forbidden", func(h *BaseHandler, c *gin.Context) { h.Forbidden(c, "no") }, http.StatusForbidden, dto.ErrCodeForbidden},
		{"InternalError", func(h *BaseHandler, c *gin.Context) { h.InternalError(c, "boom") }, http.StatusInternalServerError, dto.ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &BaseHandler{}
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
			c.Set(logger.GinRequestIDKey, "req-err")

			tt.method(h, c)

			assert.Equal(t, tt.expectedCode, w.Code)
			resp := decode(t, w, nil)
			assert.False(t, resp.Success)
			assert.Equal(t, tt.expectedErr, resp.Error.Code)
			assert.Equal(t, "req-err", resp.Error.RequestID)
		})
	}
}

func TestBaseHandlerHandleError(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		expectedCode int
		expectedErr  string
	}{
		{"not found", shared.NotFound("booking"), http.StatusNotFound, dto.ErrCodeNotFound},
		{"unauthorized", shared.ErrUnauthorized, http.StatusUnauthorized, dto.ErrCodeUnauthorized},
		{"forbidden", shared.ErrForbidden, http.StatusForbidden, dto.ErrCodeForbidden},
		{"conflict", shared.Conflict("slug taken"), http.StatusConflict, dto.ErrCodeConflict},
		{"invalid input", shared.InvalidInput("phone is required"), http.StatusBadRequest, dto.ErrCodeInvalidInput},
		{"invalid state", shared.ErrInvalidState, http.StatusUnprocessableEntity, dto.ErrCodeInvalidState},
		{"upstream", shared.Upstream(assert.AnError), http.StatusServiceUnavailable, dto.ErrCodeUpstreamUnavailable},
		{"wrapped", fmt.Errorf("loading: %w", shared.NotFound("merchant")), http.StatusNotFound, dto.ErrCodeNotFound},
		{"plain error", assert.AnError, http.StatusInternalServerError, dto.ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &BaseHandler{}
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			h.HandleError(c, tt.err)

			assert.Equal(t, tt.expectedCode, w.Code)
			resp := decode(t, w, nil)
			assert.False(t, resp.Success)
			assert.Equal(t, tt.expectedErr, resp.Error.Code)
		})
	}
}

func TestBaseHandlerHandleErrorHidesUpstreamDetail(t *testing.T) {
	h := &BaseHandler{}
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	h.HandleError(c, shared.Upstream(fmt.Errorf("dial tcp 10.0.0.5:5432: connection refused")))

	resp := decode(t, w, nil)
	assert.Equal(t, "Backing service unavailable", resp.Error.Message)
	assert.NotContains(t, w.Body.String(), "10.0.0.5")
}

func TestBaseHandlerHandleQuotaExceeded(t *testing.T) {
	h := &BaseHandler{}
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", nil)

	h.HandleError(c, fmt.Errorf("create service: %w", &billing.ExceededError{
		MerchantID: uuid.New(),
		Kind:       billing.ResourceServices,
		Used:       5,
		Limit:      5,
		Tier:       billing.TierFree,
	}))

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	resp := decode(t, w, nil)
	assert.Equal(t, dto.ErrCodeQuotaExceeded, resp.Error.Code)
	require.NotNil(t, resp.Error.Quota)
	assert.Equal(t, "services", resp.Error.Quota.Kind)
	assert.Equal(t, int64(5), resp.Error.Quota.Limit)
	assert.Equal(t, "free", resp.Error.Quota.Tier)
}

func TestBaseHandlerHandleNilError(t *testing.T) {
	h := &BaseHandler{}
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	h.HandleError(c, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Body.Bytes())
}

func TestBaseHandlerBindJSON(t *testing.T) {
	type body struct {
		Name string `json:"name" binding:"required"`
	}
	h := &BaseHandler{}

	tests := []struct {
		name        string
		raw         string
		ok          bool
		expectedErr string
	}{
		{"valid", `{"name":"Jane"}`, true, ""},
		{"missing field", `{}`, false, dto.ErrCodeValidation},
		{"empty body", ``, false, dto.ErrCodeInvalidJSON},
		{"malformed", `{"name":`, false, dto.ErrCodeInvalidJSON},
		{"truncated object", `{"name":"Jane"`, false, dto.ErrCodeInvalidJSON},
		{"bad token", `{"name":Jane}`, false, dto.ErrCodeInvalidJSON},
		{"wrong type", `{"name":5}`, false, dto.ErrCodeInvalidJSON},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = jsonRequest(t, http.MethodPost, "/", tt.raw)

			var b body
			assert.Equal(t, tt.ok, h.bindJSON(c, &b))
			if tt.ok {
				assert.Equal(t, "Jane", b.Name)
				return
			}
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tt.expectedErr, decode(t, w, nil).Error.Code)
		})
	}
}

func TestBaseHandlerPathUUID(t *testing.T) {
	h := &BaseHandler{}
	id := uuid.New()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Params = gin.Params{{Key: "id", Value: id.String()}}
	got, ok := h.pathUUID(c, "id")
	assert.True(t, ok)
	assert.Equal(t, id, got)

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Params = gin.Params{{Key: "id", Value: "nope"}}
	_, ok = h.pathUUID(c, "id")
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrCodeInvalidInput, decode(t, w, nil).Error.Code)
}
