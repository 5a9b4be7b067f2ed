package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type bookingPayload struct {
	CustomerName string `json:"customer_name"`
	Notes        string `json:"notes"`
}

func bookingEcho(c *gin.Context) {
	var p bookingPayload
	if err := c.ShouldBindJSON(&p); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.String(http.StatusRequestEntityTooLarge, "truncated")
			return
		}
		c.String(http.StatusBadRequest, err.Error())
		return
	}
	c.String(http.StatusOK, p.CustomerName)
}

func newBodyLimitRouter(limit int64) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(BodyLimit(limit))
	r.POST("/bookings", bookingEcho)
	r.GET("/bookings/mine", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func TestBodyLimit(t *testing.T) {
	t.Run("small booking passes", func(t *testing.T) {
		r := newBodyLimitRouter(256)
		req := httptest.NewRequest(http.MethodPost, "/bookings", strings.NewReader(`{"customer_name":"Jane"}`))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Jane", w.Body.String())
	})

	t.Run("declared length over the cap is rejected before the handler", func(t *testing.T) {
		r := newBodyLimitRouter(64)
		body := `{"customer_name":"Jane","notes":"` + strings.Repeat("n", 128) + `"}`
		req := httptest.NewRequest(http.MethodPost, "/bookings", strings.NewReader(body))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
		assert.Contains(t, w.Body.String(), "ERR_REQUEST_TOO_LARGE")
	})

	t.Run("chunked body is cut off while binding", func(t *testing.T) {
		r := newBodyLimitRouter(64)
		body := `{"customer_name":"Jane","notes":"` + strings.Repeat("n", 128) + `"}`
		req := httptest.NewRequest(http.MethodPost, "/bookings", strings.NewReader(body))
		req.ContentLength = -1
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
		assert.Equal(t, "truncated", w.Body.String())
	})

	t.Run("bodiless requests are untouched", func(t *testing.T) {
		r := newBodyLimitRouter(1)
		req := httptest.NewRequest(http.MethodGet, "/bookings/mine", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("zero disables the limit", func(t *testing.T) {
		r := newBodyLimitRouter(0)
		body := `{"customer_name":"Jane","notes":"` + strings.Repeat("n", 4096) + `"}`
		req := httptest.NewRequest(http.MethodPost, "/bookings", strings.NewReader(body))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})
}
