package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func newRequestIDRouter() *gin.Engine {
	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/", func(c *gin.Context) {
		id, _ := c.Get(RequestIDKey)
		c.String(http.StatusOK, "%v", id)
	})
	return r
}

func TestRequestID_GeneratedWhenAbsent(t *testing.T) {
	r := newRequestIDRouter()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	id := w.Header().Get(RequestIDHeader)
	if id == "" {
		t.Fatal("response carries no X-Request-ID")
	}
	if _, err := uuid.Parse(id); err != nil {
		t.Errorf("generated id %q is not a UUID: %v", id, err)
	}
	if w.Body.String() != id {
		t.Errorf("context id %q != header id %q", w.Body.String(), id)
	}
}

func TestRequestID_InboundValueReused(t *testing.T) {
	r := newRequestIDRouter()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "upstream-id-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if got := w.Header().Get(RequestIDHeader); got != "upstream-id-123" {
		t.Errorf("X-Request-ID = %q, want upstream value reused", got)
	}
}
