package errors

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runMiddleware(t *testing.T, handlerErr error) (*httptest.ResponseRecorder, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := Middleware()(func(c echo.Context) error {
		return handlerErr
	})
	return rec, handler(c)
}

func TestMiddlewareWithStructuredError(t *testing.T) {
	rec, err := runMiddleware(t, CapacityError("connection limit reached"))
	require.NoError(t, err)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "5", rec.Header().Get("Retry-After"))

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "connection limit reached", resp.Error)
	assert.Equal(t, TypeCapacity, resp.Type)
}

func TestMiddlewareWithStandardError(t *testing.T) {
	rec, err := runMiddleware(t, fmt.Errorf("standard error"))
	require.NoError(t, err)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Empty(t, rec.Header().Get("Retry-After"))

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "internal server error", resp.Error)
	assert.Equal(t, TypeInternal, resp.Type)
}

func TestMiddlewarePassesEchoErrors(t *testing.T) {
	httpErr := echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")

	_, err := runMiddleware(t, httpErr)

	assert.Same(t, httpErr, err)
}

func TestMiddlewareNoError(t *testing.T) {
	rec, err := runMiddleware(t, nil)

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestMiddlewareLeavesCommittedResponse(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := Middleware()(func(c echo.Context) error {
		c.Response().WriteHeader(http.StatusForbidden)
		return InternalError("upgrade failed", fmt.Errorf("origin not allowed"))
	})

	require.NoError(t, handler(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, rec.Body.String())
}
