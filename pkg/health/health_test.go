package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ok(context.Context) error { return nil }

func failing(msg string) Checker {
	return func(context.Context) error { return errors.New(msg) }
}

func serve(t *testing.T, h http.HandlerFunc) (*httptest.ResponseRecorder, Response) {
	t.Helper()
	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	var resp Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return rec, resp
}

func TestLiveness(t *testing.T) {
	rec, resp := serve(t, NewHandler().LivenessHandler())
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, StatusUp, resp.Status)
}

func TestReadiness_AllUp(t *testing.T) {
	h := NewHandler()
	h.RegisterCritical("postgres", ok)
	h.RegisterNonCritical("kafka", ok)

	rec, resp := serve(t, h.ReadinessHandler())
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, StatusUp, resp.Status)
	assert.Len(t, resp.Checks, 2)
}

func TestReadiness_NonCriticalFailureDegrades(t *testing.T) {
	h := NewHandler()
	h.RegisterCritical("postgres", ok)
	h.RegisterNonCritical("kafka", failing("all brokers unreachable"))

	rec, resp := serve(t, h.ReadinessHandler())
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, StatusDegraded, resp.Status)
	assert.Equal(t, "all brokers unreachable", resp.Checks["kafka"].Error)
	assert.False(t, resp.Checks["kafka"].Critical)
}

func TestReadiness_CriticalFailure(t *testing.T) {
	h := NewHandler()
	h.RegisterCritical("postgres", failing("connection refused"))
	h.RegisterNonCritical("kafka", failing("timeout"))

	rec, resp := serve(t, h.ReadinessHandler())
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, StatusDown, resp.Status)
	assert.True(t, resp.Checks["postgres"].Critical)
}

func TestCheck_ReRegisterReplaces(t *testing.T) {
	h := NewHandler()
	h.RegisterCritical("redis", failing("down"))
	h.RegisterNonCritical("redis", ok)

	resp := h.Check(context.Background())
	assert.Equal(t, StatusUp, resp.Status)
	assert.False(t, resp.Checks["redis"].Critical)
}
