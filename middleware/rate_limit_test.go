package middleware

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/visionassist/ai-gateway/services/audit"
	"github.com/visionassist/ai-gateway/services/securelog"
	"go.uber.org/zap"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newTestLimiter(limit int) (*RateLimiter, *fakeClock, *captureTransport) {
	capture := &captureTransport{}
	recorder := audit.NewRecorder(securelog.NewSink(capture))
	l := NewRateLimiter(limit, recorder, zap.NewNop())
	clock := &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	l.now = clock.Now
	return l, clock, capture
}

func doRequest(l *RateLimiter, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/v1/describe", nil)
	req.RemoteAddr = remoteAddr
	rec := httptest.NewRecorder()
	l.Limit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})).ServeHTTP(rec, req)
	return rec
}

func TestRateLimiter_AllowsWithinLimit(t *testing.T) {
	l, _, capture := newTestLimiter(3)

	for i := 0; i < 3; i++ {
		rec := doRequest(l, "10.0.0.1:5000")
		assert.Equal(t, http.StatusOK, rec.Code)
	}
	assert.Empty(t, capture.byEvent(audit.EventRateLimit))
}

func TestRateLimiter_BlocksOverLimit(t *testing.T) {
	l, _, capture := newTestLimiter(2)

	doRequest(l, "10.0.0.1:5000")
	doRequest(l, "10.0.0.1:5000")
	rec := doRequest(l, "10.0.0.1:5000")

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	// The decision is audited with a hashed client, never the raw IP.
	limited := capture.byEvent(audit.EventRateLimit)
	require.Len(t, limited, 1)
	hash, _ := limited[0].Context["client_hash"].(string)
	assert.NotEmpty(t, hash)
	assert.NotContains(t, hash, "10.0.0.1")
}

func TestRateLimiter_WindowSlides(t *testing.T) {
	l, clock, _ := newTestLimiter(1)

	assert.Equal(t, http.StatusOK, doRequest(l, "10.0.0.1:5000").Code)
	assert.Equal(t, http.StatusTooManyRequests, doRequest(l, "10.0.0.1:5000").Code)

	clock.Advance(61 * time.Second)
	assert.Equal(t, http.StatusOK, doRequest(l, "10.0.0.1:5000").Code)
}

func TestRateLimiter_ClientsAreIndependent(t *testing.T) {
	l, _, _ := newTestLimiter(1)

	assert.Equal(t, http.StatusOK, doRequest(l, "10.0.0.1:5000").Code)
	assert.Equal(t, http.StatusOK, doRequest(l, "10.0.0.2:5000").Code)
	assert.Equal(t, http.StatusTooManyRequests, doRequest(l, "10.0.0.1:6000").Code, "port is not part of the client key")
}

func TestRateLimiter_AuthenticatedClientKeyedBySubject(t *testing.T) {
	l, _, _ := newTestLimiter(1)

	makeReq := func(sub, addr string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/v1/describe", nil)
		req.RemoteAddr = addr
		req = req.WithContext(WithClaims(req.Context(), &Claims{Sub: sub}))
		rec := httptest.NewRecorder()
		l.Limit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})).ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, makeReq("user-1", "10.0.0.1:5000").Code)
	// Same subject from a different address shares the budget.
	assert.Equal(t, http.StatusTooManyRequests, makeReq("user-1", "10.0.0.9:5000").Code)
	// A different subject has its own budget.
	assert.Equal(t, http.StatusOK, makeReq("user-2", "10.0.0.1:5000").Code)
}
