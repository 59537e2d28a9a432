package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/visionassist/ai-gateway/services/audit"
	"github.com/visionassist/ai-gateway/utils"
	"go.uber.org/zap"
)

// RateLimiter throttles requests per client using an in-memory sliding
// window. Clients are keyed by authenticated subject when present,
// otherwise by remote IP. Limit decisions are recorded in the audit
// trail with the client identifier hashed.
type RateLimiter struct {
	mu       sync.Mutex
	windows  map[string][]time.Time
	limit    int
	window   time.Duration
	recorder *audit.Recorder
	logger   *zap.Logger
	now      func() time.Time
}

// NewRateLimiter creates a limiter allowing requestsPerMinute requests
// per client per minute.
func NewRateLimiter(requestsPerMinute int, recorder *audit.Recorder, logger *zap.Logger) *RateLimiter {
	return &RateLimiter{
		windows:  make(map[string][]time.Time),
		limit:    requestsPerMinute,
		window:   time.Minute,
		recorder: recorder,
		logger:   logger,
		now:      time.Now,
	}
}

// Limit is the middleware entry point.
func (l *RateLimiter) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		clientID := clientKey(r)

		if !l.allow(clientID) {
			l.logger.Warn("rate limit exceeded",
				zap.String("request_id", GetRequestIDFromContext(ctx)),
				zap.String("client_hash", audit.HashUserID(clientID)))
			l.recorder.LogRateLimit(ctx, clientID, true, "minute")
			_ = utils.WriteTooManyRequests(w, "", map[string]interface{}{
				"limit":  l.limit,
				"window": "1m",
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}

// allow records an attempt and reports whether it fits in the window.
func (l *RateLimiter) allow(clientID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-l.window)

	kept := l.windows[clientID][:0]
	for _, at := range l.windows[clientID] {
		if at.After(cutoff) {
			kept = append(kept, at)
		}
	}

	if len(kept) >= l.limit {
		l.windows[clientID] = kept
		return false
	}

	l.windows[clientID] = append(kept, now)
	return true
}

// clientKey identifies the caller: authenticated subject when available,
// remote IP otherwise.
func clientKey(r *http.Request) string {
	if claims := GetClaimsFromContext(r.Context()); claims != nil && claims.Sub != "" {
		return claims.Sub
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
