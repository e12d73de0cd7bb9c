package server

import (
	"bufio"
	"compress/gzip"
	"errors"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"folio/internal/apperr"
	"folio/internal/auth"
	"folio/internal/logger"
	"folio/internal/response"
)

// GzipResponseWriter wraps http.ResponseWriter to support gzip compression.
type GzipResponseWriter struct {
	io.Writer
	http.ResponseWriter
}

func (w GzipResponseWriter) Write(b []byte) (int, error) {
	return w.Writer.Write(b)
}

// GzipMiddleware compresses responses when client supports gzip. WebSocket
// upgrades and range requests pass through untouched.
func GzipMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") ||
			r.Header.Get("Range") != "" ||
			strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("Content-Encoding", "gzip")
		w.Header().Del("Content-Length")

		gz := gzip.NewWriter(w)
		defer gz.Close()

		next.ServeHTTP(GzipResponseWriter{Writer: gz, ResponseWriter: w}, r)
	})
}

// statusRecorder captures the response status for the access log.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// Hijack lets WebSocket upgrades through the recorder.
func (s *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := s.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("hijack not supported")
	}
	return h.Hijack()
}

// LoggingMiddleware logs method, path, status, duration and user. Also sets
// CORS headers and answers preflight requests.
func LoggingMiddleware(next http.Handler) http.Handler {
	log := logger.WithComponent("http")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		// RequireAuth fills the holder so the user is visible after the
		// request returns.
		holder := &userHolder{}
		next.ServeHTTP(rec, r.WithContext(withHolder(r.Context(), holder)))

		evt := log.Info()
		if rec.status >= 500 {
			evt = log.Error()
		} else if rec.status >= 400 {
			evt = log.Warn()
		}
		evt.Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("duration", time.Since(start)).
			Str("user_id", holder.userID).
			Msg("request")
	})
}

// SecurityHeaders adds security headers to all responses.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Permissions-Policy", "geolocation=(), microphone=(), camera=()")

		if r.TLS != nil {
			w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		next.ServeHTTP(w, r)
	})
}

// SessionToken extracts the session token from a Bearer header or the
// session cookie, in that order.
func SessionToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	if c, err := r.Cookie(auth.SessionCookie); err == nil {
		return c.Value
	}
	return ""
}

func secureRequest(r *http.Request) bool {
	return r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https"
}

// SetSessionCookie issues the session cookie.
func SetSessionCookie(w http.ResponseWriter, r *http.Request, token string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   secureRequest(r),
		SameSite: http.SameSiteLaxMode,
		Expires:  expires,
	})
}

// ClearSessionCookie expires the session cookie.
func ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
}

// RequireAuth resolves the session for /api/ routes and /auth/me, stores the
// user in the request context and refreshes the cookie's expiry.
func RequireAuth(svc *auth.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path := r.URL.Path
			if !strings.HasPrefix(path, "/api/") && path != "/auth/me" {
				next.ServeHTTP(w, r)
				return
			}

			token := SessionToken(r)
			user, err := svc.Authenticate(r.Context(), token)
			if err != nil {
				if apperr.Is(err, apperr.KindUnauthorized) {
					ClearSessionCookie(w)
				}
				response.Error(w, err)
				return
			}

			if _, err := r.Cookie(auth.SessionCookie); err == nil {
				SetSessionCookie(w, r, token, time.Now().Add(auth.SessionLifetime))
			}
			if h := holderFrom(r.Context()); h != nil {
				h.userID = user.ID
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// RequireRBAC enforces the capability table on /api/v1/ routes.
func RequireRBAC(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		if !strings.HasPrefix(path, "/api/v1/") {
			next.ServeHTTP(w, r)
			return
		}
		user := UserFrom(r.Context())
		if user == nil {
			response.Error(w, apperr.Unauthorized("not signed in"))
			return
		}

		apiPath := strings.TrimSuffix(strings.TrimPrefix(path, "/api/v1/"), "/")
		op := auth.MapAPIPathToOperation(apiPath, r.Method)
		if op != "" {
			if err := auth.Authorize(user.Role, op); err != nil {
				response.Error(w, err)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// RateLimiter tracks request rates per key.
type RateLimiter struct {
	requests map[string][]time.Time
	mu       sync.Mutex
	now      func() time.Time
}

// NewRateLimiter creates a new RateLimiter.
func NewRateLimiter() *RateLimiter {
	return &RateLimiter{
		requests: make(map[string][]time.Time),
		now:      time.Now,
	}
}

// Reset clears all rate limit state (for testing).
func (rl *RateLimiter) Reset() {
	rl.mu.Lock()
	rl.requests = make(map[string][]time.Time)
	rl.mu.Unlock()
}

func (rl *RateLimiter) cleanupOldRequests(key string, now time.Time, window time.Duration) {
	cutoff := now.Add(-window)
	var valid []time.Time
	for _, t := range rl.requests[key] {
		if t.After(cutoff) {
			valid = append(valid, t)
		}
	}
	if len(valid) > 0 {
		rl.requests[key] = valid
	} else {
		delete(rl.requests, key)
	}
}

// CheckRateLimit records a request under key and reports whether the limit
// was already reached, how many requests remain and when the window resets.
func (rl *RateLimiter) CheckRateLimit(key string, limit int, window time.Duration) (bool, int, time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	rl.cleanupOldRequests(key, now, window)

	requests := rl.requests[key]
	resetTime := now.Add(window)
	if len(requests) > 0 {
		resetTime = requests[0].Add(window)
	}
	if len(requests) >= limit {
		return true, 0, resetTime
	}

	rl.requests[key] = append(requests, now)
	return false, limit - len(requests) - 1, resetTime
}

// ClientIP extracts the caller's address, preferring proxy headers.
func ClientIP(r *http.Request) string {
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return strings.TrimSpace(strings.Split(fwd, ",")[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// Rate limits applied by RateLimitMiddleware.
const (
	LoginRateLimit = 5
	APIRateLimit   = 300
)

// RateLimitMiddleware limits login attempts and API calls per client IP.
func RateLimitMiddleware(rl *RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientIP := ClientIP(r)
			path := r.URL.Path

			var limit int
			var limitKey string
			switch {
			case path == "/auth/login":
				limit, limitKey = LoginRateLimit, "login:"+clientIP
			case strings.HasPrefix(path, "/api/"):
				limit, limitKey = APIRateLimit, "api:"+clientIP
			default:
				next.ServeHTTP(w, r)
				return
			}

			exceeded, remaining, resetTime := rl.CheckRateLimit(limitKey, limit, time.Minute)

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetTime.Unix(), 10))

			if exceeded {
				w.Header().Set("Retry-After", strconv.Itoa(int(resetTime.Sub(rl.now()).Seconds())+1))
				response.Err(w, "rate limit exceeded", "RATE_LIMIT_EXCEEDED", http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
