package api

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/time/rate"

	"github.com/roach88/pathway/internal/unlock"
)

type ctxKey int

const userIDKey ctxKey = iota

func userID(r *http.Request) string {
	id, _ := r.Context().Value(userIDKey).(string)
	return id
}

// requireUser rejects requests without the gateway's identity header.
func requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(HeaderUserID)
		if id == "" {
			respondWithError(w, http.StatusUnauthorized, "missing "+HeaderUserID+" header")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userIDKey, id)))
	})
}

// guarded consults the unlock guard before any item route runs, so a deep
// link to a locked item never reaches the handler.
func (s *Server) guarded(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		a, ok := access(w, r)
		if !ok {
			return
		}
		if err := s.guard.Require(r.Context(), a); err != nil {
			s.respondWithDomainError(w, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func access(w http.ResponseWriter, r *http.Request) (unlock.Access, bool) {
	vars := mux.Vars(r)
	item, err := strconv.Atoi(vars["item"])
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid item number")
		return unlock.Access{}, false
	}
	return unlock.Access{UserID: userID(r), SequenceID: vars["sequence"], ItemNumber: item}, true
}

// monitor records request counts and durations by route template, so item
// numbers in paths do not explode label cardinality.
func (s *Server) monitor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if cur := mux.CurrentRoute(r); cur != nil {
			if tpl, err := cur.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		s.metrics.RequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(ww.statusCode)).Inc()
		s.metrics.RequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// rateLimited applies the per-user token bucket.
func (s *Server) rateLimited(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow(userID(r)) {
			respondWithError(w, http.StatusTooManyRequests, "too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// UserLimiter keeps one token bucket per user id.
//
// Thread-safety: safe for concurrent use via internal mutex.
type UserLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    rate.Limit
	burst    int
	now      func() time.Time
}

// NewUserLimiter creates a limiter allowing limit events per second with
// the given burst for each user.
func NewUserLimiter(limit rate.Limit, burst int) *UserLimiter {
	return &UserLimiter{
		visitors: make(map[string]*visitor),
		limit:    limit,
		burst:    burst,
		now:      time.Now,
	}
}

// Allow reports whether the user may proceed now.
func (l *UserLimiter) Allow(user string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	v, ok := l.visitors[user]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[user] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

// Sweep forgets users idle for longer than idle and returns how many remain.
func (l *UserLimiter) Sweep(idle time.Duration) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for user, v := range l.visitors {
		if now.Sub(v.lastSeen) > idle {
			delete(l.visitors, user)
		}
	}
	return len(l.visitors)
}

// Run sweeps idle users every interval until ctx is done.
func (l *UserLimiter) Run(ctx context.Context, interval, idle time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			l.Sweep(idle)
		}
	}
}
