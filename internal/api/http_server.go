package api

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"roomly/internal/config"
	"roomly/internal/export"
	"roomly/internal/metrics"
	"roomly/internal/service"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// HTTPServer exposes the reservation system as a JSON API.
type HTTPServer struct {
	cfg          *config.Config
	reservations *service.ReservationService
	users        *service.UserService
	posts        *service.PostService
	state        *service.StateService
	exporter     *export.Exporter
	sessions     *SessionManager
	limiter      *clientLimiter
	logger       *zerolog.Logger
	server       *http.Server
}

func NewHTTPServer(
	cfg *config.Config,
	reservations *service.ReservationService,
	users *service.UserService,
	posts *service.PostService,
	state *service.StateService,
	exporter *export.Exporter,
	logger *zerolog.Logger,
) *HTTPServer {
	srv := &HTTPServer{
		cfg:          cfg,
		reservations: reservations,
		users:        users,
		posts:        posts,
		state:        state,
		exporter:     exporter,
		sessions:     NewSessionManager(cfg.Auth),
		limiter:      newClientLimiter(cfg.Server.RateLimit),
		logger:       logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/auth/register", srv.handleRegister)
	mux.HandleFunc("/api/v1/auth/login", srv.handleLogin)
	mux.HandleFunc("/api/v1/auth/logout", srv.handleLogout)
	mux.HandleFunc("/api/v1/auth/me", requireLogin(srv.handleMe))
	mux.HandleFunc("/api/v1/rooms", srv.handleRooms)
	mux.HandleFunc("/api/v1/reservations", srv.handleReservations)
	mux.HandleFunc("/api/v1/reservations/", srv.handleReservationByID)
	mux.HandleFunc("/api/v1/my/reservations", requireLogin(srv.handleMyReservations))
	mux.HandleFunc("/api/v1/dashboard", requireLogin(srv.handleDashboard))
	mux.HandleFunc("/api/v1/dashboard/selection", requireLogin(srv.handleSelection))
	mux.HandleFunc("/api/v1/posts", srv.handlePosts)
	mux.HandleFunc("/api/v1/posts/", srv.handlePostByID)
	mux.HandleFunc("/api/v1/export", requireLogin(srv.handleExport))
	mux.HandleFunc("/healthz", srv.handleHealth)

	handler := srv.loggingMiddleware(srv.sessions.Wrap(srv.limiter.Wrap(mux)))

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	return srv
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *HTTPServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := uuid.NewString()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(recorder, r)

		dur := time.Since(start)
		metrics.IncHTTP(metricEndpoint(r.URL.Path), strconv.Itoa(recorder.status))
		s.logger.Info().
			Str("request_id", requestID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", recorder.status).
			Dur("duration", dur).
			Msg("http request")
	})
}

// metricEndpoint collapses ID-bearing paths to their route pattern so the
// endpoint label stays low-cardinality.
func metricEndpoint(path string) string {
	for _, prefix := range []string{"/api/v1/reservations/", "/api/v1/posts/"} {
		if rest := strings.TrimPrefix(path, prefix); rest != path && rest != "" {
			return prefix + "{id}"
		}
	}
	return path
}

// clientLimiter keeps a token bucket per authenticated user, falling back
// to the remote address for anonymous requests.
type clientLimiter struct {
	cfg      config.RateLimitConfig
	limiters sync.Map // map[string]*rate.Limiter
}

func newClientLimiter(cfg config.RateLimitConfig) *clientLimiter {
	return &clientLimiter{cfg: cfg}
}

func (l *clientLimiter) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if l.cfg.RPS <= 0 {
			next.ServeHTTP(w, r)
			return
		}
		if !l.get(clientKey(r)).Allow() {
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientKey(r *http.Request) string {
	if id := CurrentUser(r.Context()); id != nil {
		return fmt.Sprintf("user:%d", id.UserID)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return "unknown"
}

func (l *clientLimiter) get(key string) *rate.Limiter {
	if v, ok := l.limiters.Load(key); ok {
		return v.(*rate.Limiter)
	}

	burst := l.cfg.Burst
	if burst <= 0 {
		burst = 5
	}

	lim := rate.NewLimiter(rate.Limit(l.cfg.RPS), burst)
	actual, loaded := l.limiters.LoadOrStore(key, lim)
	if loaded {
		return actual.(*rate.Limiter)
	}
	return lim
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
