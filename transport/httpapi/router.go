package httpapi

import (
	"net/http"
	"time"

	"github.com/MrEthical07/goOTT/jwt"
	"github.com/MrEthical07/goOTT/middleware"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// RouterConfig configures [NewRouter].
type RouterConfig struct {
	// CookieName is the session cookie read by the authentication middleware.
	CookieName string
	// Assertions verifies Bearer session assertions. Optional.
	Assertions *jwt.Manager
	// AllowedOrigins enables CORS for cross-origin hand-off. Empty disables it.
	AllowedOrigins []string
	Logger         *zap.Logger
}

// NewRouter mounts the one-time token routes on a fresh chi router.
func NewRouter(engine Engine, cfg RouterConfig) chi.Router {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(AccessLog(logger))
	r.Use(chimiddleware.Recoverer)
	if len(cfg.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			ExposedHeaders:   []string{AuthTokenHeader},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	Mount(r, engine, cfg, logger)
	return r
}

// Mount registers the one-time token routes on r.
func Mount(r chi.Router, engine Engine, cfg RouterConfig, logger *zap.Logger) {
	h := NewHandler(engine, logger)
	requireSession := middleware.RequireSession(engine, middleware.Options{
		CookieName: cfg.CookieName,
		Assertions: cfg.Assertions,
	})

	r.Route("/one-time-token", func(r chi.Router) {
		r.With(requireSession).Get("/generate", h.Generate)
		r.Post("/verify", h.Verify)
	})
}

// AccessLog writes one structured log line per request.
func AccessLog(logger *zap.Logger) func(http.Handler) http.Handler {
	logger = logger.With(zap.String("module", "http"))
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			logger.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("duration", time.Since(start)),
				zap.String("client_ip", clientIP(r)),
				zap.String("request_id", chimiddleware.GetReqID(r.Context())),
			)
		})
	}
}
