package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/pictolab/pictolab/internal/auth"
	"github.com/pictolab/pictolab/internal/metrics"
	"github.com/pictolab/pictolab/internal/service"
)

// Probes are the dependency health checks behind /server/state.
type Probes struct {
	DB    func(ctx context.Context) error
	Redis func(ctx context.Context) error
	Email func(ctx context.Context) error
}

// Server holds the handler dependencies and builds the router.
type Server struct {
	auth        *auth.Service
	users       *service.UserService
	images      *service.ImageService
	annotations *service.AnnotationService
	metrics     *metrics.Metrics
	probes      Probes
	log         *slog.Logger
}

func NewServer(
	authSvc *auth.Service,
	users *service.UserService,
	images *service.ImageService,
	annotations *service.AnnotationService,
	m *metrics.Metrics,
	probes Probes,
	log *slog.Logger,
) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		auth:        authSvc,
		users:       users,
		images:      images,
		annotations: annotations,
		metrics:     m,
		probes:      probes,
		log:         log,
	}
}

// Routes assembles the full /api/v1 router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/user", func(r chi.Router) {
			r.Post("/register", s.handleRegister)
			r.Put("/active", s.handleActivate)
			r.Post("/login", s.handleLogin)
			r.Post("/login2fa", s.handleLogin2FA)
			r.Get("/password", s.handleForgetPassword)
			r.Put("/password", s.handleResetPassword)

			r.Group(func(r chi.Router) {
				r.Use(s.requireAuth)
				r.Post("/logout", s.handleLogout)
				r.Get("/profile", s.handleGetProfile)
				r.Put("/profile", s.handleUpdateProfile)
				r.Get("/codes", s.handleAccessCodes)
			})
		})

		r.Route("/token", func(r chi.Router) {
			r.Post("/refresh", s.handleRefresh)
			r.With(s.requireAuth).Post("/info", s.handleTokenInfo)
		})

		r.Route("/server", func(r chi.Router) {
			r.Get("/health_check", s.handleHealthCheck)
			r.Get("/state", s.handleServerState)
			r.Get("/metrics", s.handleMetrics)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(s.requireAuth, s.requireAdmin)
			r.Get("/user/list", s.handleListUsers)
		})

		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Post("/image/upload", s.handleUploadImage)
			r.Get("/image/list", s.handleListImages)
			r.Get("/image/{id}", s.handleGetImage)
			r.Delete("/image/{id}", s.handleDeleteImage)
			r.Get("/upload/{filename}", s.handleServeImage)
			r.Post("/annotation/save_bulk", s.handleSaveAnnotations)
			r.Get("/annotation/image", s.handleGetAnnotations)
		})
	})

	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"requestId", middleware.GetReqID(r.Context()),
		)
	})
}
