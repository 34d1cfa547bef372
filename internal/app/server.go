package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/markdave123-py/docchat/internal/api/handlers"
	appMiddleware "github.com/markdave123-py/docchat/internal/api/middlewares"
	"github.com/markdave123-py/docchat/internal/config"
	"github.com/markdave123-py/docchat/internal/core/auth"
)

const requestTimeout = 60 * time.Second

// Handlers groups the route handlers the router needs.
type Handlers struct {
	Auth      *handlers.AuthHandler
	Documents *handlers.DocumentHandler
	Chats     *handlers.ChatHandler
}

// Server wraps the HTTP server instance and its handlers.
type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
}

// NewRouter wires all routes. Sending a message is exempt from the request
// timeout; the model call runs until the inference client gives up.
func NewRouter(cfg *config.Config, logger *zap.Logger, tokens *auth.Tokens, h Handlers) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(appMiddleware.RequestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CorsOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Serve static files from the web directory
	if cfg.WebDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(cfg.WebDir)))
	}

	r.Route("/api", func(api chi.Router) {
		api.Group(func(timed chi.Router) {
			timed.Use(middleware.Timeout(requestTimeout))

			// public endpoints
			timed.Post("/register", h.Auth.Register)
			timed.Post("/login", h.Auth.Login)

			// protected endpoints
			timed.Group(func(protected chi.Router) {
				protected.Use(appMiddleware.JWTMiddleware(tokens))
				protected.Post("/documents/encode", h.Documents.Encode)
				protected.Post("/chats", h.Documents.CreateChat)
				protected.Get("/chats", h.Chats.List)
				protected.Get("/chats/{chatID}", h.Chats.Get)
			})
		})

		api.Group(func(protected chi.Router) {
			protected.Use(appMiddleware.JWTMiddleware(tokens))
			protected.Post("/chats/{chatID}/messages", h.Chats.Send)
		})
	})

	return r
}

func NewServer(cfg *config.Config, logger *zap.Logger, handler http.Handler) *Server {
	httpSrv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          zap.NewStdLog(logger),
	}
	return &Server{httpServer: httpSrv, logger: logger}
}

// Start runs the HTTP server until it is shut down.
func (s *Server) Start() error {
	s.logger.Info("HTTP server listening", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}
