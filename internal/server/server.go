// Package server is the composition root: it wires the stores, services,
// transports, and handlers together and owns the route table.
//
// DEPENDENCY GRAPH:
//
//	sqlite.DB ──────────────┐
//	redis.Client → Store → Gate
//	token.Service           │
//	PasswordService         ├→ AuthService → AuthHandler
//	mail.Router (Graph+SMTP)┘              ↘ APIHandler
//	provider.Registry ──────────────────────┘
//
// Each layer receives interfaces, not concretions, so every seam the tests
// replace is visible right here.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/aihub-vvit/aihub-server/internal/auth"
	"github.com/aihub-vvit/aihub-server/internal/auth/provider"
	"github.com/aihub-vvit/aihub-server/internal/config"
	"github.com/aihub-vvit/aihub-server/internal/handler"
	"github.com/aihub-vvit/aihub-server/internal/mail"
	"github.com/aihub-vvit/aihub-server/internal/middleware"
	sqliteRepo "github.com/aihub-vvit/aihub-server/internal/repository/sqlite"
	"github.com/aihub-vvit/aihub-server/internal/service"
	"github.com/aihub-vvit/aihub-server/internal/session"
	"github.com/aihub-vvit/aihub-server/internal/token"
)

// Server owns the router and every resource that needs closing on
// shutdown.
type Server struct {
	router *chi.Mux
	cfg    config.Config
	logger *slog.Logger

	db    *sqliteRepo.DB
	redis *redis.Client
	smtp  *mail.SMTPTransport
}

// New assembles the full dependency graph.
func New(cfg config.Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to redis at %s: %w", cfg.RedisAddr, err)
	}

	tokens, err := token.NewService(cfg.TokenSecret)
	if err != nil {
		db.Close()
		redisClient.Close()
		return nil, err
	}

	smtp, err := mail.NewSMTPTransport(mail.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUser,
		Password: cfg.SMTPPassword,
		FromName: cfg.MailFromName,
		ReplyTo:  cfg.MailReplyTo,
	}, logger)
	if err != nil {
		db.Close()
		redisClient.Close()
		return nil, fmt.Errorf("configuring smtp transport: %w", err)
	}

	graph := mail.NewGraphTransport(context.Background(),
		cfg.MicrosoftClientID, cfg.MicrosoftClientSecret,
		cfg.MicrosoftTenantID, cfg.MicrosoftSenderEmail, logger)

	mailer := mail.NewRouter(
		mail.RouterConfig{SendDelay: cfg.MailSendDelay, RetryDelay: cfg.MailRetryDelay},
		logger,
		mail.DefaultRoutes(graph, smtp, cfg.MailRetryAttempts)...,
	)

	providers, err := buildProviders(cfg, logger)
	if err != nil {
		db.Close()
		redisClient.Close()
		return nil, err
	}

	auths := service.NewAuthService(db, auth.NewPasswordService(), tokens, mailer, cfg.ClientURL, logger)
	gate := session.NewGate(session.NewRedisStore(redisClient), cfg.IsProduction(), logger)

	s := &Server{
		router: chi.NewRouter(),
		cfg:    cfg,
		logger: logger,
		db:     db,
		redis:  redisClient,
		smtp:   smtp,
	}
	s.setupRoutes(auths, gate, providers)
	return s, nil
}

// buildProviders registers every OAuth provider whose credentials are
// configured. Missing credentials just leave that provider out — its
// routes then answer 404.
func buildProviders(cfg config.Config, logger *slog.Logger) (*provider.Registry, error) {
	var list []provider.OAuthProvider

	if cfg.GoogleClientID != "" && cfg.GoogleClientSecret != "" {
		google, err := provider.NewGoogleProvider(context.Background(),
			cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleCallbackURL)
		if err != nil {
			return nil, fmt.Errorf("configuring google provider: %w", err)
		}
		list = append(list, google)
	} else {
		logger.Info("google login disabled: missing credentials")
	}

	if cfg.MicrosoftClientID != "" && cfg.MicrosoftClientSecret != "" {
		microsoft, err := provider.NewMicrosoftProvider(
			cfg.MicrosoftClientID, cfg.MicrosoftClientSecret,
			cfg.MicrosoftTenantID, cfg.MicrosoftCallbackURL)
		if err != nil {
			return nil, fmt.Errorf("configuring microsoft provider: %w", err)
		}
		list = append(list, microsoft)
	} else {
		logger.Info("microsoft login disabled: missing credentials")
	}

	return provider.NewRegistry(list...), nil
}

// setupRoutes configures middleware and the route table.
//
// ROUTE STRUCTURE:
//
//	POST /auth/signup                    → local signup
//	POST /auth/login                     → local login
//	GET  /auth/logout                    → terminate session
//	POST /auth/forgot-password           → start the reset flow
//	POST /auth/reset-password/{token}    → finish the reset flow
//	GET  /auth/verify-email/{token}      → email-link landing (redirects)
//	GET  /auth/{provider}                → OAuth start
//	GET  /auth/{provider}/callback       → OAuth completion
//	GET  /api/user                       → current user (session)
//	GET  /api/auth/check                 → session liveness probe
//	*                                    → SPA bundle (production only)
func (s *Server) setupRoutes(auths *service.AuthService, gate *session.Gate, providers *provider.Registry) {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	if !s.cfg.IsProduction() && len(s.cfg.CORSOrigins) > 0 {
		s.router.Use(middleware.CORS(s.cfg.CORSOrigins))
	}

	authHandler := handler.NewAuthHandler(auths, gate, providers, s.cfg.ClientURL, s.logger)
	apiHandler := handler.NewAPIHandler()

	s.router.Route("/auth", func(r chi.Router) {
		r.Post("/signup", authHandler.HandleSignup)
		r.Post("/login", authHandler.HandleLogin)
		r.Get("/logout", authHandler.HandleLogout)
		r.Post("/forgot-password", authHandler.HandleForgotPassword)
		r.Post("/reset-password/{token}", authHandler.HandleResetPassword)
		r.Get("/verify-email/{token}", authHandler.HandleVerifyEmail)

		// Registered after the static paths so "signup" etc. never match
		// the {provider} parameter.
		r.Get("/{provider}", authHandler.HandleOAuthStart)
		r.Get("/{provider}/callback", authHandler.HandleOAuthCallback)
	})

	s.router.Group(func(r chi.Router) {
		r.Use(session.LoadIdentity(gate, s.db, s.logger))
		r.Get("/api/user", apiHandler.HandleCurrentUser)
		r.Get("/api/auth/check", apiHandler.HandleAuthCheck)
	})

	if s.cfg.IsProduction() {
		spa := handler.NewSPAHandler(s.cfg.ClientDistDir, s.logger)
		s.router.NotFound(spa.ServeHTTP)
	}
}

// Start runs the HTTP server until SIGINT/SIGTERM, then shuts down
// gracefully: stop accepting connections, drain in-flight requests, close
// the database, Redis, and SMTP connections.
func (s *Server) Start() error {
	defer s.close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.cfg.Port),
			slog.String("environment", s.cfg.Environment),
			slog.String("database", s.cfg.DBPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}

func (s *Server) close() {
	if err := s.db.Close(); err != nil {
		s.logger.Error("closing database", slog.String("error", err.Error()))
	}
	if err := s.redis.Close(); err != nil {
		s.logger.Error("closing redis", slog.String("error", err.Error()))
	}
	s.smtp.Close()
}
