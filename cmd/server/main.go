package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"mindbloom/internal/chat"
	"mindbloom/internal/config"
	"mindbloom/internal/crypto"
	"mindbloom/internal/db"
	"mindbloom/internal/handlers"
	mw "mindbloom/internal/middleware"
	"mindbloom/internal/services"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.ValidateServer(); err != nil {
		return err
	}
	logger, err := cfg.NewLogger(zapcore.InfoLevel, false)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}
	dbConn, err := sqlx.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer dbConn.Close()
	dbConn.SetMaxOpenConns(10)
	dbConn.SetConnMaxLifetime(2 * time.Hour)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := dbConn.PingContext(ctx); err != nil {
		return fmt.Errorf("ping db: %w", err)
	}
	if err := db.RunMigrations(ctx, dbConn); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}

	var encSvc *services.EncryptionService
	if cfg.EncryptionKey != "" {
		encKey, err := crypto.ParseKey(cfg.EncryptionKey)
		if err != nil {
			return fmt.Errorf("ENCRYPTION_KEY: %w", err)
		}
		indexKey, err := crypto.ParseKey(cfg.BlindIndexKey)
		if err != nil {
			return fmt.Errorf("BLIND_INDEX_KEY: %w", err)
		}
		if encSvc, err = services.NewEncryptionService(encKey, indexKey); err != nil {
			return err
		}
	} else {
		logger.Warn("ENCRYPTION_KEY not set; emails are stored in plaintext")
	}

	authMW := mw.NewAuthMiddleware([]byte(cfg.JWTSecret), nil)
	authHandler := handlers.NewAuthHandler(db.NewUserRepo(dbConn), encSvc, authMW, logger)

	var upstream chat.Completer
	model := handlers.FallbackModel
	if cfg.LLMAPIKey != "" {
		oc := chat.NewOpenAICompleter(chat.OpenAIConfig{BaseURL: cfg.LLMBaseURL, APIKey: cfg.LLMAPIKey, Model: cfg.LLMModel})
		upstream, model = oc, oc.Model()
	} else {
		logger.Info("LLM_API_KEY not set; chat relay answers locally")
	}
	relayHandler := handlers.NewRelayHandler(upstream, model, chat.NewResponder(nil), logger)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(mw.ZapRequestLogger(logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Client-Info", "Apikey"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := dbConn.PingContext(r.Context()); err != nil {
			http.Error(w, "db unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	r.Route("/auth/v1", func(a chi.Router) {
		a.Post("/signup", authHandler.Signup)
		a.Post("/token", authHandler.Token)
		a.Post("/recover", authHandler.Recover)
		a.Post("/reset", authHandler.Reset)
		a.Group(func(pr chi.Router) {
			pr.Use(authMW.RequireAuth)
			pr.Post("/logout", authHandler.Logout)
			pr.Get("/user", authHandler.User)
		})
	})
	r.Route("/functions/v1", func(f chi.Router) {
		f.Use(authMW.RequireClient(cfg.AnonKey))
		f.Post("/ai-chat", relayHandler.Chat)
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutdown initiated")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("server stopped")
	return nil
}
