package root

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"mindbloom/internal/auth"
	"mindbloom/internal/chat"
	"mindbloom/internal/config"
	"mindbloom/internal/crypto"
	"mindbloom/internal/kv"
	"mindbloom/internal/store"
)

// loadConfig is swapped out by tests.
var loadConfig = config.Load

type app struct {
	cfg    *config.Config
	logger *zap.Logger
	store  *store.Store
	auth   *auth.Client
	closer func() error
}

func openApp(cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	verbose, _ := cmd.Root().PersistentFlags().GetBool("verbose")
	logger, err := cfg.NewLogger(zapcore.WarnLevel, verbose)
	if err != nil {
		return nil, err
	}

	if cfg.Storage != config.StorageMemory || cfg.AuthURL != "" {
		if err := os.MkdirAll(cfg.Home, 0o700); err != nil {
			return nil, fmt.Errorf("create %s: %w", cfg.Home, err)
		}
	}
	medium, closer, err := openMedium(cmd.Context(), cfg)
	if err != nil {
		return nil, err
	}
	logger.Debug("local store opened",
		zap.String("storage", cfg.Storage),
		zap.String("namespace", cfg.Namespace),
		zap.Bool("sealed", cfg.LocalKey != ""),
	)

	a := &app{
		cfg:    cfg,
		logger: logger,
		store:  store.New(medium, store.WithLogger(logger), store.WithNamespace(cfg.Namespace)),
		closer: closer,
	}
	if cfg.AuthURL != "" {
		sessions, err := kv.NewFileMedium(cfg.SessionPath())
		if err != nil {
			_ = closer()
			return nil, err
		}
		a.auth = auth.NewClient(auth.ClientConfig{BaseURL: cfg.AuthURL, Sessions: sessions, Logger: logger})
	}
	return a, nil
}

func (a *app) close() {
	if err := a.closer(); err != nil {
		a.logger.Warn("close local store", zap.Error(err))
	}
	_ = a.logger.Sync()
}

func openMedium(ctx context.Context, cfg *config.Config) (kv.Medium, func() error, error) {
	var (
		medium kv.Medium
		closer = func() error { return nil }
	)
	switch cfg.Storage {
	case config.StorageMemory:
		medium = kv.NewMemoryMedium()
	case config.StorageSQLite:
		m, err := kv.OpenSQLite(ctx, cfg.DataPath())
		if err != nil {
			return nil, nil, err
		}
		medium, closer = m, m.Close
	default:
		m, err := kv.NewFileMedium(cfg.DataPath())
		if err != nil {
			return nil, nil, err
		}
		medium = m
	}

	if cfg.LocalKey != "" {
		key, err := crypto.ParseKey(cfg.LocalKey)
		if err != nil {
			_ = closer()
			return nil, nil, fmt.Errorf("MINDBLOOM_LOCAL_KEY: %w", err)
		}
		sealer, err := crypto.NewEncryptionService(key, key)
		if err != nil {
			_ = closer()
			return nil, nil, err
		}
		medium = kv.NewSealedMedium(medium, sealer)
	}
	return medium, closer, nil
}

// requireSession gates commands that touch wellness data once an identity
// endpoint is configured.
func (a *app) requireSession(ctx context.Context) error {
	if a.auth == nil {
		return nil
	}
	if _, err := auth.RequireUser(ctx, a.auth); err != nil {
		if errors.Is(err, auth.ErrNotSignedIn) {
			return fmt.Errorf("%w: run `bloom login` first", err)
		}
		return err
	}
	return nil
}

// completer picks the remote chat backend for the configured mode. It
// returns nil in local mode.
func (a *app) completer() chat.Completer {
	switch a.cfg.ResolvedChatMode() {
	case config.ChatRelay:
		key := a.cfg.AnonKey
		if a.auth != nil {
			if sess, _ := a.auth.Session(); sess != nil {
				key = sess.Token
			}
		}
		return chat.NewRelayClient(chat.RelayConfig{URL: a.cfg.RelayURL, Key: key, Model: a.cfg.RelayModel})
	case config.ChatDirect:
		return chat.NewOpenAICompleter(chat.OpenAIConfig{BaseURL: a.cfg.LLMBaseURL, APIKey: a.cfg.LLMAPIKey, Model: a.cfg.LLMModel})
	}
	return nil
}

func (a *app) requireAuthClient() (*auth.Client, error) {
	if a.auth == nil {
		return nil, errors.New("no identity endpoint configured (set MINDBLOOM_AUTH_URL)")
	}
	return a.auth, nil
}
