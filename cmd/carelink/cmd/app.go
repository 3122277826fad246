package cmd

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/sunwoojg/carelink/internal/client/api"
	"github.com/sunwoojg/carelink/internal/client/config"
	"github.com/sunwoojg/carelink/internal/client/creds"
	"github.com/sunwoojg/carelink/internal/client/session"
	"github.com/sunwoojg/carelink/internal/logging"
)

// app bundles the wired client stack shared by every subcommand.
type app struct {
	cfg    *config.Config
	log    logging.Logger
	bolt   *creds.BoltStore
	client *api.Client
	sess   *session.Controller
}

func logLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// newApp loads config and wires store → pipeline → session. The bbolt
// file always opens (it carries the profile cache); when a sealing
// secret is configured the credential pair itself moves to an encrypted
// file beside it.
func newApp() (*app, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	log := logging.NewTextLogger(os.Stderr, logLevel(cfg.LogLevel))

	bolt, err := creds.OpenBolt(cfg.Credentials.Path)
	if err != nil {
		return nil, err
	}

	var store creds.Store = bolt
	if cfg.Credentials.SealSecretFile != "" {
		secret, err := os.ReadFile(cfg.Credentials.SealSecretFile)
		if err != nil {
			_ = bolt.Close()
			return nil, fmt.Errorf("reading sealing secret: %w", err)
		}
		store = creds.NewSealedFileStore(cfg.Credentials.Path+".sealed", secret)
	}

	var sess *session.Controller
	client, err := api.New(cfg.Backend.BaseURL, store,
		api.WithLogger(log),
		api.WithHTTPClient(&http.Client{Timeout: cfg.Backend.Timeout}),
		api.WithAuthRevokedHook(func() {
			if sess != nil {
				sess.HandleAuthRevoked()
			}
		}),
	)
	if err != nil {
		_ = bolt.Close()
		return nil, err
	}

	sess = session.New(client, store,
		session.WithProfileCache(bolt),
		session.WithLogger(log),
	)

	return &app{cfg: cfg, log: log, bolt: bolt, client: client, sess: sess}, nil
}

func (a *app) Close() error {
	return a.bolt.Close()
}
