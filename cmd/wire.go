package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/bnema/ticketwatch/internal/adapters/glpi"
	"github.com/bnema/ticketwatch/internal/adapters/matrix"
	chainstore "github.com/bnema/ticketwatch/internal/adapters/secrets/chain"
	"github.com/bnema/ticketwatch/internal/config"
	"github.com/bnema/ticketwatch/internal/ports"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const secretsDirName = "secrets"

type app struct {
	v           *viper.Viper
	openSecrets func() (ports.SecretStore, error)
	httpClient  *http.Client
	clock       ports.Clock
	bindErr     error
}

func newApp(v *viper.Viper) *app {
	return &app{
		v:           v,
		openSecrets: defaultSecretStore,
		httpClient:  http.DefaultClient,
		clock:       ports.SystemClock{},
	}
}

// defaultSecretStore asks pass first, then files under
// $XDG_CONFIG_HOME/ticketwatch/secrets.
func defaultSecretStore() (ports.SecretStore, error) {
	configPath, err := config.DefaultConfigPath()
	if err != nil {
		return nil, err
	}

	store, err := chainstore.NewPassFirstWithFileFallback(filepath.Join(filepath.Dir(configPath), secretsDirName))
	if err != nil {
		return nil, fmt.Errorf("wire secret store chain: %w", err)
	}
	return store, nil
}

func (a *app) bindFlag(key string, flag *pflag.Flag) {
	if err := a.v.BindPFlag(key, flag); err != nil && a.bindErr == nil {
		a.bindErr = fmt.Errorf("bind flag %s: %w", key, err)
	}
}

// load reads the configuration and builds the logger for one command run.
// Logs go to the command's stderr.
func (a *app) load(cmd *cobra.Command) (config.Config, *slog.Logger, error) {
	if a.bindErr != nil {
		return config.Config{}, nil, a.bindErr
	}

	secrets, err := a.openSecrets()
	if err != nil {
		return config.Config{}, nil, err
	}

	cfg, err := config.Load(cmd.Context(), a.v, secrets)
	if err != nil {
		return config.Config{}, nil, err
	}

	logger, err := newLogger(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return config.Config{}, nil, err
	}

	return cfg, logger, nil
}

func (a *app) newGLPIClient(cfg config.Config, logger *slog.Logger) *glpi.Client {
	return &glpi.Client{
		BaseURL: cfg.GLPI.URL,
		Credentials: glpi.Credentials{
			Username: cfg.GLPI.Username,
			Password: cfg.GLPI.Password,
			AppToken: cfg.GLPI.AppToken,
		},
		Range:      cfg.GLPI.Range,
		HTTPClient: a.httpClient,
		Logger:     logger.With("component", "glpi"),
	}
}

func (a *app) newNotifier(cfg config.Config, logger *slog.Logger) (*matrix.Notifier, error) {
	notifier, err := matrix.NewNotifier(matrix.Config{
		HomeserverURL: cfg.Matrix.Homeserver,
		AccessToken:   cfg.Matrix.Token,
		RoomID:        cfg.Matrix.RoomID,
		Template:      cfg.MessageTemplate,
	},
		matrix.WithClock(a.clock),
		matrix.WithLogger(logger.With("component", "matrix")),
	)
	if err != nil {
		return nil, fmt.Errorf("wire matrix notifier: %w", err)
	}
	return notifier, nil
}

func newLogger(w io.Writer, level, format string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	opts := &slog.HandlerOptions{Level: lvl}
	switch format {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("invalid log format %q: want text or json", format)
	}
}
