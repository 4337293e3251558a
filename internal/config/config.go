package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/bnema/ticketwatch/internal/domain"
	"github.com/bnema/ticketwatch/internal/ports"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	KeyConfigFile       = "config"
	KeyGLPIURL          = "glpi.url"
	KeyGLPIUsername     = "glpi.username"
	KeyGLPIPassword     = "glpi.password"
	KeyGLPIPasswordRef  = "glpi.password_ref"
	KeyGLPIAppToken     = "glpi.app_token"
	KeyGLPIAppTokenRef  = "glpi.app_token_ref"
	KeyGLPIRange        = "glpi.range"
	KeyMatrixHomeserver = "matrix.homeserver"
	KeyMatrixToken      = "matrix.token"
	KeyMatrixTokenRef   = "matrix.token_ref"
	KeyMatrixRoomID     = "matrix.room_id"
	KeyMessageTemplate  = "message.template"
	KeyPollInterval     = "poll.interval"
	KeyRecoveryInterval = "poll.recovery_interval"
	KeyMaxErrors        = "poll.max_errors"
	KeyLogLevel         = "log.level"
	KeyLogFormat        = "log.format"
)

const (
	configDirName  = "ticketwatch"
	configFileName = "config.toml"

	defaultPollInterval     = 60 * time.Second
	defaultRecoveryInterval = 20 * time.Second
	defaultMaxErrors        = 5
	defaultLogLevel         = "info"
	defaultLogFormat        = "text"
)

// envNames maps config keys to the environment variables read for them.
var envNames = map[string]string{
	KeyGLPIURL:          "GLPI_API_URL",
	KeyGLPIUsername:     "GLPI_USERNAME",
	KeyGLPIPassword:     "GLPI_PASSWORD",
	KeyGLPIPasswordRef:  "GLPI_PASSWORD_REF",
	KeyGLPIAppToken:     "GLPI_APP_TOKEN",
	KeyGLPIAppTokenRef:  "GLPI_APP_TOKEN_REF",
	KeyGLPIRange:        "TICKETWATCH_GLPI_RANGE",
	KeyMatrixHomeserver: "MATRIX_HOMESERVER",
	KeyMatrixToken:      "MATRIX_TOKEN",
	KeyMatrixTokenRef:   "MATRIX_TOKEN_REF",
	KeyMatrixRoomID:     "ROOM_ID",
	KeyMessageTemplate:  "MESSAGE_TEMPLATE",
	KeyPollInterval:     "TICKETWATCH_POLL_INTERVAL",
	KeyRecoveryInterval: "TICKETWATCH_RECOVERY_INTERVAL",
	KeyMaxErrors:        "TICKETWATCH_MAX_ERRORS",
	KeyLogLevel:         "TICKETWATCH_LOG_LEVEL",
	KeyLogFormat:        "TICKETWATCH_LOG_FORMAT",
}

type GLPI struct {
	URL      string
	Username string
	Password string
	AppToken string
	Range    string
}

type Matrix struct {
	Homeserver string
	Token      string
	RoomID     string
}

type Poll struct {
	Interval         time.Duration
	RecoveryInterval time.Duration
	MaxErrors        int
}

type Log struct {
	Level  string
	Format string
}

type Config struct {
	GLPI            GLPI
	Matrix          Matrix
	MessageTemplate string
	Poll            Poll
	Log             Log
	// File is the config file that was read, empty when none was found.
	File string
}

// LoadDotEnv loads KEY=VALUE pairs from path into the process environment.
// Variables already set are left alone and a missing file is not an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// DefaultConfigPath returns $XDG_CONFIG_HOME/ticketwatch/config.toml.
func DefaultConfigPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config directory: %w", err)
	}
	return filepath.Join(dir, configDirName, configFileName), nil
}

// Load reads the configuration from v. Flags must already be bound to v.
// Secret references are resolved through secrets when the literal value is
// empty; secrets may be nil when no references are used.
func Load(ctx context.Context, v *viper.Viper, secrets ports.SecretStore) (Config, error) {
	if v == nil {
		v = viper.New()
	}

	v.SetDefault(KeyPollInterval, defaultPollInterval.String())
	v.SetDefault(KeyRecoveryInterval, defaultRecoveryInterval.String())
	v.SetDefault(KeyMaxErrors, defaultMaxErrors)
	v.SetDefault(KeyLogLevel, defaultLogLevel)
	v.SetDefault(KeyLogFormat, defaultLogFormat)

	for key, env := range envNames {
		if err := v.BindEnv(key, env); err != nil {
			return Config{}, fmt.Errorf("bind env %s: %w", env, err)
		}
	}

	file, err := readConfigFile(v)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		GLPI: GLPI{
			URL:      strings.TrimSpace(v.GetString(KeyGLPIURL)),
			Username: v.GetString(KeyGLPIUsername),
			Password: v.GetString(KeyGLPIPassword),
			AppToken: v.GetString(KeyGLPIAppToken),
			Range:    strings.TrimSpace(v.GetString(KeyGLPIRange)),
		},
		Matrix: Matrix{
			Homeserver: strings.TrimSpace(v.GetString(KeyMatrixHomeserver)),
			Token:      v.GetString(KeyMatrixToken),
			RoomID:     strings.TrimSpace(v.GetString(KeyMatrixRoomID)),
		},
		MessageTemplate: v.GetString(KeyMessageTemplate),
		Log: Log{
			Level:  strings.ToLower(strings.TrimSpace(v.GetString(KeyLogLevel))),
			Format: strings.ToLower(strings.TrimSpace(v.GetString(KeyLogFormat))),
		},
		File: file,
	}

	if cfg.Poll.Interval, err = parseDuration(KeyPollInterval, v.GetString(KeyPollInterval)); err != nil {
		return Config{}, err
	}
	if cfg.Poll.RecoveryInterval, err = parseDuration(KeyRecoveryInterval, v.GetString(KeyRecoveryInterval)); err != nil {
		return Config{}, err
	}
	if cfg.Poll.MaxErrors, err = strconv.Atoi(strings.TrimSpace(v.GetString(KeyMaxErrors))); err != nil || cfg.Poll.MaxErrors <= 0 {
		return Config{}, fmt.Errorf("%s must be a positive integer, got %q", KeyMaxErrors, v.GetString(KeyMaxErrors))
	}

	refs := []struct {
		key   string
		ref   string
		value *string
	}{
		{KeyGLPIPasswordRef, v.GetString(KeyGLPIPasswordRef), &cfg.GLPI.Password},
		{KeyGLPIAppTokenRef, v.GetString(KeyGLPIAppTokenRef), &cfg.GLPI.AppToken},
		{KeyMatrixTokenRef, v.GetString(KeyMatrixTokenRef), &cfg.Matrix.Token},
	}
	for _, r := range refs {
		if *r.value != "" || strings.TrimSpace(r.ref) == "" {
			continue
		}
		if secrets == nil {
			return Config{}, fmt.Errorf("resolve %s: no secret store configured", r.key)
		}
		resolved, err := secrets.Get(ctx, strings.TrimSpace(r.ref))
		if err != nil {
			return Config{}, fmt.Errorf("resolve %s: %w", r.key, err)
		}
		*r.value = resolved
	}

	return cfg, nil
}

func readConfigFile(v *viper.Viper) (string, error) {
	explicit := strings.TrimSpace(v.GetString(KeyConfigFile))
	path := explicit
	if path == "" {
		var err error
		if path, err = DefaultConfigPath(); err != nil {
			return "", nil
		}
	}

	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if explicit == "" && (errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist)) {
			return "", nil
		}
		return "", fmt.Errorf("read config file %s: %w", path, err)
	}
	return path, nil
}

// parseDuration accepts Go duration strings and bare integers, read as seconds.
func parseDuration(key, raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if seconds, err := strconv.Atoi(raw); err == nil {
		raw = strconv.Itoa(seconds) + "s"
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%s must be a positive duration, got %q", key, raw)
	}
	return d, nil
}

// ValidateGLPI reports every missing GLPI setting.
func (c Config) ValidateGLPI() error {
	return missing(
		required{envNames[KeyGLPIURL], c.GLPI.URL},
		required{envNames[KeyGLPIUsername], c.GLPI.Username},
		required{envNames[KeyGLPIPassword], c.GLPI.Password},
		required{envNames[KeyGLPIAppToken], c.GLPI.AppToken},
	)
}

// ValidateMatrix reports every missing Matrix setting.
func (c Config) ValidateMatrix() error {
	return missing(
		required{envNames[KeyMatrixHomeserver], c.Matrix.Homeserver},
		required{envNames[KeyMatrixToken], c.Matrix.Token},
		required{envNames[KeyMatrixRoomID], c.Matrix.RoomID},
	)
}

// Validate reports every missing value needed to run the monitor.
func (c Config) Validate() error {
	var names []string
	for _, err := range []error{c.ValidateGLPI(), c.ValidateMatrix()} {
		var m *MissingError
		if errors.As(err, &m) {
			names = append(names, m.Names...)
		}
	}
	if len(names) == 0 {
		return nil
	}
	return &MissingError{Names: names}
}

type required struct {
	name  string
	value string
}

// MissingError lists the environment names of unset required values.
type MissingError struct {
	Names []string
}

func (e *MissingError) Error() string {
	return fmt.Sprintf("%s: %s", domain.ErrMissingConfig, strings.Join(e.Names, ", "))
}

func (e *MissingError) Unwrap() error {
	return domain.ErrMissingConfig
}

func missing(values ...required) error {
	var names []string
	for _, r := range values {
		if strings.TrimSpace(r.value) == "" {
			names = append(names, r.name)
		}
	}
	if len(names) == 0 {
		return nil
	}
	return &MissingError{Names: names}
}
