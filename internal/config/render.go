package config

import (
	"fmt"

	toml "github.com/pelletier/go-toml/v2"
)

const redacted = "[redacted]"

type fileSchema struct {
	GLPI    glpiSchema    `toml:"glpi"`
	Matrix  matrixSchema  `toml:"matrix"`
	Message messageSchema `toml:"message"`
	Poll    pollSchema    `toml:"poll"`
	Log     logSchema     `toml:"log"`
}

type glpiSchema struct {
	URL      string `toml:"url"`
	Username string `toml:"username"`
	Password string `toml:"password"`
	AppToken string `toml:"app_token"`
	Range    string `toml:"range,omitempty"`
}

type matrixSchema struct {
	Homeserver string `toml:"homeserver"`
	Token      string `toml:"token"`
	RoomID     string `toml:"room_id"`
}

type messageSchema struct {
	Template string `toml:"template,omitempty"`
}

type pollSchema struct {
	Interval         string `toml:"interval"`
	RecoveryInterval string `toml:"recovery_interval"`
	MaxErrors        int    `toml:"max_errors"`
}

type logSchema struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Redacted returns a copy of c with every secret replaced by a marker.
// Unset secrets stay empty so missing values remain visible.
func (c Config) Redacted() Config {
	c.GLPI.Password = redact(c.GLPI.Password)
	c.GLPI.AppToken = redact(c.GLPI.AppToken)
	c.Matrix.Token = redact(c.Matrix.Token)
	return c
}

// TOML renders c in the config file format. Callers wanting to display it
// should pass the Redacted copy.
func (c Config) TOML() ([]byte, error) {
	out, err := toml.Marshal(toSchema(c))
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return out, nil
}

func toSchema(c Config) fileSchema {
	return fileSchema{
		GLPI: glpiSchema{
			URL:      c.GLPI.URL,
			Username: c.GLPI.Username,
			Password: c.GLPI.Password,
			AppToken: c.GLPI.AppToken,
			Range:    c.GLPI.Range,
		},
		Matrix: matrixSchema{
			Homeserver: c.Matrix.Homeserver,
			Token:      c.Matrix.Token,
			RoomID:     c.Matrix.RoomID,
		},
		Message: messageSchema{Template: c.MessageTemplate},
		Poll: pollSchema{
			Interval:         c.Poll.Interval.String(),
			RecoveryInterval: c.Poll.RecoveryInterval.String(),
			MaxErrors:        c.Poll.MaxErrors,
		},
		Log: logSchema{Level: c.Log.Level, Format: c.Log.Format},
	}
}

func redact(s string) string {
	if s == "" {
		return ""
	}
	return redacted
}
