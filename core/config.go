package core

import (
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"

	DefaultMaxResponseBodyBytes int64 = 10 << 20
	DefaultLocale                     = "en"
)

type HTTPConfig struct {
	// Timeout bounds a whole exchange. Zero leaves requests unbounded.
	Timeout              time.Duration `koanf:"timeout" mapstructure:"timeout"`
	MaxResponseBodyBytes int64         `koanf:"max_response_body_bytes" mapstructure:"max_response_body_bytes"`
	UserAgent            string        `koanf:"user_agent" mapstructure:"user_agent"`
}

type LocalizationConfig struct {
	DefaultLocale string `koanf:"default_locale" mapstructure:"default_locale"`
}

// PersistenceConfig satisfies the go-persistence-bun client configuration.
type PersistenceConfig struct {
	Driver         string        `koanf:"driver" mapstructure:"driver"`
	Server         string        `koanf:"server" mapstructure:"server"`
	Debug          bool          `koanf:"debug" mapstructure:"debug"`
	PingTimeout    time.Duration `koanf:"ping_timeout" mapstructure:"ping_timeout"`
	OtelIdentifier string        `koanf:"otel_identifier" mapstructure:"otel_identifier"`
}

func (c PersistenceConfig) GetDebug() bool { return c.Debug }

func (c PersistenceConfig) GetDriver() string { return c.Driver }

func (c PersistenceConfig) GetServer() string { return c.Server }

func (c PersistenceConfig) GetPingTimeout() time.Duration {
	if c.PingTimeout <= 0 {
		return time.Second
	}
	return c.PingTimeout
}

func (c PersistenceConfig) GetOtelIdentifier() string { return c.OtelIdentifier }

type Config struct {
	ServiceName  string             `koanf:"service_name" mapstructure:"service_name"`
	HTTP         HTTPConfig         `koanf:"http" mapstructure:"http"`
	Localization LocalizationConfig `koanf:"localization" mapstructure:"localization"`
	Persistence  PersistenceConfig  `koanf:"persistence" mapstructure:"persistence"`
}

func DefaultConfig() Config {
	return Config{
		ServiceName: "botbase",
		HTTP: HTTPConfig{
			MaxResponseBodyBytes: DefaultMaxResponseBodyBytes,
		},
		Localization: LocalizationConfig{
			DefaultLocale: DefaultLocale,
		},
		Persistence: PersistenceConfig{
			Driver:      DriverSQLite,
			PingTimeout: time.Second,
		},
	}
}

func (c Config) Validate() error {
	var fields []goerrors.FieldError
	if strings.TrimSpace(c.ServiceName) == "" {
		fields = append(fields, goerrors.FieldError{Field: "service_name", Message: "is required"})
	}
	if c.HTTP.Timeout < 0 {
		fields = append(fields, goerrors.FieldError{Field: "http.timeout", Message: "must not be negative"})
	}
	if c.HTTP.MaxResponseBodyBytes < 0 {
		fields = append(fields, goerrors.FieldError{Field: "http.max_response_body_bytes", Message: "must not be negative"})
	}
	switch strings.ToLower(strings.TrimSpace(c.Persistence.Driver)) {
	case "", DriverSQLite, DriverPostgres:
	default:
		fields = append(fields, goerrors.FieldError{
			Field:   "persistence.driver",
			Message: "must be one of sqlite3, postgres",
		})
	}
	if len(fields) == 0 {
		return nil
	}
	return goerrors.NewValidation("core: invalid configuration", fields...).
		WithCode(400).
		WithTextCode(ErrorBadInput)
}
