package core

import (
	"context"
	"errors"
	"os"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var configKeys = []string{
	"service_name",
	"http.timeout",
	"http.max_response_body_bytes",
	"http.user_agent",
	"localization.default_locale",
	"persistence.driver",
	"persistence.server",
	"persistence.debug",
	"persistence.ping_timeout",
	"persistence.otel_identifier",
}

var durationConfigKeys = []string{
	"http.timeout",
	"persistence.ping_timeout",
}

// ViperConfigLoader reads an optional config file plus environment variables.
// Env files are loaded first and later files override earlier ones, so
// secrets can live outside the main config file.
type ViperConfigLoader struct {
	Path      string
	EnvFiles  []string
	EnvPrefix string
}

func (l ViperConfigLoader) LoadRaw(ctx context.Context) (map[string]any, error) {
	if ctx != nil {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}
	if err := loadEnvFiles(l.EnvFiles); err != nil {
		return nil, err
	}

	v := viper.New()
	if prefix := strings.TrimSpace(l.EnvPrefix); prefix != "" {
		v.SetEnvPrefix(prefix)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range configKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, WrapError(err, goerrors.CategoryBadInput, ErrorBadInput, "core: bind config env key")
		}
	}

	if path := strings.TrimSpace(l.Path); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
				return nil, WrapError(err, goerrors.CategoryBadInput, ErrorBadInput, "core: read config file")
			}
		}
	}

	raw := v.AllSettings()
	for _, key := range durationConfigKeys {
		if v.IsSet(key) {
			setNested(raw, key, v.GetDuration(key))
		}
	}
	return raw, nil
}

func loadEnvFiles(files []string) error {
	for _, file := range files {
		file = strings.TrimSpace(file)
		if file == "" {
			continue
		}
		if _, err := os.Stat(file); err != nil {
			continue
		}
		if err := godotenv.Overload(file); err != nil {
			return WrapError(err, goerrors.CategoryBadInput, ErrorBadInput, "core: load env file "+file)
		}
	}
	return nil
}

func setNested(target map[string]any, dottedKey string, value any) {
	parts := strings.Split(dottedKey, ".")
	current := target
	for _, part := range parts[:len(parts)-1] {
		next, ok := current[part].(map[string]any)
		if !ok {
			next = map[string]any{}
			current[part] = next
		}
		current = next
	}
	current[parts[len(parts)-1]] = value
}
