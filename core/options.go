package core

import (
	"context"
	"strings"

	"github.com/goliatone/go-config/cfgx"
	goerrors "github.com/goliatone/go-errors"
	opts "github.com/goliatone/go-options"
)

type ConfigProvider interface {
	Load(ctx context.Context, defaults Config) (Config, error)
}

type RawConfigLoader interface {
	LoadRaw(ctx context.Context) (map[string]any, error)
}

type OptionsResolver interface {
	Resolve(defaults Config, loaded Config, runtime Config) (Config, error)
}

type configLoader struct {
	defaults        Config
	provider        ConfigProvider
	optionsResolver OptionsResolver
}

type ConfigOption func(*configLoader)

func WithConfigDefaults(defaults Config) ConfigOption {
	return func(l *configLoader) {
		l.defaults = defaults
	}
}

func WithConfigProvider(provider ConfigProvider) ConfigOption {
	return func(l *configLoader) {
		l.provider = provider
	}
}

func WithOptionsResolver(resolver OptionsResolver) ConfigOption {
	return func(l *configLoader) {
		l.optionsResolver = resolver
	}
}

// LoadConfig resolves the effective configuration. Layers apply in order:
// defaults, then whatever the provider loads, then the runtime overrides.
func LoadConfig(ctx context.Context, runtime Config, options ...ConfigOption) (Config, error) {
	loader := configLoader{
		defaults:        DefaultConfig(),
		provider:        NewCfgxConfigProvider(nil),
		optionsResolver: GoOptionsResolver{},
	}
	for _, option := range options {
		if option != nil {
			option(&loader)
		}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	loaded := loader.defaults
	if loader.provider != nil {
		cfg, err := loader.provider.Load(ctx, loader.defaults)
		if err != nil {
			return Config{}, WrapError(err, goerrors.CategoryBadInput, ErrorBadInput, "core: load configuration")
		}
		loaded = cfg
	}
	if loader.optionsResolver == nil {
		merged := loaded
		overlayConfig(&merged, runtime)
		if err := merged.Validate(); err != nil {
			return Config{}, err
		}
		return merged, nil
	}
	return loader.optionsResolver.Resolve(loader.defaults, loaded, runtime)
}

type StaticRawConfigLoader struct {
	Values map[string]any
}

func (l StaticRawConfigLoader) LoadRaw(context.Context) (map[string]any, error) {
	if len(l.Values) == 0 {
		return map[string]any{}, nil
	}
	out := make(map[string]any, len(l.Values))
	for key, value := range l.Values {
		out[key] = value
	}
	return out, nil
}

type CfgxConfigProvider struct {
	Loader RawConfigLoader
}

func NewCfgxConfigProvider(loader RawConfigLoader) *CfgxConfigProvider {
	return &CfgxConfigProvider{Loader: loader}
}

func (p *CfgxConfigProvider) Load(ctx context.Context, defaults Config) (Config, error) {
	if p == nil {
		return defaults, nil
	}
	loader := p.Loader
	if loader == nil {
		loader = StaticRawConfigLoader{}
	}
	raw, err := loader.LoadRaw(ctx)
	if err != nil {
		return Config{}, err
	}
	cfg, err := cfgx.Build[Config](raw,
		cfgx.WithDefaults(defaults),
		cfgx.WithValidator[Config]((*Config).Validate),
	)
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}

type GoOptionsResolver struct{}

func (GoOptionsResolver) Resolve(defaults Config, loaded Config, runtime Config) (Config, error) {
	defaultLayer := configToLayerMap(defaults, true)
	loadedLayer := configToLayerMap(loaded, false)
	runtimeLayer := configToLayerMap(runtime, false)

	stack, err := opts.NewStack(
		opts.NewLayer(
			opts.NewScope("defaults", 0),
			defaultLayer,
			opts.WithSnapshotID[map[string]any]("defaults"),
		),
		opts.NewLayer(
			opts.NewScope("config", 10),
			loadedLayer,
			opts.WithSnapshotID[map[string]any]("config"),
		),
		opts.NewLayer(
			opts.NewScope("runtime", 20),
			runtimeLayer,
			opts.WithSnapshotID[map[string]any]("runtime"),
		),
	)
	if err != nil {
		return Config{}, WrapError(err, goerrors.CategoryInternal, ErrorInternal, "core: options stack build failed")
	}
	merged, err := stack.Merge()
	if err != nil {
		return Config{}, WrapError(err, goerrors.CategoryInternal, ErrorInternal, "core: options merge failed")
	}
	resolved, err := cfgx.Build[Config](merged.Value,
		cfgx.WithDefaults(defaults),
		cfgx.WithValidator[Config]((*Config).Validate),
	)
	if err != nil {
		return Config{}, err
	}
	if err := resolved.Validate(); err != nil {
		return Config{}, err
	}
	return resolved, nil
}

// configToLayerMap only emits non zero values unless includeZero is set, so a
// higher layer never clobbers a lower one with an unset field.
func configToLayerMap(cfg Config, includeZero bool) map[string]any {
	layer := map[string]any{}
	if includeZero || strings.TrimSpace(cfg.ServiceName) != "" {
		layer["service_name"] = cfg.ServiceName
	}

	httpLayer := map[string]any{}
	if includeZero || cfg.HTTP.Timeout != 0 {
		httpLayer["timeout"] = cfg.HTTP.Timeout
	}
	if includeZero || cfg.HTTP.MaxResponseBodyBytes != 0 {
		httpLayer["max_response_body_bytes"] = cfg.HTTP.MaxResponseBodyBytes
	}
	if includeZero || strings.TrimSpace(cfg.HTTP.UserAgent) != "" {
		httpLayer["user_agent"] = cfg.HTTP.UserAgent
	}
	if len(httpLayer) > 0 {
		layer["http"] = httpLayer
	}

	if includeZero || strings.TrimSpace(cfg.Localization.DefaultLocale) != "" {
		layer["localization"] = map[string]any{
			"default_locale": cfg.Localization.DefaultLocale,
		}
	}

	persistenceLayer := map[string]any{}
	if includeZero || strings.TrimSpace(cfg.Persistence.Driver) != "" {
		persistenceLayer["driver"] = cfg.Persistence.Driver
	}
	if includeZero || strings.TrimSpace(cfg.Persistence.Server) != "" {
		persistenceLayer["server"] = cfg.Persistence.Server
	}
	if includeZero || cfg.Persistence.Debug {
		persistenceLayer["debug"] = cfg.Persistence.Debug
	}
	if includeZero || cfg.Persistence.PingTimeout != 0 {
		persistenceLayer["ping_timeout"] = cfg.Persistence.PingTimeout
	}
	if includeZero || strings.TrimSpace(cfg.Persistence.OtelIdentifier) != "" {
		persistenceLayer["otel_identifier"] = cfg.Persistence.OtelIdentifier
	}
	if len(persistenceLayer) > 0 {
		layer["persistence"] = persistenceLayer
	}
	return layer
}

func overlayConfig(target *Config, override Config) {
	if strings.TrimSpace(override.ServiceName) != "" {
		target.ServiceName = override.ServiceName
	}
	if override.HTTP.Timeout != 0 {
		target.HTTP.Timeout = override.HTTP.Timeout
	}
	if override.HTTP.MaxResponseBodyBytes != 0 {
		target.HTTP.MaxResponseBodyBytes = override.HTTP.MaxResponseBodyBytes
	}
	if strings.TrimSpace(override.HTTP.UserAgent) != "" {
		target.HTTP.UserAgent = override.HTTP.UserAgent
	}
	if strings.TrimSpace(override.Localization.DefaultLocale) != "" {
		target.Localization.DefaultLocale = override.Localization.DefaultLocale
	}
	if strings.TrimSpace(override.Persistence.Driver) != "" {
		target.Persistence.Driver = override.Persistence.Driver
	}
	if strings.TrimSpace(override.Persistence.Server) != "" {
		target.Persistence.Server = override.Persistence.Server
	}
	if override.Persistence.Debug {
		target.Persistence.Debug = true
	}
	if override.Persistence.PingTimeout != 0 {
		target.Persistence.PingTimeout = override.Persistence.PingTimeout
	}
	if strings.TrimSpace(override.Persistence.OtelIdentifier) != "" {
		target.Persistence.OtelIdentifier = override.Persistence.OtelIdentifier
	}
}
