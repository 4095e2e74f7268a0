package core

import glog "github.com/goliatone/go-logger/glog"

var (
	_ Codec           = JSONCodec{}
	_ Localizer       = (*CatalogLocalizer)(nil)
	_ MetricsRecorder = NopMetricsRecorder{}
	_ RawConfigLoader = ViperConfigLoader{}
	_ RawConfigLoader = StaticRawConfigLoader{}
	_ ConfigProvider  = (*CfgxConfigProvider)(nil)
	_ OptionsResolver = GoOptionsResolver{}

	_ Logger         = glog.Nop()
	_ LoggerProvider = glog.ProviderFromLogger(glog.Nop())
)
