package config

import (
	"fmt"

	"github.com/mensylisir/dockmcp/pkg/common"
	"github.com/mensylisir/dockmcp/pkg/logger"
	"github.com/mensylisir/dockmcp/pkg/util/validation"
)

// Validate checks a defaulted configuration and reports every problem at once.
func Validate(cfg *Config) error {
	errs := &validation.ValidationErrors{}
	if cfg == nil {
		errs.Add("configuration is nil")
		return errs
	}

	if cfg.Runtime.Binary == "" {
		errs.AddError("runtime.binary", "must not be empty")
	}
	for name, d := range map[string]Duration{
		"probe":   cfg.Runtime.Timeouts.Probe,
		"list":    cfg.Runtime.Timeouts.List,
		"logs":    cfg.Runtime.Timeouts.Logs,
		"inspect": cfg.Runtime.Timeouts.Inspect,
		"stats":   cfg.Runtime.Timeouts.Stats,
		"exec":    cfg.Runtime.Timeouts.Exec,
	} {
		if d < 0 {
			errs.AddError("runtime.timeouts."+name, fmt.Sprintf("must not be negative, got %s", d.Std()))
		}
	}

	switch cfg.Server.Transport {
	case common.TransportStdio, common.TransportHTTP:
	default:
		errs.AddError("server.transport", fmt.Sprintf("must be %q or %q, got %q", common.TransportStdio, common.TransportHTTP, cfg.Server.Transport))
	}
	if cfg.Server.Transport == common.TransportHTTP && cfg.Server.Listen == "" {
		errs.AddError("server.listen", "must not be empty for the http transport")
	}
	for name, d := range map[string]Duration{
		"readTimeout":     cfg.Server.ReadTimeout,
		"writeTimeout":    cfg.Server.WriteTimeout,
		"shutdownTimeout": cfg.Server.ShutdownTimeout,
	} {
		if d < 0 {
			errs.AddError("server."+name, fmt.Sprintf("must not be negative, got %s", d.Std()))
		}
	}

	if _, err := logger.ParseLevel(cfg.Log.Level); err != nil {
		errs.AddError("log.level", err.Error())
	}
	for name, v := range map[string]int{
		"maxSizeMB":  cfg.Log.MaxSizeMB,
		"maxBackups": cfg.Log.MaxBackups,
		"maxAgeDays": cfg.Log.MaxAgeDays,
	} {
		if v < 0 {
			errs.AddError("log."+name, fmt.Sprintf("must not be negative, got %d", v))
		}
	}
	return errs.ErrOrNil()
}
