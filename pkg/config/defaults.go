package config

import (
	"time"

	"github.com/mensylisir/dockmcp/pkg/common"
	"github.com/mensylisir/dockmcp/pkg/runner"
)

// SetDefaults applies default values for fields that were not explicitly set.
// It modifies cfg in place.
func SetDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	if cfg.Runtime.Binary == "" {
		cfg.Runtime.Binary = common.DefaultDockerBinary
	}
	def := runner.DefaultTimeouts()
	t := &cfg.Runtime.Timeouts
	setDuration(&t.Probe, def.Probe)
	setDuration(&t.List, def.List)
	setDuration(&t.Logs, def.Logs)
	setDuration(&t.Inspect, def.Inspect)
	setDuration(&t.Stats, def.Stats)
	setDuration(&t.Exec, def.Exec)

	if cfg.Server.Transport == "" {
		cfg.Server.Transport = common.TransportStdio
	}
	if cfg.Server.Listen == "" {
		cfg.Server.Listen = common.DefaultListenAddress
	}
	setDuration(&cfg.Server.ReadTimeout, 30*time.Second)
	// exec may legitimately run for the whole exec timeout
	setDuration(&cfg.Server.WriteTimeout, def.Exec+time.Minute)
	setDuration(&cfg.Server.ShutdownTimeout, 10*time.Second)

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
}

func setDuration(d *Duration, def time.Duration) {
	if *d == 0 {
		*d = Duration(def)
	}
}
