// Package config provides configuration loading for Ganymede.
//
// # Overview
//
// Configuration is loaded from a YAML file, with defaults applied to
// unset fields and optional environment variable overrides using the
// GANYMEDE_SECTION_FIELD naming convention. A .env file can supply
// those variables during development.
//
// # Usage
//
//	cfg, err := config.LoadConfigWithEnvOverrides("ganymede.yaml")
//	if err != nil {
//	    return err
//	}
//	limiterCfg := cfg.Quota.ToLimiter()
//
// Applications that prefer a process-wide configuration can use the
// singleton accessors:
//
//	if err := config.Initialize("ganymede.yaml"); err != nil {
//	    return err
//	}
//	cfg := config.MustGetConfig()
//
// # Hot Reload
//
// FileWatcher watches the configuration file with fsnotify and invokes
// a reload callback after a debounce interval, so editor write patterns
// and atomic renames do not trigger reload storms.
package config
