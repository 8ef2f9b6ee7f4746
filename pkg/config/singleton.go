package config

import (
	"fmt"
	"sync"
)

var (
	// globalConfig is the process-wide configuration, nil until Initialize
	// or SetConfig runs.
	globalConfig *Config

	// configMutex protects globalConfig.
	configMutex sync.RWMutex

	// initOnce makes Initialize first-call-wins.
	initOnce sync.Once
)

// Initialize loads the configuration file (with GANYMEDE_* environment
// overrides) and installs it as the process-wide configuration. Call it
// once at startup; later calls are ignored.
func Initialize(path string) error {
	var initErr error

	initOnce.Do(func() {
		cfg, err := LoadConfigWithEnvOverrides(path)
		if err != nil {
			initErr = err
			return
		}

		configMutex.Lock()
		globalConfig = cfg
		configMutex.Unlock()
	})

	return initErr
}

// GetConfig returns the process-wide configuration, or nil before a
// successful Initialize. Safe for concurrent use.
//
// Library code should take a Config parameter instead of reaching for
// the singleton; this accessor exists for application wiring.
func GetConfig() *Config {
	configMutex.RLock()
	defer configMutex.RUnlock()
	return globalConfig
}

// SetConfig replaces the process-wide configuration directly, bypassing
// file loading. Intended for tests that need to inject a configuration
// without touching the filesystem.
func SetConfig(cfg *Config) {
	configMutex.Lock()
	defer configMutex.Unlock()
	globalConfig = cfg
}

// ReloadConfig re-reads the configuration file and swaps in the result.
// On error the installed configuration is left untouched, so a bad edit
// to the file cannot take down a running process.
func ReloadConfig(path string) error {
	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		return fmt.Errorf("failed to reload configuration: %w", err)
	}

	configMutex.Lock()
	globalConfig = cfg
	configMutex.Unlock()

	return nil
}

// MustGetConfig returns the process-wide configuration and panics if it
// has not been initialized. For code paths that only run after startup
// wiring succeeded; everywhere else, prefer GetConfig.
func MustGetConfig() *Config {
	cfg := GetConfig()
	if cfg == nil {
		panic("configuration not initialized: call Initialize first")
	}
	return cfg
}
