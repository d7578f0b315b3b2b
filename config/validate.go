package config

import (
	"fmt"

	"github.com/Klingon-tech/klingnet-keyring/internal/log"
)

// Validate checks the config for obvious operator mistakes.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	switch cfg.Backend {
	case BackendBadger, BackendFile, BackendMemory:
	default:
		return fmt.Errorf("backend must be %q, %q, or %q", BackendBadger, BackendFile, BackendMemory)
	}
	if cfg.DataDir == "" && cfg.Backend != BackendMemory {
		return fmt.Errorf("datadir is required for the %s backend", cfg.Backend)
	}
	if cfg.Encrypt {
		if cfg.Backend != BackendFile {
			return fmt.Errorf("encrypt requires backend = %s", BackendFile)
		}
		if err := cfg.EncryptionParams().Validate(); err != nil {
			return fmt.Errorf("kdf: %w", err)
		}
	}
	if !log.ValidLevel(cfg.Log.Level) {
		return fmt.Errorf("log.level must be debug, info, warn, or error")
	}
	return nil
}
