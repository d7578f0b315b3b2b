// Package config handles keyring configuration.
//
// Settings come from defaults, then the keyring.conf file in the data
// directory, then command-line flags.
package config

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/Klingon-tech/klingnet-keyring/internal/wallet"
)

// Backend selects where the account registry is persisted.
type Backend string

const (
	BackendBadger Backend = "badger" // Badger key-value store under <datadir>/db
	BackendFile   Backend = "file"   // Single JSON file, optionally encrypted
	BackendMemory Backend = "memory" // Nothing is written; the registry lives for one run
)

// Config holds keyring runtime configuration.
type Config struct {
	DataDir string  `conf:"datadir"`
	Backend Backend `conf:"backend"`

	// Encrypt seals the registry with a password. File backend only.
	Encrypt bool `conf:"encrypt"`

	// KDF holds the Argon2id cost used when Encrypt is set.
	KDF KDFConfig

	Log LogConfig
}

// KDFConfig holds Argon2id parameters.
type KDFConfig struct {
	Memory      uint32 `conf:"kdf.memory"` // KiB
	Iterations  uint32 `conf:"kdf.iterations"`
	Parallelism uint8  `conf:"kdf.parallelism"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `conf:"log.level"`
	File  string `conf:"log.file"`
	JSON  bool   `conf:"log.json"`
}

// DefaultDataDir returns the platform-specific default data directory.
//
//	Linux:   ~/.klingnet-keyring
//	macOS:   ~/Library/Application Support/Klingnet Keyring
//	Windows: %APPDATA%\Klingnet Keyring
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".klingnet-keyring"
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "Klingnet Keyring")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData != "" {
			return filepath.Join(appData, "Klingnet Keyring")
		}
		return filepath.Join(home, "AppData", "Roaming", "Klingnet Keyring")
	default:
		return filepath.Join(home, ".klingnet-keyring")
	}
}

// DBDir returns the Badger database directory.
func (c *Config) DBDir() string {
	return filepath.Join(c.DataDir, "db")
}

// KeyringFile returns the registry file used by the file backend.
func (c *Config) KeyringFile() string {
	return filepath.Join(c.DataDir, "keyring.json")
}

// LogsDir returns the logs directory.
func (c *Config) LogsDir() string {
	return filepath.Join(c.DataDir, "logs")
}

// ConfigFile returns the config file path.
func (c *Config) ConfigFile() string {
	return filepath.Join(c.DataDir, "keyring.conf")
}

// EncryptionParams returns the Argon2id parameters for the file backend.
func (c *Config) EncryptionParams() wallet.EncryptionParams {
	return wallet.EncryptionParams{
		Memory:      c.KDF.Memory,
		Iterations:  c.KDF.Iterations,
		Parallelism: c.KDF.Parallelism,
	}
}
