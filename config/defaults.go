package config

import "github.com/Klingon-tech/klingnet-keyring/internal/wallet"

// Default returns the default keyring configuration.
func Default() *Config {
	p := wallet.DefaultParams()
	return &Config{
		DataDir: DefaultDataDir(),
		Backend: BackendBadger,
		Encrypt: false,
		KDF: KDFConfig{
			Memory:      p.Memory,
			Iterations:  p.Iterations,
			Parallelism: p.Parallelism,
		},
		Log: LogConfig{
			Level: "warn",
			JSON:  false,
		},
	}
}
