package arrears

import "context"

// ConfigProvider exposes the current arrears policy to the engine. Reads are
// never expected to fail on a missing row: implementations fall back to
// DefaultConfig.
type ConfigProvider interface {
	// Current returns the active configuration, or a zero-rate default when
	// none has been set up yet.
	Current(ctx context.Context) (*Config, error)
}

// ConfigRepository defines persistence for the configuration singleton
type ConfigRepository interface {
	// Find returns the configuration row, or shared.ErrNotFound
	Find(ctx context.Context) (*Config, error)

	// Save creates or updates the configuration row
	Save(ctx context.Context, cfg *Config) error
}
