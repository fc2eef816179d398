// Package config loads, normalizes, and validates kari configuration files.
//
// Configuration lives in TOML (~/.config/kari/config.toml or ./kari.toml).
// Credentials may come from the file, from environment variables (optionally
// seeded by a .env file), or from the OS keyring when backend.use_keyring is
// enabled. Load always returns a fully normalized Config with absolute paths
// and defaults applied, so callers never re-check zero values.
package config
