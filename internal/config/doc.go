// Package config loads, normalizes, and validates waybackfill configuration.
//
// Settings come from a TOML file (the --config flag, then
// ~/.config/waybackfill/config.toml, then ./waybackfill.toml) layered over
// built-in defaults, with a small set of WAYBACKFILL_* environment overrides.
// Load always returns absolute paths so callers never resolve them again.
package config
