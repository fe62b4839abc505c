// Package config loads, normalizes, and validates payflow configuration from
// TOML. Defaults come from Default(); Load layers a config file on top,
// expands ~ paths, and rejects unusable values before any component starts.
package config
