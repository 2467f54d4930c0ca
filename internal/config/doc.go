// Package config loads, normalizes, and validates seasontrack configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// SEASONTRACK_STORAGE_BACKEND. The Config type centralizes the storage and
// logging knobs the CLI needs so every command resolves them in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical backend names, and clear validation errors.
package config
