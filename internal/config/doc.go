// Package config loads, normalizes, and validates o3enc configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours the O3ENC_LOG_LEVEL environment
// override. The Config type centralizes every knob the CLI needs: where presets
// live, where outputs and two-pass logs are written, which engine binaries to
// run, and how hard cleanup retries locked files.
//
// Always obtain settings through this package so downstream code receives
// absolute paths, canonical log formats, and clear validation errors.
package config
