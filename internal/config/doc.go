// Package config loads, normalizes, and validates bilitext configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// BILITEXT_LLM_API_KEY. The Config type centralizes every knob the CLI and
// pipeline need: work directories, external tool binaries, correction backend
// selection, and logging output.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
