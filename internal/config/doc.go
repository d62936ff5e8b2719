// Package config loads, normalizes, and validates bookbinder configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// BOOKBINDER_FFMPEG. The Config type is passed explicitly into every split or
// merge job so no package keeps process-wide settings of its own.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
