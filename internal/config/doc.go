// Package config provides configuration loading and validation for the attendance recorder.
// It handles YAML-based configuration with per-section validation, fills defaults for
// omitted values, and expands ${VAR} references after loading a .env file.
package config
