// Package config handles configuration loading and management for apitest.
//
// It provides functionality for:
//   - Loading configuration from .apitest.yaml or .apitest.json files
//   - Default configuration values
//   - Merging command-line overrides on top of file settings
package config
