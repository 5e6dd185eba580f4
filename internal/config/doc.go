// Package config loads application configuration from environment variables
// and an optional YAML file, and resolves the filesystem layout the scanner
// works in.
package config
