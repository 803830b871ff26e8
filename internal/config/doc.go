// Package config loads LoadAudit configuration from defaults, a YAML file,
// LA_* environment variables and command-line overrides, in that order.
package config
