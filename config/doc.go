// Package config loads the link checker configuration from a YAML file,
// LINKPULSE_* environment variables and command line flags, and validates it.
// It covers the manifest source, both probe tiers, retry and batching, output
// files and the error counter backend.
package config
