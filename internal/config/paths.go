// Package config provides centralized configuration for vpnflow.
package config

import (
	"os"
)

// PathConfig holds configurable paths for the pipeline.
// All paths can be overridden via environment variables.
type PathConfig struct {
	// DataDir is the directory holding PCAPs and flow tables
	DataDir string

	// ResultsDir is the directory for analyzer and feature outputs
	ResultsDir string
}

// DefaultPathConfig returns the default path configuration.
// Paths are determined by:
// 1. Environment variables (highest priority)
// 2. Defaults relative to the working directory, matching the
//    data/ and results/ layout the analyzers expect.
func DefaultPathConfig() *PathConfig {
	return &PathConfig{
		DataDir:    getEnvOrDefault("VPNFLOW_DATA_DIR", "data"),
		ResultsDir: getEnvOrDefault("VPNFLOW_RESULTS_DIR", "results"),
	}
}

// getEnvOrDefault returns the environment variable value or the default.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// EnsureDirectories creates all configured directories if they don't exist.
func (c *PathConfig) EnsureDirectories() error {
	for _, dir := range []string{c.DataDir, c.ResultsDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return nil
}

// Environment variable documentation for users
const PathEnvVarsDoc = `
vpnflow Path Configuration Environment Variables:

  VPNFLOW_DATA_DIR     Directory holding PCAPs and flow tables
                       Default: ./data

  VPNFLOW_RESULTS_DIR  Directory for analyzer and feature outputs
                       Default: ./results
`
