package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// Version information (set via ldflags at build time)
var (
	Version = "0.0.1-dev"
	Commit  = "unknown"
)

// CLI flags that override config file values
var (
	cfgFile   string
	logLevel  string
	logFormat string
	workers   int
	chunkSize int
)

var rootCmd = &cobra.Command{
	Use:   "goecs",
	Short: "Entity-Component-System engine toolkit",
	Long: `A CLI around an in-process Entity-Component-System engine: seed a
world from a config file, register systems by signature, and drive them
either sequentially or across a worker pool.

Features:
  - Signature-based table matching and binding (FromEntity/FromComponent)
  - Deterministic sequential fallback ordering for table-conflicting systems
  - Worker-pool job scheduling with overlap-free row ranges
  - ASCII diagrams of a system's table partition`,
	Version: Version,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	// Config file flag
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "goecs.yaml",
		"Path to configuration file")

	// Logging overrides
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"Override log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "",
		"Override log format (json, text)")

	// Engine overrides
	rootCmd.PersistentFlags().IntVar(&workers, "workers", 0,
		"Override worker pool size (0 keeps the config value)")
	rootCmd.PersistentFlags().IntVar(&chunkSize, "chunk-size", 0,
		"Override scheduler job chunk size (rows per job)")
}

// GetConfigFile returns the config file path
func GetConfigFile() string {
	return cfgFile
}

// CLIOverrides contains flag values that override config file settings
type CLIOverrides struct {
	LogLevel  string
	LogFormat string
	Workers   int
	ChunkSize int
}

// GetCLIOverrides returns the CLI flag override values
func GetCLIOverrides() CLIOverrides {
	return CLIOverrides{
		LogLevel:  logLevel,
		LogFormat: logFormat,
		Workers:   workers,
		ChunkSize: chunkSize,
	}
}
