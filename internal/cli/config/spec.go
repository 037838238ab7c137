package config

import "time"

// CLIConfig is the configuration for memkv-cli.
type CLIConfig struct {
	// Server is the RESP address to connect to.
	Server string `yaml:"server"`
	// Output is the reply format: text, json or yaml.
	Output string `yaml:"output"`
	// Timeout bounds connecting and each request.
	Timeout time.Duration `yaml:"timeout"`
	// HistoryFile stores REPL history; empty keeps it in memory.
	HistoryFile string `yaml:"history_file"`
}

// Default returns the default CLI configuration.
func Default() *CLIConfig {
	return &CLIConfig{
		Server:      "127.0.0.1:6379",
		Output:      "text",
		Timeout:     5 * time.Second,
		HistoryFile: defaultHistoryFile(),
	}
}
