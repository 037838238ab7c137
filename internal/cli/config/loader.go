package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Override keys accepted by Merge.
const (
	KeyServer  = "server"
	KeyOutput  = "output"
	KeyTimeout = "timeout"
)

// DefaultConfigPath returns the default CLI config file path.
func DefaultConfigPath() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".memkv", "cli.yaml")
}

func defaultHistoryFile() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".memkv", "history")
}

// Load loads CLI configuration from file. A missing file yields the
// defaults; fields absent from the file keep their default.
func Load(path string) (*CLIConfig, error) {
	if path == "" {
		path = DefaultConfigPath()
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read cli config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse cli config %s: %w", path, err)
	}
	cfg.HistoryFile = expandHome(cfg.HistoryFile)
	return cfg, nil
}

// Save writes the configuration to path, readable only by the owner.
func Save(cfg *CLIConfig, path string) error {
	if path == "" {
		path = DefaultConfigPath()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode cli config: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}

// Merge returns a copy of cfg with the flag values applied.
func Merge(cfg *CLIConfig, flags map[string]string) (*CLIConfig, error) {
	merged := *cfg
	if v, ok := flags[KeyServer]; ok {
		merged.Server = v
	}
	if v, ok := flags[KeyOutput]; ok {
		merged.Output = v
	}
	if v, ok := flags[KeyTimeout]; ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid timeout %q: %w", v, err)
		}
		merged.Timeout = d
	}
	return &merged, nil
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(homeDir, strings.TrimPrefix(path, "~"))
}
