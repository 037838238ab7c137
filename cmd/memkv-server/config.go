package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/memkv/internal/infra/confloader"
	"github.com/yndnr/memkv/internal/server/config"
)

const (
	flagConfig    = "config"
	flagAddr      = "addr"
	flagLogLevel  = "log-level"
	flagAdminAddr = "admin-addr"
)

// flagOverrides maps the flags set on the command line to config keys.
func flagOverrides(c *cli.Context) map[string]any {
	overrides := make(map[string]any)
	if c.IsSet(flagAddr) {
		overrides["server.redis.addr"] = c.String(flagAddr)
	}
	if c.IsSet(flagLogLevel) {
		overrides["log.level"] = c.String(flagLogLevel)
	}
	if c.IsSet(flagAdminAddr) {
		overrides["server.admin.addr"] = c.String(flagAdminAddr)
		overrides["server.admin.enabled"] = true
	}
	return overrides
}

// loadConfig layers defaults, the file, the environment and overrides,
// then normalizes and validates the result.
func loadConfig(configFile string, overrides map[string]any) (*config.ServerConfig, error) {
	cfg := config.Default()

	var opts []confloader.Option
	if configFile != "" {
		opts = append(opts, confloader.WithConfigFile(configFile))
	}
	loader := confloader.NewLoader(opts...)

	if err := loader.Load(cfg); err != nil {
		return nil, err
	}

	if len(overrides) > 0 {
		if err := loader.LoadMap(overrides); err != nil {
			return nil, fmt.Errorf("apply flags: %w", err)
		}
		if err := loader.Unmarshal(cfg); err != nil {
			return nil, fmt.Errorf("apply flags: %w", err)
		}
	}

	cfg = config.Sanitize(cfg)
	if err := config.Verify(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
