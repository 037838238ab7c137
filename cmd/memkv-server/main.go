package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/memkv/internal/infra/buildinfo"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	cli.VersionPrinter = func(c *cli.Context) {
		fmt.Fprintf(c.App.Writer, "memkv-server %s\n", buildinfo.String())
	}

	return &cli.App{
		Name:    "memkv-server",
		Usage:   "In-memory key-value server speaking RESP",
		Version: buildinfo.Get().Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    flagConfig,
				Aliases: []string{"c"},
				Usage:   "Path to YAML configuration file",
				EnvVars: []string{"MEMKV_CONFIG"},
			},
			&cli.StringFlag{
				Name:  flagAddr,
				Usage: "RESP listen address (overrides server.redis.addr)",
			},
			&cli.StringFlag{
				Name:  flagLogLevel,
				Usage: "Log level: debug, info, warn, error (overrides log.level)",
			},
			&cli.StringFlag{
				Name:  flagAdminAddr,
				Usage: "Enable the admin HTTP endpoint on this address",
			},
		},
		Action: func(c *cli.Context) error {
			overrides := flagOverrides(c)
			cfg, err := loadConfig(c.String(flagConfig), overrides)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			return run(c.Context, cfg, c.String(flagConfig), overrides)
		},
	}
}
