package command

import (
	"errors"
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/memkv/internal/cli/config"
	"github.com/yndnr/memkv/internal/cli/output"
	"github.com/yndnr/memkv/internal/infra/buildinfo"
)

// ErrErrorReply is returned when the server answered with an error reply.
// The reply has already been printed; callers only set the exit status.
var ErrErrorReply = errors.New("server replied with an error")

const settingsKey = "settings"

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    "memkv-cli",
		Usage:   "Command-line client for memkv-server",
		Version: buildinfo.String(),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			SetCommand(),
			GetCommand(),
			DelCommand(),
			QuitCommand(),
			REPLCommand(),
		},
		Before: func(c *cli.Context) error {
			settings, err := resolveSettings(c)
			if err != nil {
				return err
			}
			c.App.Metadata[settingsKey] = settings
			return nil
		},
		Action: replAction,
	}
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "server",
			Aliases: []string{"s"},
			Usage:   "memkv server address (host:port)",
			EnvVars: []string{"MEMKV_SERVER"},
			Value:   "127.0.0.1:6379",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: text, json, yaml",
			EnvVars: []string{"MEMKV_OUTPUT"},
			Value:   "text",
		},
		&cli.DurationFlag{
			Name:    "timeout",
			Usage:   "Connect and request timeout",
			EnvVars: []string{"MEMKV_TIMEOUT"},
			Value:   5 * time.Second,
		},
		&cli.StringFlag{
			Name:    "config",
			Usage:   "CLI config file",
			EnvVars: []string{"MEMKV_CLI_CONFIG"},
			Value:   config.DefaultConfigPath(),
		},
	}
}

// Settings are the resolved global options.
type Settings struct {
	Server      string
	Output      output.Format
	Timeout     time.Duration
	HistoryFile string
}

// resolveSettings layers flags over the CLI config file.
func resolveSettings(c *cli.Context) (*Settings, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}

	flags := make(map[string]string)
	if c.IsSet("server") {
		flags[config.KeyServer] = c.String("server")
	}
	if c.IsSet("output") {
		flags[config.KeyOutput] = c.String("output")
	}
	if c.IsSet("timeout") {
		flags[config.KeyTimeout] = c.Duration("timeout").String()
	}
	cfg, err = config.Merge(cfg, flags)
	if err != nil {
		return nil, err
	}

	format, err := output.ParseFormat(cfg.Output)
	if err != nil {
		return nil, err
	}
	if cfg.Timeout <= 0 {
		return nil, fmt.Errorf("timeout must be positive, got %v", cfg.Timeout)
	}

	return &Settings{
		Server:      cfg.Server,
		Output:      format,
		Timeout:     cfg.Timeout,
		HistoryFile: cfg.HistoryFile,
	}, nil
}

// GetSettings retrieves the resolved settings from context.
func GetSettings(c *cli.Context) *Settings {
	if s, ok := c.App.Metadata[settingsKey].(*Settings); ok {
		return s
	}
	return &Settings{
		Server:  "127.0.0.1:6379",
		Output:  output.FormatText,
		Timeout: 5 * time.Second,
	}
}
