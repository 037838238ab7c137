package command

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/memkv/internal/cli/connection"
	"github.com/yndnr/memkv/internal/cli/output"
	"github.com/yndnr/memkv/pkg/resp"
)

// SetCommand returns the set command.
func SetCommand() *cli.Command {
	return &cli.Command{
		Name:      "set",
		Usage:     "Store a value under a key",
		ArgsUsage: "KEY VALUE",
		Action: func(c *cli.Context) error {
			if c.NArg() != 2 {
				return usageError(c)
			}
			return do(c, "SET", c.Args().Get(0), c.Args().Get(1))
		},
	}
}

// GetCommand returns the get command.
func GetCommand() *cli.Command {
	return &cli.Command{
		Name:      "get",
		Usage:     "Fetch the value of a key",
		ArgsUsage: "KEY",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return usageError(c)
			}
			return do(c, "GET", c.Args().First())
		},
	}
}

// DelCommand returns the del command.
func DelCommand() *cli.Command {
	return &cli.Command{
		Name:      "del",
		Usage:     "Remove a key",
		ArgsUsage: "KEY",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return usageError(c)
			}
			return do(c, "DEL", c.Args().First())
		},
	}
}

// QuitCommand returns the quit command.
func QuitCommand() *cli.Command {
	return &cli.Command{
		Name:  "quit",
		Usage: "Ask the server to close the connection",
		Action: func(c *cli.Context) error {
			if c.NArg() != 0 {
				return usageError(c)
			}
			return do(c, "QUIT")
		},
	}
}

func usageError(c *cli.Context) error {
	return fmt.Errorf("usage: %s %s", c.Command.Name, c.Command.ArgsUsage)
}

// do sends one command on a fresh connection and prints the reply.
func do(c *cli.Context, args ...string) error {
	s := GetSettings(c)
	client := connection.NewClient(s.Server, s.Timeout)
	defer client.Close()

	ctx, cancel := context.WithTimeout(c.Context, s.Timeout)
	defer cancel()

	v, err := client.Do(ctx, args...)
	if err != nil {
		return err
	}
	return printReply(c, s.Output, v)
}

func printReply(c *cli.Context, format output.Format, v resp.Value) error {
	if err := output.NewFormatter(format).Format(c.App.Writer, v); err != nil {
		return fmt.Errorf("print reply: %w", err)
	}
	if v.Kind == resp.KindError {
		return ErrErrorReply
	}
	return nil
}
