package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/memkv/internal/cli/connection"
	"github.com/yndnr/memkv/internal/cli/repl"
)

// REPLCommand returns the interactive mode command.
func REPLCommand() *cli.Command {
	return &cli.Command{
		Name:   "repl",
		Usage:  "Start an interactive session (default)",
		Action: replAction,
	}
}

func replAction(c *cli.Context) error {
	if c.NArg() > 0 {
		return fmt.Errorf("unknown command %q", c.Args().First())
	}

	s := GetSettings(c)
	client := connection.NewClient(s.Server, s.Timeout)
	defer client.Close()

	exec := func(ctx context.Context, args []string) error {
		ctx, cancel := context.WithTimeout(ctx, s.Timeout)
		defer cancel()

		v, err := client.Do(ctx, args...)
		if err != nil {
			return err
		}
		// Error replies are printed; the session goes on.
		if err := printReply(c, s.Output, v); err != nil && !errors.Is(err, ErrErrorReply) {
			return err
		}
		return nil
	}

	r := repl.New(exec,
		repl.WithIO(c.App.Reader, c.App.Writer),
		repl.WithHistory(repl.NewHistory(s.HistoryFile)),
		repl.WithPrompt(s.Server+"> "),
	)
	return r.Run(c.Context)
}
