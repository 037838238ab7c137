package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Executor runs one command line already split into arguments.
type Executor func(ctx context.Context, args []string) error

// ErrQuit may be returned by an Executor to end the loop without error.
var ErrQuit = errors.New("repl: quit")

// Option configures a REPL.
type Option func(*REPL)

// WithIO sets the input and output streams.
func WithIO(in io.Reader, out io.Writer) Option {
	return func(r *REPL) {
		r.input = in
		r.output = out
	}
}

// WithHistory sets the command history.
func WithHistory(h *History) Option {
	return func(r *REPL) { r.history = h }
}

// WithPrompt sets the prompt.
func WithPrompt(prompt string) Option {
	return func(r *REPL) { r.prompt = prompt }
}

// REPL represents the Read-Eval-Print Loop.
type REPL struct {
	input     io.Reader
	output    io.Writer
	prompt    string
	exec      Executor
	completer *Completer
	history   *History
}

// New creates a REPL sending commands to exec.
func New(exec Executor, opts ...Option) *REPL {
	r := &REPL{
		input:     os.Stdin,
		output:    os.Stdout,
		prompt:    "memkv> ",
		exec:      exec,
		completer: NewCompleter(),
		history:   NewHistory(""),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run reads lines until EOF, exit, QUIT or cancellation of ctx. Command
// failures are printed and do not end the loop.
func (r *REPL) Run(ctx context.Context) error {
	if err := r.history.Load(); err != nil {
		fmt.Fprintf(r.output, "warning: load history: %v\n", err)
	}
	defer func() {
		if err := r.history.Save(); err != nil {
			fmt.Fprintf(r.output, "warning: save history: %v\n", err)
		}
	}()

	scanner := bufio.NewScanner(r.input)
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		fmt.Fprint(r.output, r.prompt)
		if !scanner.Scan() {
			fmt.Fprintln(r.output)
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		r.history.Add(line)

		args, err := Split(line)
		if err != nil {
			fmt.Fprintf(r.output, "(error) %v\n", err)
			continue
		}
		if len(args) == 0 {
			continue
		}

		quit, err := r.dispatch(ctx, args)
		if err != nil {
			fmt.Fprintf(r.output, "(error) %v\n", err)
		}
		if quit {
			return nil
		}
	}
}

// dispatch handles built-ins locally and sends the rest to the executor.
func (r *REPL) dispatch(ctx context.Context, args []string) (quit bool, err error) {
	switch strings.ToLower(args[0]) {
	case "exit":
		return true, nil
	case "help":
		r.printHelp(args[1:])
		return false, nil
	case "history":
		for i, entry := range r.history.Entries() {
			fmt.Fprintf(r.output, "%4d  %s\n", i+1, entry)
		}
		return false, nil
	}

	err = r.exec(ctx, args)
	if errors.Is(err, ErrQuit) {
		return true, nil
	}
	return strings.EqualFold(args[0], "quit") && err == nil, err
}

func (r *REPL) printHelp(args []string) {
	prefix := ""
	if len(args) > 0 {
		prefix = args[0]
	}
	matches := r.completer.Complete(prefix)
	if len(matches) == 0 {
		fmt.Fprintf(r.output, "no command matches %q\n", prefix)
		return
	}
	for _, cmd := range matches {
		fmt.Fprintf(r.output, "  %-8s %s\n", cmd, usage[cmd])
	}
}

var usage = map[string]string{
	"SET":     "SET key value: store value under key",
	"GET":     "GET key: fetch the value of key",
	"DEL":     "DEL key: remove key, replies 1 if it existed",
	"QUIT":    "QUIT: close the connection and leave",
	"help":    "help [prefix]: list commands",
	"history": "history: show command history",
	"exit":    "exit: leave without sending QUIT",
}
