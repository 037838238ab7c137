package command

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/yndnr/memkv/internal/server/redisserver"
	"github.com/yndnr/memkv/internal/storage/memory"
	"github.com/yndnr/memkv/internal/telemetry/logger"
)

func startServer(t *testing.T) string {
	t.Helper()
	cfg := redisserver.DefaultConfig()
	cfg.Address = "127.0.0.1:0"

	srv := redisserver.New(cfg, memory.New(), redisserver.WithLogger(logger.Discard()))
	if err := srv.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})
	return srv.Addr().String()
}

// runApp runs the CLI with an isolated home directory.
func runApp(t *testing.T, input string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	for _, env := range []string{"MEMKV_SERVER", "MEMKV_OUTPUT", "MEMKV_TIMEOUT", "MEMKV_CLI_CONFIG"} {
		t.Setenv(env, "")
		os.Unsetenv(env)
	}

	var out bytes.Buffer
	app := App()
	app.Reader = strings.NewReader(input)
	app.Writer = &out
	app.ErrWriter = &out

	err := app.Run(append([]string{"memkv-cli"}, args...))
	return out.String(), err
}

func TestApp(t *testing.T) {
	app := App()
	if app.Name != "memkv-cli" {
		t.Errorf("Name = %q", app.Name)
	}

	names := make(map[string]bool)
	for _, cmd := range app.Commands {
		names[cmd.Name] = true
	}
	for _, name := range []string{"set", "get", "del", "quit", "repl"} {
		if !names[name] {
			t.Errorf("missing command %s", name)
		}
	}

	flags := make(map[string]bool)
	for _, f := range app.Flags {
		flags[f.Names()[0]] = true
	}
	for _, name := range []string{"server", "output", "timeout", "config"} {
		if !flags[name] {
			t.Errorf("missing flag %s", name)
		}
	}
}

func TestCommands_Text(t *testing.T) {
	addr := startServer(t)

	steps := []struct {
		args []string
		want string
	}{
		{[]string{"get", "k"}, "(nil)\n"},
		{[]string{"set", "k", "hello world"}, "OK\n"},
		{[]string{"get", "k"}, "\"hello world\"\n"},
		{[]string{"del", "k"}, "(integer) 1\n"},
		{[]string{"del", "k"}, "(integer) 0\n"},
		{[]string{"quit"}, "Connection closing shortly\n"},
	}

	for _, step := range steps {
		got, err := runApp(t, "", append([]string{"-s", addr}, step.args...)...)
		if err != nil {
			t.Fatalf("%v: error = %v", step.args, err)
		}
		if got != step.want {
			t.Errorf("%v: output = %q, want %q", step.args, got, step.want)
		}
	}
}

func TestCommands_JSON(t *testing.T) {
	addr := startServer(t)

	if _, err := runApp(t, "", "-s", addr, "set", "k", "v"); err != nil {
		t.Fatalf("set error = %v", err)
	}
	got, err := runApp(t, "", "-s", addr, "-o", "json", "get", "k")
	if err != nil {
		t.Fatalf("get error = %v", err)
	}

	var reply map[string]any
	if err := json.Unmarshal([]byte(got), &reply); err != nil {
		t.Fatalf("decode %q: %v", got, err)
	}
	if reply["type"] != "bulk-string" || reply["value"] != "v" {
		t.Errorf("reply = %v", reply)
	}
}

func TestCommands_YAML(t *testing.T) {
	addr := startServer(t)

	got, err := runApp(t, "", "-s", addr, "-o", "yaml", "del", "absent")
	if err != nil {
		t.Fatalf("del error = %v", err)
	}
	if !strings.Contains(got, "type: integer") || !strings.Contains(got, "value: 0") {
		t.Errorf("output = %q", got)
	}
}

func TestCommands_Usage(t *testing.T) {
	tests := [][]string{
		{"set", "k"},
		{"get"},
		{"get", "a", "b"},
		{"del"},
		{"quit", "now"},
	}

	for _, args := range tests {
		t.Run(strings.Join(args, " "), func(t *testing.T) {
			_, err := runApp(t, "", args...)
			if err == nil || !strings.Contains(err.Error(), "usage:") {
				t.Errorf("error = %v, want usage error", err)
			}
		})
	}
}

func TestCommands_BadOutputFormat(t *testing.T) {
	if _, err := runApp(t, "", "-o", "table", "get", "k"); err == nil {
		t.Error("unknown output format should fail")
	}
}

func TestCommands_ConnectionRefused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	deadAddr := ln.Addr().String()
	ln.Close()

	if _, err := runApp(t, "", "-s", deadAddr, "--timeout", "1s", "get", "k"); err == nil {
		t.Error("get against a closed port should fail")
	}
}

func TestResolveSettings_ConfigFile(t *testing.T) {
	addr := startServer(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "cli.yaml")
	content := "server: " + addr + "\noutput: json\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	got, err := runApp(t, "", "--config", path, "get", "k")
	if err != nil {
		t.Fatalf("get error = %v", err)
	}
	if !strings.Contains(got, `"type": "null"`) {
		t.Errorf("output = %q, want JSON from config file", got)
	}

	got, err = runApp(t, "", "--config", path, "-o", "text", "get", "k")
	if err != nil {
		t.Fatalf("get error = %v", err)
	}
	if got != "(nil)\n" {
		t.Errorf("flag did not override config: %q", got)
	}
}

func TestREPL(t *testing.T) {
	addr := startServer(t)

	input := "SET greeting \"hi there\"\nGET greeting\nFOO\nDEL greeting\nQUIT\nGET greeting\n"
	got, err := runApp(t, input, "-s", addr)
	if err != nil {
		t.Fatalf("repl error = %v", err)
	}

	for _, want := range []string{"OK", `"hi there"`, "(error) ERR unknown command", "(integer) 1"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
	if strings.Count(got, `"hi there"`) != 1 {
		t.Errorf("commands after QUIT were executed:\n%s", got)
	}
}

func TestREPL_Subcommand(t *testing.T) {
	addr := startServer(t)

	got, err := runApp(t, "GET k\nexit\n", "-s", addr, "repl")
	if err != nil {
		t.Fatalf("repl error = %v", err)
	}
	if !strings.Contains(got, "(nil)") {
		t.Errorf("output = %q", got)
	}
}
