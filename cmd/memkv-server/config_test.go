package main

import (
	"errors"
	"flag"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/memkv/internal/server/config"
	"github.com/yndnr/memkv/internal/server/redisserver"
	"github.com/yndnr/memkv/internal/storage/memory"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "memkv.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := loadConfig("", nil)
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}
	if cfg.Server.Redis.Addr != config.DefaultRedisAddr {
		t.Errorf("redis addr = %q, want %q", cfg.Server.Redis.Addr, config.DefaultRedisAddr)
	}
	if cfg.Server.Admin.Enabled {
		t.Error("admin endpoint enabled by default")
	}
}

func TestLoadConfig_Precedence(t *testing.T) {
	path := writeConfig(t, `
server:
  redis:
    addr: 127.0.0.1:7000
    idle_timeout: 30s
log:
  level: warn
`)
	t.Setenv("MEMKV_LOG__LEVEL", "error")

	cfg, err := loadConfig(path, map[string]any{
		"server.redis.addr": "127.0.0.1:7001",
	})
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}

	if cfg.Server.Redis.Addr != "127.0.0.1:7001" {
		t.Errorf("redis addr = %q, want flag value", cfg.Server.Redis.Addr)
	}
	if cfg.Log.Level != "error" {
		t.Errorf("log level = %q, want env value", cfg.Log.Level)
	}
	if cfg.Server.Redis.IdleTimeout != 30*time.Second {
		t.Errorf("idle timeout = %v, want file value", cfg.Server.Redis.IdleTimeout)
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name      string
		overrides map[string]any
	}{
		{"bad log level", map[string]any{"log.level": "loud"}},
		{"bad addr", map[string]any{"server.redis.addr": "nohost"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loadConfig("", tt.overrides)
			if !errors.Is(err, config.ErrInvalid) {
				t.Errorf("loadConfig() error = %v, want ErrInvalid", err)
			}
		})
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	if _, err := loadConfig(filepath.Join(t.TempDir(), "absent.yaml"), nil); err == nil {
		t.Error("loadConfig() with a missing file should fail")
	}
}

func TestFlagOverrides(t *testing.T) {
	set := flag.NewFlagSet("test", flag.ContinueOnError)
	for _, f := range newApp().Flags {
		if err := f.Apply(set); err != nil {
			t.Fatalf("apply flag: %v", err)
		}
	}
	if err := set.Parse([]string{"--addr", "0.0.0.0:6380", "--admin-addr", "127.0.0.1:9200"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	got := flagOverrides(cli.NewContext(newApp(), set, nil))

	if got["server.redis.addr"] != "0.0.0.0:6380" {
		t.Errorf("server.redis.addr = %v", got["server.redis.addr"])
	}
	if got["server.admin.addr"] != "127.0.0.1:9200" || got["server.admin.enabled"] != true {
		t.Errorf("admin overrides = %v", got)
	}
	if _, ok := got["log.level"]; ok {
		t.Error("unset --log-level produced an override")
	}
}

func TestRedisConfig(t *testing.T) {
	got := redisConfig(&config.RedisConfig{
		Addr:        "127.0.0.1:7000",
		IdleTimeout: time.Minute,
		RateLimit:   100,
		MaxBulkLen:  1024,
	})

	want := redisserver.Config{
		Address:     "127.0.0.1:7000",
		IdleTimeout: time.Minute,
		RateLimit:   100,
	}
	want.Limits.MaxBulkLen = 1024
	if *got != want {
		t.Errorf("redisConfig() = %+v, want %+v", *got, want)
	}
}

func TestAdminStatus(t *testing.T) {
	store := memory.New()
	if err := store.Set("k", []byte("v")); err != nil {
		t.Fatal(err)
	}
	status := &adminStatus{store: store, server: redisserver.New(nil, store)}

	if err := status.Ready(); err != nil {
		t.Errorf("Ready() = %v", err)
	}
	if n, err := status.Keys(); err != nil || n != 1 {
		t.Errorf("Keys() = %d, %v, want 1", n, err)
	}
	if n := status.ActiveConnections(); n != 0 {
		t.Errorf("ActiveConnections() = %d, want 0", n)
	}
	if got := storeKeys(store)(); got != 1 {
		t.Errorf("storeKeys() = %v, want 1", got)
	}
}
