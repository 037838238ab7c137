package config

import "strings"

// Sanitize returns a copy of the config with loaded values normalized:
// surrounding whitespace is trimmed and log settings are lower-cased.
// Empty listen addresses fall back to the defaults.
func Sanitize(cfg *ServerConfig) *ServerConfig {
	sanitized := *cfg

	sanitized.Server.Redis.Addr = strings.TrimSpace(sanitized.Server.Redis.Addr)
	if sanitized.Server.Redis.Addr == "" {
		sanitized.Server.Redis.Addr = DefaultRedisAddr
	}
	sanitized.Server.Admin.Addr = strings.TrimSpace(sanitized.Server.Admin.Addr)
	if sanitized.Server.Admin.Addr == "" {
		sanitized.Server.Admin.Addr = DefaultAdminAddr
	}

	sanitized.Log.Level = strings.ToLower(strings.TrimSpace(sanitized.Log.Level))
	sanitized.Log.Format = strings.ToLower(strings.TrimSpace(sanitized.Log.Format))

	return &sanitized
}
