// Package config loads runtime configuration for the fieldportal CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected via -c or -config (see parseJSON).
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-a string   base URL of the backend API
//	-t int      request timeout (seconds)
//	-i int      online check interval (seconds)
//	-d string   path of the local credential database ("" keeps the token in memory)
//	-l string   log level (debug, info, warn, error)
//
// # JSON schema
//
// Durations use timex.Duration, so values can be strings like "10s" or
// integer nanoseconds:
//
//	{
//	  "api_base_url": "https://api.example.com/api",
//	  "request_timeout": "10s",
//	  "expiry_check_interval": "30s",
//	  "online_check_interval": "15s",
//	  "database_path": "portal.db",
//	  "log": {"backend": "zap", "level": "debug", "format": "json"},
//	  "paths": {"login": "/login", "dashboard": "/dashboard", "billing_plans": "/billing/plans"}
//	}
package config
