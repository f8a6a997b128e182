package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/fieldportal/internal/flagx"
	"github.com/dmitrijs2005/fieldportal/internal/timex"
)

// jsonConfig is a DTO used exclusively for JSON unmarshalling. Pointer and
// zero-value fields that are absent in the file leave the defaults untouched.
type jsonConfig struct {
	APIBaseURL          string          `json:"api_base_url"`
	RequestTimeout      *timex.Duration `json:"request_timeout"`
	ExpiryCheckInterval *timex.Duration `json:"expiry_check_interval"`
	OnlineCheckInterval *timex.Duration `json:"online_check_interval"`
	DatabasePath        *string         `json:"database_path"`
	Log                 struct {
		Backend string `json:"backend"`
		Level   string `json:"level"`
		Format  string `json:"format"`
	} `json:"log"`
	Paths struct {
		Login        string `json:"login"`
		Dashboard    string `json:"dashboard"`
		BillingPlans string `json:"billing_plans"`
	} `json:"paths"`
}

// parseJSON overlays cfg with values from the file named by -c/-config.
// Missing flag means no file and no error.
func parseJSON(cfg *Config, args []string) error {
	path := flagx.ConfigFileFlag(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	var jc jsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	setIfNotEmpty(&cfg.APIBaseURL, jc.APIBaseURL)
	if jc.RequestTimeout != nil {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	if jc.ExpiryCheckInterval != nil {
		cfg.ExpiryCheckInterval = jc.ExpiryCheckInterval.Duration
	}
	if jc.OnlineCheckInterval != nil {
		cfg.OnlineCheckInterval = jc.OnlineCheckInterval.Duration
	}
	if jc.DatabasePath != nil {
		cfg.DatabasePath = *jc.DatabasePath
	}
	setIfNotEmpty(&cfg.Log.Backend, jc.Log.Backend)
	setIfNotEmpty(&cfg.Log.Level, jc.Log.Level)
	setIfNotEmpty(&cfg.Log.Format, jc.Log.Format)
	setIfNotEmpty(&cfg.Paths.Login, jc.Paths.Login)
	setIfNotEmpty(&cfg.Paths.Dashboard, jc.Paths.Dashboard)
	setIfNotEmpty(&cfg.Paths.BillingPlans, jc.Paths.BillingPlans)

	return nil
}

func setIfNotEmpty(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
