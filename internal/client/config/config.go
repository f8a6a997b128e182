package config

import (
	"os"
	"time"

	"github.com/dmitrijs2005/fieldportal/internal/logging"
)

// Paths are the navigation targets used by the access decision engine.
type Paths struct {
	Login        string
	Dashboard    string
	BillingPlans string
}

// Config holds runtime settings for the fieldportal CLI.
type Config struct {
	APIBaseURL          string
	RequestTimeout      time.Duration
	ExpiryCheckInterval time.Duration
	OnlineCheckInterval time.Duration
	DatabasePath        string
	Log                 logging.Options
	Paths               Paths
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.APIBaseURL = "http://127.0.0.1:5000/api"
	c.RequestTimeout = 10 * time.Second
	c.ExpiryCheckInterval = 30 * time.Second
	c.OnlineCheckInterval = 15 * time.Second
	c.DatabasePath = "portal.db"
	c.Log = logging.Options{Backend: logging.BackendSlog, Level: "info", Format: "text"}
	c.Paths = Paths{
		Login:        "/login",
		Dashboard:    "/dashboard",
		BillingPlans: "/billing/plans",
	}
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() (*Config, error) {
	return load(os.Args[1:])
}

func load(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJSON(cfg, args); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	return cfg, nil
}
