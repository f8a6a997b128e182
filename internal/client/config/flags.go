package config

import (
	"flag"
	"io"
	"time"

	"github.com/dmitrijs2005/fieldportal/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Only -a, -t, -i, -d and -l are looked at; args are filtered with
// flagx.FilterArgs so -c/-config and foreign flags do not fail parsing.
func parseFlags(cfg *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-a", "-t", "-i", "-d", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.APIBaseURL, "a", cfg.APIBaseURL, "backend API base URL")
	timeout := fs.Int("t", int(cfg.RequestTimeout.Seconds()), "request timeout (in seconds)")
	onlineCheckInterval := fs.Int("i", int(cfg.OnlineCheckInterval.Seconds()), "online check interval (in seconds)")
	fs.StringVar(&cfg.DatabasePath, "d", cfg.DatabasePath, "credential database path")
	fs.StringVar(&cfg.Log.Level, "l", cfg.Log.Level, "log level")

	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg.RequestTimeout = time.Duration(*timeout) * time.Second
	cfg.OnlineCheckInterval = time.Duration(*onlineCheckInterval) * time.Second
	return nil
}
