package config

import (
	"flag"
	"os"
	"time"

	"github.com/aleksv/spendsync/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   base URL of the backend server (default from Config)
//	-f string   path to the local database file (default from Config)
//	-i int      sync interval in seconds (default from Config)
//
// Note: The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	// Filter args to include only those handled here.
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-f", "-i"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerURL, "a", cfg.ServerURL, "base URL of the backend server")
	fs.StringVar(&cfg.DatabaseFile, "f", cfg.DatabaseFile, "path to the local database file")
	syncInterval := fs.Int("i", int(cfg.SyncInterval.Seconds()), "sync interval (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.SyncInterval = time.Duration(*syncInterval) * time.Second
}
