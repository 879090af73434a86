// Package main is a demo daemon showing the dcon console embedded in a
// long-running process.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/dshills/dcon/config"
	"github.com/dshills/dcon/console"
	"github.com/dshills/dcon/script"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		configPath  string
		showVersion bool
	)
	flag.StringVar(&configPath, "config", "dcon.toml", "Path to configuration file")
	flag.StringVar(&configPath, "c", "dcon.toml", "Path to configuration file (shorthand)")
	flag.BoolVar(&showVersion, "version", false, "Show version information")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "dcon-demo - interactive console demo daemon\n\n")
		fmt.Fprintf(os.Stderr, "Usage: dcon-demo [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if showVersion {
		fmt.Printf("dcon-demo %s (%s)\n", version, commit)
		return 0
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	c := console.New(console.WithConfig(cfg))
	registerCommands(c)

	// Re-apply the prompt when the config file changes on disk.
	watcher, err := config.Watch(configPath, func(next config.Config) {
		c.SetPrompt(next.Prompt)
		c.Infof("configuration reloaded from %s", configPath)
	})
	if err == nil {
		defer watcher.Close()
	}

	if cfg.ScriptDir != "" {
		mgr, err := script.NewManager()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		defer mgr.Close()

		for _, loadErr := range mgr.LoadDir(cfg.ScriptDir) {
			c.Warnf("script load: %v", loadErr)
		}
		for _, cmd := range mgr.Commands() {
			c.RegisterAsyncCommand(cmd.Name, cmd.Handler)
		}
	}

	// Background activity so log interleaving with the input line is
	// visible while typing.
	stop := make(chan struct{})
	defer close(stop)
	go heartbeat(c, stop)

	if err := c.Run("dcon demo daemon ready. Type 'help' for commands.", "Shutting down."); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func registerCommands(c *console.Console) {
	c.RegisterCommand("help", func(args []string) (string, error) {
		return "commands: " + strings.Join(c.Commands(), ", "), nil
	})

	c.RegisterCommand("status", func(args []string) (string, error) {
		var m runtime.MemStats
		runtime.ReadMemStats(&m)
		return fmt.Sprintf("goroutines=%d heap=%dKiB", runtime.NumGoroutine(), m.HeapAlloc/1024), nil
	})

	c.RegisterCommand("echo", func(args []string) (string, error) {
		return strings.Join(args, " "), nil
	})

	c.RegisterAsyncCommand("fetch", func(ctx context.Context, args []string) (string, error) {
		delay := time.Duration(1+rand.Intn(3)) * time.Second
		select {
		case <-time.After(delay):
			return fmt.Sprintf("fetched %d records in %s", 10+rand.Intn(90), delay), nil
		case <-ctx.Done():
			return "", ctx.Err()
		}
	})

	c.SetUnknownCommandHandler(func(line string) string {
		return fmt.Sprintf("unrecognized: %q (try 'help')", line)
	})
}

// heartbeat emits periodic log lines like a real daemon would.
func heartbeat(c *console.Console, stop <-chan struct{}) {
	tick := time.NewTicker(7 * time.Second)
	defer tick.Stop()
	for {
		select {
		case <-tick.C:
			c.Infof("heartbeat ok, uptime ticks continue")
		case <-stop:
			return
		}
	}
}
