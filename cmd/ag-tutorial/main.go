// ABOUTME: Entry point for the guided agclient walkthroughs
// ABOUTME: Runs one named scenario, or all of them, against a live server

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"

	"github.com/2389/agclient/internal/config"
	"github.com/2389/agclient/internal/logging"
	"github.com/2389/agclient/internal/tutorial"
	"github.com/2389/agclient/pkg/agclient"
)

const banner = `
                   _        _             _       _
  __ _  __ _      | |_ _  _| |_ ___  _ __(_) __ _| |
 / _' |/ _' |_____| __| || |  _/ _ \| '__| |/ _' | |
| (_| | (_| |_____| |_| \_,_|\__\___/|_|  |_| (_| |_|
 \__,_|\__, |      \__|                      \__,_(_)
       |___/
`

func usage() {
	cyan := color.New(color.FgCyan)
	yellow := color.New(color.FgYellow)

	cyan.Print(banner)
	fmt.Println("Usage: ag-tutorial <scenario>|all")
	fmt.Println()
	fmt.Println("Scenarios:")
	for _, s := range tutorial.Scenarios() {
		fmt.Printf("  %s %s\n", yellow.Sprintf("%-12s", s.Name), s.Summary)
	}
	fmt.Println()
	fmt.Println("Environment:")
	fmt.Printf("  AG_SERVER    server URL (default %s)\n", config.DefaultServerURL)
	fmt.Printf("  AG_CATALOG   catalog name (default %s)\n", config.DefaultCatalog)
	fmt.Printf("  AG_REPO      repository name (default %s)\n", config.DefaultRepository)
	fmt.Println("  AG_USER      user for basic auth")
	fmt.Println("  AG_PASSWORD  password for basic auth")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var toRun []tutorial.Scenario
	if os.Args[1] == "all" {
		toRun = tutorial.Scenarios()
	} else {
		s, ok := tutorial.Lookup(os.Args[1])
		if !ok {
			fmt.Fprintf(os.Stderr, "Unknown scenario: %s\n", os.Args[1])
			os.Exit(1)
		}
		toRun = []tutorial.Scenario{s}
	}

	logger := logging.New(config.LoggingConfig{Level: envOr("AG_LOG_LEVEL", "warn")}, os.Stderr)
	opts := []agclient.Option{
		agclient.WithTimeout(config.DefaultTimeout),
		agclient.WithLogger(logger),
	}
	if user := os.Getenv("AG_USER"); user != "" {
		opts = append(opts, agclient.WithBasicAuth(user, os.Getenv("AG_PASSWORD")))
	}
	env := tutorial.Env{
		Server:     envOr("AG_SERVER", config.DefaultServerURL),
		Catalog:    envOr("AG_CATALOG", config.DefaultCatalog),
		Repository: envOr("AG_REPO", config.DefaultRepository),
		Out:        os.Stdout,
		Opts:       opts,
	}

	green := color.New(color.FgGreen)
	for _, s := range toRun {
		green.Printf("== %s: %s\n", s.Name, s.Summary)
		start := time.Now()
		if err := s.Run(ctx, env); err != nil {
			color.New(color.FgRed).Fprintf(os.Stderr, "Error: %s: %v\n", s.Name, err)
			os.Exit(1)
		}
		fmt.Printf("   done in %s\n\n", time.Since(start).Round(time.Millisecond))
	}
}
