// PosMap - Point-of-Sale Registry and Sales Geography
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/posmap

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
)

const defaultServer = "http://localhost:8080"

// rootOptions holds the persistent flags shared by every command.
type rootOptions struct {
	server   string
	state    string
	timeout  time.Duration
	logLevel string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "posctl",
		Short:         "Point-of-sale registry client",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			initLogging(opts.logLevel)
		},
	}
	cmd.PersistentFlags().StringVar(&opts.server, "server", envOr("POSMAP_SERVER", defaultServer), "PosMap server URL")
	cmd.PersistentFlags().StringVar(&opts.state, "state", envOr("POSMAP_STATE", defaultStateDir()), "session state directory")
	cmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 15*time.Second, "per-request timeout")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", envOr("POSMAP_LOG_LEVEL", "warn"), "log level")

	cmd.AddCommand(
		newLoginCmd(opts),
		newLogoutCmd(opts),
		newRegisterCmd(opts),
		newWhoamiCmd(opts),
		newPointsCmd(opts),
		newZonesCmd(opts),
		newDashboardCmd(opts),
		newReportCmd(opts),
		newWatchCmd(opts),
		newTUICmd(opts),
	)
	return cmd
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func defaultStateDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".posmap", "session")
	}
	return filepath.Join(home, ".posmap", "session")
}
