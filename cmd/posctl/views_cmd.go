// PosMap - Point-of-Sale Registry and Sales Geography
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/posmap

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tomtom215/posmap/internal/analytics"
	"github.com/tomtom215/posmap/internal/client"
	"github.com/tomtom215/posmap/internal/models"
	"github.com/tomtom215/posmap/internal/report"
	"github.com/tomtom215/posmap/internal/session"
)

const defaultTimezone = "America/Mexico_City"

func newZonesCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "zones",
		Short: "Show sales totals per zone",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(opts, func(a *app, _ *models.User) error {
				zones, err := a.api.SalesByZone(cmd.Context())
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), renderZones(zones))
				if top, ok := analytics.TopZone(zones); ok {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "top zone: %s (%s)\n",
						titleStyle.Render(top.Zone), formatMoney(top.TotalSale))
				}
				return nil
			})
		},
	}
}

func newDashboardCmd(opts *rootOptions) *cobra.Command {
	var tz string

	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Show the sales KPIs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			loc, err := time.LoadLocation(tz)
			if err != nil {
				return fmt.Errorf("unknown timezone %q: %w", tz, err)
			}
			return withSession(opts, func(a *app, _ *models.User) error {
				points, err := a.api.ListAllPoints(cmd.Context())
				if err != nil {
					return err
				}
				kpis := analytics.Dashboard(points, time.Now().In(loc))
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), renderDashboard(kpis))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&tz, "tz", envOr("POSMAP_TZ", defaultTimezone), "timezone that defines today")
	return cmd
}

func newReportCmd(opts *rootOptions) *cobra.Command {
	var q report.Query
	var csvPath string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Filter points and optionally export them as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(opts, func(a *app, _ *models.User) error {
				points, err := a.api.ListAllPoints(cmd.Context())
				if err != nil {
					return err
				}
				rows := report.Filter(points, q)

				if csvPath != "" {
					return exportCSV(cmd.OutOrStdout(), csvPath, rows)
				}

				out := cmd.OutOrStdout()
				_, _ = fmt.Fprintln(out, renderPoints(rows))
				_, _ = fmt.Fprintf(out, "%d points, total %s\n", len(rows), formatMoney(report.Total(rows)))
				_, _ = fmt.Fprintln(out, mutedStyle.Render("zones: "+strings.Join(report.Zones(points), ", ")))
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&q.Text, "query", "q", "", "match description or id")
	cmd.Flags().StringVar(&q.Zone, "zone", "", "exact zone")
	cmd.Flags().StringVar(&csvPath, "csv", "", "write CSV to FILE (- for stdout)")
	return cmd
}

func exportCSV(stdout io.Writer, path string, rows []models.PointOfSale) error {
	if path == "-" {
		return report.WriteCSV(stdout, rows)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := report.WriteCSV(f, rows); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	_, _ = fmt.Fprintf(stdout, "wrote %d rows to %s\n", len(rows), path)
	return nil
}

func newWatchCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Stream point changes until the session expires",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(opts, func(a *app, _ *models.User) error {
				ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
				defer stop()
				ctx, cancel := context.WithCancelCause(ctx)
				defer cancel(nil)

				a.sessions.SetOnLogout(func(r session.Reason) {
					cancel(fmt.Errorf("session ended: %s", r))
				})
				a.sessions.RecordActivity(false)

				out := cmd.OutOrStdout()
				_, _ = fmt.Fprintf(out, "watching %s (session expires in %s)\n",
					opts.server, a.sessions.Remaining().Round(time.Second))
				err := a.api.Watch(ctx, func(ev client.ChangeEvent) {
					_, _ = fmt.Fprintln(out, formatEvent(ev))
				})
				if err != nil {
					return err
				}
				if cause := context.Cause(ctx); cause != nil && !errors.Is(cause, context.Canceled) {
					_, _ = fmt.Fprintln(out, cause)
				}
				return nil
			})
		},
	}
}

func formatEvent(ev client.ChangeEvent) string {
	ts := ev.Timestamp.Local().Format("15:04:05")
	if ev.Point == nil {
		return fmt.Sprintf("%s %-14s #%d", ts, ev.Type, ev.ID)
	}
	return fmt.Sprintf("%s %-14s #%d %s [%s] %s", ts, ev.Type, ev.ID,
		ev.Point.Description, analytics.ZoneOf(ev.Point), formatMoney(ev.Point.Sale))
}
