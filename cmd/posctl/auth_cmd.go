// PosMap - Point-of-Sale Registry and Sales Geography
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/posmap

package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tomtom215/posmap/internal/models"
	"github.com/tomtom215/posmap/internal/session"
)

func newLoginCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "login <username>",
		Short: "Start a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := readPassword(cmd, "Password: ")
			if err != nil {
				return err
			}
			return withApp(opts, func(a *app) error {
				res, err := a.sessions.Login(cmd.Context(), args[0], password)
				if err != nil {
					return err
				}
				if !res.OK {
					return errors.New(res.Message)
				}
				u := a.sessions.User()
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "logged in as %s (%s)\n", u.DisplayName, u.Zone)
				return nil
			})
		},
	}
}

func newLogoutCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the current session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(opts, func(a *app) error {
				had := a.sessions.User() != nil
				a.sessions.Logout()
				if had {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "logged out")
				} else {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no active session")
				}
				return nil
			})
		},
	}
}

func newRegisterCmd(opts *rootOptions) *cobra.Command {
	var displayName, zone string

	cmd := &cobra.Command{
		Use:   "register <username>",
		Short: "Create an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := readPassword(cmd, "New password: ")
			if err != nil {
				return err
			}
			return withApp(opts, func(a *app) error {
				res, err := a.sessions.Register(cmd.Context(), models.RegisterRequest{
					Username:    args[0],
					Password:    password,
					DisplayName: displayName,
					Zone:        zone,
				})
				if err != nil {
					return err
				}
				if !res.OK {
					return errors.New(res.Message)
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "registered %s; run posctl login %s\n", args[0], args[0])
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&displayName, "display-name", "", "display name (defaults to the username)")
	cmd.Flags().StringVar(&zone, "zone", "", "home zone")
	return cmd
}

func newWhoamiCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the session user and idle time left",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(opts, func(a *app, u *models.User) error {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s (%s) zone %s, id %d\n",
					u.DisplayName, u.Username, u.Zone, u.ID)
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "session expires after %s idle (%s left)\n",
					session.InactivityTimeout, a.sessions.Remaining().Round(time.Second))
				return nil
			})
		},
	}
}
