// PosMap - Point-of-Sale Registry and Sales Geography
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/posmap

package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/tomtom215/posmap/internal/client"
	"github.com/tomtom215/posmap/internal/logging"
	"github.com/tomtom215/posmap/internal/models"
	"github.com/tomtom215/posmap/internal/session"
)

var errNotLoggedIn = errors.New("not logged in (run posctl login)")

// app is the per-invocation wiring: the persisted session, its manager and
// the HTTP client whose bearer token comes from the session user.
type app struct {
	storage  *session.BadgerStorage
	sessions *session.Manager
	api      *client.Client
}

func initLogging(level string) {
	logging.Init(logging.Config{
		Level:     level,
		Format:    "console",
		Timestamp: true,
		Output:    os.Stderr,
	})
}

func openApp(opts *rootOptions) (*app, error) {
	storage, err := session.OpenBadgerStorage(opts.state)
	if err != nil {
		return nil, fmt.Errorf("open session state %s (is another posctl running?): %w", opts.state, err)
	}

	a := &app{storage: storage}
	a.api = client.New(client.Config{
		BaseURL: opts.server,
		Timeout: opts.timeout,
		TokenSource: func() string {
			if a.sessions == nil {
				return ""
			}
			if u := a.sessions.User(); u != nil {
				return u.Token
			}
			return ""
		},
	})
	a.sessions = session.NewManager(storage, a.api, session.Options{})
	return a, nil
}

func (a *app) Close() {
	a.sessions.Close()
	if err := a.storage.Close(); err != nil {
		logging.Warn().Err(err).Msg("Failed to close session state")
	}
}

// withApp opens the state for the duration of fn.
func withApp(opts *rootOptions, fn func(*app) error) error {
	a, err := openApp(opts)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}

// withSession is withApp for commands that need a logged-in user. A
// successful fn counts as user activity.
func withSession(opts *rootOptions, fn func(*app, *models.User) error) error {
	return withApp(opts, func(a *app) error {
		user := a.sessions.User()
		if user == nil {
			return errNotLoggedIn
		}
		if err := fn(a, user); err != nil {
			return err
		}
		a.sessions.RecordActivity(false)
		return nil
	})
}
