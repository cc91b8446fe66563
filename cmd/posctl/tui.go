// PosMap - Point-of-Sale Registry and Sales Geography
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/posmap

package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/tomtom215/posmap/internal/analytics"
	"github.com/tomtom215/posmap/internal/models"
	"github.com/tomtom215/posmap/internal/session"
)

type activityTracker interface {
	RecordActivity(force bool)
	Remaining() time.Duration
}

type pointLoader func(ctx context.Context) ([]models.PointOfSale, error)

type tabID int

const (
	tabDashboard tabID = iota
	tabZones
	tabPoints
	tabCount
)

var tabLabels = [tabCount]string{"Dashboard", "Zones", "Points"}

type pointsLoadedMsg struct {
	points []models.PointOfSale
	err    error
}

type sessionEndedMsg struct{ reason session.Reason }

type clockTickMsg time.Time

type keyMap struct {
	Tab     key.Binding
	Refresh key.Binding
	Help    key.Binding
	Quit    key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Tab:     key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next view")),
		Refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		Help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:    key.NewBinding(key.WithKeys("ctrl+c", "q"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Tab, k.Refresh, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Tab, k.Refresh}, {k.Help, k.Quit}}
}

// dashboardModel is the posctl tui program. Every key press counts as
// session activity; a sessionEndedMsg quits.
type dashboardModel struct {
	activity activityTracker
	load     pointLoader
	user     models.User
	loc      *time.Location
	now      func() time.Time

	keys    keyMap
	help    help.Model
	spin    spinner.Model
	tab     tabID
	loading bool
	points  []models.PointOfSale
	kpis    analytics.DashboardKPIs
	zones   []models.ZoneSales
	err     error
	left    time.Duration
	ended   session.Reason
	width   int
}

func newDashboardModel(activity activityTracker, load pointLoader, user models.User, loc *time.Location) dashboardModel {
	return dashboardModel{
		activity: activity,
		load:     load,
		user:     user,
		loc:      loc,
		now:      time.Now,
		keys:     defaultKeys(),
		help:     help.New(),
		spin:     spinner.New(spinner.WithSpinner(spinner.Dot)),
		loading:  true,
		left:     activity.Remaining(),
	}
}

func (m dashboardModel) fetch() tea.Cmd {
	load := m.load
	return func() tea.Msg {
		points, err := load(context.Background())
		return pointsLoadedMsg{points: points, err: err}
	}
}

func clockTick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return clockTickMsg(t) })
}

func (m dashboardModel) Init() tea.Cmd {
	return tea.Batch(m.fetch(), m.spin.Tick, clockTick())
}

func (m dashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		m.activity.RecordActivity(false)
		m.left = m.activity.Remaining()
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Tab):
			m.tab = (m.tab + 1) % tabCount
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		case key.Matches(msg, m.keys.Refresh):
			if !m.loading {
				m.loading = true
				return m, tea.Batch(m.fetch(), m.spin.Tick)
			}
		}
		return m, nil

	case sessionEndedMsg:
		m.ended = msg.reason
		return m, tea.Quit

	case pointsLoadedMsg:
		m.loading = false
		m.err = msg.err
		if msg.err == nil {
			m.points = msg.points
			m.kpis = analytics.Dashboard(msg.points, m.now().In(m.loc))
			m.zones = analytics.SalesByZone(msg.points)
		}
		return m, nil

	case clockTickMsg:
		m.left = m.activity.Remaining()
		return m, clockTick()

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m dashboardModel) View() string {
	var b strings.Builder

	tabs := make([]string, 0, tabCount)
	for i, label := range tabLabels {
		if tabID(i) == m.tab {
			tabs = append(tabs, titleStyle.Render("["+label+"]"))
		} else {
			tabs = append(tabs, mutedStyle.Render(" "+label+" "))
		}
	}
	header := lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
	status := mutedStyle.Render(fmt.Sprintf("  %s (%s)  idle timeout in %s",
		m.user.DisplayName, m.user.Zone, m.left.Round(time.Second)))
	b.WriteString(header + status + "\n\n")

	switch {
	case m.loading:
		b.WriteString(m.spin.View() + " loading points...\n")
	case m.err != nil:
		b.WriteString(downStyle.Render("error: "+m.err.Error()) + "\n")
	default:
		switch m.tab {
		case tabDashboard:
			b.WriteString(renderDashboard(m.kpis))
		case tabZones:
			b.WriteString(renderZones(m.zones))
		case tabPoints:
			b.WriteString(renderPoints(analytics.TopPoints(m.points, 20)))
		}
		b.WriteByte('\n')
	}

	b.WriteString("\n" + m.help.View(m.keys))
	return b.String()
}

func newTUICmd(opts *rootOptions) *cobra.Command {
	var tz string

	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Interactive dashboard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			loc, err := time.LoadLocation(tz)
			if err != nil {
				return fmt.Errorf("unknown timezone %q: %w", tz, err)
			}
			return withSession(opts, func(a *app, u *models.User) error {
				a.sessions.RecordActivity(false)
				model := newDashboardModel(a.sessions, a.api.ListAllPoints, *u, loc)
				p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
				a.sessions.SetOnLogout(func(r session.Reason) {
					p.Send(sessionEndedMsg{reason: r})
				})

				final, err := p.Run()
				if err != nil {
					return fmt.Errorf("run tui: %w", err)
				}
				if fm, ok := final.(dashboardModel); ok && fm.ended != "" {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "session ended: %s\n", fm.ended)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&tz, "tz", envOr("POSMAP_TZ", defaultTimezone), "timezone that defines today")
	return cmd
}
