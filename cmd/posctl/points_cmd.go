// PosMap - Point-of-Sale Registry and Sales Geography
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/posmap

package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/tomtom215/posmap/internal/client"
	"github.com/tomtom215/posmap/internal/models"
)

func newPointsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "points",
		Short: "Manage points of sale",
	}
	cmd.AddCommand(
		newPointsListCmd(opts),
		newPointsGetCmd(opts),
		newPointsCreateCmd(opts),
		newPointsUpdateCmd(opts),
		newPointsDeleteCmd(opts),
	)
	return cmd
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid point id %q", arg)
	}
	return id, nil
}

func newPointsListCmd(opts *rootOptions) *cobra.Command {
	var page, size int
	var all bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List points of sale",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(opts, func(a *app, _ *models.User) error {
				var (
					points []models.PointOfSale
					err    error
				)
				if all {
					points, err = a.api.ListAllPoints(cmd.Context())
				} else {
					points, err = a.api.ListPoints(cmd.Context(), page, size)
				}
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), renderPoints(points))
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), mutedStyle.Render(fmt.Sprintf("%d points", len(points))))
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().IntVar(&size, "size", 50, "page size (max 500)")
	cmd.Flags().BoolVar(&all, "all", false, "fetch every page")
	return cmd
}

func newPointsGetCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one point of sale",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withSession(opts, func(a *app, _ *models.User) error {
				p, err := a.api.GetPoint(cmd.Context(), id)
				if err != nil {
					return notFound(err, id)
				}
				_, _ = fmt.Fprint(cmd.OutOrStdout(), renderPoint(p))
				return nil
			})
		},
	}
}

// pointFlags binds the editable fields of a point.
type pointFlags struct {
	lat, lng    float64
	description string
	sale        float64
	zone        string
}

func (f *pointFlags) bind(fs *pflag.FlagSet) {
	fs.Float64Var(&f.lat, "lat", 0, "latitude")
	fs.Float64Var(&f.lng, "lng", 0, "longitude")
	fs.StringVar(&f.description, "desc", "", "description")
	fs.Float64Var(&f.sale, "sale", 0, "sale amount")
	fs.StringVar(&f.zone, "zone", "", "zone")
}

// apply overwrites the fields of in whose flags were set.
func (f *pointFlags) apply(fs *pflag.FlagSet, in *models.PointInput) {
	if fs.Changed("lat") {
		v := f.lat
		in.Latitude = &v
	}
	if fs.Changed("lng") {
		v := f.lng
		in.Longitude = &v
	}
	if fs.Changed("desc") {
		in.Description = f.description
	}
	if fs.Changed("sale") {
		in.Sale = f.sale
	}
	if fs.Changed("zone") {
		in.Zone = f.zone
	}
}

func newPointsCreateCmd(opts *rootOptions) *cobra.Command {
	var f pointFlags

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Register a point of sale",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var in models.PointInput
			f.apply(cmd.Flags(), &in)
			in.Normalize()
			if in.Description == "" {
				return errors.New("--desc is required")
			}
			return withSession(opts, func(a *app, _ *models.User) error {
				p, err := a.api.CreatePoint(cmd.Context(), in)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "created point %d\n", p.ID)
				return nil
			})
		},
	}
	f.bind(cmd.Flags())
	return cmd
}

func newPointsUpdateCmd(opts *rootOptions) *cobra.Command {
	var f pointFlags

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change fields of a point of sale",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withSession(opts, func(a *app, _ *models.User) error {
				cur, err := a.api.GetPoint(cmd.Context(), id)
				if err != nil {
					return notFound(err, id)
				}
				in := models.PointInput{
					Latitude:    cur.Latitude,
					Longitude:   cur.Longitude,
					Description: cur.Description,
					Sale:        cur.Sale,
					Zone:        cur.Zone,
				}
				f.apply(cmd.Flags(), &in)
				if err := a.api.UpdatePoint(cmd.Context(), id, in); err != nil {
					return notFound(err, id)
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "updated point %d\n", id)
				return nil
			})
		},
	}
	f.bind(cmd.Flags())
	return cmd
}

func newPointsDeleteCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Remove a point of sale",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withSession(opts, func(a *app, _ *models.User) error {
				if err := a.api.DeletePoint(cmd.Context(), id); err != nil {
					return notFound(err, id)
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "deleted point %d\n", id)
				return nil
			})
		},
	}
}

func notFound(err error, id int64) error {
	if errors.Is(err, client.ErrNotFound) {
		return fmt.Errorf("point %d not found", id)
	}
	return err
}
