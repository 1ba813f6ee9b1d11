package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/ngmaloney/marine-navigator/internal/marinas"
	"github.com/ngmaloney/marine-navigator/internal/models"
)

var marinasCmd = &cobra.Command{
	Use:   "marinas",
	Short: "Find marinas and manage favorites",
}

// -- marinas near --

var marinasNearCmd = &cobra.Command{
	Use:   "near <place>",
	Short: "List marinas near a place",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		svc, err := openServices()
		if err != nil {
			return err
		}
		defer svc.Close()

		radius, _ := cmd.Flags().GetFloat64("radius")
		want := facilityFlags(cmd)

		loc, err := svc.locate(ctx, args[0])
		if err != nil {
			return err
		}
		res, err := svc.marinas.FindNearby(ctx, loc.Lat, loc.Lon, radius)
		if err != nil {
			return err
		}

		found := marinas.Filter(res.Marinas, want)
		if res.Source.Degraded() {
			fmt.Fprintf(os.Stderr, "Marina data: %s\n", res.Source)
		}
		if len(found) == 0 {
			fmt.Fprintf(os.Stderr, "No marinas found within %.1f NM of %s.\n", radius, loc.Name)
			return nil
		}
		formatMarinas(os.Stdout, found)
		return nil
	},
}

func facilityFlags(cmd *cobra.Command) models.MarinaFacilities {
	get := func(name string) bool {
		v, _ := cmd.Flags().GetBool(name)
		return v
	}
	return models.MarinaFacilities{
		Fuel:        get("fuel"),
		Water:       get("water"),
		Electricity: get("electricity"),
		Pumpout:     get("pumpout"),
		Repairs:     get("repairs"),
	}
}

// -- marinas favorite --

var marinasFavoriteCmd = &cobra.Command{
	Use:   "favorite",
	Short: "Manage favorite marinas",
}

var favoriteAddCmd = &cobra.Command{
	Use:   "add <marina-id>",
	Short: "Save a marina from a nearby search as a favorite",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		svc, err := openServices()
		if err != nil {
			return err
		}
		defer svc.Close()

		near, _ := cmd.Flags().GetString("near")
		radius, _ := cmd.Flags().GetFloat64("radius")

		loc, err := svc.locate(ctx, near)
		if err != nil {
			return err
		}
		res, err := svc.marinas.FindNearby(ctx, loc.Lat, loc.Lon, radius)
		if err != nil {
			return err
		}
		for _, m := range res.Marinas {
			if m.ID == args[0] {
				if err := svc.marinas.AddFavorite(m); err != nil {
					return err
				}
				fmt.Fprintf(os.Stdout, "Added %s to favorites.\n", m.Name)
				return nil
			}
		}
		return eris.Errorf("marina %s not found within %.1f NM of %s", args[0], radius, loc.Name)
	},
}

var favoriteRemoveCmd = &cobra.Command{
	Use:   "remove <marina-id>",
	Short: "Remove a favorite marina",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openServices()
		if err != nil {
			return err
		}
		defer svc.Close()

		return svc.marinas.RemoveFavorite(args[0])
	},
}

var favoriteListCmd = &cobra.Command{
	Use:   "list",
	Short: "List favorite marinas",
	RunE: func(cmd *cobra.Command, _ []string) error {
		svc, err := openServices()
		if err != nil {
			return err
		}
		defer svc.Close()

		favs, err := svc.marinas.Favorites()
		if err != nil {
			return err
		}
		if len(favs) == 0 {
			fmt.Fprintln(os.Stderr, "No favorite marinas.")
			return nil
		}
		formatMarinas(os.Stdout, favs)
		return nil
	},
}

func init() {
	marinasNearCmd.Flags().Float64("radius", marinas.DefaultRadiusNM, "search radius in nautical miles")
	marinasNearCmd.Flags().Bool("fuel", false, "require fuel")
	marinasNearCmd.Flags().Bool("water", false, "require fresh water")
	marinasNearCmd.Flags().Bool("electricity", false, "require shore power")
	marinasNearCmd.Flags().Bool("pumpout", false, "require a pump-out station")
	marinasNearCmd.Flags().Bool("repairs", false, "require repair services")

	favoriteAddCmd.Flags().String("near", "", "place the marina was found near (required)")
	favoriteAddCmd.Flags().Float64("radius", marinas.DefaultRadiusNM, "search radius in nautical miles")
	_ = favoriteAddCmd.MarkFlagRequired("near")

	marinasFavoriteCmd.AddCommand(favoriteAddCmd, favoriteRemoveCmd, favoriteListCmd)
	marinasCmd.AddCommand(marinasNearCmd, marinasFavoriteCmd)
}
