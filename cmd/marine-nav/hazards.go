package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ngmaloney/marine-navigator/internal/hazards"
)

var hazardsCmd = &cobra.Command{
	Use:   "hazards",
	Short: "Manage offline hazard data",
}

// -- hazards import --

var hazardsImportCmd = &cobra.Command{
	Use:   "import <file.shp>",
	Short: "Import charted hazards from a shapefile",
	Long: "Loads point or polygon hazards from an ESRI shapefile and stores them as an offline " +
		"snapshot. Imported data is used whenever live hazard data is unavailable and never expires.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openServices()
		if err != nil {
			return err
		}
		defer svc.Close()

		path := args[0]
		name, _ := cmd.Flags().GetString("name")
		if name == "" {
			name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		}
		source, _ := cmd.Flags().GetString("source")
		if source == "" {
			source = name
		}

		found, err := hazards.ImportShapefile(path, source)
		if err != nil {
			return err
		}
		res, err := svc.catalog.ImportSnapshot(name, found)
		if err != nil {
			return err
		}
		b := res.BBox
		fmt.Fprintf(os.Stdout, "Imported %d hazard(s) as %q covering %.4f,%.4f to %.4f,%.4f\n",
			len(res.Hazards), name, b.South, b.West, b.North, b.East)
		return nil
	},
}

// -- hazards prune --

var hazardsPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove expired hazard snapshots",
	RunE: func(cmd *cobra.Command, _ []string) error {
		svc, err := openServices()
		if err != nil {
			return err
		}
		defer svc.Close()

		n, err := svc.catalog.PruneExpired()
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "Removed %d snapshot(s).\n", n)
		return nil
	},
}

func init() {
	hazardsImportCmd.Flags().String("name", "", "snapshot name (default: file name)")
	hazardsImportCmd.Flags().String("source", "", "source label stored on each hazard (default: snapshot name)")

	hazardsCmd.AddCommand(hazardsImportCmd, hazardsPruneCmd)
}
