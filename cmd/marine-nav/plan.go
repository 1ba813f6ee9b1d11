package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ngmaloney/marine-navigator/internal/route"
)

var planCmd = &cobra.Command{
	Use:   "plan <from> <to>",
	Short: "Plan a route between two places",
	Long: "Geocodes the endpoints (place names or \"lat,lon\"), builds a route through any --via " +
		"waypoints and prints the legs. Use --save to keep it and --analyze to check it for hazards.",
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		svc, err := openServices()
		if err != nil {
			return err
		}
		defer svc.Close()

		speed, _ := cmd.Flags().GetFloat64("speed")
		if speed <= 0 {
			speed = cfg.Vessel.AverageSpeedKnots
		}
		via, _ := cmd.Flags().GetStringArray("via")
		name, _ := cmd.Flags().GetString("name")
		save, _ := cmd.Flags().GetBool("save")
		analyze, _ := cmd.Flags().GetBool("analyze")

		from, err := svc.locate(ctx, args[0])
		if err != nil {
			return err
		}
		to, err := svc.locate(ctx, args[1])
		if err != nil {
			return err
		}

		r, err := route.GenerateRoute(from, to, speed)
		if err != nil {
			return eris.Wrap(err, "plan")
		}
		planned := *r
		for _, v := range via {
			loc, err := svc.locate(ctx, v)
			if err != nil {
				return err
			}
			if planned, err = route.AddWaypoint(planned, loc); err != nil {
				return eris.Wrap(err, "plan")
			}
		}
		if name != "" {
			planned.Name = name
		}

		formatRoute(os.Stdout, planned)

		if analyze {
			analysis, err := svc.analyzer.AnalyzeRouteHazards(ctx, planned.Waypoints, vesselOptions(0, 0))
			if err != nil {
				return eris.Wrap(err, "plan")
			}
			fmt.Fprintln(os.Stdout)
			formatAnalysis(os.Stdout, analysis)
		}

		if save {
			if err := svc.routes.SaveRoute(planned); err != nil {
				return err
			}
			zap.L().Info("route saved", zap.String("name", planned.Name), zap.String("id", planned.ID))
		}
		return nil
	},
}

func init() {
	planCmd.Flags().StringArray("via", nil, "intermediate waypoint (repeatable)")
	planCmd.Flags().Float64("speed", 0, "average speed in knots (default from config)")
	planCmd.Flags().String("name", "", "route name (default \"<from> to <to>\")")
	planCmd.Flags().Bool("save", false, "save the route")
	planCmd.Flags().Bool("analyze", false, "check the route for hazards")
}
