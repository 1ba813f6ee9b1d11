package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/ngmaloney/marine-navigator/internal/hazards"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <route>",
	Short: "Check a saved route for nautical hazards",
	Long: "Fetches charted hazards around the route and reports those within the safety margin " +
		"of any leg. With --avoid, avoidance waypoints are inserted until the route no longer " +
		"needs rerouting or --max-iterations is reached.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		svc, err := openServices()
		if err != nil {
			return err
		}
		defer svc.Close()

		draft, _ := cmd.Flags().GetFloat64("draft")
		margin, _ := cmd.Flags().GetFloat64("margin")
		avoid, _ := cmd.Flags().GetBool("avoid")
		maxIter, _ := cmd.Flags().GetInt("max-iterations")
		save, _ := cmd.Flags().GetBool("save")
		opts := vesselOptions(draft, margin)

		r, err := svc.routes.GetRoute(args[0])
		if err != nil {
			return err
		}

		if !avoid {
			analysis, err := svc.analyzer.AnalyzeRouteHazards(ctx, r.Waypoints, opts)
			if err != nil {
				return eris.Wrap(err, "analyze")
			}
			formatAnalysis(os.Stdout, analysis)
			return nil
		}

		rerouted, analysis, err := svc.analyzer.PlanAvoidance(ctx, *r, opts, maxIter)
		if err != nil {
			return eris.Wrap(err, "analyze")
		}
		added := len(rerouted.Waypoints) - len(r.Waypoints)
		fmt.Fprintf(os.Stdout, "Added %d avoidance waypoint(s).\n\n", added)
		formatRoute(os.Stdout, rerouted)
		fmt.Fprintln(os.Stdout)
		formatAnalysis(os.Stdout, analysis)

		if hazards.RequiresRerouting(analysis) {
			fmt.Fprintln(os.Stderr, "Route still requires rerouting; plan the passage manually.")
		}
		if save && added > 0 {
			return svc.routes.SaveRoute(rerouted)
		}
		return nil
	},
}

func init() {
	analyzeCmd.Flags().Float64("draft", 0, "vessel draft in meters (default from config)")
	analyzeCmd.Flags().Float64("margin", 0, "safety margin in meters (default from config)")
	analyzeCmd.Flags().Bool("avoid", false, "insert avoidance waypoints")
	analyzeCmd.Flags().Int("max-iterations", 5, "maximum avoidance waypoints to insert")
	analyzeCmd.Flags().Bool("save", false, "save the rerouted route")
}
