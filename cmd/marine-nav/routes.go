package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var routesCmd = &cobra.Command{
	Use:   "routes",
	Short: "Manage saved routes",
}

// -- routes list --

var routesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved routes",
	RunE: func(cmd *cobra.Command, _ []string) error {
		svc, err := openServices()
		if err != nil {
			return err
		}
		defer svc.Close()

		routes, err := svc.routes.GetSavedRoutes()
		if err != nil {
			return err
		}
		if len(routes) == 0 {
			fmt.Fprintln(os.Stderr, "No saved routes.")
			return nil
		}
		formatRoutesList(os.Stdout, routes)
		return nil
	},
}

// -- routes show --

var routesShowCmd = &cobra.Command{
	Use:   "show <name-or-id>",
	Short: "Show a saved route",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openServices()
		if err != nil {
			return err
		}
		defer svc.Close()

		r, err := svc.routes.GetRoute(args[0])
		if err != nil {
			return err
		}
		formatRoute(os.Stdout, *r)
		return nil
	},
}

// -- routes delete --

var routesDeleteCmd = &cobra.Command{
	Use:   "delete <name-or-id>",
	Short: "Delete a saved route",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openServices()
		if err != nil {
			return err
		}
		defer svc.Close()

		return svc.routes.DeleteRoute(args[0])
	},
}

func init() {
	routesCmd.AddCommand(routesListCmd, routesShowCmd, routesDeleteCmd)
}
