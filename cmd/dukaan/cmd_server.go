package main

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"dukaan/app/controllers"
	"dukaan/app/routes"
	"dukaan/internal/server"
	"dukaan/pkg/router"
)

// dukaan run — start the HTTP server.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the API server (alias: serve)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return server.Start()
	},
}

// dukaan serve — alias kept for muscle memory.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return server.Start()
	},
}

// dukaan route:list — print all registered routes.
var routeListCmd = &cobra.Command{
	Use:   "route:list",
	Short: "List all registered named routes",
	RunE: func(cmd *cobra.Command, args []string) error {
		r := router.New()

		// Handlers are never invoked for listing, so zero-value
		// controllers are enough to build the table.
		routes.RegisterAPI(r, routes.Deps{
			Auth:     &controllers.AuthController{},
			Orders:   &controllers.OrderController{},
			Catalog:  &controllers.CatalogController{},
			Customer: &controllers.CustomerController{},
			Driver:   &controllers.DriverController{},
			Admin:    &controllers.AdminController{},
		})

		infos := r.Routes()
		if len(infos) == 0 {
			fmt.Println("No named routes registered.")
			return nil
		}

		sort.Slice(infos, func(i, j int) bool {
			if infos[i].Path != infos[j].Path {
				return infos[i].Path < infos[j].Path
			}
			return infos[i].Method < infos[j].Method
		})

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "METHOD\tPATH\tNAME")
		fmt.Fprintln(w, "------\t----\t----")
		for _, ri := range infos {
			fmt.Fprintf(w, "%s\t%s\t%s\n", ri.Method, ri.Path, ri.Name)
		}
		return w.Flush()
	},
}
