package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"dukaan/internal/server"
)

// dukaan seed
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Run all database seeders",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("Running seeders…")
		return server.Seed(cmd.Context())
	},
}
