package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/orrery"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of orrery",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "orrery version %s\n", strings.TrimSpace(orrery.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
