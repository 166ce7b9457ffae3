package main

import (
	"fmt"

	"github.com/aretw0/orrery/internal/presentation/tui"
	"github.com/aretw0/orrery/pkg/adapters/loam"
	"github.com/spf13/cobra"
)

var scenariosCmd = &cobra.Command{
	Use:   "scenarios",
	Short: "Browse the saved scenario catalog",
}

var scenariosListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved scenarios",
	RunE: func(cmd *cobra.Command, args []string) error {
		catalog, err := openCatalog(cmd)
		if err != nil {
			return err
		}
		list, err := catalog.List(cmd.Context())
		if err != nil {
			return err
		}
		return printMarkdown(cmd, tui.ScenarioList(list))
	},
}

var scenariosShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one scenario",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		catalog, err := openCatalog(cmd)
		if err != nil {
			return err
		}
		s, err := catalog.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printMarkdown(cmd, tui.ScenarioDetail(s))
	},
}

func init() {
	rootCmd.AddCommand(scenariosCmd)
	scenariosCmd.AddCommand(scenariosListCmd, scenariosShowCmd)
	scenariosCmd.PersistentFlags().String("dir", "", "Scenario directory (default from config)")
}

func openCatalog(cmd *cobra.Command) (*loam.Catalog, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	dir := cfg.Scenarios
	if cmd.Flags().Changed("dir") {
		dir, _ = cmd.Flags().GetString("dir")
	}
	return loam.Open(dir)
}

func printMarkdown(cmd *cobra.Command, md string) error {
	out, err := tui.NewRenderer()(md)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), out)
	return nil
}
