package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/aretw0/orrery/pkg/adapters/sqlite"
	"github.com/spf13/cobra"
)

var archiveCmd = &cobra.Command{
	Use:   "archive <path>",
	Short: "List the sessions recorded in an archive",
	Long:  `Lists sessions recorded with play --archive. Replay one with play --transport replay --source <path> --session <id>.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		archive, err := sqlite.Open(args[0])
		if err != nil {
			return err
		}
		defer archive.Close()

		recs, err := archive.Recordings(cmd.Context())
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "SESSION\tCHUNKS\tFRAMES\tFIRST\tLAST")
		for _, r := range recs {
			fmt.Fprintf(w, "%s\t%d\t%d\t%s\t%s\n", r.SessionID, r.Chunks, r.Frames,
				r.First.Local().Format(time.DateTime), r.Last.Local().Format(time.DateTime))
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(archiveCmd)
}
