package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/bpmx"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of bpmx",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "bpmx version %s\n", bpmx.Version())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
