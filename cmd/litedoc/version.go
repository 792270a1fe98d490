package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/litedoc"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of litedoc",
	Run: func(cmd *cobra.Command, args []string) {
		printLine("litedoc v%s", strings.TrimSpace(litedoc.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
