package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var dropCmd = &cobra.Command{
	Use:   "drop <collection>",
	Short: "Remove a collection and its documents",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		dropped, err := store.Engine().DropCollection(context.Background(), args[0])
		if err != nil {
			return err
		}
		if !dropped {
			return fmt.Errorf("collection %q does not exist", args[0])
		}
		printLine("dropped %s", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(dropCmd)
}
