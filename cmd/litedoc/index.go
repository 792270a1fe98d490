package main

import (
	"context"

	"github.com/spf13/cobra"
)

var (
	indexUnique bool
	indexDrop   bool
)

var indexCmd = &cobra.Command{
	Use:   "index <collection> <field>",
	Short: "Create or drop an index on a document field",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		ctx := context.Background()
		coll, err := existingCollection(ctx, store.Engine(), args[0])
		if err != nil {
			return err
		}

		if indexDrop {
			dropped, err := coll.DropIndex(ctx, args[1])
			if err != nil {
				return err
			}
			if !dropped {
				printLine("no index on %s.%s", args[0], args[1])
				return nil
			}
			printLine("dropped index on %s.%s", args[0], args[1])
			return nil
		}

		created, err := coll.EnsureIndex(ctx, args[1], indexUnique)
		if err != nil {
			return err
		}
		if !created {
			printLine("index on %s.%s already exists", args[0], args[1])
			return nil
		}
		printLine("created index on %s.%s", args[0], args[1])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(indexCmd)
	indexCmd.Flags().BoolVar(&indexUnique, "unique", false, "Reject documents sharing the same value")
	indexCmd.Flags().BoolVar(&indexDrop, "drop", false, "Drop the index instead of creating it")
	indexCmd.MarkFlagsMutuallyExclusive("unique", "drop")
}
