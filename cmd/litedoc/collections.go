package main

import (
	"context"

	"github.com/spf13/cobra"
)

var collectionsMatch string

var collectionsCmd = &cobra.Command{
	Use:   "collections",
	Short: "List the collections of the store",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		ctx := context.Background()
		names, err := store.Collections(ctx, collectionsMatch)
		if err != nil {
			return err
		}

		type row struct {
			Name  string `json:"name" yaml:"name"`
			Count int64  `json:"count" yaml:"count"`
		}
		rows := make([]row, 0, len(names))
		for _, name := range names {
			coll, err := existingCollection(ctx, store.Engine(), name)
			if err != nil {
				return err
			}
			n, err := coll.Count(ctx, nil)
			if err != nil {
				return err
			}
			rows = append(rows, row{Name: name, Count: n})
		}

		if ok, err := render(cmd.OutOrStdout(), rows); ok {
			return err
		}
		for _, r := range rows {
			printLine("%s\t%d", r.Name, r.Count)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(collectionsCmd)
	collectionsCmd.Flags().StringVar(&collectionsMatch, "match", "", "Only list collections matching a glob (e.g. 'Log_*')")
	addOutputFlags(collectionsCmd)
}
