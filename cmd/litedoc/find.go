package main

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/aretw0/litedoc/pkg/core"
	"github.com/aretw0/litedoc/pkg/query"
)

var (
	findWhere    []string
	findID       string
	findIncludes []string
	findOrder    string
	findDesc     bool
	findSkip     int
	findLimit    int
)

var findCmd = &cobra.Command{
	Use:   "find <collection>",
	Short: "Print documents of a collection",
	Example: `  litedoc find Children --include '$.Reference'
  litedoc find People --where 'Age>=30' --where 'Name~=A%' --order Name --limit 10
  litedoc find People --id 42 --yaml`,
	Args: cobra.ExactArgs(1),
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

		pred, err := parseWhere(findWhere)
		if err != nil {
			return err
		}
		if findID != "" {
			pred = query.All(pred, query.ByID(parseValue(findID)))
		}

		q := coll.Query().Where(pred).Skip(findSkip).Limit(findLimit)
		for _, path := range findIncludes {
			q = q.Include(path)
		}
		if findOrder != "" {
			order := core.Ascending
			if findDesc {
				order = core.Descending
			}
			q = q.OrderBy(findOrder, order)
		}

		var docs []core.Document
		for doc, err := range q.Seq(ctx) {
			if err != nil {
				return err
			}
			docs = append(docs, doc)
		}

		if ok, err := render(cmd.OutOrStdout(), docs); ok {
			return err
		}
		for _, doc := range docs {
			data, err := json.Marshal(doc)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
		}
		return nil
	},
}

var countCmd = &cobra.Command{
	Use:   "count <collection>",
	Short: "Count documents of a collection",
	Args:  cobra.ExactArgs(1),
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
		pred, err := parseWhere(findWhere)
		if err != nil {
			return err
		}

		n, err := coll.Count(ctx, pred)
		if err != nil {
			return err
		}
		printLine("%d", n)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(findCmd)
	rootCmd.AddCommand(countCmd)

	findCmd.Flags().StringArrayVar(&findWhere, "where", nil, "Filter expression field<op>value, op one of = != > >= < <= ~= (repeatable)")
	findCmd.Flags().StringVar(&findID, "id", "", "Only the document with this identifier")
	findCmd.Flags().StringArrayVar(&findIncludes, "include", nil, "Resolve the reference at path, e.g. '$.Parent' (repeatable)")
	findCmd.Flags().StringVar(&findOrder, "order", "", "Sort by field")
	findCmd.Flags().BoolVar(&findDesc, "desc", false, "Sort descending")
	findCmd.Flags().IntVar(&findSkip, "skip", 0, "Skip the first n documents")
	findCmd.Flags().IntVar(&findLimit, "limit", -1, "Return at most n documents")
	addOutputFlags(findCmd)

	countCmd.Flags().StringArrayVar(&findWhere, "where", nil, "Filter expression (repeatable)")
}
