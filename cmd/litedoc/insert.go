package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/aretw0/litedoc/pkg/core"
)

var (
	insertUpsert bool
	insertAuto   string
)

var insertCmd = &cobra.Command{
	Use:   "insert <collection> [json]",
	Short: "Insert raw JSON documents into a collection",
	Long: `Insert reads a JSON object, or an array of objects, from the argument or
from stdin. The collection is created on first use with the --auto identifier
strategy. Documents without "_id" receive a generated identifier.`,
	Example: `  litedoc insert Parents '{"_id": 1, "Name": "Parent A"}'
  echo '[{"Name": "x"}, {"Name": "y"}]' | litedoc insert Things --auto guid`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var data []byte
		if len(args) == 2 {
			data = []byte(args[1])
		} else {
			var err error
			data, err = io.ReadAll(os.Stdin)
			if err != nil {
				fatal("Error reading stdin", err)
			}
		}

		docs, err := parseDocuments(data)
		if err != nil {
			return err
		}

		autoID, err := core.ParseAutoID(insertAuto)
		if err != nil {
			return err
		}

		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		ctx := context.Background()
		coll, err := store.Engine().Collection(ctx, args[0], autoID)
		if err != nil {
			return err
		}

		for _, doc := range docs {
			if insertUpsert {
				inserted, err := coll.Upsert(ctx, doc)
				if err != nil {
					return err
				}
				verb := "updated"
				if inserted {
					verb = "inserted"
				}
				printLine("%s %v", verb, doc[core.IDKey])
				continue
			}
			id, err := coll.Insert(ctx, doc)
			if err != nil {
				return err
			}
			printLine("inserted %v", id)
		}
		return nil
	},
}

// parseDocuments accepts a single JSON object or an array of objects.
func parseDocuments(data []byte) ([]core.Document, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("no document given")
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	if data[0] == '[' {
		var docs []core.Document
		if err := dec.Decode(&docs); err != nil {
			return nil, fmt.Errorf("invalid document list: %w", err)
		}
		return docs, nil
	}

	var doc core.Document
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("invalid document: %w", err)
	}
	return []core.Document{doc}, nil
}

func init() {
	rootCmd.AddCommand(insertCmd)
	insertCmd.Flags().BoolVar(&insertUpsert, "upsert", false, "Overwrite documents sharing the same _id")
	insertCmd.Flags().StringVar(&insertAuto, "auto", "none", "Identifier strategy for new collections: none, guid or int64")
}
