package main

import (
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	outputJSON bool
	outputYAML bool
)

// addOutputFlags registers --json and --yaml on cmd.
func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&outputJSON, "json", false, "Output in JSON format")
	cmd.Flags().BoolVar(&outputYAML, "yaml", false, "Output in YAML format")
	cmd.MarkFlagsMutuallyExclusive("json", "yaml")
}

// render writes v as JSON or YAML when requested and reports whether it did.
func render(w io.Writer, v any) (bool, error) {
	switch {
	case outputJSON:
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return true, err
		}
		_, err = fmt.Fprintln(w, string(data))
		return true, err
	case outputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(normalize(v)); err != nil {
			return true, err
		}
		return true, enc.Close()
	}
	return false, nil
}

// normalize converts values through JSON so YAML sees plain maps, slices,
// strings and numbers instead of json.Number or custom types.
func normalize(v any) any {
	data, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return v
	}
	return out
}

func printLine(format string, args ...any) {
	fmt.Fprintf(os.Stdout, format+"\n", args...)
}
