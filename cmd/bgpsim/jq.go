package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/itchyny/gojq"
)

// printJSON marshals v to JSON and writes it to stdout, running it through
// the --jq expression first when one was given.
func printJSON(v interface{}) error {
	if app.jqFilter == "" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	return runJQ(app.jqFilter, v)
}

// runJQ evaluates expr against v, round-tripping v through JSON first so
// gojq sees plain maps/slices rather than struct values.
func runJQ(expr string, v interface{}) error {
	query, err := gojq.Parse(expr)
	if err != nil {
		return fmt.Errorf("parsing --jq expression: %w", err)
	}

	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshaling for --jq: %w", err)
	}
	var generic interface{}
	if err := json.Unmarshal(data, &generic); err != nil {
		return fmt.Errorf("unmarshaling for --jq: %w", err)
	}

	iter := query.Run(generic)
	for {
		out, ok := iter.Next()
		if !ok {
			return nil
		}
		if err, ok := out.(error); ok {
			return fmt.Errorf("evaluating --jq expression: %w", err)
		}
		rendered, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling --jq result: %w", err)
		}
		fmt.Fprintln(os.Stdout, string(rendered))
	}
}
