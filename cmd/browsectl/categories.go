package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

type categoryNode struct {
	Slug     string         `json:"slug"`
	Name     string         `json:"name"`
	Children []categoryNode `json:"children"`
}

func newCategoriesCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "Print the category tree",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer e.close()

			ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
			defer cancel()

			raw, err := e.catalog.CategoryTree(ctx)
			if err != nil {
				return fmt.Errorf("fetch category tree: %w", err)
			}

			if opts.output == "json" {
				var buf bytes.Buffer
				if err := json.Indent(&buf, raw, "", "  "); err != nil {
					return fmt.Errorf("format category tree: %w", err)
				}
				buf.WriteByte('\n')
				_, err := buf.WriteTo(cmd.OutOrStdout())
				return err
			}

			var tree []categoryNode
			if err := json.Unmarshal(raw, &tree); err != nil {
				return fmt.Errorf("decode category tree: %w", err)
			}
			printTree(cmd, tree, 0)
			return nil
		},
	}
}

func printTree(cmd *cobra.Command, nodes []categoryNode, depth int) {
	for _, n := range nodes {
		fmt.Fprintf(cmd.OutOrStdout(), "%s%s (%s)\n", strings.Repeat("  ", depth), n.Name, n.Slug)
		printTree(cmd, n.Children, depth+1)
	}
}
