package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/utafrali/storefront-browse/internal/querystate"
	"github.com/utafrali/storefront-browse/internal/suggest"
)

func newSuggestCommand(opts *options) *cobra.Command {
	var submit bool

	cmd := &cobra.Command{
		Use:   "suggest <text>",
		Short: "Show the search box suggestions for text",
		Example: `  browsectl suggest iphone
  browsectl suggest 'galaxy s24' --submit`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer e.close()

			s := e.registry.Create("")
			pipeline := s.Suggestions()
			pipeline.SetText(args[0])

			deadline := time.Now().Add(opts.timeout)
			for pipeline.Snapshot().Phase == suggest.PhasePending {
				if time.Now().After(deadline) {
					return fmt.Errorf("suggestions did not arrive within %s", opts.timeout)
				}
				time.Sleep(10 * time.Millisecond)
			}
			if err := settle(s, opts.timeout); err != nil {
				return err
			}

			if submit {
				if _, ok := s.SubmitSearch(); !ok {
					return fmt.Errorf("nothing to search for")
				}
				if err := settle(s, opts.timeout); err != nil {
					return err
				}
				v := s.View(opts.lang)
				if opts.output == "json" {
					return writeJSON(cmd.OutOrStdout(), v)
				}
				return printView(cmd.OutOrStdout(), v)
			}

			snap := pipeline.Snapshot()
			if opts.output == "json" {
				return writeJSON(cmd.OutOrStdout(), snap)
			}
			if len(snap.Items) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no suggestions")
				return nil
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, item := range snap.Items {
				fmt.Fprintf(w, "%s\t%s\t%s\n", item.ID, item.Name, querystate.FormatPrice(item.Price))
			}
			return w.Flush()
		},
	}

	cmd.Flags().BoolVar(&submit, "submit", false, "submit the text as a search and print the results view")
	return cmd
}
