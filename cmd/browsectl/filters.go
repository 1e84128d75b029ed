package main

import (
	"github.com/spf13/cobra"

	"github.com/utafrali/storefront-browse/internal/domain"
	"github.com/utafrali/storefront-browse/internal/session"
)

func newRemoveCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:     "remove <address> <key>",
		Short:   "Remove one filter from an address and print the result",
		Example: `  browsectl remove 'category=tv&brand=LG&page=3' brand`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return editAndPrint(cmd, opts, args[0], func(s *session.Session) error {
				_, err := s.Controller().RemoveFilter(domain.FilterKey(args[1]))
				return err
			})
		},
	}
}

func newResetCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:     "reset <address>",
		Short:   "Clear every filter except the category",
		Example: `  browsectl reset 'category=tv&brand=LG&min_price=1000'`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return editAndPrint(cmd, opts, args[0], func(s *session.Session) error {
				s.Controller().ResetFilters()
				return nil
			})
		},
	}
}

// editAndPrint opens address, applies edit and prints the settled view.
func editAndPrint(cmd *cobra.Command, opts *options, address string, edit func(*session.Session) error) error {
	e, err := newEnv(opts, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer e.close()

	s := e.registry.Create(address)
	if err := edit(s); err != nil {
		return err
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
