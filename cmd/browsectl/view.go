package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/utafrali/storefront-browse/internal/domain"
	"github.com/utafrali/storefront-browse/internal/querystate"
	"github.com/utafrali/storefront-browse/internal/session"
	"github.com/utafrali/storefront-browse/pkg/validator"
)

func newViewCommand(opts *options) *cobra.Command {
	var (
		sets []string
		page int
	)

	cmd := &cobra.Command{
		Use:   "view [address]",
		Short: "Open an address and print the catalog view",
		Example: `  browsectl view '?category=laptops&sort_by=price_asc&page=2'
  browsectl view 'category=tv' --set brand=LG --set in_stock=true
  browsectl view 'category=tv' --page 2 -o json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			patch, err := parsePatch(sets)
			if err != nil {
				return err
			}

			e, err := newEnv(opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer e.close()

			address := ""
			if len(args) == 1 {
				address = args[0]
			}
			s := e.registry.Create(address)
			if !patch.IsEmpty() {
				s.Controller().SetFilter(patch)
			}
			if page > 0 {
				if _, err := s.Controller().SetPage(page); err != nil {
					return err
				}
			}
			if err := settle(s, opts.timeout); err != nil {
				return err
			}

			v := s.View(opts.lang)
			if opts.output == "json" {
				return writeJSON(cmd.OutOrStdout(), v)
			}
			return printView(cmd.OutOrStdout(), v)
		},
	}

	cmd.Flags().StringArrayVar(&sets, "set", nil, "filter edit as key=value; an empty value clears the filter (repeatable)")
	cmd.Flags().IntVar(&page, "page", 0, "move to this page after applying --set")
	return cmd
}

// parsePatch turns key=value pairs into a filter patch.
func parsePatch(pairs []string) (domain.Patch, error) {
	var p domain.Patch
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			return p, fmt.Errorf("invalid --set %q, use key=value", pair)
		}
		v := value
		switch domain.FilterKey(key) {
		case domain.KeyCategory:
			p.Category = &v
		case domain.KeySearch:
			p.Search = &v
		case domain.KeyMinPrice:
			p.MinPrice = &v
		case domain.KeyMaxPrice:
			p.MaxPrice = &v
		case domain.KeyBrand:
			p.Brand = &v
		case domain.KeyInStock:
			b := v == "true"
			if v != "" && v != "true" && v != "false" {
				return p, fmt.Errorf("in_stock must be true or false, got %q", v)
			}
			p.InStock = &b
		case domain.KeySortBy:
			sk := domain.SortKey(v)
			p.SortBy = &sk
		case domain.KeyPage:
			n, err := strconv.Atoi(v)
			if err != nil {
				return p, fmt.Errorf("page must be an integer, got %q", v)
			}
			p.Page = &n
		default:
			return p, fmt.Errorf("unknown filter %q", key)
		}
	}
	if err := validator.Validate(p); err != nil {
		return p, fmt.Errorf("invalid filter edit: %w", err)
	}
	return p, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

var (
	warn    = color.New(color.FgYellow)
	soldOut = color.New(color.FgRed)
	active  = color.New(color.Bold)
)

// printView writes a view as aligned text. Colored cells are always the last
// on their line so escape codes never skew the alignment.
func printView(out io.Writer, v session.View) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)

	fmt.Fprintf(w, "address:\t?%s\n", v.Query)
	fmt.Fprintf(w, "results:\t%d total, page %d of %d\n", v.Total, v.Filters.Page, v.Pages)
	if v.LastError != "" {
		fmt.Fprintf(w, "warning:\t%s\n", warn.Sprintf("showing previous results, last fetch failed: %s", v.LastError))
	}
	for _, p := range v.Items {
		stock := ""
		if !p.InStock {
			stock = soldOut.Sprint("out of stock")
		}
		fmt.Fprintf(w, "  %s\t%s\t%s\t%s\n", p.ID, p.Name, querystate.FormatPrice(p.Price), stock)
	}
	if len(v.Pagination) > 0 {
		fmt.Fprintf(w, "pages:\t%s\n", pageStrip(v))
	}
	fmt.Fprintf(w, "brands:\t%s\n", strings.Join(v.Facets.Brands, ", "))
	fmt.Fprintf(w, "price:\t%s - %s\n",
		querystate.FormatPrice(v.Facets.PriceRange.Min),
		querystate.FormatPrice(v.Facets.PriceRange.Max),
	)
	if len(v.Chips) > 0 {
		labels := make([]string, 0, len(v.Chips))
		for _, c := range v.Chips {
			labels = append(labels, fmt.Sprintf("%s (%s)", c.Label, c.Key))
		}
		fmt.Fprintf(w, "chips:\t%s\n", strings.Join(labels, ", "))
	}
	return w.Flush()
}

func pageStrip(v session.View) string {
	parts := make([]string, 0, len(v.Pagination))
	for _, b := range v.Pagination {
		switch {
		case b.Gap:
			parts = append(parts, "…")
		case b.Active:
			parts = append(parts, active.Sprintf("[%d]", b.Page))
		default:
			parts = append(parts, strconv.Itoa(b.Page))
		}
	}
	return strings.Join(parts, " ")
}
