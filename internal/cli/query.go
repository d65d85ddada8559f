package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/simp-lee/datatable/internal/dataset"
	"github.com/simp-lee/datatable/internal/query"
	"github.com/simp-lee/datatable/internal/tui"
	"github.com/simp-lee/datatable/internal/urlstate"
)

type queryOptions struct {
	json   bool
	facets bool
}

func (r *RootCommand) newQueryCommand() *cobra.Command {
	var opts queryOptions

	cmd := &cobra.Command{
		Use:   "query <dataset> [search]",
		Short: "Print one page of a dataset for a search string",
		Long: `Evaluate a search string, as it would appear in a page URL, against a
generated dataset and print the resulting page.

Unknown parameters are ignored and invalid values fall back to their
defaults, exactly as the web page does.`,
		Example: `  datatable query tasks "status=done&status=todo&sortBy=title.asc&pageIndex=1"
  datatable query users "?name=ann&age=42" --json`,
		Args:              cobra.RangeArgs(1, 2),
		ValidArgsFunction: datasetCompletion,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkDataset(args[0]); err != nil {
				return err
			}
			search, err := parseSearch(args[1:])
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			_, cat, err := r.loadCatalog(ctx)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			switch args[0] {
			case dataset.Tasks:
				return runQuery(ctx, w, cat.Tasks, search, opts)
			default:
				return runQuery(ctx, w, cat.Users, search, opts)
			}
		},
	}
	cmd.Flags().BoolVar(&opts.json, "json", false, "print the page as JSON")
	cmd.Flags().BoolVar(&opts.facets, "facets", false, "also print facet counts")
	return cmd
}

// queryOutput is the JSON document printed by query --json.
type queryOutput[T any] struct {
	Search string                        `json:"search"`
	Page   query.Page[T]                 `json:"page"`
	Facets map[string][]query.FacetCount `json:"facets,omitempty"`
}

func runQuery[T any](ctx context.Context, w io.Writer, src *dataset.Source[T], search url.Values, opts queryOptions) error {
	codec := src.Codec()
	st := codec.Decode(search)
	canonical := codec.Encode(urlstate.Strip(st)).Encode()

	var facets map[string][]query.FacetCount
	if opts.facets {
		var err error
		if facets, err = src.Facets(ctx, st); err != nil {
			return err
		}
	}

	if opts.json {
		page, err := src.Fetch(ctx, st)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(queryOutput[T]{Search: canonical, Page: page, Facets: facets})
	}

	table := tui.FromSource(src)
	res, err := table.Load(ctx, st)
	if err != nil {
		return err
	}

	summary := fmt.Sprintf("%s: %s of %s records, page %d of %s",
		src.Name(),
		humanize.Comma(int64(len(res.Rows))),
		humanize.Comma(int64(res.TotalCount)),
		res.PageIndex+1,
		humanize.Comma(int64(max(res.PageCount, 1))),
	)
	if canonical != "" {
		summary += " (?" + canonical + ")"
	}
	fmt.Fprintln(w, summary)
	fmt.Fprintln(w)

	cols := table.Columns()
	headers := make([]string, len(cols))
	for i, c := range cols {
		headers[i] = c.Name
	}
	fmt.Fprint(w, tui.RenderTable(headers, res.Rows))

	if opts.facets {
		fmt.Fprintln(w)
		for _, c := range cols {
			counts, ok := facets[c.Name]
			if !ok {
				continue
			}
			parts := make([]string, len(counts))
			for i, fc := range counts {
				parts[i] = fmt.Sprintf("%s=%s", fc.Value, humanize.Comma(int64(fc.Count)))
			}
			fmt.Fprintf(w, "%s: %s\n", c.Name, strings.Join(parts, " "))
		}
	}
	return nil
}
