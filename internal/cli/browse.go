package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/simp-lee/datatable/internal/dataset"
	"github.com/simp-lee/datatable/internal/tui"
)

// filterFields are the text fields edited by the browser's filter box.
var filterFields = map[string]string{
	dataset.Tasks: "title",
	dataset.Users: "name",
}

// runBrowser starts the terminal UI. Tests replace it.
var runBrowser = tui.Run

func (r *RootCommand) newBrowseCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "browse [dataset] [search]",
		Short: "Browse a dataset in the terminal",
		Long: `Open an interactive table. Type / to filter, use left and right to page,
tab and s to sort, [ ] and space to toggle facets, up and down to move between
rows, m to mark a row, v to cycle the selection filter, r to reset and q to
quit. The final search string is printed on exit.`,
		Args:              cobra.MaximumNArgs(2),
		ValidArgsFunction: datasetCompletion,
		RunE: func(cmd *cobra.Command, args []string) error {
			name := dataset.Tasks
			if len(args) > 0 {
				name = args[0]
			}
			if err := checkDataset(name); err != nil {
				return err
			}
			search, err := parseSearch(args[min(len(args), 1):])
			if err != nil {
				return err
			}

			cfg, cat, err := r.loadCatalog(cmd.Context())
			if err != nil {
				return err
			}

			table := tui.FromSource(cat.Tasks)
			if name == dataset.Users {
				table = tui.FromSource(cat.Users)
			}
			final, err := runBrowser(table, tui.Options{
				Debounce:    cfg.Query.DebounceDuration(),
				Search:      search,
				FilterField: filterFields[name],
			})
			if err != nil {
				return err
			}
			if final != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "/%s?%s\n", name, final)
			}
			return nil
		},
	}
}
