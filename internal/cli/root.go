// Package cli implements the datatable command line: the web server, one-off
// queries against the generated datasets and the terminal browser.
package cli

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	"github.com/simp-lee/datatable/internal/config"
	"github.com/simp-lee/datatable/internal/dataset"
)

const defaultConfigPath = "configs/config.yaml"

// RootCommand is the datatable command tree.
type RootCommand struct {
	cmd        *cobra.Command
	out        io.Writer
	configPath string
}

// NewRootCommand builds the command tree writing its output to out.
func NewRootCommand(out io.Writer) *RootCommand {
	r := &RootCommand{out: out}

	r.cmd = &cobra.Command{
		Use:   "datatable",
		Short: "Browse generated task and user tables with URL-backed filters",
		Long: `datatable serves filterable, sortable and paginated tables of generated
tasks and users. Every table state is a plain URL search string, so the
same string works in the web page, the JSON API, the query command and
the terminal browser.

EXAMPLES:
  datatable serve                                   # start the web server
  datatable query tasks "status=done&sortBy=title.asc"
  datatable query users "role=admin" --json
  datatable browse users "status=active"`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	r.cmd.SetOut(out)
	r.cmd.PersistentFlags().StringVarP(&r.configPath, "config", "c", defaultConfigPath, "path to configuration file")

	r.cmd.AddCommand(
		r.newServeCommand(),
		r.newQueryCommand(),
		r.newBrowseCommand(),
	)
	return r
}

// Execute runs the command selected by the process arguments.
func (r *RootCommand) Execute() error {
	return r.cmd.Execute()
}

// ExecuteArgs runs the command selected by args.
func (r *RootCommand) ExecuteArgs(ctx context.Context, args []string) error {
	r.cmd.SetArgs(args)
	return r.cmd.ExecuteContext(ctx)
}

func (r *RootCommand) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(r.configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func (r *RootCommand) loadCatalog(ctx context.Context) (*config.Config, *dataset.Catalog, error) {
	cfg, err := r.loadConfig()
	if err != nil {
		return nil, nil, err
	}
	cat, err := dataset.Load(ctx, cfg.Data, dataset.OptionsFromConfig(cfg)...)
	if err != nil {
		return nil, nil, err
	}
	return cfg, cat, nil
}

// parseSearch accepts a search string with or without its leading "?".
func parseSearch(args []string) (url.Values, error) {
	if len(args) == 0 {
		return url.Values{}, nil
	}
	values, err := url.ParseQuery(strings.TrimPrefix(args[0], "?"))
	if err != nil {
		return nil, fmt.Errorf("parse search %q: %w", args[0], err)
	}
	return values, nil
}

func checkDataset(name string) error {
	for _, n := range dataset.Names {
		if n == name {
			return nil
		}
	}
	return fmt.Errorf("unknown dataset %q: must be one of %s", name, strings.Join(dataset.Names, ", "))
}

func datasetCompletion(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return dataset.Names, cobra.ShellCompDirectiveNoFileComp
}
