package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/simp-lee/datatable/internal/app"
)

func (r *RootCommand) newServeCommand() *cobra.Command {
	var port int
	var mode string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the web server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := r.loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}
			if cmd.Flags().Changed("mode") {
				cfg.Server.Mode = mode
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			a, err := app.New(cfg)
			if err != nil {
				return fmt.Errorf("create app: %w", err)
			}
			return a.Run()
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", 0, "listen port (overrides server.port)")
	cmd.Flags().StringVar(&mode, "mode", "", "gin mode: debug, release or test (overrides server.mode)")
	return cmd
}
