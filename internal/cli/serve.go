package cli

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

type serveOptions struct {
	migrate bool
}

func NewServeCommand(root *RootOptions) *cobra.Command {
	opts := &serveOptions{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := bootstrap(ctx, root)
			if err != nil {
				return err
			}
			defer a.Close()

			if opts.migrate {
				if err := a.Migrate(); err != nil {
					return err
				}
			}
			return a.Run(ctx)
		},
	}
	cmd.Flags().BoolVar(&opts.migrate, "migrate", false, "apply schema migrations before serving")
	return cmd
}
