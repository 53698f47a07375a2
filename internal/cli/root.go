package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/yungbote/greenlight-backend/internal/app"
	"github.com/yungbote/greenlight-backend/internal/pkg/envutil"
	"github.com/yungbote/greenlight-backend/internal/pkg/logger"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	LogMode string
	EnvFile string
}

// NewRootCommand creates the greenlight CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "greenlight",
		Short:         "Math Green Light API",
		Long:          "Curriculum, progress and memo service for the Math Green Light study tracker.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.LogMode, "log-mode", envutil.String("LOG_MODE", "development"), "logger mode (development|production)")
	cmd.PersistentFlags().StringVar(&opts.EnvFile, "env-file", "", "dotenv file to load before reading config")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewImportCommand(opts))

	return cmd
}

// bootstrap builds the logger and the wired application shared by every
// subcommand.
func bootstrap(ctx context.Context, opts *RootOptions) (*app.App, error) {
	log, err := logger.New(opts.LogMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	if opts.EnvFile != "" {
		if err := os.Setenv("ENV_FILE", opts.EnvFile); err != nil {
			return nil, err
		}
	}
	app.LoadDotEnv(log)
	a, err := app.New(ctx, log)
	if err != nil {
		log.Sync()
		return nil, err
	}
	return a, nil
}
