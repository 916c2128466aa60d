package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/eringen/pressfront"
	"github.com/eringen/pressfront/logger"
)

type rootOptions struct {
	envFile string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "pressfront",
		Short:         "A blog front end for a headless WordPress site",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "dotenv file loaded before reading the environment")

	cmd.AddCommand(
		newServeCmd(opts),
		newExportCmd(opts),
		newVersionCmd(),
	)
	return cmd
}

// loadApp reads configuration, initializes logging and builds the App.
func (o *rootOptions) loadApp() (*pressfront.App, error) {
	cfg, err := pressfront.LoadConfig(o.envFile)
	if err != nil {
		return nil, err
	}
	logger.Init(cfg.LogLevel)
	return pressfront.New(cfg, pressfront.ViewFuncs{})
}

func newServeCmd(opts *rootOptions) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:     "serve",
		Short:   "Serve the site over HTTP",
		Example: `pressfront serve --addr :8080`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := opts.loadApp()
			if err != nil {
				return err
			}
			defer app.Close()
			if addr != "" {
				app.Config.Addr = addr
			}
			return app.Start(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides ADDR)")
	return cmd
}

func newExportCmd(opts *rootOptions) *cobra.Command {
	var outDir string
	cmd := &cobra.Command{
		Use:     "export",
		Short:   "Pre-render every page to a directory",
		Example: `pressfront export --out dist`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := opts.loadApp()
			if err != nil {
				return err
			}
			defer app.Close()
			report, err := app.Export(cmd.Context(), outDir)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d pages to %s", report.Pages, outDir)
			if n := len(report.Skipped); n > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), " (%d skipped)", n)
			}
			fmt.Fprintln(cmd.OutOrStdout())
			return nil
		},
	}
	cmd.Flags().StringVarP(&outDir, "out", "o", "dist", "output directory")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the pressfront version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "pressfront %s\n", pressfront.Version)
		},
	}
}
