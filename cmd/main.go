package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/iggydv12/gogrocery/internal/app"
	"github.com/iggydv12/gogrocery/internal/config"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

var (
	cfgFile string
	debug   bool
)

// @title Grocery List API
// @version 1.0
// @description CRUD microservice for a single grocery list.
// @BasePath /
func main() {
	rootCmd := &cobra.Command{
		Use:   "grocery",
		Short: "Grocery list microservice",
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the grocery HTTP API",
		RunE:  runServe,
	}
	serveCmd.Flags().StringVarP(&cfgFile, "config", "c", "", "Path to config file (default: configs/config.yaml)")
	serveCmd.Flags().BoolVar(&debug, "debug", false, "Use the development logger")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}

	rootCmd.AddCommand(serveCmd, versionCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	logger, err := newLogger(debug)
	if err != nil {
		return fmt.Errorf("logger init: %w", err)
	}
	defer logger.Sync()

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("config load: %w", err)
	}

	logger.Info("Starting grocery service",
		zap.String("version", version),
		zap.String("backend", cfg.Store.Backend),
	)

	return app.NewController(cfg, logger).Run(context.Background())
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
