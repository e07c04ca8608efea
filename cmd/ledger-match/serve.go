package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/expenseflow/ledger-match/internal/api"
)

func init() {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the review API over HTTP",
		Long:  `Start the HTTP API used by the web review frontend.`,
		RunE:  runServe,
	}

	serveCmd.Flags().Int("port", 0, "Port to listen on (default 8080)")
	_ = viper.BindPFlag("api.port", serveCmd.Flags().Lookup("port"))

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() { _ = store.Close() }()

	cfg := api.DefaultConfig()
	if port := viper.GetInt("api.port"); port != 0 {
		cfg.Port = port
	}
	if origins := viper.GetStringSlice("api.allowed_origins"); len(origins) > 0 {
		cfg.AllowedOrigins = origins
	}

	server := api.NewServer(cfg, store, nil)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
