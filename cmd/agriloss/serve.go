package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/eugenekravchuk/agriculture-losses/internal/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func (a *app) serveCmd() *cobra.Command {
	var address, maxUpload string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the form API over HTTP",
		Long: `Serve the cash-flow and loss-report operations as a JSON API. Requests are
forwarded to the prediction service configured under api.baseURL.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			serverConf, err := server.NewConfig(a.conf.Server)
			if err != nil {
				return err
			}
			if address != "" {
				serverConf.Address = address
			}
			if maxUpload != "" {
				size, err := server.ParseSize(maxUpload)
				if err != nil {
					return err
				}
				serverConf.SetUploadSizeBytes(size)
			}

			handler, err := server.NewHandler(a.logger, a.conf, a.client(), serverConf.UploadSizeBytes(), version)
			if err != nil {
				return err
			}

			srv := &http.Server{
				Addr:              serverConf.Address,
				Handler:           handler,
				ReadHeaderTimeout: 10 * time.Second,
				WriteTimeout:      a.conf.API.Timeout + 30*time.Second,
			}
			return runServer(cmd.Context(), srv, a.logger)
		},
	}
	cmd.Flags().StringVar(&address, "address", "", "listen address override (e.g. :8080)")
	cmd.Flags().StringVar(&maxUpload, "max-upload-size", "", "upload size limit override (e.g. 512K, 1M)")
	return cmd
}

// runServer serves until ctx is done and then shuts down gracefully.
func runServer(ctx context.Context, srv *http.Server, logger *zap.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting HTTP server",
			zap.String("op", "main.serve"),
			zap.String("address", srv.Addr),
		)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down HTTP server", zap.String("op", "main.serve"))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}
