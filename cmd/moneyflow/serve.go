package main

import (
	"context"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dgnsrekt/moneyflow/internal/data"
	"github.com/dgnsrekt/moneyflow/internal/nse"
	"github.com/dgnsrekt/moneyflow/internal/server"
	"github.com/dgnsrekt/moneyflow/internal/ws"
)

func serveCmd() *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve money-flow reports over HTTP",
		Long: `Serve reports computed from the archived price lists.

Endpoints:
  GET  /healthz
  GET  /v1/dates
  GET  /v1/lots
  GET  /v1/moneyflow/{symbol}/{date}          JSON report (date may be "latest")
  GET  /v1/moneyflow/{symbol}/{date}.xlsx     spreadsheet download
  GET  /v1/moneyflow/{symbol}/{date}.csv      CSV download
  GET  /v1/moneyflow/{symbol}/{date}/summary  call/put aggregates
  POST /v1/cache/reset
  GET  /v1/stream                             websocket feed of freshly computed summaries`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if port != "" {
				cfg.Server.Port = port
			}

			logger.Info("configuration loaded",
				zap.String("port", cfg.Server.Port),
				zap.String("archive", cfg.Archive.Directory),
				zap.Duration("cacheTTL", cfg.Server.CacheTTL()),
				zap.Bool("zstd", cfg.Server.Zstd),
			)

			client := nse.NewClient(cfg.NSEOptions(), logger)
			generator, lots, loader := newGenerator(cfg, client, logger)
			cache := data.NewReportCache(cfg.Server.CacheTTL())

			hub := ws.NewHub(logger)
			go hub.Run(ctx)

			srv := server.NewServer(loader, generator, lots, cache, hub, logger)
			router := server.NewRouter(srv, server.RouterOptions{Zstd: cfg.Server.Zstd}, logger)

			httpServer := &http.Server{
				Addr:         cfg.Server.Addr(),
				Handler:      router,
				ReadTimeout:  30 * time.Second,
				WriteTimeout: 60 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				logger.Info("starting server", zap.String("addr", httpServer.Addr))
				if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				if err != nil {
					logger.Error("server error", zap.Error(err))
					return err
				}
				return nil
			case <-ctx.Done():
			}

			logger.Info("shutting down server...")

			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer shutdownCancel()

			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				logger.Error("server shutdown error", zap.Error(err))
				return err
			}

			logger.Info("server stopped")
			return nil
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "", "override server.port from config")

	return cmd
}
