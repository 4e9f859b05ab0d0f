package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/rival-intel/internal/api"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the analysis HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initAnalysis(ctx, true)
		if err != nil {
			return err
		}
		defer env.Close()

		server := api.NewServer(env.Analyzer, env.Store, env.Registry,
			api.WithCORSOrigins(cfg.Server.CORSAllowedOrigins))

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		// WriteTimeout must outlast the slowest analysis: two generation
		// attempts plus the fetch window, with slack.
		srv := &http.Server{
			Addr:         fmt.Sprintf(":%d", port),
			Handler:      server.Router(),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 300 * time.Second,
		}

		// Graceful shutdown. Analyses run for minutes, so in-flight requests
		// get a bounded drain window instead of an immediate cut.
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			sdCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			if err := srv.Shutdown(sdCtx); err != nil {
				zap.L().Warn("server shutdown", zap.Error(err))
			}
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
