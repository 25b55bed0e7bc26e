package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"sfproperty/internal/logging"
	"sfproperty/internal/server"
)

func newServeCmd(a *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				a.cfg.ListenAddr = addr
			}
			return a.serve(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :5000)")
	return cmd
}

// serve runs the API until ctx is cancelled, then drains in-flight requests.
func (a *app) serve(ctx context.Context) error {
	log := logging.FromContext(ctx)

	st, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer func() {
		log.Info().Msg("closing store")
		st.Close()
	}()

	client := a.client()
	listings := a.listings()
	handler := server.New(server.Deps{
		Search:      a.aggregator(ctx),
		Listings:    listings,
		Suggest:     client,
		Store:       st,
		CORSOrigins: a.cfg.CORSOrigins,
		Logger:      log,
	})

	srv := &http.Server{
		Addr:              a.cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("store", a.cfg.Store.Driver).Msg("web service listening")
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		log.Info().Msg("received shutdown signal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}
