package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bambumate/bambumate/internal/adapters/inbound/httpapi"
	"github.com/bambumate/bambumate/internal/domain"
	"github.com/spf13/cobra"
)

const tokenEnv = "BAMBUMATE_TOKEN"

func newServeCmd() *cobra.Command {
	var (
		addr      string
		token     string
		dirs      []string
		rulesPath string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the analysis API over HTTP",
		Long:  "Start an HTTP server exposing defect evaluation, profile resolution and analysis history. Set " + tokenEnv + " or --token to require a bearer token.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := loadWorkspace(cmd)
			if err != nil {
				return err
			}
			store, err := ws.openHistory()
			if err != nil {
				return err
			}
			defer store.Close()

			resolver, analyzer, err := ws.services(serviceOptions{dirs: dirs, rulesPath: rulesPath, history: store})
			if err != nil {
				return err
			}

			if addr == "" {
				addr = ws.cfg.EffectiveHTTPAddr()
			}
			if token == "" {
				token = os.Getenv(tokenEnv)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			srv := &http.Server{
				Addr: addr,
				Handler: httpapi.NewHandler(httpapi.Deps{
					Analyzer: analyzer,
					Resolver: resolver,
					Token:    token,
					Logger:   ws.logger,
				}),
				ReadHeaderTimeout: 10 * time.Second,
				BaseContext: func(_ net.Listener) context.Context {
					return ctx
				},
			}

			errCh := make(chan error, 1)
			go func() {
				ws.logger.Info("http server listening", "addr", addr, "auth", token != "")
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case <-ctx.Done():
				ws.logger.Info("shutting down")
			case err := <-errCh:
				if err != nil {
					return fmt.Errorf("server error: %w", err)
				}
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (defaults to http_addr or "+domain.DefaultHTTPAddr+")")
	cmd.Flags().StringVar(&token, "token", "", "Bearer token required by the API")
	cmd.Flags().StringSliceVar(&dirs, "dir", nil, "Extra profile directory (repeatable)")
	cmd.Flags().StringVar(&rulesPath, "rules", "", "Rules TOML file")

	return cmd
}
