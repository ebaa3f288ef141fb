package cli

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/hextract/parking-net/internal/infra/logger"
	"github.com/hextract/parking-net/internal/twin"
	"github.com/hextract/parking-net/internal/usecase"
)

func twinCmd(opts *rootOpts) *cobra.Command {
	var workspace string
	var env string
	var addr string

	c := &cobra.Command{
		Use:   "twin",
		Short: "Serve an in-memory stand-in for the parking-net services",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ws, err := loadWorkspace(workspace)
			if err != nil {
				return err
			}
			defer setupLogging(ws.root, opts.debug)()

			cfg, err := usecase.ResolveConfig(ws.envs, ws.cfg, ws.environment(env))
			if err != nil {
				return err
			}

			tw := twin.New(
				twin.WithCredentialHeader(cfg.HTTP.CredentialHeader),
				twin.WithLogger(logger.L()),
			)
			admin := cfg.Actors.Admin
			tw.AddUser(admin.Login, admin.Email, admin.Password, "admin")

			ln, err := net.Listen("tcp", addr)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv := &http.Server{
				Handler:           tw.Handler(),
				ReadHeaderTimeout: 5 * time.Second,
			}
			go func() {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = srv.Shutdown(shutdownCtx)
			}()

			cmd.Printf("Service twin listening on http://%s (admin login %s)\n", ln.Addr(), admin.Login)
			logger.L().Info("twin.listening", "addr", ln.Addr().String())

			if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}

	c.Flags().StringVarP(&workspace, "workspace", "w", "", "Workspace root (optional; autodetected if omitted)")
	c.Flags().StringVarP(&env, "env", "e", "", "Environment used to resolve the admin actor")
	c.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "Listen address")
	return c
}
