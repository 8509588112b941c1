package cli

import (
	stdcontext "context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	apihttp "github.com/motionview/mvbridge/internal/api/http"
	"github.com/motionview/mvbridge/internal/cliutil"
	"github.com/motionview/mvbridge/internal/hub"
	"github.com/motionview/mvbridge/internal/supervisor"
)

const shutdownStopTimeout = 10 * time.Second

func newServeCmd(ctx *context) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Supervise the terminal process and serve the control API and stream",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.loadConfig()
			if err != nil {
				return err
			}
			if listen != "" {
				cfg.Listen = listen
			}

			logs := cliutil.NewLogWriter(cmd.ErrOrStderr(), cmd.ErrOrStderr())
			broadcast := hub.New()

			sup, err := supervisor.New(supervisor.Config{
				Command: cfg.Process.Command,
				Workdir: cfg.Process.Workdir,
			}, broadcast, func(evt supervisor.Event) {
				logs.Write(cliutil.NewSupervisorRecord(evt))
			})
			if err != nil {
				return err
			}

			server, err := apihttp.NewServer(apihttp.Config{
				Addr:       cfg.Listen,
				Controller: newControlAPI(sup, broadcast),
				Hub:        broadcast,
				IndexFile:  cfg.IndexPath(),
				ImageFile:  cfg.ImagePath(),
				AssetsDir:  cfg.AssetsDir(),
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "mvbridge listening on %s\n", server.Addr())
			runErr := server.Run(cmd.Context())

			// The supervised process must not outlive the bridge.
			stopCtx, cancel := stdcontext.WithTimeout(stdcontext.Background(), shutdownStopTimeout)
			defer cancel()
			sup.Stop(stopCtx)

			return runErr
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "address for the bridge HTTP server (overrides config)")
	return cmd
}
