package cli

import (
	stdcontext "context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/motionview/mvbridge/internal/config"
)

func NewRootCmd() *cobra.Command {
	root, _ := newRootCommand()
	return root
}

func newRootCommand() (*cobra.Command, *context) {
	var configFile string

	root := &cobra.Command{
		Use:   "mvbridge",
		Short: "Local bridge between a terminal-producing process and live viewers",
	}

	root.PersistentFlags().
		StringVarP(&configFile, "file", "f", "", "Path to bridge configuration (defaults apply when omitted)")

	ctx := &context{configFile: &configFile}
	root.AddCommand(newServeCmd(ctx))
	root.AddCommand(newAttachCmd(ctx))
	root.AddCommand(newStatusCmd(ctx))

	root.SilenceUsage = true
	root.SilenceErrors = true

	return root, ctx
}

// Execute runs the CLI entrypoint.
func Execute() {
	ctx, stop := signal.NotifyContext(stdcontext.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := NewRootCmd()
	root.SetContext(ctx)

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type context struct {
	configFile *string
}

func (c *context) loadConfig() (*config.Config, error) {
	if *c.configFile == "" {
		return config.Default("")
	}
	return config.Load(*c.configFile)
}
