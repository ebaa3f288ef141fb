// Package cli wires the parknet-e2e command tree.
package cli

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hextract/parking-net/internal/buildinfo"
	"github.com/hextract/parking-net/internal/infra/logger"
)

// Execute runs the command tree and exits 1 on any error.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	cmd := newRootCmd(os.Stdout)
	err := cmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

type rootOpts struct {
	debug bool
	out   io.Writer
}

func newRootCmd(out io.Writer) *cobra.Command {
	opts := &rootOpts{out: out}

	cmd := &cobra.Command{
		Use:           "parknet-e2e",
		Short:         "End-to-end test harness for the parking-net services",
		Version:       buildinfo.String(),
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	cmd.SetOut(out)
	cmd.SetVersionTemplate("{{.Version}}\n")

	cmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "enable verbose logging to .parknet/logs/parknet-e2e.log")

	cmd.AddCommand(
		runCmd(opts),
		probeCmd(opts),
		stepsCmd(opts),
		validateCmd(opts),
		initCmd(opts),
		envsCmd(opts),
		twinCmd(opts),
		versionCmd(opts),
	)
	return cmd
}

// setupLogging installs the diagnostic log under root, or the working
// directory when there is no workspace. A failure leaves logging discarded.
func setupLogging(root string, debug bool) func() {
	if root == "" {
		if wd, err := os.Getwd(); err == nil {
			root = wd
		}
	}
	cleanup, err := logger.Setup(logger.Config{Root: root, Debug: debug})
	if err != nil || cleanup == nil {
		return func() {}
	}
	return func() { _ = cleanup() }
}

func versionCmd(opts *rootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Println(buildinfo.String())
		},
	}
}
