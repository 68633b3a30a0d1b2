package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const defaultAddr = "http://localhost:2000"

type globalOptions struct {
	Addr    string
	Timeout time.Duration
	Verbose bool
}

func newRootCommand() *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:   "stopwatchctl",
		Short: "Control and watch the stopwatch backend",
		Long: `
stopwatchctl talks to a running stopwatch backend. It starts, pauses and resets
the stopwatch, and can follow the live display.

EXIT STATUS
===========

Exit status is 0 if the command was successful, and non-zero if there was any error.
`,
		SilenceErrors:     true,
		SilenceUsage:      true,
		DisableAutoGenTag: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			if opts.Verbose {
				logrus.SetLevel(logrus.DebugLevel)
			}
			opts.Addr = strings.TrimRight(strings.TrimSpace(opts.Addr), "/")
			if opts.Addr == "" {
				return fmt.Errorf("--addr must not be empty")
			}
			return nil
		},
	}
	cmd.CompletionOptions.DisableDefaultCmd = true

	addr := defaultAddr
	if env := strings.TrimSpace(os.Getenv("STOPWATCH_ADDR")); env != "" {
		addr = env
	}
	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.Addr, "addr", addr, "backend base `URL` (env STOPWATCH_ADDR)")
	flags.DurationVar(&opts.Timeout, "timeout", 10*time.Second, "HTTP request timeout")
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "enable debug logging")

	cmd.AddCommand(
		newStatusCommand(opts),
		newActionCommand(opts, "start", "Start or resume the stopwatch"),
		newActionCommand(opts, "pause", "Pause the stopwatch"),
		newActionCommand(opts, "toggle", "Start when paused, pause when running"),
		newActionCommand(opts, "reset", "Reset the stopwatch to 00:00:00"),
		newWatchCommand(opts),
	)
	return cmd
}

func newStatusCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:               "status",
		Short:             "Print the current stopwatch display",
		Args:              cobra.NoArgs,
		DisableAutoGenTag: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sw, err := newClient(opts).Get(cmd.Context())
			if err != nil {
				return err
			}
			printStopwatch(cmd.OutOrStdout(), sw)
			return nil
		},
	}
}

func newActionCommand(opts *globalOptions, action, short string) *cobra.Command {
	return &cobra.Command{
		Use:               action,
		Short:             short,
		Args:              cobra.NoArgs,
		DisableAutoGenTag: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sw, err := newClient(opts).Do(cmd.Context(), action)
			if err != nil {
				return err
			}
			printStopwatch(cmd.OutOrStdout(), sw)
			return nil
		},
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		stop()
		logrus.WithError(err).Error("stopwatchctl failed")
		os.Exit(1)
	}
}
