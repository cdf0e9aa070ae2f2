package app

import (
	"errors"
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cincanproject/cincan-registry/internal/feed"
	"github.com/cincanproject/cincan-registry/internal/output"
	"github.com/cincanproject/cincan-registry/internal/watcher"
)

var (
	watchDaemon      bool
	watchDaemonChild bool
	watchPIDFile     string
	watchLogFile     string
	watchStop        bool

	watchCmd = &cobra.Command{
		Use:   "watch [FILE]",
		Short: "Re-import a feed whenever it changes",
		Long: `Import a YAML feed and keep watching it. Every write, create or rename of
the feed file triggers a new import after a short quiet period; each import
runs in a single transaction.

Watch modes:
  • Foreground (default): Run in current terminal with Ctrl+C to stop
  • Daemon: Run as background process writing to a log file
  • Stop: Stop a running daemon`,
		Example: `  # Run in foreground (Ctrl+C to stop)
  cincan-registry watch feed.yaml

  # Run as background daemon
  cincan-registry watch feed.yaml --daemon

  # Stop running daemon
  cincan-registry watch --stop

  # Use custom PID and log files
  cincan-registry watch feed.yaml --daemon --pid-file /tmp/watch.pid --log-file /tmp/watch.log`,
		Args: cobra.MaximumNArgs(1),
		RunE: runWatch,
	}
)

func init() {
	watchCmd.Flags().BoolVar(&watchDaemon, "daemon", false, "run as background daemon")
	watchCmd.Flags().BoolVar(&watchDaemonChild, "daemon-child", false, "internal flag for daemon child process")
	watchCmd.Flags().StringVar(&watchPIDFile, "pid-file", "", "PID file path (default: next to the database)")
	watchCmd.Flags().StringVar(&watchLogFile, "log-file", "", "log file path (default: next to the database)")
	watchCmd.Flags().BoolVar(&watchStop, "stop", false, "stop running daemon")

	// Hide the internal daemon-child flag from help
	_ = watchCmd.Flags().MarkHidden("daemon-child")

	RootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if watchPIDFile == "" {
		p, err := getDefaultPIDFile()
		if err != nil {
			return fmt.Errorf("failed to get default PID file path: %w", err)
		}
		watchPIDFile = p
	}
	if watchLogFile == "" {
		p, err := getDefaultLogFile()
		if err != nil {
			return fmt.Errorf("failed to get default log file path: %w", err)
		}
		watchLogFile = p
	}

	if watchStop {
		return stopWatchDaemon(cmd)
	}

	if len(args) != 1 {
		return fmt.Errorf("watch requires a feed file")
	}
	feedPath, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("failed to resolve feed path: %w", err)
	}

	if watchDaemon {
		return startWatchDaemon(cmd, feedPath)
	}

	st, err := openStore(true)
	if err != nil {
		return err
	}
	defer st.Close()

	w, err := watcher.New(st, feedPath, watcher.WithLogger(logger.Named("watcher")))
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	if watchDaemonChild {
		// stdout and stderr are redirected to the log file here
		return w.RunDaemon(cmd.Context(), watchPIDFile)
	}
	return runWatchForeground(cmd, w)
}

func stopWatchDaemon(cmd *cobra.Command) error {
	out := cmd.OutOrStdout()
	err := watcher.StopDaemon(watchPIDFile)
	if errors.Is(err, watcher.ErrDaemonNotRunning) {
		fmt.Fprintln(out, "Daemon is not running")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to stop daemon: %w", err)
	}
	fmt.Fprintln(out, "✓ Daemon stopped")
	return nil
}

func startWatchDaemon(cmd *cobra.Command, feedPath string) error {
	childArgs := []string{
		"watch", feedPath,
		"--daemon-child",
		"--pid-file", watchPIDFile,
		"--db", getDBPath(),
	}
	if configPath != "" {
		childArgs = append(childArgs, "--config", configPath)
	}
	if cfg != nil {
		childArgs = append(childArgs, "--log-level", cfg.LogLevel)
	}

	spinner := output.NewSpinner("Starting daemon...")
	spinner.SetWriter(cmd.ErrOrStderr())
	spinner.Start()
	if err := watcher.StartDaemon(watchPIDFile, watchLogFile, childArgs...); err != nil {
		spinner.Stop()
		return fmt.Errorf("failed to start daemon: %w", err)
	}
	spinner.StopWithMessage("✓ Daemon started")

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "\nWatching %s\n", feedPath)
	fmt.Fprintf(out, "  PID file: %s\n", watchPIDFile)
	fmt.Fprintf(out, "  Log file: %s\n", watchLogFile)
	fmt.Fprintf(out, "\nTo stop: cincan-registry watch --stop\n")
	return nil
}

func runWatchForeground(cmd *cobra.Command, w *watcher.Watcher) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Watching %s (press Ctrl+C to stop)...\n", w.Path())

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	if err := w.Start(ctx); err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	if _, res, err := w.Stats(); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Initial import failed: %v\n", err)
	} else {
		printImport(cmd, res)
	}

	<-ctx.Done()
	fmt.Fprintln(out, "\nShutting down...")

	if err := w.Stop(); err != nil {
		return fmt.Errorf("failed to stop watcher: %w", err)
	}
	n, _, _ := w.Stats()
	fmt.Fprintf(out, "Watcher stopped after %d imports\n", n)
	return nil
}

func printImport(cmd *cobra.Command, res feed.Result) {
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Imported %d tools, %d versions, %d checkers\n",
		res.Tools, res.Versions, res.Metadata)
}
