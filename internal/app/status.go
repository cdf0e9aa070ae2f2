package app

import (
	"errors"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/cincanproject/cincan-registry/internal/output"
	"github.com/cincanproject/cincan-registry/internal/store"
	"github.com/cincanproject/cincan-registry/internal/watcher"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show cache location, size, row counts and watch daemon status",
	Example: `  # Check status
  cincan-registry status`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	RootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	path := getDBPath()

	st, err := openStore(false)
	if errors.Is(err, store.ErrNotInitialized) {
		fmt.Fprintf(out, "No cache at %s. Run 'cincan-registry import FILE' to get started.\n", path)
		return nil
	}
	if err != nil {
		return err
	}
	defer st.Close()

	counts, err := st.Count(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Fprint(out, output.RenderCounts(path, counts))
	fmt.Fprintf(out, "Size:     %s\n", humanize.Bytes(uint64(fileSize(path))))

	pidFile := watchPIDFile
	if pidFile == "" {
		if pidFile, err = getDefaultPIDFile(); err != nil {
			return err
		}
	}
	if running, pid := daemonStatus(pidFile); running {
		fmt.Fprintf(out, "Watcher:  running (PID %d)\n", pid)
	} else {
		fmt.Fprintln(out, "Watcher:  not running")
	}
	return nil
}

// daemonStatus reports whether a watch daemon owns pidFile and its pid.
func daemonStatus(pidFile string) (bool, int) {
	pf := watcher.PIDFile(pidFile)
	running, err := pf.Running()
	if err != nil || !running {
		return false, 0
	}
	pid, _ := pf.Read()
	return true, pid
}

// fileSize returns the size of path or 0.
func fileSize(path string) int64 {
	fi, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return fi.Size()
}
