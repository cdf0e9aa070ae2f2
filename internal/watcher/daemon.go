package watcher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
)

// ErrDaemonNotRunning is returned by StopDaemon when no live process owns
// the PID file.
var ErrDaemonNotRunning = errors.New("watch daemon not running")

// PIDFile records the process id of a detached watcher.
type PIDFile string

// Read returns the recorded pid. A missing file yields 0 and no error.
func (p PIDFile) Read() (int, error) {
	data, err := os.ReadFile(string(p))
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read PID file: %w", err)
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("invalid PID in %s: %q", p, strings.TrimSpace(string(data)))
	}
	return pid, nil
}

// Write records pid.
func (p PIDFile) Write(pid int) error {
	if err := os.WriteFile(string(p), []byte(strconv.Itoa(pid)+"\n"), 0o644); err != nil {
		return fmt.Errorf("failed to write PID file: %w", err)
	}
	return nil
}

// Remove deletes the file if present.
func (p PIDFile) Remove() error {
	if err := os.Remove(string(p)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove PID file: %w", err)
	}
	return nil
}

// Running reports whether the recorded process is alive. Stale or unreadable
// PID files are removed.
func (p PIDFile) Running() (bool, error) {
	pid, err := p.Read()
	if err != nil {
		_ = p.Remove()
		return false, nil
	}
	if pid == 0 {
		return false, nil
	}
	if !alive(pid) {
		_ = p.Remove()
		return false, nil
	}
	return true, nil
}

func alive(pid int) bool {
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return process.Signal(syscall.Signal(0)) == nil
}

// StartDaemon re-executes the current binary with args in a new session,
// appending its output to logFile and recording its pid in pidFile.
func StartDaemon(pidFile, logFile string, args ...string) error {
	pf := PIDFile(pidFile)
	running, err := pf.Running()
	if err != nil {
		return fmt.Errorf("failed to check daemon status: %w", err)
	}
	if running {
		return fmt.Errorf("daemon already running (PID file: %s)", pidFile)
	}

	logF, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer logF.Close()

	executable, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to get executable path: %w", err)
	}

	cmd := exec.Command(executable, args...)
	cmd.Stdout = logF
	cmd.Stderr = logF
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start daemon process: %w", err)
	}
	if err := pf.Write(cmd.Process.Pid); err != nil {
		_ = cmd.Process.Kill()
		return err
	}
	if err := cmd.Process.Release(); err != nil {
		return fmt.Errorf("failed to release process: %w", err)
	}
	return nil
}

// RunDaemon runs w until SIGTERM, SIGINT or ctx cancellation, then stops it
// and removes pidFile.
func (w *Watcher) RunDaemon(ctx context.Context, pidFile string) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	if err := w.Start(ctx); err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}

	<-ctx.Done()
	w.log.Info("shutting down watcher")

	if err := w.Stop(); err != nil {
		return fmt.Errorf("failed to stop watcher: %w", err)
	}
	if pidFile == "" {
		return nil
	}
	return PIDFile(pidFile).Remove()
}

// StopDaemon sends SIGTERM to the process recorded in pidFile.
func StopDaemon(pidFile string) error {
	pf := PIDFile(pidFile)
	pid, err := pf.Read()
	if err != nil {
		return err
	}
	if pid == 0 || !alive(pid) {
		_ = pf.Remove()
		return ErrDaemonNotRunning
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("failed to find process %d: %w", pid, err)
	}
	if err := process.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("failed to send SIGTERM to process %d: %w", pid, err)
	}
	return nil
}
