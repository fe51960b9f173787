package cmd

import (
	"errors"
	"fmt"
	"os"
	"syscall"
	"time"

	"github.com/TechnicallyShaun/secretary/internal/secretary/pidfile"
	"github.com/spf13/cobra"
)

// stopTimeout is the maximum time to wait for graceful shutdown before sending SIGKILL
const stopTimeout = 10 * time.Second

// NewStopCmd creates the stop command
func NewStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the running secretary",
		Long: `Stop the secretary started with 'secretary run'.

Reads the PID from ~/.secretary/secretary.pid and sends SIGTERM for graceful shutdown.
If the process doesn't exit within 10 seconds, SIGKILL is sent to force termination.
The PID file is removed after the process exits.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStop(cmd, stopTimeout)
		},
	}
}

func runStop(cmd *cobra.Command, timeout time.Duration) error {
	out := cmd.OutOrStdout()

	running, pid, err := pidfile.IsRunning()
	if err != nil && !errors.Is(err, pidfile.ErrInvalidPID) {
		return fmt.Errorf("read PID file: %w", err)
	}
	if err == nil && pid == 0 {
		fmt.Fprintln(out, "Secretary is not running")
		return nil
	}
	if !running {
		if err := pidfile.Remove(); err != nil {
			fmt.Fprintf(out, "Warning: failed to remove stale PID file: %v\n", err)
		}
		fmt.Fprintln(out, "Secretary is not running (removed stale PID file)")
		return nil
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("find process: %w", err)
	}

	fmt.Fprintf(out, "Stopping secretary (PID %d)...\n", pid)

	if err := process.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("send SIGTERM: %w", err)
	}

	if !waitForExit(pid, timeout) {
		fmt.Fprintln(out, "Process did not exit gracefully, sending SIGKILL...")
		if err := process.Signal(syscall.SIGKILL); err != nil {
			// Process may have exited between check and kill
			if !errors.Is(err, os.ErrProcessDone) {
				return fmt.Errorf("send SIGKILL: %w", err)
			}
		}
		waitForExit(pid, 2*time.Second)
	}

	if err := pidfile.Remove(); err != nil {
		fmt.Fprintf(out, "Warning: failed to remove PID file: %v\n", err)
	}

	fmt.Fprintln(out, "Secretary stopped")
	return nil
}

// waitForExit polls until the process exits or timeout is reached
func waitForExit(pid int, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)

	for time.Now().Before(deadline) {
		process, err := os.FindProcess(pid)
		if err != nil {
			return true
		}
		if err := process.Signal(syscall.Signal(0)); err != nil {
			return true
		}
		time.Sleep(100 * time.Millisecond)
	}

	return false
}
