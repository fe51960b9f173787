// Package pidfile tracks the running secretary daemon.
package pidfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
)

var (
	ErrNoPIDFile      = errors.New("no PID file found")
	ErrInvalidPID     = errors.New("invalid PID in file")
	ErrAlreadyRunning = errors.New("secretary is already running")
)

const (
	pidFileName = "secretary.pid"
	dirPerm     = 0755
	filePerm    = 0644
)

// Path returns the path to the PID file (~/.secretary/secretary.pid)
func Path() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".secretary", pidFileName), nil
}

// Write records pid, creating the parent directory if needed.
func Write(pid int) error {
	path, err := Path()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), dirPerm); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	content := strconv.Itoa(pid) + "\n"
	if err := os.WriteFile(path, []byte(content), filePerm); err != nil {
		return fmt.Errorf("write PID file: %w", err)
	}
	return nil
}

// Acquire writes pid unless another live process already holds the file.
// A stale file left by a dead process is replaced.
func Acquire(pid int) error {
	running, other, err := IsRunning()
	if err != nil && !errors.Is(err, ErrInvalidPID) {
		return err
	}
	if running && other != pid {
		return fmt.Errorf("%w (PID %d)", ErrAlreadyRunning, other)
	}
	return Write(pid)
}

// Read returns the PID stored in the file.
// Returns ErrNoPIDFile if the file doesn't exist and ErrInvalidPID if it holds garbage.
func Read() (int, error) {
	path, err := Path()
	if err != nil {
		return 0, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, ErrNoPIDFile
		}
		return 0, fmt.Errorf("read PID file: %w", err)
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, ErrInvalidPID
	}
	return pid, nil
}

// Remove deletes the PID file. A missing file is not an error.
func Remove() error {
	path, err := Path()
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove PID file: %w", err)
	}
	return nil
}

// IsRunning reports whether the process named in the PID file is alive.
// With no PID file it returns (false, 0, nil); with a stale one (false, pid, nil).
func IsRunning() (bool, int, error) {
	pid, err := Read()
	if err != nil {
		if errors.Is(err, ErrNoPIDFile) {
			return false, 0, nil
		}
		return false, 0, err
	}

	// Signal 0 probes for existence without delivering anything.
	switch err := unix.Kill(pid, 0); {
	case err == nil:
		return true, pid, nil
	case errors.Is(err, unix.ESRCH):
		return false, pid, nil
	case errors.Is(err, unix.EPERM):
		return true, pid, nil
	default:
		return false, pid, fmt.Errorf("check process: %w", err)
	}
}

// CleanStale removes the PID file when its process is gone.
// Returns true if a stale file was removed.
func CleanStale() (bool, error) {
	running, pid, err := IsRunning()
	if err != nil {
		return false, err
	}
	if running || pid == 0 {
		return false, nil
	}
	if err := Remove(); err != nil {
		return false, err
	}
	return true, nil
}
