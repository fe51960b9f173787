package cmd

import (
	"bytes"
	"os"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/TechnicallyShaun/secretary/internal/secretary/pidfile"
)

func executeStop(t *testing.T) string {
	t.Helper()
	var buf bytes.Buffer
	cmd := NewStopCmd()
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	return buf.String()
}

func TestStopCmd_NoDaemonRunning(t *testing.T) {
	isolate(t)

	output := executeStop(t)
	if !strings.Contains(output, "not running") {
		t.Errorf("expected output to say 'not running', got: %s", output)
	}
}

func TestStopCmd_RemovesStalePIDFile(t *testing.T) {
	isolate(t)
	if err := pidfile.Write(4194300); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if running, _, _ := pidfile.IsRunning(); running {
		t.Skip("stale PID is unexpectedly running")
	}

	output := executeStop(t)
	if !strings.Contains(output, "removed stale PID file") {
		t.Errorf("expected stale message, got: %s", output)
	}
	if _, err := pidfile.Read(); err != pidfile.ErrNoPIDFile {
		t.Errorf("expected PID file to be removed, got: %v", err)
	}
}

func TestStopCmd_TerminatesProcess(t *testing.T) {
	isolate(t)

	child := exec.Command("sleep", "30")
	if err := child.Start(); err != nil {
		t.Skipf("cannot start sleep: %v", err)
	}
	// Reap the child so it does not linger as a zombie once signalled.
	go child.Wait()

	if err := pidfile.Write(child.Process.Pid); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	var buf bytes.Buffer
	cmd := NewStopCmd()
	cmd.SetOut(&buf)
	if err := runStop(cmd, 5*time.Second); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if !strings.Contains(buf.String(), "Secretary stopped") {
		t.Errorf("expected stopped message, got: %s", buf.String())
	}
	if _, err := os.Stat(mustPIDPath(t)); !os.IsNotExist(err) {
		t.Error("expected PID file to be removed")
	}
}

func mustPIDPath(t *testing.T) string {
	t.Helper()
	path, err := pidfile.Path()
	if err != nil {
		t.Fatalf("Path failed: %v", err)
	}
	return path
}
