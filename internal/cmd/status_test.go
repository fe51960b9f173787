package cmd

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/TechnicallyShaun/secretary/internal/ledger"
	"github.com/TechnicallyShaun/secretary/internal/secretary"
	"github.com/TechnicallyShaun/secretary/internal/secretary/pidfile"
	"github.com/TechnicallyShaun/secretary/internal/secretary/status"
)

func executeStatus(t *testing.T) string {
	t.Helper()
	var buf bytes.Buffer
	cmd := NewStatusCmd()
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	return buf.String()
}

func TestStatusCmd_NoDaemonRunning(t *testing.T) {
	isolate(t)
	t.Setenv("SECRETARY_ROOT", t.TempDir())

	output := executeStatus(t)
	if !strings.Contains(output, "not running") {
		t.Errorf("expected output to say 'not running', got: %s", output)
	}
	if !strings.Contains(output, "Today: 0 notes saved, 0 cycles, 0 failed cycles, 0 errors") {
		t.Errorf("expected empty stats, got: %s", output)
	}
}

func TestStatusCmd_RunningWithLogStats(t *testing.T) {
	isolate(t)
	t.Setenv("SECRETARY_ROOT", t.TempDir())

	if err := pidfile.Write(os.Getpid()); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	logPath := status.TodayLogPath()
	os.MkdirAll(filepath.Dir(logPath), 0755)
	logContent := `2026-01-22T10:00:06Z INFO  [pipeline] note saved source=memo.m4a output=/vault/Groceries.md
2026-01-22T10:00:06Z INFO  [pipeline] cycle complete new=1 saved=1 elapsed=2s
2026-01-22T10:01:06Z ERROR [pipeline] cycle failed error="list: expired_access_token"
`
	if err := os.WriteFile(logPath, []byte(logContent), 0644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	output := executeStatus(t)
	if !strings.Contains(output, fmt.Sprintf("running (PID %d)", os.Getpid())) {
		t.Errorf("expected running state, got: %s", output)
	}
	if !strings.Contains(output, "Today: 1 notes saved, 1 cycles, 1 failed cycles, 1 errors") {
		t.Errorf("expected stats, got: %s", output)
	}
	if !strings.Contains(output, "memo.m4a -> Groceries.md") {
		t.Errorf("expected last note, got: %s", output)
	}
	if !strings.Contains(output, "list: expired_access_token") {
		t.Errorf("expected last failure, got: %s", output)
	}
}

func TestStatusCmd_ShowsLedgerHistory(t *testing.T) {
	isolate(t)
	root := setupWorkspace(t)
	ledgerPath := filepath.Join(t.TempDir(), "ledger.sqlite")
	writeConfig(t, root, fmt.Sprintf(completeConfig, "/vault")+"ledger_path: "+ledgerPath+"\n")

	l, err := ledger.Open(ledgerPath)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	note := secretary.NewAudioNote(secretary.RemoteFile{Name: "memo.m4a", PathLower: "/voice/memo.m4a", ServerModified: "2024-01-01T00:00:00Z"})
	note.NotePath = "/vault/Groceries.md"
	if err := l.Record(context.Background(), note); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	l.Close()

	output := executeStatus(t)
	if !strings.Contains(output, "Recently processed:") {
		t.Errorf("expected ledger history, got: %s", output)
	}
	if !strings.Contains(output, "memo.m4a -> Groceries.md") {
		t.Errorf("expected ledger entry, got: %s", output)
	}
}

func TestStatusCmd_DefaultLedgerPath(t *testing.T) {
	home := isolate(t)
	root := setupWorkspace(t)
	writeConfig(t, root, fmt.Sprintf(completeConfig, "/vault")+"ledger_path: default\n")

	l, err := ledger.Open(filepath.Join(home, ".secretary", "ledger.sqlite"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	note := secretary.NewAudioNote(secretary.RemoteFile{Name: "walk.m4a", PathLower: "/voice/walk.m4a", ServerModified: "2024-01-01T00:00:00Z"})
	note.NotePath = "/vault/Walk.md"
	if err := l.Record(context.Background(), note); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	l.Close()

	output := executeStatus(t)
	if !strings.Contains(output, "walk.m4a -> Walk.md") {
		t.Errorf("expected entry from the default ledger, got: %s", output)
	}
}
