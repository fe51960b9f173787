package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/TechnicallyShaun/secretary/internal/workspace"
)

const completeConfig = `dropbox_access_token: sl.token
dropbox_audio_path: /Voice
whisper_api_key: sk-whisper
openai_api_key: sk-openai
vault_path: %s
`

// isolate points HOME at a temp dir so PID and log files stay inside the test.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	return home
}

// setupWorkspace creates an initialized workspace and selects it through SECRETARY_ROOT.
func setupWorkspace(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	if _, err := workspace.Init(root); err != nil {
		t.Fatalf("failed to init workspace: %v", err)
	}
	t.Setenv(workspace.EnvRoot, root)
	return root
}

// writeConfig replaces the workspace config.yaml with content.
func writeConfig(t *testing.T, root, content string) {
	t.Helper()
	if err := os.WriteFile(workspace.ConfigPath(root), []byte(content), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
}

func makeVault(t *testing.T) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "vault")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("failed to create vault: %v", err)
	}
	return dir
}
