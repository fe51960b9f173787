package secretary

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TechnicallyShaun/secretary/internal/workspace"
)

func validConfig() *Config {
	return &Config{
		DropboxAccessToken: "sl.token",
		DropboxAudioPath:   "/Voice",
		WhisperAPIKey:      "sk-whisper",
		OpenAIAPIKey:       "sk-openai",
		VaultPath:          "/vault",
	}
}

func newWorkspace(t *testing.T, config string) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, workspace.MarkerDir), 0755))
	require.NoError(t, os.WriteFile(workspace.ConfigPath(root), []byte(config), 0600))
	return root
}

func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestConfig_ValidateMissing(t *testing.T) {
	cfg := validConfig()
	cfg.WhisperAPIKey = ""
	cfg.VaultPath = "  "

	err := cfg.Validate()
	var missing *MissingFieldsError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, []string{"whisper_api_key", "vault_path"}, missing.Keys)
}

func TestConfig_ValidateCollisionPolicy(t *testing.T) {
	cfg := validConfig()
	cfg.CollisionPolicy = "rename"
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidCollisionPolicy)

	cfg.CollisionPolicy = "suffix"
	assert.NoError(t, cfg.Validate())
}

func TestConfig_ValidateNegativeInterval(t *testing.T) {
	cfg := validConfig()
	cfg.PollIntervalSeconds = -1
	assert.Error(t, cfg.Validate())
}

func TestConfig_ApplyDefaults(t *testing.T) {
	cfg := validConfig()
	cfg.ApplyDefaults()

	assert.Equal(t, DefaultModel, cfg.Model)
	assert.Equal(t, DefaultTranscriptionModel, cfg.TranscriptionModel)
	assert.Equal(t, DefaultPollIntervalSeconds, cfg.PollIntervalSeconds)
	assert.Equal(t, DefaultNoteExtension, cfg.NoteExtension)
	assert.Equal(t, DefaultCollisionPolicy, cfg.CollisionPolicy)
	assert.Equal(t, DefaultRetryCount, cfg.RetryCount)
	assert.Equal(t, "1m0s", cfg.PollInterval().String())
}

func TestConfig_ApplyDefaultsKeepsValues(t *testing.T) {
	cfg := validConfig()
	cfg.Model = "gpt-4o-mini"
	cfg.PollIntervalSeconds = 5
	cfg.ApplyDefaults()

	assert.Equal(t, "gpt-4o-mini", cfg.Model)
	assert.Equal(t, 5, cfg.PollIntervalSeconds)
}

func TestConfig_Missing(t *testing.T) {
	cfg := &Config{VaultPath: "/vault"}
	missing := cfg.Missing()
	require.Len(t, missing, 4)
	assert.Equal(t, "dropbox_access_token", missing[0].Key)
	assert.True(t, missing[0].Secret)
	assert.False(t, missing[1].Secret)

	missing[0].Set(cfg, "tok")
	assert.Equal(t, "tok", cfg.DropboxAccessToken)
	assert.Len(t, cfg.Missing(), 3)
}

func TestLoadFromWorkspace(t *testing.T) {
	root := newWorkspace(t, `
dropbox_access_token: tok
dropbox_audio_path: /Voice
whisper_api_key: w
openai_api_key: o
vault_path: /vault
model: gpt-4o-mini
poll_interval_seconds: 30
`)

	cfg, err := LoadFromWorkspace(root)
	require.NoError(t, err)
	assert.Equal(t, "tok", cfg.DropboxAccessToken)
	assert.Equal(t, "gpt-4o-mini", cfg.Model)
	assert.Equal(t, 30, cfg.PollIntervalSeconds)
	assert.Equal(t, filepath.Join(root, workspace.MarkerDir, workspace.PromptFile), cfg.PromptPath)
}

func TestLoadFromWorkspace_RelativePromptPath(t *testing.T) {
	root := newWorkspace(t, "prompt_path: prompts/daily.md\n")

	cfg, err := LoadFromWorkspace(root)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, workspace.MarkerDir, "prompts", "daily.md"), cfg.PromptPath)
}

func TestLoadFromWorkspace_ExpandsTilde(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	root := newWorkspace(t, "vault_path: ~/Notes\narchive_dir: ~/Audio\n")
	cfg, err := LoadFromWorkspace(root)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "Notes"), cfg.VaultPath)
	assert.Equal(t, filepath.Join(home, "Audio"), cfg.ArchiveDir)
}

func TestReadConfig_KeepsRawPaths(t *testing.T) {
	root := newWorkspace(t, "vault_path: ~/Notes\n")
	cfg, err := ReadConfig(root)
	require.NoError(t, err)
	assert.Equal(t, "~/Notes", cfg.VaultPath)
	assert.Empty(t, cfg.PromptPath)
}

func TestLoadFromWorkspace_InvalidYAML(t *testing.T) {
	root := newWorkspace(t, "vault_path: [unclosed\n")
	_, err := LoadFromWorkspace(root)
	assert.Error(t, err)
}

func TestLoadFromWorkspace_MissingFile(t *testing.T) {
	_, err := LoadFromWorkspace(t.TempDir())
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestConfig_SaveToWorkspace(t *testing.T) {
	root := newWorkspace(t, "{}\n")
	cfg := validConfig()
	require.NoError(t, cfg.SaveToWorkspace(root))

	info, err := os.Stat(workspace.ConfigPath(root))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := LoadFromWorkspace(root)
	require.NoError(t, err)
	assert.Equal(t, cfg.OpenAIAPIKey, loaded.OpenAIAPIKey)
	assert.NoError(t, loaded.Validate())
}
