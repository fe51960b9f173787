package secretary

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/TechnicallyShaun/secretary/internal/workspace"
	"gopkg.in/yaml.v3"
)

// Default values for optional configuration fields
const (
	DefaultModel               = "gpt-4o"
	DefaultTranscriptionModel  = "whisper-1"
	DefaultPollIntervalSeconds = 60
	DefaultNoteExtension       = ".md"
	DefaultCollisionPolicy     = "overwrite"
	DefaultRetryCount          = 3
)

// Config is the contents of .secretary/config.yaml.
type Config struct {
	DropboxAccessToken  string `yaml:"dropbox_access_token"`
	DropboxAudioPath    string `yaml:"dropbox_audio_path"`
	WhisperAPIKey       string `yaml:"whisper_api_key"`
	OpenAIAPIKey        string `yaml:"openai_api_key"`
	VaultPath           string `yaml:"vault_path"`
	PromptPath          string `yaml:"prompt_path,omitempty"`
	Model               string `yaml:"model,omitempty"`
	TranscriptionModel  string `yaml:"transcription_model,omitempty"`
	PollIntervalSeconds int    `yaml:"poll_interval_seconds,omitempty"`
	NoteExtension       string `yaml:"note_extension,omitempty"`
	CollisionPolicy     string `yaml:"collision_policy,omitempty"`
	ArchiveDir          string `yaml:"archive_dir,omitempty"`
	LedgerPath          string `yaml:"ledger_path,omitempty"`
	TempDir             string `yaml:"temp_dir,omitempty"`
	RetryCount          int    `yaml:"retry_count,omitempty"`
}

// RequiredField describes a configuration value the pipeline cannot run without.
type RequiredField struct {
	Key    string
	Label  string
	Secret bool
	value  func(*Config) *string
}

// Set assigns v to the field on c.
func (f RequiredField) Set(c *Config, v string) {
	*f.value(c) = v
}

// RequiredFields lists the required values in prompting order.
var RequiredFields = []RequiredField{
	{Key: "dropbox_access_token", Label: "Dropbox Access Token", Secret: true, value: func(c *Config) *string { return &c.DropboxAccessToken }},
	{Key: "dropbox_audio_path", Label: "Dropbox Audio Path", value: func(c *Config) *string { return &c.DropboxAudioPath }},
	{Key: "whisper_api_key", Label: "Whisper API Key", Secret: true, value: func(c *Config) *string { return &c.WhisperAPIKey }},
	{Key: "openai_api_key", Label: "OpenAI API Key", Secret: true, value: func(c *Config) *string { return &c.OpenAIAPIKey }},
	{Key: "vault_path", Label: "Obsidian Vault Path", value: func(c *Config) *string { return &c.VaultPath }},
}

// ErrInvalidCollisionPolicy is returned by Validate for an unknown collision_policy.
var ErrInvalidCollisionPolicy = errors.New("collision_policy must be overwrite or suffix")

// MissingFieldsError lists required keys that are empty.
type MissingFieldsError struct {
	Keys []string
}

func (e *MissingFieldsError) Error() string {
	return "missing required config values: " + strings.Join(e.Keys, ", ")
}

// Load reads the configuration of the workspace containing the working directory.
func Load() (*Config, string, error) {
	root, err := workspace.FindRoot()
	if err != nil {
		return nil, "", err
	}
	cfg, err := LoadFromWorkspace(root)
	return cfg, root, err
}

// LoadFromWorkspace reads .secretary/config.yaml under root. Paths containing ~
// are expanded and a relative prompt_path is resolved against the marker directory.
func LoadFromWorkspace(root string) (*Config, error) {
	cfg, err := ReadConfig(root)
	if err != nil {
		return nil, err
	}
	cfg.expandPaths(root)
	return cfg, nil
}

// ReadConfig reads .secretary/config.yaml under root as written, without
// resolving any paths. Use it when the file is going to be saved back.
func ReadConfig(root string) (*Config, error) {
	data, err := os.ReadFile(workspace.ConfigPath(root))
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", workspace.ConfigFile, err)
	}
	return &cfg, nil
}

// SaveToWorkspace writes the configuration to .secretary/config.yaml with 0600
// permissions, since it holds API credentials.
func (c *Config) SaveToWorkspace(root string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(workspace.ConfigPath(root), data, 0600)
}

// Missing returns the required fields that are empty.
func (c *Config) Missing() []RequiredField {
	var missing []RequiredField
	for _, f := range RequiredFields {
		if strings.TrimSpace(*f.value(c)) == "" {
			missing = append(missing, f)
		}
	}
	return missing
}

// Validate checks that all required fields are present and optional ones are well formed.
func (c *Config) Validate() error {
	if missing := c.Missing(); len(missing) > 0 {
		keys := make([]string, len(missing))
		for i, f := range missing {
			keys[i] = f.Key
		}
		return &MissingFieldsError{Keys: keys}
	}
	switch c.CollisionPolicy {
	case "", "overwrite", "suffix":
	default:
		return ErrInvalidCollisionPolicy
	}
	if c.PollIntervalSeconds < 0 {
		return fmt.Errorf("poll_interval_seconds must not be negative")
	}
	return nil
}

// ApplyDefaults sets default values for optional fields that are empty or zero.
func (c *Config) ApplyDefaults() {
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.TranscriptionModel == "" {
		c.TranscriptionModel = DefaultTranscriptionModel
	}
	if c.PollIntervalSeconds == 0 {
		c.PollIntervalSeconds = DefaultPollIntervalSeconds
	}
	if c.NoteExtension == "" {
		c.NoteExtension = DefaultNoteExtension
	}
	if c.CollisionPolicy == "" {
		c.CollisionPolicy = DefaultCollisionPolicy
	}
	if c.RetryCount == 0 {
		c.RetryCount = DefaultRetryCount
	}
}

// PollInterval returns the wait between cycles.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSeconds) * time.Second
}

func (c *Config) expandPaths(root string) {
	c.VaultPath = expandTilde(c.VaultPath)
	c.ArchiveDir = expandTilde(c.ArchiveDir)
	c.LedgerPath = expandTilde(c.LedgerPath)
	c.TempDir = expandTilde(c.TempDir)

	if c.PromptPath == "" {
		c.PromptPath = filepath.Join(root, workspace.MarkerDir, workspace.PromptFile)
	} else {
		c.PromptPath = expandTilde(c.PromptPath)
		if !filepath.IsAbs(c.PromptPath) {
			c.PromptPath = filepath.Join(root, workspace.MarkerDir, c.PromptPath)
		}
	}
}

// expandTilde expands ~ at the beginning of a path to the user's home directory.
func expandTilde(path string) string {
	if path == "" {
		return path
	}
	if path == "~" {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return home
	}
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
