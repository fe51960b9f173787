package workspace

import (
	"errors"
	"os"
	"path/filepath"
)

// ErrWorkspaceExists is returned by Init when the marker directory already exists.
var ErrWorkspaceExists = errors.New("workspace already exists")

// DefaultPrompt is written to prompt.md by Init. The model is asked to open the
// note with a front-matter block so the pipeline can tag and title it.
const DefaultPrompt = `You are my personal secretary. Turn the voice memo transcription below into a
well structured Markdown note.

Start the note with a front-matter block delimited by lines containing only ---
and include a "title:" line with a short descriptive title and a "tags:" line.
After the front-matter write a concise summary, then the key points and any
action items as bullet lists. Do not include the raw transcription.

Transcription:
{transcription}
`

// defaultConfig is the skeleton config.yaml written by Init. Required values are
// left empty so the first run prompts for them.
const defaultConfig = `dropbox_access_token: ""
dropbox_audio_path: ""
whisper_api_key: ""
openai_api_key: ""
vault_path: ""
`

// InitResult describes what Init created.
type InitResult struct {
	Root          string
	ConfigCreated bool
	PromptCreated bool
}

// Init creates a workspace at path: the .secretary directory, a skeleton
// config.yaml and the default prompt.md. Returns ErrWorkspaceExists if the
// marker directory already holds a config file.
func Init(path string) (*InitResult, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	markerDir := filepath.Join(absPath, MarkerDir)
	configPath := filepath.Join(markerDir, ConfigFile)

	if _, err := os.Stat(configPath); err == nil {
		return nil, ErrWorkspaceExists
	}

	if err := os.MkdirAll(markerDir, 0755); err != nil {
		return nil, err
	}

	result := &InitResult{Root: absPath}

	if err := os.WriteFile(configPath, []byte(defaultConfig), 0600); err != nil {
		return nil, err
	}
	result.ConfigCreated = true

	promptPath := filepath.Join(markerDir, PromptFile)
	if _, err := os.Stat(promptPath); os.IsNotExist(err) {
		if err := os.WriteFile(promptPath, []byte(DefaultPrompt), 0644); err != nil {
			return nil, err
		}
		result.PromptCreated = true
	}

	return result, nil
}
