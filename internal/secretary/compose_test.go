package secretary

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTemplate(t *testing.T) {
	tmpl, err := ParseTemplate("Summarise:\n{transcription}\nThanks")
	require.NoError(t, err)
	assert.Equal(t, "Summarise:\nhello\nThanks", tmpl.Render("hello"))
}

func TestParseTemplate_MultiplePlaceholders(t *testing.T) {
	tmpl, err := ParseTemplate("{transcription} / {transcription}")
	require.NoError(t, err)
	assert.Equal(t, "a / a", tmpl.Render("a"))
}

func TestParseTemplate_MissingPlaceholder(t *testing.T) {
	_, err := ParseTemplate("no placeholder here")
	assert.ErrorIs(t, err, ErrMissingPlaceholder)
}

func TestLoadTemplate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompt.md")
	require.NoError(t, os.WriteFile(path, []byte("Note for: {transcription}"), 0644))

	tmpl, err := LoadTemplate(path)
	require.NoError(t, err)
	assert.Equal(t, "Note for: x", tmpl.Render("x"))
}

func TestLoadTemplate_Missing(t *testing.T) {
	_, err := LoadTemplate(filepath.Join(t.TempDir(), "missing.md"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestAnnotate_WithHeader(t *testing.T) {
	got := Annotate("---\ntitle: Memo\n---\nBody", "memo.m4a", "hello world")
	want := "---\naudio_file_name: memo.m4a\ntitle: Memo\n---\nBody\n\n## Transcription\n\nhello world\n"
	assert.Equal(t, want, got)
}

func TestAnnotate_InsertsAfterFirstDelimiterOnly(t *testing.T) {
	got := Annotate("intro\n---\ntitle: A\n---\nbody\n---\nmore\n", "a.mp3", "t")
	want := "intro\n---\naudio_file_name: a.mp3\ntitle: A\n---\nbody\n---\nmore\n\n## Transcription\n\nt\n"
	assert.Equal(t, want, got)
}

func TestAnnotate_WithoutHeader(t *testing.T) {
	got := Annotate("Just text", "a.mp3", "raw")
	assert.Equal(t, "audio_file_name: a.mp3\nJust text\n\n## Transcription\n\nraw\n", got)
}

func TestAnnotate_EmptyNote(t *testing.T) {
	got := Annotate("", "a.mp3", "raw")
	assert.Equal(t, "audio_file_name: a.mp3\n\n## Transcription\n\nraw\n", got)
}

func TestExtractTitle(t *testing.T) {
	tests := []struct {
		name string
		note string
		want string
	}{
		{"header title", "---\ntitle: Memo\n---\nBody", "Memo"},
		{"first title wins", "title: One\ntitle: Two", "One"},
		{"double quoted", "---\ntitle: \"Weekly Sync\"\n---", "Weekly Sync"},
		{"single quoted", "title: 'Weekly Sync'", "Weekly Sync"},
		{"path separators replaced", "title: Q1/Q2 plans", "Q1-Q2 plans"},
		{"colon replaced", "title: Standup: Tuesday", "Standup- Tuesday"},
		{"dot-only title", "title: ..", DefaultNoteName},
		{"crlf", "---\r\ntitle: Memo\r\n---\r\n", "Memo"},
		{"not at line start", "the title: nope", DefaultNoteName},
		{"missing", "# Heading\nBody", DefaultNoteName},
		{"empty value", "title:   \nBody", DefaultNoteName},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractTitle(tt.note))
		})
	}
}
