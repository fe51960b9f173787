package secretary

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
)

// FrontmatterDelimiter is the line that opens and closes a note's header block.
const FrontmatterDelimiter = "---"

// AudioFileKey is the header key linking a note to its source recording.
const AudioFileKey = "audio_file_name"

// TranscriptionHeading opens the raw transcript section appended to every note.
const TranscriptionHeading = "## Transcription"

// TranscriptionPlaceholder is replaced with the transcript when rendering a prompt.
const TranscriptionPlaceholder = "{transcription}"

// ErrMissingPlaceholder is returned when a prompt template has no {transcription} placeholder.
var ErrMissingPlaceholder = errors.New("prompt template has no " + TranscriptionPlaceholder + " placeholder")

var titlePattern = regexp.MustCompile(`(?m)^[ \t]*title:[ \t]*(.+?)[ \t]*\r?$`)

// unsafeNameChars are replaced in derived note names so a title never escapes the vault directory.
var unsafeNameChars = strings.NewReplacer(
	"/", "-", "\\", "-", ":", "-", "*", "-", "?", "-", "\"", "", "<", "", ">", "", "|", "-",
)

// Template is a prompt template loaded once per cycle.
type Template struct {
	text string
}

// LoadTemplate reads a prompt template from disk.
func LoadTemplate(path string) (*Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read prompt template: %w", err)
	}
	return ParseTemplate(string(data))
}

// ParseTemplate validates that text contains the transcription placeholder.
func ParseTemplate(text string) (*Template, error) {
	if !strings.Contains(text, TranscriptionPlaceholder) {
		return nil, ErrMissingPlaceholder
	}
	return &Template{text: text}, nil
}

// Render substitutes the transcription into the template.
func (t *Template) Render(transcription string) string {
	return strings.ReplaceAll(t.text, TranscriptionPlaceholder, transcription)
}

// Annotate links a composed note back to its source recording and appends the
// raw transcript. The audio_file_name line goes directly after the first
// delimiter line when one exists, otherwise it is prepended.
func Annotate(note, audioFileName, transcription string) string {
	marker := AudioFileKey + ": " + audioFileName

	lines := strings.Split(note, "\n")
	inserted := false
	for i, line := range lines {
		if strings.TrimSpace(line) == FrontmatterDelimiter {
			rest := append([]string{marker}, lines[i+1:]...)
			lines = append(lines[:i+1], rest...)
			inserted = true
			break
		}
	}

	body := strings.Join(lines, "\n")
	if !inserted {
		body = marker + "\n" + note
	}

	var sb strings.Builder
	sb.WriteString(strings.TrimRight(body, "\n"))
	sb.WriteString("\n\n")
	sb.WriteString(TranscriptionHeading)
	sb.WriteString("\n\n")
	sb.WriteString(transcription)
	sb.WriteString("\n")
	return sb.String()
}

// ExtractTitle returns the value of the first title: line in note, with
// surrounding quotes removed and path-unsafe characters replaced. Returns
// DefaultNoteName when there is no usable title.
func ExtractTitle(note string) string {
	m := titlePattern.FindStringSubmatch(note)
	if m == nil {
		return DefaultNoteName
	}

	title := strings.TrimSpace(m[1])
	if len(title) >= 2 && (title[0] == '"' || title[0] == '\'') && title[len(title)-1] == title[0] {
		title = title[1 : len(title)-1]
	}
	title = strings.TrimSpace(unsafeNameChars.Replace(title))
	title = strings.Trim(title, ".")

	if title == "" {
		return DefaultNoteName
	}
	return title
}
