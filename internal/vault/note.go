package vault

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"gopkg.in/yaml.v3"

	"github.com/TechnicallyShaun/secretary/internal/secretary"
)

// Note is a vault document as read back from disk.
type Note struct {
	Path          string
	Name          string
	Title         string
	AudioFileName string
	Transcription string
	ModTime       time.Time
}

type noteHeader struct {
	Title         string `yaml:"title"`
	AudioFileName string `yaml:"audio_file_name"`
	NoteName      string `yaml:"note_name"`
}

// ReadNote parses the note at path. The title comes from the header's title
// key, then the first level-one heading, then the file name.
func ReadNote(path string) (Note, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Note{}, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return Note{}, err
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	note := Note{
		Path:    path,
		Name:    name,
		ModTime: info.ModTime(),
	}

	h, ok := SplitHeader(content)
	if ok {
		var fm noteHeader
		if err := yaml.Unmarshal(bytes.Join(h.Lines, []byte("\n")), &fm); err != nil {
			// Generated headers are not always valid YAML, e.g. an unquoted colon in a title.
			fm = noteHeader{
				Title:         headerValue(h.Lines, "title"),
				AudioFileName: headerValue(h.Lines, secretary.AudioFileKey),
				NoteName:      headerValue(h.Lines, LegacyAudioFileKey),
			}
		}
		note.Title = strings.TrimSpace(fm.Title)
		note.AudioFileName = fm.AudioFileName
		if note.AudioFileName == "" {
			note.AudioFileName = fm.NoteName
		}
	} else {
		note.AudioFileName = markerValue(content)
	}

	doc := goldmark.DefaultParser().Parse(text.NewReader(h.Body))
	if note.Title == "" {
		note.Title = firstHeading(doc, h.Body)
	}
	if note.Title == "" {
		note.Title = name
	}
	note.Transcription = section(doc, h.Body, strings.TrimPrefix(secretary.TranscriptionHeading, "## "))

	return note, nil
}

// ListNotes reads every note with extension ext at the top level of dir that
// links to a source recording, in directory order.
func ListNotes(dir, ext string) ([]Note, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	ext = normalizeExt(ext)

	var notes []Note
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ext) {
			continue
		}
		n, err := ReadNote(filepath.Join(dir, e.Name()))
		if err != nil || n.AudioFileName == "" {
			continue
		}
		notes = append(notes, n)
	}
	return notes, nil
}

// headerValue returns the text after "key:" on the first matching header line.
func headerValue(lines [][]byte, key string) string {
	prefix := []byte(key + ":")
	for _, line := range lines {
		line = bytes.TrimSpace(line)
		if bytes.HasPrefix(line, prefix) {
			v := strings.TrimSpace(string(line[len(prefix):]))
			return strings.Trim(v, `"'`)
		}
	}
	return ""
}

// markerValue returns the recording named by the first audio_file_name or
// note_name line of a document without a complete header block.
func markerValue(content []byte) string {
	lines := bytes.Split(content, []byte("\n"))
	if v := headerValue(lines, secretary.AudioFileKey); v != "" {
		return v
	}
	return headerValue(lines, LegacyAudioFileKey)
}

func headingText(h *ast.Heading, source []byte) string {
	var sb strings.Builder
	lines := h.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		sb.Write(seg.Value(source))
	}
	return strings.TrimSpace(sb.String())
}

func firstHeading(doc ast.Node, source []byte) string {
	var title string
	ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if entering && n.Kind() == ast.KindHeading {
			h := n.(*ast.Heading)
			if h.Level == 1 {
				title = headingText(h, source)
				return ast.WalkStop, nil
			}
		}
		return ast.WalkContinue, nil
	})
	return title
}

// section returns the raw Markdown under the first top-level heading named
// title, up to the next heading of the same or higher rank.
func section(doc ast.Node, source []byte, title string) string {
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		h, ok := n.(*ast.Heading)
		if !ok || h.Lines().Len() == 0 || !strings.EqualFold(headingText(h, source), title) {
			continue
		}

		start := h.Lines().At(h.Lines().Len() - 1).Stop
		if i := bytes.IndexByte(source[start:], '\n'); i >= 0 {
			start += i + 1
		} else {
			return ""
		}

		end := len(source)
		for m := n.NextSibling(); m != nil; m = m.NextSibling() {
			next, ok := m.(*ast.Heading)
			if !ok || next.Level > h.Level || next.Lines().Len() == 0 {
				continue
			}
			stop := next.Lines().At(0).Start
			end = bytes.LastIndexByte(source[:stop], '\n') + 1
			break
		}
		if end < start {
			return ""
		}
		return strings.TrimSpace(string(source[start:end]))
	}
	return ""
}
