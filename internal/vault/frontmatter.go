package vault

import (
	"bytes"

	"github.com/TechnicallyShaun/secretary/internal/secretary"
)

// LegacyAudioFileKey is the header key older notes used to name their source recording.
const LegacyAudioFileKey = "note_name"

// Header is a note's delimited header block.
type Header struct {
	// Lines are the raw lines between the delimiters.
	Lines [][]byte
	// Body is everything after the closing delimiter.
	Body []byte
}

// SplitHeader finds the header block opened by the first line consisting solely of
// the delimiter and closed by the next such line. ok is false when the document
// has no complete block; Body is then the whole document.
func SplitHeader(content []byte) (h Header, ok bool) {
	lines := bytes.Split(content, []byte("\n"))
	delim := []byte(secretary.FrontmatterDelimiter)

	open := -1
	for i, line := range lines {
		if !bytes.Equal(bytes.TrimSpace(line), delim) {
			continue
		}
		if open < 0 {
			open = i
			continue
		}
		return Header{
			Lines: lines[open+1 : i],
			Body:  bytes.Join(lines[i+1:], []byte("\n")),
		}, true
	}
	return Header{Body: content}, false
}

// HasAudioMarker reports whether content links to the recording named name. The
// marker is a line equal to "audio_file_name: <name>" or the legacy
// "note_name: <name>". When the document has a complete header block only its
// lines are checked; otherwise any line of the document may carry the marker.
func HasAudioMarker(content []byte, name string) bool {
	want := [][]byte{
		[]byte(secretary.AudioFileKey + ": " + name),
		[]byte(LegacyAudioFileKey + ": " + name),
	}

	lines := bytes.Split(content, []byte("\n"))
	if h, ok := SplitHeader(content); ok {
		lines = h.Lines
	}

	for _, line := range lines {
		line = bytes.TrimSpace(line)
		for _, w := range want {
			if bytes.Equal(line, w) {
				return true
			}
		}
	}
	return false
}
