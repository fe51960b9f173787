package secretary

import (
	"path/filepath"
	"strings"
)

// AudioExtensions are the lowercase extensions accepted by the transcription provider.
var AudioExtensions = []string{
	".mp3", ".wav", ".m4a", ".flac", ".ogg",
	".mp4", ".mpeg", ".mpga", ".oga", ".webm",
}

// IsAudioFile reports whether name has an allowed audio extension, ignoring case.
func IsAudioFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		return false
	}
	for _, allowed := range AudioExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

// FilterAudio keeps the audio files of a listing, preserving order.
func FilterAudio(files []RemoteFile) []RemoteFile {
	var audio []RemoteFile
	for _, f := range files {
		if IsAudioFile(f.Name) {
			audio = append(audio, f)
		}
	}
	return audio
}
