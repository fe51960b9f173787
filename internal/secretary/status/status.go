// Package status summarises the daemon's log for the status command.
package status

import (
	"bufio"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/TechnicallyShaun/secretary/internal/secretary/logging"
)

// Stats holds statistics parsed from one day's log file.
type Stats struct {
	NotesSaved    int
	Cycles        int
	FailedCycles  int
	Errors        int
	LastSaved     *SavedNote
	LastCycle     time.Time
	LastError     string
	LastErrorTime time.Time
}

// SavedNote describes the most recent note written to the vault.
type SavedNote struct {
	Timestamp time.Time
	Source    string
	Output    string
}

// value matches a logged field value: a quoted string or a run of non-space characters.
const value = `("(?:[^"\\]|\\.)*"|\S+)`

// Line format: 2024-01-01T09:30:00Z INFO  [pipeline] note saved source=memo.m4a output="/vault/My Memo.md"
var (
	savedPattern  = regexp.MustCompile(`^(\S+)\s+INFO\s+\[pipeline\]\s+note saved\s+source=` + value + `\s+output=` + value)
	cyclePattern  = regexp.MustCompile(`^(\S+)\s+INFO\s+\[pipeline\]\s+cycle complete\b`)
	failedPattern = regexp.MustCompile(`^(\S+)\s+ERROR\s+\[pipeline\]\s+cycle failed\s+error=` + value)
	errorPattern  = regexp.MustCompile(`^\S+\s+ERROR\s+`)
)

// TodayLogPath returns the path to today's log file in the default log directory.
func TodayLogPath() string {
	cfg := logging.DefaultConfig()
	return logging.TodayLogPath(cfg.LogDir, cfg.Prefix)
}

// ParseTodayStats parses today's log file.
// Returns empty stats if the log file doesn't exist.
func ParseTodayStats() (*Stats, error) {
	return ParseLogFile(TodayLogPath())
}

// ParseLogFile parses a log file and returns statistics.
// Returns empty stats if the file doesn't exist.
func ParseLogFile(path string) (*Stats, error) {
	stats := &Stats{}

	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return stats, nil
		}
		return nil, err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()

		if m := savedPattern.FindStringSubmatch(line); m != nil {
			stats.NotesSaved++
			if ts, err := time.Parse(time.RFC3339, m[1]); err == nil {
				stats.LastSaved = &SavedNote{
					Timestamp: ts,
					Source:    unquoteIfNeeded(m[2]),
					Output:    unquoteIfNeeded(m[3]),
				}
			}
			continue
		}

		if m := cyclePattern.FindStringSubmatch(line); m != nil {
			stats.Cycles++
			if ts, err := time.Parse(time.RFC3339, m[1]); err == nil {
				stats.LastCycle = ts
			}
			continue
		}

		if m := failedPattern.FindStringSubmatch(line); m != nil {
			stats.FailedCycles++
			stats.LastError = unquoteIfNeeded(m[2])
			if ts, err := time.Parse(time.RFC3339, m[1]); err == nil {
				stats.LastErrorTime = ts
			}
		}

		if errorPattern.MatchString(line) {
			stats.Errors++
		}
	}

	return stats, scanner.Err()
}

// unquoteIfNeeded reverses the logger's quoting of values with spaces or quotes.
func unquoteIfNeeded(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		if u, err := strconv.Unquote(s); err == nil {
			return u
		}
		return s[1 : len(s)-1]
	}
	return s
}

// FormatTimestamp formats a timestamp for display.
func FormatTimestamp(t time.Time) string {
	return t.Local().Format("2006-01-02T15:04:05")
}

// BaseName returns just the filename from a path.
func BaseName(path string) string {
	return filepath.Base(strings.TrimSuffix(path, "/"))
}
