// Package logview lists and tails the dedicated server's log files.
package logview

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

var ErrNoLogs = errors.New("logview: no log files found")

// LogFile describes one file under the server's Logs directory.
type LogFile struct {
	Name    string    `json:"name"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
}

// Viewer reads logs under <serverDir>/ShooterGame/Saved/Logs.
type Viewer struct {
	logDir string
}

func New(serverDir string) *Viewer {
	return &Viewer{logDir: filepath.Join(serverDir, "ShooterGame", "Saved", "Logs")}
}

// Dir returns the log directory path.
func (v *Viewer) Dir() string {
	return v.logDir
}

// List returns the *.log files, newest first.
func (v *Viewer) List() ([]LogFile, error) {
	matches, err := filepath.Glob(filepath.Join(v.logDir, "*.log"))
	if err != nil {
		return nil, err
	}

	var files []LogFile
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil {
			continue
		}
		files = append(files, LogFile{Name: filepath.Base(m), Size: info.Size(), ModTime: info.ModTime()})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].ModTime.After(files[j].ModTime) })
	return files, nil
}

// Newest returns the name of the most recently modified log file.
func (v *Viewer) Newest() (string, error) {
	files, err := v.List()
	if err != nil {
		return "", err
	}
	if len(files) == 0 {
		return "", ErrNoLogs
	}
	return files[0].Name, nil
}

// Tail returns the last n lines of the named log file. Bytes that are
// not valid UTF-8 are dropped rather than failing the read.
func (v *Viewer) Tail(name string, n int) ([]string, error) {
	// The name comes from operator input; keep it inside the log dir.
	name = filepath.Base(name)
	raw, err := os.ReadFile(filepath.Join(v.logDir, name))
	if err != nil {
		return nil, fmt.Errorf("logview: read %s: %w", name, err)
	}

	text := strings.ToValidUTF8(string(raw), "")
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	if len(lines) == 1 && lines[0] == "" {
		return nil, nil
	}
	if n > 0 && len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return lines, nil
}

// Size returns the current byte size of the named log file.
func (v *Viewer) Size(name string) (int64, error) {
	info, err := os.Stat(filepath.Join(v.logDir, filepath.Base(name)))
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// ReadFrom returns the file content starting at byte offset, for
// follow-style streaming.
func (v *Viewer) ReadFrom(name string, offset int64) ([]byte, error) {
	f, err := os.Open(filepath.Join(v.logDir, filepath.Base(name)))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return nil, err
	}
	return io.ReadAll(f)
}
