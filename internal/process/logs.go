// logs.go locates and reads the log files written by detached launches.

package process

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/feralbyte/botup/internal/model"
)

// LatestLogFile returns the most recently modified *.log file under
// logDir. Each detached launch creates a fresh timestamped file, so the
// newest one belongs to the current (or last) bot instance.
func LatestLogFile(logDir string) (string, error) {
	entries, err := os.ReadDir(logDir)
	if err != nil {
		return "", model.WrapCLIError(
			model.ExitFailure,
			fmt.Sprintf("no log files found in %s (has the bot been started yet?)", logDir),
			err,
		)
	}

	var newest string
	var newestTime time.Time
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".log") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if newest == "" || info.ModTime().After(newestTime) {
			newest = entry.Name()
			newestTime = info.ModTime()
		}
	}

	if newest == "" {
		return "", model.NewCLIError(
			model.ExitFailure,
			fmt.Sprintf("no log files found in %s (has the bot been started yet?)", logDir),
		)
	}
	return filepath.Join(logDir, newest), nil
}

// ReadLastLines returns the final n lines of the file at path. A
// non-positive n returns every line. Bot log files stay small enough
// that reading the whole file is fine.
func ReadLastLines(path string, n int) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, model.WrapCLIError(model.ExitFailure, fmt.Sprintf("failed to read log file %s", path), err)
	}

	content := strings.TrimRight(string(data), "\n")
	if content == "" {
		return nil, nil
	}

	lines := strings.Split(content, "\n")
	if n > 0 && len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return lines, nil
}

// Follow streams everything appended to the file at path into w until
// ctx is cancelled. It starts at the current end of file; callers that
// want history print it with ReadLastLines first.
func Follow(ctx context.Context, path string, w io.Writer) error {
	f, err := os.Open(path)
	if err != nil {
		return model.WrapCLIError(model.ExitFailure, fmt.Sprintf("failed to open log file %s", path), err)
	}
	defer f.Close()

	if _, err := f.Seek(0, io.SeekEnd); err != nil {
		return fmt.Errorf("failed to seek log file: %w", err)
	}

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			// The file offset persists across polls, so each Copy picks
			// up exactly the bytes written since the previous one.
			if _, err := io.Copy(w, f); err != nil {
				return fmt.Errorf("failed to read log file: %w", err)
			}
		}
	}
}
