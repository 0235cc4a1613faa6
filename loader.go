package httpsaudit

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/getlantern/golog"
)

// LoadOptions controls how LoadDir treats the files it finds.
type LoadOptions struct {
	Log golog.Logger
	// Strict makes any malformed ruleset fail the whole load. Otherwise it is
	// logged and skipped.
	Strict bool
}

// FileError ties a load failure to the file that caused it.
type FileError struct {
	Path string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%v: %v", e.Path, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}

// LoadStats summarizes a LoadDir run.
type LoadStats struct {
	Files    int
	Loaded   int
	Skipped  []*FileError
	Duration time.Duration
}

// LoadDir adds all of the XML rulesets in the specified directory to a new
// Collection.
func LoadDir(dir string, opts LoadOptions) (*Collection, *LoadStats, error) {
	log := opts.Log
	if log == nil {
		log = golog.LoggerFor("httpsaudit-loader")
	}
	start := time.Now()
	log.Debugf("Loading rulesets from %v", dir)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("read rules directory: %w", err)
	}

	c := NewCollection(log)
	stats := &LoadStats{}
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".xml") {
			continue
		}
		stats.Files++
		path := filepath.Join(dir, entry.Name())
		rs, err := loadFile(path)
		if err != nil {
			if opts.Strict {
				return nil, stats, err
			}
			log.Debugf("Skipping %v", err)
			stats.Skipped = append(stats.Skipped, err)
			continue
		}
		c.Add(rs)
		stats.Loaded++
	}
	stats.Duration = time.Since(start)

	log.Debugf("Loaded %v rulesets from %v files with %v errors in %v", stats.Loaded, stats.Files, len(stats.Skipped), stats.Duration)
	if stats.Loaded == 0 {
		return nil, stats, fmt.Errorf("%v: %w", dir, ErrNoRulesets)
	}
	return c, stats, nil
}

func loadFile(path string) (*Ruleset, *FileError) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, &FileError{Path: path, Err: err}
	}
	rs, err := ParseRuleset(b)
	if err != nil {
		return nil, &FileError{Path: path, Err: err}
	}
	return rs, nil
}
