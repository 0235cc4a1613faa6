// Package scan walks files looking for plaintext URLs that a ruleset
// collection can upgrade.
package scan

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/getlantern/golog"
	"github.com/getlantern/mtime"
	"golang.org/x/sync/errgroup"
)

// sniffLen is how much of a file is checked for NUL bytes before it is
// treated as text.
const sniffLen = 8000

// Upgrader rewrites a URL, returning it unchanged when it can't be upgraded.
// *httpsaudit.Collection satisfies it.
type Upgrader interface {
	Apply(url string) string
}

// Observer is told about scanning progress. Implementations must be safe for
// concurrent use.
type Observer interface {
	FileScanned()
	URLChecked(upgraded bool, dur time.Duration)
}

// Finding is a URL that could have been written with https.
type Finding struct {
	Path     string `json:"path"`
	Line     int    `json:"line"`
	Column   int    `json:"column"`
	Original string `json:"original"`
	Upgraded string `json:"upgraded"`
}

// Options configures a Scanner.
type Options struct {
	// Include and Exclude are doublestar globs matched against paths relative
	// to the scanned root. An empty Include matches every file. Directories
	// matching Exclude are not descended into.
	Include []string
	Exclude []string
	Workers int
	Log     golog.Logger
	// Observer may be nil.
	Observer Observer
}

// Scanner finds upgradable URLs in files. A Scanner may be reused.
type Scanner struct {
	upgrader Upgrader
	opts     Options
	log      golog.Logger
	timings  *timings
}

// New creates a Scanner that checks URLs against u.
func New(u Upgrader, opts Options) *Scanner {
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	log := opts.Log
	if log == nil {
		log = golog.LoggerFor("httpsaudit-scan")
	}
	return &Scanner{
		upgrader: u,
		opts:     opts,
		log:      log,
		timings:  &timings{},
	}
}

// Scan checks every file under roots and returns the findings ordered by
// path, line and column. Roots may be files or directories.
func (s *Scanner) Scan(ctx context.Context, roots ...string) ([]Finding, error) {
	s.log.Debugf("Scanning %v", strings.Join(roots, ", "))
	start := time.Now()

	files, err := s.collect(roots)
	if err != nil {
		return nil, err
	}

	var (
		mx       sync.Mutex
		findings []Finding
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Workers)
	for _, path := range files {
		path := path
		g.Go(func() error {
			found, err := s.ScanFile(gctx, path)
			if err != nil {
				return err
			}
			mx.Lock()
			findings = append(findings, found...)
			mx.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(findings, func(i, j int) bool {
		a, b := findings[i], findings[j]
		if a.Path != b.Path {
			return a.Path < b.Path
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Column < b.Column
	})
	s.timings.log(s.log)
	s.log.Debugf("Scanned %v files with %v findings in %v", len(files), len(findings), time.Since(start))
	return findings, nil
}

// collect expands roots into the list of files to scan.
func (s *Scanner) collect(roots []string) ([]string, error) {
	var files []string
	for _, root := range roots {
		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("scan %v: %w", root, err)
		}
		if !info.IsDir() {
			files = append(files, root)
			continue
		}
		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			rel, err := filepath.Rel(root, path)
			if err != nil {
				return err
			}
			rel = filepath.ToSlash(rel)
			if d.IsDir() {
				if rel != "." && matchAny(s.opts.Exclude, rel) {
					return filepath.SkipDir
				}
				return nil
			}
			if !d.Type().IsRegular() || matchAny(s.opts.Exclude, rel) {
				return nil
			}
			if len(s.opts.Include) > 0 && !matchAny(s.opts.Include, rel) {
				return nil
			}
			files = append(files, path)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %v: %w", root, err)
		}
	}
	return files, nil
}

func matchAny(patterns []string, path string) bool {
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p, path); ok {
			return true
		}
	}
	return false
}

// ScanFile checks a single file. Binary files produce no findings.
func (s *Scanner) ScanFile(ctx context.Context, path string) ([]Finding, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %v: %w", path, err)
	}
	defer f.Close()

	found, err := s.scanReader(ctx, path, f)
	if err != nil {
		return nil, fmt.Errorf("read %v: %w", path, err)
	}
	if s.opts.Observer != nil {
		s.opts.Observer.FileScanned()
	}
	return found, nil
}

func (s *Scanner) scanReader(ctx context.Context, path string, r io.Reader) ([]Finding, error) {
	br := bufio.NewReaderSize(r, 64*1024)
	head, err := br.Peek(sniffLen)
	if err != nil && err != io.EOF {
		return nil, err
	}
	if bytes.IndexByte(head, 0) >= 0 {
		s.log.Debugf("Skipping binary file %v", path)
		return nil, nil
	}

	var findings []Finding
	for lineNo := 1; ; lineNo++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		line, err := br.ReadString('\n')
		if len(line) > 0 {
			findings = append(findings, s.checkLine(path, lineNo, line)...)
		}
		if err == io.EOF {
			return findings, nil
		}
		if err != nil {
			return nil, err
		}
	}
}

func (s *Scanner) checkLine(path string, lineNo int, line string) []Finding {
	var findings []Finding
	for _, loc := range candidateURL.FindAllStringIndex(line, -1) {
		original := line[loc[0]:loc[1]]
		start := mtime.Now()
		upgraded := s.upgrader.Apply(original)
		dur := mtime.Now().Sub(start)
		s.timings.add(original, dur)

		changed := upgraded != original
		if s.opts.Observer != nil {
			s.opts.Observer.URLChecked(changed, dur)
		}
		if changed {
			findings = append(findings, Finding{
				Path:     path,
				Line:     lineNo,
				Column:   loc[0] + 1,
				Original: original,
				Upgraded: upgraded,
			})
		}
	}
	return findings
}
