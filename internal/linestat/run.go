package linestat

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/charlievieth/fastwalk"
)

// DefaultProgressInterval is the default interval for progress updates.
const DefaultProgressInterval = 500 * time.Millisecond

// Target describes one directory to scan.
type Target struct {
	// Dir is the directory to scan, relative to the root unless absolute.
	Dir string
	// Label names the section (defaults to Dir).
	Label string
	// Extensions accepted in this directory, e.g. ".c". Matching is case-insensitive.
	Extensions []string
	// Depth is the maximum depth of counted files below Dir.
	// Zero counts direct children only, the same as 1. Negative is unlimited.
	Depth int
}

// Options configures a run and CLI behavior.
type Options struct {
	// Root is the directory relative targets and reported paths are resolved against.
	Root string
	// Title is the report heading.
	Title string
	// Targets are the directories to scan, in report order.
	Targets []Target
	// Excludes contains regex patterns matched against root-relative paths.
	Excludes []string
	// ProgressInterval controls progress callback cadence.
	ProgressInterval time.Duration
	// Debug indicates whether debug output is enabled.
	Debug bool
	// DebugWriter receives debug output (defaults to stderr).
	DebugWriter io.Writer
	// Output represents output format (table, json, markdown or html).
	Output string
	// Layout selects the table layout (auto, flat or sections).
	Layout string
	// Watch re-runs the report whenever a target directory changes.
	Watch bool
}

// Dirs returns the resolved directory of every target.
func (o Options) Dirs() []string {
	root := o.Root
	if root == "" {
		root = "."
	}

	dirs := make([]string, 0, len(o.Targets))
	for _, t := range o.Targets {
		dirs = append(dirs, t.path(filepath.Clean(root)))
	}

	return dirs
}

// countFile is swapped out in tests to simulate read failures.
var countFile = countFileLines

// logger provides conditional debug output.
// It is shared by concurrent walk callbacks, so writes are serialized.
type logger struct {
	mu      sync.Mutex
	enabled bool
	w       io.Writer
}

// printf prints debug output if logging is enabled.
func (l *logger) printf(format string, args ...any) {
	if !l.enabled || l.w == nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	fmt.Fprintf(l.w, format, args...)
}

// maxDepth returns the depth limit for counted files, or -1 when unlimited.
func (t Target) maxDepth() int {
	switch {
	case t.Depth < 0:
		return -1
	case t.Depth == 0:
		return 1
	default:
		return t.Depth
	}
}

// path resolves the target directory against root.
func (t Target) path(root string) string {
	if filepath.IsAbs(t.Dir) {
		return filepath.Clean(t.Dir)
	}

	return filepath.Join(root, t.Dir)
}

// label returns the section label for the target.
func (t Target) label(root string) string {
	if t.Label != "" {
		return t.Label
	}

	dir := t.path(root)

	rel := displayPath(root, dir)
	if strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(dir)
	}

	return rel
}

// calculateDepth returns the depth of a path relative to the root.
func calculateDepth(path, root string) int {
	relPath, err := filepath.Rel(root, path)
	if err != nil || relPath == "." {
		return 0
	}

	return strings.Count(relPath, string(filepath.Separator)) + 1
}

// shouldExcludeByPattern checks if path matches any exclusion regex.
func shouldExcludeByPattern(path string, patterns []*regexp.Regexp) *regexp.Regexp {
	if len(patterns) == 0 {
		return nil
	}

	fPath := filepath.ToSlash(path)

	for _, re := range patterns {
		if re.MatchString(fPath) {
			return re
		}
	}

	return nil
}

// normalizeExtensions builds the lookup set for a target's extensions.
// Quotes are stripped, a leading dot is added and entries are lowercased.
func normalizeExtensions(exts []string) map[string]struct{} {
	set := make(map[string]struct{}, len(exts))

	for _, e := range exts {
		e = strings.ToLower(strings.TrimSpace(strings.Trim(e, "'\"")))
		if e == "" {
			continue
		}

		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}

		set[e] = struct{}{}
	}

	return set
}

// extension returns the lowercase final suffix of name.
// Dot-files without a further dot have no extension.
func extension(name string) string {
	ext := filepath.Ext(name)
	if ext == name || ext == "." {
		return ""
	}

	return strings.ToLower(ext)
}

// isRegular reports whether the entry is a regular file, following symlinks.
func isRegular(path string, d fs.DirEntry) bool {
	if d.Type().IsRegular() {
		return true
	}

	if d.Type()&fs.ModeSymlink == 0 {
		return false
	}

	info, err := os.Stat(path)

	return err == nil && info.Mode().IsRegular()
}

// isDir reports whether path exists and is a directory.
func isDir(path string) bool {
	info, err := os.Stat(path)

	return err == nil && info.IsDir()
}

func compileExcludes(patterns []string) ([]*regexp.Regexp, error) {
	excludeRegexes := make([]*regexp.Regexp, 0, len(patterns))

	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("compiling exclusion pattern %q: %w", p, err)
		}

		excludeRegexes = append(excludeRegexes, re)
	}

	return excludeRegexes, nil
}

// startProgressReporter invokes hook(files, lines) on each tick until ctx is
// done or the returned stop function is called. stop waits for the reporter to
// exit, so hook is never called after stop returns.
//
//nolint:varnamelen // c is idiomatic for collector
func startProgressReporter(
	ctx context.Context,
	c *collector,
	hook func(int64, int64),
	interval time.Duration,
) (stop func()) {
	if hook == nil {
		return func() {}
	}

	if interval <= 0 {
		interval = DefaultProgressInterval
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	ticker := time.NewTicker(interval)

	go func() {
		defer close(done)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				hook(c.progress())
			case <-ctx.Done():
				return
			}
		}
	}()

	return func() {
		cancel()
		<-done
	}
}

// scanner walks a single target directory.
type scanner struct {
	root     string
	dir      string
	exts     map[string]struct{}
	depth    int
	excludes []*regexp.Regexp
	log      *logger
}

// walk reports every accepted file below s.dir to add.
// Entries that cannot be inspected are counted through addError and skipped.
//
//nolint:varnamelen // d is standard for DirEntry
func (s scanner) walk(ctx context.Context, add func(FileRecord), addError func()) error {
	conf := &fastwalk.Config{
		Follow: false, // Don't follow symlinked directories
	}

	return fastwalk.Walk(conf, s.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			s.log.printf("[debug]: error accessing path %s: %v\n", path, err)
			addError()

			return nil // Silently skip errors
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		depth := calculateDepth(path, s.dir)
		if depth == 0 {
			return nil
		}

		rel := displayPath(s.root, path)

		if matchedPattern := shouldExcludeByPattern(rel, s.excludes); matchedPattern != nil {
			s.log.printf("[debug]: excluding %s\n\t matched regex: %s\n", rel, matchedPattern.String())

			if d.IsDir() {
				return filepath.SkipDir
			}

			return nil
		}

		if d.IsDir() {
			if s.depth > 0 && depth >= s.depth {
				return filepath.SkipDir
			}

			return nil
		}

		if s.depth > 0 && depth > s.depth {
			return nil
		}

		ext := extension(d.Name())
		if _, ok := s.exts[ext]; !ok {
			return nil
		}

		if !isRegular(path, d) {
			return nil
		}

		lines, err := countFile(path)
		if err != nil {
			s.log.printf("[debug]: counting %s as 0 lines: %v\n", rel, err)

			lines = 0
		}

		add(FileRecord{
			Path:  rel,
			Name:  displayPath(s.dir, path),
			Ext:   ext,
			Lines: lines,
		})

		return nil
	})
}

// Run scans every target in opt and returns aggregated statistics.
//
// Each target directory is walked up to its depth limit. Files whose
// lowercase extension is in the target's set are counted. A target directory
// that does not exist produces an empty section. Files that cannot be read
// count as zero lines.
//
// The walk can be cancelled via ctx. Progress updates are sent to
// progressHook if provided.
func Run(ctx context.Context, opt Options, progressHook func(int64, int64)) (*Stats, error) {
	log := &logger{enabled: opt.Debug, w: opt.DebugWriter}
	if log.w == nil {
		log.w = os.Stderr
	}

	if opt.Root == "" {
		opt.Root = "."
	}

	opt.Root = filepath.Clean(opt.Root)

	excludeRegexes, err := compileExcludes(opt.Excludes)
	if err != nil {
		return nil, err
	}

	sections := make([]Section, len(opt.Targets))
	for i, t := range opt.Targets {
		dir := t.path(opt.Root)
		sections[i] = Section{
			Label:   t.label(opt.Root),
			Dir:     filepath.ToSlash(dir),
			Missing: !isDir(dir),
			Files:   []FileRecord{},
		}
	}

	collector := newCollector(sections)

	stopProgress := startProgressReporter(ctx, collector, progressHook, opt.ProgressInterval)
	defer stopProgress()

	log.printf("[debug]: root: %s\n", opt.Root)

	for _, re := range excludeRegexes {
		log.printf("[debug]: exclude regex: %s\n", re.String())
	}

	start := time.Now()

	for i, t := range opt.Targets {
		dir := t.path(opt.Root)

		if sections[i].Missing {
			log.printf("[debug]: skipping missing directory: %s\n", filepath.ToSlash(dir))

			continue
		}

		exts := normalizeExtensions(t.Extensions)
		if len(exts) == 0 {
			log.printf("[debug]: no extensions for %s, nothing to count\n", filepath.ToSlash(dir))

			continue
		}

		s := scanner{
			root:     opt.Root,
			dir:      dir,
			exts:     exts,
			depth:    t.maxDepth(),
			excludes: excludeRegexes,
			log:      log,
		}

		section := i

		if err := s.walk(ctx, func(rec FileRecord) { collector.add(section, rec) }, collector.addError); err != nil {
			return nil, fmt.Errorf("scanning %q: %w", filepath.ToSlash(dir), err)
		}
	}

	stats := collector.finalize()

	stats.Root = filepath.ToSlash(opt.Root)
	stats.Title = opt.Title
	stats.Elapsed = time.Since(start)

	log.printf("[debug]: %d files, %d lines, %d unreadable entries in %v\n",
		stats.FileCount, stats.TotalLines, collector.errorCount, stats.Elapsed)

	return stats, nil
}

// ScanDir returns the files directly in dir whose extension is in extensions,
// ordered by name. A directory that does not exist yields no files.
func ScanDir(ctx context.Context, dir string, extensions []string) ([]FileRecord, error) {
	stats, err := Run(ctx, Options{
		Root:    dir,
		Targets: []Target{{Dir: ".", Extensions: extensions, Depth: 1}},
	}, nil)
	if err != nil {
		return nil, err
	}

	return stats.Sections[0].Files, nil
}
