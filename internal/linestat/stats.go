package linestat

import (
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// ExtStat represents statistics for a file extension.
type ExtStat struct {
	// Count is the number of files with this extension.
	Count int `json:"count"`
	// Lines is the cumulative line count.
	Lines int64 `json:"lines"`
}

// FileRecord represents a single counted file.
type FileRecord struct {
	// Path is the file path relative to the root, slash separated.
	Path string `json:"path"`
	// Name is the file path relative to the section directory.
	Name string `json:"name"`
	// Ext is the lowercase extension, including the leading dot.
	Ext string `json:"ext"`
	// Lines is the number of lines in the file.
	Lines int64 `json:"lines"`
}

// Section holds the scan results of one target directory.
type Section struct {
	// Label names the section in reports.
	Label string `json:"label"`
	// Dir is the scanned directory.
	Dir string `json:"dir"`
	// Missing is set when Dir does not exist.
	Missing bool `json:"missing,omitempty"`
	// Files are the counted files, ordered by Name.
	Files []FileRecord `json:"files"`
	// FileCount is the number of files in the section.
	FileCount int `json:"file_count"`
	// Lines is the section subtotal.
	Lines int64 `json:"lines"`
}

// Stats holds aggregate statistics for one run.
type Stats struct {
	// Title is the report heading.
	Title string `json:"title"`
	// Root is the directory section paths are relative to.
	Root string `json:"root"`
	// Sections are the per-target results in configuration order.
	Sections []Section `json:"sections"`
	// ExtStats maps file extensions to their statistics.
	ExtStats map[string]ExtStat `json:"ext_stats"`
	// FileCount is the total number of files counted.
	FileCount int64 `json:"file_count"`
	// TotalLines is the grand total of lines.
	TotalLines int64 `json:"total_lines"`
	// Elapsed is the total time taken for the run.
	Elapsed time.Duration `json:"elapsed"`
}

// Extensions returns the keys of ExtStats in ascending order.
func (s *Stats) Extensions() []string {
	exts := make([]string, 0, len(s.ExtStats))
	for ext := range s.ExtStats {
		exts = append(exts, ext)
	}

	sort.Strings(exts)

	return exts
}

// Aggregate builds Stats from finished sections. Files in each section are
// sorted by name and all subtotals and totals are recomputed from the records.
func Aggregate(sections []Section) *Stats {
	stats := &Stats{
		Sections: make([]Section, len(sections)),
		ExtStats: make(map[string]ExtStat),
	}

	for i, sec := range sections {
		files := make([]FileRecord, len(sec.Files))
		copy(files, sec.Files)
		sort.Slice(files, func(a, b int) bool {
			return files[a].Name < files[b].Name
		})

		sec.Files = files
		sec.FileCount = len(files)
		sec.Lines = 0

		for _, f := range files {
			sec.Lines += f.Lines

			ext := stats.ExtStats[f.Ext]
			ext.Count++
			ext.Lines += f.Lines
			stats.ExtStats[f.Ext] = ext
		}

		stats.FileCount += int64(sec.FileCount)
		stats.TotalLines += sec.Lines
		stats.Sections[i] = sec
	}

	return stats
}

// collector aggregates records from concurrent fastwalk callbacks using a mutex.
type collector struct {
	mu         sync.Mutex // Protect concurrent access
	sections   []Section
	fileCount  int64
	totalLines int64
	errorCount int64
}

// newCollector creates a collector with one slot per section.
func newCollector(sections []Section) *collector {
	return &collector{sections: sections}
}

// addError increments the error counter. This operation is protected by a mutex
// since fastwalk calls the callback from multiple goroutines concurrently.
func (c *collector) addError() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errorCount++
}

// add records a file for the given section. This operation is protected by a
// mutex since fastwalk calls the callback from multiple goroutines concurrently.
func (c *collector) add(section int, rec FileRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.fileCount++
	c.totalLines += rec.Lines
	c.sections[section].Files = append(c.sections[section].Files, rec)
}

// progress returns the running file and line counts.
func (c *collector) progress() (int64, int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.fileCount, c.totalLines
}

// finalize produces the final Stats from the collected data.
func (c *collector) finalize() *Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Aggregate(c.sections)
}

// displayPath converts path to slash format relative to base.
func displayPath(base, path string) string {
	rel, err := filepath.Rel(base, path)
	if err != nil {
		rel = path
	}

	return strings.TrimPrefix(filepath.ToSlash(rel), "./")
}
