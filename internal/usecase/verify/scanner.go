package verify

import (
	"bufio"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// ScanResult lists the distinct files containing placeholder markers and the
// total occurrence count across them.
type ScanResult struct {
	Files []string
	Count int
}

// SourceScanner searches a workspace source tree for placeholder markers.
// The default implementation walks in process; no external grep required.
type SourceScanner interface {
	Scan(root string, markers []string, excludeDirs []string) (ScanResult, error)
}

// DefaultMarkers are the textual patterns treated as incomplete
// implementation. Matching is case-insensitive.
var DefaultMarkers = []string{
	"TODO",
	"FIXME",
	"MOCK",
	"PLACEHOLDER",
	"STUB",
	"not implemented",
}

// DefaultExcludeDirs are dependency and build-output directories that never
// count against the delivered source.
var DefaultExcludeDirs = []string{
	".git",
	"node_modules",
	"vendor",
	"dist",
	"build",
	"target",
	"coverage",
	".worktrees",
}

var sourceExtensions = map[string]struct{}{
	".go": {}, ".ts": {}, ".tsx": {}, ".js": {}, ".jsx": {}, ".mjs": {},
	".py": {}, ".rb": {}, ".java": {}, ".kt": {}, ".cs": {}, ".rs": {},
	".c": {}, ".cc": {}, ".cpp": {}, ".h": {}, ".hpp": {}, ".swift": {},
	".php": {}, ".scala": {},
}

// A line that is nothing but an unconditional throw is a placeholder body.
var bareThrowPattern = regexp.MustCompile(`^\s*throw\s`)

type walkScanner struct{}

func NewWalkScanner() SourceScanner {
	return walkScanner{}
}

func (walkScanner) Scan(root string, markers []string, excludeDirs []string) (ScanResult, error) {
	if strings.TrimSpace(root) == "" {
		return ScanResult{}, errors.New("scan root is required")
	}

	excluded := make(map[string]struct{}, len(excludeDirs))
	for _, dir := range excludeDirs {
		trimmed := strings.TrimSpace(dir)
		if trimmed != "" {
			excluded[trimmed] = struct{}{}
		}
	}

	lowerMarkers := make([]string, 0, len(markers))
	for _, marker := range markers {
		trimmed := strings.ToLower(strings.TrimSpace(marker))
		if trimmed != "" {
			lowerMarkers = append(lowerMarkers, trimmed)
		}
	}

	flagged := make(map[string]struct{})
	total := 0

	walkErr := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			if _, skip := excluded[entry.Name()]; skip && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if !isScannableSource(entry.Name()) {
			return nil
		}

		count, scanErr := scanFile(path, lowerMarkers)
		if scanErr != nil {
			return scanErr
		}
		if count > 0 {
			rel, relErr := filepath.Rel(root, path)
			if relErr != nil {
				rel = path
			}
			flagged[filepath.ToSlash(rel)] = struct{}{}
			total += count
		}
		return nil
	})
	if walkErr != nil {
		return ScanResult{}, walkErr
	}

	files := make([]string, 0, len(flagged))
	for file := range flagged {
		files = append(files, file)
	}
	sort.Strings(files)

	return ScanResult{Files: files, Count: total}, nil
}

// isScannableSource keeps source files and drops test files, where mocks and
// stubs are legitimate.
func isScannableSource(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	if _, ok := sourceExtensions[ext]; !ok {
		return false
	}

	lower := strings.ToLower(name)
	if strings.HasSuffix(lower, "_test"+ext) {
		return false
	}
	if strings.Contains(lower, ".test.") || strings.Contains(lower, ".spec.") {
		return false
	}
	return true
}

func scanFile(path string, lowerMarkers []string) (int, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	count := 0
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		lower := strings.ToLower(line)
		for _, marker := range lowerMarkers {
			count += strings.Count(lower, marker)
		}
		if bareThrowPattern.MatchString(line) {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return 0, err
	}
	return count, nil
}
