package tracker

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

const defaultMaxFileSize = 256 * 1024 // suggestions cap out at 256KB

// ScanRules controls which files a scan yields as candidates.
type ScanRules struct {
	MaxFileSize int64 // bytes; 0 means defaultMaxFileSize
	Ignore      *IgnoreList
}

// ScanWarning records a subtree or file that was skipped, not a fatal error.
type ScanWarning struct {
	Path string
	Err  error
}

// Scanner walks a filesystem subtree to find candidate files for tracking.
// The filesystem is injected so tests can run against an in-memory fs.
type Scanner struct {
	fs afero.Fs
}

// NewScanner creates a Scanner over the given filesystem.
func NewScanner(fs afero.Fs) *Scanner {
	return &Scanner{fs: fs}
}

// Scan walks root depth-first and calls fn for each candidate file path.
// Re-running produces the same set absent filesystem changes. Symlinks are
// not followed. Permission errors on individual subtrees are collected as
// warnings and skipped. Returning an error from fn aborts the walk.
func (s *Scanner) Scan(root string, rules ScanRules, fn func(path string) error) ([]ScanWarning, error) {
	l := sub("scanner")
	l.Debug("scan start", "root", root)

	if _, err := s.fs.Stat(root); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", root, ErrPathNotFound)
		}
		return nil, fmt.Errorf("stat scan root %s: %w", root, err)
	}

	maxSize := rules.MaxFileSize
	if maxSize == 0 {
		maxSize = defaultMaxFileSize
	}

	var warnings []ScanWarning
	count := 0

	err := afero.Walk(s.fs, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			l.Warn("scan walk error", "path", path, "err", err)
			warnings = append(warnings, ScanWarning{Path: path, Err: err})
			if info != nil && info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if path == root {
			return nil
		}

		if info.IsDir() {
			if rules.Ignore.IsIgnored(info.Name(), true) {
				return filepath.SkipDir
			}
			return nil
		}

		// Symlinks and other non-regular files are never candidates.
		if info.Mode()&os.ModeType != 0 {
			return nil
		}

		if rules.Ignore.IsIgnored(info.Name(), false) {
			return nil
		}

		if info.Size() > maxSize {
			return nil
		}

		if binary, berr := s.looksBinary(path); berr != nil {
			l.Warn("scan sniff error", "path", path, "err", berr)
			warnings = append(warnings, ScanWarning{Path: path, Err: berr})
			return nil
		} else if binary {
			return nil
		}

		count++
		return fn(path)
	})

	l.Debug("scan complete", "root", root, "candidates", count, "warnings", len(warnings))
	return warnings, err
}

// looksBinary sniffs the first 512 bytes for a NUL, the same heuristic
// git uses for its text/binary split.
func (s *Scanner) looksBinary(path string) (bool, error) {
	f, err := s.fs.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	buf := make([]byte, 512)
	n, err := f.Read(buf)
	if err != nil && err != io.EOF {
		return false, err
	}
	return bytes.IndexByte(buf[:n], 0) >= 0, nil
}
