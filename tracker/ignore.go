package tracker

import (
	"bufio"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// defaultDenyDirs are directory names never descended into during a scan.
var defaultDenyDirs = []string{
	".git", ".hg", ".svn", ".shelf",
	"node_modules", ".cache", ".cargo", ".npm",
	"__pycache__", ".venv", "venv",
}

// IgnoreList holds patterns loaded from a .shelfignore file plus the
// built-in directory denylist. Matching entries are excluded from scanning.
type IgnoreList struct {
	patterns []ignorePattern
	denyDirs map[string]struct{}
}

type ignorePattern struct {
	pattern string
	dirOnly bool // trailing / in source line
}

// LoadIgnoreList reads a .shelfignore file and returns an IgnoreList.
// A missing or unreadable file yields just the built-in denylist.
func LoadIgnoreList(fs afero.Fs, path string) *IgnoreList {
	il := &IgnoreList{denyDirs: make(map[string]struct{}, len(defaultDenyDirs))}
	for _, d := range defaultDenyDirs {
		il.denyDirs[d] = struct{}{}
	}

	f, err := fs.Open(path)
	if err != nil {
		return il
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		p := ignorePattern{pattern: line}
		if strings.HasSuffix(line, "/") {
			p.pattern = strings.TrimSuffix(line, "/")
			p.dirOnly = true
		}
		il.patterns = append(il.patterns, p)
	}

	return il
}

// IsIgnored returns true if the given entry name matches the denylist or
// any ignore pattern. For dirOnly patterns, isDir must be true to match.
func (il *IgnoreList) IsIgnored(name string, isDir bool) bool {
	if il == nil {
		return false
	}
	if isDir {
		if _, deny := il.denyDirs[name]; deny {
			return true
		}
	}
	for _, p := range il.patterns {
		if p.dirOnly && !isDir {
			continue
		}
		if matched, _ := filepath.Match(p.pattern, name); matched {
			return true
		}
	}
	return false
}
