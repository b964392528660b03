// Package gitremote implements the RemoteSync capability over the
// installed git binary, with a local mirror clone as the staging area.
// Git's own wire protocol stays behind the git executable.
package gitremote

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/shelf-sh/shelf/tracker"
)

const defaultBranch = "main"

// GitRemote stages tracked bytes in a work tree and moves them through
// git commit/push/fetch. The ref passed to Fetch/Push is the remote URL.
type GitRemote struct {
	dir    string // local mirror clone
	branch string
	// CommitMessage overrides the generated change recap when non-empty.
	CommitMessage string
}

// New creates a GitRemote staging into dir. Fails when git is not
// installed.
func New(dir string) (*GitRemote, error) {
	if _, err := exec.LookPath("git"); err != nil {
		return nil, fmt.Errorf("git executable not installed: %w", err)
	}
	return &GitRemote{dir: dir, branch: defaultBranch}, nil
}

// Fetch clones or updates the mirror from ref and returns its content
// keyed by logical path. Safe to retry: it only reads from the remote.
func (g *GitRemote) Fetch(ctx context.Context, ref string) (map[string][]byte, error) {
	if err := g.ensureClone(ctx, ref); err != nil {
		return nil, err
	}
	if err := g.git(ctx, "fetch", "origin", g.branch); err != nil {
		return nil, fmt.Errorf("%w: %v", tracker.ErrTransport, err)
	}
	if err := g.git(ctx, "reset", "--hard", "origin/"+g.branch); err != nil {
		return nil, fmt.Errorf("reset to remote: %w", err)
	}

	files := make(map[string][]byte)
	err := filepath.WalkDir(g.dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(g.dir, path)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		files[logicalPath(rel)] = data
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read mirror: %w", err)
	}
	return files, nil
}

// Push writes the given files into the work tree, commits with a change
// recap, and pushes once. The caller decides whether to retry.
func (g *GitRemote) Push(ctx context.Context, ref string, files map[string][]byte) error {
	if err := g.ensureClone(ctx, ref); err != nil {
		return err
	}

	for path, data := range files {
		target := filepath.Join(g.dir, stagedPath(path))
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return fmt.Errorf("stage %s: %w", path, err)
		}
		if err := os.WriteFile(target, data, 0o644); err != nil {
			return fmt.Errorf("stage %s: %w", path, err)
		}
	}

	if err := g.git(ctx, "add", "-A"); err != nil {
		return fmt.Errorf("stage changes: %w", err)
	}

	status, err := g.gitOut(ctx, "status", "--porcelain")
	if err != nil {
		return fmt.Errorf("status: %w", err)
	}
	if strings.TrimSpace(status) == "" {
		return nil // nothing changed
	}

	msg := g.CommitMessage
	if msg == "" {
		msg = changeRecap(status)
	}
	if err := g.git(ctx, "commit", "-m", msg); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	if err := g.git(ctx, "push", "origin", "HEAD:"+g.branch); err != nil {
		return fmt.Errorf("%w: %v", tracker.ErrTransport, err)
	}
	return nil
}

// ensureClone initializes the mirror and points origin at ref.
func (g *GitRemote) ensureClone(ctx context.Context, ref string) error {
	if _, err := os.Stat(filepath.Join(g.dir, ".git")); err == nil {
		// Keep origin in sync with the requested ref.
		return g.git(ctx, "remote", "set-url", "origin", ref)
	}
	if err := os.MkdirAll(g.dir, 0o750); err != nil {
		return fmt.Errorf("create mirror dir: %w", err)
	}
	if err := g.git(ctx, "init", "-b", g.branch); err != nil {
		return fmt.Errorf("init mirror: %w", err)
	}
	return g.git(ctx, "remote", "add", "origin", ref)
}

func (g *GitRemote) git(ctx context.Context, args ...string) error {
	_, err := g.gitOut(ctx, args...)
	return err
}

func (g *GitRemote) gitOut(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = g.dir
	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("git %s: %v: %s", args[0], err, strings.TrimSpace(stderr.String()))
	}
	return out.String(), nil
}

// changeRecap summarizes the staged changes for the commit message, one
// line per path.
func changeRecap(porcelain string) string {
	var b strings.Builder
	b.WriteString("Tracked files updated:\n")
	for _, line := range strings.Split(strings.TrimRight(porcelain, "\n"), "\n") {
		if len(line) > 3 {
			fmt.Fprintf(&b, "  - %s: %s\n", strings.TrimSpace(line[:2]), line[3:])
		}
	}
	return b.String()
}

// stagedPath maps a logical absolute path to a repo-relative one.
func stagedPath(logical string) string {
	return strings.TrimPrefix(filepath.Clean(logical), string(os.PathSeparator))
}

// logicalPath restores the absolute logical path from a repo-relative one.
func logicalPath(rel string) string {
	return string(os.PathSeparator) + filepath.ToSlash(rel)
}
