package tracker

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/samber/lo"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"
)

// trackConcurrency bounds parallel fingerprinting during batch tracking.
const trackConcurrency = 8

// Prompter is the interactive-choice boundary. Only suggest and sync
// conflict resolution invoke it; status and list queries never do.
type Prompter interface {
	ChooseMany(title string, options []string) ([]string, error)
	ChooseOne(title string, options []string) (string, error)
}

// TrackResult reports the per-path outcome of a batch track operation.
type TrackResult struct {
	Path  string
	Entry *Entry
	Err   error
}

// Reconciler applies add/remove/save/restore operations against the store
// while preserving the unique-path and baseline invariants.
type Reconciler struct {
	store *Store
	fs    afero.Fs
	canon func(string) (string, error)
}

// NewReconciler creates a Reconciler over the given store and filesystem.
func NewReconciler(store *Store, fs afero.Fs) *Reconciler {
	r := &Reconciler{store: store, fs: fs}
	if _, ok := fs.(*afero.OsFs); ok {
		r.canon = canonicalOS
	} else {
		r.canon = canonicalClean
	}
	return r
}

// canonicalOS resolves symlinks so that aliases of the same file map to a
// single entry. When the file itself no longer exists, the parent directory
// is still resolved and the base name re-joined, so a deleted file reached
// through a symlinked parent maps to the same entry it was tracked under.
func canonicalOS(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("absolutize %s: %w", path, err)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved, nil
	}
	if dir, err := filepath.EvalSymlinks(filepath.Dir(abs)); err == nil {
		return filepath.Join(dir, filepath.Base(abs)), nil
	}
	return filepath.Clean(abs), nil
}

func canonicalClean(path string) (string, error) {
	if !filepath.IsAbs(path) {
		return "", fmt.Errorf("%s: relative paths require an OS filesystem", path)
	}
	return filepath.Clean(path), nil
}

// Track canonicalizes path, fingerprints the file, and inserts a new entry.
// Fails with ErrPathNotFound, ErrNotAFile, or ErrAlreadyTracked.
func (r *Reconciler) Track(path string) (*Entry, error) {
	l := sub("reconciler")
	cpath, err := r.canon(path)
	if err != nil {
		return nil, err
	}

	info, err := r.fs.Stat(cpath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", cpath, ErrPathNotFound)
		}
		return nil, fmt.Errorf("stat %s: %w", cpath, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s: %w", cpath, ErrNotAFile)
	}

	content, fp, err := readAndFingerprint(r.fs, cpath)
	if err != nil {
		return nil, err
	}

	now := nowFunc().UnixNano()
	e := Entry{
		Path:        cpath,
		Fingerprint: fp,
		Content:     content,
		TrackedAt:   now,
		SavedAt:     now,
	}
	if err := r.store.Add(e); err != nil {
		return nil, err
	}
	l.Info("tracked", "path", cpath, "fingerprint", fp)
	return &e, nil
}

// Retrack accepts the file's current bytes as the baseline for a path,
// inserting the entry when it was never tracked and replacing the baseline
// when it was. The original tracked_at survives a replace.
func (r *Reconciler) Retrack(path string) (*Entry, error) {
	cpath, err := r.canon(path)
	if err != nil {
		return nil, err
	}

	info, err := r.fs.Stat(cpath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", cpath, ErrPathNotFound)
		}
		return nil, fmt.Errorf("stat %s: %w", cpath, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s: %w", cpath, ErrNotAFile)
	}

	content, fp, err := readAndFingerprint(r.fs, cpath)
	if err != nil {
		return nil, err
	}

	now := nowFunc().UnixNano()
	e := Entry{
		Path:        cpath,
		Fingerprint: fp,
		Content:     content,
		TrackedAt:   now,
		SavedAt:     now,
	}
	if err := r.store.Upsert(e); err != nil {
		return nil, err
	}
	sub("reconciler").Info("retracked", "path", cpath, "fingerprint", fp)
	return r.store.Get(cpath)
}

// TrackAll tracks a batch of paths, fingerprinting in parallel. One
// unreadable path never aborts the rest; outcomes are reported per path
// in input order.
func (r *Reconciler) TrackAll(paths []string) []TrackResult {
	results := make([]TrackResult, len(paths))

	var g errgroup.Group
	g.SetLimit(trackConcurrency)
	for i, p := range paths {
		i, p := i, p
		g.Go(func() error {
			entry, err := r.Track(p)
			results[i] = TrackResult{Path: p, Entry: entry, Err: err}
			return nil
		})
	}
	g.Wait() //nolint:errcheck

	ok := lo.CountBy(results, func(tr TrackResult) bool { return tr.Err == nil })
	sub("reconciler").Info("batch track complete", "requested", len(paths), "tracked", ok)
	return results
}

// Untrack removes an entry. In recursive mode every entry under the given
// directory prefix is removed and zero matches is a reported no-op; in
// non-recursive mode a missing exact match fails with ErrNotTracked.
func (r *Reconciler) Untrack(path string, recursive bool) (int, error) {
	cpath, err := r.canon(path)
	if err != nil {
		return 0, err
	}

	if recursive {
		n, err := r.store.RemoveTree(cpath)
		if err != nil {
			return 0, err
		}
		sub("reconciler").Info("untracked tree", "prefix", cpath, "removed", n)
		return n, nil
	}

	if err := r.store.Remove(cpath); err != nil {
		return 0, err
	}
	sub("reconciler").Info("untracked", "path", cpath)
	return 1, nil
}

// Save recomputes the fingerprint from the current file bytes and advances
// the baseline. This is the only operation that does so. A Missing file
// fails with ErrPathNotFound and the entry stays until an explicit untrack.
func (r *Reconciler) Save(path string) (*Entry, error) {
	cpath, err := r.canon(path)
	if err != nil {
		return nil, err
	}

	existing, err := r.store.Get(cpath)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, fmt.Errorf("%s: %w", cpath, ErrNotTracked)
	}

	if _, serr := r.fs.Stat(cpath); serr != nil {
		if os.IsNotExist(serr) {
			return nil, fmt.Errorf("save %s: %w", cpath, ErrPathNotFound)
		}
		return nil, fmt.Errorf("stat %s: %w", cpath, serr)
	}

	content, fp, err := readAndFingerprint(r.fs, cpath)
	if err != nil {
		return nil, err
	}

	updated, err := r.store.UpdateBaseline(cpath, fp, content, nowFunc().UnixNano())
	if err != nil {
		return nil, err
	}
	sub("reconciler").Info("saved", "path", cpath, "fingerprint", fp)
	return updated, nil
}

// Restore rewrites a Dirty or Missing file from the stored baseline bytes.
// A Clean file is left untouched. The baseline itself never changes.
func (r *Reconciler) Restore(path string) error {
	cpath, err := r.canon(path)
	if err != nil {
		return err
	}

	e, err := r.store.Get(cpath)
	if err != nil {
		return err
	}
	if e == nil {
		return fmt.Errorf("%s: %w", cpath, ErrNotTracked)
	}

	st, err := ComputeStatus(r.fs, *e)
	if err != nil {
		return err
	}
	if st == StatusClean {
		sub("reconciler").Debug("restore no-op, already clean", "path", cpath)
		return nil
	}

	if err := writeFileAtomic(r.fs, cpath, e.Content); err != nil {
		return fmt.Errorf("restore %s: %w", cpath, err)
	}
	sub("reconciler").Info("restored", "path", cpath, "fingerprint", e.Fingerprint)
	return nil
}

// List returns all tracked entries with computed status, ordered by path.
// With dirtyOnly set, only Dirty and Missing entries are returned.
// Read-only; the store is never mutated.
func (r *Reconciler) List(dirtyOnly bool) ([]EntryStatus, error) {
	entries, err := r.store.List()
	if err != nil {
		return nil, err
	}

	out := make([]EntryStatus, 0, len(entries))
	for _, e := range entries {
		st, err := ComputeStatus(r.fs, e)
		if err != nil {
			sub("reconciler").Warn("status check failed", "path", e.Path, "err", err)
		}
		out = append(out, EntryStatus{Entry: e, Status: st})
	}

	if dirtyOnly {
		out = lo.Filter(out, func(es EntryStatus, _ int) bool {
			return es.Status == StatusDirty || es.Status == StatusMissing
		})
	}
	return out, nil
}

// Status computes the status of a single tracked path.
func (r *Reconciler) Status(path string) (*EntryStatus, error) {
	cpath, err := r.canon(path)
	if err != nil {
		return nil, err
	}
	e, err := r.store.Get(cpath)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, fmt.Errorf("%s: %w", cpath, ErrNotTracked)
	}
	st, err := ComputeStatus(r.fs, *e)
	if err != nil {
		return nil, err
	}
	return &EntryStatus{Entry: *e, Status: st}, nil
}

// Get returns the stored entry for a path, or nil when untracked.
func (r *Reconciler) Get(path string) (*Entry, error) {
	cpath, err := r.canon(path)
	if err != nil {
		return nil, err
	}
	return r.store.Get(cpath)
}

// Suggest scans the given roots for candidate files, merges in the curated
// dotfile suggestions, drops already-tracked paths, and hands the rest to
// the prompter for multi-select. Accepted selections are tracked as a batch
// with per-path results.
func (r *Reconciler) Suggest(scanner *Scanner, roots []string, rules ScanRules, prompter Prompter) ([]TrackResult, []ScanWarning, error) {
	l := sub("reconciler")

	tracked, err := r.store.List()
	if err != nil {
		return nil, nil, err
	}
	trackedSet := make(map[string]struct{}, len(tracked))
	for _, e := range tracked {
		trackedSet[e.Path] = struct{}{}
	}

	seen := make(map[string]struct{})
	var candidates []string
	addCandidate := func(path string) {
		cpath, err := r.canon(path)
		if err != nil {
			return
		}
		if _, dup := seen[cpath]; dup {
			return
		}
		if _, already := trackedSet[cpath]; already {
			return
		}
		seen[cpath] = struct{}{}
		candidates = append(candidates, cpath)
	}

	for _, known := range WellKnownDotfiles(r.fs) {
		addCandidate(known)
	}

	var allWarnings []ScanWarning
	for _, root := range roots {
		warnings, err := scanner.Scan(root, rules, func(path string) error {
			addCandidate(path)
			return nil
		})
		allWarnings = append(allWarnings, warnings...)
		if err != nil {
			return nil, allWarnings, err
		}
	}

	if len(candidates) == 0 {
		l.Info("suggest found no new candidates")
		return nil, allWarnings, nil
	}

	selected, err := prompter.ChooseMany("Select files to track", candidates)
	if err != nil {
		return nil, allWarnings, fmt.Errorf("prompt selection: %w", err)
	}
	if len(selected) == 0 {
		return nil, allWarnings, nil
	}

	return r.TrackAll(selected), allWarnings, nil
}

// writeFileAtomic writes via a temp file and rename so a crash never
// leaves a half-written target.
func writeFileAtomic(fs afero.Fs, path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}

	tmp := path + ".shelf-tmp"
	if err := afero.WriteFile(fs, tmp, data, 0o644); err != nil {
		return fmt.Errorf("write tmp: %w", err)
	}
	if err := fs.Rename(tmp, path); err != nil {
		fs.Remove(tmp) //nolint:errcheck
		return fmt.Errorf("rename tmp: %w", err)
	}
	return nil
}
