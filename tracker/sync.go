package tracker

import (
	"context"
	"fmt"

	"github.com/cenkalti/backoff/v4"
	"github.com/spf13/afero"
)

// fetchMaxRetries bounds retry of the idempotent fetch. Pushes are never
// auto-retried; a duplicate remote mutation is worse than a reported failure.
const fetchMaxRetries = 3

// RemoteSync is the remote transport capability. Implementations return
// errors wrapping ErrTransport for unreachable/rejected remotes.
type RemoteSync interface {
	// Fetch returns the remote content keyed by logical path.
	Fetch(ctx context.Context, ref string) (map[string][]byte, error)
	// Push replaces the remote content for the given paths.
	Push(ctx context.Context, ref string, files map[string][]byte) error
}

// Conflict resolution choices offered to the prompter.
const (
	resolveKeepLocal  = "keep local"
	resolveTakeRemote = "take remote"
	resolveAbort      = "abort"
)

// Push choices for a dirty entry.
const (
	pushSave  = "save and push"
	pushSkip  = "skip this file"
	pushAbort = "abort"
)

// SyncAction describes what the coordinator did for one path.
type SyncAction string

const (
	ActionPushed        SyncAction = "pushed"
	ActionSkipped       SyncAction = "skipped"
	ActionUpdated       SyncAction = "updated"
	ActionUnchanged     SyncAction = "unchanged"
	ActionKeptLocal     SyncAction = "kept-local"
	ActionRemoteMissing SyncAction = "remote-missing"
	ActionRemoteNew     SyncAction = "remote-new"
)

// SyncResult reports the per-path outcome of a push or pull.
type SyncResult struct {
	Path   string
	Action SyncAction
	Status Status
}

// Coordinator moves reconciled state to and from a remote via the
// RemoteSync capability, resolving conflicts through the Prompter.
type Coordinator struct {
	rec      *Reconciler
	fs       afero.Fs
	remote   RemoteSync
	prompter Prompter
}

// NewCoordinator wires a Coordinator over the reconciler and remote.
func NewCoordinator(rec *Reconciler, remote RemoteSync, prompter Prompter) *Coordinator {
	return &Coordinator{rec: rec, fs: rec.fs, remote: remote, prompter: prompter}
}

// Push stages current file bytes for every Clean or Dirty entry and pushes
// them in one remote call. A Dirty entry is never pushed with a stale
// baseline: the user chooses save-and-push, skip, or abort. Missing entries
// are skipped and reported.
func (c *Coordinator) Push(ctx context.Context, ref string) ([]SyncResult, error) {
	l := sub("sync")
	listing, err := c.rec.List(false)
	if err != nil {
		return nil, err
	}

	files := make(map[string][]byte, len(listing))
	results := make([]SyncResult, 0, len(listing))
	for _, es := range listing {
		switch es.Status {
		case StatusMissing:
			l.Warn("push skipping missing file", "path", es.Entry.Path)
			results = append(results, SyncResult{Path: es.Entry.Path, Action: ActionSkipped, Status: es.Status})
			continue
		case StatusDirty:
			choice := pushSave
			if c.prompter != nil {
				choice, err = c.prompter.ChooseOne(
					fmt.Sprintf("%s has unsaved changes", es.Entry.Path),
					[]string{pushSave, pushSkip, pushAbort},
				)
				if err != nil {
					return results, fmt.Errorf("prompt push choice: %w", err)
				}
			}
			switch choice {
			case pushSkip:
				results = append(results, SyncResult{Path: es.Entry.Path, Action: ActionSkipped, Status: es.Status})
				continue
			case pushAbort:
				return results, fmt.Errorf("push %s: aborted by user", es.Entry.Path)
			}
			saved, err := c.rec.Save(es.Entry.Path)
			if err != nil {
				return results, fmt.Errorf("save before push: %w", err)
			}
			es.Entry = *saved
		}
		files[es.Entry.Path] = es.Entry.Content
		results = append(results, SyncResult{Path: es.Entry.Path, Action: ActionPushed, Status: StatusClean})
	}

	if len(files) == 0 {
		l.Info("push: nothing to stage")
		return results, nil
	}

	// Single attempt: a write is never auto-retried.
	if err := c.remote.Push(ctx, ref, files); err != nil {
		return results, fmt.Errorf("push to %s: %w", ref, err)
	}
	l.Info("pushed", "ref", ref, "files", len(files))
	return results, nil
}

// Pull fetches remote content (bounded retry, fetch is idempotent) and
// reconciles each tracked path: Clean entries are overwritten and their
// baselines advanced; Dirty entries surface a Conflict resolved through
// the prompter; nothing local changes until a resolution is applied.
func (c *Coordinator) Pull(ctx context.Context, ref string) ([]SyncResult, error) {
	l := sub("sync")

	var remoteFiles map[string][]byte
	bo := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), fetchMaxRetries), ctx)
	err := backoff.Retry(func() error {
		var ferr error
		remoteFiles, ferr = c.remote.Fetch(ctx, ref)
		return ferr
	}, bo)
	if err != nil {
		return nil, fmt.Errorf("fetch from %s: %w", ref, err)
	}
	l.Info("fetched", "ref", ref, "files", len(remoteFiles))

	entries, err := c.rec.store.List()
	if err != nil {
		return nil, err
	}

	// The fetched map belongs to the RemoteSync implementation and may be
	// shared or cached; matches are tracked locally, never deleted from it.
	matched := make(map[string]struct{}, len(entries))

	var results []SyncResult
	for _, e := range entries {
		remote, ok := remoteFiles[e.Path]
		if !ok {
			// Tracked here, gone on the remote. Reported, never auto-removed.
			results = append(results, SyncResult{Path: e.Path, Action: ActionRemoteMissing, Status: StatusDeleted})
			continue
		}
		matched[e.Path] = struct{}{}

		res, err := c.pullOne(e, remote)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}

	// Remote paths we do not track are reported for explicit adoption.
	for path := range remoteFiles {
		if _, ok := matched[path]; ok {
			continue
		}
		results = append(results, SyncResult{Path: path, Action: ActionRemoteNew})
	}
	return results, nil
}

func (c *Coordinator) pullOne(e Entry, remote []byte) (SyncResult, error) {
	l := sub("sync")
	remoteFP := Fingerprint(remote)

	st, err := ComputeStatus(c.fs, e)
	if err != nil {
		return SyncResult{}, err
	}

	if remoteFP == e.Fingerprint {
		// Baseline already matches the remote; local edits stay local.
		return SyncResult{Path: e.Path, Action: ActionUnchanged, Status: st}, nil
	}

	apply := func() (SyncResult, error) {
		if err := writeFileAtomic(c.fs, e.Path, remote); err != nil {
			return SyncResult{}, fmt.Errorf("apply remote %s: %w", e.Path, err)
		}
		if _, err := c.rec.store.UpdateBaseline(e.Path, remoteFP, remote, nowFunc().UnixNano()); err != nil {
			return SyncResult{}, err
		}
		l.Info("pulled", "path", e.Path, "fingerprint", remoteFP)
		return SyncResult{Path: e.Path, Action: ActionUpdated, Status: StatusClean}, nil
	}

	switch st {
	case StatusClean, StatusMissing:
		return apply()
	default: // Dirty: never silently overwrite user edits
		if c.prompter == nil {
			return SyncResult{}, fmt.Errorf("pull %s: %w", e.Path, ErrConflict)
		}
		choice, err := c.prompter.ChooseOne(
			fmt.Sprintf("%s diverged locally and on the remote", e.Path),
			[]string{resolveKeepLocal, resolveTakeRemote, resolveAbort},
		)
		if err != nil {
			return SyncResult{}, fmt.Errorf("prompt conflict choice: %w", err)
		}
		switch choice {
		case resolveKeepLocal:
			return SyncResult{Path: e.Path, Action: ActionKeptLocal, Status: st}, nil
		case resolveTakeRemote:
			return apply()
		default:
			return SyncResult{}, fmt.Errorf("pull %s: %w", e.Path, ErrConflict)
		}
	}
}
