package tracker

import (
	"fmt"
	"os"

	"github.com/spf13/afero"
)

// ComputeStatus classifies a tracked entry against the live filesystem.
// An absent file is Missing; otherwise the current bytes are fingerprinted and
// compared to the stored baseline. Pure and side-effect-free: it never
// touches the store.
func ComputeStatus(fs afero.Fs, e Entry) (Status, error) {
	info, err := fs.Stat(e.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return StatusMissing, nil
		}
		return StatusMissing, fmt.Errorf("stat %s: %w", e.Path, err)
	}
	if info.IsDir() {
		// The tracked file was replaced by a directory; the baseline
		// content is gone as far as dirty detection is concerned.
		return StatusMissing, nil
	}

	_, fp, err := readAndFingerprint(fs, e.Path)
	if err != nil {
		return StatusMissing, err
	}
	if fp == e.Fingerprint {
		return StatusClean, nil
	}
	return StatusDirty, nil
}
