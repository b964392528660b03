package tracker

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/spf13/afero"
)

// Fingerprint returns the hex sha256 digest of the given bytes.
// Deterministic and machine-independent; this is the sole basis for
// dirty detection, never mtime or size.
func Fingerprint(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// readAndFingerprint reads a file and fingerprints its bytes.
// Unreadable files surface the underlying I/O error with path context.
func readAndFingerprint(fs afero.Fs, path string) ([]byte, string, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, "", fmt.Errorf("read %s: %w", path, err)
	}
	return data, Fingerprint(data), nil
}
