package ocean

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// writeDownload persists a retrieved file under destDir, named after the
// asset so repeated downloads of the same DID overwrite in place.
func writeDownload(destDir, did string, data []byte) (string, error) {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", fmt.Errorf("ocean: create download dir %q: %w", destDir, err)
	}

	name := strings.TrimPrefix(did, "did:op:")
	if len(name) > 16 {
		name = name[:16]
	}
	path := filepath.Join(destDir, name)

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("ocean: write download %q: %w", path, err)
	}
	return path, nil
}
