package transcriber

import (
	"context"
	"os"
)

// cleanupWorkDir removes a per-file scratch directory, logs warning if it fails
func (t *implTranscriber) cleanupWorkDir(ctx context.Context, dir string) {
	if err := os.RemoveAll(dir); err != nil {
		t.logger.Warn(ctx, "Failed to cleanup work dir %s: %v", dir, err)
	} else {
		t.logger.Debug(ctx, "Cleaned up work dir: %s", dir)
	}
}
