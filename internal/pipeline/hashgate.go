package pipeline

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/windgrid/gis-assets-etl/internal/domain"
)

// IsDataUpdated compares the dataset's content fingerprint against the
// sidecar hash file. An equal stored fingerprint returns false and leaves
// the file untouched; otherwise the new fingerprint is written and the
// result is true.
//
// The write is a side effect of the check: call it exactly once per run per
// dataset, since a second call in the same run always observes "unchanged".
// The read-then-write is unlocked; concurrent runs against the same hash
// file are unsupported.
func IsDataUpdated(ds *domain.Dataset, hashPath string, logger *slog.Logger) (bool, error) {
	newHash := domain.Fingerprint(ds)
	logger.Info("using hash file", "path", hashPath)

	stored, err := os.ReadFile(hashPath)
	switch {
	case err == nil:
		if strings.TrimSpace(string(stored)) == newHash {
			logger.Info("data is identical to the previous version", "dataset", ds.Name)
			return false, nil
		}
	case !errors.Is(err, os.ErrNotExist):
		return false, fmt.Errorf("read hash file %s: %w", hashPath, err)
	}

	if err := os.WriteFile(hashPath, []byte(newHash+"\n"), 0o644); err != nil {
		return false, fmt.Errorf("write hash file %s: %w", hashPath, err)
	}
	logger.Info("new data detected", "dataset", ds.Name, "fingerprint", newHash)
	return true, nil
}
