// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package acquire

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// lockFile is created inside the save directory while a run is active.
const lockFile = ".dailymed.lock"

// ErrSaveDirLocked reports that another run holds the save directory.
var ErrSaveDirLocked = errors.New("save directory is in use by another run")

// LockSaveDir takes an exclusive advisory lock on dir, creating dir if
// needed. The caller releases it with Unlock.
func LockSaveDir(dir string) (*flock.Flock, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating save directory %s: %w", dir, err)
	}
	fl := flock.New(filepath.Join(dir, lockFile))
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("locking %s: %w", dir, err)
	}
	if !ok {
		return nil, fmt.Errorf("%s: %w", dir, ErrSaveDirLocked)
	}
	return fl, nil
}
