// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package batch

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// LockFile is created inside a folder while a batch owns it.
const LockFile = ".clause-risk.lock"

// ErrFolderLocked means another process holds the folder's lock file. A
// lock left behind by a crashed run is reported the same way and has to be
// removed by hand.
var ErrFolderLocked = errors.New("folder is locked by another run")

// folderLocks serializes runs over one folder within this process.
var folderLocks sync.Map // absolute path -> *sync.Mutex

// Lock takes the folder lock: first the in-process mutex for the folder,
// blocking until it is free, then the lock file, failing with
// ErrFolderLocked if it exists. The returned func releases both.
func Lock(folder string) (func() error, error) {
	abs, err := filepath.Abs(folder)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", folder, err)
	}
	v, _ := folderLocks.LoadOrStore(abs, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()

	path := filepath.Join(abs, LockFile)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		mu.Unlock()
		if errors.Is(err, fs.ErrExist) {
			return nil, fmt.Errorf("%s: %w", abs, ErrFolderLocked)
		}
		return nil, fmt.Errorf("creating lock file: %w", err)
	}
	fmt.Fprintf(f, "pid=%d\nstarted=%s\n", os.Getpid(), time.Now().UTC().Format(time.RFC3339))
	f.Close()

	var once sync.Once
	return func() error {
		var rmErr error
		once.Do(func() {
			rmErr = os.Remove(path)
			mu.Unlock()
		})
		return rmErr
	}, nil
}
