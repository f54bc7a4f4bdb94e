package cli

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/fluxion-lang/fluxion/pkg"
)

// defaultDirMode is the permission mode for created directories.
var defaultDirMode os.FileMode = 0o700

// cacheDir returns the cache directory path used for transient files such
// as REPL history and profiler output.
var cacheDir = sync.OnceValue(
	func() string {
		dir, err := os.UserCacheDir()
		if err != nil {
			dir, err = os.UserHomeDir()
			if err == nil {
				dir = filepath.Join(dir, ".cache")
			} else {
				dir, err = os.Getwd()
				if err != nil {
					dir = "."
				}
			}
		}

		return filepath.Join(dir, pkg.Name)
	},
)

// mkdirAllRequired creates all required runtime directories.
func mkdirAllRequired() error {
	return os.MkdirAll(cacheDir(), defaultDirMode)
}
