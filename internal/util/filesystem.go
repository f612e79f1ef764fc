package util

import (
	"os"
	"path/filepath"
	"syscall"
)

// IsSameFilesystem checks if two paths are on the same filesystem
// by comparing their device IDs (st_dev).
// A path that does not exist yet is resolved to its nearest existing parent.
func IsSameFilesystem(path1, path2 string) (bool, error) {
	stat1, err := os.Stat(existingAncestor(path1))
	if err != nil {
		return false, err
	}

	stat2, err := os.Stat(existingAncestor(path2))
	if err != nil {
		return false, err
	}

	sysStat1, ok1 := stat1.Sys().(*syscall.Stat_t)
	sysStat2, ok2 := stat2.Sys().(*syscall.Stat_t)
	if !ok1 || !ok2 {
		return false, nil
	}

	return sysStat1.Dev == sysStat2.Dev, nil
}

// FileExists reports whether path exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func existingAncestor(path string) string {
	for {
		if _, err := os.Stat(path); err == nil {
			return path
		}
		parent := filepath.Dir(path)
		if parent == path {
			return path
		}
		path = parent
	}
}
