// Package fs provides file-based storage: the content-addressed image
// store, the durable manifest, and the run-state checkpoint file. All
// catalog writes go through temp-file-plus-rename with rotating backups,
// so a crash at any point leaves the last committed snapshot intact.
package fs

import (
	"fmt"
	"os"
	"path/filepath"
)

// maxBackups is how many generations of a catalog file are retained.
const maxBackups = 3

// writeFileAtomic writes data to path via a temp file in the same
// directory followed by a rename.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, path)
}

// commitWithBackups rotates existing generations of path (.bak1 newest)
// and then atomically replaces path with data.
func commitWithBackups(path string, data []byte) error {
	// Rotate: bak2 -> bak3, bak1 -> bak2, current -> bak1.
	for i := maxBackups - 1; i >= 1; i-- {
		from := backupPath(path, i)
		to := backupPath(path, i+1)
		if _, err := os.Stat(from); err == nil {
			if err := os.Rename(from, to); err != nil {
				return err
			}
		}
	}
	if _, err := os.Stat(path); err == nil {
		if err := copyFile(path, backupPath(path, 1)); err != nil {
			return err
		}
	}
	return writeFileAtomic(path, data)
}

// backupPath returns the path of the n-th backup generation (1 = newest).
func backupPath(path string, n int) string {
	return fmt.Sprintf("%s.bak%d", path, n)
}

// backupPaths returns all backup generations, newest first.
func backupPaths(path string) []string {
	paths := make([]string, 0, maxBackups)
	for i := 1; i <= maxBackups; i++ {
		paths = append(paths, backupPath(path, i))
	}
	return paths
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return writeFileAtomic(dst, data)
}
