//go:build !windows

package searchdata

import "os"

// ReplaceFile moves src over dst. rename(2) is atomic on the same filesystem.
func ReplaceFile(src, dst string) error {
	return os.Rename(src, dst)
}
