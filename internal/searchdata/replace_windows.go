//go:build windows

package searchdata

import (
	"fmt"
	"time"

	"golang.org/x/sys/windows"
)

// ReplaceFile moves src over dst.
//
// Browsers and indexers on Windows can hold the old file open for a moment;
// we retry for a short period before giving up.
func ReplaceFile(src, dst string) error {
	from, err := windows.UTF16PtrFromString(src)
	if err != nil {
		return err
	}
	to, err := windows.UTF16PtrFromString(dst)
	if err != nil {
		return err
	}

	var lastErr error
	for i := 0; i < 15; i++ {
		lastErr = windows.MoveFileEx(from, to, windows.MOVEFILE_REPLACE_EXISTING|windows.MOVEFILE_WRITE_THROUGH)
		if lastErr == nil {
			return nil
		}
		time.Sleep(200 * time.Millisecond)
	}
	return fmt.Errorf("cannot replace %s: %w", dst, lastErr)
}
