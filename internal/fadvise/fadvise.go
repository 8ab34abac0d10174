// Package fadvise hints kernel about file access pattern where supported.
package fadvise

import "os"

// Sequential tells kernel that f will be read sequentially so it may read ahead more aggressively.
// Non-regular files are ignored.
func Sequential(f *os.File) error {
	st, err := f.Stat()
	if err != nil {
		return err
	}

	if !st.Mode().IsRegular() {
		return nil
	}

	return sequential(f)
}
