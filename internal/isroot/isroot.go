//go:build !windows

// Package isroot detects privileged processes.
package isroot

import "os"

// IsRoot reports whether files created by this process will be owned by root.
func IsRoot() bool {
	return os.Geteuid() == 0
}
