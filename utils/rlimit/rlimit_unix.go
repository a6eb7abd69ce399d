//go:build !windows
// +build !windows

package rlimit

import (
	"log"
	"syscall"
)

// Raise bumps RLIMIT_NOFILE's soft limit up to its hard limit, since
// pull/push can hold one file descriptor open per in-flight transfer
// worker plus the object store files they read and write.
func Raise() {
	var limits syscall.Rlimit
	if err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &limits); err != nil {
		log.Println("Failed to find rlimit from getrlimit:", err)
		return
	}

	limits.Cur = limits.Max

	if err := syscall.Setrlimit(syscall.RLIMIT_NOFILE, &limits); err != nil {
		log.Println("Failed to set rlimit:", err)
		return
	}
}
