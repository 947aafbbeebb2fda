//go:build unix

package security

import "golang.org/x/sys/unix"

// IsPrivileged процесс запущен от root
func IsPrivileged() bool {
	return unix.Geteuid() == 0
}
