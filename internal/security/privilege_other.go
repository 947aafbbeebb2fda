//go:build !unix

package security

func IsPrivileged() bool {
	return false
}
