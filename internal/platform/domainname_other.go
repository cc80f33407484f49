//go:build unix && !linux

package platform

import "golang.org/x/sys/unix"

// Only Linux carries the NIS domain name in utsname.
func domainname(*unix.Utsname) string { return "" }
