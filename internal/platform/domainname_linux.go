package platform

import "golang.org/x/sys/unix"

func domainname(u *unix.Utsname) string {
	d := unix.ByteSliceToString(u.Domainname[:])
	if d == "(none)" {
		return ""
	}
	return d
}
