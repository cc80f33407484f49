package recordable

import (
	"path/filepath"
	"strings"
)

// MaxFilenameLen caps sanitized names well below the usual 255-byte
// NAME_MAX of Linux filesystems.
const MaxFilenameLen = 200

// maxExtLen is the longest extension kept when a name is shortened.
const maxExtLen = 16

// SanitizeFilename maps a recordable name onto a safe, flat file name.
// Letters, digits, '.', '_' and '-' are kept; every other rune becomes '_'.
// Leading dots are replaced so the result is never hidden, "." or "..".
// Names longer than MaxFilenameLen are cut, keeping a short extension.
func SanitizeFilename(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}

	out := []byte(b.String())
	for i := 0; i < len(out) && out[i] == '.'; i++ {
		out[i] = '_'
	}
	if len(out) == 0 {
		return "_"
	}
	res := string(out)
	if len(res) > MaxFilenameLen {
		ext := filepath.Ext(res)
		if len(ext) > maxExtLen {
			ext = ""
		}
		res = res[:MaxFilenameLen-len(ext)] + ext
	}
	return res
}
