// Package charset implements the three total conversions named in spec §9's
// design notes — from_cp437, from_utf8, from_utf16le — each targeting the
// host's native string form. Go's native string type is always UTF-8
// regardless of platform (there is no POSIX/Windows split the way the
// original C library has one), so all three converge on "return a UTF-8
// Go string"; the distinction that matters is only which *source* encoding
// is being decoded.
//
// CP437 decoding is backed by golang.org/x/text, the same module the teacher
// (github.com/nguyengg/xy3) and github.com/nabbar/golib both carry as a
// transitive dependency for code-page work; UTF-16LE decoding uses the
// standard library's unicode/utf16.
package charset

import (
	"strings"
	"unicode/utf16"

	"golang.org/x/text/encoding/charmap"
)

// FromUTF8 converts a UTF-8 byte slice into a native string. The bytes are
// not validated; trailing NULs are the only thing removed.
//
// The archive formats (ZIP general-purpose bit 11, TAR) both store names as
// UTF-8 already; this function exists to keep the three converters total
// and symmetric, and to strip a trailing NUL the way C-string fields do.
func FromUTF8(b []byte) string {
	return strings.TrimRight(string(b), "\x00")
}

// FromCP437 decodes IBM Code Page 437 bytes (the ZIP "legacy" encoding used
// whenever general-purpose bit 11 is clear) into a native UTF-8 string.
func FromCP437(b []byte) string {
	b = trimTrailingNUL(b)
	if len(b) == 0 {
		return ""
	}

	out, err := charmap.CodePage437.NewDecoder().Bytes(b)
	if err != nil {
		// charmap.CodePage437 is a total 256-entry mapping; NewDecoder never
		// rejects a byte, so this path is unreachable in practice. Fall back
		// to a lossy pass-through rather than propagating a decode error
		// from what spec treats as a total conversion.
		return string(b)
	}
	return string(out)
}

// FromUTF16LE decodes a little-endian UTF-16 byte slice (7z filenames) into
// a native UTF-8 string. The 7z backend itself never calls this: bodgit/sevenzip
// decodes entry names before they reach sevenzarc, so this is exercised
// directly by its own tests only.
func FromUTF16LE(b []byte) string {
	b = trimTrailingNUL16(b)
	if len(b)%2 != 0 {
		b = b[:len(b)-1]
	}

	units := make([]uint16, len(b)/2)
	for i := range units {
		units[i] = uint16(b[2*i]) | uint16(b[2*i+1])<<8
	}

	return string(utf16.Decode(units))
}

func trimTrailingNUL(b []byte) []byte {
	for len(b) > 0 && b[len(b)-1] == 0 {
		b = b[:len(b)-1]
	}
	return b
}

func trimTrailingNUL16(b []byte) []byte {
	for len(b) >= 2 && b[len(b)-2] == 0 && b[len(b)-1] == 0 {
		b = b[:len(b)-2]
	}
	return b
}
