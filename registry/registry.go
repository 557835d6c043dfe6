// Package registry implements the compiled-in dispatch tables (spec §4.1,
// §6): the archive type-id → suffix mapping used to auto-detect a container
// from a file name, and the parallel type-id → decompressor mapping TAR uses
// to select the byte-stream to read through.
//
// The tables are ordered; Resolve and ResolveDecompressor both return the
// first row whose suffix list matches, exactly as the teacher's own
// nabbar-golib/archive/archive.Algorithm.DetectHeader switch statement picks
// the first matching case.
package registry

import (
	"strings"

	"github.com/nguyengg/xarc/xarcerr"
)

// Type is the opaque archive-type id (spec §6). The numeric assignment is
// part of this module's ABI but otherwise meaningless to callers; Auto (0)
// requests suffix-based detection.
type Type uint8

const (
	// Auto requests detection by file-name suffix.
	Auto Type = 0

	Zip Type = iota
	SevenZip
	Tar
	TarGzip
	TarBzip2
	TarLzma
	TarXz
)

// Decompressor is the opaque id for a standalone (or TAR-composed)
// decompression stream.
type Decompressor uint8

const (
	NoDecompressor Decompressor = 0

	Gzip Decompressor = iota
	Bzip2
	Lzma
	Xz
)

// containerRow associates a Type with its recognized suffixes and, for the
// compressed-TAR rows, the Decompressor composed underneath the TAR reader.
type containerRow struct {
	typ      Type
	name     string
	suffixes []string
	decomp   Decompressor
}

// table is intentionally ordered: suffix resolution walks it front-to-back
// and the first match wins (spec §4.1 "Tie-break").
var table = []containerRow{
	{Zip, "zip", []string{".zip"}, NoDecompressor},
	{SevenZip, "7z", []string{".7z"}, NoDecompressor},
	{TarGzip, "tar+gzip", []string{".tar.gz", ".tgz"}, Gzip},
	{TarBzip2, "tar+bzip2", []string{".tar.bz2", ".tbz2"}, Bzip2},
	{TarLzma, "tar+lzma", []string{".tar.lzma"}, Lzma},
	{TarXz, "tar+xz", []string{".tar.xz", ".txz"}, Xz},
	{Tar, "tar", []string{".tar"}, NoDecompressor},
}

// decompRow associates a Decompressor id with the suffixes used when it is
// requested standalone (spec §4.2's decompressor-only registry).
type decompRow struct {
	id       Decompressor
	name     string
	suffixes []string
}

var decompTable = []decompRow{
	{Gzip, "gzip", []string{".gz"}},
	{Bzip2, "bzip2", []string{".bz2"}},
	{Lzma, "lzma", []string{".lzma"}},
	{Xz, "xz", []string{".xz"}},
}

func hasSuffixFold(path string, suffixes []string) bool {
	lower := strings.ToLower(path)
	for _, s := range suffixes {
		if strings.HasSuffix(lower, s) {
			return true
		}
	}
	return false
}

// Resolve implements spec §4.1's `resolve(path, explicit_type)`.
//
// If explicit is not Auto, the row for that id is returned directly (it is
// an error only if the id is not one compiled into the table). Otherwise
// the table is walked in order and the first row whose suffix list matches
// the tail of path (case-insensitively) wins.
func Resolve(path string, explicit Type) (typ Type, decomp Decompressor, err error) {
	if explicit != Auto {
		for _, row := range table {
			if row.typ == explicit {
				return row.typ, row.decomp, nil
			}
		}
		return Auto, NoDecompressor, xarcerr.New(xarcerr.UnrecognizedArchive, 0, "unrecognized archive type id %d", explicit)
	}

	for _, row := range table {
		if hasSuffixFold(path, row.suffixes) {
			return row.typ, row.decomp, nil
		}
	}

	return Auto, NoDecompressor, xarcerr.New(xarcerr.UnrecognizedArchive, 0, "cannot determine archive type from name %q", path)
}

// ResolveDecompressor implements the decompressor-only analogue of Resolve,
// used when a caller opens a standalone compressed stream rather than an
// archive container.
func ResolveDecompressor(path string, explicit Decompressor) (Decompressor, error) {
	if explicit != NoDecompressor {
		for _, row := range decompTable {
			if row.id == explicit {
				return row.id, nil
			}
		}
		return NoDecompressor, xarcerr.New(xarcerr.UnrecognizedCompression, 0, "unrecognized decompressor id %d", explicit)
	}

	for _, row := range decompTable {
		if hasSuffixFold(path, row.suffixes) {
			return row.id, nil
		}
	}

	return NoDecompressor, xarcerr.New(xarcerr.UnrecognizedCompression, 0, "cannot determine compression from name %q", path)
}

// Name returns the symbolic name of a container Type, for diagnostics.
func (t Type) Name() string {
	for _, row := range table {
		if row.typ == t {
			return row.name
		}
	}
	return "unknown"
}

// Name returns the symbolic name of a Decompressor, for diagnostics.
func (d Decompressor) Name() string {
	for _, row := range decompTable {
		if row.id == d {
			return row.name
		}
	}
	return "none"
}
