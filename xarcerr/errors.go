// Package xarcerr defines the error taxonomy shared by every xarc component.
//
// It mirrors the way github.com/nabbar/golib/errors and the teacher's own
// fmt.Errorf("...: %w", err) style report failures, but scoped to the small,
// fixed set of kinds an archive-extraction library can produce. Every
// exported error is a *Error, so callers can use errors.As to recover the
// Kind and the underlying library/errno code instead of string-matching
// messages.
package xarcerr

import (
	"errors"
	"fmt"
)

// Kind classifies an Error the way spec §7 does. The numeric values match
// the wire values a C caller of the original library would observe.
type Kind int32

const (
	// OK is the zero value; never appears on a populated Error.
	OK Kind = 0

	// NoMoreItems is a soft terminal: iteration is exhausted.
	NoMoreItems Kind = 1

	// DecompressEOF is a soft terminal for a standalone decompressor stream.
	DecompressEOF Kind = 2

	// ModuleError is a hard error private to a container module (TAR/ZIP/7z);
	// Code carries the module's own sub-code (see Tar* and Zip* constants).
	ModuleError Kind = -1

	// DecompressError is a hard error from a codec (gzip/bzip2/lzma/xz).
	DecompressError Kind = -2

	// FilesystemError is a hard error from a host filesystem call; Code
	// carries the errno (or platform equivalent) when available.
	FilesystemError Kind = -3

	// UnrecognizedArchive means resolve found no container module for a path/type.
	UnrecognizedArchive Kind = -4

	// UnrecognizedCompression means resolve_decompressor found no decompressor.
	UnrecognizedCompression Kind = -5

	// NotValidArchive means the path matched a container by suffix/id but
	// failed format validation during open.
	NotValidArchive Kind = -6

	// DirIsFile means an ancestor of an extraction target path is a regular file.
	DirIsFile Kind = -7

	// NoBasePath means the base directory given to Extract does not exist.
	NoBasePath Kind = -8
)

func (k Kind) String() string {
	switch k {
	case OK:
		return "ok"
	case NoMoreItems:
		return "no more items"
	case DecompressEOF:
		return "decompressor end of stream"
	case ModuleError:
		return "module error"
	case DecompressError:
		return "decompress error"
	case FilesystemError:
		return "filesystem error"
	case UnrecognizedArchive:
		return "unrecognized archive"
	case UnrecognizedCompression:
		return "unrecognized compression"
	case NotValidArchive:
		return "not a valid archive"
	case DirIsFile:
		return "directory path is an existing file"
	case NoBasePath:
		return "base path does not exist"
	default:
		return "unknown error"
	}
}

// Module-private sub-codes carried in Error.Code when Kind is ModuleError.
//
// TAR uses small negative values and ZIP uses -100..-105. The 7z backend
// defines no sub-codes: github.com/bodgit/sevenzip reports plain Go errors,
// so 7z module errors carry Code 0.
const (
	TarTruncated int32 = -1
	TarCorrupt   int32 = -2

	ZipOpenFailed    int32 = -100
	ZipCentralDirErr int32 = -101
	ZipBadHeader     int32 = -102
	ZipCRCMismatch   int32 = -103
	ZipBadName       int32 = -104
	ZipUnsupported   int32 = -105
)

// Error is the concrete error value produced by every xarc component.
//
// It satisfies the standard error interface and also participates in
// errors.Is/errors.As via Unwrap, so a caller that only cares about the
// underlying os.PathError (for example) can still get at it.
type Error struct {
	// Kind classifies the failure.
	Kind Kind
	// Code carries a library-specific or errno sub-code; 0 if not applicable.
	Code int32
	// Detail is a formatted human-readable message naming the offending
	// path or action.
	Detail string
	// Parent is the wrapped cause, if any.
	Parent error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Detail == "" {
		return e.Kind.String()
	}
	return e.Detail
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Parent
}

// Is reports whether target is an *Error with the same Kind, so callers can
// write `errors.Is(err, xarcerr.New(xarcerr.NoMoreItems, 0, ""))` or, more
// idiomatically, compare against the Kind sentinels directly via As.
func (e *Error) Is(target error) bool {
	var o *Error
	if !errors.As(target, &o) {
		return false
	}
	return e.Kind == o.Kind
}

// New builds an *Error with a formatted detail message.
func New(kind Kind, code int32, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Code: code, Detail: fmt.Sprintf(format, args...)}
}

// Wrap builds an *Error that also carries the underlying cause, the way
// fmt.Errorf("...: %w", err) would, but tagged with a Kind/Code.
func Wrap(kind Kind, code int32, parent error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Code: code, Detail: fmt.Sprintf(format, args...), Parent: parent}
}

// Filesystem builds a FilesystemError, capturing errno-equivalent
// information from a *os.PathError/*os.LinkError style parent when present.
func Filesystem(parent error, format string, args ...interface{}) *Error {
	return Wrap(FilesystemError, errnoOf(parent), parent, format, args...)
}

// NoMore returns the canonical soft-terminal "no more items" error.
func NoMore() *Error {
	return &Error{Kind: NoMoreItems, Detail: "no more items"}
}

// EOF returns the canonical soft-terminal decompressor end-of-stream error.
func EOF() *Error {
	return &Error{Kind: DecompressEOF, Detail: "end of compressed stream"}
}

// Ok reports whether err is nil or, as a convenience for callers probing a
// *Error directly, whether its Kind is OK.
func Ok(err error) bool {
	if err == nil {
		return true
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == OK
	}
	return false
}

// IsSoftTerminal reports whether err represents NoMoreItems or DecompressEOF,
// i.e. iteration ended without a hard failure.
func IsSoftTerminal(err error) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == NoMoreItems || e.Kind == DecompressEOF
}
