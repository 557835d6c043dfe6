// Package container defines the capability set shared by the three archive
// backends (ziparc, sevenzarc, tararc) and the Entry value they produce.
//
// Per spec §9's design note, polymorphism here is a tagged variant over the
// three concrete handler types dispatched through one capability set,
// rather than the original library's handwritten vtable-next-to-opaque-state
// struct. Go's interfaces give this for free.
package container

import (
	"io"

	"github.com/nguyengg/xarc/internal/fsx"
)

// IsDirectory is the only entry property bit defined.
const IsDirectory uint8 = 0x1

// Entry describes the archive member currently under the cursor.
//
// Path is owned by the Handler that produced it and is only guaranteed
// valid until the next call to Next or Close, matching the borrow
// discipline spec §9 calls for.
type Entry struct {
	Path       string
	Properties uint8
	ModTime    fsx.Timestamp
}

// IsDir reports whether Properties has IsDirectory set.
func (e Entry) IsDir() bool {
	return e.Properties&IsDirectory != 0
}

// Handler is the uniform capability set every container backend implements.
//
// Cursor discipline is normalized across backends (spec §9 "Cursor
// asymmetry" names this as the clean-redesign option and this module takes
// it): every backend positions before the first entry when Open returns,
// so the first Next call advances onto entry 0 for ZIP, 7z, and TAR alike.
// Callers always call Next before the first Info.
type Handler interface {
	// Next advances the cursor to the next entry. It returns an
	// *xarcerr.Error with Kind xarcerr.NoMoreItems when iteration is
	// exhausted.
	Next() error

	// Info returns the entry currently under the cursor. Info may be
	// called repeatedly without advancing the cursor.
	Info() (Entry, error)

	// Extract streams the current entry's file content to w. Calling
	// Extract on a directory entry is a no-op.
	Extract(w io.Writer) error

	// SetProps restores mode/mtime attributes the container recorded for
	// the current entry onto the already-materialized filesystem path.
	SetProps(path string) error

	// Close releases every resource the handler opened (file handles,
	// decompressor state, codec caches). Close is idempotent.
	Close() error
}
