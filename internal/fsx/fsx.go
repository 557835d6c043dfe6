// Package fsx collects the filesystem primitives the container and extract
// packages share: DOS/NTFS/Unix timestamp unification, mkdir-with-callback,
// and attribute (mode/mtime) restoration.
//
// It plays the role the original library's filesys_posix.c/filesys_win32.c
// pair plays, minus the platform split: os.MkdirAll, os.Chmod, and
// os.Chtimes are already portable in Go, so there is exactly one
// implementation instead of two.
package fsx

import (
	"os"
	"path/filepath"
	"time"
)

// Timestamp is a unified point in time, independent of which on-disk epoch
// (DOS 1980, Win32 FILETIME 1601, Unix 1970) an entry's container recorded
// it in. Container packages convert to Timestamp at parse time; fsx
// converts back to time.Time only when restoring attributes on disk.
type Timestamp struct {
	// Sec and Nsec are a Unix-epoch seconds/nanoseconds pair, matching
	// time.Time's own internal resolution floor.
	Sec  int64
	Nsec int64
}

// Time converts back to a time.Time in UTC.
func (t Timestamp) Time() time.Time {
	if t.Sec == 0 && t.Nsec == 0 {
		return time.Time{}
	}
	return time.Unix(t.Sec, t.Nsec).UTC()
}

// IsZero reports whether t carries no timestamp information.
func (t Timestamp) IsZero() bool {
	return t.Sec == 0 && t.Nsec == 0
}

// FromTime builds a Timestamp from a time.Time.
func FromTime(t time.Time) Timestamp {
	if t.IsZero() {
		return Timestamp{}
	}
	return Timestamp{Sec: t.Unix(), Nsec: int64(t.Nanosecond())}
}

// winFileTimeEpochOffset is the number of 100ns intervals between the
// Windows FILETIME epoch (1601-01-01) and the Unix epoch (1970-01-01).
const winFileTimeEpochOffset = 116444736000000000

// FromFileTime converts a Windows FILETIME (100ns ticks since 1601-01-01)
// into a Timestamp, the conversion 7z entries need (spec §4.4). sevenzarc
// never calls this directly: bodgit/sevenzip already hands back a decoded
// time.Time (see FromTime), so this is exercised by its own tests only.
func FromFileTime(ft uint64) Timestamp {
	if ft == 0 {
		return Timestamp{}
	}
	ticks := int64(ft) - winFileTimeEpochOffset
	return Timestamp{Sec: ticks / 1e7, Nsec: (ticks % 1e7) * 100}
}

// FromDOSDateTime converts the packed 16-bit DOS date/time pair ZIP stores
// entries with, per the classic bit layout:
//
//	date: bits 15-9 year-1980, bits 8-5 month, bits 4-0 day
//	time: bits 15-11 hour, bits 10-5 minute, bits 4-0 second/2
func FromDOSDateTime(date, t uint16) Timestamp {
	if date == 0 {
		return Timestamp{}
	}

	year := int(date>>9) + 1980
	month := int(date >> 5 & 0xF)
	day := int(date & 0x1F)
	hour := int(t >> 11)
	min := int(t >> 5 & 0x3F)
	sec := int(t&0x1F) * 2

	if month == 0 {
		month = 1
	}
	if day == 0 {
		day = 1
	}

	tm := time.Date(year, time.Month(month), day, hour, min, sec, 0, time.UTC)
	return FromTime(tm)
}

// MkdirAll materializes dir and every missing ancestor, invoking created for
// each directory it actually creates (leaf last), in the order the entries
// were created — ascent toward the root to find the first existing ancestor,
// then descent back toward dir creating each missing segment, mirroring the
// original library's two-pass directory-walk algorithm and giving callers
// the per-directory callback spec §5's CallbackDirs flag asks for.
//
// created may be nil, in which case MkdirAll behaves like os.MkdirAll with
// perm applied to every created segment.
func MkdirAll(dir string, perm os.FileMode, created func(path string)) error {
	info, err := os.Stat(dir)
	if err == nil {
		if !info.IsDir() {
			return &os.PathError{Op: "mkdir", Path: dir, Err: os.ErrExist}
		}
		return nil
	}
	if !os.IsNotExist(err) {
		return err
	}

	parent := filepath.Dir(dir)
	if parent != dir {
		if err := MkdirAll(parent, perm, created); err != nil {
			return err
		}
	}

	if err := os.Mkdir(dir, perm); err != nil {
		if os.IsExist(err) {
			return nil
		}
		return err
	}
	if created != nil {
		created(dir)
	}
	return nil
}

// Restore applies mode and mtime to an already-written path, the final step
// of extracting any entry (spec §5's attribute-restoration operation).
// A zero Timestamp leaves the file's mtime at whatever the write left it at.
func Restore(path string, mode os.FileMode, ts Timestamp) error {
	if mode != 0 {
		if err := os.Chmod(path, mode); err != nil {
			return err
		}
	}
	if !ts.IsZero() {
		t := ts.Time()
		if err := os.Chtimes(path, t, t); err != nil {
			return err
		}
	}
	return nil
}
