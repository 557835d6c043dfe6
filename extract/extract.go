// Package extract implements the extraction engine (spec §4.6, C5): path
// composition, recursive parent-directory creation with per-directory
// callback notification, file write-out, and post-write attribute
// restoration.
//
// The output-directory-creation idiom (loop ascending to the first
// existing ancestor, then descending to create each missing segment) is
// grounded on fsx.MkdirAll (internal/fsx), itself adapted from the
// teacher's z.Extract / util.MkExclDir directory-materialization style.
package extract

import (
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/nguyengg/xarc/container"
	"github.com/nguyengg/xarc/internal/fsx"
	"github.com/nguyengg/xarc/xarcerr"
)

// CallbackDirs is the only extraction flag defined (spec §6): invoke the
// callback on directory creation in addition to file creation.
const CallbackDirs uint8 = 0x1

// Callback is invoked for every file written and, when flags carries
// CallbackDirs, for every directory created. relPath is relative to
// basePath; props carries container.IsDirectory when the callback fires for
// a directory.
type Callback func(relPath string, props uint8)

// Entry composes an extraction step: one container.Entry plus the
// container.Handler that can stream and restore it. logger receives
// Debug-level progress for every directory created and file written; pass
// a discarding logger (the façade's default) to silence it rather than
// nil, since logger is dereferenced directly.
func Entry(h container.Handler, entry container.Entry, basePath string, flags uint8, cb Callback, logger logrus.FieldLogger) error {
	info, err := os.Stat(basePath)
	if err != nil || !info.IsDir() {
		return xarcerr.New(xarcerr.NoBasePath, 0, "extract: base path %q does not exist", basePath)
	}

	fullPath := filepath.Join(basePath, filepath.FromSlash(entry.Path))

	log := logger.WithFields(logrus.Fields{"path": entry.Path, "target": fullPath})

	dirToCreate := fullPath
	if !entry.IsDir() {
		dirToCreate = filepath.Dir(fullPath)
	}

	if err := materialize(basePath, dirToCreate, flags, cb, logger); err != nil {
		return err
	}

	if !entry.IsDir() {
		log.Debug("extracting file")
		if err := writeFile(h, fullPath); err != nil {
			return err
		}
	}

	if err := h.SetProps(fullPath); err != nil {
		return err
	}

	if cb != nil && !entry.IsDir() {
		cb(entry.Path, 0)
	}

	return nil
}

// materialize ascends from dir to the shortest existing ancestor, then
// descends creating each missing segment, invoking cb for every segment it
// creates when flags carries CallbackDirs (spec §4.6 step 4).
func materialize(basePath, dir string, flags uint8, cb Callback, logger logrus.FieldLogger) error {
	notify := func(path string) {
		logger.WithField("path", path).Debug("created directory")
		if cb != nil && flags&CallbackDirs != 0 {
			rel, err := filepath.Rel(basePath, path)
			if err != nil {
				rel = path
			}
			cb(filepath.ToSlash(rel), container.IsDirectory)
		}
	}

	if err := fsx.MkdirAll(dir, 0o755, notify); err != nil {
		if os.IsExist(err) {
			return xarcerr.New(xarcerr.DirIsFile, 0, "extract: %q already exists and is not a directory", dir)
		}
		return xarcerr.Filesystem(err, "extract: create directory %q: %s", dir, err)
	}
	return nil
}

// writeFile opens fullPath for truncating write and delegates the byte
// copy to the handler's Extract (spec §4.6 step 5).
func writeFile(h container.Handler, fullPath string) error {
	f, err := os.OpenFile(fullPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return xarcerr.Filesystem(err, "extract: open %q for write: %s", fullPath, err)
	}
	defer f.Close()

	if err := h.Extract(f); err != nil {
		return err
	}
	return nil
}
