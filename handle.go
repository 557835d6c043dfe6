package xarc

import (
	"errors"
	"io"

	"github.com/nguyengg/xarc/container"
	"github.com/nguyengg/xarc/extract"
	"github.com/nguyengg/xarc/xarcerr"
)

// Ok reports whether the handle is healthy, i.e. no call has latched a
// hard error onto it yet. Once Ok returns false it never returns true
// again for this handle (spec §8's monotone-failure invariant), except
// that end-of-archive (NoMoreItems) alone does not count as failed: Ok
// still reports the handle's underlying iteration state, so callers
// distinguish "done iterating" from "broke" via Err/ErrKind.
func (d *Handle) Ok() bool {
	return xarcerr.Ok(d.err) || xarcerr.IsSoftTerminal(d.err)
}

// Err returns the latched error, or nil if the handle is healthy.
func (d *Handle) Err() error {
	return d.err
}

// ErrKind returns the latched error's Kind, or xarcerr.OK if none.
func (d *Handle) ErrKind() xarcerr.Kind {
	var e *xarcerr.Error
	if d.err == nil {
		return xarcerr.OK
	}
	if ok := asError(d.err, &e); ok {
		return e.Kind
	}
	return xarcerr.ModuleError
}

// ErrCode returns the latched error's library-specific sub-code, or 0.
func (d *Handle) ErrCode() int32 {
	var e *xarcerr.Error
	if d.err != nil && asError(d.err, &e) {
		return e.Code
	}
	return 0
}

// ErrDescription returns the constant, kind-level description of the
// latched error (e.g. "filesystem error"), or "" if the handle is
// healthy. This is xarc_error_description's Go equivalent (spec §4.7,
// SPEC_FULL §6): a terminal/codec/filesystem category string, not the
// per-occurrence detail — see ErrAdditional for that.
func (d *Handle) ErrDescription() string {
	if d.err == nil {
		return ""
	}
	return d.ErrKind().String()
}

// ErrAdditional returns the per-occurrence formatted detail of the
// latched error (the offending path or action), or "" if the handle is
// healthy. This is xarc_error_additional's Go equivalent (spec §4.7,
// SPEC_FULL §6).
func (d *Handle) ErrAdditional() string {
	if d.err == nil {
		return ""
	}
	return d.err.Error()
}

func asError(err error, target **xarcerr.Error) bool {
	return errors.As(err, target)
}

// Next advances the entry cursor (spec §4.7). Once the handle has failed
// or iteration is exhausted, Next is a no-op that returns the latched
// error without touching the underlying handler.
func (d *Handle) Next() error {
	if d.err != nil {
		return d.err
	}
	if err := d.h.Next(); err != nil {
		d.err = err
		return err
	}
	return nil
}

// Info returns the entry currently under the cursor. Info is a cheap
// no-op returning the latched error once the handle has failed.
func (d *Handle) Info() (container.Entry, error) {
	if d.err != nil {
		return container.Entry{}, d.err
	}
	entry, err := d.h.Info()
	if err != nil {
		d.err = err
		return container.Entry{}, err
	}
	return entry, nil
}

// Extract materializes the entry currently under the cursor onto
// basePath (spec §4.6), composing path join, directory creation and
// callback notification, file write-out, and attribute restoration.
// Directory-creation callbacks additionally fire when the Handle was
// opened with WithCallbackDirs; Debug-level progress is logged through
// the logger attached via WithLogger (a discarding logger by default).
func (d *Handle) Extract(basePath string, cb extract.Callback) error {
	if d.err != nil {
		return d.err
	}

	entry, err := d.h.Info()
	if err != nil {
		d.err = err
		return err
	}

	var flags uint8
	if d.callbackDirs {
		flags |= extract.CallbackDirs
	}

	if err := extract.Entry(d.h, entry, basePath, flags, cb, d.logger); err != nil {
		d.err = err
		return err
	}
	return nil
}

// Close releases every resource Open acquired: the container handler's
// own state, any decompressor stream composed underneath it, and the
// underlying *os.File. Close always runs end to end and reports its own
// status independent of any previously latched error (spec §4.7).
func (d *Handle) Close() error {
	var first error
	if d.h != nil {
		if err := d.h.Close(); err != nil && first == nil {
			first = err
		}
	}
	// closers is built innermost-first (e.g. the decompressor stream
	// before the *os.File it reads from), so closing it in order tears
	// down resources in the same sequence they were acquired in reverse.
	for _, c := range d.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

var _ io.Closer = (*Handle)(nil)
