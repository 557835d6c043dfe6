package xarc

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/nguyengg/xarc/container"
	"github.com/nguyengg/xarc/container/sevenzarc"
	"github.com/nguyengg/xarc/container/tararc"
	"github.com/nguyengg/xarc/container/ziparc"
	"github.com/nguyengg/xarc/decompressor"
	"github.com/nguyengg/xarc/registry"
	"github.com/nguyengg/xarc/xarcerr"
)

// Handle is the archive handle (spec §3): the long-lived entity every
// façade call is driven through. A *Handle is always non-nil once Open
// returns; a failed open is discovered via Ok/Err rather than a returned
// error, per spec §4.7.
type Handle struct {
	h       container.Handler
	closers []io.Closer

	logger       logrus.FieldLogger
	callbackDirs bool

	// err is the latched error. Once set it is never cleared; Close leaves
	// it in place (spec §3's "failed handle is read-only").
	err error
}

// Open resolves the archive type (by explicit xarc.WithType, or by the
// path's suffix when unset) and opens path through the matching container
// backend, composing a decompressor underneath TAR when the resolved type
// calls for one. optFns configures the resulting Handle; see WithType,
// WithLogger, and WithCallbackDirs.
//
// Open always returns a non-nil *Handle; a resolution or open failure is
// latched onto it and observed via Ok/Err instead.
func Open(path string, optFns ...func(*Options)) *Handle {
	opts := newOptions(optFns...)
	h, closers, err := open(path, opts)
	return &Handle{h: h, closers: closers, err: err, logger: opts.logger, callbackDirs: opts.callbackDirs}
}

func open(path string, opts *Options) (container.Handler, []io.Closer, error) {
	resolved, decomp, err := registry.Resolve(path, opts.typ)
	if err != nil {
		return nil, nil, err
	}

	switch resolved {
	case registry.Zip:
		f, err := os.Open(path)
		if err != nil {
			return nil, nil, xarcerr.Filesystem(err, "open %q: %s", path, err)
		}
		info, err := f.Stat()
		if err != nil {
			f.Close()
			return nil, nil, xarcerr.Filesystem(err, "stat %q: %s", path, err)
		}
		h, err := ziparc.Open(f, info.Size())
		if err != nil {
			f.Close()
			return nil, nil, err
		}
		h.SetLogger(opts.logger)
		return h, []io.Closer{f}, nil

	case registry.SevenZip:
		h, err := sevenzarc.Open(path)
		if err != nil {
			return nil, nil, err
		}
		h.SetLogger(opts.logger)
		return h, nil, nil

	case registry.Tar:
		f, err := os.Open(path)
		if err != nil {
			return nil, nil, xarcerr.Filesystem(err, "open %q: %s", path, err)
		}
		h, err := tararc.Open(f)
		if err != nil {
			f.Close()
			return nil, nil, err
		}
		h.SetLogger(opts.logger)
		return h, []io.Closer{f}, nil

	case registry.TarGzip, registry.TarBzip2, registry.TarLzma, registry.TarXz:
		f, err := os.Open(path)
		if err != nil {
			return nil, nil, xarcerr.Filesystem(err, "open %q: %s", path, err)
		}
		stream, err := decompressor.New(f, decomp)
		if err != nil {
			f.Close()
			return nil, nil, err
		}
		h, err := tararc.Open(stream)
		if err != nil {
			stream.Close()
			f.Close()
			return nil, nil, err
		}
		h.SetLogger(opts.logger)
		return h, []io.Closer{stream, f}, nil

	default:
		return nil, nil, xarcerr.New(xarcerr.UnrecognizedArchive, 0, "unresolved archive type %d", resolved)
	}
}
