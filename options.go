package xarc

import (
	"io"

	"github.com/sirupsen/logrus"

	"github.com/nguyengg/xarc/registry"
)

// Options configures Open (spec §3's façade construction), following the
// functional-options pattern the teacher's own reader/writer packages use
// to avoid a long positional parameter list.
type Options struct {
	typ          registry.Type
	logger       logrus.FieldLogger
	callbackDirs bool
}

// OptionFunc mutates an Options in place; WithType, WithLogger, and
// WithCallbackDirs are the only setters defined.
type OptionFunc func(*Options)

// WithType overrides auto-detection (registry.Auto, the default) with an
// explicit archive type, for callers that already know it (e.g. the
// extension was stripped or renamed).
func WithType(typ registry.Type) OptionFunc {
	return func(o *Options) {
		o.typ = typ
	}
}

// WithLogger attaches a structured logger. When unset, Open falls back to
// a logger discarding every entry, so logrus.StandardLogger() is never
// forced onto a caller that never asked for logging.
func WithLogger(logger logrus.FieldLogger) OptionFunc {
	return func(o *Options) {
		o.logger = logger
	}
}

// WithCallbackDirs makes Extract invoke its callback for every directory
// it creates, not just for the file entry being extracted. Without it,
// directory entries produce no callback at all.
func WithCallbackDirs() OptionFunc {
	return func(o *Options) {
		o.callbackDirs = true
	}
}

// newOptions applies optFns over the zero-value defaults: registry.Auto
// detection, a discarding logger, and callback directories off.
func newOptions(optFns ...func(*Options)) *Options {
	o := &Options{
		typ:    registry.Auto,
		logger: noopLogger(),
	}
	for _, fn := range optFns {
		fn(o)
	}
	if o.logger == nil {
		o.logger = noopLogger()
	}
	return o
}

// noopLogger returns a logrus.Logger sending every entry to io.Discard,
// matching nabbar-golib/logger.manage's "send all logs to nowhere by
// default" idiom, so an unset WithLogger never touches the global
// logrus.StandardLogger().
func noopLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
