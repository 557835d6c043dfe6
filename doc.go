// Package xarc is a read-only archive extraction library exposing a
// uniform, iterator-style interface over ZIP, 7z and TAR containers (the
// latter optionally gzip/bzip2/lzma/xz-compressed), grounded on the
// teacher's own top-level xy3 package layout: a handful of small,
// single-purpose subpackages (charset, internal/fsx, decompressor,
// container/*, extract, registry, xarcerr) composed behind one façade
// type here at the module root.
//
// The façade is deliberately narrow: Open, Next, Info, Extract, Close, and
// the error accessors (Ok, Err, ErrKind, ErrCode, ErrDescription,
// ErrAdditional). Open never fails visibly — it always returns a usable
// *Handle — so that a caller drives the same five-call shape regardless
// of what went wrong underneath and only inspects Ok/Err when it cares
// why. Open accepts functional options (WithType, WithLogger,
// WithCallbackDirs); by default no archive type is forced (suffix-based
// detection) and no logging escapes the library (a discarding logger).
package xarc
