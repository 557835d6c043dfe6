// Package ziparc implements the ZIP backend (spec §4.3, C4a): a
// central-directory cursor built by hand-parsing the EOCD record and CD
// file headers rather than delegating to the standard library's
// archive/zip, so the UTF-8/CP437 charset decision (general-purpose bit 11)
// and the DOS/NTFS attribute interpretation stay explicit, testable
// components instead of being hidden inside zip.Reader.
//
// The backward EOCD scan and the fixed-size central-directory header
// parsing are adapted from the teacher's zip/scan package
// (github.com/nguyengg/xy3/zip/scan), generalized from a read-everything
// scanner into the incremental Handler cursor the façade needs.
package ziparc

import (
	"bytes"
	"compress/flate"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/valyala/bytebufferpool"

	"github.com/nguyengg/xarc/charset"
	"github.com/nguyengg/xarc/container"
	"github.com/nguyengg/xarc/internal/fsx"
	"github.com/nguyengg/xarc/xarcerr"
)

const (
	lfhSig  = 0x04034b50
	cdfhSig = 0x02014b50
	eocdSig = 0x06054b50

	// bitUTF8 is general-purpose bit 11: set selects UTF-8 filenames,
	// clear selects CP437.
	bitUTF8 = 1 << 11

	dirAttrBit = 0x0010
)

// Handler implements container.Handler over a ZIP central directory.
type Handler struct {
	src io.ReadSeeker

	cdOffset int64
	cdSize   int64
	total    uint16

	// index of the entry under the cursor; -1 before the first Next.
	index int
	// pos tracks how many bytes into the central directory we have
	// consumed, since CD records are variable-length.
	pos int64

	cur cdFileHeader

	logger logrus.FieldLogger
}

type cdFileHeader struct {
	creatorVersion uint16
	flags          uint16
	method         uint16
	modTime        uint16
	modDate        uint16
	crc32          uint32
	compressedSize uint32
	name           string
	externalAttrs  uint32
	offset         int64
}

// Open parses the EOCD record and positions the cursor before the first
// entry (spec §9: ZIP/7z start before entry 0).
func Open(src io.ReadSeeker, size int64) (*Handler, error) {
	_, cdOffset, cdSize, total, err := findEOCD(src, size)
	if err != nil {
		return nil, xarcerr.Wrap(xarcerr.NotValidArchive, 0, err, "open zip: %s", err)
	}

	return &Handler{
		src:      src,
		cdOffset: cdOffset,
		cdSize:   cdSize,
		total:    total,
		index:    -1,
		logger:   discardLogger(),
	}, nil
}

// discardLogger is the zero-configuration default: every Debug entry goes
// nowhere until a caller attaches a real logger via SetLogger.
func discardLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// SetLogger attaches the logger every subsequent Debug entry is emitted
// through (spec §3.1). Passing nil is a no-op, leaving the prior logger
// (or Open's default) in place.
func (h *Handler) SetLogger(logger logrus.FieldLogger) {
	if logger != nil {
		h.logger = logger
	}
}

// Next implements container.Handler.
func (h *Handler) Next() error {
	if int64(h.index+1) >= int64(h.total) {
		return xarcerr.NoMore()
	}

	// Extract/SetProps may have moved src elsewhere since the previous
	// record was read, so always reseek rather than assuming contiguity.
	if _, err := h.src.Seek(h.cdOffset+h.pos, io.SeekStart); err != nil {
		return xarcerr.Filesystem(err, "zip: seek central directory: %s", err)
	}

	fh, n, err := readCDFileHeader(h.src)
	if err != nil {
		return xarcerr.New(xarcerr.ModuleError, xarcerr.ZipCentralDirErr, "zip: read central directory record %d: %s", h.index+1, err)
	}

	h.pos += n
	h.index++
	h.cur = fh
	h.logger.WithField("name", fh.name).Debug("zip: read central directory record")
	return nil
}

// Info implements container.Handler.
func (h *Handler) Info() (container.Entry, error) {
	if h.index < 0 {
		return container.Entry{}, xarcerr.New(xarcerr.ModuleError, xarcerr.ZipBadHeader, "zip: info called before next")
	}

	name := decodeName(h.cur.name, h.cur.flags)

	var props uint8
	if h.isDir(name) {
		props |= container.IsDirectory
	}

	return container.Entry{
		Path:       name,
		Properties: props,
		ModTime:    fsx.FromDOSDateTime(h.cur.modDate, h.cur.modTime),
	}, nil
}

// decodeName applies spec §4.3's charset rule: bit 11 set selects UTF-8,
// clear selects CP437.
func decodeName(raw string, flags uint16) string {
	b := []byte(raw)
	if flags&bitUTF8 != 0 {
		return charset.FromUTF8(b)
	}
	return charset.FromCP437(b)
}

// isDir classifies the current entry per spec §4.3: a trailing separator
// in the (already-decoded) name, or, for DOS/NTFS-authored entries, the
// external-attributes directory bit.
func (h *Handler) isDir(name string) bool {
	if len(name) > 0 && (name[len(name)-1] == '/' || name[len(name)-1] == '\\') {
		return true
	}
	if h.cur.creatorVersion>>8 == 0 || h.cur.creatorVersion>>8 == 10 {
		return h.cur.externalAttrs&dirAttrBit != 0
	}
	return false
}

// Extract implements container.Handler. It seeks to the entry's local file
// header, validates it, streams the decompressed content to w in 4 KiB
// chunks, and verifies the CRC-32 once the stream is exhausted (spec
// §4.3's "underlying library verifies the CRC" note).
func (h *Handler) Extract(w io.Writer) error {
	if h.index < 0 {
		return xarcerr.New(xarcerr.ModuleError, xarcerr.ZipBadHeader, "zip: extract called before next")
	}
	if h.isDir(decodeName(h.cur.name, h.cur.flags)) {
		return nil
	}

	dataOffset, err := h.localFileDataOffset()
	if err != nil {
		return err
	}

	if _, err := h.src.Seek(dataOffset, io.SeekStart); err != nil {
		return xarcerr.Filesystem(err, "zip: seek entry data: %s", err)
	}

	var r io.Reader
	switch h.cur.method {
	case 0: // stored
		r = io.LimitReader(h.src, int64(h.cur.compressedSize))
	case 8: // deflate
		fr := flate.NewReader(io.LimitReader(h.src, int64(h.cur.compressedSize)))
		defer fr.Close()
		r = fr
	default:
		return xarcerr.New(xarcerr.ModuleError, xarcerr.ZipUnsupported, "zip: unsupported compression method %d for %q", h.cur.method, h.cur.name)
	}

	crc := crc32.NewIEEE()
	buf := make([]byte, 4096)
	for {
		n, rerr := r.Read(buf)
		if n > 0 {
			crc.Write(buf[:n])
			if _, werr := w.Write(buf[:n]); werr != nil {
				return xarcerr.Filesystem(werr, "zip: write entry data: %s", werr)
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return xarcerr.New(xarcerr.ModuleError, xarcerr.ZipBadHeader, "zip: decompress %q: %s", h.cur.name, rerr)
		}
	}

	if crc.Sum32() != h.cur.crc32 {
		return xarcerr.New(xarcerr.ModuleError, xarcerr.ZipCRCMismatch, "zip: CRC mismatch for %q", h.cur.name)
	}
	return nil
}

// localFileDataOffset reads the local file header at the CD-recorded
// offset to find where the (possibly differently-sized) extra field ends
// and the compressed data actually starts.
func (h *Handler) localFileDataOffset() (int64, error) {
	if _, err := h.src.Seek(h.cur.offset, io.SeekStart); err != nil {
		return 0, xarcerr.Filesystem(err, "zip: seek local file header: %s", err)
	}

	var fixed [30]byte
	if _, err := io.ReadFull(h.src, fixed[:]); err != nil {
		return 0, xarcerr.New(xarcerr.ModuleError, xarcerr.ZipBadHeader, "zip: read local file header: %s", err)
	}
	if binary.LittleEndian.Uint32(fixed[0:4]) != lfhSig {
		return 0, xarcerr.New(xarcerr.ModuleError, xarcerr.ZipBadHeader, "zip: bad local file header signature")
	}

	nameLen := binary.LittleEndian.Uint16(fixed[26:28])
	extraLen := binary.LittleEndian.Uint16(fixed[28:30])

	return h.cur.offset + 30 + int64(nameLen) + int64(extraLen), nil
}

// SetProps implements container.Handler: applies the DOS timestamp always,
// and a default mode based on the entry's directory bit (ZIP external
// attributes below DOS/NTFS version 0/10 carry no portable mode bits to
// restore).
func (h *Handler) SetProps(path string) error {
	mode := os.FileMode(defaultFileMode)
	if h.isDir(decodeName(h.cur.name, h.cur.flags)) {
		mode = defaultDirMode
	}

	ts := fsx.FromDOSDateTime(h.cur.modDate, h.cur.modTime)
	if err := fsx.Restore(path, mode, ts); err != nil {
		return xarcerr.Filesystem(err, "zip: restore attributes for %q: %s", path, err)
	}
	return nil
}

// Close implements container.Handler. ziparc.Handler owns no resources
// beyond the caller-provided src, so Close is a no-op.
func (h *Handler) Close() error {
	return nil
}

// readCDFileHeader decodes one variable-length central directory record
// starting at the reader's current position, returning the number of bytes
// consumed so the caller can track its position in the directory.
func readCDFileHeader(r io.Reader) (cdFileHeader, int64, error) {
	var fixed [46]byte
	if _, err := io.ReadFull(r, fixed[:]); err != nil {
		return cdFileHeader{}, 0, fmt.Errorf("read fixed header: %w", err)
	}
	if binary.LittleEndian.Uint32(fixed[0:4]) != cdfhSig {
		return cdFileHeader{}, 0, fmt.Errorf("bad central directory signature")
	}

	creatorVersion := binary.LittleEndian.Uint16(fixed[4:6])
	flags := binary.LittleEndian.Uint16(fixed[8:10])
	method := binary.LittleEndian.Uint16(fixed[10:12])
	modTime := binary.LittleEndian.Uint16(fixed[12:14])
	modDate := binary.LittleEndian.Uint16(fixed[14:16])
	crc := binary.LittleEndian.Uint32(fixed[16:20])
	compressedSize := binary.LittleEndian.Uint32(fixed[20:24])
	nameLen := binary.LittleEndian.Uint16(fixed[28:30])
	extraLen := binary.LittleEndian.Uint16(fixed[30:32])
	commentLen := binary.LittleEndian.Uint16(fixed[32:34])
	externalAttrs := binary.LittleEndian.Uint32(fixed[38:42])
	offset := binary.LittleEndian.Uint32(fixed[42:46])

	varLen := int(nameLen) + int(extraLen) + int(commentLen)
	varBuf := make([]byte, varLen)
	if _, err := io.ReadFull(r, varBuf); err != nil {
		return cdFileHeader{}, 0, fmt.Errorf("read variable-length fields: %w", err)
	}

	return cdFileHeader{
		creatorVersion: creatorVersion,
		flags:          flags,
		method:         method,
		modTime:        modTime,
		modDate:        modDate,
		crc32:          crc,
		compressedSize: compressedSize,
		name:           string(varBuf[:nameLen]),
		externalAttrs:  externalAttrs,
		offset:         int64(offset),
	}, int64(46 + varLen), nil
}

// findEOCD backward-scans src for the end-of-central-directory record,
// adapted from the teacher's zip/scan.findEOCD: a bytebufferpool.ByteBuffer
// accumulates the tail of the file, growing by another 16 KiB chunk
// prepended in front of what was already read, until the signature is
// found or the start of file is reached.
func findEOCD(src io.ReadSeeker, size int64) (eocdOffset, cdOffset, cdSize int64, total uint16, err error) {
	const chunk = 16 * 1024
	var sigBytes [4]byte
	binary.LittleEndian.PutUint32(sigBytes[:], eocdSig)

	bb := bytebufferpool.Get()
	defer bytebufferpool.Put(bb)

	readSize := int64(chunk)
	if readSize > size {
		readSize = size
	}
	offset := size - readSize

	chunkBuf := make([]byte, chunk)
	for {
		if _, err = src.Seek(offset, io.SeekStart); err != nil {
			return 0, 0, 0, 0, fmt.Errorf("seek: %w", err)
		}

		n, rerr := io.ReadFull(src, chunkBuf[:readSize])
		if rerr != nil {
			return 0, 0, 0, 0, fmt.Errorf("read: %w", rerr)
		}

		merged := make([]byte, n+bb.Len())
		copy(merged, chunkBuf[:n])
		copy(merged[n:], bb.B)
		bb.Reset()
		if _, err = bb.Write(merged); err != nil {
			return 0, 0, 0, 0, fmt.Errorf("buffer: %w", err)
		}

		if i := bytes.LastIndex(bb.B, sigBytes[:]); i != -1 && len(bb.B)-i >= 22 {
			var fixed [22]byte
			copy(fixed[:], bb.B[i:i+22])
			if binary.LittleEndian.Uint32(fixed[0:4]) != eocdSig {
				return 0, 0, 0, 0, xarcerr.New(xarcerr.NotValidArchive, 0, "zip: EOCD signature mismatch after scan")
			}

			total = binary.LittleEndian.Uint16(fixed[10:12])
			cdSize = int64(binary.LittleEndian.Uint32(fixed[12:16]))
			cdOffset = int64(binary.LittleEndian.Uint32(fixed[16:20]))
			return offset + int64(i), cdOffset, cdSize, total, nil
		}

		if offset == 0 {
			return 0, 0, 0, 0, xarcerr.New(xarcerr.NotValidArchive, 0, "zip: no end-of-central-directory record found")
		}

		readSize = chunk
		if readSize > offset {
			readSize = offset
		}
		offset -= readSize
	}
}

const (
	defaultFileMode = 0o644
	defaultDirMode  = 0o755
)
