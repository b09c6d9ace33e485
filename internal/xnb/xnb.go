// Package xnb writes the XNB content container: a short header, a size field,
// the type-reader table, and one primary asset, optionally wrapped in a
// compression frame.
package xnb

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

const (
	Magic           = "XNB"
	PlatformWindows = 'w'
	FormatVersion   = 5

	FlagHiDef         byte = 0x01
	FlagCompressedLZ4 byte = 0x40
	FlagCompressedLZX byte = 0x80

	// HeaderSize covers magic, platform, version and flag bytes.
	HeaderSize = 6
	// FrameSize is HeaderSize plus the total-size field.
	FrameSize = HeaderSize + 4
	// CompressedFrameSize additionally carries the decompressed body size.
	CompressedFrameSize = FrameSize + 4
)

// TypeReader names the runtime reader that decodes the primary asset.
type TypeReader struct {
	Name    string
	Version int32
}

// Asset is a single primary object together with the readers it needs.
// Payload holds the object bytes that follow the object's type id.
type Asset struct {
	Readers []TypeReader
	Payload []byte
}

// Options controls how an asset is framed.
type Options struct {
	HiDef      bool
	Compressor Compressor
}

// Header is the fixed prefix of every container file.
type Header struct {
	Platform byte
	Version  byte
	Flags    byte
	Size     uint32
}

// Compressed reports whether either compression flag is set.
func (h Header) Compressed() bool {
	return h.Flags&(FlagCompressedLZX|FlagCompressedLZ4) != 0
}

var ErrBadMagic = errors.New("missing XNB magic")

// Body returns the uncompressed section of the file that follows the size
// field: reader table, shared-resource count, and the primary object.
func Body(asset Asset) []byte {
	var e encoder
	e.put7BitInt(len(asset.Readers))
	for _, reader := range asset.Readers {
		e.putString(reader.Name)
		e.putInt32(reader.Version)
	}
	e.put7BitInt(0) // shared resources
	e.put7BitInt(1) // primary object type id, 1-based into Readers
	e.buf.Write(asset.Payload)
	return e.buf.Bytes()
}

// Encode writes asset to w and returns the number of bytes written. When a
// compressor is supplied and available, the body is compressed and framed;
// an incompressible body falls back to the plain layout.
func Encode(ctx context.Context, w io.Writer, asset Asset, opts Options) (int, error) {
	body := Body(asset)

	flags := byte(0)
	if opts.HiDef {
		flags |= FlagHiDef
	}

	var e encoder
	if c := opts.Compressor; c != nil && c.Available() {
		compressed, err := c.Compress(ctx, body)
		switch {
		case err == nil:
			e.putHeader(flags | c.Flag())
			e.putUint32(uint32(CompressedFrameSize + len(compressed)))
			e.putUint32(uint32(len(body)))
			e.buf.Write(compressed)
			return w.Write(e.buf.Bytes())
		case errors.Is(err, ErrIncompressible):
		default:
			return 0, fmt.Errorf("compress body: %w", err)
		}
	}

	e.putHeader(flags)
	e.putUint32(uint32(FrameSize + len(body)))
	e.buf.Write(body)
	return w.Write(e.buf.Bytes())
}

// ReadHeader reads and checks the fixed header and size field.
func ReadHeader(r io.Reader) (Header, error) {
	var raw [FrameSize]byte
	if _, err := io.ReadFull(r, raw[:]); err != nil {
		return Header{}, fmt.Errorf("read header: %w", err)
	}
	if string(raw[:3]) != Magic {
		return Header{}, ErrBadMagic
	}
	h := Header{
		Platform: raw[3],
		Version:  raw[4],
		Flags:    raw[5],
		Size:     binary.LittleEndian.Uint32(raw[6:]),
	}
	if h.Version != FormatVersion && h.Version != 4 {
		return h, fmt.Errorf("unsupported XNB version %d", h.Version)
	}
	return h, nil
}

type encoder struct {
	buf bytes.Buffer
}

func (e *encoder) putHeader(flags byte) {
	e.buf.WriteString(Magic)
	e.buf.WriteByte(PlatformWindows)
	e.buf.WriteByte(FormatVersion)
	e.buf.WriteByte(flags)
}

func (e *encoder) put7BitInt(v int) {
	u := uint32(v)
	for u >= 0x80 {
		e.buf.WriteByte(byte(u) | 0x80)
		u >>= 7
	}
	e.buf.WriteByte(byte(u))
}

func (e *encoder) putString(s string) {
	e.put7BitInt(len(s))
	e.buf.WriteString(s)
}

func (e *encoder) putInt32(v int32) {
	e.putUint32(uint32(v))
}

func (e *encoder) putUint32(v uint32) {
	e.buf.Write(binary.LittleEndian.AppendUint32(nil, v))
}
