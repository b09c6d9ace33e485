package xnb

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/pierrec/lz4/v4"
)

// ErrOpaqueBody is returned when a body is compressed with a backend that
// cannot be decoded in-process.
var ErrOpaqueBody = errors.New("body is LZX compressed")

const (
	maxReaders    = 256
	maxNameLength = 4096
	maxBodySize   = 256 << 20
	// maxLZ4Ratio bounds how far one LZ4 block can expand.
	maxLZ4Ratio = 255
)

// ReadReaders reads the header and type-reader table of a container. Bodies
// compressed with the LZ4 backend are decompressed first.
func ReadReaders(r io.Reader) (Header, []TypeReader, error) {
	h, err := ReadHeader(r)
	if err != nil {
		return h, nil, err
	}

	var body io.ByteReader
	switch {
	case h.Flags&FlagCompressedLZX != 0:
		return h, nil, ErrOpaqueBody
	case h.Flags&FlagCompressedLZ4 != 0:
		data, err := readLZ4Body(r, h)
		if err != nil {
			return h, nil, err
		}
		body = bytes.NewReader(data)
	default:
		body = bufio.NewReader(r)
	}

	d := decoder{r: body}
	count := d.get7BitInt()
	if d.err == nil && (count < 0 || count > maxReaders) {
		return h, nil, fmt.Errorf("reader count %d out of range", count)
	}
	readers := make([]TypeReader, 0, count)
	for i := 0; i < count && d.err == nil; i++ {
		name := d.getString()
		version := d.getInt32()
		readers = append(readers, TypeReader{Name: name, Version: version})
	}
	if d.err != nil {
		return h, nil, fmt.Errorf("read type readers: %w", d.err)
	}
	return h, readers, nil
}

func readLZ4Body(r io.Reader, h Header) ([]byte, error) {
	var sizeField [4]byte
	if _, err := io.ReadFull(r, sizeField[:]); err != nil {
		return nil, fmt.Errorf("read decompressed size: %w", err)
	}
	size := uint64(binary.LittleEndian.Uint32(sizeField[:]))
	if h.Size < CompressedFrameSize {
		return nil, fmt.Errorf("frame size %d too small", h.Size)
	}
	packed := uint64(h.Size - CompressedFrameSize)
	if packed > maxBodySize {
		return nil, fmt.Errorf("compressed size %d out of range", packed)
	}
	if size > maxBodySize || size > packed*maxLZ4Ratio {
		return nil, fmt.Errorf("decompressed size %d out of range", size)
	}
	compressed := make([]byte, packed)
	if _, err := io.ReadFull(r, compressed); err != nil {
		return nil, fmt.Errorf("read compressed body: %w", err)
	}
	out := make([]byte, size)
	n, err := lz4.UncompressBlock(compressed, out)
	if err != nil {
		return nil, fmt.Errorf("lz4: %w", err)
	}
	return out[:n], nil
}

type decoder struct {
	r   io.ByteReader
	err error
}

func (d *decoder) readByte() byte {
	if d.err != nil {
		return 0
	}
	b, err := d.r.ReadByte()
	if err != nil {
		d.err = err
	}
	return b
}

func (d *decoder) get7BitInt() int {
	var v uint32
	for shift := 0; shift < 35; shift += 7 {
		b := d.readByte()
		if d.err != nil {
			return 0
		}
		v |= uint32(b&0x7f) << shift
		if b&0x80 == 0 {
			return int(int32(v))
		}
	}
	d.err = errors.New("malformed 7-bit encoded integer")
	return 0
}

func (d *decoder) getString() string {
	n := d.get7BitInt()
	if d.err != nil {
		return ""
	}
	if n < 0 || n > maxNameLength {
		d.err = fmt.Errorf("string length %d out of range", n)
		return ""
	}
	buf := make([]byte, n)
	for i := range buf {
		buf[i] = d.readByte()
	}
	return string(buf)
}

func (d *decoder) getInt32() int32 {
	var raw [4]byte
	for i := range raw {
		raw[i] = d.readByte()
	}
	return int32(binary.LittleEndian.Uint32(raw[:]))
}
