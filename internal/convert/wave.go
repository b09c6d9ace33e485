package convert

import (
	"encoding/binary"
	"errors"
	"io"
)

const waveFormatPCM = 1

// Wave is a validated PCM stream: its format block and the raw data chunk.
type Wave struct {
	FormatTag     uint16
	Channels      uint16
	SampleRate    uint32
	AvgBytesRate  uint32
	BlockAlign    uint16
	BitsPerSample uint16
	Data          []byte
}

// LoopLength is the sample-frame count of the data chunk.
func (w *Wave) LoopLength() uint32 {
	return uint32(len(w.Data)) / uint32(w.BlockAlign)
}

// DurationMillis is 1000 × data length divided by the byte rate derived from
// the format fields, truncating at each step in that order.
func (w *Wave) DurationMillis() uint32 {
	rate := uint64(w.Channels) * uint64(w.BitsPerSample) * uint64(w.SampleRate) / 8
	return uint32(1000 * uint64(len(w.Data)) / rate)
}

// ParseWave validates a RIFF/WAVE stream and extracts its PCM data chunk.
func ParseWave(rs io.ReadSeeker) (*Wave, error) {
	length, err := rs.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, err
	}
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	r := &riffReader{r: rs}

	if tag := r.tag(); r.err == nil && tag != "RIFF" {
		return nil, waveErrorf(ReasonBadTag, "invalid file format: %q", tag)
	}
	if riffLen := r.u32(); r.err == nil && int64(riffLen) != length-8 {
		return nil, waveErrorf(ReasonLengthMismatch, "file length mismatch: %d - should be %d", riffLen, length-8)
	}
	if tag := r.tag(); r.err == nil && tag != "WAVE" {
		return nil, waveErrorf(ReasonBadTag, "no WAVE tag (%q)", tag)
	}
	if tag := r.tag(); r.err == nil && tag != "fmt " {
		return nil, waveErrorf(ReasonBadTag, "no fmt tag (%q)", tag)
	}
	fmtSize := r.u32()
	if r.err == nil && fmtSize < 16 {
		return nil, waveErrorf(ReasonBadFormatSize, "format chunk size %d is smaller than 16", fmtSize)
	}
	fmtEnd := r.pos + int64(fmtSize)

	w := &Wave{}
	if w.FormatTag = r.u16(); r.err == nil && w.FormatTag != waveFormatPCM {
		return nil, waveErrorf(ReasonUnsupportedCodec, "unimplemented wav codec %d (must be PCM)", w.FormatTag)
	}
	w.Channels = r.u16()
	w.SampleRate = r.u32()
	w.AvgBytesRate = r.u32()
	w.BlockAlign = r.u16()
	w.BitsPerSample = r.u16()
	if r.err != nil {
		return nil, r.truncated()
	}

	bytesPerSample := uint64(w.BitsPerSample / 8)
	if uint64(w.AvgBytesRate) != uint64(w.SampleRate)*uint64(w.Channels)*bytesPerSample {
		return nil, waveErrorf(ReasonBadByteRate, "incorrect average bytes per second %d", w.AvgBytesRate)
	}
	if uint64(w.BlockAlign) != uint64(w.Channels)*bytesPerSample {
		return nil, waveErrorf(ReasonBadBlockAlign, "incorrect block align %d", w.BlockAlign)
	}
	if w.BlockAlign == 0 {
		return nil, waveErrorf(ReasonBadBlockAlign, "block align is zero")
	}
	if w.SampleRate == 0 {
		return nil, waveErrorf(ReasonBadByteRate, "sample rate is zero")
	}

	dataSize, err := r.findData(fmtEnd, length)
	if err != nil {
		return nil, err
	}
	w.Data = make([]byte, dataSize)
	if _, err := io.ReadFull(rs, w.Data); err != nil {
		return nil, waveErrorf(ReasonTruncated, "read data chunk: %v", err)
	}
	return w, nil
}

// riffReader reads little-endian fields and remembers the first failure so
// validation can be written as a straight sequence of checks.
type riffReader struct {
	r   io.ReadSeeker
	pos int64
	err error
	buf [4]byte
}

func (r *riffReader) read(n int) []byte {
	if r.err != nil {
		return r.buf[:n]
	}
	if _, err := io.ReadFull(r.r, r.buf[:n]); err != nil {
		r.err = err
		return r.buf[:n]
	}
	r.pos += int64(n)
	return r.buf[:n]
}

func (r *riffReader) tag() string { return string(r.read(4)) }
func (r *riffReader) u16() uint16 { return binary.LittleEndian.Uint16(r.read(2)) }
func (r *riffReader) u32() uint32 { return binary.LittleEndian.Uint32(r.read(4)) }

func (r *riffReader) truncated() error {
	if errors.Is(r.err, io.EOF) || errors.Is(r.err, io.ErrUnexpectedEOF) {
		return waveErrorf(ReasonTruncated, "unexpected end of file at offset %d", r.pos)
	}
	return r.err
}

// findData walks chunk headers from offset until a data chunk is found and
// returns its size, clamped to the bytes remaining in the stream. The
// underlying reader is left at the start of the chunk's payload.
func (r *riffReader) findData(offset, length int64) (int64, error) {
	if r.err != nil {
		return 0, r.truncated()
	}
	for {
		if offset+8 > length {
			return 0, waveErrorf(ReasonNoDataChunk, "no data tag")
		}
		if _, err := r.r.Seek(offset, io.SeekStart); err != nil {
			return 0, err
		}
		r.pos = offset
		tag := r.tag()
		size := int64(r.u32())
		if r.err != nil {
			return 0, r.truncated()
		}
		offset = r.pos
		if tag == "data" {
			if remaining := length - offset; size > remaining {
				size = remaining
			}
			return size, nil
		}
		offset += size
	}
}
