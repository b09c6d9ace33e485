package xnb

import "encoding/binary"

// PayloadWriter builds the little-endian object payload of an Asset.
type PayloadWriter struct {
	buf []byte
}

// NewPayloadWriter returns a writer with room for size bytes.
func NewPayloadWriter(size int) *PayloadWriter {
	return &PayloadWriter{buf: make([]byte, 0, size)}
}

func (p *PayloadWriter) Uint16(v uint16) { p.buf = binary.LittleEndian.AppendUint16(p.buf, v) }
func (p *PayloadWriter) Uint32(v uint32) { p.buf = binary.LittleEndian.AppendUint32(p.buf, v) }
func (p *PayloadWriter) Int32(v int32)   { p.Uint32(uint32(v)) }
func (p *PayloadWriter) Byte(v byte)     { p.buf = append(p.buf, v) }
func (p *PayloadWriter) Raw(b []byte)    { p.buf = append(p.buf, b...) }

// Bytes returns the accumulated payload.
func (p *PayloadWriter) Bytes() []byte { return p.buf }

// Len returns the number of bytes written so far.
func (p *PayloadWriter) Len() int { return len(p.buf) }
