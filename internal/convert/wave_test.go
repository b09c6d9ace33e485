package convert

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
)

type waveSpec struct {
	formatTag   uint16
	channels    uint16
	sampleRate  uint32
	byteRate    uint32
	blockAlign  uint16
	bits        uint16
	fmtExtra    []byte
	extraChunks [][]byte
	data        []byte
	noData      bool
	lengthDelta int
}

func pcmSpec(data []byte) waveSpec {
	return waveSpec{
		formatTag:  1,
		channels:   1,
		sampleRate: 8000,
		byteRate:   16000,
		blockAlign: 2,
		bits:       16,
		data:       data,
	}
}

func chunk(tag string, payload []byte) []byte {
	out := make([]byte, 8, 8+len(payload))
	copy(out, tag)
	binary.LittleEndian.PutUint32(out[4:], uint32(len(payload)))
	return append(out, payload...)
}

func buildWave(s waveSpec) []byte {
	fmtBody := make([]byte, 16)
	binary.LittleEndian.PutUint16(fmtBody[0:], s.formatTag)
	binary.LittleEndian.PutUint16(fmtBody[2:], s.channels)
	binary.LittleEndian.PutUint32(fmtBody[4:], s.sampleRate)
	binary.LittleEndian.PutUint32(fmtBody[8:], s.byteRate)
	binary.LittleEndian.PutUint16(fmtBody[12:], s.blockAlign)
	binary.LittleEndian.PutUint16(fmtBody[14:], s.bits)
	fmtBody = append(fmtBody, s.fmtExtra...)

	var body bytes.Buffer
	body.WriteString("WAVE")
	body.Write(chunk("fmt ", fmtBody))
	for _, c := range s.extraChunks {
		body.Write(c)
	}
	if !s.noData {
		body.Write(chunk("data", s.data))
	}

	out := make([]byte, 8, 8+body.Len())
	copy(out, "RIFF")
	binary.LittleEndian.PutUint32(out[4:], uint32(body.Len()+s.lengthDelta))
	return append(out, body.Bytes()...)
}

func TestParseWave(t *testing.T) {
	data := bytes.Repeat([]byte{1, 2}, 500)
	w, err := ParseWave(bytes.NewReader(buildWave(pcmSpec(data))))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if w.Channels != 1 || w.SampleRate != 8000 || w.BlockAlign != 2 || w.BitsPerSample != 16 {
		t.Fatalf("unexpected format %+v", w)
	}
	if !bytes.Equal(w.Data, data) {
		t.Fatal("data chunk mismatch")
	}
	if got := w.LoopLength(); got != 500 {
		t.Fatalf("loop length = %d, want 500", got)
	}
	// 1000 bytes at 16000 bytes/s is 62.5ms, truncated.
	if got := w.DurationMillis(); got != 62 {
		t.Fatalf("duration = %d, want 62", got)
	}
}

func TestParseWaveSkipsChunks(t *testing.T) {
	s := pcmSpec([]byte{9, 9, 9, 9})
	s.fmtExtra = []byte{0, 0}
	s.extraChunks = [][]byte{chunk("LIST", []byte("INFOsome metadata")), chunk("fact", []byte{2, 0, 0, 0})}
	w, err := ParseWave(bytes.NewReader(buildWave(s)))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !bytes.Equal(w.Data, []byte{9, 9, 9, 9}) {
		t.Fatalf("data = %v", w.Data)
	}
}

func TestParseWaveClampsOversizedData(t *testing.T) {
	raw := buildWave(pcmSpec([]byte{1, 2, 3, 4}))
	// Claim more data than the file holds.
	binary.LittleEndian.PutUint32(raw[len(raw)-8:], 1<<20)
	w, err := ParseWave(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(w.Data) != 4 {
		t.Fatalf("data length = %d, want 4", len(w.Data))
	}
}

func TestParseWaveRejects(t *testing.T) {
	cases := []struct {
		name   string
		raw    func() []byte
		reason WaveReason
	}{
		{"riff tag", func() []byte {
			raw := buildWave(pcmSpec([]byte{0, 0}))
			copy(raw, "RIFX")
			return raw
		}, ReasonBadTag},
		{"length mismatch", func() []byte {
			s := pcmSpec([]byte{0, 0})
			s.lengthDelta = 2
			return buildWave(s)
		}, ReasonLengthMismatch},
		{"wave tag", func() []byte {
			raw := buildWave(pcmSpec([]byte{0, 0}))
			copy(raw[8:], "AVI ")
			return raw
		}, ReasonBadTag},
		{"fmt tag", func() []byte {
			raw := buildWave(pcmSpec([]byte{0, 0}))
			copy(raw[12:], "junk")
			return raw
		}, ReasonBadTag},
		{"fmt size", func() []byte {
			raw := buildWave(pcmSpec([]byte{0, 0}))
			binary.LittleEndian.PutUint32(raw[16:], 14)
			return raw
		}, ReasonBadFormatSize},
		{"non pcm", func() []byte {
			s := pcmSpec(nil)
			s.formatTag = 3
			s.noData = true
			return buildWave(s)
		}, ReasonUnsupportedCodec},
		{"byte rate", func() []byte {
			s := pcmSpec([]byte{0, 0})
			s.byteRate = 15999
			return buildWave(s)
		}, ReasonBadByteRate},
		{"block align", func() []byte {
			s := pcmSpec([]byte{0, 0})
			s.blockAlign = 4
			return buildWave(s)
		}, ReasonBadBlockAlign},
		{"zero block align", func() []byte {
			s := pcmSpec([]byte{0, 0})
			s.bits = 4
			s.byteRate = 0
			s.blockAlign = 0
			return buildWave(s)
		}, ReasonBadBlockAlign},
		{"no data chunk", func() []byte {
			s := pcmSpec(nil)
			s.noData = true
			s.extraChunks = [][]byte{chunk("LIST", []byte("INFO"))}
			return buildWave(s)
		}, ReasonNoDataChunk},
		{"truncated format", func() []byte {
			var b bytes.Buffer
			b.WriteString("RIFF")
			binary.Write(&b, binary.LittleEndian, uint32(16))
			b.WriteString("WAVEfmt ")
			binary.Write(&b, binary.LittleEndian, uint32(16))
			b.Write([]byte{1, 0, 1, 0})
			return b.Bytes()
		}, ReasonTruncated},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseWave(bytes.NewReader(tc.raw()))
			var we *WaveError
			if !errors.As(err, &we) {
				t.Fatalf("got %v, want WaveError", err)
			}
			if we.Reason != tc.reason {
				t.Fatalf("reason = %v (%s), want %v", we.Reason, we.Message, tc.reason)
			}
		})
	}
}

func TestDurationDoesNotWrap(t *testing.T) {
	w := &Wave{Channels: 2, BitsPerSample: 16, SampleRate: 44100, BlockAlign: 4, Data: make([]byte, 176400*30)}
	if got := w.DurationMillis(); got != 30000 {
		t.Fatalf("duration = %d, want 30000", got)
	}
}
