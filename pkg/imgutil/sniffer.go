package imgutil

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Kind identifies a recognized asset encoding.
type Kind int

const (
	KindUnknown Kind = iota
	KindPNG
	KindJPEG
	KindBMP
	KindGIF
	KindWAV
	KindXNB
	KindXWB
)

func (k Kind) String() string {
	switch k {
	case KindPNG:
		return "png"
	case KindJPEG:
		return "jpeg"
	case KindBMP:
		return "bmp"
	case KindGIF:
		return "gif"
	case KindWAV:
		return "wav"
	case KindXNB:
		return "xnb"
	case KindXWB:
		return "xwb"
	default:
		return "unknown"
	}
}

// IsImage reports whether k is one of the decodable image encodings.
func (k Kind) IsImage() bool {
	switch k {
	case KindPNG, KindJPEG, KindBMP, KindGIF:
		return true
	}
	return false
}

// HeaderSize is the number of leading bytes DetectHeader needs.
const HeaderSize = 12

var (
	pngSig     = []byte{0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a}
	jpegSig    = []byte{0xff, 0xd8, 0xff}
	bmpSig     = []byte("BM")
	gifSig     = []byte("GIF8")
	riffSig    = []byte("RIFF")
	waveSig    = []byte("WAVE")
	xnbSig     = []byte("XNB")
	xwbSigLE   = []byte("WBND")
	xwbSigBE   = []byte("DNBW")
	errShortHd = errors.New("header too short")
)

// DetectHeader inspects the first HeaderSize bytes of a file for known signatures.
func DetectHeader(header []byte) (Kind, error) {
	if len(header) < HeaderSize {
		return KindUnknown, errShortHd
	}

	switch {
	case bytes.HasPrefix(header, pngSig):
		return KindPNG, nil
	case bytes.HasPrefix(header, jpegSig):
		return KindJPEG, nil
	case bytes.HasPrefix(header, gifSig):
		return KindGIF, nil
	case bytes.HasPrefix(header, riffSig) && bytes.Equal(header[8:12], waveSig):
		return KindWAV, nil
	case bytes.HasPrefix(header, xnbSig):
		return KindXNB, nil
	case bytes.HasPrefix(header, xwbSigLE), bytes.HasPrefix(header, xwbSigBE):
		return KindXWB, nil
	case bytes.HasPrefix(header, bmpSig):
		return KindBMP, nil
	}

	return KindUnknown, nil
}

// SniffFile reads the leading bytes of a file to determine its type.
func SniffFile(path string) (Kind, error) {
	f, err := os.Open(path)
	if err != nil {
		return KindUnknown, err
	}
	defer f.Close()

	return SniffReader(f)
}

// SniffReader reads HeaderSize bytes from r and determines its type. Inputs
// shorter than HeaderSize are reported as KindUnknown without an error.
func SniffReader(r io.Reader) (Kind, error) {
	header := make([]byte, HeaderSize)
	if _, err := io.ReadFull(r, header); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return KindUnknown, nil
		}
		return KindUnknown, err
	}

	return DetectHeader(header)
}

// Ext returns the lowercased extension of path including the leading dot.
func Ext(path string) string {
	return strings.ToLower(filepath.Ext(path))
}

var audioExtensions = map[string]bool{
	".wav":  true,
	".mp3":  true,
	".mp2":  true,
	".mpga": true,
	".m4a":  true,
	".aac":  true,
	".flac": true,
	".ogg":  true,
	".wma":  true,
	".aif":  true,
	".aiff": true,
	".aifc": true,
}

// IsAudioExt reports whether ext (lowercase, with dot) is a convertible audio file.
func IsAudioExt(ext string) bool {
	return audioExtensions[ext]
}

// IsImageExt reports whether ext (lowercase, with dot) is a convertible image file.
func IsImageExt(ext string) bool {
	switch ext {
	case ".png", ".bmp", ".jpg":
		return true
	}
	return false
}

// IsContainerExt reports whether ext names a container or wave-bank file.
func IsContainerExt(ext string) bool {
	return ext == ".xnb" || ext == ".xwb"
}
