// Package convert encodes decoded images and PCM audio as XNB assets.
package convert

import (
	"fmt"
	"io/fs"
)

// MissingInputError reports an input that cannot be found. Dir is set when
// the containing directory is missing rather than the file itself.
type MissingInputError struct {
	Path string
	Dir  bool
}

func (e *MissingInputError) Error() string {
	if e.Dir {
		return fmt.Sprintf("could not find a part of the path %q", e.Path)
	}
	return fmt.Sprintf("could not find file %q", e.Path)
}

func (e *MissingInputError) Unwrap() error { return fs.ErrNotExist }

// ImageError wraps a failure to decode or read pixels from a source image.
type ImageError struct {
	Path string
	Err  error
}

func (e *ImageError) Error() string {
	return fmt.Sprintf("image %s: %v", e.Path, e.Err)
}

func (e *ImageError) Unwrap() error { return e.Err }

// WaveReason identifies which RIFF validation step rejected a file.
type WaveReason int

const (
	ReasonBadTag WaveReason = iota + 1
	ReasonLengthMismatch
	ReasonBadFormatSize
	ReasonUnsupportedCodec
	ReasonBadByteRate
	ReasonBadBlockAlign
	ReasonNoDataChunk
	ReasonTruncated
)

func (r WaveReason) String() string {
	switch r {
	case ReasonBadTag:
		return "bad tag"
	case ReasonLengthMismatch:
		return "length mismatch"
	case ReasonBadFormatSize:
		return "bad format chunk size"
	case ReasonUnsupportedCodec:
		return "unsupported codec"
	case ReasonBadByteRate:
		return "bad average byte rate"
	case ReasonBadBlockAlign:
		return "bad block align"
	case ReasonNoDataChunk:
		return "missing data chunk"
	case ReasonTruncated:
		return "truncated stream"
	default:
		return "unknown"
	}
}

// WaveError is a RIFF/WAVE validation failure.
type WaveError struct {
	Reason  WaveReason
	Message string
}

func (e *WaveError) Error() string { return e.Message }

func waveErrorf(reason WaveReason, format string, args ...any) *WaveError {
	return &WaveError{Reason: reason, Message: fmt.Sprintf(format, args...)}
}

// TranscodeError reports that a non-WAV input could not be turned into WAV.
type TranscodeError struct {
	Path string
	Err  error
}

func (e *TranscodeError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("failed to convert %s to wav", e.Path)
	}
	return fmt.Sprintf("failed to convert %s to wav: %v", e.Path, e.Err)
}

func (e *TranscodeError) Unwrap() error { return e.Err }
