package processor

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"xnbconv/internal/convert"
	"xnbconv/internal/extract"
	"xnbconv/internal/script"
)

// ErrorKind is the class an item failure is filed under.
type ErrorKind int

const (
	KindUnclassified ErrorKind = iota
	KindUnauthorized
	KindFileNotFound
	KindDirectoryNotFound
	KindIO
	KindContainerFormat
	KindImage
	KindAudioFormat
	KindTranscode
	KindScriptParse
)

func (k ErrorKind) String() string {
	switch k {
	case KindUnauthorized:
		return "unauthorized access"
	case KindFileNotFound:
		return "file not found"
	case KindDirectoryNotFound:
		return "directory not found"
	case KindIO:
		return "io error"
	case KindContainerFormat:
		return "xnb error"
	case KindImage:
		return "image error"
	case KindAudioFormat:
		return "wav error"
	case KindTranscode:
		return "transcode error"
	case KindScriptParse:
		return "script error"
	default:
		return "unclassified"
	}
}

// Classify files err under an ErrorKind and renders the reason shown next
// to the offending path.
func Classify(err error) (ErrorKind, string) {
	var (
		loadErr      *script.LoadError
		transcodeErr *convert.TranscodeError
		waveErr      *convert.WaveError
		imageErr     *convert.ImageError
		formatErr    *extract.FormatError
		missingErr   *convert.MissingInputError
		pathErr      *fs.PathError
		linkErr      *os.LinkError
	)

	switch {
	case errors.As(err, &loadErr):
		return KindScriptParse, reason(KindScriptParse, loadErr.Err)
	case errors.As(err, &transcodeErr):
		return KindTranscode, reason(KindTranscode, transcodeErr)
	case errors.As(err, &waveErr):
		return KindAudioFormat, fmt.Sprintf("%s (%s: %s)", KindAudioFormat, waveErr.Reason, waveErr.Message)
	case errors.As(err, &imageErr):
		return KindImage, reason(KindImage, imageErr.Err)
	case errors.As(err, &formatErr):
		return KindContainerFormat, reason(KindContainerFormat, formatErr.Err)
	case errors.As(err, &missingErr):
		if missingErr.Dir {
			return KindDirectoryNotFound, reason(KindDirectoryNotFound, missingErr)
		}
		return KindFileNotFound, reason(KindFileNotFound, missingErr)
	case errors.Is(err, fs.ErrPermission):
		return KindUnauthorized, reason(KindUnauthorized, err)
	case errors.Is(err, fs.ErrNotExist):
		return KindFileNotFound, reason(KindFileNotFound, err)
	case errors.As(err, &pathErr), errors.As(err, &linkErr),
		errors.Is(err, io.ErrUnexpectedEOF), errors.Is(err, io.ErrShortWrite):
		return KindIO, reason(KindIO, err)
	default:
		return KindUnclassified, fmt.Sprintf("%s (%v)", typeName(err), err)
	}
}

func reason(kind ErrorKind, err error) string {
	if err == nil {
		return kind.String()
	}
	return fmt.Sprintf("%s (%v)", kind, err)
}

// typeName is the bare type name of err, without pointer or package.
func typeName(err error) string {
	name := strings.TrimPrefix(fmt.Sprintf("%T", err), "*")
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}
	return name
}
