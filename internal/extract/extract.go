// Package extract is the decode-direction boundary: it verifies container and
// wave-bank files and hands them to an external extraction tool.
package extract

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"xnbconv/internal/xnb"
	"xnbconv/pkg/imgutil"
)

// Include selects which kinds of content are extracted.
type Include struct {
	Images    bool
	Sounds    bool
	Fonts     bool
	WaveBanks bool
}

// All includes every kind of content.
func All() Include {
	return Include{Images: true, Sounds: true, Fonts: true, WaveBanks: true}
}

// Assets reports whether any single-asset content kind is included.
func (i Include) Assets() bool {
	return i.Images || i.Sounds || i.Fonts
}

func (i Include) allows(kind AssetKind) bool {
	switch kind {
	case AssetImage:
		return i.Images
	case AssetSound:
		return i.Sounds
	case AssetFont:
		return i.Fonts
	default:
		return i.Assets()
	}
}

// Extractor decodes containers back into common media formats.
type Extractor interface {
	// Extract decodes a single container. It returns false when the asset
	// was skipped by the include filter.
	Extract(ctx context.Context, inputPath, outputPath string, include Include) (bool, error)
	// ExtractWaveBank writes every track of a wave bank into outputDir.
	ExtractWaveBank(ctx context.Context, inputPath, outputDir string) (bool, error)
}

// FormatError reports a malformed container or wave-bank file.
type FormatError struct {
	Path string
	Err  error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }

// AssetKind is the content class of a container's primary asset.
type AssetKind int

const (
	AssetUnknown AssetKind = iota
	AssetImage
	AssetSound
	AssetFont
	AssetOther
)

func (k AssetKind) String() string {
	switch k {
	case AssetImage:
		return "image"
	case AssetSound:
		return "sound"
	case AssetFont:
		return "font"
	case AssetOther:
		return "other"
	default:
		return "unknown"
	}
}

// Ext is the file extension an extracted asset of this kind is written with.
func (k AssetKind) Ext() string {
	switch k {
	case AssetImage, AssetFont:
		return ".png"
	case AssetSound:
		return ".wav"
	default:
		return ""
	}
}

// Classify maps the first type reader of a container to its content class.
func Classify(readers []xnb.TypeReader) AssetKind {
	if len(readers) == 0 {
		return AssetUnknown
	}
	name := readers[0].Name
	if i := strings.IndexByte(name, ','); i >= 0 {
		name = name[:i]
	}
	switch {
	case strings.HasSuffix(name, "Texture2DReader"):
		return AssetImage
	case strings.HasSuffix(name, "SoundEffectReader"):
		return AssetSound
	case strings.HasSuffix(name, "SpriteFontReader"):
		return AssetFont
	default:
		return AssetOther
	}
}

// Inspect verifies the container at path and classifies its primary asset.
// Bodies that cannot be decoded in-process are reported as AssetUnknown.
func Inspect(path string) (AssetKind, error) {
	f, err := os.Open(path)
	if err != nil {
		return AssetUnknown, err
	}
	defer f.Close()

	_, readers, err := xnb.ReadReaders(f)
	switch {
	case errors.Is(err, xnb.ErrOpaqueBody):
		return AssetUnknown, nil
	case err != nil:
		return AssetUnknown, &FormatError{Path: path, Err: err}
	}
	return Classify(readers), nil
}

// VerifyWaveBank checks the wave-bank signature of the file at path.
func VerifyWaveBank(path string) error {
	kind, err := imgutil.SniffFile(path)
	if err != nil {
		return err
	}
	if kind != imgutil.KindXWB {
		return &FormatError{Path: path, Err: errors.New("missing wave bank signature")}
	}
	return nil
}

// OutputPath replaces the container extension of outputPath with the
// extension for kind, or strips it when the kind is not known.
func OutputPath(outputPath string, kind AssetKind) string {
	return strings.TrimSuffix(outputPath, filepath.Ext(outputPath)) + kind.Ext()
}
