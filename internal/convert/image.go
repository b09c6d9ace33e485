package convert

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"

	_ "golang.org/x/image/bmp"

	"xnbconv/internal/xnb"
	"xnbconv/pkg/imgutil"
)

// Texture2DReader is the reader declared for texture assets.
const Texture2DReader = "Microsoft.Xna.Framework.Content.Texture2DReader, " +
	"Microsoft.Xna.Framework.Graphics, Version=4.0.0.0, " +
	"Culture=neutral, PublicKeyToken=842cf8be1de50553"

const surfaceFormatColor = 0

// ImageOptions controls texture encoding.
type ImageOptions struct {
	Premultiply bool
	HiDef       bool
	// Compressor compresses the body when non-nil and available.
	Compressor xnb.Compressor
	// HonorOrientation rotates JPEG sources according to their EXIF tag.
	HonorOrientation bool
}

// ConvertImage decodes the image at inputPath and writes a texture container
// next to outputPath with its extension replaced. It returns the written path.
func ConvertImage(ctx context.Context, inputPath, outputPath string, opts ImageOptions) (string, error) {
	outputPath = OutputPath(outputPath)
	if err := checkInput(inputPath); err != nil {
		return "", err
	}

	img, err := decodeImage(inputPath, opts.HonorOrientation)
	if err != nil {
		return "", err
	}

	asset := TextureAsset(img, opts.Premultiply)
	err = writeOutput(outputPath, func(w io.Writer) error {
		_, err := xnb.Encode(ctx, w, asset, xnb.Options{HiDef: opts.HiDef, Compressor: opts.Compressor})
		return err
	})
	if err != nil {
		return "", err
	}
	return outputPath, nil
}

// TextureAsset builds a single-mip Color texture asset from img.
func TextureAsset(img image.Image, premultiply bool) xnb.Asset {
	b := img.Bounds()
	pix := bgraPixels(img)
	transformPixels(pix, premultiply)

	p := xnb.NewPayloadWriter(20 + len(pix))
	p.Int32(surfaceFormatColor)
	p.Int32(int32(b.Dx()))
	p.Int32(int32(b.Dy()))
	p.Int32(1) // mip count
	p.Int32(int32(len(pix)))
	p.Raw(pix)

	return xnb.Asset{
		Readers: []xnb.TypeReader{{Name: Texture2DReader}},
		Payload: p.Bytes(),
	}
}

func decodeImage(path string, honorOrientation bool) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	kind, err := imgutil.SniffReader(f)
	if err != nil {
		return nil, &ImageError{Path: path, Err: err}
	}
	if !kind.IsImage() {
		return nil, &ImageError{Path: path, Err: fmt.Errorf("unrecognized image data (%s)", kind)}
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, &ImageError{Path: path, Err: err}
	}

	if honorOrientation && kind == imgutil.KindJPEG {
		orientation, err := readOrientation(f)
		if err != nil {
			return nil, &ImageError{Path: path, Err: fmt.Errorf("read orientation: %w", err)}
		}
		img = applyOrientation(img, orientation)
	}
	return img, nil
}
