package convert

import (
	"image"
	"image/draw"
)

// bgraPixels returns the image as tightly packed 32-bit B,G,R,A bytes with
// straight (non-premultiplied) alpha.
func bgraPixels(img image.Image) []byte {
	src := toNRGBA(img)
	w, h := src.Rect.Dx(), src.Rect.Dy()
	out := make([]byte, w*h*4)
	for y := 0; y < h; y++ {
		row := src.Pix[y*src.Stride : y*src.Stride+w*4]
		dst := out[y*w*4 : (y+1)*w*4]
		for i := 0; i < len(row); i += 4 {
			dst[i] = row[i+2]
			dst[i+1] = row[i+1]
			dst[i+2] = row[i]
			dst[i+3] = row[i+3]
		}
	}
	return out
}

func toNRGBA(img image.Image) *image.NRGBA {
	if n, ok := img.(*image.NRGBA); ok && n.Rect.Min == (image.Point{}) {
		return n
	}
	b := img.Bounds()
	n := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(n, n.Rect, img, b.Min, draw.Src)
	return n
}

// transformPixels rewrites a B,G,R,A buffer in place into R,G,B,A order,
// premultiplying translucent pixels when requested.
func transformPixels(pix []byte, premultiply bool) {
	for i := 0; i+3 < len(pix); i += 4 {
		a := int(pix[i+3])
		switch {
		case !premultiply || a == 255:
			pix[i], pix[i+2] = pix[i+2], pix[i]
		case a != 0:
			b := int(pix[i])
			pix[i] = byte(int(pix[i+2]) * a / 255)
			pix[i+1] = byte(int(pix[i+1]) * a / 255)
			pix[i+2] = byte(b * a / 255)
		default:
			pix[i], pix[i+1], pix[i+2] = 0, 0, 0
		}
	}
}
