// Package extract implements the two-stage acta extraction pipeline: QR
// decode across the pages of a PDF, with free-text parsing as fallback.
package extract

import (
	"bytes"
	"errors"
	"fmt"
	"image"

	// Scanned acta pages arrive as embedded JPEG, PNG or TIFF images.
	_ "image/jpeg"
	_ "image/png"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
)

// ErrNoQR reports that an image carried no decodable QR code. It is the
// expected outcome for pages without a code, not a fault.
var ErrNoQR = errors.New("no QR code detected")

// QRDecoder is the opaque decode capability: given an image, return the
// decoded QR text or ErrNoQR.
type QRDecoder interface {
	Decode(img image.Image) (string, error)
}

// minQRImageDim is the edge length below which a scanned page is considered
// too small for reliable QR recognition and gets upscaled before a retry.
const minQRImageDim = 600

// ZXingDecoder decodes QR codes using the zxing port. Images whose smaller
// edge falls under minQRImageDim are retried at the configured scale factor,
// which recovers codes from low-resolution scans without paying the upscale
// cost on every page.
type ZXingDecoder struct {
	scale int
}

// NewZXingDecoder creates a decoder with the given retry scale factor.
// A factor below 2 disables the upscale retry.
func NewZXingDecoder(scale int) *ZXingDecoder {
	return &ZXingDecoder{scale: scale}
}

func (d *ZXingDecoder) Decode(img image.Image) (string, error) {
	if text, err := decodeQR(img); err == nil {
		return text, nil
	}

	b := img.Bounds()
	if d.scale < 2 || min(b.Dx(), b.Dy()) >= minQRImageDim {
		return "", ErrNoQR
	}

	scaled := image.NewRGBA(image.Rect(0, 0, b.Dx()*d.scale, b.Dy()*d.scale))
	draw.ApproxBiLinear.Scale(scaled, scaled.Bounds(), img, b, draw.Src, nil)

	text, err := decodeQR(scaled)
	if err != nil {
		return "", ErrNoQR
	}
	return text, nil
}

func decodeQR(img image.Image) (string, error) {
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return "", fmt.Errorf("binarize image: %w", err)
	}

	hints := map[gozxing.DecodeHintType]interface{}{
		gozxing.DecodeHintType_TRY_HARDER: true,
	}
	result, err := qrcode.NewQRCodeReader().Decode(bmp, hints)
	if err != nil {
		return "", ErrNoQR
	}

	text := result.GetText()
	if text == "" {
		return "", ErrNoQR
	}
	return text, nil
}

// DecodeImageBytes decodes raw image bytes (camera snapshot uploads) and runs
// QR detection on the result.
func DecodeImageBytes(decoder QRDecoder, data []byte) (string, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("decode image: %w", err)
	}
	return decoder.Decode(img)
}
