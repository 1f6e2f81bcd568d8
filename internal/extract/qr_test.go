package extract

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// qrImage encodes payload into a QR code image of the given edge length.
func qrImage(t *testing.T, payload string, size int) image.Image {
	t.Helper()

	matrix, err := qrcode.NewQRCodeWriter().Encode(
		payload, gozxing.BarcodeFormat_QR_CODE, size, size, nil)
	require.NoError(t, err)

	img := image.NewGray(image.Rect(0, 0, matrix.GetWidth(), matrix.GetHeight()))
	for y := 0; y < matrix.GetHeight(); y++ {
		for x := 0; x < matrix.GetWidth(); x++ {
			if matrix.Get(x, y) {
				img.SetGray(x, y, color.Gray{Y: 0})
			} else {
				img.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	return img
}

func TestZXingDecoderRoundTrip(t *testing.T) {
	payload := "Cadena:1234567,CURP:PELJ900201HTLRPN04"
	img := qrImage(t, payload, 256)

	text, err := NewZXingDecoder(2).Decode(img)
	require.NoError(t, err)
	assert.Equal(t, payload, text)
}

func TestZXingDecoderSmallImageUpscaleRetry(t *testing.T) {
	// Well under minQRImageDim: decoding must still succeed via the
	// upscale retry path when the raw attempt is insufficient.
	payload := "Cadena:777"
	img := qrImage(t, payload, 128)

	text, err := NewZXingDecoder(4).Decode(img)
	require.NoError(t, err)
	assert.Equal(t, payload, text)
}

func TestZXingDecoderNoCode(t *testing.T) {
	blank := image.NewGray(image.Rect(0, 0, 400, 400))
	for y := 0; y < 400; y++ {
		for x := 0; x < 400; x++ {
			blank.SetGray(x, y, color.Gray{Y: 255})
		}
	}

	_, err := NewZXingDecoder(2).Decode(blank)
	assert.ErrorIs(t, err, ErrNoQR)
}

func TestDecodeImageBytes(t *testing.T) {
	payload := "curp:ABCD123456HTLXYZ01"
	img := qrImage(t, payload, 256)

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	text, err := DecodeImageBytes(NewZXingDecoder(2), buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, payload, text)
}

func TestDecodeImageBytesNotAnImage(t *testing.T) {
	_, err := DecodeImageBytes(NewZXingDecoder(2), []byte("definitely not an image"))
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoQR)
}
