package imaging

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestNormalizeRGBConvertsTransparentPNG(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	for x := 0; x < 8; x++ {
		for y := 0; y < 8; y++ {
			src.Set(x, y, color.NRGBA{R: 255, A: 0})
		}
	}

	out, err := NormalizeRGB(encodePNG(t, src))
	require.NoError(t, err)

	decoded, format, err := image.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, image.Rect(0, 0, 8, 8), decoded.Bounds())

	// fully transparent pixels end up white
	r, g, b, _ := decoded.At(4, 4).RGBA()
	assert.Greater(t, r>>8, uint32(240))
	assert.Greater(t, g>>8, uint32(240))
	assert.Greater(t, b>>8, uint32(240))
}

func TestNormalizeRGBConvertsGray(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 4, 4))
	out, err := NormalizeRGB(encodePNG(t, src))
	require.NoError(t, err)

	_, format, err := image.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
}

func TestNormalizeRGBPassesThroughJPEG(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 4, 4))
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, src, nil))

	out, err := NormalizeRGB(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, buf.Bytes(), out)
}

func TestNormalizeRGBMalformed(t *testing.T) {
	for _, data := range [][]byte{nil, []byte("definitely not an image"), {0x89, 'P', 'N', 'G'}} {
		_, err := NormalizeRGB(data)
		assert.ErrorIs(t, err, ErrMalformedImage)
	}
}

func TestNormalizeRGBFormats(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 6, 4))
	for x := 0; x < 6; x++ {
		for y := 0; y < 4; y++ {
			src.Set(x, y, color.NRGBA{R: 10, G: 200, B: 30, A: 255})
		}
	}

	encoders := map[string]func(*bytes.Buffer) error{
		"png":  func(b *bytes.Buffer) error { return png.Encode(b, src) },
		"gif":  func(b *bytes.Buffer) error { return gif.Encode(b, src, nil) },
		"bmp":  func(b *bytes.Buffer) error { return bmp.Encode(b, src) },
		"tiff": func(b *bytes.Buffer) error { return tiff.Encode(b, src, nil) },
	}

	for name, encode := range encoders {
		t.Run(name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, encode(&buf))

			out, err := NormalizeRGB(buf.Bytes())
			require.NoError(t, err)

			cfg, format, err := image.DecodeConfig(bytes.NewReader(out))
			require.NoError(t, err)
			assert.Equal(t, "jpeg", format)
			assert.Equal(t, 6, cfg.Width)
			assert.Equal(t, 4, cfg.Height)
		})
	}
}

// hugePNG returns a PNG whose header declares width x height. Only the
// header is valid; no pixel data is decodable.
func hugePNG(t *testing.T, width, height uint32) []byte {
	t.Helper()
	data := encodePNG(t, image.NewGray(image.Rect(0, 0, 1, 1)))

	// signature(8) length(4) "IHDR"(4) then width and height
	binary.BigEndian.PutUint32(data[16:20], width)
	binary.BigEndian.PutUint32(data[20:24], height)
	binary.BigEndian.PutUint32(data[29:33], crc32.ChecksumIEEE(data[12:29]))
	return data
}

// webpHeader returns a lossless WebP header declaring a 16384x16384 canvas.
func webpHeader() []byte {
	var b bytes.Buffer
	b.WriteString("RIFF")
	_ = binary.Write(&b, binary.LittleEndian, uint32(18))
	b.WriteString("WEBPVP8L")
	_ = binary.Write(&b, binary.LittleEndian, uint32(5))
	// signature, then 14 bits width-1, 14 bits height-1, alpha, version 0
	b.Write([]byte{0x2f, 0xff, 0xff, 0xff, 0x0f, 0x00})
	return b.Bytes()
}

func TestNormalizeRGBRejectsHugeDimensions(t *testing.T) {
	tests := map[string][]byte{
		"png 30000x30000":  hugePNG(t, 30000, 30000),
		"png 1x50000000":   hugePNG(t, 1, 50_000_000),
		"webp 16384x16384": webpHeader(),
	}

	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := NormalizeRGB(data)
			assert.ErrorIs(t, err, ErrImageTooLarge)
			assert.NotErrorIs(t, err, ErrMalformedImage)
		})
	}
}

func TestSupported(t *testing.T) {
	for _, mime := range []string{
		"image/jpeg", "image/png", "image/gif", "image/webp",
		"image/bmp", "image/x-ms-bmp", "image/tiff", "IMAGE/PNG", "image/jpeg; charset=binary",
	} {
		assert.True(t, Supported(mime), mime)
	}
	for _, mime := range []string{"image/heic", "image/svg+xml", "image/avif", "application/pdf", ""} {
		assert.False(t, Supported(mime), mime)
	}
}
