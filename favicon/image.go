package favicon

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"strings"

	"golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// FallbackSwatch is used for icons that cannot be decoded.
const FallbackSwatch = "#ff6600"

var ErrUnsupportedImage = errors.New("unsupported icon image")

var (
	pngSignature = []byte("\x89PNG\r\n\x1a\n")
	icoSignature = []byte{0, 0, 1, 0}
)

const (
	icoHeaderLen       = 6
	icoEntryLen        = 16
	bmpFileHeaderLen   = 14
	bmpInfoHeaderLen   = 40
	bmpV4InfoHeaderLen = 108
)

// Image decodes icon data. Raster formats supported by image packages are
// decoded directly, ICO files are decoded from their largest PNG or bitmap
// entry. Vector icons are not supported.
func (icon *Icon) Image() (image.Image, error) {
	if strings.HasPrefix(icon.ContentType, "image/svg") {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedImage, icon.ContentType)
	}

	if bytes.HasPrefix(icon.Data, icoSignature) {
		return decodeICO(icon.Data)
	}

	img, _, err := image.Decode(bytes.NewReader(icon.Data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnsupportedImage, err)
	}

	return img, nil
}

// Swatch returns average colour of opaque pixels of the icon in form of
// `#rrggbb`. FallbackSwatch is returned when icon cannot be decoded or has
// no opaque pixel.
func (icon *Icon) Swatch() string {
	img, err := icon.Image()
	if err != nil {
		return FallbackSwatch
	}

	return AverageColor(img)
}

// AverageColor computes average colour of pixels whose alpha is at least half
// opaque.
func AverageColor(img image.Image) string {
	bounds := img.Bounds()

	var r, g, b, cnt uint64
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			cr, cg, cb, ca := img.At(x, y).RGBA()
			if ca < 0x8000 {
				continue
			}

			// un-premultiply
			r += uint64(cr) * 0xffff / uint64(ca)
			g += uint64(cg) * 0xffff / uint64(ca)
			b += uint64(cb) * 0xffff / uint64(ca)
			cnt++
		}
	}

	if cnt == 0 {
		return FallbackSwatch
	}

	return fmt.Sprintf("#%02x%02x%02x", (r/cnt)>>8, (g/cnt)>>8, (b/cnt)>>8)
}

type icoEntry struct {
	width  int
	bpp    int
	size   int
	offset int
}

func decodeICO(data []byte) (image.Image, error) {
	if len(data) < icoHeaderLen {
		return nil, fmt.Errorf("%w: truncated ICO header", ErrUnsupportedImage)
	}

	count := int(binary.LittleEndian.Uint16(data[4:6]))

	var best *icoEntry
	for i := 0; i < count; i++ {
		start := icoHeaderLen + i*icoEntryLen
		if start+icoEntryLen > len(data) {
			break
		}

		raw := data[start : start+icoEntryLen]
		entry := icoEntry{
			width:  int(raw[0]),
			bpp:    int(binary.LittleEndian.Uint16(raw[6:8])),
			size:   int(binary.LittleEndian.Uint32(raw[8:12])),
			offset: int(binary.LittleEndian.Uint32(raw[12:16])),
		}
		if entry.width == 0 {
			entry.width = 256
		}

		if entry.size <= 0 || entry.offset < 0 || entry.offset+entry.size > len(data) {
			continue
		}

		if best == nil || entry.width > best.width || (entry.width == best.width && entry.bpp > best.bpp) {
			best = &entry
		}
	}

	if best == nil {
		return nil, fmt.Errorf("%w: no usable ICO entry", ErrUnsupportedImage)
	}

	payload := data[best.offset : best.offset+best.size]
	if bytes.HasPrefix(payload, pngSignature) {
		img, err := png.Decode(bytes.NewReader(payload))
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrUnsupportedImage, err)
		}
		return img, nil
	}

	return decodeICOBitmap(payload)
}

// decodeICOBitmap turns DIB data stored in ICO into a BMP file and decodes it.
// Height in ICO DIB header covers both colour and mask data, only colour part
// is kept.
func decodeICOBitmap(dib []byte) (image.Image, error) {
	if len(dib) < bmpInfoHeaderLen {
		return nil, fmt.Errorf("%w: truncated bitmap header", ErrUnsupportedImage)
	}

	headerLen := int(binary.LittleEndian.Uint32(dib[0:4]))
	if headerLen != bmpInfoHeaderLen {
		return nil, fmt.Errorf("%w: bitmap header size %d", ErrUnsupportedImage, headerLen)
	}

	width := int(int32(binary.LittleEndian.Uint32(dib[4:8])))
	height := int(int32(binary.LittleEndian.Uint32(dib[8:12]))) / 2
	bpp := int(binary.LittleEndian.Uint16(dib[14:16]))
	colorUsed := int(binary.LittleEndian.Uint32(dib[32:36]))

	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: invalid bitmap size %dx%d", ErrUnsupportedImage, width, height)
	}

	paletteLen := 0
	switch bpp {
	case 8:
		paletteLen = colorUsed
		if paletteLen == 0 {
			paletteLen = 256
		}
	case 24, 32:
	default:
		return nil, fmt.Errorf("%w: %d bits per pixel bitmap", ErrUnsupportedImage, bpp)
	}

	rowSize := ((width*bpp + 31) / 32) * 4
	pixelStart := headerLen + paletteLen*4
	pixelEnd := pixelStart + rowSize*height
	if pixelEnd > len(dib) {
		return nil, fmt.Errorf("%w: truncated bitmap data", ErrUnsupportedImage)
	}

	info := make([]byte, bmpInfoHeaderLen)
	copy(info, dib[:bmpInfoHeaderLen])
	binary.LittleEndian.PutUint32(info[8:12], uint32(height))
	binary.LittleEndian.PutUint32(info[20:24], 0)

	if bpp == 32 {
		// V4 header with default bit masks keeps alpha channel when decoding.
		v4 := make([]byte, bmpV4InfoHeaderLen)
		copy(v4, info)
		binary.LittleEndian.PutUint32(v4[0:4], bmpV4InfoHeaderLen)
		binary.LittleEndian.PutUint32(v4[16:20], 3)
		binary.LittleEndian.PutUint32(v4[40:44], 0x00ff0000)
		binary.LittleEndian.PutUint32(v4[44:48], 0x0000ff00)
		binary.LittleEndian.PutUint32(v4[48:52], 0x000000ff)
		binary.LittleEndian.PutUint32(v4[52:56], 0xff000000)
		info = v4
	} else if bpp == 8 {
		binary.LittleEndian.PutUint32(info[32:36], uint32(paletteLen))
	}

	palette := dib[headerLen:pixelStart]
	pixels := dib[pixelStart:pixelEnd]
	dataOffset := bmpFileHeaderLen + len(info) + len(palette)

	buffer := bytes.Buffer{}
	buffer.Grow(dataOffset + len(pixels))

	fileHeader := make([]byte, bmpFileHeaderLen)
	copy(fileHeader, "BM")
	binary.LittleEndian.PutUint32(fileHeader[2:6], uint32(dataOffset+len(pixels)))
	binary.LittleEndian.PutUint32(fileHeader[10:14], uint32(dataOffset))

	buffer.Write(fileHeader)
	buffer.Write(info)
	buffer.Write(palette)
	buffer.Write(pixels)

	img, err := bmp.Decode(&buffer)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnsupportedImage, err)
	}

	return img, nil
}
