package common

import (
	"bufio"
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// If given `value` is not empty, returns it. Else `defaultValue` will be returned.
func GetStrOr(value, defaultValue string) string {
	if value == "" {
		return defaultValue
	} else {
		return value
	}
}

// GetDurationOr takes two duration value, if the first value is greater
// than or equal to zero, then this function return this value, else the second
// value will be returned.
func GetDurationOr(timeout, defaultValue time.Duration) time.Duration {
	if timeout < 0 {
		return defaultValue
	} else {
		return timeout
	}
}

// GetIntOr returns `value` if it is positive, else `defaultValue`.
func GetIntOr(value, defaultValue int) int {
	if value <= 0 {
		return defaultValue
	}
	return value
}

// LogBannerMsg prints a block of message to log.
func LogBannerMsg(msgs []string, paddingLen int) {
	maxLen := 0
	for i := range msgs {
		l := len(msgs[i])
		if l > maxLen {
			maxLen = l
		}
	}

	padding := strings.Repeat(" ", paddingLen)
	stem := strings.Repeat("─", maxLen+paddingLen*2)

	log.Info("╭" + stem + "╮")
	for _, line := range msgs {
		log.Info("│" + padding + line + strings.Repeat(" ", maxLen-len(line)) + padding + " ")
	}
	log.Info("╰" + stem + "╯")
}

const (
	ImageFormatBmp  = "bmp"
	ImageFormatJpeg = "jpeg"
	ImageFormatPng  = "png"
	ImageFormatTiff = "tiff"
)

var AllImageFormats = []string{
	ImageFormatBmp,
	ImageFormatJpeg,
	ImageFormatPng,
	ImageFormatTiff,
}

// ConvertImageTo decodes image from input and encodes it in given format into
// output. Unknown format falls back to PNG. Returns extension of written data.
func ConvertImageTo(input io.Reader, output io.Writer, outputFormat string) (string, error) {
	img, _, err := image.Decode(input)
	if err != nil {
		return "", fmt.Errorf("image decoding failed: %w", err)
	}

	return EncodeImage(img, output, outputFormat)
}

// EncodeImage writes an already decoded image in given format.
func EncodeImage(img image.Image, output io.Writer, outputFormat string) (string, error) {
	var err error
	var outputExt string
	switch outputFormat {
	case ImageFormatBmp:
		err = bmp.Encode(output, img)
		outputExt = ImageFormatBmp
	case ImageFormatJpeg:
		err = jpeg.Encode(output, img, nil)
		outputExt = ImageFormatJpeg
	case ImageFormatPng:
		err = png.Encode(output, img)
		outputExt = ImageFormatPng
	case ImageFormatTiff:
		err = tiff.Encode(output, img, nil)
		outputExt = ImageFormatTiff
	default:
		err = png.Encode(output, img)
		outputExt = ImageFormatPng
	}

	if err != nil {
		return "", fmt.Errorf("failed to encode image as %s: %w", outputExt, err)
	}

	return outputExt, nil
}

// SaveImageAs treats given byte slice as raw image data, and convert it to given
// format then saves it to disk.
func SaveImageAs(data []byte, outputName string, outputFormat string) error {
	file, err := os.Create(outputName)
	if err != nil {
		return fmt.Errorf("failed to create output image file %s: %w", outputName, err)
	}
	defer file.Close()

	bufWriter := bufio.NewWriter(file)
	defer bufWriter.Flush()

	reader := bytes.NewReader(data)
	_, err = ConvertImageTo(reader, bufWriter, outputFormat)
	if err != nil {
		return fmt.Errorf("failed to save image as %s %s: %w", outputFormat, outputName, err)
	}

	return nil
}
