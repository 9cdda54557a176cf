package network

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/gocolly/colly/v2"
	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
)

// AcceptEncoding is sent with every request. Gzip is left out on purpose,
// colly inflates gzip bodies by itself and Go's transport would do the same.
const AcceptEncoding = "br, zstd, deflate"

type bodyDecompressFunc = func([]byte) ([]byte, error)
type decompressorFactory = func(io.Reader) (io.Reader, error)

func DecompressResponseBody(r *colly.Response) ([]byte, error) {
	encoding := ""
	if r.Headers != nil {
		encoding = r.Headers.Get("content-encoding")
	}

	return DecompressBody(r.Body, encoding)
}

// DecompressBody decodes body according to value of Content-Encoding header.
func DecompressBody(body []byte, encoding string) ([]byte, error) {
	decompressFunc, err := getBodyDecompressFunc(encoding)
	if err != nil {
		return nil, err
	}

	data, err := decompressFunc(body)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress response: %w", err)
	}

	return data, nil
}

// Returns a byte decompress function according to encoding type.
func getBodyDecompressFunc(encoding string) (bodyDecompressFunc, error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "br":
		return brotliDecompress, nil
	case "deflate":
		return flateDecompress, nil
	case "zstd":
		return zstdDecompress, nil
	case "", "identity", "gzip", "x-gzip":
		// gzip is already decoded by colly's HTTP backend
		return noDecompress, nil
	default:
		return nil, fmt.Errorf("unknown content-encoding: %s", encoding)
	}
}

// Decompresses given data with decompress function. Readers implementing
// io.Closer are closed once all data is read.
func decompressBodyWith(body []byte, factory decompressorFactory) ([]byte, error) {
	byteReader := bytes.NewReader(body)

	reader, err := factory(byteReader)
	if err != nil {
		return nil, err
	}
	if closer, ok := reader.(io.Closer); ok {
		defer closer.Close()
	}

	output, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}

	return output, nil
}

// An no-opt decompress function. Input data will be returned directly.
func noDecompress(body []byte) ([]byte, error) {
	return body, nil
}

// brotliDecompress decodes data with brotli
func brotliDecompress(body []byte) ([]byte, error) {
	return decompressBodyWith(body, func(reader io.Reader) (io.Reader, error) {
		return brotli.NewReader(reader), nil
	})
}

// flateDecompress decodes HTTP deflate body. The body is zlib wrapped as
// RFC 9110 requires, some servers send raw deflate stream instead.
func flateDecompress(body []byte) ([]byte, error) {
	return decompressBodyWith(body, func(reader io.Reader) (io.Reader, error) {
		zlibReader, err := zlib.NewReader(reader)
		if err == nil {
			return zlibReader, nil
		}

		return flate.NewReader(bytes.NewReader(body)), nil
	})
}

// zstdDecompress decodes data with zstd.
func zstdDecompress(body []byte) ([]byte, error) {
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	defer decoder.Close()

	return decoder.DecodeAll(body, nil)
}
