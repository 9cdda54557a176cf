package network

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/gocolly/colly/v2"
	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
)

func newTestFetcher() *Fetcher {
	return NewFetcher(Options{
		Timeout:  5 * time.Second,
		RetryCnt: 2,
	})
}

func TestFetcherGetJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Accept-Encoding") != AcceptEncoding {
			t.Errorf("unexpected Accept-Encoding: %q", r.Header.Get("Accept-Encoding"))
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Write([]byte(`[1, 2, 3]`))
	}))
	defer server.Close()

	ids := []int{}
	if err := newTestFetcher().GetJSON(context.Background(), server.URL, &ids); err != nil {
		t.Fatalf("request failed: %s", err)
	}

	if len(ids) != 3 || ids[2] != 3 {
		t.Errorf("unexpected result: %v", ids)
	}
}

func TestFetcherDecodesBrotli(t *testing.T) {
	buffer := bytes.Buffer{}
	writer := brotli.NewWriter(&buffer)
	writer.Write([]byte("hello brotli"))
	writer.Close()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Encoding", "br")
		w.Header().Set("Content-Type", "text/plain")
		w.Write(buffer.Bytes())
	}))
	defer server.Close()

	resp, err := newTestFetcher().Get(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("request failed: %s", err)
	}

	if resp.Text() != "hello brotli" {
		t.Errorf("output:\n\t%q\nwant:\n\t%q", resp.Text(), "hello brotli")
	}

	if resp.ContentType() != "text/plain" {
		t.Errorf("unexpected content type %q", resp.ContentType())
	}
}

func TestFetcherStatusError(t *testing.T) {
	var hitCnt atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hitCnt.Add(1)
		http.NotFound(w, r)
	}))
	defer server.Close()

	_, err := newTestFetcher().Get(context.Background(), server.URL+"/missing")
	if !errors.Is(err, ErrStatus) {
		t.Fatalf("expecting status error, got %v", err)
	}

	statusErr := &StatusError{}
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusNotFound {
		t.Errorf("unexpected status error: %v", err)
	}

	if hitCnt.Load() != 1 {
		t.Errorf("4xx response should not be retried, got %d requests", hitCnt.Load())
	}
}

func TestFetcherRetriesServerError(t *testing.T) {
	var hitCnt atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hitCnt.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	resp, err := newTestFetcher().Get(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("request should succeed after retry: %s", err)
	}

	if resp.Text() != "ok" || hitCnt.Load() != 3 {
		t.Errorf("unexpected result %q after %d requests", resp.Text(), hitCnt.Load())
	}
}

func TestFetcherMaxRetry(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := newTestFetcher().Get(context.Background(), server.URL)
	if !errors.Is(err, ErrMaxRetry) {
		t.Errorf("expecting max retry error, got %v", err)
	}
}

func TestFetcherCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestFetcher().Get(ctx, "http://127.0.0.1:1/")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expecting context error, got %v", err)
	}
}

func TestFetcherOnHTML(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(`<html><head>
			<link rel="stylesheet" href="/style.css">
			<link rel="shortcut icon" href="/static/icon.png">
		</head><body></body></html>`))
	}))
	defer server.Close()

	hrefs := []string{}
	_, err := newTestFetcher().OnHTML(context.Background(), server.URL, "link[rel~='icon']", func(e *colly.HTMLElement) {
		hrefs = append(hrefs, e.Attr("href"))
	})
	if err != nil {
		t.Fatalf("request failed: %s", err)
	}

	if len(hrefs) != 1 || hrefs[0] != "/static/icon.png" {
		t.Errorf("unexpected hrefs: %v", hrefs)
	}
}

func TestDecompressUnknownEncoding(t *testing.T) {
	if _, err := DecompressBody([]byte("x"), "compress"); err == nil {
		t.Errorf("expecting error for unknown encoding")
	}

	data, err := DecompressBody([]byte("plain"), "")
	if err != nil || string(data) != "plain" {
		t.Errorf("identity body should be returned as is")
	}
}

func TestDecompressDeflate(t *testing.T) {
	want := "[1,2,3]"

	zlibBuffer := bytes.Buffer{}
	zlibWriter := zlib.NewWriter(&zlibBuffer)
	zlibWriter.Write([]byte(want))
	zlibWriter.Close()

	rawBuffer := bytes.Buffer{}
	rawWriter, err := flate.NewWriter(&rawBuffer, flate.DefaultCompression)
	if err != nil {
		t.Fatalf("failed to create flate writer: %s", err)
	}
	rawWriter.Write([]byte(want))
	rawWriter.Close()

	for name, body := range map[string][]byte{
		"zlib": zlibBuffer.Bytes(),
		"raw":  rawBuffer.Bytes(),
	} {
		data, err := DecompressBody(body, "deflate")
		if err != nil {
			t.Errorf("%s: decompress failed: %s", name, err)
			continue
		}
		if string(data) != want {
			t.Errorf("%s: output:\n\t%q\nwant:\n\t%q", name, data, want)
		}
	}
}

func TestDecompressZstd(t *testing.T) {
	encoder, err := zstd.NewWriter(nil)
	if err != nil {
		t.Fatalf("failed to create zstd encoder: %s", err)
	}
	body := encoder.EncodeAll([]byte("hello zstd"), nil)
	encoder.Close()

	data, err := DecompressBody(body, "zstd")
	if err != nil {
		t.Fatalf("decompress failed: %s", err)
	}
	if string(data) != "hello zstd" {
		t.Errorf("output:\n\t%q\nwant:\n\t%q", data, "hello zstd")
	}
}

func TestFetcherUndecodableBody(t *testing.T) {
	var hitCnt atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hitCnt.Add(1)
		w.Header().Set("Content-Encoding", "deflate")
		// neither zlib header nor valid deflate block type
		w.Write([]byte{0x07, 0x00, 0x01})
	}))
	defer server.Close()

	var ids []int
	err := newTestFetcher().GetJSON(context.Background(), server.URL, &ids)
	if !errors.Is(err, ErrDecode) {
		t.Fatalf("expecting ErrDecode, got %v", err)
	}

	if cnt := hitCnt.Load(); cnt != 1 {
		t.Errorf("undecodable body should not be retried, got %d requests", cnt)
	}
}
