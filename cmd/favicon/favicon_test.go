package favicon

import (
	"path/filepath"
	"testing"
)

func TestOutputPath(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "icon.png")

	tests := []struct {
		output  string
		siteURL string
		want    string
	}{
		{dir, "https://news.ycombinator.com/item?id=1", filepath.Join(dir, "news.ycombinator.com.png")},
		{dir, "http://localhost:8080/", filepath.Join(dir, "localhost：8080.png")},
		{file, "https://example.com", file},
	}

	for _, test := range tests {
		output := outputPath(test.output, test.siteURL, "png")
		if output != test.want {
			t.Errorf("output:\n\t%q\nwant:\n\t%q", output, test.want)
		}
	}
}
