package reference

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/kapu/portrait-gen-go/internal/domain"
)

func pngBytes(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode test image: %v", err)
	}
	return buf.Bytes()
}

func TestDownloadValidImages(t *testing.T) {
	large := pngBytes(t, 300, 300)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write(large)
	}))
	defer server.Close()

	dir := t.TempDir()
	l := NewLocator(nil, dir, zap.NewNop())

	refs := []domain.ReferenceImage{
		{URL: server.URL + "/a.png"},
		{URL: server.URL + "/b.png"},
	}
	paths, err := l.Download(context.Background(), refs)
	if err != nil {
		t.Fatalf("Download failed: %v", err)
	}

	if len(paths) != 2 {
		t.Fatalf("paths = %d, want 2", len(paths))
	}
	for i, path := range paths {
		if !strings.HasSuffix(path, fmt.Sprintf("ref_%d.png", i)) {
			t.Errorf("path %q does not follow the ref_N naming", path)
		}
		if _, err := os.Stat(path); err != nil {
			t.Errorf("downloaded file missing: %v", err)
		}
		if refs[i].LocalPath != path {
			t.Errorf("LocalPath not set on ref %d", i)
		}
	}
}

func TestDownloadSkipsBadImages(t *testing.T) {
	small := pngBytes(t, 64, 64)
	good := pngBytes(t, 300, 300)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/small.png":
			w.Header().Set("Content-Type", "image/png")
			w.Write(small)
		case "/broken.png":
			w.Header().Set("Content-Type", "image/png")
			w.Write([]byte("not an image"))
		case "/missing.png":
			http.NotFound(w, r)
		default:
			w.Header().Set("Content-Type", "image/png")
			w.Write(good)
		}
	}))
	defer server.Close()

	l := NewLocator(nil, t.TempDir(), zap.NewNop())

	refs := []domain.ReferenceImage{
		{URL: server.URL + "/small.png"},
		{URL: server.URL + "/broken.png"},
		{URL: server.URL + "/missing.png"},
		{URL: server.URL + "/good.png"},
	}
	paths, err := l.Download(context.Background(), refs)
	if err != nil {
		t.Fatalf("per-image failures must not fail the batch: %v", err)
	}
	if len(paths) != 1 {
		t.Fatalf("paths = %v, want only the good image", paths)
	}
	if refs[0].LocalPath != "" || refs[3].LocalPath == "" {
		t.Error("LocalPath should be set only on successful downloads")
	}
}

func TestDownloadFollowsHTMLPage(t *testing.T) {
	good := pngBytes(t, 300, 300)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/page":
			w.Header().Set("Content-Type", "text/html")
			fmt.Fprintf(w, `<html><head><meta property="og:image" content="/real.png"></head><body></body></html>`)
		case "/real.png":
			w.Header().Set("Content-Type", "image/png")
			w.Write(good)
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	l := NewLocator(nil, t.TempDir(), zap.NewNop())

	refs := []domain.ReferenceImage{{URL: server.URL + "/page"}}
	paths, err := l.Download(context.Background(), refs)
	if err != nil {
		t.Fatalf("Download failed: %v", err)
	}
	if len(paths) != 1 {
		t.Fatal("og:image link should have been followed")
	}
}

func TestExtractImageURL(t *testing.T) {
	og := `<html><head><meta property="og:image" content="https://cdn.example/ada.jpg"></head></html>`
	url, err := extractImageURL(strings.NewReader(og), "https://example.com/page")
	if err != nil || url != "https://cdn.example/ada.jpg" {
		t.Errorf("og:image extraction = %q, %v", url, err)
	}

	img := `<html><body><img src="/images/ada.png"><img src="/other.png"></body></html>`
	url, err = extractImageURL(strings.NewReader(img), "https://example.com/page")
	if err != nil || url != "https://example.com/images/ada.png" {
		t.Errorf("img fallback = %q, %v", url, err)
	}

	if _, err := extractImageURL(strings.NewReader("<html></html>"), "https://example.com"); err == nil {
		t.Error("pages without images should error")
	}
}

func TestAbsoluteURL(t *testing.T) {
	tests := []struct {
		href string
		page string
		want string
	}{
		{"https://cdn.example/a.jpg", "https://example.com/p", "https://cdn.example/a.jpg"},
		{"/images/a.jpg", "https://example.com/pages/p.html", "https://example.com/images/a.jpg"},
		{"a.jpg", "https://example.com/pages/p.html", "https://example.com/pages/a.jpg"},
	}
	for _, tt := range tests {
		if got := absoluteURL(tt.href, tt.page); got != tt.want {
			t.Errorf("absoluteURL(%q, %q) = %q, want %q", tt.href, tt.page, got, tt.want)
		}
	}
}

func TestCleanup(t *testing.T) {
	dir := t.TempDir() + "/refs"
	l := NewLocator(nil, dir, zap.NewNop())

	large := pngBytes(t, 300, 300)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write(large)
	}))
	defer server.Close()

	if _, err := l.Download(context.Background(), []domain.ReferenceImage{{URL: server.URL + "/a.png"}}); err != nil {
		t.Fatalf("Download failed: %v", err)
	}
	if err := l.Cleanup(); err != nil {
		t.Fatalf("Cleanup failed: %v", err)
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Error("download dir should be removed")
	}
}
