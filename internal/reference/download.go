package reference

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	_ "image/gif"
	_ "image/jpeg"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/kapu/portrait-gen-go/internal/constants"
	"github.com/kapu/portrait-gen-go/internal/domain"
)

// Download fetches candidate references to local files and returns the
// paths of those that survived validation. Each ref that downloads
// successfully has its LocalPath set in place. Per-image failures are
// skipped, never fatal.
func (l *Locator) Download(ctx context.Context, refs []domain.ReferenceImage) ([]string, error) {
	if len(refs) == 0 {
		return nil, nil
	}

	if err := os.MkdirAll(l.downloadDir, os.FileMode(constants.OutputConfig.DirPermissions)); err != nil {
		return nil, fmt.Errorf("create download dir: %w", err)
	}

	var paths []string
	for i := range refs {
		path, err := l.downloadOne(ctx, refs[i].URL, i)
		if err != nil {
			l.logger.Warn("Skipping reference image",
				zap.String("url", refs[i].URL),
				zap.Error(err),
			)
			continue
		}
		refs[i].LocalPath = path
		paths = append(paths, path)
	}

	l.logger.Info("Reference download complete",
		zap.Int("requested", len(refs)),
		zap.Int("downloaded", len(paths)),
	)
	return paths, nil
}

func (l *Locator) downloadOne(ctx context.Context, url string, index int) (string, error) {
	body, contentType, err := l.fetch(ctx, url)
	if err != nil {
		return "", err
	}

	// Some archive links serve an HTML page around the image; mine the
	// page for the real image URL and fetch again.
	if strings.Contains(contentType, "text/html") {
		imageURL, err := extractImageURL(bytes.NewReader(body), url)
		if err != nil {
			return "", fmt.Errorf("page has no usable image: %w", err)
		}
		body, _, err = l.fetch(ctx, imageURL)
		if err != nil {
			return "", err
		}
	}

	img, _, err := image.Decode(bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("decode: %w", err)
	}

	bounds := img.Bounds()
	if bounds.Dx() < constants.DownloadConfig.MinWidth || bounds.Dy() < constants.DownloadConfig.MinHeight {
		return "", fmt.Errorf("too small: %dx%d", bounds.Dx(), bounds.Dy())
	}

	path := filepath.Join(l.downloadDir, fmt.Sprintf("%s%d.png", constants.DownloadConfig.FilePrefix, index))
	file, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	if err := png.Encode(file, img); err != nil {
		return "", fmt.Errorf("encode: %w", err)
	}
	return path, nil
}

func (l *Locator) fetch(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("User-Agent", constants.DownloadConfig.UserAgent)

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", err
	}
	return body, resp.Header.Get("Content-Type"), nil
}

// extractImageURL pulls the most likely image URL out of an HTML page:
// the og:image meta tag when present, otherwise the first img src.
func extractImageURL(r io.Reader, pageURL string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", err
	}

	if content, ok := doc.Find(`meta[property="og:image"]`).Attr("content"); ok && content != "" {
		return absoluteURL(content, pageURL), nil
	}

	if src, ok := doc.Find("img").First().Attr("src"); ok && src != "" {
		return absoluteURL(src, pageURL), nil
	}

	return "", fmt.Errorf("no og:image or img tag found")
}

func absoluteURL(href, pageURL string) string {
	ref, err := url.Parse(href)
	if err != nil || ref.IsAbs() {
		return href
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}

// Cleanup removes every downloaded reference file.
func (l *Locator) Cleanup() error {
	if l.downloadDir == "" {
		return nil
	}
	if err := os.RemoveAll(l.downloadDir); err != nil {
		return err
	}
	l.logger.Debug("Reference downloads removed", zap.String("dir", l.downloadDir))
	return nil
}
