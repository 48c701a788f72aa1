package jobs

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

const (
	imageMaxAttempts = 3
	defaultImageExt  = "jpg"
)

// ImageDownloader fetches food images to a per-vendor, per-id path with a
// bounded retry. It never fails the enclosing job: a lost image is worth a
// log line, not a failed collection.
type ImageDownloader struct {
	client    *http.Client
	imageDir  string
	userAgent string
	timeout   time.Duration
	sleep     func(time.Duration) // injectable for tests
}

func NewImageDownloader(client *http.Client, imageDir, userAgent string, timeout time.Duration) *ImageDownloader {
	return &ImageDownloader{
		client:    client,
		imageDir:  imageDir,
		userAgent: userAgent,
		timeout:   timeout,
		sleep:     time.Sleep,
	}
}

// DownloadAll fetches every image in the map, skipping files that already
// exist on disk
func (d *ImageDownloader) DownloadAll(ctx context.Context, vendor string, images map[int64]string) {
	for foodID, imageURL := range images {
		if err := ctx.Err(); err != nil {
			return
		}

		imagePath := filepath.Join(d.imageDir, fmt.Sprintf("%s_%d.%s", vendor, foodID, imageExt(imageURL)))

		if _, err := os.Stat(imagePath); err == nil {
			slog.Debug("Skipping image, already exists", "path", imagePath)
			continue
		}

		if err := d.downloadWithRetry(ctx, imageURL, imagePath); err != nil {
			slog.Warn("Failed to download image", "vendor", vendor, "food_id", foodID, "url", imageURL, "error", err)
		}
	}
}

func (d *ImageDownloader) downloadWithRetry(ctx context.Context, imageURL, imagePath string) error {
	var lastErr error

	for attempt := 1; attempt <= imageMaxAttempts; attempt++ {
		if attempt > 1 {
			backoff := time.Duration(1<<uint(attempt-2)) * time.Second
			slog.Debug("Retrying image download", "url", imageURL, "attempt", attempt, "backoff", backoff.String())
			d.sleep(backoff)
		}

		if err := d.download(ctx, imageURL, imagePath); err != nil {
			lastErr = err
			continue
		}

		return nil
	}

	return fmt.Errorf("download failed after %d attempts: %w", imageMaxAttempts, lastErr)
}

func (d *ImageDownloader) download(ctx context.Context, imageURL, imagePath string) error {
	timeoutCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, http.MethodGet, imageURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", d.userAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read image body: %w", err)
	}

	if err := os.WriteFile(imagePath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write image file: %w", err)
	}

	slog.Debug("Saved image", "path", imagePath, "bytes", len(data))
	return nil
}

func imageExt(imageURL string) string {
	ext := strings.TrimPrefix(path.Ext(path.Base(strings.SplitN(imageURL, "?", 2)[0])), ".")
	if ext == "" {
		return defaultImageExt
	}
	return strings.ToLower(ext)
}
