package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ErrFileTooLarge is returned when a Telegram file exceeds the download cap.
var ErrFileTooLarge = errors.New("file exceeds download limit")

const fileDownloadTimeout = 60 * time.Second

// FileDownloader fetches Telegram files by their getFile path.
type FileDownloader struct {
	apiURL   string
	token    string
	maxBytes int64
	client   *http.Client
}

// NewFileDownloader creates a downloader for the Bot API at apiURL.
func NewFileDownloader(apiURL, token string, maxBytes int64) *FileDownloader {
	return &FileDownloader{
		apiURL:   strings.TrimRight(apiURL, "/"),
		token:    token,
		maxBytes: maxBytes,
		client:   &http.Client{Timeout: fileDownloadTimeout},
	}
}

// Download writes the file at filePath to dst and returns the number of bytes written.
func (d *FileDownloader) Download(ctx context.Context, filePath, dst string) (n int64, err error) {
	if filePath == "" {
		return 0, fmt.Errorf("empty file path provided")
	}
	if ctx.Err() != nil {
		return 0, fmt.Errorf("context cancelled before file download: %w", ctx.Err())
	}

	url := fmt.Sprintf("%s/file/bot%s/%s", d.apiURL, d.token, strings.TrimLeft(filePath, "/"))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("unexpected status code %d", resp.StatusCode)
	}
	if resp.ContentLength > d.maxBytes {
		return 0, fmt.Errorf("%w: %d bytes", ErrFileTooLarge, resp.ContentLength)
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o700); err != nil {
		return 0, fmt.Errorf("failed to create scratch dir: %w", err)
	}
	f, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return 0, fmt.Errorf("failed to create scratch file: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close scratch file: %w", closeErr)
		}
	}()

	n, err = io.Copy(f, io.LimitReader(resp.Body, d.maxBytes+1))
	if err != nil {
		return n, fmt.Errorf("failed to read file data: %w", err)
	}
	if n > d.maxBytes {
		return n, fmt.Errorf("%w: more than %d bytes", ErrFileTooLarge, d.maxBytes)
	}
	if n == 0 {
		return 0, fmt.Errorf("received empty file data")
	}
	return n, nil
}
