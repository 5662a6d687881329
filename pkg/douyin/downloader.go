package douyin

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/wjllance/douyin-text-extractor/pkg/domain"
)

const downloadChunkSize = 32 * 1024

// Downloader streams a descriptor's direct media URL into the download
// directory. Destination paths derive from the video identifier, so
// repeated downloads of the same video are idempotent.
type Downloader struct {
	hc        *http.Client
	userAgent string
	dir       string
}

func NewDownloader(dir, userAgent string, timeout time.Duration) *Downloader {
	return &Downloader{
		hc:        &http.Client{Timeout: timeout},
		userAgent: userAgent,
		dir:       dir,
	}
}

// Path returns the destination path for a descriptor without downloading.
func (d *Downloader) Path(desc domain.VideoDescriptor) string {
	return filepath.Join(d.dir, desc.VideoID+".mp4")
}

// Download fetches the video to disk, reporting byte-level progress. If the
// destination already exists it is returned immediately after a single 100%
// event, with no request issued.
func (d *Downloader) Download(ctx context.Context, desc domain.VideoDescriptor, onProgress domain.ProgressFunc) (string, error) {
	dest := d.Path(desc)

	if _, err := os.Stat(dest); err == nil {
		slog.Info("video already downloaded", "path", dest)
		onProgress.Emit(domain.StageDownloading, 100, "already downloaded")
		return dest, nil
	}

	if err := os.MkdirAll(d.dir, 0755); err != nil {
		return "", &domain.DownloadError{URL: desc.DirectMediaURL, Err: fmt.Errorf("creating download directory: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, desc.DirectMediaURL, nil)
	if err != nil {
		return "", &domain.DownloadError{URL: desc.DirectMediaURL, Err: fmt.Errorf("creating request: %w", err)}
	}
	req.Header.Set("User-Agent", d.userAgent)

	resp, err := d.hc.Do(req)
	if err != nil {
		return "", &domain.DownloadError{URL: desc.DirectMediaURL, Err: fmt.Errorf("executing request: %w", err)}
	}
	defer closeBody(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &domain.DownloadError{URL: desc.DirectMediaURL, Err: fmt.Errorf("media url returned status %d", resp.StatusCode)}
	}

	// stream to a .part file and rename into place so the destination is
	// never visible half-written, even across concurrent runs
	part := dest + ".part"
	if err := d.streamToFile(resp.Body, part, resp.ContentLength, onProgress); err != nil {
		if rmErr := os.Remove(part); rmErr != nil && !os.IsNotExist(rmErr) {
			slog.Error("removing partial download", "path", part, "err", rmErr)
		}
		return "", &domain.DownloadError{URL: desc.DirectMediaURL, Err: err}
	}

	if err := os.Rename(part, dest); err != nil {
		return "", &domain.DownloadError{URL: desc.DirectMediaURL, Err: fmt.Errorf("finalizing download: %w", err)}
	}

	slog.Info("video downloaded", "path", dest, "videoID", desc.VideoID)
	return dest, nil
}

func (d *Downloader) streamToFile(body io.Reader, path string, total int64, onProgress domain.ProgressFunc) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating file: %w", err)
	}

	var written int64
	buf := make([]byte, downloadChunkSize)
	for {
		n, readErr := body.Read(buf)
		if n > 0 {
			if _, writeErr := f.Write(buf[:n]); writeErr != nil {
				f.Close()
				return fmt.Errorf("writing file: %w", writeErr)
			}
			written += int64(n)
			onProgress.Emit(domain.StageDownloading, percentOf(written, total),
				fmt.Sprintf("downloaded %d bytes", written))
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			f.Close()
			return fmt.Errorf("reading stream: %w", readErr)
		}
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("closing file: %w", err)
	}
	return nil
}

// percentOf reports written/total as 0-100, or 0 when total is unknown.
func percentOf(written, total int64) int {
	if total <= 0 {
		return 0
	}
	p := int(written * 100 / total)
	if p > 100 {
		p = 100
	}
	return p
}
