package douyin

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wjllance/douyin-text-extractor/pkg/domain"
)

func collectProgress() (domain.ProgressFunc, *[]domain.ProgressEvent) {
	events := &[]domain.ProgressEvent{}
	return func(e domain.ProgressEvent) { *events = append(*events, e) }, events
}

func TestDownloadExistingFileSkipsNetwork(t *testing.T) {
	dir := t.TempDir()
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	}))
	defer srv.Close()

	existing := filepath.Join(dir, "vid1.mp4")
	require.NoError(t, os.WriteFile(existing, []byte("cached"), 0644))

	d := NewDownloader(dir, "test-agent", 5*time.Second)
	onProgress, events := collectProgress()

	path, err := d.Download(context.Background(), domain.VideoDescriptor{
		VideoID:        "vid1",
		DirectMediaURL: srv.URL,
	}, onProgress)

	require.NoError(t, err)
	assert.Equal(t, existing, path)
	assert.EqualValues(t, 0, atomic.LoadInt32(&hits))
	require.Len(t, *events, 1)
	assert.Equal(t, domain.StageDownloading, (*events)[0].Stage)
	assert.Equal(t, 100, (*events)[0].Percent)
}

func TestDownloadIdempotent(t *testing.T) {
	dir := t.TempDir()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "video-bytes")
	}))
	defer srv.Close()

	d := NewDownloader(dir, "test-agent", 5*time.Second)
	desc := domain.VideoDescriptor{VideoID: "vid2", DirectMediaURL: srv.URL}

	first, err := d.Download(context.Background(), desc, nil)
	require.NoError(t, err)
	second, err := d.Download(context.Background(), desc, nil)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	content, err := os.ReadFile(second)
	require.NoError(t, err)
	assert.Equal(t, "video-bytes", string(content))
}

func TestDownloadStreamsWithProgress(t *testing.T) {
	dir := t.TempDir()
	const total = 1000000
	chunk := make([]byte, total/10)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", fmt.Sprint(total))
		flusher := w.(http.Flusher)
		for i := 0; i < 10; i++ {
			_, _ = w.Write(chunk)
			flusher.Flush()
		}
	}))
	defer srv.Close()

	d := NewDownloader(dir, "test-agent", 10*time.Second)
	onProgress, events := collectProgress()

	path, err := d.Download(context.Background(), domain.VideoDescriptor{
		VideoID:        "vid3",
		DirectMediaURL: srv.URL,
	}, onProgress)

	require.NoError(t, err)
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.EqualValues(t, total, info.Size())

	require.NotEmpty(t, *events)
	last := 0
	for _, e := range *events {
		assert.Equal(t, domain.StageDownloading, e.Stage)
		assert.GreaterOrEqual(t, e.Percent, last)
		last = e.Percent
	}
	assert.Equal(t, 100, last)
	assert.NoFileExists(t, path+".part")
}

func TestDownloadUnknownLengthReportsZeroPercent(t *testing.T) {
	dir := t.TempDir()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// chunked response, no Content-Length
		flusher := w.(http.Flusher)
		_, _ = w.Write([]byte("some bytes"))
		flusher.Flush()
		_, _ = w.Write([]byte("more bytes"))
	}))
	defer srv.Close()

	d := NewDownloader(dir, "test-agent", 5*time.Second)
	onProgress, events := collectProgress()

	_, err := d.Download(context.Background(), domain.VideoDescriptor{
		VideoID:        "vid4",
		DirectMediaURL: srv.URL,
	}, onProgress)

	require.NoError(t, err)
	for _, e := range *events {
		assert.Equal(t, 0, e.Percent)
	}
}

func TestDownloadNon2xxFails(t *testing.T) {
	dir := t.TempDir()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	d := NewDownloader(dir, "test-agent", 5*time.Second)

	_, err := d.Download(context.Background(), domain.VideoDescriptor{
		VideoID:        "vid5",
		DirectMediaURL: srv.URL,
	}, nil)

	var dlErr *domain.DownloadError
	require.ErrorAs(t, err, &dlErr)
	assert.NoFileExists(t, filepath.Join(dir, "vid5.mp4"))
	assert.NoFileExists(t, filepath.Join(dir, "vid5.mp4.part"))
}

func TestDownloadTruncatedStreamRemovesPartial(t *testing.T) {
	dir := t.TempDir()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// declare more bytes than are sent so the client sees a broken stream
		w.Header().Set("Content-Length", "1000")
		_, _ = w.Write(make([]byte, 100))
	}))
	defer srv.Close()

	d := NewDownloader(dir, "test-agent", 5*time.Second)

	_, err := d.Download(context.Background(), domain.VideoDescriptor{
		VideoID:        "vid6",
		DirectMediaURL: srv.URL,
	}, nil)

	var dlErr *domain.DownloadError
	require.ErrorAs(t, err, &dlErr)
	assert.NoFileExists(t, filepath.Join(dir, "vid6.mp4"))
	assert.NoFileExists(t, filepath.Join(dir, "vid6.mp4.part"))
}
