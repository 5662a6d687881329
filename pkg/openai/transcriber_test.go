package openai

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wjllance/douyin-text-extractor/pkg/domain"
)

func writeAudio(t *testing.T) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "audio.mp3")
	require.NoError(t, os.WriteFile(p, []byte("fake-mp3"), 0644))
	return p
}

type capturedRequest struct {
	authorization string
	model         string
	hasFile       bool
}

func transcriptionServer(t *testing.T, status int, body string, captured *capturedRequest) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/audio/transcriptions", func(w http.ResponseWriter, r *http.Request) {
		if captured != nil {
			captured.authorization = r.Header.Get("Authorization")
			require.NoError(t, r.ParseMultipartForm(1<<20))
			captured.model = r.FormValue("model")
			_, _, err := r.FormFile("file")
			captured.hasFile = err == nil
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		fmt.Fprint(w, body)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestTranscribeReturnsText(t *testing.T) {
	var captured capturedRequest
	srv := transcriptionServer(t, http.StatusOK, `{"text": "hello world"}`, &captured)
	tr := NewTranscriber("test-key", srv.URL+"/v1", "whisper-1")

	var events []domain.ProgressEvent
	text, err := tr.Transcribe(context.Background(), writeAudio(t), func(e domain.ProgressEvent) {
		events = append(events, e)
	})

	require.NoError(t, err)
	assert.Equal(t, "hello world", text)
	assert.Equal(t, "Bearer test-key", captured.authorization)
	assert.Equal(t, "whisper-1", captured.model)
	assert.True(t, captured.hasFile)

	require.Len(t, events, 2)
	assert.Equal(t, domain.StageSpeechRecognition, events[0].Stage)
	assert.Equal(t, 0, events[0].Percent)
	assert.Equal(t, 100, events[1].Percent)
}

func TestTranscribeEmptyResponseUsesPlaceholder(t *testing.T) {
	srv := transcriptionServer(t, http.StatusOK, `{}`, nil)
	tr := NewTranscriber("test-key", srv.URL+"/v1", "whisper-1")

	text, err := tr.Transcribe(context.Background(), writeAudio(t), nil)

	require.NoError(t, err)
	assert.Equal(t, NoSpeechPlaceholder, text)
}

func TestTranscribeAPIErrorFails(t *testing.T) {
	srv := transcriptionServer(t, http.StatusInternalServerError,
		`{"error": {"message": "model overloaded", "type": "server_error"}}`, nil)
	tr := NewTranscriber("test-key", srv.URL+"/v1", "whisper-1")

	_, err := tr.Transcribe(context.Background(), writeAudio(t), nil)

	var trErr *domain.TranscriptionError
	require.ErrorAs(t, err, &trErr)
}

func TestTranscribeMissingInputFailsWithoutRequest(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
	}))
	defer srv.Close()
	tr := NewTranscriber("test-key", srv.URL+"/v1", "whisper-1")

	_, err := tr.Transcribe(context.Background(), filepath.Join(t.TempDir(), "missing.mp3"), nil)

	var trErr *domain.TranscriptionError
	require.ErrorAs(t, err, &trErr)
	assert.Zero(t, hits)
}
