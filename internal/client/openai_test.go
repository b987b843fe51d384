package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voxhire/interview-service/internal/config"
)

func newTestClient(baseURL string) *OpenAIClient {
	return NewOpenAIClient(config.OpenAIConfig{
		BaseURL:         baseURL,
		APIKey:          "test-key",
		Model:           "test-model",
		TranscribeModel: "test-whisper",
		Timeout:         5 * time.Second,
	})
}

func TestComplete(t *testing.T) {
	var gotReq chatRequest
	var gotAuth string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/chat/completions", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"role": "assistant", "content": "hello back"}},
			},
		})
	}))
	defer server.Close()

	c := newTestClient(server.URL + "/v1")
	reply, err := c.Complete(context.Background(), "be helpful", []Turn{
		{Role: "user", Content: "hello"},
	})
	require.NoError(t, err)
	assert.Equal(t, "hello back", reply)

	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, "test-model", gotReq.Model)
	require.Len(t, gotReq.Messages, 2)
	assert.Equal(t, "system", gotReq.Messages[0].Role)
	assert.Equal(t, "be helpful", gotReq.Messages[0].Content)
	assert.Equal(t, "user", gotReq.Messages[1].Role)
}

func TestCompleteUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"overloaded"}}`, http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL + "/v1").Complete(context.Background(), "", []Turn{{Role: "user", Content: "hi"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestCompleteNoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"choices": []interface{}{}})
	}))
	defer server.Close()

	_, err := newTestClient(server.URL + "/v1").Complete(context.Background(), "", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no choices")
}

func TestCompleteAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error": map[string]string{"message": "invalid model", "type": "invalid_request_error"},
		})
	}))
	defer server.Close()

	_, err := newTestClient(server.URL + "/v1").Complete(context.Background(), "", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid model")
}

func TestTranscribe(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/audio/transcriptions", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))

		assert.Equal(t, "test-whisper", r.FormValue("model"))

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "answer.wav", header.Filename)

		json.NewEncoder(w).Encode(map[string]string{"text": "the transcribed answer"})
	}))
	defer server.Close()

	c := newTestClient(server.URL + "/v1")
	text, err := c.Transcribe(context.Background(), strings.NewReader("fake-audio"), "answer.wav")
	require.NoError(t, err)
	assert.Equal(t, "the transcribed answer", text)
}

func TestTranscribeUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad audio", http.StatusBadRequest)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL + "/v1").Transcribe(context.Background(), strings.NewReader("x"), "a.wav")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
}
