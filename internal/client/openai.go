package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/voxhire/interview-service/internal/config"
)

// OpenAIClient talks to an OpenAI-compatible API. Chat completions power
// generation and the audio transcriptions endpoint powers transcription.
// Any server implementing the OpenAI wire format works (OpenAI, Azure
// OpenAI, vLLM, Ollama, llama.cpp).
type OpenAIClient struct {
	httpClient      *http.Client
	baseURL         string
	apiKey          string
	model           string
	transcribeModel string
}

// NewOpenAIClient creates a client for the configured endpoint.
func NewOpenAIClient(cfg config.OpenAIConfig) *OpenAIClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &OpenAIClient{
		httpClient:      &http.Client{Timeout: timeout},
		baseURL:         strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:          cfg.APIKey,
		model:           cfg.Model,
		transcribeModel: cfg.TranscribeModel,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *apiError `json:"error,omitempty"`
}

type transcriptionResponse struct {
	Text  string    `json:"text"`
	Error *apiError `json:"error,omitempty"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// Complete sends a chat completion request. The system instruction
// becomes the first message with role "system".
func (c *OpenAIClient) Complete(ctx context.Context, system string, turns []Turn) (string, error) {
	wireReq := chatRequest{Model: c.model}
	if system != "" {
		wireReq.Messages = append(wireReq.Messages, chatMessage{Role: "system", Content: system})
	}
	for _, turn := range turns {
		wireReq.Messages = append(wireReq.Messages, chatMessage{Role: turn.Role, Content: turn.Content})
	}

	body, err := json.Marshal(wireReq)
	if err != nil {
		return "", fmt.Errorf("failed to marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat completion request failed: %w", err)
	}
	defer resp.Body.Close()

	var wireResp chatResponse
	if err := decodeResponse(resp, &wireResp); err != nil {
		return "", err
	}
	if wireResp.Error != nil {
		return "", fmt.Errorf("chat completion error: %s", wireResp.Error.Message)
	}
	if len(wireResp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}

	return wireResp.Choices[0].Message.Content, nil
}

// Transcribe uploads audio as multipart form data to the transcriptions
// endpoint and returns the recognized text.
func (c *OpenAIClient) Transcribe(ctx context.Context, audio io.Reader, filename string) (string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, audio); err != nil {
		return "", fmt.Errorf("failed to copy audio data: %w", err)
	}
	if err := writer.WriteField("model", c.transcribeModel); err != nil {
		return "", fmt.Errorf("failed to write model field: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/audio/transcriptions", &buf)
	if err != nil {
		return "", fmt.Errorf("failed to build transcription request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("transcription request failed: %w", err)
	}
	defer resp.Body.Close()

	var wireResp transcriptionResponse
	if err := decodeResponse(resp, &wireResp); err != nil {
		return "", err
	}
	if wireResp.Error != nil {
		return "", fmt.Errorf("transcription error: %s", wireResp.Error.Message)
	}

	return wireResp.Text, nil
}

// decodeResponse reads the body and unmarshals it, surfacing non-2xx
// statuses with a body excerpt for diagnostics.
func decodeResponse(resp *http.Response, out interface{}) error {
	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		excerpt := string(data)
		if len(excerpt) > 512 {
			excerpt = excerpt[:512]
		}
		return fmt.Errorf("upstream returned status %d: %s", resp.StatusCode, excerpt)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
