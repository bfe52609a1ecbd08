package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"time"
)

// OpenAISTTConfig holds configuration for the OpenAI STT backend.
type OpenAISTTConfig struct {
	APIKey     string
	BaseURL    string // default: "https://api.openai.com/v1"
	Model      string // default: "whisper-1"
	RequireKey bool
	HTTPClient *http.Client
}

// OpenAISTT transcribes audio using OpenAI's Whisper API (or a compatible endpoint).
type OpenAISTT struct {
	cfg        OpenAISTTConfig
	httpClient *http.Client
}

// NewOpenAISTT creates an OpenAISTT with sensible defaults applied.
func NewOpenAISTT(cfg OpenAISTTConfig) *OpenAISTT {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "whisper-1"
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{
			Timeout: 300 * time.Second,
		}
	}
	return &OpenAISTT{
		cfg:        cfg,
		httpClient: client,
	}
}

func (o *OpenAISTT) Name() string { return "openai-whisper" }

func (o *OpenAISTT) Validate() error {
	if o.cfg.RequireKey && o.cfg.APIKey == "" {
		return ErrMissingCredential
	}
	return nil
}

// Transcribe uploads the audio as a multipart form and returns the text. A
// non-200 answer is returned as *ProviderError; nothing is retried.
func (o *OpenAISTT) Transcribe(ctx context.Context, req TranscriptionRequest) (*TranscriptionResponse, error) {
	if err := o.Validate(); err != nil {
		return nil, err
	}

	filename := req.Filename
	if filename == "" {
		filename = "audio.webm"
	}
	contentType := req.ContentType
	if contentType == "" {
		contentType = "audio/webm"
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	// Audio file part
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, filename))
	h.Set("Content-Type", contentType)
	fw, err := mw.CreatePart(h)
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err = fw.Write(req.Audio); err != nil {
		return nil, fmt.Errorf("copy audio data: %w", err)
	}

	_ = mw.WriteField("model", o.cfg.Model)
	if req.Language != "" {
		_ = mw.WriteField("language", req.Language)
	}

	if err = mw.Close(); err != nil {
		return nil, fmt.Errorf("close multipart writer: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", o.cfg.BaseURL+"/audio/transcriptions", &body)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", mw.FormDataContentType())
	if o.cfg.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+o.cfg.APIKey)
	}

	resp, err := o.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("transcription request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &ProviderError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	var apiResp struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	return &TranscriptionResponse{Text: apiResp.Text}, nil
}
