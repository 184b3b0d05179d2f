package assemblyai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultBaseURL      = "https://api.assemblyai.com"
	defaultPollInterval = 3 * time.Second
	defaultPollTimeout  = 10 * time.Minute
)

// Transcript statuses reported by the AssemblyAI API.
const (
	StatusQueued     = "queued"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusError      = "error"
)

// Transcript is the API view of a transcription job.
type Transcript struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Text   string `json:"text"`
	Error  string `json:"error"`
}

// Client talks to the AssemblyAI v2 REST API.
type Client struct {
	apiKey       string
	baseURL      string
	pollInterval time.Duration
	pollTimeout  time.Duration
	httpClient   *http.Client
}

// NewClient builds an AssemblyAI client.
func NewClient(apiKey, baseURL string, pollInterval, pollTimeout time.Duration) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("assemblyai api key cannot be empty")
	}
	if strings.TrimSpace(baseURL) == "" {
		baseURL = defaultBaseURL
	}
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}
	if pollTimeout <= 0 {
		pollTimeout = defaultPollTimeout
	}
	return &Client{
		apiKey:       apiKey,
		baseURL:      strings.TrimRight(baseURL, "/"),
		pollInterval: pollInterval,
		pollTimeout:  pollTimeout,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

// Transcribe uploads raw audio, requests a transcript and waits for it
// to complete. It returns the transcript text.
func (c *Client) Transcribe(ctx context.Context, audio []byte) (string, error) {
	uploadURL, err := c.Upload(ctx, audio)
	if err != nil {
		return "", err
	}
	created, err := c.CreateTranscript(ctx, uploadURL)
	if err != nil {
		return "", err
	}
	return c.awaitTranscript(ctx, created.ID)
}

// Upload pushes raw audio bytes and returns the provider-side URL.
func (c *Client) Upload(ctx context.Context, audio []byte) (string, error) {
	if len(audio) == 0 {
		return "", errors.New("audio payload cannot be empty")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v2/upload", bytes.NewReader(audio))
	if err != nil {
		return "", fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Authorization", c.apiKey)
	req.Header.Set("Content-Type", "application/octet-stream")

	var out struct {
		UploadURL string `json:"upload_url"`
	}
	if err := c.do(req, &out); err != nil {
		return "", err
	}
	if out.UploadURL == "" {
		return "", errors.New("upload response missing upload_url")
	}
	return out.UploadURL, nil
}

// CreateTranscript submits a transcription job for an uploaded file.
func (c *Client) CreateTranscript(ctx context.Context, audioURL string) (Transcript, error) {
	payload, err := json.Marshal(map[string]string{"audio_url": audioURL})
	if err != nil {
		return Transcript{}, fmt.Errorf("encode transcript request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v2/transcript", bytes.NewReader(payload))
	if err != nil {
		return Transcript{}, fmt.Errorf("build transcript request: %w", err)
	}
	req.Header.Set("Authorization", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	var out Transcript
	if err := c.do(req, &out); err != nil {
		return Transcript{}, err
	}
	return out, nil
}

// GetTranscript fetches the current state of a transcription job.
func (c *Client) GetTranscript(ctx context.Context, id string) (Transcript, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v2/transcript/"+id, nil)
	if err != nil {
		return Transcript{}, fmt.Errorf("build transcript status request: %w", err)
	}
	req.Header.Set("Authorization", c.apiKey)

	var out Transcript
	if err := c.do(req, &out); err != nil {
		return Transcript{}, err
	}
	return out, nil
}

func (c *Client) awaitTranscript(ctx context.Context, id string) (string, error) {
	pollCtx, cancel := context.WithTimeout(ctx, c.pollTimeout)
	defer cancel()

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		transcript, err := c.GetTranscript(pollCtx, id)
		if err != nil {
			return "", err
		}
		switch transcript.Status {
		case StatusCompleted:
			return transcript.Text, nil
		case StatusError:
			return "", fmt.Errorf("transcription %s failed: %s", id, transcript.Error)
		}

		select {
		case <-pollCtx.Done():
			return "", fmt.Errorf("transcription %s did not finish: %w", id, pollCtx.Err())
		case <-ticker.C:
		}
	}
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("assemblyai request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return fmt.Errorf("assemblyai request error: status=%d body=%s", resp.StatusCode, string(payload))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read assemblyai response: %w", err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode assemblyai response: %w", err)
	}
	return nil
}
