// Package openai calls the OpenAI transcription and chat completion endpoints.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/TechnicallyShaun/secretary/internal/secretary"
)

// DefaultBaseURL is the OpenAI API root.
const DefaultBaseURL = "https://api.openai.com/v1"

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = 5 * time.Minute

// DefaultTemperature is the sampling temperature for note composition.
const DefaultTemperature = 0.7

var (
	// ErrMissingText is returned when a transcription response has no text field.
	ErrMissingText = errors.New("transcription response has no text")
	// ErrMissingContent is returned when a completion response has no message content.
	ErrMissingContent = errors.New("completion response has no message content")
)

var (
	_ secretary.Transcriber = (*Transcriber)(nil)
	_ secretary.Generator   = (*ChatClient)(nil)
)

// APIError is an error payload or non-2xx response from OpenAI.
type APIError struct {
	StatusCode int
	Type       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("openai: status %d: %s (%s)", e.StatusCode, e.Message, e.Type)
	}
	return fmt.Sprintf("openai: status %d: %s", e.StatusCode, e.Message)
}

// HTTPStatus returns the response status code.
func (e *APIError) HTTPStatus() int { return e.StatusCode }

type errorPayload struct {
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// client holds what the transcription and chat clients share.
type client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// Option configures a client.
type Option func(*client)

// WithBaseURL overrides the API root.
func WithBaseURL(u string) Option {
	return func(c *client) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the HTTP request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *client) {
		c.httpClient.Timeout = d
	}
}

func newClient(apiKey string, opts []Option) client {
	c := client{
		apiKey:  apiKey,
		baseURL: DefaultBaseURL,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// post sends req to endpoint and returns the body of a 2xx response. Error
// payloads are returned as *APIError whatever the status code.
func (c *client) post(req *http.Request) ([]byte, error) {
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var payload errorPayload
	if json.Unmarshal(data, &payload) == nil && payload.Error != nil {
		return nil, &APIError{StatusCode: resp.StatusCode, Type: payload.Error.Type, Message: payload.Error.Message}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(data))}
	}
	return data, nil
}

// Transcriber sends audio to the speech-to-text endpoint.
type Transcriber struct {
	client
	model string
}

// NewTranscriber creates a Transcriber using model, typically whisper-1.
func NewTranscriber(apiKey, model string, opts ...Option) *Transcriber {
	if model == "" {
		model = secretary.DefaultTranscriptionModel
	}
	return &Transcriber{client: newClient(apiKey, opts), model: model}
}

// Transcribe uploads audio as fileName and returns the recognised text.
func (t *Transcriber) Transcribe(ctx context.Context, audio []byte, fileName string) (string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	if err := writer.WriteField("model", t.model); err != nil {
		return "", fmt.Errorf("write model field: %w", err)
	}
	part, err := writer.CreateFormFile("file", fileName)
	if err != nil {
		return "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(audio); err != nil {
		return "", fmt.Errorf("copy audio data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/audio/transcriptions", &buf)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	data, err := t.post(req)
	if err != nil {
		return "", fmt.Errorf("transcribe %s: %w", fileName, err)
	}

	var resp struct {
		Text *string `json:"text"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", fmt.Errorf("parse transcription response: %w", err)
	}
	if resp.Text == nil {
		return "", ErrMissingText
	}
	return *resp.Text, nil
}

// ChatClient generates text with the chat completions endpoint.
type ChatClient struct {
	client
	temperature float64
}

// NewChatClient creates a ChatClient.
func NewChatClient(apiKey string, opts ...Option) *ChatClient {
	return &ChatClient{client: newClient(apiKey, opts), temperature: DefaultTemperature}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content *string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete sends prompt as a single user message and returns the first choice's content.
func (c *ChatClient) Complete(ctx context.Context, prompt, model string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model:       model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: c.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("encode completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	data, err := c.post(req)
	if err != nil {
		return "", fmt.Errorf("complete with %s: %w", model, err)
	}

	var resp chatResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", fmt.Errorf("parse completion response: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == nil {
		return "", ErrMissingContent
	}
	return *resp.Choices[0].Message.Content, nil
}
