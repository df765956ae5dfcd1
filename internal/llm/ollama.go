package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"
)

// OllamaClient adapts a local Ollama server.
type OllamaClient struct {
	client   *http.Client
	model    string
	endpoint string
}

type ollamaRequest struct {
	Model   string        `json:"model"`
	System  string        `json:"system,omitempty"`
	Prompt  string        `json:"prompt"`
	Stream  bool          `json:"stream"`
	Options ollamaOptions `json:"options,omitempty"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature,omitempty"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type ollamaResponse struct {
	Response string `json:"response"`
}

func NewOllamaClient(model, baseURL string, timeout time.Duration) *OllamaClient {
	endpoint := strings.TrimSpace(baseURL)
	if endpoint == "" {
		endpoint = "http://localhost:11434"
	}
	endpoint = strings.TrimRight(endpoint, "/") + "/api/generate"

	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &OllamaClient{
		client:   &http.Client{Timeout: timeout},
		model:    model,
		endpoint: endpoint,
	}
}

func (c *OllamaClient) Name() string { return "ollama" }

func (c *OllamaClient) Complete(ctx context.Context, req Request) (string, error) {
	body := ollamaRequest{
		Model:  c.model,
		System: req.System,
		Prompt: req.Prompt,
		Stream: false,
		Options: ollamaOptions{
			Temperature: req.Temperature,
			NumPredict:  req.MaxTokens,
		},
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return "", newError(c.Name(), ErrProvider, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", newError(c.Name(), ErrProvider, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", classifyTransport(c.Name(), err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", classifyTransport(c.Name(), err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", classifyStatus(c.Name(), resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var parsed ollamaResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", newError(c.Name(), ErrInvalidResponse, err)
	}
	text := strings.TrimSpace(parsed.Response)
	if text == "" {
		return "", newError(c.Name(), ErrInvalidResponse, nil)
	}
	return text, nil
}
