package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/yourorg/webstudio-go/internal/config"
	"github.com/yourorg/webstudio-go/internal/logging"
)

// Attachment is an extra artifact sent with a prompt, either inline
// text or a data URL for binary media.
type Attachment struct {
	Name     string `json:"name"`
	MimeType string `json:"mime_type"`
	Content  string `json:"content"`
}

// Client calls the remote code-generation service.
type Client struct {
	cfg    *config.Config
	logger *logging.Logger
	http   *http.Client
}

// NewClient builds a client with the daemon's long-request timeout.
func NewClient(cfg *config.Config, logger *logging.Logger) *Client {
	return &Client{
		cfg:    cfg,
		logger: logger,
		http:   &http.Client{Timeout: 90 * time.Second},
	}
}

type generateRequest struct {
	Prompt          string       `json:"prompt"`
	ProjectSnapshot string       `json:"project_snapshot"`
	Attachments     []Attachment `json:"attachments,omitempty"`
}

type generateResponse struct {
	Content string `json:"content"`
}

// Generate posts the prompt plus the project snapshot and returns the
// raw response text for the translator. There is no cancellation beyond
// ctx; once dispatched the caller waits for resolution or failure.
func (c *Client) Generate(ctx context.Context, prompt, snapshot string, attachments []Attachment) (string, error) {
	u, err := url.Parse(strings.TrimRight(c.cfg.AiBaseURL, "/") + "/generate")
	if err != nil {
		return "", fmt.Errorf("invalid ai_base_url: %w", err)
	}
	body, err := json.Marshal(generateRequest{
		Prompt:          prompt,
		ProjectSnapshot: snapshot,
		Attachments:     attachments,
	})
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.AiToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.AiToken)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("generate call: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("generate call: status %d: %s", resp.StatusCode, truncate(string(data), 200))
	}

	var gr generateResponse
	if err := json.Unmarshal(data, &gr); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	c.logger.Debug("generate round trip",
		logging.Duration("elapsed", time.Since(start)),
		logging.Int("response_bytes", len(gr.Content)),
	)
	return gr.Content, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
