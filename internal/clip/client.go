package clip

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
)

const defaultEmbeddingURL = "http://localhost:8000"

// Client computes image embeddings and zero-shot classification scores using
// the embedding server.
type Client struct {
	baseURL string
	dim     int
	client  *http.Client
}

// NewClient creates a new embedding server client.
func NewClient(baseURL string, dim int) *Client {
	if baseURL == "" {
		baseURL = defaultEmbeddingURL
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		dim:     dim,
		client:  &http.Client{},
	}
}

// embeddingResponse represents the response from the embedding server.
type embeddingResponse struct {
	Dim       int       `json:"dim"`
	Embedding []float32 `json:"embedding"`
	Model     string    `json:"model"`
}

// zeroShotResponse represents the response from the zero-shot endpoint.
type zeroShotResponse struct {
	Probs []float64 `json:"probs"`
	Model string    `json:"model"`
}

// Ping checks that the embedding server is reachable and healthy.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: health check returned status %d", ErrUnavailable, resp.StatusCode)
	}
	return nil
}

// postMultipartImage constructs a multipart form with the JPEG-encoded image
// and optional extra fields, and posts it to the given endpoint.
func (c *Client) postMultipartImage(ctx context.Context, endpoint string, img image.Image, fields map[string]string) ([]byte, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", "image.jpg")
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if err := jpeg.Encode(part, img, &jpeg.Options{Quality: 90}); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			return nil, fmt.Errorf("failed to write field %s: %w", name, err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}

	return body, nil
}

// EmbedImages computes one embedding per image via the /embed/image endpoint.
func (c *Client) EmbedImages(ctx context.Context, images []image.Image) ([][]float32, error) {
	embeddings := make([][]float32, 0, len(images))

	for i, img := range images {
		body, err := c.postMultipartImage(ctx, "/embed/image", img, nil)
		if err != nil {
			return nil, fmt.Errorf("embedding image %d: %w", i, err)
		}

		var embResp embeddingResponse
		if err := json.Unmarshal(body, &embResp); err != nil {
			return nil, fmt.Errorf("failed to parse response: %w", err)
		}
		if len(embResp.Embedding) == 0 {
			return nil, errors.New("empty embedding returned")
		}
		if c.dim > 0 && embResp.Dim != 0 && embResp.Dim != c.dim {
			return nil, fmt.Errorf("embedding dimension mismatch: got %d, want %d", embResp.Dim, c.dim)
		}

		embeddings = append(embeddings, embResp.Embedding)
	}

	return embeddings, nil
}

// ScoreTexts scores the prompts against the image via the zero-shot endpoint.
// The server computes a softmax over the image-prompt similarity scores, so
// the returned slice is a probability distribution over the prompts.
func (c *Client) ScoreTexts(ctx context.Context, img image.Image, prompts []string) ([]float64, error) {
	promptsJSON, err := json.Marshal(prompts)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal prompts: %w", err)
	}

	body, err := c.postMultipartImage(ctx, "/classify/zero-shot", img, map[string]string{
		"prompts": string(promptsJSON),
	})
	if err != nil {
		return nil, err
	}

	var zsResp zeroShotResponse
	if err := json.Unmarshal(body, &zsResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if len(zsResp.Probs) != len(prompts) {
		return nil, fmt.Errorf("prompt score count mismatch: got %d, want %d", len(zsResp.Probs), len(prompts))
	}

	return zsResp.Probs, nil
}
