package genai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var (
	errNoImageReturned = errors.New("no image in generation response")
	errNoVideoReturned = errors.New("no video in operation response")
)

// Client is an HTTP client for the Gemini generative API.
type Client struct {
	cfg    ClientConfig
	http   *http.Client
	logger *slog.Logger
}

// ClientConfig holds configuration for the generation client.
type ClientConfig struct {
	APIKey         string
	BaseURL        string
	ImageModel     string
	EditModel      string
	VideoModel     string
	PollInterval   time.Duration
	RequestTimeout time.Duration
}

// DefaultClientConfig returns default configuration.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		BaseURL:        "https://generativelanguage.googleapis.com/v1beta",
		ImageModel:     "gemini-3-pro-image-preview",
		EditModel:      "gemini-2.5-flash-image",
		VideoModel:     "veo-3.1-fast-generate-preview",
		PollInterval:   5 * time.Second,
		RequestTimeout: 120 * time.Second,
	}
}

// NewClient creates a generation client. The API key is required; callers
// that have none should run without a Generator instead.
func NewClient(cfg ClientConfig, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}

	def := DefaultClientConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	if cfg.ImageModel == "" {
		cfg.ImageModel = def.ImageModel
	}
	if cfg.EditModel == "" {
		cfg.EditModel = def.EditModel
	}
	if cfg.VideoModel == "" {
		cfg.VideoModel = def.VideoModel
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = def.PollInterval
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = def.RequestTimeout
	}
	if cfg.APIKey == "" {
		return nil, errors.New("generation API key is required")
	}

	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.RequestTimeout},
		logger: logger,
	}, nil
}

// Close releases resources.
func (c *Client) Close() {
	c.http.CloseIdleConnections()
}

// Wire types for the generateContent endpoint.

type inlineData struct {
	MimeType string `json:"mimeType,omitempty"`
	Data     string `json:"data,omitempty"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type content struct {
	Parts []part `json:"parts"`
}

type imageConfig struct {
	ImageSize   string `json:"imageSize,omitempty"`
	AspectRatio string `json:"aspectRatio,omitempty"`
}

type generationConfig struct {
	ImageConfig *imageConfig `json:"imageConfig,omitempty"`
}

type generateContentRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type generateContentResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// GenerateImage renders an image from a text prompt.
func (c *Client) GenerateImage(ctx context.Context, prompt string, size ImageSize) (*Image, error) {
	req := generateContentRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
		GenerationConfig: &generationConfig{
			ImageConfig: &imageConfig{ImageSize: string(size), AspectRatio: "1:1"},
		},
	}
	return c.generateContentImage(ctx, c.cfg.ImageModel, req)
}

// RemoveBackground asks the edit model to isolate the subject of img on a
// transparent background.
func (c *Client) RemoveBackground(ctx context.Context, img *Image) (*Image, error) {
	req := generateContentRequest{
		Contents: []content{{Parts: []part{
			{InlineData: &inlineData{MimeType: img.MIME, Data: base64.StdEncoding.EncodeToString(img.Data)}},
			{Text: "Remove the background completely. Return the subject with a transparent background."},
		}}},
	}
	return c.generateContentImage(ctx, c.cfg.EditModel, req)
}

func (c *Client) generateContentImage(ctx context.Context, model string, req generateContentRequest) (*Image, error) {
	var resp generateContentResponse
	endpoint := fmt.Sprintf("%s/models/%s:generateContent", c.cfg.BaseURL, model)
	if err := c.post(ctx, endpoint, req, &resp); err != nil {
		return nil, err
	}

	for _, cand := range resp.Candidates {
		for _, p := range cand.Content.Parts {
			if p.InlineData == nil || p.InlineData.Data == "" {
				continue
			}
			data, err := base64.StdEncoding.DecodeString(p.InlineData.Data)
			if err != nil {
				return nil, fmt.Errorf("decode image data: %w", err)
			}
			mime := p.InlineData.MimeType
			if mime == "" {
				mime = "image/png"
			}
			return &Image{Data: data, MIME: mime}, nil
		}
	}
	return nil, errNoImageReturned
}

// Wire types for long-running video operations.

type videoInstance struct {
	Prompt    string      `json:"prompt"`
	Image     *inlineData `json:"image,omitempty"`
	LastFrame *inlineData `json:"lastFrame,omitempty"`
}

type videoParameters struct {
	Resolution  string `json:"resolution,omitempty"`
	AspectRatio string `json:"aspectRatio,omitempty"`
}

type predictRequest struct {
	Instances  []videoInstance `json:"instances"`
	Parameters videoParameters `json:"parameters"`
}

type operation struct {
	Name  string `json:"name"`
	Done  bool   `json:"done"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
	Response *struct {
		GenerateVideoResponse struct {
			GeneratedSamples []struct {
				Video struct {
					URI string `json:"uri"`
				} `json:"video"`
			} `json:"generatedSamples"`
		} `json:"generateVideoResponse"`
	} `json:"response,omitempty"`
}

// GenerateVideo starts a long-running video generation operation, polls it
// until done, and downloads the result. Cancel ctx to abandon the wait.
func (c *Client) GenerateVideo(ctx context.Context, req VideoRequest) ([]byte, error) {
	instance := videoInstance{Prompt: req.Prompt}
	if req.StartFrame != nil {
		instance.Image = &inlineData{
			MimeType: req.StartFrame.MIME,
			Data:     base64.StdEncoding.EncodeToString(req.StartFrame.Data),
		}
	}
	if req.EndFrame != nil {
		instance.LastFrame = &inlineData{
			MimeType: req.EndFrame.MIME,
			Data:     base64.StdEncoding.EncodeToString(req.EndFrame.Data),
		}
	}

	var op operation
	endpoint := fmt.Sprintf("%s/models/%s:predictLongRunning", c.cfg.BaseURL, c.cfg.VideoModel)
	body := predictRequest{
		Instances:  []videoInstance{instance},
		Parameters: videoParameters{Resolution: "720p", AspectRatio: "9:16"},
	}
	if err := c.post(ctx, endpoint, body, &op); err != nil {
		return nil, err
	}

	for !op.Done {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.cfg.PollInterval):
		}
		if err := c.get(ctx, fmt.Sprintf("%s/%s", c.cfg.BaseURL, op.Name), &op); err != nil {
			return nil, err
		}
	}

	if op.Error != nil {
		return nil, fmt.Errorf("video operation failed: %s", op.Error.Message)
	}
	if op.Response == nil || len(op.Response.GenerateVideoResponse.GeneratedSamples) == 0 {
		return nil, errNoVideoReturned
	}

	uri := op.Response.GenerateVideoResponse.GeneratedSamples[0].Video.URI
	if uri == "" {
		return nil, errNoVideoReturned
	}
	return c.download(ctx, uri)
}

func (c *Client) post(ctx context.Context, endpoint string, body, out any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.cfg.APIKey)

	return c.do(req, out)
}

func (c *Client) get(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("x-goog-api-key", c.cfg.APIKey)

	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("generation request failed: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.logger.Debug("failed to close response body", "error", closeErr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("generation service returned %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) download(ctx context.Context, uri string) ([]byte, error) {
	// Asset URIs require the API key as a query parameter.
	sep := "?"
	if strings.Contains(uri, "?") {
		sep = "&"
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		uri+sep+"key="+url.QueryEscape(c.cfg.APIKey), nil)
	if err != nil {
		return nil, fmt.Errorf("build download request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("video download failed: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.logger.Debug("failed to close download body", "error", closeErr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("video download returned %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
