package imagegen

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/matheuskafuri/larder/internal/config"
)

// AspectRatio is the image shape requested from a provider.
type AspectRatio string

const (
	Square    AspectRatio = "1:1"
	Landscape AspectRatio = "16:9"
)

// Provider turns a text prompt into encoded image bytes.
type Provider interface {
	Name() string
	Generate(ctx context.Context, prompt string, aspect AspectRatio) ([]byte, error)
}

// New creates a Provider from the generator config.
func New(cfg *config.GeneratorConfig, apiKey string) (Provider, error) {
	if cfg == nil || apiKey == "" {
		return nil, fmt.Errorf("image generation not configured")
	}

	// Per-call deadlines come from the throttle; this only guards against hung sockets
	client := &http.Client{Timeout: 2 * time.Minute}

	switch cfg.Provider {
	case "gemini":
		model := cfg.Model
		if model == "" {
			model = "imagen-3.0-generate-002"
		}
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = "https://generativelanguage.googleapis.com"
		}
		return &geminiProvider{apiKey: apiKey, model: model, baseURL: strings.TrimRight(baseURL, "/"), client: client}, nil
	case "openai":
		model := cfg.Model
		if model == "" {
			model = "gpt-image-1"
		}
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = "https://api.openai.com"
		}
		return &openaiProvider{apiKey: apiKey, model: model, baseURL: strings.TrimRight(baseURL, "/"), client: client}, nil
	default:
		return nil, fmt.Errorf("unknown image provider: %q (valid: gemini, openai)", cfg.Provider)
	}
}

func postJSON(ctx context.Context, client *http.Client, provider, url string, headers map[string]string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%s API error: %w", provider, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &APIError{Provider: provider, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s response: %w", provider, err)
	}
	return nil
}

func decodeImage(provider, encoded string) ([]byte, error) {
	if encoded == "" {
		return nil, fmt.Errorf("%s: %w", provider, ErrNoImage)
	}
	img, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decoding %s image: %w", provider, err)
	}
	if len(img) == 0 {
		return nil, fmt.Errorf("%s: %w", provider, ErrNoImage)
	}
	return img, nil
}

// --- Gemini (Imagen) provider ---

type geminiProvider struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

type geminiRequest struct {
	Instances  []geminiInstance `json:"instances"`
	Parameters geminiParameters `json:"parameters"`
}

type geminiInstance struct {
	Prompt string `json:"prompt"`
}

type geminiParameters struct {
	SampleCount int    `json:"sampleCount"`
	AspectRatio string `json:"aspectRatio"`
}

type geminiResponse struct {
	Predictions []struct {
		BytesBase64Encoded string `json:"bytesBase64Encoded"`
		MimeType           string `json:"mimeType"`
	} `json:"predictions"`
}

func (g *geminiProvider) Name() string { return "gemini" }

func (g *geminiProvider) Generate(ctx context.Context, prompt string, aspect AspectRatio) ([]byte, error) {
	url := fmt.Sprintf("%s/v1beta/models/%s:predict", g.baseURL, g.model)
	payload := geminiRequest{
		Instances:  []geminiInstance{{Prompt: prompt}},
		Parameters: geminiParameters{SampleCount: 1, AspectRatio: string(aspect)},
	}

	var gr geminiResponse
	if err := postJSON(ctx, g.client, "gemini", url, map[string]string{"x-goog-api-key": g.apiKey}, payload, &gr); err != nil {
		return nil, err
	}
	// Safety-filtered prompts come back with no predictions
	if len(gr.Predictions) == 0 {
		return nil, fmt.Errorf("gemini: %w", ErrNoImage)
	}
	return decodeImage("gemini", gr.Predictions[0].BytesBase64Encoded)
}

// --- OpenAI provider ---

type openaiProvider struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

type openaiRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Size   string `json:"size"`
	N      int    `json:"n"`
}

type openaiResponse struct {
	Data []struct {
		B64JSON string `json:"b64_json"`
	} `json:"data"`
}

func (o *openaiProvider) Name() string { return "openai" }

func (o *openaiProvider) Generate(ctx context.Context, prompt string, aspect AspectRatio) ([]byte, error) {
	payload := openaiRequest{
		Model:  o.model,
		Prompt: prompt,
		Size:   openaiSize(aspect),
		N:      1,
	}

	var or openaiResponse
	if err := postJSON(ctx, o.client, "openai", o.baseURL+"/v1/images/generations", map[string]string{"Authorization": "Bearer " + o.apiKey}, payload, &or); err != nil {
		return nil, err
	}
	if len(or.Data) == 0 {
		return nil, fmt.Errorf("openai: %w", ErrNoImage)
	}
	return decodeImage("openai", or.Data[0].B64JSON)
}

func openaiSize(aspect AspectRatio) string {
	if aspect == Landscape {
		return "1536x1024"
	}
	return "1024x1024"
}
