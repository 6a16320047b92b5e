package scoring

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"safe-route-service/internal/platform/httpx"
	"strings"
	"time"

	json "github.com/goccy/go-json"
)

type openAIChatRequest struct {
	Model          string              `json:"model"`
	Messages       []openAIChatMessage `json:"messages"`
	Temperature    float64             `json:"temperature"`
	ResponseFormat *openAIFormat       `json:"response_format,omitempty"`
}

type openAIChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIFormat struct {
	Type string `json:"type"`
}

type openAIChatResponse struct {
	Choices []struct {
		Message      openAIChatMessage `json:"message"`
		FinishReason string            `json:"finish_reason"`
	} `json:"choices"`
}

type openAIErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// OpenAIGenerator implements TextGenerator for any OpenAI-compatible
// Chat Completions endpoint.
type OpenAIGenerator struct {
	client           *httpx.Client
	baseURL          string
	apiKey           string
	model            string
	maxResponseBytes int64
}

func NewOpenAIGenerator(baseURL, apiKey, model string, timeout time.Duration) (*OpenAIGenerator, error) {
	if apiKey == "" {
		return nil, errors.New("openai api key is empty")
	}
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	if model == "" {
		model = "gpt-4o-mini"
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := httpx.New(timeout)
	client.MaxAttempts = 2

	return &OpenAIGenerator{
		client:           client,
		baseURL:          strings.TrimRight(baseURL, "/"),
		apiKey:           apiKey,
		model:            model,
		maxResponseBytes: defaultMaxResponseBytes,
	}, nil
}

func (p *OpenAIGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(openAIChatRequest{
		Model: p.model,
		Messages: []openAIChatMessage{
			{Role: "system", Content: "You assess pedestrian route safety and answer with a single JSON object."},
			{Role: "user", Content: prompt},
		},
		Temperature:    0.2,
		ResponseFormat: &openAIFormat{Type: "json_object"},
	})
	if err != nil {
		return "", fmt.Errorf("marshal openai request: %w", err)
	}

	endpoint := p.baseURL + "/chat/completions"

	resp, err := p.client.DoWithRetry(ctx, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
		return req, nil
	})
	if err != nil {
		var se *httpx.StatusError
		if errors.As(err, &se) {
			var eb openAIErrorResponse
			if json.Unmarshal([]byte(se.Body), &eb) == nil && eb.Error.Message != "" {
				return "", fmt.Errorf("openai error %d: %s (type=%s): %w", se.Code, eb.Error.Message, eb.Error.Type, err)
			}
		}
		return "", fmt.Errorf("call openai: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := readLimited(resp.Body, p.maxResponseBytes)
	if err != nil {
		return "", fmt.Errorf("read openai response: %w", err)
	}

	var oaiResp openAIChatResponse
	if err := json.Unmarshal(respBody, &oaiResp); err != nil {
		return "", fmt.Errorf("decode openai response: %w", err)
	}

	if len(oaiResp.Choices) == 0 {
		return "", errors.New("openai response had no choices")
	}

	return oaiResp.Choices[0].Message.Content, nil
}
