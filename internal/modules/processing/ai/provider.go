package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	neturl "net/url"
	"strings"

	anthropicclient "github.com/anthropics/anthropic-sdk-go"
	anthropicoption "github.com/anthropics/anthropic-sdk-go/option"
	appcfg "github.com/mx-space/scribe/internal/config"
	openaiclient "github.com/openai/openai-go/v2"
	openaioption "github.com/openai/openai-go/v2/option"
	jetai "go.jetify.com/ai"
	jetapi "go.jetify.com/ai/api"
	jetanthropic "go.jetify.com/ai/provider/anthropic"
	jetopenai "go.jetify.com/ai/provider/openai"
)

var (
	ErrEmptyAPIKey   = errors.New("AI provider api key is empty")
	ErrEmptyResponse = errors.New("empty response from AI")
)

// Generator produces a completion for a system prompt and a user prompt.
type Generator interface {
	Generate(ctx context.Context, systemPrompt, prompt string) (string, error)
}

// Client is the configured generation provider.
type Client struct {
	cfg  appcfg.AIRuntimeConfig
	http *http.Client
}

func NewClient(cfg appcfg.AIRuntimeConfig) *Client {
	return &Client{cfg: cfg, http: &http.Client{}}
}

// Provider reports the configured provider type and model, for logging.
func (c *Client) Provider() (string, string) {
	return c.cfg.Type, c.cfg.Model
}

// Generate sends one completion request bounded by the configured timeout.
func (c *Client) Generate(ctx context.Context, systemPrompt, prompt string) (string, error) {
	if strings.TrimSpace(c.cfg.APIKey) == "" {
		return "", ErrEmptyAPIKey
	}
	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	if c.cfg.Type == appcfg.ProviderOpenAICompatible {
		return c.chatCompletions(ctx, systemPrompt, prompt)
	}

	model, err := buildLanguageModel(c.cfg)
	if err != nil {
		return "", err
	}
	resp, err := jetai.GenerateText(
		ctx,
		buildAIPromptMessages(systemPrompt, prompt),
		jetai.WithModel(model),
		jetai.WithMaxOutputTokens(c.maxOutputTokens()),
	)
	if err != nil {
		return "", fmt.Errorf("%s generate: %w", c.cfg.Type, err)
	}
	return extractTextFromAIResponse(resp)
}

func (c *Client) maxOutputTokens() int {
	if c.cfg.MaxOutputTokens > 0 {
		return c.cfg.MaxOutputTokens
	}
	return 4096
}

// chatCompletions targets any endpoint speaking the OpenAI chat completions
// protocol, such as Groq.
func (c *Client) chatCompletions(ctx context.Context, systemPrompt, prompt string) (string, error) {
	endpoint := normalizeOpenAICompatibleEndpoint(c.cfg.Endpoint)
	model := strings.TrimSpace(c.cfg.Model)
	if model == "" {
		model = "llama3-8b-8192"
	}

	messages := make([]map[string]string, 0, 2)
	if strings.TrimSpace(systemPrompt) != "" {
		messages = append(messages, map[string]string{
			"role":    "system",
			"content": systemPrompt,
		})
	}
	messages = append(messages, map[string]string{
		"role":    "user",
		"content": prompt,
	})

	body, err := json.Marshal(map[string]any{
		"model":      model,
		"messages":   messages,
		"max_tokens": c.maxOutputTokens(),
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+strings.TrimSpace(c.cfg.APIKey))
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return "", fmt.Errorf("openai-compatible error (HTTP %d): %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("parsing chat completion: %w", err)
	}
	if result.Error != nil && strings.TrimSpace(result.Error.Message) != "" {
		return "", fmt.Errorf("openai-compatible error: %s", result.Error.Message)
	}
	if strings.TrimSpace(result.Message) != "" && len(result.Choices) == 0 {
		return "", fmt.Errorf("openai-compatible error: %s", result.Message)
	}
	if len(result.Choices) == 0 || strings.TrimSpace(result.Choices[0].Message.Content) == "" {
		return "", ErrEmptyResponse
	}
	return result.Choices[0].Message.Content, nil
}

func buildAIPromptMessages(systemPrompt, prompt string) []jetapi.Message {
	messages := make([]jetapi.Message, 0, 2)
	if strings.TrimSpace(systemPrompt) != "" {
		messages = append(messages, &jetapi.SystemMessage{Content: systemPrompt})
	}
	messages = append(messages, &jetapi.UserMessage{Content: jetapi.ContentFromText(prompt)})
	return messages
}

func extractTextFromAIResponse(resp *jetapi.Response) (string, error) {
	if resp == nil {
		return "", ErrEmptyResponse
	}

	var full strings.Builder
	for _, block := range resp.Content {
		textBlock, ok := block.(*jetapi.TextBlock)
		if !ok || textBlock.Text == "" {
			continue
		}
		full.WriteString(textBlock.Text)
	}

	text := full.String()
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

func buildLanguageModel(cfg appcfg.AIRuntimeConfig) (jetapi.LanguageModel, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, ErrEmptyAPIKey
	}

	modelID := strings.TrimSpace(cfg.Model)
	endpoint := strings.TrimSpace(cfg.Endpoint)

	switch cfg.Type {
	case appcfg.ProviderAnthropic:
		if modelID == "" {
			modelID = "claude-3-5-haiku-latest"
		}

		opts := []anthropicoption.RequestOption{
			anthropicoption.WithAPIKey(apiKey),
			anthropicoption.WithMaxRetries(0),
		}
		if endpoint != "" {
			opts = append(opts, anthropicoption.WithBaseURL(strings.TrimRight(endpoint, "/")))
		}

		client := anthropicclient.NewClient(opts...)
		return jetanthropic.NewLanguageModel(modelID, jetanthropic.WithClient(client)), nil

	case appcfg.ProviderOpenAI:
		if modelID == "" {
			modelID = "gpt-4o-mini"
		}

		opts := []openaioption.RequestOption{
			openaioption.WithAPIKey(apiKey),
			openaioption.WithMaxRetries(0),
		}
		if normalized := normalizeOpenAIBaseURL(endpoint); normalized != "" {
			opts = append(opts, openaioption.WithBaseURL(normalized))
		}

		client := openaiclient.NewClient(opts...)
		return jetopenai.NewLanguageModel(modelID, jetopenai.WithClient(client)), nil
	}
	return nil, fmt.Errorf("unsupported AI provider type %q", cfg.Type)
}

func normalizeOpenAIBaseURL(raw string) string {
	base := strings.TrimSpace(raw)
	if base == "" {
		return ""
	}
	parsed, err := neturl.Parse(base)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return strings.TrimRight(base, "/")
	}

	path := strings.TrimRight(parsed.Path, "/")
	if !strings.HasSuffix(path, "/v1") {
		path += "/v1"
	}
	parsed.Path = path
	return strings.TrimRight(parsed.String(), "/")
}

func normalizeOpenAICompatibleEndpoint(raw string) string {
	base := strings.TrimSpace(raw)
	if base == "" {
		return "https://api.groq.com/openai"
	}

	parsed, err := neturl.Parse(base)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return strings.TrimSuffix(strings.TrimRight(base, "/"), "/v1")
	}

	parsed.Path = strings.TrimSuffix(strings.TrimRight(parsed.Path, "/"), "/v1")
	return strings.TrimRight(parsed.String(), "/")
}
