package analysis

import (
	"context"
	"fmt"

	"github.com/meridianhq/meridian/internal/config"
	"github.com/meridianhq/meridian/internal/fetch"
)

// systemPrompt pins the collaborator to machine-readable output.
const systemPrompt = "You are a macro analyst. Produce JSON only."

const (
	completionTemperature = 0.0
	completionMaxTokens   = 900
)

// Provider produces the raw completion for an analysis prompt.
type Provider interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// OpenRouter is the chat-completions Provider.
type OpenRouter struct {
	client   *fetch.Client
	baseURL  string
	apiKey   string
	model    string
	appURL   string
	appTitle string
}

// NewOpenRouter builds the provider from settings. Returns an error when
// no API key is configured.
func NewOpenRouter(client *fetch.Client, settings *config.Settings) (*OpenRouter, error) {
	if settings.OpenRouterAPIKey == "" {
		return nil, fmt.Errorf("openrouter: no API key configured")
	}
	return &OpenRouter{
		client:   client,
		baseURL:  settings.OpenRouterBaseURL,
		apiKey:   settings.OpenRouterAPIKey,
		model:    settings.OpenRouterModel,
		appURL:   settings.OpenRouterAppURL,
		appTitle: settings.OpenRouterAppTitle,
	}, nil
}

// Complete sends one chat completion and returns the first choice's text.
func (o *OpenRouter) Complete(ctx context.Context, prompt string) (string, error) {
	payload := map[string]any{
		"model": o.model,
		"messages": []map[string]string{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": prompt},
		},
		"temperature": completionTemperature,
		"max_tokens":  completionMaxTokens,
	}
	headers := map[string]string{
		"Authorization": "Bearer " + o.apiKey,
	}
	if o.appURL != "" {
		headers["HTTP-Referer"] = o.appURL
	}
	if o.appTitle != "" {
		headers["X-Title"] = o.appTitle
	}

	resp, err := o.client.PostJSON(ctx, o.baseURL, payload, headers)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	content, err := extractContent(resp)
	if err != nil {
		return "", err
	}
	return content, nil
}

// extractContent pulls choices[0].message.content, tolerating the older
// choices[0].text shape.
func extractContent(resp map[string]any) (string, error) {
	choices, ok := resp["choices"].([]any)
	if !ok || len(choices) == 0 {
		return "", fmt.Errorf("chat completion: response has no choices")
	}
	choice, ok := choices[0].(map[string]any)
	if !ok {
		return "", fmt.Errorf("chat completion: malformed choice")
	}
	if message, ok := choice["message"].(map[string]any); ok {
		if content, ok := message["content"].(string); ok && content != "" {
			return content, nil
		}
	}
	if text, ok := choice["text"].(string); ok && text != "" {
		return text, nil
	}
	return "", fmt.Errorf("chat completion: empty completion content")
}
