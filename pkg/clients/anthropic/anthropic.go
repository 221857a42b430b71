package anthropic

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	apiURL     = "https://api.anthropic.com/v1/messages"
	apiVersion = "2023-06-01"
	model      = "claude-3-haiku-20240307"
	maxTokens  = 1024
)

// Insight is one generated observation over recent sales history.
type Insight struct {
	Title   string `json:"title"`
	Insight string `json:"insight"`
	Emoji   string `json:"emoji"`
}

// Client defines the generative insight and offer surface. Both calls are
// fire-and-forget from the caller's perspective: an empty result is valid
// and errors must never block the screens consuming them.
type Client interface {
	GenerateInsights(ctx context.Context, salesHistoryJSON string) ([]Insight, error)
	GenerateOffer(ctx context.Context, salesHistoryJSON string) (string, error)
}

type anthropicClient struct {
	httpClient *resty.Client
}

// NewClient creates a configured Anthropic client.
func NewClient(apiKey string) Client {
	client := resty.New().
		SetHeader("x-api-key", apiKey).
		SetHeader("anthropic-version", apiVersion).
		SetHeader("content-type", "application/json").
		SetTimeout(15 * time.Second)

	return &anthropicClient{httpClient: client}
}

type messageRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	System    string    `json:"system"`
	Messages  []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messageResponse struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
}

const insightsPrompt = `You are an analyst for a small bakery. You receive a JSON array of weekly sales history entries shaped like {"week": "2025-06-02", "sales": {"product name": amount}}.

Return ONLY a JSON object of this exact structure, with between zero and three insights:
{"insights": [{"title": "...", "insight": "...", "emoji": "..."}]}

RULES:
- Each insight is one short sentence about a trend, a best seller, or a week-over-week change.
- "emoji" is a single emoji character.
- If the history is empty or too thin to say anything useful, return {"insights": []}.
- Output valid JSON and nothing else.`

const offerPrompt = `You are a marketing assistant for a small bakery. You receive a JSON array of weekly sales history entries shaped like {"week": "2025-06-02", "sales": {"product name": amount}}.

Return ONLY a JSON object of this exact structure:
{"offers": "..."}

The "offers" value is one short promotional offer suggestion grounded in the slowest-moving product. If the history is empty, return {"offers": ""}. Output valid JSON and nothing else.`

// GenerateInsights asks the model for up to three short observations about
// the provided weekly sales history.
func (c *anthropicClient) GenerateInsights(ctx context.Context, salesHistoryJSON string) ([]Insight, error) {
	text, err := c.complete(ctx, insightsPrompt, salesHistoryJSON)
	if err != nil {
		return nil, err
	}

	var result struct {
		Insights []Insight `json:"insights"`
	}
	if err := json.Unmarshal([]byte(text), &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal insights response: %w. Response was: %s", err, text)
	}
	if len(result.Insights) > 3 {
		result.Insights = result.Insights[:3]
	}
	return result.Insights, nil
}

// GenerateOffer asks the model for one promotional offer suggestion.
func (c *anthropicClient) GenerateOffer(ctx context.Context, salesHistoryJSON string) (string, error) {
	text, err := c.complete(ctx, offerPrompt, salesHistoryJSON)
	if err != nil {
		return "", err
	}

	var result struct {
		Offers string `json:"offers"`
	}
	if err := json.Unmarshal([]byte(text), &result); err != nil {
		return "", fmt.Errorf("failed to unmarshal offers response: %w. Response was: %s", err, text)
	}
	return result.Offers, nil
}

func (c *anthropicClient) complete(ctx context.Context, system, userContent string) (string, error) {
	// Prefill the assistant response to force JSON output.
	reqBody := messageRequest{
		Model:     model,
		MaxTokens: maxTokens,
		System:    system,
		Messages: []message{
			{Role: "user", Content: userContent},
			{Role: "assistant", Content: "{"},
		},
	}

	var respBody messageResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(reqBody).
		SetResult(&respBody).
		Post(apiURL)

	if err != nil {
		return "", fmt.Errorf("anthropic api call: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("anthropic api error: %s", resp.String())
	}
	if len(respBody.Content) == 0 {
		return "", fmt.Errorf("empty response from ai")
	}

	// Reconstruct the full JSON since we prefilled the opening brace.
	text := "{" + respBody.Content[0].Text
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimSuffix(text, "```")
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(text, "```")
	}
	return strings.TrimSpace(text), nil
}
