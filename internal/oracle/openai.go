package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/Veraticus/pigeonhole/internal/common"
	"github.com/Veraticus/pigeonhole/internal/model"
)

const defaultModel = openai.GPT4oMini

// openAIClient implements Client against the OpenAI chat completion API.
type openAIClient struct {
	client *openai.Client
	model  string
}

// NewOpenAIClient creates an oracle client using the given API key.
func NewOpenAIClient(apiKey, modelName string) (Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: oracle API key", common.ErrMissingConfig)
	}
	if modelName == "" {
		modelName = defaultModel
	}

	return &openAIClient{
		client: openai.NewClient(apiKey),
		model:  modelName,
	}, nil
}

// oracleResponse is the JSON shape the prompt asks the model for.
type oracleResponse struct {
	Category   string  `json:"category"`
	Reasoning  string  `json:"reasoning"`
	Confidence float64 `json:"confidence"`
}

// Classify asks the oracle for a category. Transport failures are wrapped
// in common.RetryableError; a malformed response is permanent.
func (c *openAIClient) Classify(ctx context.Context, req model.CategorizationRequest, categories []string) (Suggestion, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You are a precise financial transaction classifier. Respond with JSON only.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: buildPrompt(req, categories),
			},
		},
		Temperature: 0.2,
		MaxTokens:   300,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return Suggestion{}, classifyError(err)
	}

	if len(resp.Choices) == 0 {
		return Suggestion{}, &common.RetryableError{
			Err:       fmt.Errorf("oracle returned no choices"),
			Retryable: false,
		}
	}

	var parsed oracleResponse
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return Suggestion{}, &common.RetryableError{
			Err:       fmt.Errorf("oracle returned malformed response: %w", err),
			Retryable: false,
		}
	}
	if parsed.Category == "" {
		return Suggestion{}, &common.RetryableError{
			Err:       fmt.Errorf("oracle response missing category"),
			Retryable: false,
		}
	}

	if parsed.Confidence < 0 {
		parsed.Confidence = 0
	}
	if parsed.Confidence > 1 {
		parsed.Confidence = 1
	}

	return Suggestion{
		Category:   parsed.Category,
		Confidence: parsed.Confidence,
		Reasoning:  parsed.Reasoning,
	}, nil
}

func buildPrompt(req model.CategorizationRequest, categories []string) string {
	var sb strings.Builder

	sb.WriteString("Categorize this financial transaction.\n\n")
	fmt.Fprintf(&sb, "Description: %s\n", req.Description)
	if req.Merchant != "" {
		fmt.Fprintf(&sb, "Merchant: %s\n", req.Merchant)
	}
	fmt.Fprintf(&sb, "Amount: %.2f %s (negative = expense, positive = income)\n", req.Amount, req.Currency)
	if req.Type != "" {
		fmt.Fprintf(&sb, "Type hint: %s\n", req.Type)
	}
	if !req.Date.IsZero() {
		fmt.Fprintf(&sb, "Date: %s\n", req.Date.Format("2006-01-02"))
	}

	if req.Context != nil {
		if len(req.Context.RecentTransactions) > 0 {
			sb.WriteString("\nRecent transactions:\n")
			for _, t := range req.Context.RecentTransactions {
				fmt.Fprintf(&sb, "- %s\n", t)
			}
		}
		if len(req.Context.UserHints) > 0 {
			sb.WriteString("\nUser hints:\n")
			for _, h := range req.Context.UserHints {
				fmt.Fprintf(&sb, "- %s\n", h)
			}
		}
	}

	if len(categories) > 0 {
		fmt.Fprintf(&sb, "\nKnown categories: %s\n", strings.Join(categories, ", "))
		sb.WriteString("Prefer a known category; propose a new one only when nothing fits.\n")
	}

	sb.WriteString(`
Respond with a JSON object:
{"category": "...", "confidence": 0.0-1.0, "reasoning": "one sentence"}`)

	return sb.String()
}

// classifyError maps transport errors onto the retry taxonomy: rate limits
// and server-side failures are transient, auth and request errors are
// permanent, anything else (network) is transient.
func classifyError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.HTTPStatusCode == http.StatusTooManyRequests:
			return &common.RetryableError{
				Err:       fmt.Errorf("%w: %v", common.ErrRateLimit, err),
				Retryable: true,
			}
		case apiErr.HTTPStatusCode >= 500:
			return &common.RetryableError{Err: err, Retryable: true}
		default:
			return &common.RetryableError{Err: err, Retryable: false}
		}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		if reqErr.HTTPStatusCode == http.StatusTooManyRequests || reqErr.HTTPStatusCode >= 500 {
			return &common.RetryableError{Err: err, Retryable: true}
		}
		return &common.RetryableError{Err: err, Retryable: false}
	}

	return &common.RetryableError{Err: err, Retryable: true}
}
