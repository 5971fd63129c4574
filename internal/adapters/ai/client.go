package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Sajhaaan/salespilots-backup-sub003/internal/core"
)

// Client talks to an Anthropic-style messages API for free-form replies and
// payment-screenshot verdicts.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewClient creates a new AI client
func NewClient(baseURL, apiKey, model string) *Client {
	if apiKey == "" {
		panic("AI_API_KEY is required but not set")
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		httpClient: &http.Client{
			Timeout: 45 * time.Second,
		},
	}
}

// messagesRequest is the request body for the messages endpoint
type messagesRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	System    string    `json:"system,omitempty"`
	Messages  []message `json:"messages"`
}

type message struct {
	Role    string      `json:"role"`
	Content interface{} `json:"content"`
}

type contentBlock struct {
	Type   string       `json:"type"`
	Text   string       `json:"text,omitempty"`
	Source *imageSource `json:"source,omitempty"`
}

type imageSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

// messagesResponse is the response body from the messages endpoint
type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
}

// Complete asks the model for a short customer-facing reply using only the
// bounded context the pipeline supplies.
func (c *Client) Complete(ctx context.Context, prompt string, cc core.CompletionContext) (*core.Completion, error) {
	system := buildSystemPrompt(cc)

	body := messagesRequest{
		Model:     c.model,
		MaxTokens: 512,
		System:    system,
		Messages:  buildHistory(cc.RecentHistory, prompt),
	}

	text, err := c.call(ctx, body)
	if err != nil {
		return nil, err
	}

	return &core.Completion{
		Response: text,
		Category: core.CategoryGeneralInquiry,
	}, nil
}

// VerifyPayment asks the model to check a payment screenshot against the
// order's expected amount. The reply must start with one of ACCEPTED /
// REJECTED / NEEDS_REVIEW; anything else is treated as needs-review.
func (c *Client) VerifyPayment(ctx context.Context, imageBase64, mediaType string, order *core.Order) (core.Verdict, string, error) {
	system := "You verify payment screenshots for a small business. " +
		"Reply with exactly one word on the first line: ACCEPTED, REJECTED or NEEDS_REVIEW, " +
		"then one short sentence explaining why."

	prompt := fmt.Sprintf(
		"Expected payment amount: %.2f. Order id: %s. Does this screenshot show a successful transfer of that amount?",
		order.TotalAmount, order.ID)

	body := messagesRequest{
		Model:     c.model,
		MaxTokens: 256,
		System:    system,
		Messages: []message{
			{
				Role: "user",
				Content: []contentBlock{
					{Type: "image", Source: &imageSource{Type: "base64", MediaType: mediaType, Data: imageBase64}},
					{Type: "text", Text: prompt},
				},
			},
		},
	}

	text, err := c.call(ctx, body)
	if err != nil {
		return core.VerdictNeedsReview, "", err
	}
	verdict, detail := parseVerdict(text)
	return verdict, detail, nil
}

// call executes one messages request and extracts the first text block.
func (c *Client) call(ctx context.Context, body messagesRequest) (string, error) {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to marshal AI request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/v1/messages", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("AI request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read AI response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("AI API error: status %d, body: %s", resp.StatusCode, string(respBody))
	}

	var parsed messagesResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("failed to parse AI response: %w", err)
	}
	for _, block := range parsed.Content {
		if block.Type == "text" && block.Text != "" {
			return block.Text, nil
		}
	}
	return "", fmt.Errorf("no text content in AI response")
}

// buildSystemPrompt keeps what the model sees bounded to business name,
// product names, language and recent history.
func buildSystemPrompt(cc core.CompletionContext) string {
	var b strings.Builder
	b.WriteString("You are a helpful sales assistant for ")
	b.WriteString(cc.BusinessName)
	b.WriteString(". Answer briefly and politely, like a shop owner on chat.")
	if cc.Language == "hi" {
		b.WriteString(" Reply in Hindi or Hinglish, matching the customer's tone.")
	}
	if len(cc.ProductNames) > 0 {
		b.WriteString(" Available products: ")
		b.WriteString(strings.Join(cc.ProductNames, ", "))
		b.WriteString(".")
	}
	if cc.PendingOrderRef != "" {
		b.WriteString(" The customer has order #")
		b.WriteString(cc.PendingOrderRef)
		b.WriteString(" in progress awaiting payment.")
	}
	b.WriteString(" Never invent prices or promise delivery dates.")
	return b.String()
}

// buildHistory folds the bounded recent exchanges into alternating turns.
func buildHistory(history []core.Exchange, prompt string) []message {
	messages := make([]message, 0, len(history)*2+1)
	for _, ex := range history {
		if ex.Inbound != "" {
			messages = append(messages, message{Role: "user", Content: ex.Inbound})
		}
		if ex.Outbound != "" {
			messages = append(messages, message{Role: "assistant", Content: ex.Outbound})
		}
	}
	messages = append(messages, message{Role: "user", Content: prompt})
	return messages
}

// parseVerdict maps the first line of the model reply onto a verdict.
func parseVerdict(text string) (core.Verdict, string) {
	trimmed := strings.TrimSpace(text)
	firstLine := trimmed
	detail := ""
	if idx := strings.IndexByte(trimmed, '\n'); idx >= 0 {
		firstLine = strings.TrimSpace(trimmed[:idx])
		detail = strings.TrimSpace(trimmed[idx+1:])
	}
	switch {
	case strings.HasPrefix(strings.ToUpper(firstLine), "ACCEPTED"):
		return core.VerdictAccepted, detail
	case strings.HasPrefix(strings.ToUpper(firstLine), "REJECTED"):
		return core.VerdictRejected, detail
	default:
		return core.VerdictNeedsReview, trimmed
	}
}
