package messenger

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/Sajhaaan/salespilots-backup-sub003/internal/core"
)

// Client handles Meta Graph API communication for Instagram and WhatsApp DMs
type Client struct {
	baseURL    string
	pageToken  string
	httpClient *http.Client
}

// NewClient creates a new Graph API client
func NewClient(pageToken string) *Client {
	if pageToken == "" {
		panic("META_PAGE_TOKEN is required but not set")
	}
	return &Client{
		baseURL:   "https://graph.facebook.com/v19.0",
		pageToken: pageToken,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// SendText sends a plain text reply
func (c *Client) SendText(ctx context.Context, platform core.Platform, recipientID string, text string) error {
	payload := sendRequest{
		Recipient: Party{ID: recipientID},
		Message:   sendMessage{Text: text},
	}
	return c.send(ctx, payload)
}

// SendImage sends an image by URL
func (c *Client) SendImage(ctx context.Context, platform core.Platform, recipientID string, imageURL string) error {
	attachment := &sendAttachment{Type: "image"}
	attachment.Payload.URL = imageURL
	payload := sendRequest{
		Recipient: Party{ID: recipientID},
		Message:   sendMessage{Attachment: attachment},
	}
	return c.send(ctx, payload)
}

// send posts a message payload to the Graph send API
func (c *Client) send(ctx context.Context, payload sendRequest) error {
	endpoint := fmt.Sprintf("%s/me/messages?access_token=%s", c.baseURL, url.QueryEscape(c.pageToken))

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("graph API error: status %d, body: %s", resp.StatusCode, string(body))
	}

	var sent sendResponse
	if err := json.Unmarshal(body, &sent); err != nil {
		return fmt.Errorf("failed to parse send response: %w", err)
	}
	return nil
}

// FetchProfile retrieves the sender's display name. Idempotent read: the
// pipeline retries this once with backoff before degrading to a synthetic
// customer record.
func (c *Client) FetchProfile(ctx context.Context, platform core.Platform, userID string) (*core.Profile, error) {
	endpoint := fmt.Sprintf("%s/%s?fields=name&access_token=%s",
		c.baseURL, url.PathEscape(userID), url.QueryEscape(c.pageToken))

	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch profile: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("graph API error: status %d, body: %s", resp.StatusCode, string(body))
	}

	var profile profileResponse
	if err := json.Unmarshal(body, &profile); err != nil {
		return nil, fmt.Errorf("failed to parse profile: %w", err)
	}

	name := profile.Name
	if name == "" && profile.FirstName != "" {
		name = profile.FirstName
		if profile.LastName != "" {
			name += " " + profile.LastName
		}
	}
	return &core.Profile{Name: name}, nil
}

// FetchImageBase64 downloads an attachment (payment screenshot) and returns
// it base64-encoded with its media type, ready for the vision collaborator.
func (c *Client) FetchImageBase64(ctx context.Context, imageURL string) (string, string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", imageURL, nil)
	if err != nil {
		return "", "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("failed to fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("image fetch error: status %d", resp.StatusCode)
	}

	// Payment screenshots are small; cap at 10MB to be safe.
	data, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return "", "", fmt.Errorf("failed to read image: %w", err)
	}

	mediaType := resp.Header.Get("Content-Type")
	if mediaType == "" {
		mediaType = "image/jpeg"
	}
	return base64.StdEncoding.EncodeToString(data), mediaType, nil
}
