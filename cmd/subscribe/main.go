package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/Sajhaaan/salespilots-backup-sub003/internal/config"
)

// subscribedAppsResponse is the Graph API subscription result
type subscribedAppsResponse struct {
	Success bool `json:"success"`
	Error   *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    int    `json:"code"`
	} `json:"error"`
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if cfg.MetaPageID == "" || cfg.MetaPageToken == "" {
		log.Fatal("META_PAGE_ID and META_PAGE_TOKEN are required")
	}

	fmt.Println("===========================================")
	fmt.Println("Meta Webhook Subscription Tool")
	fmt.Println("===========================================")
	fmt.Printf("Page ID: %s\n", cfg.MetaPageID)
	fmt.Println()

	endpoint := fmt.Sprintf("https://graph.facebook.com/v19.0/%s/subscribed_apps", cfg.MetaPageID)
	form := url.Values{}
	form.Set("subscribed_fields", "messages,messaging_postbacks")
	form.Set("access_token", cfg.MetaPageToken)

	client := &http.Client{Timeout: 15 * time.Second}
	resp, err := client.PostForm(endpoint, form)
	if err != nil {
		log.Fatalf("Subscription request failed: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Fatalf("Failed to read response: %v", err)
	}

	var result subscribedAppsResponse
	if err := json.Unmarshal(body, &result); err != nil {
		log.Fatalf("Failed to parse response (%d): %s", resp.StatusCode, string(body))
	}
	if result.Error != nil {
		log.Fatalf("Graph API error %d (%s): %s", result.Error.Code, result.Error.Type, result.Error.Message)
	}
	if !result.Success {
		log.Fatalf("Subscription not confirmed: %s", string(body))
	}

	fmt.Println("✓ Page subscribed to messages webhook")
}
