/**
 * @description
 * This package provides a client for interacting with the Whop membership API.
 * It encapsulates the logic for making authenticated HTTP requests to Whop's
 * endpoints, handling request body construction, and parsing responses.
 *
 * @dependencies
 * - bytes, context, encoding/json, fmt, net/http, time: Standard Go libraries.
 */
package whopclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

// Client is a client for the Whop API.
type Client struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

// NewClient creates a new Whop API client.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		BaseURL: baseURL,
		APIKey:  apiKey,
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// AddFreeDaysRequest is the payload for Whop's add_free_days endpoint.
type AddFreeDaysRequest struct {
	Days int `json:"days"`
}

// AddFreeDaysResponse is the expected success response from Whop.
type AddFreeDaysResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// ErrorResponse represents an error from the Whop API.
type ErrorResponse struct {
	Err struct {
		Status  int    `json:"status"`
		Message string `json:"message"`
	} `json:"error"`
}

func (e *ErrorResponse) Error() string {
	if e.Err.Message != "" {
		return fmt.Sprintf("whop api error: %d - %s", e.Err.Status, e.Err.Message)
	}
	return "unknown whop api error"
}

// AddFreeDays grants a number of free days to a membership. A single
// request is made; the caller decides how to surface failures.
func (c *Client) AddFreeDays(ctx context.Context, membershipID string, days int) (*AddFreeDaysResponse, error) {
	body, err := json.Marshal(AddFreeDaysRequest{Days: days})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal add_free_days request: %w", err)
	}

	url := fmt.Sprintf("%s/api/v2/memberships/%s/add_free_days", c.BaseURL, membershipID)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create add_free_days request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.APIKey)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute add_free_days request: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read add_free_days response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp ErrorResponse
		if err := json.Unmarshal(bodyBytes, &errResp); err != nil {
			log.Printf("level=warn component=whop_client op=add_free_days membership_id=%s status=%d msg=\"non-2xx response (unparsable error body)\"", membershipID, resp.StatusCode)
			return nil, fmt.Errorf("failed to decode error response (status %d)", resp.StatusCode)
		}
		log.Printf("level=warn component=whop_client op=add_free_days membership_id=%s status=%d message=%q", membershipID, resp.StatusCode, errResp.Err.Message)
		return nil, &errResp
	}

	var successResp AddFreeDaysResponse
	if err := json.Unmarshal(bodyBytes, &successResp); err != nil {
		return nil, fmt.Errorf("failed to decode success response: %w", err)
	}

	return &successResp, nil
}
