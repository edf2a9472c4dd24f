package correction

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// ProviderConfig configures the HTTP correction provider.
//
// APIURL: Base URL for the correction API
// APIKey: Optional bearer token
// Model: Model identifier sent with each request
// Timeout: Request timeout in seconds
type ProviderConfig struct {
	APIURL  string
	APIKey  string
	Model   string
	Timeout int
}

// Validate checks the configuration for required fields.
func (c *ProviderConfig) Validate() error {
	if c.APIURL == "" {
		return fmt.Errorf("correction API URL is required")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("correction API timeout must be positive")
	}
	return nil
}

// HTTPProvider asks a remote correction service to proofread subtitle
// text. Thread-safe for concurrent use.
type HTTPProvider struct {
	config     *ProviderConfig
	httpClient *http.Client
	baseURL    string
}

// NewHTTPProvider creates a provider with the given configuration.
func NewHTTPProvider(config *ProviderConfig) (*HTTPProvider, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &HTTPProvider{
		config:  config,
		baseURL: strings.TrimRight(config.APIURL, "/"),
		httpClient: &http.Client{
			Timeout: time.Duration(config.Timeout) * time.Second,
		},
	}, nil
}

type correctionAPIRequest struct {
	Model   string `json:"model,omitempty"`
	Text    string `json:"text"`
	StartMs int    `json:"start_ms"`
	EndMs   int    `json:"end_ms"`
}

type correctionAPIResponse struct {
	CorrectedText string `json:"corrected_text"`
	Error         *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Correct sends the entry text to the correction endpoint and reports
// whether the service suggested a different text.
func (p *HTTPProvider) Correct(ctx context.Context, req Request) (Result, error) {
	payload := correctionAPIRequest{
		Model:   p.config.Model,
		Text:    req.Text,
		StartMs: req.StartMs,
		EndMs:   req.EndMs,
	}

	resp, err := p.makeRequest(ctx, "POST", "/corrections", payload)
	if err != nil {
		return Result{}, fmt.Errorf("correction request failed: %w", err)
	}

	corrected := strings.TrimSpace(resp.CorrectedText)
	if corrected == "" {
		return Result{CorrectedText: req.Text, HasDifference: false}, nil
	}

	return Result{
		CorrectedText: corrected,
		HasDifference: corrected != strings.TrimSpace(req.Text),
	}, nil
}

// makeRequest makes a raw HTTP request to the correction API.
func (p *HTTPProvider) makeRequest(ctx context.Context, method, path string, payload interface{}) (*correctionAPIResponse, error) {
	url := p.baseURL + path

	var body io.Reader
	if payload != nil {
		jsonData, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if p.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.config.APIKey)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		if os.IsTimeout(err) {
			return nil, fmt.Errorf("request timed out: %w", err)
		}
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var apiResponse correctionAPIResponse
	if err := json.Unmarshal(responseBody, &apiResponse); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if apiResponse.Error != nil && apiResponse.Error.Message != "" {
		return &apiResponse, fmt.Errorf("API error: %s", apiResponse.Error.Message)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &apiResponse, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(responseBody))
	}

	return &apiResponse, nil
}
