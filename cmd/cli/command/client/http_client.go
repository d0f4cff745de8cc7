package client

// http_client.go talks to the reviewhub API on behalf of the CLI.

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"reviewhub/internal/microservices/http-api/dto"
)

// HTTPClient calls the API under baseURL, e.g. http://localhost:8080/api/v1.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
	token      string
}

// APIError is a non-2xx answer of the API.
type APIError struct {
	Status  int
	Message string
	Fields  map[string][]string
}

func (e *APIError) Error() string {
	if len(e.Fields) == 0 {
		return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+strings.Join(e.Fields[k], ", "))
	}
	return fmt.Sprintf("api error %d: %s", e.Status, strings.Join(parts, "; "))
}

// constructor for HTTP client
func NewHTTPClient(apiURL string) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(apiURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// set token for HTTP client
func (c *HTTPClient) SetToken(token string) {
	c.token = token
}

// RequestCode asks the API to mail a confirmation code to email.
func (c *HTTPClient) RequestCode(ctx context.Context, email string) (*dto.SignupResponse, error) {
	var resp dto.SignupResponse
	if err := c.do(ctx, http.MethodPost, "/auth/email", dto.EmailRequest{Email: email}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ExchangeCode trades a confirmation code for an access token.
func (c *HTTPClient) ExchangeCode(ctx context.Context, email, code string) (*dto.TokenResponse, error) {
	var resp dto.TokenResponse
	req := dto.TokenRequest{Email: email, ConfirmationCode: code}
	if err := c.do(ctx, http.MethodPost, "/auth/token", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Me returns the profile of the token's owner.
func (c *HTTPClient) Me(ctx context.Context) (*dto.UserResponse, error) {
	var resp dto.UserResponse
	if err := c.do(ctx, http.MethodGet, "/users/me", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	response, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer response.Body.Close() // Ensure the response body is closed

	if response.StatusCode < 200 || response.StatusCode > 299 {
		apiErr := &APIError{Status: response.StatusCode, Message: response.Status}
		var payload struct {
			Error  string              `json:"error"`
			Errors map[string][]string `json:"errors"`
		}
		if json.NewDecoder(response.Body).Decode(&payload) == nil {
			if payload.Error != "" {
				apiErr.Message = payload.Error
			}
			apiErr.Fields = payload.Errors
		}
		return apiErr
	}
	if out == nil || response.StatusCode == http.StatusNoContent {
		return nil
	}
	return json.NewDecoder(response.Body).Decode(out)
}
