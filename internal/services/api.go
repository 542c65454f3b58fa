package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/desertthunder/brutaldon/internal/shared"
)

// APIError is a non-2xx response from an instance.
//
// It matches [shared.ErrAPIRequest] with [errors.Is], and also [shared.ErrNotAuthenticated] for 401
// and [shared.ErrStatusNotFound] for 404.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("mastodon API error: status %d", e.StatusCode)
	}
	return fmt.Sprintf("mastodon API error: status %d: %s", e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() []error {
	errs := []error{shared.ErrAPIRequest}
	switch e.StatusCode {
	case http.StatusUnauthorized:
		errs = append(errs, shared.ErrNotAuthenticated)
	case http.StatusNotFound:
		errs = append(errs, shared.ErrStatusNotFound)
	}
	return errs
}

// newAPIError reads the {"error": "..."} body Mastodon returns on failure.
func newAPIError(resp *http.Response) *APIError {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return apiErr
	}

	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error != "" {
		apiErr.Message = payload.Error
	} else {
		apiErr.Message = strings.TrimSpace(string(body))
	}
	return apiErr
}

// APIService performs raw form-encoded requests against one instance and decodes JSON responses.
type APIService struct {
	baseURL    string
	httpClient *http.Client
	userAgent  string
	// observe, when set, sees the headers of every response (used for rate-limit pacing).
	observe func(http.Header)
}

// NewAPIService creates an [APIService] for the instance at baseURL.
func NewAPIService(baseURL string, client *http.Client, userAgent string) *APIService {
	if client == nil {
		client = http.DefaultClient
	}

	return &APIService{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: client,
		userAgent:  userAgent,
	}
}

// Get performs a GET request to path with optional query parameters and decodes the JSON response into result.
func (a *APIService) Get(ctx context.Context, path string, query url.Values, result any) error {
	if len(query) > 0 {
		path += "?" + query.Encode()
	}
	return a.do(ctx, http.MethodGet, path, nil, result)
}

// Post performs a form-encoded POST request and decodes the JSON response into result.
func (a *APIService) Post(ctx context.Context, path string, form url.Values, result any) error {
	return a.do(ctx, http.MethodPost, path, form, result)
}

func (a *APIService) do(ctx context.Context, method, path string, form url.Values, result any) error {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if a.userAgent != "" {
		req.Header.Set("User-Agent", a.userAgent)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if a.observe != nil {
		a.observe(resp.Header)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newAPIError(resp)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}
