package garmin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const defaultBaseURL = "https://connectapi.garmin.com"

// AuthError indicates the Garmin credentials were rejected. Extraction
// aborts on it before the workflow starts.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	return "garmin authentication failed: " + e.Message
}

// Client is a thin authenticated HTTP client for the Garmin Connect API.
// Responses come back as loosely-typed maps; the extractor normalizes them.
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      string
}

// ClientOption customizes a Client.
type ClientOption func(*Client)

// WithBaseURL points the client at a different API host. Used in tests.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) { c.baseURL = baseURL }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = httpClient }
}

// NewClient creates an unauthenticated client. Call Login before fetching.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Login exchanges email/password for a session token.
func (c *Client) Login(ctx context.Context, email, password string) error {
	body, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return fmt.Errorf("failed to marshal login request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/login", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("login request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return &AuthError{Message: fmt.Sprintf("HTTP %d", resp.StatusCode)}
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("login failed with status %d", resp.StatusCode)
	}

	var loginResp struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&loginResp); err != nil {
		return fmt.Errorf("failed to parse login response: %w", err)
	}
	if loginResp.Token == "" {
		return &AuthError{Message: "no token in login response"}
	}
	c.token = loginResp.Token
	return nil
}

// getJSON fetches path with query params and decodes the JSON body into out.
func (c *Client) getJSON(ctx context.Context, path string, params url.Values, out any) error {
	if c.token == "" {
		return &AuthError{Message: "not logged in"}
	}
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("failed to create request for %s: %w", path, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return &AuthError{Message: "session expired"}
	}
	if resp.StatusCode == http.StatusNotFound {
		// Missing data for a day is normal; callers treat nil as absent.
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("request to %s failed with status %d: %s", path, resp.StatusCode, string(body))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to parse response from %s: %w", path, err)
	}
	return nil
}

func dateParams(date string) url.Values {
	return url.Values{"date": {date}}
}

func rangeParams(startDate, endDate string) url.Values {
	return url.Values{"startDate": {startDate}, "endDate": {endDate}}
}

// UserProfile fetches the athlete's account profile.
func (c *Client) UserProfile(ctx context.Context) (map[string]any, error) {
	var out map[string]any
	err := c.getJSON(ctx, "/userprofile", nil, &out)
	return out, err
}

// DailyStats fetches the wellness summary for one day.
func (c *Client) DailyStats(ctx context.Context, date string) (map[string]any, error) {
	var out map[string]any
	err := c.getJSON(ctx, "/usersummary/daily", dateParams(date), &out)
	return out, err
}

// ActivitiesByDate lists activities within [startDate, endDate].
func (c *Client) ActivitiesByDate(ctx context.Context, startDate, endDate string) ([]map[string]any, error) {
	var out []map[string]any
	err := c.getJSON(ctx, "/activitylist/activities", rangeParams(startDate, endDate), &out)
	return out, err
}

// Activity fetches the detail record for one activity.
func (c *Client) Activity(ctx context.Context, activityID int64) (map[string]any, error) {
	var out map[string]any
	err := c.getJSON(ctx, fmt.Sprintf("/activity-service/activity/%d", activityID), nil, &out)
	return out, err
}

// ActivitySplits fetches lap data for one activity.
func (c *Client) ActivitySplits(ctx context.Context, activityID int64) (map[string]any, error) {
	var out map[string]any
	err := c.getJSON(ctx, fmt.Sprintf("/activity-service/activity/%d/splits", activityID), nil, &out)
	return out, err
}

// ActivityWeather fetches conditions recorded for one activity.
func (c *Client) ActivityWeather(ctx context.Context, activityID int64) (map[string]any, error) {
	var out map[string]any
	err := c.getJSON(ctx, fmt.Sprintf("/activity-service/activity/%d/weather", activityID), nil, &out)
	return out, err
}

// SleepData fetches sleep details for one night.
func (c *Client) SleepData(ctx context.Context, date string) (map[string]any, error) {
	var out map[string]any
	err := c.getJSON(ctx, "/wellness/dailySleep", dateParams(date), &out)
	return out, err
}

// StressData fetches stress levels for one day.
func (c *Client) StressData(ctx context.Context, date string) (map[string]any, error) {
	var out map[string]any
	err := c.getJSON(ctx, "/wellness/dailyStress", dateParams(date), &out)
	return out, err
}

// HRVData fetches the heart-rate variability summary for one day.
func (c *Client) HRVData(ctx context.Context, date string) (map[string]any, error) {
	var out map[string]any
	err := c.getJSON(ctx, "/hrv-service/hrv", dateParams(date), &out)
	return out, err
}

// BodyComposition fetches weight entries within [startDate, endDate].
func (c *Client) BodyComposition(ctx context.Context, startDate, endDate string) (map[string]any, error) {
	var out map[string]any
	err := c.getJSON(ctx, "/weight-service/weight/range", rangeParams(startDate, endDate), &out)
	return out, err
}

// TrainingStatus fetches the training status snapshot for one day.
func (c *Client) TrainingStatus(ctx context.Context, date string) (map[string]any, error) {
	var out map[string]any
	err := c.getJSON(ctx, "/metrics-service/trainingstatus", dateParams(date), &out)
	return out, err
}

// UserSummary fetches the aggregated user summary for one day.
func (c *Client) UserSummary(ctx context.Context, date string) (map[string]any, error) {
	var out map[string]any
	err := c.getJSON(ctx, "/usersummary/summary", dateParams(date), &out)
	return out, err
}
