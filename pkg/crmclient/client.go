// Package crmclient is the HTTP client for the sales CRM API. It backs the
// client-side audio, uploader and feedback packages: it resolves playback
// URLs, issues upload credentials and submits feedback records.
package crmclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"fieldops/sales-crm/pkg/audio"
	"fieldops/sales-crm/pkg/feedback"
	"fieldops/sales-crm/pkg/uploader"
)

const apiPrefix = "/api/v1"

var (
	// ErrUnauthorized means the token is missing, expired or rejected.
	ErrUnauthorized = errors.New("crmclient: unauthorized")
	// ErrNotFound maps a 404 from the API.
	ErrNotFound = errors.New("crmclient: not found")
)

// APIError carries a non-2xx response the client could not map to a
// sentinel.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("crmclient: api error %d: %s", e.StatusCode, e.Message)
}

// Client talks to one CRM deployment. Safe for concurrent use once the
// token is set.
type Client struct {
	baseURL string
	http    *http.Client
	token   string
}

// New builds a client for the given base URL (scheme + host, no path).
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{baseURL: baseURL, http: httpClient}
}

// SetToken installs the bearer token used on authenticated calls.
func (c *Client) SetToken(token string) {
	c.token = token
}

// Token returns the current bearer token.
func (c *Client) Token() string {
	return c.token
}

type errorResponse struct {
	Error string `json:"error"`
}

// do runs one JSON round trip. A nil in means no request body; a nil out
// discards the response body.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body *bytes.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+apiPrefix+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return ErrUnauthorized
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		var er errorResponse
		_ = json.NewDecoder(resp.Body).Decode(&er)
		return &APIError{StatusCode: resp.StatusCode, Message: er.Error}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// --- Auth ---

// LoginResponse is the token grant returned by the auth endpoints.
type LoginResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// User is the API representation of an account.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
	Role  string `json:"role"`
}

// Login exchanges email/password for a token and stores it on the client.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	var out LoginResponse
	in := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/auth/login", in, &out); err != nil {
		return nil, err
	}
	c.token = out.Token
	return &out, nil
}

// RequestOTP asks the service to send a one-time code to the given phone.
func (c *Client) RequestOTP(ctx context.Context, phone string) error {
	return c.do(ctx, http.MethodPost, "/auth/otp/request", map[string]string{"phone": phone}, nil)
}

// VerifyOTP exchanges a delivered code for a token and stores it.
func (c *Client) VerifyOTP(ctx context.Context, phone, code string) (*LoginResponse, error) {
	var out LoginResponse
	in := map[string]string{"phone": phone, "code": code}
	if err := c.do(ctx, http.MethodPost, "/auth/otp/verify", in, &out); err != nil {
		return nil, err
	}
	c.token = out.Token
	return &out, nil
}

// --- Feedback ---

// FeedbackRecord is one stored feedback entry as listed by the API.
type FeedbackRecord struct {
	ID         string              `json:"id"`
	ClientID   string              `json:"client"`
	ClientName string              `json:"clientName,omitempty"`
	Lead       string              `json:"lead"`
	Products   []feedback.LineItem `json:"products"`
	Notes      string              `json:"notes,omitempty"`
	HasAudio   bool                `json:"hasAudio"`
	AudioName  string              `json:"audioName,omitempty"`
	CreatedAt  time.Time           `json:"createdAt"`
}

// FeedbackPage is one page of feedback records.
type FeedbackPage struct {
	Items []FeedbackRecord `json:"items"`
	Total int64            `json:"total"`
	Page  int              `json:"page"`
	Limit int              `json:"limit"`
}

// CreateFeedback persists a new feedback record.
func (c *Client) CreateFeedback(ctx context.Context, payload feedback.Payload) error {
	return c.do(ctx, http.MethodPost, "/feedback", payload, nil)
}

// UpdateFeedback replaces an existing feedback record.
func (c *Client) UpdateFeedback(ctx context.Context, id string, payload feedback.Payload) error {
	return c.do(ctx, http.MethodPut, "/feedback/"+url.PathEscape(id), payload, nil)
}

// DeleteFeedback removes a record and its stored audio, if any.
func (c *Client) DeleteFeedback(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/feedback/"+url.PathEscape(id), nil, nil)
}

// ListFeedback fetches one page of records, optionally filtered by a
// search term matched against client names and notes.
func (c *Client) ListFeedback(ctx context.Context, page, limit int, search string) (*FeedbackPage, error) {
	q := url.Values{}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if search != "" {
		q.Set("search", search)
	}
	path := "/feedback"
	if enc := q.Encode(); enc != "" {
		path += "?" + enc
	}
	var out FeedbackPage
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type playbackURLResponse struct {
	SignedURL    string `json:"signedUrl"`
	Key          string `json:"key"`
	OriginalName string `json:"originalName"`
}

// ResolvePlaybackURL fetches a fresh signed download URL for a record's
// audio note. Satisfies audio.SourceResolver.
func (c *Client) ResolvePlaybackURL(ctx context.Context, feedbackID string) (*audio.PlaybackSource, error) {
	var out playbackURLResponse
	path := "/feedback/" + url.PathEscape(feedbackID) + "/audio-url"
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &audio.PlaybackSource{
		SignedURL:    out.SignedURL,
		Key:          out.Key,
		OriginalName: out.OriginalName,
	}, nil
}

type uploadURLResponse struct {
	UploadURL string `json:"uploadUrl"`
	Key       string `json:"key"`
}

// RequestUploadCredential obtains a presigned PUT grant for an audio blob.
// Satisfies uploader.CredentialIssuer.
func (c *Client) RequestUploadCredential(ctx context.Context, fileName, mimeType string) (*uploader.Credential, error) {
	in := map[string]string{"fileName": fileName, "contentType": mimeType}
	var out uploadURLResponse
	if err := c.do(ctx, http.MethodPost, "/feedback/upload-url", in, &out); err != nil {
		return nil, err
	}
	return &uploader.Credential{UploadURL: out.UploadURL, Key: out.Key}, nil
}

// --- Directory ---

// ClientRecord is a customer entry.
type ClientRecord struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
	AreaID  string `json:"area,omitempty"`
}

// ClientPage is one page of customer entries.
type ClientPage struct {
	Items []ClientRecord `json:"items"`
	Total int64          `json:"total"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
}

// ListClients fetches one page of customers, optionally name-filtered.
func (c *Client) ListClients(ctx context.Context, page, limit int, search string) (*ClientPage, error) {
	q := url.Values{}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if search != "" {
		q.Set("search", search)
	}
	path := "/clients"
	if enc := q.Encode(); enc != "" {
		path += "?" + enc
	}
	var out ClientPage
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ProductRecord is a sellable item.
type ProductRecord struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Unit   string  `json:"unit"`
	Price  float64 `json:"price"`
	Active bool    `json:"active"`
}

// ListProducts fetches products, restricted to active ones when activeOnly
// is set.
func (c *Client) ListProducts(ctx context.Context, activeOnly bool) ([]ProductRecord, error) {
	path := "/products"
	if activeOnly {
		path += "?active=true"
	}
	var out []ProductRecord
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

var (
	_ audio.SourceResolver      = (*Client)(nil)
	_ uploader.CredentialIssuer = (*Client)(nil)
	_ feedback.Submitter        = (*Client)(nil)
)
