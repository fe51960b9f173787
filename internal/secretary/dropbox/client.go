// Package dropbox lists and downloads the recordings in one Dropbox folder.
package dropbox

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/TechnicallyShaun/secretary/internal/secretary"
)

// Default endpoints of the Dropbox v2 API.
const (
	DefaultAPIURL     = "https://api.dropboxapi.com/2"
	DefaultContentURL = "https://content.dropboxapi.com/2"
)

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = 5 * time.Minute

var (
	_ secretary.Lister     = (*Client)(nil)
	_ secretary.Downloader = (*Client)(nil)
)

// APIError is a non-2xx response from Dropbox.
type APIError struct {
	Op         string
	StatusCode int
	Summary    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("dropbox %s: status %d: %s", e.Op, e.StatusCode, e.Summary)
}

// HTTPStatus returns the response status code.
func (e *APIError) HTTPStatus() int { return e.StatusCode }

// Client talks to the Dropbox files API with a long-lived access token.
type Client struct {
	token      string
	folder     string
	apiURL     string
	contentURL string
	httpClient *http.Client
}

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithBaseURLs overrides the API and content endpoints.
func WithBaseURLs(apiURL, contentURL string) Option {
	return func(c *Client) {
		c.apiURL = strings.TrimRight(apiURL, "/")
		c.contentURL = strings.TrimRight(contentURL, "/")
	}
}

// NewClient creates a client for the recordings in folder.
func NewClient(token, folder string, opts ...Option) *Client {
	c := &Client{
		token:      token,
		folder:     folder,
		apiURL:     DefaultAPIURL,
		contentURL: DefaultContentURL,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

type listFolderRequest struct {
	Path                            string `json:"path"`
	Recursive                       bool   `json:"recursive"`
	IncludeMediaInfo                bool   `json:"include_media_info"`
	IncludeDeleted                  bool   `json:"include_deleted"`
	IncludeHasExplicitSharedMembers bool   `json:"include_has_explicit_shared_members"`
}

type listFolderContinueRequest struct {
	Cursor string `json:"cursor"`
}

type entry struct {
	Tag string `json:".tag"`
	secretary.RemoteFile
}

type listFolderResponse struct {
	Entries []entry `json:"entries"`
	Cursor  string  `json:"cursor"`
	HasMore bool    `json:"has_more"`
}

// ListFiles returns the files directly inside the folder, following the
// listing cursor until Dropbox reports no more entries. Folders are skipped.
func (c *Client) ListFiles(ctx context.Context) ([]secretary.RemoteFile, error) {
	var page listFolderResponse
	err := c.rpc(ctx, "list_folder", "/files/list_folder", listFolderRequest{Path: c.folder}, &page)
	if err != nil {
		return nil, err
	}

	var files []secretary.RemoteFile
	for {
		for _, e := range page.Entries {
			if e.Tag == "file" {
				files = append(files, e.RemoteFile)
			}
		}
		if !page.HasMore {
			return files, nil
		}

		cursor := page.Cursor
		page = listFolderResponse{}
		if err := c.rpc(ctx, "list_folder/continue", "/files/list_folder/continue", listFolderContinueRequest{Cursor: cursor}, &page); err != nil {
			return nil, err
		}
	}
}

// Download returns the content of the file at path.
func (c *Client) Download(ctx context.Context, path string) ([]byte, error) {
	arg, err := json.Marshal(map[string]string{"path": path})
	if err != nil {
		return nil, fmt.Errorf("encode download argument: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.contentURL+"/files/download", nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Dropbox-API-Arg", headerSafe(arg))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apiError("download", resp)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read download: %w", err)
	}
	return data, nil
}

// headerSafe escapes non-ASCII characters in a JSON document so it can be
// carried in an HTTP header.
func headerSafe(doc []byte) string {
	var sb strings.Builder
	for _, r := range string(doc) {
		if r < utf8.RuneSelf {
			sb.WriteRune(r)
			continue
		}
		for _, u := range utf16.Encode([]rune{r}) {
			fmt.Fprintf(&sb, "\\u%04x", u)
		}
	}
	return sb.String()
}

// Account identifies the owner of the access token.
type Account struct {
	AccountID string `json:"account_id"`
	Email     string `json:"email"`
	Name      struct {
		DisplayName string `json:"display_name"`
	} `json:"name"`
}

// CurrentAccount returns the account the token belongs to. It fails when the
// token is missing, expired or revoked.
func (c *Client) CurrentAccount(ctx context.Context) (*Account, error) {
	var acct Account
	if err := c.rpc(ctx, "get_current_account", "/users/get_current_account", nil, &acct); err != nil {
		return nil, err
	}
	return &acct, nil
}

// rpc posts a JSON request to an RPC endpoint and decodes the JSON response into out.
// A nil body sends no content, as endpoints without arguments require.
func (c *Client) rpc(ctx context.Context, op, endpoint string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s request: %w", op, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+endpoint, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return apiError(op, resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("parse %s response: %w", op, err)
	}
	return nil
}

// apiError builds an APIError from a failed response, preferring the
// error_summary field Dropbox puts in JSON error bodies.
func apiError(op string, resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var payload struct {
		ErrorSummary string `json:"error_summary"`
	}
	summary := strings.TrimSpace(string(data))
	if json.Unmarshal(data, &payload) == nil && payload.ErrorSummary != "" {
		summary = payload.ErrorSummary
	}

	return &APIError{Op: op, StatusCode: resp.StatusCode, Summary: summary}
}
