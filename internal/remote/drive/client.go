// Package drive implements the remote.Provider contract against the
// Google Drive v3 REST API, authenticated with a service account.
package drive

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/drivelens/drivelens/internal/remote"
)

const (
	defaultBaseURL = "https://www.googleapis.com/drive/v3"
	defaultScope   = "https://www.googleapis.com/auth/drive.metadata.readonly"

	listFields = "nextPageToken, files(id, name, mimeType, size, modifiedTime, createdTime, webViewLink)"
	pageSize   = 1000
)

// Config holds Drive provider settings.
type Config struct {
	CredentialsFile string
	Scopes          []string
	BaseURL         string       // override for tests
	HTTPClient      *http.Client // override for tests
}

// Client is a Google Drive directory provider.
type Client struct {
	httpClient *http.Client
	baseURL    string
	tokens     *tokenSource
}

// New reads the service-account key file and builds a provider.
func New(cfg Config) (*Client, error) {
	creds, err := readCredentials(cfg.CredentialsFile)
	if err != nil {
		return nil, err
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = []string{defaultScope}
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	tokens, err := newTokenSource(httpClient, creds, scopes)
	if err != nil {
		return nil, err
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		tokens:     tokens,
	}, nil
}

type driveFile struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	MimeType     string `json:"mimeType"`
	Size         string `json:"size"` // the API serializes int64 as string
	ModifiedTime string `json:"modifiedTime"`
	CreatedTime  string `json:"createdTime"`
	WebViewLink  string `json:"webViewLink"`
}

type listResponse struct {
	NextPageToken string      `json:"nextPageToken"`
	Files         []driveFile `json:"files"`
}

// List returns one page of a folder's non-trashed children.
func (c *Client) List(ctx context.Context, folderID, pageToken string) (*remote.Listing, error) {
	params := url.Values{}
	params.Set("q", fmt.Sprintf("'%s' in parents and trashed = false", folderID))
	params.Set("spaces", "drive")
	params.Set("fields", listFields)
	params.Set("pageSize", strconv.Itoa(pageSize))
	if pageToken != "" {
		params.Set("pageToken", pageToken)
	}

	var payload listResponse
	if err := c.get(ctx, "/files?"+params.Encode(), &payload); err != nil {
		return nil, fmt.Errorf("drive: list %s: %w", folderID, err)
	}

	listing := &remote.Listing{NextPageToken: payload.NextPageToken}
	for _, f := range payload.Files {
		listing.Entries = append(listing.Entries, toEntry(f))
	}
	return listing, nil
}

// Description fetches a folder's free-text description.
func (c *Client) Description(ctx context.Context, folderID string) (string, error) {
	var payload struct {
		Description string `json:"description"`
	}
	if err := c.get(ctx, "/files/"+url.PathEscape(folderID)+"?fields=description", &payload); err != nil {
		return "", fmt.Errorf("drive: description %s: %w", folderID, err)
	}
	return payload.Description, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return json.NewDecoder(resp.Body).Decode(out)
	case http.StatusTooManyRequests:
		return remote.ErrRateLimited
	case http.StatusForbidden:
		return remote.ErrPermissionDenied
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("status %d: %s", resp.StatusCode, body)
	}
}

func toEntry(f driveFile) remote.Entry {
	entry := remote.Entry{
		ID:           f.ID,
		Name:         f.Name,
		MimeType:     f.MimeType,
		ModifiedTime: f.ModifiedTime,
		CreatedTime:  f.CreatedTime,
	}
	if f.Size != "" {
		entry.Size, _ = strconv.ParseInt(f.Size, 10, 64)
	}

	if entry.IsFolder() {
		entry.Link = "https://drive.google.com/drive/folders/" + f.ID
	} else if f.WebViewLink != "" {
		entry.Link = f.WebViewLink
	} else {
		entry.Link = "https://drive.google.com/file/d/" + f.ID + "/view"
	}
	return entry
}
