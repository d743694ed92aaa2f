// Package supabase is a thin HTTP client for Supabase Storage (artifact
// uploads/downloads) and PostgREST (small table reads). No SDK dependency.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Nitianimelo/arccoVPS/pkg/httpclient"
)

type Client struct {
	baseURL    string
	key        string
	bucket     string
	httpClient *httpclient.Client
}

type Option func(*Client)

func WithHTTPClient(hc *httpclient.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

func New(baseURL, key, bucket string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		key:     key,
		bucket:  bucket,
		httpClient: httpclient.New(
			httpclient.WithTimeout(60*time.Second),
			httpclient.WithMaxRetries(2),
		),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) authHeaders(req *http.Request) {
	req.Header.Set("apikey", c.key)
	req.Header.Set("Authorization", "Bearer "+c.key)
}

// Host returns the hostname of the Supabase project. The link validator uses
// it to recognize artifact URLs in tool output.
func (c *Client) Host() string {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return ""
	}
	return u.Host
}

// Upload stores content under a timestamped object name in the configured
// bucket and returns the public URL. Upsert is enabled so retried uploads of
// the same name do not fail.
func (c *Client) Upload(ctx context.Context, filename string, content []byte, contentType string) (string, error) {
	objectName := fmt.Sprintf("%d-%s", time.Now().Unix(), filename)
	uploadURL := fmt.Sprintf("%s/storage/v1/object/%s/%s", c.baseURL, c.bucket, objectName)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, uploadURL, bytes.NewReader(content))
	if err != nil {
		return "", fmt.Errorf("failed to build upload request: %w", err)
	}
	c.authHeaders(req)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("x-upsert", "true")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("supabase upload failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("supabase upload failed (%d): %s", resp.StatusCode, string(body))
	}

	publicURL := fmt.Sprintf("%s/storage/v1/object/public/%s/%s", c.baseURL, c.bucket, objectName)
	slog.Info("uploaded artifact",
		slog.String("file", filename),
		slog.Int("bytes", len(content)),
		slog.String("url", publicURL))
	return publicURL, nil
}

// Download fetches an artifact by its public URL, capped at maxSize bytes.
func (c *Client) Download(ctx context.Context, fileURL string, maxSize int64) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build download request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download failed: HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read download body: %w", err)
	}
	return data, nil
}

// Query runs a PostgREST select with eq filters and decodes the result rows.
func (c *Client) Query(ctx context.Context, table, selectCols string, filters map[string]string) ([]map[string]any, error) {
	q := url.Values{}
	q.Set("select", selectCols)
	queryURL := fmt.Sprintf("%s/rest/v1/%s?%s", c.baseURL, table, q.Encode())
	for k, v := range filters {
		queryURL += fmt.Sprintf("&%s=eq.%s", url.QueryEscape(k), url.QueryEscape(v))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, queryURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build query request: %w", err)
	}
	c.authHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("supabase query failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("supabase query failed (%d): %s", resp.StatusCode, string(body))
	}

	var rows []map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, fmt.Errorf("failed to decode query result: %w", err)
	}
	return rows, nil
}

// ActiveKey looks up the active API key for a provider in the ApiKeys table.
// Both table name casings are tried because existing projects differ.
func (c *Client) ActiveKey(ctx context.Context, provider string) (string, error) {
	for _, table := range []string{"ApiKeys", "apikeys"} {
		rows, err := c.Query(ctx, table, "api_key", map[string]string{
			"provider":  provider,
			"is_active": "true",
		})
		if err != nil {
			slog.Debug("key table lookup failed", slog.String("table", table), slog.String("error", err.Error()))
			continue
		}
		for _, row := range rows {
			if key, ok := row["api_key"].(string); ok && key != "" {
				return key, nil
			}
		}
	}
	return "", fmt.Errorf("chave %s não encontrada no Supabase (tabela ApiKeys)", provider)
}

// PageBySlug returns the stored page row for the builder's edit mode.
func (c *Client) PageBySlug(ctx context.Context, slug string) (map[string]any, error) {
	rows, err := c.Query(ctx, "pages_user", "codepages,publicado,nome,updated_at", map[string]string{"url_slug": slug})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("página %q não encontrada", slug)
	}
	return rows[0], nil
}
