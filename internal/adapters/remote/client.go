// Package remote downloads the master table from an HTTP endpoint, optionally
// authenticating with OAuth2 client credentials.
package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/ewilliams-labs/decades/internal/adapters/csvstore"
	"github.com/ewilliams-labs/decades/internal/core/domain"
	"github.com/ewilliams-labs/decades/internal/core/ports"
)

// Config describes where the master table lives.
type Config struct {
	URL string

	// TokenURL, ClientID and ClientSecret enable client-credentials auth.
	// Leave ClientID empty for an unauthenticated download.
	TokenURL     string
	ClientID     string
	ClientSecret string
	Scopes       []string

	MaxRetries int
	Backoff    time.Duration
	Timeout    time.Duration
	// MaxBytes caps the download; 0 means 512 MiB.
	MaxBytes int64
}

const defaultMaxBytes = 512 << 20

// Client is an HTTP client for the master table endpoint.
type Client struct {
	httpClient  *http.Client
	url         string
	maxRetries  int
	baseBackoff time.Duration
	maxBytes    int64
	log         *zap.Logger
}

// compile-time interface assertion
var _ ports.MasterSource = (*Client)(nil)

// NewClient constructs a Client. ctx scopes the token source used by the
// OAuth2 transport.
func NewClient(ctx context.Context, cfg Config, log *zap.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, errors.New("remote: url is required")
	}
	if log == nil {
		log = zap.NewNop()
	}

	httpClient := &http.Client{Timeout: cfg.Timeout}
	if cfg.ClientID != "" {
		if cfg.TokenURL == "" {
			return nil, errors.New("remote: token url is required with a client id")
		}
		cc := clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     cfg.TokenURL,
			Scopes:       cfg.Scopes,
		}
		httpClient = cc.Client(ctx)
		httpClient.Timeout = cfg.Timeout
	}

	maxBytes := cfg.MaxBytes
	if maxBytes <= 0 {
		maxBytes = defaultMaxBytes
	}
	return &Client{
		httpClient:  httpClient,
		url:         cfg.URL,
		maxRetries:  cfg.MaxRetries,
		baseBackoff: cfg.Backoff,
		maxBytes:    maxBytes,
		log:         log,
	}, nil
}

// Fetch downloads the raw master table bytes. Compressed bodies are returned
// as served.
func (c *Client) Fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("remote: %w", err)
	}
	req.Header.Set("Accept", "text/csv, application/octet-stream")

	resp, err := c.doRequestWithRetry(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("remote: %s: %w", c.url, domain.ErrNotFound)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("remote: status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("remote: read body: %w", err)
	}
	if int64(len(raw)) > c.maxBytes {
		return nil, fmt.Errorf("remote: %w: body exceeds %d bytes", domain.ErrMalformedInput, c.maxBytes)
	}
	return raw, nil
}

// LoadMaster downloads and parses the master table.
func (c *Client) LoadMaster(ctx context.Context) (domain.Table, error) {
	raw, err := c.Fetch(ctx)
	if err != nil {
		return domain.Table{}, err
	}
	t, err := csvstore.DecodeTable(raw)
	if err != nil {
		return domain.Table{}, fmt.Errorf("remote: %w", err)
	}
	return t, nil
}

// Download fetches the master table, checks that it parses, and writes the
// bytes to path. It returns the number of data rows.
func (c *Client) Download(ctx context.Context, path string) (int, error) {
	raw, err := c.Fetch(ctx)
	if err != nil {
		return 0, err
	}
	t, err := csvstore.DecodeTable(raw)
	if err != nil {
		return 0, fmt.Errorf("remote: %w", err)
	}
	if err := csvstore.WriteAtomic(path, raw); err != nil {
		return 0, fmt.Errorf("remote: write %s: %w", path, err)
	}
	c.log.Info("master table downloaded",
		zap.String("url", c.url),
		zap.String("path", path),
		zap.Int("bytes", len(raw)),
		zap.Int("rows", t.Len()))
	return t.Len(), nil
}
