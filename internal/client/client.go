package client

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/dm/etcd-dash/internal/model"
)

// ClusterClient defines the calls the dashboard makes against the cluster
// status service.
type ClusterClient interface {
	FetchStatus(ctx context.Context) (model.ClusterSnapshotSet, error)
	Compact(ctx context.Context) error
	Defrag(ctx context.Context) error
	BaseURL() string
}

// ClientConfig holds configuration for DefaultClient.
type ClientConfig struct {
	BaseURL            string
	InsecureSkipVerify bool
	CACertFile         string // optional PEM bundle used as the root CA set

	// RequestTimeout bounds a status poll. Compact and defrag can take much
	// longer and are bounded only by the caller's context.
	RequestTimeout time.Duration
}

// DefaultClient implements ClusterClient using the standard net/http package.
type DefaultClient struct {
	http   *http.Client
	config ClientConfig
}

// NewDefaultClient constructs a DefaultClient from the given config.
// Returns an error if BaseURL is empty or the CA bundle cannot be loaded.
func NewDefaultClient(cfg ClientConfig) (*DefaultClient, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("BaseURL is required")
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 10 * time.Second
	}

	tlsConfig := &tls.Config{
		InsecureSkipVerify: cfg.InsecureSkipVerify, //nolint:gosec
	}
	if cfg.CACertFile != "" {
		pool, err := loadCertPool(cfg.CACertFile)
		if err != nil {
			return nil, err
		}
		tlsConfig.RootCAs = pool
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = tlsConfig

	return &DefaultClient{
		http: &http.Client{
			Transport: transport,
		},
		config: cfg,
	}, nil
}

func loadCertPool(path string) (*x509.CertPool, error) {
	pem, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read CA certificate: %w", err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, fmt.Errorf("no certificates found in %s", path)
	}
	return pool, nil
}

// BaseURL returns the configured base URL of the dashboard server.
func (c *DefaultClient) BaseURL() string {
	return c.config.BaseURL
}

// do sends a bodiless request to path (relative to BaseURL) and returns the
// status code and body. Only transport failures are returned as errors; status
// handling is left to the caller.
func (c *DefaultClient) do(ctx context.Context, op, method, path string) (int, []byte, error) {
	url := strings.TrimRight(c.config.BaseURL, "/") + path

	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return 0, nil, &APIError{Kind: KindNetworkUnreachable, Op: op, Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, &APIError{Kind: KindNetworkUnreachable, Op: op, Err: err}
	}
	defer resp.Body.Close()

	const maxResponseBytes = 4 * 1024 * 1024
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err != nil {
		return resp.StatusCode, nil, &APIError{Kind: KindNetworkUnreachable, Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("read body: %w", err)}
	}
	if len(body) > maxResponseBytes {
		return resp.StatusCode, nil, &APIError{
			Kind:       KindMalformed,
			Op:         op,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("response body exceeds %d MB limit", maxResponseBytes/(1024*1024)),
		}
	}
	return resp.StatusCode, body, nil
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
