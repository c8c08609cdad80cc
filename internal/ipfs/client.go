// Package ipfs wraps the content-addressed store behind two narrow
// operations: upload bytes to a pinning endpoint and resolve an ipfs://
// locator through a public gateway.
package ipfs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/ipfs/go-cid"

	"github.com/deliquified/ministore/pkg/logger"
)

// Scheme is the locator scheme the store understands.
const Scheme = "ipfs://"

// ErrBadLocator marks a locator that is not an ipfs:// URI with a valid CID.
var ErrBadLocator = errors.New("ipfs: malformed locator")

// StatusError is returned when the gateway or pinning endpoint answers with
// a non-success HTTP status.
type StatusError struct {
	Op     string
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("ipfs: %s returned status %d", e.Op, e.Status)
}

// Config holds gateway endpoints.
type Config struct {
	// GatewayURL is the read gateway base, e.g.
	// https://api.universalprofile.cloud/ipfs
	GatewayURL string
	// PinURL is the pinning endpoint the store uploads documents to.
	PinURL string
	// PinKey is an optional bearer token for the pinning endpoint.
	PinKey  string
	Timeout time.Duration
}

// Client is the content store gateway.
type Client struct {
	gatewayURL string
	pinURL     string
	pinKey     string
	httpClient *http.Client
	log        *logger.Logger
}

// NewClient creates a content store gateway.
func NewClient(cfg Config, log *logger.Logger) (*Client, error) {
	if cfg.GatewayURL == "" {
		return nil, fmt.Errorf("ipfs gateway URL required")
	}
	if log == nil {
		log = logger.NewDefault("ipfs")
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		gatewayURL: strings.TrimRight(cfg.GatewayURL, "/"),
		pinURL:     cfg.PinURL,
		pinKey:     cfg.PinKey,
		httpClient: &http.Client{Timeout: timeout},
		log:        log,
	}, nil
}

// ParseLocator validates an ipfs:// locator and returns the content id.
func ParseLocator(locator string) (cid.Cid, error) {
	if !strings.HasPrefix(locator, Scheme) {
		return cid.Undef, fmt.Errorf("%w: %q", ErrBadLocator, locator)
	}
	id, err := cid.Decode(strings.TrimPrefix(locator, Scheme))
	if err != nil {
		return cid.Undef, fmt.Errorf("%w: %v", ErrBadLocator, err)
	}
	return id, nil
}

// IsLocator reports whether locator uses the content-store scheme.
func IsLocator(locator string) bool {
	return strings.HasPrefix(locator, Scheme)
}

// Resolve fetches the bytes behind an ipfs:// locator through the configured
// gateway. Failure modes are reported distinctly: ErrBadLocator for a
// malformed locator, a transport error for network failures, and StatusError
// for non-success responses.
func (c *Client) Resolve(ctx context.Context, locator string) ([]byte, error) {
	id, err := ParseLocator(locator)
	if err != nil {
		return nil, err
	}

	url := c.gatewayURL + "/" + id.String()
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Op: "resolve", Status: resp.StatusCode}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return data, nil
}

// pinResponse is the pinning endpoint's answer. Pinata-compatible endpoints
// return IpfsHash; generic ones may return cid.
type pinResponse struct {
	IpfsHash string `json:"IpfsHash"`
	CID      string `json:"cid"`
}

// Upload stores data on the pinning endpoint and returns its ipfs:// locator.
// The upload is a plain multipart POST and safe to retry; content addressing
// makes a duplicate upload a no-op on the store side.
func (c *Client) Upload(ctx context.Context, data []byte) (string, error) {
	if c.pinURL == "" {
		return "", fmt.Errorf("ipfs: no pinning endpoint configured")
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", "grid.json")
	if err != nil {
		return "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("write form file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("close form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.pinURL, &body)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if c.pinKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.pinKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &StatusError{Op: "upload", Status: resp.StatusCode}
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	hash, err := parsePinResponse(respBody)
	if err != nil {
		return "", err
	}

	locator := Scheme + hash
	id, err := ParseLocator(locator)
	if err != nil {
		return "", fmt.Errorf("pinning endpoint returned invalid cid %q: %w", hash, err)
	}
	if err := verifyPinned(id, data); err != nil {
		return "", err
	}

	c.log.WithField("cid", hash).Debug("document pinned")
	return locator, nil
}
