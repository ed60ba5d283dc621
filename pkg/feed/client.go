// Package feed fetches and decodes quotes from the wrapped JSON quote feed
package feed

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	neturl "net/url"
	"strings"
	"time"

	"golang.org/x/text/encoding/simplifiedchinese"
)

const (
	// DefaultBaseURL is the quote host used when none is configured
	DefaultBaseURL = "http://api.money.126.net"

	// CallbackPrefix is the fixed call-prefix wrapping every response
	CallbackPrefix = "_ntes_quote_callback("

	// CallbackSuffix closes the wrapper
	CallbackSuffix = ");"

	// DefaultTimeout bounds a single fetch
	DefaultTimeout = 10 * time.Second
)

// ErrUpstreamFormat is returned when a body is not a wrapped JSON object
var ErrUpstreamFormat = errors.New("upstream response is not in the expected format")

// TransportError is a network level failure while fetching
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Client fetches quote data for a set of codes
type Client struct {
	baseURL string
	client  *http.Client
	charset string
}

// Option configures a Client
type Option func(*Client)

// WithBaseURL sets the quote host, e.g. "http://api.money.126.net"
func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(url, "/")
	}
}

// WithTimeout sets the HTTP timeout. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.client.Timeout = d
	}
}

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.client = hc
	}
}

// WithCharset sets the response charset. "gbk" bodies are decoded to UTF-8;
// anything else is used as is.
func WithCharset(charset string) Option {
	return func(c *Client) {
		c.charset = strings.ToLower(charset)
	}
}

// New creates a feed client
func New(opts ...Option) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		client: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the configured quote host
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Fetch requests the raw body for a comma-separated list of codes
func (c *Client) Fetch(ctx context.Context, codes string) ([]byte, error) {
	url := fmt.Sprintf("%s/data/feed/%s", c.baseURL, escapeCodes(codes))
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &TransportError{Op: "fetch quotes", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Op: "read body", Err: err}
	}

	if c.charset == "gbk" {
		decoded, err := simplifiedchinese.GBK.NewDecoder().Bytes(body)
		if err != nil {
			return nil, fmt.Errorf("decode gbk: %w", err)
		}
		body = decoded
	}

	return body, nil
}

// Quotes fetches and decodes the feed for codes
func (c *Client) Quotes(ctx context.Context, codes string) (map[string]interface{}, error) {
	body, err := c.Fetch(ctx, codes)
	if err != nil {
		return nil, err
	}
	return Parse(body)
}

// Unwrap validates the wrapper and returns the JSON payload inside it
func Unwrap(body []byte) ([]byte, error) {
	if !bytes.HasPrefix(body, []byte(CallbackPrefix)) {
		return nil, ErrUpstreamFormat
	}
	if len(body) < len(CallbackPrefix)+len(CallbackSuffix) {
		return nil, ErrUpstreamFormat
	}
	return body[len(CallbackPrefix) : len(body)-len(CallbackSuffix)], nil
}

// Parse unwraps body and decodes it into an untyped map keyed by code
func Parse(body []byte) (map[string]interface{}, error) {
	payload, err := Unwrap(body)
	if err != nil {
		return nil, err
	}

	// Numbers stay as json.Number so one out-of-range value only zeroes
	// its own field instead of failing the whole payload.
	var data map[string]interface{}
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()
	if err := dec.Decode(&data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamFormat, err)
	}
	if dec.More() {
		return nil, fmt.Errorf("%w: trailing data after payload", ErrUpstreamFormat)
	}
	if data == nil {
		data = map[string]interface{}{}
	}
	return data, nil
}

func escapeCodes(codes string) string {
	parts := strings.Split(codes, ",")
	for i, p := range parts {
		parts[i] = neturl.PathEscape(p)
	}
	return strings.Join(parts, ",")
}
