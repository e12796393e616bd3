// Package shopify is a thin client of the commerce platform Admin GraphQL and REST APIs.
package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bool64/ctxd"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/tidwall/gjson"
)

// Config controls Client.
type Config struct {
	// Domain is the shop domain, e.g. "example.myshopify.com".
	Domain string

	// BaseURL overrides "https://" + Domain.
	BaseURL string

	// AccessToken is sent in X-Shopify-Access-Token header.
	AccessToken string

	// APIVersion is the Admin API version, default "2024-10".
	APIVersion string

	// Timeout limits a single upstream attempt, default 30s.
	Timeout time.Duration

	// RetryMax is the number of retries of failed requests, default 2.
	// Use -1 to disable retries.
	RetryMax int

	// Logger collects messages with context, can be nil.
	Logger ctxd.Logger
}

// Requester performs GraphQL queries.
type Requester interface {
	Request(ctx context.Context, query string, variables map[string]interface{}) (gjson.Result, error)
}

// Getter performs REST reads.
type Getter interface {
	Get(ctx context.Context, path string, query url.Values) (gjson.Result, error)
}

// Putter performs REST updates.
type Putter interface {
	Put(ctx context.Context, path string, payload interface{}) (gjson.Result, error)
}

var (
	_ Requester = &Client{}
	_ Getter    = &Client{}
	_ Putter    = &Client{}
)

// Client talks to the upstream commerce API.
type Client struct {
	apiURL *url.URL
	token  string
	client *http.Client
}

// New creates a Client.
func New(cfg Config) (*Client, error) {
	if cfg.APIVersion == "" {
		cfg.APIVersion = "2024-10"
	}

	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	if cfg.RetryMax == 0 {
		cfg.RetryMax = 2
	}

	base := cfg.BaseURL
	if base == "" {
		if cfg.Domain == "" {
			return nil, errors.New("shop domain is required")
		}

		base = "https://" + cfg.Domain
	}

	u, err := url.Parse(base)
	if err != nil {
		return nil, err
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("url must have http or https scheme: %s", base)
	}

	rc := retryablehttp.NewClient()
	rc.RetryMax = cfg.RetryMax
	rc.RetryWaitMin = 200 * time.Millisecond
	rc.RetryWaitMax = 2 * time.Second
	rc.HTTPClient.Timeout = cfg.Timeout
	rc.Logger = nil
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler

	if cfg.RetryMax < 0 {
		rc.RetryMax = 0
	}

	if cfg.Logger != nil {
		rc.Logger = leveledLogger{log: cfg.Logger}
	}

	return &Client{
		apiURL: u.JoinPath("admin", "api", cfg.APIVersion),
		token:  cfg.AccessToken,
		client: rc.StandardClient(),
	}, nil
}

// Request performs GraphQL query and returns its "data" member.
func (c *Client) Request(ctx context.Context, query string, variables map[string]interface{}) (gjson.Result, error) {
	payload, err := json.Marshal(struct {
		Query     string                 `json:"query"`
		Variables map[string]interface{} `json:"variables,omitempty"`
	}{
		Query:     query,
		Variables: variables,
	})
	if err != nil {
		return gjson.Result{}, err
	}

	u := c.apiURL.JoinPath("graphql.json")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(payload))
	if err != nil {
		return gjson.Result{}, err
	}

	req.Header.Set("Content-Type", "application/json")

	body, err := c.do(req)
	if err != nil {
		return gjson.Result{}, err
	}

	doc := gjson.ParseBytes(body)

	if errs := doc.Get("errors"); errs.IsArray() && len(errs.Array()) > 0 {
		gerr := &GraphQLError{}

		for _, e := range errs.Array() {
			gerr.Messages = append(gerr.Messages, e.Get("message").String())
		}

		return gjson.Result{}, gerr
	}

	data := doc.Get("data")
	if !data.IsObject() {
		return gjson.Result{}, errors.New("graphql response has no data")
	}

	return data, nil
}

// Get performs REST read of a path relative to the Admin API root, e.g. "orders.json".
func (c *Client) Get(ctx context.Context, path string, query url.Values) (gjson.Result, error) {
	u := c.apiURL.JoinPath(strings.Split(path, "/")...)
	u.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return gjson.Result{}, err
	}

	body, err := c.do(req)
	if err != nil {
		return gjson.Result{}, err
	}

	return gjson.ParseBytes(body), nil
}

// Put sends JSON encoded payload to a path relative to the Admin API root,
// e.g. "customers/42.json", and returns response document.
func (c *Client) Put(ctx context.Context, path string, payload interface{}) (gjson.Result, error) {
	var body io.Reader

	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return gjson.Result{}, err
		}

		body = bytes.NewReader(b)
	}

	u := c.apiURL.JoinPath(strings.Split(path, "/")...)

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, u.String(), body)
	if err != nil {
		return gjson.Result{}, err
	}

	req.Header.Set("Content-Type", "application/json")

	res, err := c.do(req)
	if err != nil {
		return gjson.Result{}, err
	}

	return gjson.ParseBytes(res), nil
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Shopify-Access-Token", c.token)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fromResponse(resp.StatusCode, body)
	}

	if !gjson.ValidBytes(body) {
		return nil, errors.New("malformed upstream response")
	}

	return body, nil
}

// leveledLogger adapts ctxd.Logger to retryablehttp.LeveledLogger.
type leveledLogger struct {
	log ctxd.Logger
}

func (l leveledLogger) Error(msg string, keysAndValues ...interface{}) {
	l.log.Error(context.Background(), msg, keysAndValues...)
}

func (l leveledLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug(context.Background(), msg, keysAndValues...)
}

func (l leveledLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.log.Debug(context.Background(), msg, keysAndValues...)
}

func (l leveledLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.log.Warn(context.Background(), msg, keysAndValues...)
}
