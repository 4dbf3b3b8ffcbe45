// Package network exchanges signed XML documents with the content service.
package network

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/bitrise-io/go-fcs/config"
	"github.com/bitrise-io/go-fcs/markup"
	"github.com/bitrise-io/go-fcs/signature"
	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/bitrise-io/go-utils/v2/retryhttp"
	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"
)

const (
	contentTypeXML = "application/xml; charset=utf-8"
	errorRootName  = "error"
	newID          = "new"
)

// Request describes one structured call.
type Request struct {
	Method string
	// Path is relative to the service base URL and may carry a query string.
	Path string
	// Root is the root element name of the request document.
	Root string
	// Namespace of the root element. Defaults to markup.CloudNamespace.
	Namespace string
	// Body is encoded as the request document when set.
	Body *markup.Value
	// Raw skips decoding the response; Response.Body holds the bytes as received.
	Raw bool
}

// Response of a successful call.
type Response struct {
	StatusCode int
	// Root and Value hold the decoded response document unless the request was Raw.
	Root  string
	Value markup.Value
	Body  []byte
}

// Client sends signed requests to the service. It never retries: a failed call is
// reported to the caller on its first occurrence.
type Client struct {
	httpClient *retryablehttp.Client
	baseURL    string
	signer     signature.Signer
	logger     log.Logger
}

// NewClient validates cfg and returns a client for it.
func NewClient(cfg config.Config, logger log.Logger) (*Client, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	httpClient := retryhttp.NewClient(logger)
	httpClient.RetryMax = 0
	httpClient.CheckRetry = func(context.Context, *http.Response, error) (bool, error) {
		return false, nil
	}
	httpClient.ErrorHandler = retryablehttp.PassthroughErrorHandler

	return &Client{
		httpClient: httpClient,
		baseURL:    cfg.URL,
		signer: signature.Signer{
			BasePath:  cfg.BasePath(),
			AccessKey: cfg.AccessKey,
			Secret:    cfg.AccessSecret.Reveal(),
			ClientID:  cfg.ClientID,
			Logger:    logger,
		},
		logger: logger,
	}, nil
}

// Signer returns the request signer of the client.
func (c *Client) Signer() signature.Signer {
	return c.signer
}

// BaseURL returns the service base URL without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// StandardClient returns a plain *http.Client sharing the client transport.
func (c *Client) StandardClient() *http.Client {
	return c.httpClient.StandardClient()
}

// URL returns the absolute URL of a path relative to the service base URL.
func (c *Client) URL(path string) string {
	return c.baseURL + "/" + strings.TrimLeft(path, "/")
}

// Call performs one signed request/response exchange.
func (c *Client) Call(ctx context.Context, r Request) (*Response, error) {
	path := r.Path

	var body []byte
	if r.Body != nil {
		if r.Method == http.MethodPut {
			path = withIdentifier(path, r.Body.String("id"))
		}

		namespace := r.Namespace
		if namespace == "" {
			namespace = markup.CloudNamespace
		}

		var err error
		body, err = markup.Encode(*r.Body, r.Root, namespace)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
	}

	fullURL := c.URL(path)
	var reqBody interface{}
	if body != nil {
		reqBody = body
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, r.Method, fullURL, reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", c.signer.Authorization(r.Method, path))
	req.Header.Set("X-Request-Id", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", contentTypeXML)
	}

	c.logger.Debugf("FCS Sending Request: %s %s\n%s", r.Method, fullURL, body)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Method: r.Method, URL: fullURL, Err: err}
	}
	defer func(body io.ReadCloser) {
		if err := body.Close(); err != nil {
			c.logger.Printf("%s", err)
		}
	}(resp.Body)

	dumpResponse(c.logger, resp)

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Method: r.Method, URL: fullURL, Err: fmt.Errorf("read response: %w", err)}
	}
	c.logger.Debugf("FCS Received Response: [%d] %s", resp.StatusCode, respBody)

	if resp.StatusCode != http.StatusOK {
		return nil, &RemoteError{StatusCode: resp.StatusCode, Body: respBody}
	}

	response := &Response{StatusCode: resp.StatusCode, Body: respBody}
	if r.Raw {
		return response, nil
	}

	root, value, err := markup.DecodeRoot(respBody)
	if err != nil {
		return nil, fmt.Errorf("decode response of %s %s: %w", r.Method, path, err)
	}
	if root == errorRootName {
		return nil, &ServiceError{Code: value.String("code"), Message: value.String("message")}
	}

	response.Root = root
	response.Value = value
	return response, nil
}

// withIdentifier appends "/<id>" to the path part of p, or "/new" when id is empty.
func withIdentifier(p, id string) string {
	if id == "" {
		id = newID
	}

	query := ""
	if i := strings.IndexByte(p, '?'); i >= 0 {
		p, query = p[:i], p[i:]
	}
	return strings.TrimRight(p, "/") + "/" + url.PathEscape(id) + query
}
