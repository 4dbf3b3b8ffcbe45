package network

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bitrise-io/go-fcs/config"
	"github.com/bitrise-io/go-fcs/markup"
	"github.com/bitrise-io/go-fcs/signature"
	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedRequest struct {
	method        string
	path          string
	rawQuery      string
	authorization string
	contentType   string
	requestID     string
	body          string
}

func newTestServer(t *testing.T, status int, response string) (*httptest.Server, *[]recordedRequest) {
	t.Helper()

	var requests []recordedRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		requests = append(requests, recordedRequest{
			method:        r.Method,
			path:          r.URL.Path,
			rawQuery:      r.URL.RawQuery,
			authorization: r.Header.Get("Authorization"),
			contentType:   r.Header.Get("Content-Type"),
			requestID:     r.Header.Get("X-Request-Id"),
			body:          string(body),
		})
		w.WriteHeader(status)
		_, _ = w.Write([]byte(response))
	}))
	t.Cleanup(server.Close)

	return server, &requests
}

func newTestClient(t *testing.T, serverURL string) *Client {
	t.Helper()

	client, err := NewClient(config.Config{
		URL:          serverURL + "/api/",
		AccessKey:    "key",
		AccessSecret: "s3cr3t",
	}, log.NewLogger())
	require.NoError(t, err)
	return client
}

func TestCall_PutWithoutIdentifierTargetsNew(t *testing.T) {
	server, requests := newTestServer(t, http.StatusOK, `<?xml version="1.0"?><asset xmlns="http://cloud.firebrandtech.com/"><id>5</id><tag>t</tag></asset>`)
	client := newTestClient(t, server.URL)

	body := markup.NewObject(markup.S("tag", "t"), markup.S("product-id", "3"))
	resp, err := client.Call(context.Background(), Request{Method: http.MethodPut, Path: "assets", Root: "asset", Body: &body})
	require.NoError(t, err)

	require.Len(t, *requests, 1)
	got := (*requests)[0]
	assert.Equal(t, http.MethodPut, got.method)
	assert.Equal(t, "/api/assets/new", got.path)
	assert.Equal(t, signature.Sign("PUT", "/api/assets/new", "s3cr3t", "key", "GOSDK"), got.authorization)
	assert.Equal(t, "application/xml; charset=utf-8", got.contentType)
	assert.NotEmpty(t, got.requestID)
	assert.Equal(t, `<?xml version="1.0"?>
<asset xmlns="http://cloud.firebrandtech.com/">
  <tag>t</tag>
  <product-id>3</product-id>
</asset>
`, got.body)

	assert.Equal(t, "asset", resp.Root)
	assert.Equal(t, "5", resp.Value.String("id"))
}

func TestCall_PutWithIdentifier(t *testing.T) {
	server, requests := newTestServer(t, http.StatusOK, `<product><id>42</id></product>`)
	client := newTestClient(t, server.URL)

	body := markup.NewObject(markup.S("id", "42"), markup.S("name", "W"))
	_, err := client.Call(context.Background(), Request{Method: http.MethodPut, Path: "products", Root: "product", Body: &body, Namespace: markup.ModelNamespace})
	require.NoError(t, err)

	got := (*requests)[0]
	assert.Equal(t, "/api/products/42", got.path)
	assert.Equal(t, signature.Sign("PUT", "/api/products/42", "s3cr3t", "key", "GOSDK"), got.authorization)
	assert.Contains(t, got.body, `<product xmlns="http://schemas.datacontract.org/2004/07/Cloud.Model">`)
}

func TestCall_QueryIsNotSigned(t *testing.T) {
	server, requests := newTestServer(t, http.StatusOK, `<asset-uri>https://cdn/x</asset-uri>`)
	client := newTestClient(t, server.URL)

	resp, err := client.Call(context.Background(), Request{Method: http.MethodGet, Path: "asset-uris/7?price=1.99&user=u"})
	require.NoError(t, err)

	got := (*requests)[0]
	assert.Equal(t, "/api/asset-uris/7", got.path)
	assert.Equal(t, "price=1.99&user=u", got.rawQuery)
	assert.Equal(t, signature.Sign("GET", "/api/asset-uris/7", "s3cr3t", "key", "GOSDK"), got.authorization)
	assert.Empty(t, got.contentType)
	assert.Empty(t, got.body)
	assert.Equal(t, "https://cdn/x", resp.Value.Text())
}

func TestCall_RemoteError(t *testing.T) {
	server, _ := newTestServer(t, http.StatusNotFound, "no such asset")
	client := newTestClient(t, server.URL)

	_, err := client.Call(context.Background(), Request{Method: http.MethodGet, Path: "assets/1"})

	var remoteErr *RemoteError
	require.True(t, errors.As(err, &remoteErr), "got %v", err)
	assert.Equal(t, http.StatusNotFound, remoteErr.StatusCode)
	assert.Equal(t, "no such asset", string(remoteErr.Body))
	assert.Equal(t, "HTTP 404: no such asset", remoteErr.Error())
	assert.True(t, IsRemoteStatus(err, http.StatusNotFound))
	assert.False(t, IsRemoteStatus(err, http.StatusInternalServerError))
}

func TestCall_ServerErrorIsNotRetried(t *testing.T) {
	server, requests := newTestServer(t, http.StatusInternalServerError, "boom")
	client := newTestClient(t, server.URL)

	_, err := client.Call(context.Background(), Request{Method: http.MethodGet, Path: "assets/1"})

	assert.True(t, IsRemoteStatus(err, http.StatusInternalServerError))
	assert.Len(t, *requests, 1)
}

func TestCall_ServiceError(t *testing.T) {
	server, _ := newTestServer(t, http.StatusOK, `<error><code>E42</code><message>bad tag</message></error>`)
	client := newTestClient(t, server.URL)

	_, err := client.Call(context.Background(), Request{Method: http.MethodGet, Path: "assets/1"})

	var serviceErr *ServiceError
	require.True(t, errors.As(err, &serviceErr), "got %v", err)
	assert.Equal(t, "E42", serviceErr.Code)
	assert.Equal(t, "bad tag", serviceErr.Message)
}

func TestCall_MalformedResponse(t *testing.T) {
	server, _ := newTestServer(t, http.StatusOK, `<asset><id>1</asset>`)
	client := newTestClient(t, server.URL)

	_, err := client.Call(context.Background(), Request{Method: http.MethodGet, Path: "assets/1"})

	var malformed *markup.MalformedMarkupError
	assert.True(t, errors.As(err, &malformed), "got %v", err)
}

func TestCall_RawResponse(t *testing.T) {
	server, _ := newTestServer(t, http.StatusOK, `{"Status":"ok"}`)
	client := newTestClient(t, server.URL)

	resp, err := client.Call(context.Background(), Request{Method: http.MethodPost, Path: "copy-s3-asset/1?s3uri=s3://b/k", Raw: true})
	require.NoError(t, err)
	assert.Equal(t, `{"Status":"ok"}`, string(resp.Body))
	assert.Empty(t, resp.Root)
}

func TestCall_TransportError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	client := newTestClient(t, server.URL)
	server.Close()

	_, err := client.Call(context.Background(), Request{Method: http.MethodGet, Path: "assets/1"})

	var transportErr *TransportError
	require.True(t, errors.As(err, &transportErr), "got %v", err)
	assert.Equal(t, http.MethodGet, transportErr.Method)
	assert.Equal(t, server.URL+"/api/assets/1", transportErr.URL)
}

func TestNewClient_InvalidConfig(t *testing.T) {
	_, err := NewClient(config.Config{URL: "https://fcs.example.com"}, log.NewLogger())

	var cfgErr *config.ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, []string{"access key", "access secret"}, cfgErr.Missing)
}

func Test_withIdentifier(t *testing.T) {
	tests := []struct {
		path string
		id   string
		want string
	}{
		{path: "assets", id: "", want: "assets/new"},
		{path: "assets", id: "42", want: "assets/42"},
		{path: "assets/", id: "42", want: "assets/42"},
		{path: "assets?site=x", id: "", want: "assets/new?site=x"},
		{path: "products", id: "a b", want: "products/a%20b"},
	}
	for _, tt := range tests {
		t.Run(tt.path+"+"+tt.id, func(t *testing.T) {
			assert.Equal(t, tt.want, withIdentifier(tt.path, tt.id))
		})
	}
}
