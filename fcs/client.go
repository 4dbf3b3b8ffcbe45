// Package fcs is a client of the content distribution service. It registers products and
// assets, transfers asset files, requests conversions and resolves download locations.
//
// Catalog documents are handled as markup.Value trees: the client only reads the few
// fields it needs to build related requests (a product "id" and "tag", an asset "id").
package fcs

import (
	"context"
	"fmt"
	"net/http"

	"github.com/bitrise-io/go-fcs/config"
	"github.com/bitrise-io/go-fcs/internal/debuglog"
	"github.com/bitrise-io/go-fcs/markup"
	"github.com/bitrise-io/go-fcs/network"
	"github.com/bitrise-io/go-fcs/network/chunkuploader"
	"github.com/bitrise-io/go-utils/v2/log"
)

const assetFilterRoot = "asset-filter"

// Client of the content distribution service. A Client holds no mutable state shared with
// other clients; concurrent calls on one Client are safe.
type Client struct {
	api      *network.Client
	sender   *chunkuploader.HTTPSender
	uploader *chunkuploader.Uploader
	logger   log.Logger
	debugLog *debuglog.Logger
}

// New validates cfg and creates a client. When cfg enables debugging, debug logging is turned
// on in logger; with a log path every leveled log message is also appended to that file.
func New(cfg config.Config, logger log.Logger) (*Client, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.Debug {
		logger.EnableDebugLog(true)
	}

	var debugLog *debuglog.Logger
	if cfg.Debug && cfg.LogPath != "" {
		var err error
		debugLog, err = debuglog.Open(logger, cfg.LogPath)
		if err != nil {
			return nil, err
		}
		logger = debugLog
	}

	api, err := network.NewClient(cfg, logger)
	if err != nil {
		return nil, err
	}
	logger.Debugf("FCS Client: basePath=%s", cfg.BasePath())

	uploaderConfig := chunkuploader.ConfigFrom(cfg)
	sender := chunkuploader.NewHTTPSender(uploaderConfig, api.BaseURL(), api.Signer(), logger)

	return &Client{
		api:      api,
		sender:   sender,
		uploader: chunkuploader.New(uploaderConfig, sender, logger),
		logger:   logger,
		debugLog: debugLog,
	}, nil
}

// Close releases idle upload connections and the debug log file.
func (c *Client) Close() error {
	c.sender.CloseIdleConnections()
	if c.debugLog != nil {
		return c.debugLog.Close()
	}
	return nil
}

// UploadStats returns the statistics of the chunk uploads made by the client.
func (c *Client) UploadStats() *chunkuploader.Stats {
	return c.uploader.Stats()
}

// Call performs a structured call that has no dedicated method.
func (c *Client) Call(ctx context.Context, r network.Request) (*network.Response, error) {
	if r.Namespace == "" {
		r.Namespace = namespaceFor(r.Root)
	}
	return c.api.Call(ctx, r)
}

func (c *Client) send(ctx context.Context, method, path, root string, body *markup.Value) (markup.Value, error) {
	resp, err := c.Call(ctx, network.Request{Method: method, Path: path, Root: root, Body: body})
	if err != nil {
		return markup.Value{}, err
	}
	return resp.Value, nil
}

func (c *Client) sendRaw(ctx context.Context, method, path, root string, body *markup.Value) ([]byte, error) {
	resp, err := c.Call(ctx, network.Request{Method: method, Path: path, Root: root, Body: body, Raw: true})
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	return c.sendRaw(ctx, http.MethodGet, path, "", nil)
}

func namespaceFor(root string) string {
	if root == assetFilterRoot {
		return markup.ModelNamespace
	}
	return markup.CloudNamespace
}

// items returns the values of a repeated field of a list response, none when it is absent.
func items(v markup.Value, name string) []markup.Value {
	f, ok := v.Field(name)
	if !ok {
		return nil
	}
	return f.Items()
}

func requireID(kind, id string) error {
	if id == "" {
		return fmt.Errorf("%s id must not be empty", kind)
	}
	return nil
}
