package fcs

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/bitrise-io/go-fcs/markup"
	"github.com/bitrise-io/go-utils/v2/retryhttp"
	"github.com/melbahja/got"
)

// GetUserLibraryURI returns the library location of a site user.
func (c *Client) GetUserLibraryURI(ctx context.Context, site, email string) ([]byte, error) {
	return c.get(ctx, withQuery("user-library-uri", "site", site, "email", email))
}

// GetAssetURIByID returns a download location of an asset. price and user may be empty.
func (c *Client) GetAssetURIByID(ctx context.Context, assetID, price, user string) ([]byte, error) {
	return c.get(ctx, withQuery("asset-uris/"+pathEscape(assetID), "price", price, "user", user))
}

// GetAssetURIByIDAndTrack returns the download location of one track of an audio asset.
func (c *Client) GetAssetURIByIDAndTrack(ctx context.Context, assetID, trackID, price, user string) ([]byte, error) {
	p := "asset-uris-cf/" + pathEscape(assetID) + "/" + pathEscape(trackID)
	return c.get(ctx, withQuery(p, "price", price, "user", user))
}

// GetAssetURIByEAN returns a download location of the asset of the given type of a product
// identified by its EAN.
func (c *Client) GetAssetURIByEAN(ctx context.Context, ean string, assetType AssetType, price, user string) ([]byte, error) {
	return c.get(ctx, withQuery("asset-uris", "ean", ean, "type", string(assetType), "price", price, "user", user))
}

// GetAssetTypesByEAN returns the asset types available for a product identified by its EAN.
func (c *Client) GetAssetTypesByEAN(ctx context.Context, ean string) (markup.Value, error) {
	return c.send(ctx, http.MethodGet, withQuery("asset-types", "ean", ean), "", nil)
}

// DownloadAsset downloads the file at uri, typically returned by one of the asset URI
// operations, to dest. Failed requests are retried.
func (c *Client) DownloadAsset(ctx context.Context, uri, dest string) error {
	if uri == "" {
		return fmt.Errorf("download uri must not be empty")
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return fmt.Errorf("create download dir: %w", err)
	}

	c.logger.Debugf("Downloading %s to %s", uri, dest)

	downloader := got.New()
	downloader.Client = retryhttp.NewClient(c.logger).StandardClient()

	if err := downloader.Do(got.NewDownload(ctx, uri, dest)); err != nil {
		return fmt.Errorf("download %s: %w", uri, err)
	}
	return nil
}
