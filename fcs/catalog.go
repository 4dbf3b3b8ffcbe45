package fcs

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/bitrise-io/go-fcs/markup"
	"github.com/bitrise-io/go-fcs/network/chunkuploader"
)

const unknown = "UNKNOWN"

// ErrNoAssetType is returned when no asset type is given and none is registered for the
// file extension.
var ErrNoAssetType = errors.New("no asset type for file")

// PutProduct creates the product, or updates it when it carries an id.
func (c *Client) PutProduct(ctx context.Context, product markup.Value) (markup.Value, error) {
	return c.send(ctx, http.MethodPut, "products", "product", &product)
}

// GetProducts returns the products matching filter.
func (c *Client) GetProducts(ctx context.Context, filter markup.Value) ([]markup.Value, error) {
	products, err := c.send(ctx, http.MethodPost, "products", "product-filter", &filter)
	if err != nil {
		return nil, err
	}
	return items(products, "product"), nil
}

// GetAssets returns the assets matching filter.
func (c *Client) GetAssets(ctx context.Context, filter markup.Value) ([]markup.Value, error) {
	assets, err := c.send(ctx, http.MethodPost, "assets", assetFilterRoot, &filter)
	if err != nil {
		return nil, err
	}
	return items(assets, "asset"), nil
}

// GetAsset ...
func (c *Client) GetAsset(ctx context.Context, assetID string) (markup.Value, error) {
	if err := requireID("asset", assetID); err != nil {
		return markup.Value{}, err
	}
	return c.send(ctx, http.MethodGet, "assets/"+pathEscape(assetID), "asset", nil)
}

// PutAsset registers a pending asset of product for the file at assetPath, which may also
// be a URL. An empty assetType is derived from the file extension.
func (c *Client) PutAsset(ctx context.Context, product markup.Value, assetPath string, assetType AssetType) (markup.Value, error) {
	c.logger.Infof("FCS Uploading %s", assetPath)

	asset, err := newAsset(product, assetPath, assetType)
	if err != nil {
		return markup.Value{}, err
	}
	return c.send(ctx, http.MethodPut, "assets", "asset", &asset)
}

// UploadAsset registers a pending asset of product and uploads the file at assetPath as
// its content. The registered asset is returned.
func (c *Client) UploadAsset(ctx context.Context, product markup.Value, assetPath string, assetType AssetType) (markup.Value, error) {
	src, err := chunkuploader.NewFileSource(assetPath)
	if err != nil {
		return markup.Value{}, fmt.Errorf("upload %s: %w", assetPath, err)
	}
	defer func() {
		if err := src.Close(); err != nil {
			c.logger.Warnf("Failed to close %s: %s", assetPath, err)
		}
	}()

	if src.Size() <= 0 {
		return markup.Value{}, fmt.Errorf("upload %s: %w", assetPath, chunkuploader.ErrEmptySource)
	}

	asset, err := c.PutAsset(ctx, product, assetPath, assetType)
	if err != nil {
		return markup.Value{}, err
	}

	assetID := asset.String("id")
	if err := requireID("registered asset", assetID); err != nil {
		return asset, err
	}

	c.logger.Debugf("FCS Sending File %s to asset-files/%s", assetPath, assetID)
	name := fileName(assetPath)
	if _, err := c.uploader.Upload(ctx, "asset-files/"+pathEscape(assetID), name, ContentType(fileExt(assetPath)), src); err != nil {
		return asset, err
	}

	return asset, nil
}

// ConvertAsset registers a pending target asset of product and requests the conversion of
// the source asset into it. The conversion is returned.
func (c *Client) ConvertAsset(ctx context.Context, product markup.Value, sourceAssetID string, targetType AssetType) (markup.Value, error) {
	c.logger.Infof("FCS Converting %s to %s", sourceAssetID, targetType)

	if err := requireID("source asset", sourceAssetID); err != nil {
		return markup.Value{}, err
	}

	target, err := assetRecord(product, targetType, unknown, unknown)
	if err != nil {
		return markup.Value{}, err
	}
	target, err = c.send(ctx, http.MethodPut, "assets", "asset", &target)
	if err != nil {
		return markup.Value{}, err
	}

	conversion := markup.NewObject(
		markup.S("status-tag", string(ConversionStatusRequested)),
		markup.S("source-id", sourceAssetID),
		markup.S("target-id", target.String("id")),
	)
	return c.send(ctx, http.MethodPut, "conversions", "conversion", &conversion)
}

// EmailAsset asks the service to send an asset by email.
func (c *Client) EmailAsset(ctx context.Context, request markup.Value) error {
	c.logger.Infof("FCS Emailing Asset %s", request.String("AssetId"))

	_, err := c.sendRaw(ctx, http.MethodPost, "email-asset", "email-asset-request", &request)
	return err
}

// GetConversion ...
func (c *Client) GetConversion(ctx context.Context, conversionID string) (markup.Value, error) {
	if err := requireID("conversion", conversionID); err != nil {
		return markup.Value{}, err
	}
	return c.send(ctx, http.MethodGet, "conversions/"+pathEscape(conversionID), "conversion", nil)
}

// GetConversions returns the conversions matching filter.
func (c *Client) GetConversions(ctx context.Context, filter markup.Value) ([]markup.Value, error) {
	conversions, err := c.send(ctx, http.MethodPost, "conversions", "conversion-filter", &filter)
	if err != nil {
		return nil, err
	}
	return items(conversions, "conversion"), nil
}

func newAsset(product markup.Value, assetPath string, assetType AssetType) (markup.Value, error) {
	ext := fileExt(assetPath)
	if assetType == "" {
		var ok bool
		if assetType, ok = DefaultAssetType(ext); !ok {
			return markup.Value{}, fmt.Errorf("%s: %w", assetPath, ErrNoAssetType)
		}
	}
	return assetRecord(product, assetType, fileName(assetPath), ContentType(ext))
}

func assetRecord(product markup.Value, assetType AssetType, name, contentType string) (markup.Value, error) {
	productID, productTag := product.String("id"), product.String("tag")
	if productID == "" || productTag == "" {
		return markup.Value{}, fmt.Errorf("product must have an id and a tag")
	}

	return markup.NewObject(
		markup.S("tag", productTag+"-"+string(assetType)),
		markup.S("status-tag", string(AssetStatusPending)),
		markup.S("product-id", productID),
		markup.S("asset-type-name", string(assetType)),
		markup.S("original-file-name", name),
		markup.S("generated-file-name", name),
		markup.S("content-type", contentType),
	), nil
}
