package fcs

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/bitrise-io/go-fcs/markup"
	"github.com/klauspost/compress/zip"
)

// LicensePath is the location of the LCP license inside a licensed EPUB container.
const LicensePath = "META-INF/license.lcpl"

// ErrNoLicense is returned by ExtractLicense for a container without a license document.
var ErrNoLicense = errors.New("container has no " + LicensePath)

// The LCP operations pass the service responses through unchanged.

// LcpGetContentID returns the LCP content id of a product. An empty assetType lets the
// service choose.
func (c *Client) LcpGetContentID(ctx context.Context, productID string, assetType AssetType) ([]byte, error) {
	p := "lcp/product/" + pathEscape(productID) + "/content"
	if assetType != "" {
		p = withQuery(p, "assettype", string(assetType))
	}
	return c.get(ctx, p)
}

// LcpGetEncryptedContent ...
func (c *Client) LcpGetEncryptedContent(ctx context.Context, contentID string) ([]byte, error) {
	return c.get(ctx, "lcp/content/"+pathEscape(contentID))
}

// LcpGetLicensedContent returns the encrypted publication with the license of user embedded.
func (c *Client) LcpGetLicensedContent(ctx context.Context, user markup.Value, contentID, licenseID string) ([]byte, error) {
	return c.sendRaw(ctx, http.MethodPost, "lcp/content/"+pathEscape(contentID)+"/"+pathEscape(licenseID), "user", &user)
}

// LcpGetLicense ...
func (c *Client) LcpGetLicense(ctx context.Context, user markup.Value, licenseID string) ([]byte, error) {
	return c.sendRaw(ctx, http.MethodPost, "lcp/license/"+pathEscape(licenseID), "user", &user)
}

// LcpGenerateLicense ...
func (c *Client) LcpGenerateLicense(ctx context.Context, user markup.Value, contentID string) ([]byte, error) {
	return c.sendRaw(ctx, http.MethodPost, "lcp/license/"+pathEscape(contentID)+"/generate", "user", &user)
}

// LcpGetLicenseStatus ...
func (c *Client) LcpGetLicenseStatus(ctx context.Context, licenseID string) ([]byte, error) {
	return c.get(ctx, "lcp/license/"+pathEscape(licenseID)+"/status")
}

// LcpRegisterDevice ...
func (c *Client) LcpRegisterDevice(ctx context.Context, licenseID, deviceID, deviceName string) ([]byte, error) {
	p := withQuery("lcp/licenses/"+pathEscape(licenseID)+"/register", "id", deviceID, "name", deviceName)
	return c.sendRaw(ctx, http.MethodPost, p, "", nil)
}

// LcpRenewLicense extends the license. An empty end leaves the new end date to the service.
func (c *Client) LcpRenewLicense(ctx context.Context, licenseID, deviceID, deviceName, end string) ([]byte, error) {
	pairs := []string{"id", deviceID, "name", deviceName}
	if end != "" {
		pairs = append(pairs, "end", end)
	}
	p := withQuery("lcp/licenses/"+pathEscape(licenseID)+"/renew", pairs...)
	return c.sendRaw(ctx, http.MethodPut, p, "", nil)
}

// LcpReturnLicense ...
func (c *Client) LcpReturnLicense(ctx context.Context, licenseID, deviceID, deviceName string) ([]byte, error) {
	p := withQuery("lcp/licenses/"+pathEscape(licenseID)+"/return", "id", deviceID, "name", deviceName)
	return c.sendRaw(ctx, http.MethodPut, p, "", nil)
}

// LcpHashPassphrase returns the base64 encoded SHA-256 digest of a user passphrase, the
// form the service expects in user documents.
func LcpHashPassphrase(passphrase string) string {
	sum := sha256.Sum256([]byte(passphrase))
	return base64.StdEncoding.EncodeToString(sum[:])
}

// ExtractLicense returns the license document of a licensed EPUB container.
func ExtractLicense(epub []byte) ([]byte, error) {
	r, err := zip.NewReader(bytes.NewReader(epub), int64(len(epub)))
	if err != nil {
		return nil, fmt.Errorf("open container: %w", err)
	}

	for _, f := range r.File {
		if f.Name != LicensePath {
			continue
		}

		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", LicensePath, err)
		}
		defer rc.Close() //nolint:errcheck

		license, err := io.ReadAll(rc)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", LicensePath, err)
		}
		return license, nil
	}

	return nil, ErrNoLicense
}
