package fcs

import (
	"mime"
	"net/url"
	"path"
	"strings"
)

const defaultContentType = "application/octet-stream"

// Asset type used for a file when none is given.
var defaultAssetTypes = map[string]AssetType{
	"epub": AssetTypeEpub,
	"pdf":  AssetTypePdf,
	"mobi": AssetTypeKindle,
	"jpg":  AssetTypeCover,
	"gif":  AssetTypeCover,
	"png":  AssetTypeCover,
	"acsm": AssetTypeTDrm,
	"tdrm": AssetTypeTDrm,
	"pdrm": AssetTypePDrm,
}

// Content types the service expects for publication files; everything else goes through
// the mime package.
var contentTypes = map[string]string{
	"acsm": "application/vnd.adobe.adept+xml",
	"epub": "application/epub+zip",
	"gif":  "image/gif",
	"jpe":  "image/jpeg",
	"jpeg": "image/jpeg",
	"jpg":  "image/jpeg",
	"m4a":  "audio/mp4a-latm",
	"m4b":  "audio/mp4a-latm",
	"mobi": "application/octet-stream",
	"mp3":  "audio/mpeg",
	"pdf":  "application/pdf",
	"png":  "image/png",
	"xml":  "application/xml",
	"zip":  "application/zip",
}

// DefaultAssetType returns the asset type registered for a file extension.
func DefaultAssetType(ext string) (AssetType, bool) {
	t, ok := defaultAssetTypes[normalizeExt(ext)]
	return t, ok
}

// ContentType returns the content type of a file extension, application/octet-stream when
// it is unknown.
func ContentType(ext string) string {
	ext = normalizeExt(ext)
	if t, ok := contentTypes[ext]; ok {
		return t
	}
	if t := mime.TypeByExtension("." + ext); t != "" {
		mediaType, _, err := mime.ParseMediaType(t)
		if err == nil {
			return mediaType
		}
	}
	return defaultContentType
}

func normalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// fileName returns the last element of a file path or of the path of a URL.
func fileName(p string) string {
	if u, err := url.Parse(p); err == nil && u.Scheme != "" && u.Host != "" {
		p = u.Path
	}
	p = strings.ReplaceAll(p, "\\", "/")
	return path.Base(p)
}

func fileExt(p string) string {
	return normalizeExt(path.Ext(fileName(p)))
}
