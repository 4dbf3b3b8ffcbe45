// Package signature computes the Authorization token of content service requests.
//
// The token is "FBT <access key>:<base64 HMAC-SHA1 of method+canonical path>:<client id>".
// It carries no timestamp or nonce, so a captured token can be replayed against the same
// method and path; the scheme offers no replay protection.
package signature

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"strings"

	"github.com/bitrise-io/go-utils/v2/log"
)

// Scheme is the Authorization header scheme of the service.
const Scheme = "FBT"

// Sign returns the Authorization token for method and canonicalPath.
func Sign(method, canonicalPath, secret, accessKey, clientID string) string {
	mac := hmac.New(sha1.New, []byte(secret))
	mac.Write([]byte(method + canonicalPath))
	sig := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	return Scheme + " " + accessKey + ":" + sig + ":" + clientID
}

// CanonicalPath drops the query string of path and prefixes it with basePath, joined by a
// single slash. An empty basePath yields "/" + path.
func CanonicalPath(basePath, path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	return strings.TrimRight(basePath, "/") + "/" + strings.TrimLeft(path, "/")
}

// Signer signs requests of one client.
type Signer struct {
	BasePath  string
	AccessKey string
	Secret    string
	ClientID  string
	// Logger receives the signing input at debug level. Optional.
	Logger log.Logger
}

// Authorization returns the Authorization header value for a request. path is relative to
// the service base URL and may carry a query string, which is not signed.
func (s Signer) Authorization(method, path string) string {
	canonical := CanonicalPath(s.BasePath, path)
	if s.Logger != nil {
		s.Logger.Debugf("Signing: %s%s", method, canonical)
	}
	return Sign(method, canonical, s.Secret, s.AccessKey, s.ClientID)
}
