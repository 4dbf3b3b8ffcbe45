package network

import (
	"net/http"
	"net/http/httputil"

	"github.com/bitrise-io/go-utils/v2/log"
)

// dumpResponse logs the status line and headers of resp at debug level. The body is left
// unread for the caller.
func dumpResponse(logger log.Logger, resp *http.Response) {
	dump, err := httputil.DumpResponse(resp, false)
	if err != nil {
		logger.Warnf("error while dumping response: %s", err)
		return
	}
	logger.Debugf("Response dump: %s", string(dump))
}
