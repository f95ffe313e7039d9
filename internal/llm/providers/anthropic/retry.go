package anthropicprovider

import (
	"errors"
	"net"
	"net/http"

	anthropic "github.com/anthropics/anthropic-sdk-go"
)

// isRetryableProviderError reports whether an SDK failure is worth another
// attempt under the shared retry policy: rate limiting, server-side errors,
// and transport-level faults. Invalid requests and auth failures are not.
func isRetryableProviderError(err error) bool {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode >= http.StatusInternalServerError
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return false
}
