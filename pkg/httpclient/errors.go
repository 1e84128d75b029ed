package httpclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	apperrors "github.com/utafrali/storefront-browse/pkg/errors"
)

// DownstreamErrorResponse mirrors the {"error": {code, message}} envelope
// returned by services built on pkg/httputil.
type DownstreamErrorResponse struct {
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// ParseResponseError reads the body of a non-2xx HTTP response and
// translates it into an AppError. Structured bodies keep their message;
// anything else is reported verbatim (truncated).
//
// The response body is fully consumed and closed.
func ParseResponseError(resp *http.Response, serviceName string) error {
	defer func() { _ = resp.Body.Close() }()

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return apperrors.Upstream(serviceName, resp.StatusCode, "failed to read body: "+err.Error())
	}

	message := strings.TrimSpace(string(bodyBytes))
	var downstream DownstreamErrorResponse
	if json.Unmarshal(bodyBytes, &downstream) == nil && downstream.Error != nil {
		message = downstream.Error.Message
	}
	if len(message) > 256 {
		message = message[:256]
	}

	return mapStatus(resp.StatusCode, message, serviceName)
}

func mapStatus(status int, message, serviceName string) error {
	qualified := fmt.Sprintf("%s: %s", serviceName, message)

	switch {
	case status == http.StatusNotFound:
		return apperrors.NotFound(serviceName, message)
	case status == http.StatusBadRequest, status == http.StatusUnprocessableEntity:
		return apperrors.InvalidInput(qualified)
	case status == http.StatusServiceUnavailable:
		return apperrors.ServiceUnavailable(qualified)
	default:
		return apperrors.Upstream(serviceName, status, message)
	}
}
