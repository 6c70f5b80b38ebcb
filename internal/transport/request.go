package transport

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/agentstation/meshdns/pkg/errors"
)

// maxErrorBody bounds how much of an error response ends up in the message.
const maxErrorBody = 512

// JoinURL appends an API path to a base URL without doubling slashes.
func JoinURL(base, path string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}

// DecodeResponse checks for a 2xx status and decodes the JSON body into
// target. A nil target only checks the status. The body is always closed.
func DecodeResponse(service, url string, resp *http.Response, target any) error {
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.WrapUpstream(service, url, errors.WrapIO("read", "response body", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := strings.TrimSpace(string(body))
		if len(msg) > maxErrorBody {
			msg = msg[:maxErrorBody]
		}
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return errors.NewUpstreamError(service, url, resp.StatusCode, msg)
	}

	if target == nil {
		return nil
	}

	if err := json.Unmarshal(body, target); err != nil {
		return errors.WrapUpstream(service, url, errors.WrapParse("json", "response", err))
	}

	return nil
}
