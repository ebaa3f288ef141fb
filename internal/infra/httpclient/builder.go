package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/hextract/parking-net/internal/domain"
)

// BuildRequest builds an HTTP request for call against baseURL. The call
// credential, if any, is sent in credentialHeader.
func BuildRequest(ctx context.Context, baseURL string, call domain.Call, credentialHeader string) (*http.Request, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, &domain.OpError{
			Op:   "httpclient.build",
			Kind: domain.KindInvalidConfig,
			Err:  errors.New("base url is empty"),
		}
	}
	if !strings.HasPrefix(call.Path, "/") {
		return nil, &domain.OpError{
			Op:   "httpclient.build",
			Kind: domain.KindInvalidConfig,
			Err:  errors.New("path must be absolute: " + call.Path),
		}
	}

	target := strings.TrimRight(baseURL, "/") + call.Path
	if len(call.Query) > 0 {
		values := url.Values{}
		for k, v := range call.Query {
			values.Set(k, v)
		}
		target += "?" + values.Encode()
	}

	var body io.Reader
	if call.Body != nil {
		payload, err := json.Marshal(call.Body)
		if err != nil {
			return nil, &domain.OpError{
				Op:   "httpclient.build",
				Kind: domain.KindInvalidConfig,
				Err:  err,
			}
		}
		body = bytes.NewReader(payload)
	}

	method := string(call.Method)
	if method == "" {
		method = http.MethodGet
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, &domain.OpError{
			Op:   "httpclient.build",
			Kind: domain.KindInvalidConfig,
			Err:  err,
		}
	}

	req.Header.Set("Accept", "application/json")
	if call.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if call.Credential != "" && credentialHeader != "" {
		req.Header.Set(credentialHeader, call.Credential)
	}

	return req, nil
}
