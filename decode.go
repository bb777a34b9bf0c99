package restclient

import (
	"encoding/json"
	"net/http"
	"strings"
)

// decodeBody turns a raw transport body into a usable value. Bodies with a
// JSON content type are trimmed and parsed: empty-after-trim yields nil, and
// malformed JSON folds into the unified error model with the response status.
// Everything else passes through as raw bytes.
func decodeBody(raw *RawResponse) (any, error) {
	if !isJSONContentType(raw.ContentType()) {
		return raw.Body, nil
	}

	trimmed := strings.TrimSpace(string(raw.Body))
	if trimmed == "" {
		return nil, nil
	}

	var v any
	if err := json.Unmarshal([]byte(trimmed), &v); err != nil {
		return nil, newParseError(raw.Status, http.StatusText(raw.Status), raw.Body, err)
	}
	return v, nil
}
