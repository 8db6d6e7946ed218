package generate

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// The service is loose about its output element shape: older models return a
// bare URL string, newer ones an object carrying the URL under "url". This
// adapter collapses that union to a plain string so the rest of the worker
// never sees the difference.

var errNoURL = errors.New("generation output carries no url")

type urlEnvelope struct {
	URL string `json:"url"`
}

// NormalizeOutput extracts the image URL from one raw output element.
func NormalizeOutput(raw json.RawMessage) (string, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return "", errNoURL
	}

	var direct string
	if err := json.Unmarshal(raw, &direct); err == nil {
		if strings.TrimSpace(direct) == "" {
			return "", errNoURL
		}
		return strings.TrimSpace(direct), nil
	}

	var env urlEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return "", fmt.Errorf("unrecognized generation output shape: %s", compact(trimmed))
	}
	if strings.TrimSpace(env.URL) == "" {
		return "", errNoURL
	}
	return strings.TrimSpace(env.URL), nil
}

func compact(s string) string {
	if len(s) > 80 {
		return s[:80] + "..."
	}
	return s
}
