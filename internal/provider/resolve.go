package provider

import (
	"fmt"
	"strings"
)

const chatPath = "/v1/chat/completions"

// Endpoint is a provider resolved to everything a request needs.
type Endpoint struct {
	ProviderID string
	URL        string
	Token      string
	ModelName  string
}

// Resolve looks up currentID in list and builds its endpoint.
func Resolve(list []Provider, currentID string) (Endpoint, error) {
	p, ok := Find(list, currentID)
	if !ok {
		return Endpoint{}, fmt.Errorf("%w: %q", ErrNoProviderSelected, currentID)
	}
	return Endpoint{
		ProviderID: p.ID,
		URL:        NormalizeURL(p.BaseURL, p.Endpoint),
		Token:      p.Token,
		ModelName:  p.ModelName,
	}, nil
}

// NormalizeURL joins a base URL and an endpoint path without doubling the
// version prefix or the chat path.
func NormalizeURL(baseURL, endpoint string) string {
	base := trimBase(baseURL)

	if !strings.HasPrefix(endpoint, "/") {
		endpoint = "/" + endpoint
	}
	if strings.Contains(endpoint, chatPath) && strings.Contains(base, chatPath) {
		endpoint = ""
	}

	return base + endpoint
}

// trimBase drops a trailing "/v1" (with or without slash) and then a single
// trailing slash.
func trimBase(base string) string {
	switch {
	case strings.HasSuffix(base, "/v1/"):
		base = strings.TrimSuffix(base, "/v1/")
	case strings.HasSuffix(base, "/v1"):
		base = strings.TrimSuffix(base, "/v1")
	}
	return strings.TrimSuffix(base, "/")
}
