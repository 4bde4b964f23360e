package netcalc

import (
	"context"
	"fmt"
	"strings"

	"github.com/Ashfaaq98/intel-etl/internal/fetch"
)

// Lookup modes supported by the NetworkCalc connector. ModeAll fans out to
// the three concrete modes.
const (
	ModeIP          = "ip"
	ModeBinary      = "binary"
	ModeCertificate = "certificate"
	ModeAll         = "all"
)

// Modes lists the concrete lookup modes in fan-out order.
func Modes() []string {
	return []string{ModeIP, ModeBinary, ModeCertificate}
}

// IsValidMode reports whether mode is one the connector understands.
func IsValidMode(mode string) bool {
	switch mode {
	case ModeIP, ModeBinary, ModeCertificate, ModeAll:
		return true
	}
	return false
}

// CollectionFor maps a concrete lookup mode onto its target collection.
func CollectionFor(prefix, mode string) string {
	return fmt.Sprintf("%s_%s_raw", prefix, mode)
}

// Client queries the NetworkCalc v1 API. The API is unauthenticated.
type Client struct {
	fetcher *fetch.Client
	baseURL string
}

// NewClient creates a NetworkCalc API client rooted at baseURL.
func NewClient(fetcher *fetch.Client, baseURL string) *Client {
	return &Client{
		fetcher: fetcher,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// Lookup fetches one input through the endpoint for the given concrete mode.
// The raw JSON object is returned exactly as the API provided it.
func (c *Client) Lookup(ctx context.Context, mode, input string) (map[string]interface{}, error) {
	endpoint, err := endpointFor(mode, input)
	if err != nil {
		return nil, err
	}
	return c.fetcher.GetJSON(ctx, fetch.Request{
		Source: mode,
		Input:  input,
		URL:    c.baseURL + endpoint,
	})
}

// endpointFor builds the API path for one lookup. The input is interpolated
// as-is: a CIDR's slash must stay a literal path separator for the subnet
// endpoint to parse it.
func endpointFor(mode, input string) (string, error) {
	switch mode {
	case ModeIP:
		return "/ip/" + input, nil
	case ModeBinary:
		return "/binary/" + input, nil
	case ModeCertificate:
		return "/security/certificate/" + input, nil
	default:
		return "", fmt.Errorf("unknown lookup mode %q", mode)
	}
}
