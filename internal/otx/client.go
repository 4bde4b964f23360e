package otx

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/Ashfaaq98/intel-etl/internal/fetch"
)

// Source identifies this connector in documents, errors and log lines.
const Source = "otx"

// Client queries the AlienVault OTX v1 API.
type Client struct {
	fetcher *fetch.Client
	baseURL string
	apiKey  string
}

// NewClient creates an OTX API client rooted at baseURL.
func NewClient(fetcher *fetch.Client, baseURL, apiKey string) *Client {
	return &Client{
		fetcher: fetcher,
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
	}
}

// IPv4General fetches the "general" section for a single IPv4 indicator.
// The raw JSON object is returned exactly as the API provided it.
func (c *Client) IPv4General(ctx context.Context, ip string) (map[string]interface{}, error) {
	header := http.Header{}
	header.Set("X-OTX-API-KEY", c.apiKey)

	return c.fetcher.GetJSON(ctx, fetch.Request{
		Source: Source,
		Input:  ip,
		URL:    fmt.Sprintf("%s/indicators/IPv4/%s/general", c.baseURL, ip),
		Header: header,
	})
}
