// Package catalog is a read-only client for the Apple Music catalog API.
package catalog

import (
	"net/http"
	"time"
)

const defaultBaseURL = "https://api.music.apple.com"

// Client calls the Apple Music catalog API with a bearer developer token.
type Client struct {
	baseURL    string
	storefront string
	httpClient *http.Client
}

// NewClient creates a catalog client for the given storefront.
func NewClient(storefront string) *Client {
	return &Client{
		baseURL:    defaultBaseURL,
		storefront: storefront,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// SetBaseURL overrides the API base URL.
func (c *Client) SetBaseURL(url string) {
	c.baseURL = url
}

// SetTimeout overrides the request timeout.
func (c *Client) SetTimeout(timeout time.Duration) {
	c.httpClient.Timeout = timeout
}
