// Package iplog looks up geolocation data for client addresses via
// ip-api.com, with a redis-backed cache in front of the rate-limited API.
package iplog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultBaseUrl = "http://ip-api.com/json"
	cacheKeyPrefix = "iplog:"
)

var (
	ErrPrivateAddress = errors.New("private address, lookup skipped")
	ErrNotFound       = errors.New("no data for address")
)

type Info struct {
	Country string `json:"country"`
	Region  string `json:"region"`
	City    string `json:"city"`
	Isp     string `json:"isp"`
	Org     string `json:"org"`
	As      string `json:"as"`
}

type Client struct {
	httpClient *http.Client
	redis      *redis.Client
	baseUrl    string
	cacheTTL   time.Duration
}

type Option func(*Client)

// WithBaseUrl overrides the lookup endpoint.
func WithBaseUrl(baseUrl string) Option {
	return func(c *Client) { c.baseUrl = baseUrl }
}

// NewClient creates a lookup client. rc may be nil, in which case every
// lookup goes straight to the API.
func NewClient(rc *redis.Client, cacheTTL time.Duration, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 3 * time.Second},
		redis:      rc,
		baseUrl:    defaultBaseUrl,
		cacheTTL:   cacheTTL,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

type apiResponse struct {
	Status     string `json:"status"`
	Country    string `json:"country"`
	RegionName string `json:"regionName"`
	City       string `json:"city"`
	Isp        string `json:"isp"`
	Org        string `json:"org"`
	As         string `json:"as"`
}

// Lookup resolves geolocation data for the given IP literal. Private,
// loopback, link-local, multicast and unspecified addresses are rejected
// without a network call.
func (c *Client) Lookup(ctx context.Context, ip string) (Info, error) {
	if parsed := net.ParseIP(ip); parsed != nil && isNonRoutable(parsed) {
		return Info{}, ErrPrivateAddress
	}

	if info, ok := c.fromCache(ctx, ip); ok {
		return info, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/%s", c.baseUrl, ip), nil)
	if err != nil {
		return Info{}, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Info{}, fmt.Errorf("lookup request failed: %w", err)
	}
	defer resp.Body.Close()

	var data apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return Info{}, fmt.Errorf("failed to decode lookup response: %w", err)
	}

	if data.Status == "fail" {
		return Info{}, ErrNotFound
	}

	info := Info{
		Country: data.Country,
		Region:  data.RegionName,
		City:    data.City,
		Isp:     data.Isp,
		Org:     data.Org,
		As:      data.As,
	}
	c.toCache(ctx, ip, info)

	return info, nil
}

func (c *Client) fromCache(ctx context.Context, ip string) (Info, bool) {
	if c.redis == nil {
		return Info{}, false
	}

	raw, err := c.redis.Get(ctx, cacheKeyPrefix+ip).Bytes()
	if err != nil {
		return Info{}, false
	}

	var info Info
	if err := json.Unmarshal(raw, &info); err != nil {
		return Info{}, false
	}

	return info, true
}

func (c *Client) toCache(ctx context.Context, ip string, info Info) {
	if c.redis == nil {
		return
	}

	raw, err := json.Marshal(info)
	if err != nil {
		return
	}

	// cache failures are not lookup failures
	c.redis.Set(ctx, cacheKeyPrefix+ip, raw, c.cacheTTL)
}

// reservedV4 is 240.0.0.0/4, reserved for future use and never routable.
var reservedV4 = &net.IPNet{IP: net.IPv4(240, 0, 0, 0), Mask: net.CIDRMask(4, 32)}

func isNonRoutable(ip net.IP) bool {
	return ip.IsPrivate() ||
		ip.IsLoopback() ||
		ip.IsLinkLocalUnicast() ||
		ip.IsLinkLocalMulticast() ||
		ip.IsMulticast() ||
		ip.IsUnspecified() ||
		reservedV4.Contains(ip)
}
