package detector

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// GeoInfo is the owner and country of an IP address.
type GeoInfo struct {
	Org     string `json:"org"`
	Country string `json:"country"`
}

func (g GeoInfo) String() string {
	org, country := g.Org, g.Country
	if org == "" {
		org = "Unknown"
	}
	if country == "" {
		country = "Unknown"
	}
	return org + ", " + country
}

// GeoLocator resolves an IP to its owner and country.
type GeoLocator interface {
	Locate(ctx context.Context, ip string) (*GeoInfo, error)
}

// IPInfo queries ipinfo.io.
type IPInfo struct {
	BaseURL string
	Client  *http.Client
}

func NewIPInfo(timeout time.Duration) *IPInfo {
	return &IPInfo{
		BaseURL: "http://ipinfo.io",
		Client:  &http.Client{Timeout: timeout},
	}
}

func (g *IPInfo) Locate(ctx context.Context, ip string) (*GeoInfo, error) {
	if ip == "" {
		return nil, fmt.Errorf("geo: empty ip")
	}
	url := fmt.Sprintf("%s/%s/json", strings.TrimRight(g.BaseURL, "/"), ip)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("geo: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := g.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geo %s: %w", ip, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geo %s: %s", ip, resp.Status)
	}

	var info GeoInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("geo %s: decode: %w", ip, err)
	}
	return &info, nil
}
