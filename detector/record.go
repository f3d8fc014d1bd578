package detector

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"

	"golang.org/x/net/idna"
	"golang.org/x/net/publicsuffix"
)

// ErrInvalidURL is returned when a submitted URL cannot be interpreted at all.
var ErrInvalidURL = errors.New("invalid URL")

// URLRecord is the parsed form of a submitted URL. It is built once per
// classification request and never modified afterwards.
type URLRecord struct {
	Raw               string
	Scheme            string
	Netloc            string // host[:port], lower-cased
	Host              string // hostname only, ASCII form
	RegistrableDomain string // eTLD+1, Host when it has no public suffix
	Path              string
}

// ParseURL splits raw into its components. Input without a scheme is parsed
// as if it were http so that bare domains still yield a host; the lexical
// indicators work on the trimmed input as submitted.
func ParseURL(raw string) (*URLRecord, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, fmt.Errorf("%w: empty input", ErrInvalidURL)
	}

	u, err := url.Parse(trimmed)
	if err == nil && u.Host == "" && !strings.Contains(trimmed, "://") {
		u, err = url.Parse("http://" + trimmed)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}

	host := strings.ToLower(u.Hostname())
	if host == "" {
		return nil, fmt.Errorf("%w: no host in %q", ErrInvalidURL, trimmed)
	}
	if ascii, err := idna.Lookup.ToASCII(host); err == nil && ascii != "" {
		host = ascii
	}

	return &URLRecord{
		Raw:               trimmed,
		Scheme:            strings.ToLower(u.Scheme),
		Netloc:            strings.ToLower(u.Host),
		Host:              host,
		RegistrableDomain: registrableDomain(host),
		Path:              u.Path,
	}, nil
}

func registrableDomain(host string) string {
	if net.ParseIP(host) != nil {
		return host
	}
	if d, err := publicsuffix.EffectiveTLDPlusOne(host); err == nil && d != "" {
		return d
	}
	return host
}
