package detector

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	whois "github.com/likexian/whois"
	parser "github.com/likexian/whois-parser"
)

// DefaultLookupTimeout bounds every individual network call.
const DefaultLookupTimeout = 5 * time.Second

const maxRedirects = 30

// FetchResult is what a live GET of the submitted URL produced.
type FetchResult struct {
	FinalURL string
	History  []string // URLs that answered with a redirect, in visit order
}

// Fetcher performs a best-effort GET following redirects.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (*FetchResult, error)
}

// WhoisRecord holds the registration dates of a domain. Registries sometimes
// report several dates for one field; the first one is authoritative.
type WhoisRecord struct {
	CreationDates   []time.Time
	ExpirationDates []time.Time
}

// Created returns the authoritative creation date.
func (r *WhoisRecord) Created() (time.Time, bool) {
	if r == nil || len(r.CreationDates) == 0 {
		return time.Time{}, false
	}
	return r.CreationDates[0], true
}

// Expires returns the authoritative expiration date.
func (r *WhoisRecord) Expires() (time.Time, bool) {
	if r == nil || len(r.ExpirationDates) == 0 {
		return time.Time{}, false
	}
	return r.ExpirationDates[0], true
}

// WhoisClient looks up registration data for a domain.
type WhoisClient interface {
	Lookup(ctx context.Context, domain string) (*WhoisRecord, error)
}

// Resolver maps a hostname to one IPv4 address.
type Resolver interface {
	ResolveIPv4(ctx context.Context, host string) (string, error)
}

// TLSProber reports the issuer organisation of the certificate served on :443.
type TLSProber interface {
	Issuer(ctx context.Context, host string) (string, error)
}

//
// LIVE FETCH
//

// HTTPFetcher follows redirects and records every hop.
type HTTPFetcher struct {
	Transport http.RoundTripper
	Timeout   time.Duration
}

func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	return &HTTPFetcher{Transport: http.DefaultTransport, Timeout: timeout}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) (*FetchResult, error) {
	var history []string
	client := &http.Client{
		Transport: f.Transport,
		Timeout:   f.Timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("stopped after %d redirects", maxRedirects)
			}
			history = history[:0]
			for _, r := range via {
				history = append(history, r.URL.String())
			}
			return nil
		},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024))
	_ = resp.Body.Close()

	return &FetchResult{
		FinalURL: resp.Request.URL.String(),
		History:  history,
	}, nil
}

//
// WHOIS LOOKUP
//

var whoisDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05Z",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02-Jan-2006",
	"2006.01.02",
	"02/01/2006",
}

// WhoisLookup queries public WHOIS servers.
type WhoisLookup struct {
	client *whois.Client
}

func NewWhoisLookup(timeout time.Duration) *WhoisLookup {
	c := whois.NewClient()
	c.SetTimeout(timeout)
	return &WhoisLookup{client: c}
}

func (w *WhoisLookup) Lookup(ctx context.Context, domain string) (*WhoisRecord, error) {
	type reply struct {
		raw string
		err error
	}
	ch := make(chan reply, 1)
	go func() {
		raw, err := w.client.Whois(domain)
		ch <- reply{raw, err}
	}()

	var raw string
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("whois %s: %w", domain, ctx.Err())
	case r := <-ch:
		if r.err != nil {
			return nil, fmt.Errorf("whois %s: %w", domain, r.err)
		}
		raw = r.raw
	}

	info, err := parser.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse whois %s: %w", domain, err)
	}
	if info.Domain == nil {
		return nil, fmt.Errorf("parse whois %s: no domain section", domain)
	}

	rec := &WhoisRecord{
		CreationDates:   parseWhoisDates(info.Domain.CreatedDate),
		ExpirationDates: parseWhoisDates(info.Domain.ExpirationDate),
	}
	if len(rec.CreationDates) == 0 && len(rec.ExpirationDates) == 0 {
		return nil, fmt.Errorf("whois %s: no usable dates", domain)
	}
	return rec, nil
}

// parseWhoisDates accepts a single date or a comma separated list of dates
// and keeps every value that parses, preserving order.
func parseWhoisDates(field string) []time.Time {
	var out []time.Time
	for _, part := range strings.Split(field, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		for _, l := range whoisDateLayouts {
			if t, err := time.Parse(l, part); err == nil {
				out = append(out, t)
				break
			}
		}
	}
	return out
}

//
// DNS
//

// DNSResolver resolves through the system resolver.
type DNSResolver struct {
	Resolver *net.Resolver
}

func (d *DNSResolver) ResolveIPv4(ctx context.Context, host string) (string, error) {
	r := d.Resolver
	if r == nil {
		r = net.DefaultResolver
	}
	ips, err := r.LookupIP(ctx, "ip4", host)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", host, err)
	}
	if len(ips) == 0 {
		return "", fmt.Errorf("resolve %s: no IPv4 address", host)
	}
	return ips[0].String(), nil
}

//
// TLS
//

// TLSProbe dials :443 with certificate verification enabled.
type TLSProbe struct {
	Timeout time.Duration
	Port    string
	RootCAs *x509.CertPool // nil uses the system pool
}

func (p *TLSProbe) Issuer(ctx context.Context, host string) (string, error) {
	port := p.Port
	if port == "" {
		port = "443"
	}
	d := &tls.Dialer{
		NetDialer: &net.Dialer{Timeout: p.Timeout},
		Config:    &tls.Config{ServerName: host, RootCAs: p.RootCAs},
	}
	conn, err := d.DialContext(ctx, "tcp", net.JoinHostPort(host, port))
	if err != nil {
		return "", fmt.Errorf("tls %s: %w", host, err)
	}
	defer conn.Close()

	tlsConn, ok := conn.(*tls.Conn)
	if !ok {
		return "", errors.New("tls: unexpected connection type")
	}
	certs := tlsConn.ConnectionState().PeerCertificates
	if len(certs) == 0 {
		return "", fmt.Errorf("tls %s: no peer certificate", host)
	}
	if org := certs[0].Issuer.Organization; len(org) > 0 && org[0] != "" {
		return org[0], nil
	}
	return "Unknown", nil
}
