package detector

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Indicator is a signed feature value: Benign leans safe, Risky leans phishing.
type Indicator int

const (
	Risky  Indicator = -1
	Benign Indicator = 1
)

// FeatureCount is the width of the classifier input.
const FeatureCount = 30

// FeatureVector is the classifier input. Slot order is part of the model
// contract and must not change.
type FeatureVector [FeatureCount]Indicator

const (
	slotUsingIP = iota
	slotLongURL
	slotShortURL
	slotSymbolAt
	slotRedirecting
	slotPrefixSuffix
	slotSubDomains
	slotHTTPS
	slotDomainRegLen
	slotFavicon
	slotNonStdPort
	slotHTTPSDomainURL
	slotRequestURL
	slotAnchorURL
	slotLinksInScriptTags
	slotServerFormHandler
	slotInfoEmail
	slotAbnormalURL
	slotWebsiteForwarding
	slotStatusBarCust
	slotDisableRightClick
	slotUsingPopupWindow
	slotIframeRedirection
	slotAgeOfDomain
	slotDNSRecording
	slotWebsiteTraffic
	slotPageRank
	slotGoogleIndex
	slotLinksPointingToPage
	slotStatsReport
)

// FeatureNames labels each slot of a FeatureVector.
var FeatureNames = [FeatureCount]string{
	"UsingIP",
	"LongURL",
	"ShortURL",
	"SymbolAt",
	"Redirecting",
	"PrefixSuffix",
	"SubDomains",
	"HTTPS",
	"DomainRegLen",
	"Favicon",
	"NonStdPort",
	"HTTPSDomainURL",
	"RequestURL",
	"AnchorURL",
	"LinksInScriptTags",
	"ServerFormHandler",
	"InfoEmail",
	"AbnormalURL",
	"WebsiteForwarding",
	"StatusBarCust",
	"DisableRightClick",
	"UsingPopupWindow",
	"IframeRedirection",
	"AgeOfDomain",
	"DNSRecording",
	"WebsiteTraffic",
	"PageRank",
	"GoogleIndex",
	"LinksPointingToPage",
	"StatsReport",
}

// NamedFeature pairs a slot name with its value for display.
type NamedFeature struct {
	Name  string    `json:"name"`
	Value Indicator `json:"value"`
}

func (v FeatureVector) Named() []NamedFeature {
	out := make([]NamedFeature, FeatureCount)
	for i, val := range v {
		out[i] = NamedFeature{Name: FeatureNames[i], Value: val}
	}
	return out
}

// RiskyCount returns how many slots lean phishing.
func (v FeatureVector) RiskyCount() int {
	n := 0
	for _, val := range v {
		if val == Risky {
			n++
		}
	}
	return n
}

var (
	ipv4Pattern      = regexp.MustCompile(`(\d{1,3}\.){3}\d{1,3}`)
	shorteners       = []string{"bit.ly", "goo.gl", "tinyurl", "t.co"}
	abnormalKeywords = []string{"secure", "login", "verify", "update", "account", "confirm"}
)

const (
	longURLLength     = 75
	minDomainAgeMonth = 6
)

// Features is the outcome of one extraction: the vector plus the auxiliary
// signals shown next to the verdict.
type Features struct {
	Record          *URLRecord
	Vector          FeatureVector
	RiskScore       float64
	DomainAgeMonths int
	SSLInfo         string
	Location        string
	RedirectChain   []string
	Reasons         []string
}

// Shortcuts summarises the signals the final-decision normaliser cares about.
func (f *Features) Shortcuts() Shortcuts {
	// The chain ends with the final URL, which is not a redirect.
	return Shortcuts{
		RedirectCount: max(len(f.RedirectChain)-1, 0),
		IsIP:          f.Vector[slotUsingIP] == Risky,
		HasHTTPS:      f.Vector[slotHTTPS] == Benign,
	}
}

// indicatorResult is an indicator that depends on external data. err is set
// when that data could not be obtained.
type indicatorResult struct {
	value Indicator
	err   error
}

// defaultOnError is the value each external-data indicator takes when its
// lookup failed. Missing WHOIS data counts against the domain; a failed fetch
// leaves nothing to judge, so it does not.
var defaultOnError = map[int]Indicator{
	slotDomainRegLen:      Risky,
	slotAgeOfDomain:       Risky,
	slotWebsiteForwarding: Benign,
}

var errNotConfigured = errors.New("provider not configured")

// FeatureExtractor turns a parsed URL into Features. Implementations must be
// total: lookup failures degrade individual signals, never the whole call.
type FeatureExtractor interface {
	Extract(ctx context.Context, rec *URLRecord) *Features
}

// Extractor is the production FeatureExtractor. Nil providers behave as if
// their lookup failed.
type Extractor struct {
	Fetcher  Fetcher
	Whois    WhoisClient
	Resolver Resolver
	TLS      TLSProber
	Geo      GeoLocator
	Timeout  time.Duration
	Log      logrus.FieldLogger
	Now      func() time.Time
}

// NewExtractor wires the network-backed providers.
func NewExtractor(timeout time.Duration, log logrus.FieldLogger) *Extractor {
	return &Extractor{
		Fetcher:  NewHTTPFetcher(timeout),
		Whois:    NewWhoisLookup(timeout),
		Resolver: &DNSResolver{},
		TLS:      &TLSProbe{Timeout: timeout},
		Geo:      NewIPInfo(timeout),
		Timeout:  timeout,
		Log:      log,
	}
}

type lookups struct {
	fetch    *FetchResult
	fetchErr error
	whois    *WhoisRecord
	whoisErr error
	ssl      string
	location string
}

func (e *Extractor) Extract(ctx context.Context, rec *URLRecord) *Features {
	log := e.logger().WithFields(logrus.Fields{"component": "extractor", "url": rec.Raw})
	lk := e.lookup(ctx, rec, log)
	now := e.now()

	f := &Features{
		Record:          rec,
		Vector:          lexicalVector(rec),
		DomainAgeMonths: -1,
		SSLInfo:         lk.ssl,
		Location:        lk.location,
		RedirectChain:   []string{},
	}

	external := map[int]indicatorResult{
		slotDomainRegLen:      regLenIndicator(lk.whois, lk.whoisErr, now),
		slotAgeOfDomain:       ageIndicator(lk.whois, lk.whoisErr, now),
		slotWebsiteForwarding: forwardingIndicator(lk.fetch, lk.fetchErr),
	}
	applyExternal(&f.Vector, external, log)

	if lk.whoisErr == nil {
		if created, ok := lk.whois.Created(); ok {
			f.DomainAgeMonths = monthsBetween(created, now)
		}
	}
	if lk.fetchErr == nil && lk.fetch != nil && len(lk.fetch.History) > 0 {
		f.RedirectChain = append(append(f.RedirectChain, lk.fetch.History...), lk.fetch.FinalURL)
	}

	f.RiskScore = RiskScore(rec.Raw, f.Vector)
	f.Reasons = Reasons(f.Vector)
	return f
}

// applyExternal folds external indicator results into v, substituting the
// per-slot default for every failed lookup.
func applyExternal(v *FeatureVector, results map[int]indicatorResult, log logrus.FieldLogger) {
	for slot, r := range results {
		if r.err != nil {
			v[slot] = defaultOnError[slot]
			log.WithField("feature", FeatureNames[slot]).Debugf("[Features] lookup failed, using default %d: %v", v[slot], r.err)
			continue
		}
		v[slot] = r.value
	}
}

// lookup runs every network-bound call concurrently. Goroutines never return
// an error so one failing lookup cannot cancel its siblings.
func (e *Extractor) lookup(ctx context.Context, rec *URLRecord, log logrus.FieldLogger) lookups {
	lk := lookups{ssl: "No valid SSL certificate", location: "Unknown"}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if e.Fetcher == nil {
			lk.fetchErr = errNotConfigured
			return nil
		}
		cctx, cancel := context.WithTimeout(gctx, e.timeout())
		defer cancel()
		lk.fetch, lk.fetchErr = e.Fetcher.Fetch(cctx, rec.Raw)
		return nil
	})

	g.Go(func() error {
		if e.Whois == nil {
			lk.whoisErr = errNotConfigured
			return nil
		}
		cctx, cancel := context.WithTimeout(gctx, e.timeout())
		defer cancel()
		lk.whois, lk.whoisErr = e.Whois.Lookup(cctx, rec.RegistrableDomain)
		if lk.whoisErr == nil && lk.whois == nil {
			lk.whoisErr = errors.New("empty whois record")
		}
		return nil
	})

	g.Go(func() error {
		if e.TLS == nil {
			return nil
		}
		cctx, cancel := context.WithTimeout(gctx, e.timeout())
		defer cancel()
		issuer, err := e.TLS.Issuer(cctx, rec.Host)
		if err != nil {
			log.Debugf("[SSL] probe failed: %v", err)
			return nil
		}
		lk.ssl = "Valid SSL issued by " + issuer
		return nil
	})

	g.Go(func() error {
		if e.Resolver == nil || e.Geo == nil {
			return nil
		}
		rctx, cancel := context.WithTimeout(gctx, e.timeout())
		ip, err := e.Resolver.ResolveIPv4(rctx, rec.Host)
		cancel()
		if err != nil {
			log.Debugf("[Geo] resolve failed: %v", err)
			return nil
		}
		lctx, cancel := context.WithTimeout(gctx, e.timeout())
		defer cancel()
		geo, err := e.Geo.Locate(lctx, ip)
		if err != nil {
			log.Debugf("[Geo] lookup failed: %v", err)
			return nil
		}
		lk.location = geo.String()
		return nil
	})

	_ = g.Wait()
	return lk
}

func (e *Extractor) timeout() time.Duration {
	if e.Timeout <= 0 {
		return DefaultLookupTimeout
	}
	return e.Timeout
}

func (e *Extractor) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e *Extractor) logger() logrus.FieldLogger {
	if e.Log == nil {
		return logrus.StandardLogger()
	}
	return e.Log
}

//
// STRING / URL SHAPE
//

// lexicalVector fills every slot that needs nothing but the URL itself.
// External-data slots start Benign and are overwritten by applyExternal.
func lexicalVector(rec *URLRecord) FeatureVector {
	var v FeatureVector
	for i := range v {
		v[i] = Benign
	}
	raw := rec.Raw
	lower := strings.ToLower(raw)

	v[slotUsingIP] = riskyIf(ipv4Pattern.MatchString(raw))
	v[slotLongURL] = riskyIf(len(raw) >= longURLLength)
	v[slotShortURL] = riskyIf(containsAny(raw, shorteners))
	v[slotSymbolAt] = riskyIf(strings.Contains(raw, "@"))
	v[slotRedirecting] = riskyIf(strings.Count(raw, "//") > 1)
	v[slotPrefixSuffix] = riskyIf(strings.Contains(rec.Netloc, "-"))
	v[slotSubDomains] = riskyIf(strings.Count(rec.Netloc, ".") > 2)
	v[slotHTTPS] = riskyIf(!strings.HasPrefix(raw, "https://"))
	v[slotInfoEmail] = riskyIf(strings.Contains(raw, "mailto:"))
	v[slotAbnormalURL] = riskyIf(containsAny(lower, abnormalKeywords))
	return v
}

//
// WHOIS / FETCH DERIVED
//

func regLenIndicator(rec *WhoisRecord, err error, now time.Time) indicatorResult {
	if err != nil {
		return indicatorResult{err: err}
	}
	exp, ok := rec.Expires()
	if !ok {
		return indicatorResult{err: errors.New("no expiration date")}
	}
	return indicatorResult{value: riskyIf(exp.Year()-now.Year() < 1)}
}

func ageIndicator(rec *WhoisRecord, err error, now time.Time) indicatorResult {
	if err != nil {
		return indicatorResult{err: err}
	}
	created, ok := rec.Created()
	if !ok {
		return indicatorResult{err: errors.New("no creation date")}
	}
	return indicatorResult{value: riskyIf(monthsBetween(created, now) < minDomainAgeMonth)}
}

func forwardingIndicator(res *FetchResult, err error) indicatorResult {
	if err != nil {
		return indicatorResult{err: err}
	}
	if res == nil {
		return indicatorResult{err: errors.New("empty fetch result")}
	}
	return indicatorResult{value: riskyIf(len(res.History) > 2)}
}

func monthsBetween(from, to time.Time) int {
	return (to.Year()-from.Year())*12 + int(to.Month()) - int(from.Month())
}

func riskyIf(cond bool) Indicator {
	if cond {
		return Risky
	}
	return Benign
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
