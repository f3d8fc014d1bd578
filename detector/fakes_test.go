package detector

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/sirupsen/logrus"
)

var errLookup = errors.New("lookup failed")

var fixedNow = time.Date(2026, time.October, 15, 12, 0, 0, 0, time.UTC)

type fakeFetcher struct {
	res *FetchResult
	err error
}

func (f *fakeFetcher) Fetch(ctx context.Context, rawURL string) (*FetchResult, error) {
	return f.res, f.err
}

type fakeWhois struct {
	rec *WhoisRecord
	err error
}

func (f *fakeWhois) Lookup(ctx context.Context, domain string) (*WhoisRecord, error) {
	return f.rec, f.err
}

type fakeResolver struct {
	ip  string
	err error
}

func (f *fakeResolver) ResolveIPv4(ctx context.Context, host string) (string, error) {
	return f.ip, f.err
}

type fakeTLS struct {
	issuer string
	err    error
}

func (f *fakeTLS) Issuer(ctx context.Context, host string) (string, error) {
	return f.issuer, f.err
}

type fakeGeo struct {
	info *GeoInfo
	err  error
}

func (f *fakeGeo) Locate(ctx context.Context, ip string) (*GeoInfo, error) {
	return f.info, f.err
}

type fakeThreats struct {
	flagged bool
	calls   int
}

func (f *fakeThreats) Flagged(ctx context.Context, url string) bool {
	f.calls++
	return f.flagged
}

type fakeClassifier struct {
	label Indicator
	err   error
	calls int
}

func (f *fakeClassifier) Predict(v FeatureVector) (Indicator, error) {
	f.calls++
	return f.label, f.err
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// failingExtractor has every external lookup fail.
func failingExtractor() *Extractor {
	return &Extractor{
		Fetcher:  &fakeFetcher{err: errLookup},
		Whois:    &fakeWhois{err: errLookup},
		Resolver: &fakeResolver{err: errLookup},
		TLS:      &fakeTLS{err: errLookup},
		Geo:      &fakeGeo{err: errLookup},
		Timeout:  time.Second,
		Log:      quietLogger(),
		Now:      func() time.Time { return fixedNow },
	}
}

// healthyExtractor answers every lookup for an old, well-kept domain.
func healthyExtractor() *Extractor {
	return &Extractor{
		Fetcher: &fakeFetcher{res: &FetchResult{FinalURL: "https://example.org/"}},
		Whois: &fakeWhois{rec: &WhoisRecord{
			CreationDates:   []time.Time{time.Date(2010, time.March, 1, 0, 0, 0, 0, time.UTC)},
			ExpirationDates: []time.Time{time.Date(2029, time.March, 1, 0, 0, 0, 0, time.UTC)},
		}},
		Resolver: &fakeResolver{ip: "93.184.216.34"},
		TLS:      &fakeTLS{issuer: "DigiCert Inc"},
		Geo:      &fakeGeo{info: &GeoInfo{Org: "AS15133 Edgecast", Country: "US"}},
		Timeout:  time.Second,
		Log:      quietLogger(),
		Now:      func() time.Time { return fixedNow },
	}
}
