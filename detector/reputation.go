package detector

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Always-safe domains. A host matches when it equals an entry or is a
// subdomain of one.
var defaultAllowlist = []string{
	"netflix.com", "youtube.com", "youtu.be", "google.com", "gmail.com",
	"github.com", "openai.com", "wikipedia.org", "microsoft.com", "apple.com",
	"facebook.com", "instagram.com", "twitter.com", "linkedin.com",
	"amazon.com", "primevideo.com", "disneyplus.com", "hbo.com", "spotify.com",
	"paypal.com", "bankofamerica.com", "chase.com", "wellsfargo.com", "hsbc.com",
	"icicibank.com", "sbi.co.in", "hdfcbank.com", "axisbank.com", "kotak.com",
}

// Piracy brands and generic phishing patterns. A host matches when it
// contains an entry anywhere.
var defaultDenylist = []string{
	"movierulz", "ibomma", "tamilrockers", "filmyzilla",
	"123movies", "gomovies", "yesmovies", "fmovies", "putlocker", "solarmovie",
	"katmoviehd", "worldfree4u", "hdhub4u", "skymovieshd", "extramovies",
	"moviescounter", "9xmovies", "7starhd", "bolly4u", "desiremovies",
	"downloadhub", "vegamovies", "flixhd", "okjatt", "jiorockers", "mkvcinemas",

	// generic phishing patterns
	"secure-login", "login-verify", "update-account", "confirm-password",
	"reset-banking", "verify-now", "id-verification", "confirm-identity",
	"security-check", "update-required", "2fa-bypass", "fake-login",
	"support-team", "alert-notification", "account-suspended",
}

// Lists holds the static allow and deny rules. It is built once at start-up
// and only read afterwards.
type Lists struct {
	Allow []string
	Deny  []string
}

// DefaultLists returns the built-in rule sets.
func DefaultLists() *Lists {
	return NewLists(defaultAllowlist, defaultDenylist)
}

// NewLists normalises entries to lower case and drops blanks.
func NewLists(allow, deny []string) *Lists {
	return &Lists{Allow: normalizeEntries(allow), Deny: normalizeEntries(deny)}
}

// LoadLists reads a YAML file with optional "allowlist" and "denylist"
// sequences. A section that is absent keeps the built-in entries.
func LoadLists(path string) (*Lists, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read lists file: %w", err)
	}
	var raw struct {
		Allow *[]string `yaml:"allowlist"`
		Deny  *[]string `yaml:"denylist"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse lists file %s: %w", path, err)
	}

	allow, deny := defaultAllowlist, defaultDenylist
	if raw.Allow != nil {
		allow = *raw.Allow
	}
	if raw.Deny != nil {
		deny = *raw.Deny
	}
	return NewLists(allow, deny), nil
}

// IsWhitelisted reports whether domain is, or is a subdomain of, an allowed
// domain.
func (l *Lists) IsWhitelisted(domain string) bool {
	domain = strings.ToLower(domain)
	for _, d := range l.Allow {
		if domain == d || strings.HasSuffix(domain, "."+d) {
			return true
		}
	}
	return false
}

// IsBlacklisted reports whether domain contains any denied keyword.
func (l *Lists) IsBlacklisted(domain string) bool {
	domain = strings.ToLower(domain)
	for _, d := range l.Deny {
		if strings.Contains(domain, d) {
			return true
		}
	}
	return false
}

func normalizeEntries(in []string) []string {
	out := make([]string, 0, len(in))
	for _, e := range in {
		e = strings.ToLower(strings.TrimSpace(e))
		if e != "" {
			out = append(out, e)
		}
	}
	return out
}
