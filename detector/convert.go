package detector

import (
	"regexp"
	"strings"
)

// Domains the normaliser always treats as safe, matched anywhere in the URL.
var convertSafeDomains = []string{
	"youtube.com", "youtu.be", "google.com", "github.com", "openai.com",
	"wikipedia.org", "microsoft.com", "apple.com",
}

var shortenerPattern = regexp.MustCompile(`(?i)bit\.ly|goo\.gl|shorte\.st|go2l\.ink|x\.co|ow\.ly|t\.co|tinyurl|tr\.im|is\.gd|cli\.gs|` +
	`yfrog\.com|migre\.me|ff\.im|tiny\.cc|url4\.eu|twit\.ac|su\.pr|twurl\.nl|snipurl\.com|` +
	`short\.to|BudURL\.com|ping\.fm|post\.ly|Just\.as|bkite\.com|snipr\.com|fic\.kr|loopt\.us|` +
	`doiop\.com|short\.ie|kl\.am|wp\.me|rubyurl\.com|om\.ly|to\.ly|bit\.do|lnkd\.in|` +
	`db\.tt|qr\.ae|adf\.ly|bitly\.com|cur\.lv|tinyurl\.com|ity\.im|q\.gs|po\.st|bc\.vc|` +
	`twitthis\.com|u\.to|j\.mp|buzurl\.com|cutt\.us|u\.bb|yourls\.org|prettylinkpro\.com|` +
	`scrnch\.me|filoops\.info|vzturl\.com|qr\.net|1url\.com|tweez\.me|v\.gd|link\.zip\.net`)

// Shortcuts are the extraction signals Convert uses to phrase its headline.
type Shortcuts struct {
	RedirectCount int
	IsIP          bool
	HasHTTPS      bool
}

// IsShortLink reports whether raw matches a known URL shortener.
func IsShortLink(raw string) bool {
	return shortenerPattern.MatchString(raw)
}

// Convert turns a raw classifier prediction into a status and headline,
// overriding it for well-known safe domains and URL shorteners.
func Convert(raw string, prediction Indicator, sc Shortcuts) (Status, string) {
	for _, d := range convertSafeDomains {
		if strings.Contains(raw, d) {
			return StatusSafe, "Whitelisted domain"
		}
	}

	short := IsShortLink(raw)
	if prediction == Risky || short {
		var bits []string
		if short {
			bits = append(bits, "URL shortener detected")
		}
		if sc.RedirectCount > 1 {
			bits = append(bits, "multiple redirects")
		}
		if sc.IsIP {
			bits = append(bits, "raw IP used")
		}
		if len(bits) == 0 {
			return StatusPhishing, "Flagged by ML model"
		}
		return StatusPhishing, strings.Join(bits, " / ")
	}

	if !sc.HasHTTPS && sc.RedirectCount > 1 {
		return StatusSafe, "Non-HTTPS with redirects (monitor)"
	}
	return StatusSafe, "No major red flags"
}
