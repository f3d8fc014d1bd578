package detector

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const safeBrowsingURL = "https://safebrowsing.googleapis.com/v4/threatMatches:find"

var safeBrowsingThreatTypes = []string{
	"MALWARE",
	"SOCIAL_ENGINEERING",
	"UNWANTED_SOFTWARE",
	"POTENTIALLY_HARMFUL_APPLICATION",
}

// ThreatLookup asks a threat intelligence service about one URL. It is
// advisory: any failure must answer false.
type ThreatLookup interface {
	Flagged(ctx context.Context, url string) bool
}

// SafeBrowsing is a ThreatLookup backed by the Google Safe Browsing v4 API.
type SafeBrowsing struct {
	APIKey   string
	Endpoint string
	Client   *http.Client
	Timeout  time.Duration
	Limiter  *rate.Limiter
	Log      logrus.FieldLogger
}

// NewSafeBrowsing builds a client allowing at most rps requests per second.
// rps <= 0 disables throttling.
func NewSafeBrowsing(apiKey string, timeout time.Duration, rps float64, log logrus.FieldLogger) *SafeBrowsing {
	var limiter *rate.Limiter
	if rps > 0 {
		limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
	return &SafeBrowsing{
		APIKey:   apiKey,
		Endpoint: safeBrowsingURL,
		Client:   &http.Client{Timeout: timeout},
		Timeout:  timeout,
		Limiter:  limiter,
		Log:      log,
	}
}

type sbClient struct {
	ClientID      string `json:"clientId"`
	ClientVersion string `json:"clientVersion"`
}

type sbEntry struct {
	URL string `json:"url"`
}

type sbThreatInfo struct {
	ThreatTypes      []string  `json:"threatTypes"`
	PlatformTypes    []string  `json:"platformTypes"`
	ThreatEntryTypes []string  `json:"threatEntryTypes"`
	ThreatEntries    []sbEntry `json:"threatEntries"`
}

type sbRequest struct {
	Client     sbClient     `json:"client"`
	ThreatInfo sbThreatInfo `json:"threatInfo"`
}

type sbResponse struct {
	Matches []json.RawMessage `json:"matches"`
}

func (s *SafeBrowsing) Flagged(ctx context.Context, url string) bool {
	log := s.logger().WithFields(logrus.Fields{"component": "safebrowsing", "url": url})
	if s.APIKey == "" {
		log.Debug("[SafeBrowsing] API key missing, skipping lookup")
		return false
	}

	timeout := s.Timeout
	if timeout <= 0 {
		timeout = DefaultLookupTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if s.Limiter != nil {
		if err := s.Limiter.Wait(ctx); err != nil {
			log.Warnf("[SafeBrowsing] throttled: %v", err)
			return false
		}
	}

	body, err := json.Marshal(sbRequest{
		Client: sbClient{ClientID: "phishing-detector", ClientVersion: "1.0"},
		ThreatInfo: sbThreatInfo{
			ThreatTypes:      safeBrowsingThreatTypes,
			PlatformTypes:    []string{"ANY_PLATFORM"},
			ThreatEntryTypes: []string{"URL"},
			ThreatEntries:    []sbEntry{{URL: url}},
		},
	})
	if err != nil {
		log.Warnf("[SafeBrowsing] marshal request: %v", err)
		return false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.Endpoint, bytes.NewReader(body))
	if err != nil {
		log.Warnf("[SafeBrowsing] build request: %v", err)
		return false
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Goog-Api-Key", s.APIKey)

	client := s.Client
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	resp, err := client.Do(req)
	if err != nil {
		log.Warnf("[SafeBrowsing] check failed: %v", err)
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Warnf("[SafeBrowsing] unexpected status %s", resp.Status)
		return false
	}

	var out sbResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		log.Warnf("[SafeBrowsing] decode response: %v", err)
		return false
	}
	if len(out.Matches) > 0 {
		log.Info("[SafeBrowsing] threat match found")
		return true
	}
	return false
}

func (s *SafeBrowsing) logger() logrus.FieldLogger {
	if s.Log == nil {
		return logrus.StandardLogger()
	}
	return s.Log
}
