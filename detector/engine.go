package detector

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// Status is the final classification of a URL.
type Status string

const (
	StatusSafe     Status = "Safe"
	StatusPhishing Status = "Phishing"
	StatusUnknown  Status = "Unknown"
)

// Verdict is produced once per request and never changed afterwards.
type Verdict struct {
	Status   Status   `json:"status"`
	Headline string   `json:"headline"`
	Reasons  []string `json:"reasons"`
}

// Analysis is a verdict together with the signals that support it.
type Analysis struct {
	URL             string         `json:"url"`
	Verdict         Verdict        `json:"verdict"`
	Features        []NamedFeature `json:"features"`
	SSLInfo         string         `json:"ssl_info"`
	DomainAgeMonths int            `json:"domain_age_months"`
	Location        string         `json:"location"`
	RiskScore       float64        `json:"risk_score"`
	Redirects       []string       `json:"redirects"`
	Timestamp       string         `json:"timestamp"`
}

// EngineConfig is everything the engine reads. It is assembled once at
// start-up; Threats and Classifier may be nil.
type EngineConfig struct {
	Lists         *Lists
	Extractor     FeatureExtractor
	Threats       ThreatLookup
	Classifier    Classifier
	RiskThreshold float64
	Log           logrus.FieldLogger
}

// Engine applies the precedence chain. It holds no per-request state and is
// safe for concurrent use.
type Engine struct {
	cfg EngineConfig
}

func NewEngine(cfg EngineConfig) *Engine {
	if cfg.Lists == nil {
		cfg.Lists = DefaultLists()
	}
	if cfg.RiskThreshold <= 0 {
		cfg.RiskThreshold = DefaultRiskThreshold
	}
	if cfg.Log == nil {
		cfg.Log = logrus.StandardLogger()
	}
	if cfg.Extractor == nil {
		cfg.Extractor = NewExtractor(DefaultLookupTimeout, cfg.Log)
	}
	return &Engine{cfg: cfg}
}

// Classify parses raw, extracts its features once and runs the precedence
// chain. Only a URL that cannot be parsed returns an error.
func (e *Engine) Classify(ctx context.Context, raw string) (*Analysis, error) {
	rec, err := ParseURL(raw)
	if err != nil {
		return nil, fmt.Errorf("analyze url: %w", err)
	}

	f := e.cfg.Extractor.Extract(ctx, rec)
	verdict := e.Decide(ctx, f)

	e.cfg.Log.WithFields(logrus.Fields{
		"url":        rec.Raw,
		"status":     verdict.Status,
		"risk_score": f.RiskScore,
	}).Infof("[Engine] %s", verdict.Headline)

	return &Analysis{
		URL:             rec.Raw,
		Verdict:         verdict,
		Features:        f.Vector.Named(),
		SSLInfo:         f.SSLInfo,
		DomainAgeMonths: f.DomainAgeMonths,
		Location:        f.Location,
		RiskScore:       f.RiskScore,
		Redirects:       f.RedirectChain,
		Timestamp:       time.Now().Format(time.RFC3339),
	}, nil
}

// Decide walks the stages in order and stops at the first conclusive one:
// allowlist, denylist, abnormal keyword, risk score, threat lookup,
// classifier. Nothing conclusive yields StatusUnknown.
func (e *Engine) Decide(ctx context.Context, f *Features) Verdict {
	v := Verdict{Status: StatusUnknown, Headline: "Analysis", Reasons: f.Reasons}
	host := f.Record.Host

	switch {
	case e.cfg.Lists.IsWhitelisted(host):
		v.Status, v.Headline = StatusSafe, "Whitelisted domain"
	case e.cfg.Lists.IsBlacklisted(host):
		v.Status, v.Headline = StatusPhishing, "Flagged by blacklist keywords"
	case f.Vector[slotAbnormalURL] == Risky:
		v.Status, v.Headline = StatusPhishing, "Suspicious keyword detected"
	case f.RiskScore >= e.cfg.RiskThreshold:
		v.Status, v.Headline = StatusPhishing, fmt.Sprintf("High risk score: %g%%", f.RiskScore)
	case e.cfg.Threats != nil && e.cfg.Threats.Flagged(ctx, f.Record.Raw):
		v.Status, v.Headline = StatusPhishing, "Flagged by Google Safe Browsing"
	case e.cfg.Classifier != nil:
		label, err := e.cfg.Classifier.Predict(f.Vector)
		if err != nil {
			e.cfg.Log.WithField("url", f.Record.Raw).Warnf("[Classifier] prediction skipped: %v", err)
			break
		}
		v.Headline = "AI-based classification"
		v.Status = StatusPhishing
		if label == Benign {
			v.Status = StatusSafe
		}
		// The normaliser may disagree with the model; its note is only kept
		// when it backs the model's label.
		if status, note := Convert(f.Record.Raw, label, f.Shortcuts()); status == v.Status {
			v.Reasons = append([]string{note}, v.Reasons...)
		}
	}
	return v
}
