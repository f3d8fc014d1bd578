package detector

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

func newTestEngine(ex FeatureExtractor, threats ThreatLookup, c Classifier) *Engine {
	cfg := EngineConfig{Extractor: ex, Threats: threats, Classifier: c, Log: quietLogger()}
	return NewEngine(cfg)
}

func classify(t *testing.T, e *Engine, raw string) *Analysis {
	t.Helper()
	a, err := e.Classify(context.Background(), raw)
	if err != nil {
		t.Fatalf("Classify(%q): %v", raw, err)
	}
	return a
}

func TestClassifyWhitelisted(t *testing.T) {
	a := classify(t, newTestEngine(failingExtractor(), nil, nil), "https://github.com")
	if a.Verdict.Status != StatusSafe || a.Verdict.Headline != "Whitelisted domain" {
		t.Fatalf("verdict = %+v", a.Verdict)
	}
	if len(a.Features) != FeatureCount {
		t.Fatalf("features length %d", len(a.Features))
	}
}

func TestWhitelistDominates(t *testing.T) {
	threats := &fakeThreats{flagged: true}
	model := &fakeClassifier{label: Risky}
	e := newTestEngine(failingExtractor(), threats, model)

	a := classify(t, e, "https://login.github.com/verify-account")
	if a.Verdict.Status != StatusSafe || a.Verdict.Headline != "Whitelisted domain" {
		t.Fatalf("verdict = %+v", a.Verdict)
	}
	if threats.calls != 0 || model.calls != 0 {
		t.Fatalf("later stages consulted: threats=%d classifier=%d", threats.calls, model.calls)
	}
}

func TestClassifyBlacklisted(t *testing.T) {
	e := newTestEngine(failingExtractor(), nil, nil)
	for _, raw := range []string{"https://123movies.to", "https://fmovies.example.com"} {
		a := classify(t, e, raw)
		if a.Verdict.Status != StatusPhishing || a.Verdict.Headline != "Flagged by blacklist keywords" {
			t.Fatalf("%s: verdict = %+v", raw, a.Verdict)
		}
	}
}

func TestClassifySuspiciousKeyword(t *testing.T) {
	raw := "http://paypal-secure-login.verify-account.com"

	// The default denylist already carries "secure-login".
	a := classify(t, newTestEngine(failingExtractor(), nil, nil), raw)
	if a.Verdict.Headline != "Flagged by blacklist keywords" {
		t.Fatalf("default lists: verdict = %+v", a.Verdict)
	}

	e := NewEngine(EngineConfig{
		Lists:     NewLists(defaultAllowlist, []string{"123movies", "fmovies"}),
		Extractor: failingExtractor(),
		Log:       quietLogger(),
	})
	a = classify(t, e, raw)
	if a.Verdict.Status != StatusPhishing || a.Verdict.Headline != "Suspicious keyword detected" {
		t.Fatalf("piracy-only lists: verdict = %+v", a.Verdict)
	}
}

func TestClassifyHighRiskScore(t *testing.T) {
	a := classify(t, newTestEngine(failingExtractor(), nil, nil), "https://example.org")
	if a.Verdict.Status != StatusPhishing || a.Verdict.Headline != "High risk score: 6.67%" {
		t.Fatalf("verdict = %+v", a.Verdict)
	}
	if a.RiskScore != 6.67 {
		t.Fatalf("risk score = %v", a.RiskScore)
	}
}

func TestClassifyUnknown(t *testing.T) {
	threats := &fakeThreats{}
	e := NewEngine(EngineConfig{
		Extractor:     failingExtractor(),
		Threats:       threats,
		RiskThreshold: 10,
		Log:           quietLogger(),
	})
	a := classify(t, e, "https://example.org")
	if a.Verdict.Status != StatusUnknown || a.Verdict.Headline != "Analysis" {
		t.Fatalf("verdict = %+v", a.Verdict)
	}
	if threats.calls != 1 {
		t.Fatalf("threat lookup called %d times, want 1", threats.calls)
	}
	if a.SSLInfo != "No valid SSL certificate" || a.Location != "Unknown" || a.DomainAgeMonths != -1 {
		t.Fatalf("display defaults not applied: %+v", a)
	}
	if a.Redirects == nil || len(a.Redirects) != 0 {
		t.Fatalf("redirects = %#v, want empty", a.Redirects)
	}
}

func TestClassifySafeBrowsing(t *testing.T) {
	model := &fakeClassifier{label: Benign}
	a := classify(t, newTestEngine(healthyExtractor(), &fakeThreats{flagged: true}, model), "https://example.org")
	if a.Verdict.Status != StatusPhishing || a.Verdict.Headline != "Flagged by Google Safe Browsing" {
		t.Fatalf("verdict = %+v", a.Verdict)
	}
	if model.calls != 0 {
		t.Fatal("classifier consulted after a threat match")
	}
}

func TestClassifyModelBenign(t *testing.T) {
	a := classify(t, newTestEngine(healthyExtractor(), &fakeThreats{}, &fakeClassifier{label: Benign}), "https://example.org")
	if a.Verdict.Status != StatusSafe || a.Verdict.Headline != "AI-based classification" {
		t.Fatalf("verdict = %+v", a.Verdict)
	}
	want := []string{"No major red flags", "No major phishing signs detected"}
	if !reflect.DeepEqual(a.Verdict.Reasons, want) {
		t.Fatalf("reasons = %v, want %v", a.Verdict.Reasons, want)
	}
}

func TestClassifyModelRisky(t *testing.T) {
	a := classify(t, newTestEngine(healthyExtractor(), nil, &fakeClassifier{label: Risky}), "https://example.org")
	if a.Verdict.Status != StatusPhishing || a.Verdict.Headline != "AI-based classification" {
		t.Fatalf("verdict = %+v", a.Verdict)
	}
	if len(a.Verdict.Reasons) == 0 || a.Verdict.Reasons[0] != "Flagged by ML model" {
		t.Fatalf("reasons = %v", a.Verdict.Reasons)
	}
}

func TestClassifyModelError(t *testing.T) {
	model := &fakeClassifier{err: errors.New("broken model")}
	a := classify(t, newTestEngine(healthyExtractor(), nil, model), "https://example.org")
	if a.Verdict.Status != StatusUnknown || a.Verdict.Headline != "Analysis" {
		t.Fatalf("verdict = %+v", a.Verdict)
	}
	if model.calls != 1 {
		t.Fatalf("classifier called %d times", model.calls)
	}
}

func TestClassifyInvalidURL(t *testing.T) {
	_, err := newTestEngine(failingExtractor(), nil, nil).Classify(context.Background(), "http://")
	if !errors.Is(err, ErrInvalidURL) {
		t.Fatalf("err = %v, want ErrInvalidURL", err)
	}
}

func TestClassifyTrimsInput(t *testing.T) {
	a := classify(t, newTestEngine(healthyExtractor(), nil, nil), " https://example.org \t")
	if a.URL != "https://example.org" {
		t.Fatalf("URL = %q", a.URL)
	}
	if a.RiskScore != 0 {
		t.Fatalf("risk score = %v, want 0 for padded https input", a.RiskScore)
	}
}
