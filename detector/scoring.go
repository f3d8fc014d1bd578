package detector

import (
	"math"
	"strings"
)

// DefaultRiskThreshold is the RiskScore (percent) at or above which a URL is
// called phishing. Any single risky indicator already clears it.
const DefaultRiskThreshold = 2.0

// keywordPenalty is counted as extra risky indicators per matched keyword.
const keywordPenalty = 3

var highRiskKeywords = []string{"secure-login", "paypal", "verify", "update"}

// RiskScore is the share of risky indicators in v as a percentage, rounded to
// two decimals, with keywordPenalty extra risky indicators added for every
// high-risk keyword found in raw. The result is not capped at 100.
func RiskScore(raw string, v FeatureVector) float64 {
	risky := v.RiskyCount()
	lower := strings.ToLower(raw)
	for _, k := range highRiskKeywords {
		if strings.Contains(lower, k) {
			risky += keywordPenalty
		}
	}
	pct := float64(risky) / FeatureCount * 100
	return math.Round(pct*100) / 100
}

// reasonSlots lists the indicators worth explaining, in display order.
var reasonSlots = []struct {
	slot   int
	reason string
}{
	{slotUsingIP, "Uses IP address instead of domain"},
	{slotLongURL, "URL length is suspiciously long"},
	{slotShortURL, "Uses a URL shortener"},
	{slotPrefixSuffix, "Domain contains '-' which is unusual"},
	{slotSubDomains, "Too many subdomains"},
	{slotAbnormalURL, "Contains suspicious keyword like login/verify/update"},
	{slotAgeOfDomain, "Domain is too new"},
	{slotWebsiteForwarding, "Multiple redirects detected"},
}

const noReasons = "No major phishing signs detected"

// Reasons explains which of the curated indicators fired.
func Reasons(v FeatureVector) []string {
	var reasons []string
	for _, r := range reasonSlots {
		if v[r.slot] == Risky {
			reasons = append(reasons, r.reason)
		}
	}
	if len(reasons) == 0 {
		return []string{noReasons}
	}
	return reasons
}
