package analysis

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/JaimeStill/warden/pkg/formatting"
)

// ErrMalformedOutput indicates generated text could not be read as a
// ViolationReport. It is recovered by NormalizeViolationReport and is only
// surfaced for logging.
var ErrMalformedOutput = errors.New("malformed analysis output")

// maxViolationCount bounds a reported violation count before it is converted
// to int.
const maxViolationCount = math.MaxInt32

// RiskLevel grades overall risk and individual violation severity.
type RiskLevel string

const (
	RiskHigh   RiskLevel = "high"
	RiskMedium RiskLevel = "medium"
	RiskLow    RiskLevel = "low"
)

func (r RiskLevel) rank() int {
	switch r {
	case RiskHigh:
		return 3
	case RiskMedium:
		return 2
	case RiskLow:
		return 1
	default:
		return 0
	}
}

func parseRisk(s string) (RiskLevel, bool) {
	r := RiskLevel(strings.ToLower(strings.TrimSpace(s)))
	return r, r.rank() > 0
}

// PolicyCategories is the fixed key set every report carries.
var PolicyCategories = []string{
	"violence",
	"hate_speech",
	"graphic_content",
	"harassment",
	"privacy_violation",
	"sexual_content",
	"self_harm",
	"misinformation",
}

// Violation is a single timestamped finding.
type Violation struct {
	Type        string    `json:"type"`
	Description string    `json:"description"`
	Timestamp   float64   `json:"timestamp"`
	Severity    RiskLevel `json:"severity"`
}

// ViolationReport is the structured result of a generative analysis. Parsed
// is false when the report is the fallback built from unreadable output, so an
// empty fallback is never mistaken for a clean scan.
type ViolationReport struct {
	Summary          string          `json:"summary"`
	Duration         float64         `json:"duration"`
	ViolationCount   int             `json:"violation_count"`
	RiskLevel        RiskLevel       `json:"risk_level"`
	Violations       []Violation     `json:"violations"`
	PolicyCategories map[string]bool `json:"policy_categories"`
	Recommendations  []string        `json:"recommendations"`
	Parsed           bool            `json:"parsed"`
}

// NormalizeViolationReport reads generated text as a ViolationReport. It never
// fails: unreadable text yields FallbackReport(raw).
func NormalizeViolationReport(raw string) ViolationReport {
	report, err := ParseViolationReport(raw)
	if err != nil {
		return FallbackReport(raw)
	}
	return report
}

// ParseViolationReport is the strict half of NormalizeViolationReport. It
// returns ErrMalformedOutput when no recognizable report can be extracted.
func ParseViolationReport(raw string) (ViolationReport, error) {
	r, err := formatting.Parse[rawReport](raw)
	if err != nil {
		return ViolationReport{}, fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}
	if !r.recognized() {
		return ViolationReport{}, fmt.Errorf("%w: no report fields present", ErrMalformedOutput)
	}
	return r.normalize(), nil
}

// FallbackReport is the report substituted for unreadable generated text.
func FallbackReport(raw string) ViolationReport {
	return ViolationReport{
		Summary:          raw,
		RiskLevel:        RiskLow,
		Violations:       []Violation{},
		PolicyCategories: emptyCategories(),
		Recommendations:  []string{},
	}
}

func emptyCategories() map[string]bool {
	m := make(map[string]bool, len(PolicyCategories))
	for _, k := range PolicyCategories {
		m[k] = false
	}
	return m
}

type rawViolation struct {
	Type        string      `json:"type"`
	Description string      `json:"description"`
	Timestamp   looseNumber `json:"timestamp"`
	Severity    string      `json:"severity"`
}

type rawReport struct {
	Summary          *string              `json:"summary"`
	Duration         looseNumber          `json:"duration"`
	ViolationCount   looseNumber          `json:"violation_count"`
	RiskLevel        *string              `json:"risk_level"`
	Violations       []rawViolation       `json:"violations"`
	PolicyCategories map[string]looseBool `json:"policy_categories"`
	Recommendations  []string             `json:"recommendations"`
}

func (r *rawReport) recognized() bool {
	return r.Summary != nil ||
		r.Duration.set ||
		r.ViolationCount.set ||
		r.RiskLevel != nil ||
		r.Violations != nil ||
		r.PolicyCategories != nil ||
		r.Recommendations != nil
}

func (r *rawReport) normalize() ViolationReport {
	report := ViolationReport{
		Duration:         nonNegative(r.Duration.value),
		Violations:       make([]Violation, 0, len(r.Violations)),
		PolicyCategories: emptyCategories(),
		Recommendations:  []string{},
		Parsed:           true,
	}

	if r.Summary != nil {
		report.Summary = *r.Summary
	}
	if r.Recommendations != nil {
		report.Recommendations = r.Recommendations
	}

	worst := RiskLevel("")
	for _, v := range r.Violations {
		severity, ok := parseRisk(v.Severity)
		if !ok {
			severity = RiskLow
		}
		if severity.rank() > worst.rank() {
			worst = severity
		}
		report.Violations = append(report.Violations, Violation{
			Type:        v.Type,
			Description: v.Description,
			Timestamp:   nonNegative(v.Timestamp.value),
			Severity:    severity,
		})
	}

	if r.ViolationCount.set && r.ViolationCount.value >= 0 {
		report.ViolationCount = int(min(r.ViolationCount.value, maxViolationCount))
	} else {
		report.ViolationCount = len(report.Violations)
	}

	risk, ok := RiskLevel(""), false
	if r.RiskLevel != nil {
		risk, ok = parseRisk(*r.RiskLevel)
	}
	switch {
	case ok:
		report.RiskLevel = risk
	case worst != "":
		report.RiskLevel = worst
	default:
		report.RiskLevel = RiskLow
	}

	for k, v := range r.PolicyCategories {
		key := categoryKey(k)
		if _, known := report.PolicyCategories[key]; known {
			report.PolicyCategories[key] = report.PolicyCategories[key] || bool(v)
		}
	}

	return report
}

// nonNegative maps NaN and negatives to zero and caps infinities so the value
// stays encodable as JSON.
func nonNegative(f float64) float64 {
	switch {
	case math.IsNaN(f), f < 0:
		return 0
	case math.IsInf(f, 1):
		return math.MaxFloat64
	default:
		return f
	}
}

// categoryKey folds "Hate Speech", "hate-speech" and "HATE_SPEECH" onto hate_speech.
func categoryKey(k string) string {
	k = strings.ToLower(strings.TrimSpace(k))
	return strings.NewReplacer(" ", "_", "-", "_").Replace(k)
}

// looseNumber accepts JSON numbers, numeric strings, and clock strings such as
// "1:05" or "00:01:05". Anything else leaves it unset.
type looseNumber struct {
	value float64
	set   bool
}

func (n *looseNumber) UnmarshalJSON(b []byte) error {
	var f float64
	if err := json.Unmarshal(b, &f); err == nil {
		n.value, n.set = f, true
		return nil
	}

	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return nil
	}
	if f, ok := parseSeconds(s); ok {
		n.value, n.set = f, true
	}
	return nil
}

func parseSeconds(s string) (float64, bool) {
	s = strings.TrimSpace(strings.ToLower(s))
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSuffix(s, "seconds"), "s"))

	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f, true
	}

	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, false
	}

	var total float64
	for _, p := range parts {
		f, err := strconv.ParseFloat(p, 64)
		if err != nil || f < 0 {
			return 0, false
		}
		total = total*60 + f
	}
	return total, true
}

// looseBool accepts JSON booleans and the strings "true"/"yes". Anything else is false.
type looseBool bool

func (b *looseBool) UnmarshalJSON(data []byte) error {
	var v bool
	if err := json.Unmarshal(data, &v); err == nil {
		*b = looseBool(v)
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "true", "yes":
			*b = true
		}
	}
	return nil
}
