// Package scoring computes the derived clinical indices used by the specialty
// intake exams. Every function in this package is pure: it reads an explicit
// input record and returns a fresh result, with no I/O and no shared state.
//
// Two layers are exposed. The raw functions (PackYears, BODEScore, DAS28, ...)
// implement the published formulas on plain values. The Calculator methods
// wrap them with the input policy used by the exam forms: missing values are
// reported as insufficient data instead of being silently treated as zero,
// out-of-range sub-scores are clamped with a warning, and physically invalid
// values produce an undetermined result.
package scoring

import (
	"strconv"
	"strings"
)

// Kind identifies a score.
type Kind string

const (
	KindBMI           Kind = "bmi"
	KindPackYears     Kind = "pack-years"
	KindCAT           Kind = "cat"
	KindBODE          Kind = "bode"
	KindSixMinuteWalk Kind = "six-minute-walk"
	KindDAS28         Kind = "das28"
	KindBASDAI        Kind = "basdai"
	KindWOMAC         Kind = "womac"
	KindACREULAR      Kind = "acr-eular"
	KindCHA2DS2VASc   Kind = "cha2ds2-vasc"
	KindHASBLED       Kind = "has-bled"
	KindGRACE         Kind = "grace"
	KindTIMI          Kind = "timi"
	KindABCDE         Kind = "abcde"
	KindABI           Kind = "ankle-brachial-index"
)

// RiskLevel is the coarse category attached to every determined result.
type RiskLevel string

const (
	RiskLow          RiskLevel = "low"
	RiskIntermediate RiskLevel = "intermediate"
	RiskHigh         RiskLevel = "high"
	RiskCritical     RiskLevel = "critical"
)

// rank orders risk levels so the worst of several can be picked.
func (r RiskLevel) rank() int {
	switch r {
	case RiskLow:
		return 1
	case RiskIntermediate:
		return 2
	case RiskHigh:
		return 3
	case RiskCritical:
		return 4
	}
	return 0
}

// AtLeast reports whether r is as severe as other or worse.
func (r RiskLevel) AtLeast(other RiskLevel) bool {
	return r.rank() >= other.rank()
}

// Status tells whether Value can be trusted.
type Status string

const (
	StatusOK               Status = "ok"
	StatusInsufficientData Status = "insufficient_data"
	StatusUndetermined     Status = "undetermined"
)

// InsufficientData is the display text used when required inputs are absent.
const InsufficientData = "insufficient data"

// Component is one factor's contribution to a composite score.
type Component struct {
	Name   string  `json:"name"`
	Points float64 `json:"points"`
}

// AppliedDefault records a fallback value substituted for a missing input.
type AppliedDefault struct {
	Field string  `json:"field"`
	Value float64 `json:"value"`
}

// Result is the common outcome of every score.
type Result struct {
	Score           Kind             `json:"score"`
	Value           *float64         `json:"value,omitempty"`
	Display         string           `json:"display"`
	Interpretation  string           `json:"interpretation"`
	RiskLevel       RiskLevel        `json:"risk_level,omitempty"`
	Status          Status           `json:"status"`
	Components      []Component      `json:"components,omitempty"`
	Warnings        []string         `json:"warnings,omitempty"`
	DefaultsApplied []AppliedDefault `json:"defaults_applied,omitempty"`
}

// Outcome is implemented by Result and by the richer per-score results that
// embed it.
type Outcome interface {
	Summary() Result
}

// Summary returns the result itself.
func (r Result) Summary() Result { return r }

// OK reports whether the result carries a usable value.
func (r Result) OK() bool { return r.Status == StatusOK && r.Value != nil }

func determined(kind Kind, value float64, display, interpretation string, level RiskLevel) Result {
	v := value
	return Result{
		Score:          kind,
		Value:          &v,
		Display:        display,
		Interpretation: interpretation,
		RiskLevel:      level,
		Status:         StatusOK,
	}
}

func insufficient(kind Kind, missing []string) Result {
	return Result{
		Score:          kind,
		Display:        InsufficientData,
		Interpretation: InsufficientData + ": missing " + strings.Join(missing, ", "),
		Status:         StatusInsufficientData,
	}
}

func undetermined(kind Kind, reason string) Result {
	return Result{
		Score:          kind,
		Display:        "undetermined",
		Interpretation: reason,
		Status:         StatusUndetermined,
	}
}

func formatInt(v int) string { return strconv.Itoa(v) }

func formatFloat(v float64, decimals int) string {
	return strconv.FormatFloat(v, 'f', decimals, 64)
}
