package scoring

import (
	"errors"
	"fmt"
	"math"
)

// MissingInputPolicy decides what happens when a required input is absent.
type MissingInputPolicy string

const (
	// PolicyStrict reports absent inputs as insufficient data.
	PolicyStrict MissingInputPolicy = "strict"
	// PolicyFastEntry substitutes documented fallbacks and lists them in
	// Result.DefaultsApplied.
	PolicyFastEntry MissingInputPolicy = "fast-entry"
)

// ParsePolicy maps a configuration string to a policy. The empty string
// selects PolicyStrict.
func ParsePolicy(s string) (MissingInputPolicy, error) {
	switch MissingInputPolicy(s) {
	case "", PolicyStrict:
		return PolicyStrict, nil
	case PolicyFastEntry:
		return PolicyFastEntry, nil
	}
	return "", fmt.Errorf("unknown missing input policy %q", s)
}

var (
	ErrUnknownKind      = errors.New("unknown score kind")
	ErrUnsupportedInput = errors.New("unsupported score input")
)

// Calculator evaluates scores under a missing-input policy. The zero value
// uses PolicyStrict. Calculator holds no mutable state and is safe for
// concurrent use.
type Calculator struct {
	Policy MissingInputPolicy
}

// NewCalculator returns a Calculator for the given policy.
func NewCalculator(policy MissingInputPolicy) Calculator {
	return Calculator{Policy: policy}
}

func (c Calculator) fastEntry() bool { return c.Policy == PolicyFastEntry }

// NewInput returns a pointer to the zero input record for kind, suitable for
// decoding a request body into before calling Assess.
func NewInput(kind Kind) (any, error) {
	switch kind {
	case KindBMI:
		return &Anthropometry{}, nil
	case KindPackYears:
		return &SmokingHistory{}, nil
	case KindCAT:
		return &CATAssessment{}, nil
	case KindBODE:
		return &BODEInputs{}, nil
	case KindSixMinuteWalk:
		return &SixMinuteWalkInputs{}, nil
	case KindDAS28:
		return &DAS28Inputs{}, nil
	case KindBASDAI:
		return &BASDAIInputs{}, nil
	case KindWOMAC:
		return &WOMACInputs{}, nil
	case KindACREULAR:
		return &ACREULARInputs{}, nil
	case KindCHA2DS2VASc:
		return &CHA2DS2VAScInputs{}, nil
	case KindHASBLED:
		return &HASBLEDInputs{}, nil
	case KindGRACE:
		return &GRACEInputs{}, nil
	case KindTIMI:
		return &TIMIInputs{}, nil
	case KindABCDE:
		return &ABCDEInputs{}, nil
	case KindABI:
		return &AnkleIndexInputs{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
}

// Assess evaluates an input record produced by NewInput.
func (c Calculator) Assess(input any) (Outcome, error) {
	switch in := input.(type) {
	case *Anthropometry:
		return c.BMI(*in), nil
	case *SmokingHistory:
		return c.PackYears(*in), nil
	case *CATAssessment:
		return c.CAT(*in), nil
	case *BODEInputs:
		return c.BODE(*in), nil
	case *SixMinuteWalkInputs:
		return c.SixMinuteWalk(*in), nil
	case *DAS28Inputs:
		return c.DAS28(*in), nil
	case *BASDAIInputs:
		return c.BASDAI(*in), nil
	case *WOMACInputs:
		return c.WOMAC(*in), nil
	case *ACREULARInputs:
		return c.ACREULAR(*in), nil
	case *CHA2DS2VAScInputs:
		return c.CHA2DS2VASc(*in), nil
	case *HASBLEDInputs:
		return c.HASBLED(*in), nil
	case *GRACEInputs:
		return c.GRACE(*in), nil
	case *TIMIInputs:
		return c.TIMI(*in), nil
	case *ABCDEInputs:
		return c.ABCDE(*in), nil
	case *AnkleIndexInputs:
		return c.AnkleBrachialIndex(*in), nil
	}
	return nil, fmt.Errorf("%w: %T", ErrUnsupportedInput, input)
}

// inputs collects missing fields, fallbacks and warnings while a Calculator
// method reads its input record.
type inputs struct {
	fastEntry bool
	missing   []string
	defaults  []AppliedDefault
	warnings  []string
}

func (c Calculator) inputs() *inputs {
	return &inputs{fastEntry: c.fastEntry()}
}

type number interface {
	~int | ~float64
}

func read[T number](in *inputs, field string, v *T, fallback T) T {
	if v != nil {
		return *v
	}
	if in.fastEntry {
		in.defaults = append(in.defaults, AppliedDefault{Field: field, Value: float64(fallback)})
		return fallback
	}
	in.missing = append(in.missing, field)
	return fallback
}

func clamp[T number](in *inputs, field string, v, lo, hi T) T {
	switch {
	case v < lo:
		in.warnf("%s %v below %v, clamped", field, v, lo)
		return lo
	case v > hi:
		in.warnf("%s %v above %v, clamped", field, v, hi)
		return hi
	}
	return v
}

func (in *inputs) warnf(format string, args ...any) {
	in.warnings = append(in.warnings, fmt.Sprintf(format, args...))
}

// short returns an insufficient-data result when any required field was
// absent under the strict policy.
func (in *inputs) short(kind Kind) (Result, bool) {
	if len(in.missing) == 0 {
		return Result{}, false
	}
	r := insufficient(kind, in.missing)
	r.Warnings = in.warnings
	return r, true
}

func (in *inputs) invalid(kind Kind, reason string) Result {
	r := undetermined(kind, reason)
	r.Warnings = in.warnings
	r.DefaultsApplied = in.defaults
	return r
}

// finish attaches warnings and fallbacks. A result computed from fallbacks
// says so in its interpretation.
func (in *inputs) finish(r Result) Result {
	r.Warnings = in.warnings
	if len(in.defaults) > 0 {
		r.DefaultsApplied = in.defaults
		r.Interpretation += " (defaults applied)"
	}
	return r
}

func round(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}
