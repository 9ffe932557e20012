package scoring

import (
	"errors"
	"fmt"
	"math"
)

// Fallbacks used by the fast-entry policy for DAS28.
const (
	DefaultESR                     = 20.0
	DefaultPatientGlobalAssessment = 50.0
)

// ErrNonPositiveESR is returned by DAS28 because ln(ESR) is undefined at or
// below zero.
var ErrNonPositiveESR = errors.New("ESR must be greater than 0")

// DAS28Inputs is the 28-joint disease activity section.
type DAS28Inputs struct {
	TenderJointCount        *int     `json:"tender_joint_count,omitempty" yaml:"tender_joint_count"`
	SwollenJointCount       *int     `json:"swollen_joint_count,omitempty" yaml:"swollen_joint_count"`
	ESR                     *float64 `json:"esr,omitempty" yaml:"esr"`
	PatientGlobalAssessment *float64 `json:"patient_global_assessment,omitempty" yaml:"patient_global_assessment"`
}

// DAS28 computes 0.56·√TJC + 0.28·√SJC + 0.70·ln(ESR) + 0.014·PGA rounded to
// two decimals.
func DAS28(tenderJoints, swollenJoints int, esr, patientGlobal float64) (float64, error) {
	if esr <= 0 {
		return 0, ErrNonPositiveESR
	}
	v := 0.56*math.Sqrt(float64(tenderJoints)) +
		0.28*math.Sqrt(float64(swollenJoints)) +
		0.70*math.Log(esr) +
		0.014*patientGlobal
	return round(v, 2), nil
}

func classifyDAS28(v float64) (string, RiskLevel) {
	switch {
	case v > 5.1:
		return "high disease activity", RiskHigh
	case v >= 3.2:
		return "moderate disease activity", RiskIntermediate
	case v >= 2.6:
		return "low disease activity", RiskLow
	default:
		return "remission", RiskLow
	}
}

// DAS28 evaluates rheumatoid arthritis activity. Under the fast-entry policy
// a missing ESR becomes 20 mm/h and a missing PGA becomes 50, and both are
// listed in DefaultsApplied.
func (c Calculator) DAS28(d DAS28Inputs) Result {
	in := c.inputs()
	tender := read(in, "tender_joint_count", d.TenderJointCount, 0)
	swollen := read(in, "swollen_joint_count", d.SwollenJointCount, 0)
	esr := read(in, "esr", d.ESR, DefaultESR)
	pga := read(in, "patient_global_assessment", d.PatientGlobalAssessment, DefaultPatientGlobalAssessment)
	if r, short := in.short(KindDAS28); short {
		return r
	}
	if tender < 0 || swollen < 0 {
		return in.invalid(KindDAS28, "joint counts must not be negative")
	}
	tender = clamp(in, "tender_joint_count", tender, 0, 28)
	swollen = clamp(in, "swollen_joint_count", swollen, 0, 28)
	pga = clamp(in, "patient_global_assessment", pga, 0, 100)

	v, err := DAS28(tender, swollen, esr, pga)
	if err != nil {
		return in.invalid(KindDAS28, err.Error())
	}
	label, level := classifyDAS28(v)
	r := determined(KindDAS28, v, formatFloat(v, 2), label, level)
	r.Components = []Component{
		{Name: "tender_joint_count", Points: round(0.56*math.Sqrt(float64(tender)), 2)},
		{Name: "swollen_joint_count", Points: round(0.28*math.Sqrt(float64(swollen)), 2)},
		{Name: "esr", Points: round(0.70*math.Log(esr), 2)},
		{Name: "patient_global_assessment", Points: round(0.014*pga, 2)},
	}
	return in.finish(r)
}

// BASDAIInputs holds the six BASDAI questions, each on a 0-10 scale.
type BASDAIInputs struct {
	Fatigue             *float64 `json:"fatigue,omitempty" yaml:"fatigue"`
	SpinalPain          *float64 `json:"spinal_pain,omitempty" yaml:"spinal_pain"`
	JointPainSwelling   *float64 `json:"joint_pain_swelling,omitempty" yaml:"joint_pain_swelling"`
	LocalizedTenderness *float64 `json:"localized_tenderness,omitempty" yaml:"localized_tenderness"`
	StiffnessSeverity   *float64 `json:"stiffness_severity,omitempty" yaml:"stiffness_severity"`
	StiffnessDuration   *float64 `json:"stiffness_duration,omitempty" yaml:"stiffness_duration"`
}

// BASDAI averages the first four questions with the mean of the two morning
// stiffness questions, rounded to two decimals.
func BASDAI(fatigue, spinalPain, jointPainSwelling, localizedTenderness, stiffnessSeverity, stiffnessDuration float64) float64 {
	stiffness := (stiffnessSeverity + stiffnessDuration) / 2
	return round((fatigue+spinalPain+jointPainSwelling+localizedTenderness+stiffness)/5, 2)
}

func classifyBASDAI(v float64) (string, RiskLevel) {
	switch {
	case v >= 4:
		return "high disease activity", RiskHigh
	case v >= 2:
		return "moderate disease activity", RiskIntermediate
	default:
		return "low disease activity", RiskLow
	}
}

// BASDAI evaluates ankylosing spondylitis activity.
func (c Calculator) BASDAI(b BASDAIInputs) Result {
	in := c.inputs()
	names := [6]string{"fatigue", "spinal_pain", "joint_pain_swelling", "localized_tenderness", "stiffness_severity", "stiffness_duration"}
	ptrs := [6]*float64{b.Fatigue, b.SpinalPain, b.JointPainSwelling, b.LocalizedTenderness, b.StiffnessSeverity, b.StiffnessDuration}
	var q [6]float64
	for i := range q {
		q[i] = read(in, names[i], ptrs[i], 0)
	}
	if r, short := in.short(KindBASDAI); short {
		return r
	}
	for i := range q {
		q[i] = clamp(in, names[i], q[i], 0, 10)
	}
	v := BASDAI(q[0], q[1], q[2], q[3], q[4], q[5])
	label, level := classifyBASDAI(v)
	return in.finish(determined(KindBASDAI, v, formatFloat(v, 2), label, level))
}

// WOMACInputs holds the three WOMAC subscale totals.
type WOMACInputs struct {
	PainScore      *int `json:"pain_score,omitempty" yaml:"pain_score"`
	StiffnessScore *int `json:"stiffness_score,omitempty" yaml:"stiffness_score"`
	FunctionScore  *int `json:"function_score,omitempty" yaml:"function_score"`
}

// WOMAC sums the pain (0-20), stiffness (0-8) and function (0-68) subscales.
func WOMAC(pain, stiffness, function int) int {
	return pain + stiffness + function
}

func classifyWOMAC(v int) (string, RiskLevel) {
	switch {
	case v > 39:
		return "severe", RiskHigh
	case v > 19:
		return "moderate", RiskIntermediate
	default:
		return "mild", RiskLow
	}
}

// WOMAC evaluates osteoarthritis burden. Subscales are clamped to their
// ranges.
func (c Calculator) WOMAC(w WOMACInputs) Result {
	in := c.inputs()
	pain := read(in, "pain_score", w.PainScore, 0)
	stiffness := read(in, "stiffness_score", w.StiffnessScore, 0)
	function := read(in, "function_score", w.FunctionScore, 0)
	if r, short := in.short(KindWOMAC); short {
		return r
	}
	pain = clamp(in, "pain_score", pain, 0, 20)
	stiffness = clamp(in, "stiffness_score", stiffness, 0, 8)
	function = clamp(in, "function_score", function, 0, 68)

	v := WOMAC(pain, stiffness, function)
	label, level := classifyWOMAC(v)
	r := determined(KindWOMAC, float64(v), formatInt(v), label, level)
	r.Components = []Component{
		{Name: "pain_score", Points: float64(pain)},
		{Name: "stiffness_score", Points: float64(stiffness)},
		{Name: "function_score", Points: float64(function)},
	}
	return in.finish(r)
}

// JointInvolvement is the ACR/EULAR joint distribution category.
type JointInvolvement string

const (
	JointsOneLarge        JointInvolvement = "1-large"
	JointsTwoToTenLarge   JointInvolvement = "2-10-large"
	JointsOneToThreeSmall JointInvolvement = "1-3-small"
	JointsFourToTenSmall  JointInvolvement = "4-10-small"
	JointsMoreThanTen     JointInvolvement = "more-than-10"
)

// Serology is the RF/ACPA category.
type Serology string

const (
	SerologyNegative     Serology = "negative"
	SerologyLowPositive  Serology = "low-positive"
	SerologyHighPositive Serology = "high-positive"
)

// AcutePhaseReactants is the CRP/ESR category.
type AcutePhaseReactants string

const (
	ReactantsNormal   AcutePhaseReactants = "normal"
	ReactantsAbnormal AcutePhaseReactants = "abnormal"
)

// SymptomDuration is the synovitis duration category.
type SymptomDuration string

const (
	DurationUnderSixWeeks SymptomDuration = "lt-6-weeks"
	DurationSixWeeksPlus  SymptomDuration = "gte-6-weeks"
)

var (
	jointPoints = map[JointInvolvement]int{
		JointsOneLarge:        0,
		JointsTwoToTenLarge:   1,
		JointsOneToThreeSmall: 2,
		JointsFourToTenSmall:  3,
		JointsMoreThanTen:     5,
	}
	serologyPoints = map[Serology]int{
		SerologyNegative:     0,
		SerologyLowPositive:  2,
		SerologyHighPositive: 3,
	}
	reactantPoints = map[AcutePhaseReactants]int{
		ReactantsNormal:   0,
		ReactantsAbnormal: 1,
	}
	durationPoints = map[SymptomDuration]int{
		DurationUnderSixWeeks: 0,
		DurationSixWeeksPlus:  1,
	}
)

// ACREULARCriteriaThreshold is the score at which the 2010 classification
// criteria for rheumatoid arthritis are met.
const ACREULARCriteriaThreshold = 6

// ACREULARInputs holds the four categorical selections.
type ACREULARInputs struct {
	JointInvolvement    JointInvolvement    `json:"joint_involvement,omitempty" yaml:"joint_involvement"`
	Serology            Serology            `json:"serology,omitempty" yaml:"serology"`
	AcutePhaseReactants AcutePhaseReactants `json:"acute_phase_reactants,omitempty" yaml:"acute_phase_reactants"`
	SymptomDuration     SymptomDuration     `json:"symptom_duration,omitempty" yaml:"symptom_duration"`
}

// ACREULAR sums the lookup points of the four categories.
func ACREULAR(joints JointInvolvement, serology Serology, reactants AcutePhaseReactants, duration SymptomDuration) (int, error) {
	j, ok := jointPoints[joints]
	if !ok {
		return 0, fmt.Errorf("unknown joint involvement %q", joints)
	}
	s, ok := serologyPoints[serology]
	if !ok {
		return 0, fmt.Errorf("unknown serology %q", serology)
	}
	r, ok := reactantPoints[reactants]
	if !ok {
		return 0, fmt.Errorf("unknown acute phase reactants %q", reactants)
	}
	d, ok := durationPoints[duration]
	if !ok {
		return 0, fmt.Errorf("unknown symptom duration %q", duration)
	}
	return j + s + r + d, nil
}

// ACREULAR evaluates the 2010 rheumatoid arthritis classification criteria.
// The fast-entry policy treats a missing category as its zero-point option.
func (c Calculator) ACREULAR(a ACREULARInputs) Result {
	in := c.inputs()
	if a.JointInvolvement == "" {
		a.JointInvolvement = JointsOneLarge
		in.absent("joint_involvement")
	}
	if a.Serology == "" {
		a.Serology = SerologyNegative
		in.absent("serology")
	}
	if a.AcutePhaseReactants == "" {
		a.AcutePhaseReactants = ReactantsNormal
		in.absent("acute_phase_reactants")
	}
	if a.SymptomDuration == "" {
		a.SymptomDuration = DurationUnderSixWeeks
		in.absent("symptom_duration")
	}
	if r, short := in.short(KindACREULAR); short {
		return r
	}
	v, err := ACREULAR(a.JointInvolvement, a.Serology, a.AcutePhaseReactants, a.SymptomDuration)
	if err != nil {
		return in.invalid(KindACREULAR, err.Error())
	}

	var r Result
	if v >= ACREULARCriteriaThreshold {
		r = determined(KindACREULAR, float64(v), formatInt(v)+"/10", "meets rheumatoid arthritis classification criteria", RiskHigh)
	} else {
		r = determined(KindACREULAR, float64(v), formatInt(v)+"/10", "does not meet rheumatoid arthritis classification criteria", RiskLow)
	}
	r.Components = []Component{
		{Name: "joint_involvement", Points: float64(jointPoints[a.JointInvolvement])},
		{Name: "serology", Points: float64(serologyPoints[a.Serology])},
		{Name: "acute_phase_reactants", Points: float64(reactantPoints[a.AcutePhaseReactants])},
		{Name: "symptom_duration", Points: float64(durationPoints[a.SymptomDuration])},
	}
	return in.finish(r)
}

// absent records a missing categorical field whose fallback is worth zero
// points.
func (in *inputs) absent(field string) {
	if in.fastEntry {
		in.defaults = append(in.defaults, AppliedDefault{Field: field, Value: 0})
		return
	}
	in.missing = append(in.missing, field)
}
