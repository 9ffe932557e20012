package scoring

import (
	"errors"
	"math"
	"strings"
)

// CHA2DS2VAScInputs is the stroke-risk factor checklist.
type CHA2DS2VAScInputs struct {
	Factors []Factor `json:"factors" yaml:"factors"`
}

// CHA2DS2VASc sums the weights of the known tags in factors. edad-75 and
// ictus-avc are worth 2, the rest of the vocabulary 1. Unknown tags and
// duplicates are ignored, and edad-65-74 does not count next to edad-75.
func CHA2DS2VASc(factors []Factor) int {
	present, _ := factorSet(factors, isCHA2DS2VAScFactor)
	present, _ = exclusiveAge(present)
	return cha2ds2vascSum(present)
}

// exclusiveAge drops edad-65-74 when edad-75 is also present.
func exclusiveAge(present []Factor) ([]Factor, bool) {
	if containsFactor(present, FactorAge75) && containsFactor(present, FactorAge65To74) {
		return removeFactor(present, FactorAge65To74), true
	}
	return present, false
}

func isCHA2DS2VAScFactor(f Factor) bool {
	_, ok := cha2ds2vascWeights[f]
	return ok
}

func cha2ds2vascSum(present []Factor) int {
	total := 0
	for _, f := range present {
		total += cha2ds2vascWeights[f]
	}
	return total
}

func classifyCHA2DS2VASc(v int) (string, RiskLevel) {
	switch {
	case v >= 2:
		return "high stroke risk, anticoagulation recommended", RiskHigh
	case v == 1:
		return "intermediate stroke risk, consider anticoagulation", RiskIntermediate
	default:
		return "low stroke risk", RiskLow
	}
}

// CHA2DS2VASc evaluates stroke risk in atrial fibrillation. An empty factor
// list is a genuine score of 0. When both age tags are checked only edad-75
// is counted.
func (c Calculator) CHA2DS2VASc(x CHA2DS2VAScInputs) Result {
	in := c.inputs()
	present, unknown := factorSet(x.Factors, isCHA2DS2VAScFactor)
	in.unknownFactors(unknown)
	present, dropped := exclusiveAge(present)
	if dropped {
		in.warnf("%q and %q are exclusive, counting %q", FactorAge75, FactorAge65To74, FactorAge75)
	}

	v := cha2ds2vascSum(present)
	label, level := classifyCHA2DS2VASc(v)
	r := determined(KindCHA2DS2VASc, float64(v), formatInt(v), label, level)
	for _, f := range present {
		r.Components = append(r.Components, Component{Name: string(f), Points: float64(cha2ds2vascWeights[f])})
	}
	return in.finish(r)
}

// HASBLEDInputs is the bleeding-risk factor checklist.
type HASBLEDInputs struct {
	Factors []Factor `json:"factors" yaml:"factors"`
}

// HASBLED counts the known bleeding-risk tags in factors.
func HASBLED(factors []Factor) int {
	present, _ := factorSet(factors, func(f Factor) bool { return hasBledFactors[f] })
	return len(present)
}

func classifyHASBLED(v int) (string, RiskLevel) {
	switch {
	case v >= 4:
		return "high bleeding risk", RiskHigh
	case v == 3:
		return "moderate bleeding risk", RiskIntermediate
	default:
		return "low bleeding risk", RiskLow
	}
}

// HASBLED evaluates bleeding risk under anticoagulation.
func (c Calculator) HASBLED(x HASBLEDInputs) Result {
	in := c.inputs()
	present, unknown := factorSet(x.Factors, func(f Factor) bool { return hasBledFactors[f] })
	in.unknownFactors(unknown)

	v := len(present)
	label, level := classifyHASBLED(v)
	r := determined(KindHASBLED, float64(v), formatInt(v), label, level)
	for _, f := range present {
		r.Components = append(r.Components, Component{Name: string(f), Points: 1})
	}
	return in.finish(r)
}

// KillipClass is the heart-failure class at presentation, 1 to 4.
type KillipClass int

// GRACEFactors are resolved GRACE variables.
type GRACEFactors struct {
	Age                float64
	HeartRate          float64
	SystolicBP         float64
	Creatinine         float64 // mg/dL
	Killip             KillipClass
	CardiacArrest      bool
	STSegmentDeviation bool
	ElevatedEnzymes    bool
}

// GRACEInputs is the acute coronary syndrome section.
type GRACEInputs struct {
	Age                *float64 `json:"age,omitempty" yaml:"age"`
	HeartRate          *float64 `json:"heart_rate,omitempty" yaml:"heart_rate"`
	SystolicBP         *float64 `json:"systolic_bp,omitempty" yaml:"systolic_bp"`
	Creatinine         *float64 `json:"creatinine,omitempty" yaml:"creatinine"`
	KillipClass        *int     `json:"killip_class,omitempty" yaml:"killip_class"`
	CardiacArrest      bool     `json:"cardiac_arrest" yaml:"cardiac_arrest"`
	STSegmentDeviation bool     `json:"st_segment_deviation" yaml:"st_segment_deviation"`
	ElevatedEnzymes    bool     `json:"elevated_enzymes" yaml:"elevated_enzymes"`
}

// band is one row of a points table: values below upper earn points.
type band struct {
	upper  float64
	points int
}

func bandPoints(table []band, v float64) int {
	for _, b := range table {
		if v < b.upper {
			return b.points
		}
	}
	return table[len(table)-1].points
}

var (
	graceAge = []band{
		{30, 0}, {40, 8}, {50, 25}, {60, 41}, {70, 58}, {80, 75}, {90, 91}, {math.Inf(1), 100},
	}
	graceHeartRate = []band{
		{50, 0}, {70, 3}, {90, 9}, {110, 15}, {150, 24}, {200, 38}, {math.Inf(1), 46},
	}
	graceSystolicBP = []band{
		{80, 58}, {100, 53}, {120, 43}, {140, 34}, {160, 24}, {200, 10}, {math.Inf(1), 0},
	}
	graceCreatinine = []band{
		{0.40, 1}, {0.80, 4}, {1.20, 7}, {1.60, 10}, {2.00, 13}, {4.00, 21}, {math.Inf(1), 28},
	}
	graceKillip = map[KillipClass]int{1: 0, 2: 20, 3: 39, 4: 59}
)

const (
	graceCardiacArrestPoints   = 39
	graceSTDeviationPoints     = 28
	graceElevatedEnzymesPoints = 14
)

// ErrKillipClass is returned for a Killip class outside 1-4.
var ErrKillipClass = errors.New("killip class must be between 1 and 4")

func graceComponents(f GRACEFactors) []Component {
	comps := []Component{
		{Name: "age", Points: float64(bandPoints(graceAge, f.Age))},
		{Name: "heart_rate", Points: float64(bandPoints(graceHeartRate, f.HeartRate))},
		{Name: "systolic_bp", Points: float64(bandPoints(graceSystolicBP, f.SystolicBP))},
		{Name: "creatinine", Points: float64(bandPoints(graceCreatinine, f.Creatinine))},
		{Name: "killip_class", Points: float64(graceKillip[f.Killip])},
	}
	if f.CardiacArrest {
		comps = append(comps, Component{Name: "cardiac_arrest", Points: graceCardiacArrestPoints})
	}
	if f.STSegmentDeviation {
		comps = append(comps, Component{Name: "st_segment_deviation", Points: graceSTDeviationPoints})
	}
	if f.ElevatedEnzymes {
		comps = append(comps, Component{Name: "elevated_enzymes", Points: graceElevatedEnzymesPoints})
	}
	return comps
}

// GRACE sums the banded points of the GRACE in-hospital mortality model.
func GRACE(f GRACEFactors) (int, error) {
	if _, ok := graceKillip[f.Killip]; !ok {
		return 0, ErrKillipClass
	}
	total := 0
	for _, c := range graceComponents(f) {
		total += int(c.Points)
	}
	return total, nil
}

func classifyGRACE(v int) (string, RiskLevel) {
	switch {
	case v > 140:
		return "high risk (>3% in-hospital mortality)", RiskHigh
	case v >= 109:
		return "intermediate risk (1-3% in-hospital mortality)", RiskIntermediate
	default:
		return "low risk (<1% in-hospital mortality)", RiskLow
	}
}

// GRACE evaluates acute coronary syndrome mortality risk.
func (c Calculator) GRACE(g GRACEInputs) Result {
	in := c.inputs()
	f := GRACEFactors{
		Age:                read(in, "age", g.Age, 0),
		HeartRate:          read(in, "heart_rate", g.HeartRate, 0),
		SystolicBP:         read(in, "systolic_bp", g.SystolicBP, 0),
		Creatinine:         read(in, "creatinine", g.Creatinine, 0),
		Killip:             KillipClass(read(in, "killip_class", g.KillipClass, 1)),
		CardiacArrest:      g.CardiacArrest,
		STSegmentDeviation: g.STSegmentDeviation,
		ElevatedEnzymes:    g.ElevatedEnzymes,
	}
	if r, short := in.short(KindGRACE); short {
		return r
	}
	if f.Age < 0 || f.HeartRate < 0 || f.SystolicBP < 0 || f.Creatinine < 0 {
		return in.invalid(KindGRACE, "GRACE variables must not be negative")
	}
	v, err := GRACE(f)
	if err != nil {
		return in.invalid(KindGRACE, err.Error())
	}
	label, level := classifyGRACE(v)
	r := determined(KindGRACE, float64(v), formatInt(v), label, level)
	r.Components = graceComponents(f)
	return in.finish(r)
}

// TIMIInputs accepts either the checked factor tags or a bare count.
// FactorCount wins when both are given.
type TIMIInputs struct {
	Factors     []Factor `json:"factors,omitempty" yaml:"factors"`
	FactorCount *int     `json:"factor_count,omitempty" yaml:"factor_count"`
}

// TIMI returns the number of present risk factors clamped to [0,7].
func TIMI(factorCount int) int {
	switch {
	case factorCount < 0:
		return 0
	case factorCount > 7:
		return 7
	}
	return factorCount
}

func classifyTIMI(v int) (string, RiskLevel) {
	switch {
	case v >= 5:
		return "high risk (40.9% 14-day events)", RiskHigh
	case v >= 3:
		return "intermediate risk (19.9% 14-day events)", RiskIntermediate
	default:
		return "low risk (4.7% 14-day events)", RiskLow
	}
}

// TIMI evaluates the TIMI UA/NSTEMI score.
func (c Calculator) TIMI(t TIMIInputs) Result {
	in := c.inputs()
	present, unknown := factorSet(t.Factors, func(f Factor) bool { return timiFactors[f] })
	in.unknownFactors(unknown)

	count := len(present)
	if t.FactorCount != nil {
		count = clamp(in, "factor_count", *t.FactorCount, 0, 7)
	}
	v := TIMI(count)
	label, level := classifyTIMI(v)
	r := determined(KindTIMI, float64(v), formatInt(v)+"/7", label, level)
	if t.FactorCount == nil {
		for _, f := range present {
			r.Components = append(r.Components, Component{Name: string(f), Points: 1})
		}
	}
	return in.finish(r)
}

// ErrArmPressureRequired is the sentinel returned when no brachial pressure
// is available to divide by.
var ErrArmPressureRequired = errors.New("arm pressure required")

// SidePressures holds one systolic pressure per side in mmHg.
type SidePressures struct {
	Right *float64 `json:"right,omitempty" yaml:"right"`
	Left  *float64 `json:"left,omitempty" yaml:"left"`
}

// AnkleIndexInputs holds brachial and ankle systolic pressures.
type AnkleIndexInputs struct {
	ArmPressure   SidePressures `json:"arm_pressure" yaml:"arm_pressure"`
	AnklePressure SidePressures `json:"ankle_pressure" yaml:"ankle_pressure"`
}

// SideIndex is the ankle-brachial ratio of one leg.
type SideIndex struct {
	Index          float64   `json:"index"`
	Interpretation string    `json:"interpretation"`
	RiskLevel      RiskLevel `json:"risk_level"`
}

// ABIResult reports each side independently.
type ABIResult struct {
	Result
	Right *SideIndex `json:"right,omitempty"`
	Left  *SideIndex `json:"left,omitempty"`
}

// AnkleBrachialIndex divides each ankle pressure by the higher arm pressure,
// rounding to two decimals. It returns ErrArmPressureRequired instead of
// dividing by zero.
func AnkleBrachialIndex(armRight, armLeft, ankleRight, ankleLeft float64) (right, left float64, err error) {
	arm := math.Max(armRight, armLeft)
	if arm <= 0 {
		return 0, 0, ErrArmPressureRequired
	}
	return round(ankleRight/arm, 2), round(ankleLeft/arm, 2), nil
}

func classifyABI(v float64) (string, RiskLevel) {
	switch {
	case v < 0.9:
		return "peripheral arterial disease", RiskHigh
	case v > 1.3:
		return "arterial calcification", RiskIntermediate
	default:
		return "normal", RiskLow
	}
}

// AnkleBrachialIndex evaluates each leg. A missing arm side falls back to
// the other arm; a missing ankle side is left out of the result.
func (c Calculator) AnkleBrachialIndex(x AnkleIndexInputs) ABIResult {
	in := c.inputs()
	var armR, armL float64
	switch {
	case x.ArmPressure.Right == nil && x.ArmPressure.Left == nil:
		armR = read[float64](in, "arm_pressure", nil, 0)
	default:
		if x.ArmPressure.Right != nil {
			armR = *x.ArmPressure.Right
		}
		if x.ArmPressure.Left != nil {
			armL = *x.ArmPressure.Left
		}
	}
	if x.AnklePressure.Right == nil && x.AnklePressure.Left == nil {
		in.missing = append(in.missing, "ankle_pressure")
	}
	if r, short := in.short(KindABI); short {
		return ABIResult{Result: r}
	}

	var ankR, ankL float64
	if x.AnklePressure.Right != nil {
		ankR = *x.AnklePressure.Right
	}
	if x.AnklePressure.Left != nil {
		ankL = *x.AnklePressure.Left
	}
	if armR < 0 || armL < 0 || ankR < 0 || ankL < 0 {
		return ABIResult{Result: in.invalid(KindABI, "pressures must not be negative")}
	}
	right, left, err := AnkleBrachialIndex(armR, armL, ankR, ankL)
	if err != nil {
		return ABIResult{Result: in.invalid(KindABI, err.Error())}
	}

	out := ABIResult{}
	var worst *SideIndex
	var parts []string
	if x.AnklePressure.Right != nil {
		label, level := classifyABI(right)
		out.Right = &SideIndex{Index: right, Interpretation: label, RiskLevel: level}
		worst = out.Right
		parts = append(parts, "right: "+label)
	}
	if x.AnklePressure.Left != nil {
		label, level := classifyABI(left)
		out.Left = &SideIndex{Index: left, Interpretation: label, RiskLevel: level}
		if worst == nil || !worst.RiskLevel.AtLeast(level) || (worst.RiskLevel == level && left < worst.Index) {
			worst = out.Left
		}
		parts = append(parts, "left: "+label)
	}

	r := determined(KindABI, worst.Index, formatFloat(worst.Index, 2), strings.Join(parts, "; "), worst.RiskLevel)
	out.Result = in.finish(r)
	return out
}

func containsFactor(fs []Factor, f Factor) bool {
	for _, x := range fs {
		if x == f {
			return true
		}
	}
	return false
}

func removeFactor(fs []Factor, f Factor) []Factor {
	out := fs[:0:0]
	for _, x := range fs {
		if x != f {
			out = append(out, x)
		}
	}
	return out
}
