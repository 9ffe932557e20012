package scoring

import (
	"errors"
	"fmt"
	"math"
)

// SmokingHistory is the tobacco section of the pneumology exam.
type SmokingHistory struct {
	PacksPerDay *float64 `json:"packs_per_day,omitempty" yaml:"packs_per_day"`
	YearsSmoked *float64 `json:"years_smoked,omitempty" yaml:"years_smoked"`
}

// PackYears returns packsPerDay × yearsSmoked. Callers exclude negative
// inputs; the function does not validate.
func PackYears(packsPerDay, yearsSmoked float64) float64 {
	return packsPerDay * yearsSmoked
}

// PackYears evaluates cumulative tobacco exposure. Negative inputs are clamped
// to zero with a warning.
func (c Calculator) PackYears(h SmokingHistory) Result {
	in := c.inputs()
	packs := read(in, "packs_per_day", h.PacksPerDay, 0)
	years := read(in, "years_smoked", h.YearsSmoked, 0)
	if r, short := in.short(KindPackYears); short {
		return r
	}
	packs = clamp(in, "packs_per_day", packs, 0, math.MaxFloat64)
	years = clamp(in, "years_smoked", years, 0, math.MaxFloat64)

	v := PackYears(packs, years)
	var r Result
	switch {
	case v == 0:
		r = determined(KindPackYears, v, formatFloat(v, 1), "no cumulative tobacco exposure", RiskLow)
	case v < 10:
		r = determined(KindPackYears, v, formatFloat(v, 1), "light exposure", RiskLow)
	case v < 20:
		r = determined(KindPackYears, v, formatFloat(v, 1), "moderate exposure", RiskIntermediate)
	default:
		r = determined(KindPackYears, v, formatFloat(v, 1), "heavy exposure (meets lung cancer screening threshold)", RiskHigh)
	}
	return in.finish(r)
}

// CATAssessment holds the eight COPD Assessment Test items, each 0-5.
type CATAssessment struct {
	Cough          *int `json:"cough,omitempty" yaml:"cough"`
	Phlegm         *int `json:"phlegm,omitempty" yaml:"phlegm"`
	ChestTightness *int `json:"chest_tightness,omitempty" yaml:"chest_tightness"`
	Breathlessness *int `json:"breathlessness,omitempty" yaml:"breathlessness"`
	Activities     *int `json:"activities,omitempty" yaml:"activities"`
	Confidence     *int `json:"confidence,omitempty" yaml:"confidence"`
	Sleep          *int `json:"sleep,omitempty" yaml:"sleep"`
	Energy         *int `json:"energy,omitempty" yaml:"energy"`
}

var catItemNames = [8]string{
	"cough", "phlegm", "chest_tightness", "breathlessness",
	"activities", "confidence", "sleep", "energy",
}

func (a CATAssessment) items() [8]*int {
	return [8]*int{
		a.Cough, a.Phlegm, a.ChestTightness, a.Breathlessness,
		a.Activities, a.Confidence, a.Sleep, a.Energy,
	}
}

// CATTotal sums the eight items. Each item must already be within [0,5].
func CATTotal(items [8]int) int {
	total := 0
	for _, v := range items {
		total += v
	}
	return total
}

// CAT evaluates the COPD Assessment Test. Items outside [0,5] are clamped.
func (c Calculator) CAT(a CATAssessment) Result {
	in := c.inputs()
	var items [8]int
	for i, p := range a.items() {
		items[i] = read(in, catItemNames[i], p, 0)
	}
	if r, short := in.short(KindCAT); short {
		return r
	}
	for i := range items {
		items[i] = clamp(in, catItemNames[i], items[i], 0, 5)
	}

	total := CATTotal(items)
	label, level := classifyCAT(total)
	r := determined(KindCAT, float64(total), formatInt(total), label, level)
	for i, v := range items {
		r.Components = append(r.Components, Component{Name: catItemNames[i], Points: float64(v)})
	}
	return in.finish(r)
}

func classifyCAT(total int) (string, RiskLevel) {
	switch {
	case total > 30:
		return "very high impact", RiskCritical
	case total > 20:
		return "high impact", RiskHigh
	case total >= 10:
		return "medium impact", RiskIntermediate
	default:
		return "low impact", RiskLow
	}
}

// BODEInputs are the four BODE index variables.
type BODEInputs struct {
	BMI                *float64 `json:"bmi,omitempty" yaml:"bmi"`
	FEV1Percent        *float64 `json:"fev1_percent,omitempty" yaml:"fev1_percent"`
	MMRC               *int     `json:"mmrc,omitempty" yaml:"mmrc"`
	WalkDistanceMeters *float64 `json:"walk_distance_meters,omitempty" yaml:"walk_distance_meters"`
}

func bodeBMIPoints(bmi float64) int {
	if bmi <= 21 {
		return 1
	}
	return 0
}

func bodeFEV1Points(fev1 float64) int {
	switch {
	case fev1 >= 65:
		return 0
	case fev1 >= 50:
		return 1
	case fev1 >= 36:
		return 2
	default:
		return 3
	}
}

func bodeMMRCPoints(mmrc int) int {
	if mmrc >= 2 {
		return 1
	}
	return 0
}

func bodeWalkPoints(meters float64) int {
	switch {
	case meters < 150:
		return 3
	case meters < 250:
		return 2
	case meters < 350:
		return 1
	default:
		return 0
	}
}

// BODEScore sums the banded BMI, FEV1, dyspnea and walk-distance points.
// Each band includes its lower bound.
func BODEScore(bmi, fev1Percent float64, mMRC int, walkMeters float64) int {
	return bodeBMIPoints(bmi) + bodeFEV1Points(fev1Percent) + bodeMMRCPoints(mMRC) + bodeWalkPoints(walkMeters)
}

// BODE evaluates the BODE index, reporting its survival quartile.
func (c Calculator) BODE(b BODEInputs) Result {
	in := c.inputs()
	bmi := read(in, "bmi", b.BMI, 0)
	fev1 := read(in, "fev1_percent", b.FEV1Percent, 0)
	mmrc := read(in, "mmrc", b.MMRC, 0)
	walk := read(in, "walk_distance_meters", b.WalkDistanceMeters, 0)
	if r, short := in.short(KindBODE); short {
		return r
	}
	if bmi < 0 || fev1 < 0 || walk < 0 {
		return in.invalid(KindBODE, "BMI, FEV1 and walk distance must not be negative")
	}
	mmrc = clamp(in, "mmrc", mmrc, 0, 4)

	score := BODEScore(bmi, fev1, mmrc, walk)
	label, level := classifyBODE(score)
	r := determined(KindBODE, float64(score), formatInt(score), label, level)
	r.Components = []Component{
		{Name: "bmi", Points: float64(bodeBMIPoints(bmi))},
		{Name: "fev1_percent", Points: float64(bodeFEV1Points(fev1))},
		{Name: "mmrc", Points: float64(bodeMMRCPoints(mmrc))},
		{Name: "walk_distance_meters", Points: float64(bodeWalkPoints(walk))},
	}
	return in.finish(r)
}

func classifyBODE(score int) (string, RiskLevel) {
	switch {
	case score >= 7:
		return "quartile 4 (7-10)", RiskCritical
	case score >= 5:
		return "quartile 3 (5-6)", RiskHigh
	case score >= 3:
		return "quartile 2 (3-4)", RiskIntermediate
	default:
		return "quartile 1 (0-2)", RiskLow
	}
}

// Sex selects the six-minute walk reference equation.
type Sex string

const (
	SexMale   Sex = "male"
	SexFemale Sex = "female"
)

// ErrNoPredictedDistance is returned when the reference equation yields a
// non-positive predicted distance.
var ErrNoPredictedDistance = errors.New("predicted walk distance is not positive")

// ErrWalkPercentOutOfRange is returned when distance / predicted cannot be
// expressed as a percentage.
var ErrWalkPercentOutOfRange = errors.New("walk percentage of predicted is out of range")

// MaxWalkDistanceMeters bounds a plausible six-minute walk.
const MaxWalkDistanceMeters = 2000

// SixMinuteWalkInputs is the six-minute walk test section.
type SixMinuteWalkInputs struct {
	DistanceMeters *float64 `json:"distance_meters,omitempty" yaml:"distance_meters"`
	Age            *float64 `json:"age,omitempty" yaml:"age"`
	HeightCm       *float64 `json:"height_cm,omitempty" yaml:"height_cm"`
	WeightKg       *float64 `json:"weight_kg,omitempty" yaml:"weight_kg"`
	Sex            Sex      `json:"sex,omitempty" yaml:"sex"`
}

// SixMinuteWalkResult adds the predicted distance and category.
type SixMinuteWalkResult struct {
	Result
	PredictedMeters *float64 `json:"predicted_meters,omitempty"`
	Percent         *int     `json:"percent,omitempty"`
	Category        string   `json:"category,omitempty"`
}

// PredictedWalkDistance applies the sex-specific reference equation.
func PredictedWalkDistance(age, heightCm, weightKg float64, sex Sex) float64 {
	if sex == SexFemale {
		return 2.11*heightCm - 2.29*weightKg - 5.78*age + 667
	}
	return 7.57*heightCm - 5.02*age - 1.76*weightKg - 309
}

// SixMinuteWalkPercentPredicted returns the walked distance as a rounded
// percentage of the predicted distance.
func SixMinuteWalkPercentPredicted(distance, age, heightCm, weightKg float64, sex Sex) (int, float64, error) {
	predicted := PredictedWalkDistance(age, heightCm, weightKg, sex)
	if predicted <= 0 {
		return 0, predicted, ErrNoPredictedDistance
	}
	pct := math.Round(distance / predicted * 100)
	if math.IsNaN(pct) || pct < 0 || pct > math.MaxInt32 {
		return 0, predicted, ErrWalkPercentOutOfRange
	}
	return int(pct), predicted, nil
}

func classifyWalkPercent(pct int) (string, RiskLevel) {
	switch {
	case pct >= 80:
		return "normal", RiskLow
	case pct >= 60:
		return "mild", RiskIntermediate
	case pct >= 40:
		return "moderate", RiskHigh
	default:
		return "severe", RiskCritical
	}
}

// SixMinuteWalk evaluates the six-minute walk against its reference value.
func (c Calculator) SixMinuteWalk(w SixMinuteWalkInputs) SixMinuteWalkResult {
	in := c.inputs()
	distance := read(in, "distance_meters", w.DistanceMeters, 0)
	age := read(in, "age", w.Age, 0)
	height := read(in, "height_cm", w.HeightCm, 0)
	weight := read(in, "weight_kg", w.WeightKg, 0)
	if w.Sex != SexMale && w.Sex != SexFemale {
		in.missing = append(in.missing, "sex")
	}
	if r, short := in.short(KindSixMinuteWalk); short {
		return SixMinuteWalkResult{Result: r}
	}
	if distance < 0 || age < 0 || height < 0 || weight < 0 {
		return SixMinuteWalkResult{Result: in.invalid(KindSixMinuteWalk, "walk inputs must not be negative")}
	}
	if distance > MaxWalkDistanceMeters {
		return SixMinuteWalkResult{Result: in.invalid(KindSixMinuteWalk,
			fmt.Sprintf("distance_meters %v exceeds the plausible maximum of %d m", distance, MaxWalkDistanceMeters))}
	}

	pct, predicted, err := SixMinuteWalkPercentPredicted(distance, age, height, weight, w.Sex)
	if err != nil {
		return SixMinuteWalkResult{Result: in.invalid(KindSixMinuteWalk, err.Error())}
	}
	category, level := classifyWalkPercent(pct)
	predicted = round(predicted, 1)
	r := determined(KindSixMinuteWalk, float64(pct), formatInt(pct)+"%", category+" ("+formatInt(pct)+"% of predicted)", level)
	return SixMinuteWalkResult{
		Result:          in.finish(r),
		PredictedMeters: &predicted,
		Percent:         &pct,
		Category:        category,
	}
}
