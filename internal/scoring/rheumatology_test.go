package scoring

import (
	"errors"
	"math"
	"strings"
	"testing"
)

func TestDAS28_ESROnly(t *testing.T) {
	got, err := DAS28(0, 0, 20, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.IsInf(got, 0) || math.IsNaN(got) {
		t.Fatalf("DAS28(0,0,20,0) = %v, want finite", got)
	}
	if got != 2.10 {
		t.Errorf("DAS28(0,0,20,0) = %v, want 2.10", got)
	}
}

func TestDAS28_NonPositiveESR(t *testing.T) {
	for _, esr := range []float64{0, -3} {
		if _, err := DAS28(4, 2, esr, 30); !errors.Is(err, ErrNonPositiveESR) {
			t.Errorf("DAS28 esr=%v err = %v, want ErrNonPositiveESR", esr, err)
		}
	}
}

func TestClassifyDAS28(t *testing.T) {
	tests := []struct {
		v     float64
		label string
	}{
		{2.59, "remission"},
		{2.6, "low disease activity"},
		{3.19, "low disease activity"},
		{3.2, "moderate disease activity"},
		{5.1, "moderate disease activity"},
		{5.11, "high disease activity"},
	}
	for _, tt := range tests {
		if got, _ := classifyDAS28(tt.v); got != tt.label {
			t.Errorf("classifyDAS28(%v) = %q, want %q", tt.v, got, tt.label)
		}
	}
}

func TestCalculator_DAS28_Strict(t *testing.T) {
	c := NewCalculator(PolicyStrict)
	r := c.DAS28(DAS28Inputs{TenderJointCount: ptrI(4), SwollenJointCount: ptrI(2)})
	if r.Status != StatusInsufficientData {
		t.Fatalf("status = %s, want insufficient_data", r.Status)
	}
	if r.Interpretation != "insufficient data: missing esr, patient_global_assessment" {
		t.Errorf("interpretation = %q", r.Interpretation)
	}
	if len(r.DefaultsApplied) != 0 {
		t.Errorf("strict policy applied defaults: %v", r.DefaultsApplied)
	}
}

func TestCalculator_DAS28_FastEntry(t *testing.T) {
	c := NewCalculator(PolicyFastEntry)
	r := c.DAS28(DAS28Inputs{TenderJointCount: ptrI(4), SwollenJointCount: ptrI(2)})
	if !r.OK() {
		t.Fatalf("status = %s, want ok", r.Status)
	}
	if *r.Value != 4.31 {
		t.Errorf("value = %v, want 4.31", *r.Value)
	}
	if r.Interpretation != "moderate disease activity (defaults applied)" {
		t.Errorf("interpretation = %q", r.Interpretation)
	}
	want := []AppliedDefault{
		{Field: "esr", Value: DefaultESR},
		{Field: "patient_global_assessment", Value: DefaultPatientGlobalAssessment},
	}
	if len(r.DefaultsApplied) != len(want) {
		t.Fatalf("defaults = %v, want %v", r.DefaultsApplied, want)
	}
	for i := range want {
		if r.DefaultsApplied[i] != want[i] {
			t.Errorf("default[%d] = %v, want %v", i, r.DefaultsApplied[i], want[i])
		}
	}
}

func TestCalculator_DAS28_Invalid(t *testing.T) {
	c := NewCalculator(PolicyStrict)
	tests := []struct {
		name string
		in   DAS28Inputs
	}{
		{"negative tender", DAS28Inputs{TenderJointCount: ptrI(-1), SwollenJointCount: ptrI(0), ESR: ptrF(20), PatientGlobalAssessment: ptrF(10)}},
		{"zero esr", DAS28Inputs{TenderJointCount: ptrI(1), SwollenJointCount: ptrI(0), ESR: ptrF(0), PatientGlobalAssessment: ptrF(10)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := c.DAS28(tt.in)
			if r.Status != StatusUndetermined || r.Value != nil {
				t.Errorf("result = %+v, want undetermined without value", r)
			}
		})
	}
}

func TestCalculator_DAS28_ClampsJointCounts(t *testing.T) {
	r := NewCalculator(PolicyStrict).DAS28(DAS28Inputs{
		TenderJointCount: ptrI(30), SwollenJointCount: ptrI(0), ESR: ptrF(20), PatientGlobalAssessment: ptrF(0),
	})
	if !r.OK() {
		t.Fatalf("status = %s", r.Status)
	}
	want, _ := DAS28(28, 0, 20, 0)
	if *r.Value != want {
		t.Errorf("value = %v, want %v", *r.Value, want)
	}
	if len(r.Warnings) != 1 {
		t.Errorf("warnings = %v, want 1", r.Warnings)
	}
}

func TestBASDAI(t *testing.T) {
	tests := []struct {
		q     [6]float64
		want  float64
		label string
	}{
		{[6]float64{5, 5, 5, 5, 5, 5}, 5, "high disease activity"},
		{[6]float64{2, 2, 2, 2, 2, 2}, 2, "moderate disease activity"},
		{[6]float64{1, 1, 1, 1, 4, 0}, 1.2, "low disease activity"},
		{[6]float64{4, 4, 4, 4, 4, 4}, 4, "high disease activity"},
	}
	c := NewCalculator(PolicyStrict)
	for _, tt := range tests {
		if got := BASDAI(tt.q[0], tt.q[1], tt.q[2], tt.q[3], tt.q[4], tt.q[5]); got != tt.want {
			t.Errorf("BASDAI(%v) = %v, want %v", tt.q, got, tt.want)
		}
		r := c.BASDAI(BASDAIInputs{
			Fatigue: ptrF(tt.q[0]), SpinalPain: ptrF(tt.q[1]), JointPainSwelling: ptrF(tt.q[2]),
			LocalizedTenderness: ptrF(tt.q[3]), StiffnessSeverity: ptrF(tt.q[4]), StiffnessDuration: ptrF(tt.q[5]),
		})
		if r.Interpretation != tt.label {
			t.Errorf("BASDAI(%v) label = %q, want %q", tt.q, r.Interpretation, tt.label)
		}
	}
}

func TestCalculator_BASDAI_Clamps(t *testing.T) {
	r := NewCalculator(PolicyStrict).BASDAI(BASDAIInputs{
		Fatigue: ptrF(12), SpinalPain: ptrF(10), JointPainSwelling: ptrF(10),
		LocalizedTenderness: ptrF(10), StiffnessSeverity: ptrF(10), StiffnessDuration: ptrF(10),
	})
	if *r.Value != 10 {
		t.Errorf("value = %v, want 10", *r.Value)
	}
	if len(r.Warnings) != 1 || !strings.HasPrefix(r.Warnings[0], "fatigue") {
		t.Errorf("warnings = %v", r.Warnings)
	}
}

func TestCalculator_WOMAC(t *testing.T) {
	c := NewCalculator(PolicyStrict)
	tests := []struct {
		pain, stiff, fn int
		want            float64
		label           string
	}{
		{0, 0, 0, 0, "mild"},
		{5, 4, 10, 19, "mild"},
		{5, 4, 11, 20, "moderate"},
		{10, 4, 25, 39, "moderate"},
		{10, 4, 26, 40, "severe"},
		{25, 4, 30, 54, "severe"},
	}
	for _, tt := range tests {
		r := c.WOMAC(WOMACInputs{PainScore: ptrI(tt.pain), StiffnessScore: ptrI(tt.stiff), FunctionScore: ptrI(tt.fn)})
		if *r.Value != tt.want || r.Interpretation != tt.label {
			t.Errorf("WOMAC(%d,%d,%d) = %v %q, want %v %q", tt.pain, tt.stiff, tt.fn, *r.Value, r.Interpretation, tt.want, tt.label)
		}
	}
}

func TestACREULAR(t *testing.T) {
	tests := []struct {
		name string
		in   ACREULARInputs
		want int
		meet bool
	}{
		{"maximum", ACREULARInputs{JointsMoreThanTen, SerologyHighPositive, ReactantsAbnormal, DurationSixWeeksPlus}, 10, true},
		{"threshold", ACREULARInputs{JointsOneToThreeSmall, SerologyLowPositive, ReactantsAbnormal, DurationSixWeeksPlus}, 6, true},
		{"below", ACREULARInputs{JointsTwoToTenLarge, SerologyNegative, ReactantsNormal, DurationSixWeeksPlus}, 2, false},
		{"minimum", ACREULARInputs{JointsOneLarge, SerologyNegative, ReactantsNormal, DurationUnderSixWeeks}, 0, false},
	}
	c := NewCalculator(PolicyStrict)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ACREULAR(tt.in.JointInvolvement, tt.in.Serology, tt.in.AcutePhaseReactants, tt.in.SymptomDuration)
			if err != nil || got != tt.want {
				t.Fatalf("ACREULAR = %d, %v; want %d", got, err, tt.want)
			}
			r := c.ACREULAR(tt.in)
			if meets := strings.HasPrefix(r.Interpretation, "meets"); meets != tt.meet {
				t.Errorf("interpretation = %q, meets = %v", r.Interpretation, tt.meet)
			}
		})
	}
}

func TestCalculator_ACREULAR_Policies(t *testing.T) {
	partial := ACREULARInputs{JointInvolvement: JointsFourToTenSmall, Serology: SerologyHighPositive}

	strict := NewCalculator(PolicyStrict).ACREULAR(partial)
	if strict.Status != StatusInsufficientData {
		t.Errorf("strict status = %s, want insufficient_data", strict.Status)
	}

	fast := NewCalculator(PolicyFastEntry).ACREULAR(partial)
	if !fast.OK() || *fast.Value != 6 {
		t.Fatalf("fast-entry = %+v, want 6", fast)
	}
	if len(fast.DefaultsApplied) != 2 {
		t.Errorf("defaults = %v, want 2", fast.DefaultsApplied)
	}

	unknown := NewCalculator(PolicyStrict).ACREULAR(ACREULARInputs{"all", SerologyNegative, ReactantsNormal, DurationSixWeeksPlus})
	if unknown.Status != StatusUndetermined {
		t.Errorf("unknown category status = %s, want undetermined", unknown.Status)
	}
}
