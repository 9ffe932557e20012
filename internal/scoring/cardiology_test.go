package scoring

import (
	"errors"
	"strings"
	"testing"
)

func TestCHA2DS2VASc_Weights(t *testing.T) {
	tests := []struct {
		name    string
		factors []Factor
		want    int
	}{
		{"empty", nil, 0},
		{"age and stroke", []Factor{"edad-75", "ictus-avc"}, 4},
		{"single", []Factor{"hta"}, 1},
		{"duplicates once", []Factor{"hta", "hta", "HTA "}, 1},
		{"unknown ignored", []Factor{"fumador", "diabetes"}, 1},
		{"all", []Factor{"icc", "hta", "edad-75", "diabetes", "ictus-avc", "enfermedad-vascular", "sexo-femenino"}, 9},
		{"age tags exclusive", []Factor{"edad-75", "edad-65-74"}, 2},
		{"younger age band alone", []Factor{"edad-65-74"}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CHA2DS2VASc(tt.factors); got != tt.want {
				t.Errorf("CHA2DS2VASc(%v) = %d, want %d", tt.factors, got, tt.want)
			}
		})
	}
}

func TestCalculator_CHA2DS2VASc(t *testing.T) {
	c := NewCalculator(PolicyStrict)

	empty := c.CHA2DS2VASc(CHA2DS2VAScInputs{})
	if !empty.OK() || *empty.Value != 0 || empty.RiskLevel != RiskLow {
		t.Errorf("empty factors = %+v, want 0/low", empty)
	}

	r := c.CHA2DS2VASc(CHA2DS2VAScInputs{Factors: []Factor{"ictus-avc", "edad-75"}})
	if *r.Value != 4 || r.RiskLevel != RiskHigh {
		t.Errorf("value = %v/%s, want 4/high", *r.Value, r.RiskLevel)
	}
	if len(r.Components) != 2 || r.Components[0].Name != "edad-75" || r.Components[0].Points != 2 {
		t.Errorf("components = %+v", r.Components)
	}

	one := c.CHA2DS2VASc(CHA2DS2VAScInputs{Factors: []Factor{"sexo-femenino"}})
	if one.RiskLevel != RiskIntermediate {
		t.Errorf("one factor risk = %s, want intermediate", one.RiskLevel)
	}
}

func TestCalculator_CHA2DS2VASc_Warnings(t *testing.T) {
	c := NewCalculator(PolicyStrict)

	r := c.CHA2DS2VASc(CHA2DS2VAScInputs{Factors: []Factor{"edad-75", "edad-65-74", "hta", "obesidad"}})
	if *r.Value != 3 {
		t.Errorf("value = %v, want 3", *r.Value)
	}
	if len(r.Warnings) != 2 {
		t.Fatalf("warnings = %v, want 2", r.Warnings)
	}
	if !strings.Contains(r.Warnings[0], "obesidad") {
		t.Errorf("first warning = %q, want unknown factor", r.Warnings[0])
	}
	if !strings.Contains(r.Warnings[1], "exclusive") {
		t.Errorf("second warning = %q, want exclusive age", r.Warnings[1])
	}
}

func TestCalculator_HASBLED(t *testing.T) {
	c := NewCalculator(PolicyStrict)
	tests := []struct {
		factors []Factor
		want    float64
		level   RiskLevel
	}{
		{nil, 0, RiskLow},
		{[]Factor{"sangrado", "alcohol"}, 2, RiskLow},
		{[]Factor{"sangrado", "alcohol", "farmacos"}, 3, RiskIntermediate},
		{[]Factor{"sangrado", "alcohol", "farmacos", "inr-labil"}, 4, RiskHigh},
		{[]Factor{"sangrado", "sangrado", "desconocido"}, 1, RiskLow},
	}
	for _, tt := range tests {
		r := c.HASBLED(HASBLEDInputs{Factors: tt.factors})
		if *r.Value != tt.want || r.RiskLevel != tt.level {
			t.Errorf("HASBLED(%v) = %v/%s, want %v/%s", tt.factors, *r.Value, r.RiskLevel, tt.want, tt.level)
		}
	}
	if got := HASBLED([]Factor{"ictus", "edad-mayor-65", "hta-no-controlada"}); got != 3 {
		t.Errorf("HASBLED raw = %d, want 3", got)
	}
}

func TestGRACE_AgeBands(t *testing.T) {
	tests := []struct {
		age  float64
		want int
	}{
		{29, 0}, {30, 8}, {40, 25}, {50, 41}, {60, 58}, {70, 75},
		{79, 75}, {80, 91}, {85, 91}, {89, 91}, {90, 100}, {101, 100},
	}
	for _, tt := range tests {
		if got := bandPoints(graceAge, tt.age); got != tt.want {
			t.Errorf("age %v = %d points, want %d", tt.age, got, tt.want)
		}
	}
}

func TestGRACE_VitalBands(t *testing.T) {
	tests := []struct {
		name  string
		table []band
		v     float64
		want  int
	}{
		{"hr 49", graceHeartRate, 49, 0},
		{"hr 50", graceHeartRate, 50, 3},
		{"hr 110", graceHeartRate, 110, 24},
		{"hr 200", graceHeartRate, 200, 46},
		{"sbp 79", graceSystolicBP, 79, 58},
		{"sbp 80", graceSystolicBP, 80, 53},
		{"sbp 139", graceSystolicBP, 139, 34},
		{"sbp 199", graceSystolicBP, 199, 10},
		{"sbp 200", graceSystolicBP, 200, 0},
		{"creat 0.39", graceCreatinine, 0.39, 1},
		{"creat 0.4", graceCreatinine, 0.4, 4},
		{"creat 1.99", graceCreatinine, 1.99, 13},
		{"creat 3.99", graceCreatinine, 3.99, 21},
		{"creat 4", graceCreatinine, 4, 28},
	}
	for _, tt := range tests {
		if got := bandPoints(tt.table, tt.v); got != tt.want {
			t.Errorf("%s = %d, want %d", tt.name, got, tt.want)
		}
	}
}

func TestGRACE_Total(t *testing.T) {
	f := GRACEFactors{
		Age: 65, HeartRate: 95, SystolicBP: 130, Creatinine: 1.0,
		Killip: 2, STSegmentDeviation: true,
	}
	got, err := GRACE(f)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 58 + 15 + 34 + 7 + 20 + 28
	if got != 162 {
		t.Errorf("GRACE = %d, want 162", got)
	}

	f.ElevatedEnzymes = true
	f.CardiacArrest = true
	if got, _ := GRACE(f); got != 162+14+39 {
		t.Errorf("GRACE with add-ons = %d, want %d", got, 162+14+39)
	}

	f.Killip = 5
	if _, err := GRACE(f); !errors.Is(err, ErrKillipClass) {
		t.Errorf("killip 5 err = %v, want ErrKillipClass", err)
	}
}

func TestClassifyGRACE(t *testing.T) {
	tests := []struct {
		v     int
		level RiskLevel
	}{
		{42, RiskLow}, {108, RiskLow}, {109, RiskIntermediate}, {140, RiskIntermediate}, {141, RiskHigh},
	}
	for _, tt := range tests {
		if _, level := classifyGRACE(tt.v); level != tt.level {
			t.Errorf("classifyGRACE(%d) = %s, want %s", tt.v, level, tt.level)
		}
	}
}

func TestCalculator_GRACE(t *testing.T) {
	c := NewCalculator(PolicyStrict)
	in := GRACEInputs{
		Age: ptrF(35), HeartRate: ptrF(60), SystolicBP: ptrF(150), Creatinine: ptrF(0.9), KillipClass: ptrI(1),
	}
	r := c.GRACE(in)
	if !r.OK() || *r.Value != 42 {
		t.Fatalf("GRACE = %+v, want 42", r)
	}
	if r.Interpretation != "low risk (<1% in-hospital mortality)" {
		t.Errorf("interpretation = %q", r.Interpretation)
	}
	if len(r.Components) != 5 {
		t.Errorf("components = %d, want 5", len(r.Components))
	}

	in.Creatinine = nil
	if missing := c.GRACE(in); missing.Status != StatusInsufficientData {
		t.Errorf("missing creatinine status = %s", missing.Status)
	}

	in.Creatinine = ptrF(0.9)
	in.KillipClass = ptrI(0)
	if bad := c.GRACE(in); bad.Status != StatusUndetermined {
		t.Errorf("killip 0 status = %s, want undetermined", bad.Status)
	}
}

func TestCalculator_TIMI(t *testing.T) {
	c := NewCalculator(PolicyStrict)

	r := c.TIMI(TIMIInputs{Factors: []Factor{"edad-65", "desviacion-st", "marcadores-positivos"}})
	if *r.Value != 3 || r.RiskLevel != RiskIntermediate || r.Display != "3/7" {
		t.Errorf("TIMI = %+v", r)
	}

	over := c.TIMI(TIMIInputs{FactorCount: ptrI(9)})
	if *over.Value != 7 || over.RiskLevel != RiskHigh || len(over.Warnings) != 1 {
		t.Errorf("TIMI count 9 = %+v", over)
	}

	if none := c.TIMI(TIMIInputs{}); *none.Value != 0 || none.RiskLevel != RiskLow {
		t.Errorf("TIMI none = %+v", none)
	}

	tests := []struct {
		v     int
		level RiskLevel
	}{
		{2, RiskLow}, {3, RiskIntermediate}, {4, RiskIntermediate}, {5, RiskHigh},
	}
	for _, tt := range tests {
		if _, level := classifyTIMI(tt.v); level != tt.level {
			t.Errorf("classifyTIMI(%d) = %s, want %s", tt.v, level, tt.level)
		}
	}
	if TIMI(-2) != 0 || TIMI(12) != 7 {
		t.Error("TIMI should clamp to [0,7]")
	}
}

func TestAnkleBrachialIndex_ZeroArm(t *testing.T) {
	if _, _, err := AnkleBrachialIndex(0, 0, 100, 100); !errors.Is(err, ErrArmPressureRequired) {
		t.Errorf("err = %v, want ErrArmPressureRequired", err)
	}

	r := NewCalculator(PolicyStrict).AnkleBrachialIndex(AnkleIndexInputs{
		ArmPressure:   SidePressures{Right: ptrF(0), Left: ptrF(0)},
		AnklePressure: SidePressures{Right: ptrF(100), Left: ptrF(100)},
	})
	if r.Status != StatusUndetermined || r.Value != nil {
		t.Fatalf("status = %s, want undetermined", r.Status)
	}
	if r.Interpretation != ErrArmPressureRequired.Error() {
		t.Errorf("interpretation = %q, want %q", r.Interpretation, ErrArmPressureRequired.Error())
	}
	if r.Right != nil || r.Left != nil {
		t.Error("sides should be empty for the sentinel")
	}
}

func TestCalculator_AnkleBrachialIndex(t *testing.T) {
	c := NewCalculator(PolicyStrict)
	r := c.AnkleBrachialIndex(AnkleIndexInputs{
		ArmPressure:   SidePressures{Right: ptrF(120), Left: ptrF(130)},
		AnklePressure: SidePressures{Right: ptrF(104), Left: ptrF(182)},
	})
	if !r.OK() {
		t.Fatalf("status = %s", r.Status)
	}
	if r.Right.Index != 0.8 || r.Right.Interpretation != "peripheral arterial disease" {
		t.Errorf("right = %+v", r.Right)
	}
	if r.Left.Index != 1.4 || r.Left.Interpretation != "arterial calcification" {
		t.Errorf("left = %+v", r.Left)
	}
	if *r.Value != 0.8 || r.RiskLevel != RiskHigh || r.Display != "0.80" {
		t.Errorf("overall = %v %s %q", *r.Value, r.RiskLevel, r.Display)
	}
	if r.Interpretation != "right: peripheral arterial disease; left: arterial calcification" {
		t.Errorf("interpretation = %q", r.Interpretation)
	}

	oneSide := c.AnkleBrachialIndex(AnkleIndexInputs{
		ArmPressure:   SidePressures{Right: ptrF(120)},
		AnklePressure: SidePressures{Left: ptrF(120)},
	})
	if oneSide.Right != nil || oneSide.Left == nil || oneSide.Left.Index != 1 {
		t.Errorf("one side = %+v", oneSide)
	}

	noAnkle := c.AnkleBrachialIndex(AnkleIndexInputs{ArmPressure: SidePressures{Right: ptrF(120)}})
	if noAnkle.Status != StatusInsufficientData {
		t.Errorf("no ankle status = %s", noAnkle.Status)
	}
}

func TestClassifyABI(t *testing.T) {
	tests := []struct {
		v    float64
		want string
	}{
		{0.89, "peripheral arterial disease"},
		{0.9, "normal"},
		{1.3, "normal"},
		{1.31, "arterial calcification"},
	}
	for _, tt := range tests {
		if got, _ := classifyABI(tt.v); got != tt.want {
			t.Errorf("classifyABI(%v) = %q, want %q", tt.v, got, tt.want)
		}
	}
}

func TestCHA2DS2VASc_RawMatchesCalculator(t *testing.T) {
	c := NewCalculator(PolicyStrict)
	sets := [][]Factor{
		{"edad-75", "edad-65-74"},
		{"edad-65-74", "edad-75", "hta"},
		{"edad-65-74", "sexo-femenino"},
		{"ictus-avc", "edad-75", "edad-65-74", "diabetes"},
	}
	for _, fs := range sets {
		raw := CHA2DS2VASc(fs)
		r := c.CHA2DS2VASc(CHA2DS2VAScInputs{Factors: fs})
		if float64(raw) != *r.Value {
			t.Errorf("factors %v: raw = %d, calculator = %v", fs, raw, *r.Value)
		}
	}
}
