package exam

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/ehr/examscore/internal/scoring"
)

func ptrF(v float64) *float64 { return &v }
func ptrI(v int) *int         { return &v }

type recordingObserver struct {
	patientID string
	results   []scoring.Result
}

func (o *recordingObserver) Observe(_ context.Context, patientID string, results ...scoring.Result) {
	o.patientID = patientID
	o.results = append(o.results, results...)
}

func newTestService() (*Service, *recordingObserver) {
	obs := &recordingObserver{}
	svc := NewService(scoring.NewCalculator(scoring.PolicyStrict), obs, nil)
	svc.now = func() time.Time { return time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC) }
	return svc, obs
}

func cardiologyExam() Exam {
	return Exam{
		PatientID:     "pat-1",
		Specialty:     scoring.SpecialtyCardiology,
		Anthropometry: &scoring.Anthropometry{WeightKg: ptrF(70), HeightCm: ptrF(175)},
		Cardiology: &CardiologySection{
			CHA2DS2VASc: &scoring.CHA2DS2VAScInputs{Factors: []scoring.Factor{"hta", "edad-75"}},
			HASBLED:     &scoring.HASBLEDInputs{Factors: []scoring.Factor{"hta-no-controlada"}},
			GRACE: &scoring.GRACEInputs{
				Age: ptrF(65), HeartRate: ptrF(95), SystolicBP: ptrF(130), Creatinine: ptrF(1.0),
				KillipClass: ptrI(2), STSegmentDeviation: true,
			},
			TIMI: &scoring.TIMIInputs{FactorCount: ptrI(3)},
		},
		Findings: []string{"soplo sistolico"},
		Notes:    "Derivado desde urgencias.",
	}
}

func TestEvaluate_Cardiology(t *testing.T) {
	svc, obs := newTestService()
	ev, err := svc.Evaluate(context.Background(), cardiologyExam())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantKinds := []scoring.Kind{scoring.KindBMI, scoring.KindCHA2DS2VASc, scoring.KindHASBLED, scoring.KindGRACE, scoring.KindTIMI}
	if len(ev.Scores) != len(wantKinds) {
		t.Fatalf("scores = %d, want %d", len(ev.Scores), len(wantKinds))
	}
	for i, k := range wantKinds {
		if ev.Scores[i].Kind != k {
			t.Errorf("scores[%d] = %s, want %s", i, ev.Scores[i].Kind, k)
		}
	}
	if v := ev.Scores[3].Result.Summary().Value; v == nil || *v != 162 {
		t.Errorf("GRACE = %v, want 162", v)
	}
	if !strings.Contains(ev.Report, "GRACE: 162") || !strings.Contains(ev.Report, "soplo sistolico") {
		t.Errorf("report:\n%s", ev.Report)
	}
	if !ev.EvaluatedAt.Equal(time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)) {
		t.Errorf("evaluated_at = %v", ev.EvaluatedAt)
	}
	if obs.patientID != "pat-1" || len(obs.results) != 5 {
		t.Errorf("observer got %q with %d results", obs.patientID, len(obs.results))
	}
}

func TestEvaluate_Validation(t *testing.T) {
	svc, _ := newTestService()
	tests := []struct {
		name string
		exam Exam
		err  error
	}{
		{"no patient", Exam{Specialty: scoring.SpecialtyHematology}, ErrInvalidExam},
		{"unknown specialty", Exam{PatientID: "p", Specialty: "oncology"}, ErrUnknownSpecialty},
		{"foreign section", Exam{PatientID: "p", Specialty: scoring.SpecialtyPneumology, Cardiology: &CardiologySection{}}, ErrSectionNotAllowed},
		{"hematology with section", Exam{PatientID: "p", Specialty: scoring.SpecialtyHematology, Traumatology: &TraumatologySection{}}, ErrSectionNotAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Evaluate(context.Background(), tt.exam); !errors.Is(err, tt.err) {
				t.Errorf("err = %v, want %v", err, tt.err)
			}
		})
	}
}

func TestEvaluate_FindingsOnlySpecialty(t *testing.T) {
	svc, _ := newTestService()
	ev, err := svc.Evaluate(context.Background(), Exam{
		PatientID: "p",
		Specialty: scoring.SpecialtyOphthalmology,
		Findings:  []string{"catarata OD"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(ev.Scores) != 0 || ev.Scores == nil {
		t.Errorf("scores = %#v, want empty slice", ev.Scores)
	}
	if !strings.Contains(ev.Report, "Scores\n  none\n") || !strings.Contains(ev.Report, "catarata OD") {
		t.Errorf("report:\n%s", ev.Report)
	}
}

func TestEvaluate_PneumologyUsesAnthropometry(t *testing.T) {
	svc, _ := newTestService()
	ev, err := svc.Evaluate(context.Background(), Exam{
		PatientID:     "p",
		Specialty:     scoring.SpecialtyPneumology,
		Anthropometry: &scoring.Anthropometry{WeightKg: ptrF(80), HeightCm: ptrF(175)},
		Pneumology: &PneumologySection{
			BODE: &scoring.BODEInputs{FEV1Percent: ptrF(45), MMRC: ptrI(2), WalkDistanceMeters: ptrF(300)},
			SixMinuteWalk: &scoring.SixMinuteWalkInputs{
				DistanceMeters: ptrF(459), Age: ptrF(60), Sex: scoring.SexMale,
			},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	byKind := map[scoring.Kind]scoring.Result{}
	for _, sc := range ev.Scores {
		byKind[sc.Kind] = sc.Result.Summary()
	}
	// BMI 26.1 -> 0, FEV1 45 -> 2, mMRC 2 -> 1, 300 m -> 1
	if r := byKind[scoring.KindBODE]; !r.OK() || *r.Value != 4 {
		t.Errorf("BODE = %+v, want 4", r)
	}
	if r := byKind[scoring.KindSixMinuteWalk]; !r.OK() || *r.Value != 80 {
		t.Errorf("6MWT = %+v, want 80%%", r)
	}
}

func TestEvaluate_DermatologyLesions(t *testing.T) {
	svc, _ := newTestService()
	ev, err := svc.Evaluate(context.Background(), Exam{
		PatientID: "p",
		Specialty: scoring.SpecialtyDermatology,
		Dermatology: &DermatologySection{Lesions: []Lesion{
			{Site: "espalda", ABCDE: scoring.ABCDEInputs{Asymmetry: true, Border: true, Color: true}},
			{ABCDE: scoring.ABCDEInputs{}},
		}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(ev.Scores) != 2 {
		t.Fatalf("scores = %d", len(ev.Scores))
	}
	if ev.Scores[0].Label != "espalda" || ev.Scores[1].Label != "lesion 2" {
		t.Errorf("labels = %q, %q", ev.Scores[0].Label, ev.Scores[1].Label)
	}
	if ev.Scores[0].Result.Summary().RiskLevel != scoring.RiskHigh {
		t.Errorf("lesion 1 = %+v", ev.Scores[0].Result.Summary())
	}
}

func TestRecalculate(t *testing.T) {
	svc, obs := newTestService()
	x := cardiologyExam()

	got, err := svc.Recalculate(context.Background(), x, "timi")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Kind != scoring.KindTIMI {
		t.Fatalf("got %+v", got)
	}
	if len(obs.results) != 1 {
		t.Errorf("observed %d results, want only the recalculated one", len(obs.results))
	}

	if got, err := svc.Recalculate(context.Background(), x, "bmi"); err != nil || len(got) != 1 {
		t.Errorf("bmi on cardiology exam: %v, %v", got, err)
	}

	tests := []struct {
		section string
		err     error
	}{
		{"apgar", ErrUnknownSection},
		{"das28", ErrSectionNotAllowed},
		{"ankle-brachial-index", ErrSectionMissing},
	}
	for _, tt := range tests {
		if _, err := svc.Recalculate(context.Background(), x, tt.section); !errors.Is(err, tt.err) {
			t.Errorf("%s: err = %v, want %v", tt.section, err, tt.err)
		}
	}
}

func TestEvaluate_Idempotent(t *testing.T) {
	svc, _ := newTestService()
	a, _ := svc.Evaluate(context.Background(), cardiologyExam())
	b, _ := svc.Evaluate(context.Background(), cardiologyExam())
	if a.Report != b.Report {
		t.Errorf("reports differ:\n%s\n---\n%s", a.Report, b.Report)
	}
}

func TestEvaluation_Rows(t *testing.T) {
	svc, _ := newTestService()
	ev, err := svc.Evaluate(context.Background(), cardiologyExam())
	if err != nil {
		t.Fatal(err)
	}
	rows := ev.Rows()
	if len(rows) != len(ev.Scores) {
		t.Fatalf("rows = %d, want %d", len(rows), len(ev.Scores))
	}
	for i, r := range rows {
		if r.PatientID != "pat-1" || r.Title != ev.Scores[i].Title || r.Result.Score != ev.Scores[i].Kind {
			t.Errorf("row %d = %+v", i, r)
		}
	}
}
