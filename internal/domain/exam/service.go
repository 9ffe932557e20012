package exam

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ehr/examscore/internal/platform/telemetry"
	"github.com/ehr/examscore/internal/report"
	"github.com/ehr/examscore/internal/scoring"
)

var (
	ErrInvalidExam       = errors.New("invalid exam")
	ErrUnknownSpecialty  = errors.New("unknown specialty")
	ErrUnknownSection    = errors.New("unknown section")
	ErrSectionNotAllowed = errors.New("section not allowed for specialty")
	ErrSectionMissing    = errors.New("section not present on exam")
)

// Observer receives every computed result. scores.Service implements it to
// count metrics and annotate the request audit entry.
type Observer interface {
	Observe(ctx context.Context, patientID string, results ...scoring.Result)
}

type Service struct {
	calc     scoring.Calculator
	observer Observer
	metrics  *telemetry.Collector
	now      func() time.Time
}

// NewService returns an exam evaluator. observer and metrics may be nil.
func NewService(calc scoring.Calculator, observer Observer, metrics *telemetry.Collector) *Service {
	return &Service{calc: calc, observer: observer, metrics: metrics, now: time.Now}
}

// Evaluate computes every score whose section is present and assembles the
// report.
func (s *Service) Evaluate(ctx context.Context, x Exam) (*Evaluation, error) {
	if err := validate(&x); err != nil {
		return nil, err
	}

	start := time.Now()
	computed := s.score(x)
	s.metrics.ObserveEvaluation(string(x.Specialty), time.Since(start))

	ev := &Evaluation{
		ID:          uuid.New(),
		ExamID:      x.ID,
		PatientID:   x.PatientID,
		Specialty:   x.Specialty,
		EvaluatedAt: s.now().UTC(),
		Scores:      computed,
		Findings:    x.Findings,
		Notes:       x.Notes,
	}
	if ev.Scores == nil {
		ev.Scores = []Score{}
	}
	ev.Report = report.Text(reportView(ev))

	s.observe(ctx, x.PatientID, ev.Results())
	return ev, nil
}

// Recalculate recomputes the score named by section. Dermatology returns one
// score per lesion.
func (s *Service) Recalculate(ctx context.Context, x Exam, section string) ([]Score, error) {
	if err := validate(&x); err != nil {
		return nil, err
	}
	kind := scoring.Kind(section)
	def, err := scoring.Lookup(kind)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSection, section)
	}
	if kind != scoring.KindBMI && def.Specialty != x.Specialty {
		return nil, fmt.Errorf("%w: %s is a %s score, exam is %s", ErrSectionNotAllowed, kind, def.Specialty, x.Specialty)
	}

	var out []Score
	results := []scoring.Result{}
	for _, sc := range s.score(x) {
		if sc.Kind == kind {
			out = append(out, sc)
			results = append(results, sc.Result.Summary())
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrSectionMissing, section)
	}
	s.observe(ctx, x.PatientID, results)
	return out, nil
}

func (s *Service) observe(ctx context.Context, patientID string, results []scoring.Result) {
	if s.observer != nil {
		s.observer.Observe(ctx, patientID, results...)
	}
}

func validate(x *Exam) error {
	if x.PatientID == "" {
		return fmt.Errorf("%w: patient_id is required", ErrInvalidExam)
	}
	if !specialties[x.Specialty] {
		return fmt.Errorf("%w: %q", ErrUnknownSpecialty, x.Specialty)
	}
	for _, sec := range x.sections() {
		if sec != x.Specialty {
			return fmt.Errorf("%w: %s section on a %s exam", ErrSectionNotAllowed, sec, x.Specialty)
		}
	}
	return nil
}

// score runs the calculator over every present section in report order:
// anthropometry first, then the specialty scores in catalog order.
func (s *Service) score(x Exam) []Score {
	var out []Score
	add := func(label string, o scoring.Outcome) {
		r := o.Summary()
		def, _ := scoring.Lookup(r.Score)
		out = append(out, Score{Kind: r.Score, Title: def.Title, Label: label, Result: o})
	}

	if x.Anthropometry != nil {
		add("", s.calc.BMI(*x.Anthropometry))
	}

	if p := x.Pneumology; p != nil {
		if p.Smoking != nil {
			add("", s.calc.PackYears(*p.Smoking))
		}
		if p.CAT != nil {
			add("", s.calc.CAT(*p.CAT))
		}
		if p.BODE != nil {
			add("", s.calc.BODE(withExamBMI(*p.BODE, x.Anthropometry)))
		}
		if p.SixMinuteWalk != nil {
			add("", s.calc.SixMinuteWalk(withExamBody(*p.SixMinuteWalk, x.Anthropometry)))
		}
	}

	if c := x.Cardiology; c != nil {
		if c.CHA2DS2VASc != nil {
			add("", s.calc.CHA2DS2VASc(*c.CHA2DS2VASc))
		}
		if c.HASBLED != nil {
			add("", s.calc.HASBLED(*c.HASBLED))
		}
		if c.GRACE != nil {
			add("", s.calc.GRACE(*c.GRACE))
		}
		if c.TIMI != nil {
			add("", s.calc.TIMI(*c.TIMI))
		}
		if c.ABI != nil {
			add("", s.calc.AnkleBrachialIndex(*c.ABI))
		}
	}

	if d := x.Dermatology; d != nil {
		for i, l := range d.Lesions {
			label := l.Site
			if label == "" {
				label = fmt.Sprintf("lesion %d", i+1)
			}
			add(label, s.calc.ABCDE(l.ABCDE))
		}
	}

	if t := x.Traumatology; t != nil {
		if t.DAS28 != nil {
			add("", s.calc.DAS28(*t.DAS28))
		}
		if t.BASDAI != nil {
			add("", s.calc.BASDAI(*t.BASDAI))
		}
		if t.WOMAC != nil {
			add("", s.calc.WOMAC(*t.WOMAC))
		}
		if t.ACREULAR != nil {
			add("", s.calc.ACREULAR(*t.ACREULAR))
		}
	}
	return out
}

// withExamBMI fills the BODE BMI from the exam anthropometry when the BODE
// block leaves it blank.
func withExamBMI(b scoring.BODEInputs, a *scoring.Anthropometry) scoring.BODEInputs {
	if b.BMI != nil || a == nil || a.WeightKg == nil || a.HeightCm == nil {
		return b
	}
	if bmi, err := scoring.BMI(*a.WeightKg, *a.HeightCm); err == nil {
		b.BMI = &bmi
	}
	return b
}

// withExamBody fills the walk test height and weight from the anthropometry.
func withExamBody(w scoring.SixMinuteWalkInputs, a *scoring.Anthropometry) scoring.SixMinuteWalkInputs {
	if a == nil {
		return w
	}
	if w.HeightCm == nil {
		w.HeightCm = a.HeightCm
	}
	if w.WeightKg == nil {
		w.WeightKg = a.WeightKg
	}
	return w
}

func reportView(ev *Evaluation) report.Evaluation {
	entries := make([]report.Entry, len(ev.Scores))
	for i, sc := range ev.Scores {
		entries[i] = report.Entry{Title: sc.Title, Label: sc.Label, Result: sc.Result.Summary()}
	}
	return report.Evaluation{
		PatientID:   ev.PatientID,
		Specialty:   ev.Specialty,
		EvaluatedAt: ev.EvaluatedAt,
		Entries:     entries,
		Findings:    ev.Findings,
		Notes:       ev.Notes,
	}
}
