package exam

import (
	"time"

	"github.com/google/uuid"

	"github.com/ehr/examscore/internal/report"
	"github.com/ehr/examscore/internal/scoring"
)

// Exam is a transient specialty intake exam. It is evaluated and discarded,
// never stored.
type Exam struct {
	ID            uuid.UUID              `json:"id,omitempty" yaml:"id"`
	PatientID     string                 `json:"patient_id" yaml:"patient_id"`
	Specialty     scoring.Specialty      `json:"specialty" yaml:"specialty"`
	Anthropometry *scoring.Anthropometry `json:"anthropometry,omitempty" yaml:"anthropometry"`
	Pneumology    *PneumologySection     `json:"pneumology,omitempty" yaml:"pneumology"`
	Cardiology    *CardiologySection     `json:"cardiology,omitempty" yaml:"cardiology"`
	Dermatology   *DermatologySection    `json:"dermatology,omitempty" yaml:"dermatology"`
	Traumatology  *TraumatologySection   `json:"traumatology,omitempty" yaml:"traumatology"`
	Findings      []string               `json:"findings,omitempty" yaml:"findings"`
	Notes         string                 `json:"notes,omitempty" yaml:"notes"`
}

type PneumologySection struct {
	Smoking       *scoring.SmokingHistory      `json:"smoking,omitempty" yaml:"smoking"`
	CAT           *scoring.CATAssessment       `json:"cat,omitempty" yaml:"cat"`
	BODE          *scoring.BODEInputs          `json:"bode,omitempty" yaml:"bode"`
	SixMinuteWalk *scoring.SixMinuteWalkInputs `json:"six_minute_walk,omitempty" yaml:"six_minute_walk"`
}

type CardiologySection struct {
	CHA2DS2VASc *scoring.CHA2DS2VAScInputs `json:"cha2ds2_vasc,omitempty" yaml:"cha2ds2_vasc"`
	HASBLED     *scoring.HASBLEDInputs     `json:"has_bled,omitempty" yaml:"has_bled"`
	GRACE       *scoring.GRACEInputs       `json:"grace,omitempty" yaml:"grace"`
	TIMI        *scoring.TIMIInputs        `json:"timi,omitempty" yaml:"timi"`
	ABI         *scoring.AnkleIndexInputs  `json:"ankle_brachial_index,omitempty" yaml:"ankle_brachial_index"`
}

// Lesion is one examined skin lesion.
type Lesion struct {
	Site        string              `json:"site" yaml:"site"`
	Description string              `json:"description,omitempty" yaml:"description"`
	ABCDE       scoring.ABCDEInputs `json:"abcde" yaml:"abcde"`
}

type DermatologySection struct {
	Lesions []Lesion `json:"lesions" yaml:"lesions"`
}

type TraumatologySection struct {
	DAS28    *scoring.DAS28Inputs    `json:"das28,omitempty" yaml:"das28"`
	BASDAI   *scoring.BASDAIInputs   `json:"basdai,omitempty" yaml:"basdai"`
	WOMAC    *scoring.WOMACInputs    `json:"womac,omitempty" yaml:"womac"`
	ACREULAR *scoring.ACREULARInputs `json:"acr_eular,omitempty" yaml:"acr_eular"`
}

// Score is one computed score of an evaluation. Result holds the full
// outcome, including per-side or per-test detail where the score has it.
type Score struct {
	Kind   scoring.Kind    `json:"kind"`
	Title  string          `json:"title"`
	Label  string          `json:"label,omitempty"`
	Result scoring.Outcome `json:"result"`
}

// Evaluation is the response to an evaluated exam.
type Evaluation struct {
	ID          uuid.UUID         `json:"id"`
	ExamID      uuid.UUID         `json:"exam_id,omitempty"`
	PatientID   string            `json:"patient_id"`
	Specialty   scoring.Specialty `json:"specialty"`
	EvaluatedAt time.Time         `json:"evaluated_at"`
	Scores      []Score           `json:"scores"`
	Findings    []string          `json:"findings,omitempty"`
	Notes       string            `json:"notes,omitempty"`
	Report      string            `json:"report"`
}

// Results returns the summary of every score in evaluation order.
func (e *Evaluation) Results() []scoring.Result {
	out := make([]scoring.Result, len(e.Scores))
	for i, s := range e.Scores {
		out[i] = s.Result.Summary()
	}
	return out
}

// Rows flattens the evaluation into workbook rows, one per score.
func (e *Evaluation) Rows() []report.Row {
	rows := make([]report.Row, len(e.Scores))
	for i, s := range e.Scores {
		rows[i] = report.Row{PatientID: e.PatientID, Title: s.Title, Label: s.Label, Result: s.Result.Summary()}
	}
	return rows
}

// sections lists the specialty sections present on the exam.
func (x *Exam) sections() []scoring.Specialty {
	var out []scoring.Specialty
	if x.Pneumology != nil {
		out = append(out, scoring.SpecialtyPneumology)
	}
	if x.Cardiology != nil {
		out = append(out, scoring.SpecialtyCardiology)
	}
	if x.Dermatology != nil {
		out = append(out, scoring.SpecialtyDermatology)
	}
	if x.Traumatology != nil {
		out = append(out, scoring.SpecialtyTraumatology)
	}
	return out
}

var specialties = map[scoring.Specialty]bool{
	scoring.SpecialtyCardiology:    true,
	scoring.SpecialtyDermatology:   true,
	scoring.SpecialtyHematology:    true,
	scoring.SpecialtyOphthalmology: true,
	scoring.SpecialtyPneumology:    true,
	scoring.SpecialtyTraumatology:  true,
}
