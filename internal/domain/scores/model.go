package scores

import (
	"time"

	"github.com/google/uuid"

	"github.com/ehr/examscore/internal/platform/middleware"
	"github.com/ehr/examscore/internal/scoring"
)

// CalculationRecord is one audited score computation. It records who asked
// for which score and the outcome category, never the clinical inputs.
type CalculationRecord struct {
	ID         uuid.UUID `json:"id"`
	RequestID  string    `json:"request_id,omitempty"`
	UserID     string    `json:"user_id"`
	Action     string    `json:"action"`
	PatientID  string    `json:"patient_id,omitempty"`
	Kind       string    `json:"kind"`
	Status     string    `json:"status"`
	RiskLevel  string    `json:"risk_level,omitempty"`
	StatusCode int       `json:"status_code"`
	CreatedAt  time.Time `json:"created_at"`
}

// ListFilter narrows a calculation listing. Empty fields match everything.
type ListFilter struct {
	PatientID string
	Kind      string
}

func (f ListFilter) matches(r *CalculationRecord) bool {
	return (f.PatientID == "" || r.PatientID == f.PatientID) &&
		(f.Kind == "" || r.Kind == f.Kind)
}

// recordsFromEntry expands an audit entry into one record per calculation.
func recordsFromEntry(entry middleware.AuditEntry) []*CalculationRecord {
	out := make([]*CalculationRecord, 0, len(entry.Calculations))
	for _, calc := range entry.Calculations {
		out = append(out, &CalculationRecord{
			RequestID:  entry.RequestID,
			UserID:     entry.UserID,
			Action:     entry.Action,
			PatientID:  entry.PatientID,
			Kind:       calc.Kind,
			Status:     calc.Status,
			RiskLevel:  calc.RiskLevel,
			StatusCode: entry.StatusCode,
			CreatedAt:  entry.Timestamp,
		})
	}
	return out
}

// Calculations converts score results into their audit form.
func Calculations(results ...scoring.Result) []middleware.Calculation {
	out := make([]middleware.Calculation, len(results))
	for i, r := range results {
		out[i] = middleware.Calculation{
			Kind:      string(r.Score),
			Status:    string(r.Status),
			RiskLevel: string(r.RiskLevel),
		}
	}
	return out
}
