package scores

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ehr/examscore/internal/platform/middleware"
	"github.com/ehr/examscore/internal/platform/telemetry"
	"github.com/ehr/examscore/internal/scoring"
)

var (
	ErrUnknownScore = errors.New("unknown score")
	ErrInvalidInput = errors.New("invalid score input")
)

type Service struct {
	calc    scoring.Calculator
	repo    CalculationRepository
	metrics *telemetry.Collector
}

// NewService wires the calculator to the audit store. metrics may be nil.
func NewService(calc scoring.Calculator, repo CalculationRepository, metrics *telemetry.Collector) *Service {
	return &Service{calc: calc, repo: repo, metrics: metrics}
}

func (s *Service) Catalog() []scoring.Definition {
	return scoring.Catalog()
}

func (s *Service) Definition(kind string) (scoring.Definition, error) {
	d, err := scoring.Lookup(scoring.Kind(kind))
	if err != nil {
		return d, fmt.Errorf("%w: %s", ErrUnknownScore, kind)
	}
	return d, nil
}

// Calculate decodes body into the input record of kind and evaluates it.
// Unknown JSON fields are rejected so a misspelled input is not silently
// treated as missing.
func (s *Service) Calculate(ctx context.Context, kind, patientID string, body []byte) (scoring.Outcome, error) {
	input, err := scoring.NewInput(scoring.Kind(kind))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownScore, kind)
	}
	if len(bytes.TrimSpace(body)) > 0 {
		dec := json.NewDecoder(bytes.NewReader(body))
		dec.DisallowUnknownFields()
		if err := dec.Decode(input); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
	}

	start := time.Now()
	out, err := s.calc.Assess(input)
	if err != nil {
		return nil, fmt.Errorf("assess %s: %w", kind, err)
	}
	def, _ := scoring.Lookup(scoring.Kind(kind))
	s.metrics.ObserveEvaluation(string(def.Specialty), time.Since(start))

	s.Observe(ctx, patientID, out.Summary())
	return out, nil
}

// Observe counts results in metrics and attaches them to the request audit
// entry.
func (s *Service) Observe(ctx context.Context, patientID string, results ...scoring.Result) {
	for _, r := range results {
		s.metrics.ObserveCalculation(string(r.Score), string(r.Status), string(r.RiskLevel))
	}
	middleware.Annotate(ctx, patientID, Calculations(results...)...)
}

func (s *Service) ListCalculations(ctx context.Context, filter ListFilter, limit, offset int) ([]*CalculationRecord, int, error) {
	return s.repo.List(ctx, filter, limit, offset)
}

// RecordAccess stores one record per calculation in entry. It makes Service
// the audit middleware's recorder.
func (s *Service) RecordAccess(ctx context.Context, entry middleware.AuditEntry) error {
	for _, rec := range recordsFromEntry(entry) {
		err := s.repo.Create(ctx, rec)
		s.metrics.ObserveAuditWrite(err)
		if err != nil {
			return fmt.Errorf("record %s calculation: %w", rec.Kind, err)
		}
	}
	return nil
}
