package exam

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ehr/examscore/internal/platform/cdshooks"
	"github.com/ehr/examscore/internal/report"
	"github.com/ehr/examscore/internal/scoring"
)

const (
	CDSServiceID = "exam-risk-scores"
	cdsHook      = "patient-view"
	cardSource   = "examscore"
	maxSummary   = 140
)

// RegisterCDS exposes the exam evaluator as a CDS Hooks service. Feedback is
// logged.
func RegisterCDS(h *cdshooks.Handler, svc *Service, logger zerolog.Logger) {
	h.Register(cdshooks.Service{
		Hook:        cdsHook,
		Title:       "Exam risk scores",
		Description: "Evaluates the specialty intake exam in context.exam and returns a card for every score at intermediate risk or above.",
		ID:          CDSServiceID,
	}, svc.handleHook)

	h.RegisterFeedback(CDSServiceID, func(_ context.Context, id string, fb cdshooks.Feedback) error {
		logger.Info().
			Str("service", id).
			Str("card", fb.Card).
			Str("outcome", fb.Outcome).
			Int("override_reasons", len(fb.OverrideReasons)).
			Msg("cds feedback")
		return nil
	})
}

func (s *Service) handleHook(ctx context.Context, req cdshooks.Request) (*cdshooks.Response, error) {
	raw, ok := req.Context["exam"]
	if !ok {
		return nil, &cdshooks.RequestError{Msg: "context.exam is required"}
	}
	x, err := decodeExam(bytes.NewReader(raw))
	if err != nil {
		return nil, &cdshooks.RequestError{Msg: fmt.Sprintf("context.exam: %v", err)}
	}
	if x.PatientID == "" {
		if pid, ok := req.Context["patientId"]; ok {
			if err := json.Unmarshal(pid, &x.PatientID); err != nil {
				return nil, &cdshooks.RequestError{Msg: fmt.Sprintf("context.patientId must be a string: %v", err)}
			}
		}
	}

	ev, err := s.Evaluate(ctx, x)
	if err != nil {
		if errors.Is(err, ErrInvalidExam) || errors.Is(err, ErrUnknownSpecialty) || errors.Is(err, ErrSectionNotAllowed) {
			return nil, &cdshooks.RequestError{Msg: err.Error()}
		}
		return nil, err
	}

	resp := &cdshooks.Response{Cards: []cdshooks.Card{}}
	for _, sc := range ev.Scores {
		card, ok := scoreCard(sc)
		if !ok {
			continue
		}
		s.metrics.ObserveCard(card.Indicator)
		resp.Cards = append(resp.Cards, card)
	}
	return resp, nil
}

// scoreCard builds the card for a determined score at intermediate risk or
// above.
func scoreCard(sc Score) (cdshooks.Card, bool) {
	r := sc.Result.Summary()
	if !r.OK() || !r.RiskLevel.AtLeast(scoring.RiskIntermediate) {
		return cdshooks.Card{}, false
	}

	entry := report.Entry{Title: sc.Title, Label: sc.Label, Result: r}
	detail := report.Line(entry)
	if len(r.Warnings) > 0 {
		detail += "\n\nWarnings:\n- " + strings.Join(r.Warnings, "\n- ")
	}

	return cdshooks.Card{
		UUID:      uuid.NewString(),
		Summary:   truncate(report.Line(entry), maxSummary),
		Detail:    detail,
		Indicator: indicatorFor(r.RiskLevel),
		Source: cdshooks.Source{
			Label: cardSource,
			Topic: &cdshooks.Coding{Code: string(r.Score), Display: sc.Title},
		},
	}, true
}

func indicatorFor(level scoring.RiskLevel) string {
	switch level {
	case scoring.RiskCritical:
		return cdshooks.IndicatorCritical
	case scoring.RiskHigh:
		return cdshooks.IndicatorWarning
	}
	return cdshooks.IndicatorInfo
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
