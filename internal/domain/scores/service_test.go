package scores

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ehr/examscore/internal/platform/middleware"
	"github.com/ehr/examscore/internal/platform/telemetry"
	"github.com/ehr/examscore/internal/scoring"
)

type failingRepo struct{ CalculationRepository }

func (failingRepo) Create(context.Context, *CalculationRecord) error { return errors.New("db down") }

func newTestService() *Service {
	return NewService(scoring.NewCalculator(scoring.PolicyStrict), NewMemoryRepo(100), telemetry.NewCollector())
}

func TestService_Calculate(t *testing.T) {
	svc := newTestService()
	tests := []struct {
		name   string
		kind   string
		body   string
		status scoring.Status
		err    error
	}{
		{"bmi", "bmi", `{"weight_kg":70,"height_cm":175}`, scoring.StatusOK, nil},
		{"missing input", "bmi", `{"weight_kg":70}`, scoring.StatusInsufficientData, nil},
		{"empty body", "cat", ``, scoring.StatusInsufficientData, nil},
		{"unknown kind", "apgar", `{}`, "", ErrUnknownScore},
		{"unknown field", "bmi", `{"weight":70}`, "", ErrInvalidInput},
		{"bad json", "bmi", `{`, "", ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := svc.Calculate(context.Background(), tt.kind, "", []byte(tt.body))
			if tt.err != nil {
				if !errors.Is(err, tt.err) {
					t.Fatalf("err = %v, want %v", err, tt.err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := out.Summary().Status; got != tt.status {
				t.Errorf("status = %s, want %s", got, tt.status)
			}
		})
	}
}

func TestService_CalculateBMIValue(t *testing.T) {
	out, err := newTestService().Calculate(context.Background(), "bmi", "p1", []byte(`{"weight_kg":70,"height_cm":175}`))
	if err != nil {
		t.Fatal(err)
	}
	r := out.Summary()
	if r.Value == nil || *r.Value != 22.9 || r.Interpretation != "normal weight" {
		t.Errorf("result = %+v", r)
	}
}

func TestService_CalculateABIKeepsSides(t *testing.T) {
	body := `{"arm_pressure":{"right":125,"left":120},"ankle_pressure":{"right":100,"left":130}}`
	out, err := newTestService().Calculate(context.Background(), "ankle-brachial-index", "", []byte(body))
	if err != nil {
		t.Fatal(err)
	}
	abi, ok := out.(scoring.ABIResult)
	if !ok {
		t.Fatalf("outcome type = %T, want scoring.ABIResult", out)
	}
	if abi.Right == nil || abi.Left == nil {
		t.Errorf("sides = %+v / %+v", abi.Right, abi.Left)
	}
}

func TestService_RecordAccess(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	entry := middleware.AuditEntry{
		RequestID: "rid",
		UserID:    "doc",
		Action:    "evaluate",
		PatientID: "p1",
		Calculations: []middleware.Calculation{
			{Kind: "grace", Status: "ok", RiskLevel: "high"},
			{Kind: "timi", Status: "ok", RiskLevel: "low"},
		},
		StatusCode: 200,
		Timestamp:  time.Now(),
	}
	if err := svc.RecordAccess(ctx, entry); err != nil {
		t.Fatal(err)
	}
	items, total, err := svc.ListCalculations(ctx, ListFilter{PatientID: "p1"}, 10, 0)
	if err != nil {
		t.Fatal(err)
	}
	if total != 2 || items[0].Kind != "timi" || items[1].RequestID != "rid" {
		t.Errorf("items = %+v", items)
	}
}

func TestService_RecordAccessError(t *testing.T) {
	svc := NewService(scoring.Calculator{}, failingRepo{}, nil)
	err := svc.RecordAccess(context.Background(), middleware.AuditEntry{
		Calculations: []middleware.Calculation{{Kind: "bmi"}},
	})
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestCalculations(t *testing.T) {
	calcs := Calculations(scoring.Result{Score: scoring.KindGRACE, Status: scoring.StatusOK, RiskLevel: scoring.RiskHigh})
	if len(calcs) != 1 || calcs[0].Kind != "grace" || calcs[0].RiskLevel != "high" {
		t.Errorf("calcs = %+v", calcs)
	}
}
