package fhir

import (
	"encoding/json"
	"testing"
)

func TestOutcomes(t *testing.T) {
	tests := []struct {
		name     string
		outcome  *OperationOutcome
		severity string
		code     string
	}{
		{"error", ErrorOutcome("bad"), IssueSeverityError, IssueTypeInvalid},
		{"not found", NotFoundOutcome("CDS service", "x"), IssueSeverityError, IssueTypeNotFound},
		{"internal", InternalErrorOutcome("boom"), IssueSeverityFatal, IssueTypeException},
		{"timeout", TimeoutOutcome(), IssueSeverityError, IssueTypeTimeout},
		{"throttle", ThrottleOutcome(), IssueSeverityError, IssueTypeThrottled},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.outcome.ResourceType != "OperationOutcome" {
				t.Errorf("resourceType = %q", tt.outcome.ResourceType)
			}
			if len(tt.outcome.Issue) != 1 {
				t.Fatalf("issues = %d, want 1", len(tt.outcome.Issue))
			}
			if tt.outcome.Issue[0].Severity != tt.severity || tt.outcome.Issue[0].Code != tt.code {
				t.Errorf("issue = %+v", tt.outcome.Issue[0])
			}
		})
	}
}

func TestFieldOutcome_Expression(t *testing.T) {
	o := FieldOutcome("hookInstance", "hookInstance is required")
	b, err := json.Marshal(o)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"resourceType":"OperationOutcome","issue":[{"severity":"error","code":"invalid","diagnostics":"hookInstance is required","expression":["hookInstance"]}]}`
	if string(b) != want {
		t.Errorf("json = %s\nwant  %s", b, want)
	}
}
