package middleware

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/ehr/examscore/internal/platform/auth"
)

// Calculation is the audit view of one computed score. It never carries the
// clinical inputs.
type Calculation struct {
	Kind      string
	Status    string
	RiskLevel string
}

// AuditEntry describes one audited request.
type AuditEntry struct {
	RequestID    string
	UserID       string
	UserRoles    []string
	Action       string // evaluate, recalculate, calculate, cds-hook, read
	PatientID    string
	Calculations []Calculation
	Method       string
	Path         string
	RemoteIP     string
	StatusCode   int
	Timestamp    time.Time
}

// AuditRecorder persists audit entries.
type AuditRecorder interface {
	RecordAccess(ctx context.Context, entry AuditEntry) error
}

// AuditRecorderFunc is a function adapter for AuditRecorder.
type AuditRecorderFunc func(ctx context.Context, entry AuditEntry) error

func (f AuditRecorderFunc) RecordAccess(ctx context.Context, entry AuditEntry) error {
	return f(ctx, entry)
}

type auditDetailKey struct{}

// auditDetail is filled in by handlers and services while the request runs.
type auditDetail struct {
	mu           sync.Mutex
	patientID    string
	calculations []Calculation
}

// Annotate attaches the patient reference and computed scores to the audit
// entry of the request carried by ctx. It is a no-op outside an audited
// request.
func Annotate(ctx context.Context, patientID string, calcs ...Calculation) {
	d, ok := ctx.Value(auditDetailKey{}).(*auditDetail)
	if !ok {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if patientID != "" {
		d.patientID = patientID
	}
	d.calculations = append(d.calculations, calcs...)
}

// Audit logs every request to the score API and CDS Hooks endpoints and hands
// the entry to recorder when one is given. Recorder failures are logged, not
// returned.
func Audit(logger zerolog.Logger, recorder AuditRecorder) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if !isAuditablePath(req.URL.Path) {
				return next(c)
			}

			detail := &auditDetail{}
			c.SetRequest(req.WithContext(context.WithValue(req.Context(), auditDetailKey{}, detail)))

			err := next(c)

			ctx := c.Request().Context()
			entry := AuditEntry{
				UserID:     auth.UserIDFromContext(ctx),
				UserRoles:  auth.RolesFromContext(ctx),
				Action:     auditAction(req.Method, req.URL.Path),
				Method:     req.Method,
				Path:       req.URL.Path,
				RemoteIP:   c.RealIP(),
				StatusCode: c.Response().Status,
				Timestamp:  time.Now().UTC(),
			}
			if he, ok := err.(*echo.HTTPError); ok {
				entry.StatusCode = he.Code
			}
			entry.RequestID, _ = c.Get("request_id").(string)

			detail.mu.Lock()
			entry.PatientID = detail.patientID
			entry.Calculations = append([]Calculation(nil), detail.calculations...)
			detail.mu.Unlock()
			if entry.PatientID == "" {
				entry.PatientID = c.QueryParam("patient_id")
			}

			if recorder != nil && len(entry.Calculations) > 0 {
				// the request context may already be cancelled by the timeout middleware
				if recErr := recorder.RecordAccess(context.WithoutCancel(ctx), entry); recErr != nil {
					logger.Error().Err(recErr).Str("request_id", entry.RequestID).Msg("failed to record audit entry")
				}
			}

			kinds := make([]string, len(entry.Calculations))
			for i, calc := range entry.Calculations {
				kinds[i] = calc.Kind
			}
			logger.Info().
				Str("type", "score_audit").
				Str("request_id", entry.RequestID).
				Str("user_id", entry.UserID).
				Strs("user_roles", entry.UserRoles).
				Str("action", entry.Action).
				Str("patient_id", entry.PatientID).
				Strs("scores", kinds).
				Str("method", entry.Method).
				Str("path", entry.Path).
				Str("remote_ip", entry.RemoteIP).
				Int("status", entry.StatusCode).
				Msg("score_access")

			return err
		}
	}
}

func isAuditablePath(path string) bool {
	return strings.HasPrefix(path, "/api/v1/") || strings.HasPrefix(path, "/cds-services/")
}

func auditAction(method, path string) string {
	switch {
	case method != http.MethodPost:
		return "read"
	case strings.HasPrefix(path, "/cds-services/"):
		if strings.HasSuffix(path, "/feedback") {
			return "cds-feedback"
		}
		return "cds-hook"
	case strings.HasSuffix(path, "/recalculate"):
		return "recalculate"
	case strings.HasPrefix(path, "/api/v1/exams/"):
		return "evaluate"
	case strings.HasPrefix(path, "/api/v1/scores/"):
		return "calculate"
	}
	return "create"
}
