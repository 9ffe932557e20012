// Package cdshooks serves the HL7 CDS Hooks 2.0 discovery, invocation and
// feedback endpoints. Services register a handler per service id.
package cdshooks

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/labstack/echo/v4"

	"github.com/ehr/examscore/internal/platform/fhir"
)

// Card indicators.
const (
	IndicatorInfo     = "info"
	IndicatorWarning  = "warning"
	IndicatorCritical = "critical"
)

// Service describes one CDS service in discovery.
type Service struct {
	Hook        string            `json:"hook"`
	Title       string            `json:"title,omitempty"`
	Description string            `json:"description"`
	ID          string            `json:"id"`
	Prefetch    map[string]string `json:"prefetch,omitempty"`
}

// Request is the payload POSTed to invoke a hook.
type Request struct {
	Hook         string                     `json:"hook"`
	HookInstance string                     `json:"hookInstance"`
	FHIRServer   string                     `json:"fhirServer,omitempty"`
	Context      map[string]json.RawMessage `json:"context"`
	Prefetch     map[string]json.RawMessage `json:"prefetch,omitempty"`
}

// Card is a single card in the hook response.
type Card struct {
	UUID      string `json:"uuid,omitempty"`
	Summary   string `json:"summary"`
	Detail    string `json:"detail,omitempty"`
	Indicator string `json:"indicator"`
	Source    Source `json:"source"`
	Links     []Link `json:"links,omitempty"`
}

type Source struct {
	Label string  `json:"label"`
	URL   string  `json:"url,omitempty"`
	Topic *Coding `json:"topic,omitempty"`
}

type Link struct {
	Label string `json:"label"`
	URL   string `json:"url"`
	Type  string `json:"type"`
}

type Coding struct {
	Code    string `json:"code"`
	System  string `json:"system,omitempty"`
	Display string `json:"display,omitempty"`
}

// Response is returned from hook invocation. Cards is never null.
type Response struct {
	Cards []Card `json:"cards"`
}

// Feedback records what the clinician did with a card.
type Feedback struct {
	Card             string   `json:"card"`
	Outcome          string   `json:"outcome"`
	OverrideReasons  []Coding `json:"overrideReasons,omitempty"`
	OutcomeTimestamp string   `json:"outcomeTimestamp,omitempty"`
}

// ServiceHandler processes a hook request and returns cards. A
// *RequestError return is reported as 400.
type ServiceHandler func(ctx context.Context, req Request) (*Response, error)

// FeedbackHandler processes card feedback for a service.
type FeedbackHandler func(ctx context.Context, serviceID string, fb Feedback) error

// RequestError marks a hook request the service could not use.
type RequestError struct {
	Msg string
}

func (e *RequestError) Error() string { return e.Msg }

type Handler struct {
	mu       sync.RWMutex
	order    []string
	services map[string]Service
	handlers map[string]ServiceHandler
	feedback map[string]FeedbackHandler
}

func NewHandler() *Handler {
	return &Handler{
		services: map[string]Service{},
		handlers: map[string]ServiceHandler{},
		feedback: map[string]FeedbackHandler{},
	}
}

// Register adds or replaces a service. Discovery lists services in first
// registration order.
func (h *Handler) Register(svc Service, fn ServiceHandler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.services[svc.ID]; !ok {
		h.order = append(h.order, svc.ID)
	}
	h.services[svc.ID] = svc
	h.handlers[svc.ID] = fn
}

func (h *Handler) RegisterFeedback(serviceID string, fn FeedbackHandler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.feedback[serviceID] = fn
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/cds-services", h.Discovery)
	e.POST("/cds-services/:id", h.Invoke)
	e.POST("/cds-services/:id/feedback", h.Feedback)
}

func (h *Handler) Discovery(c echo.Context) error {
	h.mu.RLock()
	services := make([]Service, 0, len(h.order))
	for _, id := range h.order {
		services = append(services, h.services[id])
	}
	h.mu.RUnlock()
	return c.JSON(http.StatusOK, map[string][]Service{"services": services})
}

func (h *Handler) lookup(id string) (Service, ServiceHandler, FeedbackHandler, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	svc, ok := h.services[id]
	return svc, h.handlers[id], h.feedback[id], ok
}

func (h *Handler) Invoke(c echo.Context) error {
	id := c.Param("id")
	svc, fn, _, ok := h.lookup(id)
	if !ok {
		return c.JSON(http.StatusNotFound, fhir.NotFoundOutcome("CDS service", id))
	}

	var req Request
	if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
		return c.JSON(http.StatusBadRequest, fhir.ErrorOutcome(fmt.Sprintf("invalid request body: %v", err)))
	}
	if req.Hook != svc.Hook {
		return c.JSON(http.StatusBadRequest, fhir.ErrorOutcome(
			fmt.Sprintf("hook mismatch: request hook %q does not match service hook %q", req.Hook, svc.Hook)))
	}
	if req.HookInstance == "" {
		return c.JSON(http.StatusBadRequest, fhir.FieldOutcome("hookInstance", "hookInstance is required"))
	}

	resp, err := fn(c.Request().Context(), req)
	if err != nil {
		if reqErr, ok := err.(*RequestError); ok {
			return c.JSON(http.StatusBadRequest, fhir.ErrorOutcome(reqErr.Msg))
		}
		return c.JSON(http.StatusInternalServerError, fhir.InternalErrorOutcome(err.Error()))
	}
	if resp == nil {
		resp = &Response{}
	}
	if resp.Cards == nil {
		resp.Cards = []Card{}
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *Handler) Feedback(c echo.Context) error {
	id := c.Param("id")
	_, _, fn, ok := h.lookup(id)
	if !ok {
		return c.JSON(http.StatusNotFound, fhir.NotFoundOutcome("CDS service", id))
	}

	var fb Feedback
	if err := json.NewDecoder(c.Request().Body).Decode(&fb); err != nil {
		return c.JSON(http.StatusBadRequest, fhir.ErrorOutcome(fmt.Sprintf("invalid feedback body: %v", err)))
	}
	if fn != nil {
		if err := fn(c.Request().Context(), id, fb); err != nil {
			return c.JSON(http.StatusInternalServerError, fhir.InternalErrorOutcome(err.Error()))
		}
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
