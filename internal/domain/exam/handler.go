package exam

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ehr/examscore/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	writeGroup := api.Group("", auth.RequireRole(auth.RoleAdmin, auth.RolePhysician, auth.RoleNurse))
	writeGroup.POST("/exams/evaluate", h.Evaluate)
	writeGroup.POST("/exams/:section/recalculate", h.Recalculate)
}

func (h *Handler) Evaluate(c echo.Context) error {
	x, err := decodeExam(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	ev, err := h.svc.Evaluate(c.Request().Context(), x)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, ev)
}

func (h *Handler) Recalculate(c echo.Context) error {
	x, err := decodeExam(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	section := c.Param("section")
	scores, err := h.svc.Recalculate(c.Request().Context(), x, section)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{"section": section, "scores": scores})
}

func httpError(err error) error {
	switch {
	case errors.Is(err, ErrUnknownSection):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrInvalidExam), errors.Is(err, ErrUnknownSpecialty),
		errors.Is(err, ErrSectionNotAllowed), errors.Is(err, ErrSectionMissing):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}

// decodeExam reads one exam and rejects unknown fields, so a misspelled
// input is reported instead of being treated as missing.
func decodeExam(r io.Reader) (Exam, error) {
	var x Exam
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&x); err != nil {
		return Exam{}, fmt.Errorf("invalid exam body: %w", err)
	}
	return x, nil
}
