package scores

import (
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ehr/examscore/internal/platform/auth"
	"github.com/ehr/examscore/pkg/pagination"
)

const maxBodyBytes = 1 << 20

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	readGroup := api.Group("", auth.RequireRole(auth.RoleAdmin, auth.RolePhysician, auth.RoleNurse))
	readGroup.GET("/scores", h.ListScores)
	readGroup.GET("/scores/:kind", h.GetScore)
	readGroup.GET("/calculations", h.ListCalculations)

	writeGroup := api.Group("", auth.RequireRole(auth.RoleAdmin, auth.RolePhysician, auth.RoleNurse))
	writeGroup.POST("/scores/:kind", h.Calculate)
}

func (h *Handler) ListScores(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{"scores": h.svc.Catalog()})
}

func (h *Handler) GetScore(c echo.Context) error {
	d, err := h.svc.Definition(c.Param("kind"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) Calculate(c echo.Context) error {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxBodyBytes+1))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "read body: "+err.Error())
	}
	if len(body) > maxBodyBytes {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "request body too large")
	}

	out, err := h.svc.Calculate(c.Request().Context(), c.Param("kind"), c.QueryParam("patient_id"), body)
	switch {
	case errors.Is(err, ErrUnknownScore):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrInvalidInput):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case err != nil:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handler) ListCalculations(c echo.Context) error {
	pg := pagination.FromContext(c)
	filter := ListFilter{PatientID: c.QueryParam("patient_id"), Kind: c.QueryParam("kind")}
	items, total, err := h.svc.ListCalculations(c.Request().Context(), filter, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}
