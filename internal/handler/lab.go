package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/campuslab/lab-seat-reservation/internal/apperr"
	"github.com/campuslab/lab-seat-reservation/internal/model"
	"github.com/campuslab/lab-seat-reservation/internal/repository"
	"github.com/campuslab/lab-seat-reservation/internal/utils"
)

// LabHandler serves lab browsing, admin lab management and the per-day
// availability grid. The grid is a materialized view of reservation state
// (lazily rebuilt when a day is first browsed); authoritative conflict
// checks never read it.
type LabHandler struct {
	Labs     *repository.LabRepo
	LabSlots *repository.LabSlotRepo
}

func NewLabHandler(labs *repository.LabRepo, labSlots *repository.LabSlotRepo) *LabHandler {
	if labs == nil || labSlots == nil {
		panic("nil repository passed to NewLabHandler")
	}
	return &LabHandler{Labs: labs, LabSlots: labSlots}
}

type labResp struct {
	ID          uint64 `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Building    string `json:"building"`
	OpenTime    string `json:"open_time"`
	CloseTime   string `json:"close_time"`
	Capacity    int    `json:"capacity"`
	Status      string `json:"status"`
}

func labRespFrom(l model.Lab) labResp {
	return labResp{
		ID: l.ID, Name: l.Name, DisplayName: l.DisplayName, Building: l.Building,
		OpenTime: l.OpenTime, CloseTime: l.CloseTime, Capacity: l.Capacity, Status: l.Status,
	}
}

// List handles GET /api/labs. Only active labs are shown unless
// ?all=true is supplied (admin listings include inactive labs).
func (h *LabHandler) List(c echo.Context) error {
	activeOnly := c.QueryParam("all") != "true"
	labs, err := h.Labs.List(c.Request().Context(), activeOnly)
	if err != nil {
		return respondError(c, err)
	}
	items := make([]labResp, 0, len(labs))
	for _, l := range labs {
		items = append(items, labRespFrom(l))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Get handles GET /api/labs/:id.
func (h *LabHandler) Get(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return respondError(c, apperr.Validation("Invalid lab id"))
	}
	lab, err := h.Labs.GetByID(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, labRespFrom(lab))
}

type createLabReq struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Building    string `json:"building"`
	OpenTime    string `json:"open_time"`
	CloseTime   string `json:"close_time"`
	Capacity    int    `json:"capacity"`
}

// Create handles POST /api/labs (admin seeding path).
func (h *LabHandler) Create(c echo.Context) error {
	var req createLabReq
	if err := c.Bind(&req); err != nil {
		return respondError(c, apperr.Validation("Invalid request body"))
	}
	if req.Name == "" || req.DisplayName == "" || req.Building == "" || req.Capacity < 1 {
		return respondError(c, apperr.Validation("Missing required lab fields"))
	}
	openMin, errOpen := utils.ParseClock(req.OpenTime)
	closeMin, errClose := utils.ParseClock(req.CloseTime)
	if errOpen != nil || errClose != nil || openMin >= closeMin {
		return respondError(c, apperr.Validation("Invalid operating hours"))
	}
	lab, err := h.Labs.Create(c.Request().Context(), model.Lab{
		Name: req.Name, DisplayName: req.DisplayName, Building: req.Building,
		OpenTime: req.OpenTime, CloseTime: req.CloseTime, Capacity: req.Capacity,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, labRespFrom(lab))
}

type labStatusReq struct {
	Status string `json:"status"`
}

// UpdateStatus handles PATCH /api/labs/:id/status. Labs are toggled, not
// deleted.
func (h *LabHandler) UpdateStatus(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return respondError(c, apperr.Validation("Invalid lab id"))
	}
	var req labStatusReq
	if err := c.Bind(&req); err != nil {
		return respondError(c, apperr.Validation("Invalid request body"))
	}
	if req.Status != model.LabActive && req.Status != model.LabInactive {
		return respondError(c, apperr.Validation(msgBadStatus))
	}
	lab, err := h.Labs.UpdateStatus(c.Request().Context(), id, req.Status)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, labRespFrom(lab))
}

type seatAvailability struct {
	SeatNumber int              `json:"seat_number"`
	Slots      []model.SlotCell `json:"slots"`
}

// Availability handles GET /api/labs/:id/availability?date=YYYY-MM-DD.
// Days that were never materialized are rebuilt on first browse.
func (h *LabHandler) Availability(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return respondError(c, apperr.Validation("Invalid lab id"))
	}
	date, err := time.Parse("2006-01-02", c.QueryParam("date"))
	if err != nil {
		return respondError(c, apperr.Validation("Invalid or missing date (want YYYY-MM-DD)"))
	}
	ctx := c.Request().Context()
	lab, err := h.Labs.GetByID(ctx, id)
	if err != nil {
		return respondError(c, err)
	}
	grid, err := h.LabSlots.GetForDate(ctx, lab.ID, date)
	if err != nil {
		return respondError(c, err)
	}
	if len(grid) == 0 {
		if grid, err = h.LabSlots.RebuildForDate(ctx, lab, date); err != nil {
			return respondError(c, err)
		}
	}
	seats := make([]seatAvailability, 0, len(grid))
	for _, row := range grid {
		seats = append(seats, seatAvailability{SeatNumber: row.SeatNumber, Slots: row.Slots})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"lab_id": lab.ID,
		"date":   date.UTC().Format("2006-01-02"),
		"seats":  seats,
	})
}

type rebuildReq struct {
	Date string `json:"date"`
}

// RebuildSlots handles POST /api/labs/:id/slots/rebuild: force-regenerate
// the availability grid for a date from operating hours plus the active
// reservations on that day.
func (h *LabHandler) RebuildSlots(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return respondError(c, apperr.Validation("Invalid lab id"))
	}
	var req rebuildReq
	if err := c.Bind(&req); err != nil {
		return respondError(c, apperr.Validation("Invalid request body"))
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return respondError(c, apperr.Validation("Invalid or missing date (want YYYY-MM-DD)"))
	}
	ctx := c.Request().Context()
	lab, err := h.Labs.GetByID(ctx, id)
	if err != nil {
		return respondError(c, err)
	}
	grid, err := h.LabSlots.RebuildForDate(ctx, lab, date)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Availability rebuilt",
		"lab_id":  lab.ID,
		"date":    date.UTC().Format("2006-01-02"),
		"seats":   len(grid),
	})
}
