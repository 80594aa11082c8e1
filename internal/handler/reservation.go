package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/campuslab/lab-seat-reservation/internal/apperr"
	"github.com/campuslab/lab-seat-reservation/internal/model"
	"github.com/campuslab/lab-seat-reservation/internal/queue"
	"github.com/campuslab/lab-seat-reservation/internal/repository"
	queue_publisher "github.com/campuslab/lab-seat-reservation/internal/service"
	"github.com/campuslab/lab-seat-reservation/internal/utils"
)

// UserStore is the user-lookup capability the reservation flow needs.
// Handlers depend on this interface rather than a shared repository handle
// so the rule sequencing is testable with fakes.
type UserStore interface {
	GetByUserID(ctx context.Context, userID int64) (model.User, error)
	ByUserIDs(ctx context.Context, userIDs []int64) (map[int64]model.User, error)
}

// LabStore resolves labs for validation and response shaping.
type LabStore interface {
	GetByID(ctx context.Context, id uint64) (model.Lab, error)
}

// ReservationStore is the conflict engine plus the read queries.
type ReservationStore interface {
	Create(ctx context.Context, res *model.Reservation) (*model.Reservation, error)
	Update(ctx context.Context, id uint64, upd repository.UpdateFields) (*model.Reservation, error)
	Delete(ctx context.Context, id uint64) (*model.Reservation, error)
	ListAll(ctx context.Context) ([]repository.ReservationDetail, error)
	ListByUserID(ctx context.Context, userID int64) ([]repository.ReservationDetail, error)
	ListByLabID(ctx context.Context, labID uint64) ([]repository.ReservationDetail, error)
	GetDetail(ctx context.Context, id uint64) (*repository.ReservationDetail, error)
}

// ReservationHandler orchestrates reservation writes: field validation,
// entity lookups and business rules gate entry to the conflict engine,
// which owns the atomic check-and-mutate. Auth and role gating happen in
// middleware before any method here runs.
type ReservationHandler struct {
	Users        UserStore
	Labs         LabStore
	Reservations ReservationStore
}

func NewReservationHandler(users UserStore, labs LabStore, reservations ReservationStore) *ReservationHandler {
	if users == nil || labs == nil || reservations == nil {
		panic("nil store passed to NewReservationHandler")
	}
	return &ReservationHandler{Users: users, Labs: labs, Reservations: reservations}
}

// publishAPIError is swappable so tests can observe queue traffic.
var publishAPIError = queue_publisher.PublishAPIError

// respondError maps a failure to the HTTP status table and writes
// {"message": ...}. Failed writes are additionally published to the
// error-log queue (fire-and-forget); read and validation traffic on
// GETs is not, it would only be broker noise. Untagged errors never
// leak their text to the client.
func respondError(c echo.Context, err error) error {
	status := http.StatusInternalServerError
	message := "Internal server error"
	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		status = http.StatusBadRequest
		message = err.Error()
	case apperr.KindNotFound:
		status = http.StatusNotFound
		message = err.Error()
	case apperr.KindAuthorization:
		status = http.StatusForbidden
		message = err.Error()
	case apperr.KindConflict:
		status = http.StatusConflict
		message = err.Error()
	case apperr.KindUnavailable:
		status = http.StatusServiceUnavailable
		message = "Service unavailable"
	}
	switch c.Request().Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		route := c.Request().Method + " " + c.Path()
		publish := publishAPIError
		go func(errMsg, ctxMsg, route string) {
			_ = publish(context.Background(), errMsg, ctxMsg, route)
		}(err.Error(), message, route)
	}
	return c.JSON(status, echo.Map{"message": message})
}

const (
	msgMissingFields = "Missing required fields or invalid slots format"
	msgBadSlots      = "Slots must be a non-empty array"
	msgBadStatus     = "Invalid status value"
	msgPastCreate    = "Cannot book slot ending before current time"
	msgPastUpdate    = "Cannot update to slot ending before current time"
)

// parseReservationDate accepts a calendar date ("2006-01-02") or a full
// RFC3339 instant; only the date dimension matters to conflict scans.
func parseReservationDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

type createReservationReq struct {
	UserID          *int64           `json:"user_id"`
	LabID           *uint64          `json:"lab_id"`
	ReservationDate string           `json:"reservation_date"`
	Slots           []model.TimeSlot `json:"slots"`
	Anonymous       *bool            `json:"anonymous"`
	TechnicianID    *int64           `json:"technician_id"`
}

// Create handles POST /api/reservations.
//
// Sequence: field validation -> subject lookup -> technician rule (when a
// technician books on behalf) -> lab lookup -> past-slot rule -> conflict
// engine -> population -> 201. Field validation fails fast before any
// store access.
func (h *ReservationHandler) Create(c echo.Context) error {
	var req createReservationReq
	if err := c.Bind(&req); err != nil {
		return respondError(c, apperr.Validation(msgMissingFields))
	}
	if req.UserID == nil || req.LabID == nil || req.ReservationDate == "" || len(req.Slots) == 0 {
		return respondError(c, apperr.Validation(msgMissingFields))
	}
	for _, s := range req.Slots {
		if !utils.ValidSlot(s) {
			return respondError(c, apperr.Validation(msgMissingFields))
		}
	}
	date, err := parseReservationDate(req.ReservationDate)
	if err != nil {
		return respondError(c, apperr.Validation(msgMissingFields))
	}

	ctx := c.Request().Context()
	subject, err := h.Users.GetByUserID(ctx, *req.UserID)
	if err != nil {
		return respondError(c, err)
	}
	if req.TechnicianID != nil {
		if err := utils.ValidateTechnicianBooking(ctx, h.Users.GetByUserID, *req.UserID, *req.TechnicianID); err != nil {
			return respondError(c, err)
		}
	}
	lab, err := h.Labs.GetByID(ctx, *req.LabID)
	if err != nil {
		return respondError(c, err)
	}
	if err := utils.ValidateSlotsNotInPast(req.Slots, date, time.Now(), msgPastCreate); err != nil {
		return respondError(c, err)
	}

	res := &model.Reservation{
		UserID:          *req.UserID,
		LabID:           lab.ID,
		ReservationDate: date,
		Slots:           req.Slots,
		Anonymous:       req.Anonymous != nil && *req.Anonymous,
	}
	created, err := h.Reservations.Create(ctx, res)
	if err != nil {
		return respondError(c, err)
	}

	go func(ev queue.ReservationCreatedEvent) {
		_ = queue_publisher.PublishReservationCreated(context.Background(), ev)
	}(queue.ReservationCreatedEvent{
		ReservationID:   created.ID,
		Reference:       created.Reference,
		UserID:          created.UserID,
		LabID:           lab.ID,
		LabName:         lab.Name,
		ReservationDate: created.ReservationDate.Format("2006-01-02"),
		SlotCount:       len(created.Slots),
		Anonymous:       created.Anonymous,
		CreatedAt:       created.CreatedAt.UTC().Format(time.RFC3339),
	})

	detail := detailFrom(created, lab)
	detail.User = userInfoFor(created.Anonymous, &subject)
	return c.JSON(http.StatusCreated, detail)
}

type updateReservationReq struct {
	UserID          *int64           `json:"user_id"`
	TechnicianID    *int64           `json:"technician_id"`
	ReservationDate *string          `json:"reservation_date"`
	Slots           []model.TimeSlot `json:"slots"`
	Anonymous       *bool            `json:"anonymous"`
	Status          *string          `json:"status"`
}

// Update handles PATCH /api/reservations/:id. Only supplied fields are
// validated and applied. Deleted is a storable status but not an
// admissible transition target here.
func (h *ReservationHandler) Update(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return respondError(c, apperr.Validation("Invalid reservation id"))
	}
	var req updateReservationReq
	if err := c.Bind(&req); err != nil {
		return respondError(c, apperr.Validation("Invalid request body"))
	}

	ctx := c.Request().Context()
	existing, err := h.Reservations.GetDetail(ctx, id)
	if err != nil {
		return respondError(c, err)
	}

	if req.TechnicianID != nil && req.UserID != nil {
		if err := utils.ValidateTechnicianBooking(ctx, h.Users.GetByUserID, *req.UserID, *req.TechnicianID); err != nil {
			return respondError(c, err)
		}
	}

	upd := repository.UpdateFields{
		UserID:    req.UserID,
		Anonymous: req.Anonymous,
	}
	if req.ReservationDate != nil {
		date, err := parseReservationDate(*req.ReservationDate)
		if err != nil {
			return respondError(c, apperr.Validation("Invalid reservation date"))
		}
		upd.ReservationDate = &date
	}
	if req.Slots != nil {
		if len(req.Slots) == 0 {
			return respondError(c, apperr.Validation(msgBadSlots))
		}
		for _, s := range req.Slots {
			if !utils.ValidSlot(s) {
				return respondError(c, apperr.Validation(msgBadSlots))
			}
		}
		// Check against the date the reservation will carry after update.
		checkDate, err := parseReservationDate(existing.ReservationDate)
		if err == nil && upd.ReservationDate != nil {
			checkDate = *upd.ReservationDate
		}
		if err := utils.ValidateSlotsNotInPast(req.Slots, checkDate, time.Now(), msgPastUpdate); err != nil {
			return respondError(c, err)
		}
		upd.Slots = req.Slots
	}
	if req.Status != nil {
		if !model.ValidUpdateStatus(*req.Status) {
			return respondError(c, apperr.Validation(msgBadStatus))
		}
		upd.Status = req.Status
	}

	updated, err := h.Reservations.Update(ctx, id, upd)
	if err != nil {
		return respondError(c, err)
	}

	lab, err := h.Labs.GetByID(ctx, updated.LabID)
	if err != nil {
		return respondError(c, err)
	}
	detail := detailFrom(updated, lab)
	if err := h.attachUsers(ctx, []*repository.ReservationDetail{detail}); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, detail)
}

// Delete handles DELETE /api/reservations/:id (operator removal path).
func (h *ReservationHandler) Delete(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return respondError(c, apperr.Validation("Invalid reservation id"))
	}
	if _, err := h.Reservations.Delete(c.Request().Context(), id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Reservation deleted successfully"})
}

// List handles GET /api/reservations.
func (h *ReservationHandler) List(c echo.Context) error {
	ctx := c.Request().Context()
	details, err := h.Reservations.ListAll(ctx)
	if err != nil {
		return respondError(c, err)
	}
	if err := h.attachUsersSlice(ctx, details); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": details})
}

// ListByUser handles GET /api/reservations/user/:userId.
func (h *ReservationHandler) ListByUser(c echo.Context) error {
	userID, err := strconv.ParseInt(c.Param("userId"), 10, 64)
	if err != nil || userID <= 0 {
		return respondError(c, apperr.Validation("Invalid user id"))
	}
	ctx := c.Request().Context()
	details, err := h.Reservations.ListByUserID(ctx, userID)
	if err != nil {
		return respondError(c, err)
	}
	if err := h.attachUsersSlice(ctx, details); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": details})
}

// ListByLab handles GET /api/reservations/lab/:labId.
func (h *ReservationHandler) ListByLab(c echo.Context) error {
	labID, err := strconv.ParseUint(c.Param("labId"), 10, 64)
	if err != nil || labID == 0 {
		return respondError(c, apperr.Validation("Invalid lab id"))
	}
	ctx := c.Request().Context()
	if _, err := h.Labs.GetByID(ctx, labID); err != nil {
		return respondError(c, err)
	}
	details, err := h.Reservations.ListByLabID(ctx, labID)
	if err != nil {
		return respondError(c, err)
	}
	if err := h.attachUsersSlice(ctx, details); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": details})
}

// detailFrom shapes an engine result plus its lab into the read form.
func detailFrom(res *model.Reservation, lab model.Lab) *repository.ReservationDetail {
	return &repository.ReservationDetail{
		ID:              res.ID,
		Reference:       res.Reference,
		UserID:          res.UserID,
		LabID:           lab.ID,
		LabName:         lab.Name,
		LabDisplayName:  lab.DisplayName,
		Building:        lab.Building,
		ReservationDate: res.ReservationDate.UTC().Format("2006-01-02"),
		Slots:           res.Slots,
		Anonymous:       res.Anonymous,
		Status:          res.Status,
		CreatedAt:       res.CreatedAt,
	}
}

// anonymousUser is the sentinel identity presented for anonymous
// reservations on every read path.
func anonymousUser() *repository.ReservationUser {
	return &repository.ReservationUser{
		UserID: "Anonymous",
		Email:  "Anonymous",
		Fname:  "Anonymous",
		Lname:  "User",
	}
}

// userInfoFor builds the identity block for one reservation. A nil user
// (subject not found, e.g. deactivated) yields a block with just the
// numeric user_id.
func userInfoFor(anonymous bool, u *model.User) *repository.ReservationUser {
	if anonymous {
		return anonymousUser()
	}
	if u == nil {
		return nil
	}
	return &repository.ReservationUser{
		ID:     u.ID,
		UserID: u.UserID,
		Email:  u.Email,
		Fname:  u.Fname,
		Lname:  u.Lname,
	}
}

// attachUsersSlice populates user blocks for a slice of details with a
// single batched lookup of the distinct non-anonymous subjects.
func (h *ReservationHandler) attachUsersSlice(ctx context.Context, details []repository.ReservationDetail) error {
	ptrs := make([]*repository.ReservationDetail, len(details))
	for i := range details {
		ptrs[i] = &details[i]
	}
	return h.attachUsers(ctx, ptrs)
}

func (h *ReservationHandler) attachUsers(ctx context.Context, details []*repository.ReservationDetail) error {
	seen := make(map[int64]struct{})
	ids := make([]int64, 0, len(details))
	for _, d := range details {
		if d.Anonymous {
			continue
		}
		if _, ok := seen[d.UserID]; !ok {
			seen[d.UserID] = struct{}{}
			ids = append(ids, d.UserID)
		}
	}
	users, err := h.Users.ByUserIDs(ctx, ids)
	if err != nil {
		return err
	}
	for _, d := range details {
		if d.Anonymous {
			d.User = anonymousUser()
			continue
		}
		if u, ok := users[d.UserID]; ok {
			d.User = userInfoFor(false, &u)
		} else {
			d.User = &repository.ReservationUser{UserID: d.UserID}
		}
	}
	return nil
}
