package handler

import (
	"encoding/json" // ticket payload encoded in the QR code
	"net/http"      // HTTP status codes
	"strconv"       // QR size parameter

	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/iliyamo/cinema-seance-booking/internal/model"   // seat references
	"github.com/iliyamo/cinema-seance-booking/internal/service" // reservation ledger
	"github.com/iliyamo/cinema-seance-booking/internal/utils"   // QR rendering
)

// ReservationHandler exposes the seat reservation ledger.  Every route is
// behind JWTAuth; ownership checks happen in the ledger.
type ReservationHandler struct {
	Ledger *service.Ledger
}

func NewReservationHandler(l *service.Ledger) *ReservationHandler {
	if l == nil {
		panic("nil ledger passed to NewReservationHandler")
	}
	return &ReservationHandler{Ledger: l}
}

type seatsReq struct {
	Seats []model.SeatRef `json:"seats" validate:"required,min=1,dive"`
}

type seatReq struct {
	Row    string `json:"row" query:"row" validate:"required,alpha,max=3"`
	Number uint32 `json:"number" query:"number" validate:"required,min=1"`
}

// Reserve handles POST /v1/showings/:id/reservations with
// {"seats":[{"row":"A","number":5}]}.  All seats are booked or none.
func (h *ReservationHandler) Reserve(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return respondError(c, err)
	}
	showingID, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid showing id")
	}
	var req seatsReq
	if err := bindValid(c, &req); err != nil {
		return badRequest(c, err.Error())
	}
	ids, err := h.Ledger.Reserve(c.Request().Context(), showingID, user.ID, req.Seats)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"reservation_ids": ids})
}

// CancelBySeat handles DELETE /v1/showings/:id/reservations.  The seat is
// read from the body or from ?row=&number=.
func (h *ReservationHandler) CancelBySeat(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return respondError(c, err)
	}
	showingID, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid showing id")
	}
	var req seatReq
	if err := bindValid(c, &req); err != nil {
		return badRequest(c, err.Error())
	}
	ref := model.SeatRef{Row: req.Row, Number: req.Number}
	if err := h.Ledger.CancelBySeat(c.Request().Context(), showingID, user.ID, ref); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Mine handles GET /v1/my-reservations.
func (h *ReservationHandler) Mine(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return respondError(c, err)
	}
	items, err := h.Ledger.ListForUser(c.Request().Context(), user.ID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Cancel handles DELETE /v1/reservations/:id.
func (h *ReservationHandler) Cancel(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return respondError(c, err)
	}
	if err := h.Ledger.Cancel(c.Request().Context(), c.Param("id"), user.ID); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Modify handles PUT /v1/reservations/:id with {"seats":[...]}; the
// reservation moves to the first listed seat.
func (h *ReservationHandler) Modify(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return respondError(c, err)
	}
	var req seatsReq
	if err := bindValid(c, &req); err != nil {
		return badRequest(c, err.Error())
	}
	ctx := c.Request().Context()
	if err := h.Ledger.Modify(ctx, c.Param("id"), user.ID, req.Seats); err != nil {
		return respondError(c, err)
	}
	sh, r, err := h.Ledger.Get(ctx, c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, ticketOf(sh, r))
}

// ticket is the payload encoded in a reservation's QR code.
type ticket struct {
	ReservationID string `json:"reservation_id"`
	ShowingID     uint64 `json:"showing_id"`
	FilmID        uint64 `json:"film_id"`
	Date          string `json:"date"`
	Time          string `json:"time"`
	Seat          string `json:"seat"`
	UserID        uint64 `json:"user_id"`
}

func ticketOf(sh *model.Showing, r model.Reservation) ticket {
	return ticket{
		ReservationID: r.ID, ShowingID: sh.ID, FilmID: sh.FilmID,
		Date: sh.Date, Time: sh.Time, Seat: r.SeatLabel(), UserID: r.UserID,
	}
}

// QRCode handles GET /v1/reservations/:id/qrcode?size=.  Clients only get
// their own tickets; staff may render any.
func (h *ReservationHandler) QRCode(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return respondError(c, err)
	}
	sh, r, err := h.Ledger.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	if r.UserID != user.ID && !user.Role.IsStaff() {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "reservation belongs to another user"})
	}
	size, _ := strconv.Atoi(c.QueryParam("size"))
	if size < 64 || size > 1024 {
		size = 256
	}
	payload, err := json.Marshal(ticketOf(sh, r))
	if err != nil {
		return respondError(c, err)
	}
	png, err := utils.GenerateQRCode(string(payload), size)
	if err != nil {
		return respondError(c, err)
	}
	return c.Blob(http.StatusOK, "image/png", png)
}

// ListAll handles GET /v1/admin/reservations?showing=.
func (h *ReservationHandler) ListAll(c echo.Context) error {
	showingID, ok := queryUint(c, "showing")
	if !ok {
		return badRequest(c, "invalid showing filter")
	}
	items, err := h.Ledger.ListAll(c.Request().Context(), showingID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}
