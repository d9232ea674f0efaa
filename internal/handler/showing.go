package handler

import (
	"net/http" // status codes
	"strconv"  // query parameter parsing
	"strings"  // trimming

	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/iliyamo/cinema-seance-booking/internal/model"      // Showing
	"github.com/iliyamo/cinema-seance-booking/internal/repository" // filters and room templates
	"github.com/iliyamo/cinema-seance-booking/internal/service"    // scheduler
)

// ShowingHandler exposes the scheduler and the public seat maps.
type ShowingHandler struct {
	Scheduler *service.Scheduler
	Rooms     *repository.RoomRepo
}

func NewShowingHandler(s *service.Scheduler, rooms *repository.RoomRepo) *ShowingHandler {
	if s == nil || rooms == nil {
		panic("nil dependency passed to NewShowingHandler")
	}
	return &ShowingHandler{Scheduler: s, Rooms: rooms}
}

// showingSummary is the list representation; seat maps are only sent by
// Get.
type showingSummary struct {
	ID             uint64 `json:"id"`
	FilmID         uint64 `json:"film_id"`
	RoomID         uint64 `json:"room_id"`
	Date           string `json:"date"`
	Time           string `json:"time"`
	PriceCents     uint32 `json:"price_cents"`
	TotalSeats     int    `json:"total_seats"`
	AvailableSeats int    `json:"available_seats"`
}

// publicSeat hides who holds a seat.
type publicSeat struct {
	Row       string `json:"row"`
	Number    uint32 `json:"number"`
	Available bool   `json:"available"`
}

type showingDetail struct {
	showingSummary
	Seats []publicSeat `json:"seats"`
}

func summarize(sh *model.Showing) showingSummary {
	return showingSummary{
		ID: sh.ID, FilmID: sh.FilmID, RoomID: sh.RoomID, Date: sh.Date, Time: sh.Time,
		PriceCents: sh.PriceCents, TotalSeats: len(sh.Seats), AvailableSeats: sh.AvailableCount(),
	}
}

func detail(sh *model.Showing) showingDetail {
	seats := make([]publicSeat, len(sh.Seats))
	for i, s := range sh.Seats {
		seats[i] = publicSeat{Row: s.Row, Number: s.Number, Available: s.Available}
	}
	return showingDetail{showingSummary: summarize(sh), Seats: seats}
}

func queryUint(c echo.Context, name string) (uint64, bool) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return 0, true
	}
	n, err := strconv.ParseUint(raw, 10, 64)
	return n, err == nil
}

// List handles GET /v1/showings?film=&room=&date=.
func (h *ShowingHandler) List(c echo.Context) error {
	filmID, ok := queryUint(c, "film")
	if !ok {
		return badRequest(c, "invalid film filter")
	}
	roomID, ok := queryUint(c, "room")
	if !ok {
		return badRequest(c, "invalid room filter")
	}
	list, err := h.Scheduler.List(c.Request().Context(), repository.ShowingFilter{
		FilmID: filmID, RoomID: roomID, Date: strings.TrimSpace(c.QueryParam("date")),
	})
	if err != nil {
		return respondError(c, err)
	}
	out := make([]showingSummary, len(list))
	for i := range list {
		out[i] = summarize(&list[i])
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// Get handles GET /v1/showings/:id and returns the seat map.
func (h *ShowingHandler) Get(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid showing id")
	}
	sh, err := h.Scheduler.Get(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, detail(sh))
}

// Create handles POST /v1/showings.
func (h *ShowingHandler) Create(c echo.Context) error {
	var in service.ShowingInput
	if err := bindValid(c, &in); err != nil {
		return badRequest(c, err.Error())
	}
	sh, err := h.Scheduler.Create(c.Request().Context(), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, detail(sh))
}

// Update handles PUT /v1/showings/:id.
func (h *ShowingHandler) Update(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid showing id")
	}
	var in service.ShowingInput
	if err := bindValid(c, &in); err != nil {
		return badRequest(c, err.Error())
	}
	sh, err := h.Scheduler.Update(c.Request().Context(), id, in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, summarize(sh))
}

// Delete handles DELETE /v1/showings/:id.
func (h *ShowingHandler) Delete(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid showing id")
	}
	if err := h.Scheduler.Delete(c.Request().Context(), id); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// AvailableTimes handles GET /v1/showings/available-times?date=&room=.
func (h *ShowingHandler) AvailableTimes(c echo.Context) error {
	date := strings.TrimSpace(c.QueryParam("date"))
	if date == "" {
		return badRequest(c, "date is required")
	}
	roomID, ok := queryUint(c, "room")
	if !ok {
		return badRequest(c, "invalid room")
	}
	slots, err := h.Scheduler.AvailableSlots(c.Request().Context(), date, roomID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"date": date, "slots": slots})
}

// ListRooms handles GET /v1/rooms.
func (h *ShowingHandler) ListRooms(c echo.Context) error {
	rooms, err := h.Rooms.List(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	type roomView struct {
		ID          uint64 `json:"id"`
		Name        string `json:"name"`
		TotalRows   uint32 `json:"total_rows"`
		SeatsPerRow uint32 `json:"seats_per_row"`
	}
	out := make([]roomView, len(rooms))
	for i, r := range rooms {
		out[i] = roomView{ID: r.ID, Name: r.Name, TotalRows: r.TotalRows, SeatsPerRow: r.SeatsPerRow}
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}
