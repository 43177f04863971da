package schedule

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/performlikemj/C2M/internal/api"
	"github.com/performlikemj/C2M/internal/auth"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// CreateClass godoc
// @Summary Create a class
// @Description Creates a class template that sessions are scheduled from
// @Tags classes
// @Accept json
// @Produce json
// @Param class body CreateClassRequest true "Class data"
// @Success 201 {object} Class
// @Failure 400 {object} api.ErrorResponse
// @Security BearerAuth
// @Router /admin/classes [post]
func (h *Handler) CreateClass(c *gin.Context) {
	var req CreateClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	class, err := h.service.CreateClass(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to create class"})
		return
	}

	c.JSON(http.StatusCreated, class)
}

// ListClasses godoc
// @Summary List classes
// @Tags classes
// @Produce json
// @Success 200 {array} Class
// @Router /classes [get]
func (h *Handler) ListClasses(c *gin.Context) {
	classes, err := h.service.GetAllClasses(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to list classes"})
		return
	}
	c.JSON(http.StatusOK, classes)
}

// GetClass godoc
// @Summary Get a class
// @Tags classes
// @Produce json
// @Param id path int true "Class ID"
// @Success 200 {object} Class
// @Failure 404 {object} api.ErrorResponse
// @Security BearerAuth
// @Router /classes/{id} [get]
func (h *Handler) GetClass(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid class id"})
		return
	}

	class, err := h.service.GetClassByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrClassNotFound) {
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "class not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to get class"})
		return
	}
	c.JSON(http.StatusOK, class)
}

// ListClassSessions godoc
// @Summary List sessions of a class
// @Tags classes
// @Produce json
// @Param id path int true "Class ID"
// @Success 200 {array} Session
// @Failure 400 {object} api.ErrorResponse
// @Security BearerAuth
// @Router /classes/{id}/sessions [get]
func (h *Handler) ListClassSessions(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid class id"})
		return
	}

	sessions, err := h.service.GetSessionsByClass(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to list sessions"})
		return
	}
	c.JSON(http.StatusOK, sessions)
}

// DeleteClass godoc
// @Summary Delete a class
// @Tags classes
// @Produce json
// @Param id path int true "Class ID"
// @Success 200 {object} api.MessageResponse
// @Failure 400 {object} api.ErrorResponse
// @Security BearerAuth
// @Router /admin/classes/{id} [delete]
func (h *Handler) DeleteClass(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid class id"})
		return
	}

	if err := h.service.DeleteClass(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to delete class"})
		return
	}

	c.JSON(http.StatusOK, api.MessageResponse{Message: "class deleted"})
}

// CreateSession godoc
// @Summary Schedule a session
// @Description Schedules a class session; recurring sessions fan out weekly children up to the recurrence horizon
// @Tags sessions
// @Accept json
// @Produce json
// @Param session body CreateSessionRequest true "Session data"
// @Success 201 {object} CreateSessionResult
// @Failure 400 {object} api.ErrorResponse
// @Failure 409 {object} api.ErrorResponse
// @Security BearerAuth
// @Router /admin/sessions [post]
func (h *Handler) CreateSession(c *gin.Context) {
	var req CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	start, err := time.Parse(time.RFC3339, req.StartTime)
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "start_time must be RFC3339"})
		return
	}
	end, err := time.Parse(time.RFC3339, req.EndTime)
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "end_time must be RFC3339"})
		return
	}

	var recurrenceEnd time.Time
	if req.RecurrenceEndDate != "" {
		recurrenceEnd, err = time.Parse("2006-01-02", req.RecurrenceEndDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "recurrence_end_date must be YYYY-MM-DD"})
			return
		}
	}

	result, err := h.service.CreateSession(c.Request.Context(), req.ClassID, start, end, req.TrainerID, req.Recurring, recurrenceEnd)
	if err != nil {
		switch {
		case errors.Is(err, ErrClassNotFound):
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: err.Error()})
		case errors.Is(err, ErrInvalidWindow), errors.Is(err, ErrOutsideOpeningHours):
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		case errors.Is(err, ErrTrainerConflict):
			c.JSON(http.StatusConflict, api.ErrorResponse{Error: err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to create session"})
		}
		return
	}

	c.JSON(http.StatusCreated, result)
}

// PreviewRecurrence godoc
// @Summary Preview a recurring series
// @Description Dry-run of the weekly windows a recurring session would create, without persisting anything
// @Tags sessions
// @Produce json
// @Param start query string true "Seed start (RFC3339)"
// @Param end query string true "Seed end (RFC3339)"
// @Param recurrence_end_date query string false "Requested series end (YYYY-MM-DD)"
// @Success 200 {array} Window
// @Failure 400 {object} api.ErrorResponse
// @Security BearerAuth
// @Router /admin/sessions/preview [get]
func (h *Handler) PreviewRecurrence(c *gin.Context) {
	start, err := time.Parse(time.RFC3339, c.Query("start"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "start must be RFC3339"})
		return
	}
	end, err := time.Parse(time.RFC3339, c.Query("end"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "end must be RFC3339"})
		return
	}

	var recurrenceEnd time.Time
	if raw := c.Query("recurrence_end_date"); raw != "" {
		recurrenceEnd, err = time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "recurrence_end_date must be YYYY-MM-DD"})
			return
		}
	}

	c.JSON(http.StatusOK, h.service.PreviewRecurrence(start, end, recurrenceEnd))
}

// ListSessions godoc
// @Summary List sessions in a date range
// @Tags sessions
// @Produce json
// @Param from query string false "Range start (RFC3339), defaults to now"
// @Param to query string false "Range end (RFC3339), defaults to 7 days from now"
// @Success 200 {array} SessionWithClass
// @Failure 400 {object} api.ErrorResponse
// @Router /sessions [get]
func (h *Handler) ListSessions(c *gin.Context) {
	from := time.Now()
	to := from.AddDate(0, 0, 7)

	var err error
	if raw := c.Query("from"); raw != "" {
		from, err = time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "from must be RFC3339"})
			return
		}
	}
	if raw := c.Query("to"); raw != "" {
		to, err = time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "to must be RFC3339"})
			return
		}
	}

	sessions, err := h.service.GetSessionsInRange(c.Request.Context(), from, to)
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to list sessions"})
		return
	}
	c.JSON(http.StatusOK, sessions)
}

// DeleteSession godoc
// @Summary Delete a session
// @Description Deletes one session, or the whole recurring family when all=true
// @Tags sessions
// @Produce json
// @Param id path int true "Session ID"
// @Param all query bool false "Delete the full recurring series"
// @Success 200 {object} api.MessageResponse
// @Failure 404 {object} api.ErrorResponse
// @Security BearerAuth
// @Router /admin/sessions/{id} [delete]
func (h *Handler) DeleteSession(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid session id"})
		return
	}

	wholeFamily := c.Query("all") == "true"
	deleted, err := h.service.DeleteSession(c.Request.Context(), id, wholeFamily)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to delete session"})
		return
	}

	c.JSON(http.StatusOK, api.MessageResponse{Message: "deleted " + strconv.Itoa(deleted) + " session(s)"})
}

// BookSession godoc
// @Summary Book a session
// @Tags bookings
// @Produce json
// @Param id path int true "Session ID"
// @Success 201 {object} Booking
// @Failure 402 {object} api.ErrorResponse
// @Failure 404 {object} api.ErrorResponse
// @Failure 409 {object} api.ErrorResponse
// @Security BearerAuth
// @Router /sessions/{id}/book [post]
func (h *Handler) BookSession(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "unauthorized"})
		return
	}

	sessionID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid session id"})
		return
	}

	booking, err := h.service.BookSession(c.Request.Context(), userID, sessionID)
	if err != nil {
		switch {
		case errors.Is(err, ErrSessionNotFound):
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: err.Error()})
		case errors.Is(err, ErrMembershipInactive):
			c.JSON(http.StatusPaymentRequired, api.ErrorResponse{Error: err.Error()})
		case errors.Is(err, ErrSessionFull), errors.Is(err, ErrAlreadyBooked):
			c.JSON(http.StatusConflict, api.ErrorResponse{Error: err.Error()})
		case errors.Is(err, ErrPastSession):
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to book session"})
		}
		return
	}

	c.JSON(http.StatusCreated, booking)
}

// CancelBooking godoc
// @Summary Cancel a booking
// @Description Cancels the caller's booking if the session starts more than 24 hours from now
// @Tags bookings
// @Produce json
// @Param id path int true "Booking ID"
// @Success 200 {object} api.MessageResponse
// @Failure 403 {object} api.ErrorResponse
// @Failure 404 {object} api.ErrorResponse
// @Failure 409 {object} api.ErrorResponse
// @Security BearerAuth
// @Router /bookings/{id} [delete]
func (h *Handler) CancelBooking(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "unauthorized"})
		return
	}

	bookingID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid booking id"})
		return
	}

	if err := h.service.CancelBooking(c.Request.Context(), userID, bookingID); err != nil {
		switch {
		case errors.Is(err, ErrBookingNotFound), errors.Is(err, ErrSessionNotFound):
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: err.Error()})
		case errors.Is(err, ErrNotYourBooking):
			c.JSON(http.StatusForbidden, api.ErrorResponse{Error: err.Error()})
		case errors.Is(err, ErrPastSession), errors.Is(err, ErrTooLateToCancel):
			c.JSON(http.StatusConflict, api.ErrorResponse{Error: err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to cancel booking"})
		}
		return
	}

	c.JSON(http.StatusOK, api.MessageResponse{Message: "booking cancelled"})
}

// MyBookings godoc
// @Summary List the caller's bookings
// @Tags bookings
// @Produce json
// @Param future query bool false "Only future sessions"
// @Success 200 {array} BookingWithSession
// @Security BearerAuth
// @Router /bookings [get]
func (h *Handler) MyBookings(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "unauthorized"})
		return
	}

	bookings, err := h.service.GetUserBookings(c.Request.Context(), userID, c.Query("future") == "true")
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to list bookings"})
		return
	}
	c.JSON(http.StatusOK, bookings)
}

// CreatePersonalTraining godoc
// @Summary Schedule a personal training session
// @Description Claims a trainer for a slot; conflicting non-private class sessions lose their trainer assignment
// @Tags personal-training
// @Accept json
// @Produce json
// @Param session body CreatePersonalTrainingRequest true "Personal training data"
// @Success 201 {object} PersonalTrainingSession
// @Failure 400 {object} api.ErrorResponse
// @Failure 409 {object} api.ErrorResponse
// @Security BearerAuth
// @Router /admin/personal-training [post]
func (h *Handler) CreatePersonalTraining(c *gin.Context) {
	var req CreatePersonalTrainingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	pt, err := h.service.CreatePersonalTraining(c.Request.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, ErrSessionNotFound):
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: err.Error()})
		case errors.Is(err, ErrInvalidWindow), errors.Is(err, ErrOutsideOpeningHours):
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		case errors.Is(err, ErrPrivateTrainerConflict), errors.Is(err, ErrTrainerBusy):
			c.JSON(http.StatusConflict, api.ErrorResponse{Error: err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to create personal training session"})
		}
		return
	}

	c.JSON(http.StatusCreated, pt)
}
