package membership

import (
	"errors"
	"net/http"
	"strconv"

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

// CreateMembershipType godoc
// @Summary Create a membership plan
// @Tags membership-types
// @Accept json
// @Produce json
// @Param plan body CreateMembershipTypeRequest true "Plan data"
// @Success 201 {object} MembershipType
// @Failure 400 {object} api.ErrorResponse
// @Security BearerAuth
// @Router /admin/membership-types [post]
func (h *Handler) CreateMembershipType(c *gin.Context) {
	var req CreateMembershipTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	mt, err := h.service.CreateMembershipType(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to create membership type"})
		return
	}

	c.JSON(http.StatusCreated, mt)
}

// ListMembershipTypes godoc
// @Summary List membership plans
// @Tags membership-types
// @Produce json
// @Success 200 {array} MembershipType
// @Router /membership-types [get]
func (h *Handler) ListMembershipTypes(c *gin.Context) {
	types, err := h.service.GetAllMembershipTypes(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to list membership types"})
		return
	}
	c.JSON(http.StatusOK, types)
}

// AssignMembership godoc
// @Summary Assign a plan to a user
// @Description Creates or resets the user's membership with the plan's full entitlement counters
// @Tags memberships
// @Accept json
// @Produce json
// @Param membership body AssignMembershipRequest true "Assignment"
// @Success 200 {object} Membership
// @Failure 404 {object} api.ErrorResponse
// @Security BearerAuth
// @Router /admin/memberships [post]
func (h *Handler) AssignMembership(c *gin.Context) {
	var req AssignMembershipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	m, err := h.service.AssignMembership(c.Request.Context(), req.UserID, req.MembershipTypeID)
	if err != nil {
		if errors.Is(err, ErrMembershipTypeNotFound) {
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to assign membership"})
		return
	}

	c.JSON(http.StatusOK, m)
}

// GetMyMembership godoc
// @Summary Get the caller's membership
// @Tags memberships
// @Produce json
// @Success 200 {object} MembershipWithType
// @Failure 404 {object} api.ErrorResponse
// @Security BearerAuth
// @Router /me/membership [get]
func (h *Handler) GetMyMembership(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "unauthorized"})
		return
	}

	m, err := h.service.GetMembershipForUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "membership not found"})
		return
	}

	c.JSON(http.StatusOK, m)
}

// GetUserMembership godoc
// @Summary Get a user's membership
// @Tags memberships
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} MembershipWithType
// @Failure 404 {object} api.ErrorResponse
// @Security BearerAuth
// @Router /admin/users/{id}/membership [get]
func (h *Handler) GetUserMembership(c *gin.Context) {
	userID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid user id"})
		return
	}

	m, err := h.service.GetMembershipForUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "membership not found"})
		return
	}

	c.JSON(http.StatusOK, m)
}

// CheckIn godoc
// @Summary Kiosk QR scan
// @Description A scan checks the member in, or out if a visit is already open today. Consumes one session credit on check-in.
// @Tags kiosk
// @Accept json
// @Produce json
// @Param scan body CheckInRequest true "QR payload"
// @Success 200 {object} api.StatusResponse
// @Failure 400 {object} api.StatusResponse
// @Failure 403 {object} api.StatusResponse
// @Failure 404 {object} api.StatusResponse
// @Security BearerAuth
// @Router /kiosk/check-in [post]
func (h *Handler) CheckIn(c *gin.Context) {
	var req CheckInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.StatusResponse{Status: "error", Message: "qr_identifier is required"})
		return
	}

	kind := CounterRegular
	if req.SessionType == string(CounterPersonalTraining) {
		kind = CounterPersonalTraining
	}

	result, err := h.service.CheckInOut(c.Request.Context(), req.QRIdentifier, kind)
	if err != nil {
		switch {
		case errors.Is(err, ErrUnknownQRCode):
			c.JSON(http.StatusNotFound, api.StatusResponse{Status: "error", Message: "unknown QR code"})
		case errors.Is(err, ErrMembershipNotFound), errors.Is(err, ErrInactiveMembership):
			c.JSON(http.StatusForbidden, api.StatusResponse{Status: "error", Message: "membership is not active"})
		default:
			c.JSON(http.StatusInternalServerError, api.StatusResponse{Status: "error", Message: "check-in failed"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":                       "success",
		"action":                       result.Action,
		"user_name":                    result.UserName,
		"remaining_sessions":           result.RemainingSessions,
		"remaining_personal_trainings": result.RemainingPersonalTrainings,
	})
}

// ListTrialPayments godoc
// @Summary List trial payments
// @Tags memberships
// @Produce json
// @Success 200 {array} TrialPayment
// @Security BearerAuth
// @Router /admin/trial-payments [get]
func (h *Handler) ListTrialPayments(c *gin.Context) {
	payments, err := h.service.ListTrialPayments(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to list trial payments"})
		return
	}
	c.JSON(http.StatusOK, payments)
}

// AlignBillingPeriod godoc
// @Summary Re-anchor a membership's billing period to month end
// @Tags memberships
// @Produce json
// @Param id path int true "Membership ID"
// @Success 200 {object} api.MessageResponse
// @Failure 404 {object} api.ErrorResponse
// @Security BearerAuth
// @Router /admin/memberships/{id}/align-period [post]
func (h *Handler) AlignBillingPeriod(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid membership id"})
		return
	}

	if err := h.service.CheckAndUpdatePeriod(c.Request.Context(), id); err != nil {
		switch {
		case errors.Is(err, ErrMembershipNotFound), errors.Is(err, ErrMembershipTypeNotFound):
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: err.Error()})
		case errors.Is(err, ErrNoSubscription):
			c.JSON(http.StatusConflict, api.ErrorResponse{Error: err.Error()})
		default:
			c.JSON(http.StatusBadGateway, api.ErrorResponse{Error: "billing period alignment failed"})
		}
		return
	}

	c.JSON(http.StatusOK, api.MessageResponse{Message: "billing period aligned"})
}
