package trainer

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// CreateTrainer godoc
// @Summary      Create trainer
// @Tags         trainers
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body      CreateTrainerRequest  true  "Trainer data"
// @Success      201      {object}  Trainer
// @Failure      400      {object}  gin.H
// @Failure      500      {object}  gin.H
// @Router       /admin/trainers [post]
func (h *Handler) CreateTrainer(c *gin.Context) {
	var req CreateTrainerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	t, err := h.service.CreateTrainer(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create trainer"})
		return
	}

	c.JSON(http.StatusCreated, t)
}

// ListTrainers godoc
// @Summary      List trainers
// @Tags         trainers
// @Produce      json
// @Success      200  {array}   Trainer
// @Failure      500  {object}  gin.H
// @Router       /trainers [get]
func (h *Handler) ListTrainers(c *gin.Context) {
	trainers, err := h.service.GetAllTrainers(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch trainers"})
		return
	}

	c.JSON(http.StatusOK, trainers)
}

// CheckAvailability godoc
// @Summary      Check trainer availability
// @Description  Reports whether the trainer is free in [start, end), consulting class and personal training sessions.
// @Tags         trainers
// @Produce      json
// @Param        trainerID  path      int     true   "Trainer ID"
// @Param        start      query     string  true   "Start datetime (RFC3339)"
// @Param        end        query     string  true   "End datetime (RFC3339)"
// @Param        exclude    query     int     false  "Session ID to exclude"
// @Success      200        {object}  gin.H
// @Failure      400        {object}  gin.H
// @Failure      404        {object}  gin.H
// @Router       /trainers/{trainerID}/availability [get]
func (h *Handler) CheckAvailability(c *gin.Context) {
	trainerID, err := strconv.Atoi(c.Param("trainerID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid trainer ID"})
		return
	}

	start, err := time.Parse(time.RFC3339, c.Query("start"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start format, use RFC3339"})
		return
	}

	end, err := time.Parse(time.RFC3339, c.Query("end"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid end format, use RFC3339"})
		return
	}

	exclude := 0
	if v := c.Query("exclude"); v != "" {
		exclude, err = strconv.Atoi(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid exclude parameter"})
			return
		}
	}

	if _, err := h.service.GetTrainerByID(c.Request.Context(), trainerID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Trainer not found"})
		return
	}

	available, err := h.service.IsAvailable(c.Request.Context(), trainerID, start, end, exclude)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check availability"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"trainer_id": trainerID,
		"start":      start,
		"end":        end,
		"available":  available,
	})
}
