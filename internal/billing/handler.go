package billing

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/performlikemj/C2M/internal/api"
	"github.com/performlikemj/C2M/internal/logger"
)

// SignatureHeader carries the provider's payload signature.
const SignatureHeader = "Stripe-Signature"

const maxPayloadBytes = 1 << 16

type Handler struct {
	reconciler    *Reconciler
	webhookSecret string
}

func NewHandler(reconciler *Reconciler, webhookSecret string) *Handler {
	return &Handler{reconciler: reconciler, webhookSecret: webhookSecret}
}

// HandleWebhook godoc
// @Summary Payment provider webhook
// @Description Verifies the delivery signature and applies the event to the membership ledger. Responds 200 even when a handler skips an event so the provider does not retry storms; only invoice.created failures request a retry.
// @Tags webhooks
// @Accept json
// @Produce json
// @Success 200 {object} api.MessageResponse
// @Failure 400 {object} api.ErrorResponse
// @Failure 500 {object} api.ErrorResponse
// @Router /webhooks/stripe [post]
func (h *Handler) HandleWebhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxPayloadBytes))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "unreadable payload"})
		return
	}

	if err := VerifySignature(payload, c.GetHeader(SignatureHeader), h.webhookSecret, time.Now()); err != nil {
		logger.Warn("Webhook signature rejected", "error", err)
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid signature"})
		return
	}

	event, err := ParseEvent(payload)
	if err != nil || event.ID == "" || event.Type == "" {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "malformed event payload"})
		return
	}

	if err := h.reconciler.Process(c.Request.Context(), event); err != nil {
		logger.Error("Webhook handler failed", "event_id", event.ID, "type", event.Type, "error", err)
		// invoice.created failures must be retried by the provider; every
		// other handler's failure is settled here to avoid retry storms.
		if event.Type == EventInvoiceCreated {
			c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "event processing failed"})
			return
		}
	}

	c.JSON(http.StatusOK, api.MessageResponse{Message: "received"})
}
