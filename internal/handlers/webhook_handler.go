package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/porticodesk/portico/internal/models"
	"github.com/porticodesk/portico/internal/services/billing"
	"github.com/ternarybob/arbor"
)

// SignatureHeader carries the billing provider's delivery signature.
const SignatureHeader = "Portico-Signature"

// maxWebhookBody bounds how much of a delivery is read.
const maxWebhookBody = 1 << 20

// WebhookHandler receives signed billing deliveries. The raw body bytes are
// what the signature covers; nothing may re-serialize them before
// verification.
type WebhookHandler struct {
	processor *billing.Processor
	logger    arbor.ILogger
}

func NewWebhookHandler(processor *billing.Processor, logger arbor.ILogger) *WebhookHandler {
	return &WebhookHandler{
		processor: processor,
		logger:    logger,
	}
}

// BillingHandler serves POST /api/webhooks/billing.
func (h *WebhookHandler) BillingHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "unreadable body")
		return
	}

	err = h.processor.VerifyAndProcess(r.Context(), body, r.Header.Get(SignatureHeader))
	switch {
	case err == nil:
		WriteJSON(w, http.StatusOK, map[string]bool{"received": true})
	case errors.Is(err, models.ErrInvalidSignature):
		WriteError(w, http.StatusBadRequest, "invalid signature")
	case models.IsValidationError(err):
		WriteError(w, http.StatusBadRequest, err.Error())
	default:
		// Signature verified but processing failed: report failure so the
		// sender retries the delivery.
		h.logger.Error().Err(err).Msg("Billing webhook processing failed")
		WriteError(w, http.StatusInternalServerError, "processing failed")
	}
}
