package httpapi

import (
	"io"
	"net/http"
)

// stripeSignatureHeader carries the webhook signature Stripe computes over
// the raw request body.
const stripeSignatureHeader = "Stripe-Signature"

// webhookBodyLimit bounds webhook payload reads; Stripe events are small.
const webhookBodyLimit = 1 << 20

func (s *Server) handleStripeWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, webhookBodyLimit))
	if err != nil {
		respondError(w, http.StatusBadRequest, "unreadable body")
		return
	}
	defer r.Body.Close()

	err = s.billing.HandleWebhookEvent(r.Context(), payload, r.Header.Get(stripeSignatureHeader))
	if err != nil {
		s.logger.Warn(r.Context(), "Webhook rejected", "reason", err.Error())
		respondServiceError(w, err)
		return
	}

	s.logger.Debug(r.Context(), "Webhook applied", "payload_bytes", len(payload))
	respondJSON(w, http.StatusOK, map[string]any{"received": true})
}

func (s *Server) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	accountID := accountIDFromContext(r.Context())

	url, err := s.billing.Subscribe(r.Context(), accountID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"url": url})
}

func (s *Server) handlePortal(w http.ResponseWriter, r *http.Request) {
	accountID := accountIDFromContext(r.Context())

	url, err := s.billing.Portal(r.Context(), accountID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"url": url})
}
