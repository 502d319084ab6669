/**
 * @description
 * This file contains the HTTP handler functions for the retention-service.
 * Handlers are responsible for parsing incoming requests, calling the
 * appropriate business logic in the service layer, and writing the HTTP
 * response. Gateway failures map to the fixed error bodies the widget
 * expects; provider detail never leaves the server.
 */
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/algofomo/retention-service/internal/app"
	"github.com/algofomo/retention-service/internal/domain"
)

// Handler holds the application service that handlers will interact with.
type Handler struct {
	service *app.Service
}

// NewHandler creates a new Handler with the given service.
func NewHandler(service *app.Service) *Handler {
	return &Handler{service: service}
}

// handleClaimOffer handles the direct redemption endpoint used by the
// widget. The request field names match the original widget payload.
func (h *Handler) handleClaimOffer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		MembershipID    string `json:"membershipId"`
		DiscountPercent string `json:"discountPercent"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		// The widget treats every non-config failure the same way.
		respondWithError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	result, err := h.service.ClaimOffer(r.Context(), req.MembershipID, req.DiscountPercent)
	if err != nil {
		if errors.Is(err, app.ErrMissingCredential) {
			respondWithError(w, http.StatusInternalServerError, "Server Configuration Error")
			return
		}
		respondWithError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	respondWithJSON(w, http.StatusOK, claimResponse(result))
}

// handleStartFlow creates a new retention flow. The membership id is
// optional; an absent value resolves to the test sentinel.
func (h *Handler) handleStartFlow(w http.ResponseWriter, r *http.Request) {
	var req struct {
		MembershipID string `json:"membership_id"`
	}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	flow := h.service.StartFlow(r.Context(), req.MembershipID)
	respondWithJSON(w, http.StatusCreated, flow.Snapshot())
}

// handleGetFlow returns the current snapshot of a flow.
func (h *Handler) handleGetFlow(w http.ResponseWriter, r *http.Request) {
	flow, err := h.service.GetFlow(chi.URLParam(r, "flowID"))
	if err != nil {
		respondWithError(w, http.StatusNotFound, "Flow not found")
		return
	}
	respondWithJSON(w, http.StatusOK, flow.Snapshot())
}

// handleSelectReason records the cancellation reason and advances the flow
// to the offer state.
func (h *Handler) handleSelectReason(w http.ResponseWriter, r *http.Request) {
	flow, err := h.service.GetFlow(chi.URLParam(r, "flowID"))
	if err != nil {
		respondWithError(w, http.StatusNotFound, "Flow not found")
		return
	}

	var req struct {
		Reason domain.CancellationReason `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := flow.SelectReason(r.Context(), req.Reason); err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidReason):
			respondWithError(w, http.StatusBadRequest, "Invalid cancellation reason")
		case errors.Is(err, app.ErrInvalidTransition), errors.Is(err, app.ErrActionInFlight):
			respondWithError(w, http.StatusConflict, err.Error())
		default:
			respondWithError(w, http.StatusInternalServerError, "Internal Server Error")
		}
		return
	}

	respondWithJSON(w, http.StatusOK, flow.Snapshot())
}

// handleClaimFlow accepts the offer for a flow: it runs the redemption
// gateway and, on success, moves the flow to its terminal state.
func (h *Handler) handleClaimFlow(w http.ResponseWriter, r *http.Request) {
	flow, err := h.service.GetFlow(chi.URLParam(r, "flowID"))
	if err != nil {
		respondWithError(w, http.StatusNotFound, "Flow not found")
		return
	}

	result, err := flow.Claim(r.Context())
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidTransition), errors.Is(err, app.ErrActionInFlight):
			respondWithError(w, http.StatusConflict, err.Error())
		case errors.Is(err, app.ErrMissingCredential):
			respondWithError(w, http.StatusInternalServerError, "Server Configuration Error")
		default:
			respondWithError(w, http.StatusInternalServerError, "Internal Server Error")
		}
		return
	}

	resp := claimResponse(result)
	resp["state"] = flow.Snapshot().State
	respondWithJSON(w, http.StatusOK, resp)
}

// handleGetDashboard serves the admin console: current config, recent
// attempts, and aggregate counters.
func (h *Handler) handleGetDashboard(w http.ResponseWriter, r *http.Request) {
	dash, err := h.service.GetDashboard(r.Context())
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	respondWithJSON(w, http.StatusOK, dash)
}

// handleUpdateConfig merge-writes the offer configuration.
func (h *Handler) handleUpdateConfig(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DiscountPercent string `json:"discount_percent"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	cfg, err := h.service.UpdateDiscount(r.Context(), req.DiscountPercent)
	if err != nil {
		if errors.Is(err, app.ErrInvalidDiscount) {
			respondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		respondWithError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	respondWithJSON(w, http.StatusOK, cfg)
}

// claimResponse shapes a redemption result the way the widget expects:
// the mode field appears only on the simulated path.
func claimResponse(result *domain.RedemptionResult) map[string]interface{} {
	resp := map[string]interface{}{"success": result.Success}
	if result.Mode == domain.ModeSimulation {
		resp["mode"] = string(result.Mode)
	}
	return resp
}

// respondWithJSON is a helper function to write JSON responses.
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

// respondWithError writes a JSON error body of the form {"error": message}.
func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}
