/**
 * @description
 * This file contains the HTTP handlers for the admin-owned catalog endpoints:
 * payment method and investment plan management.
 *
 * @dependencies
 * - encoding/json, net/http: Standard Go libraries.
 * - internal/domain: Request DTOs and models.
 */

package api

import (
	"encoding/json"
	"net/http"

	"github.com/coinvest/funding-service/internal/domain"
)

// AdminListPaymentMethodsHandler lists all payment methods, disabled included.
func (h *FundingHandlers) AdminListPaymentMethodsHandler(w http.ResponseWriter, r *http.Request) {
	actorID, ok := h.resolveProfileID(w, r)
	if !ok {
		return
	}

	methods, err := h.service.ListPaymentMethods(r.Context(), actorID, r.URL.Query().Get("type"))
	if err != nil {
		h.handleServiceError(w, err)
		return
	}
	if methods == nil {
		methods = []domain.PaymentMethod{}
	}
	h.writeJSON(w, http.StatusOK, methods)
}

// AdminCreatePaymentMethodHandler creates a new payment method.
func (h *FundingHandlers) AdminCreatePaymentMethodHandler(w http.ResponseWriter, r *http.Request) {
	actorID, ok := h.resolveProfileID(w, r)
	if !ok {
		return
	}

	var req domain.UpsertPaymentMethodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	method, err := h.service.CreatePaymentMethod(r.Context(), actorID, req)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, method)
}

// AdminUpdatePaymentMethodHandler overwrites a payment method's fields.
func (h *FundingHandlers) AdminUpdatePaymentMethodHandler(w http.ResponseWriter, r *http.Request) {
	actorID, ok := h.resolveProfileID(w, r)
	if !ok {
		return
	}
	methodID, ok := h.urlParamUUID(w, r, "methodID")
	if !ok {
		return
	}

	var req domain.UpsertPaymentMethodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	method, err := h.service.UpdatePaymentMethod(r.Context(), actorID, methodID, req)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, method)
}

// AdminEnablePaymentMethodHandler re-enables a payment method.
func (h *FundingHandlers) AdminEnablePaymentMethodHandler(w http.ResponseWriter, r *http.Request) {
	h.setPaymentMethodEnabled(w, r, true)
}

// AdminDisablePaymentMethodHandler soft-disables a payment method, keeping
// it referencable by deposit history.
func (h *FundingHandlers) AdminDisablePaymentMethodHandler(w http.ResponseWriter, r *http.Request) {
	h.setPaymentMethodEnabled(w, r, false)
}

func (h *FundingHandlers) setPaymentMethodEnabled(w http.ResponseWriter, r *http.Request, enabled bool) {
	actorID, ok := h.resolveProfileID(w, r)
	if !ok {
		return
	}
	methodID, ok := h.urlParamUUID(w, r, "methodID")
	if !ok {
		return
	}

	if err := h.service.SetPaymentMethodEnabled(r.Context(), actorID, methodID, enabled); err != nil {
		h.handleServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]bool{"enabled": enabled})
}

// AdminDeletePaymentMethodHandler hard-deletes a payment method.
func (h *FundingHandlers) AdminDeletePaymentMethodHandler(w http.ResponseWriter, r *http.Request) {
	actorID, ok := h.resolveProfileID(w, r)
	if !ok {
		return
	}
	methodID, ok := h.urlParamUUID(w, r, "methodID")
	if !ok {
		return
	}

	if err := h.service.DeletePaymentMethod(r.Context(), actorID, methodID); err != nil {
		h.handleServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// AdminCreatePlanHandler creates a new investment plan.
func (h *FundingHandlers) AdminCreatePlanHandler(w http.ResponseWriter, r *http.Request) {
	actorID, ok := h.resolveProfileID(w, r)
	if !ok {
		return
	}

	var req domain.UpsertPlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	plan, err := h.service.CreatePlan(r.Context(), actorID, req)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, plan)
}

// AdminUpdatePlanHandler overwrites an investment plan's fields.
func (h *FundingHandlers) AdminUpdatePlanHandler(w http.ResponseWriter, r *http.Request) {
	actorID, ok := h.resolveProfileID(w, r)
	if !ok {
		return
	}
	planID, ok := h.urlParamUUID(w, r, "planID")
	if !ok {
		return
	}

	var req domain.UpsertPlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	plan, err := h.service.UpdatePlan(r.Context(), actorID, planID, req)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, plan)
}

// AdminDeletePlanHandler hard-deletes an investment plan.
func (h *FundingHandlers) AdminDeletePlanHandler(w http.ResponseWriter, r *http.Request) {
	actorID, ok := h.resolveProfileID(w, r)
	if !ok {
		return
	}
	planID, ok := h.urlParamUUID(w, r, "planID")
	if !ok {
		return
	}

	if err := h.service.DeletePlan(r.Context(), actorID, planID); err != nil {
		h.handleServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
