/**
 * @description
 * This file contains the HTTP handlers for the funding-service's user-facing
 * endpoints. Handlers are responsible for parsing incoming requests, calling
 * the appropriate methods on the application service, and writing the HTTP
 * response. They act as the bridge between the web layer and the business
 * logic layer.
 *
 * @dependencies
 * - encoding/json, log, net/http: Standard Go libraries.
 * - github.com/go-chi/chi/v5: URL parameter extraction.
 * - internal/app, internal/domain, internal/store: For service logic, models, and custom errors.
 */

package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/coinvest/funding-service/internal/app"
	"github.com/coinvest/funding-service/internal/domain"
	"github.com/coinvest/funding-service/internal/store"
)

// FundingHandlers holds the application service that handlers will use.
type FundingHandlers struct {
	service  *app.Service
	uploader ProofUploader
}

// NewFundingHandlers creates a new instance of FundingHandlers.
func NewFundingHandlers(service *app.Service) *FundingHandlers {
	return &FundingHandlers{service: service}
}

// SetProofUploader wires the media storage client used by the proof-of-payment
// upload endpoint. A nil uploader leaves the endpoint returning 503.
func (h *FundingHandlers) SetProofUploader(uploader ProofUploader) {
	h.uploader = uploader
}

// writeJSON is a helper for writing JSON responses.
func (h *FundingHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError is a helper for writing JSON error responses.
func (h *FundingHandlers) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}

// resolveProfileID maps the authenticated subject on the request context to
// the internal profile UUID. It writes the error response itself and returns
// false when resolution fails.
func (h *FundingHandlers) resolveProfileID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	subject, ok := GetAuthSubject(r.Context())
	if !ok {
		h.writeError(w, http.StatusInternalServerError, "Could not get subject from context")
		return uuid.Nil, false
	}
	profileID, err := h.service.ResolveProfileID(r.Context(), subject)
	if err != nil {
		log.Printf("level=warn component=api outcome=reject reason=profile_resolution_failed subject=%s err=%v", subject, err)
		h.writeError(w, http.StatusBadRequest, "Profile not found")
		return uuid.Nil, false
	}
	return profileID, true
}

// handleServiceError maps service and store errors to HTTP responses.
func (h *FundingHandlers) handleServiceError(w http.ResponseWriter, err error) {
	var rateErr *app.RateLimitedError
	switch {
	case errors.As(err, &rateErr):
		w.Header().Set("Retry-After", strconv.Itoa(rateErr.RetryAfterSeconds))
		h.writeError(w, http.StatusTooManyRequests, rateErr.Error())
	case errors.Is(err, app.ErrNotAuthorized):
		h.writeError(w, http.StatusForbidden, "Admin capability required")
	case errors.Is(err, app.ErrAccountInactive):
		h.writeError(w, http.StatusForbidden, "Account is deactivated")
	case errors.Is(err, store.ErrInsufficientFunds):
		h.writeError(w, http.StatusPaymentRequired, "Insufficient balance")
	case errors.Is(err, store.ErrAlreadyProcessed):
		h.writeError(w, http.StatusConflict, "Record has already been processed")
	case errors.Is(err, store.ErrProfileNotFound),
		errors.Is(err, store.ErrDepositNotFound),
		errors.Is(err, store.ErrWithdrawalNotFound),
		errors.Is(err, store.ErrPaymentMethodNotFound),
		errors.Is(err, store.ErrPlanNotFound):
		h.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, app.ErrInvalidAmount),
		errors.Is(err, app.ErrInvalidWithdrawalMethod),
		errors.Is(err, app.ErrMissingBankDetails),
		errors.Is(err, app.ErrMissingCryptoDetails),
		errors.Is(err, app.ErrInvalidPaymentMethod),
		errors.Is(err, app.ErrPaymentMethodDisabled),
		errors.Is(err, app.ErrInvalidPlan):
		h.writeError(w, http.StatusBadRequest, err.Error())
	default:
		log.Printf("level=error component=api msg=\"unhandled service error\" err=%v", err)
		h.writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// parseListOptions reads the shared status/limit/offset query parameters.
func parseListOptions(r *http.Request) domain.RecordListOptions {
	opts := domain.RecordListOptions{}
	opts.Status = r.URL.Query().Get("status")
	if limit, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && limit > 0 {
		opts.Limit = limit
	}
	if offset, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && offset > 0 {
		opts.Offset = offset
	}
	return opts
}

// urlParamUUID extracts and parses a UUID path parameter. It writes the error
// response itself and returns false on a malformed value.
func (h *FundingHandlers) urlParamUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	raw := chi.URLParam(r, name)
	id, err := uuid.Parse(raw)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid "+name+" format")
		return uuid.Nil, false
	}
	return id, true
}

// GetProfileHandler returns the caller's ledger view.
func (h *FundingHandlers) GetProfileHandler(w http.ResponseWriter, r *http.Request) {
	profileID, ok := h.resolveProfileID(w, r)
	if !ok {
		return
	}

	profile, err := h.service.GetProfile(r.Context(), profileID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, profile)
}

// GetTotalsHandler returns the caller's totals snapshot, computing it on
// first access.
func (h *FundingHandlers) GetTotalsHandler(w http.ResponseWriter, r *http.Request) {
	profileID, ok := h.resolveProfileID(w, r)
	if !ok {
		return
	}

	totals, err := h.service.GetTotals(r.Context(), profileID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, totals)
}

// CreateDepositHandler handles a user's deposit submission.
func (h *FundingHandlers) CreateDepositHandler(w http.ResponseWriter, r *http.Request) {
	profileID, ok := h.resolveProfileID(w, r)
	if !ok {
		return
	}

	var req domain.CreateDepositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	deposit, err := h.service.SubmitDeposit(r.Context(), profileID, req)
	if err != nil {
		log.Printf("level=warn component=api endpoint=create_deposit outcome=reject profile_id=%s err=%v", profileID, err)
		h.handleServiceError(w, err)
		return
	}

	log.Printf("level=info component=api endpoint=create_deposit outcome=accepted deposit_id=%s profile_id=%s amount=%d", deposit.ID, profileID, deposit.Amount)
	h.writeJSON(w, http.StatusCreated, deposit)
}

// ListOwnDepositsHandler returns the caller's deposit history.
func (h *FundingHandlers) ListOwnDepositsHandler(w http.ResponseWriter, r *http.Request) {
	profileID, ok := h.resolveProfileID(w, r)
	if !ok {
		return
	}

	deposits, err := h.service.ListOwnDeposits(r.Context(), profileID, r.URL.Query().Get("status"))
	if err != nil {
		h.handleServiceError(w, err)
		return
	}
	if deposits == nil {
		deposits = []domain.Deposit{}
	}
	h.writeJSON(w, http.StatusOK, deposits)
}

// CreateWithdrawalHandler handles a user's withdrawal request.
func (h *FundingHandlers) CreateWithdrawalHandler(w http.ResponseWriter, r *http.Request) {
	profileID, ok := h.resolveProfileID(w, r)
	if !ok {
		return
	}

	var req domain.CreateWithdrawalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	withdrawal, err := h.service.RequestWithdrawal(r.Context(), profileID, req)
	if err != nil {
		log.Printf("level=warn component=api endpoint=create_withdrawal outcome=reject profile_id=%s err=%v", profileID, err)
		h.handleServiceError(w, err)
		return
	}

	log.Printf("level=info component=api endpoint=create_withdrawal outcome=accepted withdrawal_id=%s profile_id=%s amount=%d", withdrawal.ID, profileID, withdrawal.Amount)
	h.writeJSON(w, http.StatusCreated, withdrawal)
}

// ListOwnWithdrawalsHandler returns the caller's withdrawal history.
func (h *FundingHandlers) ListOwnWithdrawalsHandler(w http.ResponseWriter, r *http.Request) {
	profileID, ok := h.resolveProfileID(w, r)
	if !ok {
		return
	}

	withdrawals, err := h.service.ListOwnWithdrawals(r.Context(), profileID, r.URL.Query().Get("status"))
	if err != nil {
		h.handleServiceError(w, err)
		return
	}
	if withdrawals == nil {
		withdrawals = []domain.Withdrawal{}
	}
	h.writeJSON(w, http.StatusOK, withdrawals)
}

// ListPlansHandler returns the plan catalog visible to users.
func (h *FundingHandlers) ListPlansHandler(w http.ResponseWriter, r *http.Request) {
	plans, err := h.service.ListActivePlans(r.Context())
	if err != nil {
		h.handleServiceError(w, err)
		return
	}
	if plans == nil {
		plans = []domain.InvestmentPlan{}
	}
	h.writeJSON(w, http.StatusOK, plans)
}

// ListPaymentMethodsHandler returns the enabled payment methods visible to
// users, optionally filtered by type.
func (h *FundingHandlers) ListPaymentMethodsHandler(w http.ResponseWriter, r *http.Request) {
	methods, err := h.service.ListEnabledPaymentMethods(r.Context(), r.URL.Query().Get("type"))
	if err != nil {
		h.handleServiceError(w, err)
		return
	}
	if methods == nil {
		methods = []domain.PaymentMethod{}
	}
	h.writeJSON(w, http.StatusOK, methods)
}
