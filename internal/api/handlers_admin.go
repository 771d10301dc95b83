/**
 * @description
 * This file contains the HTTP handlers for the admin review endpoints:
 * listing, approving and declining deposits and withdrawals, and managing
 * profiles. Authorization is enforced in the service layer against the acting
 * profile's role; these handlers only resolve the actor and translate errors.
 *
 * @dependencies
 * - encoding/json, log, net/http: Standard Go libraries.
 * - internal/app, internal/domain, internal/store: For service logic, models, and custom errors.
 */

package api

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/google/uuid"

	"github.com/coinvest/funding-service/internal/domain"
)

// decodeReviewRequest reads the optional admin notes body. An empty body is
// treated as a review with no notes.
func decodeReviewRequest(r *http.Request) domain.ReviewRequest {
	var req domain.ReviewRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	return req
}

// AdminListDepositsHandler lists deposits across all profiles.
func (h *FundingHandlers) AdminListDepositsHandler(w http.ResponseWriter, r *http.Request) {
	actorID, ok := h.resolveProfileID(w, r)
	if !ok {
		return
	}

	opts := parseListOptions(r)
	if raw := r.URL.Query().Get("profile_id"); raw != "" {
		profileID, err := uuid.Parse(raw)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "Invalid profile_id format")
			return
		}
		opts.ProfileID = &profileID
	}

	deposits, err := h.service.ListDeposits(r.Context(), actorID, opts)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}
	if deposits == nil {
		deposits = []domain.Deposit{}
	}
	h.writeJSON(w, http.StatusOK, deposits)
}

// AdminApproveDepositHandler approves a pending deposit, applying the
// proposed ledger deltas unless the request overrides them.
func (h *FundingHandlers) AdminApproveDepositHandler(w http.ResponseWriter, r *http.Request) {
	actorID, ok := h.resolveProfileID(w, r)
	if !ok {
		return
	}
	depositID, ok := h.urlParamUUID(w, r, "depositID")
	if !ok {
		return
	}

	var req domain.ApproveDepositRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	deposit, err := h.service.ApproveDeposit(r.Context(), actorID, depositID, req)
	if err != nil {
		log.Printf("level=warn component=api endpoint=approve_deposit outcome=reject deposit_id=%s actor_id=%s err=%v", depositID, actorID, err)
		h.handleServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, deposit)
}

// AdminDeclineDepositHandler declines a pending deposit. No ledger effect.
func (h *FundingHandlers) AdminDeclineDepositHandler(w http.ResponseWriter, r *http.Request) {
	actorID, ok := h.resolveProfileID(w, r)
	if !ok {
		return
	}
	depositID, ok := h.urlParamUUID(w, r, "depositID")
	if !ok {
		return
	}

	req := decodeReviewRequest(r)
	deposit, err := h.service.DeclineDeposit(r.Context(), actorID, depositID, req.AdminNotes)
	if err != nil {
		log.Printf("level=warn component=api endpoint=decline_deposit outcome=reject deposit_id=%s actor_id=%s err=%v", depositID, actorID, err)
		h.handleServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, deposit)
}

// AdminListWithdrawalsHandler lists withdrawals across all profiles.
func (h *FundingHandlers) AdminListWithdrawalsHandler(w http.ResponseWriter, r *http.Request) {
	actorID, ok := h.resolveProfileID(w, r)
	if !ok {
		return
	}

	opts := parseListOptions(r)
	if raw := r.URL.Query().Get("profile_id"); raw != "" {
		profileID, err := uuid.Parse(raw)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "Invalid profile_id format")
			return
		}
		opts.ProfileID = &profileID
	}

	withdrawals, err := h.service.ListWithdrawals(r.Context(), actorID, opts)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}
	if withdrawals == nil {
		withdrawals = []domain.Withdrawal{}
	}
	h.writeJSON(w, http.StatusOK, withdrawals)
}

// AdminApproveWithdrawalHandler marks a pending withdrawal as paid out.
func (h *FundingHandlers) AdminApproveWithdrawalHandler(w http.ResponseWriter, r *http.Request) {
	actorID, ok := h.resolveProfileID(w, r)
	if !ok {
		return
	}
	withdrawalID, ok := h.urlParamUUID(w, r, "withdrawalID")
	if !ok {
		return
	}

	req := decodeReviewRequest(r)
	withdrawal, err := h.service.ApproveWithdrawal(r.Context(), actorID, withdrawalID, req.AdminNotes)
	if err != nil {
		log.Printf("level=warn component=api endpoint=approve_withdrawal outcome=reject withdrawal_id=%s actor_id=%s err=%v", withdrawalID, actorID, err)
		h.handleServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, withdrawal)
}

// AdminDeclineWithdrawalHandler declines a pending withdrawal and refunds the
// debited amount.
func (h *FundingHandlers) AdminDeclineWithdrawalHandler(w http.ResponseWriter, r *http.Request) {
	actorID, ok := h.resolveProfileID(w, r)
	if !ok {
		return
	}
	withdrawalID, ok := h.urlParamUUID(w, r, "withdrawalID")
	if !ok {
		return
	}

	req := decodeReviewRequest(r)
	withdrawal, err := h.service.DeclineWithdrawal(r.Context(), actorID, withdrawalID, req.AdminNotes)
	if err != nil {
		log.Printf("level=warn component=api endpoint=decline_withdrawal outcome=reject withdrawal_id=%s actor_id=%s err=%v", withdrawalID, actorID, err)
		h.handleServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, withdrawal)
}

// AdminListProfilesHandler lists profiles for the admin console.
func (h *FundingHandlers) AdminListProfilesHandler(w http.ResponseWriter, r *http.Request) {
	actorID, ok := h.resolveProfileID(w, r)
	if !ok {
		return
	}

	opts := domain.ProfileListOptions{Search: r.URL.Query().Get("search")}
	listOpts := parseListOptions(r)
	opts.Limit = listOpts.Limit
	opts.Offset = listOpts.Offset

	profiles, err := h.service.ListProfiles(r.Context(), actorID, opts)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}
	if profiles == nil {
		profiles = []domain.Profile{}
	}
	h.writeJSON(w, http.StatusOK, profiles)
}

// AdminUpdateLedgerHandler applies a direct edit to a profile's ledger fields.
func (h *FundingHandlers) AdminUpdateLedgerHandler(w http.ResponseWriter, r *http.Request) {
	actorID, ok := h.resolveProfileID(w, r)
	if !ok {
		return
	}
	profileID, ok := h.urlParamUUID(w, r, "profileID")
	if !ok {
		return
	}

	var update domain.LedgerUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	profile, err := h.service.OverrideLedger(r.Context(), actorID, profileID, update)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}
	log.Printf("level=info component=api endpoint=update_ledger outcome=applied profile_id=%s actor_id=%s", profileID, actorID)
	h.writeJSON(w, http.StatusOK, profile)
}

// AdminDeactivateProfileHandler disables an account without deleting records.
func (h *FundingHandlers) AdminDeactivateProfileHandler(w http.ResponseWriter, r *http.Request) {
	actorID, ok := h.resolveProfileID(w, r)
	if !ok {
		return
	}
	profileID, ok := h.urlParamUUID(w, r, "profileID")
	if !ok {
		return
	}

	if err := h.service.DeactivateProfile(r.Context(), actorID, profileID); err != nil {
		h.handleServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "deactivated"})
}

// AdminDeleteProfileHandler removes an account and its dependent records.
func (h *FundingHandlers) AdminDeleteProfileHandler(w http.ResponseWriter, r *http.Request) {
	actorID, ok := h.resolveProfileID(w, r)
	if !ok {
		return
	}
	profileID, ok := h.urlParamUUID(w, r, "profileID")
	if !ok {
		return
	}

	if err := h.service.DeleteProfile(r.Context(), actorID, profileID); err != nil {
		h.handleServiceError(w, err)
		return
	}
	log.Printf("level=info component=api endpoint=delete_profile outcome=deleted profile_id=%s actor_id=%s", profileID, actorID)
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
