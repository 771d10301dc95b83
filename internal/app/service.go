/**
 * @description
 * This file contains the core business logic for the funding-service. The
 * `Service` struct orchestrates every balance-affecting operation: deposit
 * submission and admin review, withdrawal requests with their optimistic
 * debit, payment method and investment plan administration, and the profile
 * totals snapshot.
 *
 * Key features:
 * - Single canonical authorization source: the acting profile's role field.
 * - Status transitions delegate to conditional single-statement updates in
 *   the repository, so a record can only ever leave pending once.
 * - Admin notifications are published fire-and-forget; a broker failure
 *   never fails the originating request.
 *
 * @dependencies
 * - context, errors, fmt, log, math, strings, time: Standard Go libraries.
 * - github.com/google/uuid: For UUID generation.
 * - internal/domain, internal/store: For domain models and data access.
 * - pkg/rabbitmq: For the admin notification side channel.
 */

package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	"github.com/coinvest/funding-service/internal/domain"
	"github.com/coinvest/funding-service/internal/store"
	"github.com/coinvest/funding-service/pkg/rabbitmq"
	"github.com/google/uuid"
)

var (
	ErrInvalidAmount           = errors.New("amount must be greater than zero")
	ErrInvalidWithdrawalMethod = errors.New("withdrawal method must be bank_transfer or crypto")
	ErrMissingBankDetails      = errors.New("bank withdrawals require bank_name, account_number and account_name")
	ErrMissingCryptoDetails    = errors.New("crypto withdrawals require crypto_currency, crypto_address and crypto_network")
	ErrInvalidPaymentMethod    = errors.New("payment method type must be bank or crypto")
	ErrPaymentMethodDisabled   = errors.New("payment method is disabled")
	ErrInvalidPlan             = errors.New("plan name and price are required")
	ErrNotAuthorized           = errors.New("admin capability required")
	ErrAccountInactive         = errors.New("account is deactivated")
)

// RateLimitedError reports a rejected withdrawal request together with the
// seconds the caller should wait before retrying.
type RateLimitedError struct {
	RetryAfterSeconds int
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("too many withdrawal requests; retry after %d seconds", e.RetryAfterSeconds)
}

// RateLimiter is the contract the withdrawal flow uses for distributed rate
// limiting. A nil limiter disables the check.
type RateLimiter interface {
	ConsumeRateLimit(ctx context.Context, scope string, subject string, limit int, window time.Duration) (count int, retryAfterSeconds int, err error)
}

const withdrawalRateLimitScope = "withdrawal_create"

// Service provides the core business logic for the funds movement workflow.
type Service struct {
	repo          store.Repository
	eventProducer rabbitmq.Publisher

	withdrawalRateLimiter     RateLimiter
	withdrawalRateLimitPerMin int
	defaultCurrency           string
}

// NewService creates a new funding service instance.
func NewService(repo store.Repository, producer rabbitmq.Publisher) *Service {
	return &Service{
		repo:          repo,
		eventProducer: producer,
	}
}

// SetWithdrawalRateLimiter wires a distributed rate limiter for withdrawal
// creation. limitPerMinute <= 0 disables the check.
func (s *Service) SetWithdrawalRateLimiter(limiter RateLimiter, limitPerMinute int) {
	s.withdrawalRateLimiter = limiter
	s.withdrawalRateLimitPerMin = limitPerMinute
}

// SetDefaultCurrency overrides the currency recorded on withdrawals that omit
// one. Defaults to USD.
func (s *Service) SetDefaultCurrency(currency string) {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency != "" {
		s.defaultCurrency = currency
	}
}

// ResolveProfileID converts an identity provider subject (e.g., "user_abc123")
// into the internal profile UUID. This allows handlers to accept subject ids
// from validated JWTs while the repositories operate on UUIDs.
func (s *Service) ResolveProfileID(ctx context.Context, authSubject string) (uuid.UUID, error) {
	idStr, err := s.repo.FindProfileIDByAuthSubject(ctx, authSubject)
	if err != nil {
		return uuid.Nil, err
	}
	return uuid.Parse(idStr)
}

// GetProfile returns the ledger view of a profile.
func (s *Service) GetProfile(ctx context.Context, profileID uuid.UUID) (*domain.Profile, error) {
	return s.repo.FindProfileByID(ctx, profileID)
}

// requireActiveProfile loads the acting profile and rejects deactivated accounts.
func (s *Service) requireActiveProfile(ctx context.Context, profileID uuid.UUID) (*domain.Profile, error) {
	profile, err := s.repo.FindProfileByID(ctx, profileID)
	if err != nil {
		return nil, err
	}
	if !profile.IsActive {
		return nil, ErrAccountInactive
	}
	return profile, nil
}

// requireAdmin loads the acting profile and enforces the admin role. The role
// field on the profile row is the only authorization source in the service.
func (s *Service) requireAdmin(ctx context.Context, actorID uuid.UUID) (*domain.Profile, error) {
	actor, err := s.repo.FindProfileByID(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() {
		return nil, ErrNotAuthorized
	}
	return actor, nil
}

// notifyAdmins publishes an admin notification without blocking the caller's
// outcome. The originating request already succeeded by the time this runs.
func (s *Service) notifyAdmins(ctx context.Context, event rabbitmq.AdminNotificationEvent) {
	if s.eventProducer == nil {
		return
	}
	event.Timestamp = time.Now().UTC()
	if err := s.eventProducer.PublishAdminNotification(ctx, event); err != nil {
		log.Printf("level=warn component=app msg=\"admin notification publish failed\" kind=%s record_id=%s err=%v", event.Kind, event.RecordID, err)
	}
}

// SubmitDeposit records a user's deposit submission against a plan and a
// payment method. Nothing on the ledger changes until an admin approves.
func (s *Service) SubmitDeposit(ctx context.Context, profileID uuid.UUID, req domain.CreateDepositRequest) (*domain.Deposit, error) {
	if _, err := s.requireActiveProfile(ctx, profileID); err != nil {
		return nil, err
	}
	if req.Amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if _, err := s.repo.FindPlanByID(ctx, req.PlanID); err != nil {
		return nil, err
	}
	method, err := s.repo.FindPaymentMethodByID(ctx, req.PaymentMethodID)
	if err != nil {
		return nil, err
	}
	if !method.Enabled {
		return nil, ErrPaymentMethodDisabled
	}

	deposit := &domain.Deposit{
		ID:              uuid.New(),
		ProfileID:       profileID,
		PlanID:          req.PlanID,
		PaymentMethodID: req.PaymentMethodID,
		Amount:          req.Amount,
		Status:          domain.StatusPending,
		ProofOfPayment:  req.ProofOfPayment,
	}
	if err := s.repo.CreateDeposit(ctx, deposit); err != nil {
		return nil, fmt.Errorf("failed to create deposit: %w", err)
	}

	s.notifyAdmins(ctx, rabbitmq.AdminNotificationEvent{
		Kind:      "deposit_created",
		ProfileID: profileID,
		RecordID:  deposit.ID,
		Amount:    deposit.Amount,
	})

	return deposit, nil
}

// ListOwnDeposits returns the caller's deposit history.
func (s *Service) ListOwnDeposits(ctx context.Context, profileID uuid.UUID, status string) ([]domain.Deposit, error) {
	return s.repo.ListDeposits(ctx, domain.RecordListOptions{Status: status, ProfileID: &profileID})
}

// validateWithdrawalRequest checks the amount and the method-specific
// destination fields. It performs no I/O.
func validateWithdrawalRequest(req domain.CreateWithdrawalRequest) error {
	if req.Amount <= 0 {
		return ErrInvalidAmount
	}
	switch req.Method {
	case domain.WithdrawalMethodBank:
		if emptyPtr(req.BankName) || emptyPtr(req.AccountNumber) || emptyPtr(req.AccountName) {
			return ErrMissingBankDetails
		}
	case domain.WithdrawalMethodCrypto:
		if emptyPtr(req.CryptoCurrency) || emptyPtr(req.CryptoAddress) || emptyPtr(req.CryptoNetwork) {
			return ErrMissingCryptoDetails
		}
	default:
		return ErrInvalidWithdrawalMethod
	}
	return nil
}

func emptyPtr(s *string) bool {
	return s == nil || strings.TrimSpace(*s) == ""
}

// RequestWithdrawal validates and records a withdrawal request. The insert
// and the balance debit happen in one repository transaction; a concurrent
// request can never over-draw the profile.
func (s *Service) RequestWithdrawal(ctx context.Context, profileID uuid.UUID, req domain.CreateWithdrawalRequest) (*domain.Withdrawal, error) {
	if _, err := s.requireActiveProfile(ctx, profileID); err != nil {
		return nil, err
	}
	if err := validateWithdrawalRequest(req); err != nil {
		return nil, err
	}

	if s.withdrawalRateLimiter != nil && s.withdrawalRateLimitPerMin > 0 {
		count, retryAfter, err := s.withdrawalRateLimiter.ConsumeRateLimit(
			ctx, withdrawalRateLimitScope, profileID.String(), s.withdrawalRateLimitPerMin, time.Minute)
		if err != nil {
			// Degrade open: a limiter outage must not block withdrawals.
			log.Printf("level=warn component=app msg=\"withdrawal rate limiter unavailable\" profile_id=%s err=%v", profileID, err)
		} else if count > s.withdrawalRateLimitPerMin {
			return nil, &RateLimitedError{RetryAfterSeconds: retryAfter}
		}
	}

	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = s.defaultCurrency
	}
	if currency == "" {
		currency = "USD"
	}

	withdrawal := &domain.Withdrawal{
		ID:             uuid.New(),
		ProfileID:      profileID,
		Amount:         req.Amount,
		Currency:       currency,
		Method:         req.Method,
		Status:         domain.StatusPending,
		BankName:       req.BankName,
		AccountNumber:  req.AccountNumber,
		AccountName:    req.AccountName,
		CryptoCurrency: req.CryptoCurrency,
		CryptoAddress:  req.CryptoAddress,
		CryptoNetwork:  req.CryptoNetwork,
	}
	if err := s.repo.CreateWithdrawalAtomic(ctx, withdrawal); err != nil {
		return nil, err
	}

	s.notifyAdmins(ctx, rabbitmq.AdminNotificationEvent{
		Kind:      "withdrawal_requested",
		ProfileID: profileID,
		RecordID:  withdrawal.ID,
		Amount:    withdrawal.Amount,
	})

	return withdrawal, nil
}

// ListOwnWithdrawals returns the caller's withdrawal history.
func (s *Service) ListOwnWithdrawals(ctx context.Context, profileID uuid.UUID, status string) ([]domain.Withdrawal, error) {
	return s.repo.ListWithdrawals(ctx, domain.RecordListOptions{Status: status, ProfileID: &profileID})
}

// GetTotals returns the totals snapshot, computing it on first access.
func (s *Service) GetTotals(ctx context.Context, profileID uuid.UUID) (*domain.ProfileTotals, error) {
	totals, err := s.repo.GetProfileTotals(ctx, profileID)
	if err == nil {
		return totals, nil
	}
	if errors.Is(err, store.ErrProfileNotFound) {
		return s.repo.RefreshProfileTotals(ctx, profileID)
	}
	return nil, err
}

// ListActivePlans returns the user-facing plan catalog.
func (s *Service) ListActivePlans(ctx context.Context) ([]domain.InvestmentPlan, error) {
	return s.repo.ListPlans(ctx)
}

// ListEnabledPaymentMethods returns the user-facing payment method catalog.
func (s *Service) ListEnabledPaymentMethods(ctx context.Context, methodType string) ([]domain.PaymentMethod, error) {
	return s.repo.ListPaymentMethods(ctx, methodType, true)
}

// proposedApprovalAdjustments computes the default ledger deltas for a
// deposit approval: full amount to balance, the plan's bonus, and the plan's
// return percentage of the amount to earnings.
func proposedApprovalAdjustments(amount int64, plan *domain.InvestmentPlan) domain.ApprovalAdjustments {
	earnings := int64(math.Round(float64(amount) * plan.ReturnPercent / 100))
	return domain.ApprovalAdjustments{
		BalanceDelta:  amount,
		BonusDelta:    plan.BonusAmount,
		EarningsDelta: earnings,
	}
}

// ApproveDeposit applies the admin approval workflow for a deposit. The
// proposed deltas may be overridden field-by-field by the request; the
// transition and the ledger mutation commit atomically in the repository.
func (s *Service) ApproveDeposit(ctx context.Context, actorID, depositID uuid.UUID, req domain.ApproveDepositRequest) (*domain.Deposit, error) {
	if _, err := s.requireAdmin(ctx, actorID); err != nil {
		return nil, err
	}

	deposit, err := s.repo.FindDepositByID(ctx, depositID)
	if err != nil {
		return nil, err
	}
	plan, err := s.repo.FindPlanByID(ctx, deposit.PlanID)
	if err != nil {
		return nil, err
	}

	adjustments := proposedApprovalAdjustments(deposit.Amount, plan)
	if req.BalanceDelta != nil {
		adjustments.BalanceDelta = *req.BalanceDelta
	}
	if req.BonusDelta != nil {
		adjustments.BonusDelta = *req.BonusDelta
	}
	if req.EarningsDelta != nil {
		adjustments.EarningsDelta = *req.EarningsDelta
	}

	approved, err := s.repo.ApproveDepositAtomic(ctx, depositID, adjustments, req.AdminNotes)
	if err != nil {
		return nil, err
	}
	log.Printf("level=info component=app msg=\"deposit approved\" deposit_id=%s profile_id=%s balance_delta=%d bonus_delta=%d earnings_delta=%d",
		approved.ID, approved.ProfileID, adjustments.BalanceDelta, adjustments.BonusDelta, adjustments.EarningsDelta)
	return approved, nil
}

// DeclineDeposit transitions a pending deposit to declined. No ledger effect.
func (s *Service) DeclineDeposit(ctx context.Context, actorID, depositID uuid.UUID, notes *string) (*domain.Deposit, error) {
	if _, err := s.requireAdmin(ctx, actorID); err != nil {
		return nil, err
	}
	return s.repo.DeclineDeposit(ctx, depositID, notes)
}

// ListDeposits returns deposits for the admin console.
func (s *Service) ListDeposits(ctx context.Context, actorID uuid.UUID, opts domain.RecordListOptions) ([]domain.Deposit, error) {
	if _, err := s.requireAdmin(ctx, actorID); err != nil {
		return nil, err
	}
	return s.repo.ListDeposits(ctx, opts)
}

// ApproveWithdrawal marks a pending withdrawal as paid out. The debit was
// already applied at creation, so the ledger is untouched.
func (s *Service) ApproveWithdrawal(ctx context.Context, actorID, withdrawalID uuid.UUID, notes *string) (*domain.Withdrawal, error) {
	if _, err := s.requireAdmin(ctx, actorID); err != nil {
		return nil, err
	}
	return s.repo.ApproveWithdrawal(ctx, withdrawalID, notes)
}

// DeclineWithdrawal transitions a pending withdrawal to declined and refunds
// the optimistic debit exactly once.
func (s *Service) DeclineWithdrawal(ctx context.Context, actorID, withdrawalID uuid.UUID, notes *string) (*domain.Withdrawal, error) {
	if _, err := s.requireAdmin(ctx, actorID); err != nil {
		return nil, err
	}
	return s.repo.DeclineWithdrawalAtomic(ctx, withdrawalID, notes)
}

// ListWithdrawals returns withdrawals for the admin console.
func (s *Service) ListWithdrawals(ctx context.Context, actorID uuid.UUID, opts domain.RecordListOptions) ([]domain.Withdrawal, error) {
	if _, err := s.requireAdmin(ctx, actorID); err != nil {
		return nil, err
	}
	return s.repo.ListWithdrawals(ctx, opts)
}

// CreatePaymentMethod adds a new admin-configured payment destination.
func (s *Service) CreatePaymentMethod(ctx context.Context, actorID uuid.UUID, req domain.UpsertPaymentMethodRequest) (*domain.PaymentMethod, error) {
	if _, err := s.requireAdmin(ctx, actorID); err != nil {
		return nil, err
	}
	if err := validatePaymentMethodRequest(req); err != nil {
		return nil, err
	}

	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}
	method := &domain.PaymentMethod{
		ID:      uuid.New(),
		Type:    req.Type,
		Name:    strings.TrimSpace(req.Name),
		Enabled: enabled,
		Details: req.Details,
	}
	if err := s.repo.CreatePaymentMethod(ctx, method); err != nil {
		return nil, err
	}
	return method, nil
}

func validatePaymentMethodRequest(req domain.UpsertPaymentMethodRequest) error {
	if req.Type != domain.PaymentMethodTypeBank && req.Type != domain.PaymentMethodTypeCrypto {
		return ErrInvalidPaymentMethod
	}
	if strings.TrimSpace(req.Name) == "" {
		return ErrInvalidPaymentMethod
	}
	return nil
}

// UpdatePaymentMethod overwrites a payment method's mutable fields.
func (s *Service) UpdatePaymentMethod(ctx context.Context, actorID, methodID uuid.UUID, req domain.UpsertPaymentMethodRequest) (*domain.PaymentMethod, error) {
	if _, err := s.requireAdmin(ctx, actorID); err != nil {
		return nil, err
	}
	if err := validatePaymentMethodRequest(req); err != nil {
		return nil, err
	}

	method, err := s.repo.FindPaymentMethodByID(ctx, methodID)
	if err != nil {
		return nil, err
	}
	method.Type = req.Type
	method.Name = strings.TrimSpace(req.Name)
	method.Details = req.Details
	if req.Enabled != nil {
		method.Enabled = *req.Enabled
	}
	if err := s.repo.UpdatePaymentMethod(ctx, method); err != nil {
		return nil, err
	}
	return method, nil
}

// SetPaymentMethodEnabled soft-disables (or re-enables) a payment method,
// preserving referential history for past deposits.
func (s *Service) SetPaymentMethodEnabled(ctx context.Context, actorID, methodID uuid.UUID, enabled bool) error {
	if _, err := s.requireAdmin(ctx, actorID); err != nil {
		return err
	}
	return s.repo.SetPaymentMethodEnabled(ctx, methodID, enabled)
}

// DeletePaymentMethod hard-deletes a payment method.
func (s *Service) DeletePaymentMethod(ctx context.Context, actorID, methodID uuid.UUID) error {
	if _, err := s.requireAdmin(ctx, actorID); err != nil {
		return err
	}
	return s.repo.DeletePaymentMethod(ctx, methodID)
}

// ListPaymentMethods returns all payment methods for the admin console,
// including disabled ones.
func (s *Service) ListPaymentMethods(ctx context.Context, actorID uuid.UUID, methodType string) ([]domain.PaymentMethod, error) {
	if _, err := s.requireAdmin(ctx, actorID); err != nil {
		return nil, err
	}
	return s.repo.ListPaymentMethods(ctx, methodType, false)
}

// CreatePlan adds a new investment plan.
func (s *Service) CreatePlan(ctx context.Context, actorID uuid.UUID, req domain.UpsertPlanRequest) (*domain.InvestmentPlan, error) {
	if _, err := s.requireAdmin(ctx, actorID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Name) == "" || req.Price <= 0 {
		return nil, ErrInvalidPlan
	}

	plan := &domain.InvestmentPlan{
		ID:            uuid.New(),
		Name:          strings.TrimSpace(req.Name),
		Price:         req.Price,
		ReturnPercent: req.ReturnPercent,
		BonusAmount:   req.BonusAmount,
		DurationDays:  req.DurationDays,
		Features:      req.Features,
	}
	if err := s.repo.CreatePlan(ctx, plan); err != nil {
		return nil, err
	}
	return plan, nil
}

// UpdatePlan overwrites an investment plan's mutable fields.
func (s *Service) UpdatePlan(ctx context.Context, actorID, planID uuid.UUID, req domain.UpsertPlanRequest) (*domain.InvestmentPlan, error) {
	if _, err := s.requireAdmin(ctx, actorID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Name) == "" || req.Price <= 0 {
		return nil, ErrInvalidPlan
	}

	plan, err := s.repo.FindPlanByID(ctx, planID)
	if err != nil {
		return nil, err
	}
	plan.Name = strings.TrimSpace(req.Name)
	plan.Price = req.Price
	plan.ReturnPercent = req.ReturnPercent
	plan.BonusAmount = req.BonusAmount
	plan.DurationDays = req.DurationDays
	plan.Features = req.Features
	if err := s.repo.UpdatePlan(ctx, plan); err != nil {
		return nil, err
	}
	return plan, nil
}

// DeletePlan hard-deletes an investment plan.
func (s *Service) DeletePlan(ctx context.Context, actorID, planID uuid.UUID) error {
	if _, err := s.requireAdmin(ctx, actorID); err != nil {
		return err
	}
	return s.repo.DeletePlan(ctx, planID)
}

// ListProfiles returns profiles for the admin console.
func (s *Service) ListProfiles(ctx context.Context, actorID uuid.UUID, opts domain.ProfileListOptions) ([]domain.Profile, error) {
	if _, err := s.requireAdmin(ctx, actorID); err != nil {
		return nil, err
	}
	return s.repo.ListProfiles(ctx, opts)
}

// OverrideLedger applies a direct admin edit of a profile's ledger fields and
// refreshes the totals snapshot.
func (s *Service) OverrideLedger(ctx context.Context, actorID, profileID uuid.UUID, update domain.LedgerUpdate) (*domain.Profile, error) {
	if _, err := s.requireAdmin(ctx, actorID); err != nil {
		return nil, err
	}
	return s.repo.UpdateProfileLedger(ctx, profileID, update)
}

// DeactivateProfile disables an account without deleting its records.
func (s *Service) DeactivateProfile(ctx context.Context, actorID, profileID uuid.UUID) error {
	if _, err := s.requireAdmin(ctx, actorID); err != nil {
		return err
	}
	return s.repo.SetProfileActive(ctx, profileID, false)
}

// DeleteProfile removes an account and all of its dependent records.
func (s *Service) DeleteProfile(ctx context.Context, actorID, profileID uuid.UUID) error {
	if _, err := s.requireAdmin(ctx, actorID); err != nil {
		return err
	}
	return s.repo.DeleteProfileCascade(ctx, profileID)
}
