/**
 * @description
 * This file defines the `Repository` interface, which specifies the contract for all
 * data access operations required by the funding-service. By defining an interface,
 * we decouple the application's business logic from the specific database
 * implementation (e.g., PostgreSQL), making the code more modular and easier to test.
 *
 * @dependencies
 * - context: Standard Go library.
 * - github.com/google/uuid: For UUID handling.
 * - internal/domain: For the service's domain models.
 */

package store

import (
	"context"

	"github.com/coinvest/funding-service/internal/domain"
	"github.com/google/uuid"
)

// Repository defines the set of methods for interacting with the database.
type Repository interface {
	// Profile ledger methods
	// Resolve internal UUID from the identity provider's subject (e.g., "user_abc123").
	FindProfileIDByAuthSubject(ctx context.Context, authSubject string) (string, error)
	FindProfileByID(ctx context.Context, profileID uuid.UUID) (*domain.Profile, error)
	ListProfiles(ctx context.Context, opts domain.ProfileListOptions) ([]domain.Profile, error)
	UpdateProfileLedger(ctx context.Context, profileID uuid.UUID, update domain.LedgerUpdate) (*domain.Profile, error)
	SetProfileActive(ctx context.Context, profileID uuid.UUID, active bool) error
	DeleteProfileCascade(ctx context.Context, profileID uuid.UUID) error

	// Deposit methods
	CreateDeposit(ctx context.Context, dep *domain.Deposit) error
	FindDepositByID(ctx context.Context, depositID uuid.UUID) (*domain.Deposit, error)
	ListDeposits(ctx context.Context, opts domain.RecordListOptions) ([]domain.Deposit, error)
	// ApproveDepositAtomic transitions the deposit to approved, applies the
	// ledger deltas to the owning profile, and refreshes the totals snapshot,
	// all inside one database transaction. The transition statement is
	// conditional on status = pending; a no-op update surfaces as
	// ErrAlreadyProcessed and leaves the ledger untouched.
	ApproveDepositAtomic(ctx context.Context, depositID uuid.UUID, adjustments domain.ApprovalAdjustments, adminNotes *string) (*domain.Deposit, error)
	DeclineDeposit(ctx context.Context, depositID uuid.UUID, adminNotes *string) (*domain.Deposit, error)

	// Withdrawal methods
	// CreateWithdrawalAtomic inserts the withdrawal row and debits the owning
	// profile's balance in one database transaction, locking the profile row
	// so the balance check and the debit stay consistent.
	CreateWithdrawalAtomic(ctx context.Context, w *domain.Withdrawal) error
	FindWithdrawalByID(ctx context.Context, withdrawalID uuid.UUID) (*domain.Withdrawal, error)
	ListWithdrawals(ctx context.Context, opts domain.RecordListOptions) ([]domain.Withdrawal, error)
	ApproveWithdrawal(ctx context.Context, withdrawalID uuid.UUID, adminNotes *string) (*domain.Withdrawal, error)
	// DeclineWithdrawalAtomic transitions the withdrawal to declined and
	// credits the amount back to the owning profile in one transaction.
	// The refund happens at most once: a second decline is ErrAlreadyProcessed.
	DeclineWithdrawalAtomic(ctx context.Context, withdrawalID uuid.UUID, adminNotes *string) (*domain.Withdrawal, error)

	// Payment method registry
	CreatePaymentMethod(ctx context.Context, pm *domain.PaymentMethod) error
	FindPaymentMethodByID(ctx context.Context, methodID uuid.UUID) (*domain.PaymentMethod, error)
	ListPaymentMethods(ctx context.Context, methodType string, enabledOnly bool) ([]domain.PaymentMethod, error)
	UpdatePaymentMethod(ctx context.Context, pm *domain.PaymentMethod) error
	SetPaymentMethodEnabled(ctx context.Context, methodID uuid.UUID, enabled bool) error
	DeletePaymentMethod(ctx context.Context, methodID uuid.UUID) error

	// Investment plans
	CreatePlan(ctx context.Context, plan *domain.InvestmentPlan) error
	FindPlanByID(ctx context.Context, planID uuid.UUID) (*domain.InvestmentPlan, error)
	ListPlans(ctx context.Context) ([]domain.InvestmentPlan, error)
	UpdatePlan(ctx context.Context, plan *domain.InvestmentPlan) error
	DeletePlan(ctx context.Context, planID uuid.UUID) error

	// Totals snapshot
	GetProfileTotals(ctx context.Context, profileID uuid.UUID) (*domain.ProfileTotals, error)
	RefreshProfileTotals(ctx context.Context, profileID uuid.UUID) (*domain.ProfileTotals, error)
}
