/**
 * @description
 * This file defines the funds-movement domain models for the funding-service:
 * deposits, withdrawals, payment methods, investment plans, and the request
 * DTOs the API layer decodes into.
 *
 * @notes
 * - Deposits and withdrawals share the same three-state lifecycle:
 *   pending -> approved | declined, and the terminal states are final.
 * - Using distinct types for API requests and database models keeps the
 *   layers decoupled and type safe.
 */

package domain

import (
	"time"

	"github.com/google/uuid"
)

// Record statuses shared by deposits and withdrawals.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusDeclined = "declined"
)

// Withdrawal destination methods.
const (
	WithdrawalMethodBank   = "bank_transfer"
	WithdrawalMethodCrypto = "crypto"
)

// Payment method types.
const (
	PaymentMethodTypeBank   = "bank"
	PaymentMethodTypeCrypto = "crypto"
)

// Deposit represents a user's deposit submission against an investment plan
// and a payment method, awaiting admin review. Maps to the `deposits` table.
type Deposit struct {
	ID              uuid.UUID `json:"id"`
	ProfileID       uuid.UUID `json:"profile_id"`
	PlanID          uuid.UUID `json:"plan_id"`
	PaymentMethodID uuid.UUID `json:"payment_method_id"`
	Amount          int64     `json:"amount"` // in cents, fixed at creation
	Status          string    `json:"status"`
	ProofOfPayment  *string   `json:"proof_of_payment,omitempty"`
	AdminNotes      *string   `json:"admin_notes,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// CreateDepositRequest is the DTO for the deposit submission endpoint.
type CreateDepositRequest struct {
	PlanID          uuid.UUID `json:"plan_id"`
	PaymentMethodID uuid.UUID `json:"payment_method_id"`
	Amount          int64     `json:"amount"` // in cents
	ProofOfPayment  *string   `json:"proof_of_payment,omitempty"`
}

// ApprovalAdjustments carries the ledger deltas applied when a deposit is
// approved. The service proposes defaults derived from the deposit amount
// and the plan; an admin may override any of them before committing.
type ApprovalAdjustments struct {
	BalanceDelta  int64 `json:"balance_delta"`
	BonusDelta    int64 `json:"bonus_delta"`
	EarningsDelta int64 `json:"earnings_delta"`
}

// ApproveDepositRequest is the DTO for the admin approval endpoint. Nil
// fields keep the proposed default for that delta.
type ApproveDepositRequest struct {
	BalanceDelta  *int64  `json:"balance_delta,omitempty"`
	BonusDelta    *int64  `json:"bonus_delta,omitempty"`
	EarningsDelta *int64  `json:"earnings_delta,omitempty"`
	AdminNotes    *string `json:"admin_notes,omitempty"`
}

// Withdrawal represents a user's request to move funds out. The amount is
// debited from the profile balance in the same database transaction that
// inserts the row; a decline credits it back exactly once.
type Withdrawal struct {
	ID         uuid.UUID `json:"id"`
	ProfileID  uuid.UUID `json:"profile_id"`
	Amount     int64     `json:"amount"` // in cents, fixed at creation
	Currency   string    `json:"currency"`
	Method     string    `json:"method"` // bank_transfer | crypto
	Status     string    `json:"status"`
	AdminNotes *string   `json:"admin_notes,omitempty"`

	// Bank destination fields (method = bank_transfer).
	BankName      *string `json:"bank_name,omitempty"`
	AccountNumber *string `json:"account_number,omitempty"`
	AccountName   *string `json:"account_name,omitempty"`

	// Crypto destination fields (method = crypto).
	CryptoCurrency *string `json:"crypto_currency,omitempty"`
	CryptoAddress  *string `json:"crypto_address,omitempty"`
	CryptoNetwork  *string `json:"crypto_network,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateWithdrawalRequest is the DTO for the withdrawal request endpoint.
type CreateWithdrawalRequest struct {
	Amount   int64  `json:"amount"` // in cents
	Currency string `json:"currency"`
	Method   string `json:"method"`

	BankName      *string `json:"bank_name,omitempty"`
	AccountNumber *string `json:"account_number,omitempty"`
	AccountName   *string `json:"account_name,omitempty"`

	CryptoCurrency *string `json:"crypto_currency,omitempty"`
	CryptoAddress  *string `json:"crypto_address,omitempty"`
	CryptoNetwork  *string `json:"crypto_network,omitempty"`
}

// ReviewRequest is the DTO for admin approve/decline endpoints that only
// attach notes.
type ReviewRequest struct {
	AdminNotes *string `json:"admin_notes,omitempty"`
}

// PaymentMethod is an admin-configured destination users pay deposits into.
// Soft-disabled via Enabled rather than deleted once referenced by history.
type PaymentMethod struct {
	ID        uuid.UUID         `json:"id"`
	Type      string            `json:"type"` // bank | crypto
	Name      string            `json:"name"`
	Enabled   bool              `json:"enabled"`
	Details   map[string]string `json:"details"` // type-specific key/value pairs
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// UpsertPaymentMethodRequest is the DTO for payment method create/update.
type UpsertPaymentMethodRequest struct {
	Type    string            `json:"type"`
	Name    string            `json:"name"`
	Enabled *bool             `json:"enabled,omitempty"`
	Details map[string]string `json:"details"`
}

// InvestmentPlan is an admin-authored plan deposits are made against.
type InvestmentPlan struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	Price         int64     `json:"price"` // in cents
	ReturnPercent float64   `json:"return_percent"`
	BonusAmount   int64     `json:"bonus_amount"` // in cents
	DurationDays  int       `json:"duration_days"`
	Features      []string  `json:"features"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// UpsertPlanRequest is the DTO for plan create/update.
type UpsertPlanRequest struct {
	Name          string   `json:"name"`
	Price         int64    `json:"price"`
	ReturnPercent float64  `json:"return_percent"`
	BonusAmount   int64    `json:"bonus_amount"`
	DurationDays  int      `json:"duration_days"`
	Features      []string `json:"features"`
}

// RecordListOptions controls pagination and filtering for deposit and
// withdrawal listings.
type RecordListOptions struct {
	Status    string
	ProfileID *uuid.UUID
	Limit     int
	Offset    int
}
