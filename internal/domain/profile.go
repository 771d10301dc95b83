/**
 * @description
 * This file defines the profile ledger models for the funding-service.
 * The Profile row is the single source of truth for a user's funds: every
 * balance-affecting workflow (deposit approval, withdrawal creation,
 * withdrawal decline, direct admin edits) mutates these fields.
 *
 * @notes
 * - Amounts are stored as `int64` in the smallest currency unit (cents),
 *   which avoids floating-point inaccuracies with financial data.
 */

package domain

import (
	"time"

	"github.com/google/uuid"
)

// Profile roles. Role is the only authorization source in the service;
// there is no admin email allow-list.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Profile represents a user's ledger record. Maps to the `profiles` table.
type Profile struct {
	ID            uuid.UUID `json:"id"`
	AuthSubject   string    `json:"-"`
	Email         string    `json:"email"`
	FullName      *string   `json:"full_name,omitempty"`
	Balance       int64     `json:"balance"`        // in cents
	Bonus         int64     `json:"bonus"`          // in cents
	Earnings      int64     `json:"earnings"`       // in cents
	TradingPoints int64     `json:"trading_points"` // in cents
	Role          string    `json:"role"`
	IsActive      bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// IsAdmin reports whether the profile carries the admin role.
func (p *Profile) IsAdmin() bool {
	return p != nil && p.Role == RoleAdmin
}

// ProfileTotals is the derived snapshot row kept in `profile_totals`.
// It is a pure projection of the current Profile ledger fields, not a
// lifetime sum over deposit history; refreshing it twice against the same
// profile state yields the same row.
type ProfileTotals struct {
	ProfileID     uuid.UUID `json:"profile_id"`
	Balance       int64     `json:"balance"`
	Bonus         int64     `json:"bonus"`
	Earnings      int64     `json:"earnings"`
	TradingPoints int64     `json:"trading_points"`
	TotalAmount   int64     `json:"total_amount"`
	RefreshedAt   time.Time `json:"refreshed_at"`
}

// LedgerUpdate carries a direct admin override of the numeric ledger fields.
// Nil fields are left unchanged.
type LedgerUpdate struct {
	Balance       *int64 `json:"balance,omitempty"`
	Bonus         *int64 `json:"bonus,omitempty"`
	Earnings      *int64 `json:"earnings,omitempty"`
	TradingPoints *int64 `json:"trading_points,omitempty"`
}

// ProfileListOptions controls pagination and filtering for admin profile listings.
type ProfileListOptions struct {
	Limit  int
	Offset int
	Search string
}
