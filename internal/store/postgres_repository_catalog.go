/**
 * @description
 * This file provides the PostgreSQL implementation of the `Repository` interface
 * for the admin-owned catalog entities (payment methods and investment plans)
 * and for the profile totals snapshot.
 *
 * @dependencies
 * - context, encoding/json: Standard Go libraries.
 * - github.com/jackc/pgx/v5: The PostgreSQL driver for database operations.
 * - internal/domain: Contains the domain models used for data transfer.
 */

package store

import (
	"context"
	"encoding/json"

	"github.com/coinvest/funding-service/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// CreatePaymentMethod inserts a new payment method. Details are stored as jsonb.
func (r *PostgresRepository) CreatePaymentMethod(ctx context.Context, pm *domain.PaymentMethod) error {
	details, err := json.Marshal(pm.Details)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO payment_methods (id, type, name, enabled, details)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at
	`
	return r.db.QueryRow(ctx, query, pm.ID, pm.Type, pm.Name, pm.Enabled, details).
		Scan(&pm.CreatedAt, &pm.UpdatedAt)
}

func scanPaymentMethod(row pgx.Row) (*domain.PaymentMethod, error) {
	var pm domain.PaymentMethod
	var details []byte
	err := row.Scan(&pm.ID, &pm.Type, &pm.Name, &pm.Enabled, &details, &pm.CreatedAt, &pm.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrPaymentMethodNotFound
		}
		return nil, err
	}
	if len(details) > 0 {
		if err := json.Unmarshal(details, &pm.Details); err != nil {
			return nil, err
		}
	}
	return &pm, nil
}

// FindPaymentMethodByID retrieves a payment method by its ID.
func (r *PostgresRepository) FindPaymentMethodByID(ctx context.Context, methodID uuid.UUID) (*domain.PaymentMethod, error) {
	query := `SELECT id, type, name, enabled, details, created_at, updated_at FROM payment_methods WHERE id = $1`
	return scanPaymentMethod(r.db.QueryRow(ctx, query, methodID))
}

// ListPaymentMethods retrieves payment methods, optionally filtered by type
// and restricted to enabled rows (the user-facing catalog view).
func (r *PostgresRepository) ListPaymentMethods(ctx context.Context, methodType string, enabledOnly bool) ([]domain.PaymentMethod, error) {
	query := `SELECT id, type, name, enabled, details, created_at, updated_at FROM payment_methods WHERE 1=1`
	args := []interface{}{}
	if methodType != "" {
		query += ` AND type = $1`
		args = append(args, methodType)
	}
	if enabledOnly {
		query += ` AND enabled = true`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var methods []domain.PaymentMethod
	for rows.Next() {
		var pm domain.PaymentMethod
		var details []byte
		if err := rows.Scan(&pm.ID, &pm.Type, &pm.Name, &pm.Enabled, &details, &pm.CreatedAt, &pm.UpdatedAt); err != nil {
			return nil, err
		}
		if len(details) > 0 {
			if err := json.Unmarshal(details, &pm.Details); err != nil {
				return nil, err
			}
		}
		methods = append(methods, pm)
	}
	return methods, nil
}

// UpdatePaymentMethod overwrites the mutable fields of a payment method.
func (r *PostgresRepository) UpdatePaymentMethod(ctx context.Context, pm *domain.PaymentMethod) error {
	details, err := json.Marshal(pm.Details)
	if err != nil {
		return err
	}
	query := `
		UPDATE payment_methods
		SET type = $2, name = $3, enabled = $4, details = $5, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	err = r.db.QueryRow(ctx, query, pm.ID, pm.Type, pm.Name, pm.Enabled, details).Scan(&pm.UpdatedAt)
	if err == pgx.ErrNoRows {
		return ErrPaymentMethodNotFound
	}
	return err
}

// SetPaymentMethodEnabled toggles the enabled flag; used instead of deletion
// when the method is referenced by deposit history.
func (r *PostgresRepository) SetPaymentMethodEnabled(ctx context.Context, methodID uuid.UUID, enabled bool) error {
	tag, err := r.db.Exec(ctx, `UPDATE payment_methods SET enabled = $1, updated_at = NOW() WHERE id = $2`, enabled, methodID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPaymentMethodNotFound
	}
	return nil
}

// DeletePaymentMethod hard-deletes a payment method.
func (r *PostgresRepository) DeletePaymentMethod(ctx context.Context, methodID uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM payment_methods WHERE id = $1`, methodID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPaymentMethodNotFound
	}
	return nil
}

// CreatePlan inserts a new investment plan. Features are stored as jsonb to
// preserve ordering.
func (r *PostgresRepository) CreatePlan(ctx context.Context, plan *domain.InvestmentPlan) error {
	features, err := json.Marshal(plan.Features)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO investment_plans (id, name, price, return_percent, bonus_amount, duration_days, features)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`
	return r.db.QueryRow(ctx, query,
		plan.ID, plan.Name, plan.Price, plan.ReturnPercent, plan.BonusAmount, plan.DurationDays, features,
	).Scan(&plan.CreatedAt, &plan.UpdatedAt)
}

func scanPlan(row pgx.Row) (*domain.InvestmentPlan, error) {
	var p domain.InvestmentPlan
	var features []byte
	err := row.Scan(&p.ID, &p.Name, &p.Price, &p.ReturnPercent, &p.BonusAmount, &p.DurationDays, &features, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	if len(features) > 0 {
		if err := json.Unmarshal(features, &p.Features); err != nil {
			return nil, err
		}
	}
	return &p, nil
}

// FindPlanByID retrieves an investment plan by its ID.
func (r *PostgresRepository) FindPlanByID(ctx context.Context, planID uuid.UUID) (*domain.InvestmentPlan, error) {
	query := `SELECT id, name, price, return_percent, bonus_amount, duration_days, features, created_at, updated_at FROM investment_plans WHERE id = $1`
	return scanPlan(r.db.QueryRow(ctx, query, planID))
}

// ListPlans retrieves all investment plans, cheapest first.
func (r *PostgresRepository) ListPlans(ctx context.Context) ([]domain.InvestmentPlan, error) {
	query := `SELECT id, name, price, return_percent, bonus_amount, duration_days, features, created_at, updated_at FROM investment_plans ORDER BY price ASC`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var plans []domain.InvestmentPlan
	for rows.Next() {
		var p domain.InvestmentPlan
		var features []byte
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.ReturnPercent, &p.BonusAmount, &p.DurationDays, &features, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		if len(features) > 0 {
			if err := json.Unmarshal(features, &p.Features); err != nil {
				return nil, err
			}
		}
		plans = append(plans, p)
	}
	return plans, nil
}

// UpdatePlan overwrites the mutable fields of an investment plan.
func (r *PostgresRepository) UpdatePlan(ctx context.Context, plan *domain.InvestmentPlan) error {
	features, err := json.Marshal(plan.Features)
	if err != nil {
		return err
	}
	query := `
		UPDATE investment_plans
		SET name = $2, price = $3, return_percent = $4, bonus_amount = $5, duration_days = $6, features = $7, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	err = r.db.QueryRow(ctx, query,
		plan.ID, plan.Name, plan.Price, plan.ReturnPercent, plan.BonusAmount, plan.DurationDays, features,
	).Scan(&plan.UpdatedAt)
	if err == pgx.ErrNoRows {
		return ErrPlanNotFound
	}
	return err
}

// DeletePlan hard-deletes an investment plan. Historical deposits keep their
// plan_id reference; there is no enforced cascade.
func (r *PostgresRepository) DeletePlan(ctx context.Context, planID uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM investment_plans WHERE id = $1`, planID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPlanNotFound
	}
	return nil
}

// totalsUpsert recomputes the snapshot row from the profile's current ledger
// fields. It is a pure projection of present state, deliberately not a sum
// over deposit history, so re-running it is idempotent.
const totalsUpsert = `
	INSERT INTO profile_totals (profile_id, balance, bonus, earnings, trading_points, total_amount, refreshed_at)
	SELECT id, balance, bonus, earnings, trading_points,
	       balance + bonus + earnings + trading_points, NOW()
	FROM profiles
	WHERE id = $1
	ON CONFLICT (profile_id)
	DO UPDATE SET
		balance = EXCLUDED.balance,
		bonus = EXCLUDED.bonus,
		earnings = EXCLUDED.earnings,
		trading_points = EXCLUDED.trading_points,
		total_amount = EXCLUDED.total_amount,
		refreshed_at = EXCLUDED.refreshed_at
`

func refreshTotalsTx(ctx context.Context, tx pgx.Tx, profileID uuid.UUID) error {
	tag, err := tx.Exec(ctx, totalsUpsert, profileID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrProfileNotFound
	}
	return nil
}

// GetProfileTotals retrieves the current totals snapshot for a profile.
func (r *PostgresRepository) GetProfileTotals(ctx context.Context, profileID uuid.UUID) (*domain.ProfileTotals, error) {
	query := `
		SELECT profile_id, balance, bonus, earnings, trading_points, total_amount, refreshed_at
		FROM profile_totals
		WHERE profile_id = $1
	`
	var t domain.ProfileTotals
	err := r.db.QueryRow(ctx, query, profileID).Scan(
		&t.ProfileID, &t.Balance, &t.Bonus, &t.Earnings, &t.TradingPoints, &t.TotalAmount, &t.RefreshedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return &t, nil
}

// RefreshProfileTotals recomputes the snapshot outside an approval flow
// (e.g., after a direct admin ledger edit surfaced through another path).
func (r *PostgresRepository) RefreshProfileTotals(ctx context.Context, profileID uuid.UUID) (*domain.ProfileTotals, error) {
	tag, err := r.db.Exec(ctx, totalsUpsert, profileID)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrProfileNotFound
	}
	return r.GetProfileTotals(ctx, profileID)
}
