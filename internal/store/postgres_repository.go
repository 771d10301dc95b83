/**
 * @description
 * This file provides the PostgreSQL implementation of the `Repository` interface
 * for profiles, deposits, and withdrawals. It contains all the SQL for the
 * balance-affecting workflows, including the single-transaction approval and
 * refund paths.
 *
 * @dependencies
 * - context, errors: Standard Go libraries.
 * - github.com/jackc/pgx/v5: The PostgreSQL driver for database operations.
 * - internal/domain: Contains the domain models used for data transfer.
 *
 * @notes
 * - Every status transition is a single conditional UPDATE
 *   (`WHERE status = 'pending'`). Zero rows affected means the record was
 *   already processed by a concurrent admin; callers receive
 *   ErrAlreadyProcessed instead of a silent second success.
 * - Ledger mutations always share the transaction of the status write so a
 *   crash between the two can never leave an approved record with an
 *   untouched balance.
 */

package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/coinvest/funding-service/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrProfileNotFound       = errors.New("profile not found")
	ErrDepositNotFound       = errors.New("deposit not found")
	ErrWithdrawalNotFound    = errors.New("withdrawal not found")
	ErrPaymentMethodNotFound = errors.New("payment method not found")
	ErrPlanNotFound          = errors.New("investment plan not found")
	ErrInsufficientFunds     = errors.New("insufficient funds")
	ErrAlreadyProcessed      = errors.New("record already processed")
)

const profileColumns = `id, auth_subject, email, full_name, balance, bonus, earnings, trading_points, role, is_active, created_at, updated_at`

const depositColumns = `id, profile_id, plan_id, payment_method_id, amount, status, proof_of_payment, admin_notes, created_at, updated_at`

const withdrawalColumns = `id, profile_id, amount, currency, method, status, admin_notes,
       bank_name, account_number, account_name,
       crypto_currency, crypto_address, crypto_network,
       created_at, updated_at`

// PostgresRepository is a concrete implementation of the Repository interface for PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository creates a new instance of PostgresRepository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// clampListWindow bounds caller-supplied pagination to 1..100 rows per page.
func clampListWindow(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// FindProfileIDByAuthSubject resolves the internal UUID from the identity
// provider's subject claim. Mirrors the subject->id mapping kept by the
// onboarding flow.
func (r *PostgresRepository) FindProfileIDByAuthSubject(ctx context.Context, authSubject string) (string, error) {
	var id string
	err := r.db.QueryRow(ctx, "SELECT id FROM profiles WHERE auth_subject = $1", authSubject).Scan(&id)
	if err != nil {
		if err == pgx.ErrNoRows {
			return "", ErrProfileNotFound
		}
		return "", err
	}
	return id, nil
}

func scanProfile(row pgx.Row) (*domain.Profile, error) {
	var p domain.Profile
	err := row.Scan(
		&p.ID, &p.AuthSubject, &p.Email, &p.FullName,
		&p.Balance, &p.Bonus, &p.Earnings, &p.TradingPoints,
		&p.Role, &p.IsActive, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return &p, nil
}

// FindProfileByID retrieves a profile ledger record by its ID.
func (r *PostgresRepository) FindProfileByID(ctx context.Context, profileID uuid.UUID) (*domain.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE id = $1`
	return scanProfile(r.db.QueryRow(ctx, query, profileID))
}

// ListProfiles retrieves profiles for the admin console, newest first.
func (r *PostgresRepository) ListProfiles(ctx context.Context, opts domain.ProfileListOptions) ([]domain.Profile, error) {
	limit, offset := clampListWindow(opts.Limit, opts.Offset)

	query := `SELECT ` + profileColumns + ` FROM profiles`
	args := []interface{}{}
	argPos := 1
	if search := strings.TrimSpace(opts.Search); search != "" {
		query += fmt.Sprintf(` WHERE email ILIKE '%%' || $%d || '%%' OR COALESCE(full_name, '') ILIKE '%%' || $%d || '%%'`, argPos, argPos)
		args = append(args, search)
		argPos++
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, argPos, argPos+1)
	args = append(args, limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var profiles []domain.Profile
	for rows.Next() {
		var p domain.Profile
		if err := rows.Scan(
			&p.ID, &p.AuthSubject, &p.Email, &p.FullName,
			&p.Balance, &p.Bonus, &p.Earnings, &p.TradingPoints,
			&p.Role, &p.IsActive, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return profiles, nil
}

// UpdateProfileLedger applies a direct admin override of the numeric ledger
// fields and refreshes the totals snapshot in the same transaction. Nil
// fields are left unchanged via COALESCE.
func (r *PostgresRepository) UpdateProfileLedger(ctx context.Context, profileID uuid.UUID, update domain.LedgerUpdate) (*domain.Profile, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	query := `
		UPDATE profiles
		SET
			balance = COALESCE($1, balance),
			bonus = COALESCE($2, bonus),
			earnings = COALESCE($3, earnings),
			trading_points = COALESCE($4, trading_points),
			updated_at = NOW()
		WHERE id = $5
		RETURNING ` + profileColumns
	profile, err := scanProfile(tx.QueryRow(ctx, query,
		update.Balance, update.Bonus, update.Earnings, update.TradingPoints, profileID))
	if err != nil {
		return nil, err
	}

	if err := refreshTotalsTx(ctx, tx, profileID); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return profile, nil
}

// SetProfileActive toggles the account's active flag.
func (r *PostgresRepository) SetProfileActive(ctx context.Context, profileID uuid.UUID, active bool) error {
	tag, err := r.db.Exec(ctx, `UPDATE profiles SET is_active = $1, updated_at = NOW() WHERE id = $2`, active, profileID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrProfileNotFound
	}
	return nil
}

// DeleteProfileCascade removes a profile and all of its dependent records in
// one transaction. Only explicit admin account deletion reaches this path.
func (r *PostgresRepository) DeleteProfileCascade(ctx context.Context, profileID uuid.UUID) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, stmt := range []string{
		`DELETE FROM profile_totals WHERE profile_id = $1`,
		`DELETE FROM withdrawals WHERE profile_id = $1`,
		`DELETE FROM deposits WHERE profile_id = $1`,
	} {
		if _, err := tx.Exec(ctx, stmt, profileID); err != nil {
			return err
		}
	}

	tag, err := tx.Exec(ctx, `DELETE FROM profiles WHERE id = $1`, profileID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrProfileNotFound
	}

	return tx.Commit(ctx)
}

// CreateDeposit inserts a new pending deposit record.
func (r *PostgresRepository) CreateDeposit(ctx context.Context, dep *domain.Deposit) error {
	query := `
		INSERT INTO deposits (id, profile_id, plan_id, payment_method_id, amount, status, proof_of_payment)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`
	return r.db.QueryRow(ctx, query,
		dep.ID, dep.ProfileID, dep.PlanID, dep.PaymentMethodID, dep.Amount, dep.Status, dep.ProofOfPayment,
	).Scan(&dep.CreatedAt, &dep.UpdatedAt)
}

func scanDeposit(row pgx.Row) (*domain.Deposit, error) {
	var d domain.Deposit
	err := row.Scan(
		&d.ID, &d.ProfileID, &d.PlanID, &d.PaymentMethodID, &d.Amount,
		&d.Status, &d.ProofOfPayment, &d.AdminNotes, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrDepositNotFound
		}
		return nil, err
	}
	return &d, nil
}

// FindDepositByID retrieves a deposit by its ID.
func (r *PostgresRepository) FindDepositByID(ctx context.Context, depositID uuid.UUID) (*domain.Deposit, error) {
	query := `SELECT ` + depositColumns + ` FROM deposits WHERE id = $1`
	return scanDeposit(r.db.QueryRow(ctx, query, depositID))
}

// ListDeposits retrieves deposits filtered by status and/or owning profile,
// newest first.
func (r *PostgresRepository) ListDeposits(ctx context.Context, opts domain.RecordListOptions) ([]domain.Deposit, error) {
	query := `SELECT ` + depositColumns + ` FROM deposits WHERE 1=1`
	args := []interface{}{}
	argPos := 1
	if status := strings.TrimSpace(strings.ToLower(opts.Status)); status != "" {
		query += fmt.Sprintf(" AND status = $%d", argPos)
		args = append(args, status)
		argPos++
	}
	if opts.ProfileID != nil {
		query += fmt.Sprintf(" AND profile_id = $%d", argPos)
		args = append(args, *opts.ProfileID)
		argPos++
	}
	limit, offset := clampListWindow(opts.Limit, opts.Offset)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argPos, argPos+1)
	args = append(args, limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var deposits []domain.Deposit
	for rows.Next() {
		var d domain.Deposit
		if err := rows.Scan(
			&d.ID, &d.ProfileID, &d.PlanID, &d.PaymentMethodID, &d.Amount,
			&d.Status, &d.ProofOfPayment, &d.AdminNotes, &d.CreatedAt, &d.UpdatedAt,
		); err != nil {
			return nil, err
		}
		deposits = append(deposits, d)
	}
	return deposits, nil
}

// ApproveDepositAtomic performs the approval workflow as one transaction:
// conditional status transition, ledger increments, totals refresh.
func (r *PostgresRepository) ApproveDepositAtomic(ctx context.Context, depositID uuid.UUID, adjustments domain.ApprovalAdjustments, adminNotes *string) (*domain.Deposit, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	transition := `
		UPDATE deposits
		SET status = 'approved', admin_notes = COALESCE($2, admin_notes), updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
		RETURNING ` + depositColumns
	deposit, err := scanDeposit(tx.QueryRow(ctx, transition, depositID, adminNotes))
	if err != nil {
		if errors.Is(err, ErrDepositNotFound) {
			// Distinguish a missing row from one already in a terminal state.
			var exists bool
			if checkErr := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM deposits WHERE id = $1)`, depositID).Scan(&exists); checkErr != nil {
				return nil, checkErr
			}
			if exists {
				return nil, ErrAlreadyProcessed
			}
			return nil, ErrDepositNotFound
		}
		return nil, err
	}

	ledger := `
		UPDATE profiles
		SET
			balance = balance + $1,
			bonus = bonus + $2,
			earnings = earnings + $3,
			updated_at = NOW()
		WHERE id = $4
	`
	tag, err := tx.Exec(ctx, ledger,
		adjustments.BalanceDelta, adjustments.BonusDelta, adjustments.EarningsDelta, deposit.ProfileID)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrProfileNotFound
	}

	if err := refreshTotalsTx(ctx, tx, deposit.ProfileID); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return deposit, nil
}

// DeclineDeposit transitions a pending deposit to declined. No ledger effect.
func (r *PostgresRepository) DeclineDeposit(ctx context.Context, depositID uuid.UUID, adminNotes *string) (*domain.Deposit, error) {
	query := `
		UPDATE deposits
		SET status = 'declined', admin_notes = COALESCE($2, admin_notes), updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
		RETURNING ` + depositColumns
	deposit, err := scanDeposit(r.db.QueryRow(ctx, query, depositID, adminNotes))
	if err != nil {
		if errors.Is(err, ErrDepositNotFound) {
			var exists bool
			if checkErr := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM deposits WHERE id = $1)`, depositID).Scan(&exists); checkErr != nil {
				return nil, checkErr
			}
			if exists {
				return nil, ErrAlreadyProcessed
			}
			return nil, ErrDepositNotFound
		}
		return nil, err
	}
	return deposit, nil
}

func scanWithdrawal(row pgx.Row) (*domain.Withdrawal, error) {
	var w domain.Withdrawal
	err := row.Scan(
		&w.ID, &w.ProfileID, &w.Amount, &w.Currency, &w.Method, &w.Status, &w.AdminNotes,
		&w.BankName, &w.AccountNumber, &w.AccountName,
		&w.CryptoCurrency, &w.CryptoAddress, &w.CryptoNetwork,
		&w.CreatedAt, &w.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrWithdrawalNotFound
		}
		return nil, err
	}
	return &w, nil
}

// CreateWithdrawalAtomic inserts the withdrawal and applies the optimistic
// debit in one transaction. The profile row is locked with FOR UPDATE so the
// sufficiency check and the debit cannot interleave with another writer.
func (r *PostgresRepository) CreateWithdrawalAtomic(ctx context.Context, w *domain.Withdrawal) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var balance int64
	err = tx.QueryRow(ctx, `SELECT balance FROM profiles WHERE id = $1 FOR UPDATE`, w.ProfileID).Scan(&balance)
	if err != nil {
		if err == pgx.ErrNoRows {
			return ErrProfileNotFound
		}
		return err
	}
	if balance < w.Amount {
		return ErrInsufficientFunds
	}

	insert := `
		INSERT INTO withdrawals (
			id, profile_id, amount, currency, method, status,
			bank_name, account_number, account_name,
			crypto_currency, crypto_address, crypto_network
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at, updated_at
	`
	if err := tx.QueryRow(ctx, insert,
		w.ID, w.ProfileID, w.Amount, w.Currency, w.Method, w.Status,
		w.BankName, w.AccountNumber, w.AccountName,
		w.CryptoCurrency, w.CryptoAddress, w.CryptoNetwork,
	).Scan(&w.CreatedAt, &w.UpdatedAt); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `UPDATE profiles SET balance = balance - $1, updated_at = NOW() WHERE id = $2`, w.Amount, w.ProfileID); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// FindWithdrawalByID retrieves a withdrawal by its ID.
func (r *PostgresRepository) FindWithdrawalByID(ctx context.Context, withdrawalID uuid.UUID) (*domain.Withdrawal, error) {
	query := `SELECT ` + withdrawalColumns + ` FROM withdrawals WHERE id = $1`
	return scanWithdrawal(r.db.QueryRow(ctx, query, withdrawalID))
}

// ListWithdrawals retrieves withdrawals filtered by status and/or owning
// profile, newest first.
func (r *PostgresRepository) ListWithdrawals(ctx context.Context, opts domain.RecordListOptions) ([]domain.Withdrawal, error) {
	query := `SELECT ` + withdrawalColumns + ` FROM withdrawals WHERE 1=1`
	args := []interface{}{}
	argPos := 1
	if status := strings.TrimSpace(strings.ToLower(opts.Status)); status != "" {
		query += fmt.Sprintf(" AND status = $%d", argPos)
		args = append(args, status)
		argPos++
	}
	if opts.ProfileID != nil {
		query += fmt.Sprintf(" AND profile_id = $%d", argPos)
		args = append(args, *opts.ProfileID)
		argPos++
	}
	limit, offset := clampListWindow(opts.Limit, opts.Offset)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argPos, argPos+1)
	args = append(args, limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var withdrawals []domain.Withdrawal
	for rows.Next() {
		var w domain.Withdrawal
		if err := rows.Scan(
			&w.ID, &w.ProfileID, &w.Amount, &w.Currency, &w.Method, &w.Status, &w.AdminNotes,
			&w.BankName, &w.AccountNumber, &w.AccountName,
			&w.CryptoCurrency, &w.CryptoAddress, &w.CryptoNetwork,
			&w.CreatedAt, &w.UpdatedAt,
		); err != nil {
			return nil, err
		}
		withdrawals = append(withdrawals, w)
	}
	return withdrawals, nil
}

// ApproveWithdrawal transitions a pending withdrawal to approved. The debit
// already happened at creation, so there is no further ledger change.
func (r *PostgresRepository) ApproveWithdrawal(ctx context.Context, withdrawalID uuid.UUID, adminNotes *string) (*domain.Withdrawal, error) {
	query := `
		UPDATE withdrawals
		SET status = 'approved', admin_notes = COALESCE($2, admin_notes), updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
		RETURNING ` + withdrawalColumns
	w, err := scanWithdrawal(r.db.QueryRow(ctx, query, withdrawalID, adminNotes))
	if err != nil {
		if errors.Is(err, ErrWithdrawalNotFound) {
			var exists bool
			if checkErr := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM withdrawals WHERE id = $1)`, withdrawalID).Scan(&exists); checkErr != nil {
				return nil, checkErr
			}
			if exists {
				return nil, ErrAlreadyProcessed
			}
			return nil, ErrWithdrawalNotFound
		}
		return nil, err
	}
	return w, nil
}

// DeclineWithdrawalAtomic transitions a pending withdrawal to declined and
// refunds the optimistic debit in one transaction. Because the transition is
// conditional, the refund can only ever run once per withdrawal.
func (r *PostgresRepository) DeclineWithdrawalAtomic(ctx context.Context, withdrawalID uuid.UUID, adminNotes *string) (*domain.Withdrawal, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	transition := `
		UPDATE withdrawals
		SET status = 'declined', admin_notes = COALESCE($2, admin_notes), updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
		RETURNING ` + withdrawalColumns
	w, err := scanWithdrawal(tx.QueryRow(ctx, transition, withdrawalID, adminNotes))
	if err != nil {
		if errors.Is(err, ErrWithdrawalNotFound) {
			var exists bool
			if checkErr := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM withdrawals WHERE id = $1)`, withdrawalID).Scan(&exists); checkErr != nil {
				return nil, checkErr
			}
			if exists {
				return nil, ErrAlreadyProcessed
			}
			return nil, ErrWithdrawalNotFound
		}
		return nil, err
	}

	tag, err := tx.Exec(ctx, `UPDATE profiles SET balance = balance + $1, updated_at = NOW() WHERE id = $2`, w.Amount, w.ProfileID)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrProfileNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return w, nil
}
