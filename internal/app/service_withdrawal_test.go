package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/coinvest/funding-service/internal/domain"
	"github.com/coinvest/funding-service/internal/store"
	"github.com/google/uuid"
)

func strPtr(s string) *string { return &s }

type withdrawalRepoStub struct {
	store.Repository

	profile    *domain.Profile
	withdrawal *domain.Withdrawal

	createCalled  bool
	createdAmount int64
	createErr     error

	declineCalled int
	declineErr    error
}

func (s *withdrawalRepoStub) FindProfileByID(ctx context.Context, profileID uuid.UUID) (*domain.Profile, error) {
	if s.profile == nil || s.profile.ID != profileID {
		return nil, store.ErrProfileNotFound
	}
	return s.profile, nil
}

func (s *withdrawalRepoStub) CreateWithdrawalAtomic(ctx context.Context, w *domain.Withdrawal) error {
	s.createCalled = true
	s.createdAmount = w.Amount
	if s.createErr != nil {
		return s.createErr
	}
	// Mirror the repository's debit of the in-memory profile for assertions.
	s.profile.Balance -= w.Amount
	return nil
}

func (s *withdrawalRepoStub) DeclineWithdrawalAtomic(ctx context.Context, withdrawalID uuid.UUID, adminNotes *string) (*domain.Withdrawal, error) {
	s.declineCalled++
	if s.declineErr != nil {
		return nil, s.declineErr
	}
	s.profile.Balance += s.withdrawal.Amount
	declined := *s.withdrawal
	declined.Status = domain.StatusDeclined
	declined.AdminNotes = adminNotes
	return &declined, nil
}

func validBankWithdrawal(amount int64) domain.CreateWithdrawalRequest {
	return domain.CreateWithdrawalRequest{
		Amount:        amount,
		Method:        domain.WithdrawalMethodBank,
		BankName:      strPtr("First Bank"),
		AccountNumber: strPtr("0123456789"),
		AccountName:   strPtr("Ada Lovelace"),
	}
}

func TestValidateWithdrawalRequest(t *testing.T) {
	tests := []struct {
		name    string
		req     domain.CreateWithdrawalRequest
		wantErr error
	}{
		{
			name:    "valid bank request",
			req:     validBankWithdrawal(5000),
			wantErr: nil,
		},
		{
			name: "valid crypto request",
			req: domain.CreateWithdrawalRequest{
				Amount:         5000,
				Method:         domain.WithdrawalMethodCrypto,
				CryptoCurrency: strPtr("BTC"),
				CryptoAddress:  strPtr("bc1qexampleaddress"),
				CryptoNetwork:  strPtr("bitcoin"),
			},
			wantErr: nil,
		},
		{
			name:    "zero amount",
			req:     validBankWithdrawal(0),
			wantErr: ErrInvalidAmount,
		},
		{
			name:    "negative amount",
			req:     validBankWithdrawal(-100),
			wantErr: ErrInvalidAmount,
		},
		{
			name: "unknown method",
			req: domain.CreateWithdrawalRequest{
				Amount: 5000,
				Method: "paypal",
			},
			wantErr: ErrInvalidWithdrawalMethod,
		},
		{
			name: "bank request missing account number",
			req: domain.CreateWithdrawalRequest{
				Amount:      5000,
				Method:      domain.WithdrawalMethodBank,
				BankName:    strPtr("First Bank"),
				AccountName: strPtr("Ada Lovelace"),
			},
			wantErr: ErrMissingBankDetails,
		},
		{
			name: "bank request with whitespace-only bank name",
			req: domain.CreateWithdrawalRequest{
				Amount:        5000,
				Method:        domain.WithdrawalMethodBank,
				BankName:      strPtr("   "),
				AccountNumber: strPtr("0123456789"),
				AccountName:   strPtr("Ada Lovelace"),
			},
			wantErr: ErrMissingBankDetails,
		},
		{
			name: "crypto request missing address",
			req: domain.CreateWithdrawalRequest{
				Amount:         5000,
				Method:         domain.WithdrawalMethodCrypto,
				CryptoCurrency: strPtr("BTC"),
				CryptoNetwork:  strPtr("bitcoin"),
			},
			wantErr: ErrMissingCryptoDetails,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateWithdrawalRequest(tt.req)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestRequestWithdrawal_DebitsBalanceOptimistically(t *testing.T) {
	profileID := uuid.New()
	repo := &withdrawalRepoStub{
		profile: &domain.Profile{ID: profileID, Balance: 10000, Role: domain.RoleUser, IsActive: true},
	}
	svc := NewService(repo, nil)

	w, err := svc.RequestWithdrawal(context.Background(), profileID, validBankWithdrawal(4000))
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if w.Status != domain.StatusPending {
		t.Fatalf("expected pending status, got %q", w.Status)
	}
	if w.Currency != "USD" {
		t.Fatalf("expected USD default currency, got %q", w.Currency)
	}
	if !repo.createCalled {
		t.Fatal("expected atomic create to be invoked")
	}
	if repo.profile.Balance != 6000 {
		t.Fatalf("expected balance 6000 after debit, got %d", repo.profile.Balance)
	}
}

func TestRequestWithdrawal_PropagatesInsufficientFunds(t *testing.T) {
	profileID := uuid.New()
	repo := &withdrawalRepoStub{
		profile:   &domain.Profile{ID: profileID, Balance: 1000, Role: domain.RoleUser, IsActive: true},
		createErr: store.ErrInsufficientFunds,
	}
	svc := NewService(repo, nil)

	_, err := svc.RequestWithdrawal(context.Background(), profileID, validBankWithdrawal(4000))
	if !errors.Is(err, store.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
}

func TestRequestWithdrawal_RejectsInactiveAccount(t *testing.T) {
	profileID := uuid.New()
	repo := &withdrawalRepoStub{
		profile: &domain.Profile{ID: profileID, Balance: 10000, Role: domain.RoleUser, IsActive: false},
	}
	svc := NewService(repo, nil)

	_, err := svc.RequestWithdrawal(context.Background(), profileID, validBankWithdrawal(4000))
	if !errors.Is(err, ErrAccountInactive) {
		t.Fatalf("expected ErrAccountInactive, got %v", err)
	}
	if repo.createCalled {
		t.Fatal("did not expect a create attempt for an inactive account")
	}
}

type fixedRateLimiterStub struct {
	count      int
	retryAfter int
	err        error
}

func (s *fixedRateLimiterStub) ConsumeRateLimit(ctx context.Context, scope, subject string, limit int, window time.Duration) (int, int, error) {
	return s.count, s.retryAfter, s.err
}

func TestRequestWithdrawal_RateLimited(t *testing.T) {
	profileID := uuid.New()
	repo := &withdrawalRepoStub{
		profile: &domain.Profile{ID: profileID, Balance: 10000, Role: domain.RoleUser, IsActive: true},
	}
	svc := NewService(repo, nil)
	svc.SetWithdrawalRateLimiter(&fixedRateLimiterStub{count: 6, retryAfter: 42}, 5)

	_, err := svc.RequestWithdrawal(context.Background(), profileID, validBankWithdrawal(4000))
	var rateErr *RateLimitedError
	if !errors.As(err, &rateErr) {
		t.Fatalf("expected RateLimitedError, got %v", err)
	}
	if rateErr.RetryAfterSeconds != 42 {
		t.Fatalf("expected retry after 42s, got %d", rateErr.RetryAfterSeconds)
	}
	if repo.createCalled {
		t.Fatal("did not expect a create attempt when rate limited")
	}
}

func TestRequestWithdrawal_LimiterOutageDegradesOpen(t *testing.T) {
	profileID := uuid.New()
	repo := &withdrawalRepoStub{
		profile: &domain.Profile{ID: profileID, Balance: 10000, Role: domain.RoleUser, IsActive: true},
	}
	svc := NewService(repo, nil)
	svc.SetWithdrawalRateLimiter(&fixedRateLimiterStub{err: errors.New("redis unavailable")}, 5)

	if _, err := svc.RequestWithdrawal(context.Background(), profileID, validBankWithdrawal(4000)); err != nil {
		t.Fatalf("expected limiter outage to be ignored, got %v", err)
	}
	if !repo.createCalled {
		t.Fatal("expected the withdrawal to proceed despite the limiter outage")
	}
}

func TestDeclineWithdrawal_RefundsExactlyOnce(t *testing.T) {
	adminID := uuid.New()
	ownerID := uuid.New()
	withdrawal := &domain.Withdrawal{
		ID:        uuid.New(),
		ProfileID: ownerID,
		Amount:    4000,
		Status:    domain.StatusPending,
	}
	repo := &withdrawalRepoStub{
		profile:    &domain.Profile{ID: adminID, Role: domain.RoleAdmin, IsActive: true, Balance: 6000},
		withdrawal: withdrawal,
	}
	svc := NewService(repo, nil)

	declined, err := svc.DeclineWithdrawal(context.Background(), adminID, withdrawal.ID, strPtr("details unverifiable"))
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if declined.Status != domain.StatusDeclined {
		t.Fatalf("expected declined status, got %q", declined.Status)
	}
	if repo.profile.Balance != 10000 {
		t.Fatalf("expected balance restored to 10000, got %d", repo.profile.Balance)
	}

	// Second decline of the same record must not refund again.
	repo.declineErr = store.ErrAlreadyProcessed
	if _, err := svc.DeclineWithdrawal(context.Background(), adminID, withdrawal.ID, nil); !errors.Is(err, store.ErrAlreadyProcessed) {
		t.Fatalf("expected ErrAlreadyProcessed on replay, got %v", err)
	}
	if repo.profile.Balance != 10000 {
		t.Fatalf("expected balance unchanged after replayed decline, got %d", repo.profile.Balance)
	}
	if repo.declineCalled != 2 {
		t.Fatalf("expected two decline attempts, got %d", repo.declineCalled)
	}
}
