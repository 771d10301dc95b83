package app

import (
	"context"
	"errors"
	"testing"

	"github.com/coinvest/funding-service/internal/domain"
	"github.com/coinvest/funding-service/internal/store"
	"github.com/google/uuid"
)

type depositApprovalRepoStub struct {
	store.Repository

	actor   *domain.Profile
	deposit *domain.Deposit
	plan    *domain.InvestmentPlan

	approveCalled      bool
	approvedDepositID  uuid.UUID
	appliedAdjustments domain.ApprovalAdjustments
	approveErr         error

	declineCalled bool
}

func (s *depositApprovalRepoStub) FindProfileByID(ctx context.Context, profileID uuid.UUID) (*domain.Profile, error) {
	if s.actor == nil || s.actor.ID != profileID {
		return nil, store.ErrProfileNotFound
	}
	return s.actor, nil
}

func (s *depositApprovalRepoStub) FindDepositByID(ctx context.Context, depositID uuid.UUID) (*domain.Deposit, error) {
	if s.deposit == nil || s.deposit.ID != depositID {
		return nil, store.ErrDepositNotFound
	}
	return s.deposit, nil
}

func (s *depositApprovalRepoStub) FindPlanByID(ctx context.Context, planID uuid.UUID) (*domain.InvestmentPlan, error) {
	if s.plan == nil || s.plan.ID != planID {
		return nil, store.ErrPlanNotFound
	}
	return s.plan, nil
}

func (s *depositApprovalRepoStub) ApproveDepositAtomic(ctx context.Context, depositID uuid.UUID, adjustments domain.ApprovalAdjustments, adminNotes *string) (*domain.Deposit, error) {
	s.approveCalled = true
	s.approvedDepositID = depositID
	s.appliedAdjustments = adjustments
	if s.approveErr != nil {
		return nil, s.approveErr
	}
	approved := *s.deposit
	approved.Status = domain.StatusApproved
	approved.AdminNotes = adminNotes
	return &approved, nil
}

func (s *depositApprovalRepoStub) DeclineDeposit(ctx context.Context, depositID uuid.UUID, adminNotes *string) (*domain.Deposit, error) {
	s.declineCalled = true
	declined := *s.deposit
	declined.Status = domain.StatusDeclined
	declined.AdminNotes = adminNotes
	return &declined, nil
}

func newDepositApprovalStub(role string) (*depositApprovalRepoStub, uuid.UUID) {
	actorID := uuid.New()
	planID := uuid.New()
	stub := &depositApprovalRepoStub{
		actor: &domain.Profile{ID: actorID, Role: role, IsActive: true},
		plan: &domain.InvestmentPlan{
			ID:            planID,
			Name:          "Starter",
			Price:         10000,
			ReturnPercent: 10,
			BonusAmount:   5000,
		},
		deposit: &domain.Deposit{
			ID:        uuid.New(),
			ProfileID: uuid.New(),
			PlanID:    planID,
			Amount:    50000,
			Status:    domain.StatusPending,
		},
	}
	return stub, actorID
}

func TestApproveDeposit_AppliesProposedAdjustments(t *testing.T) {
	repo, actorID := newDepositApprovalStub(domain.RoleAdmin)
	svc := NewService(repo, nil)

	approved, err := svc.ApproveDeposit(context.Background(), actorID, repo.deposit.ID, domain.ApproveDepositRequest{})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if approved.Status != domain.StatusApproved {
		t.Fatalf("expected approved status, got %q", approved.Status)
	}
	if !repo.approveCalled {
		t.Fatal("expected atomic approval to be invoked")
	}
	if repo.appliedAdjustments.BalanceDelta != 50000 {
		t.Fatalf("expected balance delta 50000, got %d", repo.appliedAdjustments.BalanceDelta)
	}
	if repo.appliedAdjustments.BonusDelta != 5000 {
		t.Fatalf("expected bonus delta 5000, got %d", repo.appliedAdjustments.BonusDelta)
	}
	if repo.appliedAdjustments.EarningsDelta != 5000 {
		t.Fatalf("expected earnings delta 5000 (10%% of 50000), got %d", repo.appliedAdjustments.EarningsDelta)
	}
}

func TestApproveDeposit_HonorsAdminOverrides(t *testing.T) {
	repo, actorID := newDepositApprovalStub(domain.RoleAdmin)
	svc := NewService(repo, nil)

	balance := int64(1000)
	earnings := int64(0)
	req := domain.ApproveDepositRequest{BalanceDelta: &balance, EarningsDelta: &earnings}

	if _, err := svc.ApproveDeposit(context.Background(), actorID, repo.deposit.ID, req); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if repo.appliedAdjustments.BalanceDelta != 1000 {
		t.Fatalf("expected overridden balance delta 1000, got %d", repo.appliedAdjustments.BalanceDelta)
	}
	if repo.appliedAdjustments.EarningsDelta != 0 {
		t.Fatalf("expected overridden earnings delta 0, got %d", repo.appliedAdjustments.EarningsDelta)
	}
	if repo.appliedAdjustments.BonusDelta != 5000 {
		t.Fatalf("expected plan bonus to survive partial override, got %d", repo.appliedAdjustments.BonusDelta)
	}
}

func TestApproveDeposit_RejectsNonAdminWithoutMutation(t *testing.T) {
	repo, actorID := newDepositApprovalStub(domain.RoleUser)
	svc := NewService(repo, nil)

	_, err := svc.ApproveDeposit(context.Background(), actorID, repo.deposit.ID, domain.ApproveDepositRequest{})
	if !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("expected ErrNotAuthorized, got %v", err)
	}
	if repo.approveCalled {
		t.Fatal("did not expect any approval attempt for a non-admin actor")
	}
}

func TestApproveDeposit_PropagatesAlreadyProcessed(t *testing.T) {
	repo, actorID := newDepositApprovalStub(domain.RoleAdmin)
	repo.approveErr = store.ErrAlreadyProcessed
	svc := NewService(repo, nil)

	_, err := svc.ApproveDeposit(context.Background(), actorID, repo.deposit.ID, domain.ApproveDepositRequest{})
	if !errors.Is(err, store.ErrAlreadyProcessed) {
		t.Fatalf("expected ErrAlreadyProcessed, got %v", err)
	}
}

func TestDeclineDeposit_RejectsNonAdmin(t *testing.T) {
	repo, actorID := newDepositApprovalStub(domain.RoleUser)
	svc := NewService(repo, nil)

	_, err := svc.DeclineDeposit(context.Background(), actorID, repo.deposit.ID, nil)
	if !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("expected ErrNotAuthorized, got %v", err)
	}
	if repo.declineCalled {
		t.Fatal("did not expect a decline attempt for a non-admin actor")
	}
}
